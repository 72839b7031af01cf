package InputParameters

import (
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters1D struct {
	Title           string    `json:"Title"`
	PolynomialOrder int       `json:"PolynomialOrder"`
	K               int       `json:"K"` // Number of elements on the coarsest mesh
	XMin            float64   `json:"XMin"`
	XMax            float64   `json:"XMax"`
	Kappa           float64   `json:"Kappa"`
	Beta            float64   `json:"Beta"`
	C               float64   `json:"C"`
	Solution        string    `json:"Solution"`      // constant, cubic or sine
	Levels          int       `json:"Levels"`        // Uniform refinements after the coarsest mesh
	GoalSubdomain   []float64 `json:"GoalSubdomain"` // [a, b] restricts the goal integral, empty is the whole mesh
	ParallelDegree  int       `json:"ParallelDegree"`
	CSVFile         string    `json:"CSVFile"`
}

func NewInputParameters1D() *InputParameters1D {
	return &InputParameters1D{
		Title:           "Poisson",
		PolynomialOrder: 1,
		K:               4,
		XMin:            0,
		XMax:            1,
		Kappa:           1,
		Solution:        "sine",
		Levels:          4,
	}
}

// Parse overlays the YAML document onto the receiver, so fields absent from
// the file keep their current values
func (ip *InputParameters1D) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *InputParameters1D) ReadFile(fileName string) (err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	if err = ip.Parse(data); err != nil {
		err = fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

func (ip *InputParameters1D) Validate() error {
	switch {
	case ip.PolynomialOrder < 1:
		return fmt.Errorf("PolynomialOrder = %d, must be at least 1", ip.PolynomialOrder)
	case ip.K < 2:
		return fmt.Errorf("K = %d, must be at least 2, a single cell cannot carry a patch fit", ip.K)
	case ip.XMax <= ip.XMin:
		return fmt.Errorf("XMax = %g must exceed XMin = %g", ip.XMax, ip.XMin)
	case ip.Kappa <= 0:
		return fmt.Errorf("Kappa = %g, must be positive", ip.Kappa)
	case ip.Levels < 0:
		return fmt.Errorf("Levels = %d, must not be negative", ip.Levels)
	case len(ip.GoalSubdomain) != 0 && len(ip.GoalSubdomain) != 2:
		return fmt.Errorf("GoalSubdomain = %v, want [a, b]", ip.GoalSubdomain)
	case len(ip.GoalSubdomain) == 2 && ip.GoalSubdomain[1] <= ip.GoalSubdomain[0]:
		return fmt.Errorf("GoalSubdomain = %v is empty", ip.GoalSubdomain)
	}
	return nil
}

// Marshal returns the parameters as a YAML document
func (ip *InputParameters1D) Marshal() ([]byte, error) {
	return yaml.Marshal(ip)
}

func (ip *InputParameters1D) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Coarse Elements\n", ip.K)
	fmt.Fprintf(w, "[%8.5f,%8.5f]\t= Domain\n", ip.XMin, ip.XMax)
	fmt.Fprintf(w, "%8.5f\t\t= Kappa\n", ip.Kappa)
	fmt.Fprintf(w, "%8.5f\t\t= Beta\n", ip.Beta)
	fmt.Fprintf(w, "%8.5f\t\t= C\n", ip.C)
	fmt.Fprintf(w, "[%s]\t\t\t= Solution\n", ip.Solution)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Refinement Levels\n", ip.Levels)
	if len(ip.GoalSubdomain) == 2 {
		fmt.Fprintf(w, "%v\t\t= Goal Subdomain\n", ip.GoalSubdomain)
	}
}
