package InputParameters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputParameters1D(t *testing.T) {
	{ // fields absent from the file keep their defaults
		ip := NewInputParameters1D()
		require.NoError(t, ip.Parse([]byte(`
Title: "Convection Diffusion"
PolynomialOrder: 2
Beta: 0.5
Solution: cubic
GoalSubdomain: [0.25, 0.75]
`)))
		assert.Equal(t, "Convection Diffusion", ip.Title)
		assert.Equal(t, 2, ip.PolynomialOrder)
		assert.Equal(t, 4, ip.K)
		assert.Equal(t, 1., ip.Kappa)
		assert.Equal(t, 0.5, ip.Beta)
		assert.Equal(t, "cubic", ip.Solution)
		assert.Equal(t, []float64{0.25, 0.75}, ip.GoalSubdomain)

		var buf bytes.Buffer
		ip.Print(&buf)
		assert.Contains(t, buf.String(), "[cubic]")
		assert.Contains(t, buf.String(), "Goal Subdomain")

		data, err := ip.Marshal()
		require.NoError(t, err)
		ip2 := &InputParameters1D{}
		require.NoError(t, ip2.Parse(data))
		assert.Equal(t, ip, ip2)
	}
	{
		for _, doc := range []string{
			"PolynomialOrder: 0",
			"K: 0",
			"K: 1",
			"XMax: -1",
			"Kappa: 0",
			"Levels: -1",
			"GoalSubdomain: [0.5]",
			"GoalSubdomain: [0.5, 0.25]",
			"PolynomialOrder: [1",
		} {
			assert.Errorf(t, NewInputParameters1D().Parse([]byte(doc)), "%q", doc)
		}
	}
	{
		fileName := filepath.Join(t.TempDir(), "params.yaml")
		require.NoError(t, os.WriteFile(fileName, []byte("K: 16\nLevels: 2\n"), 0o644))
		ip := NewInputParameters1D()
		require.NoError(t, ip.ReadFile(fileName))
		assert.Equal(t, 16, ip.K)
		assert.Equal(t, 2, ip.Levels)
		assert.Error(t, ip.ReadFile(filepath.Join(t.TempDir(), "missing.yaml")))
	}
}
