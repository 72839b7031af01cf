package fem

import "github.com/notargets/godwr/utils"

// DofPoint locates a nodal degree of freedom in reference coordinates and
// names the flattened value component it acts on
type DofPoint struct {
	X         []float64
	Component int
}

// FiniteElement is the reference element contract used by spaces, forms and
// the extrapolation. Tabulated values are laid out [dof][component] and
// derivatives [dof][component][reference direction], all flattened.
type FiniteElement interface {
	Family() string
	Degree() int
	TopologicalDim() int
	SpaceDimension() int
	ValueShape() []int
	NumSubElements() int
	SubElement(i int) FiniteElement
	DofPoints() []DofPoint
	FacetDofs(facet int) []int
	Tabulate(r []float64, values []float64)
	TabulateDerivatives(r []float64, derivs []float64)
}

func ValueRank(e FiniteElement) int { return len(e.ValueShape()) }

func ValueSize(e FiniteElement) (size int) {
	size = 1
	for _, n := range e.ValueShape() {
		size *= n
	}
	return
}

// TabulateGradients returns physical basis gradients at r, laid out
// [dof][component][geometric direction]
func TabulateGradients(e FiniteElement, cell Cell, r []float64) (grads []float64, err error) {
	var (
		N    = e.SpaceDimension()
		vs   = ValueSize(e)
		tdim = e.TopologicalDim()
		gdim = cell.GeometricDim()
		Jinv utils.Matrix
		ref  = make([]float64, N*vs*tdim)
	)
	if Jinv, err = cell.InverseJacobian(); err != nil {
		return
	}
	e.TabulateDerivatives(r, ref)
	grads = make([]float64, N*vs*gdim)
	for i := 0; i < N*vs; i++ {
		for g := 0; g < gdim; g++ {
			var sum float64
			for d := 0; d < tdim; d++ {
				sum += ref[i*tdim+d] * Jinv.At(d, g)
			}
			grads[i*gdim+g] = sum
		}
	}
	return
}
