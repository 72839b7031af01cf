package fem

import (
	"fmt"

	"github.com/notargets/godwr/utils"
)

// Evaluator is anything that can be sampled at reference points of a cell
type Evaluator interface {
	ValueSize() int
	EvalCell(cell Cell, r []float64, values []float64)
}

// Function is a coefficient vector over the global dofs of a space
type Function struct {
	Name   string
	Space  *FunctionSpace
	Vector utils.Vector
}

func NewFunction(V *FunctionSpace, nameO ...string) (f *Function) {
	f = &Function{
		Space:  V,
		Vector: utils.NewVector(V.Dim()),
	}
	if len(nameO) != 0 {
		f.Name = nameO[0]
	}
	return
}

func (f *Function) Copy() *Function {
	return &Function{
		Name:   f.Name,
		Space:  f.Space,
		Vector: f.Vector.Copy(),
	}
}

func (f *Function) ValueRank() int           { return ValueRank(f.Space.Element) }
func (f *Function) ValueSize() int           { return f.Space.valueSize() }
func (f *Function) ValueDimension(i int) int { return f.Space.Element.ValueShape()[i] }
func (f *Function) Zero()                    { f.Vector.Set(0) }

// CellCoefficients gathers the expansion coefficients of cell k
func (f *Function) CellCoefficients(k int) []float64 {
	return f.Vector.Subset(f.Space.DofMap.CellDofs(k)).DataP
}

// Scatter writes a local solution into the given global dofs
func (f *Function) Scatter(values []float64, dofs []int) {
	f.Vector.Scatter(values, dofs)
}

func (f *Function) String() string {
	return fmt.Sprintf("%s on %v", f.Name, f.Space)
}

func (f *Function) EvalCell(cell Cell, r []float64, values []float64) {
	var (
		el    = f.Space.Element
		N     = el.SpaceDimension()
		vs    = f.ValueSize()
		basis = make([]float64, N*vs)
		coef  = f.CellCoefficients(cell.Index)
	)
	el.Tabulate(r, basis)
	for c := 0; c < vs; c++ {
		values[c] = 0
	}
	for i := 0; i < N; i++ {
		for c := 0; c < vs; c++ {
			values[c] += coef[i] * basis[i*vs+c]
		}
	}
}

// Gradient evaluates the physical gradient, laid out [component][direction]
func (f *Function) Gradient(cell Cell, r []float64, grad []float64) (err error) {
	var (
		N     = f.Space.Element.SpaceDimension()
		vs    = f.ValueSize()
		gdim  = cell.GeometricDim()
		coef  = f.CellCoefficients(cell.Index)
		grads []float64
	)
	if grads, err = TabulateGradients(f.Space.Element, cell, r); err != nil {
		return
	}
	for i := range grad[:vs*gdim] {
		grad[i] = 0
	}
	for i := 0; i < N; i++ {
		for cg := 0; cg < vs*gdim; cg++ {
			grad[cg] += coef[i] * grads[i*vs*gdim+cg]
		}
	}
	return
}

// Eval evaluates the function at physical point x
func (f *Function) Eval(x []float64) (values []float64, err error) {
	var (
		mesh  = f.Space.Mesh
		k, ok = mesh.Locate(x)
		cell  Cell
		r     []float64
	)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrOutsideMesh, x)
		return
	}
	cell = mesh.Cell(k)
	if r, err = cell.PullBack(x); err != nil {
		return
	}
	values = make([]float64, f.ValueSize())
	f.EvalCell(cell, r, values)
	return
}

// Interpolate sets every dof to the value of src at the dof point
func (f *Function) Interpolate(src Evaluator) (err error) {
	var (
		V      = f.Space
		mesh   = V.Mesh
		pts    = V.Element.DofPoints()
		values = make([]float64, src.ValueSize())
	)
	if src.ValueSize() != f.ValueSize() {
		err = fmt.Errorf("%w: interpolating a %d valued source into a %d valued function",
			ErrShape, src.ValueSize(), f.ValueSize())
		return
	}
	for k := 0; k < mesh.NumCells(); k++ {
		var (
			cell = mesh.Cell(k)
			dofs = V.DofMap.CellDofs(k)
		)
		for i, pt := range pts {
			src.EvalCell(cell, pt.X, values)
			f.Vector.DataP[dofs[i]] = values[pt.Component]
		}
	}
	return
}

// Extrapolate fills f with a local patch extrapolation of src into the
// richer space of f
func (f *Function) Extrapolate(src *Function) error {
	return PatchExtrapolator{}.Extrapolate(f, src)
}
