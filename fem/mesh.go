package fem

import (
	"fmt"
	"math"

	"github.com/notargets/godwr/utils"
	"gonum.org/v1/gonum/mat"
)

// Mesh is a simplicial mesh. The numbering of local facets belongs to the
// mesh and its elements, which must agree on it.
type Mesh interface {
	TopologicalDim() int
	GeometricDim() int
	NumCells() int
	NumVertices() int
	Cell(k int) Cell
	// CellNeighbors returns one neighbor per local facet, -1 on the boundary
	CellNeighbors(k int) []int
	Locate(x []float64) (k int, ok bool)
}

// FacetMarker identifies a boundary facet by cell and local facet number
type FacetMarker struct {
	Cell, Facet int
}

// BoundaryFacets lists every facet without a neighbor
func BoundaryFacets(m Mesh) (markers []FacetMarker) {
	for k := 0; k < m.NumCells(); k++ {
		for l, nbr := range m.CellNeighbors(k) {
			if nbr < 0 {
				markers = append(markers, FacetMarker{Cell: k, Facet: l})
			}
		}
	}
	return
}

// Cell is an affine simplex. The reference simplex has vertices at
// (-1,...,-1), (1,-1,...,-1), ..., (-1,...,-1,1).
type Cell struct {
	Index    int
	Vertices []int
	X        [][]float64 // [vertex][geometric direction]
}

func (c Cell) TopologicalDim() int { return len(c.Vertices) - 1 }
func (c Cell) GeometricDim() int   { return len(c.X[0]) }
func (c Cell) NumFacets() int      { return len(c.Vertices) }

// Jacobian of the reference to physical map, [gdim][tdim]
func (c Cell) Jacobian() (J utils.Matrix) {
	var (
		tdim, gdim = c.TopologicalDim(), c.GeometricDim()
	)
	J = utils.NewMatrix(gdim, tdim)
	for d := 0; d < tdim; d++ {
		for g := 0; g < gdim; g++ {
			J.M.Set(g, d, 0.5*(c.X[d+1][g]-c.X[0][g]))
		}
	}
	return
}

func (c Cell) DetJ() float64 {
	J := c.Jacobian()
	if nr, nc := J.Dims(); nr != nc {
		var JtJ mat.Dense
		JtJ.Mul(J.M.T(), J.M)
		return math.Sqrt(math.Abs(mat.Det(&JtJ)))
	}
	return mat.Det(J.M)
}

func (c Cell) InverseJacobian() (Jinv utils.Matrix, err error) {
	J := c.Jacobian()
	if nr, nc := J.Dims(); nr != nc {
		err = fmt.Errorf("%w: cell %d is %dD in %dD space", ErrShape, c.Index, nc, nr)
		return
	}
	return J.Inverse()
}

// Volume is |det J| times the reference volume 2^d/d!
func (c Cell) Volume() float64 {
	ref := 1.
	for d := 1; d <= c.TopologicalDim(); d++ {
		ref *= 2. / float64(d)
	}
	return math.Abs(c.DetJ()) * ref
}

func (c Cell) Midpoint() (x []float64) {
	x = make([]float64, c.GeometricDim())
	for _, v := range c.X {
		for g := range x {
			x[g] += v[g]
		}
	}
	for g := range x {
		x[g] /= float64(len(c.X))
	}
	return
}

// PushForward maps reference coordinates r to physical coordinates
func (c Cell) PushForward(r []float64) (x []float64) {
	x = make([]float64, c.GeometricDim())
	copy(x, c.X[0])
	for d := range r {
		lam := 0.5 * (r[d] + 1)
		for g := range x {
			x[g] += lam * (c.X[d+1][g] - c.X[0][g])
		}
	}
	return
}

// PullBack maps physical coordinates x to reference coordinates. Points
// outside the cell map outside the reference simplex.
func (c Cell) PullBack(x []float64) (r []float64, err error) {
	var (
		Jinv utils.Matrix
		tdim = c.TopologicalDim()
	)
	if Jinv, err = c.InverseJacobian(); err != nil {
		return
	}
	r = make([]float64, tdim)
	for d := 0; d < tdim; d++ {
		r[d] = -1
		for g := range x {
			r[d] += Jinv.At(d, g) * (x[g] - c.X[0][g])
		}
	}
	return
}

// Contains reports whether r lies in the reference simplex
func Contains(r []float64, tol float64) bool {
	var sum float64
	for _, ri := range r {
		if ri < -1-tol {
			return false
		}
		sum += ri + 1
	}
	return sum <= 2+tol
}
