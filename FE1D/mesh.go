package FE1D

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/godwr/fem"
	"github.com/notargets/godwr/utils"
)

// Mesh is a mesh of intervals. Local facet l of a cell is its local vertex l.
type Mesh struct {
	VX   []float64
	EToV [][2]int
	EToE [][2]int // neighbor across each local facet, -1 on the boundary
}

var _ fem.Mesh = (*Mesh)(nil)

func NewMesh(VX []float64, EToV [][2]int) (m *Mesh, err error) {
	var (
		Nv = len(VX)
	)
	if len(EToV) == 0 {
		err = fmt.Errorf("mesh has no cells")
		return
	}
	for k, ev := range EToV {
		for _, v := range ev {
			if v < 0 || v >= Nv {
				err = fmt.Errorf("cell %d references vertex %d, mesh has %d vertices", k, v, Nv)
				return
			}
		}
		if math.Abs(VX[ev[1]]-VX[ev[0]]) < utils.NODETOL {
			err = fmt.Errorf("cell %d is degenerate", k)
			return
		}
	}
	m = &Mesh{VX: VX, EToV: EToV}
	if m.EToE, err = Connect1D(EToV, Nv); err != nil {
		m = nil
	}
	return
}

// SimpleMesh1D is K uniform cells on [xmin, xmax]
func SimpleMesh1D(xmin, xmax float64, K int) (VX []float64, EToV [][2]int) {
	VX = make([]float64, K+1)
	EToV = make([][2]int, K)
	for i := range VX {
		VX[i] = xmin + (xmax-xmin)*float64(i)/float64(K)
	}
	for k := range EToV {
		EToV[k] = [2]int{k, k + 1}
	}
	return
}

func UniformMesh(xmin, xmax float64, K int) (m *Mesh) {
	var err error
	if m, err = NewMesh(SimpleMesh1D(xmin, xmax, K)); err != nil {
		panic(err)
	}
	return
}

// Connect1D finds the neighbor across every local facet from the product of
// the facet to vertex incidence with its transpose
func Connect1D(EToV [][2]int, Nv int) (EToE [][2]int, err error) {
	var (
		NFaces     = 2
		K          = len(EToV)
		TotalFaces = NFaces * K
	)
	SpFToV_Tmp := sparse.NewDOK(TotalFaces, Nv)
	for k := 0; k < K; k++ {
		for face := 0; face < NFaces; face++ {
			SpFToV_Tmp.Set(k*NFaces+face, EToV[k][face], 1)
		}
	}
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF := sparse.NewCSR(TotalFaces, TotalFaces, nil, nil, nil)
	SpFToF.Mul(SpFToV, SpFToV.T())

	EToE = make([][2]int, K)
	for k := range EToE {
		EToE[k] = [2]int{-1, -1}
	}
	SpFToF.DoNonZero(func(f1, f2 int, v float64) {
		if f1 == f2 || v != 1 || err != nil {
			return
		}
		k1, face1 := f1/NFaces, f1%NFaces
		k2 := f2 / NFaces
		if EToE[k1][face1] >= 0 && EToE[k1][face1] != k2 {
			err = fmt.Errorf("vertex %d is shared by more than two cells", EToV[k1][face1])
			return
		}
		EToE[k1][face1] = k2
	})
	return
}

func (m *Mesh) TopologicalDim() int       { return 1 }
func (m *Mesh) GeometricDim() int         { return 1 }
func (m *Mesh) NumCells() int             { return len(m.EToV) }
func (m *Mesh) NumVertices() int          { return len(m.VX) }
func (m *Mesh) CellNeighbors(k int) []int { return []int{m.EToE[k][0], m.EToE[k][1]} }

func (m *Mesh) Cell(k int) fem.Cell {
	ev := m.EToV[k]
	return fem.Cell{
		Index:    k,
		Vertices: []int{ev[0], ev[1]},
		X:        [][]float64{{m.VX[ev[0]]}, {m.VX[ev[1]]}},
	}
}

// H is the length of cell k
func (m *Mesh) H(k int) float64 {
	return math.Abs(m.VX[m.EToV[k][1]] - m.VX[m.EToV[k][0]])
}

func (m *Mesh) HMax() (h float64) {
	for k := range m.EToV {
		h = math.Max(h, m.H(k))
	}
	return
}

// FacetNormal is the outward unit normal on local facet l of cell k
func (m *Mesh) FacetNormal(k, l int) float64 {
	var (
		ev   = m.EToV[k]
		sign = 1.
	)
	if m.VX[ev[1]] < m.VX[ev[0]] {
		sign = -1
	}
	if l == 0 {
		return -sign
	}
	return sign
}

func (m *Mesh) Locate(x []float64) (k int, ok bool) {
	for k = range m.EToV {
		cell := m.Cell(k)
		r, err := cell.PullBack(x)
		if err == nil && fem.Contains(r, utils.NODETOL) {
			return k, true
		}
	}
	return -1, false
}

// BoundaryMarkers lists the boundary facets whose vertex satisfies on
func (m *Mesh) BoundaryMarkers(on func(x float64) bool) (markers []fem.FacetMarker) {
	for _, fm := range fem.BoundaryFacets(m) {
		if on == nil || on(m.VX[m.EToV[fm.Cell][fm.Facet]]) {
			markers = append(markers, fm)
		}
	}
	return
}

// Refine bisects every cell; child cells 2k and 2k+1 replace cell k
func (m *Mesh) Refine() *Mesh {
	var (
		K    = m.NumCells()
		VX   = make([]float64, len(m.VX), len(m.VX)+K)
		EToV = make([][2]int, 0, 2*K)
	)
	copy(VX, m.VX)
	for _, ev := range m.EToV {
		mid := len(VX)
		VX = append(VX, 0.5*(m.VX[ev[0]]+m.VX[ev[1]]))
		EToV = append(EToV, [2]int{ev[0], mid}, [2]int{mid, ev[1]})
	}
	mr, err := NewMesh(VX, EToV)
	if err != nil {
		panic(err)
	}
	return mr
}

// CellMarkers tags every cell whose midpoint satisfies in with 1, others 0
func (m *Mesh) CellMarkers(in func(x float64) bool) *fem.Domains {
	d := &fem.Domains{Cells: make([]int, m.NumCells())}
	for k := range d.Cells {
		if in(m.Cell(k).Midpoint()[0]) {
			d.Cells[k] = 1
		}
	}
	return d
}
