package fem

import (
	"fmt"
	"sort"
)

// DofMap maps cell local dofs to global dofs. Sub maps of a mixed space are
// views into the parent numbering and share its global dimension.
type DofMap struct {
	cellDofs [][]int
	global   int
	subs     []*DofMap
	disjoint bool
}

func NewDofMap(cellDofs [][]int, global int, subs ...*DofMap) (d *DofMap) {
	d = &DofMap{
		cellDofs: cellDofs,
		global:   global,
		subs:     subs,
	}
	d.disjoint = d.checkDisjoint()
	return
}

func (d *DofMap) CellDofs(k int) []int { return d.cellDofs[k] }
func (d *DofMap) GlobalDimension() int { return d.global }
func (d *DofMap) NumSubs() int         { return len(d.subs) }
func (d *DofMap) Sub(i int) *DofMap    { return d.subs[i] }
func (d *DofMap) NumCells() int        { return len(d.cellDofs) }

func (d *DofMap) LocalDimension() (n int) {
	if len(d.cellDofs) != 0 {
		n = len(d.cellDofs[0])
	}
	return
}

// Disjoint reports whether no global dof is shared between cells, so that
// cells can be scattered concurrently
func (d *DofMap) Disjoint() bool { return d.disjoint }

func (d *DofMap) checkDisjoint() bool {
	seen := make(map[int]int)
	for k, dofs := range d.cellDofs {
		for _, dof := range dofs {
			if kk, ok := seen[dof]; ok && kk != k {
				return false
			}
			seen[dof] = k
		}
	}
	return true
}

// Dofs returns the sorted set of global dofs touched by this map
func (d *DofMap) Dofs() (dofs []int) {
	seen := make(map[int]bool)
	for _, cd := range d.cellDofs {
		for _, dof := range cd {
			if !seen[dof] {
				seen[dof] = true
				dofs = append(dofs, dof)
			}
		}
	}
	sort.Ints(dofs)
	return
}

// FunctionSpace couples a mesh, an element and a dofmap. Component is the
// path from the root space for sub-space views, empty for a root space.
type FunctionSpace struct {
	Mesh      Mesh
	Element   FiniteElement
	DofMap    *DofMap
	Component []int
	root      *FunctionSpace
}

func NewFunctionSpace(mesh Mesh, element FiniteElement, dofmap *DofMap) (V *FunctionSpace) {
	if dofmap.NumSubs() != element.NumSubElements() {
		panic(fmt.Errorf("dofmap has %d sub maps, element %q has %d sub elements",
			dofmap.NumSubs(), element.Family(), element.NumSubElements()))
	}
	V = &FunctionSpace{
		Mesh:    mesh,
		Element: element,
		DofMap:  dofmap,
	}
	V.root = V
	return
}

func (V *FunctionSpace) Dim() int             { return V.DofMap.GlobalDimension() }
func (V *FunctionSpace) Root() *FunctionSpace { return V.root }
func (V *FunctionSpace) IsSubspace() bool     { return len(V.Component) != 0 }
func (V *FunctionSpace) NumSubSpaces() int    { return V.Element.NumSubElements() }
func (V *FunctionSpace) String() string {
	return fmt.Sprintf("%s%d%v", V.Element.Family(), V.Element.Degree(), V.Element.ValueShape())
}

// Sub returns the view of sub-space i
func (V *FunctionSpace) Sub(i int) *FunctionSpace {
	if i < 0 || i >= V.NumSubSpaces() {
		panic(fmt.Errorf("sub-space %d out of range for %v with %d sub-spaces", i, V, V.NumSubSpaces()))
	}
	comp := make([]int, len(V.Component), len(V.Component)+1)
	copy(comp, V.Component)
	return &FunctionSpace{
		Mesh:      V.Mesh,
		Element:   V.Element.SubElement(i),
		DofMap:    V.DofMap.Sub(i),
		Component: append(comp, i),
		root:      V.root,
	}
}

// SubPath walks a component path, e.g. [0 1] is V.Sub(0).Sub(1)
func (V *FunctionSpace) SubPath(path []int) (W *FunctionSpace, err error) {
	W = V
	for depth, i := range path {
		if i < 0 || i >= W.NumSubSpaces() {
			err = fmt.Errorf("%w: component path %v invalid at depth %d for %v", ErrShape, path, depth, V)
			return nil, err
		}
		W = W.Sub(i)
	}
	return
}

// Compatible reports whether functions on W can be used where V is expected
func (V *FunctionSpace) Compatible(W *FunctionSpace) bool {
	if V == W {
		return true
	}
	if V.Mesh != W.Mesh || V.Dim() != W.Dim() {
		return false
	}
	ev, ew := V.Element, W.Element
	if ev.Family() != ew.Family() || ev.Degree() != ew.Degree() || ev.SpaceDimension() != ew.SpaceDimension() {
		return false
	}
	sv, sw := ev.ValueShape(), ew.ValueShape()
	if len(sv) != len(sw) {
		return false
	}
	for i := range sv {
		if sv[i] != sw[i] {
			return false
		}
	}
	return true
}

func (V *FunctionSpace) valueSize() int { return ValueSize(V.Element) }
