package fem

import "fmt"

// DirichletBC prescribes values on the dofs of marked boundary facets. A nil
// Value prescribes zero.
type DirichletBC struct {
	Space   *FunctionSpace
	Value   *Expression
	Markers []FacetMarker
}

func NewDirichletBC(V *FunctionSpace, value *Expression, markers []FacetMarker) *DirichletBC {
	return &DirichletBC{Space: V, Value: value, Markers: markers}
}

// Homogenize returns a copy with the same space and markers and zero value
func (bc *DirichletBC) Homogenize() *DirichletBC {
	markers := make([]FacetMarker, len(bc.Markers))
	copy(markers, bc.Markers)
	return &DirichletBC{Space: bc.Space, Markers: markers}
}

func (bc *DirichletBC) IsHomogeneous() bool { return bc.Value == nil }

func (bc *DirichletBC) String() string {
	return fmt.Sprintf("DirichletBC on %v%v, %d facets", bc.Space, bc.Space.Component, len(bc.Markers))
}

// Dofs returns the prescribed value of every constrained global dof
func (bc *DirichletBC) Dofs() (vals map[int]float64) {
	var (
		V      = bc.Space
		pts    = V.Element.DofPoints()
		values []float64
	)
	vals = make(map[int]float64)
	if bc.Value != nil {
		values = make([]float64, bc.Value.ValueSize())
	}
	for _, m := range bc.Markers {
		var (
			cell = V.Mesh.Cell(m.Cell)
			dofs = V.DofMap.CellDofs(m.Cell)
		)
		for _, i := range V.Element.FacetDofs(m.Facet) {
			var val float64
			if bc.Value != nil {
				bc.Value.EvalCell(cell, pts[i].X, values)
				val = values[pts[i].Component]
			}
			vals[dofs[i]] = val
		}
	}
	return
}

// Apply writes the prescribed values into f
func (bc *DirichletBC) Apply(f *Function) {
	for dof, val := range bc.Dofs() {
		f.Vector.DataP[dof] = val
	}
}
