package fem

import "fmt"

// FacetFunction is an owned family of functions on a common space, one per
// local facet label of the reference cell
type FacetFunction struct {
	Space     *FunctionSpace
	Functions []*Function
}

func NewFacetFunction(V *FunctionSpace, n int, nameO ...string) (ff *FacetFunction) {
	ff = &FacetFunction{
		Space:     V,
		Functions: make([]*Function, n),
	}
	for l := range ff.Functions {
		ff.Functions[l] = NewFunction(V)
		if len(nameO) != 0 {
			ff.Functions[l].Name = fmt.Sprintf("%s[%d]", nameO[0], l)
		}
	}
	return
}

func (ff *FacetFunction) Size() int                { return len(ff.Functions) }
func (ff *FacetFunction) At(l int) *Function       { return ff.Functions[l] }
func (ff *FacetFunction) ValueRank() int           { return ValueRank(ff.Space.Element) }
func (ff *FacetFunction) ValueDimension(i int) int { return ff.Space.Element.ValueShape()[i] }

// EvalFacet evaluates the member for local facet l at reference point r
func (ff *FacetFunction) EvalFacet(cell Cell, l int, r []float64, values []float64) {
	ff.Functions[l].EvalCell(cell, r, values)
}
