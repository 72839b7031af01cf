package FE1D

import (
	"fmt"
	"strings"

	"github.com/notargets/godwr/fem"
)

// Mixed stacks sub elements. Local dofs are numbered sub element by sub
// element and value components are concatenated in the same order.
type Mixed struct {
	Subs   []fem.FiniteElement
	family string
	shape  []int
	dofOff []int
	cmpOff []int
}

func NewMixed(subs ...fem.FiniteElement) *Mixed {
	var (
		families = make([]string, len(subs))
		size     int
	)
	for i, s := range subs {
		families[i] = s.Family()
		size += fem.ValueSize(s)
	}
	return newMixed("Mixed("+strings.Join(families, ",")+")", []int{size}, subs)
}

// NewVectorElement is n copies of a scalar element
func NewVectorElement(e fem.FiniteElement, n int) *Mixed {
	return newMixed("Vector"+e.Family(), []int{n}, repeat(e, n))
}

// NewTensorElement is n*m copies of a scalar element with a rank 2 value
func NewTensorElement(e fem.FiniteElement, n, m int) *Mixed {
	return newMixed("Tensor"+e.Family(), []int{n, m}, repeat(e, n*m))
}

func repeat(e fem.FiniteElement, n int) (subs []fem.FiniteElement) {
	if fem.ValueSize(e) != 1 {
		panic(fmt.Errorf("%s element is not scalar", e.Family()))
	}
	subs = make([]fem.FiniteElement, n)
	for i := range subs {
		subs[i] = e
	}
	return
}

func newMixed(family string, shape []int, subs []fem.FiniteElement) (el *Mixed) {
	if len(subs) == 0 {
		panic("mixed element needs at least one sub element")
	}
	el = &Mixed{
		Subs:   subs,
		family: family,
		shape:  shape,
		dofOff: make([]int, len(subs)+1),
		cmpOff: make([]int, len(subs)+1),
	}
	for i, s := range subs {
		el.dofOff[i+1] = el.dofOff[i] + s.SpaceDimension()
		el.cmpOff[i+1] = el.cmpOff[i] + fem.ValueSize(s)
	}
	return
}

func (el *Mixed) Family() string                     { return el.family }
func (el *Mixed) TopologicalDim() int                { return el.Subs[0].TopologicalDim() }
func (el *Mixed) SpaceDimension() int                { return el.dofOff[len(el.Subs)] }
func (el *Mixed) ValueShape() []int                  { return el.shape }
func (el *Mixed) NumSubElements() int                { return len(el.Subs) }
func (el *Mixed) SubElement(i int) fem.FiniteElement { return el.Subs[i] }

func (el *Mixed) Degree() (p int) {
	for _, s := range el.Subs {
		if s.Degree() > p {
			p = s.Degree()
		}
	}
	return
}

func (el *Mixed) DofPoints() (pts []fem.DofPoint) {
	for i, s := range el.Subs {
		for _, pt := range s.DofPoints() {
			pts = append(pts, fem.DofPoint{X: pt.X, Component: el.cmpOff[i] + pt.Component})
		}
	}
	return
}

func (el *Mixed) FacetDofs(facet int) (dofs []int) {
	for i, s := range el.Subs {
		for _, d := range s.FacetDofs(facet) {
			dofs = append(dofs, el.dofOff[i]+d)
		}
	}
	return
}

func (el *Mixed) Tabulate(r []float64, values []float64) {
	el.stack(r, values, 1, func(s fem.FiniteElement, buf []float64) { s.Tabulate(r, buf) })
}

func (el *Mixed) TabulateDerivatives(r []float64, derivs []float64) {
	el.stack(r, derivs, el.TopologicalDim(), func(s fem.FiniteElement, buf []float64) { s.TabulateDerivatives(r, buf) })
}

// stack places each sub element block, laid out [dof][component][nd], into
// the block diagonal position of out
func (el *Mixed) stack(r []float64, out []float64, nd int, tab func(s fem.FiniteElement, buf []float64)) {
	var (
		vs = el.cmpOff[len(el.Subs)]
	)
	for i := range out[:el.SpaceDimension()*vs*nd] {
		out[i] = 0
	}
	for i, s := range el.Subs {
		var (
			Ns  = s.SpaceDimension()
			vss = fem.ValueSize(s)
			buf = make([]float64, Ns*vss*nd)
		)
		tab(s, buf)
		for d := 0; d < Ns; d++ {
			for c := 0; c < vss; c++ {
				for k := 0; k < nd; k++ {
					out[((el.dofOff[i]+d)*vs+el.cmpOff[i]+c)*nd+k] = buf[(d*vss+c)*nd+k]
				}
			}
		}
	}
}
