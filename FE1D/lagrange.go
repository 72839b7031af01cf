package FE1D

import (
	"fmt"

	"github.com/notargets/godwr/fem"
	"github.com/notargets/godwr/utils"
)

// Lagrange is the nodal element of degree P on the Gauss-Lobatto points of
// the reference interval. Local dof 0 sits at r=-1 and local dof P at r=1.
type Lagrange struct {
	P             int
	Discontinuous bool
	R             utils.Vector
	V, Vinv       utils.Matrix
}

func NewLagrange(P int, discontinuous bool) (el *Lagrange) {
	if P < 0 || (P == 0 && !discontinuous) {
		panic(fmt.Errorf("no Lagrange element of degree %d, discontinuous = %v", P, discontinuous))
	}
	el = &Lagrange{
		P:             P,
		Discontinuous: discontinuous,
	}
	if P == 0 {
		el.R = utils.NewVector(1)
	} else {
		el.R = JacobiGL(0, 0, P)
	}
	el.V = Vandermonde1D(P, el.R)
	var err error
	if el.Vinv, err = el.V.Inverse(); err != nil {
		panic(err)
	}
	return
}

func CG(P int) *Lagrange { return NewLagrange(P, false) }
func DG(P int) *Lagrange { return NewLagrange(P, true) }

func (el *Lagrange) Family() string {
	if el.Discontinuous {
		return "DG"
	}
	return "CG"
}

func (el *Lagrange) Degree() int                        { return el.P }
func (el *Lagrange) TopologicalDim() int                { return 1 }
func (el *Lagrange) SpaceDimension() int                { return el.P + 1 }
func (el *Lagrange) ValueShape() []int                  { return nil }
func (el *Lagrange) NumSubElements() int                { return 0 }
func (el *Lagrange) SubElement(i int) fem.FiniteElement { panic("Lagrange element has no sub elements") }

func (el *Lagrange) DofPoints() (pts []fem.DofPoint) {
	pts = make([]fem.DofPoint, el.P+1)
	for i := range pts {
		pts[i] = fem.DofPoint{X: []float64{el.R.AtVec(i)}}
	}
	return
}

func (el *Lagrange) FacetDofs(facet int) []int {
	switch {
	case el.P == 0:
		return nil
	case facet == 0:
		return []int{0}
	case facet == 1:
		return []int{el.P}
	}
	panic(fmt.Errorf("interval has no facet %d", facet))
}

// Tabulate evaluates phi_i(r) = sum_j P_j(r) Vinv(j,i)
func (el *Lagrange) Tabulate(r []float64, values []float64) {
	el.modal(JacobiP, r[0], values)
}

func (el *Lagrange) TabulateDerivatives(r []float64, derivs []float64) {
	el.modal(GradJacobiP, r[0], derivs)
}

func (el *Lagrange) modal(P func(r []float64, alpha, beta float64, N int) []float64, r float64, out []float64) {
	var (
		Np = el.P + 1
		rr = []float64{r}
		pj = make([]float64, Np)
	)
	for j := range pj {
		pj[j] = P(rr, 0, 0, j)[0]
	}
	for i := 0; i < Np; i++ {
		var sum float64
		for j := 0; j < Np; j++ {
			sum += pj[j] * el.Vinv.At(j, i)
		}
		out[i] = sum
	}
}

// Bubble is the interior bubble (1-r)(1+r), which vanishes on both facets
type Bubble struct{}

func (Bubble) Family() string                     { return "Bubble" }
func (Bubble) Degree() int                        { return 2 }
func (Bubble) TopologicalDim() int                { return 1 }
func (Bubble) SpaceDimension() int                { return 1 }
func (Bubble) ValueShape() []int                  { return nil }
func (Bubble) NumSubElements() int                { return 0 }
func (Bubble) SubElement(i int) fem.FiniteElement { panic("bubble element has no sub elements") }
func (Bubble) DofPoints() []fem.DofPoint          { return []fem.DofPoint{{X: []float64{0}}} }
func (Bubble) FacetDofs(facet int) []int          { return nil }

func (Bubble) Tabulate(r []float64, values []float64) { values[0] = (1 - r[0]) * (1 + r[0]) }

func (Bubble) TabulateDerivatives(r []float64, derivs []float64) { derivs[0] = -2 * r[0] }
