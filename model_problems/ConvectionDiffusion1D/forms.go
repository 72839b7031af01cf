package ConvectionDiffusion1D

import (
	"math"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/adaptivity"
	"github.com/notargets/godwr/fem"
)

// Coefficient slots of the model forms besides the estimator's own
const (
	SlotSource = "f"
	SlotKappa  = "kappa"
	SlotBeta   = "beta"
	SlotC      = "c"
	SlotPsi    = "psi"
	SlotBubble = "b_T"
)

type localTensor func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error

// form is a cell integral on an interval mesh, with point terms on the two
// facets where needed
type form struct {
	name   string
	mesh   *FE1D.Mesh
	spaces []*fem.FunctionSpace
	slots  []fem.Slot
	local  localTensor
}

func (f *form) Name() string                   { return f.name }
func (f *form) Rank() int                      { return len(f.spaces) }
func (f *form) Space(i int) *fem.FunctionSpace { return f.spaces[i] }
func (f *form) Mesh() fem.Mesh                 { return f.mesh }
func (f *form) Slots() []fem.Slot              { return f.slots }

func (f *form) LocalTensor(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
	return f.local(cell, w, dom, A)
}

// facetPoints are the reference coordinates of local facets 0 and 1
var facetPoints = [2][]float64{{-1}, {1}}

type basis struct {
	phi, dphi []float64
}

func tabulate(V *fem.FunctionSpace, cell fem.Cell, r []float64) (b basis) {
	var err error
	b.phi = make([]float64, V.Element.SpaceDimension())
	V.Element.Tabulate(r, b.phi)
	if b.dphi, err = fem.TabulateGradients(V.Element, cell, r); err != nil {
		panic(err)
	}
	return
}

// physics holds the coefficients and the primal solution at a point
type physics struct {
	kappa, beta, c, f float64
	u, du             float64
}

func evalPhysics(w fem.Coefficients, cell fem.Cell, r []float64) (p physics) {
	p.kappa = w.Scalar(SlotKappa, cell, r)
	p.beta = w.Scalar(SlotBeta, cell, r)
	p.c = w.Scalar(SlotC, cell, r)
	p.f = w.Scalar(SlotSource, cell, r)
	if _, ok := w[adaptivity.SlotPrimal]; ok {
		p.u = w.Scalar(adaptivity.SlotPrimal, cell, r)
		p.du = w.ScalarGrad(adaptivity.SlotPrimal, cell, r)[0]
	}
	return
}

// residual is the integrand of F(u; v) = (f, v) - a(v, u) for a test value v
// with derivative dv
func (p physics) residual(v, dv float64) float64 {
	return p.f*v - p.kappa*p.du*dv - p.beta*p.du*v - p.c*p.u*v
}

func (pr *Problem) quadrature(cell fem.Cell, fn func(r []float64, wt float64)) {
	detJ := math.Abs(cell.DetJ())
	for i, r := range pr.quad.R {
		fn([]float64{r}, pr.quad.W[i]*detJ)
	}
}

func (pr *Problem) constantSlots() []fem.Slot {
	return []fem.Slot{
		{Name: SlotKappa, Kind: fem.ConstantKind},
		{Name: SlotBeta, Kind: fem.ConstantKind},
		{Name: SlotC, Kind: fem.ConstantKind},
		{Name: SlotSource, Kind: fem.ExpressionKind},
	}
}

func (pr *Problem) constants() fem.Coefficients {
	return fem.Coefficients{
		SlotKappa:  fem.Constant(pr.Kappa),
		SlotBeta:   fem.Constant(pr.Beta),
		SlotC:      fem.Constant(pr.C),
		SlotSource: fem.Expr(fem.ScalarExpression(func(x []float64) float64 { return pr.Source(x[0]) })),
	}
}

// bilinear form a(v, u) = (kappa u', v') + (beta u', v) + (c u, v)
func (pr *Problem) bilinear(name string, adjoint bool) *form {
	V := pr.V
	return &form{
		name:   name,
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{V, V},
		slots:  pr.constantSlots()[:3],
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			N := V.Element.SpaceDimension()
			pr.quadrature(cell, func(r []float64, wt float64) {
				var (
					b              = tabulate(V, cell, r)
					kappa, beta, c = w.Scalar(SlotKappa, cell, r), w.Scalar(SlotBeta, cell, r), w.Scalar(SlotC, cell, r)
				)
				for i := 0; i < N; i++ {
					for j := 0; j < N; j++ {
						// test i, trial j; the adjoint swaps their roles
						ti, tj := i, j
						if adjoint {
							ti, tj = j, i
						}
						A[i*N+j] += wt * (kappa*b.dphi[tj]*b.dphi[ti] + beta*b.dphi[tj]*b.phi[ti] + c*b.phi[tj]*b.phi[ti])
					}
				}
			})
			return nil
		},
	}
}

// source form L(v) = (f, v)
func (pr *Problem) source() *form {
	V := pr.V
	return &form{
		name:   "L",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{V},
		slots:  pr.constantSlots()[3:],
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			pr.quadrature(cell, func(r []float64, wt float64) {
				b := tabulate(V, cell, r)
				f := w.Scalar(SlotSource, cell, r)
				for i := range b.phi {
					A[i] += wt * f * b.phi[i]
				}
			})
			return nil
		},
	}
}

// goal form L*(v) = (psi, v) on the cells of the goal subdomain
func (pr *Problem) goal() *form {
	V := pr.V
	return &form{
		name:   "L_star",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{V},
		slots:  []fem.Slot{{Name: SlotPsi, Kind: fem.ExpressionKind}},
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			if !pr.inGoal(cell.Index, dom) {
				return nil
			}
			pr.quadrature(cell, func(r []float64, wt float64) {
				b := tabulate(V, cell, r)
				psi := w.Scalar(SlotPsi, cell, r)
				for i := range b.phi {
					A[i] += wt * psi * b.phi[i]
				}
			})
			return nil
		},
	}
}

func (pr *Problem) primalSlot() fem.Slot {
	return fem.Slot{Name: adaptivity.SlotPrimal, Kind: fem.FunctionKind, Space: pr.V}
}

// residual functional F(u; Ez_h)
func (pr *Problem) residual() *form {
	return &form{
		name: "residual",
		mesh: pr.Mesh,
		slots: append(pr.constantSlots(), pr.primalSlot(),
			fem.Slot{Name: adaptivity.SlotExtrapolatedDual, Kind: fem.FunctionKind, Space: pr.E}),
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			pr.quadrature(cell, func(r []float64, wt float64) {
				var (
					p   = evalPhysics(w, cell, r)
					ez  = w.Scalar(adaptivity.SlotExtrapolatedDual, cell, r)
					dez = w.ScalarGrad(adaptivity.SlotExtrapolatedDual, cell, r)[0]
				)
				A[0] += wt * p.residual(ez, dez)
			})
			return nil
		},
	}
}

// a_R_T(v, R) = (b_T v, R)
func (pr *Problem) cellResidualBilinear() *form {
	RT := pr.RT
	return &form{
		name:   "a_R_T",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{RT, RT},
		slots:  []fem.Slot{{Name: SlotBubble, Kind: fem.FunctionKind, Space: pr.B}},
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			N := RT.Element.SpaceDimension()
			pr.quadrature(cell, func(r []float64, wt float64) {
				b := tabulate(RT, cell, r)
				bT := w.Scalar(SlotBubble, cell, r)
				for i := 0; i < N; i++ {
					for j := 0; j < N; j++ {
						A[i*N+j] += wt * bT * b.phi[i] * b.phi[j]
					}
				}
			})
			return nil
		},
	}
}

// L_R_T(v) = F(u; b_T v)
func (pr *Problem) cellResidualLinear() *form {
	RT := pr.RT
	return &form{
		name:   "L_R_T",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{RT},
		slots: append(pr.constantSlots(), pr.primalSlot(),
			fem.Slot{Name: SlotBubble, Kind: fem.FunctionKind, Space: pr.B}),
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			pr.quadrature(cell, func(r []float64, wt float64) {
				var (
					b   = tabulate(RT, cell, r)
					p   = evalPhysics(w, cell, r)
					bT  = w.Scalar(SlotBubble, cell, r)
					dbT = w.ScalarGrad(SlotBubble, cell, r)[0]
				)
				for i := range b.phi {
					A[i] += wt * p.residual(bT*b.phi[i], dbT*b.phi[i]+bT*b.dphi[i])
				}
			})
			return nil
		},
	}
}

// a_R_dT(v, R) = sum over facets of b_e v R
func (pr *Problem) facetResidualBilinear() *form {
	RdT := pr.RdT
	return &form{
		name:   "a_R_dT",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{RdT, RdT},
		slots:  []fem.Slot{{Name: adaptivity.SlotCone, Kind: fem.FunctionKind, Space: pr.Cone}},
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			N := RdT.Element.SpaceDimension()
			for _, r := range facetPoints {
				b := tabulate(RdT, cell, r)
				be := w.Scalar(adaptivity.SlotCone, cell, r)
				for i := 0; i < N; i++ {
					for j := 0; j < N; j++ {
						A[i*N+j] += be * b.phi[i] * b.phi[j]
					}
				}
			}
			return nil
		},
	}
}

// L_R_dT(v) = F(u; b_e v) - (R_T, b_e v)
func (pr *Problem) facetResidualLinear() *form {
	RdT := pr.RdT
	return &form{
		name:   "L_R_dT",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{RdT},
		slots: append(pr.constantSlots(), pr.primalSlot(),
			fem.Slot{Name: adaptivity.SlotCone, Kind: fem.FunctionKind, Space: pr.Cone},
			fem.Slot{Name: adaptivity.SlotCellResidual, Kind: fem.FunctionKind, Space: pr.RT}),
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			pr.quadrature(cell, func(r []float64, wt float64) {
				var (
					b   = tabulate(RdT, cell, r)
					p   = evalPhysics(w, cell, r)
					be  = w.Scalar(adaptivity.SlotCone, cell, r)
					dbe = w.ScalarGrad(adaptivity.SlotCone, cell, r)[0]
					RT  = w.Scalar(adaptivity.SlotCellResidual, cell, r)
				)
				for i := range b.phi {
					v, dv := be*b.phi[i], dbe*b.phi[i]+be*b.dphi[i]
					A[i] += wt * (p.residual(v, dv) - RT*v)
				}
			})
			return nil
		},
	}
}

// eta_T(v) = (R_T, (Ez_h - Pi_E_z_h) v) + sum over facets l of
// R_dT[l] (Ez_h - Pi_E_z_h) v at the facet
func (pr *Problem) indicator() *form {
	DG0 := pr.DG0
	return &form{
		name:   "eta_T",
		mesh:   pr.Mesh,
		spaces: []*fem.FunctionSpace{DG0},
		slots: []fem.Slot{
			{Name: adaptivity.SlotExtrapolatedDual, Kind: fem.FunctionKind, Space: pr.E},
			{Name: adaptivity.SlotCellResidual, Kind: fem.FunctionKind, Space: pr.RT},
			{Name: adaptivity.SlotFacetResidual, Kind: fem.FacetFunctionKind, Space: pr.RdT},
			{Name: adaptivity.SlotInterpolatedDual, Kind: fem.FunctionKind, Space: pr.V},
		},
		local: func(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
			weight := func(r []float64) float64 {
				return w.Scalar(adaptivity.SlotExtrapolatedDual, cell, r) - w.Scalar(adaptivity.SlotInterpolatedDual, cell, r)
			}
			pr.quadrature(cell, func(r []float64, wt float64) {
				b := tabulate(DG0, cell, r)
				RT := w.Scalar(adaptivity.SlotCellResidual, cell, r)
				for i := range b.phi {
					A[i] += wt * RT * weight(r) * b.phi[i]
				}
			})
			for l, r := range facetPoints {
				b := tabulate(DG0, cell, r)
				RdT := w.ScalarFacet(adaptivity.SlotFacetResidual, cell, l, r)
				for i := range b.phi {
					A[i] += RdT * weight(r) * b.phi[i]
				}
			}
			return nil
		},
	}
}
