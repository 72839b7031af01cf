package ConvectionDiffusion1D

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/adaptivity"
	"github.com/notargets/godwr/fem"
)

// Manufactured is a known solution U of the model problem; the source is
// derived from it so that U is exact for any coefficients
type Manufactured struct {
	Name       string
	U, DU, D2U func(x float64) float64
}

var manufactured = map[string]Manufactured{
	// -u'' = 1 on [0,1] with homogeneous data
	"constant": {
		Name: "constant",
		U:    func(x float64) float64 { return 0.5 * x * (1 - x) },
		DU:   func(x float64) float64 { return 0.5 - x },
		D2U:  func(x float64) float64 { return -1 },
	},
	// -u'' = 6x on [0,1] with homogeneous data
	"cubic": {
		Name: "cubic",
		U:    func(x float64) float64 { return x - x*x*x },
		DU:   func(x float64) float64 { return 1 - 3*x*x },
		D2U:  func(x float64) float64 { return -6 * x },
	},
	"sine": {
		Name: "sine",
		U:    func(x float64) float64 { return math.Sin(math.Pi * x) },
		DU:   func(x float64) float64 { return math.Pi * math.Cos(math.Pi*x) },
		D2U:  func(x float64) float64 { return -math.Pi * math.Pi * math.Sin(math.Pi*x) },
	},
}

func ManufacturedNames() (names []string) {
	for name := range manufactured {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func NewManufactured(name string) (m Manufactured, err error) {
	var ok bool
	if m, ok = manufactured[name]; !ok {
		err = fmt.Errorf("unknown manufactured solution %q, want one of %v", name, ManufacturedNames())
	}
	return
}

// Goal is the quantity of interest M(u) = integral of Psi u over the cells
// whose midpoint lies in Omega. A nil Omega is the whole domain and a nil
// Psi is one.
type Goal struct {
	Psi   func(x float64) float64
	Omega func(x float64) bool
}

// Problem is -(kappa u')' + beta u' + c u = f on an interval mesh with
// Dirichlet data on both ends, discretized with continuous Lagrange elements
// of degree P
type Problem struct {
	Kappa, Beta, C float64
	P              int
	Solution       Manufactured
	Goal           Goal
	Mesh           *FE1D.Mesh
	Domains        *fem.Domains

	V    *fem.FunctionSpace // primal and dual, CG(P)
	E    *fem.FunctionSpace // extrapolated dual, CG(P+1)
	RT   *fem.FunctionSpace // cell residual, DG(P+1)
	RdT  *fem.FunctionSpace // facet residual, DG(P)
	Cone *fem.FunctionSpace // DG(1)
	B    *fem.FunctionSpace // bubble
	DG0  *fem.FunctionSpace // indicators

	bubble *fem.Function
	quad   FE1D.Quadrature
}

func NewProblem(mesh *FE1D.Mesh, P int, kappa, beta, c float64, sol Manufactured, goal Goal) (pr *Problem, err error) {
	switch {
	case P < 1:
		err = fmt.Errorf("polynomial order %d, want at least 1", P)
		return
	case kappa <= 0:
		err = fmt.Errorf("diffusion coefficient %g, want a positive value", kappa)
		return
	case sol.U == nil || sol.DU == nil || sol.D2U == nil:
		err = fmt.Errorf("manufactured solution %q is incomplete", sol.Name)
		return
	}
	pr = &Problem{
		Kappa:    kappa,
		Beta:     beta,
		C:        c,
		P:        P,
		Solution: sol,
		Goal:     goal,
		Mesh:     mesh,
		V:        FE1D.NewFunctionSpace(mesh, FE1D.CG(P)),
		E:        FE1D.NewFunctionSpace(mesh, FE1D.CG(P+1)),
		RT:       FE1D.NewFunctionSpace(mesh, FE1D.DG(P+1)),
		RdT:      FE1D.NewFunctionSpace(mesh, FE1D.DG(P)),
		Cone:     FE1D.NewFunctionSpace(mesh, FE1D.DG(1)),
		B:        FE1D.NewFunctionSpace(mesh, FE1D.Bubble{}),
		DG0:      FE1D.NewFunctionSpace(mesh, FE1D.DG(0)),
		quad:     FE1D.GaussQuadrature(8),
	}
	if goal.Omega != nil {
		pr.Domains = mesh.CellMarkers(goal.Omega)
	}
	pr.bubble = fem.NewFunction(pr.B, SlotBubble)
	pr.bubble.Vector.Set(1)
	return
}

// Source is f = -kappa U'' + beta U' + c U
func (pr *Problem) Source(x float64) float64 {
	s := pr.Solution
	return -pr.Kappa*s.D2U(x) + pr.Beta*s.DU(x) + pr.C*s.U(x)
}

func (pr *Problem) psi(x float64) float64 {
	if pr.Goal.Psi == nil {
		return 1
	}
	return pr.Goal.Psi(x)
}

func (pr *Problem) inGoal(k int, dom *fem.Domains) bool {
	if pr.Goal.Omega == nil {
		return true
	}
	if dom == nil {
		dom = pr.Domains
	}
	return dom.CellMarker(k) == 1
}

// BCs prescribes the manufactured solution on both boundary vertices
func (pr *Problem) BCs() []*fem.DirichletBC {
	value := fem.ScalarExpression(func(x []float64) float64 { return pr.Solution.U(x[0]) })
	return []*fem.DirichletBC{fem.NewDirichletBC(pr.V, value, pr.Mesh.BoundaryMarkers(nil))}
}

// SolvePrimal solves a(v, u) = L(v) with the boundary conditions from BCs
func (pr *Problem) SolvePrimal(solver fem.Solver) (u *fem.Function, bcs []*fem.DirichletBC, err error) {
	var (
		aT, LT fem.Template
		a, L   fem.BoundForm
	)
	if solver == nil {
		solver = fem.LUSolver{Domains: pr.Domains}
	}
	constants := pr.constants()
	if aT, err = fem.NewTemplate(pr.bilinear("a", false), constants.Subset(SlotKappa, SlotBeta, SlotC)); err != nil {
		return
	}
	if LT, err = fem.NewTemplate(pr.source(), constants.Subset(SlotSource)); err != nil {
		return
	}
	if a, err = aT.Bind(nil); err != nil {
		return
	}
	if L, err = LT.Bind(nil); err != nil {
		return
	}
	bcs = pr.BCs()
	if u, err = solver.Solve(a, L, bcs); err != nil {
		return
	}
	u.Name = "u_h"
	return
}

// Forms builds the estimator forms. With a nil u the primal solution is a
// free slot bound per call; otherwise u is fixed in the residual forms.
func (pr *Problem) Forms(u *fem.Function) (forms adaptivity.Forms, err error) {
	var (
		constants = pr.constants()
		bubble    = fem.Coefficients{SlotBubble: fem.Func(pr.bubble)}
		residual  = constants
	)
	if u != nil {
		residual = fem.Merge(constants, fem.Coefficients{adaptivity.SlotPrimal: fem.Func(u)})
	}
	psi := fem.Coefficients{SlotPsi: fem.Expr(fem.ScalarExpression(func(x []float64) float64 { return pr.psi(x[0]) }))}
	for _, t := range []struct {
		dst   *fem.Template
		f     fem.Form
		fixed fem.Coefficients
	}{
		{&forms.AStar, pr.bilinear("a_star", true), constants.Subset(SlotKappa, SlotBeta, SlotC)},
		{&forms.LStar, pr.goal(), psi},
		{&forms.Residual, pr.residual(), residual},
		{&forms.ART, pr.cellResidualBilinear(), bubble},
		{&forms.LRT, pr.cellResidualLinear(), fem.Merge(residual, bubble)},
		{&forms.ARdT, pr.facetResidualBilinear(), nil},
		{&forms.LRdT, pr.facetResidualLinear(), residual},
		{&forms.EtaT, pr.indicator(), nil},
	} {
		if *t.dst, err = fem.NewTemplate(t.f, t.fixed); err != nil {
			return
		}
	}
	return
}

// NewErrorControl builds the estimator for this problem
func (pr *Problem) NewErrorControl(opts adaptivity.Options) (ec *adaptivity.ErrorControl, err error) {
	var forms adaptivity.Forms
	if forms, err = pr.Forms(nil); err != nil {
		return
	}
	opts.IsLinear = true
	if opts.Domains == nil {
		opts.Domains = pr.Domains
	}
	return adaptivity.NewErrorControl(forms, opts)
}

// GoalValue is M(v) for a function on V
func (pr *Problem) GoalValue(v *fem.Function) (M float64) {
	return pr.goalIntegral(func(cell fem.Cell, r []float64, x float64) float64 {
		val := make([]float64, 1)
		v.EvalCell(cell, r, val)
		return val[0]
	})
}

// ExactGoal is M(U) for the manufactured solution
func (pr *Problem) ExactGoal() float64 {
	return pr.goalIntegral(func(cell fem.Cell, r []float64, x float64) float64 { return pr.Solution.U(x) })
}

// TrueError is M(U) - M(u_h)
func (pr *Problem) TrueError(u *fem.Function) float64 {
	return pr.ExactGoal() - pr.GoalValue(u)
}

func (pr *Problem) goalIntegral(value func(cell fem.Cell, r []float64, x float64) float64) (M float64) {
	for k := 0; k < pr.Mesh.NumCells(); k++ {
		if !pr.inGoal(k, pr.Domains) {
			continue
		}
		cell := pr.Mesh.Cell(k)
		pr.quadrature(cell, func(r []float64, wt float64) {
			x := cell.PushForward(r)[0]
			M += wt * pr.psi(x) * value(cell, r, x)
		})
	}
	return
}
