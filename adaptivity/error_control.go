package adaptivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/notargets/godwr/fem"
	"github.com/notargets/godwr/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Forms are the eight forms of the dual weighted residual method, each with
// its construction time coefficients fixed
type Forms struct {
	AStar, LStar fem.Template // dual problem a*(v, z) = L*(v)
	Residual     fem.Template // F(u; Ez_h)
	ART, LRT     fem.Template // cell residual
	ARdT, LRdT   fem.Template // facet residual
	EtaT         fem.Template // indicators
}

// Solver solves a linear variational problem
type Solver interface {
	Solve(a, L fem.BoundForm, bcs []*fem.DirichletBC) (*fem.Function, error)
}

// Extrapolator lifts src into the richer space of dst
type Extrapolator interface {
	Extrapolate(dst, src *fem.Function) error
}

// ExtrapolationChecker is implemented by extrapolators that can reject a
// mesh too coarse for them before any solve
type ExtrapolationChecker interface {
	CheckExtrapolation(E, V *fem.FunctionSpace) error
}

type Options struct {
	// IsLinear means the primal solution is bound per call to the "u" slot of
	// the residual forms, otherwise the forms carry it from construction
	IsLinear       bool
	ParallelDegree int // zero means one worker per CPU
	Domains        *fem.Domains
	Solver         Solver       // default fem.LUSolver
	Extrapolator   Extrapolator // default fem.PatchExtrapolator
	Logger         *zap.Logger
}

// ErrorControl computes goal oriented error estimates and cell indicators
type ErrorControl struct {
	forms Forms
	opts  Options
	log   *zap.Logger

	V   *fem.FunctionSpace // dual trial space
	E   *fem.FunctionSpace // extrapolation space
	C   *fem.FunctionSpace // cone space
	RT  *fem.FunctionSpace // cell residual space
	RdT *fem.FunctionSpace // facet residual space

	mu   sync.Mutex
	last *Estimate
}

// Estimate is the result of one error estimate. It carries the dual
// solutions needed for the indicators of the same primal solution.
type Estimate struct {
	Value            float64
	Primal           *fem.Function
	Dual             *fem.Function
	ExtrapolatedDual *fem.Function
	snapshot         []float64
}

// Stale reports whether the primal solution changed after the estimate. An
// estimate without a primal solution is always stale.
func (est *Estimate) Stale() bool {
	return est.Primal == nil || !floats.Equal(est.snapshot, est.Primal.Vector.DataP)
}

func NewErrorControl(forms Forms, opts Options) (ec *ErrorControl, err error) {
	if opts.Solver == nil {
		opts.Solver = fem.LUSolver{Domains: opts.Domains}
	}
	if opts.Extrapolator == nil {
		opts.Extrapolator = fem.PatchExtrapolator{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ec = &ErrorControl{
		forms: forms,
		opts:  opts,
		log:   opts.Logger.Named("error_control"),
	}
	if err = ec.validate(); err != nil {
		return nil, err
	}
	return
}

func (ec *ErrorControl) validate() (err error) {
	var (
		f     = ec.forms
		ranks = []struct {
			name string
			t    fem.Template
			rank int
		}{
			{"a_star", f.AStar, 2}, {"L_star", f.LStar, 1}, {"residual", f.Residual, 0},
			{"a_R_T", f.ART, 2}, {"L_R_T", f.LRT, 1}, {"a_R_dT", f.ARdT, 2},
			{"L_R_dT", f.LRdT, 1}, {"eta_T", f.EtaT, 1},
		}
	)
	for _, r := range ranks {
		switch {
		case r.t.Form == nil:
			return configError("form %s is missing", r.name)
		case r.t.Form.Rank() != r.rank:
			return configError("form %s has rank %d, want %d", r.name, r.t.Form.Rank(), r.rank)
		}
	}
	// the primal solution is free in the linear case and preset otherwise
	for _, t := range []fem.Template{f.Residual, f.LRT, f.LRdT} {
		switch {
		case !t.HasSlot(SlotPrimal):
			return configError("form %q has no %q slot", t.Form.Name(), SlotPrimal)
		case ec.opts.IsLinear && t.IsFixed(SlotPrimal):
			return configError("linear problem but %q is preset in form %q", SlotPrimal, t.Form.Name())
		case !ec.opts.IsLinear && !t.IsFixed(SlotPrimal):
			return configError("nonlinear problem but %q is not preset in form %q", SlotPrimal, t.Form.Name())
		}
	}
	if ec.E, err = freeFunctionSpace(f.Residual, SlotExtrapolatedDual); err != nil {
		return
	}
	if ec.C, err = freeFunctionSpace(f.ARdT, SlotCone); err != nil {
		return
	}
	if err = checkConeLayout(ec.C); err != nil {
		return
	}
	ec.V = f.AStar.Form.Space(1)
	ec.RT = f.ART.Form.Space(1)
	ec.RdT = f.ARdT.Form.Space(1)
	for _, need := range []struct {
		t    fem.Template
		slot string
	}{
		{f.LRdT, SlotCone}, {f.LRdT, SlotCellResidual},
		{f.EtaT, SlotExtrapolatedDual}, {f.EtaT, SlotCellResidual},
		{f.EtaT, SlotFacetResidual}, {f.EtaT, SlotInterpolatedDual},
	} {
		if !need.t.HasSlot(need.slot) || need.t.IsFixed(need.slot) {
			return configError("form %q needs a free %q slot", need.t.Form.Name(), need.slot)
		}
	}
	if fem.ValueRank(ec.RdT.Element) < 2 {
		if s, _ := f.EtaT.Slot(SlotFacetResidual); s.Kind != fem.FacetFunctionKind {
			return configError("slot %q of form %q must take a facet function", SlotFacetResidual, f.EtaT.Form.Name())
		}
	}
	for _, check := range []struct {
		name string
		a, b *fem.FunctionSpace
	}{
		{"a_R_T", f.ART.Form.Space(0), ec.RT},
		{"a_R_dT", f.ARdT.Form.Space(0), ec.RdT},
		{"L_R_T", f.LRT.Form.Space(0), ec.RT},
		{"L_R_dT", f.LRdT.Form.Space(0), ec.RdT},
	} {
		if !check.a.Compatible(check.b) {
			return configError("form %s: test space %v does not match %v", check.name, check.a, check.b)
		}
	}
	if f.EtaT.Form.Space(0).Element.SpaceDimension() != 1 {
		return configError("indicator form needs one test function per cell, got %v", f.EtaT.Form.Space(0))
	}
	if c, ok := ec.opts.Extrapolator.(ExtrapolationChecker); ok {
		if err = c.CheckExtrapolation(ec.E, ec.V); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return
}

func freeFunctionSpace(t fem.Template, name string) (V *fem.FunctionSpace, err error) {
	s, ok := t.Slot(name)
	switch {
	case !ok || t.IsFixed(name):
		err = configError("form %q needs a free %q slot", t.Form.Name(), name)
	case s.Kind != fem.FunctionKind || s.Space == nil:
		err = configError("slot %q of form %q must declare a function space", name, t.Form.Name())
	default:
		V = s.Space
	}
	return
}

func (ec *ErrorControl) primal(u *fem.Function) fem.Coefficients {
	if !ec.opts.IsLinear {
		return nil
	}
	return fem.Coefficients{SlotPrimal: fem.Func(u)}
}

// Estimate computes the error estimate for u: solve the dual problem,
// extrapolate the dual and evaluate the residual of u weighted by it
func (ec *ErrorControl) Estimate(ctx context.Context, u *fem.Function, bcs []*fem.DirichletBC) (est *Estimate, err error) {
	var (
		z, Ez *fem.Function
		F     fem.BoundForm
		value float64
		start = time.Now()
	)
	ec.log.Debug("estimating error", zap.Stringer("primal", u.Space), zap.Int("bcs", len(bcs)))
	if err = ctx.Err(); err != nil {
		return
	}
	if z, err = ec.SolveDual(u, bcs); err != nil {
		return
	}
	if Ez, err = ec.ExtrapolateDual(z, bcs); err != nil {
		return
	}
	free := fem.Merge(fem.Coefficients{SlotExtrapolatedDual: fem.Func(Ez)}, ec.primal(u))
	if F, err = bind(ec.forms.Residual, free); err != nil {
		return
	}
	if value, err = fem.AssembleScalar(F, ec.opts.Domains); err != nil {
		return
	}
	est = &Estimate{
		Value:            value,
		Primal:           u,
		Dual:             z,
		ExtrapolatedDual: Ez,
		snapshot:         append([]float64(nil), u.Vector.DataP...),
	}
	ec.log.Info("error estimate",
		zap.Float64("estimate", value), zap.Duration("elapsed", time.Since(start)))
	return
}

// Indicators computes one non-negative indicator per cell from the residual
// representation of est.Primal weighted by the extrapolated dual of est
func (ec *ErrorControl) Indicators(ctx context.Context, est *Estimate) (eta utils.Vector, err error) {
	var (
		RT, Pi *fem.Function
		RdT    *fem.FacetFunction
		etaT   fem.BoundForm
		start  = time.Now()
	)
	if est == nil || est.ExtrapolatedDual == nil {
		err = fmt.Errorf("%w: no error estimate", ErrStaleDual)
		return
	}
	if est.Stale() {
		err = fmt.Errorf("%w: primal solution changed since the estimate", ErrStaleDual)
		return
	}
	u := est.Primal
	ec.log.Debug("computing residual representation")
	if RT, err = ec.ComputeCellResidual(ctx, u); err != nil {
		return
	}
	if RdT, err = ec.ComputeFacetResidual(ctx, u, RT); err != nil {
		return
	}
	ec.log.Debug("computed residual representation", zap.Duration("elapsed", time.Since(start)))
	Pi = fem.NewFunction(ec.V, SlotInterpolatedDual)
	if err = Pi.Interpolate(est.ExtrapolatedDual); err != nil {
		return
	}
	free := fem.Coefficients{
		SlotExtrapolatedDual: fem.Func(est.ExtrapolatedDual),
		SlotCellResidual:     fem.Func(RT),
		SlotFacetResidual:    fem.Facets(RdT),
		SlotInterpolatedDual: fem.Func(Pi),
	}
	if etaT, err = bind(ec.forms.EtaT, free); err != nil {
		return
	}
	if eta, err = fem.AssembleVector(etaT, ec.opts.Domains); err != nil {
		return
	}
	eta.Abs()
	ec.log.Info("computed indicators",
		zap.Int("cells", eta.Len()), zap.Float64("sum", eta.Sum()), zap.Duration("elapsed", time.Since(start)))
	return
}

// EstimateError is Estimate without a context. It remembers the extrapolated
// dual for the following ComputeIndicators call with the same u; a failed
// estimate forgets any earlier one.
func (ec *ErrorControl) EstimateError(u *fem.Function, bcs []*fem.DirichletBC) (value float64, err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.last = nil
	est, err := ec.Estimate(context.Background(), u, bcs)
	if err != nil {
		return
	}
	ec.last = est
	return est.Value, nil
}

// ComputeIndicators must follow EstimateError for the same, unmodified u;
// otherwise it fails with ErrStaleDual.
func (ec *ErrorControl) ComputeIndicators(u *fem.Function) (eta utils.Vector, err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.last == nil || ec.last.Primal != u {
		err = fmt.Errorf("%w: no error estimate for this primal solution", ErrStaleDual)
		return
	}
	return ec.Indicators(context.Background(), ec.last)
}
