package adaptivity_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/adaptivity"
	"github.com/notargets/godwr/fem"
	CD "github.com/notargets/godwr/model_problems/ConvectionDiffusion1D"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProblem(t *testing.T, K int, sol string, kappa, beta, c float64) *CD.Problem {
	m, err := CD.NewManufactured(sol)
	require.NoError(t, err)
	pr, err := CD.NewProblem(FE1D.UniformMesh(0, 1, K), 1, kappa, beta, c, m, CD.Goal{})
	require.NoError(t, err)
	return pr
}

func estimate(t *testing.T, pr *CD.Problem, opts adaptivity.Options) (u *fem.Function, est float64, eta []float64) {
	ec, err := pr.NewErrorControl(opts)
	require.NoError(t, err)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	est, err = ec.EstimateError(u, bcs)
	require.NoError(t, err)
	ind, err := ec.ComputeIndicators(u)
	require.NoError(t, err)
	return u, est, ind.DataP
}

func TestErrorControl(t *testing.T) {
	{ // -u'' = 1, M(u) = integral of u: the estimate is exact, h^2/12
		var last float64
		for _, K := range []int{4, 8, 16} {
			pr := newProblem(t, K, "constant", 1, 0, 0)
			u, est, eta := estimate(t, pr, adaptivity.Options{})
			h := 1. / float64(K)
			assert.InDeltaf(t, h*h/12., est, 1.e-12, "K = %d", K)
			assert.InDeltaf(t, pr.TrueError(u), est, 1.e-12, "K = %d", K)
			require.Len(t, eta, K)
			for k, e := range eta {
				assert.InDeltaf(t, h*h*h/12., e, 1.e-12, "K = %d, cell %d", K, k)
			}
			if last != 0 {
				assert.InDelta(t, 4., last/est, 1.e-8)
			}
			last = est
		}
	}
	{ // -u'' = 6x: the indicators have one sign and sum to the estimate
		for _, K := range []int{4, 8, 16} {
			pr := newProblem(t, K, "cubic", 1, 0, 0)
			u, est, eta := estimate(t, pr, adaptivity.Options{ParallelDegree: 2})
			var sum float64
			for _, e := range eta {
				assert.GreaterOrEqual(t, e, 0.)
				sum += e
			}
			assert.InDeltaf(t, 1., sum/est, 1.e-8, "K = %d", K)
			assert.InDeltaf(t, pr.TrueError(u), est, 1.e-12, "K = %d", K)
		}
	}
	{ // convection and reaction: indicators stay non-negative and the
		// effectivity stays bounded under refinement
		var last float64
		for _, K := range []int{8, 16, 32} {
			pr := newProblem(t, K, "sine", 1, 0.5, 1)
			u, est, eta := estimate(t, pr, adaptivity.Options{})
			var sum float64
			for _, e := range eta {
				assert.GreaterOrEqual(t, e, 0.)
				sum += e
			}
			trueErr := pr.TrueError(u)
			assert.InDeltaf(t, 1., est/trueErr, 0.2, "K = %d", K)
			assert.GreaterOrEqual(t, sum, 0.9*math.Abs(est))
			assert.Less(t, sum/math.Abs(est), 10.)
			if last != 0 {
				assert.Less(t, math.Abs(est), math.Abs(last))
			}
			last = est
		}
	}
}

func TestZeroProblem(t *testing.T) {
	zero := CD.Manufactured{
		Name: "zero",
		U:    func(x float64) float64 { return 0 },
		DU:   func(x float64) float64 { return 0 },
		D2U:  func(x float64) float64 { return 0 },
	}
	pr, err := CD.NewProblem(FE1D.UniformMesh(0, 1, 6), 2, 1, 0.3, 0.2, zero, CD.Goal{})
	require.NoError(t, err)
	_, est, eta := estimate(t, pr, adaptivity.Options{})
	assert.Equal(t, 0., est)
	for _, e := range eta {
		assert.Equal(t, 0., e)
	}
}

func TestLinearBranch(t *testing.T) {
	pr := newProblem(t, 8, "sine", 1, 0, 1)
	ec, err := pr.NewErrorControl(adaptivity.Options{})
	require.NoError(t, err)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	est1, err := ec.EstimateError(u, bcs)
	require.NoError(t, err)
	eta1, err := ec.ComputeIndicators(u)
	require.NoError(t, err)

	// the primal solution is read per call: a perturbed u changes the result
	u2 := u.Copy()
	u2.Vector.DataP[3] += 0.1
	est2, err := ec.EstimateError(u2, bcs)
	require.NoError(t, err)
	eta2, err := ec.ComputeIndicators(u2)
	require.NoError(t, err)
	assert.NotEqual(t, est1, est2)
	assert.NotEqual(t, eta1.DataP, eta2.DataP)

	// u itself is still estimated as before
	est3, err := ec.EstimateError(u, bcs)
	require.NoError(t, err)
	assert.Equal(t, est1, est3)
}

func TestPresetPrimal(t *testing.T) {
	pr := newProblem(t, 8, "sine", 1, 0.5, 1)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	ecLin, err := pr.NewErrorControl(adaptivity.Options{})
	require.NoError(t, err)
	estLin, err := ecLin.Estimate(context.Background(), u, bcs)
	require.NoError(t, err)
	etaLin, err := ecLin.Indicators(context.Background(), estLin)
	require.NoError(t, err)

	forms, err := pr.Forms(u)
	require.NoError(t, err)
	ec, err := adaptivity.NewErrorControl(forms, adaptivity.Options{IsLinear: false})
	require.NoError(t, err)
	est, err := ec.Estimate(context.Background(), u, bcs)
	require.NoError(t, err)
	assert.InDelta(t, estLin.Value, est.Value, 1.e-15)
	eta, err := ec.Indicators(context.Background(), est)
	require.NoError(t, err)
	assert.InDeltaSlice(t, etaLin.DataP, eta.DataP, 1.e-15)
}

func TestConfiguration(t *testing.T) {
	pr := newProblem(t, 4, "constant", 1, 0, 0)
	u, _, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	{ // nonlinear but the primal slot is free
		forms, err := pr.Forms(nil)
		require.NoError(t, err)
		_, err = adaptivity.NewErrorControl(forms, adaptivity.Options{IsLinear: false})
		assert.ErrorIs(t, err, adaptivity.ErrConfiguration)
	}
	{ // linear but the primal slot is preset
		forms, err := pr.Forms(u)
		require.NoError(t, err)
		_, err = adaptivity.NewErrorControl(forms, adaptivity.Options{IsLinear: true})
		assert.ErrorIs(t, err, adaptivity.ErrConfiguration)
	}
	{ // a missing form
		forms, err := pr.Forms(nil)
		require.NoError(t, err)
		forms.EtaT = fem.Template{}
		_, err = adaptivity.NewErrorControl(forms, adaptivity.Options{IsLinear: true})
		assert.ErrorIs(t, err, adaptivity.ErrConfiguration)
	}
	{ // forms swapped into the wrong role
		forms, err := pr.Forms(nil)
		require.NoError(t, err)
		forms.ART, forms.LRT = forms.LRT, forms.ART
		_, err = adaptivity.NewErrorControl(forms, adaptivity.Options{IsLinear: true})
		assert.ErrorIs(t, err, adaptivity.ErrConfiguration)
	}
}

func TestStaleDual(t *testing.T) {
	pr := newProblem(t, 4, "cubic", 1, 0, 0)
	ec, err := pr.NewErrorControl(adaptivity.Options{})
	require.NoError(t, err)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)

	_, err = ec.ComputeIndicators(u)
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)

	_, err = ec.EstimateError(u, bcs)
	require.NoError(t, err)
	_, err = ec.ComputeIndicators(u.Copy())
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)

	u.Vector.DataP[2] *= 1.5
	_, err = ec.ComputeIndicators(u)
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)

	_, err = ec.Indicators(context.Background(), nil)
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)
}

type failingSolver struct{ err error }

func (s failingSolver) Solve(a, L fem.BoundForm, bcs []*fem.DirichletBC) (*fem.Function, error) {
	return nil, s.err
}

func TestSolverFailure(t *testing.T) {
	var (
		pr   = newProblem(t, 4, "constant", 1, 0, 0)
		boom = errors.New("boom")
	)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	ec, err := pr.NewErrorControl(adaptivity.Options{Solver: failingSolver{boom}})
	require.NoError(t, err)
	_, err = ec.EstimateError(u, bcs)
	assert.Equal(t, boom, err)
	_, err = ec.ComputeIndicators(u)
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)
}

// switchSolver fails every solve once fail is set
type switchSolver struct {
	fail bool
	err  error
}

func (s *switchSolver) Solve(a, L fem.BoundForm, bcs []*fem.DirichletBC) (*fem.Function, error) {
	if s.fail {
		return nil, s.err
	}
	return fem.LUSolver{}.Solve(a, L, bcs)
}

func TestFailedEstimateForgetsDual(t *testing.T) {
	var (
		pr     = newProblem(t, 4, "constant", 1, 0, 0)
		solver = &switchSolver{err: errors.New("boom")}
	)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	ec, err := pr.NewErrorControl(adaptivity.Options{Solver: solver})
	require.NoError(t, err)
	_, err = ec.EstimateError(u, bcs)
	require.NoError(t, err)
	_, err = ec.ComputeIndicators(u)
	require.NoError(t, err)

	solver.fail = true
	_, err = ec.EstimateError(u, bcs)
	assert.ErrorIs(t, err, solver.err)
	// u is unchanged, the earlier dual must still not be reused
	_, err = ec.ComputeIndicators(u)
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)
}

func TestEstimateWithoutPrimal(t *testing.T) {
	pr := newProblem(t, 4, "cubic", 1, 0, 0)
	ec, err := pr.NewErrorControl(adaptivity.Options{})
	require.NoError(t, err)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	est, err := ec.Estimate(context.Background(), u, bcs)
	require.NoError(t, err)
	partial := &adaptivity.Estimate{Value: est.Value, Dual: est.Dual, ExtrapolatedDual: est.ExtrapolatedDual}
	assert.True(t, partial.Stale())
	assert.NotPanics(t, func() {
		_, err = ec.Indicators(context.Background(), partial)
	})
	assert.ErrorIs(t, err, adaptivity.ErrStaleDual)
	_, err = ec.Indicators(context.Background(), est)
	assert.NoError(t, err)
}

func TestCoarseMesh(t *testing.T) {
	m, err := CD.NewManufactured("constant")
	require.NoError(t, err)
	{ // one cell holds too few dofs for any patch fit
		pr, err := CD.NewProblem(FE1D.UniformMesh(0, 1, 1), 1, 1, 0, 0, m, CD.Goal{})
		require.NoError(t, err)
		_, err = pr.NewErrorControl(adaptivity.Options{})
		assert.ErrorIs(t, err, adaptivity.ErrConfiguration)
		assert.ErrorIs(t, err, fem.ErrExtrapolation)
	}
	{ // two cells reach across the shared vertex
		pr := newProblem(t, 2, "constant", 1, 0, 0)
		u, est, eta := estimate(t, pr, adaptivity.Options{})
		assert.InDelta(t, 0.25/12., est, 1.e-12)
		assert.InDelta(t, pr.TrueError(u), est, 1.e-12)
		require.Len(t, eta, 2)
		assert.InDelta(t, eta[0], eta[1], 1.e-12)
	}
}
