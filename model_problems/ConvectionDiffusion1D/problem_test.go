package ConvectionDiffusion1D

import (
	"math"
	"testing"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/adaptivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimal(t *testing.T) {
	{ // CG1 is nodally exact for -u'' = f in 1D
		sol, err := NewManufactured("cubic")
		require.NoError(t, err)
		pr, err := NewProblem(FE1D.UniformMesh(0, 1, 5), 1, 1, 0, 0, sol, Goal{})
		require.NoError(t, err)
		u, bcs, err := pr.SolvePrimal(nil)
		require.NoError(t, err)
		assert.Len(t, bcs, 1)
		for i, x := range pr.Mesh.VX {
			assert.InDeltaf(t, sol.U(x), u.Vector.AtVec(i), 1.e-13, "vertex %d", i)
		}
		// M(u) = integral of x - x^3 = 1/4
		assert.InDelta(t, 0.25, pr.ExactGoal(), 1.e-14)
	}
	{ // CG2 reproduces the quadratic solution with convection and reaction
		sol, err := NewManufactured("constant")
		require.NoError(t, err)
		pr, err := NewProblem(FE1D.UniformMesh(0, 1, 3), 2, 2, 0.7, 1.5, sol, Goal{})
		require.NoError(t, err)
		u, _, err := pr.SolvePrimal(nil)
		require.NoError(t, err)
		assert.InDelta(t, 0., pr.TrueError(u), 1.e-13)
		val, err := u.Eval([]float64{0.3})
		require.NoError(t, err)
		assert.InDelta(t, sol.U(0.3), val[0], 1.e-13)
		assert.InDelta(t, 2+0.7*(0.5-0.3)+1.5*sol.U(0.3), pr.Source(0.3), 1.e-14)
	}
	{ // the sine solution converges at second order in the goal
		sol, err := NewManufactured("sine")
		require.NoError(t, err)
		var errs []float64
		for _, K := range []int{8, 16, 32} {
			pr, err := NewProblem(FE1D.UniformMesh(0, 1, K), 1, 1, 0, 0, sol, Goal{})
			require.NoError(t, err)
			u, _, err := pr.SolvePrimal(nil)
			require.NoError(t, err)
			errs = append(errs, math.Abs(pr.TrueError(u)))
		}
		assert.InDelta(t, 2., math.Log2(errs[0]/errs[1]), 0.1)
		assert.InDelta(t, 2., math.Log2(errs[1]/errs[2]), 0.1)
	}
}

func TestProblemConfiguration(t *testing.T) {
	sol, err := NewManufactured("sine")
	require.NoError(t, err)
	mesh := FE1D.UniformMesh(0, 1, 4)
	_, err = NewManufactured("quartic")
	assert.Error(t, err)
	assert.Equal(t, []string{"constant", "cubic", "sine"}, ManufacturedNames())
	_, err = NewProblem(mesh, 0, 1, 0, 0, sol, Goal{})
	assert.Error(t, err)
	_, err = NewProblem(mesh, 1, 0, 0, 0, sol, Goal{})
	assert.Error(t, err)
	_, err = NewProblem(mesh, 1, 1, 0, 0, Manufactured{Name: "empty"}, Goal{})
	assert.Error(t, err)
}

func TestGoalSubdomain(t *testing.T) {
	sol, err := NewManufactured("constant")
	require.NoError(t, err)
	goal := Goal{
		Psi:   func(x float64) float64 { return 2 },
		Omega: func(x float64) bool { return x < 0.5 },
	}
	pr, err := NewProblem(FE1D.UniformMesh(0, 1, 8), 1, 1, 0, 0, sol, goal)
	require.NoError(t, err)
	require.NotNil(t, pr.Domains)
	assert.Equal(t, []int{1, 1, 1, 1, 0, 0, 0, 0}, pr.Domains.Cells)
	// 2 times the integral of x(1-x)/2 over [0, 1/2]
	assert.InDelta(t, 1./12., pr.ExactGoal(), 1.e-14)

	ec, err := pr.NewErrorControl(adaptivity.Options{})
	require.NoError(t, err)
	u, bcs, err := pr.SolvePrimal(nil)
	require.NoError(t, err)
	est, err := ec.EstimateError(u, bcs)
	require.NoError(t, err)
	// the dual has a kink at x = 1/2, the cell indicators are signed around it
	// but their sum still matches the true error for P = 1
	assert.InDelta(t, 1., est/pr.TrueError(u), 1.e-8)
	eta, err := ec.ComputeIndicators(u)
	require.NoError(t, err)
	assert.Equal(t, 8, eta.Len())
	assert.True(t, eta.Min() >= 0)
}
