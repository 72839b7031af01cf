package adaptivity

import (
	"errors"
	"testing"

	"github.com/notargets/godwr/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSolveLocal(t *testing.T) {
	{
		A := utils.NewMatrix(2, 2, []float64{4, 1, 1, 3})
		b := utils.NewVector(2, []float64{1, 2})
		x, err := SolveLocal(A, b)
		require.NoError(t, err)
		assert.InDeltaf(t, 1./11., x.AtVec(0), 1.e-14, "x0")
		assert.InDeltaf(t, 7./11., x.AtVec(1), 1.e-14, "x1")
	}
	{ // a structurally empty dof is pinned to zero
		A := utils.NewMatrix(2, 2, []float64{1, 0, 0, 0})
		b := utils.NewVector(2, []float64{2, 5})
		Regularize(A, b)
		assert.Equal(t, []float64{1, 0, 0, 1}, A.Data())
		assert.Equal(t, []float64{2, 0}, b.DataP)
		x, err := SolveLocal(A, b)
		require.NoError(t, err)
		assert.InDelta(t, 2., x.AtVec(0), 1.e-14)
		assert.InDelta(t, 0., x.AtVec(1), 1.e-14)
	}
	{ // entries just above the threshold are kept
		A := utils.NewMatrix(2, 2, []float64{1, 0, 0, 1.e-9})
		b := utils.NewVector(2, []float64{2, 5})
		Regularize(A, b)
		assert.Equal(t, 1.e-9, A.At(1, 1))
		assert.Equal(t, 5., b.AtVec(1))
	}
	{ // singular with nonzero diagonal survives regularization and fails
		A := utils.NewMatrix(2, 2, []float64{1, 1, 1, 1})
		b := utils.NewVector(2, []float64{1, 1})
		Regularize(A, b)
		_, err := SolveLocal(A, b)
		assert.Error(t, err)
		lerr := &LinearAlgebraError{Cell: 7, Err: err}
		assert.True(t, errors.Is(lerr, ErrLinearAlgebra))
		assert.Contains(t, lerr.Error(), "cell 7")
	}
	{
		_, err := SolveLocal(utils.NewMatrix(2, 3), utils.NewVector(2))
		assert.Error(t, err)
	}
}
