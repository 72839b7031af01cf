package adaptivity

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/godwr/utils"
	"gonum.org/v1/gonum/mat"
)

// condMax bounds the condition number accepted for a local system
const condMax = 1.e14

var errSingular = errors.New("matrix is singular")

// SolveLocal solves the dense element system A x = b by LU factorization
func SolveLocal(A utils.Matrix, b utils.Vector) (x utils.Vector, err error) {
	var (
		lu     mat.LU
		nr, nc = A.Dims()
	)
	if nr != nc || nr != b.Len() {
		err = fmt.Errorf("local system is %dx%d with a right hand side of length %d", nr, nc, b.Len())
		return
	}
	if !utils.IsFinite(A) || !utils.IsFinite(b) {
		err = fmt.Errorf("local system is not finite")
		return
	}
	lu.Factorize(A.M)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > condMax {
		err = fmt.Errorf("%w: condition number %g", errSingular, cond)
		return
	}
	x = utils.NewVector(nr)
	if err = lu.SolveVecTo(x.V, false, b.V); err != nil {
		return
	}
	if !utils.IsFinite(x) {
		err = errSingular
	}
	return
}

// Regularize replaces every diagonal entry with magnitude below PIVOTTOL by
// one and zeroes the matching right hand side entry, so that dofs which the
// local problem does not see come out zero
func Regularize(A utils.Matrix, b utils.Vector) {
	for i, d := range A.Diag() {
		if math.Abs(d) < utils.PIVOTTOL {
			A.Set(i, i, 1)
			b.SetAt(i, 0)
		}
	}
}
