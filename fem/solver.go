package fem

import (
	"fmt"
	"math"

	"github.com/notargets/godwr/utils"
	"gonum.org/v1/gonum/mat"
)

// Solver solves the linear variational problem a(v, u) = L(v) subject to bcs
type Solver interface {
	Solve(a, L BoundForm, bcs []*DirichletBC) (*Function, error)
}

// LUSolver assembles the global system and factors it densely
type LUSolver struct {
	Domains *Domains
	CondMax float64
}

const defaultCondMax = 1.e14

func (s LUSolver) Solve(a, L BoundForm, bcs []*DirichletBC) (u *Function, err error) {
	var (
		A       utils.CSR
		b       utils.Vector
		lu      mat.LU
		x       = mat.NewVecDense(a.Form.Space(1).Dim(), nil)
		condMax = s.CondMax
	)
	if condMax == 0 {
		condMax = defaultCondMax
	}
	if err = checkRank(a, 2); err != nil {
		return
	}
	if err = checkRank(L, 1); err != nil {
		return
	}
	if A, err = AssembleMatrix(a, s.Domains); err != nil {
		return
	}
	if b, err = AssembleVector(L, s.Domains); err != nil {
		return
	}
	Ad := A.ToDense()
	nr, nc := Ad.Dims()
	if nr != nc {
		err = fmt.Errorf("%w: %dx%d system", ErrShape, nr, nc)
		return
	}
	for _, bc := range bcs {
		for dof, val := range bc.Dofs() {
			for j := 0; j < nc; j++ {
				Ad.M.Set(dof, j, 0)
			}
			Ad.M.Set(dof, dof, 1)
			b.DataP[dof] = val
		}
	}
	lu.Factorize(Ad.M)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > condMax {
		err = fmt.Errorf("%w: condition number %g", ErrSingular, cond)
		return
	}
	if err = lu.SolveVecTo(x, false, b.V); err != nil {
		err = fmt.Errorf("%w: %v", ErrSingular, err)
		return
	}
	u = NewFunction(a.Form.Space(1))
	copy(u.Vector.DataP, x.RawVector().Data)
	return
}
