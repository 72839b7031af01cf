package adaptivity

import (
	"fmt"
	"time"

	"github.com/notargets/godwr/fem"
	"go.uber.org/zap"
)

// SolveDual solves a*(v, z) = L*(v) with the primal boundary conditions
// made homogeneous. Dual forms that leave the primal slot free are
// linearized at u.
func (ec *ErrorControl) SolveDual(u *fem.Function, bcs []*fem.DirichletBC) (z *fem.Function, err error) {
	var (
		aStar, LStar fem.BoundForm
		start        = time.Now()
		dualBCs      = make([]*fem.DirichletBC, len(bcs))
	)
	for i, bc := range bcs {
		dualBCs[i] = bc.Homogenize()
	}
	if aStar, err = bind(ec.forms.AStar, linearizeAt(ec.forms.AStar, u)); err != nil {
		return
	}
	if LStar, err = bind(ec.forms.LStar, linearizeAt(ec.forms.LStar, u)); err != nil {
		return
	}
	if z, err = ec.opts.Solver.Solve(aStar, LStar, dualBCs); err != nil {
		return
	}
	z.Name = "z_h"
	ec.log.Debug("solved dual problem",
		zap.Int("dofs", z.Space.Dim()), zap.Duration("elapsed", time.Since(start)))
	return
}

// linearizeAt binds u to the primal slot of t when t leaves it free
func linearizeAt(t fem.Template, u *fem.Function) fem.Coefficients {
	if u == nil || !t.HasSlot(SlotPrimal) || t.IsFixed(SlotPrimal) {
		return nil
	}
	return fem.Coefficients{SlotPrimal: fem.Func(u)}
}

// ExtrapolateDual lifts z into the extrapolation space E and zeroes it on
// the boundary of every primal condition. A condition on a sub-space of the
// primal space applies to the sub-space of E on the same component path.
func (ec *ErrorControl) ExtrapolateDual(z *fem.Function, bcs []*fem.DirichletBC) (Ez *fem.Function, err error) {
	var (
		start = time.Now()
		E     = fem.NewFunction(ec.E, SlotExtrapolatedDual)
	)
	if err = ec.opts.Extrapolator.Extrapolate(E, z); err != nil {
		err = fmt.Errorf("extrapolating the dual: %w", err)
		return
	}
	for _, bc := range bcs {
		var W *fem.FunctionSpace
		if W, err = ec.E.SubPath(bc.Space.Component); err != nil {
			err = fmt.Errorf("%w: %w", ErrConfiguration, err)
			return
		}
		fem.NewDirichletBC(W, nil, bc.Markers).Apply(E)
	}
	ec.log.Debug("extrapolated dual",
		zap.Stringer("space", ec.E), zap.Duration("elapsed", time.Since(start)))
	Ez = E
	return
}
