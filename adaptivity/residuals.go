package adaptivity

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/godwr/fem"
	"github.com/notargets/godwr/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComputeCellResidual solves the bubble weighted local problem
// a_R_T(v, R_T) = L_R_T(v) on every cell
func (ec *ErrorControl) ComputeCellResidual(ctx context.Context, u *fem.Function) (RT *fem.Function, err error) {
	var (
		aRT, LRT fem.BoundForm
		dom      = ec.opts.Domains
		start    = time.Now()
	)
	if aRT, err = bind(ec.forms.ART, nil); err != nil {
		return
	}
	if LRT, err = bind(ec.forms.LRT, ec.primal(u)); err != nil {
		return
	}
	R := fem.NewFunction(ec.RT, SlotCellResidual)
	err = ec.forEachCell(ctx, ec.RT.DofMap, func(k int) (err error) {
		var (
			A utils.Matrix
			b utils.Vector
			x utils.Vector
		)
		if A, err = fem.LocalMatrix(aRT, k, dom); err != nil {
			return
		}
		if b, err = fem.LocalVector(LRT, k, dom); err != nil {
			return
		}
		if x, err = SolveLocal(A, b); err != nil {
			return &LinearAlgebraError{Cell: k, Err: err}
		}
		R.Scatter(x.DataP, ec.RT.DofMap.CellDofs(k))
		return
	})
	if err != nil {
		return
	}
	ec.log.Debug("computed cell residual",
		zap.Int("cells", ec.RT.Mesh.NumCells()), zap.Duration("elapsed", time.Since(start)))
	RT = R
	return
}

// ComputeFacetResidual solves, for every local facet label l, the local
// problem a_R_dT(v, R_dT[l]) = L_R_dT(v) weighted by the cone function of
// facet l. Dofs the facet does not see are regularized to zero.
func (ec *ErrorControl) ComputeFacetResidual(ctx context.Context, u, RT *fem.Function) (RdT *fem.FacetFunction, err error) {
	var (
		dom   = ec.opts.Domains
		dim   = ec.C.Mesh.TopologicalDim()
		start = time.Now()
	)
	if rank := fem.ValueRank(ec.RdT.Element); rank >= 2 {
		err = fmt.Errorf("%w: facet residual of value rank %d", ErrNotImplemented, rank)
		return
	}
	R := fem.NewFacetFunction(ec.RdT, dim+1, SlotFacetResidual)
	for l := 0; l <= dim; l++ {
		var (
			aRdT, LRdT fem.BoundForm
			cone       = ConeFunction(ec.C, l)
			Rl         = R.At(l)
			free       = fem.Coefficients{
				SlotCone:         fem.Func(cone),
				SlotCellResidual: fem.Func(RT),
			}
		)
		if aRdT, err = bind(ec.forms.ARdT, fem.Coefficients{SlotCone: fem.Func(cone)}); err != nil {
			return
		}
		if LRdT, err = bind(ec.forms.LRdT, fem.Merge(free, ec.primal(u))); err != nil {
			return
		}
		err = ec.forEachCell(ctx, ec.RdT.DofMap, func(k int) (err error) {
			var (
				A utils.Matrix
				b utils.Vector
				x utils.Vector
			)
			if A, err = fem.LocalMatrix(aRdT, k, dom); err != nil {
				return
			}
			if b, err = fem.LocalVector(LRdT, k, dom); err != nil {
				return
			}
			Regularize(A, b)
			if x, err = SolveLocal(A, b); err != nil {
				return &LinearAlgebraError{Cell: k, Err: err}
			}
			Rl.Scatter(x.DataP, ec.RdT.DofMap.CellDofs(k))
			return
		})
		if err != nil {
			return
		}
	}
	ec.log.Debug("computed facet residual",
		zap.Int("facets", dim+1), zap.Duration("elapsed", time.Since(start)))
	RdT = R
	return
}

// ConeFunction is the function of the cone space C that is one at the dof
// of local facet l in every cell and zero elsewhere
func ConeFunction(C *fem.FunctionSpace, l int) (cone *fem.Function) {
	var (
		dim = C.Mesh.TopologicalDim()
		N   = C.Element.SpaceDimension()
	)
	cone = fem.NewFunction(C, fmt.Sprintf("%s[%d]", SlotCone, l))
	for k := 0; k < C.Mesh.NumCells(); k++ {
		cone.Vector.DataP[N*(k+1)-(dim+1)+l] = 1
	}
	return
}

// checkConeLayout verifies that the cone dof of facet l in cell k, local dof
// N-(dim+1)+l, is global dof N*(k+1)-(dim+1)+l
func checkConeLayout(C *fem.FunctionSpace) error {
	var (
		dim = C.Mesh.TopologicalDim()
		N   = C.Element.SpaceDimension()
	)
	if N < dim+1 || fem.ValueSize(C.Element) != 1 {
		return configError("cone space %v must be scalar with at least %d dofs per cell", C, dim+1)
	}
	for k := 0; k < C.Mesh.NumCells(); k++ {
		dofs := C.DofMap.CellDofs(k)
		for l := 0; l <= dim; l++ {
			i := N - (dim + 1) + l
			if dofs[i] != N*(k+1)-(dim+1)+l {
				return configError("cone space %v: cell %d local dof %d is global dof %d", C, k, i, dofs[i])
			}
		}
	}
	return nil
}

// forEachCell runs fn over all cells, one goroutine per partition. The first
// error cancels the remaining partitions. Cells are visited serially when
// the target dofmap shares dofs between cells.
func (ec *ErrorControl) forEachCell(ctx context.Context, dm *fem.DofMap, fn func(k int) error) error {
	var (
		K  = dm.NumCells()
		NP = utils.ParallelDegree(ec.opts.ParallelDegree, K)
	)
	if !dm.Disjoint() {
		NP = 1
	}
	pm := utils.NewPartitionMap(NP, K)
	ec.log.Debug("cell pass", zap.Int("workers", NP), zap.Int("cells per worker", pm.GetBucketDimension(0)))
	g, ctx := errgroup.WithContext(ctx)
	for np := 0; np < NP; np++ {
		kMin, kMax := pm.GetBucketRange(np)
		g.Go(func() error {
			for k := kMin; k < kMax; k++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func bind(t fem.Template, free fem.Coefficients) (b fem.BoundForm, err error) {
	if b, err = t.Bind(free); err != nil {
		err = fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return
}
