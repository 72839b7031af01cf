package adaptivity

import (
	"context"
	"errors"
	"testing"

	"github.com/notargets/godwr/FE1D"
	"github.com/notargets/godwr/fem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubForm produces zero local tensors
type stubForm struct {
	name   string
	mesh   fem.Mesh
	spaces []*fem.FunctionSpace
	slots  []fem.Slot
}

func (f *stubForm) Name() string                   { return f.name }
func (f *stubForm) Rank() int                      { return len(f.spaces) }
func (f *stubForm) Space(i int) *fem.FunctionSpace { return f.spaces[i] }
func (f *stubForm) Mesh() fem.Mesh                 { return f.mesh }
func (f *stubForm) Slots() []fem.Slot              { return f.slots }

func (f *stubForm) LocalTensor(cell fem.Cell, w fem.Coefficients, dom *fem.Domains, A []float64) error {
	return nil
}

func stubForms(t *testing.T, mesh *FE1D.Mesh, R *fem.FunctionSpace) Forms {
	var (
		V    = FE1D.NewFunctionSpace(mesh, FE1D.CG(1))
		E    = FE1D.NewFunctionSpace(mesh, FE1D.CG(2))
		C    = FE1D.NewFunctionSpace(mesh, FE1D.DG(1))
		DG0  = FE1D.NewFunctionSpace(mesh, FE1D.DG(0))
		u    = fem.Slot{Name: SlotPrimal, Kind: fem.FunctionKind, Space: V}
		ez   = fem.Slot{Name: SlotExtrapolatedDual, Kind: fem.FunctionKind, Space: E}
		cone = fem.Slot{Name: SlotCone, Kind: fem.FunctionKind, Space: C}
		rt   = fem.Slot{Name: SlotCellResidual, Kind: fem.FunctionKind}
		rdt  = fem.Slot{Name: SlotFacetResidual, Kind: fem.FacetFunctionKind}
		pi   = fem.Slot{Name: SlotInterpolatedDual, Kind: fem.FunctionKind, Space: V}
	)
	template := func(name string, spaces []*fem.FunctionSpace, slots ...fem.Slot) fem.Template {
		tmpl, err := fem.NewTemplate(&stubForm{name: name, mesh: mesh, spaces: spaces, slots: slots}, nil)
		require.NoError(t, err)
		return tmpl
	}
	return Forms{
		AStar:    template("a_star", []*fem.FunctionSpace{V, V}),
		LStar:    template("L_star", []*fem.FunctionSpace{V}),
		Residual: template("residual", nil, u, ez),
		ART:      template("a_R_T", []*fem.FunctionSpace{R, R}),
		LRT:      template("L_R_T", []*fem.FunctionSpace{R}, u),
		ARdT:     template("a_R_dT", []*fem.FunctionSpace{R, R}, cone),
		LRdT:     template("L_R_dT", []*fem.FunctionSpace{R}, u, cone, rt),
		EtaT:     template("eta_T", []*fem.FunctionSpace{DG0}, ez, rt, rdt, pi),
	}
}

func TestResiduals(t *testing.T) {
	mesh := FE1D.UniformMesh(0, 1, 8)
	{ // facet residual of a rank 2 space
		R := FE1D.NewFunctionSpace(mesh, FE1D.NewTensorElement(FE1D.DG(1), 2, 2))
		ec, err := NewErrorControl(stubForms(t, mesh, R), Options{IsLinear: true})
		require.NoError(t, err)
		u := fem.NewFunction(ec.V)
		RT := fem.NewFunction(R)
		_, err = ec.ComputeFacetResidual(context.Background(), u, RT)
		assert.ErrorIs(t, err, ErrNotImplemented)
	}
	{ // a vanishing cell system is singular on every cell
		R := FE1D.NewFunctionSpace(mesh, FE1D.DG(2))
		ec, err := NewErrorControl(stubForms(t, mesh, R), Options{IsLinear: true, ParallelDegree: 4})
		require.NoError(t, err)
		_, err = ec.ComputeCellResidual(context.Background(), fem.NewFunction(ec.V))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLinearAlgebra)
		var lerr *LinearAlgebraError
		require.True(t, errors.As(err, &lerr))
		assert.True(t, lerr.Cell >= 0 && lerr.Cell < mesh.NumCells())
	}
	{ // the facet pass regularizes the vanishing system to zero
		R := FE1D.NewFunctionSpace(mesh, FE1D.DG(1))
		ec, err := NewErrorControl(stubForms(t, mesh, R), Options{IsLinear: true, ParallelDegree: 3})
		require.NoError(t, err)
		RdT, err := ec.ComputeFacetResidual(context.Background(), fem.NewFunction(ec.V), fem.NewFunction(R))
		require.NoError(t, err)
		assert.Equal(t, 2, RdT.Size())
		assert.Equal(t, 0., RdT.At(0).Vector.Norm(2))
	}
	{ // a cancelled context stops the pass
		R := FE1D.NewFunctionSpace(mesh, FE1D.DG(1))
		ec, err := NewErrorControl(stubForms(t, mesh, R), Options{IsLinear: true})
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = ec.ComputeFacetResidual(ctx, fem.NewFunction(ec.V), fem.NewFunction(R))
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestConeFunction(t *testing.T) {
	var (
		mesh = FE1D.UniformMesh(0, 1, 5)
		C    = FE1D.NewFunctionSpace(mesh, FE1D.DG(1))
	)
	require.NoError(t, checkConeLayout(C))
	cones := []*fem.Function{ConeFunction(C, 0), ConeFunction(C, 1)}
	for k := 0; k < mesh.NumCells(); k++ {
		dofs := C.DofMap.CellDofs(k)
		for l, cone := range cones {
			// exactly one cone dof per cell, at the local dof of facet l
			for i, dof := range dofs {
				exp := 0.
				if i == l {
					exp = 1
				}
				assert.Equalf(t, exp, cone.Vector.AtVec(dof), "cell %d facet %d dof %d", k, l, i)
			}
		}
	}
	// the cones are disjoint and together cover every dof once
	sum := cones[0].Vector.Copy().AddVec(cones[1].Vector)
	assert.Equal(t, float64(C.Dim()), sum.Sum())
	assert.Equal(t, 1., sum.Max())
	assert.Equal(t, 0., cones[0].Vector.Dot(cones[1].Vector))

	{ // a richer cone space puts the cone dofs at the end of each cell block
		C2 := FE1D.NewFunctionSpace(mesh, FE1D.DG(2))
		require.NoError(t, checkConeLayout(C2))
		var all []int
		for l := 0; l <= 1; l++ {
			cone := ConeFunction(C2, l)
			assert.Equal(t, float64(mesh.NumCells()), cone.Vector.Sum())
			for k := 0; k < mesh.NumCells(); k++ {
				vals := cone.Vector.Subset(C2.DofMap.CellDofs(k)).DataP
				exp := []float64{0, 0, 0}
				exp[1+l] = 1
				assert.Equalf(t, exp, vals, "cell %d facet %d", k, l)
				all = append(all, 3*(k+1)-2+l)
			}
		}
		// distinct across cells and labels
		seen := make(map[int]bool)
		for _, dof := range all {
			assert.False(t, seen[dof])
			seen[dof] = true
		}
	}
	assert.ErrorIs(t, checkConeLayout(FE1D.NewFunctionSpace(mesh, FE1D.DG(0))), ErrConfiguration)
	assert.ErrorIs(t, checkConeLayout(FE1D.NewFunctionSpace(mesh, FE1D.CG(1))), ErrConfiguration)
	assert.ErrorIs(t, checkConeLayout(FE1D.NewFunctionSpace(mesh, FE1D.NewVectorElement(FE1D.DG(1), 2))), ErrConfiguration)
}

func TestExtrapolateDualSubspaces(t *testing.T) {
	var (
		mesh  = FE1D.UniformMesh(0, 1, 4)
		left  = mesh.BoundaryMarkers(func(x float64) bool { return x < 0.5 })
		right = mesh.BoundaryMarkers(func(x float64) bool { return x > 0.5 })
		one   = func(z *fem.Function) { z.Vector.Set(1) }
	)
	{
		V := FE1D.NewFunctionSpace(mesh, FE1D.NewVectorElement(FE1D.CG(1), 2))
		E := FE1D.NewFunctionSpace(mesh, FE1D.NewVectorElement(FE1D.CG(2), 2))
		ec := &ErrorControl{E: E, opts: Options{Extrapolator: fem.PatchExtrapolator{}}, log: zap.NewNop()}
		z := fem.NewFunction(V)
		one(z)
		bcs := []*fem.DirichletBC{fem.NewDirichletBC(V.Sub(1), nil, left)}
		Ez, err := ec.ExtrapolateDual(z, bcs)
		require.NoError(t, err)
		v0, err := Ez.Eval([]float64{0})
		require.NoError(t, err)
		assert.InDelta(t, 1., v0[0], 1.e-12)
		assert.InDelta(t, 0., v0[1], 1.e-12)
		v1, err := Ez.Eval([]float64{1})
		require.NoError(t, err)
		assert.InDelta(t, 1., v1[0], 1.e-12)
		assert.InDelta(t, 1., v1[1], 1.e-12)
	}
	{ // nested component path [0 1]
		V := FE1D.NewFunctionSpace(mesh, FE1D.NewMixed(FE1D.NewVectorElement(FE1D.CG(1), 2), FE1D.CG(1)))
		E := FE1D.NewFunctionSpace(mesh, FE1D.NewMixed(FE1D.NewVectorElement(FE1D.CG(2), 2), FE1D.CG(2)))
		ec := &ErrorControl{E: E, opts: Options{Extrapolator: fem.PatchExtrapolator{}}, log: zap.NewNop()}
		z := fem.NewFunction(V)
		one(z)
		bcs := []*fem.DirichletBC{
			fem.NewDirichletBC(V.Sub(0).Sub(1), nil, right),
			fem.NewDirichletBC(V.Sub(1), nil, left),
		}
		Ez, err := ec.ExtrapolateDual(z, bcs)
		require.NoError(t, err)
		v0, err := Ez.Eval([]float64{0})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1, 0}, v0, 1.e-12)
		v1, err := Ez.Eval([]float64{1})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 0, 1}, v1, 1.e-12)
		vm, err := Ez.Eval([]float64{0.5})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1, 1}, vm, 1.e-12)
	}
	{ // a component path the extrapolation space does not have
		V := FE1D.NewFunctionSpace(mesh, FE1D.NewVectorElement(FE1D.CG(1), 2))
		E := FE1D.NewFunctionSpace(mesh, FE1D.CG(2))
		ec := &ErrorControl{E: E, opts: Options{Extrapolator: stubExtrapolator{}}, log: zap.NewNop()}
		_, err := ec.ExtrapolateDual(fem.NewFunction(V), []*fem.DirichletBC{fem.NewDirichletBC(V.Sub(1), nil, left)})
		assert.ErrorIs(t, err, ErrConfiguration)
	}
}

type stubExtrapolator struct{}

func (stubExtrapolator) Extrapolate(dst, src *fem.Function) error { return nil }

type recordingSolver struct {
	a, L fem.BoundForm
	bcs  []*fem.DirichletBC
}

func (s *recordingSolver) Solve(a, L fem.BoundForm, bcs []*fem.DirichletBC) (*fem.Function, error) {
	s.a, s.L, s.bcs = a, L, bcs
	return fem.NewFunction(a.Form.Space(1)), nil
}

func TestSolveDualLinearization(t *testing.T) {
	var (
		mesh  = FE1D.UniformMesh(0, 1, 4)
		forms = stubForms(t, mesh, FE1D.NewFunctionSpace(mesh, FE1D.DG(2)))
		V     = forms.AStar.Form.Space(1)
		u     = fem.NewFunction(V, "u_h")
		rec   = &recordingSolver{}
		bc    = fem.NewDirichletBC(V, fem.ScalarExpression(func(x []float64) float64 { return 3 }),
			mesh.BoundaryMarkers(nil))
	)
	// a nonlinear dual operator depends on the primal solution
	aStar, err := fem.NewTemplate(&stubForm{name: "a_star", mesh: mesh, spaces: []*fem.FunctionSpace{V, V},
		slots: []fem.Slot{{Name: SlotPrimal, Kind: fem.FunctionKind, Space: V}}}, nil)
	require.NoError(t, err)
	forms.AStar = aStar
	ec := &ErrorControl{forms: forms, opts: Options{Solver: rec}, log: zap.NewNop()}
	z, err := ec.SolveDual(u, []*fem.DirichletBC{bc})
	require.NoError(t, err)
	assert.Equal(t, "z_h", z.Name)
	require.Contains(t, rec.a.Coefficients, SlotPrimal)
	assert.Same(t, u, rec.a.Coefficients[SlotPrimal].Function)
	assert.NotContains(t, rec.L.Coefficients, SlotPrimal)
	require.Len(t, rec.bcs, 1)
	assert.True(t, rec.bcs[0].IsHomogeneous())
	assert.Equal(t, bc.Markers, rec.bcs[0].Markers)
	assert.False(t, bc.IsHomogeneous())

	// a preset primal is left alone
	aStar, err = fem.NewTemplate(aStar.Form, fem.Coefficients{SlotPrimal: fem.Func(u.Copy())})
	require.NoError(t, err)
	ec.forms.AStar = aStar
	_, err = ec.SolveDual(u, nil)
	require.NoError(t, err)
	assert.NotSame(t, u, rec.a.Coefficients[SlotPrimal].Function)
}
