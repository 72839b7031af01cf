package fem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PatchExtrapolator lifts a function into a richer space. On every cell the
// richer basis is fitted in the least squares sense to the nodal values of
// the source over the cell and its facet neighbors; the cell fits are then
// averaged on shared dofs. Mixed spaces are treated one scalar leaf at a
// time.
type PatchExtrapolator struct{}

func (PatchExtrapolator) Extrapolate(dst, src *Function) (err error) {
	var (
		E, V   = dst.Space, src.Space
		counts = make([]int, E.Dim())
	)
	if E.Mesh != V.Mesh {
		return fmt.Errorf("%w: extrapolation between different meshes", ErrShape)
	}
	dst.Zero()
	if err = extrapolateTree(E, V, dst, src, counts); err != nil {
		return
	}
	for i, n := range counts {
		if n > 0 {
			dst.Vector.DataP[i] /= float64(n)
		}
	}
	return
}

func extrapolateTree(E, V *FunctionSpace, dst, src *Function, counts []int) (err error) {
	if E.NumSubSpaces() != V.NumSubSpaces() {
		return fmt.Errorf("%w: cannot extrapolate %v into %v", ErrShape, V, E)
	}
	if E.NumSubSpaces() == 0 {
		if E.valueSize() != 1 || V.valueSize() != 1 {
			return fmt.Errorf("%w: non scalar leaf %v -> %v", ErrShape, V, E)
		}
		return extrapolateLeaf(E, V, dst, src, counts)
	}
	for i := 0; i < E.NumSubSpaces(); i++ {
		if err = extrapolateTree(E.Sub(i), V.Sub(i), dst, src, counts); err != nil {
			return
		}
	}
	return
}

func extrapolateLeaf(E, V *FunctionSpace, dst, src *Function, counts []int) (err error) {
	var (
		mesh  = V.Mesh
		Ne    = E.Element.SpaceDimension()
		pts   = V.Element.DofPoints()
		basis = make([]float64, Ne)
	)
	for k := 0; k < mesh.NumCells(); k++ {
		var (
			cell    = mesh.Cell(k)
			seen    = make(map[int]bool)
			inPatch = map[int]bool{k: true}
			rows    [][]float64
			values  []float64
			ring    = []int{k}
		)
		// the patch is the cell and its facet neighbors, grown by further
		// rings of neighbors while the fit is underdetermined
		for depth := 0; len(ring) != 0 && (depth < 2 || len(rows) < Ne); depth++ {
			var next []int
			for _, p := range ring {
				cellP := mesh.Cell(p)
				for i, dof := range V.DofMap.CellDofs(p) {
					if seen[dof] {
						continue
					}
					seen[dof] = true
					var r []float64
					if r, err = cell.PullBack(cellP.PushForward(pts[i].X)); err != nil {
						return
					}
					rows = append(rows, r)
					values = append(values, src.Vector.DataP[dof])
				}
				for _, nbr := range mesh.CellNeighbors(p) {
					if nbr >= 0 && !inPatch[nbr] {
						inPatch[nbr] = true
						next = append(next, nbr)
					}
				}
			}
			ring = next
		}
		if len(rows) < Ne {
			return fmt.Errorf("%w: the mesh around cell %d has %d points for %d unknowns",
				ErrExtrapolation, k, len(rows), Ne)
		}
		M := mat.NewDense(len(rows), Ne, nil)
		for p, r := range rows {
			E.Element.Tabulate(r, basis)
			M.SetRow(p, basis)
		}
		var c mat.VecDense
		if err = c.SolveVec(M, mat.NewVecDense(len(values), values)); err != nil {
			return fmt.Errorf("%w: cell %d: %v", ErrExtrapolation, k, err)
		}
		for j, dof := range E.DofMap.CellDofs(k) {
			dst.Vector.DataP[dof] += c.AtVec(j)
			counts[dof]++
		}
	}
	return
}

// CheckExtrapolation reports ErrExtrapolation when the mesh, grown to its
// full extent, holds too few source dofs to determine a fit in E, such as a
// single cell
func (PatchExtrapolator) CheckExtrapolation(E, V *FunctionSpace) error {
	if E.NumSubSpaces() != V.NumSubSpaces() {
		return fmt.Errorf("%w: cannot extrapolate %v into %v", ErrShape, V, E)
	}
	for i := 0; i < E.NumSubSpaces(); i++ {
		if err := (PatchExtrapolator{}).CheckExtrapolation(E.Sub(i), V.Sub(i)); err != nil {
			return err
		}
	}
	if E.NumSubSpaces() != 0 {
		return nil
	}
	if Nv, Ne := len(V.DofMap.Dofs()), E.Element.SpaceDimension(); Nv < Ne {
		return fmt.Errorf("%w: %v has %d dofs on the whole mesh, a fit in %v needs %d",
			ErrExtrapolation, V, Nv, E, Ne)
	}
	return nil
}
