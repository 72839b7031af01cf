package FE1D

import (
	"github.com/notargets/godwr/fem"
)

// NewFunctionSpace numbers the dofs of el on m. Continuous Lagrange dofs on
// vertices come first, followed by the cell interior dofs; every other
// element is numbered cell by cell. Sub elements of a mixed element are
// numbered one after another.
func NewFunctionSpace(m *Mesh, el fem.FiniteElement) *fem.FunctionSpace {
	t, global := numberDofs(m, el, 0)
	return fem.NewFunctionSpace(m, el, t.build(global))
}

type dofTree struct {
	cellDofs [][]int
	subs     []*dofTree
}

func (t *dofTree) build(global int) *fem.DofMap {
	subs := make([]*fem.DofMap, len(t.subs))
	for i, s := range t.subs {
		subs[i] = s.build(global)
	}
	return fem.NewDofMap(t.cellDofs, global, subs...)
}

func numberDofs(m *Mesh, el fem.FiniteElement, offset int) (t *dofTree, next int) {
	var (
		K = m.NumCells()
		N = el.SpaceDimension()
	)
	t = &dofTree{cellDofs: make([][]int, K)}
	if el.NumSubElements() != 0 {
		next = offset
		for i := 0; i < el.NumSubElements(); i++ {
			var sub *dofTree
			sub, next = numberDofs(m, el.SubElement(i), next)
			t.subs = append(t.subs, sub)
			for k := range t.cellDofs {
				t.cellDofs[k] = append(t.cellDofs[k], sub.cellDofs[k]...)
			}
		}
		return
	}
	if lg, ok := el.(*Lagrange); ok && !lg.Discontinuous {
		var (
			P  = lg.P
			Nv = m.NumVertices()
		)
		for k, ev := range m.EToV {
			dofs := make([]int, N)
			dofs[0], dofs[P] = offset+ev[0], offset+ev[1]
			for j := 1; j < P; j++ {
				dofs[j] = offset + Nv + k*(P-1) + j - 1
			}
			t.cellDofs[k] = dofs
		}
		next = offset + Nv + K*(P-1)
		return
	}
	for k := range t.cellDofs {
		dofs := make([]int, N)
		for i := range dofs {
			dofs[i] = offset + k*N + i
		}
		t.cellDofs[k] = dofs
	}
	next = offset + K*N
	return
}
