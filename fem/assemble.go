package fem

import (
	"fmt"

	"github.com/notargets/godwr/utils"
)

func checkRank(b BoundForm, rank int) error {
	if b.Form.Rank() != rank {
		return fmt.Errorf("%w: form %q has rank %d, want %d", ErrShape, b.Form.Name(), b.Form.Rank(), rank)
	}
	return nil
}

// AssembleScalar sums the cell contributions of a functional
func AssembleScalar(b BoundForm, dom *Domains) (sum float64, err error) {
	var (
		mesh = b.Form.Mesh()
		A    = make([]float64, 1)
	)
	if err = checkRank(b, 0); err != nil {
		return
	}
	for k := 0; k < mesh.NumCells(); k++ {
		if err = b.LocalTensor(mesh.Cell(k), dom, A); err != nil {
			return
		}
		sum += A[0]
	}
	return
}

// AssembleVector assembles a linear form into a vector over its test space
func AssembleVector(b BoundForm, dom *Domains) (R utils.Vector, err error) {
	var (
		mesh = b.Form.Mesh()
		V    = b.Form.Space(0)
		A    = make([]float64, TensorSize(b.Form))
	)
	if err = checkRank(b, 1); err != nil {
		return
	}
	R = utils.NewVector(V.Dim())
	for k := 0; k < mesh.NumCells(); k++ {
		if err = b.LocalTensor(mesh.Cell(k), dom, A); err != nil {
			return
		}
		for i, dof := range V.DofMap.CellDofs(k) {
			R.DataP[dof] += A[i]
		}
	}
	return
}

// AssembleMatrix assembles a bilinear form into a sparse matrix
func AssembleMatrix(b BoundForm, dom *Domains) (R utils.CSR, err error) {
	var (
		mesh = b.Form.Mesh()
		V, W = b.Form.Space(0), b.Form.Space(1)
		A    = make([]float64, TensorSize(b.Form))
		M    = utils.NewDOK(V.Dim(), W.Dim())
	)
	if err = checkRank(b, 2); err != nil {
		return
	}
	for k := 0; k < mesh.NumCells(); k++ {
		if err = b.LocalTensor(mesh.Cell(k), dom, A); err != nil {
			return
		}
		M.AddLocal(V.DofMap.CellDofs(k), W.DofMap.CellDofs(k), A)
	}
	R = M.ToCSR()
	return
}
