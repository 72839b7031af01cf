package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly format: entries are accumulated with Add, then the
// matrix is compressed with ToCSR for solution
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// Add accumulates val into entry (i,j)
func (m DOK) Add(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	if val == 0 {
		return m
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

// AddLocal scatters a row major local block A[len(rows)][len(cols)] into the matrix
func (m DOK) AddLocal(rows, cols []int, A []float64) DOK { // Changes receiver
	if len(A) != len(rows)*len(cols) {
		panic(fmt.Errorf("local block size mismatch: %d rows x %d cols, len(A) = %d",
			len(rows), len(cols), len(A)))
	}
	for i, gi := range rows {
		for j, gj := range cols {
			m.Add(gi, gj, A[i*len(cols)+j])
		}
	}
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) Data() []float64 {
	return m.RawMatrix().Data
}

// MulVec computes R = M x
func (m CSR) MulVec(x Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if x.Len() != nc {
		panic(fmt.Errorf("dimension mismatch: matrix is %dx%d, vector has length %d", nr, nc, x.Len()))
	}
	R = NewVector(nr)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.DataP[i] += v * x.DataP[j]
	})
	return
}

// ToDense expands the compressed matrix for use with the dense factorizations
func (m CSR) ToDense() Matrix {
	var (
		nr, nc = m.Dims()
		R      = NewMatrix(nr, nc)
	)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.M.Set(i, j, v)
	})
	return R
}
