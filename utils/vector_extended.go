package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V     *mat.VecDense
	DataP []float64
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var (
		data []float64
	)
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			panic(fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v", n, len(dataO[0])))
		}
		data = dataO[0]
	} else {
		data = make([]float64, n)
	}
	R = Vector{
		V:     mat.NewVecDense(n, data),
		DataP: data,
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.DataP[i] }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return len(v.DataP) }

// Chainable (extended) methods
func (v Vector) Set(val float64) Vector {
	for i := range v.DataP {
		v.DataP[i] = val
	}
	return v
}

func (v Vector) SetAt(i int, val float64) Vector {
	v.DataP[i] = val
	return v
}

func (v Vector) Copy() (R Vector) {
	data := make([]float64, len(v.DataP))
	copy(data, v.DataP)
	return NewVector(len(data), data)
}

func (v Vector) Sub(a Vector) Vector { floats.Sub(v.DataP, a.DataP); return v }

func (v Vector) AddVec(a Vector) Vector { floats.Add(v.DataP, a.DataP); return v }

func (v Vector) Add(a float64) Vector {
	floats.AddConst(a, v.DataP)
	return v
}

func (v Vector) Scale(a float64) Vector {
	floats.Scale(a, v.DataP)
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	for i, val := range v.DataP {
		v.DataP[i] = f(val)
	}
	return v
}

func (v Vector) Abs() Vector { return v.Apply(math.Abs) }

func (v Vector) POW(p int) Vector {
	for i, val := range v.DataP {
		v.DataP[i] = POW(val, p)
	}
	return v
}

func (v Vector) Sum() float64 { return floats.Sum(v.DataP) }

func (v Vector) Dot(a Vector) float64 { return floats.Dot(v.DataP, a.DataP) }

func (v Vector) Norm(L float64) float64 { return floats.Norm(v.DataP, L) }

func (v Vector) Min() float64 { return floats.Min(v.DataP) }

func (v Vector) Max() float64 { return floats.Max(v.DataP) }

// Subset gathers the entries at I into a new vector
func (v Vector) Subset(I []int) (R Vector) {
	R = NewVector(len(I))
	for i, ind := range I {
		R.DataP[i] = v.DataP[ind]
	}
	return
}

// Scatter writes vals into the entries at I
func (v Vector) Scatter(vals []float64, I []int) Vector {
	if len(vals) != len(I) {
		panic(fmt.Errorf("length of index and values are not equal: len(I) = %v, len(Val) = %v", len(I), len(vals)))
	}
	for i, ind := range I {
		v.DataP[ind] = vals[i]
	}
	return v
}
