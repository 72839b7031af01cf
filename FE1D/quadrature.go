package FE1D

// Quadrature is a rule on the reference interval [-1,1]
type Quadrature struct {
	R, W []float64
}

// GaussQuadrature is exact for polynomials of degree 2n-1
func GaussQuadrature(n int) Quadrature {
	R, W := JacobiGQ(0, 0, n-1)
	return Quadrature{R: R.DataP, W: W.DataP}
}

// Integrate applies the rule to f on the reference interval
func (q Quadrature) Integrate(f func(r float64) float64) (sum float64) {
	for i, r := range q.R {
		sum += q.W[i] * f(r)
	}
	return
}
