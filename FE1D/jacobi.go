package FE1D

import (
	"math"

	"github.com/notargets/godwr/utils"
	"gonum.org/v1/gonum/mat"
)

// JacobiGL returns the N+1 Gauss-Lobatto nodes of the Jacobi weight
func JacobiGL(alpha, beta float64, N int) (X utils.Vector) {
	var (
		x = make([]float64, N+1)
	)
	x[0], x[N] = -1, 1
	if N == 1 {
		return utils.NewVector(N+1, x)
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(x[1:N], xint.DataP)
	return utils.NewVector(N+1, x)
}

// JacobiGQ returns the N+1 Gauss nodes and weights of the Jacobi weight
func JacobiGQ(alpha, beta float64, N int) (X, W utils.Vector) {
	var (
		h1 = make([]float64, N+1)
		JJ = mat.NewSymDense(N+1, nil)
	)
	if N == 0 {
		X = utils.NewVector(1, []float64{-(alpha - beta) / (alpha + beta + 2.)})
		W = utils.NewVector(1, []float64{2.})
		return
	}
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}
	// Golub-Welsch: the nodes are the eigenvalues of the Jacobi matrix
	fac := -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, fac/(h1[i]*(h1[i]+2.)))
	}
	if alpha+beta < 10*1.e-16 {
		JJ.SetSym(0, 0, 0)
	}
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1 := 2. / (val + 2.) * math.Sqrt(ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/((val+1.)*(val+3.)))
		JJ.SetSym(i, i+1, d1)
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = utils.NewVector(N+1, eig.Values(nil))
	var VVr mat.Dense
	eig.VectorsTo(&VVr)
	W = utils.NewVector(N+1, VVr.RawRowView(0)).POW(2).Scale(gamma0(alpha, beta))
	return
}

// JacobiP evaluates the orthonormal Jacobi polynomial of order N at r
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc   = len(r)
		ab   = alpha + beta
		pOld = utils.ConstArray(Nc, 1./math.Sqrt(gamma0(alpha, beta)))
	)
	if N == 0 {
		return pOld
	}
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	p = make([]float64, Nc)
	for i, ri := range r {
		p[i] = rg1 * ((ab+2.0)*ri/2.0 + (alpha-beta)/2.0)
	}
	var (
		a1, b1 = alpha + 1., beta + 1.
		ab1    = ab + 1.
		aold   = 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		pNew := make([]float64, Nc)
		for j, rj := range r {
			pNew[j] = (-aold*pOld[j] + (rj-bnew)*p[j]) / anew
		}
		pOld, p = p, pNew
		aold = anew
	}
	return
}

func GradJacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		return make([]float64, len(r))
	}
	p = JacobiP(r, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i := range p {
		p[i] *= fac
	}
	return
}

func Vandermonde1D(N int, R utils.Vector) (V utils.Matrix) {
	V = utils.NewMatrix(R.Len(), N+1)
	for j := 0; j < N+1; j++ {
		V.SetCol(j, JacobiP(R.DataP, 0, 0, j))
	}
	return
}

func GradVandermonde1D(r utils.Vector, N int) (Vr utils.Matrix) {
	Vr = utils.NewMatrix(r.Len(), N+1)
	for i := 0; i < N+1; i++ {
		Vr.SetCol(i, GradJacobiP(r.DataP, 0, 0, i))
	}
	return
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}
