// Package gll builds the one-dimensional Gauss-Lobatto-Legendre collocation
// rule used along each edge of a spectral element.
package gll

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Rule holds the GLL points on [-1,1], their quadrature weights and the
// collocation derivative matrix. D.At(i, k) is the derivative of the k'th
// Lagrange cardinal function evaluated at point i.
type Rule struct {
	Np      int
	Points  []float64
	Weights []float64
	D       *mat.Dense
}

func NewRule(np int) (*Rule, error) {
	if np < 2 {
		return nil, fmt.Errorf("gll rule needs at least 2 points, got %d", np)
	}
	N := np - 1
	x := JacobiGL(0, 0, N)

	w := make([]float64, np)
	nn := float64(N * (N + 1))
	for i, xi := range x {
		p := Legendre(N, xi)
		w[i] = 2. / (nn * p * p)
	}

	return &Rule{
		Np:      np,
		Points:  x,
		Weights: w,
		D:       LagrangeDerivative(x),
	}, nil
}

// Legendre evaluates P_n(x) with the three term recurrence.
func Legendre(n int, x float64) float64 {
	if n == 0 {
		return 1
	}
	pm1, p := 1., x
	for k := 1; k < n; k++ {
		kf := float64(k)
		pm1, p = p, ((2*kf+1)*x*p-kf*pm1)/(kf+1)
	}
	return p
}

// LagrangeDerivative returns the derivative matrix of the Lagrange basis on
// nodes x, computed with barycentric weights.
func LagrangeDerivative(x []float64) *mat.Dense {
	n := len(x)
	bw := make([]float64, n)
	for k := range x {
		bw[k] = 1
		for m := range x {
			if m != k {
				bw[k] *= x[k] - x[m]
			}
		}
		bw[k] = 1 / bw[k]
	}

	D := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		var diag float64
		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			v := (bw[k] / bw[i]) / (x[i] - x[k])
			D.Set(i, k, v)
			diag -= v
		}
		// negative row sum keeps derivatives of constants exactly zero
		D.Set(i, i, diag)
	}
	return D
}
