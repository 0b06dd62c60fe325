package gll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestNewRule(t *testing.T) {
	t.Run("NP4 points and weights", func(t *testing.T) {
		r, err := NewRule(4)
		require.NoError(t, err)
		s5 := 1 / math.Sqrt(5)
		want := []float64{-1, -s5, s5, 1}
		for i := range want {
			assert.InDelta(t, want[i], r.Points[i], 1e-13)
		}
		wantW := []float64{1. / 6., 5. / 6., 5. / 6., 1. / 6.}
		for i := range wantW {
			assert.InDelta(t, wantW[i], r.Weights[i], 1e-13)
		}
	})

	t.Run("weights integrate polynomials exactly", func(t *testing.T) {
		for np := 2; np <= 8; np++ {
			r, err := NewRule(np)
			require.NoError(t, err)
			// GLL with np points is exact through degree 2np-3
			for deg := 0; deg <= 2*np-3; deg++ {
				f := make([]float64, np)
				for i, x := range r.Points {
					f[i] = math.Pow(x, float64(deg))
				}
				exact := 0.
				if deg%2 == 0 {
					exact = 2. / float64(deg+1)
				}
				assert.InDelta(t, exact, floats.Dot(f, r.Weights), 1e-12,
					"np=%d deg=%d", np, deg)
			}
		}
	})

	t.Run("rejects degenerate size", func(t *testing.T) {
		_, err := NewRule(1)
		assert.Error(t, err)
	})
}

func TestLagrangeDerivative(t *testing.T) {
	r, err := NewRule(4)
	require.NoError(t, err)
	// exact for polynomials up to degree np-1
	for deg := 0; deg < r.Np; deg++ {
		for i, xi := range r.Points {
			var d float64
			for k, xk := range r.Points {
				d += r.D.At(i, k) * math.Pow(xk, float64(deg))
			}
			want := 0.
			if deg > 0 {
				want = float64(deg) * math.Pow(xi, float64(deg-1))
			}
			assert.InDelta(t, want, d, 1e-12, "deg=%d i=%d", deg, i)
		}
	}
}

func TestLegendre(t *testing.T) {
	x := 0.3
	assert.InDelta(t, 0.5*(3*x*x-1), Legendre(2, x), 1e-15)
	assert.InDelta(t, 0.5*(5*x*x*x-3*x), Legendre(3, x), 1e-15)
	assert.Equal(t, 1., Legendre(0, x))
}
