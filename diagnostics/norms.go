// Package diagnostics reports and persists the future time level of a state
// store: L2 norms, plain-text dumps and a YAML summary.
package diagnostics

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
	"gonum.org/v1/gonum/floats"
)

type Norms struct {
	U    float64 `yaml:"u"`
	V    float64 `yaml:"v"`
	T    float64 `yaml:"t"`
	DP3D float64 `yaml:"dp3d"`
}

// Velocity is the combined L2 norm of both wind components.
func (n Norms) Velocity() float64 { return math.Hypot(n.U, n.V) }

// RelativeDiff returns the largest relative difference between two sets of
// norms.
func (n Norms) RelativeDiff(o Norms) float64 {
	a := []float64{n.U, n.V, n.T, n.DP3D}
	b := []float64{o.U, o.V, o.T, o.DP3D}
	var worst float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if s := math.Max(math.Abs(a[i]), math.Abs(b[i])); s > 0 {
			d /= s
		}
		worst = math.Max(worst, d)
	}
	return worst
}

// kahan is a compensated running sum.
type kahan struct{ sum, c float64 }

func (k *kahan) add(v float64) {
	y := v - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

func (k *kahan) addSquares(f *element.Scalar3D) {
	for l := range f {
		for i := range f[l] {
			row := f[l][i][:]
			k.add(floats.Dot(row, row))
		}
	}
}

// ComputeNorms sums squared values over elements [nets, nete) of time level
// tl and returns their square roots.
func ComputeNorms(s *state.Store, nets, nete, tl int) Norms {
	var u, v, t, dp kahan
	for ie := nets; ie < nete; ie++ {
		el := s.Element(ie)
		u.addSquares(&el.U[tl])
		v.addSquares(&el.V[tl])
		t.addSquares(&el.T[tl])
		dp.addSquares(&el.DP3D[tl])
	}
	return Norms{
		U:    math.Sqrt(u.sum),
		V:    math.Sqrt(v.sum),
		T:    math.Sqrt(t.sum),
		DP3D: math.Sqrt(dp.sum),
	}
}

// Print writes the norm block as three indented lines under "---> Norms:".
func (n Norms) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "   ---> Norms:\n"+
		"          ||v||_2  = %.15g\n"+
		"          ||T||_2  = %.15g\n"+
		"          ||dp||_2 = %.15g\n", n.Velocity(), n.T, n.DP3D)
	return err
}
