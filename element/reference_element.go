package element

import (
	"sync"

	"github.com/notargets/SEKernel/element/gll"
	"gonum.org/v1/gonum/mat"
)

// Reference is the NP x NP tensor-product GLL reference quadrilateral on
// [-1,1]^2. Point (i,j) sits at ξ = Points[j], η = Points[i].
type Reference struct {
	Points  [NP]float64
	Weights [NP]float64
	Dvv     [NP][NP]float64
	DvvMat  *mat.Dense
}

var (
	refOnce sync.Once
	ref     *Reference
)

// GetReference returns the shared reference element.
func GetReference() *Reference {
	refOnce.Do(func() {
		rule, err := gll.NewRule(NP)
		if err != nil {
			panic(err)
		}
		r := &Reference{DvvMat: rule.D}
		for i := 0; i < NP; i++ {
			r.Points[i] = rule.Points[i]
			r.Weights[i] = rule.Weights[i]
			for k := 0; k < NP; k++ {
				r.Dvv[i][k] = rule.D.At(i, k)
			}
		}
		ref = r
	})
	return ref
}

// MassWeight is the tensor-product quadrature weight at point (i,j).
func (r *Reference) MassWeight(i, j int) float64 {
	return r.Weights[i] * r.Weights[j]
}
