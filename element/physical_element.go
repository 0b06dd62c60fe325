package element

import (
	"fmt"
	"math"
)

// Metric holds the time-invariant geometry of one element. D maps reference
// (ξ,η) derivatives to the local east/north frame, DInv is its inverse.
type Metric struct {
	D        Tensor2D
	DInv     Tensor2D
	MetDet   Scalar2D
	SpheRemp Scalar2D
	Fcor     Scalar2D
	Phis     Scalar2D
}

// Identity sets a flat, unit metric with unit mass weights and no rotation.
func (m *Metric) Identity() {
	*m = Metric{}
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			m.D[0][0][i][j], m.D[1][1][i][j] = 1, 1
			m.DInv[0][0][i][j], m.DInv[1][1][i][j] = 1, 1
			m.MetDet[i][j] = 1
			m.SpheRemp[i][j] = 1
		}
	}
}

// SetD stores D and derives DInv, MetDet and the mass matrix from it.
func (m *Metric) SetD(d Tensor2D, ref *Reference) error {
	m.D = d
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			a, b := d[0][0][i][j], d[0][1][i][j]
			c, e := d[1][0][i][j], d[1][1][i][j]
			det := a*e - b*c
			if det == 0 || math.IsNaN(det) {
				return fmt.Errorf("singular metric at point (%d,%d): det=%g", i, j, det)
			}
			m.MetDet[i][j] = det
			m.DInv[0][0][i][j] = e / det
			m.DInv[0][1][i][j] = -b / det
			m.DInv[1][0][i][j] = -c / det
			m.DInv[1][1][i][j] = a / det
			m.SpheRemp[i][j] = ref.MassWeight(i, j) * det
		}
	}
	return nil
}
