package mesh

import (
	"math"
	"testing"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFacesRightHanded(t *testing.T) {
	for _, fc := range faces {
		assert.Equal(t, 1., r3.Norm(fc.n), fc.name)
		assert.Zero(t, r3.Dot(fc.a, fc.b), fc.name)
		assert.Equal(t, 1., r3.Dot(r3.Cross(fc.a, fc.b), fc.n), fc.name)
	}
}

func TestCubedSphereGeometry(t *testing.T) {
	cs, err := NewCubedSphere(4)
	require.NoError(t, err)
	assert.Equal(t, 96, cs.NumElems())
	assert.InEpsilon(t, 4*math.Pi, cs.Area(), 1e-4)

	for ie := range cs.Metrics {
		m := &cs.Metrics[ie]
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				require.Greater(t, m.MetDet[i][j], 0., "element %d (%d,%d)", ie, i, j)
				assert.InDelta(t, 2*Omega*math.Sin(cs.Lat[ie][i][j]), m.Fcor[i][j], 1e-18)
			}
		}
	}
	assert.Contains(t, cs.String(), "elements: 96")
}

func TestCubedSphereGradient(t *testing.T) {
	cs, err := NewCubedSphere(8)
	require.NoError(t, err)
	op := element.NewOperators(element.GetReference(), 1)

	// sin(lat) has gradient (0, cos(lat)) on the unit sphere
	var worst float64
	for ie := range cs.Metrics {
		var s element.Scalar2D
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				s[i][j] = math.Sin(cs.Lat[ie][i][j])
			}
		}
		var g element.Vector2D
		op.Gradient(&s, &cs.Metrics[ie].DInv, &g)
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				worst = math.Max(worst, math.Abs(g[0][i][j]))
				worst = math.Max(worst, math.Abs(g[1][i][j]-math.Cos(cs.Lat[ie][i][j])))
			}
		}
	}
	assert.Less(t, worst, 1e-2)
}

func TestCubedSphereApply(t *testing.T) {
	cs, err := NewCubedSphere(1)
	require.NoError(t, err)
	s := state.NewStore(6)
	require.NoError(t, cs.Apply(s))
	assert.Equal(t, cs.Metrics[3], s.Element(3).Metric)
	assert.Error(t, cs.Apply(state.NewStore(5)))

	_, err = NewCubedSphere(0)
	assert.Error(t, err)
}
