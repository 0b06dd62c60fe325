package rhs

import (
	"testing"

	"github.com/notargets/SEKernel/element"
	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	p := NewPool(2)
	assert.Equal(t, 2, p.Size())
	a, b := p.Get(), p.Get()
	assert.NotSame(t, a, b)
	p.Put(a)
	assert.Same(t, a, p.Get())
	p.Put(a)
	p.Put(b)
	assert.Panics(t, func() { p.Put(new(Scratch)) })
	assert.Panics(t, func() { NewPool(0) })
}

func TestForkJoinTeamVisitsEveryLevel(t *testing.T) {
	for _, w := range []int{0, 1, 3, 8, element.NumLevP, 100} {
		var hits [element.NumLevP]int
		ForkJoinTeam{Width: w}.ForLevels(element.NumLevP, func(l int) { hits[l]++ })
		for l, h := range hits {
			assert.Equal(t, 1, h, "width %d level %d", w, l)
		}
	}
}

func TestVerticalAdvection(t *testing.T) {
	var (
		tt, rpdel, tVadv element.Scalar3D
		v, vVadv         element.Vector3D
		eta              element.Interface3D
	)
	for l := 0; l < element.NumLev; l++ {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				tt[l][i][j] = 2 * float64(l)
				v[l][0][i][j] = float64(l)
				v[l][1][i][j] = -float64(l)
				rpdel[l][i][j] = 0.5
			}
		}
	}
	for l := range eta {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				eta[l][i][j] = 4
			}
		}
	}
	VerticalAdvection(&tt, &v, &eta, &rpdel, &tVadv, &vVadv)

	// fac = 0.5*0.5*4 = 1 on each side of a level
	assert.Equal(t, 2., tVadv[0][1][1])
	assert.Equal(t, 4., tVadv[10][1][1])
	assert.Equal(t, 2., tVadv[element.NumLev-1][1][1])
	assert.Equal(t, 2., vVadv[10][0][3][0])
	assert.Equal(t, -1., vVadv[element.NumLev-1][1][3][0])
}
