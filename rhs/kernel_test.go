package rhs

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/initial"
	"github.com/notargets/SEKernel/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAll(f *element.Scalar3D, v float64) {
	for l := range f {
		for i := range f[l] {
			for j := range f[l][i] {
				f[l][i][j] = v
			}
		}
	}
}

// columnElement has an identity metric, uniform temperature and pressure
// thickness, and a wind that is linear in ξ.
func columnElement(ctl *control.Control, dp float64) *state.Element {
	el := new(state.Element)
	el.Metric.Identity()
	ref := element.GetReference()
	for tl := 0; tl < element.NumTimeLevels; tl++ {
		setAll(&el.DP3D[tl], dp)
		setAll(&el.T[tl], 270)
		for l := 0; l < element.NumLev; l++ {
			for i := 0; i < element.NP; i++ {
				for j := 0; j < element.NP; j++ {
					el.U[tl][l][i][j] = ref.Points[j]
				}
			}
		}
	}
	return el
}

func unitControl() control.Control {
	ctl := control.Default()
	ctl.RRearth = 1
	ctl.NumElems = 1
	return ctl
}

func randomElement(t *testing.T, seed uint64) *state.Element {
	s := state.NewStore(1)
	require.NoError(t, initial.NewGenerator(seed).Fill(s))
	return s.Element(0)
}

func TestPressureScan(t *testing.T) {
	ctl := unitControl()
	k := NewKernel(&ctl)
	el := columnElement(&ctl, 2)
	var sc Scratch
	require.NoError(t, k.Evaluate(0, el, &sc, SerialTeam{}))
	for l := 0; l < element.NumLev; l++ {
		want := ctl.HybridA0*ctl.Ps0 + 2*(float64(l)+0.5)
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				assert.InDelta(t, want, sc.Pressure[l][i][j], 1e-10)
			}
		}
	}
}

func TestHydrostaticScan(t *testing.T) {
	ctl := unitControl()
	k := NewKernel(&ctl)
	el := columnElement(&ctl, 800)
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			el.Metric.Phis[i][j] = 12
		}
	}
	var sc Scratch
	require.NoError(t, k.Evaluate(0, el, &sc, SerialTeam{}))

	for l := 0; l < element.NumLev; l++ {
		want := 12 + 0.5*ctl.Rgas*270*800/sc.Pressure[l][0][0]
		for m := l + 1; m < element.NumLev; m++ {
			want += ctl.Rgas * 270 * 800 / sc.Pressure[m][0][0]
		}
		assert.InEpsilon(t, want, el.Phi[l][2][1], 1e-13, "level %d", l)
	}
}

func TestOmegaPrefixSum(t *testing.T) {
	ctl := unitControl()
	k := NewKernel(&ctl)
	const dp = 3.
	el := columnElement(&ctl, dp)
	seed := el.OmegaPAccum
	var sc Scratch
	require.NoError(t, k.Evaluate(0, el, &sc, SerialTeam{}))

	// horizontally uniform pressure and div(vdp) = dp at every level
	for l := 0; l < element.NumLev; l++ {
		want := -dp * (float64(l) + 0.5) / sc.Pressure[l][1][1]
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				assert.InDelta(t, dp, sc.DivVdp[l][i][j], 1e-11)
				assert.InDelta(t, want, sc.OmegaP[l][i][j], 1e-12)
				assert.Equal(t, seed[l][i][j]+ctl.EtaAveW*sc.OmegaP[l][i][j],
					el.OmegaPAccum[l][i][j])
			}
		}
	}
}

// With no pressure at the model top and dp3d linear in ξ, p is linear in ξ
// on every level while dp3d/p is constant, so the geopotential is flat and
// the pressure gradient terms can be written down exactly.
func TestPressureGradientTerms(t *testing.T) {
	ctl := unitControl()
	ctl.HybridA0 = 0
	k := NewKernel(&ctl)
	const (
		c0   = 10.
		c1   = 2.
		temp = 270.
	)
	windU := func(l int) float64 { return 1 + 0.1*float64(l) }
	windV := func(l int) float64 { return 0.5 - 0.05*float64(l) }

	ref := element.GetReference()
	el := new(state.Element)
	el.Metric.Identity()
	for tl := 0; tl < element.NumTimeLevels; tl++ {
		setAll(&el.T[tl], temp)
		for l := 0; l < element.NumLev; l++ {
			for i := 0; i < element.NP; i++ {
				for j := 0; j < element.NP; j++ {
					el.DP3D[tl][l][i][j] = c0 + c1*ref.Points[j]
					el.U[tl][l][i][j] = windU(l)
					el.V[tl][l][i][j] = windV(l)
				}
			}
		}
	}
	var sc Scratch
	require.NoError(t, k.Evaluate(0, el, &sc, SerialTeam{}))

	const i, j = 1, 2
	dp := c0 + c1*ref.Points[j]
	sumU := 0.
	for l := 0; l < element.NumLev; l++ {
		lev := float64(l) + 0.5
		p := lev * dp
		assert.InEpsilon(t, p, sc.Pressure[l][i][j], 1e-13, "level %d", l)
		assert.InDelta(t, windU(l)*c1, sc.DivVdp[l][i][j], 1e-11, "level %d", l)

		// v.grad(p)/p - (sum of div above)/p - div/(2p)
		omega := c1 * (float64(l)*windU(l) - sumU) / p
		assert.InDelta(t, omega, sc.OmegaP[l][i][j], 1e-12, "level %d", l)
		sumU += windU(l)

		// constant winds carry no vorticity, so only Rgas*Tv/p*grad(p) is left
		vtens1 := -ctl.Rgas * temp * lev * c1 / p
		assert.InEpsilon(t, windU(l)+ctl.Dt2*vtens1, el.U[ctl.Np1][l][i][j], 1e-10, "level %d", l)
		assert.InDelta(t, windV(l), el.V[ctl.Np1][l][i][j], 1e-5, "level %d", l)

		assert.InDelta(t, temp+ctl.Dt2*ctl.Kappa*temp*omega, el.T[ctl.Np1][l][i][j], 1e-7, "level %d", l)
		assert.InDelta(t, dp-ctl.Dt2*windU(l)*c1, el.DP3D[ctl.Np1][l][i][j], 1e-7, "level %d", l)
	}
}

func TestZeroTimeStep(t *testing.T) {
	ctl := unitControl()
	ctl.Dt2 = 0
	ctl.RRearth = element.RRearth
	k := NewKernel(&ctl)

	a := randomElement(t, 11)
	b := new(state.Element)
	*b = *a
	seedUn0, seedOmega := a.DerivedUn0, a.OmegaPAccum

	var sc Scratch
	require.NoError(t, k.Evaluate(0, a, &sc, SerialTeam{}))
	require.NoError(t, k.Evaluate(0, b, &sc, SerialTeam{}))
	assert.Equal(t, a.DerivedUn0, b.DerivedUn0)
	assert.Equal(t, a.DerivedVn0, b.DerivedVn0)
	assert.Equal(t, a.OmegaPAccum, b.OmegaPAccum)
	assert.Equal(t, a.EtaDotDpdn, b.EtaDotDpdn)
	assert.NotEqual(t, seedUn0, a.DerivedUn0)
	assert.NotEqual(t, seedOmega, a.OmegaPAccum)

	for l := 0; l < element.NumLev; l++ {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				w := a.Metric.SpheRemp[i][j]
				assert.Equal(t, w*a.U[ctl.Nm1][l][i][j], a.U[ctl.Np1][l][i][j])
				assert.Equal(t, w*a.T[ctl.Nm1][l][i][j], a.T[ctl.Np1][l][i][j])
				assert.Equal(t, w*a.DP3D[ctl.Nm1][l][i][j], a.DP3D[ctl.Np1][l][i][j])
			}
		}
	}
}

func TestEtaDotDpdnPlaceholder(t *testing.T) {
	ctl := control.Default()
	k := NewKernel(&ctl)
	el := randomElement(t, 5)
	seed := el.EtaDotDpdn
	require.NoError(t, k.Evaluate(0, el, new(Scratch), SerialTeam{}))
	assert.Equal(t, seed, el.EtaDotDpdn)
}

func TestMassMatrixMasking(t *testing.T) {
	ctl := control.Default()
	k := NewKernel(&ctl)
	el := randomElement(t, 3)
	el.Metric.SpheRemp = element.Scalar2D{}
	require.NoError(t, k.Evaluate(0, el, new(Scratch), SerialTeam{}))

	var zero element.Scalar3D
	assert.Equal(t, zero, el.U[ctl.Np1])
	assert.Equal(t, zero, el.V[ctl.Np1])
	assert.Equal(t, zero, el.T[ctl.Np1])
	assert.Equal(t, zero, el.DP3D[ctl.Np1])
}

func TestMoistureSwitch(t *testing.T) {
	dry := control.Default()
	moist := control.Default()
	moist.Qn0 = 1

	a := randomElement(t, 9)
	for q := range a.Qdp {
		for tl := range a.Qdp[q] {
			setAll(&a.Qdp[q][tl], 0)
		}
	}
	b := new(state.Element)
	*b = *a

	require.NoError(t, NewKernel(&dry).Evaluate(0, a, new(Scratch), SerialTeam{}))
	require.NoError(t, NewKernel(&moist).Evaluate(0, b, new(Scratch), SerialTeam{}))
	assert.Equal(t, *a, *b)

	t.Run("nonzero tracer warms the column", func(t *testing.T) {
		c := randomElement(t, 9)
		d := new(state.Element)
		*d = *c
		var sd, sm Scratch
		require.NoError(t, NewKernel(&dry).Evaluate(0, c, &sd, SerialTeam{}))
		require.NoError(t, NewKernel(&moist).Evaluate(0, d, &sm, SerialTeam{}))
		assert.Greater(t, sm.TVirtual[4][1][2], sd.TVirtual[4][1][2])
	})
}

func TestTeamsAgree(t *testing.T) {
	ctl := control.Default()
	k := NewKernel(&ctl)
	a := randomElement(t, 21)
	b := new(state.Element)
	*b = *a
	require.NoError(t, k.Evaluate(0, a, new(Scratch), SerialTeam{}))
	require.NoError(t, k.Evaluate(0, b, new(Scratch), ForkJoinTeam{Width: 5}))
	assert.Equal(t, *a, *b)
}

func TestFaults(t *testing.T) {
	ctl := control.Default()
	k := NewKernel(&ctl)

	t.Run("non-positive thickness", func(t *testing.T) {
		el := randomElement(t, 1)
		el.DP3D[ctl.N0][7][2][3] = -4
		err := k.Evaluate(3, el, new(Scratch), SerialTeam{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNumericalInstability))
		var fe *FaultError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 3, fe.Element)
		assert.Equal(t, PressureScan, fe.Stage)
		assert.Equal(t, "dp3d", fe.Field)
		assert.Equal(t, 7, fe.Level)
		assert.Equal(t, 2, fe.I)
		assert.Equal(t, 3, fe.J)
	})

	t.Run("non-finite temperature", func(t *testing.T) {
		el := randomElement(t, 2)
		el.T[ctl.N0][0][0][0] = math.NaN()
		var fe *FaultError
		require.ErrorAs(t, k.Evaluate(0, el, new(Scratch), SerialTeam{}), &fe)
		assert.Equal(t, TemperatureAndDivergence, fe.Stage)
		assert.Contains(t, fe.Error(), "TEMPERATURE_AND_DIVERGENCE")
	})

	t.Run("future slot untouched on early fault", func(t *testing.T) {
		el := randomElement(t, 4)
		before := el.U[ctl.Np1]
		el.DP3D[ctl.N0][0][0][0] = 0
		require.Error(t, k.Evaluate(0, el, new(Scratch), SerialTeam{}))
		assert.Equal(t, before, el.U[ctl.Np1])
	})
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "INIT_SCRATCH", InitScratch.String())
	assert.Equal(t, "OMEGA_PS_SCAN", OmegaPsScan.String())
	assert.Equal(t, "DONE", Done.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
