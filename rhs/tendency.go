package rhs

import (
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
)

// temperatureDivVdp fills the virtual temperature and the horizontal mass
// flux divergence of level l, and accumulates the mass flux.
func (k *Kernel) temperatureDivVdp(l int, el *state.Element, sc *Scratch) {
	var (
		ctl = k.Ctl
		t   = &el.T[ctl.N0][l]
		dp  = &el.DP3D[ctl.N0][l]
		u   = &el.U[ctl.N0][l]
		v   = &el.V[ctl.N0][l]
		tv  = &sc.TVirtual[l]
		vdp = &sc.VectorBuf[l]
	)
	if ctl.Qn0 == -1 {
		*tv = *t
	} else {
		qdp := &el.Qdp[0][ctl.Qn0][l]
		fac := ctl.RwaterVapor/ctl.Rgas - 1
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				qt := qdp[i][j] / dp[i][j]
				tv[i][j] = t[i][j] * (1 + fac*qt)
			}
		}
	}

	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			vdp[0][i][j] = u[i][j] * dp[i][j]
			vdp[1][i][j] = v[i][j] * dp[i][j]
			el.DerivedUn0[l][i][j] += ctl.EtaAveW * vdp[0][i][j]
			el.DerivedVn0[l][i][j] += ctl.EtaAveW * vdp[1][i][j]
		}
	}
	k.Ops.Divergence(vdp, &sc.DInv, &el.Metric.MetDet, &sc.DivVdp[l])
}

// velocity writes the future momentum of level l.
func (k *Kernel) velocity(l int, el *state.Element, sc *Scratch) {
	var (
		ctl     = k.Ctl
		m       = &el.Metric
		p       = &sc.Pressure[l]
		tv      = &sc.TVirtual[l]
		u       = &el.U[ctl.N0][l]
		v       = &el.V[ctl.N0][l]
		gradBuf = &sc.VectorBuf[l]
		ephi    element.Scalar2D
		vort    element.Scalar2D
	)

	k.Ops.Gradient(p, &sc.DInv, gradBuf)
	for h := 0; h < 2; h++ {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				gradBuf[h][i][j] *= ctl.Rgas * (tv[i][j] / p[i][j])
			}
		}
	}

	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			ephi[i][j] = 0.5*(u[i][j]*u[i][j]+v[i][j]*v[i][j]) +
				el.Phi[l][i][j] + el.Pecnd[l][i][j]
		}
	}
	k.Ops.GradientAdd(&ephi, &sc.DInv, gradBuf)

	k.Ops.Vorticity(u, v, &m.D, &m.MetDet, &vort)

	var (
		uPrev = &el.U[ctl.Nm1][l]
		vPrev = &el.V[ctl.Nm1][l]
		uNext = &el.U[ctl.Np1][l]
		vNext = &el.V[ctl.Np1][l]
	)
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			vort[i][j] += m.Fcor[i][j]
			vtens1 := v[i][j]*vort[i][j] - gradBuf[0][i][j]
			vtens2 := -u[i][j]*vort[i][j] - gradBuf[1][i][j]
			uNext[i][j] = m.SpheRemp[i][j] * (uPrev[i][j] + ctl.Dt2*vtens1)
			vNext[i][j] = m.SpheRemp[i][j] * (vPrev[i][j] + ctl.Dt2*vtens2)
		}
	}
}

// etaDpdn accumulates the vertical flux on interface level l. The flux
// itself is held at zero.
func (k *Kernel) etaDpdn(l int, el *state.Element) {
	const etaDotDpdn = 0.
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			el.EtaDotDpdn[l][i][j] += k.Ctl.EtaAveW * etaDotDpdn
		}
	}
}

// temperatureMass accumulates omega_p and writes the future temperature and
// pressure thickness of level l. Vertical advection is not applied.
func (k *Kernel) temperatureMass(l int, el *state.Element, sc *Scratch) {
	var (
		ctl   = k.Ctl
		m     = &el.Metric
		u     = &el.U[ctl.N0][l]
		v     = &el.V[ctl.N0][l]
		tv    = &sc.TVirtual[l]
		omega = &sc.OmegaP[l]
		div   = &sc.DivVdp[l]
		gradT = &sc.VectorBuf[l]
	)
	k.Ops.Gradient(&el.T[ctl.N0][l], &sc.DInv, gradT)

	var (
		tPrev  = &el.T[ctl.Nm1][l]
		dpPrev = &el.DP3D[ctl.Nm1][l]
		tNext  = &el.T[ctl.Np1][l]
		dpNext = &el.DP3D[ctl.Np1][l]
	)
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			el.OmegaPAccum[l][i][j] += ctl.EtaAveW * omega[i][j]
			ttens := -(u[i][j]*gradT[0][i][j] + v[i][j]*gradT[1][i][j]) +
				ctl.Kappa*tv[i][j]*omega[i][j]
			tNext[i][j] = m.SpheRemp[i][j] * (tPrev[i][j] + ctl.Dt2*ttens)
			dpNext[i][j] = m.SpheRemp[i][j] * (dpPrev[i][j] - ctl.Dt2*div[i][j])
		}
	}
}
