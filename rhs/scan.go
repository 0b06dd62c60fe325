package rhs

import (
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
)

// pressure reconstructs mid-level pressure from the top down. Every point of
// level l is finished before level l+1 starts.
func (k *Kernel) pressure(el *state.Element, sc *Scratch) {
	dp := &el.DP3D[k.Ctl.N0]
	p := &sc.Pressure
	top := k.Ctl.HybridA0 * k.Ctl.Ps0
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			p[0][i][j] = top + 0.5*dp[0][i][j]
		}
	}
	for l := 1; l < element.NumLev; l++ {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				p[l][i][j] = p[l-1][i][j] + 0.5*(dp[l-1][i][j]+dp[l][i][j])
			}
		}
	}
}

// hydrostatic integrates the geopotential from the bottom level up.
func (k *Kernel) hydrostatic(el *state.Element, sc *Scratch) {
	const bot = element.NumLev - 1
	var (
		dp   = &el.DP3D[k.Ctl.N0]
		p    = &sc.Pressure
		tv   = &sc.TVirtual
		phis = &el.Metric.Phis
		phi  = &el.Phi
		rgas = k.Ctl.Rgas
		phii element.Scalar2D
	)
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			phii[i][j] = rgas * tv[bot][i][j] * dp[bot][i][j] / p[bot][i][j]
			phi[bot][i][j] = phis[i][j] + 0.5*phii[i][j]
		}
	}
	for l := bot - 1; l >= 0; l-- {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				term := rgas * tv[l][i][j] * dp[l][i][j] / p[l][i][j]
				phi[l][i][j] = phis[i][j] + phii[i][j] + 0.5*term
				phii[i][j] += term
			}
		}
	}
}

// omegaPs runs the init, interior and tail phases of the omega-ps scan. The
// pressure gradient of each level is taken before that level is combined.
func (k *Kernel) omegaPs(el *state.Element, sc *Scratch) {
	const bot = element.NumLev - 1
	var (
		u     = &el.U[k.Ctl.N0]
		v     = &el.V[k.Ctl.N0]
		p     = &sc.Pressure
		div   = &sc.DivVdp
		omega = &sc.OmegaP
		suml  = &sc.Suml
		gradP = &sc.GradP
		dinv  = &sc.DInv
	)

	k.Ops.Gradient(&p[0], dinv, gradP)
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			vgradP := u[0][i][j]*gradP[0][i][j] + v[0][i][j]*gradP[1][i][j]
			ckk := 0.5 / p[0][i][j]
			omega[0][i][j] = vgradP/p[0][i][j] - ckk*div[0][i][j]
			suml[i][j] = div[0][i][j]
		}
	}

	for l := 1; l <= bot; l++ {
		k.Ops.Gradient(&p[l], dinv, gradP)
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				vgradP := u[l][i][j]*gradP[0][i][j] + v[l][i][j]*gradP[1][i][j]
				ckk := 0.5 / p[l][i][j]
				ckl := 2 * ckk
				omega[l][i][j] = vgradP/p[l][i][j] - ckl*suml[i][j] - ckk*div[l][i][j]
				if l < bot {
					suml[i][j] += div[l][i][j]
				}
			}
		}
	}
}
