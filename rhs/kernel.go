// Package rhs evaluates the right-hand-side tendencies of one element and
// applies the leapfrog update to its future time level.
package rhs

import (
	"fmt"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
)

type Stage uint8

const (
	InitScratch Stage = iota
	PressureScan
	TemperatureAndDivergence
	HydrostaticScan
	OmegaPsScan
	VelocityEtaUpdate
	TendencyAndLeapfrog
	Done
)

var stageNames = [...]string{
	"INIT_SCRATCH",
	"PRESSURE_SCAN",
	"TEMPERATURE_AND_DIVERGENCE",
	"HYDROSTATIC_SCAN",
	"OMEGA_PS_SCAN",
	"VELOCITY_ETA_UPDATE",
	"TENDENCY_AND_LEAPFROG",
	"DONE",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// Kernel is safe for concurrent use: it holds only read-only configuration.
type Kernel struct {
	Ctl *control.Control
	Ops *element.Operators
}

func NewKernel(ctl *control.Control) *Kernel {
	return &Kernel{
		Ctl: ctl,
		Ops: element.NewOperators(element.GetReference(), ctl.RRearth),
	}
}

// Evaluate advances element ie through every stage in order. Each stage
// returns only after all of its levels have finished, and finiteness checks
// run between stages. On a fault the remaining stages are skipped.
func (k *Kernel) Evaluate(ie int, el *state.Element, sc *Scratch, team Team) error {
	stages := []struct {
		stage Stage
		run   func() error
	}{
		{InitScratch, func() error {
			sc.DInv = el.Metric.DInv
			return nil
		}},
		{PressureScan, func() error {
			if err := CheckPositive(ie, PressureScan, "dp3d", &el.DP3D[k.Ctl.N0]); err != nil {
				return err
			}
			k.pressure(el, sc)
			return CheckPositive(ie, PressureScan, "pressure", &sc.Pressure)
		}},
		{TemperatureAndDivergence, func() error {
			team.ForLevels(element.NumLev, func(l int) {
				k.temperatureDivVdp(l, el, sc)
			})
			if err := CheckFinite(ie, TemperatureAndDivergence, "virtual_temperature", &sc.TVirtual); err != nil {
				return err
			}
			return CheckFinite(ie, TemperatureAndDivergence, "div_vdp", &sc.DivVdp)
		}},
		{HydrostaticScan, func() error {
			k.hydrostatic(el, sc)
			return CheckFinite(ie, HydrostaticScan, "phi", &el.Phi)
		}},
		{OmegaPsScan, func() error {
			k.omegaPs(el, sc)
			return CheckFinite(ie, OmegaPsScan, "omega_p", &sc.OmegaP)
		}},
		{VelocityEtaUpdate, func() error {
			team.ForLevels(element.NumLev, func(l int) {
				k.velocity(l, el, sc)
			})
			team.ForLevels(element.NumLevP, func(l int) {
				k.etaDpdn(l, el)
			})
			np1 := k.Ctl.Np1
			if err := CheckFinite(ie, VelocityEtaUpdate, "u", &el.U[np1]); err != nil {
				return err
			}
			return CheckFinite(ie, VelocityEtaUpdate, "v", &el.V[np1])
		}},
		{TendencyAndLeapfrog, func() error {
			team.ForLevels(element.NumLev, func(l int) {
				k.temperatureMass(l, el, sc)
			})
			np1 := k.Ctl.Np1
			if err := CheckFinite(ie, TendencyAndLeapfrog, "t", &el.T[np1]); err != nil {
				return err
			}
			return CheckFinite(ie, TendencyAndLeapfrog, "dp3d", &el.DP3D[np1])
		}},
	}

	for _, s := range stages {
		if err := s.run(); err != nil {
			return err
		}
	}
	return nil
}
