//go:build occa

package device

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/rhs"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
)

// Strategy evaluates the whole element range in one kernel launch.
// Partitions map to @outer iterations and elements to @inner iterations.
type Strategy struct {
	Props      string // OCCA device properties, empty for the first available backend
	Partitions int    // zero picks one partition per 64 elements
	Partition  partitions.PartitionStrategy
}

func (*Strategy) Name() string { return "occa" }

func (d *Strategy) numPartitions(n int) int {
	if d.Partitions > 0 {
		return d.Partitions
	}
	return (n + 63) / 64
}

func (d *Strategy) Run(ctx context.Context, ctl *control.Control, s *state.Store, log logrus.FieldLogger) error {
	nets, nete := ctl.Range()

	// dp3d is checked on the host before launch
	for ie := nets; ie < nete; ie++ {
		if err := rhs.CheckPositive(ie, rhs.PressureScan, "dp3d", &s.Element(ie).DP3D[ctl.N0]); err != nil {
			return err
		}
	}

	layout, err := partitions.NewPartitionBuilder(nets, nete, d.numPartitions(nete-nets), d.Partition).BuildPartitions()
	if err != nil {
		return err
	}
	arrays, err := Pack(layout, ctl, s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := CreateDevice(d.Props, log)
	if err != nil {
		return err
	}
	defer device.Free()

	kb, err := NewBuilder(device, layout)
	if err != nil {
		return err
	}
	defer kb.Free()

	kb.AddStaticMatrix("Dvv", element.GetReference().DvvMat)
	moist := 0
	if ctl.Qn0 >= 0 {
		moist = 1
	}
	kb.AddDefine("MOIST", moist)
	kb.Defines = append(kb.Defines, LayoutDefines()...)
	for _, name := range []string{"State", "Metric", "Accum", "Out"} {
		if err := kb.AllocateArray(name, arrays.named()[name]); err != nil {
			return err
		}
	}
	if _, err := kb.BuildKernel(RHSKernelSource, KernelName); err != nil {
		return err
	}

	start := time.Now()
	err = kb.RunKernel(KernelName,
		"State", "Metric", "Accum", "Out",
		ctl.Dt2, ctl.Rgas, ctl.RwaterVapor, ctl.Kappa,
		ctl.EtaAveW, ctl.HybridA0, ctl.Ps0, ctl.RRearth)
	if err != nil {
		return fmt.Errorf("run %s: %w", KernelName, err)
	}
	log.WithFields(logrus.Fields{
		"mode":       device.Mode(),
		"partitions": layout.NumPartitions,
		"kpart_max":  layout.KpartMax,
		"kernel":     time.Since(start),
	}).Debug("kernel finished")

	for _, name := range []string{"Accum", "Out"} {
		if err := kb.CopyArrayToHost(name); err != nil {
			return err
		}
	}
	if faults := arrays.Faults(); len(faults) > 0 {
		f := faults[0]
		return &rhs.FaultError{
			Element: f.Element, Stage: rhs.PressureScan, Field: "pressure",
			Level: f.Level, I: f.I, J: f.J, Value: f.Value,
		}
	}
	arrays.Unpack(ctl, s)
	return checkOutputs(ctl, s, nets, nete)
}

// checkOutputs runs the post-stage checks the kernel cannot report.
func checkOutputs(ctl *control.Control, s *state.Store, nets, nete int) error {
	for ie := nets; ie < nete; ie++ {
		el := s.Element(ie)
		checks := []struct {
			stage rhs.Stage
			name  string
			f     *element.Scalar3D
		}{
			{rhs.HydrostaticScan, "phi", &el.Phi},
			{rhs.VelocityEtaUpdate, "u", &el.U[ctl.Np1]},
			{rhs.VelocityEtaUpdate, "v", &el.V[ctl.Np1]},
			{rhs.TendencyAndLeapfrog, "t", &el.T[ctl.Np1]},
			{rhs.TendencyAndLeapfrog, "dp3d", &el.DP3D[ctl.Np1]},
		}
		for _, c := range checks {
			if err := rhs.CheckFinite(ie, c.stage, c.name, c.f); err != nil {
				return err
			}
		}
	}
	return nil
}
