// Package device evaluates the RHS on an OCCA device. Element data is packed
// into partitioned arrays, one padded slot per element, and the kernel runs
// one element per @inner iteration.
//
// Packing and the kernel source build without OCCA; the strategy itself needs
// the occa build tag.
package device

import (
	"fmt"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/state"
)

const (
	npp     = element.NP * element.NP
	levSize = element.NumLev * npp
)

// Offsets into one element slot, in float64 values. The same names are
// emitted as #defines ahead of the kernel source.
const (
	stU0 = iota * levSize
	stV0
	stT0
	stDP0
	stUm1
	stVm1
	stTm1
	stDPm1
	stPecnd
	stQdp
	stateStride
)

const (
	mtD       = 0
	mtDInv    = 4 * npp
	mtMetDet  = 8 * npp
	mtSpheRmp = 9 * npp
	mtFcor    = 10 * npp
	mtPhis    = 11 * npp

	metricStride = 12 * npp
)

const (
	acUn0   = 0
	acVn0   = levSize
	acOmega = 2 * levSize
	acEta   = 3 * levSize

	accumStride = 3*levSize + element.NumLevP*npp
)

const (
	outU     = 0
	outV     = levSize
	outT     = 2 * levSize
	outDP    = 3 * levSize
	outPhi   = 4 * levSize
	outFault = 5 * levSize // 1 + flat index of the first non-positive pressure, then its value

	outStride = 5*levSize + 2
)

// Arrays holds the four partitioned arrays the kernel reads and writes.
type Arrays struct {
	State  *partitions.PartitionedArray // prognostics at n0 and nm1, pecnd, qdp
	Metric *partitions.PartitionedArray
	Accum  *partitions.PartitionedArray // derived accumulators, read and written
	Out    *partitions.PartitionedArray // np1 prognostics, phi, fault word
}

func (a *Arrays) named() map[string]*partitions.PartitionedArray {
	return map[string]*partitions.PartitionedArray{
		"State":  a.State,
		"Metric": a.Metric,
		"Accum":  a.Accum,
		"Out":    a.Out,
	}
}

func putPlanes(dst []float64, planes []element.Scalar2D) {
	for l := range planes {
		for i := range planes[l] {
			copy(dst[(l*element.NP+i)*element.NP:], planes[l][i][:])
		}
	}
}

func getPlanes(planes []element.Scalar2D, src []float64) {
	for l := range planes {
		for i := range planes[l] {
			copy(planes[l][i][:], src[(l*element.NP+i)*element.NP:])
		}
	}
}

func putTensor(dst []float64, t *element.Tensor2D) {
	for r := 0; r < 2; r++ {
		putPlanes(dst[2*r*npp:], t[r][:])
	}
}

// Pack copies the time levels, metric and accumulators of every element in
// the layout into freshly allocated partitioned arrays.
func Pack(layout *partitions.PartitionLayout, ctl *control.Control, s *state.Store) (*Arrays, error) {
	a := &Arrays{
		State:  partitions.AllocatePartitionedArray(layout, stateStride),
		Metric: partitions.AllocatePartitionedArray(layout, metricStride),
		Accum:  partitions.AllocatePartitionedArray(layout, accumStride),
		Out:    partitions.AllocatePartitionedArray(layout, outStride),
	}
	for slot, ie := range a.State.SlotElement {
		if ie < 0 {
			continue
		}
		if int(ie) >= s.NumElems() {
			return nil, fmt.Errorf("slot %d: element %d outside store of %d", slot, ie, s.NumElems())
		}
		el := s.Element(int(ie))

		st := a.State.Slot(slot)
		putPlanes(st[stU0:], el.U[ctl.N0][:])
		putPlanes(st[stV0:], el.V[ctl.N0][:])
		putPlanes(st[stT0:], el.T[ctl.N0][:])
		putPlanes(st[stDP0:], el.DP3D[ctl.N0][:])
		putPlanes(st[stUm1:], el.U[ctl.Nm1][:])
		putPlanes(st[stVm1:], el.V[ctl.Nm1][:])
		putPlanes(st[stTm1:], el.T[ctl.Nm1][:])
		putPlanes(st[stDPm1:], el.DP3D[ctl.Nm1][:])
		putPlanes(st[stPecnd:], el.Pecnd[:])
		if ctl.Qn0 >= 0 {
			putPlanes(st[stQdp:], el.Qdp[0][ctl.Qn0][:])
		}

		mt := a.Metric.Slot(slot)
		m := &el.Metric
		putTensor(mt[mtD:], &m.D)
		putTensor(mt[mtDInv:], &m.DInv)
		putPlanes(mt[mtMetDet:], []element.Scalar2D{m.MetDet})
		putPlanes(mt[mtSpheRmp:], []element.Scalar2D{m.SpheRemp})
		putPlanes(mt[mtFcor:], []element.Scalar2D{m.Fcor})
		putPlanes(mt[mtPhis:], []element.Scalar2D{m.Phis})

		ac := a.Accum.Slot(slot)
		putPlanes(ac[acUn0:], el.DerivedUn0[:])
		putPlanes(ac[acVn0:], el.DerivedVn0[:])
		putPlanes(ac[acOmega:], el.OmegaPAccum[:])
		putPlanes(ac[acEta:], el.EtaDotDpdn[:])
	}
	return a, nil
}

// Unpack writes the kernel results back into the store: the np1 time level,
// phi and the accumulators.
func (a *Arrays) Unpack(ctl *control.Control, s *state.Store) {
	for slot, ie := range a.Out.SlotElement {
		if ie < 0 {
			continue
		}
		el := s.Element(int(ie))

		out := a.Out.Slot(slot)
		getPlanes(el.U[ctl.Np1][:], out[outU:])
		getPlanes(el.V[ctl.Np1][:], out[outV:])
		getPlanes(el.T[ctl.Np1][:], out[outT:])
		getPlanes(el.DP3D[ctl.Np1][:], out[outDP:])
		getPlanes(el.Phi[:], out[outPhi:])

		ac := a.Accum.Slot(slot)
		getPlanes(el.DerivedUn0[:], ac[acUn0:])
		getPlanes(el.DerivedVn0[:], ac[acVn0:])
		getPlanes(el.OmegaPAccum[:], ac[acOmega:])
		getPlanes(el.EtaDotDpdn[:], ac[acEta:])
	}
}

// Fault describes the pressure fault the kernel recorded for a slot.
type Fault struct {
	Element     int
	Level, I, J int
	Value       float64
}

// Faults lists kernel-recorded faults in slot order.
func (a *Arrays) Faults() []Fault {
	var faults []Fault
	for slot, ie := range a.Out.SlotElement {
		if ie < 0 {
			continue
		}
		out := a.Out.Slot(slot)
		code := int(out[outFault])
		if code == 0 {
			continue
		}
		idx := code - 1
		faults = append(faults, Fault{
			Element: int(ie),
			Level:   idx / npp,
			I:       idx % npp / element.NP,
			J:       idx % element.NP,
			Value:   out[outFault+1],
		})
	}
	return faults
}

// LayoutDefines returns the slot offsets as C preprocessor definitions.
func LayoutDefines() []string {
	defs := []struct {
		name string
		val  int
	}{
		{"ST_U0", stU0}, {"ST_V0", stV0}, {"ST_T0", stT0}, {"ST_DP0", stDP0},
		{"ST_UM1", stUm1}, {"ST_VM1", stVm1}, {"ST_TM1", stTm1}, {"ST_DPM1", stDPm1},
		{"ST_PECND", stPecnd}, {"ST_QDP", stQdp}, {"STATE_STRIDE", stateStride},
		{"MT_D", mtD}, {"MT_DINV", mtDInv}, {"MT_METDET", mtMetDet},
		{"MT_SPHEREMP", mtSpheRmp}, {"MT_FCOR", mtFcor}, {"MT_PHIS", mtPhis},
		{"METRIC_STRIDE", metricStride},
		{"AC_UN0", acUn0}, {"AC_VN0", acVn0}, {"AC_OMEGA", acOmega}, {"AC_ETA", acEta},
		{"ACCUM_STRIDE", accumStride},
		{"OUT_U", outU}, {"OUT_V", outV}, {"OUT_T", outT}, {"OUT_DP", outDP},
		{"OUT_PHI", outPhi}, {"OUT_FAULT", outFault}, {"OUT_STRIDE", outStride},
	}
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = fmt.Sprintf("#define %s %d\n", d.name, d.val)
	}
	return out
}
