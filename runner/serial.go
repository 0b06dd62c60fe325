package runner

import (
	"context"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/rhs"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
)

// Serial is the reference strategy: one goroutine, one scratch buffer,
// elements and levels in increasing order.
type Serial struct{}

func (*Serial) Name() string { return "serial" }

func (*Serial) Run(ctx context.Context, ctl *control.Control, s *state.Store, _ logrus.FieldLogger) error {
	k := rhs.NewKernel(ctl)
	sc := new(rhs.Scratch)
	nets, nete := ctl.Range()
	for ie := nets; ie < nete; ie++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := k.Evaluate(ie, s.Element(ie), sc, rhs.SerialTeam{}); err != nil {
			return err
		}
	}
	return nil
}
