package runner

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/diagnostics"
	"github.com/notargets/SEKernel/initial"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/rhs"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietRunner(s Strategy) *Runner {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Runner{Strategy: s, Log: log}
}

func seededStore(t *testing.T, n int, seed uint64) *state.Store {
	s := state.NewStore(n)
	require.NoError(t, initial.NewGenerator(seed).Fill(s))
	return s
}

func TestCrossStrategyEquivalence(t *testing.T) {
	ctl := control.Default()
	ctl.NumElems = 10
	ref := seededStore(t, 10, 2017)

	serial := ref.Clone()
	require.NoError(t, quietRunner(&Serial{}).EvaluateRHS(context.Background(), &ctl, serial))
	want := diagnostics.ComputeNorms(serial, 0, 10, ctl.Np1)

	for _, p := range []*Parallel{
		{Workers: 4, LevelWidth: 1, Partition: partitions.BlockPartition},
		{Workers: 3, LevelWidth: 4, Partition: partitions.RoundRobin},
		{Workers: 16, LevelWidth: 26},
	} {
		got := ref.Clone()
		require.NoError(t, quietRunner(p).EvaluateRHS(context.Background(), &ctl, got))
		norms := diagnostics.ComputeNorms(got, 0, 10, ctl.Np1)
		assert.Less(t, want.RelativeDiff(norms), 1e-10)
		assert.Equal(t, serial.Elements, got.Elements)
	}
}

func TestElementRange(t *testing.T) {
	ctl := control.Default()
	ctl.NumElems = 6
	ctl.Nets, ctl.Nete = 2, 4
	s := seededStore(t, 6, 8)
	before := s.Clone()

	require.NoError(t, quietRunner(&Parallel{Workers: 2}).EvaluateRHS(context.Background(), &ctl, s))
	for ie := range s.Elements {
		if ie >= 2 && ie < 4 {
			assert.NotEqual(t, before.Elements[ie].T[ctl.Np1], s.Elements[ie].T[ctl.Np1], "element %d", ie)
		} else {
			assert.Equal(t, before.Elements[ie], s.Elements[ie], "element %d", ie)
		}
	}
}

func TestConfigurationErrors(t *testing.T) {
	s := seededStore(t, 2, 1)
	before := s.Clone()

	bad := control.Default()
	bad.NumElems = 0
	err := quietRunner(&Serial{}).EvaluateRHS(context.Background(), &bad, s)
	assert.ErrorIs(t, err, control.ErrInvalidConfig)

	mismatch := control.Default()
	mismatch.NumElems = 3
	err = quietRunner(&Serial{}).EvaluateRHS(context.Background(), &mismatch, s)
	assert.ErrorIs(t, err, control.ErrInvalidConfig)

	assert.Equal(t, before.Elements, s.Elements)
}

func TestFaultAbortsStep(t *testing.T) {
	ctl := control.Default()
	ctl.NumElems = 8
	for _, strategy := range []Strategy{&Serial{}, &Parallel{Workers: 4, LevelWidth: 2}} {
		t.Run(strategy.Name(), func(t *testing.T) {
			s := seededStore(t, 8, 4)
			s.Element(5).DP3D[ctl.N0][3][1][1] = 0
			err := quietRunner(strategy).EvaluateRHS(context.Background(), &ctl, s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rhs.ErrNumericalInstability))
			var fe *rhs.FaultError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, 5, fe.Element)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	ctl := control.Default()
	s := seededStore(t, ctl.NumElems, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, strategy := range []Strategy{&Serial{}, &Parallel{Workers: 2}} {
		err := quietRunner(strategy).EvaluateRHS(ctx, &ctl, s)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("parallel", Options{Workers: 2, Partition: "round-robin"})
	require.NoError(t, err)
	p, ok := s.(*Parallel)
	require.True(t, ok)
	assert.Equal(t, partitions.RoundRobin, p.Partition)

	s, err = NewStrategy("serial", Options{})
	require.NoError(t, err)
	assert.Equal(t, "serial", s.Name())

	for name, opts := range map[string]Options{
		"gpu":      {},
		"parallel": {Partition: "metis"},
		"serial":   {Partition: "metis"},
	} {
		_, err = NewStrategy(name, opts)
		assert.ErrorIs(t, err, control.ErrInvalidConfig, "%s %+v", name, opts)
	}
	_, err = NewStrategy("parallel", Options{Workers: -1})
	assert.ErrorIs(t, err, control.ErrInvalidConfig)
	_, err = NewStrategy("parallel", Options{LevelWidth: -2})
	assert.ErrorIs(t, err, control.ErrInvalidConfig)

	assert.Contains(t, Strategies(), "serial")
	assert.Panics(t, func() { Register("serial", nil) })
}
