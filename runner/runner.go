// Package runner drives one right-hand-side evaluation over every element of
// a state store using a pluggable execution strategy.
package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
)

// Strategy evaluates the RHS for elements [nets, nete) of the store. All
// strategies satisfy the same contract and must agree to round-off.
type Strategy interface {
	Name() string
	Run(ctx context.Context, ctl *control.Control, s *state.Store, log logrus.FieldLogger) error
}

// Runner validates configuration and times a strategy.
type Runner struct {
	Strategy Strategy
	Log      logrus.FieldLogger
}

func NewRunner(strategy Strategy) *Runner {
	return &Runner{Strategy: strategy, Log: logrus.StandardLogger()}
}

// EvaluateRHS writes the future slot and increments the accumulators of every
// element in the configured range. Configuration errors are returned before
// any element is touched.
func (r *Runner) EvaluateRHS(ctx context.Context, ctl *control.Control, s *state.Store) error {
	if err := ctl.Validate(); err != nil {
		return err
	}
	if s.NumElems() != ctl.NumElems {
		return fmt.Errorf("%w: store holds %d elements, configuration expects %d",
			control.ErrInvalidConfig, s.NumElems(), ctl.NumElems)
	}
	nets, nete := ctl.Range()
	log := r.Log.WithFields(logrus.Fields{
		"strategy": r.Strategy.Name(),
		"elements": nete - nets,
	})

	start := time.Now()
	if err := r.Strategy.Run(ctx, ctl, s, log); err != nil {
		log.WithError(err).Error("rhs evaluation failed")
		return fmt.Errorf("%s strategy: %w", r.Strategy.Name(), err)
	}
	log.WithField("elapsed", time.Since(start)).Info("rhs evaluation complete")
	return nil
}

// Factory builds a strategy from generic options.
type Factory func(opts Options) (Strategy, error)

// Options configures strategy construction.
type Options struct {
	Workers    int
	LevelWidth int
	Partition  string
}

var registry = map[string]Factory{
	"serial":   func(Options) (Strategy, error) { return &Serial{}, nil },
	"parallel": newParallelFromOptions,
}

// Register adds a named strategy. It panics on duplicates.
func Register(name string, f Factory) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("strategy %q already registered", name))
	}
	registry[name] = f
}

// NewStrategy checks opts and builds the named strategy. Bad options wrap
// control.ErrInvalidConfig whichever strategy is named.
func NewStrategy(name string, opts Options) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q, have %v",
			control.ErrInvalidConfig, name, Strategies())
	}
	if _, err := partitions.ParseStrategy(opts.Partition); err != nil {
		return nil, fmt.Errorf("%w: %v", control.ErrInvalidConfig, err)
	}
	if opts.Workers < 0 || opts.LevelWidth < 0 {
		return nil, fmt.Errorf("%w: negative worker count (workers %d, level width %d)",
			control.ErrInvalidConfig, opts.Workers, opts.LevelWidth)
	}
	return f(opts)
}

func Strategies() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
