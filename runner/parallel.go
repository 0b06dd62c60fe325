package runner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/rhs"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Parallel groups elements into one partition per worker and evaluates the
// partitions concurrently. Within an element, level-independent stages fan
// out over LevelWidth goroutines and join before the next stage.
type Parallel struct {
	Workers    int
	LevelWidth int
	Partition  partitions.PartitionStrategy
}

// newParallelFromOptions expects options already checked by NewStrategy.
func newParallelFromOptions(opts Options) (Strategy, error) {
	ps, err := partitions.ParseStrategy(opts.Partition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", control.ErrInvalidConfig, err)
	}
	return &Parallel{Workers: opts.Workers, LevelWidth: opts.LevelWidth, Partition: ps}, nil
}

func (*Parallel) Name() string { return "parallel" }

func (p *Parallel) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (p *Parallel) Run(ctx context.Context, ctl *control.Control, s *state.Store, log logrus.FieldLogger) error {
	nets, nete := ctl.Range()
	workers := p.workers()

	layout, err := partitions.NewPartitionBuilder(nets, nete, workers, p.Partition).BuildPartitions()
	if err != nil {
		return err
	}
	stats := layout.PartitionStatistics()
	log.WithFields(logrus.Fields{
		"partitions": stats.NumPartitions,
		"kpart_max":  layout.KpartMax,
		"imbalance":  stats.Imbalance,
		"scheme":     p.Partition.String(),
	}).Debug("partition layout")

	var (
		k    = rhs.NewKernel(ctl)
		pool = rhs.NewPool(min(workers, layout.NumPartitions))
		team = rhs.ForkJoinTeam{Width: p.LevelWidth}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool.Size())
	for _, part := range layout.Partitions {
		g.Go(func() error {
			sc := pool.Get()
			defer pool.Put(sc)
			for _, ie := range part.Elements {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := k.Evaluate(ie, s.Element(ie), sc, team); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
