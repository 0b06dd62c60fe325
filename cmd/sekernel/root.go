package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/notargets/SEKernel/control"
	"github.com/notargets/SEKernel/diagnostics"
	"github.com/notargets/SEKernel/initial"
	"github.com/notargets/SEKernel/mesh"
	"github.com/notargets/SEKernel/runner"
	"github.com/notargets/SEKernel/state"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	Config     string
	NumElems   string
	Ne         int
	Strategy   string
	Workers    int
	LevelWidth int
	Partition  string
	Seed       uint64
	Qn0        int
	DumpDir    string
	NoDump     bool
	Report     string
	LogLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sekernel [num-elems]",
		Short: "Evaluate one spectral-element RHS step on synthetic data",
		Long: "sekernel fills every element with seeded synthetic data, applies one\n" +
			"leapfrog RHS step and prints the L2 norms of the state before and after.\n" +
			"The future time level is dumped as plain text unless --no-dump is set.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	addFlags(cmd.Flags(), opts)
	return cmd
}

func addFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVar(&opts.Config, "config", "", "TOML control file applied over the defaults")
	fs.StringVar(&opts.NumElems, "num-elems", "10", "number of elements, decimal digits only")
	fs.IntVar(&opts.Ne, "ne", 0, "use a cubed-sphere mesh with ne x ne elements per face")
	fs.StringVar(&opts.Strategy, "strategy", "serial", fmt.Sprintf("execution strategy %v", runner.Strategies()))
	fs.IntVar(&opts.Workers, "workers", 0, "partitions evaluated concurrently, 0 for GOMAXPROCS")
	fs.IntVar(&opts.LevelWidth, "level-width", 1, "goroutines per element for level-parallel stages")
	fs.StringVar(&opts.Partition, "partition", "block", "element grouping (block|round-robin)")
	fs.Uint64Var(&opts.Seed, "seed", 2017, "synthetic data seed")
	fs.IntVar(&opts.Qn0, "qn0", -1, "tracer time level for the moisture correction, -1 for dry")
	fs.StringVar(&opts.DumpDir, "dump-dir", ".", "directory for the elem_state_*.txt dump")
	fs.BoolVar(&opts.NoDump, "no-dump", false, "skip the state dump")
	fs.StringVar(&opts.Report, "report", "", "write a YAML norm report to this path")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// controlFromFlags loads the control file, then applies only the flags the
// user set so that file values survive flag defaults.
func controlFromFlags(fs *pflag.FlagSet, opts *options, args []string) (control.Control, error) {
	ctl := control.Default()
	if opts.Config != "" {
		var err error
		if ctl, err = control.Load(opts.Config); err != nil {
			return ctl, err
		}
	}

	if fs.Changed("num-elems") {
		n, err := parseCount(opts.NumElems)
		if err != nil {
			return ctl, err
		}
		ctl.NumElems = n
	}
	if fs.Changed("qn0") {
		ctl.Qn0 = opts.Qn0
	}
	if len(args) == 1 {
		n, err := parseCount(args[0])
		if err != nil {
			return ctl, err
		}
		ctl.NumElems = n
	}
	if ctl.NumElems < 1 {
		return ctl, fmt.Errorf("%w: number of elements must be positive, got %d",
			control.ErrInvalidConfig, ctl.NumElems)
	}
	return ctl, nil
}

// parseCount accepts an unsigned decimal element count. Leading zeros are
// dropped so "010" is ten, not an octal literal.
func parseCount(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("%w: num-elems %q is not an unsigned decimal integer",
			control.ErrInvalidConfig, s)
	}
	digits := strings.TrimLeft(s, "0")
	if digits == "" {
		digits = "0"
	}
	n, err := cast.ToIntE(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: num-elems %q: %v", control.ErrInvalidConfig, s, err)
	}
	return n, nil
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	log, err := newLogger(cmd.ErrOrStderr(), opts.LogLevel)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctl, err := controlFromFlags(cmd.Flags(), opts, args)
	if err != nil {
		return err
	}

	var cs *mesh.CubedSphere
	if opts.Ne > 0 {
		if cs, err = mesh.NewCubedSphere(opts.Ne); err != nil {
			return err
		}
		ctl.NumElems = cs.NumElems()
		log.WithField("mesh", cs.String()).Info("using cubed-sphere metrics")
	}
	if err := ctl.Validate(); err != nil {
		return err
	}

	strategy, err := runner.NewStrategy(opts.Strategy, runner.Options{
		Workers:    opts.Workers,
		LevelWidth: opts.LevelWidth,
		Partition:  opts.Partition,
	})
	if err != nil {
		return err
	}

	s := state.NewStore(ctl.NumElems)
	if err := initial.NewGenerator(opts.Seed).Fill(s); err != nil {
		return err
	}
	if cs != nil {
		if err := cs.Apply(s); err != nil {
			return err
		}
	}

	nets, nete := ctl.Range()
	before := diagnostics.ComputeNorms(s, nets, nete, ctl.N0)
	if err := before.Print(out); err != nil {
		return err
	}

	r := &runner.Runner{Strategy: strategy, Log: log}
	start := time.Now()
	if err := r.EvaluateRHS(cmd.Context(), &ctl, s); err != nil {
		return err
	}
	elapsed := time.Since(start)
	fmt.Fprintf(out, "   ---> Time: %.6f s\n", elapsed.Seconds())

	after := diagnostics.ComputeNorms(s, nets, nete, ctl.Np1)
	if err := after.Print(out); err != nil {
		return err
	}

	if !opts.NoDump {
		if err := diagnostics.WriteDump(opts.DumpDir, s, nets, nete, ctl.Np1); err != nil {
			return err
		}
		log.WithField("dir", opts.DumpDir).Info("state dumped")
	}
	if opts.Report != "" {
		rep := diagnostics.Report{
			NumElems: ctl.NumElems,
			Strategy: strategy.Name(),
			Seed:     opts.Seed,
			Elapsed:  elapsed,
			Before:   before,
			After:    after,
		}
		if err := diagnostics.WriteReport(opts.Report, rep); err != nil {
			return err
		}
	}
	return nil
}
