//go:build occa

package main

import (
	"github.com/notargets/SEKernel/device"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/SEKernel/runner"
)

func init() {
	runner.Register("occa", func(opts runner.Options) (runner.Strategy, error) {
		ps, err := partitions.ParseStrategy(opts.Partition)
		if err != nil {
			return nil, err
		}
		return &device.Strategy{Partitions: opts.Workers, Partition: ps}, nil
	})
}
