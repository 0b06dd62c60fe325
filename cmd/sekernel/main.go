// Command sekernel initialises a synthetic element state, evaluates one RHS
// step with the chosen strategy and reports norms before and after.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("sekernel failed")
		os.Exit(1)
	}
}
