//go:build occa

package device

import (
	"fmt"

	"github.com/notargets/gocca"
	"github.com/sirupsen/logrus"
)

// Backends lists device properties in order of preference.
var Backends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// CreateDevice opens the first backend that initializes. An explicit props
// string skips the search.
func CreateDevice(props string, log logrus.FieldLogger) (*gocca.OCCADevice, error) {
	candidates := Backends
	if props != "" {
		candidates = []string{props}
	}
	var lastErr error
	for _, p := range candidates {
		device, err := gocca.NewDevice(p)
		if err == nil {
			log.WithField("mode", device.Mode()).Info("created device")
			return device, nil
		}
		log.WithError(err).WithField("props", p).Debug("device unavailable")
		lastErr = err
	}
	return nil, fmt.Errorf("no OCCA device available: %w", lastErr)
}
