// Package control holds the read-only scalar configuration shared by every
// element during one right-hand-side evaluation.
package control

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/notargets/SEKernel/element"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Control carries physical constants, leapfrog time-level indices and the
// element range [Nets, Nete). Qn0 == -1 disables the moisture correction.
type Control struct {
	NumElems int `toml:"num_elems"`
	Nets     int `toml:"nets"`
	Nete     int `toml:"nete"`

	Dt2         float64 `toml:"dt2"`
	Rgas        float64 `toml:"rgas"`
	RwaterVapor float64 `toml:"rwater_vapor"`
	Kappa       float64 `toml:"kappa"`
	EtaAveW     float64 `toml:"eta_ave_w"`
	HybridA0    float64 `toml:"hybrid_a0"`
	Ps0         float64 `toml:"ps0"`
	RRearth     float64 `toml:"rrearth"`

	Qn0 int `toml:"qn0"`
	N0  int `toml:"n0"`
	Nm1 int `toml:"nm1"`
	Np1 int `toml:"np1"`
}

const (
	Rgas        = 287.04
	RwaterVapor = 461.5
	Cp          = 1004.64
)

func Default() Control {
	return Control{
		NumElems:    10,
		Dt2:         600,
		Rgas:        Rgas,
		RwaterVapor: RwaterVapor,
		Kappa:       Rgas / Cp,
		EtaAveW:     1,
		HybridA0:    0.0025,
		Ps0:         1.e5,
		RRearth:     element.RRearth,
		Qn0:         -1,
		N0:          0,
		Nm1:         1,
		Np1:         2,
	}
}

// Range returns the element range, resolving a zero Nete to NumElems.
func (c *Control) Range() (nets, nete int) {
	nete = c.Nete
	if nete == 0 {
		nete = c.NumElems
	}
	return c.Nets, nete
}

func (c *Control) Validate() error {
	if c.NumElems < 1 {
		return fmt.Errorf("%w: number of elements must be positive, got %d",
			ErrInvalidConfig, c.NumElems)
	}
	nets, nete := c.Range()
	if nets < 0 || nete > c.NumElems || nets >= nete {
		return fmt.Errorf("%w: element range [%d,%d) outside [0,%d)",
			ErrInvalidConfig, nets, nete, c.NumElems)
	}
	for _, tl := range []struct {
		name string
		v    int
	}{{"n0", c.N0}, {"nm1", c.Nm1}, {"np1", c.Np1}} {
		if tl.v < 0 || tl.v >= element.NumTimeLevels {
			return fmt.Errorf("%w: time level %s=%d outside [0,%d)",
				ErrInvalidConfig, tl.name, tl.v, element.NumTimeLevels)
		}
	}
	if c.Np1 == c.N0 {
		return fmt.Errorf("%w: np1 must differ from n0 (%d)", ErrInvalidConfig, c.N0)
	}
	if c.Qn0 < -1 || c.Qn0 >= element.QNumTimeLevels {
		return fmt.Errorf("%w: qn0=%d must be -1 or in [0,%d)",
			ErrInvalidConfig, c.Qn0, element.QNumTimeLevels)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"dt2", c.Dt2}, {"rgas", c.Rgas}, {"rwater_vapor", c.RwaterVapor},
		{"kappa", c.Kappa}, {"eta_ave_w", c.EtaAveW}, {"hybrid_a0", c.HybridA0},
		{"ps0", c.Ps0}, {"rrearth", c.RRearth},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, f.name)
		}
	}
	if c.Rgas <= 0 {
		return fmt.Errorf("%w: rgas must be positive", ErrInvalidConfig)
	}
	if c.Ps0 <= 0 {
		return fmt.Errorf("%w: ps0 must be positive", ErrInvalidConfig)
	}
	return nil
}

// Load reads a TOML file over the defaults.
func Load(path string) (Control, error) {
	f, err := os.Open(path)
	if err != nil {
		return Control{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return Control{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Decode(r io.Reader) (Control, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Control{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Control{}, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undec)
	}
	return c, nil
}
