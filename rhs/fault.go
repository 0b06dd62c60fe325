package rhs

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/SEKernel/element"
)

var ErrNumericalInstability = errors.New("numerical instability")

// FaultError reports the first offending value found after a stage.
type FaultError struct {
	Element int
	Stage   Stage
	Field   string
	Level   int
	I, J    int
	Value   float64
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("element %d, stage %s: %s[%d][%d][%d] = %g: %v",
		e.Element, e.Stage, e.Field, e.Level, e.I, e.J, e.Value, ErrNumericalInstability)
}

func (e *FaultError) Unwrap() error { return ErrNumericalInstability }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// CheckFinite reports the first NaN or Inf in f.
func CheckFinite(ie int, st Stage, name string, f *element.Scalar3D) error {
	for l := range f {
		for i := range f[l] {
			for j, v := range f[l][i] {
				if !finite(v) {
					return &FaultError{ie, st, name, l, i, j, v}
				}
			}
		}
	}
	return nil
}

// CheckPositive reports the first value of f that is not a positive finite number.
func CheckPositive(ie int, st Stage, name string, f *element.Scalar3D) error {
	for l := range f {
		for i := range f[l] {
			for j, v := range f[l][i] {
				if !(v > 0) || math.IsInf(v, 0) {
					return &FaultError{ie, st, name, l, i, j, v}
				}
			}
		}
	}
	return nil
}
