// Package state stores the per-element prognostic, metric, accumulator and
// tracer fields read and written by the right-hand-side evaluation.
package state

import (
	"fmt"

	"github.com/notargets/SEKernel/element"
)

// Element owns every field of one grid element. Prognostic fields carry
// NumTimeLevels slots selected by the leapfrog indices in control.Control.
type Element struct {
	U    [element.NumTimeLevels]element.Scalar3D
	V    [element.NumTimeLevels]element.Scalar3D
	T    [element.NumTimeLevels]element.Scalar3D
	DP3D [element.NumTimeLevels]element.Scalar3D

	Metric element.Metric

	// Pecnd is the non-hydrostatic pressure correction, Phi the geopotential
	// diagnostic rewritten on every evaluation.
	Pecnd element.Scalar3D
	Phi   element.Scalar3D

	// Accumulators are only ever incremented by the evaluation.
	DerivedUn0  element.Scalar3D
	DerivedVn0  element.Scalar3D
	OmegaPAccum element.Scalar3D
	EtaDotDpdn  element.Interface3D

	Qdp element.Tracers
}

type Store struct {
	Elements []Element
}

func NewStore(numElems int) *Store {
	if numElems < 0 {
		panic(fmt.Sprintf("negative element count %d", numElems))
	}
	return &Store{Elements: make([]Element, numElems)}
}

func (s *Store) NumElems() int { return len(s.Elements) }

// Element returns element ie by reference.
func (s *Store) Element(ie int) *Element { return &s.Elements[ie] }

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{Elements: make([]Element, len(s.Elements))}
	copy(c.Elements, s.Elements)
	return c
}

// Rotate advances the leapfrog indices: the future slot becomes current and
// the current slot becomes previous.
func Rotate(nm1, n0, np1 int) (int, int, int) {
	return n0, np1, nm1
}
