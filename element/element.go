// Package element defines the fixed-shape fields of a spectral element and
// the spherical operators that act on them.
package element

// Compile-time extents of an element. Levels are ordered top to bottom.
const (
	NP             = 4
	NumLev         = 26
	NumLevP        = NumLev + 1
	NumTimeLevels  = 3
	QSizeD         = 4
	QNumTimeLevels = 2
)

// RRearth is the inverse of the Earth radius (1/m).
const RRearth = 1. / 6.376e6

type (
	Scalar2D    [NP][NP]float64
	Vector2D    [2]Scalar2D
	Tensor2D    [2][2]Scalar2D
	Scalar3D    [NumLev]Scalar2D
	Vector3D    [NumLev]Vector2D
	Interface3D [NumLevP]Scalar2D
	Tracers     [QSizeD][QNumTimeLevels]Scalar3D
)
