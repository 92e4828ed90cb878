package svgpath

import (
	"image/color"
)

// Pattern describes how a path is painted:
// it is either a PlainColor or a Gradient.
// Patterns are values and must not be mutated once shared.
type Pattern interface {
	isPattern()
}

// PlainColor paints with a single color.
type PlainColor struct {
	color.NRGBA
}

// NewPlainColor returns a non premultiplied color.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{color.NRGBA{R: r, G: g, B: b, A: a}}
}

func (PlainColor) isPattern() {}
func (Gradient) isPattern()   {}

// GradientUnits is the type for gradient units
type GradientUnits byte

// SVG bounds paremater constants
const (
	ObjectBoundingBox GradientUnits = iota
	UserSpaceOnUse
)

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

// SVG spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

const epsilonF = 1e-5

// GradStop represents a stop in the SVG 2.0 gradient specification
type GradStop struct {
	StopColor color.Color
	Offset    float64
	Opacity   float64
}

// Gradient holds a description of an SVG 2.0 gradient
type Gradient struct {
	Direction GradientDirecter
	Stops     []GradStop
	Bounds    Bounds
	Matrix    Matrix2D
	Spread    SpreadMethod
	Units     GradientUnits
}

// GradientDirecter is either Linear or Radial.
type GradientDirecter interface {
	isRadial() bool
}

// Linear holds x1, y1, x2, y2
type Linear [4]float64

func (Linear) isRadial() bool { return false }

// Radial holds cx, cy, fx, fy, r, fr
type Radial [6]float64

func (Radial) isRadial() bool { return true }

// NewLinearGradient returns a gradient with the default
// objectBoundingBox units, going from left to right.
func NewLinearGradient(stops ...GradStop) Gradient {
	return Gradient{Direction: Linear{0, 0, 1, 0}, Stops: stops, Matrix: Identity}
}

// NewRadialGradient returns a gradient with the default
// objectBoundingBox units, centered in the box.
func NewRadialGradient(stops ...GradStop) Gradient {
	return Gradient{Direction: Radial{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, Stops: stops, Matrix: Identity}
}
