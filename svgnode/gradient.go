package svgnode

import (
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

// gradientBase holds the fields common to linear and radial gradients.
// Coordinates are fractions of the bounding box of the painted
// shape with ObjectBoundingBox units, user units otherwise.
type gradientBase struct {
	Name      string
	Stops     []svgpath.GradStop
	Units     svgpath.GradientUnits
	Spread    svgpath.SpreadMethod
	Transform svgpath.Matrix2D
}

func (g *gradientBase) gradient(dir svgpath.GradientDirecter) svgpath.Gradient {
	return svgpath.Gradient{
		Direction: dir,
		Stops:     append([]svgpath.GradStop(nil), g.Stops...),
		Matrix:    g.Transform,
		Spread:    g.Spread,
		Units:     g.Units,
	}
}

func (g *gradientBase) SetupDimensions(*svgraster.Target)                          {}
func (g *gradientBase) Draw(*svgraster.Target, *svgscene.Paint, float64)           {}
func (g *gradientBase) IsResponsible() bool                                        { return false }
func (g *gradientBase) HitTest(svgscene.Point, svgscene.View) (svgscene.Tag, bool) { return 0, false }
func (g *gradientBase) drawnBounds() (svgpath.Bounds, bool)                        { return svgpath.Bounds{}, true }

// LinearGradient registers a linear gradient brush.
type LinearGradient struct {
	gradientBase
	X1, Y1, X2, Y2 float64
}

var _ svgscene.Node = (*LinearGradient)(nil)

// NewLinearGradient returns a left to right gradient.
func NewLinearGradient(name string, stops ...svgpath.GradStop) *LinearGradient {
	return &LinearGradient{
		gradientBase: gradientBase{Name: name, Stops: stops, Transform: svgpath.Identity},
		X2:           1,
	}
}

// Brush returns the brush described by the node.
func (g *LinearGradient) Brush() svgpath.Gradient {
	return g.gradient(svgpath.Linear{g.X1, g.Y1, g.X2, g.Y2})
}

func (g *LinearGradient) SaveDefinition(defs *svgscene.Definitions) {
	if g.Name != "" {
		defs.DefineBrush(g.Brush(), g.Name)
	}
}

// RadialGradient registers a radial gradient brush.
type RadialGradient struct {
	gradientBase
	CX, CY, FX, FY, R, FR float64
}

var _ svgscene.Node = (*RadialGradient)(nil)

// NewRadialGradient returns a gradient centered in the bounding box.
func NewRadialGradient(name string, stops ...svgpath.GradStop) *RadialGradient {
	return &RadialGradient{
		gradientBase: gradientBase{Name: name, Stops: stops, Transform: svgpath.Identity},
		CX:           0.5,
		CY:           0.5,
		FX:           0.5,
		FY:           0.5,
		R:            0.5,
	}
}

func (g *RadialGradient) Brush() svgpath.Gradient {
	return g.gradient(svgpath.Radial{g.CX, g.CY, g.FX, g.FY, g.R, g.FR})
}

func (g *RadialGradient) SaveDefinition(defs *svgscene.Definitions) {
	if g.Name != "" {
		defs.DefineBrush(g.Brush(), g.Name)
	}
}
