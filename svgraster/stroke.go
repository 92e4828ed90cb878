package svgraster

import (
	"github.com/srwiley/rasterx"
)

// JoinMode type to specify how segments join.
type JoinMode uint8

// JoinMode constants determine how stroke segments bridge the gap at a join
// ArcClip mode is like MiterClip applied to arcs, and is not part of the SVG2.0
// standard.
const (
	Arc JoinMode = iota // New in SVG2
	Round
	Bevel
	Miter
	MiterClip // New in SVG2
	ArcClip   // Like MiterClip applied to arcs, and is not part of the SVG2.0 standard.
)

func (s JoinMode) String() string {
	switch s {
	case Round:
		return "Round"
	case Bevel:
		return "Bevel"
	case Miter:
		return "Miter"
	case MiterClip:
		return "MiterClip"
	case Arc:
		return "Arc"
	case ArcClip:
		return "ArcClip"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	NilCap CapMode = iota // default value
	ButtCap
	SquareCap
	RoundCap
	CubicCap     // Not part of the SVG2.0 standard.
	QuadraticCap // Not part of the SVG2.0 standard.
)

func (c CapMode) String() string {
	switch c {
	case NilCap:
		return "NilCap"
	case ButtCap:
		return "ButtCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	case CubicCap:
		return "CubicCap"
	case QuadraticCap:
		return "QuadraticCap"
	default:
		return "<unknown CapMode>"
	}
}

// GapMode defines how to bridge gaps when the miter limit is exceeded,
// and is not part of the SVG2.0 standard.
type GapMode uint8

const (
	NilGap GapMode = iota
	FlatGap
	RoundGap
	CubicGap
	QuadraticGap
)

// StrokeOptions parametrize the stroking of a path,
// with lengths expressed in user space.
type StrokeOptions struct {
	LineWidth  float64
	MiterLimit float64
	LineJoin   JoinMode
	LineCap    CapMode
	LineGap    GapMode
	Dash       []float64 // values for the dash pattern (nil or an empty slice for no dashes)
	DashOffset float64   // starting offset into the dash array
}

// DefaultStroke is a 1 unit wide, butt capped, bevel joined stroke.
var DefaultStroke = StrokeOptions{
	LineWidth:  1,
	MiterLimit: 4,
	LineJoin:   Bevel,
	LineCap:    ButtCap,
	LineGap:    FlatGap,
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		Round:     rasterx.Round,
		Bevel:     rasterx.Bevel,
		Miter:     rasterx.Miter,
		MiterClip: rasterx.MiterClip,
		Arc:       rasterx.Arc,
		ArcClip:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		NilCap:       rasterx.ButtCap,
		ButtCap:      rasterx.ButtCap,
		SquareCap:    rasterx.SquareCap,
		RoundCap:     rasterx.RoundCap,
		CubicCap:     rasterx.CubicCap,
		QuadraticCap: rasterx.QuadraticCap,
	}

	gapToFunc = [...]rasterx.GapFunc{
		NilGap:       rasterx.FlatGap,
		FlatGap:      rasterx.FlatGap,
		RoundGap:     rasterx.RoundGap,
		CubicGap:     rasterx.CubicGap,
		QuadraticGap: rasterx.QuadraticGap,
	}
)
