package svgnode

import (
	"math"
	"strings"

	"github.com/benoitkugler/svgscene/svgpath"
)

// Length is a coordinate, either absolute (in user units)
// or relative to the size of the target.
type Length struct {
	Value   float64
	Percent bool // Value is a percentage
}

// Px returns an absolute length.
func Px(v float64) Length { return Length{Value: v} }

// Percentage returns a length relative to the target size:
// Percentage(50) is half the reference dimension.
func Percentage(v float64) Length { return Length{Value: v, Percent: true} }

// ParseLength accepts numbers with an optional 'px' or '%' suffix.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, "%"); ok {
		f, err := svgpath.ParseFloat(v)
		return Percentage(f), err
	}
	f, err := svgpath.ParseFloat(s)
	return Px(f), err
}

type axis uint8

const (
	horizontal axis = iota
	vertical
	diagonal // used for radii
)

// resolve returns the length in user units, percentages being
// relative to the given dimensions.
func (l Length) resolve(a axis, width, height float64) float64 {
	if !l.Percent {
		return l.Value
	}
	var ref float64
	switch a {
	case horizontal:
		ref = width
	case vertical:
		ref = height
	default:
		ref = math.Sqrt(width*width+height*height) / math.Sqrt2
	}
	return l.Value * ref / 100
}
