// Implements a raster backend to render vector scenes,
// by wrapping rasterx.
package svgraster

import (
	"image"

	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ svgpath.Adder = (*rasterx.Filler)(nil)
	_ svgpath.Adder = (*rasterx.Dasher)(nil)
)

// renderer draws into one image, with separated
// instances for filling and stroking to avoid shared state.
type renderer struct {
	img    *image.RGBA
	dasher *rasterx.Dasher
	filler *rasterx.Filler
}

// newRenderer returns a renderer drawing into img.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
func newRenderer(img *image.RGBA) *renderer {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	fillScanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	strokeScanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &renderer{
		img:    img,
		dasher: rasterx.NewDasher(w, h, strokeScanner),
		filler: rasterx.NewFiller(w, h, fillScanner),
	}
}

func toRasterxGradient(grad svgpath.Gradient) rasterx.Gradient {
	var (
		points   [5]float64
		isRadial bool
	)
	switch dir := grad.Direction.(type) {
	case svgpath.Linear:
		points[0], points[1], points[2], points[3] = dir[0], dir[1], dir[2], dir[3]
		isRadial = false
	case svgpath.Radial:
		points[0], points[1], points[2], points[3], points[4] = dir[0], dir[1], dir[2], dir[3], dir[4] // in rasterx fr is ignored
		isRadial = true
	}
	stops := make([]rasterx.GradStop, len(grad.Stops))
	for i := range grad.Stops {
		stops[i] = rasterx.GradStop(grad.Stops[i])
	}
	return rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Bounds:   grad.Bounds,
		Matrix:   rasterx.Matrix2D(grad.Matrix),
		Spread:   rasterx.SpreadMethod(grad.Spread),
		Units:    rasterx.GradientUnits(grad.Units),
		IsRadial: isRadial,
	}
}

// resolve gradient color, ctm being the current user space transform
// It returns false if nothing should be painted.
func setColorFromPattern(pattern svgpath.Pattern, opacity float64, scanner rasterx.Scanner, ctm svgpath.Matrix2D) bool {
	switch pattern := pattern.(type) {
	case svgpath.PlainColor:
		scanner.SetColor(rasterx.ApplyOpacity(pattern, opacity))
		return true
	case svgpath.Gradient:
		if pattern.Units == svgpath.ObjectBoundingBox {
			fRect := scanner.GetPathExtent()
			mnx, mny := float64(fRect.Min.X)/64, float64(fRect.Min.Y)/64
			mxx, mxy := float64(fRect.Max.X)/64, float64(fRect.Max.Y)/64
			pattern.Bounds.X, pattern.Bounds.Y = mnx, mny
			pattern.Bounds.W, pattern.Bounds.H = mxx-mnx, mxy-mny
		} else {
			pattern.Matrix = ctm.Mult(pattern.Matrix)
		}
		if len(pattern.Stops) == 0 { // nothing to paint
			return false
		}
		rasterxGradient := toRasterxGradient(pattern)
		scanner.SetColor(rasterxGradient.GetColorFunction(opacity))
		return true
	}
	return false
}

func (rd *renderer) fill(p svgpath.Path, ctm svgpath.Matrix2D, pattern svgpath.Pattern, opacity float64, nonZero bool) {
	rd.filler.Clear()
	rd.filler.SetWinding(nonZero)
	p.AddTransformedTo(rd.filler, ctm)
	if setColorFromPattern(pattern, opacity, rd.filler.Scanner, ctm) {
		rd.filler.Draw()
	}
	rd.filler.SetWinding(true) // default is true
}

func (rd *renderer) stroke(p svgpath.Path, ctm svgpath.Matrix2D, pattern svgpath.Pattern, opacity float64, options StrokeOptions) {
	scale := ctm.ScaleFactor()
	var dash []float64
	if len(options.Dash) > 0 {
		dash = make([]float64, len(options.Dash))
		for i, d := range options.Dash {
			dash[i] = d * scale
		}
	}
	capFunc := capToFunc[options.LineCap]
	rd.dasher.Clear()
	rd.dasher.SetStroke(
		fixed.Int26_6(options.LineWidth*scale*64), fixed.Int26_6(options.MiterLimit*64),
		capFunc, capFunc, gapToFunc[options.LineGap],
		joinToJoin[options.LineJoin], dash, options.DashOffset*scale,
	)
	p.AddTransformedTo(rd.dasher, ctm)
	if setColorFromPattern(pattern, opacity, rd.dasher.Scanner, ctm) {
		rd.dasher.Draw()
	}
}
