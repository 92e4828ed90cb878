package svgnode

import (
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

// Geometry builds the outline of a shape once the
// size of the target is known.
type Geometry interface {
	Path(width, height float64) svgpath.Path
}

type Rect struct{ X, Y, Width, Height, RX, RY Length }

func (r Rect) Path(w, h float64) svgpath.Path {
	return svgpath.NewRect(
		r.X.resolve(horizontal, w, h), r.Y.resolve(vertical, w, h),
		r.Width.resolve(horizontal, w, h), r.Height.resolve(vertical, w, h),
		r.RX.resolve(horizontal, w, h), r.RY.resolve(vertical, w, h),
	)
}

type Circle struct{ CX, CY, R Length }

func (c Circle) Path(w, h float64) svgpath.Path {
	r := c.R.resolve(diagonal, w, h)
	return svgpath.NewEllipse(c.CX.resolve(horizontal, w, h), c.CY.resolve(vertical, w, h), r, r)
}

type Ellipse struct{ CX, CY, RX, RY Length }

func (e Ellipse) Path(w, h float64) svgpath.Path {
	return svgpath.NewEllipse(
		e.CX.resolve(horizontal, w, h), e.CY.resolve(vertical, w, h),
		e.RX.resolve(horizontal, w, h), e.RY.resolve(vertical, w, h),
	)
}

type Line struct{ X1, Y1, X2, Y2 Length }

func (l Line) Path(w, h float64) svgpath.Path {
	return svgpath.NewLine(
		l.X1.resolve(horizontal, w, h), l.Y1.resolve(vertical, w, h),
		l.X2.resolve(horizontal, w, h), l.Y2.resolve(vertical, w, h),
	)
}

// Polyline joins points given as x0, y0, x1, y1...
type Polyline struct {
	Points []float64
	Closed bool // polygon
}

func (p Polyline) Path(_, _ float64) svgpath.Path { return svgpath.NewPolyline(p.Points, p.Closed) }

// PathData is an explicit outline, in user units.
type PathData svgpath.Path

func (p PathData) Path(_, _ float64) svgpath.Path { return svgpath.Path(p) }

// Shape fills then strokes a geometry.
type Shape struct {
	Attributes

	Geometry Geometry
	Fill     Brush
	Stroke   Brush

	FillOpacity   float64
	StrokeOpacity float64
	EvenOdd       bool // fill rule, non zero by default
	StrokeOptions svgraster.StrokeOptions

	path svgpath.Path
	hit  shapeHit
}

// shapeHit records the last draw of a shape.
type shapeHit struct {
	drawn           bool
	ctm             svgpath.Matrix2D // user space to device
	bounds          svgpath.Bounds   // device box, stroke included
	filled, stroked bool             // channels actually painted
}

type shapeState struct {
	attr attrHit
	hit  shapeHit
}

var (
	_ svgscene.Node = (*Shape)(nil)
	_ Clipper       = (*Shape)(nil)
	_ hitRecorder   = (*Shape)(nil)
	_ bounded       = (*Shape)(nil)
)

// NewShape returns a shape filled in black, without stroke.
func NewShape(g Geometry) *Shape {
	return &Shape{
		Attributes:    DefaultAttributes(),
		Geometry:      g,
		Fill:          BrushOf(svgpath.NewPlainColor(0, 0, 0, 0xff)),
		FillOpacity:   1,
		StrokeOpacity: 1,
		StrokeOptions: svgraster.DefaultStroke,
	}
}

func (s *Shape) SetupDimensions(t *svgraster.Target) {
	s.path = nil
	if s.Geometry != nil {
		s.path = s.Geometry.Path(float64(t.Width()), float64(t.Height()))
	}
}

func (s *Shape) SaveDefinition(defs *svgscene.Definitions) { saveTemplate(defs, s, s.Name) }

func (s *Shape) Draw(t *svgraster.Target, p *svgscene.Paint, opacity float64) {
	s.hit = shapeHit{}
	s.render(t, p, opacity, func(opacity float64) {
		var defs *svgscene.Definitions
		if p != nil {
			defs = p.Defs
		}
		fill, stroke := s.Fill.resolve(defs), s.Stroke.resolve(defs)
		ctm := t.Transform()
		h := shapeHit{
			drawn:   true,
			ctm:     ctm,
			bounds:  s.path.Bounds(ctm),
			filled:  fill != nil,
			stroked: stroke != nil && s.StrokeOptions.LineWidth > 0,
		}
		if h.stroked {
			h.bounds = h.bounds.Outset(s.halfWidth(ctm))
		}
		s.hit = h

		t.Fill(s.path, fill, opacity*s.FillOpacity, !s.EvenOdd)
		t.Stroke(s.path, stroke, opacity*s.StrokeOpacity, s.StrokeOptions)
	})
}

func (s *Shape) halfWidth(ctm svgpath.Matrix2D) float64 {
	return s.StrokeOptions.LineWidth * ctm.ScaleFactor() / 2
}

func (s *Shape) IsResponsible() bool { return s.Responsible }

// HitTest tests pt against the painted fill and stroke
// of the shape, as last drawn.
func (s *Shape) HitTest(pt svgscene.Point, _ svgscene.View) (svgscene.Tag, bool) {
	h := s.hit
	if !h.drawn || !h.bounds.Contains(pt.X, pt.Y) || !s.inClip(pt) {
		return 0, false
	}
	if h.filled && s.path.Contains(pt.X, pt.Y, h.ctm, !s.EvenOdd) {
		return s.Tag, true
	}
	if h.stroked && s.path.NearStroke(pt.X, pt.Y, h.ctm, s.halfWidth(h.ctm)) {
		return s.Tag, true
	}
	return 0, false
}

func (s *Shape) hitState() any { return shapeState{attr: s.attrHit(), hit: s.hit} }

func (s *Shape) setHitState(state any) {
	st, _ := state.(shapeState)
	s.setAttrHit(st.attr)
	s.hit = st.hit
}

func (s *Shape) drawnBounds() (svgpath.Bounds, bool) {
	if !s.hit.drawn {
		return svgpath.Bounds{}, true
	}
	return s.hit.bounds, true
}

var opaque = svgpath.NewPlainColor(0, 0, 0, 0xff)

func (s *Shape) DrawClip(t *svgraster.Target) {
	t.Save()
	defer t.Restore()
	t.Concat(s.Transform)
	t.Fill(s.path, opaque, 1, !s.EvenOdd)
}

func (s *Shape) ClipContains(pt svgscene.Point, ctm svgpath.Matrix2D) bool {
	return s.path.Contains(pt.X, pt.Y, ctm.Mult(s.Transform), !s.EvenOdd)
}
