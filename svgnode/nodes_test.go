package svgnode

import (
	"image/color"
	"testing"

	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgscene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red     = svgpath.NewPlainColor(0xff, 0, 0, 0xff)
	blue    = svgpath.NewPlainColor(0, 0, 0xff, 0xff)
	opRed   = color.RGBA{R: 0xff, A: 0xff}
	opBlue  = color.RGBA{B: 0xff, A: 0xff}
	nothing = color.RGBA{}
)

func rect(x, y, w, h float64, fill svgpath.Pattern) *Shape {
	s := NewShape(Rect{X: Px(x), Y: Px(y), Width: Px(w), Height: Px(h)})
	s.Fill = BrushOf(fill)
	return s
}

func newRoot(w, h int, children ...svgscene.Node) *svgscene.Root {
	root := svgscene.New(nil, svgscene.WithSize(w, h))
	root.SetChildren(children...)
	return root
}

func TestHitTestStacking(t *testing.T) {
	const A, B svgscene.Tag = 1, 2
	a, b := rect(0, 0, 10, 10, red), rect(5, 5, 10, 10, blue)
	a.Tag, a.Responsible = A, true
	b.Tag, b.Responsible = B, true

	root := newRoot(20, 20, a, b)
	img := root.Render()
	assert.Equal(t, opBlue, img.RGBAAt(6, 6))
	assert.Equal(t, opRed, img.RGBAAt(1, 1))

	tag, ok := root.HitTest(svgscene.Point{X: 6, Y: 6}, nil)
	require.True(t, ok)
	assert.Equal(t, B, tag)

	tag, ok = root.HitTest(svgscene.Point{X: 1, Y: 1}, nil)
	require.True(t, ok)
	assert.Equal(t, A, tag)

	_, ok = root.HitTest(svgscene.Point{X: 50, Y: 50}, nil)
	assert.False(t, ok)
}

func TestPercentageLengths(t *testing.T) {
	s := NewShape(Rect{Width: Percentage(50), Height: Percentage(100)})
	s.Fill = BrushOf(red)
	img := newRoot(20, 10, s).Render()
	assert.Equal(t, opRed, img.RGBAAt(5, 5))
	assert.Equal(t, nothing, img.RGBAAt(15, 5))

	l, err := ParseLength("25%")
	require.NoError(t, err)
	assert.Equal(t, Percentage(25), l)
	l, err = ParseLength("12px")
	require.NoError(t, err)
	assert.Equal(t, Px(12), l)
	_, err = ParseLength("twelve")
	assert.Error(t, err)

	assert.InDelta(t, 5, Percentage(50).resolve(diagonal, 10, 0)*1.4142135, 1e-3)
}

func TestTransform(t *testing.T) {
	s := rect(0, 0, 5, 5, red)
	s.Transform = svgpath.Identity.Translate(10, 10)
	s.Tag = 4
	root := newRoot(20, 20, s)
	root.EnableTouchEvents()
	img := root.Render()
	assert.Equal(t, opRed, img.RGBAAt(12, 12))
	assert.Equal(t, nothing, img.RGBAAt(2, 2))

	tag, ok := root.HitTest(svgscene.Point{X: 12, Y: 12}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(4), tag)
	_, ok = root.HitTest(svgscene.Point{X: 2, Y: 2}, nil)
	assert.False(t, ok)
}

func TestGradientBrush(t *testing.T) {
	grad := NewLinearGradient("grad1",
		svgpath.GradStop{StopColor: color.Black, Offset: 0, Opacity: 1},
		svgpath.GradStop{StopColor: color.White, Offset: 1, Opacity: 1},
	)
	painted := rect(0, 0, 100, 10, nil)
	painted.Fill = BrushRef("grad1")
	missing := rect(0, 10, 100, 10, nil)
	missing.Fill = BrushRef("grad2")

	root := newRoot(100, 20, NewDefs(grad), painted, missing)
	img := root.Render()

	left, right := img.RGBAAt(2, 5), img.RGBAAt(97, 5)
	assert.Equal(t, uint8(0xff), left.A)
	assert.Less(t, left.R, right.R)
	assert.Equal(t, nothing, img.RGBAAt(50, 15), "unknown brushes paint nothing")

	b, ok := root.Brush("grad1")
	require.True(t, ok)
	assert.Equal(t, svgpath.Pattern(grad.Brush()), b)
}

func TestRadialGradientBrush(t *testing.T) {
	grad := NewRadialGradient("radial",
		svgpath.GradStop{StopColor: color.White, Offset: 0, Opacity: 1},
		svgpath.GradStop{StopColor: color.Black, Offset: 1, Opacity: 1},
	)
	s := rect(0, 0, 40, 40, nil)
	s.Fill = BrushRef("radial")
	img := newRoot(40, 40, grad, s).Render()

	center, corner := img.RGBAAt(20, 20), img.RGBAAt(1, 1)
	assert.Greater(t, center.R, corner.R)

	dir, ok := grad.Brush().Direction.(svgpath.Radial)
	require.True(t, ok)
	assert.Equal(t, svgpath.Radial{0.5, 0.5, 0.5, 0.5, 0.5, 0}, dir)
}

func TestUseTemplate(t *testing.T) {
	tpl := rect(0, 0, 5, 5, red)
	tpl.Name = "tpl"
	tpl.Tag = 3

	use := NewUse("tpl")
	use.X, use.Y = Px(10), Px(0)
	unknown := NewUse("nope")

	root := newRoot(20, 10, NewDefs(tpl), use, unknown)
	root.EnableTouchEvents()
	img := root.Render()

	assert.Equal(t, nothing, img.RGBAAt(2, 2), "definitions are not drawn")
	assert.Equal(t, opRed, img.RGBAAt(12, 2))

	tag, ok := root.HitTest(svgscene.Point{X: 12, Y: 2}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(3), tag)

	use.Tag = 8
	tag, ok = root.HitTest(svgscene.Point{X: 12, Y: 2}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(8), tag)
}

func TestTemplateDrawnInPlace(t *testing.T) {
	tpl := rect(0, 0, 5, 5, red)
	tpl.Name = "tpl"
	use := NewUse("tpl")
	use.X = Px(10)

	img := newRoot(20, 10, tpl, use).Render()
	assert.Equal(t, opRed, img.RGBAAt(2, 2))
	assert.Equal(t, opRed, img.RGBAAt(12, 2))
}

func TestUseSelfReference(t *testing.T) {
	g := NewGroup(rect(0, 0, 5, 5, red), NewUse("loop"))
	g.Name = "loop"
	use := NewUse("loop")
	use.X = Px(10)

	img := newRoot(20, 10, g, use).Render()
	assert.Equal(t, opRed, img.RGBAAt(2, 2))
	assert.Equal(t, opRed, img.RGBAAt(12, 2))
}

func TestClipPath(t *testing.T) {
	clip := NewClipPath("clip", rect(0, 0, 10, 20, red))
	s := rect(0, 0, 20, 20, blue)
	s.ClipPath = "clip"
	s.Tag = 5
	unclipped := rect(0, 0, 20, 5, red)
	unclipped.ClipPath = "unknown"

	root := newRoot(20, 20, NewDefs(clip), s, unclipped)
	root.EnableTouchEvents()
	img := root.Render()

	assert.Equal(t, opBlue, img.RGBAAt(5, 10))
	assert.Equal(t, nothing, img.RGBAAt(15, 10))
	assert.Equal(t, opRed, img.RGBAAt(15, 2), "unknown clip paths do not clip")

	tag, ok := root.HitTest(svgscene.Point{X: 5, Y: 10}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(5), tag)
	_, ok = root.HitTest(svgscene.Point{X: 15, Y: 10}, nil)
	assert.False(t, ok)
}

func TestGroup(t *testing.T) {
	child := rect(0, 0, 10, 10, red)
	child.Tag = 1
	child.Responsible = true
	g := NewGroup(nil, child)
	g.Opacity = 0.5

	root := newRoot(10, 10, g)
	assert.True(t, g.IsResponsible())
	img := root.Render()
	assert.InDelta(t, 0x80, int(img.RGBAAt(5, 5).A), 2)

	tag, ok := root.HitTest(svgscene.Point{X: 5, Y: 5}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(1), tag)

	g.Tag = 9
	tag, ok = root.HitTest(svgscene.Point{X: 5, Y: 5}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(9), tag)
}

func TestStrokeHitTest(t *testing.T) {
	s := NewShape(Line{X1: Px(0), Y1: Px(10), X2: Px(20), Y2: Px(10)})
	s.Fill = Brush{}
	s.Stroke = BrushOf(blue)
	s.StrokeOptions.LineWidth = 4
	s.Tag = 6

	root := newRoot(20, 20, s)
	root.EnableTouchEvents()
	img := root.Render()
	assert.Equal(t, opBlue, img.RGBAAt(10, 10))

	tag, ok := root.HitTest(svgscene.Point{X: 10, Y: 11}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(6), tag)
	_, ok = root.HitTest(svgscene.Point{X: 10, Y: 15}, nil)
	assert.False(t, ok)
}

func TestPathData(t *testing.T) {
	p, err := svgpath.ParsePathData("M0 0 H10 V10 H0 Z")
	require.NoError(t, err)
	s := NewShape(PathData(p))
	s.EvenOdd = true
	img := newRoot(20, 20, s).Render()
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(5, 5))
	assert.Equal(t, nothing, img.RGBAAt(15, 15))
}

func TestUseHitTestAtEachSite(t *testing.T) {
	a := rect(0, 0, 10, 10, red)
	a.Name, a.Tag, a.Responsible = "a", 1, true
	moved := NewUse("a")
	moved.X, moved.Tag = Px(100), 2
	inherited := NewUse("a")
	inherited.X = Px(50)

	root := newRoot(120, 20, a, moved, inherited)
	for range 2 {
		img := root.Render()
		assert.Equal(t, opRed, img.RGBAAt(5, 5))
		assert.Equal(t, opRed, img.RGBAAt(55, 5))
		assert.Equal(t, opRed, img.RGBAAt(105, 5))

		for _, tt := range []struct {
			x   float64
			tag svgscene.Tag
		}{{5, 1}, {55, 1}, {105, 2}} {
			tag, ok := root.HitTest(svgscene.Point{X: tt.x, Y: 5}, nil)
			require.True(t, ok, "x = %v", tt.x)
			assert.Equal(t, tt.tag, tag, "x = %v", tt.x)
		}
		for _, x := range []float64{30, 75, 115} {
			_, ok := root.HitTest(svgscene.Point{X: x, Y: 5}, nil)
			assert.False(t, ok, "x = %v", x)
		}
	}
}

func TestSharedClipPath(t *testing.T) {
	clip := NewClipPath("clip", rect(0, 0, 10, 10, red))
	left := rect(0, 0, 20, 20, blue)
	left.ClipPath, left.Tag = "clip", 1
	right := rect(0, 0, 20, 20, red)
	right.ClipPath, right.Tag = "clip", 2
	right.Transform = svgpath.Identity.Translate(40, 0)

	root := newRoot(60, 20, NewDefs(clip), left, right)
	root.EnableTouchEvents()
	img := root.Render()
	assert.Equal(t, opBlue, img.RGBAAt(5, 5))
	assert.Equal(t, nothing, img.RGBAAt(15, 5))
	assert.Equal(t, opRed, img.RGBAAt(45, 5))
	assert.Equal(t, nothing, img.RGBAAt(55, 5))

	tag, ok := root.HitTest(svgscene.Point{X: 5, Y: 5}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(1), tag)
	tag, ok = root.HitTest(svgscene.Point{X: 45, Y: 5}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(2), tag)
	for _, x := range []float64{15, 55} {
		_, ok = root.HitTest(svgscene.Point{X: x, Y: 5}, nil)
		assert.False(t, ok, "x = %v", x)
	}
}

func TestUnresolvedBrushIsNotHit(t *testing.T) {
	filled := rect(0, 0, 10, 10, nil)
	filled.Fill = BrushRef("missing")
	filled.Tag = 4
	stroked := NewShape(Line{X1: Px(0), Y1: Px(15), X2: Px(20), Y2: Px(15)})
	stroked.Fill = Brush{}
	stroked.Stroke = BrushRef("missing")
	stroked.StrokeOptions.LineWidth = 4
	stroked.Tag = 5

	root := newRoot(20, 20, filled, stroked)
	root.EnableTouchEvents()
	img := root.Render()
	assert.Equal(t, nothing, img.RGBAAt(5, 5))
	assert.Equal(t, nothing, img.RGBAAt(10, 15))

	_, ok := root.HitTest(svgscene.Point{X: 5, Y: 5}, nil)
	assert.False(t, ok)
	_, ok = root.HitTest(svgscene.Point{X: 10, Y: 15}, nil)
	assert.False(t, ok)
}

func TestGroupDrawnBounds(t *testing.T) {
	a, b := rect(0, 0, 5, 5, red), rect(10, 10, 5, 5, blue)
	a.Tag, b.Tag = 1, 2
	g := NewGroup(a, b)
	g.Transform = svgpath.Identity.Translate(2, 0)

	root := newRoot(20, 20, g)
	root.EnableTouchEvents()
	root.Render()

	bounds, exact := g.drawnBounds()
	require.True(t, exact)
	assert.InDelta(t, 2, bounds.X, 1e-2)
	assert.InDelta(t, 0, bounds.Y, 1e-2)
	assert.InDelta(t, 15, bounds.W, 1e-2)
	assert.InDelta(t, 15, bounds.H, 1e-2)

	tag, ok := root.HitTest(svgscene.Point{X: 14, Y: 12}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(2), tag)
	_, ok = root.HitTest(svgscene.Point{X: 10, Y: 7}, nil)
	assert.False(t, ok, "between the children")
	_, ok = root.HitTest(svgscene.Point{X: 19, Y: 19}, nil)
	assert.False(t, ok, "outside the group box")

	g.Children = append(g.Children, NewUse("unknown"))
	root.Render()
	_, exact = g.drawnBounds()
	assert.True(t, exact, "a Use drawing nothing has an empty box")
}
