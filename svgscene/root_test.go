package svgscene

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = svgpath.NewPlainColor(0xff, 0, 0, 0xff)
	blue = svgpath.NewPlainColor(0, 0, 0xff, 0xff)
)

// rectNode is a minimal drawable node covering a rectangle.
type rectNode struct {
	x, y, w, h  float64
	tag         Tag
	responsible bool
	fill        svgpath.Pattern
}

func (n *rectNode) SetupDimensions(*svgraster.Target) {}
func (n *rectNode) SaveDefinition(*Definitions)       {}

func (n *rectNode) Draw(t *svgraster.Target, _ *Paint, opacity float64) {
	t.Fill(svgpath.NewRect(n.x, n.y, n.w, n.h, 0, 0), n.fill, opacity, true)
}

func (n *rectNode) IsResponsible() bool { return n.responsible }

func (n *rectNode) HitTest(pt Point, _ View) (Tag, bool) {
	b := svgpath.Bounds{X: n.x, Y: n.y, W: n.w, H: n.h}
	if b.Contains(pt.X, pt.Y) {
		return n.tag, true
	}
	return 0, false
}

// funcNode delegates to optional callbacks.
type funcNode struct {
	save func(*Definitions)
	draw func(*svgraster.Target, *Paint)
}

func (n *funcNode) SetupDimensions(*svgraster.Target) {}

func (n *funcNode) SaveDefinition(defs *Definitions) {
	if n.save != nil {
		n.save(defs)
	}
}

func (n *funcNode) Draw(t *svgraster.Target, p *Paint, _ float64) {
	if n.draw != nil {
		n.draw(t, p)
	}
}

func (n *funcNode) IsResponsible() bool              { return false }
func (n *funcNode) HitTest(Point, View) (Tag, bool) { return 0, false }

type testSurface struct {
	mu          sync.Mutex
	displayed   []*image.RGBA
	invalidated []image.Rectangle
}

func (s *testSurface) Invalidate(r image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, r)
}

func (s *testSurface) Display(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayed = append(s.displayed, img)
}

func (s *testSurface) frames() []*image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*image.RGBA(nil), s.displayed...)
}

type testHost struct{ surface Surface }

func (h testHost) RootSurface() Surface { return h.surface }

type testViews []View

func (v testViews) ChildAt(i int) View { return v[i] }

func TestHitTestOrder(t *testing.T) {
	const A, B Tag = 1, 2
	root := New(nil, WithSize(20, 20))
	root.SetChildren(
		&rectNode{x: 0, y: 0, w: 10, h: 10, tag: A, responsible: true, fill: red},
		&rectNode{x: 5, y: 5, w: 10, h: 10, tag: B, responsible: true, fill: blue},
	)
	root.Render()

	tag, ok := root.HitTest(Point{6, 6}, nil)
	require.True(t, ok)
	assert.Equal(t, B, tag)

	tag, ok = root.HitTest(Point{1, 1}, nil)
	require.True(t, ok)
	assert.Equal(t, A, tag)

	_, ok = root.HitTest(Point{50, 50}, nil)
	assert.False(t, ok)
}

func TestHitTestForwardsViews(t *testing.T) {
	var got []View
	root := New(nil)
	root.EnableTouchEvents()
	root.SetChildren(
		&recordingNode{views: &got},
		nil,
		&recordingNode{views: &got},
	)
	_, ok := root.HitTest(Point{}, testViews{"a", "b", "c"})
	assert.False(t, ok)
	assert.Equal(t, []View{"c", "a"}, got)
}

type recordingNode struct {
	funcNode
	views *[]View
}

func (n *recordingNode) HitTest(_ Point, v View) (Tag, bool) {
	*n.views = append(*n.views, v)
	return 0, false
}

func TestResponsibleLatch(t *testing.T) {
	root := New(nil, WithSize(20, 20))
	root.SetChildren(&rectNode{w: 10, h: 10, tag: 7, fill: red})
	root.Render()

	assert.False(t, root.Responsible())
	_, ok := root.HitTest(Point{1, 1}, nil)
	assert.False(t, ok, "a root which is not responsible must not route hits")

	root.EnableTouchEvents()
	root.EnableTouchEvents()
	tag, ok := root.HitTest(Point{1, 1}, nil)
	require.True(t, ok)
	assert.Equal(t, Tag(7), tag)

	// a later pass without responsible child keeps the latch
	root.Render()
	assert.True(t, root.Responsible())
}

func TestResponsibleFromChild(t *testing.T) {
	root := New(nil, WithSize(20, 20))
	root.SetChildren(&rectNode{w: 10, h: 10, responsible: true, fill: red})
	assert.False(t, root.Responsible())
	root.Render()
	assert.True(t, root.Responsible())

	root.SetChildren()
	root.Render()
	assert.True(t, root.Responsible())
}

func TestDefinitionsRedefine(t *testing.T) {
	defs := NewDefinitions()
	a, b := &rectNode{tag: 1}, &rectNode{tag: 2}

	defs.DefineClipPath(a, "clip")
	defs.DefineClipPath(b, "clip")
	n, ok := defs.ClipPath("clip")
	require.True(t, ok)
	assert.Same(t, b, n)

	defs.DefineTemplate(a, "tpl")
	defs.DefineTemplate(b, "tpl")
	n, ok = defs.Template("tpl")
	require.True(t, ok)
	assert.Same(t, b, n)

	defs.DefineBrush(red, "brush")
	defs.DefineBrush(blue, "brush")
	br, ok := defs.Brush("brush")
	require.True(t, ok)
	assert.Equal(t, blue, br)

	// the three kinds are independent
	_, ok = defs.Brush("clip")
	assert.False(t, ok)
	_, ok = defs.ClipPath("tpl")
	assert.False(t, ok)
	_, ok = defs.Template("brush")
	assert.False(t, ok)
}

func TestBrushLookup(t *testing.T) {
	grad := svgpath.NewLinearGradient(svgpath.GradStop{StopColor: color.Black, Opacity: 1})

	var (
		found, missing bool
		got            svgpath.Pattern
	)
	root := New(nil, WithSize(10, 10))
	root.SetChildren(
		&funcNode{save: func(defs *Definitions) { defs.DefineBrush(grad, "grad1") }},
		&funcNode{draw: func(_ *svgraster.Target, p *Paint) {
			got, found = p.Defs.Brush("grad1")
			_, missing = p.Defs.Brush("grad2")
		}},
	)
	root.Render()

	require.True(t, found)
	assert.Equal(t, svgpath.Pattern(grad), got)
	assert.False(t, missing)

	got, ok := root.Brush("grad1")
	require.True(t, ok)
	assert.Equal(t, svgpath.Pattern(grad), got)
}

func TestForwardReference(t *testing.T) {
	var lookups []bool
	root := New(nil, WithSize(10, 10))
	root.SetChildren(
		&funcNode{draw: func(_ *svgraster.Target, p *Paint) {
			_, ok := p.Defs.Template("later")
			lookups = append(lookups, ok)
		}},
		&funcNode{save: func(defs *Definitions) { defs.DefineTemplate(&rectNode{}, "later") }},
	)

	root.Render()
	root.Render()
	// undefined on the first pass, then resolved from the previous pass
	assert.Equal(t, []bool{false, true}, lookups)
}

func TestStaleDefinitionsKept(t *testing.T) {
	root := New(nil, WithSize(10, 10))
	root.SetChildren(&funcNode{save: func(defs *Definitions) { defs.DefineBrush(red, "r") }})
	root.Render()

	root.SetChildren()
	root.Render()
	b, ok := root.Brush("r")
	require.True(t, ok)
	assert.Equal(t, svgpath.Pattern(red), b)
}

func TestRenderSkipsNilChildren(t *testing.T) {
	root := New(nil, WithSize(20, 20))
	root.SetChildren(nil, &rectNode{w: 10, h: 10, fill: red}, nil)
	img := root.Render()

	require.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(15, 15))
}

func TestPanickingChildIsContained(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	root := New(nil, WithSize(20, 20))
	root.SetChildren(
		&funcNode{draw: func(tg *svgraster.Target, _ *Paint) {
			tg.Save()
			tg.Fill(svgpath.NewRect(0, 0, 20, 20, 0, 0), red, 1, true)
			panic("broken node")
		}},
		&rectNode{x: 10, y: 10, w: 10, h: 10, fill: blue},
	)
	img := root.Render()

	assert.Equal(t, color.RGBA{}, img.RGBAAt(5, 5), "partial output must be discarded")
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, img.RGBAAt(15, 15))
	assert.Contains(t, logs.String(), "broken node")
}

func TestConcurrentRenders(t *testing.T) {
	var (
		inFlight   atomic.Int32
		overlapped atomic.Bool
	)
	root := New(nil, WithSize(10, 10))
	root.EnableTouchEvents()
	root.SetChildren(
		&funcNode{draw: func(*svgraster.Target, *Paint) {
			if inFlight.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}},
		&rectNode{w: 10, h: 10, tag: 3, fill: red},
	)

	const N = 8
	images := make([]*image.RGBA, N)
	var wg sync.WaitGroup
	for i := range images {
		wg.Add(2)
		go func() {
			defer wg.Done()
			images[i] = root.Render()
		}()
		go func() {
			defer wg.Done()
			tag, ok := root.HitTest(Point{5, 5}, nil)
			assert.True(t, ok)
			assert.Equal(t, Tag(3), tag)
		}()
	}
	wg.Wait()

	assert.False(t, overlapped.Load())
	for _, img := range images {
		assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(5, 5))
	}
}

func TestInvalidateWithoutSurface(t *testing.T) {
	rect := image.Rect(0, 0, 4, 4)
	New(nil).Invalidate(rect)
	New(testHost{}).Invalidate(rect)
	New(testHost{}).Update()

	s := &testSurface{}
	New(testHost{s}).Invalidate(rect)
	assert.Equal(t, []image.Rectangle{rect}, s.invalidated)
}

func TestUpdate(t *testing.T) {
	s := &testSurface{}
	root := New(testHost{s}, WithSize(10, 10))
	root.SetChildren(&rectNode{w: 10, h: 10, fill: red})
	root.Update()

	frames := s.frames()
	require.Len(t, frames, 1)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, frames[0].RGBAAt(5, 5))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 10, 10)}, s.invalidated)
}

// orderedSurface checks that every frame it receives
// is the last one drawn.
type orderedSurface struct {
	draws     *atomic.Int32
	displayed atomic.Int32
	inFlight  atomic.Int32
	stale     atomic.Bool
}

func (s *orderedSurface) Invalidate(image.Rectangle) {}

func (s *orderedSurface) Display(*image.RGBA) {
	if s.inFlight.Add(1) > 1 {
		s.stale.Store(true)
	}
	if s.draws.Load() != s.displayed.Add(1) {
		s.stale.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	s.inFlight.Add(-1)
}

func TestConcurrentUpdatesDisplayInOrder(t *testing.T) {
	var draws atomic.Int32
	s := &orderedSurface{draws: &draws}
	root := New(testHost{s}, WithSize(4, 4))
	root.SetChildren(&funcNode{draw: func(*svgraster.Target, *Paint) { draws.Add(1) }})

	const N = 16
	var wg sync.WaitGroup
	for range N {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.Update()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(N), s.displayed.Load())
	assert.False(t, s.stale.Load(), "a frame was displayed after a newer render")
}

func TestSize(t *testing.T) {
	root := New(nil, WithSize(3, 4))
	w, h := root.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 4, h)

	root.SetSize(30, 40)
	img := root.Render()
	assert.Equal(t, image.Rect(0, 0, 30, 40), img.Bounds())
}
