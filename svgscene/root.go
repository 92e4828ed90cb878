// Package svgscene implements the root of a retained mode vector scene:
// it orchestrates the render passes of its children, owns the named
// definitions they share and routes hit tests in painter's order.
package svgscene

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
)

// Option configures a Root.
type Option func(*Root)

// WithSize sets the initial size of the root surface, in pixels.
func WithSize(width, height int) Option {
	return func(r *Root) { r.width, r.height = width, height }
}

// Root is the surface node of a scene. It is created when the surface
// mounts and dropped when it unmounts: its definitions and its
// responsible latch are never reset in between.
type Root struct {
	mu        sync.Mutex // held during a render pass and a hit test
	displayMu sync.Mutex // held from a render to its display, so frames reach the surface in order

	responsible atomic.Bool
	defs        *Definitions
	host        Host // may be nil

	stateMu       sync.RWMutex // guards the fields below
	width, height int
	children      []Node

	sched *scheduler
}

// New returns a root attached to host, which may be nil.
func New(host Host, opts ...Option) *Root {
	r := &Root{
		defs:  NewDefinitions(),
		host:  host,
		sched: newScheduler(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSize updates the bounds supplied by the host layout.
// Bounds are not validated.
func (r *Root) SetSize(width, height int) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.width, r.height = width, height
}

// Size returns the current bounds.
func (r *Root) Size() (width, height int) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.width, r.height
}

// SetChildren replaces the children of the root.
// nil entries are not drawable and are skipped.
func (r *Root) SetChildren(children ...Node) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.children = append([]Node(nil), children...)
}

// Children returns the current children. The returned slice
// must not be modified.
func (r *Root) Children() []Node {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.children
}

// Definitions returns the registries shared by the nodes of the tree.
func (r *Root) Definitions() *Definitions { return r.defs }

// The definition operations forward to the registries of the root.

func (r *Root) DefineClipPath(node Node, name string)      { r.defs.DefineClipPath(node, name) }
func (r *Root) ClipPath(name string) (Node, bool)          { return r.defs.ClipPath(name) }
func (r *Root) DefineTemplate(node Node, name string)      { r.defs.DefineTemplate(node, name) }
func (r *Root) Template(name string) (Node, bool)          { return r.defs.Template(name) }
func (r *Root) DefineBrush(b svgpath.Pattern, name string) { r.defs.DefineBrush(b, name) }
func (r *Root) Brush(name string) (svgpath.Pattern, bool)  { return r.defs.Brush(name) }

// Render draws the tree on a new transparent image of the current size.
func (r *Root) Render() *image.RGBA {
	w, h := r.Size()
	Logger().Debug("svgscene: render pass", "width", w, "height", h)
	t := svgraster.New(w, h)
	r.DrawChildren(t)
	return t.Image()
}

// DrawChildren draws every child on t, in tree order.
// Only one call runs at a time for a given root: concurrent callers block.
// A child panicking while drawing is logged and its output discarded,
// without affecting its siblings.
func (r *Root) DrawChildren(t *svgraster.Target) {
	r.mu.Lock()
	defer r.mu.Unlock()

	paint := &Paint{Defs: r.defs, Scheduler: r}
	for i, child := range r.Children() {
		if child == nil {
			continue
		}
		r.drawChild(t, paint, i, child)
		if child.IsResponsible() {
			r.responsible.Store(true)
		}
	}
}

func (r *Root) drawChild(t *svgraster.Target, paint *Paint, index int, child Node) {
	before := t.State()
	t.PushLayer(nil, 1)
	inner := t.State()
	defer func() {
		if v := recover(); v != nil {
			t.Reset(before)
			Logger().Warn("svgscene: discarding child output", "index", index, "panic", v)
			return
		}
		t.Reset(inner)
		t.PopLayer()
	}()

	child.SetupDimensions(t)
	child.SaveDefinition(r.defs)
	child.Draw(t, paint, 1)
}

// Update renders the tree and hands the frame to the host surface.
// It does nothing when no surface is mounted.
// Concurrent updates are serialized: the surface never receives
// a frame older than the one it displays. Surfaces must not call
// Update from Display or Invalidate.
func (r *Root) Update() {
	s := r.surface()
	if s == nil {
		return
	}
	r.displayMu.Lock()
	defer r.displayMu.Unlock()
	img := r.Render()
	s.Display(img)
	s.Invalidate(img.Bounds())
}

// HitTest returns the tag of the topmost child under pt.
// view, which may be nil, provides the host views of the children.
// Nothing is returned until the root is responsible.
func (r *Root) HitTest(pt Point, view ViewGroup) (Tag, bool) {
	if !r.responsible.Load() {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	children := r.Children()
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if child == nil {
			continue
		}
		var v View
		if view != nil {
			v = view.ChildAt(i)
		}
		if tag, ok := child.HitTest(pt, v); ok {
			return tag, true
		}
	}
	return 0, false
}

// EnableTouchEvents makes the root responsible. It is never undone.
func (r *Root) EnableTouchEvents() { r.responsible.Store(true) }

// Responsible returns true once the root accepts touch events.
func (r *Root) Responsible() bool { return r.responsible.Load() }

// Invalidate asks the host to repaint rect. It is dropped
// when no surface is mounted.
func (r *Root) Invalidate(rect image.Rectangle) {
	if s := r.surface(); s != nil {
		s.Invalidate(rect)
	}
}

func (r *Root) surface() Surface {
	if r.host == nil {
		return nil
	}
	return r.host.RootSurface()
}
