package svgnode

import (
	"context"
	"image"
	"reflect"
	"sync"

	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

type loadState uint8

const (
	notLoaded loadState = iota
	loading
	loaded
	failed
)

// Image draws a raster image scaled to its box. The image is
// fetched in the background on first draw: nothing is drawn until
// it is available, then a new render pass is requested.
type Image struct {
	Attributes
	Href                string
	X, Y, Width, Height Length
	Loader              *Loader // a default loader is used if nil

	box svgpath.Bounds
	hit imageHit

	mu     sync.Mutex // guards the fields below, written by the loading goroutine
	state  loadState
	img    image.Image
	err    error
	done   chan struct{}        // closed once the load is over
	scheds []svgscene.Scheduler // notified when the load succeeds
}

// imageHit records the last draw of an image.
type imageHit struct {
	drawn  bool
	ctm    svgpath.Matrix2D
	box    svgpath.Bounds // in user space, intrinsic size resolved
	bounds svgpath.Bounds // device box
}

type imageState struct {
	attr attrHit
	hit  imageHit
}

var (
	_ svgscene.Node = (*Image)(nil)
	_ hitRecorder   = (*Image)(nil)
	_ bounded       = (*Image)(nil)
)

func NewImage(href string, loader *Loader) *Image {
	return &Image{Attributes: DefaultAttributes(), Href: href, Loader: loader}
}

func (im *Image) SetupDimensions(t *svgraster.Target) {
	w, h := float64(t.Width()), float64(t.Height())
	im.box = svgpath.Bounds{
		X: im.X.resolve(horizontal, w, h), Y: im.Y.resolve(vertical, w, h),
		W: im.Width.resolve(horizontal, w, h), H: im.Height.resolve(vertical, w, h),
	}
}

func (im *Image) SaveDefinition(defs *svgscene.Definitions) { saveTemplate(defs, im, im.Name) }

func (im *Image) Draw(t *svgraster.Target, p *svgscene.Paint, opacity float64) {
	im.hit = imageHit{}
	var sched svgscene.Scheduler
	if p != nil {
		sched = p.Scheduler
	}
	img := im.image(sched)
	if img == nil {
		return
	}
	im.render(t, p, opacity, func(opacity float64) {
		box := im.box
		if box.W <= 0 || box.H <= 0 { // intrinsic size
			b := img.Bounds()
			box.W, box.H = float64(b.Dx()), float64(b.Dy())
		}
		ctm := t.Transform()
		im.hit = imageHit{
			drawn:  true,
			ctm:    ctm,
			box:    box,
			bounds: svgpath.NewRect(box.X, box.Y, box.W, box.H, 0, 0).Bounds(ctm),
		}
		t.DrawImage(img, box, opacity)
	})
}

// Loaded returns true once the image is available.
func (im *Image) Loaded() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.state == loaded
}

// Wait starts loading the image if needed, and blocks until
// it is available or the load failed.
func (im *Image) Wait(ctx context.Context) error {
	im.image(nil)
	im.mu.Lock()
	done := im.done
	im.mu.Unlock()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.err
}

// image returns the decoded image, or nil while it is not available,
// starting the load if needed. sched, if not nil, is notified
// when a pending load succeeds.
func (im *Image) image(sched svgscene.Scheduler) image.Image {
	im.mu.Lock()
	defer im.mu.Unlock()
	switch im.state {
	case notLoaded:
		im.state = loading
		im.done = make(chan struct{})
		im.addScheduler(sched)
		loader := im.Loader
		if loader == nil {
			loader = defaultLoader()
		}
		go im.load(loader)
		return nil
	case loading:
		im.addScheduler(sched)
		return nil
	}
	return im.img
}

// addScheduler must be called with mu held.
func (im *Image) addScheduler(sched svgscene.Scheduler) {
	if sched == nil {
		return
	}
	for _, s := range im.scheds {
		if sameScheduler(s, sched) {
			return
		}
	}
	im.scheds = append(im.scheds, sched)
}

func sameScheduler(a, b svgscene.Scheduler) bool {
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}

func (im *Image) load(loader *Loader) {
	img, err := loader.Load(context.Background(), im.Href)

	im.mu.Lock()
	if err != nil {
		im.state, im.err = failed, err
	} else {
		im.state, im.img = loaded, img
	}
	scheds := im.scheds
	im.scheds = nil
	close(im.done)
	im.mu.Unlock()

	if err != nil {
		svgscene.Logger().Warn("svgnode: image not loaded", "href", shortHref(im.Href), "err", err)
		return
	}
	for _, sched := range scheds {
		sched.RequestRender()
	}
}

func (im *Image) IsResponsible() bool { return im.Responsible }

func (im *Image) HitTest(pt svgscene.Point, _ svgscene.View) (svgscene.Tag, bool) {
	h := im.hit
	if !h.drawn || !h.bounds.Contains(pt.X, pt.Y) || !im.inClip(pt) {
		return 0, false
	}
	inv, ok := h.ctm.Invert()
	if !ok {
		return 0, false
	}
	x, y := inv.Transform(pt.X, pt.Y)
	if h.box.Contains(x, y) {
		return im.Tag, true
	}
	return 0, false
}

func (im *Image) hitState() any { return imageState{attr: im.attrHit(), hit: im.hit} }

func (im *Image) setHitState(state any) {
	st, _ := state.(imageState)
	im.setAttrHit(st.attr)
	im.hit = st.hit
}

func (im *Image) drawnBounds() (svgpath.Bounds, bool) {
	if !im.hit.drawn {
		return svgpath.Bounds{}, true
	}
	return im.hit.bounds, true
}

var defaultLoader = sync.OnceValue(func() *Loader { return NewLoader() })
