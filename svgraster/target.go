package svgraster

import (
	"image"
	"image/color"
	"sync"

	"github.com/benoitkugler/svgscene/svgpath"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// layerPool recycles the off-screen buffers used by layers and masks.
var layerPool sync.Pool // *image.RGBA

func getBuffer(w, h int) *image.RGBA {
	if v := layerPool.Get(); v != nil {
		img := v.(*image.RGBA)
		if img.Rect.Dx() == w && img.Rect.Dy() == h {
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func putBuffer(img *image.RGBA) { layerPool.Put(img) }

// layer is an off-screen buffer, composited on its parent when popped.
type layer struct {
	*renderer
	mask    *image.RGBA // optional
	opacity float64
}

// Target is an off-screen pixel buffer with a drawing context:
// a stack of user space transforms and a stack of layers.
// A Target is not safe for concurrent use.
type Target struct {
	width, height int

	base       *renderer
	layers     []layer
	transforms []svgpath.Matrix2D // the last item is the current transform
}

// New allocates a fully transparent target of size width x height.
func New(width, height int) *Target {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return newTarget(img)
}

func newTarget(img *image.RGBA) *Target {
	return &Target{
		width:      img.Rect.Dx(),
		height:     img.Rect.Dy(),
		base:       newRenderer(img),
		transforms: []svgpath.Matrix2D{svgpath.Identity},
	}
}

// Width returns the width of the target, in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the height of the target, in pixels.
func (t *Target) Height() int { return t.height }

// Bounds returns the pixel rectangle of the target.
func (t *Target) Bounds() image.Rectangle { return image.Rect(0, 0, t.width, t.height) }

// Image returns the composited pixels. Layers still pushed
// are not visible in the returned image.
func (t *Target) Image() *image.RGBA { return t.base.img }

func (t *Target) current() *renderer {
	if n := len(t.layers); n > 0 {
		return t.layers[n-1].renderer
	}
	return t.base
}

// Transform returns the current user space to device transform.
func (t *Target) Transform() svgpath.Matrix2D { return t.transforms[len(t.transforms)-1] }

// Save pushes a copy of the current transform.
func (t *Target) Save() { t.transforms = append(t.transforms, t.Transform()) }

// Restore pops the transform pushed by the last Save.
// The initial transform is never popped.
func (t *Target) Restore() {
	if len(t.transforms) > 1 {
		t.transforms = t.transforms[:len(t.transforms)-1]
	}
}

// Concat post multiplies the current transform by m.
func (t *Target) Concat(m svgpath.Matrix2D) {
	n := len(t.transforms) - 1
	t.transforms[n] = t.transforms[n].Mult(m)
}

// State records the stacks depth, so that they may be
// restored after a failure.
type State struct{ transforms, layers int }

// State returns the current stacks depth.
func (t *Target) State() State { return State{transforms: len(t.transforms), layers: len(t.layers)} }

// Reset discards every layer and transform pushed after s was taken,
// without compositing them.
func (t *Target) Reset(s State) {
	for len(t.layers) > s.layers {
		t.DiscardLayer()
	}
	if s.transforms >= 1 && s.transforms <= len(t.transforms) {
		t.transforms = t.transforms[:s.transforms]
	}
}

// Fill fills p, expressed in user space, with pattern.
// A nil pattern disables filling.
func (t *Target) Fill(p svgpath.Path, pattern svgpath.Pattern, opacity float64, nonZero bool) {
	if pattern == nil || len(p) == 0 || opacity <= 0 {
		return
	}
	t.current().fill(p, t.Transform(), pattern, opacity, nonZero)
}

// Stroke strokes p, expressed in user space, with pattern.
// A nil pattern disables stroking.
func (t *Target) Stroke(p svgpath.Path, pattern svgpath.Pattern, opacity float64, options StrokeOptions) {
	if pattern == nil || len(p) == 0 || opacity <= 0 || options.LineWidth <= 0 {
		return
	}
	t.current().stroke(p, t.Transform(), pattern, opacity, options)
}

// NewMask returns a transparent target with the same size and
// current transform as t. Anything painted on it is later used
// as a coverage mask by PushLayer.
func (t *Target) NewMask() *Target {
	m := newTarget(getBuffer(t.width, t.height))
	m.transforms[0] = t.Transform()
	return m
}

// Release gives the buffers of a mask back, once it is no longer used.
func (t *Target) Release() {
	putBuffer(t.base.img)
}

// PushLayer redirects the following drawing operations to an
// off-screen buffer, composited with opacity and the optional mask
// when PopLayer is called.
func (t *Target) PushLayer(mask *Target, opacity float64) {
	l := layer{renderer: newRenderer(getBuffer(t.width, t.height)), opacity: opacity}
	if mask != nil {
		l.mask = mask.Image()
	}
	t.layers = append(t.layers, l)
}

// PopLayer composites the last pushed layer onto its parent.
// It is a no-op without layer.
func (t *Target) PopLayer() {
	n := len(t.layers)
	if n == 0 {
		return
	}
	l := t.layers[n-1]
	t.layers = t.layers[:n-1]
	dst := t.current().img
	switch {
	case l.mask == nil && l.opacity >= 1:
		draw.Draw(dst, dst.Bounds(), l.img, image.Point{}, draw.Over)
	case l.mask == nil:
		draw.DrawMask(dst, dst.Bounds(), l.img, image.Point{}, image.NewUniform(opacityAlpha(l.opacity)), image.Point{}, draw.Over)
	default:
		draw.DrawMask(dst, dst.Bounds(), l.img, image.Point{}, scaledMask(l.mask, l.opacity), image.Point{}, draw.Over)
	}
	putBuffer(l.img)
}

// DiscardLayer drops the last pushed layer without compositing it.
func (t *Target) DiscardLayer() {
	n := len(t.layers)
	if n == 0 {
		return
	}
	putBuffer(t.layers[n-1].img)
	t.layers = t.layers[:n-1]
}

func opacityAlpha(opacity float64) color.Alpha {
	if opacity <= 0 {
		return color.Alpha{}
	}
	if opacity >= 1 {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{A: uint8(opacity*0xff + 0.5)}
}

// scaledMask returns the coverage of mask multiplied by opacity.
func scaledMask(mask *image.RGBA, opacity float64) *image.Alpha {
	out := image.NewAlpha(mask.Rect)
	o := uint32(opacityAlpha(opacity).A)
	for i := range out.Pix {
		out.Pix[i] = uint8(uint32(mask.Pix[4*i+3]) * o / 0xff)
	}
	return out
}

// DrawImage draws img scaled to the box dst, expressed in user space.
func (t *Target) DrawImage(img image.Image, dst svgpath.Bounds, opacity float64) {
	sr := img.Bounds()
	if sr.Empty() || dst.W <= 0 || dst.H <= 0 || opacity <= 0 {
		return
	}
	m := t.Transform().Translate(dst.X, dst.Y).
		Scale(dst.W/float64(sr.Dx()), dst.H/float64(sr.Dy())).
		Translate(-float64(sr.Min.X), -float64(sr.Min.Y))
	s2d := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	var opts *draw.Options
	if opacity < 1 {
		opts = &draw.Options{DstMask: image.NewUniform(opacityAlpha(opacity))}
	}
	draw.BiLinear.Transform(t.current().img, s2d, img, sr, draw.Over, opts)
}
