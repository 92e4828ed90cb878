// Provides the drawable nodes of a scene: shapes, groups,
// templates, clip paths, gradients and images.
// Nodes must be created with their constructors, which
// set the default transform and opacity.
package svgnode

import (
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

// Attributes are shared by every drawable node.
type Attributes struct {
	Name        string // if not empty, the node is also registered as a template
	Transform   svgpath.Matrix2D
	Opacity     float64
	ClipPath    string       // optional name of a clip path
	Tag         svgscene.Tag // returned by hit tests, zero for none
	Responsible bool         // the node accepts touch events

	clip    Clipper          // resolved during the last draw
	clipCTM svgpath.Matrix2D // transform of the clip mask
}

// DefaultAttributes returns fully opaque, untransformed attributes.
func DefaultAttributes() Attributes {
	return Attributes{Transform: svgpath.Identity, Opacity: 1}
}

// Clipper is implemented by the nodes which may be used
// as clipping geometry.
type Clipper interface {
	// DrawClip paints the coverage of the node on the mask t.
	DrawClip(t *svgraster.Target)
	// ClipContains reports whether pt, in root coordinates, is
	// covered by the node drawn as a clip under the transform ctm.
	ClipContains(pt svgscene.Point, ctm svgpath.Matrix2D) bool
}

// hitRecorder is implemented by the nodes keeping the geometry
// of their last draw for hit testing. A template drawn by several
// Use nodes has its recording swapped in and out by each of them.
type hitRecorder interface {
	hitState() any
	setHitState(state any)
}

// bounded is implemented by the nodes which know the device
// box of their last draw. ok is false when the box is unknown.
type bounded interface {
	drawnBounds() (b svgpath.Bounds, ok bool)
}

type attrHit struct {
	clip    Clipper
	clipCTM svgpath.Matrix2D
}

func (a *Attributes) attrHit() attrHit { return attrHit{clip: a.clip, clipCTM: a.clipCTM} }

func (a *Attributes) setAttrHit(h attrHit) { a.clip, a.clipCTM = h.clip, h.clipCTM }

// Brush is either an inline pattern or a reference
// to a named brush. The zero value paints nothing.
type Brush struct {
	Pattern svgpath.Pattern
	Ref     string
}

// BrushOf returns an inline brush.
func BrushOf(p svgpath.Pattern) Brush { return Brush{Pattern: p} }

// BrushRef returns a brush resolved by name when drawing.
func BrushRef(name string) Brush { return Brush{Ref: name} }

func (b Brush) isSet() bool { return b.Pattern != nil || b.Ref != "" }

// resolve returns nil for an unknown reference.
func (b Brush) resolve(defs *svgscene.Definitions) svgpath.Pattern {
	if b.Ref == "" {
		return b.Pattern
	}
	if defs == nil {
		return nil
	}
	pattern, _ := defs.Brush(b.Ref)
	return pattern
}

func (a *Attributes) resolveClip(p *svgscene.Paint) Clipper {
	if a.ClipPath == "" || p == nil || p.Defs == nil {
		return nil
	}
	node, ok := p.Defs.ClipPath(a.ClipPath)
	if !ok {
		return nil
	}
	clipper, _ := node.(Clipper)
	return clipper
}

// render applies the transform, the opacity and the clip path,
// then calls paint.
func (a *Attributes) render(t *svgraster.Target, p *svgscene.Paint, opacity float64, paint func(opacity float64)) {
	opacity *= a.Opacity
	if opacity <= 0 {
		return
	}
	t.Save()
	defer t.Restore()
	t.Concat(a.Transform)

	a.clip = a.resolveClip(p)
	if a.clip == nil {
		paint(opacity)
		return
	}
	a.clipCTM = t.Transform()
	mask := t.NewMask()
	a.clip.DrawClip(mask)
	t.PushLayer(mask, 1)
	paint(opacity)
	t.PopLayer()
	mask.Release()
}

func (a *Attributes) inClip(pt svgscene.Point) bool {
	return a.clip == nil || a.clip.ClipContains(pt, a.clipCTM)
}

func saveTemplate(defs *svgscene.Definitions, node svgscene.Node, name string) {
	if name != "" {
		defs.DefineTemplate(node, name)
	}
}

func setupChildren(t *svgraster.Target, children []svgscene.Node) {
	for _, child := range children {
		if child != nil {
			child.SetupDimensions(t)
		}
	}
}

func saveChildren(defs *svgscene.Definitions, children []svgscene.Node) {
	for _, child := range children {
		if child != nil {
			child.SaveDefinition(defs)
		}
	}
}
