package svgnode

import (
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

// ClipPath registers the union of its children as a clip
// path. It is never drawn directly.
type ClipPath struct {
	Name     string
	Children []svgscene.Node
}

var (
	_ svgscene.Node = (*ClipPath)(nil)
	_ Clipper       = (*ClipPath)(nil)
)

func NewClipPath(name string, children ...svgscene.Node) *ClipPath {
	return &ClipPath{Name: name, Children: children}
}

func (c *ClipPath) SetupDimensions(t *svgraster.Target) { setupChildren(t, c.Children) }

func (c *ClipPath) SaveDefinition(defs *svgscene.Definitions) {
	if c.Name != "" {
		defs.DefineClipPath(c, c.Name)
	}
}

func (c *ClipPath) Draw(*svgraster.Target, *svgscene.Paint, float64) {}

func (c *ClipPath) IsResponsible() bool { return false }

func (c *ClipPath) HitTest(svgscene.Point, svgscene.View) (svgscene.Tag, bool) { return 0, false }

func (c *ClipPath) DrawClip(t *svgraster.Target) { drawClipChildren(t, c.Children) }

func (c *ClipPath) ClipContains(pt svgscene.Point, ctm svgpath.Matrix2D) bool {
	return clipChildrenContain(pt, ctm, c.Children)
}

func (c *ClipPath) drawnBounds() (svgpath.Bounds, bool) { return svgpath.Bounds{}, true }
