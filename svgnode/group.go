package svgnode

import (
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

// Group draws its children in order, sharing its
// transform, opacity and clip path.
type Group struct {
	Attributes
	Children []svgscene.Node // nil entries are skipped

	hit groupHit
}

// groupHit records the last draw of a group.
type groupHit struct {
	drawn  bool
	bounds svgpath.Bounds // union of the children boxes
	exact  bool           // every child reported its box
}

type groupState struct {
	attr     attrHit
	hit      groupHit
	children []any
}

var (
	_ svgscene.Node = (*Group)(nil)
	_ Clipper       = (*Group)(nil)
	_ hitRecorder   = (*Group)(nil)
	_ bounded       = (*Group)(nil)
)

func NewGroup(children ...svgscene.Node) *Group {
	return &Group{Attributes: DefaultAttributes(), Children: children}
}

func (g *Group) SetupDimensions(t *svgraster.Target) { setupChildren(t, g.Children) }

func (g *Group) SaveDefinition(defs *svgscene.Definitions) {
	saveTemplate(defs, g, g.Name)
	saveChildren(defs, g.Children)
}

func (g *Group) Draw(t *svgraster.Target, p *svgscene.Paint, opacity float64) {
	g.hit = groupHit{}
	g.render(t, p, opacity, func(opacity float64) {
		h := groupHit{drawn: true, exact: true}
		for _, child := range g.Children {
			if child == nil {
				continue
			}
			child.Draw(t, p, opacity)
			b, ok := childBounds(child)
			h.exact = h.exact && ok
			h.bounds = h.bounds.Union(b)
		}
		g.hit = h
	})
}

func childBounds(child svgscene.Node) (svgpath.Bounds, bool) {
	if b, ok := child.(bounded); ok {
		return b.drawnBounds()
	}
	return svgpath.Bounds{}, false
}

// IsResponsible returns true if the group or one of its children is.
func (g *Group) IsResponsible() bool {
	if g.Responsible {
		return true
	}
	for _, child := range g.Children {
		if child != nil && child.IsResponsible() {
			return true
		}
	}
	return false
}

// HitTest tests the children from the topmost one. A group
// with a tag answers for its children.
func (g *Group) HitTest(pt svgscene.Point, view svgscene.View) (svgscene.Tag, bool) {
	h := g.hit
	if !h.drawn || (h.exact && !h.bounds.Contains(pt.X, pt.Y)) || !g.inClip(pt) {
		return 0, false
	}
	for i := len(g.Children) - 1; i >= 0; i-- {
		child := g.Children[i]
		if child == nil {
			continue
		}
		if tag, ok := child.HitTest(pt, view); ok {
			if g.Tag != 0 {
				return g.Tag, true
			}
			return tag, true
		}
	}
	return 0, false
}

func (g *Group) hitState() any {
	children := make([]any, len(g.Children))
	for i, child := range g.Children {
		if r, ok := child.(hitRecorder); ok {
			children[i] = r.hitState()
		}
	}
	return groupState{attr: g.attrHit(), hit: g.hit, children: children}
}

func (g *Group) setHitState(state any) {
	st, _ := state.(groupState)
	g.setAttrHit(st.attr)
	g.hit = st.hit
	for i, child := range g.Children {
		r, ok := child.(hitRecorder)
		if !ok {
			continue
		}
		var cs any
		if i < len(st.children) {
			cs = st.children[i]
		}
		r.setHitState(cs)
	}
}

func (g *Group) drawnBounds() (svgpath.Bounds, bool) {
	if !g.hit.drawn {
		return svgpath.Bounds{}, true
	}
	return g.hit.bounds, g.hit.exact
}

func (g *Group) DrawClip(t *svgraster.Target) {
	t.Save()
	defer t.Restore()
	t.Concat(g.Transform)
	drawClipChildren(t, g.Children)
}

func (g *Group) ClipContains(pt svgscene.Point, ctm svgpath.Matrix2D) bool {
	return clipChildrenContain(pt, ctm.Mult(g.Transform), g.Children)
}

func drawClipChildren(t *svgraster.Target, children []svgscene.Node) {
	for _, child := range children {
		if c, ok := child.(Clipper); ok {
			c.DrawClip(t)
		}
	}
}

func clipChildrenContain(pt svgscene.Point, ctm svgpath.Matrix2D, children []svgscene.Node) bool {
	for _, child := range children {
		if c, ok := child.(Clipper); ok && c.ClipContains(pt, ctm) {
			return true
		}
	}
	return false
}

// Defs registers the definitions of its children
// without drawing them.
type Defs struct {
	Children []svgscene.Node
}

var _ svgscene.Node = (*Defs)(nil)

func NewDefs(children ...svgscene.Node) *Defs { return &Defs{Children: children} }

func (d *Defs) SetupDimensions(t *svgraster.Target)                        { setupChildren(t, d.Children) }
func (d *Defs) SaveDefinition(defs *svgscene.Definitions)                  { saveChildren(defs, d.Children) }
func (d *Defs) Draw(*svgraster.Target, *svgscene.Paint, float64)           {}
func (d *Defs) IsResponsible() bool                                        { return false }
func (d *Defs) HitTest(svgscene.Point, svgscene.View) (svgscene.Tag, bool) { return 0, false }
func (d *Defs) drawnBounds() (svgpath.Bounds, bool)                        { return svgpath.Bounds{}, true }

// Use draws the template registered under Href,
// translated by (X, Y). An unknown template draws nothing.
// The template keeps hit testing at its own position: the
// geometry of each Use is recorded apart.
type Use struct {
	Attributes
	Href string
	X, Y Length

	x, y    float64
	hit     useHit
	drawing bool // guards against self references
	testing bool // same, for hit tests
}

// useHit records the last draw of a Use.
type useHit struct {
	target svgscene.Node // nil if nothing was drawn
	state  any           // recording of target for this Use
	bounds svgpath.Bounds
	exact  bool
}

type useState struct {
	attr attrHit
	hit  useHit
}

var (
	_ svgscene.Node = (*Use)(nil)
	_ hitRecorder   = (*Use)(nil)
	_ bounded       = (*Use)(nil)
)

func NewUse(href string) *Use {
	return &Use{Attributes: DefaultAttributes(), Href: href}
}

func (u *Use) SetupDimensions(t *svgraster.Target) {
	w, h := float64(t.Width()), float64(t.Height())
	u.x, u.y = u.X.resolve(horizontal, w, h), u.Y.resolve(vertical, w, h)
}

func (u *Use) SaveDefinition(defs *svgscene.Definitions) { saveTemplate(defs, u, u.Name) }

func (u *Use) Draw(t *svgraster.Target, p *svgscene.Paint, opacity float64) {
	if u.drawing {
		return
	}
	u.hit = useHit{}
	if p == nil || p.Defs == nil {
		return
	}
	tpl, ok := p.Defs.Template(u.Href)
	if !ok || tpl == nil {
		return
	}
	u.drawing = true
	defer func() { u.drawing = false }()

	rec, _ := tpl.(hitRecorder)
	var own any
	if rec != nil {
		own = rec.hitState()
	}
	var h useHit
	u.render(t, p, opacity, func(opacity float64) {
		t.Concat(svgpath.Identity.Translate(u.x, u.y))
		tpl.SetupDimensions(t)
		tpl.Draw(t, p, opacity)

		h = useHit{target: tpl}
		h.bounds, h.exact = childBounds(tpl)
		if rec != nil {
			h.state = rec.hitState()
		}
	})
	mine := u.attrHit()
	if rec != nil {
		rec.setHitState(own) // may reach u, when tpl contains it
	}
	u.setAttrHit(mine)
	u.hit = h
}

func (u *Use) IsResponsible() bool { return u.Responsible }

func (u *Use) HitTest(pt svgscene.Point, view svgscene.View) (svgscene.Tag, bool) {
	h := u.hit
	if u.testing || h.target == nil || (h.exact && !h.bounds.Contains(pt.X, pt.Y)) || !u.inClip(pt) {
		return 0, false
	}
	u.testing = true
	defer func() { u.testing = false }()

	if rec, ok := h.target.(hitRecorder); ok {
		own := rec.hitState()
		rec.setHitState(h.state)
		defer rec.setHitState(own)
	}
	tag, ok := h.target.HitTest(pt, view)
	if ok && u.Tag != 0 {
		return u.Tag, true
	}
	return tag, ok
}

func (u *Use) hitState() any { return useState{attr: u.attrHit(), hit: u.hit} }

func (u *Use) setHitState(state any) {
	st, _ := state.(useState)
	u.setAttrHit(st.attr)
	u.hit = st.hit
}

func (u *Use) drawnBounds() (svgpath.Bounds, bool) {
	if u.hit.target == nil {
		return svgpath.Bounds{}, true
	}
	return u.hit.bounds, u.hit.exact
}
