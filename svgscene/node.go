package svgscene

import (
	"image"

	"github.com/benoitkugler/svgscene/svgraster"
)

// Point is a location in the root surface coordinates, in pixels.
type Point struct{ X, Y float64 }

// Tag identifies the host view answering a hit test.
type Tag int

// View is the host side view backing a node. It is opaque
// to the scene graph and only forwarded to Node.HitTest.
type View any

// ViewGroup gives access to the host views backing the root children,
// by child index. ChildAt may return nil.
type ViewGroup interface {
	ChildAt(i int) View
}

// Node is implemented by every drawable member of the tree.
type Node interface {
	// SetupDimensions resolves the node geometry against
	// the target size, before any drawing or lookup happens.
	SetupDimensions(t *svgraster.Target)

	// SaveDefinition registers the clip paths, templates and brushes
	// owned by the node.
	SaveDefinition(defs *Definitions)

	// Draw paints the node on t. opacity is the multiplier
	// inherited from the parents, in [0, 1].
	// Draw must not block: content not yet available is skipped
	// and a new pass is requested through p.Scheduler.
	Draw(t *svgraster.Target, p *Paint, opacity float64)

	// IsResponsible returns true if the node wants to receive touch events.
	IsResponsible() bool

	// HitTest returns the tag of the view under pt, if any.
	HitTest(pt Point, view View) (Tag, bool)
}

// Scheduler accepts asynchronous re-render requests.
type Scheduler interface {
	RequestRender()
}

// Paint is the context handed to the nodes during a render pass.
type Paint struct {
	Defs      *Definitions
	Scheduler Scheduler
}

// Host owns the on-screen view of a Root.
type Host interface {
	// RootSurface returns nil when the surface is not mounted.
	RootSurface() Surface
}

// Surface displays the rendered frames.
type Surface interface {
	Invalidate(r image.Rectangle)
	Display(img *image.RGBA)
}
