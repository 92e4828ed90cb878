package svgscene

import (
	"sync"

	"github.com/benoitkugler/svgscene/svgpath"
)

// Definitions stores the named clip paths, templates and brushes
// of one document. Entries are only ever overwritten: a name stays
// resolvable after its defining node leaves the tree.
// Definitions is safe for concurrent use.
type Definitions struct {
	mu        sync.RWMutex
	clipPaths map[string]Node
	templates map[string]Node
	brushes   map[string]svgpath.Pattern
}

// NewDefinitions returns empty registries.
func NewDefinitions() *Definitions {
	return &Definitions{
		clipPaths: make(map[string]Node),
		templates: make(map[string]Node),
		brushes:   make(map[string]svgpath.Pattern),
	}
}

// DefineClipPath registers node as the clip path called name,
// replacing any previous definition.
func (d *Definitions) DefineClipPath(node Node, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipPaths[name] = node
}

// ClipPath returns the clip path called name.
func (d *Definitions) ClipPath(name string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.clipPaths[name]
	return n, ok
}

// DefineTemplate registers node as the template called name,
// replacing any previous definition.
func (d *Definitions) DefineTemplate(node Node, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.templates[name] = node
}

// Template returns the template called name.
func (d *Definitions) Template(name string) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.templates[name]
	return n, ok
}

// DefineBrush registers brush under name, replacing any previous definition.
func (d *Definitions) DefineBrush(brush svgpath.Pattern, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brushes[name] = brush
}

// Brush returns the brush called name.
func (d *Definitions) Brush(name string) (svgpath.Pattern, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.brushes[name]
	return b, ok
}
