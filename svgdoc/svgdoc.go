// Provides parsing of SVG documents into a tree of
// drawable nodes, ready to be mounted on a svgscene.Root.
// Only a subset of SVG is supported, which is enough for
// many icons and illustrations.
package svgdoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/benoitkugler/svgscene/svgnode"
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgscene"
	"golang.org/x/net/html/charset"
)

// ErrorMode determines how unsupported elements are handled.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unsupported elements silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs unsupported elements through svgscene.Logger.
	WarnErrorMode
	// StrictErrorMode fails on the first unsupported element.
	StrictErrorMode
)

var (
	errInvalidDocument = errors.New("svgdoc: invalid svg document")
	errZeroLengthID    = errors.New("svgdoc: zero length id")
)

// Option configures the parsing of a document.
type Option func(*cursor)

// WithLoader sets the loader used by image elements.
func WithLoader(l *svgnode.Loader) Option {
	return func(c *cursor) { c.loader = l }
}

// Document holds the node tree built from an SVG file.
type Document struct {
	ViewBox       svgpath.Bounds
	Width, Height float64 // top level width and height attributes, zero if missing

	Titles       []string // title elements collect here
	Descriptions []string // desc elements collect here

	// Root is the top level group, mapping the view box
	// on the document size.
	Root *svgnode.Group
}

// Size returns the pixel size of the document, falling back
// on the view box when width or height are missing.
func (d *Document) Size() (width, height int) {
	w, h := d.Width, d.Height
	if w <= 0 {
		w = d.ViewBox.W
	}
	if h <= 0 {
		h = d.ViewBox.H
	}
	return int(math.Ceil(w)), int(math.Ceil(h))
}

// Mount replaces the children of root by the document tree,
// and sets its size.
func (d *Document) Mount(root *svgscene.Root) {
	root.SetSize(d.Size())
	root.SetChildren(d.Root)
}

// setViewport maps the view box on the document size.
func (d *Document) setViewport() {
	w, h := d.Size()
	vb := d.ViewBox
	if vb.W <= 0 || vb.H <= 0 || w <= 0 || h <= 0 {
		return
	}
	d.Root.Transform = svgpath.Identity.
		Scale(float64(w)/vb.W, float64(h)/vb.H).
		Translate(-vb.X, -vb.Y)
}

// ReadStream parses the document from the given io.Reader.
// errMode determines if the parser ignores, errors out, or logs a warning
// when it does not handle an element found in the document.
func ReadStream(stream io.Reader, errMode ErrorMode, opts ...Option) (*Document, error) {
	doc := &Document{Root: svgnode.NewGroup()}
	c := newCursor(doc, errMode)
	for _, opt := range opts {
		opt(c)
	}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	seenTag := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("svgdoc: reading document: %w", err)
		}
		switch se := t.(type) {
		case xml.StartElement:
			seenTag = true
			if err = c.pushStyle(se.Attr); err != nil {
				return nil, fmt.Errorf("svgdoc: element <%s>: %w", se.Name.Local, err)
			}
			if err = c.readStartElement(se); err != nil {
				return nil, fmt.Errorf("svgdoc: element <%s>: %w", se.Name.Local, err)
			}
		case xml.EndElement:
			c.readEndElement()
		case xml.CharData:
			c.readText(string(se))
		}
	}
	if !seenTag {
		return nil, errInvalidDocument
	}
	doc.setViewport()
	return doc, nil
}

// ReadFile parses the named file. Relative image paths
// are resolved against the directory of the file.
func ReadFile(path string, errMode ErrorMode, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	opts = append([]Option{WithLoader(svgnode.NewLoader(svgnode.WithBaseDir(filepath.Dir(path))))}, opts...)
	return ReadStream(f, errMode, opts...)
}
