package svgdoc

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgscene/svgnode"
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
)

var errParamMismatch = errors.New("svgdoc: param mismatch")

// style holds the inherited presentation attributes.
type style struct {
	fill, stroke               svgnode.Brush
	fillOpacity, strokeOpacity float64
	evenOdd                    bool
	strokeOptions              svgraster.StrokeOptions
}

// defaultStyle fills in black, with the non zero rule,
// full opacity and no stroke.
var defaultStyle = style{
	fill:          svgnode.BrushOf(svgpath.NewPlainColor(0, 0, 0, 0xff)),
	fillOpacity:   1,
	strokeOpacity: 1,
	strokeOptions: svgraster.DefaultStroke,
}

// localAttrs are not inherited by the children of an element.
type localAttrs struct {
	id        string
	transform svgpath.Matrix2D
	opacity   float64
	clipPath  string
	tag       int // from data-tag
}

type textKind uint8

const (
	noText textKind = iota
	titleText
	descText
)

// frame is pushed for every open element.
type frame struct {
	children *[]svgscene.Node    // where nested nodes go, nil to drop them
	stops    *[]svgpath.GradStop // set for gradients
	text     textKind
}

// cursor is used while parsing SVG documents
type cursor struct {
	doc       *Document
	errorMode ErrorMode
	loader    *svgnode.Loader

	styleStack []style
	frames     []frame
	local      localAttrs // of the current element
	seenSVG    bool
	text       textKind // set by title and desc
}

func newCursor(doc *Document, errMode ErrorMode) *cursor {
	return &cursor{
		doc:        doc,
		errorMode:  errMode,
		styleStack: []style{defaultStyle},
		frames:     []frame{{}},
	}
}

func (c *cursor) style() style { return c.styleStack[len(c.styleStack)-1] }

func (c *cursor) top() frame { return c.frames[len(c.frames)-1] }

func (c *cursor) handleError(msg string) error {
	switch c.errorMode {
	case StrictErrorMode:
		return errors.New("svgdoc: " + msg)
	case WarnErrorMode:
		svgscene.Logger().Warn("svgdoc: unsupported content", "detail", msg)
	}
	return nil
}

func parseBrush(v string) (svgnode.Brush, error) {
	if id, ok := svgpath.ParseURLRef(v); ok {
		return svgnode.BrushRef(id), nil
	}
	pattern, err := svgpath.ParseColor(v)
	return svgnode.BrushOf(pattern), err
}

func (c *cursor) readStyleAttr(curStyle *style, k, v string) error {
	switch k {
	case "fill":
		b, err := parseBrush(v)
		if err != nil {
			return err
		}
		curStyle.fill = b
	case "stroke":
		b, err := parseBrush(v)
		if err != nil {
			return err
		}
		curStyle.stroke = b
	case "fill-rule":
		curStyle.evenOdd = v == "evenodd"
	case "stroke-linegap":
		switch v {
		case "flat":
			curStyle.strokeOptions.LineGap = svgraster.FlatGap
		case "round":
			curStyle.strokeOptions.LineGap = svgraster.RoundGap
		case "cubic":
			curStyle.strokeOptions.LineGap = svgraster.CubicGap
		case "quadratic":
			curStyle.strokeOptions.LineGap = svgraster.QuadraticGap
		}
	case "stroke-linecap":
		switch v {
		case "butt":
			curStyle.strokeOptions.LineCap = svgraster.ButtCap
		case "round":
			curStyle.strokeOptions.LineCap = svgraster.RoundCap
		case "square":
			curStyle.strokeOptions.LineCap = svgraster.SquareCap
		case "cubic":
			curStyle.strokeOptions.LineCap = svgraster.CubicCap
		case "quadratic":
			curStyle.strokeOptions.LineCap = svgraster.QuadraticCap
		}
	case "stroke-linejoin":
		switch v {
		case "miter":
			curStyle.strokeOptions.LineJoin = svgraster.Miter
		case "miter-clip":
			curStyle.strokeOptions.LineJoin = svgraster.MiterClip
		case "arc-clip":
			curStyle.strokeOptions.LineJoin = svgraster.ArcClip
		case "round":
			curStyle.strokeOptions.LineJoin = svgraster.Round
		case "arc":
			curStyle.strokeOptions.LineJoin = svgraster.Arc
		case "bevel":
			curStyle.strokeOptions.LineJoin = svgraster.Bevel
		}
	case "stroke-miterlimit":
		mLimit, err := svgpath.ParseFloat(v)
		if err != nil {
			return err
		}
		curStyle.strokeOptions.MiterLimit = mLimit
	case "stroke-width":
		width, err := svgpath.ParseFloat(v)
		if err != nil {
			return err
		}
		curStyle.strokeOptions.LineWidth = width
	case "stroke-dashoffset":
		dashOffset, err := svgpath.ParseFloat(v)
		if err != nil {
			return err
		}
		curStyle.strokeOptions.DashOffset = dashOffset
	case "stroke-dasharray":
		if v == "none" {
			curStyle.strokeOptions.Dash = nil
			break
		}
		dashes, err := svgpath.ParseNumbers(v)
		if err != nil {
			return err
		}
		curStyle.strokeOptions.Dash = dashes
	case "fill-opacity", "stroke-opacity":
		op, err := svgpath.ParseFloat(v)
		if err != nil {
			return err
		}
		if k == "fill-opacity" {
			curStyle.fillOpacity = op
		} else {
			curStyle.strokeOpacity = op
		}
	case "opacity":
		op, err := svgpath.ParseFloat(v)
		if err != nil {
			return err
		}
		c.local.opacity = op
	case "transform":
		m, err := svgpath.ParseTransform(v)
		if err != nil {
			return err
		}
		c.local.transform = m
	case "clip-path":
		if id, ok := svgpath.ParseURLRef(v); ok {
			c.local.clipPath = id
		}
	case "data-tag":
		tag, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.local.tag = tag
	case "id":
		if v == "" {
			return errZeroLengthID
		}
		c.local.id = v
	}
	return nil
}

// attrPairs returns the key-value pairs of the attributes,
// including the content of a style attribute.
func attrPairs(attrs []xml.Attr) [][2]string {
	var pairs [][2]string
	for _, attr := range attrs {
		if strings.ToLower(attr.Name.Local) != "style" {
			pairs = append(pairs, [2]string{attr.Name.Local, strings.TrimSpace(attr.Value)})
			continue
		}
		for _, decl := range strings.Split(attr.Value, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			pairs = append(pairs, [2]string{strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)})
		}
	}
	return pairs
}

// pushStyle parses the presentation attributes of an element, and
// pushes the inherited ones on the style stack. Both the content
// of a style attribute and direct attributes are supported.
func (c *cursor) pushStyle(attrs []xml.Attr) error {
	c.local = localAttrs{transform: svgpath.Identity, opacity: 1}
	// make a copy of the top style
	curStyle := c.style()
	curStyle.strokeOptions.Dash = append([]float64(nil), curStyle.strokeOptions.Dash...)
	for _, kv := range attrPairs(attrs) {
		if err := c.readStyleAttr(&curStyle, kv[0], kv[1]); err != nil {
			return err
		}
	}
	c.styleStack = append(c.styleStack, curStyle)
	return nil
}

// applyAttributes copies the attributes of the current element to a.
func (c *cursor) applyAttributes(a *svgnode.Attributes) {
	a.Name = c.local.id
	a.Transform = c.local.transform
	a.Opacity = c.local.opacity
	a.ClipPath = c.local.clipPath
	if c.local.tag != 0 {
		a.Tag = svgscene.Tag(c.local.tag)
		a.Responsible = true
	}
}

func (c *cursor) newShape(g svgnode.Geometry) *svgnode.Shape {
	s := svgnode.NewShape(g)
	st := c.style()
	s.Fill, s.Stroke = st.fill, st.stroke
	s.FillOpacity, s.StrokeOpacity = st.fillOpacity, st.strokeOpacity
	s.EvenOdd = st.evenOdd
	s.StrokeOptions = st.strokeOptions
	c.applyAttributes(&s.Attributes)
	return s
}

func (c *cursor) readStartElement(se xml.StartElement) error {
	c.text = noText
	df, ok := drawFuncs[se.Name.Local]
	if !ok {
		// nested content goes to the enclosing container
		c.frames = append(c.frames, frame{children: c.top().children})
		return c.handleError("cannot process svg element " + se.Name.Local)
	}
	node, err := df(c, se.Attr)
	if err != nil {
		return err
	}

	fr := frame{text: c.text}
	switch n := node.(type) {
	case *svgnode.Group:
		fr.children = &n.Children
	case *svgnode.Defs:
		fr.children = &n.Children
	case *svgnode.ClipPath:
		fr.children = &n.Children
	case *svgnode.LinearGradient:
		fr.stops = &n.Stops
	case *svgnode.RadialGradient:
		fr.stops = &n.Stops
	}
	if node != nil && node != svgscene.Node(c.doc.Root) {
		if parent := c.top().children; parent != nil {
			*parent = append(*parent, node)
		}
	}
	c.frames = append(c.frames, fr)
	return nil
}

func (c *cursor) readEndElement() {
	if len(c.frames) > 1 {
		c.frames = c.frames[:len(c.frames)-1]
	}
	if len(c.styleStack) > 1 {
		c.styleStack = c.styleStack[:len(c.styleStack)-1]
	}
}

func (c *cursor) readText(s string) {
	switch c.top().text {
	case titleText:
		c.doc.Titles[len(c.doc.Titles)-1] += s
	case descText:
		c.doc.Descriptions[len(c.doc.Descriptions)-1] += s
	}
}
