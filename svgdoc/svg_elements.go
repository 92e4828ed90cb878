package svgdoc

import (
	"encoding/xml"
	"errors"
	"image/color"
	"strings"

	"github.com/benoitkugler/svgscene/svgnode"
	"github.com/benoitkugler/svgscene/svgpath"
	"github.com/benoitkugler/svgscene/svgscene"
)

// svgFunc builds the node of an element. It returns a nil
// node for elements which do not produce one.
type svgFunc func(c *cursor, attrs []xml.Attr) (svgscene.Node, error)

var drawFuncs = map[string]svgFunc{
	"svg":            svgF,
	"g":              gF,
	"line":           lineF,
	"stop":           stopF,
	"rect":           rectF,
	"circle":         circleF,
	"ellipse":        circleF, // circleF handles ellipse also
	"polyline":       polylineF,
	"polygon":        polygonF,
	"path":           pathF,
	"desc":           descF,
	"defs":           defsF,
	"title":          titleF,
	"linearGradient": linearGradientF,
	"radialGradient": radialGradientF,
	"clipPath":       clipPathF,
	"use":            useF,
	"image":          imageF,
}

func svgF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	if c.seenSVG { // nested viewport
		var x, y float64
		var err error
		for _, attr := range attrs {
			switch attr.Name.Local {
			case "x":
				x, err = svgpath.ParseFloat(attr.Value)
			case "y":
				y, err = svgpath.ParseFloat(attr.Value)
			}
			if err != nil {
				return nil, err
			}
		}
		g := svgnode.NewGroup()
		c.applyAttributes(&g.Attributes)
		g.Transform = svgpath.Identity.Translate(x, y).Mult(g.Transform)
		return g, nil
	}

	c.seenSVG = true
	doc := c.doc
	var width, height svgnode.Length
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			var points []float64
			points, err = svgpath.ParseNumbers(attr.Value)
			if err == nil && len(points) != 4 {
				return nil, errParamMismatch
			}
			if err == nil {
				doc.ViewBox = svgpath.Bounds{X: points[0], Y: points[1], W: points[2], H: points[3]}
			}
		case "width":
			width, err = svgnode.ParseLength(attr.Value)
		case "height":
			height, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if !width.Percent {
		doc.Width = width.Value
	}
	if !height.Percent {
		doc.Height = height.Value
	}
	doc.Root.Opacity = c.local.opacity
	return doc.Root, nil
}

func gF(c *cursor, _ []xml.Attr) (svgscene.Node, error) {
	g := svgnode.NewGroup()
	c.applyAttributes(&g.Attributes)
	return g, nil
}

func rectF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	var r svgnode.Rect
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			r.X, err = svgnode.ParseLength(attr.Value)
		case "y":
			r.Y, err = svgnode.ParseLength(attr.Value)
		case "width":
			r.Width, err = svgnode.ParseLength(attr.Value)
		case "height":
			r.Height, err = svgnode.ParseLength(attr.Value)
		case "rx":
			r.RX, err = svgnode.ParseLength(attr.Value)
		case "ry":
			r.RY, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if r.Width.Value == 0 || r.Height.Value == 0 { // not drawn, but not an error
		return nil, nil
	}
	return c.newShape(r), nil
}

func circleF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	var (
		e        svgnode.Ellipse
		isCircle bool
		err      error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			e.CX, err = svgnode.ParseLength(attr.Value)
		case "cy":
			e.CY, err = svgnode.ParseLength(attr.Value)
		case "r":
			isCircle = true
			e.RX, err = svgnode.ParseLength(attr.Value)
		case "rx":
			e.RX, err = svgnode.ParseLength(attr.Value)
		case "ry":
			e.RY, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if isCircle {
		if e.RX.Value == 0 {
			return nil, nil
		}
		return c.newShape(svgnode.Circle{CX: e.CX, CY: e.CY, R: e.RX}), nil
	}
	if e.RX.Value == 0 || e.RY.Value == 0 { // not drawn, but not an error
		return nil, nil
	}
	return c.newShape(e), nil
}

func lineF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	var l svgnode.Line
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			l.X1, err = svgnode.ParseLength(attr.Value)
		case "x2":
			l.X2, err = svgnode.ParseLength(attr.Value)
		case "y1":
			l.Y1, err = svgnode.ParseLength(attr.Value)
		case "y2":
			l.Y2, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return c.newShape(l), nil
}

func readPoints(attrs []xml.Attr) ([]float64, error) {
	for _, attr := range attrs {
		if attr.Name.Local != "points" {
			continue
		}
		points, err := svgpath.ParseNumbers(attr.Value)
		if err != nil {
			return nil, err
		}
		if len(points)%2 != 0 {
			return nil, errors.New("polygon has odd number of points")
		}
		return points, nil
	}
	return nil, nil
}

func polylineF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	points, err := readPoints(attrs)
	if err != nil || len(points) < 4 {
		return nil, err
	}
	return c.newShape(svgnode.Polyline{Points: points}), nil
}

func polygonF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	points, err := readPoints(attrs)
	if err != nil || len(points) < 4 {
		return nil, err
	}
	return c.newShape(svgnode.Polyline{Points: points, Closed: true}), nil
}

func pathF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	for _, attr := range attrs {
		if attr.Name.Local == "d" {
			p, err := svgpath.ParsePathData(attr.Value)
			if err != nil {
				return nil, err
			}
			if len(p) == 0 {
				return nil, nil
			}
			return c.newShape(svgnode.PathData(p)), nil
		}
	}
	return nil, nil
}

func descF(c *cursor, _ []xml.Attr) (svgscene.Node, error) {
	c.text = descText
	c.doc.Descriptions = append(c.doc.Descriptions, "")
	return nil, nil
}

func titleF(c *cursor, _ []xml.Attr) (svgscene.Node, error) {
	c.text = titleText
	c.doc.Titles = append(c.doc.Titles, "")
	return nil, nil
}

func defsF(*cursor, []xml.Attr) (svgscene.Node, error) { return svgnode.NewDefs(), nil }

func clipPathF(c *cursor, _ []xml.Attr) (svgscene.Node, error) {
	return svgnode.NewClipPath(c.local.id), nil
}

func readGradAttr(attr xml.Attr, units *svgpath.GradientUnits, spread *svgpath.SpreadMethod, m *svgpath.Matrix2D) (err error) {
	switch attr.Name.Local {
	case "gradientTransform":
		*m, err = svgpath.ParseTransform(attr.Value)
	case "gradientUnits":
		switch strings.TrimSpace(attr.Value) {
		case "userSpaceOnUse":
			*units = svgpath.UserSpaceOnUse
		case "objectBoundingBox":
			*units = svgpath.ObjectBoundingBox
		}
	case "spreadMethod":
		switch strings.TrimSpace(attr.Value) {
		case "pad":
			*spread = svgpath.PadSpread
		case "reflect":
			*spread = svgpath.ReflectSpread
		case "repeat":
			*spread = svgpath.RepeatSpread
		}
	}
	return err
}

func linearGradientF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	g := svgnode.NewLinearGradient(c.local.id)
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			g.X1, err = svgpath.ReadFraction(attr.Value)
		case "y1":
			g.Y1, err = svgpath.ReadFraction(attr.Value)
		case "x2":
			g.X2, err = svgpath.ReadFraction(attr.Value)
		case "y2":
			g.Y2, err = svgpath.ReadFraction(attr.Value)
		default:
			err = readGradAttr(attr, &g.Units, &g.Spread, &g.Transform)
		}
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func radialGradientF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	g := svgnode.NewRadialGradient(c.local.id)
	var setFx, setFy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			g.CX, err = svgpath.ReadFraction(attr.Value)
		case "cy":
			g.CY, err = svgpath.ReadFraction(attr.Value)
		case "fx":
			setFx = true
			g.FX, err = svgpath.ReadFraction(attr.Value)
		case "fy":
			setFy = true
			g.FY, err = svgpath.ReadFraction(attr.Value)
		case "r":
			g.R, err = svgpath.ReadFraction(attr.Value)
		case "fr":
			g.FR, err = svgpath.ReadFraction(attr.Value)
		default:
			err = readGradAttr(attr, &g.Units, &g.Spread, &g.Transform)
		}
		if err != nil {
			return nil, err
		}
	}
	if !setFx { // set fx to cx by default
		g.FX = g.CX
	}
	if !setFy { // set fy to cy by default
		g.FY = g.CY
	}
	return g, nil
}

func stopF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	stops := c.top().stops
	if stops == nil { // outside of a gradient
		return nil, nil
	}
	stop := svgpath.GradStop{StopColor: color.Black, Opacity: 1}
	var err error
	for _, kv := range attrPairs(attrs) {
		switch kv[0] {
		case "offset":
			stop.Offset, err = svgpath.ReadFraction(kv[1])
		case "stop-color":
			var pattern svgpath.Pattern
			pattern, err = svgpath.ParseColor(kv[1])
			if col, ok := pattern.(svgpath.PlainColor); ok {
				stop.StopColor = col.NRGBA
			} else if err == nil {
				stop.StopColor = color.Transparent
			}
		case "stop-opacity":
			stop.Opacity, err = svgpath.ParseFloat(kv[1])
		}
		if err != nil {
			return nil, err
		}
	}
	*stops = append(*stops, stop)
	return nil, nil
}

func useF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	var (
		href string
		x, y svgnode.Length
		err  error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			href = strings.TrimSpace(attr.Value)
		case "x":
			x, err = svgnode.ParseLength(attr.Value)
		case "y":
			y, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if href == "" {
		return nil, c.handleError("only use tags with href are supported")
	}
	id, ok := strings.CutPrefix(href, "#")
	if !ok || id == "" {
		return nil, c.handleError("only the ID CSS selector is supported in use tags")
	}
	u := svgnode.NewUse(id)
	c.applyAttributes(&u.Attributes)
	u.X, u.Y = x, y
	return u, nil
}

func imageF(c *cursor, attrs []xml.Attr) (svgscene.Node, error) {
	im := svgnode.NewImage("", c.loader)
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			im.Href = strings.TrimSpace(attr.Value)
		case "x":
			im.X, err = svgnode.ParseLength(attr.Value)
		case "y":
			im.Y, err = svgnode.ParseLength(attr.Value)
		case "width":
			im.Width, err = svgnode.ParseLength(attr.Value)
		case "height":
			im.Height, err = svgnode.ParseLength(attr.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if im.Href == "" {
		return nil, c.handleError("image without href")
	}
	c.applyAttributes(&im.Attributes)
	return im, nil
}
