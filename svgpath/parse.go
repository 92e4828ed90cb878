package svgpath

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var (
	errParamMismatch  = errors.New("svgpath: param mismatch")
	errCommandUnknown = errors.New("svgpath: unknown command")
	errBadNumber      = errors.New("svgpath: malformed number")
	errBadColor       = errors.New("svgpath: malformed color")
)

// pathCursor is used to compile the `d` attribute of a path.
type pathCursor struct {
	path                   Path
	placeX, placeY         float64
	cntlPtX, cntlPtY       float64
	pathStartX, pathStartY float64
	points                 []float64
	lastKey                byte
	inPath                 bool
}

// ParseFloat parses a number, ignoring a trailing unit such as "px".
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	return strconv.ParseFloat(s, 64)
}

// ReadFraction parses a number or a percentage, returning
// a fraction for the later (50% -> 0.5).
func ReadFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = ParseFloat(v)
	f /= d
	return
}

// ParseNumbers returns the numbers contained in s,
// separated by spaces, commas or sign changes.
func ParseNumbers(s string) ([]float64, error) {
	return readNumbers(s, nil)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == ',' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func readNumbers(s string, dst []float64) ([]float64, error) {
	dst = dst[:0]
	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}
		start := i
		if s[i] == '+' || s[i] == '-' {
			i++
		}
		var seenDot, seenDigit bool
		for i < len(s) {
			if isDigit(s[i]) {
				seenDigit = true
			} else if s[i] == '.' && !seenDot {
				seenDot = true
			} else {
				break
			}
			i++
		}
		if seenDigit && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			k := j
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			if k > j {
				i = k
			}
		}
		if !seenDigit {
			return dst, fmt.Errorf("%w: %q", errBadNumber, s)
		}
		f, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return dst, fmt.Errorf("%w: %q", errBadNumber, s[start:i])
		}
		dst = append(dst, f)
	}
	return dst, nil
}

// ParsePathData compiles the content of a `d` attribute.
func ParsePathData(d string) (Path, error) {
	var c pathCursor
	if err := c.compilePath(d); err != nil {
		return c.path, err
	}
	return c.path, nil
}

func isCommand(ch byte) bool {
	switch ch {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's',
		'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

func (c *pathCursor) compilePath(svgPath string) error {
	start := -1
	for i := 0; i < len(svgPath); i++ {
		ch := svgPath[i]
		if ch == 'e' || ch == 'E' || isSpace(ch) || isDigit(ch) || ch == '.' || ch == '-' || ch == '+' {
			continue
		}
		if !isCommand(ch) {
			return fmt.Errorf("%w: %q", errCommandUnknown, ch)
		}
		if start >= 0 {
			if err := c.addSeg(svgPath[start:i]); err != nil {
				return err
			}
		}
		start = i
	}
	if start >= 0 {
		if err := c.addSeg(svgPath[start:]); err != nil {
			return err
		}
	}
	if c.inPath {
		c.path.Stop(false)
	}
	return nil
}

func (c *pathCursor) reflectControl(isQuad bool) {
	if (isQuad && strings.IndexByte("QqTt", c.lastKey) >= 0) ||
		(!isQuad && strings.IndexByte("CcSs", c.lastKey) >= 0) {
		c.cntlPtX, c.cntlPtY = 2*c.placeX-c.cntlPtX, 2*c.placeY-c.cntlPtY
	} else {
		c.cntlPtX, c.cntlPtY = c.placeX, c.placeY
	}
}

func (c *pathCursor) abs(rel bool, x, y float64) (float64, float64) {
	if rel {
		return x + c.placeX, y + c.placeY
	}
	return x, y
}

func (c *pathCursor) addSeg(segString string) error {
	var err error
	key := segString[0]
	c.points, err = readNumbers(segString[1:], c.points)
	if err != nil {
		return err
	}
	l := len(c.points)
	rel := key >= 'a'
	k := key
	if rel {
		k -= 'a' - 'A'
	}
	switch k {
	case 'Z':
		if l != 0 {
			return errParamMismatch
		}
		if c.inPath {
			c.path.Stop(true)
			c.placeX, c.placeY = c.pathStartX, c.pathStartY
			c.inPath = false
		}
	case 'M':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		c.placeX, c.placeY = c.abs(rel, c.points[0], c.points[1])
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.path.Start(toFixedP(c.placeX, c.placeY))
		c.inPath = true
		for i := 2; i < l-1; i += 2 { // implicit line to
			c.placeX, c.placeY = c.abs(rel, c.points[i], c.points[i+1])
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'L':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-1; i += 2 {
			c.placeX, c.placeY = c.abs(rel, c.points[i], c.points[i+1])
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'H':
		if l == 0 {
			return errParamMismatch
		}
		for _, x := range c.points {
			if rel {
				x += c.placeX
			}
			c.placeX = x
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'V':
		if l == 0 {
			return errParamMismatch
		}
		for _, y := range c.points {
			if rel {
				y += c.placeY
			}
			c.placeY = y
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'Q':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-3; i += 4 {
			c.cntlPtX, c.cntlPtY = c.abs(rel, c.points[i], c.points[i+1])
			c.placeX, c.placeY = c.abs(rel, c.points[i+2], c.points[i+3])
			c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
		}
	case 'T':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-1; i += 2 {
			c.reflectControl(true)
			c.placeX, c.placeY = c.abs(rel, c.points[i], c.points[i+1])
			c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = key
		}
	case 'C':
		if l == 0 || l%6 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-5; i += 6 {
			x1, y1 := c.abs(rel, c.points[i], c.points[i+1])
			c.cntlPtX, c.cntlPtY = c.abs(rel, c.points[i+2], c.points[i+3])
			c.placeX, c.placeY = c.abs(rel, c.points[i+4], c.points[i+5])
			c.path.CubeBezier(toFixedP(x1, y1), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
		}
	case 'S':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-3; i += 4 {
			c.reflectControl(false)
			x1, y1 := c.cntlPtX, c.cntlPtY
			c.cntlPtX, c.cntlPtY = c.abs(rel, c.points[i], c.points[i+1])
			c.placeX, c.placeY = c.abs(rel, c.points[i+2], c.points[i+3])
			c.path.CubeBezier(toFixedP(x1, y1), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = key
		}
	case 'A':
		if l == 0 || l%7 != 0 {
			return errParamMismatch
		}
		for i := 0; i < l-6; i += 7 {
			c.points[i+5], c.points[i+6] = c.abs(rel, c.points[i+5], c.points[i+6])
			c.points[i], c.points[i+1] = math.Abs(c.points[i]), math.Abs(c.points[i+1])
			if c.points[i] == 0 || c.points[i+1] == 0 { // degenerated arc
				c.placeX, c.placeY = c.points[i+5], c.points[i+6]
				c.path.Line(toFixedP(c.placeX, c.placeY))
				continue
			}
			cx, cy := findEllipseCenter(&c.points[i], &c.points[i+1], c.points[i+2]*math.Pi/180,
				c.placeX, c.placeY, c.points[i+5], c.points[i+6], c.points[i+4] == 0, c.points[i+3] == 0)
			c.placeX, c.placeY = c.path.addArc(c.points[i:], cx, cy, c.placeX, c.placeY)
		}
	default:
		return fmt.Errorf("%w: %q", errCommandUnknown, key)
	}
	c.lastKey = key
	return nil
}

// ParseTransform parses the content of a `transform` attribute.
func ParseTransform(v string) (Matrix2D, error) {
	m1 := Identity
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := readNumbers(d[1], nil)
		if err != nil {
			return m1, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

func readTransformAttr(m1 Matrix2D, k string, points []float64) (Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln != 1 {
			return m1, errParamMismatch
		}
		m1 = m1.SkewX(points[0] * math.Pi / 180)
	case "skewy":
		if ln != 1 {
			return m1, errParamMismatch
		}
		m1 = m1.SkewY(points[0] * math.Pi / 180)
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln != 6 {
			return m1, errParamMismatch
		}
		m1 = m1.Mult(Matrix2D{
			A: points[0],
			B: points[1],
			C: points[2],
			D: points[3],
			E: points[4],
			F: points[5]})
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// ParseColor parses an SVG color. It returns a nil Pattern
// for "none", and a PlainColor otherwise.
func ParseColor(v string) (Pattern, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "none", "":
		return nil, nil
	case "transparent":
		return NewPlainColor(0, 0, 0, 0), nil
	case "currentcolor": // no cascading: fallback to the initial value
		return NewPlainColor(0, 0, 0, 0xff), nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		return parseRGBColor(v[4 : len(v)-1])
	}
	if c, ok := colornames.Map[v]; ok {
		return PlainColor{color.NRGBA(c)}, nil
	}
	return nil, fmt.Errorf("%w: %q", errBadColor, v)
}

func parseHexColor(hex string) (Pattern, error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return nil, fmt.Errorf("%w: #%s", errBadColor, hex)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: #%s", errBadColor, hex)
	}
	return NewPlainColor(uint8(n>>16), uint8(n>>8), uint8(n), 0xff), nil
}

func parseRGBColor(args string) (Pattern, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: rgb(%s)", errBadColor, args)
	}
	var cs [3]uint8
	for i, part := range parts {
		part = strings.TrimSpace(part)
		var (
			f   float64
			err error
		)
		if strings.HasSuffix(part, "%") {
			f, err = ReadFraction(part)
			f *= 255
		} else {
			f, err = ParseFloat(part)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: rgb(%s)", errBadColor, args)
		}
		cs[i] = uint8(math.Max(0, math.Min(255, math.Round(f))))
	}
	return NewPlainColor(cs[0], cs[1], cs[2], 0xff), nil
}

// ParseURLRef extracts the name of an `url(#name)` reference.
func ParseURLRef(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	v = strings.TrimSpace(v[4 : len(v)-1])
	v = strings.Trim(v, `'"`)
	if !strings.HasPrefix(v, "#") || len(v) == 1 {
		return "", false
	}
	return v[1:], true
}
