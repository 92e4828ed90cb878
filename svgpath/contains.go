package svgpath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// flattenSteps is the number of segments used to approximate
// a curve when testing for containment.
const flattenSteps = 16

// polygon is a flattened sub path, in float coordinates.
type polygon [][2]float64

// flatten converts the path into closed polygons, after
// applying the transform m.
func (p Path) flatten(m Matrix2D) []polygon {
	var (
		out     []polygon
		current polygon
		last    [2]float64
	)
	push := func() {
		if len(current) > 1 {
			out = append(out, current)
		}
		current = nil
	}
	pt := func(a fixed.Point26_6) [2]float64 {
		x, y := m.Transform(fixedTof(a))
		return [2]float64{x, y}
	}
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			push()
			last = pt(fixed.Point26_6(op))
			current = polygon{last}
		case LineTo:
			last = pt(fixed.Point26_6(op))
			current = append(current, last)
		case QuadTo:
			p0, p1, p2 := last, pt(op[0]), pt(op[1])
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				current = append(current, [2]float64{
					bezierQuad(p0[0], p1[0], p2[0], t),
					bezierQuad(p0[1], p1[1], p2[1], t),
				})
			}
			last = p2
		case CubicTo:
			p0, p1, p2, p3 := last, pt(op[0]), pt(op[1]), pt(op[2])
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				current = append(current, [2]float64{
					bezierSpline(p0[0], p1[0], p2[0], p3[0], t),
					bezierSpline(p0[1], p1[1], p2[1], p3[1], t),
				})
			}
			last = p3
		case Close:
			if len(current) > 0 {
				last = current[0]
			}
			push()
			current = polygon{last}
		}
	}
	push()
	return out
}

// Contains reports whether the point (x, y) is inside the filled
// area of the path transformed by m, using the non zero winding
// rule if nonZero is true and the even-odd rule otherwise.
// Points on the boundary are considered inside.
func (p Path) Contains(x, y float64, m Matrix2D, nonZero bool) bool {
	winding := 0
	for _, poly := range p.flatten(m) {
		n := len(poly)
		for i := 0; i < n; i++ {
			a, b := poly[i], poly[(i+1)%n] // implicitly closed
			if onSegment(a, b, x, y) {
				return true
			}
			if a[1] <= y {
				if b[1] > y && cross(a, b, x, y) > 0 {
					winding++
				}
			} else if b[1] <= y && cross(a, b, x, y) < 0 {
				winding--
			}
		}
	}
	if nonZero {
		return winding != 0
	}
	return winding%2 != 0
}

// NearStroke reports whether (x, y) is within halfWidth of
// one of the segments of the flattened path.
func (p Path) NearStroke(x, y float64, m Matrix2D, halfWidth float64) bool {
	for _, poly := range p.flatten(m) {
		for i := 0; i+1 < len(poly); i++ {
			if distToSegment(poly[i], poly[i+1], x, y) <= halfWidth {
				return true
			}
		}
	}
	return false
}

// cross is positive when (x, y) is left of the a -> b edge.
func cross(a, b [2]float64, x, y float64) float64 {
	return (b[0]-a[0])*(y-a[1]) - (x-a[0])*(b[1]-a[1])
}

func onSegment(a, b [2]float64, x, y float64) bool {
	return distToSegment(a, b, x, y) < epsilonF
}

func distToSegment(a, b [2]float64, x, y float64) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a[0], y-a[1])
	}
	t := ((x-a[0])*dx + (y-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-(a[0]+t*dx), y-(a[1]+t*dy))
}
