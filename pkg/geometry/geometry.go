// Package geometry holds the pure shape math shared by hit-testing and
// renderers, so the selection outline a renderer draws always matches the
// area the store actually hit-tests.
package geometry

import (
	"math"

	"drawsync/pkg/models"
)

// ArrowheadLength is the length of each arrowhead flank, matching the
// renderer.
const ArrowheadLength = 10

// segmentSlop is the base distance within which a point counts as touching
// a line or stroke segment.
const segmentSlop = 5

// PointInRect reports whether (px,py) falls inside the axis-aligned
// rectangle with origin (x,y) and the given extent, grown by pad on every
// side. Negative width/height (drag direction) are normalized.
func PointInRect(px, py, x, y, w, h, pad float64) bool {
	x0, x1 := x, x+w
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := y, y+h
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return px >= x0-pad && px <= x1+pad && py >= y0-pad && py <= y1+pad
}

// PointInCircle reports whether (px,py) lies within radius+pad of the
// circle center.
func PointInCircle(px, py, cx, cy, r, pad float64) bool {
	return math.Hypot(px-cx, py-cy) <= math.Abs(r)+pad
}

// SegmentDistance returns the distance from (px,py) to the segment
// (x1,y1)-(x2,y2), clamping the projection to the segment ends.
func SegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

// PointNearSegment reports whether (px,py) is within slop+pad of the
// segment.
func PointNearSegment(px, py, x1, y1, x2, y2, pad float64) bool {
	return SegmentDistance(px, py, x1, y1, x2, y2) <= segmentSlop+pad
}

// PointInRotatedRect rotates the query point by the negative rotation angle
// about the rectangle center, then tests against the unrotated bounds.
func PointInRotatedRect(px, py, cx, cy, w, h, rotation, pad float64) bool {
	sin, cos := math.Sincos(-rotation)
	dx, dy := px-cx, py-cy
	rx := cx + dx*cos - dy*sin
	ry := cy + dx*sin + dy*cos
	return PointInRect(rx, ry, cx-w/2, cy-h/2, w, h, pad)
}

// PointInPolygon is the standard ray-casting parity test over the ordered
// vertex list.
func PointInPolygon(px, py float64, pts []models.Point) bool {
	inside := false
	n := len(pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := pts[i].X, pts[i].Y
		xj, yj := pts[j].X, pts[j].Y
		if (yi > py) != (yj > py) &&
			px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// RegularPolygonVertices returns the vertices of a regular polygon with the
// given side length, spaced 2π/sides apart and offset by rotation. The
// circumradius follows from the side length: side / (2·sin(π/sides)).
// Sides below 3 fall back to the hexagon default.
func RegularPolygonVertices(cx, cy, side, rotation float64, sides int) []models.Point {
	if sides < 3 {
		sides = 6
	}
	radius := side / (2 * math.Sin(math.Pi/float64(sides)))
	out := make([]models.Point, sides)
	for i := 0; i < sides; i++ {
		a := rotation + 2*math.Pi*float64(i)/float64(sides)
		out[i] = models.Point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	return out
}

// DiamondVertices returns the rhombus inscribed in the axis-aligned box at
// (x,y) with the given extent: one vertex at the midpoint of each box edge.
// Width and height are independent, so the rhombus need not be a square.
func DiamondVertices(x, y, w, h float64) []models.Point {
	return []models.Point{
		{X: x + w/2, Y: y},
		{X: x + w, Y: y + h/2},
		{X: x + w/2, Y: y + h},
		{X: x, Y: y + h/2},
	}
}

// ArrowheadPoints returns the two flank endpoints of an arrowhead at
// (x2,y2) for the line from (x1,y1), each ArrowheadLength long and π/6 off
// the line angle.
func ArrowheadPoints(x1, y1, x2, y2 float64) (models.Point, models.Point) {
	angle := math.Atan2(y2-y1, x2-x1)
	left := models.Point{
		X: x2 - ArrowheadLength*math.Cos(angle-math.Pi/6),
		Y: y2 - ArrowheadLength*math.Sin(angle-math.Pi/6),
	}
	right := models.Point{
		X: x2 - ArrowheadLength*math.Cos(angle+math.Pi/6),
		Y: y2 - ArrowheadLength*math.Sin(angle+math.Pi/6),
	}
	return left, right
}

// DashPattern maps a stroke style name to its dash segments. Unknown styles
// draw solid.
func DashPattern(style string) []float64 {
	switch style {
	case "medium":
		return []float64{5, 5}
	case "large":
		return []float64{10, 5}
	default:
		return nil
	}
}

// Hit reports whether (x,y) touches the shape, using the variant-specific
// predicate. pad symmetrically enlarges the hit area; selection passes a
// positive pad, exact-bounds callers pass zero.
func Hit(s *models.Shape, x, y, pad float64) bool {
	switch s.Type {
	case models.KindRect:
		return PointInRect(x, y, s.StartX, s.StartY, s.Width, s.Height, pad)
	case models.KindDiamond:
		return PointInPolygon(x, y, DiamondVertices(s.StartX, s.StartY, s.Width, s.Height))
	case models.KindCircle:
		return PointInCircle(x, y, s.CenterX, s.CenterY, s.Radius, pad)
	case models.KindLine, models.KindArrow:
		return PointNearSegment(x, y, s.StartX, s.StartY, s.EndX, s.EndY, pad)
	case models.KindRotatedRect:
		return PointInRotatedRect(x, y, s.CenterX, s.CenterY, s.Width, s.Height, s.Rotation, pad)
	case models.KindPolygon:
		pts := RegularPolygonVertices(s.CenterX, s.CenterY, s.SideLength, s.Rotation, s.Sides)
		return PointInPolygon(x, y, pts)
	case models.KindPencil:
		slop := pad
		if s.Border > slop {
			slop = s.Border
		}
		for i := 1; i < len(s.Points); i++ {
			a, b := s.Points[i-1], s.Points[i]
			if PointNearSegment(x, y, a.X, a.Y, b.X, b.Y, slop) {
				return true
			}
		}
		return false
	case models.KindText:
		// Approximate glyph box: fillText anchors at the baseline, so the
		// box extends one font size above the origin.
		w := 0.6 * s.FontSize * float64(len(s.Text))
		return PointInRect(x, y, s.StartX, s.StartY-s.FontSize, w, s.FontSize, pad)
	}
	return false
}
