// Package geometry provides the pixel-space primitives shared by the
// fragment, layout and timetable packages.
//
// All coordinates use the image convention: origin at the top-left corner,
// X increasing rightward and Y increasing downward. Values are float64 so
// that OCR polygons, template offsets and cumulative cell sizes compose
// without rounding.
package geometry

import "math"

// Point represents a 2D point in pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Rect is an axis-aligned rectangle. (X1, Y1) is the top-left corner and
// (X2, Y2) the bottom-right corner.
type Rect struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge
}

// RectFromSize builds a rectangle from its top-left corner and dimensions.
func RectFromSize(topLeft Point, width, height float64) Rect {
	return Rect{X1: topLeft.X, Y1: topLeft.Y, X2: topLeft.X + width, Y2: topLeft.Y + height}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Area returns the area, or 0 for an empty rectangle.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle has non-positive dimensions.
func (r Rect) Empty() bool { return r.X2 <= r.X1 || r.Y2 <= r.Y1 }

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Point { return Point{X: r.X1, Y: r.Y1} }

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// ContainsStrict reports whether p lies in the open interior of r.
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.X1 && p.X < r.X2 && p.Y > r.Y1 && p.Y < r.Y2
}

// Contains reports whether p lies in r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Intersect returns the overlap of two rectangles. The result is Empty when
// they do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		X1: math.Max(r.X1, other.X1),
		Y1: math.Max(r.Y1, other.Y1),
		X2: math.Min(r.X2, other.X2),
		Y2: math.Min(r.Y2, other.Y2),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Overlaps reports whether the two rectangles share a region of positive area.
func (r Rect) Overlaps(other Rect) bool {
	return r.X1 < other.X2 && r.X2 > other.X1 && r.Y1 < other.Y2 && r.Y2 > other.Y1
}

// Union returns the smallest rectangle covering both.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		X1: math.Min(r.X1, other.X1),
		Y1: math.Min(r.Y1, other.Y1),
		X2: math.Max(r.X2, other.X2),
		Y2: math.Max(r.Y2, other.Y2),
	}
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X1: r.X1 - margin, Y1: r.Y1 - margin, X2: r.X2 + margin, Y2: r.Y2 + margin}
}

// Distance returns the distance from p to the nearest point of r. Points
// inside r (edges included) are at distance 0.
func (r Rect) Distance(p Point) float64 {
	dx := math.Max(math.Max(r.X1-p.X, 0), p.X-r.X2)
	dy := math.Max(math.Max(r.Y1-p.Y, 0), p.Y-r.Y2)
	return math.Hypot(dx, dy)
}

// Polygon is an ordered list of vertices. OCR engines emit the top-left
// vertex first and proceed clockwise.
type Polygon []Point

// Empty reports whether the polygon has no vertices, i.e. no position.
func (pg Polygon) Empty() bool { return len(pg) == 0 }

// TopLeft returns the first vertex, or the zero point for an empty polygon.
// For a rotated box this is the top-left corner in the text's reading
// direction, not the vertex nearest the page origin.
func (pg Polygon) TopLeft() Point {
	if len(pg) == 0 {
		return Point{}
	}
	return pg[0]
}

// Bounds returns the axis-aligned bounding rectangle.
func (pg Polygon) Bounds() Rect {
	if len(pg) == 0 {
		return Rect{}
	}
	b := Rect{X1: pg[0].X, Y1: pg[0].Y, X2: pg[0].X, Y2: pg[0].Y}
	for _, v := range pg[1:] {
		b.X1 = math.Min(b.X1, v.X)
		b.Y1 = math.Min(b.Y1, v.Y)
		b.X2 = math.Max(b.X2, v.X)
		b.Y2 = math.Max(b.Y2, v.Y)
	}
	return b
}

// Centroid returns the area centroid (shoelace formula). Degenerate
// polygons (fewer than three vertices or zero area) fall back to the mean
// of their vertices.
func (pg Polygon) Centroid() Point {
	switch len(pg) {
	case 0:
		return Point{}
	case 1:
		return pg[0]
	}

	var area, cx, cy float64
	for i := range pg {
		a, b := pg[i], pg[(i+1)%len(pg)]
		cross := a.X*b.Y - b.X*a.Y
		area += cross
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	if math.Abs(area) < 1e-9 {
		return pg.mean()
	}
	area /= 2
	return Point{X: cx / (6 * area), Y: cy / (6 * area)}
}

func (pg Polygon) mean() Point {
	var sx, sy float64
	for _, v := range pg {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(pg))
	return Point{X: sx / n, Y: sy / n}
}

// Translate returns a copy of the polygon moved by (dx, dy).
func (pg Polygon) Translate(dx, dy float64) Polygon {
	out := make(Polygon, len(pg))
	for i, v := range pg {
		out[i] = v.Add(dx, dy)
	}
	return out
}

// RectPolygon returns the four corners of r, top-left first, clockwise.
func RectPolygon(r Rect) Polygon {
	return Polygon{
		{X: r.X1, Y: r.Y1},
		{X: r.X2, Y: r.Y1},
		{X: r.X2, Y: r.Y2},
		{X: r.X1, Y: r.Y2},
	}
}
