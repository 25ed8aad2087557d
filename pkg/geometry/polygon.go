package geometry

import "math"

// PolygonArea computes the area of a simple polygon using the shoelace
// formula. The result is winding-order independent. Polygons with fewer
// than 3 vertices have zero area.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}

	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeter computes the perimeter of a closed polygon, including
// the wrapping segment from the last vertex back to the first.
func PolygonPerimeter(polygon []Point2D) float64 {
	if len(polygon) < 2 {
		return 0
	}

	var total float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		total += polygon[i].Distance(polygon[(i+1)%n])
	}
	return total
}

// Circularity computes 4*pi*area/perimeter^2, which is 1.0 for a perfect
// circle and approaches 0 for thin elongated shapes. Returns 0 when the
// perimeter is 0.
func Circularity(area, perimeter float64) float64 {
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// InflatePolygon offsets every vertex of a simple polygon outward by delta
// along the miter of its two adjacent edges, so each edge moves exactly
// delta. Winding order does not matter. Polygons with fewer than 3 vertices
// are returned unchanged; vertices at a near-reversal spike stay in place.
func InflatePolygon(polygon []Point2D, delta float64) []Point2D {
	n := len(polygon)
	if n < 3 || delta == 0 {
		return polygon
	}

	// The sign of the shoelace sum fixes which side of an edge is outward.
	var signed float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		signed += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	sign := 1.0
	if signed < 0 {
		sign = -1
	}

	out := make([]Point2D, n)
	for i := 0; i < n; i++ {
		cur := polygon[i]
		n1 := edgeNormal(polygon[(i+n-1)%n], cur, sign)
		n2 := edgeNormal(cur, polygon[(i+1)%n], sign)

		denom := 1 + n1.X*n2.X + n1.Y*n2.Y
		if denom < 1e-9 {
			out[i] = cur
			continue
		}
		out[i] = Point2D{
			X: cur.X + delta*(n1.X+n2.X)/denom,
			Y: cur.Y + delta*(n1.Y+n2.Y)/denom,
		}
	}
	return out
}

// edgeNormal returns the unit outward normal of the edge a-b.
func edgeNormal(a, b Point2D, sign float64) Point2D {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Point2D{}
	}
	return Point2D{X: sign * dy / length, Y: sign * -dx / length}
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}
