package geometry

import "math"

// Minimum vertex counts below which simplification is bypassed. A closed
// loop needs one extra vertex because the first point is duplicated at the
// end during processing.
const (
	minOpenPathLen   = 3
	minClosedPathLen = 4
)

// Simplify reduces the vertex count of an open path using the
// Douglas-Peucker algorithm. Points farther than epsilon from the line
// between span endpoints are kept; spans within tolerance collapse to
// their two endpoints. Paths with fewer than 3 points are returned
// unchanged.
func Simplify(path []Point2D, epsilon float64) []Point2D {
	if len(path) < minOpenPathLen {
		return path
	}
	return douglasPeucker(path, epsilon)
}

// SimplifyClosed reduces the vertex count of a closed polygon. The first
// vertex is appended to the end so the wrapping segment participates in
// the recursion, then the duplicated closing point is removed from the
// result. Polygons with fewer than 4 vertices are returned unchanged.
func SimplifyClosed(polygon []Point2D, epsilon float64) []Point2D {
	if len(polygon) < minClosedPathLen {
		return polygon
	}

	closed := make([]Point2D, 0, len(polygon)+1)
	closed = append(closed, polygon...)
	closed = append(closed, polygon[0])

	simplified := douglasPeucker(closed, epsilon)

	// Drop the duplicated closing point.
	if len(simplified) > 1 && simplified[0] == simplified[len(simplified)-1] {
		simplified = simplified[:len(simplified)-1]
	}
	return simplified
}

func douglasPeucker(path []Point2D, epsilon float64) []Point2D {
	if len(path) <= 2 {
		return path
	}

	// Find point with maximum distance from line between first and last points
	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(path[:index+1], epsilon)
		right := douglasPeucker(path[index:], epsilon)

		// Concatenate without duplicating the split point
		result := make([]Point2D, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	// All points between first and last are within epsilon
	return []Point2D{path[0], path[end]}
}

// perpendicularDistance calculates the perpendicular distance from point p to line a-b.
func perpendicularDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		// a and b are the same point
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}
