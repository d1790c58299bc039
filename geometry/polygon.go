package geometry

import "math"

// Point2 is a point in the projected sky plane.
type Point2 struct {
	X, Y float64
}

// PolygonArea returns the absolute area of a simple polygon given by its
// vertices in order (shoelace formula).
func PolygonArea(poly []Point2) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

// ConvexHull2D returns the convex hull of the given points in
// counter-clockwise order (Andrew's monotone chain). Collinear boundary
// points are dropped. Inputs with fewer than three points are returned
// as-is.
func ConvexHull2D(points []Point2) []Point2 {
	n := len(points)
	if n < 3 {
		out := make([]Point2, n)
		copy(out, points)
		return out
	}

	pts := make([]Point2, n)
	copy(pts, points)
	sortPoints(pts)

	cross := func(o, a, b Point2) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]Point2, 0, 2*n)
	// Lower hull.
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func sortPoints(pts []Point2) {
	// Insertion sort by (X, Y); clouds here are face triangles and
	// silhouettes, small enough that simplicity wins.
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0; j-- {
			if pts[j].X < pts[j-1].X || (pts[j].X == pts[j-1].X && pts[j].Y < pts[j-1].Y) {
				pts[j], pts[j-1] = pts[j-1], pts[j]
			} else {
				break
			}
		}
	}
}

// PointInConvexPolygon reports whether p lies inside or on the boundary of
// a convex polygon given in counter-clockwise order.
func PointInConvexPolygon(p Point2, poly []Point2) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	const eps = 1e-12
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) < -eps {
			return false
		}
	}
	return true
}

// ClipConvex intersects the subject polygon with a convex clip polygon
// (both counter-clockwise) using Sutherland-Hodgman clipping and returns
// the intersection polygon, possibly empty.
func ClipConvex(subject, clip []Point2) []Point2 {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make([]Point2, len(subject))
	copy(output, subject)

	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}
		a, b := clip[i], clip[(i+1)%len(clip)]

		input := output
		output = nil

		inside := func(p Point2) bool {
			return (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) >= 0
		}
		intersect := func(p, q Point2) Point2 {
			// Line a-b against segment p-q.
			a1 := b.Y - a.Y
			b1 := a.X - b.X
			c1 := a1*a.X + b1*a.Y
			a2 := q.Y - p.Y
			b2 := p.X - q.X
			c2 := a2*p.X + b2*p.Y
			det := a1*b2 - a2*b1
			if det == 0 {
				return p
			}
			return Point2{
				X: (b2*c1 - b1*c2) / det,
				Y: (a1*c2 - a2*c1) / det,
			}
		}

		for j := 0; j < len(input); j++ {
			cur, next := input[j], input[(j+1)%len(input)]
			curIn, nextIn := inside(cur), inside(next)
			switch {
			case curIn && nextIn:
				output = append(output, next)
			case curIn && !nextIn:
				output = append(output, intersect(cur, next))
			case !curIn && nextIn:
				output = append(output, intersect(cur, next), next)
			}
		}
	}
	if len(output) < 3 {
		return nil
	}
	return output
}

// BoundingBox returns the axis-aligned bounds of the points.
func BoundingBox(points []Point2) (minX, minY, maxX, maxY float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// BoxesOverlap reports whether two axis-aligned boxes intersect.
func BoxesOverlap(aMinX, aMinY, aMaxX, aMaxY, bMinX, bMinY, bMaxX, bMaxY float64) bool {
	return aMinX <= bMaxX && bMinX <= aMaxX && aMinY <= bMaxY && bMinY <= aMaxY
}
