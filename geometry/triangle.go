package geometry

import "math"

// TriangleArea returns the Euclidean area of the triangle (a, b, c).
func TriangleArea(a, b, c Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Norm() / 2
}

// TriangleNormal returns the (unnormalised) normal of the triangle (a, b, c)
// following the right-hand winding a→b→c.
func TriangleNormal(a, b, c Vec3) Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}

// TriangleCentroid returns the centroid of the triangle (a, b, c).
func TriangleCentroid(a, b, c Vec3) Vec3 {
	return Vec3{
		X: (a.X + b.X + c.X) / 3,
		Y: (a.Y + b.Y + c.Y) / 3,
		Z: (a.Z + b.Z + c.Z) / 3,
	}
}

// SegmentSphereOcclusion reports whether the segment from p to q passes
// through the sphere of the given centre and radius. Touching endpoints do
// not count as occlusion; the test is used for line-of-sight checks between
// surface elements of the two components.
func SegmentSphereOcclusion(p, q, center Vec3, radius float64) bool {
	d := q.Sub(p)
	lenD := d.Norm()
	if lenD == 0 {
		return false
	}
	u := d.Scale(1 / lenD)
	m := p.Sub(center)

	// Quadratic |m + t·u|² = r² with a = 1 for the unit direction.
	b := 2 * u.Dot(m)
	c := m.Dot(m) - radius*radius
	disc := b*b - 4*c
	if disc <= 0 {
		return false
	}
	sq := math.Sqrt(disc)
	near := (-b - sq) / 2
	far := (-b + sq) / 2

	// Occluded only if the chord overlaps the open interior of the segment.
	const eps = 1e-9
	return near < lenD-eps && far > eps
}
