package geometry

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

// ConvexHull3D triangulates the convex hull of the given point cloud using
// an incremental algorithm and returns the hull faces as triples of point
// indices with outward winding.
//
// The surface-mesh builders rely on every input point lying on the hull of
// a convex (or convexified by projection) equipotential cloud, so an input
// with fewer than four points or an all-coplanar cloud is refused with
// fault.MeshMalformed.
func ConvexHull3D(points []Vec3) ([][3]int, error) {
	n := len(points)
	if n < 4 {
		return nil, errors.WithMessagef(fault.MeshMalformed, "hull: %d points, need at least 4", n)
	}

	eps := hullEpsilon(points)

	i0, i1, i2, i3, err := initialSimplex(points, eps)
	if err != nil {
		return nil, err
	}

	type face struct {
		a, b, c int
		removed bool
	}

	// Orient the starting tetrahedron outward with respect to its centroid.
	centroid := points[i0].Add(points[i1]).Add(points[i2]).Add(points[i3]).Scale(0.25)
	mkFace := func(a, b, c int) face {
		if signedDistance(points[a], points[b], points[c], centroid) > 0 {
			b, c = c, b
		}
		return face{a: a, b: b, c: c}
	}
	faces := []face{
		mkFace(i0, i1, i2),
		mkFace(i0, i1, i3),
		mkFace(i0, i2, i3),
		mkFace(i1, i2, i3),
	}

	used := map[int]bool{i0: true, i1: true, i2: true, i3: true}
	for p := 0; p < n; p++ {
		if used[p] {
			continue
		}
		pt := points[p]

		// Faces the point sees.
		var visible []int
		for fi := range faces {
			if faces[fi].removed {
				continue
			}
			f := faces[fi]
			if signedDistance(points[f.a], points[f.b], points[f.c], pt) > eps {
				visible = append(visible, fi)
			}
		}
		if len(visible) == 0 {
			// On or inside the current hull within tolerance.
			continue
		}

		// Horizon: directed edges of visible faces whose reverse is not
		// another visible face's edge.
		type edge struct{ u, v int }
		edgeCount := make(map[edge]int)
		for _, fi := range visible {
			f := faces[fi]
			for _, e := range [3]edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
				edgeCount[e]++
			}
		}
		var horizon []edge
		for _, fi := range visible {
			f := faces[fi]
			for _, e := range [3]edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
				if edgeCount[edge{e.v, e.u}] == 0 {
					horizon = append(horizon, e)
				}
			}
		}

		for _, fi := range visible {
			faces[fi].removed = true
		}
		for _, e := range horizon {
			faces = append(faces, face{a: e.u, b: e.v, c: p})
		}
	}

	var out [][3]int
	for _, f := range faces {
		if !f.removed {
			out = append(out, [3]int{f.a, f.b, f.c})
		}
	}
	if len(out) < 4 {
		return nil, errors.WithMessage(fault.MeshMalformed, "hull: degenerate result")
	}
	return out, nil
}

// hullEpsilon derives a coplanarity tolerance from the cloud extent.
func hullEpsilon(points []Vec3) float64 {
	maxAbs := 0.0
	for _, p := range points {
		for _, v := range [3]float64{p.X, p.Y, p.Z} {
			if a := math.Abs(v); a > maxAbs {
				maxAbs = a
			}
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	return 3e-12 * maxAbs
}

// signedDistance returns the signed distance-like volume of p against the
// plane (a, b, c); positive means p lies on the normal side of the winding.
func signedDistance(a, b, c, p Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Dot(p.Sub(a))
}

// initialSimplex picks four points in general position.
func initialSimplex(points []Vec3, eps float64) (int, int, int, int, error) {
	n := len(points)

	i0 := 0
	i1 := -1
	for i := 1; i < n; i++ {
		if points[i].Distance(points[i0]) > eps {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return 0, 0, 0, 0, errors.WithMessage(fault.MeshMalformed, "hull: all points coincide")
	}

	i2 := -1
	for i := 0; i < n; i++ {
		if i == i0 || i == i1 {
			continue
		}
		cross := points[i1].Sub(points[i0]).Cross(points[i].Sub(points[i0]))
		if cross.Norm() > eps {
			i2 = i
			break
		}
	}
	if i2 < 0 {
		return 0, 0, 0, 0, errors.WithMessage(fault.MeshMalformed, "hull: all points collinear")
	}

	i3 := -1
	for i := 0; i < n; i++ {
		if i == i0 || i == i1 || i == i2 {
			continue
		}
		if math.Abs(signedDistance(points[i0], points[i1], points[i2], points[i])) > eps {
			i3 = i
			break
		}
	}
	if i3 < 0 {
		return 0, 0, 0, 0, errors.WithMessage(fault.MeshMalformed, "hull: all points coplanar")
	}
	return i0, i1, i2, i3, nil
}
