// Package mesh discretises the equipotential surfaces of both components
// into triangular meshes: quadrant sampling with symmetry replication for
// detached systems, a cylindrical neck patch with projected stitching for
// over-contact envelopes, and embedding of circular spot caps.
//
// All meshes are expressed in the primary-frame coordinate system: the
// primary centre at the origin, +x toward the secondary, the secondary
// centre at (d, 0, 0).
package mesh

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/system"
)

var log = logging.New("mesh")

// NoSpot labels faces that belong to the unspotted stellar surface.
const NoSpot = -1

// Mesh is one component's triangulated surface.
type Mesh struct {
	Component system.Component

	// Points of the full mesh, primary-frame coordinates in units of the
	// semi-major axis.
	Points []geometry.Vec3

	// Faces as point-index triples. Winding is not meaningful; outward
	// orientation is established by the surface-field stage.
	Faces [][3]int

	// FaceSpot labels each face with the index of the spot it belongs to,
	// or NoSpot.
	FaceSpot []int

	// Symmetric marks meshes whose four-fold base symmetry survived
	// (no spots inserted). Only then are the index vectors valid.
	Symmetric bool

	// BasePointCount is the number of canonical-quadrant points stored at
	// the head of Points.
	BasePointCount int

	// BaseFaceCount is the number of canonical faces at the head of Faces.
	BaseFaceCount int

	// PointSymmetry maps every point to its canonical-quadrant image.
	PointSymmetry []int

	// FaceSymmetry maps every face to its canonical face image, enabling
	// symmetric per-face fields to be computed once and broadcast.
	FaceSymmetry []int

	// mirrorMaps[m][b] is the full-mesh index of the image of base point b
	// under mirror operation m (identity, y, z, yz).
	mirrorMaps [4][]int

	// neckLimit is the axial clip applied to spot points of over-contact
	// components (own-frame x of the neck); zero for detached systems.
	neckLimit float64
}

// SpotSurvived reports whether any face carries the given spot index.
func (m *Mesh) SpotSurvived(spot int) bool {
	for _, s := range m.FaceSpot {
		if s == spot {
			return true
		}
	}
	return false
}

// Spots returns the set of spot indices present in the face labels.
func (m *Mesh) Spots() map[int]bool {
	out := make(map[int]bool)
	for _, s := range m.FaceSpot {
		if s != NoSpot {
			out[s] = true
		}
	}
	return out
}

// Build produces the mesh of one component at separation d, selecting the
// detached or over-contact branch by the system morphology and embedding
// the component's spots.
func Build(s *system.BinarySystem, c system.Component, d float64) (*Mesh, error) {
	var m *Mesh
	var err error
	if s.Morphology == roche.OverContact {
		m, err = BuildOverContact(s, c)
	} else {
		m, err = BuildDetached(s, c, d)
	}
	if err != nil {
		return nil, err
	}
	if s.Star(c).HasSpots() {
		if err := m.embedSpots(s, c, d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// replicate mirrors a canonical quadrant through the xz and xy planes and
// assembles the full point set together with the symmetry index vectors.
//
// Plane membership comes from the sampling structure, not from coordinate
// comparisons: onXY[i] marks quadrant points lying in the xy plane (z = 0),
// onXZ[i] those in the xz plane (y = 0). Points on a mirror plane are their
// own images under that mirror.
func replicate(quadrant []geometry.Vec3, onXY, onXZ []bool) (points []geometry.Vec3, pointSym []int, mirrors [4][]int) {
	base := len(quadrant)
	points = make([]geometry.Vec3, 0, 4*base)
	points = append(points, quadrant...)

	pointSym = make([]int, 0, 4*base)
	for i := 0; i < base; i++ {
		pointSym = append(pointSym, i)
	}

	for m := range mirrors {
		mirrors[m] = make([]int, base)
	}
	for i := 0; i < base; i++ {
		mirrors[0][i] = i
	}

	appendImage := func(m int, baseIdx int, p geometry.Vec3) {
		mirrors[m][baseIdx] = len(points)
		points = append(points, p)
		pointSym = append(pointSym, baseIdx)
	}

	// Mirror 1: y -> -y, fixed on the xz plane.
	for i, p := range quadrant {
		if onXZ[i] {
			mirrors[1][i] = i
			continue
		}
		appendImage(1, i, geometry.Vec3{X: p.X, Y: -p.Y, Z: p.Z})
	}

	// Mirror 2: z -> -z, fixed on the xy plane.
	for i, p := range quadrant {
		if onXY[i] {
			mirrors[2][i] = i
			continue
		}
		appendImage(2, i, geometry.Vec3{X: p.X, Y: p.Y, Z: -p.Z})
	}

	// Mirror 3: y -> -y, z -> -z. For points on either plane this composes
	// to one of the previous images; only interior points are fresh.
	for i, p := range quadrant {
		switch {
		case onXY[i] && onXZ[i]:
			mirrors[3][i] = i
		case onXZ[i]:
			mirrors[3][i] = mirrors[2][i]
		case onXY[i]:
			mirrors[3][i] = mirrors[1][i]
		default:
			appendImage(3, i, geometry.Vec3{X: p.X, Y: -p.Y, Z: -p.Z})
		}
	}

	return points, pointSym, mirrors
}

// triangulateBase computes the canonical faces of a quadrant point cloud:
// the convex hull of the quadrant with the flat closure faces lying in the
// symmetry planes rejected. extra points (appended after the quadrant) take
// part in the hull but faces touching them are dropped.
func triangulateBase(quadrant []geometry.Vec3, planeMembership func(i int) (onXY, onXZ bool), extra []geometry.Vec3) ([][3]int, error) {
	cloud := make([]geometry.Vec3, 0, len(quadrant)+len(extra))
	cloud = append(cloud, quadrant...)
	cloud = append(cloud, extra...)

	hull, err := geometry.ConvexHull3D(cloud)
	if err != nil {
		return nil, errors.WithMessage(err, "quadrant triangulation")
	}

	var faces [][3]int
	for _, f := range hull {
		if f[0] >= len(quadrant) || f[1] >= len(quadrant) || f[2] >= len(quadrant) {
			continue
		}
		xy0, xz0 := planeMembership(f[0])
		xy1, xz1 := planeMembership(f[1])
		xy2, xz2 := planeMembership(f[2])
		if xy0 && xy1 && xy2 {
			continue
		}
		if xz0 && xz1 && xz2 {
			continue
		}
		faces = append(faces, f)
	}
	if len(faces) == 0 {
		return nil, errors.WithMessage(fault.MeshMalformed, "quadrant triangulation left no surface faces")
	}
	return faces, nil
}

// gridClosed returns n evenly spaced values from a to b inclusive.
func gridClosed(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{a}
	}
	return floats.Span(make([]float64, n), a, b)
}

// gridOpen returns n evenly spaced values from a toward b with the end
// point excluded.
func gridOpen(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	return floats.Span(make([]float64, n+1), a, b)[:n]
}

// assemble propagates canonical faces through the mirror maps and fills the
// face bookkeeping.
func (m *Mesh) assemble(baseFaces [][3]int) {
	m.BaseFaceCount = len(baseFaces)
	m.Faces = make([][3]int, 0, 4*len(baseFaces))
	m.FaceSymmetry = make([]int, 0, 4*len(baseFaces))
	for mi := range m.mirrorMaps {
		inv := m.mirrorMaps[mi]
		for fi, f := range baseFaces {
			m.Faces = append(m.Faces, [3]int{inv[f[0]], inv[f[1]], inv[f[2]]})
			m.FaceSymmetry = append(m.FaceSymmetry, fi)
		}
	}
	m.FaceSpot = make([]int, len(m.Faces))
	for i := range m.FaceSpot {
		m.FaceSpot[i] = NoSpot
	}
	m.Symmetric = true
}
