package mesh

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

// BuildDetached meshes one component of a detached or semi-detached system
// at separation d.
//
// One quadrant (azimuth [0, π], polar angle [0, π/2]) is sampled along the
// equator, the φ = 0 and φ = π meridian halves, and interior polar rings
// with a θ-dependent azimuthal step α/sin θ that keeps the triangles close
// to equilateral. The quadrant is replicated by the xy and xz mirrors and
// triangulated through its convex hull.
func BuildDetached(s *system.BinarySystem, c system.Component, d float64) (*Mesh, error) {
	alpha := s.Star(c).DiscretizationFactor
	solver := s.Solver(c)

	solve := func(phi, theta float64) (geometry.Vec3, error) {
		rho, err := solver.Radius(d, phi, theta)
		if err != nil {
			return geometry.Vec3{}, err
		}
		return geometry.SphericalToCartesian(rho, phi, theta), nil
	}

	// Equator arc: azimuths [0, π] at θ = π/2.
	nEq := int(math.Floor(math.Pi / alpha))
	equator := make([]geometry.Vec3, 0, nEq+1)
	for _, phi := range gridClosed(0, math.Pi, nEq+1) {
		p, err := solve(phi, units.HalfPi)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s equator", c)
		}
		equator = append(equator, p)
	}

	// Meridian arcs: the φ = π half from θ = π/2-α down to α, then the
	// φ = 0 half from the pole up to (but excluding) the equator.
	nMer := int(math.Floor(units.HalfPi / alpha))
	meridian := make([]geometry.Vec3, 0, 2*nMer-1)
	for _, theta := range gridClosed(units.HalfPi-alpha, alpha, nMer-1) {
		p, err := solve(math.Pi, theta)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s far meridian", c)
		}
		meridian = append(meridian, p)
	}
	for _, theta := range gridOpen(0, units.HalfPi, nMer) {
		p, err := solve(0, theta)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s near meridian", c)
		}
		meridian = append(meridian, p)
	}

	// Interior rings with the corrected azimuthal step.
	var interior []geometry.Vec3
	for _, theta := range gridOpen(alpha, units.HalfPi, nMer) {
		corrected := alpha / math.Sin(theta)
		nAz := int(math.Floor(math.Pi / corrected))
		if nAz < 1 {
			continue
		}
		corrected = math.Pi / float64(nAz+1)
		for j := 1; j <= nAz; j++ {
			p, err := solve(corrected*float64(j), theta)
			if err != nil {
				return nil, errors.WithMessagef(err, "%s interior ring θ=%.3f", c, theta)
			}
			interior = append(interior, p)
		}
	}

	m := &Mesh{Component: c}
	quadrant := make([]geometry.Vec3, 0, len(equator)+len(meridian)+len(interior))
	quadrant = append(quadrant, equator...)
	quadrant = append(quadrant, meridian...)
	quadrant = append(quadrant, interior...)

	onXY := make([]bool, len(quadrant))
	onXZ := make([]bool, len(quadrant))
	for i := range equator {
		onXY[i] = true
		onXZ[i] = i == 0 || i == len(equator)-1
	}
	for i := range meridian {
		onXZ[len(equator)+i] = true
	}

	points, pointSym, mirrors := replicate(quadrant, onXY, onXZ)
	m.Points = points
	m.PointSymmetry = pointSym
	m.mirrorMaps = mirrors
	m.BasePointCount = len(quadrant)

	membership := func(i int) (bool, bool) { return onXY[i], onXZ[i] }
	baseFaces, err := triangulateBase(quadrant, membership, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s surface", c)
	}
	m.assemble(baseFaces)

	if c == system.Secondary {
		mirrorSecondary(m.Points, d)
	}

	log.Debug().
		Str("component", c.String()).
		Int("points", len(m.Points)).
		Int("faces", len(m.Faces)).
		Msg("detached mesh built")
	return m, nil
}

// mirrorSecondary moves a mesh solved in the secondary's own frame into
// primary-frame coordinates: reflect across the plane through the secondary
// centre and translate along the line of centres.
func mirrorSecondary(points []geometry.Vec3, d float64) {
	for i := range points {
		points[i].X = d - points[i].X
	}
}
