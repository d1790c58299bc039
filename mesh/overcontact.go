package mesh

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

// neckSeamTolerance identifies stitching faces lying in a constant-x plane
// at the neck; the projected-hull approach produces those on the seam and
// they are filtered by this x-collinearity check.
const neckSeamTolerance = 1e-8

// BuildOverContact meshes one component of an over-contact system. The
// separation is fixed at 1: shared envelopes exist only for circular
// synchronous orbits.
//
// The far side of the component is sampled as a spherical quadrant; the
// neck side is sampled in cylindrical coordinates along the line of centres
// up to the neck position. Stitching relies on projecting the quadrant onto
// a convex body (sphere over the far side, shrinking cone toward the neck)
// whose hull triangulation is valid for the original points.
func BuildOverContact(s *system.BinarySystem, c system.Component) (*Mesh, error) {
	const d = 1.0
	alpha := s.Star(c).DiscretizationFactor
	solver := s.Solver(c)

	neck, err := roche.NeckPosition(s.MassRatio, s.Primary.SurfacePotential, s.Secondary.SurfacePotential)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s over-contact mesh", c)
	}
	// Axial extent of this component's half of the envelope, own frame.
	axisMax := neck
	if c == system.Secondary {
		axisMax = 1.0 - neck
	}

	polar, err := solver.PolarRadius(d)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s polar radius", c)
	}

	solve := func(phi, theta float64) (geometry.Vec3, error) {
		rho, err := solver.Radius(d, phi, theta)
		if err != nil {
			return geometry.Vec3{}, err
		}
		return geometry.SphericalToCartesian(rho, phi, theta), nil
	}

	var quadrant []geometry.Vec3
	var onXY, onXZ []bool
	push := func(p geometry.Vec3, xy, xz bool) {
		quadrant = append(quadrant, p)
		onXY = append(onXY, xy)
		onXZ = append(onXZ, xz)
	}

	// Far-side equator arc: φ ∈ [π/2, π] at θ = π/2.
	nEq := int(math.Floor(units.HalfPi / alpha))
	for i, phi := range gridClosed(units.HalfPi, math.Pi, nEq+1) {
		p, err := solve(phi, units.HalfPi)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s far equator", c)
		}
		push(p, true, i == nEq)
	}

	// Far meridian: φ = π from below the equator to the pole.
	for _, theta := range gridClosed(units.HalfPi-alpha, 0, nEq) {
		p, err := solve(math.Pi, theta)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s far meridian", c)
		}
		push(p, false, true)
	}

	// Side meridian: φ = π/2 between pole and equator; interior points of
	// the quadrant (the x = 0 plane is not a symmetry plane).
	for _, theta := range gridOpen(alpha, units.HalfPi, nEq-1) {
		p, err := solve(units.HalfPi, theta)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s side meridian", c)
		}
		push(p, false, false)
	}

	// Far-side interior rings.
	for _, theta := range gridOpen(alpha, units.HalfPi, nEq-1) {
		corrected := alpha / math.Sin(theta)
		nAz := int(math.Floor(units.HalfPi / corrected))
		if nAz < 1 {
			continue
		}
		corrected = units.HalfPi / float64(nAz+1)
		for j := 1; j <= nAz; j++ {
			p, err := solve(units.HalfPi+corrected*float64(j), theta)
			if err != nil {
				return nil, errors.WithMessagef(err, "%s far interior θ=%.3f", c, theta)
			}
			push(p, false, false)
		}
	}

	// Neck patch in cylindrical coordinates: axial steps Δz = α·r_pole
	// from the component toward the neck plane.
	deltaZ := alpha * polar
	nz := int(math.Floor(axisMax / deltaZ))
	if nz < 1 {
		return nil, errors.WithMessagef(fault.MeshMalformed,
			"%s neck discretisation collapsed, discretization factor too coarse", c)
	}
	for _, z := range gridClosed(deltaZ, axisMax, nz) {
		// Polar-side seed, φ = 0 (xz plane).
		rhoPole, err := solver.RadiusCylindrical(0, z)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s neck φ=0 z=%.4f", c, z)
		}
		push(geometry.CylindricalToCartesian(rhoPole, 0, z), false, true)

		// Equator-side seed, φ = π/2 (xy plane).
		rhoEq, err := solver.RadiusCylindrical(units.HalfPi, z)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s neck φ=π/2 z=%.4f", c, z)
		}
		push(geometry.CylindricalToCartesian(rhoEq, units.HalfPi, z), true, false)

		// Interior arc with spacing comparable to Δz.
		nPhi := int(math.Floor(units.HalfPi * rhoEq / deltaZ))
		if nPhi <= 1 {
			continue
		}
		for _, phi := range gridOpen(units.HalfPi/float64(nPhi), units.HalfPi, nPhi) {
			rho, err := solver.RadiusCylindrical(phi, z)
			if err != nil {
				return nil, errors.WithMessagef(err, "%s neck φ=%.3f z=%.4f", c, phi, z)
			}
			push(geometry.CylindricalToCartesian(rho, phi, z), false, false)
		}
	}

	m := &Mesh{Component: c}
	points, pointSym, mirrors := replicate(quadrant, onXY, onXZ)
	m.Points = points
	m.PointSymmetry = pointSym
	m.mirrorMaps = mirrors
	m.BasePointCount = len(quadrant)

	// Project the quadrant onto a convex body before the hull: sphere of
	// radius r_neck over the far side, shrinking cone toward the neck.
	projected := make([]geometry.Vec3, len(quadrant))
	k := neck / (axisMax + 0.01)
	for i, p := range quadrant {
		projected[i] = projectTowardNeck(p, neck, k)
	}
	centre := projectTowardNeck(geometry.Vec3{X: axisMax}, neck, k)

	membership := func(i int) (bool, bool) { return onXY[i], onXZ[i] }
	baseFaces, err := triangulateBase(projected, membership, []geometry.Vec3{centre})
	if err != nil {
		return nil, errors.WithMessagef(err, "%s envelope surface", c)
	}
	baseFaces = dropNeckSeamFaces(baseFaces, quadrant)
	m.assemble(baseFaces)

	if c == system.Secondary {
		mirrorSecondary(m.Points, d)
	}

	log.Debug().
		Str("component", c.String()).
		Float64("neck", neck).
		Int("points", len(m.Points)).
		Int("faces", len(m.Faces)).
		Msg("over-contact mesh built")
	return m, nil
}

// projectTowardNeck maps an envelope point onto the convex stitching body:
// points behind the component centre land on the sphere of radius r, points
// toward the neck keep their axial coordinate while the cross-section
// shrinks as the cone sqrt(r² - (k·x)²).
func projectTowardNeck(p geometry.Vec3, r, k float64) geometry.Vec3 {
	if p.X <= 0 {
		n := p.Norm()
		if n == 0 {
			return p
		}
		return p.Scale(r / n)
	}
	cross := math.Hypot(p.Y, p.Z)
	radial := math.Sqrt(math.Max(r*r-k*p.X*k*p.X, 0))
	if cross == 0 {
		// Axis points (the synthetic neck centre) keep a zero cross-section.
		return geometry.Vec3{X: p.X}
	}
	scale := radial / cross
	return geometry.Vec3{X: p.X, Y: p.Y * scale, Z: p.Z * scale}
}

// dropNeckSeamFaces removes hull faces lying in a constant-x plane inside
// the envelope: the projected hull closes the neck opening with such faces
// and they must not survive as surface.
func dropNeckSeamFaces(faces [][3]int, quadrant []geometry.Vec3) [][3]int {
	out := faces[:0]
	for _, f := range faces {
		minX := math.Min(quadrant[f[0]].X, math.Min(quadrant[f[1]].X, quadrant[f[2]].X))
		maxX := math.Max(quadrant[f[0]].X, math.Max(quadrant[f[1]].X, quadrant[f[2]].X))
		if maxX-minX <= neckSeamTolerance && minX > neckSeamTolerance {
			continue
		}
		out = append(out, f)
	}
	return out
}
