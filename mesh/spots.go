package mesh

import (
	"math"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/star"
	"github.com/stefanparimucha/elisa/system"
)

// spotCloud is one spot's solved surface points in the component's own
// frame, centre first.
type spotCloud struct {
	index  int
	points []geometry.Vec3
}

// embedSpots inserts the component's circular spots into a built mesh:
// concentric point rings are solved on the equipotential, base points
// enclosed by each cap are removed, and the merged cloud is retriangulated
// with per-face spot labels. Symmetry is invalidated for the component.
//
// A spot whose centre cannot be solved, that lies past the neck of an
// over-contact envelope, or that loses every point to a later overlapping
// spot is dropped with a diagnostic; the computation continues.
func (m *Mesh) embedSpots(s *system.BinarySystem, c system.Component, d float64) error {
	host := s.Star(c)

	// Own-frame view of the mesh points (the secondary was mirrored into
	// the primary frame by the builder).
	ownFrame := func(p geometry.Vec3) geometry.Vec3 {
		if c == system.Secondary {
			return geometry.Vec3{X: d - p.X, Y: p.Y, Z: p.Z}
		}
		return p
	}

	solver := s.Solver(c)
	if s.Morphology == roche.OverContact {
		neck, err := roche.NeckPosition(s.MassRatio, s.Primary.SurfacePotential, s.Secondary.SurfacePotential)
		if err != nil {
			return err
		}
		// Spot points crossing the neck are rejected via the solver
		// predicate installed per direction in solveSpot.
		m.neckLimit = neck
		if c == system.Secondary {
			m.neckLimit = 1 - neck
		}
	}

	var clouds []spotCloud
	for idx, spot := range host.Spots {
		cloud, ok := m.solveSpot(solver, host, spot, idx, d)
		if !ok {
			log.Info().
				Str("component", c.String()).
				Int("spot", idx).
				Msg("spot does not satisfy surface conditions and is omitted")
			continue
		}
		clouds = append(clouds, cloud)
	}

	// Overlap policy: later spots consume the points of earlier spots and
	// of the base surface that fall inside their cap.
	kept := clouds[:0]
	for i, cloud := range clouds {
		points := cloud.points
		for _, later := range clouds[i+1:] {
			spot := host.Spots[later.index]
			axis := geometry.SphericalToCartesian(1, spot.Longitude, spot.Latitude)
			filtered := points[:0]
			for _, p := range points {
				if p.AngleBetween(axis) >= spot.AngularRadius {
					filtered = append(filtered, p)
				}
			}
			points = filtered
		}
		if len(points) == 0 {
			log.Info().
				Str("component", c.String()).
				Int("spot", cloud.index).
				Msg("spot fully covered by a later spot and removed")
			continue
		}
		kept = append(kept, spotCloud{index: cloud.index, points: points})
	}
	if len(kept) == 0 {
		return nil
	}

	// Remove enclosed base points.
	keepBase := make([]bool, len(m.Points))
	for i := range keepBase {
		keepBase[i] = true
	}
	for _, cloud := range kept {
		spot := host.Spots[cloud.index]
		axis := geometry.SphericalToCartesian(1, spot.Longitude, spot.Latitude)
		for i, p := range m.Points {
			if !keepBase[i] {
				continue
			}
			if ownFrame(p).AngleBetween(axis) < spot.AngularRadius {
				keepBase[i] = false
			}
		}
	}

	// Merged cloud in primary-frame coordinates with per-point spot labels.
	var merged []geometry.Vec3
	var labels []int
	for i, p := range m.Points {
		if keepBase[i] {
			merged = append(merged, p)
			labels = append(labels, NoSpot)
		}
	}
	for _, cloud := range kept {
		for _, p := range cloud.points {
			q := p
			if c == system.Secondary {
				q.X = d - q.X
			}
			merged = append(merged, q)
			labels = append(labels, cloud.index)
		}
	}

	faces, err := m.retriangulateSpotted(s, c, d, merged)
	if err != nil {
		return err
	}

	m.Points = merged
	m.Faces = faces
	m.FaceSpot = make([]int, len(faces))
	for fi, f := range faces {
		label := labels[f[0]]
		if label != NoSpot && labels[f[1]] == label && labels[f[2]] == label {
			m.FaceSpot[fi] = label
		} else {
			m.FaceSpot[fi] = NoSpot
		}
	}

	// Every surviving spot must hold at least one face; a faceless spot is
	// reported and its points stay as ordinary surface points.
	for _, cloud := range kept {
		if !m.SpotSurvived(cloud.index) {
			log.Info().
				Str("component", c.String()).
				Int("spot", cloud.index).
				Msg("spot retained no faces after retriangulation and is dropped")
		}
	}

	// Spot insertion breaks the base symmetry.
	m.Symmetric = false
	m.BasePointCount = 0
	m.BaseFaceCount = 0
	m.PointSymmetry = nil
	m.FaceSymmetry = nil
	m.mirrorMaps = [4][]int{}
	return nil
}

// solveSpot builds the concentric point rings of one spot in the
// component's own frame. The boolean result reports whether the spot is
// usable; any failed solve disqualifies it.
func (m *Mesh) solveSpot(solver roche.Solver, host *star.Star, spot star.Spot, idx int, d float64) (spotCloud, bool) {
	alpha := host.SpotAlpha(spot)
	lon, lat, radius := spot.Longitude, spot.Latitude, spot.AngularRadius

	solveDir := func(phi, theta float64) (geometry.Vec3, bool) {
		local := solver
		if m.neckLimit > 0 {
			sinTheta, cosPhi := math.Sin(theta), math.Cos(phi)
			limit := m.neckLimit
			local.Accept = func(rho float64) bool {
				return rho*cosPhi*sinTheta < limit
			}
		}
		rho, err := local.Radius(d, phi, theta)
		if err != nil {
			return geometry.Vec3{}, false
		}
		return geometry.SphericalToCartesian(rho, phi, theta), true
	}

	centre, ok := solveDir(lon, lat)
	if !ok {
		return spotCloud{}, false
	}
	// Viability probe one angular step from the centre; its failure means
	// the cap leaves the solvable surface.
	if _, ok := solveDir(lon, lat+alpha); !ok {
		return spotCloud{}, false
	}

	numRadial := int(math.Floor(radius / alpha))
	if numRadial < 1 {
		return spotCloud{}, false
	}

	axis := geometry.SphericalToCartesian(1, lon, lat)
	points := []geometry.Vec3{centre}
	for k := 1; k < numRadial; k++ {
		theta := lat + radius*float64(k)/float64(numRadial-1)
		base := geometry.SphericalToCartesian(1, lon, theta)

		nAz := int(math.Floor(2 * math.Pi * float64(k)))
		if nAz < 1 {
			nAz = 1
		}
		for j := 0; j < nAz; j++ {
			dir := geometry.RotateAboutAxis(base, axis, 2*math.Pi*float64(j)/float64(nAz))
			_, phi, theta := geometry.CartesianToSpherical(dir)
			p, ok := solveDir(phi, theta)
			if !ok {
				return spotCloud{}, false
			}
			points = append(points, p)
		}
	}
	return spotCloud{index: idx, points: points}, true
}

// retriangulateSpotted rebuilds the faces of a spotted component from the
// merged point cloud: a plain hull for detached surfaces, the neck
// projection with the seam filter for over-contact envelopes.
func (m *Mesh) retriangulateSpotted(s *system.BinarySystem, c system.Component, d float64, merged []geometry.Vec3) ([][3]int, error) {
	if s.Morphology != roche.OverContact {
		return geometry.ConvexHull3D(merged)
	}

	neck, err := roche.NeckPosition(s.MassRatio, s.Primary.SurfacePotential, s.Secondary.SurfacePotential)
	if err != nil {
		return nil, err
	}
	axisMax := neck
	if c == system.Secondary {
		axisMax = 1 - neck
	}

	own := make([]geometry.Vec3, len(merged))
	for i, p := range merged {
		own[i] = p
		if c == system.Secondary {
			own[i].X = d - p.X
		}
	}
	projected := make([]geometry.Vec3, len(own))
	k := neck / (axisMax + 0.01)
	for i, p := range own {
		projected[i] = projectTowardNeck(p, neck, k)
	}
	faces, err := geometry.ConvexHull3D(projected)
	if err != nil {
		return nil, err
	}
	return dropNeckSeamFaces(faces, own), nil
}
