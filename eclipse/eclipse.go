// Package eclipse computes surface coverage under mutual eclipses: faces of
// the foreground component stay fully visible, faces of the background
// component are hidden or clipped against the foreground silhouette in the
// sky plane.
//
// It also precomputes the eclipse azimuth windows so the clipper only runs
// on phases where an eclipse is geometrically possible.
package eclipse

import (
	"math"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/position"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

var log = logging.New("eclipse")

// coverageTolerance: a face keeping less than this fraction of its area is
// treated as hidden.
const coverageTolerance = 1e-12

// Coverage returns the visible area per face for both components at one
// orbital position. Values are the face's 3-D area scaled by its unoccluded
// fraction; dark-side and hidden faces carry zero.
//
// inEclipse gates the clipping work: when false (established by the
// Windows precheck) both components are treated as fully visible on their
// bright sides.
func Coverage(c *position.Container, inEclipse bool) (primary, secondary []float64) {
	front, back := c.Front()

	frontCoverage := brightSideAreas(front)
	backCoverage := brightSideAreas(back)

	if inEclipse {
		clipBack(front, back, backCoverage)
	}

	if front.Component == system.Primary {
		return frontCoverage, backCoverage
	}
	return backCoverage, frontCoverage
}

// brightSideAreas assigns full face areas on the observer side, zero on
// the dark side.
func brightSideAreas(b *position.Body) []float64 {
	out := make([]float64, len(b.Faces))
	for i, n := range b.Normals {
		if n.Dot(position.LineOfSight) > 0 {
			out[i] = b.Areas[i]
		}
	}
	return out
}

// clipBack reduces the coverage of background faces occulted by the
// foreground silhouette.
func clipBack(front, back *position.Body, coverage []float64) {
	// Foreground silhouette: convex hull of all projected points.
	projected := make([]geometry.Point2, len(front.Points))
	for i, p := range front.Points {
		projected[i] = position.ProjectSky(p)
	}
	hull := geometry.ConvexHull2D(projected)
	if len(hull) < 3 {
		return
	}
	hMinX, hMinY, hMaxX, hMaxY := geometry.BoundingBox(hull)

	for i := range back.Faces {
		if coverage[i] == 0 {
			continue
		}
		face := back.Faces[i]
		tri := [3]geometry.Point2{
			position.ProjectSky(back.Points[face[0]]),
			position.ProjectSky(back.Points[face[1]]),
			position.ProjectSky(back.Points[face[2]]),
		}

		// Separating-box rejection before polygon work.
		tMinX, tMinY, tMaxX, tMaxY := geometry.BoundingBox(tri[:])
		if !geometry.BoxesOverlap(tMinX, tMinY, tMaxX, tMaxY, hMinX, hMinY, hMaxX, hMaxY) {
			continue
		}

		triArea := geometry.PolygonArea(tri[:])
		if triArea == 0 {
			// Degenerate projection (edge-on face or collinear points).
			log.Debug().Int("face", i).Msg("degenerate projected face, treated as hidden")
			coverage[i] = 0
			continue
		}

		subject := orientCCW(tri[:])
		inter := geometry.ClipConvex(subject, hull)
		occluded := geometry.PolygonArea(inter)

		fraction := 1 - occluded/triArea
		if fraction < coverageTolerance {
			coverage[i] = 0
			continue
		}
		if fraction > 1 {
			fraction = 1
		}
		coverage[i] = fraction * back.Areas[i]
	}
}

// orientCCW returns the polygon in counter-clockwise order.
func orientCCW(poly []geometry.Point2) []geometry.Point2 {
	sum := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	if sum >= 0 {
		return poly
	}
	out := make([]geometry.Point2, len(poly))
	for i := range poly {
		out[i] = poly[len(poly)-1-i]
	}
	return out
}

// Windows holds the precomputed eclipse azimuth windows of a system: the
// half-widths of the occultation intervals around the two conjunctions.
type Windows struct {
	halfWidth float64
	always    bool
	never     bool
}

// Boundaries derives the eclipse windows from the orbital geometry at the
// tightest separation. Over-contact systems are always in mutual contact;
// systems whose inclination keeps the silhouettes apart never eclipse.
func Boundaries(s *system.BinarySystem, d float64) (*Windows, error) {
	if s.Morphology == roche.OverContact {
		return &Windows{always: true}, nil
	}

	rp, err := s.CharacteristicRadii(system.Primary, d)
	if err != nil {
		return nil, err
	}
	rs, err := s.CharacteristicRadii(system.Secondary, d)
	if err != nil {
		return nil, err
	}

	sum := (rp.Forward + rs.Forward) / d
	cosI := math.Cos(s.Orbit.Inclination)
	if cosI*cosI >= sum*sum {
		return &Windows{never: true}, nil
	}
	sinI := math.Sin(s.Orbit.Inclination)
	half := math.Asin(math.Sqrt(sum*sum-cosI*cosI) / sinI)
	return &Windows{halfWidth: half}, nil
}

// InEclipse reports whether the given azimuth falls inside either eclipse
// window.
func (w *Windows) InEclipse(azimuth float64) bool {
	if w.always {
		return true
	}
	if w.never {
		return false
	}
	for _, conj := range [2]float64{units.HalfPi, 3 * units.HalfPi} {
		delta := math.Abs(math.Mod(azimuth-conj+3*math.Pi, units.FullArc) - math.Pi)
		if delta <= w.halfWidth {
			return true
		}
	}
	return false
}
