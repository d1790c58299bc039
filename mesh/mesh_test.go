package mesh

import (
	"math"
	"testing"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/star"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

func component(potential float64) star.Star {
	return star.Star{
		Mass:                 2 * units.SolarMass,
		SurfacePotential:     potential,
		Synchronicity:        1,
		EffectiveTemperature: 5000,
		GravityDarkening:     1,
		Albedo:               0.6,
		DiscretizationFactor: 10 * units.Deg2Rad,
	}
}

func buildSystem(t *testing.T, omegaP, omegaS float64) *system.BinarySystem {
	t.Helper()
	primary := component(omegaP)
	secondary := component(omegaS)
	secondary.Mass = units.SolarMass

	s, err := system.New(system.Params{
		Primary:              primary,
		Secondary:            secondary,
		PeriodDays:           2,
		Eccentricity:         0,
		Inclination:          math.Pi / 2,
		ArgumentOfPeriastron: math.Pi / 2,
	})
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	return s
}

// topology counts vertices, edges and boundary edges of a face list.
func topology(faces [][3]int) (verts, edges, boundary int) {
	edgeCount := map[[2]int]int{}
	vertSet := map[int]bool{}
	for _, f := range faces {
		for k := 0; k < 3; k++ {
			u, v := f[k], f[(k+1)%3]
			if u > v {
				u, v = v, u
			}
			edgeCount[[2]int{u, v}]++
			vertSet[f[k]] = true
		}
	}
	for _, c := range edgeCount {
		if c == 1 {
			boundary++
		}
	}
	return len(vertSet), len(edgeCount), boundary
}

func TestDetachedMeshClosedSurface(t *testing.T) {
	s := buildSystem(t, 100, 100)
	for _, c := range []system.Component{system.Primary, system.Secondary} {
		m, err := Build(s, c, 1.0)
		if err != nil {
			t.Fatalf("%v: Build: %v", c, err)
		}

		verts, edges, boundary := topology(m.Faces)
		if boundary != 0 {
			t.Errorf("%v: %d boundary edges on a closed surface", c, boundary)
		}
		if chi := verts - edges + len(m.Faces); chi != 2 {
			t.Errorf("%v: Euler characteristic = %d, want 2", c, chi)
		}
		if verts != len(m.Points) {
			t.Errorf("%v: %d of %d points unused by faces", c, len(m.Points)-verts, len(m.Points))
		}
		if len(m.Faces) != 2*len(m.Points)-4 {
			t.Errorf("%v: %d faces for %d points, want %d", c, len(m.Faces), len(m.Points), 2*len(m.Points)-4)
		}
	}
}

func TestDetachedMeshSymmetryVectors(t *testing.T) {
	s := buildSystem(t, 100, 100)
	m, err := Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !m.Symmetric {
		t.Fatal("unspotted mesh should retain base symmetry")
	}
	if len(m.Faces) != 4*m.BaseFaceCount {
		t.Errorf("faces %d, want 4×%d", len(m.Faces), m.BaseFaceCount)
	}
	if len(m.FaceSymmetry) != len(m.Faces) {
		t.Fatalf("face symmetry vector length %d, want %d", len(m.FaceSymmetry), len(m.Faces))
	}
	for fi, base := range m.FaceSymmetry {
		if base < 0 || base >= m.BaseFaceCount {
			t.Fatalf("face %d maps to out-of-range base face %d", fi, base)
		}
	}
	for pi, base := range m.PointSymmetry {
		if base < 0 || base >= m.BasePointCount {
			t.Fatalf("point %d maps to out-of-range base point %d", pi, base)
		}
		// Symmetric images share the canonical |y|, |z| and x.
		p, b := m.Points[pi], m.Points[base]
		if math.Abs(p.X-b.X) > 1e-12 ||
			math.Abs(math.Abs(p.Y)-math.Abs(b.Y)) > 1e-12 ||
			math.Abs(math.Abs(p.Z)-math.Abs(b.Z)) > 1e-12 {
			t.Fatalf("point %d is not a mirror image of its base %d", pi, base)
		}
	}
}

func TestDetachedSphericalControlArea(t *testing.T) {
	// Scenario 1: a nearly spherical component of radius ≈ 0.01005.
	s := buildSystem(t, 100, 100)
	m, err := Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	total := 0.0
	for _, f := range m.Faces {
		total += geometry.TriangleArea(m.Points[f[0]], m.Points[f[1]], m.Points[f[2]])
	}
	r := 0.0100503
	sphere := 4 * math.Pi * r * r
	if math.Abs(total-sphere)/sphere > 0.03 {
		t.Errorf("mesh area %.6g deviates from sphere area %.6g by more than 3%%", total, sphere)
	}
}

func TestSecondaryMeshCentredOnCompanion(t *testing.T) {
	s := buildSystem(t, 100, 100)
	m, err := Build(s, system.Secondary, 1.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// All points cluster around (1, 0, 0) within the stellar radius.
	for i, p := range m.Points {
		if math.Abs(p.X-1.0) > 0.05 || math.Abs(p.Y) > 0.05 || math.Abs(p.Z) > 0.05 {
			t.Fatalf("point %d = %+v far from the secondary centre", i, p)
		}
	}
}

func TestOverContactMeshOpenAtNeck(t *testing.T) {
	s := buildSystem(t, 2.7, 2.7)
	for _, c := range []system.Component{system.Primary, system.Secondary} {
		m, err := Build(s, c, 1.0)
		if err != nil {
			t.Fatalf("%v: Build: %v", c, err)
		}

		verts, edges, boundary := topology(m.Faces)
		if boundary == 0 {
			t.Errorf("%v: over-contact half-envelope should be open at the neck", c)
		}
		if chi := verts - edges + len(m.Faces); chi != 1 {
			t.Errorf("%v: Euler characteristic = %d, want 1 (disk topology)", c, chi)
		}

		// Every boundary edge lies in the neck plane; the two half meshes
		// of the envelope share it.
		edgeCount := map[[2]int]int{}
		for _, f := range m.Faces {
			for k := 0; k < 3; k++ {
				u, v := f[k], f[(k+1)%3]
				if u > v {
					u, v = v, u
				}
				edgeCount[[2]int{u, v}]++
			}
		}
		var neckX []float64
		for e, cnt := range edgeCount {
			if cnt != 1 {
				continue
			}
			neckX = append(neckX, m.Points[e[0]].X, m.Points[e[1]].X)
		}
		for _, x := range neckX {
			if math.Abs(x-neckX[0]) > 1e-9 {
				t.Errorf("%v: boundary not confined to one neck plane: x spread %g vs %g", c, x, neckX[0])
				break
			}
		}
	}
}

func TestOverContactComponentsMeetAtSameNeck(t *testing.T) {
	s := buildSystem(t, 2.7, 2.7)
	mp, err := Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("primary: %v", err)
	}
	ms, err := Build(s, system.Secondary, 1.0)
	if err != nil {
		t.Fatalf("secondary: %v", err)
	}
	maxPrimary := -1.0
	for _, p := range mp.Points {
		maxPrimary = math.Max(maxPrimary, p.X)
	}
	minSecondary := 2.0
	for _, p := range ms.Points {
		minSecondary = math.Min(minSecondary, p.X)
	}
	if math.Abs(maxPrimary-minSecondary) > 1e-9 {
		t.Errorf("neck seam mismatch: primary reaches %.6f, secondary %.6f", maxPrimary, minSecondary)
	}
	if math.Abs(maxPrimary-0.507) > 0.01 {
		t.Errorf("neck position %.5f, want ≈0.507", maxPrimary)
	}
}

func spotted(radiusDeg float64) star.Spot {
	return star.Spot{
		Longitude:            math.Pi / 2,
		Latitude:             58 * units.Deg2Rad,
		AngularRadius:        radiusDeg * units.Deg2Rad,
		TemperatureFactor:    0.9,
		DiscretizationFactor: 5 * units.Deg2Rad,
	}
}

func TestSpotSurvivesInsertion(t *testing.T) {
	primary := component(100)
	primary.Spots = []star.Spot{spotted(17)}
	secondary := component(100)
	secondary.Mass = units.SolarMass

	s, err := system.New(system.Params{
		Primary:              primary,
		Secondary:            secondary,
		PeriodDays:           2,
		Eccentricity:         0,
		Inclination:          math.Pi / 2,
		ArgumentOfPeriastron: math.Pi / 2,
	})
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	m, err := Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if m.Symmetric {
		t.Error("spot insertion must invalidate base symmetry")
	}
	if !m.SpotSurvived(0) {
		t.Fatal("spot 0 should be present in the face-label map")
	}

	// Closed-surface topology is preserved through the embedding.
	verts, edges, boundary := topology(m.Faces)
	if boundary != 0 {
		t.Errorf("%d boundary edges after spot insertion", boundary)
	}
	if chi := verts - edges + len(m.Faces); chi != 2 {
		t.Errorf("Euler characteristic = %d, want 2", chi)
	}
}

func TestSpotCompleteOverlapReplacesEarlier(t *testing.T) {
	primary := component(100)
	primary.Spots = []star.Spot{spotted(17), spotted(25)}
	secondary := component(100)
	secondary.Mass = units.SolarMass

	s, err := system.New(system.Params{
		Primary:              primary,
		Secondary:            secondary,
		PeriodDays:           2,
		Eccentricity:         0,
		Inclination:          math.Pi / 2,
		ArgumentOfPeriastron: math.Pi / 2,
	})
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	m, err := Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	spots := m.Spots()
	if spots[0] {
		t.Error("fully covered first spot should have been removed")
	}
	if !spots[1] {
		t.Error("covering second spot should survive")
	}
	if len(spots) != 1 {
		t.Errorf("exactly one spot expected, got %v", spots)
	}
}
