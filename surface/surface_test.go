package surface

import (
	"math"
	"testing"

	"github.com/stefanparimucha/elisa/mesh"
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

func control(t *testing.T) (*system.BinarySystem, *mesh.Mesh, *Fields) {
	t.Helper()
	primary := component(100)
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
	m, err := mesh.Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("mesh.Build: %v", err)
	}
	f, err := Compute(s, m, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return s, m, f
}

func TestNormalsOutward(t *testing.T) {
	_, m, f := control(t)
	for i := range m.Faces {
		if f.Normals[i].Dot(f.Centres[i]) <= 0 {
			t.Fatalf("face %d: normal not outward", i)
		}
		if math.Abs(f.Normals[i].Norm()-1) > 1e-12 {
			t.Fatalf("face %d: normal not unit length", i)
		}
	}
}

func TestNormalsRadialForSphericalControl(t *testing.T) {
	_, _, f := control(t)
	for i, n := range f.Normals {
		radial := f.Centres[i].Normalized()
		if n.Dot(radial) < 0.99 {
			t.Fatalf("face %d: normal deviates from radial direction, cos = %g", i, n.Dot(radial))
		}
	}
}

func TestLogGUniformOnSphericalControl(t *testing.T) {
	s, _, f := control(t)

	// Expected: Newtonian gravity of 2 M☉ at r ≈ 0.01005 a, in cgs log10.
	r := 0.0100503 * s.SemiMajorAxis
	want := units.LogGCgs(units.G * s.Primary.Mass / (r * r))

	for i, lg := range f.LogG {
		if math.Abs(lg-want) > 0.02 {
			t.Fatalf("face %d: log g = %.4f, want ≈%.4f", i, lg, want)
		}
	}
}

func TestTemperatureUniformOnSphericalControl(t *testing.T) {
	_, _, f := control(t)
	// Centroid depression varies slightly with face size at α = 10°, so the
	// von Zeipel ratio scatters by a few tenths of a percent.
	for i, temp := range f.Temperatures {
		if math.Abs(temp-5000) > 30 {
			t.Fatalf("face %d: T = %.2f K, want ≈5000 K", i, temp)
		}
	}
}

func TestSpotTemperatureFactor(t *testing.T) {
	primary := component(100)
	primary.Spots = []star.Spot{{
		Longitude:            math.Pi / 2,
		Latitude:             58 * units.Deg2Rad,
		AngularRadius:        17 * units.Deg2Rad,
		TemperatureFactor:    0.9,
		DiscretizationFactor: 5 * units.Deg2Rad,
	}}
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
	m, err := mesh.Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("mesh.Build: %v", err)
	}
	f, err := Compute(s, m, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	spotFaces, starFaces := 0, 0
	for i, label := range m.FaceSpot {
		if label == mesh.NoSpot {
			starFaces++
			continue
		}
		spotFaces++
		if math.Abs(f.Temperatures[i]-0.9*5000) > 30 {
			t.Errorf("spot face %d: T = %.2f, want ≈4500", i, f.Temperatures[i])
		}
	}
	if spotFaces == 0 {
		t.Fatal("no spot faces labelled")
	}
	if starFaces == 0 {
		t.Fatal("no unspotted faces left")
	}
}

func TestReflectionHeatsFacingSides(t *testing.T) {
	primary := component(3.5)
	secondary := component(3.5)
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

	mp, err := mesh.Build(s, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("primary mesh: %v", err)
	}
	ms, err := mesh.Build(s, system.Secondary, 1.0)
	if err != nil {
		t.Fatalf("secondary mesh: %v", err)
	}
	fp, err := Compute(s, mp, system.Primary, 1.0)
	if err != nil {
		t.Fatalf("primary fields: %v", err)
	}
	fs, err := Compute(s, ms, system.Secondary, 1.0)
	if err != nil {
		t.Fatalf("secondary fields: %v", err)
	}

	before := append([]float64(nil), fp.Temperatures...)
	ApplyReflection(s, fp, fs, 1.0, 2)

	facingGain, farGain := 0.0, 0.0
	facing, far := 0, 0
	for i := range fp.Temperatures {
		gain := fp.Temperatures[i] - before[i]
		if gain < -1e-9 {
			t.Fatalf("face %d cooled by reflection: %g", i, gain)
		}
		if fp.Centres[i].X > 0.02 {
			facingGain += gain
			facing++
		} else if fp.Centres[i].X < -0.02 {
			farGain += gain
			far++
		}
	}
	if facing == 0 || far == 0 {
		t.Fatal("classification of facing/far faces failed")
	}
	if facingGain/float64(facing) <= farGain/float64(far) {
		t.Errorf("facing side should heat more: facing %.4f K vs far %.4f K",
			facingGain/float64(facing), farGain/float64(far))
	}
}
