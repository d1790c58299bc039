package curve

import (
	"math"
	"testing"

	"github.com/stefanparimucha/elisa/radiance"
	"github.com/stefanparimucha/elisa/star"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

func component(mass, potential, synchronicity float64) star.Star {
	return star.Star{
		Mass:                 mass,
		SurfacePotential:     potential,
		Synchronicity:        synchronicity,
		EffectiveTemperature: 5000,
		GravityDarkening:     1,
		Albedo:               0.6,
		DiscretizationFactor: 10 * units.Deg2Rad,
	}
}

func controlSystem(t *testing.T) *system.BinarySystem {
	t.Helper()
	s, err := system.New(system.Params{
		Primary:              component(2*units.SolarMass, 100, 1),
		Secondary:            component(units.SolarMass, 100, 1),
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

func eccentricSystem(t *testing.T, spots []star.Spot) *system.BinarySystem {
	t.Helper()
	primary := component(2*units.SolarMass, 4.8, 1.5)
	primary.Spots = spots
	s, err := system.New(system.Params{
		Primary:              primary,
		Secondary:            component(units.SolarMass, 4.0, 1.2),
		PeriodDays:           1,
		Eccentricity:         0.3,
		Inclination:          math.Pi / 2,
		ArgumentOfPeriastron: math.Pi / 2,
	})
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	return s
}

func bolometric() []*radiance.Passband {
	return []*radiance.Passband{radiance.Bolometric()}
}

func TestModeSelection(t *testing.T) {
	span := make([]float64, 41)
	for i := range span {
		span[i] = float64(i) / 40
	}

	cases := []struct {
		name     string
		system   *system.BinarySystem
		settings Settings
		phases   []float64
		want     Mode
	}{
		{"circular synchronous auto", controlSystem(t), DefaultSettings(), span, ModeCircularSync},
		{"eccentric spotless auto", eccentricSystem(t, nil), DefaultSettings(), span, ModeApsidalMirror},
		{"eccentric short span auto", eccentricSystem(t, nil), DefaultSettings(), []float64{0.1, 0.2}, ModeExact},
		{"forced exact", controlSystem(t), Settings{Approximation: Exact}, span, ModeExact},
		{"forced interpolate", controlSystem(t), Settings{Approximation: Interpolate}, span, ModeInterpolate},
		{"forced similarity", controlSystem(t), Settings{Approximation: Similarity}, span, ModeSimilarity},
	}
	for _, c := range cases {
		e := New(c.system, nil, c.settings)
		if got := e.selectMode(c.phases); got != c.want {
			t.Errorf("%s: mode = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestModeSelectionEccentricSpotted(t *testing.T) {
	spots := []star.Spot{{
		Longitude:            math.Pi,
		Latitude:             math.Pi / 2,
		AngularRadius:        15 * units.Deg2Rad,
		TemperatureFactor:    0.9,
		DiscretizationFactor: 5 * units.Deg2Rad,
	}}
	s := eccentricSystem(t, spots)
	e := New(s, nil, DefaultSettings())
	span := []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}
	if got := e.selectMode(span); got != ModeExact {
		t.Errorf("eccentric spotted system: mode = %v, want exact", got)
	}
}

func TestLightCurveMirrorSymmetry(t *testing.T) {
	// Scenario 1: e = 0, ω = π/2, no spots -> LC(φ) = LC(1-φ).
	e := New(controlSystem(t), nil, DefaultSettings())
	phases := []float64{0, 0.25, 0.5, 0.75}

	lc, err := e.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("LightCurve: %v", err)
	}
	if e.Mode() != ModeCircularSync {
		t.Errorf("mode = %v, want circular-synchronous", e.Mode())
	}

	flux := lc[radiance.BolometricBand]
	if len(flux) != 4 {
		t.Fatalf("flux array length %d, want 4", len(flux))
	}
	if math.Abs(flux[1]-flux[3])/flux[1] > 1e-6 {
		t.Errorf("mirror symmetry violated: LC(0.25)=%.9g vs LC(0.75)=%.9g", flux[1], flux[3])
	}
	for i, f := range flux {
		if f <= 0 {
			t.Errorf("phase %g: non-positive flux %g", phases[i], f)
		}
	}
	// Eclipse at conjunction dims the system relative to quadrature.
	if flux[0] >= flux[1] {
		t.Errorf("no eclipse dimming: LC(0)=%.9g >= LC(0.25)=%.9g", flux[0], flux[1])
	}
}

func TestLightCurvePhaseTranslationInvariance(t *testing.T) {
	e := New(controlSystem(t), nil, DefaultSettings())
	phases := []float64{0.1, 0.35, 0.6, 0.85}
	shifted := make([]float64, len(phases))
	for i, p := range phases {
		shifted[i] = p + 2 // two full periods
	}

	base, err := e.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	moved, err := e.LightCurve(shifted, bolometric())
	if err != nil {
		t.Fatalf("shifted: %v", err)
	}

	for i := range phases {
		b := base[radiance.BolometricBand][i]
		m := moved[radiance.BolometricBand][i]
		if math.Abs(b-m)/b > 1e-12 {
			t.Errorf("phase %g: flux changed under integer-period shift: %.12g vs %.12g",
				phases[i], b, m)
		}
	}
}

func TestEccentricExactAndMirrorAgree(t *testing.T) {
	phases := make([]float64, 17)
	for i := range phases {
		phases[i] = float64(i) / 16
	}

	mirror := New(eccentricSystem(t, nil), nil, DefaultSettings())
	lcMirror, err := mirror.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if mirror.Mode() != ModeApsidalMirror {
		t.Fatalf("mode = %v, want apsidal-mirror", mirror.Mode())
	}

	exactSettings := DefaultSettings()
	exactSettings.Approximation = Exact
	exact := New(eccentricSystem(t, nil), nil, exactSettings)
	lcExact, err := exact.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("exact: %v", err)
	}

	for i := range phases {
		a := lcMirror[radiance.BolometricBand][i]
		b := lcExact[radiance.BolometricBand][i]
		if math.Abs(a-b)/b > 1e-9 {
			t.Errorf("phase %g: mirror %.10g vs exact %.10g", phases[i], a, b)
		}
	}
}

func TestInterpolatingModeTracksExact(t *testing.T) {
	// Out-of-eclipse window: the control system's eclipses are narrow
	// (phase half-width ≈ 0.0024), and the interpolating mode is specified
	// for smooth curve segments.
	phases := make([]float64, 41)
	for i := range phases {
		phases[i] = 0.05 + 0.4*float64(i)/40
	}

	interp := New(controlSystem(t), nil, Settings{Approximation: Interpolate})
	lcInterp, err := interp.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("interpolate: %v", err)
	}
	if interp.Mode() != ModeInterpolate {
		t.Fatalf("mode = %v, want interpolating", interp.Mode())
	}

	reference := New(controlSystem(t), nil, DefaultSettings())
	lcRef, err := reference.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("reference: %v", err)
	}

	for i := range phases {
		a := lcInterp[radiance.BolometricBand][i]
		b := lcRef[radiance.BolometricBand][i]
		// The segment is almost flat, so the interpolant stays close.
		if math.Abs(a-b)/b > 0.01 {
			t.Errorf("phase %g: interpolated %.6g deviates from exact %.6g", phases[i], a, b)
		}
	}
}

func TestSimilarityModeRuns(t *testing.T) {
	phases := []float64{0.1, 0.12, 0.14, 0.35, 0.62, 0.9}
	e := New(eccentricSystem(t, nil), nil, Settings{Approximation: Similarity})
	lc, err := e.LightCurve(phases, bolometric())
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if e.Mode() != ModeSimilarity {
		t.Fatalf("mode = %v, want similarity-reuse", e.Mode())
	}
	for i, f := range lc[radiance.BolometricBand] {
		if f <= 0 {
			t.Errorf("phase %g: non-positive flux %g", phases[i], f)
		}
	}
}

func TestRadialVelocities(t *testing.T) {
	s, err := system.New(system.Params{
		Primary:              component(2*units.SolarMass, 100, 1),
		Secondary:            component(units.SolarMass, 100, 1),
		PeriodDays:           2,
		Eccentricity:         0,
		Inclination:          math.Pi / 2,
		ArgumentOfPeriastron: math.Pi / 2,
		Gamma:                15000, // 15 km/s systemic velocity
	})
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	e := New(s, nil, DefaultSettings())

	n := 200
	phases := make([]float64, n)
	for i := range phases {
		phases[i] = float64(i) / float64(n)
	}
	primary, secondary, err := e.RadialVelocities(phases)
	if err != nil {
		t.Fatalf("RadialVelocities: %v", err)
	}

	// Mean over one full period recovers the systemic velocity.
	meanP, meanS := 0.0, 0.0
	for i := range phases {
		meanP += primary[i]
		meanS += secondary[i]
	}
	meanP /= float64(n)
	meanS /= float64(n)
	if math.Abs(meanP-15000) > 50 {
		t.Errorf("primary mean RV = %.1f, want ≈15000", meanP)
	}
	if math.Abs(meanS-15000) > 50 {
		t.Errorf("secondary mean RV = %.1f, want ≈15000", meanS)
	}

	// Anti-correlation with amplitude ratio q = K1/K2.
	var ampP, ampS float64
	for i := range phases {
		ampP = math.Max(ampP, math.Abs(primary[i]-15000))
		ampS = math.Max(ampS, math.Abs(secondary[i]-15000))
	}
	if math.Abs(ampP/ampS-0.5) > 1e-9 {
		t.Errorf("K1/K2 = %.6f, want q = 0.5", ampP/ampS)
	}
	for i := range phases {
		dp := primary[i] - 15000
		ds := secondary[i] - 15000
		if dp*ds > 1e-6 {
			t.Fatalf("phase %g: components not anti-correlated (%.3f, %.3f)", phases[i], dp, ds)
		}
	}
}

func TestRadialVelocityAmplitude(t *testing.T) {
	// Circular edge-on: K1 = 2π a₁ / P.
	s := controlSystem(t)
	e := New(s, nil, DefaultSettings())

	phases := []float64{0.0, 0.25, 0.5, 0.75}
	primary, _, err := e.RadialVelocities(phases)
	if err != nil {
		t.Fatalf("RadialVelocities: %v", err)
	}

	a1 := s.SemiMajorAxis * s.MassRatio / (1 + s.MassRatio)
	wantK := units.FullArc * a1 / units.DaysToSeconds(2)
	maxAbs := 0.0
	for _, v := range primary {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if math.Abs(maxAbs-wantK)/wantK > 1e-9 {
		t.Errorf("K1 = %.3f, want %.3f", maxAbs, wantK)
	}
}
