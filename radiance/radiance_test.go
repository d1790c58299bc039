package radiance

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/units"
)

func TestPlanckBolometricIntensity(t *testing.T) {
	// ∫B_λ dλ = σT⁴/π for a blackbody.
	atlas := &PlanckAtlas{}
	ev := &Evaluator{Atlas: atlas, LD: ConstantLD{Values: []float64{0}}, Law: Linear}

	for _, temp := range []float64{4000.0, 5000.0, 8000.0} {
		got, err := ev.NormalIntensity(temp, 4.4, 0, Bolometric())
		if err != nil {
			t.Fatalf("T=%g: %v", temp, err)
		}
		want := units.StefanBoltzmann * math.Pow(temp, 4) / math.Pi
		if math.Abs(got-want)/want > 0.01 {
			t.Errorf("T=%g: bolometric intensity %.4g, want %.4g (±1%%)", temp, got, want)
		}
	}
}

func TestEvaluatorCache(t *testing.T) {
	ev := &Evaluator{Atlas: &PlanckAtlas{}, LD: ConstantLD{Values: []float64{0.5}}, Law: Linear}
	band := Bolometric()

	if _, err := ev.NormalIntensity(5000.2, 4.4, 0, band); err != nil {
		t.Fatal(err)
	}
	if ev.CacheSize() != 1 {
		t.Fatalf("cache size = %d, want 1", ev.CacheSize())
	}
	// Same rounded key: no new entry.
	if _, err := ev.NormalIntensity(5000.4, 4.4, 0, band); err != nil {
		t.Fatal(err)
	}
	if ev.CacheSize() != 1 {
		t.Errorf("cache size = %d after equivalent lookup, want 1", ev.CacheSize())
	}
	if _, err := ev.NormalIntensity(5321, 4.4, 0, band); err != nil {
		t.Fatal(err)
	}
	if ev.CacheSize() != 2 {
		t.Errorf("cache size = %d after distinct lookup, want 2", ev.CacheSize())
	}
}

func TestLimbDarkeningLaws(t *testing.T) {
	// All laws are unity at μ = 1 and reduce brightness toward the limb.
	cases := []struct {
		law    LDLaw
		coeffs []float64
	}{
		{Linear, []float64{0.5}},
		{Logarithmic, []float64{0.5, 0.2}},
		{SquareRoot, []float64{0.5, 0.2}},
	}
	for _, c := range cases {
		if got := c.law.Factor(c.coeffs, 1.0); math.Abs(got-1) > 1e-12 {
			t.Errorf("%v: D(1) = %g, want 1", c.law, got)
		}
		if got := c.law.Factor(c.coeffs, 0.3); got >= 1 || got <= 0 {
			t.Errorf("%v: D(0.3) = %g, want within (0, 1)", c.law, got)
		}
		if got := c.law.Factor(c.coeffs, 0.0); got != 0 {
			t.Errorf("%v: D(0) = %g, want 0", c.law, got)
		}
	}
}

func TestParseLDLaw(t *testing.T) {
	for name, want := range map[string]LDLaw{
		"linear":      Linear,
		"logarithmic": Logarithmic,
		"square-root": SquareRoot,
	} {
		got, err := ParseLDLaw(name)
		if err != nil || got != want {
			t.Errorf("ParseLDLaw(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLDLaw("quadratic"); err == nil || !fault.Kind(err, fault.InvalidInput) {
		t.Errorf("unknown law: err = %v, want InvalidInput", err)
	}
}

func writeAtlasFile(t *testing.T, dir string, temp float64) {
	t.Helper()
	name := fmt.Sprintf("ck04_t%05.0f_g+4.50_m+0.00.csv", temp)
	var rows string
	for wave := 1000.0; wave <= 100000; wave *= 1.1 {
		// Flat-spectrum stand-in scaled by T so interpolation is testable.
		rows += fmt.Sprintf("%.1f,%.6e\n", wave, temp)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirAtlasBracketsTemperature(t *testing.T) {
	dir := t.TempDir()
	writeAtlasFile(t, dir, 5000)
	writeAtlasFile(t, dir, 6000)

	atlas := &DirAtlas{Dir: dir, Prefix: "ck04"}

	spec, err := atlas.Lookup(5500, 4.5, 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	// Halfway between the 5000 and 6000 tables; flux scale interpolates.
	const fluxToSI = 1e-7 * 1e4 * 1e10
	want := 5500.0 * fluxToSI
	if math.Abs(spec.Flux[0]-want)/want > 1e-9 {
		t.Errorf("interpolated flux = %g, want %g", spec.Flux[0], want)
	}
}

func TestDirAtlasOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	writeAtlasFile(t, dir, 5000)
	writeAtlasFile(t, dir, 6000)

	atlas := &DirAtlas{Dir: dir, Prefix: "ck04"}

	if _, err := atlas.Lookup(9000, 4.5, 0); err == nil || !fault.Kind(err, fault.OutOfBound) {
		t.Errorf("hot lookup: err = %v, want OutOfBound", err)
	}
	if _, err := atlas.Lookup(5500, 4.5, 1.0); err == nil || !fault.Kind(err, fault.OutOfBound) {
		t.Errorf("metal-rich lookup: err = %v, want OutOfBound", err)
	}
	// Within the 0.1 dex tolerance the nearest node serves.
	if _, err := atlas.Lookup(5500, 4.5, 0.05); err != nil {
		t.Errorf("lookup within metallicity tolerance failed: %v", err)
	}
}

func TestBolometricThroughput(t *testing.T) {
	b := Bolometric()
	for _, lambda := range []float64{2e-8, 5e-7, 1e-5} {
		if got := b.ThroughputAt(lambda); got != 1 {
			t.Errorf("throughput at %g = %g, want 1", lambda, got)
		}
	}
	if got := b.ThroughputAt(1e-3); got != 0 {
		t.Errorf("throughput outside support = %g, want 0", got)
	}
}

func TestTableLD(t *testing.T) {
	dir := t.TempDir()
	rows := "" +
		"5000,4.5,0.0,0.55,0.21\n" +
		"6000,4.5,0.0,0.48,0.18\n"
	if err := os.WriteFile(filepath.Join(dir, "logarithmic_bolometric.csv"), []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}

	ld := &TableLD{Dir: dir, Law: Logarithmic}
	coeffs, err := ld.Coefficients(5100, 4.4, 0, BolometricBand)
	if err != nil {
		t.Fatalf("Coefficients: %v", err)
	}
	if len(coeffs) != 2 || coeffs[0] != 0.55 || coeffs[1] != 0.21 {
		t.Errorf("coefficients = %v, want nearest node [0.55 0.21]", coeffs)
	}

	hot, err := ld.Coefficients(5900, 4.5, 0, BolometricBand)
	if err != nil {
		t.Fatalf("Coefficients: %v", err)
	}
	if hot[0] != 0.48 {
		t.Errorf("hot coefficients = %v, want the 6000 K node", hot)
	}

	if _, err := ld.Coefficients(5000, 4.5, 0, "missing-band"); err == nil {
		t.Error("missing band table should fail")
	}
}
