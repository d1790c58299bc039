package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stefanparimucha/elisa/fault"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ReflectionEffect || cfg.ReflectionEffectIterations != 2 {
		t.Errorf("reflection defaults wrong: %+v", cfg)
	}
	if cfg.MaxRelativeDRPoint != 0.1 {
		t.Errorf("max_relative_d_r_point = %g, want 0.1", cfg.MaxRelativeDRPoint)
	}
	if cfg.LimbDarkeningLaw != "linear" || cfg.Atlas != "ck04" || cfg.Approximation != "auto" {
		t.Errorf("enum defaults wrong: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elisa.yaml")
	content := []byte("" +
		"reflection_effect: false\n" +
		"limb_darkening_law: logarithmic\n" +
		"approximation: mirror\n" +
		"atlas: k93\n" +
		"atmosphere_tables: /srv/atm\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReflectionEffect {
		t.Error("reflection_effect should be false")
	}
	if cfg.LimbDarkeningLaw != "logarithmic" || cfg.Approximation != "mirror" || cfg.Atlas != "k93" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.AtmosphereTables != "/srv/atm" {
		t.Errorf("atmosphere_tables = %q", cfg.AtmosphereTables)
	}
	// Unset values keep defaults.
	if cfg.ReflectionEffectIterations != 2 {
		t.Errorf("iterations = %d, want default 2", cfg.ReflectionEffectIterations)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.LimbDarkeningLaw = "quadratic" },
		func(c *Config) { c.Atlas = "phoenix" },
		func(c *Config) { c.Approximation = "fastest" },
		func(c *Config) { c.ReflectionEffectIterations = 0 },
		func(c *Config) { c.MaxRelativeDRPoint = 1.5 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("case %d: expected rejection", i)
			continue
		}
		if !fault.Kind(err, fault.InvalidInput) {
			t.Errorf("case %d: error kind = %v, want InvalidInput", i, err)
		}
	}
}
