package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stefanparimucha/elisa/star"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

// systemFile is the on-disk system description. Angles are degrees, masses
// solar masses, the period days, gamma km/s; a_sin_i is in solar radii.
type systemFile struct {
	System struct {
		Period               float64 `yaml:"period"`
		Eccentricity         float64 `yaml:"eccentricity"`
		Inclination          float64 `yaml:"inclination"`
		ArgumentOfPeriastron float64 `yaml:"argument_of_periastron"`
		PrimaryMinimumTime   float64 `yaml:"primary_minimum_time"`
		PhaseShift           float64 `yaml:"phase_shift"`
		Gamma                float64 `yaml:"gamma"`
		MassRatio            float64 `yaml:"mass_ratio"`
		ASinI                float64 `yaml:"a_sin_i"`
	} `yaml:"system"`
	Primary   componentFile `yaml:"primary"`
	Secondary componentFile `yaml:"secondary"`
}

type componentFile struct {
	Mass                 float64    `yaml:"mass"`
	SurfacePotential     float64    `yaml:"surface_potential"`
	Synchronicity        float64    `yaml:"synchronicity"`
	TEff                 float64    `yaml:"t_eff"`
	GravityDarkening     float64    `yaml:"gravity_darkening"`
	Albedo               float64    `yaml:"albedo"`
	Metallicity          float64    `yaml:"metallicity"`
	DiscretizationFactor float64    `yaml:"discretization_factor"`
	Spots                []spotFile `yaml:"spots"`
}

type spotFile struct {
	Longitude            float64 `yaml:"longitude"`
	Latitude             float64 `yaml:"latitude"`
	AngularRadius        float64 `yaml:"angular_radius"`
	TemperatureFactor    float64 `yaml:"temperature_factor"`
	DiscretizationFactor float64 `yaml:"discretization_factor"`
}

func (c componentFile) toStar() star.Star {
	spots := make([]star.Spot, 0, len(c.Spots))
	for _, sp := range c.Spots {
		spots = append(spots, star.Spot{
			Longitude:            sp.Longitude * units.Deg2Rad,
			Latitude:             sp.Latitude * units.Deg2Rad,
			AngularRadius:        sp.AngularRadius * units.Deg2Rad,
			TemperatureFactor:    sp.TemperatureFactor,
			DiscretizationFactor: sp.DiscretizationFactor * units.Deg2Rad,
		})
	}
	return star.Star{
		Mass:                 c.Mass * units.SolarMass,
		SurfacePotential:     c.SurfacePotential,
		Synchronicity:        c.Synchronicity,
		EffectiveTemperature: c.TEff,
		GravityDarkening:     c.GravityDarkening,
		Albedo:               c.Albedo,
		Metallicity:          c.Metallicity,
		DiscretizationFactor: c.DiscretizationFactor * units.Deg2Rad,
		Spots:                spots,
	}
}

// loadSystem reads and assembles a binary system from a YAML description.
func loadSystem(path string) (*system.BinarySystem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "system description %s", path)
	}
	var f systemFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "system description %s", path)
	}

	return system.New(system.Params{
		Primary:              f.Primary.toStar(),
		Secondary:            f.Secondary.toStar(),
		PeriodDays:           f.System.Period,
		Eccentricity:         f.System.Eccentricity,
		Inclination:          f.System.Inclination * units.Deg2Rad,
		ArgumentOfPeriastron: f.System.ArgumentOfPeriastron * units.Deg2Rad,
		PrimaryMinimumTime:   f.System.PrimaryMinimumTime,
		PhaseShift:           f.System.PhaseShift,
		Gamma:                f.System.Gamma * 1000.0,
		MassRatio:            f.System.MassRatio,
		ASinI:                f.System.ASinI * units.SolarRadius,
	})
}
