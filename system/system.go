// Package system assembles a binary star system from user parameters:
// validation of the two supported input representations, derivation of the
// semi-major axis, the mass ratio and the critical potentials, and the
// morphology classification that selects the mesh-builder branch.
package system

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/orbit"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/star"
	"github.com/stefanparimucha/elisa/units"
)

var log = logging.New("system")

// Component selects one of the two stars.
type Component int

const (
	Primary Component = iota
	Secondary
)

func (c Component) String() string {
	if c == Secondary {
		return "secondary"
	}
	return "primary"
}

// Frame maps the component onto its Roche potential frame.
func (c Component) Frame() roche.Frame {
	if c == Secondary {
		return roche.Secondary
	}
	return roche.Primary
}

// Params is the logical system-description record. Exactly one of the two
// mass representations must validate:
//
//   - standard: both component masses set, the semi-major axis is derived
//     from Kepler's third law;
//   - community: MassRatio and ASinI set (component masses zero), masses
//     are derived.
type Params struct {
	Primary   star.Star
	Secondary star.Star

	PeriodDays           float64
	Eccentricity         float64
	Inclination          float64 // radians
	ArgumentOfPeriastron float64 // radians
	PrimaryMinimumTime   float64 // days
	PhaseShift           float64
	Gamma                float64 // systemic velocity, m/s

	// Community representation.
	MassRatio float64 // q = M₂/M₁
	ASinI     float64 // a·sin i in meters
}

// BinarySystem is the validated, classified system.
type BinarySystem struct {
	Primary   *star.Star
	Secondary *star.Star
	Orbit     *orbit.Orbit

	Gamma         float64
	SemiMajorAxis float64 // meters
	MassRatio     float64 // q = M₂/M₁, read-only by construction

	Morphology     roche.Morphology
	Classification roche.Classification

	CriticalPotentialPrimary   float64
	CriticalPotentialSecondary float64
}

// Radii are the characteristic equipotential radii of one component at a
// given separation, in units of the semi-major axis.
type Radii struct {
	Polar    float64
	Side     float64
	Forward  float64
	Backward float64
}

// New validates the parameters and builds the system.
func New(p Params) (*BinarySystem, error) {
	standard := p.Primary.Mass > 0 && p.Secondary.Mass > 0
	community := p.MassRatio > 0 && p.ASinI > 0
	if standard == community {
		return nil, errors.WithMessage(fault.InvalidInput,
			"exactly one of the standard (two masses) and community (q, a·sin i) representations must be given")
	}

	orb, err := orbit.New(p.PeriodDays, p.Eccentricity, p.Inclination,
		p.ArgumentOfPeriastron, p.PrimaryMinimumTime, p.PhaseShift)
	if err != nil {
		return nil, err
	}

	primary, secondary := p.Primary, p.Secondary
	periodSeconds := units.DaysToSeconds(p.PeriodDays)

	var semiMajorAxis float64
	if standard {
		totalMass := primary.Mass + secondary.Mass
		semiMajorAxis = math.Cbrt(units.G * totalMass * periodSeconds * periodSeconds / (4 * math.Pi * math.Pi))
	} else {
		sinI := math.Sin(p.Inclination)
		if sinI <= 0 {
			return nil, errors.WithMessage(fault.InvalidInput,
				"community representation requires a non-degenerate inclination")
		}
		semiMajorAxis = p.ASinI / sinI
		totalMass := 4 * math.Pi * math.Pi * semiMajorAxis * semiMajorAxis * semiMajorAxis /
			(units.G * periodSeconds * periodSeconds)
		primary.Mass = totalMass / (1 + p.MassRatio)
		secondary.Mass = totalMass * p.MassRatio / (1 + p.MassRatio)
	}

	if err := primary.Validate(); err != nil {
		return nil, errors.WithMessage(err, "primary component")
	}
	if err := secondary.Validate(); err != nil {
		return nil, errors.WithMessage(err, "secondary component")
	}

	s := &BinarySystem{
		Primary:       &primary,
		Secondary:     &secondary,
		Orbit:         orb,
		Gamma:         p.Gamma,
		SemiMajorAxis: semiMajorAxis,
		MassRatio:     secondary.Mass / primary.Mass,
	}

	d := orb.PeriastronDistance()
	s.CriticalPotentialPrimary, err = roche.CriticalPotential(s.Potential(Primary), d)
	if err != nil {
		return nil, errors.WithMessage(err, "primary critical potential")
	}
	s.CriticalPotentialSecondary, err = roche.CriticalPotential(s.Potential(Secondary), d)
	if err != nil {
		return nil, errors.WithMessage(err, "secondary critical potential")
	}

	s.Classification, err = roche.Classify(s.MassRatio,
		primary.SurfacePotential, secondary.SurfacePotential,
		s.CriticalPotentialPrimary, s.CriticalPotentialSecondary,
		primary.Synchronicity, secondary.Synchronicity, p.Eccentricity)
	if err != nil {
		return nil, err
	}
	s.Morphology = s.Classification.Morphology

	log.Debug().
		Str("morphology", s.Morphology.String()).
		Float64("q", s.MassRatio).
		Float64("a_m", s.SemiMajorAxis).
		Msg("system classified")
	return s, nil
}

// Star returns the chosen component.
func (s *BinarySystem) Star(c Component) *star.Star {
	if c == Secondary {
		return s.Secondary
	}
	return s.Primary
}

// Potential returns the component's Roche potential descriptor.
func (s *BinarySystem) Potential(c Component) roche.Potential {
	return roche.Potential{
		Frame:         c.Frame(),
		MassRatio:     s.MassRatio,
		Synchronicity: s.Star(c).Synchronicity,
	}
}

// Solver returns an equipotential solver for the component's surface.
func (s *BinarySystem) Solver(c Component) roche.Solver {
	return roche.Solver{
		Pot:   s.Potential(c),
		Omega: s.Star(c).SurfacePotential,
	}
}

// CharacteristicRadii solves the four characteristic radii of a component
// at separation d.
func (s *BinarySystem) CharacteristicRadii(c Component, d float64) (Radii, error) {
	solver := s.Solver(c)

	var r Radii
	var err error
	if r.Polar, err = solver.PolarRadius(d); err != nil {
		return r, errors.WithMessagef(err, "%s polar radius", c)
	}
	if r.Side, err = solver.SideRadius(d); err != nil {
		return r, errors.WithMessagef(err, "%s side radius", c)
	}
	if r.Backward, err = solver.BackwardRadius(d); err != nil {
		return r, errors.WithMessagef(err, "%s backward radius", c)
	}
	if s.Morphology != roche.OverContact {
		if r.Forward, err = solver.ForwardRadius(d); err != nil {
			return r, errors.WithMessagef(err, "%s forward radius", c)
		}
	}
	return r, nil
}

// PolarGravity returns the SI polar surface gravity acceleration of a
// component at separation d, from the dimensionless polar potential
// gradient rescaled by the system's physical scales.
func (s *BinarySystem) PolarGravity(c Component, d float64) (float64, error) {
	solver := s.Solver(c)
	polar, err := solver.PolarRadius(d)
	if err != nil {
		return 0, err
	}

	pot := s.Potential(c)
	var gradient float64
	if c == Secondary {
		gradient = pot.GradientMagnitude(d, 0, polar, d)
	} else {
		gradient = pot.GradientMagnitude(0, 0, polar, d)
	}

	// |∇Ω| is in units of GM₁/a²; rescale to SI.
	scale := units.G * s.Primary.Mass / (s.SemiMajorAxis * s.SemiMajorAxis)
	return gradient * scale, nil
}

// HasSpots reports whether either component carries spots.
func (s *BinarySystem) HasSpots() bool {
	return s.Primary.HasSpots() || s.Secondary.HasSpots()
}

// IsSynchronousCircular reports the geometry-reuse fast path: circular
// orbit with both components rotating synchronously.
func (s *BinarySystem) IsSynchronousCircular() bool {
	return s.Orbit.Eccentricity == 0 &&
		s.Primary.Synchronicity == 1 && s.Secondary.Synchronicity == 1
}
