package curve

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/units"
)

// RadialVelocities returns the line-of-sight velocities of both components
// in m/s for the given phases, systemic velocity included. Positive values
// recede from the observer.
//
// The components follow the two-body point-mass kinematics around the
// barycentre; the velocity semi-amplitudes derive from the system scale.
func (e *Engine) RadialVelocities(phases []float64) (primary, secondary []float64, err error) {
	s := e.System
	orb := s.Orbit

	positions, err := orb.OrbitalMotion(phases)
	if err != nil {
		return nil, nil, err
	}

	ecc := orb.Eccentricity
	sinI := math.Sin(orb.Inclination)
	periodSeconds := units.DaysToSeconds(orb.Period)

	// Semi-amplitudes: K_j = 2π a_j sin i / (P √(1-e²)).
	q := s.MassRatio
	a1 := s.SemiMajorAxis * q / (1 + q)
	a2 := s.SemiMajorAxis / (1 + q)
	norm := units.FullArc * sinI / (periodSeconds * math.Sqrt(1-ecc*ecc))
	k1 := a1 * norm
	k2 := a2 * norm

	if math.IsNaN(k1) || math.IsNaN(k2) {
		return nil, nil, errors.New("rv: degenerate orbital elements")
	}

	omega := orb.ArgumentOfPeriastron
	primary = make([]float64, len(positions))
	secondary = make([]float64, len(positions))
	for i, pos := range positions {
		modulation := math.Cos(pos.TrueAnomaly+omega) + ecc*math.Cos(omega)
		primary[i] = s.Gamma + k1*modulation
		secondary[i] = s.Gamma - k2*modulation
	}
	return primary, secondary, nil
}
