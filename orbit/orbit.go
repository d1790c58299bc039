// Package orbit provides Keplerian two-body kinematics for a binary system:
// the mapping between photometric phase, mean/eccentric/true anomaly, and the
// instantaneous component separation and azimuth.
//
// Phases follow the photometric convention: phase 0 is the primary minimum
// (inferior conjunction of the primary). Separations are dimensionless, in
// units of the semi-major axis.
package orbit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/search"
	"github.com/stefanparimucha/elisa/units"
)

const (
	// keplerTolerance is the convergence threshold of the Kepler-equation
	// inversion.
	keplerTolerance = 1e-12

	// keplerMaxIterations caps the Newton iteration of the Kepler solve.
	keplerMaxIterations = 64
)

// Position is a snapshot of the orbital state at one photometric phase.
type Position struct {
	// Index keys the position back into the caller's phase array.
	Index int

	// Distance is the centre-to-centre separation in units of the
	// semi-major axis.
	Distance float64

	// Azimuth is ν + ω reduced to [0, 2π).
	Azimuth float64

	// TrueAnomaly ν in [0, 2π).
	TrueAnomaly float64

	// Phase is the photometric phase the position was requested at.
	Phase float64
}

// Orbit holds the orbital elements and the derived conjunction geometry.
type Orbit struct {
	Period               float64 // days
	Eccentricity         float64
	Inclination          float64 // radians
	ArgumentOfPeriastron float64 // radians
	PrimaryMinimumTime   float64 // days
	PhaseShift           float64

	// conjunctionMeanAnomaly is the mean anomaly at inferior conjunction of
	// the primary; it anchors phase 0 to the primary minimum.
	conjunctionMeanAnomaly float64

	periastronPhase float64
}

// New validates the elements and precomputes the conjunction alignment.
func New(period, eccentricity, inclination, argumentOfPeriastron, primaryMinimumTime, phaseShift float64) (*Orbit, error) {
	if period <= 0 {
		return nil, errors.WithMessagef(fault.InvalidInput, "orbital period %g must be positive", period)
	}
	if eccentricity < 0 || eccentricity >= 1 {
		return nil, errors.WithMessagef(fault.InvalidInput, "eccentricity %g not in [0, 1)", eccentricity)
	}
	if inclination < 0 || inclination > math.Pi {
		return nil, errors.WithMessagef(fault.InvalidInput, "inclination %g not in [0, π]", inclination)
	}
	if argumentOfPeriastron < 0 || argumentOfPeriastron >= units.FullArc {
		return nil, errors.WithMessagef(fault.InvalidInput, "argument of periastron %g not in [0, 2π)", argumentOfPeriastron)
	}

	o := &Orbit{
		Period:               period,
		Eccentricity:         eccentricity,
		Inclination:          inclination,
		ArgumentOfPeriastron: argumentOfPeriastron,
		PrimaryMinimumTime:   primaryMinimumTime,
		PhaseShift:           phaseShift,
	}

	// Geometric alignment of the primary minimum: the primary is eclipsed
	// when the azimuth ν + ω passes π/2.
	nuConj := math.Mod(units.HalfPi-argumentOfPeriastron+units.FullArc, units.FullArc)
	eConj := eccentricFromTrue(nuConj, eccentricity)
	o.conjunctionMeanAnomaly = math.Mod(eConj-eccentricity*math.Sin(eConj)+units.FullArc, units.FullArc)
	o.periastronPhase = math.Mod(1.0-o.conjunctionMeanAnomaly/units.FullArc-phaseShift, 1.0)
	if o.periastronPhase < 0 {
		o.periastronPhase += 1.0
	}

	return o, nil
}

// TruePhase applies the phase shift and reduces to [0, 1).
func (o *Orbit) TruePhase(phase float64) float64 {
	p := math.Mod(phase+o.PhaseShift, 1.0)
	if p < 0 {
		p += 1.0
	}
	return p
}

// PhaseFromTime converts observation times (days) to photometric phases in
// [-0.5, 0.5), anchored on the primary minimum reference time.
func (o *Orbit) PhaseFromTime(times []float64) []float64 {
	phases := make([]float64, len(times))
	for i, t := range times {
		p := math.Mod((t-o.PrimaryMinimumTime+0.5*o.Period)/o.Period, 1.0)
		if p < 0 {
			p += 1.0
		}
		phases[i] = p - 0.5
	}
	return phases
}

// MeanAnomaly returns the mean anomaly at the given photometric phase.
func (o *Orbit) MeanAnomaly(phase float64) float64 {
	return math.Mod(units.FullArc*o.TruePhase(phase)+o.conjunctionMeanAnomaly, units.FullArc)
}

// EccentricAnomaly inverts Kepler's equation M = E - e·sin E by Newton
// iteration seeded at E₀ = M + e·sin M. Returns fault.Convergence if the
// iteration cap is reached.
func (o *Orbit) EccentricAnomaly(meanAnomaly float64) (float64, error) {
	e := o.Eccentricity
	f := func(E float64) float64 { return E - e*math.Sin(E) - meanAnomaly }
	df := func(E float64) float64 { return 1 - e*math.Cos(E) }

	E, err := search.Newton(f, df, meanAnomaly+e*math.Sin(meanAnomaly), keplerTolerance, keplerMaxIterations)
	if err != nil {
		return 0, errors.WithMessagef(err, "kepler equation, M=%g e=%g", meanAnomaly, e)
	}
	return math.Mod(E+units.FullArc, units.FullArc), nil
}

// TrueAnomaly converts an eccentric anomaly to the true anomaly in [0, 2π).
func (o *Orbit) TrueAnomaly(E float64) float64 {
	e := o.Eccentricity
	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
	return math.Mod(nu+units.FullArc, units.FullArc)
}

// Separation returns the instantaneous separation in units of the semi-major
// axis for the given true anomaly.
func (o *Orbit) Separation(trueAnomaly float64) float64 {
	e := o.Eccentricity
	return (1 - e*e) / (1 + e*math.Cos(trueAnomaly))
}

// Azimuth returns ν + ω reduced to [0, 2π).
func (o *Orbit) Azimuth(trueAnomaly float64) float64 {
	return math.Mod(trueAnomaly+o.ArgumentOfPeriastron, units.FullArc)
}

// PositionAt computes the orbital position at one photometric phase.
func (o *Orbit) PositionAt(phase float64) (Position, error) {
	E, err := o.EccentricAnomaly(o.MeanAnomaly(phase))
	if err != nil {
		return Position{}, err
	}
	nu := o.TrueAnomaly(E)
	return Position{
		Distance:    o.Separation(nu),
		Azimuth:     o.Azimuth(nu),
		TrueAnomaly: nu,
		Phase:       phase,
	}, nil
}

// OrbitalMotion computes positions for a sequence of phases. Indexes follow
// the input order.
func (o *Orbit) OrbitalMotion(phases []float64) ([]Position, error) {
	positions := make([]Position, len(phases))
	for i, phase := range phases {
		pos, err := o.PositionAt(phase)
		if err != nil {
			return nil, err
		}
		pos.Index = i
		positions[i] = pos
	}
	return positions, nil
}

// PeriastronDistance is 1 - e in units of the semi-major axis.
func (o *Orbit) PeriastronDistance() float64 { return 1 - o.Eccentricity }

// ApastronDistance is 1 + e in units of the semi-major axis.
func (o *Orbit) ApastronDistance() float64 { return 1 + o.Eccentricity }

// PeriastronPhase returns the photometric phase of periastron passage.
func (o *Orbit) PeriastronPhase() float64 { return o.periastronPhase }

// eccentricFromTrue converts a true anomaly to the eccentric anomaly.
func eccentricFromTrue(nu, e float64) float64 {
	E := 2 * math.Atan(math.Sqrt((1-e)/(1+e))*math.Tan(nu/2))
	return math.Mod(E+units.FullArc, units.FullArc)
}
