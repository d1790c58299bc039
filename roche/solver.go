package roche

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/search"
	"github.com/stefanparimucha/elisa/units"
)

const (
	// solverTolerance is the convergence tolerance of equipotential solves.
	solverTolerance = 1e-12

	// radiusUpperBound is the hard cap accepted for any solved radius.
	radiusUpperBound = 30.0

	// bracketSamples is the linear-scan resolution used to bracket the
	// surface crossing before Brent refinement.
	bracketSamples = 1000
)

// AcceptFunc lets callers reject otherwise valid equipotential solutions,
// e.g. spot points that would cross the neck of an over-contact envelope.
// A nil predicate accepts everything.
type AcceptFunc func(rho float64) bool

// Solver inverts one component's potential: given a direction it returns
// the radius at which Ω equals the component's surface potential.
type Solver struct {
	Pot    Potential
	Omega  float64 // surface potential Ω₀, on the primary-comparable scale
	Accept AcceptFunc
}

// Radius solves Ω(ρ, φ, θ; d) = Ω₀ along the direction (φ, θ) at separation
// d. The solve walks outward from ρ₀ = d/10000, where the 1/ρ term
// dominates, to the first sign change and refines it with Brent. Solutions
// outside (0, min(30, d)) or rejected by the predicate yield
// fault.Convergence.
func (s Solver) Radius(d, phi, theta float64) (float64, error) {
	f := func(rho float64) float64 { return s.Pot.Value(rho, phi, theta, d) - s.Omega }
	bound := math.Min(radiusUpperBound, d)
	rho, err := s.firstCrossing(f, d/10000.0, bound)
	if err != nil {
		return 0, errors.WithMessagef(err, "equipotential at φ=%.4f θ=%.4f d=%.4f", phi, theta, d)
	}
	if s.Accept != nil && !s.Accept(rho) {
		return 0, errors.WithMessagef(fault.Convergence,
			"equipotential solution ρ=%.6f rejected by predicate at φ=%.4f θ=%.4f", rho, phi, theta)
	}
	return rho, nil
}

// RadiusCylindrical solves the cylindrical variant used for over-contact
// necks: Ω(ρ⊥, φ, z) = Ω₀ at axial coordinate z, separation 1.
func (s Solver) RadiusCylindrical(phi, z float64) (float64, error) {
	f := func(rho float64) float64 { return s.Pot.ValueCylindrical(rho, phi, z) - s.Omega }
	rho, err := s.firstCrossing(f, 1.0/10000.0, 1.0)
	if err != nil {
		return 0, errors.WithMessagef(err, "cylindrical equipotential at φ=%.4f z=%.4f", phi, z)
	}
	if s.Accept != nil && !s.Accept(rho) {
		return 0, errors.WithMessagef(fault.Convergence,
			"cylindrical solution ρ=%.6f rejected by predicate at z=%.4f", rho, z)
	}
	return rho, nil
}

// firstCrossing brackets the innermost zero of f on (rho0, bound) with a
// linear scan, then refines with Brent. Close to the centre f is dominated
// by 1/ρ and strictly positive, so the first sign change is the stellar
// surface rather than a crossing beyond the companion.
//
// A surface exactly at its critical lobe touches zero tangentially (a
// double root, no sign change); the scan tracks the minimal sample and
// falls back to a ternary refinement of that minimum.
func (s Solver) firstCrossing(f search.Func, rho0, bound float64) (float64, error) {
	step := (bound - rho0) / bracketSamples
	prev := rho0
	fPrev := f(prev)
	if fPrev == 0 {
		return prev, nil
	}

	minRho, minVal := prev, math.Abs(fPrev)
	for i := 1; i <= bracketSamples; i++ {
		cur := rho0 + float64(i)*step
		fCur := f(cur)
		if math.IsNaN(fCur) || math.IsInf(fCur, 0) {
			prev, fPrev = cur, fCur
			continue
		}
		if fPrev*fCur <= 0 && !math.IsNaN(fPrev) && !math.IsInf(fPrev, 0) {
			rho, err := search.Brent(f, prev, cur, solverTolerance, 0)
			if err != nil {
				return 0, err
			}
			if rho <= 0 || rho >= radiusUpperBound {
				return 0, errors.WithMessagef(fault.Convergence, "solution ρ=%g outside physical bounds", rho)
			}
			return rho, nil
		}
		if abs := math.Abs(fCur); abs < minVal {
			minRho, minVal = cur, abs
		}
		prev, fPrev = cur, fCur
	}

	if minVal < 1e-4 {
		rho, val := refineMinimum(f, math.Max(rho0, minRho-step), math.Min(bound, minRho+step))
		if val < 1e-7 {
			return rho, nil
		}
	}
	return 0, errors.WithMessagef(fault.Convergence, "no equipotential crossing on (%g, %g)", rho0, bound)
}

// refineMinimum ternary-searches the minimum of |f| on [a, b].
func refineMinimum(f search.Func, a, b float64) (float64, float64) {
	for i := 0; i < 200 && b-a > 1e-14; i++ {
		m1 := a + (b-a)/3
		m2 := b - (b-a)/3
		if math.Abs(f(m1)) < math.Abs(f(m2)) {
			b = m2
		} else {
			a = m1
		}
	}
	x := (a + b) / 2
	return x, math.Abs(f(x))
}

// PolarRadius returns the radius toward the rotation pole (θ = 0).
func (s Solver) PolarRadius(d float64) (float64, error) {
	return s.Radius(d, 0, 0)
}

// SideRadius returns the radius at θ = π/2, φ = π/2, perpendicular to the
// line of centres in the orbital plane.
func (s Solver) SideRadius(d float64) (float64, error) {
	return s.Radius(d, units.HalfPi, units.HalfPi)
}

// ForwardRadius returns the equatorial radius toward the companion.
func (s Solver) ForwardRadius(d float64) (float64, error) {
	return s.Radius(d, 0, units.HalfPi)
}

// BackwardRadius returns the equatorial radius away from the companion.
func (s Solver) BackwardRadius(d float64) (float64, error) {
	return s.Radius(d, math.Pi, units.HalfPi)
}
