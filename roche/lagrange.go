package roche

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/search"
	"github.com/stefanparimucha/elisa/units"
)

// LagrangePoints holds the x-coordinates of the collinear equilibria,
// measured from the primary centre in units of the semi-major axis.
type LagrangePoints struct {
	L3, L1, L2 float64
}

// Lagrange locates the three collinear Lagrangian points for mass ratio q at
// the given separation (the periastron distance for eccentric systems). The
// synchronous potential (F = 1) is scanned on [-3d, 3d] with 100 seeds; a
// Newton iteration from each seed converges onto the roots of ∂Ω/∂x, which
// are deduplicated to 5 decimal places. The scan guarantees all three roots
// are bracketed regardless of q.
func Lagrange(q, d float64) (LagrangePoints, error) {
	pot := Potential{Frame: Primary, MassRatio: q, Synchronicity: 1.0}
	f := func(x float64) float64 { return pot.DerivativeX(x, d) }
	df := func(x float64) float64 { return pot.DerivativeXX(x, d) }

	roots := search.ScanRoots(f, df, -3*d, 3*d, 100, 5, 3)
	if len(roots) != 3 {
		return LagrangePoints{}, errors.WithMessagef(fault.Convergence,
			"lagrange scan found %d roots for q=%g d=%g", len(roots), q, d)
	}

	sort3(roots)
	// Ascending order: L3 behind the primary, L1 between the centres, L2
	// beyond the secondary.
	return LagrangePoints{L3: roots[0], L1: roots[1], L2: roots[2]}, nil
}

func sort3(x []float64) {
	if x[0] > x[1] {
		x[0], x[1] = x[1], x[0]
	}
	if x[1] > x[2] {
		x[1], x[2] = x[2], x[1]
	}
	if x[0] > x[1] {
		x[0], x[1] = x[1], x[0]
	}
}

// LibrationPotentials returns the synchronous potential evaluated at L₃, L₁
// and L₂, in that order, for separation d. These drive the filling-factor
// computation of circular synchronous systems.
func LibrationPotentials(q, d float64) ([3]float64, error) {
	lp, err := Lagrange(q, d)
	if err != nil {
		return [3]float64{}, err
	}
	pot := Potential{Frame: Primary, MassRatio: q, Synchronicity: 1.0}

	at := func(x float64) float64 {
		phi, r := 0.0, x
		if x < 0 {
			phi, r = math.Pi, -x
		}
		return pot.Value(r, phi, units.HalfPi, d)
	}
	return [3]float64{at(lp.L3), at(lp.L1), at(lp.L2)}, nil
}

// CriticalPotential returns the critical (Roche-lobe) surface potential of
// the frame component at separation d, honouring its synchronicity. The
// inner critical point is found by a Newton iteration on ∂Ω/∂x seeded just
// off the primary centre.
func CriticalPotential(pot Potential, d float64) (float64, error) {
	f := func(x float64) float64 { return pot.DerivativeX(x, d) }
	df := func(x float64) float64 { return pot.DerivativeXX(x, d) }

	x, err := search.Newton(f, df, 1e-6, 1e-12, 0)
	if err != nil {
		return 0, errors.WithMessagef(err, "critical potential of %s", pot.Frame)
	}
	if pot.Frame == Secondary {
		return math.Abs(pot.Value(d-x, 0, units.HalfPi, d)), nil
	}
	return math.Abs(pot.Value(x, 0, units.HalfPi, d)), nil
}
