// Package search provides the one-dimensional numerical root-finding
// primitives used by the orbital and surface solvers. It implements generic
// bracketing and Newton iterations that locate where a continuous function
// crosses zero.
//
// These routines are the foundation for the Kepler-equation inversion, the
// equipotential-surface solver and the Lagrange-point scan, which live in
// separate packages.
package search

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

const (
	// DefaultTolerance is the default convergence threshold on the function
	// value for all root finders in this package.
	DefaultTolerance = 1e-12

	// DefaultMaxIterations caps the refinement loops; reaching the cap is a
	// convergence failure, never a hang.
	DefaultMaxIterations = 128
)

// Func is a scalar function of one variable.
type Func func(x float64) float64

// Newton finds a root of f near x0 using Newton-Raphson iteration with the
// supplied derivative. Iteration stops when |f(x)| < tol or when the step
// underflows; reaching maxIter returns fault.Convergence.
//
// If tol is 0, DefaultTolerance is used; if maxIter is 0,
// DefaultMaxIterations is used.
func Newton(f, df Func, x0, tol float64, maxIter int) (float64, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	x := x0
	for i := 0; i < maxIter; i++ {
		fx := f(x)
		if math.Abs(fx) < tol {
			return x, nil
		}
		dfx := df(x)
		if dfx == 0 || math.IsNaN(dfx) || math.IsInf(dfx, 0) {
			return 0, errors.WithMessagef(fault.Convergence, "newton: zero or invalid derivative at x=%g", x)
		}
		step := fx / dfx
		x -= step
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, errors.WithMessagef(fault.Convergence, "newton: iteration diverged from x0=%g", x0)
		}
		if math.Abs(step) < tol && math.Abs(f(x)) < math.Sqrt(tol) {
			return x, nil
		}
	}
	return 0, errors.WithMessagef(fault.Convergence, "newton: %d iterations exhausted from x0=%g", maxIter, x0)
}

// Brent finds a root of f inside the bracket [a, b] using Brent's method:
// inverse quadratic interpolation guarded by bisection. f(a) and f(b) must
// have opposite signs.
func Brent(f Func, a, b, tol float64, maxIter int) (float64, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return 0, errors.WithMessagef(fault.Convergence, "brent: no sign change on [%g, %g]", a, b)
	}

	// Arrange so that b holds the best estimate.
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	mflag := true
	var d float64

	for i := 0; i < maxIter; i++ {
		if fb == 0 || math.Abs(b-a) < tol {
			return b, nil
		}

		var s float64
		if fa != fc && fb != fc {
			// Inverse quadratic interpolation.
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// Secant step.
			s = b - fb*(b-a)/(fb-fa)
		}

		lo, hi := (3*a+b)/4, b
		if lo > hi {
			lo, hi = hi, lo
		}
		bisect := s < lo || s > hi ||
			(mflag && math.Abs(s-b) >= math.Abs(b-c)/2) ||
			(!mflag && math.Abs(s-b) >= math.Abs(c-d)/2) ||
			(mflag && math.Abs(b-c) < tol) ||
			(!mflag && math.Abs(c-d) < tol)
		if bisect {
			s = (a + b) / 2
			mflag = true
		} else {
			mflag = false
		}

		fs := f(s)
		d = c
		c, fc = b, fb
		if fa*fs < 0 {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}
	return 0, errors.WithMessagef(fault.Convergence, "brent: %d iterations exhausted on [%g, %g]", maxIter, a, b)
}

// BracketOutward expands a bracket for f starting at x0 by geometric growth
// toward xmax until a sign change appears, then returns the bracket. The
// expansion factor is 1.5 per step.
func BracketOutward(f Func, x0, xmax float64) (a, b float64, err error) {
	const growth = 1.5

	a = x0
	fa := f(a)
	if fa == 0 {
		return a, a, nil
	}
	step := x0
	if step == 0 {
		step = 1e-6
	}
	for b = x0 + step; b <= xmax; b = a + step {
		fb := f(b)
		if fa*fb <= 0 {
			return a, b, nil
		}
		a, fa = b, fb
		step *= growth
	}
	// Final partial step to the boundary.
	if a < xmax {
		if fb := f(xmax); fa*fb <= 0 {
			return a, xmax, nil
		}
	}
	return 0, 0, errors.WithMessagef(fault.Convergence, "bracket: no sign change in [%g, %g]", x0, xmax)
}

// FindRootFrom locates the first root of f at or beyond x0, expanding the
// search outward to xmax and refining with Brent to tol.
func FindRootFrom(f Func, x0, xmax, tol float64) (float64, error) {
	a, b, err := BracketOutward(f, x0, xmax)
	if err != nil {
		return 0, err
	}
	if a == b {
		return a, nil
	}
	return Brent(f, a, b, tol, 0)
}

// ScanRoots finds the distinct roots of f on [lo, hi] by seeding a Newton
// iteration from n equally spaced samples and deduplicating the converged
// solutions to roundDecimals decimal places. Seeds on which the function or
// its derivative is singular are skipped; at most want roots are returned,
// in order of discovery.
func ScanRoots(f, df Func, lo, hi float64, n, roundDecimals, want int) []float64 {
	scale := math.Pow(10, float64(roundDecimals))
	seen := make(map[float64]bool)
	var roots []float64

	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		seed := lo + float64(i)*step
		if v := f(seed); math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x, err := Newton(f, df, seed, DefaultTolerance, DefaultMaxIterations)
		if err != nil {
			continue
		}
		// Reject pseudo-roots where Newton stalled far from zero.
		if math.Abs(f(x)) > 1e-4 {
			continue
		}
		key := math.Round(x*scale) / scale
		if seen[key] {
			continue
		}
		seen[key] = true
		roots = append(roots, x)
		if want > 0 && len(roots) == want {
			break
		}
	}
	return roots
}
