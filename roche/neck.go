package roche

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/search"
	"github.com/stefanparimucha/elisa/units"
)

const (
	// neckFitDegree is the degree of the polynomial fitted to the joint
	// equatorial silhouette of the envelope.
	neckFitDegree = 15

	// neckSilhouetteSamples is the angular resolution per component.
	neckSilhouetteSamples = 100
)

// NeckPosition locates the x-coordinate of the narrowest place of an
// over-contact envelope. The equatorial silhouette of both components is
// sampled on azimuths [0, π/2], a degree-15 polynomial y(x) is fitted by
// least squares, and the real root of its derivative closest to the
// mid-point between the centres is taken as the neck.
//
// Over-contact configurations are circular and synchronous, so the
// separation is fixed at 1.
func NeckPosition(q, omegaP, omegaS float64) (float64, error) {
	const d = 1.0

	var xs, ys []float64

	angles := make([]float64, neckSilhouetteSamples)
	floats.Span(angles, 0, units.HalfPi)

	for _, frame := range []Frame{Primary, Secondary} {
		omega := omegaP
		if frame == Secondary {
			omega = omegaS
		}
		solver := Solver{
			Pot:   Potential{Frame: frame, MassRatio: q, Synchronicity: 1.0},
			Omega: omega,
		}
		for _, angle := range angles {
			rho, err := solver.Radius(d, angle, units.HalfPi)
			if err != nil {
				// The solver cannot cross the neck along azimuths pointing
				// into the shared envelope; those directions are skipped.
				continue
			}
			x := rho * math.Cos(angle)
			if frame == Secondary {
				x = d - x
			}
			xs = append(xs, x)
			ys = append(ys, rho*math.Sin(angle))
		}
	}
	if len(xs) <= neckFitDegree {
		return 0, errors.WithMessagef(fault.Convergence,
			"neck silhouette has only %d points", len(xs))
	}

	coeffs, err := polyFit(xs, ys, neckFitDegree)
	if err != nil {
		return 0, err
	}
	deriv := polyDerivative(coeffs)

	neck, found := math.NaN(), false
	best := 1.0
	for _, root := range realRootsOn(deriv, 0.05, 0.95) {
		if dist := math.Abs(0.5 - root); dist < best {
			best, neck, found = dist, root, true
		}
	}
	if !found {
		return 0, errors.WithMessage(fault.Convergence, "no neck minimum inside the envelope")
	}
	return neck, nil
}

// polyFit solves the least-squares Vandermonde system for coefficients
// c₀..c_deg of y = Σ cᵢ xⁱ using a QR factorisation.
func polyFit(xs, ys []float64, degree int) ([]float64, error) {
	n := len(xs)
	a := mat.NewDense(n, degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewDense(n, 1, ys)

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, errors.WithMessagef(fault.Convergence, "neck polynomial fit: %v", err)
	}

	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = sol.At(j, 0)
	}
	return coeffs, nil
}

func polyDerivative(coeffs []float64) []float64 {
	if len(coeffs) < 2 {
		return []float64{0}
	}
	out := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		out[i-1] = float64(i) * coeffs[i]
	}
	return out
}

func polyEval(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// realRootsOn finds the real roots of the polynomial on [lo, hi] by dense
// sign-change scanning with Brent refinement.
func realRootsOn(coeffs []float64, lo, hi float64) []float64 {
	const samples = 400
	f := func(x float64) float64 { return polyEval(coeffs, x) }

	var roots []float64
	step := (hi - lo) / samples
	prev, fPrev := lo, f(lo)
	for i := 1; i <= samples; i++ {
		cur := lo + float64(i)*step
		fCur := f(cur)
		if fPrev*fCur <= 0 && fPrev != fCur {
			if root, err := search.Brent(f, prev, cur, 1e-12, 0); err == nil {
				roots = append(roots, root)
			}
		}
		prev, fPrev = cur, fCur
	}
	return roots
}
