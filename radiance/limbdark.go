package radiance

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

// LDLaw selects the limb-darkening law.
type LDLaw int

const (
	Linear LDLaw = iota
	Logarithmic
	SquareRoot
)

// ParseLDLaw maps the configuration names onto the law set.
func ParseLDLaw(name string) (LDLaw, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "logarithmic":
		return Logarithmic, nil
	case "square-root", "square_root":
		return SquareRoot, nil
	}
	return Linear, errors.WithMessagef(fault.InvalidInput, "unknown limb-darkening law %q", name)
}

func (l LDLaw) String() string {
	switch l {
	case Logarithmic:
		return "logarithmic"
	case SquareRoot:
		return "square-root"
	default:
		return "linear"
	}
}

// CoefficientCount returns the number of coefficients the law consumes.
func (l LDLaw) CoefficientCount() int {
	if l == Linear {
		return 1
	}
	return 2
}

// Factor evaluates the limb-darkening correction D(μ) for the law. It
// returns 0 for μ ≤ 0, and μ above 1 is clamped to 1.
func (l LDLaw) Factor(coefficients []float64, mu float64) float64 {
	if mu <= 0 {
		return 0
	}
	if mu > 1 {
		mu = 1
	}
	switch l {
	case Logarithmic:
		x, y := coefficients[0], coefficients[1]
		return 1 - x*(1-mu) - y*mu*math.Log(mu)
	case SquareRoot:
		x, y := coefficients[0], coefficients[1]
		return 1 - x*(1-mu) - y*(1-math.Sqrt(mu))
	default:
		return 1 - coefficients[0]*(1-mu)
	}
}

// LimbDarkening provides per-band coefficients indexed like the atmosphere
// tables. Implementations must be safe for concurrent use.
type LimbDarkening interface {
	Coefficients(tEff, logG, metallicity float64, band string) ([]float64, error)
}

// ConstantLD supplies fixed coefficients for every face and band; the
// default when no coefficient tables are configured.
type ConstantLD struct {
	Values []float64
}

// Coefficients returns the fixed coefficient set.
func (c ConstantLD) Coefficients(tEff, logG, metallicity float64, band string) ([]float64, error) {
	return c.Values, nil
}
