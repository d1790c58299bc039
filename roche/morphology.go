package roche

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

// Morphology classifies a binary by the relation of each component's surface
// potential to its critical potential.
type Morphology int

const (
	Detached Morphology = iota
	SemiDetached
	OverContact
	DoubleContact
)

func (m Morphology) String() string {
	switch m {
	case SemiDetached:
		return "semi-detached"
	case OverContact:
		return "over-contact"
	case DoubleContact:
		return "double-contact"
	default:
		return "detached"
	}
}

// morphologyEpsilon is the tolerance for "exactly at the critical surface"
// and for equality of over-contact potentials.
const morphologyEpsilon = 1e-8

// Classification carries the classifier's outputs.
type Classification struct {
	Morphology Morphology

	// Filling factors (Ω(L₁) - Ω) / (Ω(L₁) - Ω(L₂)); valid only for
	// circular synchronous systems, NaN otherwise.
	PrimaryFillingFactor   float64
	SecondaryFillingFactor float64
}

// Classify determines the system morphology from the component surface
// potentials, their critical potentials, the synchronicities and the
// eccentricity.
//
// For circular synchronous systems the filling factors against the
// libration potentials decide the class; any contact configuration with
// unequal component potentials is refused. Otherwise the comparison against
// the (asynchronous, periastron) critical potentials decides, and a surface
// below its critical potential is refused as non-physical.
func Classify(q, omegaP, omegaS, critP, critS, f1, f2, e float64) (Classification, error) {
	out := Classification{
		PrimaryFillingFactor:   math.NaN(),
		SecondaryFillingFactor: math.NaN(),
	}

	if f1 == 1 && f2 == 1 && e == 0 {
		lp, err := LibrationPotentials(q, 1.0)
		if err != nil {
			return out, err
		}
		span := lp[1] - lp[2] // Ω(L1) - Ω(L2)
		fp := (lp[1] - omegaP) / span
		fs := (lp[1] - omegaS) / span
		out.PrimaryFillingFactor, out.SecondaryFillingFactor = fp, fs

		inContact := (fp > 0 && fp < 1) || (fs > 0 && fs < 1)
		if inContact && math.Abs(fp-fs) > morphologyEpsilon {
			return out, errors.WithMessage(fault.NonPhysical,
				"over-contact configuration with unequal component potentials")
		}
		if fp > 1 || fs > 1 {
			return out, errors.WithMessage(fault.NonPhysical,
				"filling factor above unity, surface potential below the outer critical surface")
		}

		switch {
		case math.Abs(fp) < morphologyEpsilon && fs < 0,
			math.Abs(fs) < morphologyEpsilon && fp < 0:
			out.Morphology = SemiDetached
		case fp < 0 && fs < 0:
			out.Morphology = Detached
		case fp > 0 && fp <= 1:
			out.Morphology = OverContact
		default:
			return out, errors.WithMessage(fault.NonPhysical, "unclassifiable potential configuration")
		}
		return out, nil
	}

	switch {
	case math.Abs(omegaP-critP) < morphologyEpsilon && math.Abs(omegaS-critS) < morphologyEpsilon:
		out.Morphology = DoubleContact
	case omegaP > critP && omegaS > critS:
		out.Morphology = Detached
	default:
		return out, errors.WithMessage(fault.NonPhysical,
			"asynchronous or eccentric configuration overflows its Roche lobe")
	}
	return out, nil
}
