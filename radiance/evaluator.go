package radiance

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate"
)

// Evaluator computes band-normal intensities with a process-lifetime cache.
//
// The atmosphere interpolation dominates the cost of a curve synthesis;
// results are keyed on the rounded face parameters and the band name.
// Readers take a shared lock, a writer inserts after a miss; entries are
// never evicted during one curve computation.
type Evaluator struct {
	Atlas Atlas
	LD    LimbDarkening
	Law   LDLaw

	mu    sync.RWMutex
	cache map[intensityKey]float64
}

type intensityKey struct {
	t    int // K, rounded
	g    int // log g ×100, rounded
	m    int // [M/H] ×100, rounded
	band string
}

func makeKey(tEff, logG, metallicity float64, band string) intensityKey {
	return intensityKey{
		t:    int(math.Round(tEff)),
		g:    int(math.Round(logG * 100)),
		m:    int(math.Round(metallicity * 100)),
		band: band,
	}
}

// NormalIntensity returns the band intensity emitted along the surface
// normal for the given face parameters: the atlas spectrum multiplied by
// the passband throughput and integrated over wavelength with the Simpson
// rule.
func (e *Evaluator) NormalIntensity(tEff, logG, metallicity float64, band *Passband) (float64, error) {
	key := makeKey(tEff, logG, metallicity, band.Name)

	e.mu.RLock()
	if e.cache != nil {
		if v, ok := e.cache[key]; ok {
			e.mu.RUnlock()
			return v, nil
		}
	}
	e.mu.RUnlock()

	spec, err := e.Atlas.Lookup(float64(key.t), logG, metallicity)
	if err != nil {
		return 0, errors.WithMessagef(err, "band %s", band.Name)
	}

	weighted := make([]float64, len(spec.Wavelengths))
	for i, lambda := range spec.Wavelengths {
		weighted[i] = spec.Flux[i] * band.ThroughputAt(lambda)
	}
	intensity := integrate.Simpsons(spec.Wavelengths, weighted)

	e.mu.Lock()
	if e.cache == nil {
		e.cache = make(map[intensityKey]float64)
	}
	e.cache[key] = intensity
	e.mu.Unlock()
	return intensity, nil
}

// ObservedContribution folds the normal intensity with the emergent-angle
// geometry: I·μ·D(μ)·coverage, where coverage already carries the face
// area. Dark-side faces (μ ≤ 0) contribute nothing.
func (e *Evaluator) ObservedContribution(intensity, mu, coverage float64, coefficients []float64) float64 {
	if mu <= 0 || coverage <= 0 {
		return 0
	}
	return intensity * mu * e.Law.Factor(coefficients, mu) * coverage
}

// CacheSize reports the number of cached intensities; exposed for tests
// and diagnostics.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
