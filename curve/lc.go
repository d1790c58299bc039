package curve

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/eclipse"
	"github.com/stefanparimucha/elisa/orbit"
	"github.com/stefanparimucha/elisa/position"
	"github.com/stefanparimucha/elisa/radiance"
	"github.com/stefanparimucha/elisa/system"
)

// LightCurve synthesises one flux value per phase for every passband. The
// result arrays align with the input phase array; fluxes are integrated
// band intensities in SI-scaled relative units.
func (e *Engine) LightCurve(phases []float64, bands []*radiance.Passband) (map[string][]float64, error) {
	if len(phases) == 0 || len(bands) == 0 {
		return nil, errors.New("curve: empty phase array or band list")
	}

	positions, err := e.System.Orbit.OrbitalMotion(phases)
	if err != nil {
		return nil, err
	}
	windows, err := eclipse.Boundaries(e.System, e.System.Orbit.PeriastronDistance())
	if err != nil {
		return nil, err
	}

	e.mode = e.selectMode(phases)
	log.Debug().Str("mode", e.mode.String()).Int("phases", len(phases)).Msg("curve mode selected")

	out := make(map[string][]float64, len(bands))
	for _, b := range bands {
		out[b.Name] = make([]float64, len(phases))
	}

	switch e.mode {
	case ModeCircularSync:
		err = e.runCircularSync(positions, bands, windows, out)
	case ModeApsidalMirror:
		err = e.runSharedGeometry(positions, bands, windows, out)
	case ModeInterpolate:
		err = e.runInterpolating(positions, bands, windows, out)
	case ModeSimilarity:
		err = e.runSimilarity(positions, bands, windows, out)
	default:
		err = e.runExact(positions, bands, windows, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fluxAt integrates one orbital position for all bands.
func (e *Engine) fluxAt(g *geometry, pos orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows) (map[string]float64, error) {
	container := position.New(e.System, pos, g.primaryMesh, g.secondaryMesh, g.primaryFields, g.secondaryFields)

	covPrimary, covSecondary := eclipse.Coverage(container, windows.InEclipse(pos.Azimuth))

	fluxes := make(map[string]float64, len(bands))
	for _, band := range bands {
		total := 0.0
		for side, body := range []*position.Body{&container.Primary, &container.Secondary} {
			coverage := covPrimary
			mh := e.System.Primary.Metallicity
			if side == 1 {
				coverage = covSecondary
				mh = e.System.Secondary.Metallicity
			}
			cosines := body.Cosines()
			for i := range body.Faces {
				if coverage[i] <= 0 || cosines[i] <= 0 {
					continue
				}
				intensity, err := e.Evaluator.NormalIntensity(body.Temperatures[i], body.LogG[i], mh, band)
				if err != nil {
					return nil, errors.WithMessagef(err, "phase %.6f", pos.Phase)
				}
				coeffs, err := e.Evaluator.LD.Coefficients(body.Temperatures[i], body.LogG[i], mh, band.Name)
				if err != nil {
					return nil, errors.WithMessagef(err, "limb darkening at phase %.6f", pos.Phase)
				}
				total += e.Evaluator.ObservedContribution(intensity, cosines[i], coverage[i], coeffs)
			}
		}
		fluxes[band.Name] = total
	}
	return fluxes, nil
}

// runPool distributes positions over the worker pool. A worker that fails
// raises the shared flag; the others finish their current phase and exit.
// Results are written by phase index, so reassembly is implicit.
func (e *Engine) runPool(positions []orbit.Position, work func(orbit.Position) (map[string]float64, error), out map[string][]float64) error {
	workers := e.workerCount(len(positions))

	var failed atomic.Bool
	var once sync.Once
	var firstErr error
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < len(positions); i += workers {
				if failed.Load() {
					return
				}
				fluxes, err := work(positions[i])
				if err != nil {
					once.Do(func() { firstErr = err })
					failed.Store(true)
					return
				}
				for band, v := range fluxes {
					out[band][positions[i].Index] = v
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return nil
}

// runExact rebuilds geometry from scratch at every phase.
func (e *Engine) runExact(positions []orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows, out map[string][]float64) error {
	return e.runPool(positions, func(pos orbit.Position) (map[string]float64, error) {
		g, err := e.buildGeometry(pos.Distance)
		if err != nil {
			return nil, err
		}
		return e.fluxAt(g, pos, bands, windows)
	}, out)
}

// runCircularSync builds geometry once at d = 1 and only repositions it.
// With ω = π/2 and no spots, phases mirrored across inferior conjunction
// share their observable and only one of each pair is computed.
func (e *Engine) runCircularSync(positions []orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows, out map[string][]float64) error {
	g, err := e.buildGeometry(1.0)
	if err != nil {
		return err
	}

	if !e.canMirrorConjunction() {
		return e.runPool(positions, func(pos orbit.Position) (map[string]float64, error) {
			return e.fluxAt(g, pos, bands, windows)
		}, out)
	}

	// Group mirror partners: true phases φ and 1-φ map to identical
	// observables.
	type group struct {
		representative orbit.Position
		indices        []int
	}
	groups := make(map[int64]*group)
	for _, pos := range positions {
		tp := e.System.Orbit.TruePhase(pos.Phase)
		folded := math.Min(tp, 1-tp)
		key := int64(math.Round(folded * 1e9))
		if gr, ok := groups[key]; ok {
			gr.indices = append(gr.indices, pos.Index)
		} else {
			groups[key] = &group{representative: pos, indices: []int{pos.Index}}
		}
	}

	unique := make([]orbit.Position, 0, len(groups))
	members := make([][]int, 0, len(groups))
	for _, gr := range groups {
		rep := gr.representative
		rep.Index = len(unique)
		unique = append(unique, rep)
		members = append(members, gr.indices)
	}

	folded := make(map[string][]float64, len(bands))
	for _, b := range bands {
		folded[b.Name] = make([]float64, len(unique))
	}
	if err := e.runPool(unique, func(pos orbit.Position) (map[string]float64, error) {
		return e.fluxAt(g, pos, bands, windows)
	}, folded); err != nil {
		return err
	}

	for gi, idxs := range members {
		for band := range out {
			for _, idx := range idxs {
				out[band][idx] = folded[band][gi]
			}
		}
	}
	return nil
}

// runSharedGeometry computes every phase but shares built geometry between
// phases of equal separation, which pairs phases mirrored across the
// apsidal line of an eccentric orbit.
func (e *Engine) runSharedGeometry(positions []orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows, out map[string][]float64) error {
	var mu sync.Mutex
	cache := make(map[int64]*geometry)

	provider := func(d float64) (*geometry, error) {
		key := int64(math.Round(d * 1e10))
		mu.Lock()
		g, ok := cache[key]
		mu.Unlock()
		if ok {
			return g, nil
		}
		g, err := e.buildGeometry(d)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		cache[key] = g
		mu.Unlock()
		return g, nil
	}

	return e.runPool(positions, func(pos orbit.Position) (map[string]float64, error) {
		g, err := provider(pos.Distance)
		if err != nil {
			return nil, err
		}
		return e.fluxAt(g, pos, bands, windows)
	}, out)
}

// interpolationStride selects every fifth phase for exact evaluation.
const interpolationStride = 5

// runInterpolating evaluates a sparse phase subset exactly and fills the
// omitted phases by linear interpolation of the integrated observable.
func (e *Engine) runInterpolating(positions []orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows, out map[string][]float64) error {
	if len(positions) <= 2*interpolationStride {
		return e.runSharedGeometry(positions, bands, windows, out)
	}

	var sparse []orbit.Position
	computed := make(map[int]bool)
	for i := 0; i < len(positions); i += interpolationStride {
		sparse = append(sparse, positions[i])
		computed[i] = true
	}
	if last := len(positions) - 1; !computed[last] {
		sparse = append(sparse, positions[last])
		computed[last] = true
	}

	if err := e.runSharedGeometry(sparse, bands, windows, out); err != nil {
		return err
	}

	// Interpolate the rest against the computed (phase, flux) supports.
	for band := range out {
		samples := make([]sample, 0, len(sparse))
		for _, pos := range sparse {
			samples = append(samples, sample{phase: pos.Phase, flux: out[band][pos.Index]})
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].phase < samples[j].phase })

		for i, pos := range positions {
			if computed[i] {
				continue
			}
			out[band][pos.Index] = interpolateSamples(samples, pos.Phase)
		}
	}
	return nil
}

// runSimilarity walks the phases in order, rebuilding geometry only when a
// characteristic radius moved more than the configured relative threshold.
func (e *Engine) runSimilarity(positions []orbit.Position, bands []*radiance.Passband, windows *eclipse.Windows, out map[string][]float64) error {
	var g *geometry
	var lastRadii []float64

	for _, pos := range positions {
		radii, err := e.characteristicRadii(pos.Distance)
		if err != nil {
			return err
		}
		if g == nil || exceedsThreshold(lastRadii, radii, e.Settings.MaxRelativeDRPoint) {
			if g, err = e.buildGeometry(pos.Distance); err != nil {
				return err
			}
			lastRadii = radii
		}
		fluxes, err := e.fluxAt(g, pos, bands, windows)
		if err != nil {
			return err
		}
		for band, v := range fluxes {
			out[band][pos.Index] = v
		}
	}
	return nil
}

func (e *Engine) characteristicRadii(d float64) ([]float64, error) {
	rp, err := e.System.CharacteristicRadii(system.Primary, d)
	if err != nil {
		return nil, err
	}
	rs, err := e.System.CharacteristicRadii(system.Secondary, d)
	if err != nil {
		return nil, err
	}
	return []float64{rp.Polar, rp.Side, rp.Backward, rp.Forward,
		rs.Polar, rs.Side, rs.Backward, rs.Forward}, nil
}

func exceedsThreshold(prev, cur []float64, threshold float64) bool {
	for i := range cur {
		if prev[i] == 0 {
			if cur[i] != 0 {
				return true
			}
			continue
		}
		if math.Abs(cur[i]-prev[i])/math.Abs(prev[i]) > threshold {
			return true
		}
	}
	return false
}

// sample is one computed support of the interpolating mode.
type sample struct{ phase, flux float64 }

func interpolateSamples(samples []sample, phase float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	if phase <= samples[0].phase {
		return samples[0].flux
	}
	if phase >= samples[n-1].phase {
		return samples[n-1].flux
	}
	idx := sort.Search(n, func(i int) bool { return samples[i].phase >= phase })
	lo, hi := samples[idx-1], samples[idx]
	if hi.phase == lo.phase {
		return lo.flux
	}
	t := (phase - lo.phase) / (hi.phase - lo.phase)
	return lo.flux + t*(hi.flux-lo.flux)
}
