// Package curve synthesises observables over orbital-phase sequences:
// multi-band light curves and radial-velocity curves, with approximation
// modes that exploit orbital symmetries and a worker pool over phase
// batches.
package curve

import (
	"runtime"

	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/mesh"
	"github.com/stefanparimucha/elisa/radiance"
	"github.com/stefanparimucha/elisa/surface"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

var log = logging.New("curve")

// Approximation is the user-facing approximation request.
type Approximation int

const (
	Auto Approximation = iota
	Exact
	Mirror
	Interpolate
	Similarity
)

// Mode records which computation strategy the engine selected; tests can
// assert selection independently of numeric accuracy.
type Mode int

const (
	// ModeExact rebuilds geometry from scratch at every phase.
	ModeExact Mode = iota

	// ModeCircularSync builds once at d = 1 and only rotates, mirroring
	// phases across inferior conjunction when the symmetry applies.
	ModeCircularSync

	// ModeApsidalMirror shares geometry between phases mirrored across
	// the apsidal line of an eccentric orbit.
	ModeApsidalMirror

	// ModeInterpolate computes a sparse phase subset exactly and fills
	// the rest by linear interpolation.
	ModeInterpolate

	// ModeSimilarity reuses the previous phase's geometry while the
	// characteristic radii change less than the configured threshold.
	ModeSimilarity
)

func (m Mode) String() string {
	switch m {
	case ModeCircularSync:
		return "circular-synchronous"
	case ModeApsidalMirror:
		return "apsidal-mirror"
	case ModeInterpolate:
		return "interpolating"
	case ModeSimilarity:
		return "similarity-reuse"
	default:
		return "exact"
	}
}

// Settings are the engine options.
type Settings struct {
	ReflectionEffect     bool
	ReflectionIterations int

	// MaxRelativeDRPoint is the similarity-reuse threshold on the
	// relative change of each characteristic radius.
	MaxRelativeDRPoint float64

	Approximation Approximation

	// Workers caps the worker pool; 0 means one worker per CPU.
	Workers int
}

// DefaultSettings mirror the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ReflectionEffect:     true,
		ReflectionIterations: surface.DefaultReflectionIterations,
		MaxRelativeDRPoint:   0.1,
		Approximation:        Auto,
	}
}

// Engine drives curve synthesis for one system.
type Engine struct {
	System    *system.BinarySystem
	Evaluator *radiance.Evaluator
	Settings  Settings

	mode Mode
}

// New assembles an engine with the default Planck atlas when no evaluator
// is supplied.
func New(s *system.BinarySystem, ev *radiance.Evaluator, settings Settings) *Engine {
	if ev == nil {
		ev = &radiance.Evaluator{
			Atlas: &radiance.PlanckAtlas{},
			LD:    radiance.ConstantLD{Values: []float64{0.5}},
			Law:   radiance.Linear,
		}
	}
	if settings.ReflectionIterations < 1 {
		settings.ReflectionIterations = surface.DefaultReflectionIterations
	}
	if settings.MaxRelativeDRPoint <= 0 {
		settings.MaxRelativeDRPoint = 0.1
	}
	return &Engine{System: s, Evaluator: ev, Settings: settings}
}

// Mode reports the strategy chosen by the last curve computation.
func (e *Engine) Mode() Mode { return e.mode }

// selectMode applies the applicability rules of the approximation modes.
func (e *Engine) selectMode(phases []float64) Mode {
	s := e.System
	spanOK := phaseSpan(phases) >= 0.8
	eccentric := s.Orbit.Eccentricity > 0

	switch e.Settings.Approximation {
	case Exact:
		return ModeExact
	case Mirror:
		if eccentric && !s.HasSpots() && spanOK {
			return ModeApsidalMirror
		}
		log.Warn().Msg("apsidal mirroring not applicable, falling back to exact")
		return ModeExact
	case Interpolate:
		if !s.HasSpots() {
			return ModeInterpolate
		}
		log.Warn().Msg("interpolation not applicable to spotted systems, falling back to exact")
		return ModeExact
	case Similarity:
		return ModeSimilarity
	}

	// Auto.
	if s.IsSynchronousCircular() {
		return ModeCircularSync
	}
	if !eccentric {
		// Circular but asynchronous: the surface shape is phase-invariant
		// for spotless components; rebuild only when spots drift.
		if !s.HasSpots() {
			return ModeCircularSync
		}
		return ModeExact
	}
	if eccentric && !s.HasSpots() && spanOK {
		return ModeApsidalMirror
	}
	return ModeExact
}

func phaseSpan(phases []float64) float64 {
	if len(phases) == 0 {
		return 0
	}
	min, max := phases[0], phases[0]
	for _, p := range phases[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return max - min
}

func (e *Engine) workerCount(n int) int {
	w := e.Settings.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// geometry bundles both components' meshes and fields at one separation.
type geometry struct {
	primaryMesh, secondaryMesh     *mesh.Mesh
	primaryFields, secondaryFields *surface.Fields
}

// buildGeometry builds meshes and surface fields for both components at
// separation d, applying the reflection effect when enabled.
func (e *Engine) buildGeometry(d float64) (*geometry, error) {
	g := &geometry{}
	var err error
	if g.primaryMesh, err = mesh.Build(e.System, system.Primary, d); err != nil {
		return nil, err
	}
	if g.secondaryMesh, err = mesh.Build(e.System, system.Secondary, d); err != nil {
		return nil, err
	}
	if g.primaryFields, err = surface.Compute(e.System, g.primaryMesh, system.Primary, d); err != nil {
		return nil, err
	}
	if g.secondaryFields, err = surface.Compute(e.System, g.secondaryMesh, system.Secondary, d); err != nil {
		return nil, err
	}
	if e.Settings.ReflectionEffect {
		surface.ApplyReflection(e.System, g.primaryFields, g.secondaryFields, d, e.Settings.ReflectionIterations)
	}
	return g, nil
}

// canMirrorConjunction reports the circular-synchronous phase symmetry:
// LC(φ) = LC(1-φ) requires ω = π/2 and no spots.
func (e *Engine) canMirrorConjunction() bool {
	return !e.System.HasSpots() &&
		floatsEqual(e.System.Orbit.ArgumentOfPeriastron, units.HalfPi, 1e-12)
}

func floatsEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
