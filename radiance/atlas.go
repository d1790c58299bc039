// Package radiance evaluates per-face emergent intensity: atmosphere-table
// lookup and interpolation, passband integration and limb-darkening
// correction, with a process-wide cache keyed on the rounded face
// parameters.
package radiance

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/units"
)

var log = logging.New("radiance")

// Spectrum is an emergent-flux table: wavelength grid in meters, spectral
// flux in SI (W m⁻³).
type Spectrum struct {
	Wavelengths []float64
	Flux        []float64
}

// Atlas provides emergent spectra for surface parameters. Implementations
// must be safe for concurrent lookups.
type Atlas interface {
	// Lookup returns the spectrum for the given effective temperature,
	// log g (cgs) and metallicity, interpolating between bracketing
	// tables. Requests outside table coverage (beyond the permitted
	// extrapolation tolerance) return fault.OutOfBound.
	Lookup(tEff, logG, metallicity float64) (Spectrum, error)
}

// MetallicityTolerance is the permitted extrapolation in [M/H] beyond the
// table grid, in dex.
const MetallicityTolerance = 0.1

// --- Planck atlas ---

// PlanckAtlas is a synthetic blackbody atmosphere: exact Planck spectra on
// a fixed logarithmic wavelength grid. It backs the bolometric passband
// and lets curves be synthesised without table files on disk.
type PlanckAtlas struct {
	once sync.Once
	grid []float64
}

const (
	planckGridPoints = 512
	planckGridMin    = 1e-8 // m
	planckGridMax    = 1e-4 // m
)

func (a *PlanckAtlas) wavelengths() []float64 {
	a.once.Do(func() {
		a.grid = make([]float64, planckGridPoints)
		logMin, logMax := math.Log(planckGridMin), math.Log(planckGridMax)
		for i := range a.grid {
			a.grid[i] = math.Exp(logMin + (logMax-logMin)*float64(i)/float64(planckGridPoints-1))
		}
	})
	return a.grid
}

// Lookup computes the Planck spectral radiance for the temperature; log g
// and metallicity are ignored by a blackbody.
func (a *PlanckAtlas) Lookup(tEff, logG, metallicity float64) (Spectrum, error) {
	if tEff <= 0 {
		return Spectrum{}, errors.WithMessagef(fault.OutOfBound, "temperature %g K", tEff)
	}
	grid := a.wavelengths()
	flux := make([]float64, len(grid))
	for i, lambda := range grid {
		flux[i] = planck(lambda, tEff)
	}
	return Spectrum{Wavelengths: grid, Flux: flux}, nil
}

// planck is the spectral radiance B_λ(λ, T) in W m⁻³ sr⁻¹.
func planck(lambda, t float64) float64 {
	hc := units.PlanckConstant * units.SpeedOfLight
	x := hc / (lambda * units.BoltzmannConstant * t)
	if x > 700 {
		return 0
	}
	return 2 * hc * units.SpeedOfLight / math.Pow(lambda, 5) / (math.Exp(x) - 1)
}

// --- Directory-tree atlas ---

// DirAtlas reads tabulated atmosphere models from a directory tree. File
// names carry the grid key as <prefix>_t<TTTTT>_g<±G.GG>_m<±M.MM>.csv with
// the temperature rounded to the nearest kelvin and gravity/metallicity to
// two decimals; each file holds wavelength[Å],flux[erg s⁻¹ cm⁻² Å⁻¹] rows.
//
// The first touch of a table blocks on disk behind a per-table latch so
// concurrent misses coalesce into one read.
type DirAtlas struct {
	Dir    string
	Prefix string // "ck04" or "k93"

	indexOnce sync.Once
	indexErr  error
	entries   []dirEntry

	mu     sync.Mutex
	tables map[string]*tableSlot
}

type dirEntry struct {
	path        string
	temperature float64
	logG        float64
	metallicity float64
}

type tableSlot struct {
	once sync.Once
	spec Spectrum
	err  error
}

func (a *DirAtlas) index() ([]dirEntry, error) {
	a.indexOnce.Do(func() {
		paths, err := filepath.Glob(filepath.Join(a.Dir, a.Prefix+"_*.csv"))
		if err != nil {
			a.indexErr = err
			return
		}
		for _, path := range paths {
			entry, ok := parseAtlasName(filepath.Base(path))
			if !ok {
				log.Warn().Str("file", path).Msg("unrecognised atmosphere file name")
				continue
			}
			entry.path = path
			a.entries = append(a.entries, entry)
		}
		if len(a.entries) == 0 {
			a.indexErr = errors.WithMessagef(fault.OutOfBound,
				"no atmosphere tables under %s with prefix %s", a.Dir, a.Prefix)
		}
	})
	return a.entries, a.indexErr
}

func parseAtlasName(name string) (dirEntry, bool) {
	name = strings.TrimSuffix(name, ".csv")
	parts := strings.Split(name, "_")
	if len(parts) != 4 {
		return dirEntry{}, false
	}
	t, errT := strconv.ParseFloat(strings.TrimPrefix(parts[1], "t"), 64)
	g, errG := strconv.ParseFloat(strings.TrimPrefix(parts[2], "g"), 64)
	m, errM := strconv.ParseFloat(strings.TrimPrefix(parts[3], "m"), 64)
	if errT != nil || errG != nil || errM != nil {
		return dirEntry{}, false
	}
	return dirEntry{temperature: t, logG: g, metallicity: m}, true
}

// Lookup brackets the requested temperature at the nearest available
// (log g, [M/H]) node and interpolates the two spectra linearly in T.
func (a *DirAtlas) Lookup(tEff, logG, metallicity float64) (Spectrum, error) {
	entries, err := a.index()
	if err != nil {
		return Spectrum{}, err
	}

	// Nearest gravity and metallicity nodes.
	bestG, bestM := math.Inf(1), math.Inf(1)
	for _, e := range entries {
		if d := math.Abs(e.logG - logG); d < bestG {
			bestG = d
		}
	}
	for _, e := range entries {
		if math.Abs(e.logG-logG) > bestG+1e-9 {
			continue
		}
		if d := math.Abs(e.metallicity - metallicity); d < bestM {
			bestM = d
		}
	}
	if bestM > MetallicityTolerance+1e-9 {
		return Spectrum{}, errors.WithMessagef(fault.OutOfBound,
			"metallicity %.2f dex beyond tolerance of nearest node (Δ=%.2f, limit %.2f)",
			metallicity, bestM, MetallicityTolerance)
	}

	var node []dirEntry
	for _, e := range entries {
		if math.Abs(e.logG-logG) <= bestG+1e-9 && math.Abs(e.metallicity-metallicity) <= bestM+1e-9 {
			node = append(node, e)
		}
	}

	var lower, upper *dirEntry
	for i := range node {
		e := &node[i]
		if e.temperature <= tEff && (lower == nil || e.temperature > lower.temperature) {
			lower = e
		}
		if e.temperature >= tEff && (upper == nil || e.temperature < upper.temperature) {
			upper = e
		}
	}
	if lower == nil || upper == nil {
		return Spectrum{}, errors.WithMessagef(fault.OutOfBound,
			"temperature %.0f K outside table coverage", tEff)
	}

	lo, err := a.load(lower.path)
	if err != nil {
		return Spectrum{}, err
	}
	if lower == upper {
		return lo, nil
	}
	hi, err := a.load(upper.path)
	if err != nil {
		return Spectrum{}, err
	}

	w := (tEff - lower.temperature) / (upper.temperature - lower.temperature)
	return interpolateSpectra(lo, hi, w)
}

func (a *DirAtlas) load(path string) (Spectrum, error) {
	a.mu.Lock()
	if a.tables == nil {
		a.tables = make(map[string]*tableSlot)
	}
	slot, ok := a.tables[path]
	if !ok {
		slot = &tableSlot{}
		a.tables[path] = slot
	}
	a.mu.Unlock()

	slot.once.Do(func() {
		slot.spec, slot.err = readSpectrumCSV(path)
	})
	return slot.spec, slot.err
}

// readSpectrumCSV parses wavelength[Å],flux[erg s⁻¹ cm⁻² Å⁻¹] rows and
// converts to SI.
func readSpectrumCSV(path string) (Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spectrum{}, errors.Wrapf(err, "atmosphere table %s", path)
	}
	defer f.Close()

	const (
		angstromToM = 1e-10
		fluxToSI    = 1e-7 * 1e4 * 1e10 // erg s⁻¹ cm⁻² Å⁻¹ -> W m⁻³
	)

	var spec Spectrum
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 2 {
			return Spectrum{}, errors.WithMessage(fault.OutOfBound,
				fmt.Sprintf("%s:%d: malformed row", path, line))
		}
		wave, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		flux, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err1 != nil || err2 != nil {
			return Spectrum{}, errors.WithMessage(fault.OutOfBound,
				fmt.Sprintf("%s:%d: non-numeric row", path, line))
		}
		spec.Wavelengths = append(spec.Wavelengths, wave*angstromToM)
		spec.Flux = append(spec.Flux, flux*fluxToSI)
	}
	if err := scanner.Err(); err != nil {
		return Spectrum{}, errors.Wrapf(err, "atmosphere table %s", path)
	}
	if len(spec.Wavelengths) < 3 {
		return Spectrum{}, errors.WithMessagef(fault.OutOfBound, "%s: too few rows", path)
	}
	return spec, nil
}

// interpolateSpectra blends two spectra linearly; the second is resampled
// onto the first's wavelength grid when the grids differ.
func interpolateSpectra(lo, hi Spectrum, w float64) (Spectrum, error) {
	flux := make([]float64, len(lo.Wavelengths))
	for i, lambda := range lo.Wavelengths {
		f2 := sampleLinear(hi.Wavelengths, hi.Flux, lambda)
		flux[i] = (1-w)*lo.Flux[i] + w*f2
	}
	return Spectrum{Wavelengths: lo.Wavelengths, Flux: flux}, nil
}

// sampleLinear evaluates a piecewise-linear table at x, clamping outside
// the grid.
func sampleLinear(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	t := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + t*(ys[hi]-ys[lo])
}
