package radiance

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

// BolometricBand is the name of the synthetic unit-throughput passband.
const BolometricBand = "bolometric"

// Passband is a photometric filter: wavelength (m) versus throughput.
type Passband struct {
	Name        string
	Wavelengths []float64
	Throughput  []float64
}

// Bolometric returns the synthetic passband with unit throughput across
// the full atmosphere wavelength range.
func Bolometric() *Passband {
	return &Passband{
		Name:        BolometricBand,
		Wavelengths: []float64{planckGridMin, planckGridMax},
		Throughput:  []float64{1, 1},
	}
}

// ThroughputAt samples the throughput at one wavelength; zero outside the
// passband support.
func (p *Passband) ThroughputAt(lambda float64) float64 {
	if len(p.Wavelengths) == 0 ||
		lambda < p.Wavelengths[0] || lambda > p.Wavelengths[len(p.Wavelengths)-1] {
		return 0
	}
	return sampleLinear(p.Wavelengths, p.Throughput, lambda)
}

// LoadPassband reads a wavelength[Å],throughput CSV table.
func LoadPassband(name, path string) (*Passband, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "passband %s", name)
	}
	defer f.Close()

	p := &Passband{Name: name}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 2 {
			return nil, errors.WithMessagef(fault.OutOfBound, "passband %s: malformed row %q", name, text)
		}
		wave, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		tp, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, errors.WithMessagef(fault.OutOfBound, "passband %s: non-numeric row %q", name, text)
		}
		p.Wavelengths = append(p.Wavelengths, wave*1e-10)
		p.Throughput = append(p.Throughput, tp)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "passband %s", name)
	}
	if len(p.Wavelengths) < 2 {
		return nil, errors.WithMessagef(fault.OutOfBound, "passband %s: too few rows", name)
	}
	return p, nil
}
