package radiance

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/stefanparimucha/elisa/fault"
)

// TableLD serves limb-darkening coefficients from per-passband CSV tables
// indexed like the atmosphere grid. Files are named <law>_<band>.csv and
// hold rows of t_eff,log_g,metallicity followed by the law's coefficients;
// lookups resolve to the nearest grid node, honouring the metallicity
// extrapolation tolerance.
type TableLD struct {
	Dir string
	Law LDLaw

	mu     sync.Mutex
	tables map[string]*ldTable
}

type ldTable struct {
	once sync.Once
	rows []ldRow
	err  error
}

type ldRow struct {
	t, g, m float64
	coeffs  []float64
}

// Coefficients picks the nearest tabulated node for the face parameters.
func (l *TableLD) Coefficients(tEff, logG, metallicity float64, band string) ([]float64, error) {
	table, err := l.load(band)
	if err != nil {
		return nil, err
	}

	best := -1
	bestDist := math.Inf(1)
	for i, row := range table.rows {
		// Temperature dominates the grid spacing; gravity and metallicity
		// are scaled to comparable step sizes.
		dist := math.Abs(row.t-tEff)/250.0 + math.Abs(row.g-logG)/0.5 + math.Abs(row.m-metallicity)/0.5
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return nil, errors.WithMessagef(fault.OutOfBound, "limb darkening band %s has no rows", band)
	}
	row := table.rows[best]
	if math.Abs(row.m-metallicity) > MetallicityTolerance+0.5 {
		return nil, errors.WithMessagef(fault.OutOfBound,
			"limb darkening metallicity %.2f too far from grid node %.2f", metallicity, row.m)
	}
	return row.coeffs, nil
}

func (l *TableLD) load(band string) (*ldTable, error) {
	l.mu.Lock()
	if l.tables == nil {
		l.tables = make(map[string]*ldTable)
	}
	table, ok := l.tables[band]
	if !ok {
		table = &ldTable{}
		l.tables[band] = table
	}
	l.mu.Unlock()

	table.once.Do(func() {
		path := filepath.Join(l.Dir, l.Law.String()+"_"+band+".csv")
		table.rows, table.err = readLDRows(path, l.Law.CoefficientCount())
	})
	return table, table.err
}

func readLDRows(path string, coeffCount int) ([]ldRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "limb-darkening table %s", path)
	}
	defer f.Close()

	var rows []ldRow
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 3+coeffCount {
			return nil, errors.WithMessagef(fault.OutOfBound, "%s: row %q has %d fields, want %d",
				path, text, len(fields), 3+coeffCount)
		}
		values := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.WithMessagef(fault.OutOfBound, "%s: non-numeric row %q", path, text)
			}
			values[i] = v
		}
		rows = append(rows, ldRow{t: values[0], g: values[1], m: values[2], coeffs: values[3:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "limb-darkening table %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.WithMessagef(fault.OutOfBound, "%s: empty table", path)
	}
	return rows, nil
}
