package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

const timeColumn = "ts"

// WriteFrameCSV writes f with a leading "ts" column of RFC3339 period
// starts. Column headers carry the unit as "name[unit]"; agnostic columns
// have no brackets. NaN is written as an empty cell.
func WriteFrameCSV(out io.Writer, f series.Frame) error {
	w := csv.NewWriter(out)

	names := f.Columns()
	cols := make([]series.Series, len(names))
	header := []string{timeColumn}
	for i, name := range names {
		cols[i], _ = f.Get(name)
		header = append(header, columnHeader(name, cols[i].Unit()))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	idx := f.Index()
	for k := 0; k < idx.Len(); k++ {
		row := []string{fmtTime(idx.At(k))}
		for _, c := range cols {
			row = append(row, fmtFloat(c.At(k)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFrameCSVFile writes f to path.
func WriteFrameCSVFile(path string, f series.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFrameCSV(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadFrameCSV reads a frame written by WriteFrameCSV, or any CSV with a
// "ts" column followed by numeric columns. Timestamps are standardized with
// opts, so right-bound or unlabeled-frequency files are accepted.
func ReadFrameCSV(in io.Reader, opts stamps.Options) (series.Frame, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return series.Frame{}, err
	}
	if len(records) == 0 {
		return series.Frame{}, fmt.Errorf("csv is empty")
	}
	header := records[0]
	if len(header) < 2 || strings.TrimSpace(header[0]) != timeColumn {
		return series.Frame{}, fmt.Errorf("csv header must start with %q and name at least one column", timeColumn)
	}

	names := make([]string, len(header)-1)
	colUnits := make([]units.Unit, len(header)-1)
	for i, h := range header[1:] {
		names[i], colUnits[i], err = parseColumnHeader(h)
		if err != nil {
			return series.Frame{}, fmt.Errorf("column %d: %w", i+1, err)
		}
	}

	rows := records[1:]
	ts := make([]time.Time, len(rows))
	values := make([][]float64, len(names))
	for i := range values {
		values[i] = make([]float64, len(rows))
	}
	for k, rec := range rows {
		if len(rec) != len(header) {
			return series.Frame{}, fmt.Errorf("line %d: expected %d fields, got %d", k+2, len(header), len(rec))
		}
		if ts[k], err = time.Parse(time.RFC3339, strings.TrimSpace(rec[0])); err != nil {
			return series.Frame{}, fmt.Errorf("line %d: %w", k+2, err)
		}
		for i, cell := range rec[1:] {
			if values[i][k], err = parseFloat(cell); err != nil {
				return series.Frame{}, fmt.Errorf("line %d, column %q: %w", k+2, names[i], err)
			}
		}
	}

	idx, err := stamps.Standardize(ts, opts)
	if err != nil {
		return series.Frame{}, err
	}
	cols := make([]series.Series, len(names))
	for i := range names {
		s, err := series.New(idx, values[i], colUnits[i])
		if err != nil {
			return series.Frame{}, err
		}
		cols[i] = s.WithName(names[i])
	}
	return series.NewFrame(idx, cols...)
}

// ReadFrameCSVFile reads a frame from path.
func ReadFrameCSVFile(path string, opts stamps.Options) (series.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return series.Frame{}, err
	}
	defer file.Close()
	f, err := ReadFrameCSV(file, opts)
	if err != nil {
		return series.Frame{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return f, nil
}

func columnHeader(name string, u units.Unit) string {
	if u.IsAgnostic() {
		return name
	}
	return name + "[" + u.String() + "]"
}

func parseColumnHeader(h string) (string, units.Unit, error) {
	h = strings.TrimSpace(h)
	name, rest, ok := strings.Cut(h, "[")
	if !ok {
		return h, units.None, nil
	}
	symbol, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", units.Unit{}, fmt.Errorf("malformed header %q", h)
	}
	u, err := units.ParseUnit(symbol)
	if err != nil {
		return "", units.Unit{}, err
	}
	return strings.TrimSpace(name), u, nil
}

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	if math.IsInf(x, 0) {
		if x > 0 {
			return "inf"
		}
		return "-inf"
	}
	return decimal.NewFromFloat(x).String()
}

func parseFloat(s string) (float64, error) {
	switch s = strings.TrimSpace(s); strings.ToLower(s) {
	case "", "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}
