package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// Canonical column names.
const (
	ColCountry     = "country"
	ColRegion      = "region"
	ColSubRegion   = "sub_region"
	ColMeatType    = "meat_type"
	ColYear        = "year"
	ColConsumption = "consumption_kg_per_capita"
	ColPopulation  = "population"
)

// Columns lists the canonical columns in table order.
var Columns = []string{ColCountry, ColRegion, ColSubRegion, ColMeatType, ColYear, ColConsumption, ColPopulation}

// headerAliases maps normalised header names to canonical columns.
var headerAliases = map[string]string{
	"country":                   ColCountry,
	"region":                    ColRegion,
	"sub_region":                ColSubRegion,
	"subregion":                 ColSubRegion,
	"subject":                   ColMeatType,
	"meat":                      ColMeatType,
	"meat_type":                 ColMeatType,
	"time":                      ColYear,
	"year":                      ColYear,
	"consumption_kg_cap":        ColConsumption,
	"consumption_kg_per_capita": ColConsumption,
	"consumption":               ColConsumption,
	"value":                     ColConsumption,
	"population":                ColPopulation,
}

// ErrMissingColumn is wrapped by a LoadError when the header lacks a
// required column.
var ErrMissingColumn = errors.New("missing required column")

// LoadError reports a dataset that cannot be used. It is fatal at startup.
type LoadError struct {
	Source string
	Line   int    // 0 when not tied to a row
	Column string // canonical column, when known
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads the consumption table from a file or a SQL table.
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New("loader")
		logger.SetOutput(io.Discard)
	}
	return &Loader{logger: logger}
}

// LoadCSV reads a delimited file with a header row.
func (l *Loader) LoadCSV(path string) (*Store, error) {
	start := time.Now()
	l.logger.Infof("loading dataset from %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	store, err := ReadCSV(path, f)
	if err != nil {
		return nil, err
	}
	l.logger.Infof("load complete: rows=%d countries=%d meats=%d time=%v",
		store.Len(), len(store.CountryDict), len(store.MeatDict), time.Since(start))
	return store, nil
}

// ReadCSV parses the table from r. source names r in errors.
func ReadCSV(source string, r io.Reader) (*Store, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Source: source, Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}
	idx, err := mapHeader(headers)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
		}
		return nil, err
	}

	b := newStoreBuilder()
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Err: err}
		}

		field := func(col string) string { return strings.TrimSpace(row[idx[col]]) }

		year, err := strconv.ParseInt(field(ColYear), 10, 32)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Column: ColYear, Err: err}
		}
		consumption, err := strconv.ParseFloat(field(ColConsumption), 64)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Column: ColConsumption, Err: err}
		}
		population, err := strconv.ParseFloat(field(ColPopulation), 64)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Column: ColPopulation, Err: err}
		}

		if err := b.add(field(ColCountry), field(ColRegion), field(ColSubRegion), field(ColMeatType),
			int32(year), consumption, population); err != nil {
			return nil, &LoadError{Source: source, Line: line, Err: err}
		}
	}
	return b.build(), nil
}

// mapHeader resolves canonical column -> field index.
func mapHeader(headers []string) (map[string]int, error) {
	idx := make(map[string]int, len(Columns))
	for i, h := range headers {
		if col, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, seen := idx[col]; !seen {
				idx[col] = i
			}
		}
	}
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, &LoadError{Line: 1, Column: col, Err: ErrMissingColumn}
		}
	}
	return idx, nil
}

// normalizeHeader converts "Consumption kg_cap" -> "consumption_kg_cap".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}
