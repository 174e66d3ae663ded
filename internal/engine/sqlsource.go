package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadSQL reads the table from an open database. The table must expose the
// canonical column names. Driver registration is up to the caller.
func (l *Loader) LoadSQL(ctx context.Context, db *sql.DB, table string) (*Store, error) {
	start := time.Now()
	if !identRe.MatchString(table) {
		return nil, &LoadError{Source: table, Err: fmt.Errorf("invalid table name")}
	}
	l.logger.Infof("loading dataset from table %s", table)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns, ", "), table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &LoadError{Source: table, Err: err}
	}
	defer rows.Close()

	b := newStoreBuilder()
	line := 0
	for rows.Next() {
		line++
		var (
			country, region, subRegion, meat string
			year                             int64
			consumption, population          float64
		)
		if err := rows.Scan(&country, &region, &subRegion, &meat, &year, &consumption, &population); err != nil {
			return nil, &LoadError{Source: table, Line: line, Err: err}
		}
		if year < math.MinInt32 || year > math.MaxInt32 {
			return nil, &LoadError{Source: table, Line: line, Column: ColYear, Err: fmt.Errorf("year %d out of range", year)}
		}
		if err := b.add(strings.TrimSpace(country), strings.TrimSpace(region), strings.TrimSpace(subRegion),
			strings.TrimSpace(meat), int32(year), consumption, population); err != nil {
			return nil, &LoadError{Source: table, Line: line, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: table, Err: err}
	}

	store := b.build()
	l.logger.Infof("load complete: rows=%d countries=%d meats=%d time=%v",
		store.Len(), len(store.CountryDict), len(store.MeatDict), time.Since(start))
	return store, nil
}
