package engine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "meat_*.csv")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestLoadCSV(t *testing.T) {
	// Header as published with the dataset, plus unused columns.
	path := writeTemp(t, `LOCATION,Country,region,sub-region,SUBJECT,TIME,Consumption kg_cap,Population
FRA,France,Europe,Western Europe,PIG,1990,30.5,56000000
FRA,France,Europe,Western Europe,BEEF,1990,25,56000000
"KOR","Korea, Republic of",Asia,Eastern Asia,PIG,1991,20.25,43000000
`)

	store, err := NewLoader(nil).LoadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 3, store.Len())
	assert.Equal(t, []string{"France", "Korea, Republic of"}, store.CountryDict)
	assert.Equal(t, []string{"PIG", "BEEF"}, store.MeatDict)
	assert.Equal(t, []int32{1990, 1990, 1991}, store.Years)
	assert.Equal(t, 30.5, store.Consumption[0])
	assert.Equal(t, 43000000.0, store.Population[2])

	rec := store.All().Record(2)
	assert.Equal(t, Record{"Korea, Republic of", "Asia", "Eastern Asia", "PIG", 1991, 20.25, 43000000}, rec)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := NewLoader(nil).LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeTemp(t, "Country,region,SUBJECT,TIME,Consumption kg_cap,Population\nFrance,Europe,PIG,1990,30,1\n")

	_, err := NewLoader(nil).LoadCSV(path)
	require.ErrorIs(t, err, ErrMissingColumn)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ColSubRegion, le.Column)
	assert.Equal(t, path, le.Source)
}

func TestLoadCSVMalformedRows(t *testing.T) {
	header := "Country,region,sub-region,SUBJECT,TIME,Consumption kg_cap,Population\n"
	tests := []struct {
		name   string
		row    string
		column string
		msg    string
	}{
		{"bad year", "France,Europe,Western Europe,PIG,nineteen,30,1\n", ColYear, ""},
		{"bad consumption", "France,Europe,Western Europe,PIG,1990,lots,1\n", ColConsumption, ""},
		{"empty region", "France,,Western Europe,PIG,1990,30,1\n", "", "empty region"},
		{"negative population", "France,Europe,Western Europe,PIG,1990,30,-1\n", "", "negative population"},
		{"NaN consumption", "France,Europe,Western Europe,PIG,1990,NaN,1\n", "", "non-finite consumption"},
		{"infinite consumption", "France,Europe,Western Europe,PIG,1990,+Inf,1\n", "", "non-finite consumption"},
		{"infinite population", "France,Europe,Western Europe,PIG,1990,30,-Inf\n", "", "non-finite population"},
		{"short row", "France,Europe\n", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, header+"Spain,Europe,Southern Europe,PIG,1990,35,1\n"+tt.row)
			_, err := NewLoader(nil).LoadCSV(path)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, 3, le.Line)
			assert.Equal(t, tt.column, le.Column)
			if tt.msg != "" {
				assert.Contains(t, le.Error(), tt.msg)
			}
		})
	}
}

func TestLoadCSVCountryMovesRegion(t *testing.T) {
	path := writeTemp(t, `Country,region,sub-region,SUBJECT,TIME,Consumption kg_cap,Population
Turkey,Asia,Western Asia,BEEF,1990,10,1
Turkey,Europe,Southern Europe,BEEF,1991,10,1
`)
	_, err := NewLoader(nil).LoadCSV(path)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), `country "Turkey"`)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	store, err := ReadCSV("inline", strings.NewReader("country,region,sub_region,meat_type,year,consumption_kg_per_capita,population\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, store.All().Len())
}

func TestLoadSQL(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meat.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE meat_consumption (
		country TEXT, region TEXT, sub_region TEXT, meat_type TEXT,
		year INTEGER, consumption_kg_per_capita REAL, population REAL)`)
	require.NoError(t, err)
	for _, rec := range sampleRecords() {
		_, err = db.Exec(`INSERT INTO meat_consumption VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Country, rec.Region, rec.SubRegion, rec.MeatType, rec.Year, rec.Consumption, rec.Population)
		require.NoError(t, err)
	}

	store, err := NewLoader(nil).LoadSQL(context.Background(), db, "meat_consumption")
	require.NoError(t, err)
	assert.Equal(t, len(sampleRecords()), store.Len())
	assert.ElementsMatch(t, sampleRecords(), store.All().Records())
}

func TestLoadSQLYearOutOfRange(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meat.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE meat_consumption (
		country TEXT, region TEXT, sub_region TEXT, meat_type TEXT,
		year INTEGER, consumption_kg_per_capita REAL, population REAL)`)
	require.NoError(t, err)
	// 1<<32 + 1990 would wrap to 1990 in an int32
	_, err = db.Exec(`INSERT INTO meat_consumption VALUES ('France', 'Europe', 'Western Europe', 'pig', 4294969286, 30, 1)`)
	require.NoError(t, err)

	_, err = NewLoader(nil).LoadSQL(context.Background(), db, "meat_consumption")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Line)
	assert.Equal(t, ColYear, le.Column)
}

func TestFromRecordsRejectsNonFinite(t *testing.T) {
	_, err := FromRecords([]Record{
		{"France", "Europe", "Western Europe", "pig", 1990, 30, 1},
		{"France", "Europe", "Western Europe", "beef", 1990, math.NaN(), 1},
	})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Line)
	assert.Contains(t, le.Error(), "non-finite")
}

func TestLoadSQLRejectsTableName(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meat.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewLoader(nil).LoadSQL(context.Background(), db, "meat; DROP TABLE x")
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestLoadSQLMissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meat.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewLoader(nil).LoadSQL(context.Background(), db, "meat_consumption")
	var le *LoadError
	require.ErrorAs(t, err, &le)
}
