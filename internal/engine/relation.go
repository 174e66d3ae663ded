package engine

// Relation is a read-only view over a Store: either every row, or the rows
// listed in rows (indices into the store, ascending).
// Filtering produces a new Relation; the store is never copied.
type Relation struct {
	store *Store
	rows  []int32
	all   bool
}

// NewRelation wraps a store. A nil store yields an empty relation.
func NewRelation(s *Store) Relation {
	if s == nil {
		s = &Store{}
	}
	return Relation{store: s, all: true}
}

// Store returns the backing store.
func (r Relation) Store() *Store { return r.store }

// Len returns the number of rows in the view.
func (r Relation) Len() int {
	if r.store == nil {
		return 0
	}
	if r.all {
		return r.store.Len()
	}
	return len(r.rows)
}

// index maps a view position to a store row.
func (r Relation) index(i int) int {
	if r.all {
		return i
	}
	return int(r.rows[i])
}

func (r Relation) Country(i int) string   { return r.store.CountryDict[r.store.CountryIDs[r.index(i)]] }
func (r Relation) Region(i int) string    { return r.store.RegionDict[r.store.RegionIDs[r.index(i)]] }
func (r Relation) SubRegion(i int) string { return r.store.SubRegionDict[r.store.SubRegionIDs[r.index(i)]] }
func (r Relation) MeatType(i int) string  { return r.store.MeatDict[r.store.MeatIDs[r.index(i)]] }
func (r Relation) Year(i int) int         { return int(r.store.Years[r.index(i)]) }
func (r Relation) Consumption(i int) float64 {
	return r.store.Consumption[r.index(i)]
}
func (r Relation) Population(i int) float64 {
	return r.store.Population[r.index(i)]
}

// Record materialises row i.
func (r Relation) Record(i int) Record {
	return Record{
		Country:     r.Country(i),
		Region:      r.Region(i),
		SubRegion:   r.SubRegion(i),
		MeatType:    r.MeatType(i),
		Year:        r.Year(i),
		Consumption: r.Consumption(i),
		Population:  r.Population(i),
	}
}

// Records materialises the whole view.
func (r Relation) Records() []Record {
	out := make([]Record, r.Len())
	for i := range out {
		out[i] = r.Record(i)
	}
	return out
}

// where keeps the rows for which keep returns true.
func (r Relation) where(keep func(row int) bool) Relation {
	n := r.Len()
	rows := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		row := r.index(i)
		if keep(row) {
			rows = append(rows, int32(row))
		}
	}
	return Relation{store: r.store, rows: rows}
}

// Record is one row of the consumption table.
type Record struct {
	Country     string  `json:"country"`
	Region      string  `json:"region"`
	SubRegion   string  `json:"sub_region"`
	MeatType    string  `json:"meat_type"`
	Year        int     `json:"year"`
	Consumption float64 `json:"consumption_kg_per_capita"`
	Population  float64 `json:"population"`
}

// FromRecords builds a store from in-memory records. It applies the same
// validation as the loaders.
func FromRecords(records []Record) (*Store, error) {
	b := newStoreBuilder()
	for i, rec := range records {
		if err := b.add(rec.Country, rec.Region, rec.SubRegion, rec.MeatType,
			int32(rec.Year), rec.Consumption, rec.Population); err != nil {
			return nil, &LoadError{Source: "records", Line: i + 1, Err: err}
		}
	}
	return b.build(), nil
}
