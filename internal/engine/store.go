package engine

import (
	"fmt"
	"math"
)

// Store holds the consumption table in Struct-of-Arrays format.
// It is built once by a Loader and never mutated afterwards.
type Store struct {
	// Data Columns (Flat Arrays)
	Years       []int32
	Consumption []float64
	Population  []float64

	// Dictionary Encoded IDs (0..N)
	CountryIDs   []int32
	RegionIDs    []int32
	SubRegionIDs []int32
	MeatIDs      []int32

	// Dictionaries (ID -> String), first-seen order
	CountryDict   []string
	RegionDict    []string
	SubRegionDict []string
	MeatDict      []string
}

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.Years) }

// All returns the relation covering every row of the store.
func (s *Store) All() Relation { return NewRelation(s) }

// dict interns strings into dense int32 IDs.
type dict struct {
	ids  map[string]int32
	list []string
}

func newDict() *dict { return &dict{ids: make(map[string]int32)} }

func (d *dict) intern(s string) int32 {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.ids[s] = id
	return id
}

// storeBuilder accumulates validated rows and enforces the
// country -> (region, sub_region) dependency.
type storeBuilder struct {
	store      *Store
	countries  *dict
	regions    *dict
	subRegions *dict
	meats      *dict
	placement  map[int32][2]int32 // country ID -> region ID, sub-region ID
}

func newStoreBuilder() *storeBuilder {
	return &storeBuilder{
		store:      &Store{},
		countries:  newDict(),
		regions:    newDict(),
		subRegions: newDict(),
		meats:      newDict(),
		placement:  make(map[int32][2]int32),
	}
}

// add appends one record. Errors describe the offending value; the caller
// attaches the location.
func (b *storeBuilder) add(country, region, subRegion, meat string, year int32, consumption, population float64) error {
	switch {
	case country == "":
		return fmt.Errorf("empty %s", ColCountry)
	case region == "":
		return fmt.Errorf("empty %s", ColRegion)
	case subRegion == "":
		return fmt.Errorf("empty %s", ColSubRegion)
	case meat == "":
		return fmt.Errorf("empty %s", ColMeatType)
	case !finite(consumption):
		return fmt.Errorf("non-finite %s %v", ColConsumption, consumption)
	case !finite(population):
		return fmt.Errorf("non-finite %s %v", ColPopulation, population)
	case consumption < 0:
		return fmt.Errorf("negative %s %v", ColConsumption, consumption)
	case population < 0:
		return fmt.Errorf("negative %s %v", ColPopulation, population)
	}

	cid := b.countries.intern(country)
	rid := b.regions.intern(region)
	sid := b.subRegions.intern(subRegion)
	if prev, ok := b.placement[cid]; ok {
		if prev[0] != rid || prev[1] != sid {
			return fmt.Errorf("country %q is in %s/%s and %s/%s", country,
				b.regions.list[prev[0]], b.subRegions.list[prev[1]], region, subRegion)
		}
	} else {
		b.placement[cid] = [2]int32{rid, sid}
	}

	s := b.store
	s.CountryIDs = append(s.CountryIDs, cid)
	s.RegionIDs = append(s.RegionIDs, rid)
	s.SubRegionIDs = append(s.SubRegionIDs, sid)
	s.MeatIDs = append(s.MeatIDs, b.meats.intern(meat))
	s.Years = append(s.Years, year)
	s.Consumption = append(s.Consumption, consumption)
	s.Population = append(s.Population, population)
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (b *storeBuilder) build() *Store {
	s := b.store
	s.CountryDict = b.countries.list
	s.RegionDict = b.regions.list
	s.SubRegionDict = b.subRegions.list
	s.MeatDict = b.meats.list
	return s
}
