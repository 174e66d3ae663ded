package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"meatdash/internal/models"
)

type aggStats struct {
	Sum float64
	N   int
}

func (a aggStats) mean() float64 {
	if a.N == 0 {
		return math.NaN()
	}
	return a.Sum / float64(a.N)
}

// MeatDistribution sums and averages consumption per meat type.
// Groups come out in order of first occurrence.
func MeatDistribution(rel Relation) []models.MeatTotal {
	out := make([]models.MeatTotal, 0)
	if rel.Len() == 0 {
		return out
	}

	s := rel.store
	stats := make([]aggStats, len(s.MeatDict))
	order := make([]int32, 0, len(s.MeatDict))
	for i := 0; i < rel.Len(); i++ {
		row := rel.index(i)
		mid := s.MeatIDs[row]
		if stats[mid].N == 0 {
			order = append(order, mid)
		}
		stats[mid].Sum += s.Consumption[row]
		stats[mid].N++
	}

	for _, mid := range order {
		out = append(out, models.MeatTotal{
			MeatType: s.MeatDict[mid],
			Total:    stats[mid].Sum,
			Average:  stats[mid].mean(),
		})
	}
	return out
}

// CountryMeatHeatmap pivots mean consumption into a country x meat matrix.
// Rows and columns are sorted; cells without observations are NaN.
func CountryMeatHeatmap(rel Relation) *models.Heatmap {
	h := &models.Heatmap{Countries: []string{}, MeatTypes: []string{}, Values: [][]float64{}}
	if rel.Len() == 0 {
		return h
	}

	s := rel.store
	numMeats := len(s.MeatDict)

	// THE MATRIX: Flattened [Country][Meat] -> [Country * NumMeats + Meat]
	matrix := make([]aggStats, len(s.CountryDict)*numMeats)
	countrySeen := make([]bool, len(s.CountryDict))
	meatSeen := make([]bool, numMeats)
	for i := 0; i < rel.Len(); i++ {
		row := rel.index(i)
		cid, mid := s.CountryIDs[row], s.MeatIDs[row]
		countrySeen[cid] = true
		meatSeen[mid] = true
		idx := int(cid)*numMeats + int(mid)
		matrix[idx].Sum += s.Consumption[row]
		matrix[idx].N++
	}

	cids := sortedIDs(countrySeen, s.CountryDict)
	mids := sortedIDs(meatSeen, s.MeatDict)
	for _, cid := range cids {
		h.Countries = append(h.Countries, s.CountryDict[cid])
	}
	for _, mid := range mids {
		h.MeatTypes = append(h.MeatTypes, s.MeatDict[mid])
	}
	for _, cid := range cids {
		values := make([]float64, len(mids))
		for j, mid := range mids {
			values[j] = matrix[int(cid)*numMeats+int(mid)].mean()
		}
		h.Values = append(h.Values, values)
	}
	return h
}

// sortedIDs returns the IDs flagged in seen, ordered by their dictionary value.
func sortedIDs(seen []bool, dict []string) []int32 {
	ids := make([]int32, 0, len(seen))
	for id, ok := range seen {
		if ok {
			ids = append(ids, int32(id))
		}
	}
	slices.SortFunc(ids, func(a, b int32) int { return strings.Compare(dict[a], dict[b]) })
	return ids
}

// GroupBy picks the column the grouped bar chart colours by. It does not
// change the aggregation grouping.
type GroupBy int

const (
	GroupByRegion GroupBy = iota
	GroupBySubRegion
	GroupByCountry
)

func (g GroupBy) String() string {
	switch g {
	case GroupBySubRegion:
		return "Sub-region"
	case GroupByCountry:
		return "Country"
	default:
		return "Region"
	}
}

func ParseGroupBy(s string) (GroupBy, error) {
	switch normalizeHeader(s) {
	case "", "region":
		return GroupByRegion, nil
	case "sub_region", "subregion":
		return GroupBySubRegion, nil
	case "country":
		return GroupByCountry, nil
	}
	return GroupByRegion, fmt.Errorf("unknown group_by %q", s)
}

type groupKey struct {
	region, subRegion, country, meat int32
	year                             int32
}

type groupSums struct {
	consumption, population float64
}

// GroupedBar sums consumption and population per
// (region, sub_region, country, year, meat_type).
func GroupedBar(rel Relation, by GroupBy) *models.GroupedBar {
	g := &models.GroupedBar{GroupBy: by.String(), Years: []int{}, Rows: []models.GroupedRow{}}
	if rel.Len() == 0 {
		return g
	}

	s := rel.store
	sums := make(map[groupKey]*groupSums)
	years := make(map[int]struct{})
	for i := 0; i < rel.Len(); i++ {
		row := rel.index(i)
		k := groupKey{
			region:    s.RegionIDs[row],
			subRegion: s.SubRegionIDs[row],
			country:   s.CountryIDs[row],
			meat:      s.MeatIDs[row],
			year:      s.Years[row],
		}
		acc, ok := sums[k]
		if !ok {
			acc = &groupSums{}
			sums[k] = acc
		}
		acc.consumption += s.Consumption[row]
		acc.population += s.Population[row]
		years[int(k.year)] = struct{}{}
	}

	for k, acc := range sums {
		g.Rows = append(g.Rows, models.GroupedRow{
			Region:           s.RegionDict[k.region],
			SubRegion:        s.SubRegionDict[k.subRegion],
			Country:          s.CountryDict[k.country],
			Year:             int(k.year),
			MeatType:         s.MeatDict[k.meat],
			TotalConsumption: acc.consumption,
			TotalPopulation:  acc.population,
		})
	}
	slices.SortFunc(g.Rows, func(a, b models.GroupedRow) int {
		return cmp.Or(
			cmp.Compare(a.Region, b.Region),
			cmp.Compare(a.SubRegion, b.SubRegion),
			cmp.Compare(a.Country, b.Country),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.MeatType, b.MeatType),
		)
	})
	for y := range years {
		g.Years = append(g.Years, y)
	}
	slices.Sort(g.Years)
	g.Total = len(g.Rows)
	return g
}
