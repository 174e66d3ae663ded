package engine

import (
	"fmt"
	"strings"

	"meatdash/internal/models"
)

// ============================================================================
// FILTER PIPELINE: cascading facets over a Relation
// ============================================================================
// Each facet narrows the output of the previous one. The choices offered for
// a facet come from the relation as narrowed so far, never from the base.
// ============================================================================

type Mode int

const (
	ModeAll Mode = iota
	ModeFiltered
)

func (m Mode) String() string {
	if m == ModeFiltered {
		return "filtered"
	}
	return "all"
}

// ParseMode accepts "all" and "filtered" (or "filters"), case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "filtered", "filters", "filter":
		return ModeFiltered, nil
	}
	return ModeAll, fmt.Errorf("unknown mode %q", s)
}

// Facet is a filterable dimension, in cascade order.
type Facet int

const (
	FacetMeat Facet = iota
	FacetRegion
	FacetSubRegion
	FacetCountry
	FacetYear
)

func (f Facet) String() string {
	switch f {
	case FacetMeat:
		return "meat"
	case FacetRegion:
		return "region"
	case FacetSubRegion:
		return "sub_region"
	case FacetCountry:
		return "country"
	default:
		return "year"
	}
}

// Prompt is the message shown while the facet has nothing selected.
func (f Facet) Prompt() string {
	switch f {
	case FacetMeat:
		return "Select Meat"
	case FacetRegion:
		return "Select Region"
	case FacetSubRegion:
		return "Select Sub-Region"
	case FacetCountry:
		return "Select Country"
	default:
		return "Select Year range"
	}
}

// Selection is the widget state of one interaction.
//
// A nil facet slice means "every offered choice", the initial state of a
// picker. A non-nil empty slice is a cleared picker and stops the cascade.
// A nil Years means the full offered span.
type Selection struct {
	Mode       Mode
	MeatTypes  []string
	Regions    []string
	SubRegions []string
	Countries  []string
	Years      *models.YearRange
}

// IncompleteSelectionError means a facet has nothing selected. Nothing should
// be rendered until the user picks something.
type IncompleteSelectionError struct {
	Facet Facet
}

func (e *IncompleteSelectionError) Error() string {
	return "incomplete selection: " + e.Facet.Prompt()
}

// Apply runs the cascade and returns the filtered relation.
//
// Only a non-nil empty facet slice (or a year range with Min > Max, or one
// that misses every year on offer) yields *IncompleteSelectionError. A nil
// facet slice is not "nothing selected": it keeps every offered value, the
// way an untouched picker starts out fully selected.
func Apply(base Relation, sel Selection) (Relation, error) {
	rel, _, err := Cascade(base, sel)
	return rel, err
}

type facetStep struct {
	facet   Facet
	chosen  []string
	column  func(*Store) ([]int32, []string)
	offered *[]string
}

// Cascade runs the pipeline and also reports the choices offered at every
// step it reached. On an incomplete selection the options are filled up to
// and including the facet that stopped the cascade.
func Cascade(base Relation, sel Selection) (Relation, models.FacetOptions, error) {
	var opts models.FacetOptions
	if base.store == nil {
		base = NewRelation(nil)
	}
	if sel.Mode == ModeAll {
		return base, opts, nil
	}

	steps := []facetStep{
		{FacetMeat, sel.MeatTypes, func(s *Store) ([]int32, []string) { return s.MeatIDs, s.MeatDict }, &opts.MeatTypes},
		{FacetRegion, sel.Regions, func(s *Store) ([]int32, []string) { return s.RegionIDs, s.RegionDict }, &opts.Regions},
		{FacetSubRegion, sel.SubRegions, func(s *Store) ([]int32, []string) { return s.SubRegionIDs, s.SubRegionDict }, &opts.SubRegions},
		{FacetCountry, sel.Countries, func(s *Store) ([]int32, []string) { return s.CountryIDs, s.CountryDict }, &opts.Countries},
	}

	rel := base
	for _, st := range steps {
		ids, dict := st.column(rel.store)
		*st.offered = distinct(rel, ids, dict)
		if st.chosen == nil {
			// every offered value is selected: nothing to drop
			continue
		}
		if len(st.chosen) == 0 {
			return Relation{}, opts, &IncompleteSelectionError{Facet: st.facet}
		}
		rel = restrict(rel, ids, dict, st.chosen)
	}

	bounds, ok := YearBounds(rel)
	if !ok {
		if sel.Years != nil && sel.Years.Min > sel.Years.Max {
			return Relation{}, opts, &IncompleteSelectionError{Facet: FacetYear}
		}
		return rel, opts, nil
	}
	opts.YearBounds = &bounds
	lo, hi := bounds.Min, bounds.Max
	if sel.Years != nil {
		lo, hi = max(lo, sel.Years.Min), min(hi, sel.Years.Max)
	}
	if lo > hi {
		return Relation{}, opts, &IncompleteSelectionError{Facet: FacetYear}
	}
	if lo == bounds.Min && hi == bounds.Max {
		return rel, opts, nil
	}
	years := rel.store.Years
	rel = rel.where(func(row int) bool {
		y := int(years[row])
		return y >= lo && y <= hi
	})
	return rel, opts, nil
}

// YearBounds returns the smallest and largest year in rel. ok is false when
// rel is empty.
func YearBounds(rel Relation) (b models.YearRange, ok bool) {
	if rel.Len() == 0 {
		return b, false
	}
	b = models.YearRange{Min: rel.Year(0), Max: rel.Year(0)}
	for i := 1; i < rel.Len(); i++ {
		y := rel.Year(i)
		b.Min = min(b.Min, y)
		b.Max = max(b.Max, y)
	}
	return b, true
}

// distinct lists the values of a dictionary column present in rel, in
// first-seen order.
func distinct(rel Relation, ids []int32, dict []string) []string {
	seen := make([]bool, len(dict))
	out := make([]string, 0, len(dict))
	for i := 0; i < rel.Len(); i++ {
		id := ids[rel.index(i)]
		if !seen[id] {
			seen[id] = true
			out = append(out, dict[id])
		}
	}
	return out
}

// restrict keeps rows whose column value is one of chosen.
func restrict(rel Relation, ids []int32, dict []string, chosen []string) Relation {
	want := make(map[string]struct{}, len(chosen))
	for _, c := range chosen {
		want[c] = struct{}{}
	}
	allowed := make([]bool, len(dict))
	for id, v := range dict {
		_, allowed[id] = want[v]
	}
	return rel.where(func(row int) bool { return allowed[ids[row]] })
}
