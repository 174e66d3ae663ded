package api

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"meatdash/internal/engine"
	"meatdash/internal/models"
)

// interaction is the parsed query of one dashboard request.
type interaction struct {
	sel     engine.Selection
	groupBy engine.GroupBy
}

// parseInteraction reads the selection from query parameters.
//
// A facet parameter that is absent selects every offered value; present but
// empty ("country=") is a cleared picker. Several values are sent as
// repeated parameters; commas are kept, since names like
// "Korea, Republic of" contain them.
func parseInteraction(q url.Values) (interaction, error) {
	var in interaction
	var err error

	if in.sel.Mode, err = engine.ParseMode(q.Get("mode")); err != nil {
		return in, err
	}
	if in.groupBy, err = engine.ParseGroupBy(q.Get("group_by")); err != nil {
		return in, err
	}

	in.sel.MeatTypes = facetValues(q, "meat")
	in.sel.Regions = facetValues(q, "region")
	in.sel.SubRegions = facetValues(q, "sub_region")
	in.sel.Countries = facetValues(q, "country")

	lo, hasLo, err := intParam(q, "year_min")
	if err != nil {
		return in, err
	}
	hi, hasHi, err := intParam(q, "year_max")
	if err != nil {
		return in, err
	}
	if hasLo || hasHi {
		yr := models.YearRange{Min: lo, Max: hi}
		if !hasLo {
			yr.Min = minYear
		}
		if !hasHi {
			yr.Max = maxYear
		}
		in.sel.Years = &yr
	}
	return in, nil
}

// Open ends of a year range given on one side only.
const (
	minYear = -1 << 31
	maxYear = 1<<31 - 1
)

func facetValues(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intParam(q url.Values, key string) (int, bool, error) {
	v := q.Get(key)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// key is a canonical text form of the interaction; equal interactions give
// equal keys whatever the parameter order.
func (in interaction) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s;group_by=%s", in.sel.Mode, in.groupBy)
	for _, f := range []struct {
		name string
		vals []string
	}{
		{"meat", in.sel.MeatTypes},
		{"region", in.sel.Regions},
		{"sub_region", in.sel.SubRegions},
		{"country", in.sel.Countries},
	} {
		if f.vals == nil {
			continue
		}
		vals := slices.Clone(f.vals)
		slices.Sort(vals)
		fmt.Fprintf(&b, ";%s=%s", f.name, strings.Join(slices.Compact(vals), "\x1f"))
	}
	if in.sel.Years != nil {
		fmt.Fprintf(&b, ";years=%d..%d", in.sel.Years.Min, in.sel.Years.Max)
	}
	return b.String()
}
