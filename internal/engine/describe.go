package engine

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Introduction describes the dataset behind the dashboard.
func Introduction(base Relation) string {
	if base.Len() == 0 {
		return "This is a dashboard for meat consumption in kg per capita. The dataset is empty."
	}
	title := cases.Title(language.English)
	meats := distinct(base, base.store.MeatIDs, base.store.MeatDict)
	for i, m := range meats {
		meats[i] = title.String(m)
	}
	countries := distinct(base, base.store.CountryIDs, base.store.CountryDict)
	years, _ := YearBounds(base)
	return message.NewPrinter(language.English).Sprintf(
		"This is a dashboard for meat consumption in kg per capita. The data includes %d meats (%s), %d countries, and the years %s-%s.",
		len(meats), strings.Join(meats, ", "), len(countries), strconv.Itoa(years.Min), strconv.Itoa(years.Max))
}

// Summarize describes the filtered relation in one sentence.
func Summarize(rel Relation) string {
	if rel.Len() == 0 {
		return "No records match the current selection."
	}
	var total float64
	for i := 0; i < rel.Len(); i++ {
		total += rel.Consumption(i)
	}
	countries := distinct(rel, rel.store.CountryIDs, rel.store.CountryDict)
	years, _ := YearBounds(rel)
	return message.NewPrinter(language.English).Sprintf(
		"Showing %d records from %d countries between %s and %s; average consumption %.2f kg per capita.",
		rel.Len(), len(countries), strconv.Itoa(years.Min), strconv.Itoa(years.Max), total/float64(rel.Len()))
}
