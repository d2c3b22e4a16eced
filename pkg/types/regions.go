package domain

import (
	"slices"
	"strings"
)

// Region describes one Zara storefront the tracker can poll.
type Region struct {
	Country   string
	Name      string
	Languages []string
	Currency  string
}

// Regions lists the supported storefronts keyed by country code.
var Regions = map[string]Region{
	"tr": {Country: "tr", Name: "Turkey", Languages: []string{"en", "tr"}, Currency: "TRY"},
	"us": {Country: "us", Name: "United States", Languages: []string{"en"}, Currency: "USD"},
	"uk": {Country: "uk", Name: "United Kingdom", Languages: []string{"en"}, Currency: "GBP"},
	"de": {Country: "de", Name: "Germany", Languages: []string{"de", "en"}, Currency: "EUR"},
	"fr": {Country: "fr", Name: "France", Languages: []string{"fr", "en"}, Currency: "EUR"},
	"es": {Country: "es", Name: "Spain", Languages: []string{"es", "en"}, Currency: "EUR"},
	"it": {Country: "it", Name: "Italy", Languages: []string{"it", "en"}, Currency: "EUR"},
}

// SupportedRegion reports whether the country/language pair maps to a known
// storefront.
func SupportedRegion(country, lang string) bool {
	r, ok := Regions[strings.ToLower(country)]
	if !ok {
		return false
	}
	return slices.Contains(r.Languages, strings.ToLower(lang))
}

// CurrencyFor returns the currency code for a country, or "" when the
// country is not a supported storefront.
func CurrencyFor(country string) string {
	return Regions[strings.ToLower(country)].Currency
}
