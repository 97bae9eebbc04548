package filter

import (
	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

// Rule declares that Field is enumerated from Dimension's codes whenever the
// selected factor is one of Factors and Field is unfixed.
type Rule struct {
	Field      string
	Dimension  string
	Factors    []int64
	ActiveOnly bool // keep only currently active rows from enumerated lookups
}

// Applies reports whether the rule is switched on by factorID.
func (r Rule) Applies(factorID int64) bool {
	for _, f := range r.Factors {
		if f == factorID {
			return true
		}
	}
	return false
}

// DefaultRules returns the expansion table used by the rate screens.
func DefaultRules() []Rule {
	return []Rule{
		{Field: rates.LoadingPortID, Dimension: catalog.Port, Factors: []int64{51, 53}, ActiveOnly: true},
		{Field: rates.EntryPortID, Dimension: catalog.Port, Factors: []int64{51, 53, 60, 61}, ActiveOnly: true},
		{Field: rates.DepartmentID, Dimension: catalog.Department, Factors: []int64{80, 81}, ActiveOnly: true},
		{Field: rates.ContainerTypeID, Dimension: catalog.Container, Factors: []int64{51, 53, 61}, ActiveOnly: true},
		{Field: rates.TransportMode, Dimension: catalog.TransportMode, Factors: []int64{51, 53}, ActiveOnly: true},
		{Field: rates.AgentOfficeID, Dimension: catalog.AgentOffice, Factors: []int64{30, 31}, ActiveOnly: true},
		{Field: rates.OriginCountryID, Dimension: catalog.Country, Factors: []int64{40}, ActiveOnly: true},
		{Field: rates.TaxCategoryID, Dimension: catalog.TaxCategory, Factors: []int64{41}, ActiveOnly: true},
		{Field: rates.ImportCountryID, Dimension: catalog.Country, Factors: []int64{41}, ActiveOnly: true},
		{Field: rates.DestinationPortID, Dimension: catalog.Port, Factors: []int64{21}, ActiveOnly: true},
	}
}

// WithActiveOnly returns a copy of rules with ActiveOnly set to active.
func WithActiveOnly(rules []Rule, active bool) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.Factors = append([]int64(nil), r.Factors...)
		r.ActiveOnly = active
		out[i] = r
	}
	return out
}

// Pending returns the rules that would enumerate for this filter, in table order.
func Pending(s Sparse, factorID int64, rules []Rule) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Applies(factorID) && !s.Fixed(r.Field) {
			out = append(out, r)
		}
	}
	return out
}
