// Package reconcile merges the results of rate lookups into one consistent set.
package reconcile

import (
	"time"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

// Result is the outcome of one successful lookup.
type Result struct {
	Request filter.Request
	Records []rates.Record
}

// ResultSet is ordered and free of structural duplicates.
type ResultSet []rates.Record

// IsActive reports whether rec is still in force on now's date. A record
// without a termination date never expires.
func IsActive(rec rates.Record, now time.Time) bool {
	if rec.TerminationDate == "" {
		return true
	}
	return rates.NormalizeDate(rec.TerminationDate) >= rates.Today(now)
}

// Reconcile concatenates results in request order and drops structural
// duplicates, keeping the first. Expired records are dropped when activeOnly
// is set or the result's request asked for active rows only.
func Reconcile(results []Result, activeOnly bool, now time.Time) ResultSet {
	seen := make(map[string]bool)
	out := ResultSet{}
	for _, res := range results {
		filterActive := activeOnly || res.Request.ActiveOnly
		for _, rec := range res.Records {
			if filterActive && !IsActive(rec, now) {
				continue
			}
			key := rec.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, rec.Clone())
		}
	}
	return out
}
