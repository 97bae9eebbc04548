package filter

import (
	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
)

// Request is one rate lookup. Enumerated requests carry the field, dimension
// and code they bind so that results can be traced back to them.
type Request struct {
	Filter     Sparse
	Field      string
	Dimension  string
	Code       catalog.Code
	ActiveOnly bool
}

// Enumerated reports whether the request came from a rule.
func (r Request) Enumerated() bool { return r.Field != "" }

// Expand completes a sparse filter. Every rule switched on by factorID whose
// field is unfixed yields one request per code of its dimension, in catalog
// order, with the field bound and every other fixed field copied. When no
// rule enumerates, a single request with the complete filter is returned.
//
// An enumerating rule whose dimension is missing from the catalog fails the
// whole expansion with a *catalog.MissingLinkError.
func Expand(s Sparse, factorID int64, rules []Rule, cat *catalog.Catalog) ([]Request, error) {
	base := s.Stripped()
	pending := Pending(base, factorID, rules)
	if len(pending) == 0 {
		return []Request{{Filter: base}}, nil
	}

	var reqs []Request
	for _, r := range pending {
		if !cat.Has(r.Dimension) {
			return nil, &catalog.MissingLinkError{Dimension: r.Dimension}
		}
		for _, e := range cat.Entries(r.Dimension) {
			if e.Code.Empty() {
				continue
			}
			reqs = append(reqs, Request{
				Filter:     base.With(r.Field, e.Code),
				Field:      r.Field,
				Dimension:  r.Dimension,
				Code:       e.Code,
				ActiveOnly: r.ActiveOnly,
			})
		}
	}
	return reqs, nil
}
