// Package labels converts between dimension codes and the human labels used
// in rate spreadsheets.
package labels

import (
	"strconv"
	"strings"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

// NotFound is written wherever a code has no label. Exports keep going with
// it instead of failing on stale metadata.
const NotFound = "Label not found"

// LabelOf returns the catalog label of code in dimension, or NotFound.
func LabelOf(cat *catalog.Catalog, dimension string, code catalog.Code) string {
	e, ok := cat.Lookup(dimension, code)
	if !ok {
		return NotFound
	}
	return e.Label
}

// CodeOf recovers a code from a label shaped like "<code> - <description>".
// Only the text before the first "-" is considered; its first run of digits is
// the code.
func CodeOf(label string) (catalog.Code, bool) {
	candidate := label
	if i := strings.Index(label, "-"); i >= 0 {
		candidate = label[:i]
	}
	start := strings.IndexFunc(candidate, isDigit)
	if start < 0 {
		return "", false
	}
	end := start
	for end < len(candidate) && isDigit(rune(candidate[end])) {
		end++
	}
	token := candidate[start:end]
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return catalog.CodeFromInt(n), true
	}
	return catalog.Code(token), true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// OptionLabel resolves a fixed-list value by exact equality.
func OptionLabel(opts catalog.Options, value string) string {
	if l, ok := opts.Label(value); ok {
		return l
	}
	return NotFound
}

// Resolver resolves any rate field, choosing between the catalog and the fixed
// option lists from the field table. The two paths are never mixed: catalog
// codes are looked up by code, option values by exact value.
type Resolver struct {
	Catalog  *catalog.Catalog
	Markets  catalog.Options
	Elements catalog.Options
	Factors  catalog.Options
}

func (r *Resolver) options(src rates.Source) catalog.Options {
	switch src {
	case rates.FromMarkets:
		return r.Markets
	case rates.FromElements:
		return r.Elements
	case rates.FromFactors:
		return r.Factors
	}
	return nil
}

// Label resolves the value of a field to its display label.
func (r *Resolver) Label(f rates.Field, code catalog.Code) string {
	if f.Catalogued() {
		return LabelOf(r.Catalog, f.Dimension, code)
	}
	return OptionLabel(r.options(f.Source), string(code))
}

// FieldLabel is Label by field name. Unknown fields resolve to NotFound.
func (r *Resolver) FieldLabel(field string, code catalog.Code) string {
	f, ok := rates.FieldByName(field)
	if !ok {
		return NotFound
	}
	return r.Label(f, code)
}
