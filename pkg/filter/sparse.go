// Package filter plans rate lookups from a partially specified filter.
package filter

import (
	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

// Sparse binds filter fields to codes. A field is unfixed when it is absent,
// empty or zero. Sparse values are treated as immutable: every helper returns
// a new map.
type Sparse map[string]catalog.Code

// Get returns a fixed field's code.
func (s Sparse) Get(field string) (catalog.Code, bool) {
	c, ok := s[field]
	if !ok || c.Empty() {
		return "", false
	}
	return c, true
}

// Fixed reports whether field has a usable value.
func (s Sparse) Fixed(field string) bool {
	_, ok := s.Get(field)
	return ok
}

// Clone copies s.
func (s Sparse) Clone() Sparse {
	out := make(Sparse, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of s with field bound to code.
func (s Sparse) With(field string, code catalog.Code) Sparse {
	out := s.Clone()
	out[field] = code
	return out
}

// Stripped returns only the fixed fields.
func (s Sparse) Stripped() Sparse {
	out := make(Sparse, len(s))
	for k, v := range s {
		if !v.Empty() {
			out[k] = v
		}
	}
	return out
}

// FactorID returns the selected factor, 0 when none.
func (s Sparse) FactorID() int64 {
	c, ok := s.Get(rates.ElementSubtypeID)
	if !ok {
		return 0
	}
	n, _ := c.Int()
	return n
}

// Payload renders the fixed fields for the rate service: numeric codes as JSON
// numbers, the rest as strings.
func (s Sparse) Payload() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s.Stripped() {
		if n, ok := v.Int(); ok {
			out[k] = n
			continue
		}
		out[k] = string(v)
	}
	return out
}
