// Package catalog holds the valid option domains of every rate dimension, as
// returned by the filters service, in a uniform code/label structure.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Well-known link names of the filters service.
const (
	Port          = "port"
	Department    = "department"
	Container     = "container"
	TransportMode = "transportMode"
	AgentOffice   = "agentOffice"
	Country       = "country"
	TaxCategory   = "taxCategory"
)

// ErrMissingLink is matched by every *MissingLinkError.
var ErrMissingLink = errors.New("catalog link not found")

// MissingLinkError reports a dimension that the filters response did not carry.
// Nothing can be enumerated for such a dimension, so callers treat it as fatal.
type MissingLinkError struct {
	Dimension string
}

func (e *MissingLinkError) Error() string {
	return fmt.Sprintf("catalog link not found for dimension %q", e.Dimension)
}

func (e *MissingLinkError) Unwrap() error {
	return ErrMissingLink
}

// Code is the canonical text form of a dimension code. Numeric codes are kept
// as their integer text so that 10 and "10" compare equal.
type Code string

// CodeFromInt renders an integer code.
func CodeFromInt(n int64) Code {
	return Code(strconv.FormatInt(n, 10))
}

// String returns the code text.
func (c Code) String() string { return string(c) }

// Empty reports whether the code carries no value. Zero counts as no value,
// matching how the services encode an unselected dimension.
func (c Code) Empty() bool {
	s := strings.TrimSpace(string(c))
	return s == "" || s == "0"
}

// Int returns the code as an integer when it is purely numeric.
func (c Code) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(c)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Entry is one value of a dimension's domain.
type Entry struct {
	Code  Code
	Label string
}

// Catalog maps dimension names to their ordered domains. It is immutable once
// built; a new market selection means a new Catalog.
type Catalog struct {
	order []string
	links map[string][]Entry
	index map[string]map[Code]int
}

// Builder accumulates links in insertion order.
type Builder struct {
	c       *Catalog
	Dropped []Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{c: &Catalog{
		links: make(map[string][]Entry),
		index: make(map[string]map[Code]int),
	}}
}

// Add appends entries to a dimension. Codes already present in the dimension
// are dropped and remembered in Dropped.
func (b *Builder) Add(dimension string, entries ...Entry) *Builder {
	idx, ok := b.c.index[dimension]
	if !ok {
		idx = make(map[Code]int)
		b.c.index[dimension] = idx
		b.c.order = append(b.c.order, dimension)
		b.c.links[dimension] = []Entry{}
	}
	for _, e := range entries {
		if _, dup := idx[e.Code]; dup {
			b.Dropped = append(b.Dropped, e)
			continue
		}
		idx[e.Code] = len(b.c.links[dimension])
		b.c.links[dimension] = append(b.c.links[dimension], e)
	}
	return b
}

// Build returns the catalog. The builder must not be used afterwards.
func (b *Builder) Build() *Catalog {
	c := b.c
	b.c = nil
	return c
}

// New builds a catalog from already ordered dimensions.
func New(dimensions []string, links map[string][]Entry) *Catalog {
	b := NewBuilder()
	for _, d := range dimensions {
		b.Add(d, links[d]...)
	}
	return b.Build()
}

// Has reports whether the dimension exists, even with an empty domain.
func (c *Catalog) Has(dimension string) bool {
	if c == nil {
		return false
	}
	_, ok := c.links[dimension]
	return ok
}

// Dimensions lists dimension names in the order they were added.
func (c *Catalog) Dimensions() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Entries returns a copy of the dimension's domain in insertion order.
func (c *Catalog) Entries(dimension string) []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.links[dimension]...)
}

// Labels returns the display labels of a dimension, the same values a
// dropdown-validation list would offer.
func (c *Catalog) Labels(dimension string) []string {
	entries := c.Entries(dimension)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

// Lookup finds the entry for a code.
func (c *Catalog) Lookup(dimension string, code Code) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	idx, ok := c.index[dimension]
	if !ok {
		return Entry{}, false
	}
	i, ok := idx[code]
	if !ok {
		return Entry{}, false
	}
	return c.links[dimension][i], true
}

// Require fails with a *MissingLinkError for the first absent dimension.
func (c *Catalog) Require(dimensions ...string) error {
	for _, d := range dimensions {
		if !c.Has(d) {
			return &MissingLinkError{Dimension: d}
		}
	}
	return nil
}
