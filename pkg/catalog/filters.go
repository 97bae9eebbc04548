package catalog

import (
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrInvalidFilters is returned when the filters body is not JSON.
var ErrInvalidFilters = errors.New("invalid filters response")

// DynamicField is a dimension the UI asks for once element and factor are set.
type DynamicField struct {
	Name         string
	DisplayLabel string
}

// Factor is an element subtype.
type Factor struct {
	ID     int64
	Name   string
	Fields []DynamicField
}

// Element is a cost element together with its factors.
type Element struct {
	ID      int64
	Name    string
	Factors []Factor
}

// Filters is the decoded response of the filters service for one market.
type Filters struct {
	Elements []Element
	Catalog  *Catalog
	// Dropped holds link entries discarded because their code repeated.
	Dropped []Entry
}

// CodeOf canonicalises a JSON value into a Code.
func CodeOf(v gjson.Result) Code {
	switch v.Type {
	case gjson.Number:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
			return CodeFromInt(int64(v.Num))
		}
		return Code(v.Raw)
	case gjson.String:
		return Code(v.Str)
	case gjson.Null:
		return ""
	default:
		return Code(v.String())
	}
}

// ParseFilters decodes
//
//	{elements:[{element_id, element_name, factors:[{subtype_id, subtype_name, filters:[{name, displayLabel}]}]}],
//	 links:[{link_name, data:[{value, label}]}]}
//
// Links keep the order of the response.
func ParseFilters(body []byte) (*Filters, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidFilters
	}
	root := gjson.ParseBytes(body)

	b := NewBuilder()
	root.Get("links").ForEach(func(_, link gjson.Result) bool {
		name := link.Get("link_name").String()
		if name == "" {
			return true
		}
		var entries []Entry
		link.Get("data").ForEach(func(_, d gjson.Result) bool {
			entries = append(entries, Entry{Code: CodeOf(d.Get("value")), Label: d.Get("label").String()})
			return true
		})
		b.Add(name, entries...)
		return true
	})
	dropped := b.Dropped

	f := &Filters{Catalog: b.Build(), Dropped: dropped}
	root.Get("elements").ForEach(func(_, el gjson.Result) bool {
		e := Element{ID: el.Get("element_id").Int(), Name: el.Get("element_name").String()}
		el.Get("factors").ForEach(func(_, fa gjson.Result) bool {
			factor := Factor{ID: fa.Get("subtype_id").Int(), Name: fa.Get("subtype_name").String()}
			fa.Get("filters").ForEach(func(_, fl gjson.Result) bool {
				factor.Fields = append(factor.Fields, DynamicField{
					Name:         fl.Get("name").String(),
					DisplayLabel: fl.Get("displayLabel").String(),
				})
				return true
			})
			e.Factors = append(e.Factors, factor)
			return true
		})
		f.Elements = append(f.Elements, e)
		return true
	})
	return f, nil
}

func (f *Filters) element(id int64) (Element, bool) {
	for _, e := range f.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// ElementOptions lists elements as "<id> - <name>" options.
func (f *Filters) ElementOptions() Options {
	opts := make(Options, 0, len(f.Elements))
	for _, e := range f.Elements {
		id := strconv.FormatInt(e.ID, 10)
		opts = append(opts, Option{Value: id, Label: id + " - " + e.Name})
	}
	return opts
}

// FactorOptions lists the factors of one element as "<id> - <name>" options.
func (f *Filters) FactorOptions(elementID int64) Options {
	e, ok := f.element(elementID)
	if !ok {
		return nil
	}
	opts := make(Options, 0, len(e.Factors))
	for _, fa := range e.Factors {
		id := strconv.FormatInt(fa.ID, 10)
		opts = append(opts, Option{Value: id, Label: id + " - " + fa.Name})
	}
	return opts
}

// AllFactorOptions lists the factors of every element, first occurrence wins.
func (f *Filters) AllFactorOptions() Options {
	seen := make(map[string]bool)
	var opts Options
	for _, e := range f.Elements {
		for _, o := range f.FactorOptions(e.ID) {
			if seen[o.Value] {
				continue
			}
			seen[o.Value] = true
			opts = append(opts, o)
		}
	}
	return opts
}

// DynamicFields returns the extra dimensions asked for by an element/factor pair.
func (f *Filters) DynamicFields(elementID, factorID int64) []DynamicField {
	e, ok := f.element(elementID)
	if !ok {
		return nil
	}
	for _, fa := range e.Factors {
		if fa.ID == factorID {
			return append([]DynamicField(nil), fa.Fields...)
		}
	}
	return nil
}
