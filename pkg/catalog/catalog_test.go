package catalog

import (
	"errors"
	"reflect"
	"testing"
)

const filtersBody = `{
  "elements": [
    {"element_id": 80, "element_name": "Duty", "factors": [
      {"subtype_id": 81, "subtype_name": "By department", "filters": [{"name": "department_id", "displayLabel": "Department"}]},
      {"subtype_id": 41, "subtype_name": "By tax", "filters": []}
    ]},
    {"element_id": 50, "element_name": "Freight", "factors": [
      {"subtype_id": 51, "subtype_name": "Ocean", "filters": []},
      {"subtype_id": 41, "subtype_name": "Tax again", "filters": []}
    ]}
  ],
  "links": [
    {"link_name": "department", "data": [
      {"value": 10, "label": "10 - Grocery"},
      {"value": "20", "label": "20 - Apparel"},
      {"value": 10, "label": "10 - Duplicate"}
    ]},
    {"link_name": "port", "data": [{"value": 1, "label": "1 - Shanghai"}]},
    {"link_name": "", "data": [{"value": 9, "label": "ignored"}]}
  ]
}`

func TestBuilderDropsDuplicateCodes(t *testing.T) {
	b := NewBuilder()
	b.Add(Department, Entry{Code: "10", Label: "A"}, Entry{Code: "20", Label: "B"}, Entry{Code: "10", Label: "C"})
	cat := b.Build()

	got := cat.Entries(Department)
	expect := []Entry{{Code: "10", Label: "A"}, {Code: "20", Label: "B"}}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("unexpected entries.\nwant: %#v\ngot:  %#v", expect, got)
	}
	if len(b.Dropped) != 1 || b.Dropped[0].Label != "C" {
		t.Fatalf("expected the later duplicate to be dropped, got %#v", b.Dropped)
	}
}

func TestLookupAndLabels(t *testing.T) {
	cat := New([]string{Port, Country}, map[string][]Entry{
		Port:    {{Code: "1", Label: "1 - Shanghai"}, {Code: "2", Label: "2 - Ningbo"}},
		Country: {},
	})

	e, ok := cat.Lookup(Port, "2")
	if !ok || e.Label != "2 - Ningbo" {
		t.Fatalf("lookup failed: %#v %v", e, ok)
	}
	if _, ok := cat.Lookup(Port, "3"); ok {
		t.Fatalf("unexpected hit for unknown code")
	}
	if !cat.Has(Country) {
		t.Fatalf("empty dimension should still exist")
	}
	if got := cat.Labels(Port); !reflect.DeepEqual(got, []string{"1 - Shanghai", "2 - Ningbo"}) {
		t.Fatalf("unexpected labels %#v", got)
	}
	if got := cat.Dimensions(); !reflect.DeepEqual(got, []string{Port, Country}) {
		t.Fatalf("dimension order not kept: %#v", got)
	}
}

func TestRequireMissingLink(t *testing.T) {
	cat := New([]string{Port}, map[string][]Entry{Port: nil})
	err := cat.Require(Port, Department)
	if !errors.Is(err, ErrMissingLink) {
		t.Fatalf("expected ErrMissingLink, got %v", err)
	}
	var mle *MissingLinkError
	if !errors.As(err, &mle) || mle.Dimension != Department {
		t.Fatalf("expected MissingLinkError for department, got %#v", err)
	}

	var nilCat *Catalog
	if nilCat.Has(Port) || nilCat.Entries(Port) != nil {
		t.Fatalf("nil catalog should be empty")
	}
}

func TestCodeEmptyAndInt(t *testing.T) {
	for _, c := range []Code{"", "0", " 0 "} {
		if !c.Empty() {
			t.Fatalf("%q should be empty", c)
		}
	}
	if n, ok := Code("42").Int(); !ok || n != 42 {
		t.Fatalf("Int() = %d, %v", n, ok)
	}
	if _, ok := Code("CN").Int(); ok {
		t.Fatalf("non numeric code parsed as int")
	}
}

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters([]byte(filtersBody))
	if err != nil {
		t.Fatalf("ParseFilters: %v", err)
	}

	if got := f.Catalog.Dimensions(); !reflect.DeepEqual(got, []string{Department, Port}) {
		t.Fatalf("unexpected dimensions %#v", got)
	}
	e, ok := f.Catalog.Lookup(Department, "20")
	if !ok || e.Label != "20 - Apparel" {
		t.Fatalf("string and numeric codes should share one form, got %#v", e)
	}
	if len(f.Dropped) != 1 || f.Dropped[0].Label != "10 - Duplicate" {
		t.Fatalf("unexpected dropped entries %#v", f.Dropped)
	}

	if got := f.ElementOptions(); !reflect.DeepEqual(got, Options{{Value: "80", Label: "80 - Duty"}, {Value: "50", Label: "50 - Freight"}}) {
		t.Fatalf("unexpected element options %#v", got)
	}
	if got := f.FactorOptions(50); len(got) != 2 || got[0].Label != "51 - Ocean" {
		t.Fatalf("unexpected factor options %#v", got)
	}
	all := f.AllFactorOptions()
	if len(all) != 3 {
		t.Fatalf("expected factor 41 once, got %#v", all)
	}
	if l, _ := all.Label("41"); l != "41 - By tax" {
		t.Fatalf("first occurrence should win, got %q", l)
	}
	if got := f.DynamicFields(80, 81); len(got) != 1 || got[0].Name != "department_id" {
		t.Fatalf("unexpected dynamic fields %#v", got)
	}
	if f.FactorOptions(999) != nil {
		t.Fatalf("unknown element should have no factors")
	}
}

func TestParseFiltersRejectsGarbage(t *testing.T) {
	if _, err := ParseFilters([]byte("<html>")); !errors.Is(err, ErrInvalidFilters) {
		t.Fatalf("expected ErrInvalidFilters, got %v", err)
	}
}

func TestOptionsExactMatch(t *testing.T) {
	opts := Options{{Value: "1001", Label: "1001 - Walmart US"}}
	if _, ok := opts.Label("01001"); ok {
		t.Fatalf("option values must match verbatim")
	}
}
