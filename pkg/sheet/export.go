// Package sheet converts rate records to labelled spreadsheet rows and back.
//
// The row functions are pure; reading and writing workbooks lives in
// workbook.go and never runs implicitly.
package sheet

import (
	"sort"
	"strings"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

// DatePlaceholder fills date cells of template rows.
const DatePlaceholder = "YYYY-MM-DD"

// Row maps a column header to a cell value (string or number).
type Row map[string]any

// recordValue returns the record's own value for a field, if it has one.
func recordValue(rec rates.Record, f rates.Field) (catalog.Code, bool) {
	var n int64
	switch f.Source {
	case rates.FromCatalog:
		return rec.Dimension(f.Name)
	case rates.FromMarkets:
		n = rec.MarketID
	case rates.FromElements:
		n = rec.ElementID
	case rates.FromFactors:
		n = rec.ElementSubtypeID
	}
	if n == 0 {
		return "", false
	}
	return catalog.CodeFromInt(n), true
}

// ToExportRows renders one row per record. A column is written for every
// field fixed in the filter or carried by the record; the record's value wins.
// Loading-port values that already look like "<code> - <name>" are kept
// verbatim.
func ToExportRows(records []rates.Record, s filter.Sparse, res *labels.Resolver) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{}
		for _, f := range rates.Fields {
			code, ok := s.Get(f.Name)
			if rc, has := recordValue(rec, f); has {
				code, ok = rc, true
			}
			if !ok {
				continue
			}
			if f.Name == rates.LoadingPortID && strings.Contains(string(code), "-") {
				row[f.Header] = string(code)
				continue
			}
			row[f.Header] = res.Label(f, code)
		}
		writeData(row, rec)
		rows = append(rows, row)
	}
	return rows
}

func writeData(row Row, rec rates.Record) {
	row[rates.HeaderEffectiveDate] = rec.EffectiveDate
	row[rates.HeaderTerminationDate] = rec.TerminationDate
	row[rates.HeaderRateType] = rec.RateType
	row[rates.HeaderRateValue] = rec.RateValue.InexactFloat64()
	row[rates.HeaderCurrencyCode] = rec.CurrencyCode
	row[rates.HeaderUOM] = rec.UOMCode
	row[rates.HeaderUpdateUserID] = rec.UpdateUserID
	row[rates.HeaderCreateTS] = rec.CreateTS
	row[rates.HeaderUpdateTS] = rec.UpdateTS
}

func templateRow(s filter.Sparse, res *labels.Resolver) Row {
	row := Row{}
	for _, f := range rates.Fields {
		if code, ok := s.Get(f.Name); ok {
			row[f.Header] = res.Label(f, code)
		}
	}
	row[rates.HeaderEffectiveDate] = DatePlaceholder
	row[rates.HeaderTerminationDate] = DatePlaceholder
	for _, h := range rates.DataHeaders[2:] {
		row[h] = ""
	}
	return row
}

// TemplateRows builds an editable sheet without rate data: one row per value
// of every unfixed dimension whose rule the factor switches on, rule by rule
// (never a cross product). A filter with nothing to expand gives one row.
func TemplateRows(s filter.Sparse, factorID int64, rules []filter.Rule, res *labels.Resolver) ([]Row, error) {
	reqs, err := filter.Expand(s, factorID, rules, res.Catalog)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, templateRow(r.Filter, res))
	}
	if len(rows) == 0 {
		rows = append(rows, templateRow(s.Stripped(), res))
	}
	return rows, nil
}

// RemarksRows renders submitted records with the service's remark for each.
// remarks is aligned with records; missing entries are left blank.
func RemarksRows(records []rates.Record, remarks []string, res *labels.Resolver) []Row {
	rows := ToExportRows(records, nil, res)
	for i, row := range rows {
		if i < len(remarks) {
			row[rates.HeaderRemarks] = remarks[i]
		} else {
			row[rates.HeaderRemarks] = ""
		}
	}
	return rows
}

// Headers lists the columns used by rows: field columns and data columns in
// canonical order, then anything else sorted.
func Headers(rows []Row) []string {
	present := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			present[k] = true
		}
	}
	var out []string
	take := func(h string) {
		if present[h] {
			out = append(out, h)
			delete(present, h)
		}
	}
	for _, f := range rates.Fields {
		take(f.Header)
	}
	for _, h := range rates.DataHeaders {
		take(h)
	}
	take(rates.HeaderRemarks)

	var extra []string
	for h := range present {
		extra = append(extra, h)
	}
	sort.Strings(extra)
	return append(out, extra...)
}
