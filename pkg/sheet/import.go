package sheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
)

const (
	// serialEpochOffset is the number of days between the spreadsheet epoch
	// (1899-12-30) and the Unix epoch.
	serialEpochOffset = 25569
	// maxSerial is 9999-12-31, the last date a spreadsheet can hold.
	maxSerial = 2958465
)

var (
	// ErrMalformedDate is matched by every *DateError.
	ErrMalformedDate = errors.New("malformed date")
	// ErrMalformedValue is returned for a rate value that is not a number.
	ErrMalformedValue = errors.New("malformed rate value")
)

// DateError reports a date cell that is neither ISO nor a date serial.
type DateError struct {
	Column string
	Value  string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %q is neither YYYY-MM-DD nor a date serial", e.Column, e.Value)
}

func (e *DateError) Unwrap() error { return ErrMalformedDate }

// RowError ties a validation failure to a sheet row (1-based, header is row 1).
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Import is the outcome of FromImportRows. Records and Remarks are aligned;
// rows that failed validation appear only in Errors.
type Import struct {
	Records []rates.Record
	Remarks []string
	Rows    []int // sheet row of each record
	Errors  []*RowError
}

// DecodeDate accepts YYYY-MM-DD as is and otherwise decodes a spreadsheet date
// serial in UTC, ignoring any time-of-day fraction. Empty input is no date.
func DecodeDate(column, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if rates.IsISODate(raw) {
		return raw, nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 || serial >= maxSerial+1 {
		return "", &DateError{Column: column, Value: raw}
	}
	days := int64(math.Floor(serial - serialEpochOffset))
	return time.Unix(days*86400, 0).UTC().Format(rates.DateLayout), nil
}

// cellString renders a cell the way it would be typed.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func cell(row Row, header string) string {
	if v, ok := row[header]; ok {
		return cellString(v)
	}
	// Accept headers exported without the mandatory marker.
	if strings.HasPrefix(header, "*") {
		return cellString(row[header[1:]])
	}
	return ""
}

func rowKey(row Row) string {
	norm := make(map[string]string, len(row))
	for k, v := range row {
		norm[k] = cellString(v)
	}
	b, _ := json.Marshal(norm)
	return string(b)
}

// isBlank reports whether every cell of row is empty.
func isBlank(row Row) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

// Dedup drops blank rows and rows equal to an earlier row, keeping
// first-seen order. It returns the kept rows and their original indexes.
func Dedup(rows []Row) ([]Row, []int) {
	seen := make(map[string]bool, len(rows))
	var (
		out []Row
		idx []int
	)
	for i, r := range rows {
		if isBlank(r) {
			continue
		}
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
		idx = append(idx, i)
	}
	return out, idx
}

// FromImportRows rebuilds rate records from data rows of an edited sheet,
// rows[i] being sheet row i+2 as ReadRows returns them.
// Every field column goes through labels.CodeOf; a column that is missing or
// carries no code leaves the field absent on the record. The zero the rate
// service expects is only written by rates.Record.Payload.
func FromImportRows(rows []Row) Import {
	var imp Import
	unique, idx := Dedup(rows)
	for i, row := range unique {
		sheetRow := idx[i] + 2
		rec, err := fromRow(row)
		if err != nil {
			imp.Errors = append(imp.Errors, &RowError{Row: sheetRow, Err: err})
			continue
		}
		imp.Records = append(imp.Records, rec)
		imp.Remarks = append(imp.Remarks, cell(row, rates.HeaderRemarks))
		imp.Rows = append(imp.Rows, sheetRow)
	}
	return imp
}

func fromRow(row Row) (rates.Record, error) {
	var rec rates.Record
	for _, f := range rates.Fields {
		raw := cell(row, f.Header)
		if raw == "" {
			continue
		}
		code, ok := labels.CodeOf(raw)
		if !ok {
			continue
		}
		if f.Catalogued() {
			if rec.Dimensions == nil {
				rec.Dimensions = make(map[string]catalog.Code)
			}
			rec.Dimensions[f.Name] = code
			continue
		}
		n, isInt := code.Int()
		if !isInt {
			continue
		}
		switch f.Source {
		case rates.FromMarkets:
			rec.MarketID = n
		case rates.FromElements:
			rec.ElementID = n
		case rates.FromFactors:
			rec.ElementSubtypeID = n
		}
	}

	var err error
	if rec.EffectiveDate, err = DecodeDate(rates.HeaderEffectiveDate, cell(row, rates.HeaderEffectiveDate)); err != nil {
		return rates.Record{}, err
	}
	if rec.TerminationDate, err = DecodeDate(rates.HeaderTerminationDate, cell(row, rates.HeaderTerminationDate)); err != nil {
		return rates.Record{}, err
	}

	if v := strings.ReplaceAll(cell(row, rates.HeaderRateValue), ",", ""); v != "" {
		d, derr := decimal.NewFromString(v)
		if derr != nil {
			return rates.Record{}, fmt.Errorf("%w: %q", ErrMalformedValue, v)
		}
		rec.RateValue = d
	}

	rec.RateType = cell(row, rates.HeaderRateType)
	rec.CurrencyCode = cell(row, rates.HeaderCurrencyCode)
	rec.UOMCode = cell(row, rates.HeaderUOM)
	rec.UpdateUserID = cell(row, rates.HeaderUpdateUserID)
	return rec, nil
}
