// Package rates defines the landed-cost rate record and its wire forms.
package rates

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
)

// ErrInvalidBody is returned when a rate list body is not JSON.
var ErrInvalidBody = errors.New("invalid rate list body")

// Record is one rate row. Dimensions holds only the dimension fields that
// carry a value; a missing key means "no value", never zero.
type Record struct {
	MarketID         int64
	ElementID        int64
	ElementSubtypeID int64
	Dimensions       map[string]catalog.Code

	RateValue       decimal.Decimal
	EffectiveDate   string
	TerminationDate string
	RateType        string
	CurrencyCode    string
	UOMCode         string
	UpdateUserID    string
	CreateTS        string
	UpdateTS        string
}

// Dimension returns the value of a dimension field.
func (r Record) Dimension(field string) (catalog.Code, bool) {
	c, ok := r.Dimensions[field]
	if !ok || c.Empty() {
		return "", false
	}
	return c, true
}

// Clone returns a copy that shares nothing mutable with r.
func (r Record) Clone() Record {
	out := r
	if r.Dimensions != nil {
		out.Dimensions = make(map[string]catalog.Code, len(r.Dimensions))
		for k, v := range r.Dimensions {
			out.Dimensions[k] = v
		}
	}
	return out
}

// WithDimension returns a copy of r with field set to code.
func (r Record) WithDimension(field string, code catalog.Code) Record {
	out := r.Clone()
	if out.Dimensions == nil {
		out.Dimensions = make(map[string]catalog.Code, 1)
	}
	out.Dimensions[field] = code
	return out
}

type recordKey struct {
	Market     int64             `json:"m"`
	Element    int64             `json:"e"`
	Subtype    int64             `json:"s"`
	Dimensions map[string]string `json:"d"`
	Value      string            `json:"v"`
	Effective  string            `json:"ef"`
	Terminate  string            `json:"te"`
	RateType   string            `json:"rt"`
	Currency   string            `json:"cu"`
	UOM        string            `json:"uo"`
	User       string            `json:"us"`
	Created    string            `json:"ct"`
	Updated    string            `json:"ut"`
}

// Key is a canonical rendering of every field. Two records are structurally
// equal iff their keys are equal.
func (r Record) Key() string {
	k := recordKey{
		Market:     r.MarketID,
		Element:    r.ElementID,
		Subtype:    r.ElementSubtypeID,
		Dimensions: make(map[string]string, len(r.Dimensions)),
		Value:      r.RateValue.String(),
		Effective:  r.EffectiveDate,
		Terminate:  r.TerminationDate,
		RateType:   r.RateType,
		Currency:   r.CurrencyCode,
		UOM:        r.UOMCode,
		User:       r.UpdateUserID,
		Created:    r.CreateTS,
		Updated:    r.UpdateTS,
	}
	for f, c := range r.Dimensions {
		if !c.Empty() {
			k.Dimensions[f] = string(c)
		}
	}
	b, _ := json.Marshal(k)
	return string(b)
}

// Payload encodes the record for the submission endpoint. This is the only
// place where missing dimensions become 0.
func (r Record) Payload() map[string]any {
	p := map[string]any{
		MarketID:           r.MarketID,
		ElementID:          r.ElementID,
		ElementSubtypeID:   r.ElementSubtypeID,
		"rate_value":       json.Number(r.RateValue.String()),
		"effective_date":   r.EffectiveDate,
		"termination_date": r.TerminationDate,
		"rate_type":        r.RateType,
		"currency_code":    r.CurrencyCode,
		"uom_code":         r.UOMCode,
		"update_user_id":   r.UpdateUserID,
	}
	for _, f := range DimensionFields() {
		c, ok := r.Dimension(f.Name)
		if !ok {
			p[f.Name] = 0
			continue
		}
		if n, isInt := c.Int(); isInt {
			p[f.Name] = n
		} else {
			p[f.Name] = string(c)
		}
	}
	return p
}

// FromJSON decodes one rate object as returned by the rate service.
func FromJSON(v gjson.Result) (Record, error) {
	r := Record{
		MarketID:         v.Get(MarketID).Int(),
		ElementID:        v.Get(ElementID).Int(),
		ElementSubtypeID: v.Get(ElementSubtypeID).Int(),
		EffectiveDate:    NormalizeDate(v.Get("effective_date").String()),
		TerminationDate:  NormalizeDate(v.Get("termination_date").String()),
		RateType:         v.Get("rate_type").String(),
		CurrencyCode:     v.Get("currency_code").String(),
		UpdateUserID:     v.Get("update_user_id").String(),
		CreateTS:         v.Get("create_ts").String(),
		UpdateTS:         v.Get("update_ts").String(),
	}

	uom := v.Get("uom_code")
	if !uom.Exists() || uom.Type == gjson.Null {
		uom = v.Get("per_uom_code")
	}
	r.UOMCode = uom.String()

	if raw := v.Get("rate_value").String(); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Record{}, fmt.Errorf("rate_value %q: %w", raw, err)
		}
		r.RateValue = d
	}

	for _, f := range DimensionFields() {
		c := catalog.CodeOf(v.Get(f.Name))
		if c.Empty() {
			continue
		}
		if r.Dimensions == nil {
			r.Dimensions = make(map[string]catalog.Code)
		}
		r.Dimensions[f.Name] = c
	}
	return r, nil
}

// ParseList decodes a {data:[...]} rate list. A body without data yields no
// records.
func ParseList(body []byte) ([]Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidBody
	}
	root := gjson.ParseBytes(body)
	data := root.Get("data")
	if !data.IsArray() {
		if !root.IsArray() {
			return nil, nil
		}
		data = root
	}

	var (
		out  []Record
		ferr error
	)
	data.ForEach(func(i, v gjson.Result) bool {
		r, err := FromJSON(v)
		if err != nil {
			ferr = fmt.Errorf("record %d: %w", i.Int(), err)
			return false
		}
		out = append(out, r)
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	return out, nil
}
