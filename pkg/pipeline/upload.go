package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/ratesvc"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/reconcile"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/storage"
)

// NoResponse is the remark of a submitted row the service did not answer for.
const NoResponse = "No response for row"

// Submitter sends rate rows for creation or update.
type Submitter interface {
	SubmitRateList(ctx context.Context, payloads []map[string]any) ([]ratesvc.Outcome, error)
}

// Journal records upload batches. *storage.DB implements it.
type Journal interface {
	RecordUpload(ctx context.Context, b storage.Batch) (string, error)
}

// UploadConfig holds everything Upload needs.
type UploadConfig struct {
	Submitter Submitter
	// Base fills fields a row leaves empty, typically market, element and factor.
	Base     filter.Sparse
	Resolver *labels.Resolver
	Journal  Journal // optional
	FileName string
	Log      Logger    // optional
	Now      time.Time // zero means time.Now
}

// UploadResult is the remarks sheet plus what was sent.
type UploadResult struct {
	Rows     []sheet.Row
	Import   sheet.Import
	Outcomes []ratesvc.Outcome
	// Expired lists the sheet rows submitted with a termination date already
	// in the past.
	Expired []int
	BatchID string
}

// Failed counts rows that were rejected, locally or by the service.
func (r *UploadResult) Failed() int {
	n := len(r.Import.Errors)
	answered := make(map[int]bool, len(r.Outcomes))
	for _, o := range r.Outcomes {
		answered[o.RowID] = true
		if !o.OK() {
			n++
		}
	}
	for _, row := range r.Import.Rows {
		if !answered[row] {
			n++
		}
	}
	return n
}

// Upload validates edited rows, submits the valid ones and builds the remarks
// sheet. Rows that fail validation are not sent; they come back with the
// validation error as their remark. Row ids are sheet row numbers.
func Upload(ctx context.Context, cfg UploadConfig, rows []sheet.Row) (*UploadResult, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	imp := sheet.FromImportRows(rows)
	for _, e := range imp.Errors {
		log.Warnf("%v", e)
	}
	out := &UploadResult{Import: imp}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	for i, rec := range imp.Records {
		if !reconcile.IsActive(rec, now) {
			out.Expired = append(out.Expired, imp.Rows[i])
			log.Warnf("row %d: termination date %s is before today", imp.Rows[i], rec.TerminationDate)
		}
	}

	if len(imp.Records) > 0 {
		payloads := make([]map[string]any, len(imp.Records))
		for i, rec := range imp.Records {
			payloads[i] = BuildPayload(cfg.Base, rec, imp.Rows[i])
		}
		log.Infof("Submitting %d rows", len(payloads))
		outcomes, err := cfg.Submitter.SubmitRateList(ctx, payloads)
		if err != nil {
			return nil, err
		}
		out.Outcomes = outcomes
	}

	byRow := make(map[int]ratesvc.Outcome, len(out.Outcomes))
	for _, o := range out.Outcomes {
		byRow[o.RowID] = o
	}
	remarks := make([]string, len(imp.Records))
	for i, row := range imp.Rows {
		o, ok := byRow[row]
		if !ok {
			remarks[i] = NoResponse
			continue
		}
		remarks[i] = Remark(o)
	}

	type numbered struct {
		n   int
		row sheet.Row
	}
	var all []numbered
	for i, r := range sheet.RemarksRows(imp.Records, remarks, cfg.Resolver) {
		all = append(all, numbered{n: imp.Rows[i], row: r})
	}
	for _, e := range imp.Errors {
		r := sheet.Row{}
		for k, v := range rows[e.Row-2] {
			r[k] = v
		}
		r[rates.HeaderRemarks] = e.Err.Error()
		all = append(all, numbered{n: e.Row, row: r})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].n < all[j].n })
	for _, a := range all {
		out.Rows = append(out.Rows, a.row)
	}

	if cfg.Journal != nil {
		id, err := cfg.Journal.RecordUpload(ctx, newBatch(cfg, out))
		if err != nil {
			log.Warnf("Could not journal upload: %v", err)
		} else {
			out.BatchID = id
		}
	}
	return out, nil
}

// BuildPayload encodes rec for submission. Fields the row leaves empty are
// taken from base.
func BuildPayload(base filter.Sparse, rec rates.Record, rowID int) map[string]any {
	p := rec.Payload()
	for k, v := range base.Payload() {
		if isZero(p[k]) {
			p[k] = v
		}
	}
	p["row_id"] = rowID
	return p
}

// Remark renders an outcome for the remarks column.
func Remark(o ratesvc.Outcome) string {
	var parts []string
	for _, s := range []string{o.Status, o.Remarks} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case int:
		return t == 0
	case int64:
		return t == 0
	case string:
		return t == ""
	}
	return false
}

func newBatch(cfg UploadConfig, res *UploadResult) storage.Batch {
	b := storage.Batch{
		FileName: cfg.FileName,
		Invalid:  len(res.Import.Errors),
	}
	for _, f := range []struct {
		name string
		dst  *int64
	}{
		{rates.MarketID, &b.MarketID},
		{rates.ElementID, &b.ElementID},
		{rates.ElementSubtypeID, &b.FactorID},
	} {
		if c, ok := cfg.Base.Get(f.name); ok {
			*f.dst, _ = c.Int()
		}
	}
	for _, o := range res.Outcomes {
		b.Rows = append(b.Rows, storage.BatchRow{RowID: o.RowID, Status: o.Status, Remarks: o.Remarks})
	}
	return b
}
