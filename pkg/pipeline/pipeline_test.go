package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/ratesvc"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/storage"
)

var errBoom = errors.New("boom")

func testResolver() *labels.Resolver {
	cat := catalog.New(
		[]string{catalog.Department},
		map[string][]catalog.Entry{
			catalog.Department: {{Code: "10", Label: "10 - Grocery"}, {Code: "20", Label: "20 - Apparel"}, {Code: "30", Label: "30 - Home"}},
		},
	)
	return &labels.Resolver{
		Catalog:  cat,
		Markets:  catalog.Options{{Value: "1001", Label: "1001 - Walmart US"}},
		Elements: catalog.Options{{Value: "80", Label: "80 - Duty"}},
		Factors:  catalog.Options{{Value: "81", Label: "81 - By department"}},
	}
}

func deptRecord(dept catalog.Code, term string) rates.Record {
	return rates.Record{
		MarketID:         1001,
		ElementID:        80,
		ElementSubtypeID: 81,
		Dimensions:       map[string]catalog.Code{rates.DepartmentID: dept},
		RateValue:        decimal.NewFromInt(5),
		EffectiveDate:    "2024-01-01",
		TerminationDate:  term,
	}
}

func TestFetchKeepsRequestOrder(t *testing.T) {
	var reqs []filter.Request
	for i := 1; i <= 20; i++ {
		reqs = append(reqs, filter.Request{Filter: filter.Sparse{rates.DepartmentID: catalog.CodeFromInt(int64(i))}})
	}
	var inFlight, peak int32
	lookup := LookupFunc(func(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		if s[rates.DepartmentID] == "7" {
			return nil, errBoom
		}
		return []rates.Record{deptRecord(s[rates.DepartmentID], "")}, nil
	})

	results, errs := Fetch(context.Background(), lookup, reqs, Options{Concurrency: 3})
	if len(results) != 19 || len(errs) != 1 {
		t.Fatalf("expected 19 results and 1 error, got %d and %d", len(results), len(errs))
	}
	prev := int64(0)
	for _, r := range results {
		n, _ := r.Request.Filter[rates.DepartmentID].Int()
		if n <= prev {
			t.Fatalf("results out of request order")
		}
		prev = n
	}
	var le *LookupError
	if !errors.As(errs[0], &le) || !errors.Is(errs[0], errBoom) || le.Request.Filter[rates.DepartmentID] != "7" {
		t.Fatalf("unexpected error %v", errs[0])
	}
	if peak > 3 {
		t.Fatalf("concurrency limit exceeded: %d", peak)
	}
}

func TestFetchEmpty(t *testing.T) {
	results, errs := Fetch(context.Background(), nil, nil, Options{})
	if len(results) != 0 || errs != nil {
		t.Fatalf("expected nothing, got %v %v", results, errs)
	}
}

func TestDownloadExpandsAndReconciles(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lookup := LookupFunc(func(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
		switch s[rates.DepartmentID] {
		case "10":
			// Same row twice plus an expired one.
			return []rates.Record{deptRecord("10", ""), deptRecord("10", ""), deptRecord("10", "2024-01-31")}, nil
		case "20":
			return nil, errBoom
		}
		return []rates.Record{deptRecord("30", "2030-01-01")}, nil
	})

	res, err := Download(context.Background(), DownloadConfig{
		Lookup:   lookup,
		Filter:   filter.Sparse{rates.MarketID: "1001", rates.ElementID: "80", rates.ElementSubtypeID: "81"},
		Resolver: testResolver(),
		Now:      now,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(res.Requests) != 3 || len(res.Errors) != 1 {
		t.Fatalf("expected 3 requests and 1 failure, got %d and %d", len(res.Requests), len(res.Errors))
	}
	if res.Template || len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d (template=%v)", len(res.Rows), res.Template)
	}
	if res.Rows[0]["*Department"] != "10 - Grocery" || res.Rows[1]["*Department"] != "30 - Home" {
		t.Fatalf("unexpected rows %#v", res.Rows)
	}
}

func TestDownloadFallsBackToTemplate(t *testing.T) {
	lookup := LookupFunc(func(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
		return nil, nil
	})
	res, err := Download(context.Background(), DownloadConfig{
		Lookup:   lookup,
		Filter:   filter.Sparse{rates.MarketID: "1001", rates.ElementID: "80", rates.ElementSubtypeID: "81"},
		Resolver: testResolver(),
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !res.Template || len(res.Rows) != 3 {
		t.Fatalf("expected a 3 row template, got %d rows (template=%v)", len(res.Rows), res.Template)
	}
	if res.Rows[0][rates.HeaderEffectiveDate] != sheet.DatePlaceholder {
		t.Fatalf("template row missing placeholder: %#v", res.Rows[0])
	}
}

func TestDownloadAllFailedStillWritesTemplate(t *testing.T) {
	lookup := LookupFunc(func(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
		return nil, errBoom
	})
	res, err := Download(context.Background(), DownloadConfig{
		Lookup:   lookup,
		Filter:   filter.Sparse{rates.MarketID: "1001", rates.ElementID: "80", rates.ElementSubtypeID: "81"},
		Resolver: testResolver(),
	})
	if err != nil {
		t.Fatalf("failed lookups should not fail the download: %v", err)
	}
	if !res.Template || len(res.Rows) != 3 {
		t.Fatalf("expected a 3 row template, got %d rows (template=%v)", len(res.Rows), res.Template)
	}
	if len(res.Errors) != len(res.Requests) || len(res.Errors) != 3 {
		t.Fatalf("expected one error per request, got %d for %d requests", len(res.Errors), len(res.Requests))
	}
	for _, e := range res.Errors {
		var le *LookupError
		if !errors.As(e, &le) || !errors.Is(e, errBoom) {
			t.Fatalf("unexpected error %v", e)
		}
	}
}

func TestDownloadMissingLink(t *testing.T) {
	_, err := Download(context.Background(), DownloadConfig{
		Lookup:   LookupFunc(func(context.Context, filter.Sparse) ([]rates.Record, error) { return nil, nil }),
		Filter:   filter.Sparse{rates.ElementSubtypeID: "51"},
		Resolver: testResolver(),
	})
	if !errors.Is(err, catalog.ErrMissingLink) {
		t.Fatalf("expected a missing link error, got %v", err)
	}
}

type fakeSubmitter struct {
	got []map[string]any
}

func (f *fakeSubmitter) SubmitRateList(ctx context.Context, payloads []map[string]any) ([]ratesvc.Outcome, error) {
	f.got = payloads
	var out []ratesvc.Outcome
	for _, p := range payloads {
		id := p["row_id"].(int)
		if id == 3 {
			out = append(out, ratesvc.Outcome{RowID: id, Status: "FAILURE", Remarks: "overlapping dates"})
			continue
		}
		out = append(out, ratesvc.Outcome{RowID: id, Status: ratesvc.StatusSuccess})
	}
	return out, nil
}

func TestUpload(t *testing.T) {
	rows := []sheet.Row{
		{"*Department": "10 - Grocery", rates.HeaderRateValue: "5", rates.HeaderEffectiveDate: "2024-01-01"},
		{"*Department": "20 - Apparel", rates.HeaderRateValue: "6", rates.HeaderEffectiveDate: "45292"},
		{"*Department": "30 - Home", rates.HeaderEffectiveDate: "tomorrow"},
	}
	sub := &fakeSubmitter{}
	db, err := storage.Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer db.Close()

	res, err := Upload(context.Background(), UploadConfig{
		Submitter: sub,
		Base:      filter.Sparse{rates.MarketID: "1001", rates.ElementID: "80", rates.ElementSubtypeID: "81"},
		Resolver:  testResolver(),
		Journal:   db,
		FileName:  "rates.xlsx",
	}, rows)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if len(sub.got) != 2 {
		t.Fatalf("invalid rows must not be submitted, got %d payloads", len(sub.got))
	}
	p := sub.got[1]
	if p[rates.MarketID] != int64(1001) || p[rates.DepartmentID] != int64(20) || p["effective_date"] != "2024-01-01" {
		t.Fatalf("unexpected payload %#v", p)
	}
	if p[rates.LoadingPortID] != 0 {
		t.Fatalf("missing dimension should be 0, got %#v", p[rates.LoadingPortID])
	}

	if len(res.Rows) != 3 {
		t.Fatalf("every row should come back, got %d", len(res.Rows))
	}
	if res.Rows[0][rates.HeaderRemarks] != ratesvc.StatusSuccess {
		t.Fatalf("row 2 remark = %v", res.Rows[0][rates.HeaderRemarks])
	}
	if res.Rows[1][rates.HeaderRemarks] != "FAILURE: overlapping dates" {
		t.Fatalf("row 3 remark = %v", res.Rows[1][rates.HeaderRemarks])
	}
	if res.Rows[2]["*Department"] != "30 - Home" || res.Rows[2][rates.HeaderRemarks] == "" {
		t.Fatalf("invalid row should carry its error: %#v", res.Rows[2])
	}
	if res.Failed() != 2 {
		t.Fatalf("Failed() = %d", res.Failed())
	}

	if res.BatchID == "" {
		t.Fatalf("upload was not journalled")
	}
	uploads, err := db.ListUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Submitted != 2 || uploads[0].Succeeded != 1 || uploads[0].Invalid != 1 || uploads[0].MarketID != 1001 {
		t.Fatalf("unexpected journal %#v", uploads)
	}
}

func TestUploadReportsExpiredRows(t *testing.T) {
	rows := []sheet.Row{
		{"*Department": "10 - Grocery", rates.HeaderTerminationDate: "2024-05-31"},
		{"*Department": "20 - Apparel", rates.HeaderTerminationDate: "2024-06-01"},
		{"*Department": "30 - Home"},
	}
	sub := &fakeSubmitter{}
	res, err := Upload(context.Background(), UploadConfig{
		Submitter: sub,
		Base:      filter.Sparse{rates.MarketID: "1001"},
		Resolver:  testResolver(),
		Now:       time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC),
	}, rows)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(sub.got) != 3 {
		t.Fatalf("expired rows are still submitted, got %d payloads", len(sub.got))
	}
	if len(res.Expired) != 1 || res.Expired[0] != 2 {
		t.Fatalf("expected row 2 to be reported expired, got %v", res.Expired)
	}
}

func TestBuildPayloadPrefersRow(t *testing.T) {
	rec := deptRecord("10", "")
	rec.MarketID = 2002
	p := BuildPayload(filter.Sparse{rates.MarketID: "1001", rates.TransportMode: "SEA"}, rec, 9)
	if p[rates.MarketID] != int64(2002) || p[rates.TransportMode] != "SEA" || p["row_id"] != 9 {
		t.Fatalf("unexpected payload %#v", p)
	}
}
