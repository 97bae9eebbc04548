package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "uploads.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenFailsCleanly(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing", "uploads.sqlite")); err == nil {
		t.Fatalf("expected an error for a journal in a missing directory")
	}

	garbage := filepath.Join(dir, "garbage.sqlite")
	if err := os.WriteFile(garbage, []byte("this is not a database, just some text padding it out"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(garbage); err == nil {
		t.Fatalf("expected an error for a file that is not a database")
	}
	// The failed handle must be released so the file can go away.
	if err := os.Remove(garbage); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestRecordAndListUploads(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.RecordUpload(ctx, Batch{
		FileName:  "a.xlsx",
		MarketID:  1001,
		CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Rows: []BatchRow{
			{RowID: 2, Status: "SUCCESS"},
			{RowID: 3, Status: "FAILURE", Remarks: "bad"},
		},
	})
	if err != nil {
		t.Fatalf("RecordUpload: %v", err)
	}
	if len(first) != 36 {
		t.Fatalf("expected a uuid batch id, got %q", first)
	}
	second, err := db.RecordUpload(ctx, Batch{ID: "fixed", MarketID: 2002, Invalid: 4, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil || second != "fixed" {
		t.Fatalf("RecordUpload: %q %v", second, err)
	}

	uploads, err := db.ListUploads(ctx, 10)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	if len(uploads) != 2 || uploads[0].ID != "fixed" || uploads[1].ID != first {
		t.Fatalf("uploads should be newest first: %#v", uploads)
	}
	u := uploads[1]
	if u.Submitted != 2 || u.Succeeded != 1 || u.Failed != 1 || u.FileName != "a.xlsx" {
		t.Fatalf("unexpected summary %#v", u)
	}
	if !u.CreatedAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("created at = %v", u.CreatedAt)
	}

	rows, err := db.UploadRows(ctx, first)
	if err != nil || len(rows) != 2 || rows[1].Remarks != "bad" {
		t.Fatalf("UploadRows: %#v %v", rows, err)
	}
	if _, err := db.UploadRows(ctx, "nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, b := range []Batch{
		{MarketID: 1001, Rows: []BatchRow{{RowID: 2, Status: "success"}}},
		{MarketID: 1001, Rows: []BatchRow{{RowID: 2, Status: "FAILURE"}, {RowID: 3, Status: "SUCCESS"}}},
		{MarketID: 2002},
	} {
		if _, err := db.RecordUpload(ctx, b); err != nil {
			t.Fatalf("RecordUpload: %v", err)
		}
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 markets, got %#v", stats)
	}
	s := stats[0]
	if s.MarketID != 1001 || s.Uploads != 2 || s.Submitted != 3 || s.Succeeded != 2 || s.Failed != 1 {
		t.Fatalf("unexpected stats %#v", s)
	}
	if stats[1].Uploads != 1 || stats[1].Submitted != 0 {
		t.Fatalf("unexpected stats %#v", stats[1])
	}
}
