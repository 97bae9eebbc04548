package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrBatchNotFound is returned by UploadRows for an unknown batch.
var ErrBatchNotFound = errors.New("upload batch not found")

const statusSuccess = "SUCCESS"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS upload_batches (
  id          TEXT PRIMARY KEY,
  file_name   TEXT,
  market_id   INTEGER NOT NULL DEFAULT 0,
  element_id  INTEGER NOT NULL DEFAULT 0,
  factor_id   INTEGER NOT NULL DEFAULT 0,
  invalid     INTEGER NOT NULL DEFAULT 0,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_batches_time ON upload_batches(created_at);
CREATE TABLE IF NOT EXISTS upload_rows (
  id          INTEGER PRIMARY KEY,
  batch_id    TEXT NOT NULL REFERENCES upload_batches(id),
  row_id      INTEGER NOT NULL,
  status      TEXT NOT NULL,
  success     INTEGER NOT NULL CHECK (success IN (0,1)),
  remarks     TEXT
);
CREATE INDEX IF NOT EXISTS idx_rows_batch ON upload_rows(batch_id, row_id);
    `); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordUpload stores a batch and its rows in one transaction. A batch without
// an ID gets a fresh UUID. The stored ID is returned.
func (d *DB) RecordUpload(ctx context.Context, b Batch) (id string, err error) {
	id = b.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO upload_batches(id, file_name, market_id, element_id, factor_id, invalid, created_at) VALUES(?,?,?,?,?,?,?)`,
		id, nullIfEmpty(b.FileName), b.MarketID, b.ElementID, b.FactorID, b.Invalid, created.UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	for _, r := range b.Rows {
		_, err = tx.ExecContext(ctx, `INSERT INTO upload_rows(batch_id, row_id, status, success, remarks) VALUES(?,?,?,?,?)`,
			id, r.RowID, r.Status, boolToInt(isSuccess(r.Status)), nullIfEmpty(r.Remarks))
		if err != nil {
			return "", err
		}
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListUploads returns the most recent batches, newest first.
func (d *DB) ListUploads(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT
			b.id, COALESCE(b.file_name, ''), b.market_id, b.element_id, b.factor_id, b.invalid, b.created_at,
			COUNT(r.id), COALESCE(SUM(r.success), 0)
		FROM upload_batches b
		LEFT JOIN upload_rows r ON r.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.rowid DESC
		LIMIT ?`
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		var (
			u         Upload
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.FileName, &u.MarketID, &u.ElementID, &u.FactorID, &u.Invalid, &createdAt, &u.Submitted, &u.Succeeded); err != nil {
			return nil, err
		}
		u.CreatedAt = parseTimestamp(createdAt)
		u.Failed = u.Submitted - u.Succeeded
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uploads, nil
}

// UploadRows returns the recorded rows of a batch in row order.
func (d *DB) UploadRows(ctx context.Context, batchID string) ([]BatchRow, error) {
	var n int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM upload_batches WHERE id = ?", batchID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrBatchNotFound
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT row_id, status, COALESCE(remarks, '') FROM upload_rows WHERE batch_id = ? ORDER BY row_id", batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BatchRow{}
	for rows.Next() {
		var r BatchRow
		if err := rows.Scan(&r.RowID, &r.Status, &r.Remarks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) GetStats(ctx context.Context) ([]MarketStats, error) {
	query := `
		SELECT
			b.market_id,
			COUNT(DISTINCT b.id),
			COUNT(r.id),
			COALESCE(SUM(r.success), 0)
		FROM
			upload_batches b
		LEFT JOIN
			upload_rows r ON r.batch_id = b.id
		GROUP BY
			b.market_id
		ORDER BY
			b.market_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MarketStats
	for rows.Next() {
		var s MarketStats
		if err := rows.Scan(&s.MarketID, &s.Uploads, &s.Submitted, &s.Succeeded); err != nil {
			return nil, err
		}
		s.Failed = s.Submitted - s.Succeeded
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func isSuccess(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), statusSuccess)
}

// parseTimestamp accepts RFC3339 and SQLite's CURRENT_TIMESTAMP format.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
