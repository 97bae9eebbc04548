package storage

import "time"

// Batch is one spreadsheet submission to the rate service.
type Batch struct {
	ID        string
	FileName  string
	MarketID  int64
	ElementID int64
	FactorID  int64
	CreatedAt time.Time

	// Invalid counts rows rejected before submission.
	Invalid int
	Rows    []BatchRow
}

// BatchRow is the service verdict on one submitted row.
type BatchRow struct {
	RowID   int
	Status  string // SUCCESS or the failure status returned
	Remarks string
}

// Upload summarises a recorded batch.
type Upload struct {
	ID        string
	FileName  string
	MarketID  int64
	ElementID int64
	FactorID  int64
	CreatedAt time.Time
	Submitted int
	Succeeded int
	Failed    int
	Invalid   int
}

// MarketStats aggregates uploads per market.
type MarketStats struct {
	MarketID  int64
	Uploads   int
	Submitted int
	Succeeded int
	Failed    int
}
