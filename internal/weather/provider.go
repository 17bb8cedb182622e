package weather

import (
	"context"
	"time"
)

// Provider abstracts the remote weather API queried once per city.
// Fetch never panics past its boundary; a failure means "no data for this city".
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city string) (RawPayload, error)
}

// Store is the durable record store contract. InsertBatch returns how many
// records were newly stored; duplicates on (city, observed_at) are skipped.
type Store interface {
	InsertBatch(ctx context.Context, records []Record) (int, error)
}

// Reader is the read side consumed by analytics.
type Reader interface {
	History(ctx context.Context, q HistoryQuery) ([]Record, error)
}

// Archive keeps raw snapshots of each run, independent of the Store.
type Archive interface {
	WriteSnapshot(ts time.Time, payloads []RawPayload) (string, error)
}

// SummaryArchive is implemented by archives that also keep canonical records.
type SummaryArchive interface {
	AppendSummary(records []Record) error
}
