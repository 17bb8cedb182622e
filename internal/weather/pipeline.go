package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-analyzer/internal/metrics"
)

// State is a step of a pipeline run. A run moves forward only:
// STARTED -> FETCHING -> (ABORTED_NO_DATA | NORMALIZING -> PERSISTING -> COMPLETED).
type State string

const (
	StateStarted       State = "STARTED"
	StateFetching      State = "FETCHING"
	StateAbortedNoData State = "ABORTED_NO_DATA"
	StateNormalizing   State = "NORMALIZING"
	StatePersisting    State = "PERSISTING"
	StateCompleted     State = "COMPLETED"
)

// Outcome reports what a single run did.
type Outcome struct {
	RunID        string    `json:"runId"`
	State        State     `json:"state"`
	Cities       []string  `json:"cities"`
	FailedCities []string  `json:"failedCities,omitempty"`
	Fetched      int       `json:"fetched"`
	Records      []Record  `json:"records,omitempty"`
	Inserted     int       `json:"inserted"`
	SnapshotPath string    `json:"snapshotPath,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`

	HistoryError string `json:"historyError,omitempty"`
	StoreError   string `json:"storeError,omitempty"`

	historyErr error
	storeErr   error
}

// Success reports whether the run completed and its records reached the store.
func (o Outcome) Success() bool {
	return o.State == StateCompleted && o.storeErr == nil
}

// Err returns the condition that made the run unsuccessful, or nil.
// A failed history write never makes a run unsuccessful.
func (o Outcome) Err() error {
	if o.State == StateAbortedNoData {
		return ErrNoPayloads
	}
	return o.storeErr
}

// HistoryErr returns the archival failure, if any.
func (o Outcome) HistoryErr() error {
	return o.historyErr
}

// Label is a short outcome name used for metrics and logs.
func (o Outcome) Label() string {
	switch {
	case o.State == StateAbortedNoData:
		return "aborted_no_data"
	case errors.Is(o.storeErr, ErrStoreUnavailable):
		return "store_unavailable"
	case o.storeErr != nil:
		return "store_failed"
	case o.State == StateCompleted:
		return "completed"
	default:
		return "incomplete"
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the wall clock used for run timestamps and normalization.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRunID overrides run identifier generation.
func WithRunID(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

// Pipeline fetches, normalizes and persists weather data for a set of cities.
type Pipeline struct {
	provider Provider
	store    Store
	archive  Archive

	now      func() time.Time
	logger   *slog.Logger
	newRunID func() string
}

// NewPipeline creates a Pipeline. archive may be nil to disable raw snapshots.
func NewPipeline(provider Provider, store Store, archive Archive, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		store:    store,
		archive:  archive,
		now:      time.Now,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one linear pass over cities. Cities are fetched one at a time;
// a city that fails is left out of the batch without aborting the run.
func (p *Pipeline) Run(ctx context.Context, cities []string) Outcome {
	out := Outcome{
		RunID:     p.newRunID(),
		State:     StateStarted,
		Cities:    cities,
		StartedAt: p.now().UTC(),
	}
	log := p.logger.With("run_id", out.RunID)
	log.Info("weather pipeline started", "cities", len(cities))

	defer func() {
		out.FinishedAt = p.now().UTC()
		metrics.PipelineRuns.WithLabelValues(out.Label()).Inc()
		metrics.PipelineRunDuration.Observe(out.FinishedAt.Sub(out.StartedAt).Seconds())
	}()

	out.State = StateFetching
	payloads := make([]RawPayload, 0, len(cities))
	for _, city := range cities {
		log.Info("fetching weather", "city", city)
		payload, err := p.provider.Fetch(ctx, city)
		if err != nil {
			log.Warn("no data received for city", "city", city, "provider", p.provider.Name(), "err", err)
			out.FailedCities = append(out.FailedCities, city)
			continue
		}
		payloads = append(payloads, payload)
	}
	out.Fetched = len(payloads)

	if len(payloads) == 0 {
		out.State = StateAbortedNoData
		log.Warn("no weather data fetched; pipeline stopped", "failed_cities", len(out.FailedCities))
		return out
	}

	out.State = StateNormalizing
	normalizer := NewNormalizer(p.now, log.With("module", "normalizer"))
	records := normalizer.Normalize(payloads)
	out.Records = records

	observedAt := p.now().UTC().Truncate(time.Second)
	if len(records) > 0 {
		observedAt = records[0].ObservedAt
	}

	out.State = StatePersisting
	p.archiveRun(log, &out, observedAt, payloads, records)

	inserted, err := p.store.InsertBatch(ctx, records)
	out.Inserted = inserted
	if err != nil {
		out.storeErr = err
		out.StoreError = err.Error()
		if errors.Is(err, ErrStoreUnavailable) {
			log.Error("record store permanently unavailable; records not inserted",
				"severity", "critical", "records", len(records), "err", err)
		} else {
			log.Error("record store rejected batch",
				"severity", "critical", "kind", KindOf(err).String(), "records", len(records), "err", err)
		}
	} else {
		metrics.RecordsInserted.Add(float64(inserted))
		metrics.RecordsDuplicate.Add(float64(len(records) - inserted))
		log.Info("records stored", "inserted", inserted, "duplicates", len(records)-inserted)
	}

	out.State = StateCompleted
	log.Info("weather pipeline completed", "outcome", out.Label(),
		"fetched", out.Fetched, "records", len(records), "inserted", out.Inserted)
	return out
}

// archiveRun writes the raw snapshot and, when supported, the record summary.
// Failures here are logged and recorded on the outcome but never stop the run.
func (p *Pipeline) archiveRun(log *slog.Logger, out *Outcome, ts time.Time, payloads []RawPayload, records []Record) {
	if p.archive == nil {
		return
	}

	path, err := p.archive.WriteSnapshot(ts, payloads)
	if err != nil {
		out.historyErr = fmt.Errorf("write snapshot: %w", err)
		out.HistoryError = out.historyErr.Error()
		log.Warn("raw snapshot not saved", "err", err)
	} else {
		out.SnapshotPath = path
		log.Info("raw snapshot saved", "path", path)
	}

	if sa, ok := p.archive.(SummaryArchive); ok && len(records) > 0 {
		if err := sa.AppendSummary(records); err != nil {
			log.Warn("summary history not appended", "err", err)
			if out.historyErr == nil {
				out.historyErr = fmt.Errorf("append summary: %w", err)
				out.HistoryError = out.historyErr.Error()
			}
		}
	}
}
