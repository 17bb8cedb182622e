package weather

import (
	"log/slog"
	"math"
	"time"
)

// Normalizer maps raw provider payloads to canonical records.
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil clock means time.Now.
func NewNormalizer(now func() time.Time, logger *slog.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{now: now, logger: logger}
}

// Normalize converts a batch of payloads. Nil entries and payloads missing the
// city, main.temp or main.humidity are skipped; every record produced by one
// call shares the same ObservedAt.
func (n *Normalizer) Normalize(payloads []RawPayload) []Record {
	observedAt := n.now().UTC().Truncate(time.Second)
	records := make([]Record, 0, len(payloads))

	for i, p := range payloads {
		if p == nil {
			n.logger.Warn("skipping missing weather payload", "index", i)
			continue
		}
		rec, err := normalizeOne(p, observedAt)
		if err != nil {
			n.logger.Warn("skipping incomplete weather payload",
				"index", i, "kind", KindOf(err).String(), "err", err)
			continue
		}
		records = append(records, rec)
	}

	return records
}

func normalizeOne(p RawPayload, observedAt time.Time) (Record, error) {
	city, ok := p.City()
	if !ok {
		return Record{}, NewError(KindDataQuality, "normalize", ErrIncompletePayload)
	}
	temp, ok := p.Temperature()
	if !ok {
		return Record{}, NewError(KindDataQuality, "normalize "+city, ErrIncompletePayload)
	}
	humidity, ok := p.Humidity()
	if !ok {
		return Record{}, NewError(KindDataQuality, "normalize "+city, ErrIncompletePayload)
	}

	return Record{
		City:        city,
		Temperature: temp,
		Humidity:    int(math.Round(humidity)),
		ObservedAt:  observedAt,
	}, nil
}
