package weather

import (
	"time"
)

// RawPayload is a provider JSON object exactly as it was decoded.
// A nil RawPayload stands for a city that could not be fetched.
type RawPayload map[string]any

// City returns the provider-supplied city name, if present.
func (p RawPayload) City() (string, bool) {
	name, ok := p["name"].(string)
	return name, ok && name != ""
}

// Main returns the nested "main" measurement object, if present.
func (p RawPayload) Main() (map[string]any, bool) {
	m, ok := p["main"].(map[string]any)
	return m, ok && len(m) > 0
}

// Temperature returns main.temp when it is a JSON number.
func (p RawPayload) Temperature() (float64, bool) {
	m, ok := p.Main()
	if !ok {
		return 0, false
	}
	return number(m["temp"])
}

// Humidity returns main.humidity when it is a JSON number.
func (p RawPayload) Humidity() (float64, bool) {
	m, ok := p.Main()
	if !ok {
		return 0, false
	}
	return number(m["humidity"])
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Record is the canonical, normalized observation persisted by the stores.
// Records are values; nothing mutates one after the Normalizer builds it.
type Record struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	ObservedAt  time.Time `json:"observedAt"` // UTC, second precision
}

// Key identifies a record for deduplication: (city, observed_at).
func (r Record) Key() string {
	return r.City + "@" + r.ObservedAt.UTC().Format(time.RFC3339)
}

// HistoryQuery selects records for the read side. Zero values mean unbounded.
type HistoryQuery struct {
	City string
	From time.Time
	To   time.Time
}

// Match reports whether r falls inside the query bounds (inclusive).
func (q HistoryQuery) Match(r Record) bool {
	if q.City != "" && r.City != q.City {
		return false
	}
	if !q.From.IsZero() && r.ObservedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && r.ObservedAt.After(q.To) {
		return false
	}
	return true
}
