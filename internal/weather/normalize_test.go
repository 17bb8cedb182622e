package weather

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeValidPayload(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 5, 987654321, time.FixedZone("CET", 3600))
	n := NewNormalizer(fixedClock(now), quietLogger())

	records := n.Normalize([]RawPayload{
		{"name": "Stockholm", "main": map[string]any{"temp": 6.5, "humidity": 80.0}},
	})

	require.Len(t, records, 1)
	assert.Equal(t, Record{
		City:        "Stockholm",
		Temperature: 6.5,
		Humidity:    80,
		ObservedAt:  time.Date(2026, 3, 14, 8, 30, 5, 0, time.UTC),
	}, records[0])
}

func TestNormalizeSkipsMissingAndIncomplete(t *testing.T) {
	n := NewNormalizer(fixedClock(time.Now()), quietLogger())

	payloads := []RawPayload{
		nil,
		{"name": "Stockholm", "main": map[string]any{"temp": 6.5, "humidity": 80.0}},
		{"main": map[string]any{"temp": 1.0, "humidity": 50.0}},
		{"name": "NoMain"},
		{"name": "EmptyMain", "main": map[string]any{}},
		{"name": "NoTemp", "main": map[string]any{"humidity": 50.0}},
		{"name": "NoHumidity", "main": map[string]any{"temp": 3.0}},
		{"name": "", "main": map[string]any{"temp": 3.0, "humidity": 50.0}},
		nil,
		{"name": "London", "main": map[string]any{"temp": 11.2, "humidity": 70.0}},
	}

	records := n.Normalize(payloads)
	require.Len(t, records, 2)
	assert.Equal(t, "Stockholm", records[0].City)
	assert.Equal(t, "London", records[1].City)
}

func TestNormalizeSharesTimestampAcrossBatch(t *testing.T) {
	ticks := 0
	clock := func() time.Time {
		ticks++
		return time.Date(2026, 1, 1, 0, 0, ticks, 0, time.UTC)
	}
	n := NewNormalizer(clock, quietLogger())

	records := n.Normalize([]RawPayload{
		{"name": "A", "main": map[string]any{"temp": 1.0, "humidity": 10.0}},
		{"name": "B", "main": map[string]any{"temp": 2.0, "humidity": 20.0}},
		{"name": "C", "main": map[string]any{"temp": 3.0, "humidity": 30.0}},
	})

	require.Len(t, records, 3)
	for _, r := range records {
		assert.True(t, r.ObservedAt.Equal(records[0].ObservedAt))
	}
	assert.Equal(t, 1, ticks)
}

func TestNormalizePassesOutOfRangeHumidity(t *testing.T) {
	n := NewNormalizer(fixedClock(time.Now()), quietLogger())

	records := n.Normalize([]RawPayload{
		{"name": "Odd", "main": map[string]any{"temp": -4.25, "humidity": 120.0}},
	})

	require.Len(t, records, 1)
	assert.Equal(t, 120, records[0].Humidity)
	assert.Equal(t, -4.25, records[0].Temperature)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(nil, nil)
	assert.Empty(t, n.Normalize(nil))
}
