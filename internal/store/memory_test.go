package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func TestMemoryStoreDeduplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.InsertBatch(ctx, testBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InsertBatch(ctx, testBatch())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Calls())
}

func TestMemoryStoreHistory(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	later := observed.Add(time.Hour)
	_, _ = s.InsertBatch(ctx, []weather.Record{{City: "Oslo", Temperature: 1, ObservedAt: later}})
	_, _ = s.InsertBatch(ctx, testBatch())

	all, err := s.History(ctx, weather.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "London", all[0].City)
	assert.Equal(t, "Stockholm", all[1].City)
	assert.Equal(t, "Oslo", all[2].City)

	oslo, err := s.History(ctx, weather.HistoryQuery{City: "Oslo", From: later})
	require.NoError(t, err)
	assert.Len(t, oslo, 1)
}
