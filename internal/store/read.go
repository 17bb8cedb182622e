package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// History returns records matching q ordered by observed_at ascending
// (then city, for a stable order within one run).
func (s *SQLStore) History(ctx context.Context, q weather.HistoryQuery) ([]weather.Record, error) {
	var (
		where []string
		args  []any
	)
	if q.City != "" {
		args = append(args, q.City)
		where = append(where, "city = "+s.dialect.placeholder(len(args)))
	}
	if !q.From.IsZero() {
		args = append(args, q.From.UTC())
		where = append(where, "observed_at >= "+s.dialect.placeholder(len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To.UTC())
		where = append(where, "observed_at <= "+s.dialect.placeholder(len(args)))
	}

	query := "SELECT city, temperature, COALESCE(humidity, 0), observed_at FROM weather_summary"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY observed_at ASC, city ASC"

	var records []weather.Record
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r weather.Record
			if err := rows.Scan(&r.City, &r.Temperature, &r.Humidity, &r.ObservedAt); err != nil {
				return fmt.Errorf("scan history row: %w", err)
			}
			r.ObservedAt = r.ObservedAt.UTC()
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, weather.NewError(classify(err), "history", err)
	}

	s.logger.Debug("history loaded", "records", len(records), "city", q.City)
	return records, nil
}
