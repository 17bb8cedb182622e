package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want weather.ErrorKind
	}{
		{"nil", nil, weather.KindUnknown},
		{"deadline", fmt.Errorf("connect: %w", context.DeadlineExceeded), weather.KindTransient},
		{"canceled", fmt.Errorf("begin tx: %w", context.Canceled), weather.KindTransient},
		{"bad conn", driver.ErrBadConn, weather.KindTransient},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, weather.KindTransient},
		{"pg cannot connect now", &pgconn.PgError{Code: "57P03"}, weather.KindTransient},
		{"pg undefined column", &pgconn.PgError{Code: "42703"}, weather.KindStructural},
		{"pg syntax error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "42601"}), weather.KindStructural},
		{"pg not null violation", &pgconn.PgError{Code: "23502"}, weather.KindStructural},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, weather.KindTransient},
		{"sqlite cannot open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, weather.KindTransient},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, weather.KindStructural},
		{"refused by message", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), weather.KindTransient},
		{"unknown", errors.New("no such table: weather_summary"), weather.KindStructural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
