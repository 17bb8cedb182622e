package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-analyzer/internal/common"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

// transientSQLStates are SQLSTATE codes outside class 08 that a retry can fix.
var transientSQLStates = map[string]bool{
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// classify decides whether a store error is worth retrying. Anything not
// recognised as a connectivity problem is structural.
func classify(err error) weather.ErrorKind {
	if err == nil {
		return weather.KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return weather.KindTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || transientSQLStates[pgErr.Code] {
			return weather.KindTransient
		}
		return weather.KindStructural
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return weather.KindTransient
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return weather.KindTransient
		default:
			return weather.KindStructural
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return weather.KindTransient
	}

	if common.HasAny(err.Error(), "connection refused", "connection reset", "no such host", "broken pipe", "i/o timeout") {
		return weather.KindTransient
	}

	return weather.KindStructural
}
