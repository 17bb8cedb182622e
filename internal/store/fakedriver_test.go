package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"sync/atomic"
)

// Test drivers that fail in a controlled way.
const (
	unreachableDriver = "weather-test-unreachable"
	brokenDriver      = "weather-test-broken"
)

var (
	unreachableOpens atomic.Int32
	brokenOpens      atomic.Int32
)

func init() {
	sql.Register(unreachableDriver, unreachable{})
	sql.Register(brokenDriver, broken{})
}

// unreachable refuses every connection like a database that is down.
type unreachable struct{}

func (unreachable) Open(string) (driver.Conn, error) {
	unreachableOpens.Add(1)
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

// broken connects fine but rejects every statement like a schema mismatch.
type broken struct{}

func (broken) Open(string) (driver.Conn, error) {
	brokenOpens.Add(1)
	return brokenConn{}, nil
}

type brokenConn struct{}

func (brokenConn) Prepare(string) (driver.Stmt, error) { return brokenStmt{}, nil }
func (brokenConn) Close() error                        { return nil }
func (brokenConn) Begin() (driver.Tx, error)           { return brokenTx{}, nil }

type brokenTx struct{}

func (brokenTx) Commit() error   { return nil }
func (brokenTx) Rollback() error { return nil }

type brokenStmt struct{}

var errMissingColumn = errors.New(`column "observed_at" of relation "weather_summary" does not exist`)

func (brokenStmt) Close() error  { return nil }
func (brokenStmt) NumInput() int { return -1 }
func (brokenStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errMissingColumn
}
func (brokenStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errMissingColumn
}
