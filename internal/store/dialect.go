package store

import (
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// Dialect names accepted by New.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// dialect holds the driver name and SQL text that differ between databases.
type dialect struct {
	name   string
	driver string
	schema string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

func lookupDialect(name string) (dialect, error) {
	switch name {
	case DialectPostgres, "postgresql", "pgx":
		return dialect{
			name:        DialectPostgres,
			driver:      "pgx",
			schema:      postgresSchema,
			placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		}, nil
	case DialectSQLite, "sqlite3":
		return dialect{
			name:        DialectSQLite,
			driver:      "sqlite3",
			schema:      sqliteSchema,
			placeholder: func(int) string { return "?" },
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported store dialect %q", name)
	}
}

// insertSQL skips rows that collide on (city, observed_at).
func (d dialect) insertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO weather_summary (city, temperature, humidity, observed_at)
		VALUES (%s, %s, %s, %s)
		ON CONFLICT (city, observed_at) DO NOTHING`,
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4))
}

// schemaStatements splits the embedded DDL into single statements so each
// can run through the extended query protocol.
func (d dialect) schemaStatements() []string {
	var stmts []string
	for _, s := range strings.Split(d.schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// sqliteFilePath extracts the database file from a go-sqlite3 DSN such as
// "file:data/weather.db?_busy_timeout=5000". In-memory databases yield "".
func sqliteFilePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return ""
	}
	return path
}
