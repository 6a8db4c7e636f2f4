package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Supported drivers.
const (
	// DriverSQLite is the pure-Go SQLite driver (modernc.org/sqlite).
	DriverSQLite = "sqlite"

	// DriverSQLite3 is the cgo SQLite driver (mattn/go-sqlite3).
	DriverSQLite3 = "sqlite3"

	// DriverPostgres uses pgx through database/sql.
	DriverPostgres = "postgres"
)

// Dialect is the SQL flavor spoken by an opened database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config contains connection settings.
type Config struct {
	// Driver selects the database driver: "sqlite", "sqlite3" or "postgres".
	Driver string

	// DSN is the Postgres connection string. Required for "postgres".
	DSN string

	// Path is the SQLite database file. ":memory:" opens a private
	// in-memory database limited to one connection.
	Path string

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int
}

// DB wraps *sql.DB with its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
	driver  string
}

// Open opens and pings the configured database. SQLite databases get WAL
// journaling and a busy timeout; the parent directory of Path is created.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}

	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Driver {
	case DriverSQLite, DriverSQLite3:
		db, err = openSQLite(cfg)
		dialect = DialectSQLite
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn is required for the postgres driver")
		}
		db, err = sql.Open("pgx", cfg.DSN)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		dialect = DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported storage driver %q (supported: sqlite, sqlite3, postgres)", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	if dialect == DialectSQLite {
		if err := applyPragmas(ctx, db, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}

	slog.Debug("database opened",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return &DB{DB: db, dialect: dialect, driver: cfg.Driver}, nil
}

func openSQLite(cfg Config) (*sql.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "data/scribe.db"
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, path)
	if err != nil {
		return nil, err
	}

	// Each connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, cfg Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON",
	}
	if cfg.Path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

// Dialect returns the SQL flavor of the database.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites "?" placeholders to "$n" for Postgres. Queries for SQLite
// are returned unchanged. Placeholders inside quoted literals are not
// supported.
func (db *DB) Rebind(query string) string {
	return Rebind(db.dialect, query)
}

// Rebind rewrites "?" placeholders for the given dialect.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate executes schema statements in order.
func (db *DB) Migrate(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
