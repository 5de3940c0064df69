package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavour of the underlying database
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const (
	defaultConnAttempts = 10
	defaultConnTimeout  = time.Second
)

// Options selects and configures the database backend
type Options struct {
	Driver Dialect
	// Path is the SQLite database file, or ":memory:"
	Path string
	// URL is the PostgreSQL connection string
	URL string

	// ConnAttempts bounds PostgreSQL connection retries (default: 10)
	ConnAttempts int
	ConnTimeout  time.Duration
}

// DB represents the database connection
type DB struct {
	*sql.DB
	dialect Dialect
}

// New creates a new SQLite database connection
func New(dbPath string) (*DB, error) {
	return Open(context.Background(), Options{Driver: SQLite, Path: dbPath})
}

// Open connects to the configured backend. PostgreSQL connections are
// retried while the server comes up.
func Open(ctx context.Context, opts Options) (*DB, error) {
	switch opts.Driver {
	case SQLite, "":
		return openSQLite(opts.Path)
	case Postgres:
		return openPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func openSQLite(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := path
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=1&_busy_timeout=5000"
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers, and every connection to ":memory:" is a
	// separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: SQLite}, nil
}

func openPostgres(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgx.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}

	attempts := opts.ConnAttempts
	if attempts <= 0 {
		attempts = defaultConnAttempts
	}
	timeout := opts.ConnTimeout
	if timeout <= 0 {
		timeout = defaultConnTimeout
	}

	db := stdlib.OpenDB(*cfg)
	for attempts > 0 {
		if err = db.PingContext(ctx); err == nil {
			return &DB{DB: db, dialect: Postgres}, nil
		}

		slog.Info("Postgres is trying to connect", "attempts_left", attempts)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(timeout):
		}
		attempts--
	}

	db.Close()
	return nil, fmt.Errorf("failed to connect to postgres: %w", err)
}

// Dialect reports the backend in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites "?" placeholders into PostgreSQL's "$n" form
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
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

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	return db.InitializeContext(context.Background())
}

func (db *DB) InitializeContext(ctx context.Context) error {
	statements := sqliteSchema
	if db.dialect == Postgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

var countable = map[string]bool{
	"projects":             true,
	"github_users":         true,
	"members":              true,
	"labels":               true,
	"repositories":         true,
	"commits":              true,
	"issues":               true,
	"issue_assignees":      true,
	"issue_labels":         true,
	"pull_requests":        true,
	"pull_request_members": true,
	"pull_request_labels":  true,
	"sync_state":           true,
}

// Count returns the number of rows in table
func (db *DB) Count(ctx context.Context, table string) (int, error) {
	if !countable[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// placeholders returns "?, ?, ..." for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
