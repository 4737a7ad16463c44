package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database types.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// DB is a database handle that knows which SQL dialect it speaks.
type DB struct {
	*sql.DB
	dialect string
}

// Open connects to a SQLite file (or ":memory:") or a Postgres URL.
func Open(dialect, dsn string) (*DB, error) {
	switch dialect {
	case SQLite, "":
		db, err := openSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return &DB{DB: db, dialect: SQLite}, nil
	case Postgres:
		db, err := openPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return &DB{DB: db, dialect: Postgres}, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dialect)
	}
}

// Dialect is SQLite or Postgres.
func (d *DB) Dialect() string { return d.dialect }

// openSQLite opens the database with WAL mode and foreign keys enabled.
// SQLite gets a single connection so pragmas and :memory: state are shared.
func openSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. Safe to call multiple times.
func Migrate(ctx context.Context, d *DB) error {
	schema := sqliteSchema
	if d.dialect == Postgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	_, err := d.ExecContext(ctx,
		`INSERT INTO schema_version (version) VALUES (1) ON CONFLICT (version) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
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
