package db

// Bet timestamps are stored as minute-precision text in the wire layout, which
// sorts chronologically.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`,
	`CREATE TABLE IF NOT EXISTS methods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
)`,
	`CREATE TABLE IF NOT EXISTS bets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    placed_at TEXT NOT NULL,
    game TEXT NOT NULL,
    method_id INTEGER NOT NULL REFERENCES methods(id),
    risk REAL NOT NULL,
    profit_loss REAL NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
)`,
	`CREATE INDEX IF NOT EXISTS idx_bets_placed_at ON bets(placed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bets_method ON bets(method_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS methods (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS bets (
    id BIGSERIAL PRIMARY KEY,
    placed_at TEXT NOT NULL,
    game TEXT NOT NULL,
    method_id BIGINT NOT NULL REFERENCES methods(id),
    risk DOUBLE PRECISION NOT NULL,
    profit_loss DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_bets_placed_at ON bets(placed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bets_method ON bets(method_id)`,
}
