package database

// schema holds the idempotent DDL applied on startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS auth_tokens (
		key        TEXT PRIMARY KEY,
		user_id    INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS institutes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS fund_managers (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		institute_id INTEGER NOT NULL REFERENCES institutes(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS portfolios (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		fund_manager_id INTEGER NOT NULL REFERENCES fund_managers(id) ON DELETE CASCADE,
		created_at      TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS stocks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio_id INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol       TEXT NOT NULL,
		name         TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
		price        TEXT,
		created_at   TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (portfolio_id, symbol)
	)`,

	`CREATE TABLE IF NOT EXISTS historical_prices (
		portfolio_id   INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol         TEXT NOT NULL,
		date           TEXT NOT NULL,
		adjusted_close REAL NOT NULL,
		PRIMARY KEY (portfolio_id, symbol, date)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_historical_prices_portfolio_date
		ON historical_prices(portfolio_id, date)`,

	`CREATE INDEX IF NOT EXISTS idx_stocks_portfolio
		ON stocks(portfolio_id)`,
}
