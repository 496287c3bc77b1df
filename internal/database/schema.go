package database

// Schema is the single source of truth for the application database.
// A holding row is a portfolio position (shares > 0), a watchlist entry
// (is_in_watchlist = 1), or both. Assets are commodity positions valued
// by weight.
const Schema = `
CREATE TABLE IF NOT EXISTS stocks (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	name            TEXT NOT NULL,
	ticker          TEXT NOT NULL,
	shares          REAL NOT NULL DEFAULT 0,
	buy_price       REAL NOT NULL DEFAULT 0,
	current_price   REAL NOT NULL DEFAULT 0,
	target_price    REAL NOT NULL DEFAULT 0,
	is_in_watchlist INTEGER NOT NULL DEFAULT 0,
	last_updated    TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stocks_user ON stocks(user_id);
CREATE INDEX IF NOT EXISTS idx_stocks_user_ticker ON stocks(user_id, ticker);
CREATE INDEX IF NOT EXISTS idx_stocks_tracked ON stocks(shares, is_in_watchlist);

CREATE TABLE IF NOT EXISTS assets (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	grams         REAL NOT NULL DEFAULT 0,
	buy_price     REAL NOT NULL DEFAULT 0,
	current_price REAL NOT NULL DEFAULT 0,
	last_updated  TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assets_user ON assets(user_id);
`
