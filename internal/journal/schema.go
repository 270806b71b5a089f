package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	decision TEXT NOT NULL,
	execution TEXT,
	profit_loss REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

CREATE TABLE IF NOT EXISTS agent_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
