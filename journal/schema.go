package journal

// Schema stores every decimal as TEXT so values round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbols TEXT NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	config TEXT,
	initial_cash TEXT NOT NULL,
	final_cash TEXT,
	final_value TEXT,
	total_trades INTEGER NOT NULL DEFAULT 0,
	finished INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	order_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	commission TEXT NOT NULL,
	amount TEXT NOT NULL,
	cash_after TEXT NOT NULL,
	holdings_after TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS daily_values (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	date DATETIME NOT NULL,
	total_value TEXT NOT NULL,
	cash TEXT NOT NULL,
	holdings TEXT NOT NULL,
	benchmark_value TEXT NOT NULL,
	PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
