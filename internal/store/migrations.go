package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deliveries (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	item_id      INTEGER NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	item_time    DATETIME NOT NULL,
	delivered_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deliveries_delivered_at ON deliveries(delivered_at);
CREATE INDEX IF NOT EXISTS idx_deliveries_kind_item ON deliveries(kind, item_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
