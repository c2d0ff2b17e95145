package store

import "strings"

// migration holds a single schema migration with its target version and SQL.
// Column types are written as {placeholders} and filled in per dialect.
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

CREATE TABLE IF NOT EXISTS schedule_items (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'active',
	recurrence  TEXT,
	due_date    TEXT,
	position    {float} NOT NULL DEFAULT 0,
	bucket      TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  {timestamp} NOT NULL,
	updated_at  {timestamp} NOT NULL
);

CREATE TABLE IF NOT EXISTS taskmaster_items (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'active',
	recurrence  TEXT,
	due_date    TEXT,
	position    {float} NOT NULL DEFAULT 0,
	bucket      TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	created_at  {timestamp} NOT NULL,
	updated_at  {timestamp} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schedule_items_user_bucket ON schedule_items(user_id, bucket, position);
CREATE INDEX IF NOT EXISTS idx_schedule_items_user_status ON schedule_items(user_id, status);
CREATE INDEX IF NOT EXISTS idx_taskmaster_items_user_bucket ON taskmaster_items(user_id, bucket, position);
CREATE INDEX IF NOT EXISTS idx_taskmaster_items_user_status ON taskmaster_items(user_id, status);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_schedule_items_due_date ON schedule_items(user_id, due_date);
CREATE INDEX IF NOT EXISTS idx_taskmaster_items_due_date ON taskmaster_items(user_id, due_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE INDEX IF NOT EXISTS idx_schedule_items_task_master ON schedule_items(user_id, {task_master_id});

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}

// render fills the dialect's column types and expressions into a migration.
func (m migration) render(d dialect) string {
	return strings.NewReplacer(
		"{float}", d.floatType,
		"{timestamp}", d.timestampType,
		"{task_master_id}", d.metadataExpr("task_master_id"),
	).Replace(m.sql)
}
