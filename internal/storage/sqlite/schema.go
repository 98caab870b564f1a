package sqlite

import "github.com/steveyegge/postbot/internal/storage/migrations"

var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "Publish attempts and workflow events",
		Up:          schema,
	},
	{
		Version:     2,
		Description: "Index attempts by content hash",
		Up:          `CREATE INDEX IF NOT EXISTS idx_publish_attempts_content_hash ON publish_attempts(content_hash)`,
		Down:        `DROP INDEX IF EXISTS idx_publish_attempts_content_hash`,
	},
}

const schema = `
CREATE TABLE IF NOT EXISTS publish_attempts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('published', 'duplicate', 'failed')),
    file_path TEXT NOT NULL DEFAULT '',
    branch_name TEXT NOT NULL DEFAULT '',
    commit_hash TEXT NOT NULL DEFAULT '',
    review_url TEXT NOT NULL DEFAULT '',
    review_number INTEGER NOT NULL DEFAULT 0,
    merge_status TEXT NOT NULL DEFAULT '',
    merge_method TEXT NOT NULL DEFAULT '',
    merge_hash TEXT NOT NULL DEFAULT '',
    similarity REAL NOT NULL DEFAULT 0,
    matched_path TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    venue TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    keywords TEXT NOT NULL DEFAULT '[]',
    artifact_date INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,
    completed_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_publish_attempts_started ON publish_attempts(started_at);
CREATE INDEX IF NOT EXISTS idx_publish_attempts_status ON publish_attempts(status, started_at);

CREATE TABLE IF NOT EXISTS workflow_events (
    id TEXT PRIMARY KEY,
    attempt_id TEXT NOT NULL,
    type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_workflow_events_attempt ON workflow_events(attempt_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_workflow_events_timestamp ON workflow_events(timestamp);
`
