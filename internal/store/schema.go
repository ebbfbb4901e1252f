package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
    job_id               TEXT PRIMARY KEY,
    file_path            TEXT,
    lines                INTEGER NOT NULL DEFAULT 0,
    records              INTEGER NOT NULL DEFAULT 0,
    resources            INTEGER NOT NULL DEFAULT 0,
    processed_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS resources (
    job_id               TEXT NOT NULL REFERENCES reports(job_id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    value                TEXT NOT NULL,
    PRIMARY KEY (job_id, name)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_processed ON reports(processed_at);
`
