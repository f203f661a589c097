package storage

const schemaSQL = `
-- Verification records, addressed by (dataset, row_num). Row numbering is
-- 1-based; row 1 is the reserved header row of each dataset. Result columns
-- stay NULL until a check writes them and are overwritten on every check.
CREATE TABLE IF NOT EXISTS records (
    dataset TEXT NOT NULL,
    row_num INTEGER NOT NULL,
    source_url TEXT NOT NULL DEFAULT '',
    target_url TEXT NOT NULL DEFAULT '',

    status TEXT CHECK (status IN ('live', 'missing', 'unknown')),
    checked_at DATETIME,
    remark TEXT,
    color_hint TEXT,

    PRIMARY KEY (dataset, row_num)
);

CREATE INDEX IF NOT EXISTS idx_records_dataset ON records(dataset);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status) WHERE status IS NOT NULL;

-- Durable key-value store for cross-invocation progress state.
CREATE TABLE IF NOT EXISTS check_meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);

-- Append-only queue of failed verifications awaiting notification.
CREATE TABLE IF NOT EXISTS notify_queue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_url TEXT NOT NULL,
    target_url TEXT NOT NULL,
    checked_at DATETIME NOT NULL,
    remark TEXT,
    queued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notify_queue_queued ON notify_queue(queued_at);

-- View of checked records only, for reporting.
CREATE VIEW IF NOT EXISTS checked_records AS
SELECT dataset, row_num, source_url, target_url, status, checked_at, remark
FROM records
WHERE status IS NOT NULL;
`
