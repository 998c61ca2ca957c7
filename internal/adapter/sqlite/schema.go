package sqlite

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS moment_tensors (
	origin_time    TEXT PRIMARY KEY,
	event_id       TEXT NOT NULL,
	event_token    TEXT NOT NULL,
	source_url     TEXT NOT NULL,
	region         TEXT NOT NULL,
	magnitude      REAL NOT NULL,
	magnitude_unit TEXT NOT NULL,
	latitude       REAL NOT NULL,
	longitude      REAL NOT NULL,
	depth_km       INTEGER NOT NULL,
	station_count  INTEGER NOT NULL,
	mrr            REAL NOT NULL,
	mtt            REAL NOT NULL,
	mpp            REAL NOT NULL,
	mrt            REAL NOT NULL,
	mrp            REAL NOT NULL,
	mtp            REAL NOT NULL,
	indexed_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moment_tensors_event_token ON moment_tensors(event_token);
`

// Keyed by origin time so a re-indexed duplicate replaces the older row.
const upsertRecord = `
INSERT OR REPLACE INTO moment_tensors (
	origin_time, event_id, event_token, source_url, region,
	magnitude, magnitude_unit, latitude, longitude, depth_km, station_count,
	mrr, mtt, mpp, mrt, mrp, mtp, indexed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectByToken = `
SELECT origin_time, event_id, source_url, region,
	magnitude, magnitude_unit, latitude, longitude, depth_km, station_count,
	mrr, mtt, mpp, mrt, mrp, mtp
FROM moment_tensors
WHERE event_token = ?
ORDER BY origin_time DESC
LIMIT 1
`

const countRecords = `SELECT COUNT(*) FROM moment_tensors`
