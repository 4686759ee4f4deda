package store

import (
	"database/sql"
	"fmt"
)

// CollectionName names the document table. Every video shares one collection.
const CollectionName = "transcript_chunks"

const ddl = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS transcript_chunks (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    video_id   TEXT NOT NULL,
    chunk_id   INTEGER NOT NULL,
    content    TEXT NOT NULL,
    indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transcript_chunks_video ON transcript_chunks(video_id, chunk_id);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_transcript_chunks USING vec0(
    chunk_seq INTEGER PRIMARY KEY,
    video_id TEXT,
    embedding float[%d] distance_metric=cosine
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist. The vector table is
// sized to dims, which must match the embedding model.
func Init(db *sql.DB, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dims)
	}
	_, err := db.Exec(fmt.Sprintf(ddl, dims))
	return err
}
