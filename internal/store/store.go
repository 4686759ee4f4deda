package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

func init() {
	sqlite_vec.Auto()
}

// Meta keys.
const (
	MetaEmbeddingModel = "embedding_model"
	MetaEmbeddingDim   = "embedding_dim"
)

// ErrDimensionMismatch is returned by Open when the database was created for
// vectors of a different size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Store persists transcript chunks and their embeddings.
type Store interface {
	// Upsert replaces every document of videoID with docs. Documents get
	// fresh IDs; embeddings[i] belongs to docs[i].
	Upsert(ctx context.Context, videoID string, docs []Document, embeddings [][]float32) (int, error)
	// Search returns the k documents nearest to the query embedding,
	// restricted to videoID when it is non-empty.
	Search(ctx context.Context, queryEmbedding []float32, k int, videoID string) ([]SearchResult, error)
	// DeleteVideo removes all documents and embeddings for a video.
	DeleteVideo(ctx context.Context, videoID string) error
	// Count returns the number of documents stored for videoID, or for all
	// videos when videoID is empty.
	Count(ctx context.Context, videoID string) (int, error)
	// ListVideos lists every indexed video with its chunk count.
	ListVideos(ctx context.Context) ([]VideoSummary, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// DeleteAll removes all documents and embeddings.
	DeleteAll() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db   *sql.DB
	dims int
}

// Open creates or opens a SQLite database at the given path and initializes
// the schema for vectors of the given dimension. A dims of 0 opens an existing
// index with whatever dimension it was created for.
func Open(dbPath string, dims int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps transactions and PRAGMAs on one handle.
	db.SetMaxOpenConns(1)

	if dims == 0 {
		dims, err = recordedDimensions(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("no usable index at %s: %w", dbPath, err)
		}
	}

	if err := Init(db, dims); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db, dims: dims}
	stored, err := s.GetMeta(MetaEmbeddingDim)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if stored != "" && stored != strconv.Itoa(dims) {
		db.Close()
		return nil, fmt.Errorf("%w: index at %s holds %s-dim vectors, embedder produces %d", ErrDimensionMismatch, dbPath, stored, dims)
	}
	if stored == "" {
		if err := s.SetMeta(MetaEmbeddingDim, strconv.Itoa(dims)); err != nil {
			db.Close()
			return nil, fmt.Errorf("write dimension: %w", err)
		}
	}
	return s, nil
}

func recordedDimensions(db *sql.DB) (int, error) {
	var v string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = ?", MetaEmbeddingDim).Scan(&v); err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// Dimensions returns the vector size this store was opened with.
func (s *SQLiteStore) Dimensions() int { return s.dims }

// Upsert deletes the previous documents of videoID and inserts the new set in
// one transaction, so a crash mid-way leaves the old set intact. A failed
// delete is logged and the insert still goes ahead; stale rows may then
// remain until the next successful run.
func (s *SQLiteStore) Upsert(ctx context.Context, videoID string, docs []Document, embeddings [][]float32) (int, error) {
	if len(docs) != len(embeddings) {
		return 0, fmt.Errorf("mismatched documents (%d) and embeddings (%d)", len(docs), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) != s.dims {
			return 0, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(e), s.dims)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := deleteVideoTx(ctx, tx, videoID); err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to delete existing chunks")
	} else {
		log.Debug().Str("video_id", videoID).Msg("deleted existing chunks")
	}

	docStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO transcript_chunks (id, video_id, chunk_id, content) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return 0, err
	}
	defer docStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vec_transcript_chunks (chunk_seq, video_id, embedding) VALUES (?, ?, ?)",
	)
	if err != nil {
		return 0, err
	}
	defer vecStmt.Close()

	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		res, err := docStmt.ExecContext(ctx, id, videoID, d.ChunkID, d.Text)
		if err != nil {
			return 0, fmt.Errorf("insert chunk %d: %w", d.ChunkID, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return 0, fmt.Errorf("serialize embedding for chunk %d: %w", d.ChunkID, err)
		}
		if _, err := vecStmt.ExecContext(ctx, seq, videoID, blob); err != nil {
			return 0, fmt.Errorf("insert embedding for chunk %d: %w", d.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func deleteVideoTx(ctx context.Context, tx *sql.Tx, videoID string) error {
	rows, err := tx.QueryContext(ctx, "SELECT seq FROM transcript_chunks WHERE video_id = ?", videoID)
	if err != nil {
		return err
	}
	var seqs []int64
	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			rows.Close()
			return err
		}
		seqs = append(seqs, seq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, seq := range seqs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_transcript_chunks WHERE chunk_seq = ?", seq); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM transcript_chunks WHERE video_id = ?", videoID)
	return err
}

func (s *SQLiteStore) DeleteVideo(ctx context.Context, videoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteVideoTx(ctx, tx, videoID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, queryEmbedding []float32, k int, videoID string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	knn := "SELECT chunk_seq, distance FROM vec_transcript_chunks WHERE embedding MATCH ? AND k = ?"
	args := []any{blob, k}
	if videoID != "" {
		knn += " AND video_id = ?"
		args = append(args, videoID)
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH knn AS (`+knn+`)
		SELECT c.id, c.video_id, c.chunk_id, c.content, knn.distance
		FROM knn
		JOIN transcript_chunks c ON c.seq = knn.chunk_seq
		ORDER BY knn.distance
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Document.ID, &r.Document.VideoID, &r.Document.ChunkID, &r.Document.Text, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, videoID string) (int, error) {
	var n int
	var err error
	if videoID == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcript_chunks").Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcript_chunks WHERE video_id = ?", videoID).Scan(&n)
	}
	return n, err
}

func (s *SQLiteStore) ListVideos(ctx context.Context) ([]VideoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, COUNT(*), MAX(indexed_at)
		FROM transcript_chunks
		GROUP BY video_id
		ORDER BY MAX(indexed_at) DESC, video_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []VideoSummary
	for rows.Next() {
		var v VideoSummary
		if err := rows.Scan(&v.VideoID, &v.Chunks, &v.IndexedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vec_transcript_chunks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM transcript_chunks"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
