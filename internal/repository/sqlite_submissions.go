package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"LumenTrade/internal/domain/models"
)

// SQLiteSubmissionIndex is the persistent record of submitted transactions,
// keyed by the hash of the signed envelope. Offer ids reset at process start,
// so the hash is the only key that survives restarts.
type SQLiteSubmissionIndex struct {
	db *sql.DB
}

// OpenSubmissionIndex creates or opens the index database at path.
func OpenSubmissionIndex(path string) (*SQLiteSubmissionIndex, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open submission index: %w", err)
	}

	idx := &SQLiteSubmissionIndex{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate submission index: %w", err)
	}
	return idx, nil
}

func (i *SQLiteSubmissionIndex) migrate() error {
	const schema = `CREATE TABLE IF NOT EXISTS submissions (
		envelope_hash TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		pair TEXT NOT NULL,
		side TEXT NOT NULL,
		offer_id INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		submitted_unix_millis INTEGER NOT NULL
	)`
	if _, err := i.db.Exec(schema); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	return nil
}

// Record stores one submitted transaction. Recording the same hash twice is a
// no-op, not an error.
func (i *SQLiteSubmissionIndex) Record(ctx context.Context, hash string, intent models.OrderIntent) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO submissions
		 (envelope_hash, record_id, pair, side, offer_id, quantity, price, submitted_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		hash,
		uuid.NewString(),
		intent.Pair.String(),
		string(intent.Side),
		intent.OfferID,
		intent.Quantity.String(),
		intent.Price.String(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// Seen reports whether the envelope hash was already submitted, possibly by a
// previous process.
func (i *SQLiteSubmissionIndex) Seen(ctx context.Context, hash string) (bool, error) {
	var one int
	err := i.db.QueryRowContext(ctx,
		"SELECT 1 FROM submissions WHERE envelope_hash = ?", hash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query submission: %w", err)
	}
	return true, nil
}

func (i *SQLiteSubmissionIndex) Close() error {
	if i.db != nil {
		return i.db.Close()
	}
	return nil
}
