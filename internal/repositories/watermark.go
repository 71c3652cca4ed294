package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/seranote/seranote/internal/models"
)

// WatermarkRepository persists per-(viewer, note) read watermarks.
type WatermarkRepository struct {
	db *sql.DB
}

// NewWatermarkRepository creates a new WatermarkRepository with the given database connection
func NewWatermarkRepository(db *sql.DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

// Get returns the viewer's watermark for a note, or [models.Epoch] when the
// viewer has never marked the note read.
func (r *WatermarkRepository) Get(noteID, viewer string) (time.Time, error) {
	var lastReadAt time.Time
	err := r.db.QueryRow(
		`SELECT last_read_at FROM read_watermarks WHERE note_id = ? AND user_email = ?`,
		noteID, viewer,
	).Scan(&lastReadAt)
	if err == sql.ErrNoRows {
		return models.Epoch, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	return lastReadAt, nil
}

// Advance upserts the viewer's watermark for a note. The stored value is
// monotonically non-decreasing: an older timestamp never overwrites a newer
// one.
func (r *WatermarkRepository) Advance(noteID, viewer string, at time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO read_watermarks (note_id, user_email, last_read_at)
		VALUES (?, ?, ?)
		ON CONFLICT(note_id, user_email)
		DO UPDATE SET last_read_at = excluded.last_read_at
		WHERE excluded.last_read_at > read_watermarks.last_read_at
	`, noteID, viewer, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	return nil
}
