package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/shared"
)

// NoteRepository implements models.Repository[*models.Note].
//
// Deleting a note cascades to its messages and read watermarks at the schema
// level (foreign keys are enforced by shared.NewDatabase).
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new NoteRepository with the given database connection
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `id, sequence, title, message, song_id, clip_start, clip_duration, track_duration, sender_email, receiver_email, created_at, updated_at`

// Create inserts a new [models.Note] with generated ID, sequence and timestamps.
func (r *NoteRepository) Create(note *models.Note) error {
	sequence, err := NextSequence(r.db, "notes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	note.ID = shared.GenerateID()
	note.Sequence = sequence
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	query := `
		INSERT INTO notes (` + noteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var receiver any
	if note.ReceiverEmail != "" {
		receiver = note.ReceiverEmail
	}

	_, err = r.db.Exec(query,
		note.ID,
		note.Sequence,
		note.Title,
		note.Message,
		note.SongID,
		note.ClipStart,
		note.ClipDuration,
		note.TrackDuration,
		note.SenderEmail,
		receiver,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	return nil
}

// Get retrieves a note by ID.
func (r *NoteRepository) Get(id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// ListBySender retrieves notes created by the given email, newest first.
func (r *NoteRepository) ListBySender(email string) ([]*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE sender_email = ? ORDER BY created_at DESC, sequence DESC`
	return r.list(query, email)
}

// ListByReceiver retrieves notes addressed to the given email, newest first.
func (r *NoteRepository) ListByReceiver(email string) ([]*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE receiver_email = ? ORDER BY created_at DESC, sequence DESC`
	return r.list(query, email)
}

// ClaimReceiver assigns email as the note's receiver iff the slot is still
// unset. Returns true when this call won the slot. Concurrent first viewers
// race on the conditional UPDATE; exactly one observes RowsAffected == 1.
func (r *NoteRepository) ClaimReceiver(id, email string) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE notes SET receiver_email = ?, updated_at = ? WHERE id = ? AND receiver_email IS NULL`,
		email, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim receiver: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

// Delete removes a note. Messages and watermarks go with it via the schema's
// ON DELETE CASCADE.
func (r *NoteRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return shared.ErrNotFound
	}

	return nil
}

func (r *NoteRepository) list(query string, args ...any) ([]*models.Note, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, rows.Err()
}

func (r *NoteRepository) scanOne(row *sql.Row) (*models.Note, error) {
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	return note, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var note models.Note
	var receiver sql.NullString
	err := s.Scan(
		&note.ID,
		&note.Sequence,
		&note.Title,
		&note.Message,
		&note.SongID,
		&note.ClipStart,
		&note.ClipDuration,
		&note.TrackDuration,
		&note.SenderEmail,
		&receiver,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if receiver.Valid {
		note.ReceiverEmail = receiver.String
	}
	return &note, nil
}
