package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/shared"
)

// MessageRepository implements models.Repository[*models.Message].
//
// Listing joins the sender's user row so API payloads can carry the sender
// summary without a second query. The is_read flag is only ever written by
// MarkReadBefore, which derives it from the viewer's watermark.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new [models.Message] with generated ID, sequence and timestamp.
// Content is stored trimmed.
func (r *MessageRepository) Create(message *models.Message) error {
	sequence, err := NextSequence(r.db, "messages")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	message.ID = shared.GenerateID()
	message.Sequence = sequence
	message.Content = strings.TrimSpace(message.Content)
	message.CreatedAt = time.Now().UTC()

	if err := message.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	query := `
		INSERT INTO messages (id, sequence, note_id, sender_email, content, is_read, read_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		message.ID,
		message.Sequence,
		message.NoteID,
		message.SenderEmail,
		message.Content,
		message.IsRead,
		message.ReadAt,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

const messageSelect = `
	SELECT m.id, m.sequence, m.note_id, m.sender_email, m.content, m.is_read, m.read_at, m.created_at,
	       u.id, u.name, u.email
	FROM messages m
	LEFT JOIN users u ON u.email = m.sender_email AND u.deleted_at IS NULL
`

// Get retrieves a message by ID with its sender summary.
func (r *MessageRepository) Get(id string) (*models.Message, error) {
	row := r.db.QueryRow(messageSelect+` WHERE m.id = ?`, id)
	message, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return message, nil
}

// ListByNote retrieves a note's messages ascending by creation time.
func (r *MessageRepository) ListByNote(noteID string) ([]*models.Message, error) {
	rows, err := r.db.Query(messageSelect+` WHERE m.note_id = ? ORDER BY m.created_at ASC, m.sequence ASC`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// CountUnread counts messages on the note created strictly after lastReadAt
// and not authored by viewer. This is the authoritative unread formula; the
// is_read flag plays no part in it.
func (r *MessageRepository) CountUnread(noteID, viewer string, lastReadAt time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE note_id = ? AND sender_email != ? AND created_at > ?`,
		noteID, viewer, lastReadAt.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkReadBefore sets the display flag on the note's messages not authored by
// viewer and created at or before the viewer's new watermark.
func (r *MessageRepository) MarkReadBefore(noteID, viewer string, watermark time.Time) error {
	_, err := r.db.Exec(
		`UPDATE messages SET is_read = 1, read_at = ? WHERE note_id = ? AND sender_email != ? AND is_read = 0 AND created_at <= ?`,
		watermark.UTC(), noteID, viewer, watermark.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// Delete removes a message by ID.
func (r *MessageRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
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

func scanMessage(s scanner) (*models.Message, error) {
	var message models.Message
	var senderID, senderName, senderEmail sql.NullString
	err := s.Scan(
		&message.ID,
		&message.Sequence,
		&message.NoteID,
		&message.SenderEmail,
		&message.Content,
		&message.IsRead,
		&message.ReadAt,
		&message.CreatedAt,
		&senderID,
		&senderName,
		&senderEmail,
	)
	if err != nil {
		return nil, err
	}
	if senderID.Valid {
		message.Sender = &models.UserSummary{
			ID:    senderID.String,
			Name:  senderName.String,
			Email: senderEmail.String,
		}
	}
	return &message, nil
}
