package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/shared"
)

// UserRepository mirrors identity provider accounts with soft delete support.
//
// Rows are written exclusively by the provider webhook; the service itself
// only reads them for sender summaries.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts or updates a user by provider ID. Email and name follow the
// provider; a previously soft-deleted row is revived.
func (u *UserRepository) Upsert(user *models.User) error {
	user.Email = shared.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	now := time.Now().UTC()

	existing, err := u.Get(user.ID)
	if err != nil && err != shared.ErrNotFound {
		return err
	}

	if err == shared.ErrNotFound {
		sequence, err := NextSequence(u.db, "users")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		user.Sequence = sequence
		user.CreatedAt = now
		user.UpdatedAt = now

		_, err = u.db.Exec(
			`INSERT INTO users (id, sequence, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			user.ID, user.Sequence, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	}

	user.Sequence = existing.Sequence
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now

	_, err = u.db.Exec(
		`UPDATE users SET email = ?, name = ?, updated_at = ?, deleted_at = NULL WHERE id = ?`,
		user.Email, user.Name, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Get retrieves a user by provider ID, including soft-deleted rows so Upsert
// can revive them.
func (u *UserRepository) Get(id string) (*models.User, error) {
	row := u.db.QueryRow(
		`SELECT id, sequence, email, name, created_at, updated_at, deleted_at FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// GetByEmail retrieves a live user by email.
func (u *UserRepository) GetByEmail(email string) (*models.User, error) {
	row := u.db.QueryRow(
		`SELECT id, sequence, email, name, created_at, updated_at, deleted_at FROM users WHERE email = ? AND deleted_at IS NULL`,
		shared.NormalizeEmail(email),
	)
	return scanUser(row)
}

// Delete soft-deletes a user by provider ID.
func (u *UserRepository) Delete(id string) error {
	res, err := u.db.Exec(`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var name sql.NullString
	err := row.Scan(&user.ID, &user.Sequence, &user.Email, &name, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if name.Valid {
		user.Name = name.String
	}
	return &user, nil
}
