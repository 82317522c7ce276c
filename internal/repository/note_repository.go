package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const noteColumns = `id, contact_id, user_id, title, content, is_private, created_at`

type NoteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = utcNow()

	query := `INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		n.ID, n.ContactID, n.UserID, n.Title, n.Content, n.IsPrivate, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// ListByContact returns the contact's notes, newest first. Private notes are only
// visible to their author.
func (r *NoteRepository) ListByContact(ctx context.Context, contactID, viewerID string) ([]domain.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE contact_id = ? AND (is_private = ? OR user_id = ?)
		ORDER BY created_at DESC`

	notes := []domain.Note{}
	if err := r.db.SelectContext(ctx, &notes, query, contactID, false, viewerID); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}
