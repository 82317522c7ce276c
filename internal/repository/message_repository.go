package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const messageColumns = `id, contact_id, user_id, channel, direction, status, body, html_body, media_urls,
	external_id, scheduled_for, error_message, metadata, created_at, updated_at, sent_at, delivered_at, read_at`

// MessageRepository handles database operations for the conversation log.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts m. A second row with the same external id fails with domain.ErrDuplicate.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	return insertMessage(ctx, r.db, m)
}

func insertMessage(ctx context.Context, exec sqlx.ExecerContext, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := utcNow()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := exec.ExecContext(ctx, query,
		m.ID, m.ContactID, m.UserID, m.Channel, m.Direction, m.Status, m.Body, m.HTMLBody, m.MediaURLs,
		m.ExternalID, m.ScheduledFor, m.ErrorMessage, m.Metadata, m.CreatedAt, m.UpdatedAt,
		m.SentAt, m.DeliveredAt, m.ReadAt,
	)
	if err != nil {
		return duplicateOr(err, "failed to create message")
	}

	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var message domain.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		return nil, notFound(err, "message "+id)
	}

	return &message, nil
}

func (r *MessageRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Message, error) {
	var message domain.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE external_id = ?`

	if err := r.db.GetContext(ctx, &message, query, externalID); err != nil {
		return nil, notFound(err, "message with external id "+externalID)
	}

	return &message, nil
}

// List returns a page of messages in conversation order (oldest first).
func (r *MessageRepository) List(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 50, 500)

	var where []string
	var args []any

	if filter.ContactID != "" {
		where = append(where, "contact_id = ?")
		args = append(args, filter.ContactID)
	}
	if filter.Channel != nil {
		where = append(where, "channel = ?")
		args = append(args, *filter.Channel)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM messages"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM messages` + clause + ` ORDER BY created_at ASC LIMIT ? OFFSET ?`

	messages := []domain.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}

// ListRecent returns the newest messages of a contact, newest first.
func (r *MessageRepository) ListRecent(ctx context.Context, contactID string, limit int) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE contact_id = ? ORDER BY created_at DESC LIMIT ?`

	messages := []domain.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, contactID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	return messages, nil
}

// MarkInboundRead flips every unread inbound message of a contact to READ.
func (r *MessageRepository) MarkInboundRead(ctx context.Context, contactID string) (int64, error) {
	now := utcNow()
	query := `
		UPDATE messages
		SET status = 'READ', read_at = ?, updated_at = ?
		WHERE contact_id = ? AND direction = 'INBOUND' AND status IN ('DELIVERED', 'SENT', 'PENDING')
	`

	result, err := r.db.ExecContext(ctx, query, now, now, contactID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// ApplyStatus moves a message from `from` to `to` and stamps the matching timestamp.
// It reports false when the row was no longer in `from`.
func (r *MessageRepository) ApplyStatus(
	ctx context.Context,
	id string,
	from, to domain.MessageStatus,
	errorMessage *string,
) (bool, error) {
	now := utcNow()
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{to, now}

	switch to {
	case domain.StatusSent:
		sets = append(sets, "sent_at = COALESCE(sent_at, ?)")
		args = append(args, now)
	case domain.StatusDelivered:
		sets = append(sets, "delivered_at = ?")
		args = append(args, now)
	case domain.StatusRead:
		sets = append(sets, "read_at = ?", "delivered_at = COALESCE(delivered_at, ?)")
		args = append(args, now, now)
	case domain.StatusFailed:
		sets = append(sets, "error_message = ?")
		args = append(args, errorMessage)
	}

	query := "UPDATE messages SET " + strings.Join(sets, ", ") + " WHERE id = ? AND status = ?"
	result, err := r.db.ExecContext(ctx, query, append(args, id, from)...)
	if err != nil {
		return false, fmt.Errorf("failed to update message status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}
