package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const scheduledColumns = `id, contact_id, user_id, template_id, channel, body, html_body, subject, scheduled_for,
	status, sent_at, error_message, message_id, retry_of, created_at, updated_at`

// ScheduledMessageRepository is the single outbound queue drained by the dispatcher.
type ScheduledMessageRepository struct {
	db *sqlx.DB
}

func NewScheduledMessageRepository(db *sqlx.DB) *ScheduledMessageRepository {
	return &ScheduledMessageRepository{db: db}
}

func (r *ScheduledMessageRepository) Create(ctx context.Context, s *domain.ScheduledMessage) error {
	return insertScheduled(ctx, r.db, s)
}

func insertScheduled(ctx context.Context, exec sqlx.ExecerContext, s *domain.ScheduledMessage) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := utcNow()
	s.Status = domain.SchedulePending
	s.ScheduledFor = s.ScheduledFor.UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	query := `
		INSERT INTO scheduled_messages (` + scheduledColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := exec.ExecContext(ctx, query,
		s.ID, s.ContactID, s.UserID, s.TemplateID, s.Channel, s.Body, s.HTMLBody, s.Subject, s.ScheduledFor,
		s.Status, s.SentAt, s.ErrorMessage, s.MessageID, s.RetryOf, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled message: %w", err)
	}

	return nil
}

func (r *ScheduledMessageRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledMessage, error) {
	var msg domain.ScheduledMessage
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_messages WHERE id = ?`

	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		return nil, notFound(err, "scheduled message "+id)
	}

	return &msg, nil
}

// GetDue returns PENDING items whose scheduled time is at or before now, earliest first.
func (r *ScheduledMessageRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]domain.DueMessage, error) {
	query := `
		SELECT s.id, s.contact_id, s.user_id, s.template_id, s.channel, s.body, s.html_body, s.subject,
			s.scheduled_for, s.status, s.sent_at, s.error_message, s.message_id, s.retry_of,
			s.created_at, s.updated_at,
			c.phone AS contact_phone, c.email AS contact_email
		FROM scheduled_messages s
		JOIN contacts c ON c.id = s.contact_id
		WHERE s.status = 'PENDING' AND s.scheduled_for <= ?
		ORDER BY s.scheduled_for ASC
		LIMIT ?
	`

	due := []domain.DueMessage{}
	if err := r.db.SelectContext(ctx, &due, query, now.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to get due scheduled messages: %w", err)
	}

	return due, nil
}

// CompleteDispatch marks the item SENT and appends its conversation-log row in one
// transaction. The item must still be PENDING, otherwise nothing is written.
func (r *ScheduledMessageRepository) CompleteDispatch(ctx context.Context, id string, msg *domain.Message) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		sentAt := utcNow()
		if msg.SentAt == nil {
			msg.SentAt = &sentAt
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE scheduled_messages
			SET status = 'SENT', sent_at = ?, message_id = ?, error_message = NULL, updated_at = ?
			WHERE id = ? AND status = 'PENDING'
		`, *msg.SentAt, msg.ID, sentAt, id)
		if err != nil {
			return fmt.Errorf("failed to mark scheduled message as sent: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("scheduled message %s is no longer pending: %w", id, domain.ErrInvalidTransition)
		}

		return insertMessage(ctx, tx, msg)
	})
}

// MarkFailed records the failure text on a PENDING item.
func (r *ScheduledMessageRepository) MarkFailed(ctx context.Context, id string, errorText string) error {
	query := `
		UPDATE scheduled_messages
		SET status = 'FAILED', error_message = ?, updated_at = ?
		WHERE id = ? AND status = 'PENDING'
	`

	result, err := r.db.ExecContext(ctx, query, errorText, utcNow(), id)
	if err != nil {
		return fmt.Errorf("failed to mark scheduled message as failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("scheduled message %s is no longer pending: %w", id, domain.ErrInvalidTransition)
	}

	return nil
}

func (r *ScheduledMessageRepository) List(
	ctx context.Context,
	status *domain.ScheduleStatus,
	page, pageSize int,
) ([]domain.ScheduledMessage, int64, error) {
	offset := (page - 1) * pageSize
	var totalCount int64
	messages := []domain.ScheduledMessage{}

	if status != nil {
		countQuery := "SELECT COUNT(*) FROM scheduled_messages WHERE status = ?"
		if err := r.db.GetContext(ctx, &totalCount, countQuery, *status); err != nil {
			return nil, 0, fmt.Errorf("failed to count scheduled messages: %w", err)
		}

		query := `SELECT ` + scheduledColumns + ` FROM scheduled_messages
			WHERE status = ? ORDER BY scheduled_for DESC LIMIT ? OFFSET ?`
		if err := r.db.SelectContext(ctx, &messages, query, *status, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get scheduled messages: %w", err)
		}
	} else {
		countQuery := "SELECT COUNT(*) FROM scheduled_messages"
		if err := r.db.GetContext(ctx, &totalCount, countQuery); err != nil {
			return nil, 0, fmt.Errorf("failed to count scheduled messages: %w", err)
		}

		query := `SELECT ` + scheduledColumns + ` FROM scheduled_messages
			ORDER BY scheduled_for DESC LIMIT ? OFFSET ?`
		if err := r.db.SelectContext(ctx, &messages, query, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to get scheduled messages: %w", err)
		}
	}

	return messages, totalCount, nil
}

func (r *ScheduledMessageRepository) Stats(ctx context.Context) (*domain.ScheduleStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'SENT' THEN 1 ELSE 0 END), 0)    AS sent,
			COALESCE(SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END), 0)  AS failed
		FROM scheduled_messages
	`

	var stats domain.ScheduleStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get scheduled message stats: %w", err)
	}

	return &stats, nil
}

// ListRetryable returns FAILED items that have not been retried yet.
func (r *ScheduledMessageRepository) ListRetryable(ctx context.Context) ([]domain.ScheduledMessage, error) {
	query := `
		SELECT ` + scheduledColumns + ` FROM scheduled_messages s
		WHERE s.status = 'FAILED'
		  AND NOT EXISTS (SELECT 1 FROM scheduled_messages r WHERE r.retry_of = s.id)
		ORDER BY s.scheduled_for ASC
	`

	failed := []domain.ScheduledMessage{}
	if err := r.db.SelectContext(ctx, &failed, query); err != nil {
		return nil, fmt.Errorf("failed to list failed scheduled messages: %w", err)
	}

	return failed, nil
}

// CreateRetry queues a PENDING copy of a FAILED item. The failed row is left untouched
// and can be retried at most once.
func (r *ScheduledMessageRepository) CreateRetry(
	ctx context.Context,
	failedID string,
	scheduledFor time.Time,
) (*domain.ScheduledMessage, error) {
	var retry domain.ScheduledMessage

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var failed domain.ScheduledMessage
		query := `SELECT ` + scheduledColumns + ` FROM scheduled_messages WHERE id = ?`
		if err := tx.GetContext(ctx, &failed, query, failedID); err != nil {
			return notFound(err, "scheduled message "+failedID)
		}
		if failed.Status != domain.ScheduleFailed {
			return fmt.Errorf("scheduled message %s is %s, only FAILED can be retried: %w",
				failedID, failed.Status, domain.ErrInvalidTransition)
		}

		var retries int
		if err := tx.GetContext(ctx, &retries,
			`SELECT COUNT(*) FROM scheduled_messages WHERE retry_of = ?`, failedID); err != nil {
			return fmt.Errorf("failed to check existing retries: %w", err)
		}
		if retries > 0 {
			return fmt.Errorf("scheduled message %s was already retried: %w", failedID, domain.ErrDuplicate)
		}

		retry = domain.ScheduledMessage{
			ContactID:    failed.ContactID,
			UserID:       failed.UserID,
			TemplateID:   failed.TemplateID,
			Channel:      failed.Channel,
			Body:         failed.Body,
			HTMLBody:     failed.HTMLBody,
			Subject:      failed.Subject,
			ScheduledFor: scheduledFor,
			RetryOf:      &failed.ID,
		}
		return insertScheduled(ctx, tx, &retry)
	})
	if err != nil {
		return nil, err
	}

	return &retry, nil
}
