package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const templateColumns = `id, name, body, html_body, channel, trigger_type, delay_days, is_active, created_at, updated_at`

type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, t *domain.MessageTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.TriggerType == "" {
		t.TriggerType = domain.TriggerTimeBased
	}
	now := utcNow()
	t.IsActive = true
	t.CreatedAt, t.UpdatedAt = now, now

	query := `INSERT INTO message_templates (` + templateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Body, t.HTMLBody, t.Channel, t.TriggerType, t.DelayDays, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetByID returns active and inactive templates alike.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.MessageTemplate, error) {
	var t domain.MessageTemplate
	query := `SELECT ` + templateColumns + ` FROM message_templates WHERE id = ?`

	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, notFound(err, "template "+id)
	}

	return &t, nil
}

func (r *TemplateRepository) ListActive(ctx context.Context) ([]domain.MessageTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM message_templates WHERE is_active = ? ORDER BY created_at DESC`

	templates := []domain.MessageTemplate{}
	if err := r.db.SelectContext(ctx, &templates, query, true); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) Update(ctx context.Context, id string, u domain.TemplateUpdate) (*domain.MessageTemplate, error) {
	sets := []string{"updated_at = ?"}
	args := []any{utcNow()}

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *u.Body)
	}
	if u.HTMLBody != nil {
		sets = append(sets, "html_body = ?")
		args = append(args, *u.HTMLBody)
	}
	if u.Channel != nil {
		sets = append(sets, "channel = ?")
		args = append(args, *u.Channel)
	}
	if u.TriggerType != nil {
		sets = append(sets, "trigger_type = ?")
		args = append(args, *u.TriggerType)
	}
	if u.DelayDays != nil {
		sets = append(sets, "delay_days = ?")
		args = append(args, *u.DelayDays)
	}

	query := "UPDATE message_templates SET " + strings.Join(sets, ", ") + " WHERE id = ? AND is_active = ?"
	result, err := r.db.ExecContext(ctx, query, append(args, id, true)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	if err := expectOneRow(result, "template "+id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Deactivate soft-deletes a template.
func (r *TemplateRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE message_templates SET is_active = ?, updated_at = ? WHERE id = ? AND is_active = ?`

	result, err := r.db.ExecContext(ctx, query, false, utcNow(), id, true)
	if err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}

	return expectOneRow(result, "template "+id)
}
