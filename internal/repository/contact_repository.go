package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const contactColumns = `id, name, phone, email, status, tags, quick_notes, created_at, updated_at`

// ContactRepository handles database operations for contacts.
type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.ContactLead
	}
	now := utcNow()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `
		INSERT INTO contacts (id, name, phone, email, status, tags, quick_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Phone, c.Email, c.Status, c.Tags, c.QuickNotes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return duplicateOr(err, "failed to create contact")
	}

	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var contact domain.Contact
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		return nil, notFound(err, "contact "+id)
	}

	return &contact, nil
}

// FindByPhone returns the oldest contact with that phone number.
func (r *ContactRepository) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	var contact domain.Contact
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone = ? ORDER BY created_at ASC LIMIT 1`

	if err := r.db.GetContext(ctx, &contact, query, phone); err != nil {
		return nil, notFound(err, "contact with phone "+phone)
	}

	return &contact, nil
}

func (r *ContactRepository) List(ctx context.Context, filter domain.ContactFilter) ([]domain.ContactSummary, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 50, 200)

	var where []string
	var args []any

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, "(c.name LIKE ? OR c.phone LIKE ? OR c.email LIKE ?)")
		args = append(args, like, like, like)
	}
	if filter.Status != nil {
		where = append(where, "c.status = ?")
		args = append(args, *filter.Status)
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM contacts c "+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `
		SELECT c.id, c.name, c.phone, c.email, c.status, c.tags, c.quick_notes, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.contact_id = c.id AND m.direction = 'INBOUND' AND m.read_at IS NULL) AS unread_count
		FROM contacts c
		` + clause + `
		ORDER BY c.updated_at DESC
		LIMIT ? OFFSET ?
	`

	contacts := []domain.ContactSummary{}
	if err := r.db.SelectContext(ctx, &contacts, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, total, nil
}

// Update applies the non-nil fields of u and returns the stored row.
func (r *ContactRepository) Update(ctx context.Context, id string, u domain.ContactUpdate) (*domain.Contact, error) {
	sets := []string{"updated_at = ?"}
	args := []any{utcNow()}

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *u.Phone)
	}
	if u.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *u.Email)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if u.QuickNotes != nil {
		sets = append(sets, "quick_notes = ?")
		args = append(args, *u.QuickNotes)
	}
	if u.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, domain.StringList(*u.Tags))
	}

	query := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return nil, duplicateOr(err, "failed to update contact")
	}
	if err := expectOneRow(result, "contact "+id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// AdvanceStatus moves the contact to `to` only while it is still in `from`.
func (r *ContactRepository) AdvanceStatus(ctx context.Context, id string, from, to domain.ContactStatus) (bool, error) {
	query := `UPDATE contacts SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, to, utcNow(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to advance contact status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

func (r *ContactRepository) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET updated_at = ? WHERE id = ?`, utcNow(), id)
	if err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	return nil
}
