package domain

import "time"

type Contact struct {
	ID         string        `db:"id" json:"id"`
	Name       *string       `db:"name" json:"name,omitempty"`
	Phone      *string       `db:"phone" json:"phone,omitempty"`
	Email      *string       `db:"email" json:"email,omitempty"`
	Status     ContactStatus `db:"status" json:"status"`
	Tags       StringList    `db:"tags" json:"tags"`
	QuickNotes *string       `db:"quick_notes" json:"quickNotes,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updatedAt"`
}

// ContactSummary is a contact row as shown in the inbox list.
type ContactSummary struct {
	Contact
	UnreadCount int64 `db:"unread_count" json:"unreadCount"`
}

// ContactDetail is the contact profile with its recent history.
type ContactDetail struct {
	Contact
	Messages []Message `json:"messages"`
	Notes    []Note    `json:"notes"`
}

// ContactUpdate carries the fields of a partial profile edit. Nil means unchanged.
type ContactUpdate struct {
	Name       *string
	Phone      *string
	Email      *string
	Status     *ContactStatus
	QuickNotes *string
	Tags       *[]string
}

type ContactFilter struct {
	Search string
	Status *ContactStatus
	Limit  int
	Offset int
}

type Note struct {
	ID        string    `db:"id" json:"id"`
	ContactID string    `db:"contact_id" json:"contactId"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	IsPrivate bool      `db:"is_private" json:"isPrivate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
