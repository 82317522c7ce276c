package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

// SeedUserID owns the seeded scheduled messages.
const SeedUserID = "seed-operator"

func SeedTestData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM contacts")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d contacts, skipping seed", count)
		return nil
	}

	now := time.Now().UTC()

	testContacts := []struct {
		name   string
		phone  string
		email  string
		status string
	}{
		{"Ada Lovelace", "+15551230001", "ada@example.com", "LEAD"},
		{"Grace Hopper", "+15551230002", "grace@example.com", "CONTACTED"},
		{"Alan Turing", "+15551230003", "", "RESPONDED"},
		{"Katherine Johnson", "", "katherine@example.com", "QUALIFIED"},
		{"Linus Pauling", "+15551230005", "linus@example.com", "CLOSED"},
	}

	contactIDs := make([]string, 0, len(testContacts))
	for _, c := range testContacts {
		id := uuid.NewString()
		_, err := db.Exec(
			`INSERT INTO contacts (id, name, phone, email, status, tags, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, c.name, nullable(c.phone), nullable(c.email), c.status, `["seed"]`, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed contacts: %w", err)
		}
		contactIDs = append(contactIDs, id)
	}

	testTemplates := []struct {
		name      string
		body      string
		channel   string
		trigger   string
		delayDays any
	}{
		{"Welcome", "Hi! Thanks for reaching out, we will get back to you shortly.", "SMS", "EVENT_BASED", nil},
		{"Follow up", "Just checking in, any questions about our offer?", "WHATSAPP", "TIME_BASED", 3},
		{"Newsletter", "Here is what is new this month.", "EMAIL", "TIME_BASED", 30},
	}

	for _, t := range testTemplates {
		_, err := db.Exec(
			`INSERT INTO message_templates (id, name, body, channel, trigger_type, delay_days, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), t.name, t.body, t.channel, t.trigger, t.delayDays, true, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed templates: %w", err)
		}
	}

	testScheduled := []struct {
		contact int
		channel string
		body    string
		in      time.Duration
	}{
		{0, "SMS", "Reminder: your demo is tomorrow at 10 AM", 2 * time.Minute},
		{3, "EMAIL", "Your quarterly summary is ready.", time.Hour},
	}

	for _, s := range testScheduled {
		_, err := db.Exec(
			`INSERT INTO scheduled_messages (id, contact_id, user_id, channel, body, scheduled_for, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 'PENDING', ?, ?)`,
			uuid.NewString(), contactIDs[s.contact], SeedUserID, s.channel, s.body, now.Add(s.in), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed scheduled messages: %w", err)
		}
	}

	logger.Infof("Seeded %d contacts, %d templates, %d scheduled messages",
		len(testContacts), len(testTemplates), len(testScheduled))
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
