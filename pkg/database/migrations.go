package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NULL,
		phone VARCHAR(32) NULL,
		email VARCHAR(255) NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'LEAD',
		tags TEXT NULL,
		quick_notes TEXT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_contacts_phone (phone),
		INDEX idx_contacts_email (email),
		INDEX idx_contacts_updated_at (updated_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS messages (
		id CHAR(36) NOT NULL PRIMARY KEY,
		contact_id CHAR(36) NOT NULL,
		user_id VARCHAR(64) NULL,
		channel VARCHAR(20) NOT NULL,
		direction VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		body TEXT NOT NULL,
		html_body MEDIUMTEXT NULL,
		media_urls TEXT NULL,
		external_id VARCHAR(64) NULL,
		scheduled_for DATETIME(3) NULL,
		error_message TEXT NULL,
		metadata TEXT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		sent_at DATETIME(3) NULL,
		delivered_at DATETIME(3) NULL,
		read_at DATETIME(3) NULL,
		UNIQUE KEY uq_messages_external_id (external_id),
		INDEX idx_messages_contact_created (contact_id, created_at),
		INDEX idx_messages_status (status),
		CONSTRAINT fk_messages_contact FOREIGN KEY (contact_id) REFERENCES contacts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS message_templates (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		html_body MEDIUMTEXT NULL,
		channel VARCHAR(20) NOT NULL,
		trigger_type VARCHAR(20) NOT NULL DEFAULT 'TIME_BASED',
		delay_days INT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_templates_active (is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS scheduled_messages (
		id CHAR(36) NOT NULL PRIMARY KEY,
		contact_id CHAR(36) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		template_id CHAR(36) NULL,
		channel VARCHAR(20) NOT NULL,
		body TEXT NOT NULL,
		html_body MEDIUMTEXT NULL,
		subject VARCHAR(255) NULL,
		scheduled_for DATETIME(3) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		sent_at DATETIME(3) NULL,
		error_message TEXT NULL,
		message_id CHAR(36) NULL,
		retry_of CHAR(36) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_scheduled_due (status, scheduled_for),
		INDEX idx_scheduled_contact (contact_id),
		INDEX idx_scheduled_retry_of (retry_of),
		CONSTRAINT fk_scheduled_contact FOREIGN KEY (contact_id) REFERENCES contacts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS notes (
		id CHAR(36) NOT NULL PRIMARY KEY,
		contact_id CHAR(36) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		is_private TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		INDEX idx_notes_contact (contact_id, created_at),
		CONSTRAINT fk_notes_contact FOREIGN KEY (contact_id) REFERENCES contacts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NULL,
		phone TEXT NULL,
		email TEXT NULL,
		status TEXT NOT NULL DEFAULT 'LEAD',
		tags TEXT NULL,
		quick_notes TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts (phone)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_updated_at ON contacts (updated_at)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT NOT NULL PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		user_id TEXT NULL,
		channel TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		body TEXT NOT NULL,
		html_body TEXT NULL,
		media_urls TEXT NULL,
		external_id TEXT NULL,
		scheduled_for DATETIME NULL,
		error_message TEXT NULL,
		metadata TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		sent_at DATETIME NULL,
		delivered_at DATETIME NULL,
		read_at DATETIME NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_messages_external_id ON messages (external_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_contact_created ON messages (contact_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS message_templates (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		body TEXT NOT NULL,
		html_body TEXT NULL,
		channel TEXT NOT NULL,
		trigger_type TEXT NOT NULL DEFAULT 'TIME_BASED',
		delay_days INTEGER NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_messages (
		id TEXT NOT NULL PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		user_id TEXT NOT NULL,
		template_id TEXT NULL,
		channel TEXT NOT NULL,
		body TEXT NOT NULL,
		html_body TEXT NULL,
		subject TEXT NULL,
		scheduled_for DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		sent_at DATETIME NULL,
		error_message TEXT NULL,
		message_id TEXT NULL,
		retry_of TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_due ON scheduled_messages (status, scheduled_for)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_retry_of ON scheduled_messages (retry_of)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT NOT NULL PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		is_private INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_contact ON notes (contact_id, created_at)`,
}

// RunMigrations creates every table and index if missing.
func RunMigrations(db *sqlx.DB) error {
	schema := mysqlSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed (%s, %d statements)", db.DriverName(), len(schema))

	return nil
}
