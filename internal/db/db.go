package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
// The properties and users tables belong to the listing and user services
// sharing the marketplace database; only messaging tables are created here.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            receiver_id INT NOT NULL,
            property_id INT NOT NULL,
            content TEXT NOT NULL CHECK (char_length(content) BETWEEN 1 AND 1000),
            message_type TEXT NOT NULL DEFAULT 'text'
                CHECK (message_type IN ('text', 'image', 'offer')),
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            read_at TIMESTAMPTZ,
            offer_amount NUMERIC,
            offer_currency TEXT,
            offer_expires_at TIMESTAMPTZ,
            offer_status TEXT
                CHECK (offer_status IS NULL OR offer_status IN ('pending', 'accepted', 'rejected', 'expired')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (sender_id <> receiver_id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_participants
            ON messages (sender_id, receiver_id, property_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at
            ON messages (created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread
            ON messages (receiver_id) WHERE is_read = FALSE;`,
		`CREATE TABLE IF NOT EXISTS message_attachments (
            id SERIAL PRIMARY KEY,
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            filename TEXT NOT NULL,
            content_type TEXT NOT NULL,
            data BYTEA NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            recipient_id INT NOT NULL,
            sender_id INT,
            type TEXT NOT NULL CHECK (type IN (
                'new_message', 'property_approved', 'property_rejected',
                'property_approval_needed', 'new_property_match',
                'offer_received', 'offer_accepted', 'offer_rejected',
                'property_sold', 'property_rented')),
            title VARCHAR(100) NOT NULL,
            message VARCHAR(500) NOT NULL,
            related_property_id INT,
            related_message_id INT,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            read_at TIMESTAMPTZ,
            action_url TEXT,
            priority TEXT NOT NULL DEFAULT 'medium'
                CHECK (priority IN ('low', 'medium', 'high')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
            ON notifications (recipient_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread
            ON notifications (recipient_id) WHERE is_read = FALSE;`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
