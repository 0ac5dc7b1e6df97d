package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type DB struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewDB(path string, log zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	log.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS customers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            phone TEXT,
            address TEXT,
            stripe_customer_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT UNIQUE NOT NULL,
            customer_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            customer_phone TEXT,
            service_address TEXT NOT NULL,
            service_type TEXT NOT NULL,
            amount REAL NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK(status IN ('pending', 'confirmed', 'completed', 'cancelled')),
            scheduled_date TEXT NOT NULL,
            scheduled_time TEXT NOT NULL,
            notes TEXT,
            recurring_type TEXT NOT NULL DEFAULT 'one-time',
            recurring_frequency TEXT,
            discount_percentage INTEGER NOT NULL DEFAULT 0,
            bedrooms INTEGER NOT NULL DEFAULT 0,
            bathrooms REAL NOT NULL DEFAULT 0,
            oven_cleaning BOOLEAN NOT NULL DEFAULT 0,
            oven_count INTEGER NOT NULL DEFAULT 0,
            microwave_dishwasher_cleaning BOOLEAN NOT NULL DEFAULT 0,
            microwave_dishwasher_count INTEGER NOT NULL DEFAULT 0,
            refrigerator_cleaning BOOLEAN NOT NULL DEFAULT 0,
            refrigerator_count INTEGER NOT NULL DEFAULT 0,
            wall_cleaning BOOLEAN NOT NULL DEFAULT 0,
            wall_rooms_count INTEGER NOT NULL DEFAULT 0,
            interior_window_cleaning BOOLEAN NOT NULL DEFAULT 0,
            exterior_window_cleaning BOOLEAN NOT NULL DEFAULT 0,
            exterior_windows_count INTEGER NOT NULL DEFAULT 0,
            laundry_service BOOLEAN NOT NULL DEFAULT 0,
            laundry_loads INTEGER NOT NULL DEFAULT 0,
            make_beds BOOLEAN NOT NULL DEFAULT 0,
            beds_count INTEGER NOT NULL DEFAULT 0,
            trash_removal BOOLEAN NOT NULL DEFAULT 0,
            trash_bags INTEGER NOT NULL DEFAULT 0,
            stripe_payment_intent_id TEXT,
            stripe_session_id TEXT,
            stripe_subscription_id TEXT,
            calendar_event_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_scheduled_date ON bookings(scheduled_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer_email ON bookings(customer_email)`,

		// The reconciler may see the same Stripe event more than once.
		// Uniqueness lives in the schema so a replay fails the insert
		// instead of duplicating the visit.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_session_id
            ON bookings(stripe_session_id)
            WHERE stripe_session_id IS NOT NULL AND stripe_session_id != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_subscription_date
            ON bookings(stripe_subscription_id, scheduled_date)
            WHERE stripe_subscription_id IS NOT NULL AND stripe_subscription_id != ''`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %v", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
