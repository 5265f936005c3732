// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	opts storage.Options
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts storage.Options) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers inside this process; SQLite allows a
	// single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, opts: opts}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the document, creating the default one on first use.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var createdAt int64
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM ledger_meta WHERE id = 1").Scan(&createdAt)
	if err == sql.ErrNoRows {
		ledger := s.opts.DefaultLedger()
		if err := writeLedger(ctx, tx, ledger); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit default ledger: %w", err)
		}
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger metadata: %w", err)
	}

	ledger := models.NewLedger([]string{})

	// Get people in rotation order
	rows, err := tx.QueryContext(ctx, "SELECT name FROM people ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to get people: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		ledger.People = append(ledger.People, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}

	// Get payments
	paidRows, err := tx.QueryContext(ctx, "SELECT date, name FROM paid_dates")
	if err != nil {
		return nil, fmt.Errorf("failed to get paid dates: %w", err)
	}
	for paidRows.Next() {
		var date, name string
		if err := paidRows.Scan(&date, &name); err != nil {
			paidRows.Close()
			return nil, fmt.Errorf("failed to scan paid date: %w", err)
		}
		ledger.PaidDates[date] = name
	}
	paidRows.Close()
	if err := paidRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate paid dates: %w", err)
	}

	// Get chat in append order
	chatRows, err := tx.QueryContext(ctx,
		"SELECT id, user_name, text, timestamp FROM chat_messages ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer chatRows.Close()

	for chatRows.Next() {
		var msg models.ChatMessage
		var timestamp string
		if err := chatRows.Scan(&msg.ID, &msg.Author, &msg.Text, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse chat timestamp %q: %w", timestamp, err)
		}
		ledger.Chat = append(ledger.Chat, msg)
	}
	if err := chatRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return ledger, nil
}

// Save replaces every table's contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, ledger *models.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeLedger(ctx, tx, ledger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// writeLedger replaces the stored document with ledger inside tx.
func writeLedger(ctx context.Context, tx *sql.Tx, ledger *models.Ledger) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO ledger_meta (id, created_at) VALUES (1, ?)",
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write ledger metadata: %w", err)
	}

	for _, table := range []string{"people", "paid_dates", "chat_messages"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Insert people keeping their rotation position
	for i, name := range ledger.People {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO people (position, name) VALUES (?, ?)",
			i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
	}

	// Insert payments
	for date, name := range ledger.PaidDates {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO paid_dates (date, name) VALUES (?, ?)",
			date, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert paid date: %w", err)
		}
	}

	// Insert chat messages
	for i, msg := range ledger.Chat {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chat_messages (seq, id, user_name, text, timestamp) VALUES (?, ?, ?, ?, ?)",
			i, msg.ID, msg.Author, msg.Text, msg.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
	}

	return nil
}
