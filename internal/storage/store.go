// Package storage provides abstractions for persisting the ledger document.
package storage

import (
	"context"

	"github.com/mmynk/sodarota/internal/models"
)

// Store defines the document store the services load from and save to.
// This abstraction allows swapping storage backends (SQLite, a JSON file,
// MongoDB) without changing the service layer.
//
// There is no locking across a Load/Save pair: two concurrent writers race
// and the last Save wins.
type Store interface {
	// Load returns the current document. When none exists yet, it creates the
	// default document, persists it and returns it.
	Load(ctx context.Context) (*models.Ledger, error)

	// Save replaces the whole document atomically. A failed Save leaves the
	// previous document intact.
	Save(ctx context.Context, ledger *models.Ledger) error

	// Close releases any resources held by the store.
	Close() error
}

// Options configures how a backend seeds a brand-new document.
type Options struct {
	// SeedPeople is the rotation of the default document. Nil means
	// models.DefaultPeople.
	SeedPeople []string
}

// DefaultLedger builds the document a backend persists on first Load.
func (o Options) DefaultLedger() *models.Ledger {
	return models.NewLedger(o.SeedPeople)
}
