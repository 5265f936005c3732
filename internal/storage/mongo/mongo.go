// Package mongo stores the ledger as one MongoDB document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/storage"
)

const (
	colLedger  = "ledger"
	documentID = "ledger"
)

// compile-time interface check
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a single document of the "ledger" collection.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
	opts   storage.Options
}

// ledgerDocument is the stored shape: the ledger plus its fixed _id.
type ledgerDocument struct {
	ID        string               `bson:"_id"`
	People    []string             `bson:"people"`
	PaidDates map[string]string    `bson:"paidDates"`
	Chat      []models.ChatMessage `bson:"chat"`
}

// Connect opens a client for uri and pings it.
func Connect(ctx context.Context, uri, database string, opts storage.Options) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("sodarota/mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("sodarota/mongo: ping: %w", err)
	}

	return New(client, database, opts), nil
}

// New wraps an existing client. Close disconnects it.
func New(client *mongo.Client, database string, opts storage.Options) *Store {
	return &Store{
		client: client,
		col:    client.Database(database).Collection(colLedger),
		opts:   opts,
	}
}

// Load returns the ledger document, upserting the default one when absent.
func (s *Store) Load(ctx context.Context) (*models.Ledger, error) {
	var doc ledgerDocument
	err := s.col.FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if isNoDocuments(err) {
		ledger := s.opts.DefaultLedger()
		if err := s.Save(ctx, ledger); err != nil {
			return nil, err
		}
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sodarota/mongo: load ledger: %w", err)
	}

	ledger := &models.Ledger{People: doc.People, PaidDates: doc.PaidDates, Chat: doc.Chat}
	ledger.Normalize()
	return ledger, nil
}

// Save replaces the ledger document. A single-document replace is atomic.
func (s *Store) Save(ctx context.Context, ledger *models.Ledger) error {
	clone := ledger.Clone()
	clone.Normalize()
	doc := ledgerDocument{
		ID:        documentID,
		People:    clone.People,
		PaidDates: clone.PaidDates,
		Chat:      clone.Chat,
	}

	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": documentID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("sodarota/mongo: save ledger: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
