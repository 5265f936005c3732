package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/sodarota/internal/config"
	"github.com/mmynk/sodarota/internal/storage"
	"github.com/mmynk/sodarota/internal/storage/jsonfile"
	"github.com/mmynk/sodarota/internal/storage/mongo"
	"github.com/mmynk/sodarota/internal/storage/sqlite"
)

// openStore opens the document store selected by STORAGE_BACKEND.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	opts := storage.Options{SeedPeople: cfg.SeedPeople}

	switch cfg.StorageBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.StorageBackend, "database", cfg.DBPath)
		return store, nil
	case config.BackendJSON:
		store, err := jsonfile.New(cfg.DataFile, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.StorageBackend, "file", store.Path())
		return store, nil
	case config.BackendMongo:
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.StorageBackend, "database", cfg.MongoDatabase)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
