package sqlite

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/storage"
)

func setupTestDB(t *testing.T, opts storage.Options) (*SQLiteStore, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath, opts)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

func TestLoadCreatesDefaultDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("default people", func(t *testing.T) {
		store, _ := setupTestDB(t, storage.Options{})

		ledger, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !slices.Equal(ledger.People, models.DefaultPeople) {
			t.Errorf("expected default people %v, got %v", models.DefaultPeople, ledger.People)
		}
		if len(ledger.PaidDates) != 0 {
			t.Errorf("expected no payments, got %v", ledger.PaidDates)
		}
		if ledger.Chat == nil || len(ledger.Chat) != 0 {
			t.Errorf("expected empty chat, got %v", ledger.Chat)
		}
	})

	t.Run("seed people", func(t *testing.T) {
		store, _ := setupTestDB(t, storage.Options{SeedPeople: []string{"X", "Y", "Z"}})

		ledger, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !slices.Equal(ledger.People, []string{"X", "Y", "Z"}) {
			t.Errorf("people = %v", ledger.People)
		}
	})

	t.Run("default is persisted", func(t *testing.T) {
		store, dbPath := setupTestDB(t, storage.Options{SeedPeople: []string{"Solo"}})
		if _, err := store.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		store.Close()

		// Reopen with different seed; the stored document must win.
		reopened, err := New(dbPath, storage.Options{SeedPeople: []string{"Other"}})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer reopened.Close()

		ledger, err := reopened.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !slices.Equal(ledger.People, []string{"Solo"}) {
			t.Errorf("people = %v, want [Solo]", ledger.People)
		}
	})
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t, storage.Options{})

	ts := time.Date(2024, 3, 5, 14, 30, 15, 123000000, time.FixedZone("BRT", -3*60*60))
	ledger := &models.Ledger{
		People:    []string{"C", "A", "B"},
		PaidDates: map[string]string{"2024-01-01": "A", "2024-01-03": "Former"},
		Chat: []models.ChatMessage{
			{ID: "1", Author: "A", Text: "bought it", Timestamp: ts},
			{Author: "B", Text: "legacy message without id", Timestamp: ts.Add(time.Minute)},
		},
	}

	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !slices.Equal(loaded.People, ledger.People) {
		t.Errorf("people order lost: %v", loaded.People)
	}
	if len(loaded.PaidDates) != 2 || loaded.PaidDates["2024-01-03"] != "Former" {
		t.Errorf("paidDates = %v", loaded.PaidDates)
	}
	if len(loaded.Chat) != 2 {
		t.Fatalf("expected 2 chat messages, got %d", len(loaded.Chat))
	}
	if loaded.Chat[0].ID != "1" || loaded.Chat[0].Author != "A" || loaded.Chat[0].Text != "bought it" {
		t.Errorf("first message = %+v", loaded.Chat[0])
	}
	if !loaded.Chat[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", loaded.Chat[0].Timestamp, ts)
	}
	if loaded.Chat[1].ID != "" || loaded.Chat[1].Author != "B" {
		t.Errorf("second message = %+v", loaded.Chat[1])
	}
}

func TestSaveReplacesDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t, storage.Options{})

	first := models.NewLedger([]string{"A", "B"})
	first.PaidDates["2024-01-01"] = "A"
	first.Chat = append(first.Chat, models.ChatMessage{Author: "A", Text: "hi", Timestamp: time.Now()})
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := models.NewLedger([]string{"B"})
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !slices.Equal(loaded.People, []string{"B"}) {
		t.Errorf("people = %v", loaded.People)
	}
	if len(loaded.PaidDates) != 0 || len(loaded.Chat) != 0 {
		t.Errorf("stale rows survived: %v %v", loaded.PaidDates, loaded.Chat)
	}
}

func TestEmptyRotationSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t, storage.Options{})

	if err := store.Save(ctx, models.NewLedger([]string{})); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.People) != 0 {
		t.Errorf("empty rotation was reseeded: %v", loaded.People)
	}
}

func TestRoundTripIsStable(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t, storage.Options{})

	ledger, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ledger.PaidDates["2024-02-02"] = ledger.People[0]
	ledger.Chat = append(ledger.Chat, models.ChatMessage{ID: "x", Author: "Z", Text: "t", Timestamp: time.Unix(1700000000, 0)})
	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	once, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Save(ctx, once); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	twice, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !slices.Equal(once.People, twice.People) || len(once.PaidDates) != len(twice.PaidDates) {
		t.Errorf("round trip changed document: %+v vs %+v", once, twice)
	}
	for date, name := range once.PaidDates {
		if twice.PaidDates[date] != name {
			t.Errorf("payment %s changed: %q vs %q", date, name, twice.PaidDates[date])
		}
	}
	if len(twice.Chat) != 1 || !twice.Chat[0].Timestamp.Equal(once.Chat[0].Timestamp) {
		t.Errorf("chat changed: %+v vs %+v", once.Chat, twice.Chat)
	}
}
