package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/sodarota/internal/auth"
	"github.com/mmynk/sodarota/internal/ledger"
	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/storage"
	"github.com/mmynk/sodarota/internal/storage/sqlite"
)

// fixedNow is a Wednesday, purchase day 2 of 2024.
var fixedNow = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mutations []string
	chats     int
	logins    []bool
}

func (o *recordingObserver) ObserveMutation(op string, _ *models.Ledger) {
	o.mutations = append(o.mutations, op)
}
func (o *recordingObserver) ObserveChatMessage() { o.chats++ }
func (o *recordingObserver) ObserveLogin(ok bool) {
	o.logins = append(o.logins, ok)
}

// setupTestStore creates a temporary SQLite store seeded with people.
func setupTestStore(t *testing.T, people []string) storage.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "sodarota-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	store, err := sqlite.New(filepath.Join(tmpDir, "test.db"), storage.Options{SeedPeople: people})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})
	return store
}

func testConfig(observer Observer) Config {
	return Config{
		Now:      func() time.Time { return fixedNow },
		Location: time.UTC,
		Observer: observer,
	}
}

// failingStore is an in-memory store with injectable failures.
type failingStore struct {
	doc     *models.Ledger
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(context.Context) (*models.Ledger, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.doc.Clone(), nil
}

func (s *failingStore) Save(_ context.Context, doc *models.Ledger) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.doc = doc.Clone()
	return nil
}

func (s *failingStore) Close() error { return nil }

func TestToggleToday(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the injected clock", func(t *testing.T) {
		observer := &recordingObserver{}
		svc := NewLedgerService(setupTestStore(t, []string{"A", "B"}), testConfig(observer))

		paid, err := svc.ToggleToday(ctx, "")
		if err != nil {
			t.Fatalf("ToggleToday failed: %v", err)
		}
		if paid["2024-01-03"] != "B" {
			t.Errorf("paidDates = %v, want 2024-01-03 -> B", paid)
		}
		if !slices.Equal(observer.mutations, []string{OpToggleToday}) {
			t.Errorf("observed mutations = %v", observer.mutations)
		}
	})

	t.Run("caller date wins and persists", func(t *testing.T) {
		store := setupTestStore(t, []string{"A", "B"})
		svc := NewLedgerService(store, testConfig(nil))

		// The caller is a day behind the server; 2024-01-02 belongs to index 1.
		if _, err := svc.ToggleToday(ctx, "2024-01-02"); err != nil {
			t.Fatalf("ToggleToday failed: %v", err)
		}
		view, err := svc.PublicView(ctx)
		if err != nil {
			t.Fatalf("PublicView failed: %v", err)
		}
		if view.PaidDates["2024-01-02"] != "A" {
			t.Errorf("paidDates = %v", view.PaidDates)
		}

		paid, err := svc.ToggleToday(ctx, "2024-01-02")
		if err != nil {
			t.Fatalf("second ToggleToday failed: %v", err)
		}
		if len(paid) != 0 {
			t.Errorf("second toggle should clear, got %v", paid)
		}
	})

	t.Run("dates more than a day away are rejected", func(t *testing.T) {
		store := setupTestStore(t, []string{"A", "B"})
		svc := NewLedgerService(store, testConfig(nil))
		if _, err := svc.SetPayment(ctx, "2023-06-01", "A"); err != nil {
			t.Fatal(err)
		}

		for _, date := range []string{"2023-06-01", "2024-01-01", "2024-01-05", "2099-12-31"} {
			_, err := svc.ToggleToday(ctx, date)
			var vErr *ledger.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != "date" {
				t.Errorf("ToggleToday(%s) = %v, want date validation error", date, err)
			}
		}

		view, err := svc.PublicView(ctx)
		if err != nil {
			t.Fatalf("PublicView failed: %v", err)
		}
		if len(view.PaidDates) != 1 || view.PaidDates["2023-06-01"] != "A" {
			t.Errorf("rejected toggles changed paidDates: %v", view.PaidDates)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		svc := NewLedgerService(setupTestStore(t, []string{"A"}), testConfig(nil))
		_, err := svc.ToggleToday(ctx, "03/01/2024")
		var vErr *ledger.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("empty rotation records nothing", func(t *testing.T) {
		svc := NewLedgerService(setupTestStore(t, []string{}), testConfig(nil))
		paid, err := svc.ToggleToday(ctx, "")
		if err != nil {
			t.Fatalf("ToggleToday failed: %v", err)
		}
		if len(paid) != 0 {
			t.Errorf("paidDates = %v", paid)
		}
	})
}

func TestPeople(t *testing.T) {
	ctx := context.Background()
	observer := &recordingObserver{}
	svc := NewLedgerService(setupTestStore(t, []string{"A", "B"}), testConfig(observer))

	people, err := svc.AddPerson(ctx, "C")
	if err != nil {
		t.Fatalf("AddPerson failed: %v", err)
	}
	if !slices.Equal(people, []string{"A", "B", "C"}) {
		t.Errorf("people = %v", people)
	}

	t.Run("duplicate is a silent success", func(t *testing.T) {
		people, err := svc.AddPerson(ctx, "A")
		if err != nil {
			t.Fatalf("AddPerson duplicate returned %v", err)
		}
		if !slices.Equal(people, []string{"A", "B", "C"}) {
			t.Errorf("people = %v", people)
		}
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		var vErr *ledger.ValidationError
		if _, err := svc.AddPerson(ctx, " "); !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("remove prunes payments", func(t *testing.T) {
		if _, err := svc.SetPayment(ctx, "2024-01-01", "A"); err != nil {
			t.Fatalf("SetPayment failed: %v", err)
		}
		if _, err := svc.SetPayment(ctx, "2024-01-03", "B"); err != nil {
			t.Fatalf("SetPayment failed: %v", err)
		}

		people, err := svc.RemovePerson(ctx, "A")
		if err != nil {
			t.Fatalf("RemovePerson failed: %v", err)
		}
		if !slices.Equal(people, []string{"B", "C"}) {
			t.Errorf("people = %v", people)
		}

		doc, err := svc.Document(ctx)
		if err != nil {
			t.Fatalf("Document failed: %v", err)
		}
		if _, ok := doc.PaidDates["2024-01-01"]; ok || doc.PaidDates["2024-01-03"] != "B" {
			t.Errorf("paidDates = %v", doc.PaidDates)
		}
	})

	want := []string{OpAddPerson, OpSetPayment, OpSetPayment, OpRemovePerson}
	if !slices.Equal(observer.mutations, want) {
		t.Errorf("observed mutations = %v, want %v", observer.mutations, want)
	}
}

func TestAddPersonLogsOnlyNewNames(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, []string{"A", "B"})
	var buf bytes.Buffer
	cfg := testConfig(nil)
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewLedgerService(store, cfg)

	if _, err := svc.AddPerson(ctx, "A"); err != nil {
		t.Fatalf("AddPerson duplicate returned %v", err)
	}
	if out := buf.String(); strings.Contains(out, "person added") || !strings.Contains(out, "person already in rotation") {
		t.Errorf("duplicate add logged %q", out)
	}

	buf.Reset()
	if _, err := svc.AddPerson(ctx, "C"); err != nil {
		t.Fatalf("AddPerson failed: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "person added") || !strings.Contains(out, "people_count=3") {
		t.Errorf("add logged %q", out)
	}
}

func TestSetPaymentAndReset(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(setupTestStore(t, []string{"A", "B"}), testConfig(nil))

	paid, err := svc.SetPayment(ctx, "2024-01-01", "Visitor")
	if err != nil {
		t.Fatalf("SetPayment failed: %v", err)
	}
	if paid["2024-01-01"] != "Visitor" {
		t.Errorf("paidDates = %v", paid)
	}

	paid, err = svc.SetPayment(ctx, "2024-01-01", "")
	if err != nil {
		t.Fatalf("clearing failed: %v", err)
	}
	if len(paid) != 0 {
		t.Errorf("paidDates = %v after clear", paid)
	}

	if _, err := svc.SetPayment(ctx, "2024-13-01", "A"); err == nil {
		t.Error("expected error for invalid date")
	}

	for _, date := range []string{"2024-01-01", "2024-01-03"} {
		if _, err := svc.SetPayment(ctx, date, "A"); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPurchases != 0 || stats.LastPurchase != "" {
		t.Errorf("stats after reset = %+v", stats)
	}
}

func TestReadViews(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(setupTestStore(t, []string{"A", "B"}), testConfig(nil))

	for date, name := range map[string]string{"2024-01-01": "A", "2024-01-03": "B", "2023-12-31": "A"} {
		if _, err := svc.SetPayment(ctx, date, name); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("today", func(t *testing.T) {
		view, err := svc.Today(ctx)
		if err != nil {
			t.Fatalf("Today failed: %v", err)
		}
		if view.Date != "2024-01-03" || !view.PurchaseDay || view.Responsible != "B" || !view.Paid {
			t.Errorf("today = %+v", view)
		}
		if !slices.Equal(view.People, []string{"A", "B"}) {
			t.Errorf("people = %v", view.People)
		}
	})

	t.Run("upcoming starts after today", func(t *testing.T) {
		upcoming, err := svc.Upcoming(ctx, 2)
		if err != nil {
			t.Fatalf("Upcoming failed: %v", err)
		}
		want := []models.Assignment{{Date: "2024-01-05", Person: "A"}, {Date: "2024-01-07", Person: "B"}}
		if !slices.Equal(upcoming, want) {
			t.Errorf("upcoming = %v, want %v", upcoming, want)
		}
	})

	t.Run("history", func(t *testing.T) {
		history, err := svc.History(ctx, 5)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 3 || history[0].Date != "2024-01-03" {
			t.Errorf("history = %v", history)
		}
	})

	t.Run("ranking", func(t *testing.T) {
		ranking, err := svc.Ranking(ctx)
		if err != nil {
			t.Fatalf("Ranking failed: %v", err)
		}
		want := []ledger.RankEntry{{Name: "A", Count: 2}, {Name: "B", Count: 1}}
		if !slices.Equal(ranking, want) {
			t.Errorf("ranking = %v", ranking)
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.TotalPurchases != 3 || stats.LastPurchase != "2024-01-03" || len(stats.Counts) != 2 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("calendar defaults to current month", func(t *testing.T) {
		days, err := svc.Calendar(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Calendar failed: %v", err)
		}
		if len(days) != 31 || days[2].Payer != "B" {
			t.Errorf("calendar = %+v", days[:3])
		}
	})

	t.Run("calendar rejects bad month", func(t *testing.T) {
		var vErr *ledger.ValidationError
		if _, err := svc.Calendar(ctx, 2024, 13); !errors.As(err, &vErr) || vErr.Field != "month" {
			t.Errorf("expected month validation error, got %v", err)
		}
	})

	t.Run("balances", func(t *testing.T) {
		if _, err := svc.SetPayment(ctx, "2024-01-05", "B"); err != nil {
			t.Fatal(err)
		}
		balances, err := svc.Balances(ctx)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if len(balances.Members) != 2 || balances.Members[0].Net != -1 || balances.Members[1].Net != 1 {
			t.Errorf("members = %+v", balances.Members)
		}
		if len(balances.Debts) != 1 || balances.Debts[0].From != "A" || balances.Debts[0].To != "B" {
			t.Errorf("debts = %+v", balances.Debts)
		}
	})
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	t.Run("load failure", func(t *testing.T) {
		svc := NewLedgerService(&failingStore{loadErr: boom}, testConfig(nil))
		if _, err := svc.PublicView(ctx); !errors.Is(err, boom) {
			t.Errorf("expected wrapped storage error, got %v", err)
		}
	})

	t.Run("save failure is reported", func(t *testing.T) {
		observer := &recordingObserver{}
		store := &failingStore{doc: models.NewLedger([]string{"A"}), saveErr: boom}
		svc := NewLedgerService(store, testConfig(observer))
		if _, err := svc.ToggleToday(ctx, ""); !errors.Is(err, boom) {
			t.Errorf("expected wrapped storage error, got %v", err)
		}
		if len(observer.mutations) != 0 {
			t.Errorf("failed save was observed: %v", observer.mutations)
		}
	})

	t.Run("validation failure does not save", func(t *testing.T) {
		store := &failingStore{doc: models.NewLedger([]string{"A"})}
		svc := NewLedgerService(store, testConfig(nil))
		if _, err := svc.SetPayment(ctx, "bad", "A"); err == nil {
			t.Fatal("expected validation error")
		}
		if store.saves != 0 {
			t.Errorf("store saved %d times", store.saves)
		}
	})
}

func TestChatService(t *testing.T) {
	ctx := context.Background()
	observer := &recordingObserver{}
	store := setupTestStore(t, nil)
	svc := NewChatService(store, func() string { return "msg-1" }, testConfig(observer))

	msg, err := svc.Post(ctx, "  Lais ", " oi ")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if msg.ID != "msg-1" || msg.Author != "Lais" || msg.Text != "oi" || !msg.Timestamp.Equal(fixedNow) {
		t.Errorf("message = %+v", msg)
	}

	messages, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "msg-1" {
		t.Errorf("messages = %+v", messages)
	}
	if observer.chats != 1 {
		t.Errorf("observed chats = %d", observer.chats)
	}

	longName := strings.Repeat("a", MaxChatNameLength+1)
	longText := strings.Repeat("b", MaxChatTextLength+1)
	tests := []struct {
		name     string
		userName string
		text     string
		field    string
	}{
		{"missing name", "", "hi", "userName"},
		{"missing text", "Ana", "   ", "text"},
		{"name too long", longName, "hi", "userName"},
		{"text too long", "Ana", longText, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vErr *ledger.ValidationError
			if _, err := svc.Post(ctx, tt.userName, tt.text); !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}

	messages, _ = svc.List(ctx)
	if len(messages) != 1 {
		t.Errorf("rejected posts were stored: %+v", messages)
	}
}

func TestChatServiceDefaultIDs(t *testing.T) {
	svc := NewChatService(setupTestStore(t, nil), nil, testConfig(nil))
	first, err := svc.Post(context.Background(), "A", "one")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Post(context.Background(), "A", "two")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("ids not unique: %q %q", first.ID, second.ID)
	}
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	gate, err := auth.NewPasswordGateFromPlaintext("coca")
	if err != nil {
		t.Fatal(err)
	}
	jwtManager := auth.NewJWTManager("secret", time.Hour).WithClock(func() time.Time { return fixedNow })
	observer := &recordingObserver{}
	svc := NewAuthService(gate, jwtManager, testConfig(observer))

	session, err := svc.Login(ctx, "coca")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !session.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Errorf("expiresAt = %v", session.ExpiresAt)
	}
	if _, err := jwtManager.Validate(session.Token); err != nil {
		t.Errorf("issued token invalid: %v", err)
	}

	if _, err := svc.Login(ctx, "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	svc.Logout(ctx)

	if !slices.Equal(observer.logins, []bool{true, false}) {
		t.Errorf("observed logins = %v", observer.logins)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ledger.ValidationError{Field: "date"}, "validation"},
		{ledger.ErrDuplicatePerson, "duplicate_person"},
		{auth.ErrInvalidCredentials, "invalid_credentials"},
		{auth.ErrInvalidToken, "invalid_token"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
