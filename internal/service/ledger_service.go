package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/sodarota/internal/calculator"
	"github.com/mmynk/sodarota/internal/ledger"
	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/rotation"
	"github.com/mmynk/sodarota/internal/storage"
)

// Mutation names reported to the observer.
const (
	OpToggleToday  = "toggle_today"
	OpAddPerson    = "add_person"
	OpRemovePerson = "remove_person"
	OpSetPayment   = "set_payment"
	OpReset        = "reset"
)

// PublicData is the document as the public page sees it.
type PublicData struct {
	People    []string          `json:"people"`
	PaidDates map[string]string `json:"paidDates"`
}

// TodayView is today's status plus the rotation it was computed from.
type TodayView struct {
	ledger.TodayStatus
	People []string `json:"people"`
}

// Stats summarizes the ledger for the admin dashboard.
type Stats struct {
	TotalPurchases int                `json:"totalPurchases"`
	LastPurchase   string             `json:"lastPurchase"`
	Counts         []ledger.RankEntry `json:"counts"`
}

// Balances shows who bought on someone else's turn.
type Balances struct {
	Members []calculator.MemberBalance `json:"members"`
	Debts   []calculator.DebtEdge      `json:"debts"`
}

// LedgerService applies rotation and payment operations to the stored document.
type LedgerService struct {
	store storage.Store
	cfg   Config
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, cfg Config) *LedgerService {
	return &LedgerService{store: store, cfg: cfg.withDefaults()}
}

func (s *LedgerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.cfg.Logger, "LedgerService", operation, attrs...)
}

// view loads the document for a read-only operation.
func (s *LedgerService) view(ctx context.Context) (*ledger.Store, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ledger.New(doc, s.cfg.Location), nil
}

// mutate loads the document, applies fn and saves the result. Nothing is
// saved when fn fails.
func (s *LedgerService) mutate(ctx context.Context, operation string, fn func(*ledger.Store) error) (*ledger.Store, error) {
	st, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, st.Document()); err != nil {
		return nil, fmt.Errorf("failed to save ledger: %w", err)
	}
	s.cfg.Observer.ObserveMutation(operation, st.Document())
	return st, nil
}

// PublicView returns the people and payments.
func (s *LedgerService) PublicView(ctx context.Context) (PublicData, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "PublicView").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return PublicData{}, err
	}
	return PublicData{People: st.People(), PaidDates: st.PaidDates()}, nil
}

// Document returns the whole stored document.
func (s *LedgerService) Document(ctx context.Context) (*models.Ledger, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Document").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return st.Document(), nil
}

// resolveDay parses a caller supplied date key, or returns today when it is empty.
// The caller's date may differ from the server's by at most one calendar day;
// other dates are admin edits.
func (s *LedgerService) resolveDay(dateKey string) (time.Time, error) {
	today := s.cfg.today()
	if dateKey == "" {
		return today, nil
	}
	day, err := rotation.ParseDateKey(dateKey, s.cfg.Location)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	midnight := rotation.Midnight(today)
	if day.Before(midnight.AddDate(0, 0, -1)) || day.After(midnight.AddDate(0, 0, 1)) {
		return time.Time{}, &ledger.ValidationError{Field: "date", Message: "date must be within one day of today"}
	}
	return day, nil
}

// ToggleToday flips the paid state of a day. dateKey is the caller's local
// date, at most one day away from the server's; empty means today in the
// server's location. Rest days are not rejected.
func (s *LedgerService) ToggleToday(ctx context.Context, dateKey string) (paid map[string]string, err error) {
	logger := s.loggerWith(ctx, "ToggleToday", "date", dateKey)
	logger.DebugContext(ctx, "ToggleToday request received")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to toggle payment", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	day, err := s.resolveDay(dateKey)
	if err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, OpToggleToday, func(st *ledger.Store) error {
		return st.ToggleToday(day)
	})
	if err != nil {
		return nil, err
	}

	key := rotation.DateKey(day)
	logger.InfoContext(ctx, "payment toggled", "day", key, "payer", st.PaidDates()[key])
	return st.PaidDates(), nil
}

// AddPerson appends name to the rotation. Adding an existing name succeeds
// without changing anything.
func (s *LedgerService) AddPerson(ctx context.Context, name string) (people []string, err error) {
	logger := s.loggerWith(ctx, "AddPerson", "name", name)
	added := false
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "failed to add person", "error", err, "error_kind", ErrorKind(err))
		case added:
			logger.InfoContext(ctx, "person added", "people_count", len(people))
		}
	}()

	st, err := s.mutate(ctx, OpAddPerson, func(st *ledger.Store) error {
		return st.AddPerson(name)
	})
	switch {
	case errors.Is(err, ledger.ErrDuplicatePerson):
		logger.InfoContext(ctx, "person already in rotation")
		st, err = s.view(ctx)
	case err == nil:
		added = true
	}
	if err != nil {
		return nil, err
	}
	return st.People(), nil
}

// RemovePerson drops name from the rotation along with every payment credited
// to it.
func (s *LedgerService) RemovePerson(ctx context.Context, name string) (people []string, err error) {
	logger := s.loggerWith(ctx, "RemovePerson", "name", name)

	pruned := 0
	st, err := s.mutate(ctx, OpRemovePerson, func(st *ledger.Store) error {
		var err error
		pruned, err = st.RemovePerson(name)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove person", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.InfoContext(ctx, "person removed", "pruned_payments", pruned)
	return st.People(), nil
}

// SetPayment records name as the payer of dateKey; an empty name clears it.
func (s *LedgerService) SetPayment(ctx context.Context, dateKey, name string) (map[string]string, error) {
	logger := s.loggerWith(ctx, "SetPayment", "date", dateKey, "name", name)

	st, err := s.mutate(ctx, OpSetPayment, func(st *ledger.Store) error {
		return st.SetPayment(dateKey, name)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to set payment", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.InfoContext(ctx, "payment updated")
	return st.PaidDates(), nil
}

// Reset deletes every payment.
func (s *LedgerService) Reset(ctx context.Context) error {
	logger := s.loggerWith(ctx, "Reset")

	_, err := s.mutate(ctx, OpReset, func(st *ledger.Store) error {
		st.Reset()
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to reset payments", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "payments reset")
	return nil
}

// Today reports the rotation status of the current day.
func (s *LedgerService) Today(ctx context.Context) (TodayView, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Today").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return TodayView{}, err
	}
	return TodayView{TodayStatus: st.Today(s.cfg.today()), People: st.People()}, nil
}

// Upcoming lists the next n purchase days after today.
func (s *LedgerService) Upcoming(ctx context.Context, n int) ([]models.Assignment, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Upcoming").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return st.Upcoming(s.cfg.today(), n), nil
}

// History returns up to n payments, newest first.
func (s *LedgerService) History(ctx context.Context, n int) ([]models.Payment, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "History").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return st.History(n), nil
}

// Ranking counts payments per payer, highest first.
func (s *LedgerService) Ranking(ctx context.Context) ([]ledger.RankEntry, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Ranking").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return st.Ranking(), nil
}

// Stats summarizes the payments for the admin dashboard.
func (s *LedgerService) Stats(ctx context.Context) (Stats, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Stats").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return Stats{}, err
	}
	last, _ := st.MostRecentPayment()
	return Stats{
		TotalPurchases: st.TotalPayments(),
		LastPurchase:   last,
		Counts:         st.PayerCounts(),
	}, nil
}

// Calendar returns the month grid for year/month. A zero year or month
// selects the current one.
func (s *LedgerService) Calendar(ctx context.Context, year, month int) ([]rotation.CalendarDay, error) {
	today := s.cfg.today()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if year < 1 || year > 9999 {
		return nil, &ledger.ValidationError{Field: "year", Message: "year must be between 1 and 9999"}
	}
	if month < 1 || month > 12 {
		return nil, &ledger.ValidationError{Field: "month", Message: "month must be between 1 and 12"}
	}

	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Calendar").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return st.Calendar(year, time.Month(month)), nil
}

// Balances compares each recorded payment with whose turn it was.
func (s *LedgerService) Balances(ctx context.Context) (Balances, error) {
	st, err := s.view(ctx)
	if err != nil {
		s.loggerWith(ctx, "Balances").ErrorContext(ctx, "failed to read ledger", "error", err, "error_kind", ErrorKind(err))
		return Balances{}, err
	}
	members, debts := calculator.CalculateBalances(st.People(), st.PaidDates(), s.cfg.Location)
	return Balances{Members: members, Debts: debts}, nil
}
