// Package ledger enforces the payment ledger's invariants on top of a
// models.Ledger document and exposes the views derived from it.
//
// A Store is a short-lived wrapper: load the document, wrap it, apply one
// mutation, save the document. It holds no locks and performs no I/O.
package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/rotation"
)

// Store applies mutations to a ledger document in place.
type Store struct {
	doc *models.Ledger
	loc *time.Location
}

// New wraps doc. Date keys are interpreted in loc; nil means time.Local.
func New(doc *models.Ledger, loc *time.Location) *Store {
	if doc == nil {
		doc = models.NewLedger([]string{})
	}
	doc.Normalize()
	if loc == nil {
		loc = time.Local
	}
	return &Store{doc: doc, loc: loc}
}

// Document returns the wrapped document.
func (s *Store) Document() *models.Ledger {
	return s.doc
}

// People returns a copy of the rotation order.
func (s *Store) People() []string {
	return append([]string{}, s.doc.People...)
}

// PaidDates returns a copy of the payment map.
func (s *Store) PaidDates() map[string]string {
	paid := make(map[string]string, len(s.doc.PaidDates))
	for date, name := range s.doc.PaidDates {
		paid[date] = name
	}
	return paid
}

// AddPerson appends name to the end of the rotation. Existing payments are not
// touched; assignments for future dates shift with the new list length.
func (s *Store) AddPerson(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "name is required")
	}
	if slices.Contains(s.doc.People, name) {
		return ErrDuplicatePerson
	}
	s.doc.People = append(s.doc.People, name)
	return nil
}

// RemovePerson drops name from the rotation and deletes every payment credited
// to it. Removing an unknown name is a no-op. It returns how many payments
// were deleted.
func (s *Store) RemovePerson(name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, invalid("name", "name is required")
	}

	s.doc.People = slices.DeleteFunc(s.doc.People, func(p string) bool { return p == name })

	pruned := 0
	for date, payer := range s.doc.PaidDates {
		if payer == name {
			delete(s.doc.PaidDates, date)
			pruned++
		}
	}
	return pruned, nil
}

// SetPayment records name as the payer for dateKey, replacing any previous
// payer. The name is not checked against the rotation. An empty name clears
// the date instead; clearing an unpaid date is a no-op.
func (s *Store) SetPayment(dateKey, name string) error {
	if _, err := rotation.ParseDateKey(dateKey, s.loc); err != nil {
		return invalid("date", "date must be formatted as YYYY-MM-DD")
	}
	if name == "" {
		delete(s.doc.PaidDates, dateKey)
		return nil
	}
	s.doc.PaidDates[dateKey] = name
	return nil
}

// ClearPayment removes the payer for dateKey.
func (s *Store) ClearPayment(dateKey string) error {
	return s.SetPayment(dateKey, "")
}

// ToggleToday clears today's payment if there is one, otherwise credits it to
// whoever's turn it is. Both branches go through SetPayment. With an empty
// rotation the responsible name is rotation.Nobody and nothing is recorded.
func (s *Store) ToggleToday(today time.Time) error {
	key := rotation.DateKey(today)
	if _, paid := s.doc.PaidDates[key]; paid {
		return s.SetPayment(key, "")
	}
	return s.SetPayment(key, rotation.ResponsibleFor(today, s.doc.People))
}

// Reset deletes every payment.
func (s *Store) Reset() {
	s.doc.PaidDates = make(map[string]string)
}

// Upcoming lists the next n purchase days after today.
func (s *Store) Upcoming(today time.Time, n int) []models.Assignment {
	return rotation.Upcoming(today, n, s.doc.People)
}

// Calendar returns the month grid for year/month.
func (s *Store) Calendar(year int, month time.Month) []rotation.CalendarDay {
	return rotation.Month(year, month, s.loc, s.doc.People, s.doc.PaidDates)
}

// TodayStatus describes the rotation on one calendar date.
type TodayStatus struct {
	Date        string `json:"date"`
	PurchaseDay bool   `json:"purchaseDay"`
	Responsible string `json:"responsible"`
	Payer       string `json:"payer,omitempty"`
	Paid        bool   `json:"paid"`
}

// Today reports whose turn today is and whether it has been paid.
func (s *Store) Today(today time.Time) TodayStatus {
	key := rotation.DateKey(today)
	payer, paid := s.doc.PaidDates[key]
	return TodayStatus{
		Date:        key,
		PurchaseDay: rotation.IsPurchaseDay(today),
		Responsible: rotation.ResponsibleFor(today, s.doc.People),
		Payer:       payer,
		Paid:        paid,
	}
}
