package models

// DefaultPeople seeds a brand-new document.
var DefaultPeople = []string{"Ana Beatriz", "Lais Dias"}

// Ledger is the single persisted document.
type Ledger struct {
	// People is the rotation order. Index 0 takes the first purchase day of the year.
	People []string `json:"people" bson:"people"`

	// PaidDates maps a date key ("2006-01-02") to the name of whoever paid that day.
	// Values may reference names that are no longer in People.
	PaidDates map[string]string `json:"paidDates" bson:"paidDates"`

	// Chat is the append-only message log.
	Chat []ChatMessage `json:"chat" bson:"chat"`
}

// NewLedger returns a document seeded with the given people, no payments and an
// empty chat. A nil people slice uses DefaultPeople.
func NewLedger(people []string) *Ledger {
	if people == nil {
		people = DefaultPeople
	}
	return &Ledger{
		People:    append([]string{}, people...),
		PaidDates: make(map[string]string),
		Chat:      []ChatMessage{},
	}
}

// Normalize replaces nil collections with empty ones so a document decoded from
// storage always encodes as [] and {} rather than null.
func (l *Ledger) Normalize() {
	if l.People == nil {
		l.People = []string{}
	}
	if l.PaidDates == nil {
		l.PaidDates = make(map[string]string)
	}
	if l.Chat == nil {
		l.Chat = []ChatMessage{}
	}
}

// Clone returns a deep copy of the document.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := &Ledger{
		People:    append([]string{}, l.People...),
		PaidDates: make(map[string]string, len(l.PaidDates)),
		Chat:      append([]ChatMessage{}, l.Chat...),
	}
	for date, name := range l.PaidDates {
		clone.PaidDates[date] = name
	}
	return clone
}
