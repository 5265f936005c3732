package ledger

import (
	"slices"
	"sort"

	"github.com/mmynk/sodarota/internal/models"
)

// RankEntry is one payer's payment count.
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// sortedDates returns the payment date keys in ascending order. Date keys
// sort chronologically as strings.
func (s *Store) sortedDates() []string {
	dates := make([]string, 0, len(s.doc.PaidDates))
	for date := range s.doc.PaidDates {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Ranking counts payments per payer, highest count first. Payers with equal
// counts keep the order in which they first appear walking dates ascending,
// so ties are stable but not alphabetical.
//
// Payers no longer in the rotation are still ranked.
func (s *Store) Ranking() []RankEntry {
	counts := make(map[string]*RankEntry)
	ranking := make([]*RankEntry, 0)

	for _, date := range s.sortedDates() {
		payer := s.doc.PaidDates[date]
		entry, exists := counts[payer]
		if !exists {
			entry = &RankEntry{Name: payer}
			counts[payer] = entry
			ranking = append(ranking, entry)
		}
		entry.Count++
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	result := make([]RankEntry, len(ranking))
	for i, entry := range ranking {
		result[i] = *entry
	}
	return result
}

// PayerCounts returns the payment count of every current person in rotation
// order, zeros included.
func (s *Store) PayerCounts() []RankEntry {
	counts := make(map[string]int, len(s.doc.People))
	for _, payer := range s.doc.PaidDates {
		counts[payer]++
	}

	result := make([]RankEntry, len(s.doc.People))
	for i, person := range s.doc.People {
		result[i] = RankEntry{Name: person, Count: counts[person]}
	}
	return result
}

// TotalPayments returns the number of paid dates.
func (s *Store) TotalPayments() int {
	return len(s.doc.PaidDates)
}

// MostRecentPayment returns the latest paid date key.
func (s *Store) MostRecentPayment() (string, bool) {
	latest := ""
	for date := range s.doc.PaidDates {
		if date > latest {
			latest = date
		}
	}
	return latest, latest != ""
}

// History returns up to n payments, newest first.
func (s *Store) History(n int) []models.Payment {
	dates := s.sortedDates()
	slices.Reverse(dates)
	if n >= 0 && len(dates) > n {
		dates = dates[:n]
	}

	history := make([]models.Payment, len(dates))
	for i, date := range dates {
		history[i] = models.Payment{Date: date, Person: s.doc.PaidDates[date]}
	}
	return history
}
