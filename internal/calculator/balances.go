// Package calculator derives purchase balances from the payment history: who
// bought on whose turn, and the fewest purchases that would even things out.
package calculator

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/mmynk/sodarota/internal/rotation"
)

// MemberBalance represents the purchase balance of one person.
type MemberBalance struct {
	Name  string `json:"name"`
	Paid  int    `json:"paid"`  // Purchases this person made
	Turns int    `json:"turns"` // Paid purchase days that were this person's turn
	Net   int    `json:"net"`   // Positive = covered for others, Negative = was covered
}

// DebtEdge is a number of purchases one person owes another.
type DebtEdge struct {
	From  string `json:"from"` // Person who owes purchases
	To    string `json:"to"`   // Person who covered for them
	Count int    `json:"count"`
}

// CalculateBalances compares every recorded payment with whose turn the day
// was under the current rotation.
//
// Algorithm:
//   - Skip dates that are not purchase days or cannot be parsed
//   - For each payment: payer gets +1 paid, responsible person gets +1 turn
//   - net = paid - turns
//   - Debt list: greedy matching of the largest debtor with the largest creditor
//
// Members list people in rotation order, then former payers by name. Turns are
// recomputed with today's rotation, so editing People changes past balances.
func CalculateBalances(people []string, paid map[string]string, loc *time.Location) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance, len(people))
	get := func(name string) *MemberBalance {
		if b, ok := balances[name]; ok {
			return b
		}
		b := &MemberBalance{Name: name}
		balances[name] = b
		return b
	}
	for _, name := range people {
		get(name)
	}

	for date, payer := range paid {
		day, err := rotation.ParseDateKey(date, loc)
		if err != nil || !rotation.IsPurchaseDay(day) {
			continue
		}
		responsible := rotation.ResponsibleFor(day, people)
		if responsible == rotation.Nobody {
			continue
		}
		get(payer).Paid++
		get(responsible).Turns++
	}

	members := make([]MemberBalance, 0, len(balances))
	for _, name := range people {
		members = append(members, *balances[name])
	}
	var former []MemberBalance
	for name, b := range balances {
		if !slices.Contains(people, name) {
			former = append(former, *b)
		}
	}
	sort.Slice(former, func(i, j int) bool { return former[i].Name < former[j].Name })
	members = append(members, former...)

	for i := range members {
		members[i].Net = members[i].Paid - members[i].Turns
	}

	return members, settle(members)
}

// settle matches debtors with creditors to minimize the number of edges.
func settle(members []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, m := range members {
		if m.Net > 0 {
			creditors = append(creditors, m)
		} else if m.Net < 0 {
			m.Net = -m.Net // Make positive
			debtors = append(debtors, m)
		}
	}

	// Largest amounts first; names break ties so the result is stable.
	byAmount := func(a, b MemberBalance) int {
		if c := cmp.Compare(b.Net, a.Net); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	}
	slices.SortFunc(creditors, byAmount)
	slices.SortFunc(debtors, byAmount)

	edges := []DebtEdge{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		count := min(debtors[i].Net, creditors[j].Net)
		edges = append(edges, DebtEdge{From: debtors[i].Name, To: creditors[j].Name, Count: count})

		debtors[i].Net -= count
		creditors[j].Net -= count

		// Move to next debtor/creditor if fully settled
		if debtors[i].Net == 0 {
			i++
		}
		if creditors[j].Net == 0 {
			j++
		}
	}
	return edges
}
