package calculator

import (
	"slices"
	"testing"
	"time"
)

func TestCalculateBalances(t *testing.T) {
	tests := []struct {
		name         string
		people       []string
		paid         map[string]string
		validateFunc func(t *testing.T, members []MemberBalance, edges []DebtEdge)
	}{
		{
			name:   "everyone paid on their own turn",
			people: []string{"Alice", "Bob"},
			paid:   map[string]string{"2024-01-01": "Alice", "2024-01-03": "Bob"},
			validateFunc: func(t *testing.T, members []MemberBalance, edges []DebtEdge) {
				want := []MemberBalance{
					{Name: "Alice", Paid: 1, Turns: 1},
					{Name: "Bob", Paid: 1, Turns: 1},
				}
				if !slices.Equal(members, want) {
					t.Errorf("members = %+v, want %+v", members, want)
				}
				if len(edges) != 0 {
					t.Errorf("edges = %+v, want none", edges)
				}
			},
		},
		{
			name:   "bob covered alice's turn",
			people: []string{"Alice", "Bob"},
			// 01-01 and 01-05 are Alice's turns, 01-03 is Bob's
			paid: map[string]string{"2024-01-01": "Bob", "2024-01-03": "Bob", "2024-01-05": "Alice"},
			validateFunc: func(t *testing.T, members []MemberBalance, edges []DebtEdge) {
				want := []MemberBalance{
					{Name: "Alice", Paid: 1, Turns: 2, Net: -1},
					{Name: "Bob", Paid: 2, Turns: 1, Net: 1},
				}
				if !slices.Equal(members, want) {
					t.Errorf("members = %+v, want %+v", members, want)
				}
				if want := []DebtEdge{{From: "Alice", To: "Bob", Count: 1}}; !slices.Equal(edges, want) {
					t.Errorf("edges = %+v, want %+v", edges, want)
				}
			},
		},
		{
			name:   "former payer keeps a balance",
			people: []string{"Alice", "Bob"},
			paid:   map[string]string{"2024-01-01": "Old", "2024-01-03": "Old"},
			validateFunc: func(t *testing.T, members []MemberBalance, edges []DebtEdge) {
				if len(members) != 3 || members[2].Name != "Old" || members[2].Net != 2 {
					t.Fatalf("members = %+v", members)
				}
				want := []DebtEdge{{From: "Alice", To: "Old", Count: 1}, {From: "Bob", To: "Old", Count: 1}}
				if !slices.Equal(edges, want) {
					t.Errorf("edges = %+v, want %+v", edges, want)
				}
			},
		},
		{
			name:   "rest days and malformed keys are skipped",
			people: []string{"Alice", "Bob"},
			paid:   map[string]string{"2024-01-02": "Bob", "01/03/2024": "Bob"},
			validateFunc: func(t *testing.T, members []MemberBalance, edges []DebtEdge) {
				for _, m := range members {
					if m.Paid != 0 || m.Turns != 0 {
						t.Errorf("unexpected balance %+v", m)
					}
				}
				if len(edges) != 0 {
					t.Errorf("edges = %+v", edges)
				}
			},
		},
		{
			name:   "empty rotation",
			people: []string{},
			paid:   map[string]string{"2024-01-01": "Alice"},
			validateFunc: func(t *testing.T, members []MemberBalance, edges []DebtEdge) {
				if len(members) != 0 || len(edges) != 0 {
					t.Errorf("members = %+v, edges = %+v", members, edges)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members, edges := CalculateBalances(tt.people, tt.paid, time.UTC)
			tt.validateFunc(t, members, edges)
		})
	}
}

func TestBalancesSumToZero(t *testing.T) {
	people := []string{"Alice", "Bob", "Carol"}
	paid := map[string]string{}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	payers := []string{"Carol", "Carol", "Bob", "Alice", "Carol", "Bob", "Carol"}
	for _, payer := range payers {
		paid[day.Format("2006-01-02")] = payer
		day = day.AddDate(0, 0, 2)
	}

	members, edges := CalculateBalances(people, paid, time.UTC)

	net, turns := 0, 0
	for _, m := range members {
		net += m.Net
		turns += m.Turns
	}
	if net != 0 {
		t.Errorf("net balances sum to %d, want 0", net)
	}
	if turns != len(payers) {
		t.Errorf("turns sum to %d, want %d", turns, len(payers))
	}

	owed := 0
	for _, e := range edges {
		if e.Count <= 0 || e.From == e.To {
			t.Errorf("invalid edge %+v", e)
		}
		owed += e.Count
	}
	credit := 0
	for _, m := range members {
		if m.Net > 0 {
			credit += m.Net
		}
	}
	if owed != credit {
		t.Errorf("edges settle %d purchases, creditors are owed %d", owed, credit)
	}
}
