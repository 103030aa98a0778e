package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Role selects which side of the agreements the viewer is on.
type Role string

const (
	RoleLent     Role = "lent"
	RoleBorrowed Role = "borrowed"
)

func (r Role) Valid() bool { return r == RoleLent || r == RoleBorrowed }

// Counterparty is the other side of a for the given viewer role.
func (r Role) Counterparty(a Agreement) string {
	if r == RoleBorrowed {
		return a.LenderContactID
	}
	return a.BorrowerContactID
}

// LoanGroup aggregates monetary agreements sharing counterparty, due date
// and currency. It is derived for presentation and never stored.
type LoanGroup struct {
	CounterpartyID string
	DueDate        time.Time
	Total          decimal.Decimal
	Currency       string
	Count          int
	Status         Status
	Members        []Agreement
}

// Entry is either a group or a single agreement.
type Entry struct {
	Group     *LoanGroup
	Agreement *Agreement
}

func (e Entry) DueDate() time.Time {
	if e.Group != nil {
		return e.Group.DueDate
	}
	return e.Agreement.EffectiveDueDate()
}

func (e Entry) IsGroup() bool { return e.Group != nil }

// bucketKey includes the currency so amounts are never summed across
// currencies.
type bucketKey struct {
	counterparty string
	due          time.Time
	currency     string
}

// GroupAgreements partitions items into groups and individual entries,
// sorted by due date ascending; ties keep insertion order (groups are
// placed where their first member appeared).
func GroupAgreements(items []Agreement, role Role) []Entry {
	type bucket struct {
		members []Agreement
	}
	var (
		buckets = map[bucketKey]*bucket{}
		out     []Entry
	)

	// Monetary items go to buckets; positions are reserved by first appearance.
	type slot struct {
		key  *bucketKey
		item *Agreement
	}
	var slots []slot
	for i := range items {
		a := items[i]
		if !a.IsMonetary() {
			slots = append(slots, slot{item: &a})
			continue
		}
		k := bucketKey{
			counterparty: role.Counterparty(a),
			due:          CivilDate(a.EffectiveDueDate()),
			currency:     a.Currency,
		}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			kk := k
			slots = append(slots, slot{key: &kk})
		}
		b.members = append(b.members, a)
	}

	for _, s := range slots {
		if s.item != nil {
			out = append(out, Entry{Agreement: s.item})
			continue
		}
		members := buckets[*s.key].members
		if len(members) == 1 {
			a := members[0]
			out = append(out, Entry{Agreement: &a})
			continue
		}
		out = append(out, Entry{Group: newGroup(*s.key, members)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return CivilDate(out[i].DueDate()).Before(CivilDate(out[j].DueDate()))
	})
	return out
}

func newGroup(k bucketKey, members []Agreement) *LoanGroup {
	g := &LoanGroup{
		CounterpartyID: k.counterparty,
		DueDate:        k.due,
		Total:          decimal.Zero,
		Currency:       k.currency,
		Count:          len(members),
		Status:         members[0].Status,
	}
	for _, m := range members {
		g.Total = g.Total.Add(m.Amount.Decimal)
		if m.Status == StatusPendingConfirmation {
			g.Status = StatusPendingConfirmation
		}
	}
	sorted := append([]Agreement(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	g.Members = sorted
	return g
}
