package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loan(id, borrower string, amount int64, due time.Time, status Status, created time.Time) Agreement {
	a := Agreement{
		ID:                id,
		LenderContactID:   "me",
		BorrowerContactID: borrower,
		Kind:              KindLoan,
		DueDate:           due,
		Status:            status,
		Currency:          "CLP",
		CreatedAt:         created,
	}
	if amount > 0 {
		a.Amount = decimal.NewNullDecimal(decimal.NewFromInt(amount))
	}
	return a
}

func TestGroupAgreementsExample(t *testing.T) {
	t0 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	items := []Agreement{
		loan("a", "juan", 10000, day(2025, 3, 1), StatusActive, t0.Add(time.Hour)),
		loan("b", "juan", 5000, day(2025, 3, 1), StatusActive, t0),
		loan("c", "juan", 2000, day(2025, 3, 5), StatusActive, t0),
	}

	entries := GroupAgreements(items, RoleLent)
	require.Len(t, entries, 2)

	g := entries[0].Group
	require.NotNil(t, g)
	assert.True(t, g.Total.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, 2, g.Count)
	assert.Equal(t, "juan", g.CounterpartyID)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, []string{"b", "a"}, []string{g.Members[0].ID, g.Members[1].ID}, "members sorted by creation")
	assert.Equal(t, "$15.000", FormatMoney(g.Total, g.Currency))

	require.NotNil(t, entries[1].Agreement)
	assert.Equal(t, "c", entries[1].Agreement.ID)
}

func TestGroupStatusPendingWins(t *testing.T) {
	t0 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	items := []Agreement{
		loan("a", "juan", 1000, day(2025, 3, 1), StatusOverdue, t0),
		loan("b", "juan", 1000, day(2025, 3, 1), StatusPendingConfirmation, t0),
	}
	entries := GroupAgreements(items, RoleLent)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusPendingConfirmation, entries[0].Group.Status)

	items[1].Status = StatusActive
	entries = GroupAgreements(items, RoleLent)
	assert.Equal(t, StatusOverdue, entries[0].Group.Status, "first member's status")
}

func TestGroupAgreementsNonMonetaryAndOrdering(t *testing.T) {
	t0 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	items := []Agreement{
		loan("bike", "juan", 0, day(2025, 3, 1), StatusActive, t0),
		loan("x", "pedro", 3000, day(2025, 3, 1), StatusActive, t0),
		loan("y", "juan", 3000, day(2025, 3, 1), StatusActive, t0),
		loan("z", "pedro", 4000, day(2025, 3, 1), StatusActive, t0),
		loan("early", "ana", 100, day(2025, 2, 20), StatusActive, t0),
		loan("drill", "juan", 0, day(2025, 3, 1), StatusActive, t0),
	}

	entries := GroupAgreements(items, RoleLent)
	require.Len(t, entries, 5)

	assert.Equal(t, "early", entries[0].Agreement.ID)
	assert.Equal(t, "bike", entries[1].Agreement.ID)
	require.True(t, entries[2].IsGroup())
	assert.Equal(t, "pedro", entries[2].Group.CounterpartyID)
	assert.True(t, entries[2].Group.Total.Equal(decimal.NewFromInt(7000)))
	assert.Equal(t, "y", entries[3].Agreement.ID)
	assert.Equal(t, "drill", entries[4].Agreement.ID)

	// deterministic
	assert.Equal(t, entries, GroupAgreements(items, RoleLent))
}

func TestGroupAgreementsBorrowedRole(t *testing.T) {
	t0 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	a := loan("a", "me", 1000, day(2025, 3, 1), StatusActive, t0)
	a.LenderContactID = "ana"
	b := loan("b", "me", 2000, day(2025, 3, 1), StatusActive, t0)
	b.LenderContactID = "ana"

	entries := GroupAgreements([]Agreement{a, b}, RoleBorrowed)
	require.Len(t, entries, 1)
	assert.Equal(t, "ana", entries[0].Group.CounterpartyID)
	assert.Empty(t, GroupAgreements(nil, RoleLent))
}

func TestGroupAgreementsKeepsCurrenciesApart(t *testing.T) {
	t0 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	usd := loan("b", "juan", 50, day(2025, 3, 1), StatusActive, t0.Add(time.Minute))
	usd.Currency = "USD"
	items := []Agreement{
		loan("a", "juan", 10000, day(2025, 3, 1), StatusActive, t0),
		usd,
		loan("c", "juan", 5000, day(2025, 3, 1), StatusActive, t0.Add(time.Hour)),
	}

	entries := GroupAgreements(items, RoleLent)
	require.Len(t, entries, 2)

	require.True(t, entries[0].IsGroup())
	assert.Equal(t, "CLP", entries[0].Group.Currency)
	assert.True(t, decimal.NewFromInt(15000).Equal(entries[0].Group.Total))

	require.False(t, entries[1].IsGroup())
	assert.Equal(t, "b", entries[1].Agreement.ID)
}
