package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/adapter"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

var key = conversation.Key{TenantID: "t1", ContactID: "c1"}

func exerciseStore(t *testing.T, repo port.StateRepository, now time.Time) {
	t.Helper()
	ctx := context.Background()

	got, err := repo.Load(ctx, key, now)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := conversation.NewState(key, conversation.FlowNewLoan, now, 30*time.Minute)
	s = s.Advance(conversation.StepAwaitingItem, s.Context.WithCounterparty(&conversation.Party{ContactID: "c2", Name: "Juan"}), now, 30*time.Minute)
	require.NoError(t, repo.Save(ctx, s))

	got, err = repo.Load(ctx, key, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conversation.StepAwaitingItem, got.Step)
	assert.Equal(t, "Juan", got.Context.CounterpartyName())

	// a second save replaces the first: one dialogue per key
	replaced := conversation.NewState(key, conversation.FlowReschedule, now, 30*time.Minute)
	require.NoError(t, repo.Save(ctx, replaced))
	got, err = repo.Load(ctx, key, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conversation.FlowReschedule, got.Flow)

	got, err = repo.Load(ctx, key, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got, "expired state must read as absent")

	require.NoError(t, repo.Delete(ctx, key))
	got, err = repo.Load(ctx, key, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStateRepository(t *testing.T) {
	exerciseStore(t, NewMemoryStateRepository(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestCacheStateRepository(t *testing.T) {
	now := time.Now()
	repo := NewCacheStateRepository(cacheadapter.NewMemoryCache())
	repo.now = func() time.Time { return now }
	exerciseStore(t, repo, now)
}

func TestCacheStateRepositorySkipsExpiredSave(t *testing.T) {
	now := time.Now()
	repo := NewCacheStateRepository(cacheadapter.NewMemoryCache())
	repo.now = func() time.Time { return now }

	s := conversation.NewState(key, conversation.FlowNewLoan, now.Add(-time.Hour), 30*time.Minute)
	require.NoError(t, repo.Save(context.Background(), s))
	got, err := repo.Load(context.Background(), key, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryStateRepository()

	require.NoError(t, repo.Save(ctx, conversation.NewState(key, conversation.FlowNewLoan, now, time.Minute)))
	other := conversation.Key{TenantID: "t1", ContactID: "c9"}
	require.NoError(t, repo.Save(ctx, conversation.NewState(other, conversation.FlowNewLoan, now, time.Hour)))

	n, err := repo.DeleteExpired(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryStateRepository()
	require.NoError(t, repo.Save(ctx, conversation.NewState(key, conversation.FlowNewLoan, now, time.Hour)))

	got, err := repo.Load(ctx, key, now)
	require.NoError(t, err)
	got.Context.Loan.Item = "mutated"

	again, err := repo.Load(ctx, key, now)
	require.NoError(t, err)
	assert.Empty(t, again.Context.Loan.Item)
}
