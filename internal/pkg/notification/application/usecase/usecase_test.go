package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/adapter"
)

type recordingBroadcaster struct {
	tenant  string
	payload []byte
}

func (b *recordingBroadcaster) NotifyTenant(tenantID string, payload []byte) int {
	b.tenant, b.payload = tenantID, payload
	return 1
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	ctx := context.Background()
	repo := adapter.NewMemoryNotificationRepository()
	bc := &recordingBroadcaster{}
	uc := NewNotifyTenantUseCase(repo, bc)

	n, err := uc.Execute(ctx, NotifyTenantInput{
		TenantID:       "t2",
		Kind:           notification.KindLoanReceived,
		Title:          "Ana registró un préstamo contigo",
		AgreementID:    "a1",
		SourceTenantID: "t1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	assert.Equal(t, "t2", bc.tenant)
	var frame Frame
	require.NoError(t, json.Unmarshal(bc.payload, &frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, n.ID, frame.Notification.ID)

	items, err := NewListNotificationsUseCase(repo).Execute(ctx, ListNotificationsInput{TenantID: "t2", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].SourceTenantID)
}

func TestNotifyValidates(t *testing.T) {
	_, err := NewNotifyTenantUseCase(adapter.NewMemoryNotificationRepository(), nil).
		Execute(context.Background(), NotifyTenantInput{TenantID: "t1"})
	assert.ErrorIs(t, err, notification.ErrInvalidNotification)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := adapter.NewMemoryNotificationRepository()
	notify := NewNotifyTenantUseCase(repo, nil)

	first, err := notify.Execute(ctx, NotifyTenantInput{TenantID: "t1", Kind: notification.KindOptInRejected, Title: "uno"})
	require.NoError(t, err)
	_, err = notify.Execute(ctx, NotifyTenantInput{TenantID: "t1", Kind: notification.KindOptInRejected, Title: "dos"})
	require.NoError(t, err)

	n, err := NewMarkReadUseCase(repo).Execute(ctx, MarkReadInput{TenantID: "t1", IDs: []string{first.ID, "other"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = NewMarkReadUseCase(repo).Execute(ctx, MarkReadInput{TenantID: "t9", IDs: []string{first.ID}})
	require.NoError(t, err)
	assert.Zero(t, n)

	unread, err := NewListNotificationsUseCase(repo).Execute(ctx, ListNotificationsInput{TenantID: "t1", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "dos", unread[0].Title)

	all, err := NewListNotificationsUseCase(repo).Execute(ctx, ListNotificationsInput{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "dos", all[0].Title, "newest first")
}
