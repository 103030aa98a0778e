package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
)

type MemoryNotificationRepository struct {
	mu    sync.Mutex
	items []notification.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

var _ port.NotificationRepository = (*MemoryNotificationRepository)(nil)

func (r *MemoryNotificationRepository) Create(_ context.Context, n notification.Notification) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	r.items = append(r.items, n)
	return n.ID, nil
}

func (r *MemoryNotificationRepository) List(_ context.Context, tenantID string, unreadOnly bool, limit int) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Notification
	for i := len(r.items) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		n := r.items[i]
		if n.TenantID != tenantID || (unreadOnly && n.Read()) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, tenantID string, ids []string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range r.items {
		item := &r.items[i]
		if item.TenantID == tenantID && want[item.ID] && item.ReadAt == nil {
			t := at
			item.ReadAt = &t
			n++
		}
	}
	return n, nil
}
