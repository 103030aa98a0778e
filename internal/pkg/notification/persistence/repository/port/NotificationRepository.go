package port

import (
	"context"
	"time"

	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n notification.Notification) (string, error)
	// List returns newest first.
	List(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]notification.Notification, error)
	// MarkRead ignores ids of other tenants and returns how many changed.
	MarkRead(ctx context.Context, tenantID string, ids []string, at time.Time) (int64, error)
}
