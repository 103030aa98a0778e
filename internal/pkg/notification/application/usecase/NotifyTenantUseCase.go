package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
)

// Broadcaster pushes a payload to a tenant's live connections; realtime.Router
// implements it.
type Broadcaster interface {
	NotifyTenant(tenantID string, payload []byte) int
}

type NotifyTenantInput struct {
	TenantID       string
	Kind           notification.Kind
	Title          string
	Body           string
	AgreementID    string
	SourceTenantID string
}

// Frame is the websocket envelope for a pushed notification.
type Frame struct {
	Type         string                     `json:"type"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

// NotifyTenantUseCase stores a notification and pushes it to connected
// dashboards. The push is best effort: offline tenants read it later.
type NotifyTenantUseCase struct {
	Repo   repository.NotificationRepository
	Router Broadcaster
	Now    func() time.Time
}

func NewNotifyTenantUseCase(repo repository.NotificationRepository, router Broadcaster) *NotifyTenantUseCase {
	return &NotifyTenantUseCase{Repo: repo, Router: router, Now: time.Now}
}

func (uc *NotifyTenantUseCase) Execute(ctx context.Context, in NotifyTenantInput) (*notification.Notification, error) {
	n, err := notification.New(in.TenantID, in.Kind, in.Title, in.Body, uc.Now())
	if err != nil {
		return nil, err
	}
	n.AgreementID = in.AgreementID
	n.SourceTenantID = in.SourceTenantID

	id, err := uc.Repo.Create(ctx, *n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n.ID = id

	if uc.Router != nil {
		payload, err := json.Marshal(Frame{Type: "notification", Notification: n})
		if err == nil {
			delivered := uc.Router.NotifyTenant(n.TenantID, payload)
			logger.Debug(ctx, "notification pushed", "notification_id", n.ID, "connections", delivered)
		}
	}
	return n, nil
}
