package usecase

import (
	"context"
	"fmt"

	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type ListNotificationsInput struct {
	TenantID   string
	UnreadOnly bool
	Limit      int
}

type ListNotificationsUseCase struct {
	Repo repository.NotificationRepository
}

func NewListNotificationsUseCase(repo repository.NotificationRepository) *ListNotificationsUseCase {
	return &ListNotificationsUseCase{Repo: repo}
}

func (uc *ListNotificationsUseCase) Execute(ctx context.Context, in ListNotificationsInput) ([]notification.Notification, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	items, err := uc.Repo.List(ctx, in.TenantID, in.UnreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return items, nil
}
