package usecase

import (
	"context"
	"fmt"
	"time"

	repository "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
)

type MarkReadInput struct {
	TenantID string
	IDs      []string
}

type MarkReadUseCase struct {
	Repo repository.NotificationRepository
	Now  func() time.Time
}

func NewMarkReadUseCase(repo repository.NotificationRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo, Now: time.Now}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if in.TenantID == "" {
		return 0, fmt.Errorf("tenant is required")
	}
	if len(in.IDs) == 0 {
		return 0, nil
	}
	n, err := uc.Repo.MarkRead(ctx, in.TenantID, in.IDs, uc.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
