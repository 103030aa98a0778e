package usecase

import (
	"context"
	"fmt"
	"time"

	repository "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

// SweepStatesUseCase deletes expired dialogues from every store that keeps
// them past expiry. Readers already ignore them.
type SweepStatesUseCase struct {
	Sweepers []repository.Sweeper
}

func NewSweepStatesUseCase(sweepers ...repository.Sweeper) *SweepStatesUseCase {
	return &SweepStatesUseCase{Sweepers: sweepers}
}

func (uc *SweepStatesUseCase) Execute(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, s := range uc.Sweepers {
		n, err := s.DeleteExpired(ctx, now)
		if err != nil {
			return total, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		total += n
	}
	return total, nil
}
