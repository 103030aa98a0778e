package task

import (
	"context"
	"time"

	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
)

// LifecycleTickTaskType is enqueued by whatever scheduler the deployment
// uses; the payload is ignored.
const LifecycleTickTaskType = "agreement:lifecycle_tick"

func RegisterLifecycleTickTask(srv qport.Server, uc *usecase.LifecycleTickUseCase) {
	srv.Register(LifecycleTickTaskType, func(ctx context.Context, _ qport.Task) error {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		_, err := uc.Execute(ctx, time.Now())
		return err
	})
}
