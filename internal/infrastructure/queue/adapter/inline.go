package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
)

// InlineQueue runs handlers synchronously at enqueue time. It is both the
// client and the server, for single-process runs without Redis. Delayed
// tasks (ProcessIn/ProcessAt) are dropped with a warning.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers map[string]port.Handler
}

func NewInlineQueue() *InlineQueue {
	return &InlineQueue{handlers: make(map[string]port.Handler)}
}

var (
	_ port.Client = (*InlineQueue)(nil)
	_ port.Server = (*InlineQueue)(nil)
)

func (q *InlineQueue) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	if len(opts) > 0 && (opts[0].ProcessIn > 0 || !opts[0].ProcessAt.IsZero()) {
		logger.Warn(ctx, "inline queue: delayed task dropped", "type", t.Type)
		return "", nil
	}
	q.mu.RLock()
	h, ok := q.handlers[t.Type]
	q.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("inline queue: no handler for %q", t.Type)
	}
	if err := h(ctx, t); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (q *InlineQueue) Register(taskType string, h port.Handler) {
	q.mu.Lock()
	q.handlers[taskType] = h
	q.mu.Unlock()
}

func (q *InlineQueue) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (q *InlineQueue) Stop(context.Context) error { return nil }

func (q *InlineQueue) Close() error { return nil }
