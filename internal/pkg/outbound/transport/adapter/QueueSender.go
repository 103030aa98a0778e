package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/port"
)

// SendTaskType is the queue task that performs provider delivery.
const SendTaskType = "outbound:send"

// Queue is the asynq queue outbound work is routed to.
const Queue = "outbound"

// QueueSender enqueues messages for the worker, which gives at-least-once
// delivery with the queue's retry policy.
type QueueSender struct {
	client qport.Client
}

func NewQueueSender(client qport.Client) *QueueSender {
	return &QueueSender{client: client}
}

var _ port.Sender = (*QueueSender)(nil)

func (s *QueueSender) Send(ctx context.Context, m outbound.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode outbound message: %w", err)
	}
	_, err = s.client.Enqueue(ctx, qport.Task{Type: SendTaskType, Payload: payload}, qport.EnqueueOption{Queue: Queue, MaxRetry: 10})
	return err
}
