package adapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
)

func TestToAsynqOptions(t *testing.T) {
	assert.Nil(t, toAsynqOptions(nil))

	opts := toAsynqOptions([]port.EnqueueOption{{
		Queue:     "outbound",
		ProcessIn: time.Minute,
		MaxRetry:  5,
		TaskID:    "optin:expire:abc",
	}})
	assert.Len(t, opts, 4)
}

func TestInlineQueueRunsHandler(t *testing.T) {
	q := NewInlineQueue()
	var got []byte
	q.Register("outbound:send", func(ctx context.Context, task port.Task) error {
		got = task.Payload
		return nil
	})

	id, err := q.Enqueue(context.Background(), port.Task{Type: "outbound:send", Payload: []byte(`{"to":"+569"}`)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.JSONEq(t, `{"to":"+569"}`, string(got))
}

func TestInlineQueueErrors(t *testing.T) {
	q := NewInlineQueue()
	_, err := q.Enqueue(context.Background(), port.Task{Type: "unknown"})
	assert.Error(t, err)

	q.Register("fail", func(context.Context, port.Task) error { return errors.New("boom") })
	_, err = q.Enqueue(context.Background(), port.Task{Type: "fail"})
	assert.EqualError(t, err, "boom")

	id, err := q.Enqueue(context.Background(), port.Task{Type: "fail"}, port.EnqueueOption{ProcessIn: time.Hour})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestInlineQueueDelayedDropLogsContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logger.New(&logger.Config{Level: "info", Format: "text"}, &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	q := NewInlineQueue()
	ctx := logger.WithTenant(context.Background(), "t-1")
	_, err := q.Enqueue(ctx, port.Task{Type: "optin:expire"}, port.EnqueueOption{ProcessIn: time.Hour})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "delayed task dropped")
	assert.Contains(t, buf.String(), "tenant=t-1")
	assert.Contains(t, buf.String(), "type=optin:expire")
}

func TestNewAsynqClientRequiresURL(t *testing.T) {
	_, err := NewAsynqClient("")
	assert.Error(t, err)
}
