package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSocket) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == websocket.TextMessage {
		f.messages = append(f.messages, data)
	}
	return nil
}

func (f *fakeSocket) WriteControl(int, []byte, time.Time) error { return nil }

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSocket) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeSocket) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestNotifyTenantFansOut(t *testing.T) {
	r := NewRouter(0)
	t.Cleanup(r.Close)

	a, b, other := &fakeSocket{}, &fakeSocket{}, &fakeSocket{}
	r.Attach(NewConnection("t1", a))
	r.Attach(NewConnection("t1", b))
	r.Attach(NewConnection("t2", other))

	assert.Equal(t, 2, r.NotifyTenant("t1", []byte(`{"type":"notification"}`)))
	assert.Equal(t, 0, r.NotifyTenant("t3", []byte(`{}`)))

	require.Eventually(t, func() bool { return a.received() == 1 && b.received() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, other.received())
}

func TestAttachEvictsOldest(t *testing.T) {
	r := NewRouter(1)
	t.Cleanup(r.Close)

	first, second := &fakeSocket{}, &fakeSocket{}
	r.Attach(NewConnection("t1", first))
	r.Attach(NewConnection("t1", second))

	assert.Equal(t, 1, r.Connections("t1"))
	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())
}

func TestDetachAndSendAfterClose(t *testing.T) {
	r := NewRouter(2)
	ws := &fakeSocket{}
	conn := NewConnection("t1", ws)
	r.Attach(conn)
	r.Detach(conn)
	assert.Equal(t, 0, r.Connections("t1"))

	conn.Close(websocket.CloseNormalClosure, "bye")
	conn.Close(websocket.CloseNormalClosure, "bye")
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrConnectionClosed)
	assert.True(t, ws.isClosed())
}
