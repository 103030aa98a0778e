package adapter

import (
	"context"
	"sync"

	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/port"
)

// RecordingSender keeps every message in memory; Fail makes Send return an
// error, for exercising best-effort paths.
type RecordingSender struct {
	mu       sync.Mutex
	messages []outbound.Message
	Fail     error
}

func NewRecordingSender() *RecordingSender { return &RecordingSender{} }

var _ port.Sender = (*RecordingSender)(nil)

func (s *RecordingSender) Send(_ context.Context, m outbound.Message) error {
	if s.Fail != nil {
		return s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

func (s *RecordingSender) Messages() []outbound.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbound.Message(nil), s.messages...)
}
