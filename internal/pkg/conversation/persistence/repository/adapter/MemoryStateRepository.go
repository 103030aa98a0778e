package adapter

import (
	"context"
	"sync"
	"time"

	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

// MemoryStateRepository backs the memory driver and tests.
type MemoryStateRepository struct {
	mu     sync.Mutex
	states map[conversation.Key]conversation.State
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{states: make(map[conversation.Key]conversation.State)}
}

var (
	_ port.StateRepository = (*MemoryStateRepository)(nil)
	_ port.Sweeper         = (*MemoryStateRepository)(nil)
)

func (r *MemoryStateRepository) Load(_ context.Context, key conversation.Key, now time.Time) (*conversation.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[key]
	if !ok || s.Expired(now) {
		return nil, nil
	}
	s.Context = s.Context.Clone()
	return &s, nil
}

func (r *MemoryStateRepository) Save(_ context.Context, s conversation.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Context = s.Context.Clone()
	r.states[s.Key()] = s
	return nil
}

func (r *MemoryStateRepository) Delete(_ context.Context, key conversation.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, key)
	return nil
}

func (r *MemoryStateRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.states {
		if s.Expired(now) {
			delete(r.states, k)
			n++
		}
	}
	return n, nil
}

// Len counts stored rows, expired ones included.
func (r *MemoryStateRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
