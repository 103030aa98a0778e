package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cacheport "github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

// CacheStateRepository keeps state documents in the key-value cache (Redis
// in production). The cache TTL mirrors ExpiresAt, so expired keys vanish on
// their own; Load still checks expiry for clock skew.
type CacheStateRepository struct {
	cache cacheport.Cache
	now   func() time.Time
}

func NewCacheStateRepository(cache cacheport.Cache) *CacheStateRepository {
	return &CacheStateRepository{cache: cache, now: time.Now}
}

var _ port.StateRepository = (*CacheStateRepository)(nil)

func stateKey(key conversation.Key) string {
	return "conversation:" + key.TenantID + ":" + key.ContactID
}

func (r *CacheStateRepository) Load(ctx context.Context, key conversation.Key, now time.Time) (*conversation.State, error) {
	raw, err := r.cache.Get(ctx, stateKey(key))
	if errors.Is(err, cacheport.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s conversation.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	if s.Expired(now) {
		return nil, nil
	}
	return &s, nil
}

func (r *CacheStateRepository) Save(ctx context.Context, s conversation.State) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.Key())
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	return r.cache.Set(ctx, stateKey(s.Key()), string(raw), ttl)
}

func (r *CacheStateRepository) Delete(ctx context.Context, key conversation.Key) error {
	_, err := r.cache.Del(ctx, stateKey(key))
	return err
}
