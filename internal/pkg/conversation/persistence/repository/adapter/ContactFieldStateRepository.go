package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

// ContactFieldStateRepository stores the whole state document in the
// contacts.conversation_state column. One column per contact gives the same
// single-dialogue guarantee as the dedicated table.
type ContactFieldStateRepository struct {
	pool *pgxpool.Pool
}

func NewContactFieldStateRepository(pool *pgxpool.Pool) *ContactFieldStateRepository {
	return &ContactFieldStateRepository{pool: pool}
}

var (
	_ port.StateRepository = (*ContactFieldStateRepository)(nil)
	_ port.Sweeper         = (*ContactFieldStateRepository)(nil)
)

func (r *ContactFieldStateRepository) Load(ctx context.Context, key conversation.Key, now time.Time) (*conversation.State, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT conversation_state FROM payme.contacts WHERE tenant_id = $1::uuid AND id = $2::uuid`,
		key.TenantID, key.ContactID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s conversation.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	if s.Expired(now) {
		return nil, nil
	}
	return &s, nil
}

func (r *ContactFieldStateRepository) Save(ctx context.Context, s conversation.State) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	ct, err := r.pool.Exec(ctx,
		`UPDATE payme.contacts SET conversation_state = $3 WHERE tenant_id = $1::uuid AND id = $2::uuid`,
		s.TenantID, s.ContactID, raw)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("conversation state: contact %s not found", s.ContactID)
	}
	return nil
}

func (r *ContactFieldStateRepository) Delete(ctx context.Context, key conversation.Key) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE payme.contacts SET conversation_state = NULL WHERE tenant_id = $1::uuid AND id = $2::uuid`,
		key.TenantID, key.ContactID)
	return err
}

func (r *ContactFieldStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE payme.contacts SET conversation_state = NULL
		WHERE conversation_state IS NOT NULL
		  AND (conversation_state->>'expires_at')::timestamptz <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
