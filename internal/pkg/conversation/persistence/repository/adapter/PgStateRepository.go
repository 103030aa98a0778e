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

// PgStateRepository keeps dialogues in a dedicated table with a unique
// (tenant_id, contact_id) constraint.
type PgStateRepository struct {
	pool *pgxpool.Pool
}

func NewPgStateRepository(pool *pgxpool.Pool) *PgStateRepository {
	return &PgStateRepository{pool: pool}
}

var (
	_ port.StateRepository = (*PgStateRepository)(nil)
	_ port.Sweeper         = (*PgStateRepository)(nil)
)

var errNilPool = errors.New("conversation state: nil pool")

func (r *PgStateRepository) Load(ctx context.Context, key conversation.Key, now time.Time) (*conversation.State, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}

	const q = `
		SELECT id::text, tenant_id::text, contact_id::text, flow, step, context, expires_at, updated_at
		FROM payme.conversation_states
		WHERE tenant_id = $1::uuid AND contact_id = $2::uuid AND expires_at > $3
	`
	var (
		s   conversation.State
		raw []byte
	)
	err := r.pool.QueryRow(ctx, q, key.TenantID, key.ContactID, now).
		Scan(&s.ID, &s.TenantID, &s.ContactID, &s.Flow, &s.Step, &raw, &s.ExpiresAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Context); err != nil {
		return nil, fmt.Errorf("decode conversation context: %w", err)
	}
	return &s, nil
}

func (r *PgStateRepository) Save(ctx context.Context, s conversation.State) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	raw, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("encode conversation context: %w", err)
	}

	const q = `
		INSERT INTO payme.conversation_states (id, tenant_id, contact_id, flow, step, context, expires_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, contact_id) DO UPDATE
		SET id = EXCLUDED.id,
		    flow = EXCLUDED.flow,
		    step = EXCLUDED.step,
		    context = EXCLUDED.context,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, q, s.ID, s.TenantID, s.ContactID, string(s.Flow), string(s.Step), raw, s.ExpiresAt, s.UpdatedAt)
	return err
}

func (r *PgStateRepository) Delete(ctx context.Context, key conversation.Key) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM payme.conversation_states WHERE tenant_id = $1::uuid AND contact_id = $2::uuid`,
		key.TenantID, key.ContactID)
	return err
}

func (r *PgStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM payme.conversation_states WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
