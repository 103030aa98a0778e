package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
)

type PgNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPgNotificationRepository(pool *pgxpool.Pool) *PgNotificationRepository {
	return &PgNotificationRepository{pool: pool}
}

var _ port.NotificationRepository = (*PgNotificationRepository)(nil)

var errNilPool = errors.New("PgNotificationRepository: nil pool")

func (r *PgNotificationRepository) Create(ctx context.Context, n notification.Notification) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	const q = `
		INSERT INTO payme.notifications (tenant_id, kind, title, body, agreement_id, source_tenant_id, created_at)
		VALUES ($1::uuid, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7)
		RETURNING id::text
	`
	var id string
	err := r.pool.QueryRow(ctx, q, n.TenantID, string(n.Kind), n.Title, n.Body, n.AgreementID, n.SourceTenantID, n.CreatedAt).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgNotificationRepository) List(ctx context.Context, tenantID string, unreadOnly bool, limit int) ([]notification.Notification, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	const q = `
		SELECT id::text, tenant_id::text, kind, title, body, COALESCE(agreement_id::text, ''),
		       COALESCE(source_tenant_id::text, ''), read_at, created_at
		FROM payme.notifications
		WHERE tenant_id = $1::uuid AND ($2 = false OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, q, tenantID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var (
			n    notification.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.TenantID, &kind, &n.Title, &n.Body, &n.AgreementID, &n.SourceTenantID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = notification.Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, tenantID string, ids []string, at time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE payme.notifications SET read_at = $3
		WHERE tenant_id = $1::uuid AND id::text = ANY($2) AND read_at IS NULL`, tenantID, ids, at)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
