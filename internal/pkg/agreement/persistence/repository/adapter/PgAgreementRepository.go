package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
)

type PgAgreementRepository struct {
	pool *pgxpool.Pool
}

func NewPgAgreementRepository(pool *pgxpool.Pool) *PgAgreementRepository {
	return &PgAgreementRepository{pool: pool}
}

var _ port.AgreementRepository = (*PgAgreementRepository)(nil)

var errNilPool = errors.New("PgAgreementRepository: nil pool")

const uniqueViolation = "23505"

const agreementSelect = `
	SELECT id::text, tenant_id::text, lender_contact_id::text, borrower_contact_id::text, kind, title,
	       amount::text, COALESCE(currency, ''), COALESCE(item_description, ''), due_date,
	       COALESCE(recurrence_rule, ''), next_due_date, status, opt_in_required, reminder_count,
	       metadata, COALESCE(flow_ref, ''), created_at, updated_at, completed_at
	FROM payme.agreements`

func scanAgreement(row pgx.Row) (*agreement.Agreement, error) {
	var (
		a        agreement.Agreement
		amount   *string
		kind     string
		status   string
		metadata []byte
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.LenderContactID, &a.BorrowerContactID, &kind, &a.Title,
		&amount, &a.Currency, &a.ItemDescription, &a.DueDate,
		&a.RecurrenceRule, &a.NextDueDate, &status, &a.OptInRequired, &a.ReminderCount,
		&metadata, &a.FlowRef, &a.CreatedAt, &a.UpdatedAt, &a.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, agreement.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Kind = agreement.Kind(kind)
	a.Status = agreement.Status(status)
	if amount != nil {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("agreement %s amount: %w", a.ID, err)
		}
		a.Amount = decimal.NewNullDecimal(d)
	}
	a.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return nil, fmt.Errorf("agreement %s metadata: %w", a.ID, err)
		}
	}
	return &a, nil
}

func (r *PgAgreementRepository) list(ctx context.Context, q string, args ...any) ([]agreement.Agreement, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []agreement.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func amountArg(a agreement.Agreement) *string {
	if !a.Amount.Valid {
		return nil
	}
	s := a.Amount.Decimal.String()
	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PgAgreementRepository) Create(ctx context.Context, a agreement.Agreement) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return "", err
	}

	const q = `
		INSERT INTO payme.agreements (
			tenant_id, lender_contact_id, borrower_contact_id, kind, title, amount, currency,
			item_description, due_date, recurrence_rule, next_due_date, status, opt_in_required,
			reminder_count, metadata, flow_ref, created_at, updated_at
		) VALUES (
			$1::uuid, $2::uuid, $3::uuid, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id::text
	`
	var id string
	err = r.pool.QueryRow(ctx, q,
		a.TenantID, a.LenderContactID, a.BorrowerContactID, string(a.Kind), a.Title, amountArg(a), nullable(a.Currency),
		nullable(a.ItemDescription), a.DueDate, nullable(a.RecurrenceRule), a.NextDueDate, string(a.Status), a.OptInRequired,
		a.ReminderCount, metadata, nullable(a.FlowRef), a.CreatedAt, a.UpdatedAt,
	).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return "", agreement.ErrDuplicateFlowRef
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgAgreementRepository) Get(ctx context.Context, tenantID, id string) (*agreement.Agreement, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanAgreement(r.pool.QueryRow(ctx, agreementSelect+` WHERE tenant_id = $1::uuid AND id = $2::uuid`, tenantID, id))
}

func (r *PgAgreementRepository) GetByFlowRef(ctx context.Context, tenantID, flowRef string) (*agreement.Agreement, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanAgreement(r.pool.QueryRow(ctx, agreementSelect+` WHERE tenant_id = $1::uuid AND flow_ref = $2`, tenantID, flowRef))
}

func (r *PgAgreementRepository) Update(ctx context.Context, a agreement.Agreement) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}

	const q = `
		UPDATE payme.agreements
		SET due_date = $3, next_due_date = $4, status = $5, opt_in_required = $6,
		    reminder_count = $7, metadata = $8, updated_at = $9, completed_at = $10
		WHERE tenant_id = $1::uuid AND id = $2::uuid
	`
	ct, err := r.pool.Exec(ctx, q, a.TenantID, a.ID, a.DueDate, a.NextDueDate, string(a.Status), a.OptInRequired,
		a.ReminderCount, metadata, a.UpdatedAt, a.CompletedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return agreement.ErrNotFound
	}
	return nil
}

func (r *PgAgreementRepository) ListByContact(ctx context.Context, tenantID, contactID string) ([]agreement.Agreement, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return r.list(ctx, agreementSelect+`
		WHERE tenant_id = $1::uuid AND (lender_contact_id = $2::uuid OR borrower_contact_id = $2::uuid)
		ORDER BY created_at, id`, tenantID, contactID)
}

func (r *PgAgreementRepository) ListByTenant(ctx context.Context, tenantID string) ([]agreement.Agreement, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return r.list(ctx, agreementSelect+` WHERE tenant_id = $1::uuid ORDER BY created_at, id`, tenantID)
}

func (r *PgAgreementRepository) ListByStatus(ctx context.Context, statuses ...agreement.Status) ([]agreement.Agreement, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.list(ctx, agreementSelect+` WHERE status = ANY($1) ORDER BY created_at, id`, names)
}
