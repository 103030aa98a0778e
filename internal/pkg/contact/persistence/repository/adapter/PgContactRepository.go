package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

type PgContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

var _ port.ContactRepository = (*PgContactRepository)(nil)

var errNilPool = errors.New("PgContactRepository: nil pool")

const tenantColumns = `
	t.id::text, t.name, COALESCE(t.owner_contact_id::text, ''), COALESCE(t.owner_phone, ''),
	COALESCE(t.whatsapp_phone_number_id, ''), COALESCE(t.telegram_secret, ''),
	t.timezone, t.currency, t.created_at`

// The owner join resolves cross-tenant identity by phone.
const contactSelect = `
	SELECT c.id::text, c.tenant_id::text, c.name, COALESCE(c.phone_e164, ''), COALESCE(c.telegram_id, ''),
	       c.opt_in_status, c.opt_in_at, COALESCE(o.id::text, ''), c.created_at
	FROM payme.contacts c
	LEFT JOIN payme.tenants o ON o.owner_phone = c.phone_e164 AND o.id <> c.tenant_id`

func scanTenant(row pgx.Row) (*contact.Tenant, error) {
	var t contact.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.OwnerContactID, &t.OwnerPhone, &t.WhatsAppPhoneNumberID,
		&t.TelegramSecret, &t.Timezone, &t.Currency, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contact.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanContact(row pgx.Row) (*contact.Contact, error) {
	var (
		c      contact.Contact
		status string
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.PhoneE164, &c.TelegramID, &status, &c.OptInAt, &c.OwnerTenantID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contact.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	c.OptInStatus = contact.OptInStatus(status)
	return &c, nil
}

func (r *PgContactRepository) GetTenant(ctx context.Context, tenantID string) (*contact.Tenant, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanTenant(r.pool.QueryRow(ctx, `SELECT`+tenantColumns+` FROM payme.tenants t WHERE t.id = $1::uuid`, tenantID))
}

func (r *PgContactRepository) FindTenantByWhatsAppNumber(ctx context.Context, phoneNumberID string) (*contact.Tenant, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanTenant(r.pool.QueryRow(ctx, `SELECT`+tenantColumns+` FROM payme.tenants t WHERE t.whatsapp_phone_number_id = $1`, phoneNumberID))
}

func (r *PgContactRepository) FindTenantByOwnerPhone(ctx context.Context, phoneE164 string) (*contact.Tenant, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanTenant(r.pool.QueryRow(ctx, `SELECT`+tenantColumns+` FROM payme.tenants t WHERE t.owner_phone = $1 LIMIT 1`, phoneE164))
}

func (r *PgContactRepository) Get(ctx context.Context, tenantID, contactID string) (*contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanContact(r.pool.QueryRow(ctx, contactSelect+` WHERE c.tenant_id = $1::uuid AND c.id = $2::uuid`, tenantID, contactID))
}

func (r *PgContactRepository) FindByPhone(ctx context.Context, tenantID, phoneE164 string) (*contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanContact(r.pool.QueryRow(ctx, contactSelect+` WHERE c.tenant_id = $1::uuid AND c.phone_e164 = $2`, tenantID, phoneE164))
}

func (r *PgContactRepository) FindByTelegramID(ctx context.Context, tenantID, telegramID string) (*contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	return scanContact(r.pool.QueryRow(ctx, contactSelect+` WHERE c.tenant_id = $1::uuid AND c.telegram_id = $2`, tenantID, telegramID))
}

func (r *PgContactRepository) FindByName(ctx context.Context, tenantID, name string) ([]contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, contactSelect+`
		WHERE c.tenant_id = $1::uuid AND c.name ILIKE $2 || '%'
		ORDER BY (lower(c.name) = lower($2)) DESC, c.created_at ASC
		LIMIT 5`, tenantID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *PgContactRepository) Create(ctx context.Context, c contact.Contact) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payme.contacts (tenant_id, name, phone_e164, telegram_id, opt_in_status, created_at)
		VALUES ($1::uuid, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		RETURNING id::text
	`, c.TenantID, c.Name, c.PhoneE164, c.TelegramID, string(c.OptInStatus), c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgContactRepository) SetOptInStatus(ctx context.Context, tenantID, contactID string, status contact.OptInStatus, at time.Time) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE payme.contacts SET opt_in_status = $3, opt_in_at = $4
		WHERE tenant_id = $1::uuid AND id = $2::uuid
	`, tenantID, contactID, string(status), at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contact.ErrContactNotFound
	}
	return nil
}
