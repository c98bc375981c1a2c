package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/tenant"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// ResolveInternalTenantID maps the delivery platform's tenant identifier to
// this system's tenant id. Used by the websocket handshake on every
// authenticate message.
func (r *TenantRepository) ResolveInternalTenantID(ctx context.Context, externalTenantID string) (int64, error) {
	q := `SELECT id FROM tenants WHERE external_id = $1 AND active`
	var id int64
	err := r.pool.QueryRow(ctx, q, externalTenantID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrTenantNotFound, externalTenantID)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, tenantID int64) (*tenant.Entity, error) {
	q := `
SELECT id, external_id, name, schema_name, city_ids, rider_limit, cash_limit_minor, active, created_at, updated_at
FROM tenants
WHERE id = $1
`
	out := &tenant.Entity{}
	err := r.pool.QueryRow(ctx, q, tenantID).
		Scan(&out.ID, &out.ExternalID, &out.Name, &out.SchemaName, &out.CityIDs, &out.RiderLimit, &out.CashLimitMinor, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrTenantNotFound, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]tenant.Entity, error) {
	q := `
SELECT id, external_id, name, schema_name, city_ids, rider_limit, cash_limit_minor, active, created_at, updated_at
FROM tenants
WHERE active
ORDER BY id
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tenant.Entity
	for rows.Next() {
		var t tenant.Entity
		if err := rows.Scan(&t.ID, &t.ExternalID, &t.Name, &t.SchemaName, &t.CityIDs, &t.RiderLimit, &t.CashLimitMinor, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
