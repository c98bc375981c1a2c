package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
)

const riderColumns = `id, tenant_id, external_id, name, phone, city_id, status, blocked_reason,
cash_balance_minor, deliveries_total, last_latitude, last_longitude, last_seen_at, created_at, updated_at`

type RiderRepository struct {
	pool *pgxpool.Pool
}

func NewRiderRepository(pool *pgxpool.Pool) *RiderRepository {
	return &RiderRepository{pool: pool}
}

func (r *RiderRepository) List(ctx context.Context, tenantID int64, filter rider.ListFilter) ([]rider.Entity, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM riders
WHERE tenant_id = $1
  AND ($2::bigint = 0 OR city_id = $2)
  AND ($3::text = '' OR status = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`, riderColumns)
	rows, err := r.pool.Query(ctx, q, tenantID, filter.CityID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rider.Entity
	for rows.Next() {
		item, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *RiderRepository) GetByID(ctx context.Context, tenantID int64, riderID string) (*rider.Entity, error) {
	q := fmt.Sprintf(`SELECT %s FROM riders WHERE tenant_id = $1 AND id = $2`, riderColumns)
	item, err := scanRider(r.pool.QueryRow(ctx, q, tenantID, riderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rider.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *RiderRepository) SetStatus(ctx context.Context, tenantID int64, riderID, status, reason string) error {
	q := `
UPDATE riders
SET status = $3, blocked_reason = $4, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2
`
	tag, err := r.pool.Exec(ctx, q, tenantID, riderID, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return rider.ErrNotFound
	}
	return nil
}

// UpsertMetrics applies one CSV metrics row, creating the rider record on
// first sight of its platform id.
func (r *RiderRepository) UpsertMetrics(ctx context.Context, tenantID int64, in rider.MetricsInput) error {
	q := `
INSERT INTO riders (tenant_id, external_id, city_id, status, cash_balance_minor, deliveries_total)
VALUES ($1, $2, $3, 'active', $4, $5)
ON CONFLICT (tenant_id, external_id)
DO UPDATE SET
  city_id = EXCLUDED.city_id,
  cash_balance_minor = EXCLUDED.cash_balance_minor,
  deliveries_total = EXCLUDED.deliveries_total,
  updated_at = NOW()
`
	_, err := r.pool.Exec(ctx, q, tenantID, in.ExternalRiderID, in.CityID, in.CashBalanceMinor, in.DeliveriesTotal)
	return err
}

func (r *RiderRepository) UpsertLocation(ctx context.Context, tenantID int64, loc rider.Location) error {
	q := `
UPDATE riders
SET city_id = $3, last_latitude = $4, last_longitude = $5, last_seen_at = $6, updated_at = NOW()
WHERE tenant_id = $1 AND external_id = $2
`
	_, err := r.pool.Exec(ctx, q, tenantID, loc.RiderID, loc.CityID, loc.Latitude, loc.Longitude, loc.RecordedAt)
	return err
}

func (r *RiderRepository) CountByStatus(ctx context.Context, tenantID int64, status string) (int64, error) {
	q := `SELECT COUNT(*) FROM riders WHERE tenant_id = $1 AND status = $2`
	var count int64
	if err := r.pool.QueryRow(ctx, q, tenantID, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListOverCashLimit returns active riders whose cash balance exceeds the
// limit, for the auto-block worker.
func (r *RiderRepository) ListOverCashLimit(ctx context.Context, tenantID, limitMinor int64, max int32) ([]rider.Entity, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM riders
WHERE tenant_id = $1 AND status = 'active' AND cash_balance_minor > $2
ORDER BY cash_balance_minor DESC
LIMIT $3
`, riderColumns)
	rows, err := r.pool.Query(ctx, q, tenantID, limitMinor, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rider.Entity
	for rows.Next() {
		item, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanRider(row pgx.Row) (*rider.Entity, error) {
	out := &rider.Entity{}
	err := row.Scan(&out.ID, &out.TenantID, &out.ExternalID, &out.Name, &out.Phone, &out.CityID,
		&out.Status, &out.BlockedReason, &out.CashBalanceMinor, &out.DeliveriesTotal,
		&out.LastLatitude, &out.LastLongitude, &out.LastSeenAt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}
