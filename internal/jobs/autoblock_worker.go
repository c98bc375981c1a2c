package jobs

import (
	"context"
	"log/slog"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/tenant"
)

type AutoBlockRiderRepository interface {
	ListOverCashLimit(ctx context.Context, tenantID, limitMinor int64, max int32) ([]rider.Entity, error)
	SetStatus(ctx context.Context, tenantID int64, riderID, status, reason string) error
	CountByStatus(ctx context.Context, tenantID int64, status string) (int64, error)
}

type AutoBlockTenantRepository interface {
	ListActive(ctx context.Context) ([]tenant.Entity, error)
}

// AutoBlockWorker enforces the cash-balance business rule: riders holding
// more cash than their tenant allows are blocked until an operator settles
// and unblocks them. It also warns when a tenant's active fleet reaches its
// contracted rider limit.
type AutoBlockWorker struct {
	riderRepo  AutoBlockRiderRepository
	tenantRepo AutoBlockTenantRepository
	logger     *slog.Logger
}

func NewAutoBlockWorker(riderRepo AutoBlockRiderRepository, tenantRepo AutoBlockTenantRepository, logger *slog.Logger) *AutoBlockWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoBlockWorker{riderRepo: riderRepo, tenantRepo: tenantRepo, logger: logger}
}

func (w *AutoBlockWorker) RunOnce(ctx context.Context, batchSize int32) error {
	tenants, err := w.tenantRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, t := range tenants {
		if err := w.processTenant(ctx, t, batchSize); err != nil {
			return err
		}
	}
	return nil
}

func (w *AutoBlockWorker) processTenant(ctx context.Context, t tenant.Entity, batchSize int32) error {
	if t.CashLimitMinor > 0 {
		over, err := w.riderRepo.ListOverCashLimit(ctx, t.ID, t.CashLimitMinor, batchSize)
		if err != nil {
			return err
		}
		for _, r := range over {
			if err := w.riderRepo.SetStatus(ctx, t.ID, r.ID, rider.StatusBlocked, rider.BlockReasonCashLimit); err != nil {
				return err
			}
			w.logger.Info("rider auto-blocked",
				"tenant", t.ID, "rider", r.ID, "cash_balance_minor", r.CashBalanceMinor, "limit_minor", t.CashLimitMinor)
		}
	}

	if t.RiderLimit > 0 {
		active, err := w.riderRepo.CountByStatus(ctx, t.ID, rider.StatusActive)
		if err != nil {
			return err
		}
		if active >= int64(t.RiderLimit) {
			w.logger.Warn("tenant at rider limit", "tenant", t.ID, "active_riders", active, "rider_limit", t.RiderLimit)
		}
	}
	return nil
}
