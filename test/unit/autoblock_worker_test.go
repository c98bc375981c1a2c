package unit

import (
	"context"
	"testing"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/tenant"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/jobs"
)

type fakeAutoBlockRiderRepo struct {
	overLimit map[int64][]rider.Entity
	blocked   []string
	active    int64
}

func (r *fakeAutoBlockRiderRepo) ListOverCashLimit(_ context.Context, tenantID, _ int64, _ int32) ([]rider.Entity, error) {
	return r.overLimit[tenantID], nil
}

func (r *fakeAutoBlockRiderRepo) SetStatus(_ context.Context, _ int64, riderID, status, reason string) error {
	r.blocked = append(r.blocked, riderID+":"+status+":"+reason)
	return nil
}

func (r *fakeAutoBlockRiderRepo) CountByStatus(_ context.Context, _ int64, _ string) (int64, error) {
	return r.active, nil
}

type fakeAutoBlockTenantRepo struct {
	tenants []tenant.Entity
}

func (r *fakeAutoBlockTenantRepo) ListActive(_ context.Context) ([]tenant.Entity, error) {
	return r.tenants, nil
}

func TestAutoBlockWorkerBlocksOverLimitRiders(t *testing.T) {
	riderRepo := &fakeAutoBlockRiderRepo{
		overLimit: map[int64][]rider.Entity{
			7: {
				{ID: "rdr-1", CashBalanceMinor: 300000},
				{ID: "rdr-2", CashBalanceMinor: 250001},
			},
		},
	}
	tenantRepo := &fakeAutoBlockTenantRepo{tenants: []tenant.Entity{{ID: 7, CashLimitMinor: 250000}}}
	worker := jobs.NewAutoBlockWorker(riderRepo, tenantRepo, nil)

	if err := worker.RunOnce(context.Background(), 100); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(riderRepo.blocked) != 2 {
		t.Fatalf("blocked = %v, want 2 riders", riderRepo.blocked)
	}
	want := "rdr-1:" + rider.StatusBlocked + ":" + rider.BlockReasonCashLimit
	if riderRepo.blocked[0] != want {
		t.Fatalf("unexpected block record: %q", riderRepo.blocked[0])
	}
}

func TestAutoBlockWorkerSkipsTenantsWithoutLimit(t *testing.T) {
	riderRepo := &fakeAutoBlockRiderRepo{
		overLimit: map[int64][]rider.Entity{7: {{ID: "rdr-1"}}},
	}
	tenantRepo := &fakeAutoBlockTenantRepo{tenants: []tenant.Entity{{ID: 7, CashLimitMinor: 0}}}
	worker := jobs.NewAutoBlockWorker(riderRepo, tenantRepo, nil)

	if err := worker.RunOnce(context.Background(), 100); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(riderRepo.blocked) != 0 {
		t.Fatalf("tenant without limit had riders blocked: %v", riderRepo.blocked)
	}
}

func TestAutoBlockWorkerRiderLimitWarningDoesNotFail(t *testing.T) {
	riderRepo := &fakeAutoBlockRiderRepo{active: 120}
	tenantRepo := &fakeAutoBlockTenantRepo{tenants: []tenant.Entity{{ID: 7, RiderLimit: 100}}}
	worker := jobs.NewAutoBlockWorker(riderRepo, tenantRepo, nil)

	if err := worker.RunOnce(context.Background(), 100); err != nil {
		t.Fatalf("run once: %v", err)
	}
}
