package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/tenant"
)

type TenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Entity, error)
}

type LocationSource interface {
	FetchRiderLocations(ctx context.Context, externalTenantID string, cityID int64) ([]rider.Location, error)
}

type LocationStore interface {
	UpsertLocation(ctx context.Context, tenantID int64, loc rider.Location) error
}

// Broadcaster is the realtime hub's fan-out entry point. The poller is the
// only component in the process that invokes it.
type Broadcaster interface {
	Broadcast(tenantID, cityID int64, locations []rider.Location) error
}

// LocationPoller periodically pulls rider positions from the delivery
// platform for every active tenant's cities, persists the last known
// positions, and pushes each batch through the hub. Ticks run one at a time
// on the poller's own goroutine, so broadcasts for a given (tenant, city)
// reach a connection in invocation order.
type LocationPoller struct {
	tenants     TenantLister
	source      LocationSource
	store       LocationStore
	broadcaster Broadcaster
	logger      *slog.Logger
	interval    time.Duration
}

func NewLocationPoller(tenants TenantLister, source LocationSource, store LocationStore, broadcaster Broadcaster, logger *slog.Logger, interval time.Duration) *LocationPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &LocationPoller{
		tenants:     tenants,
		source:      source,
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
		interval:    interval,
	}
}

func (p *LocationPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *LocationPoller) PollOnce(ctx context.Context) error {
	tenants, err := p.tenants.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, t := range tenants {
		for _, cityID := range t.CityIDs {
			locations, err := p.source.FetchRiderLocations(ctx, t.ExternalID, cityID)
			if err != nil {
				// One city failing must not starve the rest of the fleet.
				p.logger.Warn("location fetch failed", "tenant", t.ID, "city", cityID, "err", err)
				continue
			}
			if len(locations) == 0 {
				continue
			}

			for _, loc := range locations {
				if err := p.store.UpsertLocation(ctx, t.ID, loc); err != nil {
					p.logger.Warn("location upsert failed", "tenant", t.ID, "rider", loc.RiderID, "err", err)
				}
			}

			if err := p.broadcaster.Broadcast(t.ID, cityID, locations); err != nil {
				p.logger.Error("broadcast failed, dropping batch", "tenant", t.ID, "city", cityID, "err", err)
			}
		}
	}
	return nil
}
