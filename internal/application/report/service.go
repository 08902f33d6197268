package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domorder "github.com/krishibazaar/marketplace/internal/domain/order"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

const (
	component         = "report_service"
	recentActivityCap = 100
)

// Summary is the reconciliation fold over orders and products. Revenue sums
// quantity times the unit price snapshotted at acceptance, so a later price
// edit does not restate history. Inventory reads live quantities.
type Summary struct {
	TotalAcceptedQuantity int
	TotalRevenue          decimal.Decimal
	TotalInventory        int
}

// Service is the pure read side; it owns no state and performs no mutation.
type Service struct {
	orders   domorder.Repository
	products domproduct.Repository
	activity activity.Repository
	log      observability.Logger
}

func NewService(orders domorder.Repository, products domproduct.Repository, act activity.Repository, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:   orders,
		products: products,
		activity: act,
		log:      tel.Logger().With(observability.F("component", component)),
	}
}

// Reconcile aggregates totals for the actor's scope: global for an admin,
// own listings for a seller.
func (s *Service) Reconcile(ctx context.Context, act actor.Actor) (*Summary, error) {
	var (
		orders   []*domorder.Order
		products []*domproduct.Product
		err      error
	)

	if act.IsAdmin() {
		orders, err = s.orders.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		products, err = s.products.ListAll(ctx)
	} else {
		orders, err = s.orders.ListBySeller(ctx, act.ID)
		if err != nil {
			return nil, err
		}
		products, err = s.products.ListBySeller(ctx, act.ID)
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalRevenue: decimal.Zero}
	for _, o := range orders {
		if o.Status != domorder.StatusAccepted {
			continue
		}
		summary.TotalAcceptedQuantity += o.Quantity
		summary.TotalRevenue = summary.TotalRevenue.Add(
			o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity))),
		)
	}
	for _, p := range products {
		summary.TotalInventory += p.Quantity
	}

	logctx.FromOr(ctx, s.log).Debug("reconcile_done",
		observability.F("scope_admin", act.IsAdmin()),
		observability.F("orders", len(orders)),
		observability.F("products", len(products)),
	)
	return summary, nil
}

// RecentActivity returns the newest audit-trail entries for the admin view.
func (s *Service) RecentActivity(ctx context.Context, act actor.Actor) ([]activity.Entry, error) {
	if !act.IsAdmin() {
		return nil, domorder.ErrUnauthorized
	}
	return s.activity.Recent(ctx, recentActivityCap)
}
