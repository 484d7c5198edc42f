// Package oversight is the admin side of the marketplace: platform-wide
// aggregates, the synthetic ticket queue, vendor verification and the
// admin-only order transitions.
package oversight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/cache"
	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

const maxWindowDays = 365

type Service struct {
	store     *ledger.Store
	engine    *reconcile.Engine
	notifier  notify.Notifier
	gen       *cache.Generation
	cfg       config.AggregatesConfig
	threshold decimal.Decimal
}

// NewService wires the admin service. gen may be nil, in which case every
// dashboard read recomputes.
func NewService(store *ledger.Store, engine *reconcile.Engine, n notify.Notifier, gen *cache.Generation, cfg config.AggregatesConfig, tickets config.TicketsConfig) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	return &Service{
		store:     store,
		engine:    engine,
		notifier:  n,
		gen:       gen,
		cfg:       cfg,
		threshold: tickets.Threshold(),
	}
}

type Trend struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Percent  float64 `json:"percent"`
}

func newTrend(current, previous float64) Trend {
	return Trend{Current: current, Previous: previous, Percent: TrendPercent(current, previous)}
}

type Dashboard struct {
	WindowDays    int             `json:"window_days"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Revenue       decimal.Decimal `json:"revenue"`
	PendingEscrow decimal.Decimal `json:"pending_escrow"`
	OrderCount    int64           `json:"order_count"`
	ClientCount   int             `json:"client_count"`
	RevenueTrend  Trend           `json:"revenue_trend"`
	OrdersTrend   Trend           `json:"orders_trend"`
	ClientsTrend  Trend           `json:"clients_trend"`
}

// Dashboard returns the aggregates for a rolling window of windowDays.
// Zero means the configured default. All-time figures come from the
// materialized totals; only the trend windows query orders.
func (s *Service) Dashboard(ctx context.Context, windowDays int) (Dashboard, error) {
	if windowDays == 0 {
		windowDays = s.cfg.WindowDays
	}
	if windowDays < 1 || windowDays > maxWindowDays {
		return Dashboard{}, apperr.Validation("window_days", fmt.Sprintf("window must be between 1 and %d days", maxWindowDays))
	}

	key := s.cacheKey(ctx, windowDays)
	if key != "" {
		if d, ok := s.cached(ctx, key); ok {
			return d, nil
		}
	}

	d, err := s.compute(ctx, windowDays)
	if err != nil {
		return Dashboard{}, err
	}

	if key != "" {
		if b, err := json.Marshal(d); err == nil {
			if err := s.gen.Cache().Set(ctx, key, b, s.cfg.CacheTTL); err != nil {
				slog.WarnContext(ctx, "dashboard cache write failed", "key", key, "error", err)
			}
		}
	}
	return d, nil
}

func (s *Service) cacheKey(ctx context.Context, windowDays int) string {
	if s.gen == nil {
		return ""
	}
	key, err := s.gen.Key(ctx, "dashboard", strconv.Itoa(windowDays))
	if err != nil {
		slog.WarnContext(ctx, "dashboard cache unavailable", "error", err)
		return ""
	}
	return key
}

func (s *Service) cached(ctx context.Context, key string) (Dashboard, bool) {
	raw, err := s.gen.Cache().Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "dashboard cache read failed", "key", key, "error", err)
		return Dashboard{}, false
	}
	if raw == "" {
		return Dashboard{}, false
	}
	var d Dashboard
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		slog.WarnContext(ctx, "dashboard cache entry unreadable", "key", key, "error", err)
		return Dashboard{}, false
	}
	return d, true
}

func (s *Service) compute(ctx context.Context, windowDays int) (Dashboard, error) {
	now := s.store.Now()
	d := Dashboard{
		WindowDays:  windowDays,
		GeneratedAt: now,
	}

	tot, err := s.store.Totals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	d.Revenue, d.PendingEscrow, d.OrderCount = tot.Revenue, tot.PendingEscrow, tot.OrderCount

	vendors, err := s.store.VendorUserIDs(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	admins, err := s.store.AdminUserIDs(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	profiles, err := s.store.ProfileIDs(ctx, nil, nil)
	if err != nil {
		return Dashboard{}, err
	}
	d.ClientCount = len(DeriveClients(profiles, vendors, admins))

	window := time.Duration(windowDays) * 24 * time.Hour
	currentFrom, previousFrom := now.Add(-window), now.Add(-2*window)

	current, err := s.store.OrdersBetween(ctx, currentFrom, now, s.limit())
	if err != nil {
		return Dashboard{}, err
	}
	previous, err := s.store.OrdersBetween(ctx, previousFrom, currentFrom, s.limit())
	if err != nil {
		return Dashboard{}, err
	}
	d.RevenueTrend = newTrend(Revenue(current).InexactFloat64(), Revenue(previous).InexactFloat64())
	d.OrdersTrend = newTrend(float64(len(current)), float64(len(previous)))

	newClients, err := s.store.ProfileIDs(ctx, &currentFrom, &now)
	if err != nil {
		return Dashboard{}, err
	}
	oldClients, err := s.store.ProfileIDs(ctx, &previousFrom, &currentFrom)
	if err != nil {
		return Dashboard{}, err
	}
	d.ClientsTrend = newTrend(
		float64(len(DeriveClients(newClients, vendors, admins))),
		float64(len(DeriveClients(oldClients, vendors, admins))),
	)

	slog.InfoContext(ctx, "dashboard recomputed", "window_days", windowDays, "orders", d.OrderCount)
	return d, nil
}

// Tickets projects cancelled orders and unverified vendors into the
// support queue.
func (s *Service) Tickets(ctx context.Context) ([]Ticket, error) {
	orders, err := s.store.OrdersWithStatus(ctx, models.OrderStatusCancelled, s.limit())
	if err != nil {
		return nil, err
	}
	unverified := false
	vendors, err := s.store.Vendors(ctx, &unverified)
	if err != nil {
		return nil, err
	}
	return DeriveTickets(orders, vendors, s.threshold), nil
}

func (s *Service) limit() int {
	if s.cfg.MaxRows > 0 {
		return s.cfg.MaxRows
	}
	return -1
}

// PendingVendors lists vendors still waiting for verification.
func (s *Service) PendingVendors(ctx context.Context) ([]models.Vendor, error) {
	unverified := false
	return s.store.Vendors(ctx, &unverified)
}

// VerifyVendor sets a vendor's verification flag.
func (s *Service) VerifyVendor(ctx context.Context, adminID, vendorID string, verified bool) (*models.Vendor, error) {
	v, err := s.store.SetVendorVerified(ctx, vendorID, verified)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "vendor verification changed", "vendor_id", v.ID, "verified", verified, "actor", adminID)

	msg := "Your vendor account is verified"
	kind := "vendor_verified"
	if !verified {
		msg, kind = "Your vendor account verification was withdrawn", "vendor_unverified"
	}
	err = s.notifier.Notify(ctx, notify.Notification{
		Audience:    notify.AudienceVendor,
		RecipientID: v.ID,
		Kind:        kind,
		Message:     msg,
		At:          s.store.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "notification failed", "vendor_id", v.ID, "kind", kind, "error", err)
	}
	if s.gen != nil {
		if err := s.gen.Invalidate(ctx); err != nil {
			slog.ErrorContext(ctx, "aggregate cache invalidation failed", "error", err)
		}
	}
	return v, nil
}
