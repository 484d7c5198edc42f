package oversight

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// TotalsReport compares the materialized totals with a full recomputation.
type TotalsReport struct {
	Stored     models.PlatformTotals `json:"stored"`
	Recomputed models.PlatformTotals `json:"recomputed"`
	Scanned    int                   `json:"scanned"`
	// Truncated is set when the scan stopped at the row cap; nothing is
	// repaired in that case.
	Truncated bool `json:"truncated"`
	Drift     bool `json:"drift"`
	Repaired  bool `json:"repaired"`
}

// ReconcileTotals recomputes revenue and pending escrow from the order rows
// and, when repair is set, overwrites drifted totals. The comparison and the
// overwrite happen under the totals lock, so transitions committing
// meanwhile are applied after it rather than lost.
func (s *Service) ReconcileTotals(ctx context.Context, repair bool) (TotalsReport, error) {
	var r TotalsReport
	err := s.store.WithTotalsLock(ctx, func(tt *ledger.TotalsTx) error {
		r = TotalsReport{Stored: tt.Stored()}
		r.Recomputed = models.PlatformTotals{ID: models.PlatformTotalsID, Revenue: decimal.Zero, PendingEscrow: decimal.Zero}
		err := tt.EachOrder(s.cfg.BatchSize, s.cfg.MaxRows, func(batch []models.Order) error {
			r.Recomputed.Revenue = r.Recomputed.Revenue.Add(Revenue(batch))
			r.Recomputed.PendingEscrow = r.Recomputed.PendingEscrow.Add(PendingEscrow(batch))
			r.Scanned += len(batch)
			return nil
		})
		if err != nil {
			return err
		}
		count, err := tt.OrderCount()
		if err != nil {
			return err
		}
		r.Recomputed.OrderCount = count
		r.Truncated = int64(r.Scanned) < count
		r.Drift = !r.Stored.Revenue.Equal(r.Recomputed.Revenue) ||
			!r.Stored.PendingEscrow.Equal(r.Recomputed.PendingEscrow) ||
			r.Stored.OrderCount != count

		if !r.Drift || r.Truncated || !repair {
			return nil
		}
		if err := tt.Replace(r.Recomputed); err != nil {
			return err
		}
		r.Repaired = true
		return nil
	})
	if err != nil {
		return TotalsReport{}, err
	}

	if !r.Drift || r.Truncated {
		slog.InfoContext(ctx, "platform totals checked", "scanned", r.Scanned, "drift", r.Drift, "truncated", r.Truncated)
		return r, nil
	}
	slog.WarnContext(ctx, "platform totals drifted",
		"stored_revenue", r.Stored.Revenue, "revenue", r.Recomputed.Revenue,
		"stored_escrow", r.Stored.PendingEscrow, "escrow", r.Recomputed.PendingEscrow,
		"stored_orders", r.Stored.OrderCount, "orders", r.Recomputed.OrderCount,
		"repaired", r.Repaired)
	if r.Repaired && s.gen != nil {
		if err := s.gen.Invalidate(ctx); err != nil {
			slog.WarnContext(ctx, "dashboard cache invalidation failed", "error", err)
		}
	}
	return r, nil
}
