package services

import (
	"context"
	"errors"
	"time"

	"freshmart/internal/domain"
	"freshmart/internal/log"
	"freshmart/internal/payments"
)

type ReconcileReport struct {
	Checked      int
	Paid         int
	Failed       int
	StillPending int
	Skipped      int
	Errors       int
	Flagged      []domain.Payment
}

// Reconcile settles PENDING orders older than olderThan by asking each
// provider for the attempt status. Orders without an attempt ref are flagged
// for manual review.
func (s *CheckoutService) Reconcile(ctx context.Context, olderThan time.Duration) (ReconcileReport, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.reconcile")
	defer span.End()

	var rep ReconcileReport
	stale, err := s.orders.ListStalePending(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return rep, err
	}

	for _, o := range stale {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++
		fields := map[string]any{"orderId": o.ID, "provider": o.PaymentMethod}

		pay, err := s.payments.ByOrder(ctx, o.ID)
		if err != nil {
			rep.Errors++
			log.Error(nil, "reconcile.payment", err, fields)
			continue
		}
		if !pay.AttemptRef.Valid || pay.AttemptRef.String == "" {
			rep.Skipped++
			if !pay.ReconcileNote.Valid {
				if err := s.payments.Update(ctx, o.ID, domain.PaymentUpdate{ReconcileNote: "no provider attempt reference; check the provider dashboard"}); err != nil {
					rep.Errors++
					log.Error(nil, "reconcile.note", err, fields)
				}
			}
			continue
		}
		fields["providerRef"] = pay.AttemptRef.String

		adapter, err := s.adapters.Get(pay.Provider)
		if err != nil {
			rep.Errors++
			log.Error(nil, "reconcile.adapter", err, fields)
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		conf, err := adapter.Confirm(cctx, pay.AttemptRef.String)
		cancel()
		if err != nil {
			rep.Errors++
			log.Error(nil, "reconcile.confirm", err, fields)
			continue
		}

		switch conf.Status {
		case payments.StatusSucceeded:
			out, err := s.Finalize(ctx, o.ID, conf)
			switch {
			case err == nil && out.Status == domain.OrderPaid:
				rep.Paid++
			case errors.Is(err, domain.ErrInsufficientStock):
				rep.Failed++
			case err != nil:
				rep.Errors++
				log.Error(nil, "reconcile.finalize", err, fields)
			}
		case payments.StatusFailed:
			if err := s.MarkFailed(ctx, o.ID, "provider reported failure during reconcile"); err != nil {
				rep.Errors++
				log.Error(nil, "reconcile.mark_failed", err, fields)
				continue
			}
			rep.Failed++
		default:
			rep.StillPending++
		}
	}

	flagged, err := s.payments.ListFlagged(ctx)
	if err != nil {
		return rep, err
	}
	rep.Flagged = flagged

	log.Info(nil, "reconcile.done", map[string]any{
		"checked": rep.Checked, "paid": rep.Paid, "failed": rep.Failed,
		"pending": rep.StillPending, "skipped": rep.Skipped, "errors": rep.Errors, "flagged": len(flagged),
	})
	return rep, nil
}
