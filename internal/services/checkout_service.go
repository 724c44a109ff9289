package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"freshmart/internal/cart"
	"freshmart/internal/domain"
	"freshmart/internal/events"
	"freshmart/internal/log"
	"freshmart/internal/metrics"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
)

// PendingStore remembers which order a session's attempt with a provider
// belongs to, for channels that only carry a provider token.
type PendingStore interface {
	Put(ctx context.Context, sessionID, provider, orderID string) error
	Get(ctx context.Context, sessionID, provider string) (string, error)
	ClearOrder(ctx context.Context, orderID string) error
}

type CheckoutOptions struct {
	Pending         PendingStore
	Events          events.Publisher
	Metrics         *metrics.Metrics
	Pricing         cart.Pricing
	Currency        string
	ProviderTimeout time.Duration
	BaseURL         string
}

// CheckoutService runs an attempt from cart to a terminal order. Every
// confirmation channel ends in Finalize, which is safe to call repeatedly.
type CheckoutService struct {
	db       *sqlx.DB
	carts    *repos.CartRepo
	orders   *repos.OrderRepo
	payments *repos.PaymentRepo
	inv      *repos.InventoryRepo
	adapters *payments.Registry
	pending  PendingStore
	events   events.Publisher
	metrics  *metrics.Metrics
	pricing  cart.Pricing
	currency string
	timeout  time.Duration
	baseURL  string
	tracer   trace.Tracer
}

func NewCheckoutService(db *sqlx.DB, adapters *payments.Registry, opts CheckoutOptions) *CheckoutService {
	s := &CheckoutService{
		db:       db,
		carts:    repos.NewCartRepo(db),
		orders:   repos.NewOrderRepo(db),
		payments: repos.NewPaymentRepo(db),
		inv:      repos.NewInventoryRepo(db),
		adapters: adapters,
		pending:  opts.Pending,
		events:   opts.Events,
		metrics:  opts.Metrics,
		pricing:  opts.Pricing,
		currency: opts.Currency,
		timeout:  opts.ProviderTimeout,
		baseURL:  opts.BaseURL,
		tracer:   otel.Tracer("freshmart/checkout"),
	}
	if s.pending == nil {
		s.pending = repos.NewPendingRepo(db)
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.pricing.TaxRate.IsZero() && s.pricing.ShippingFlat.IsZero() {
		s.pricing = cart.DefaultPricing()
	}
	if s.currency == "" {
		s.currency = "SGD"
	}
	if s.timeout <= 0 {
		s.timeout = 15 * time.Second
	}
	return s
}

// Attempt is what the buyer's browser needs to continue with the provider.
type Attempt struct {
	OrderID      string
	Provider     string
	ProviderRef  string
	ApprovalURL  string
	ClientSecret string
	QRCode       string
	Totals       cart.Totals
	Currency     string
}

// Outcome reports where Finalize left an order.
type Outcome struct {
	OrderID          string
	Status           domain.OrderStatus
	AlreadyFinalized bool
}

// Pricing is the tax and shipping policy every total is computed with.
func (s *CheckoutService) Pricing() cart.Pricing { return s.pricing }

// Currency is the ISO code sent to every provider.
func (s *CheckoutService) Currency() string { return s.currency }

// Providers lists the configured payment providers.
func (s *CheckoutService) Providers() []string { return s.adapters.Providers() }

// StartCheckout creates the PENDING order with its items and payment, then
// opens the remote attempt.
func (s *CheckoutService) StartCheckout(ctx context.Context, sessionID string, user *domain.User, provider string) (Attempt, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.start", trace.WithAttributes(attribute.String("provider", provider)))
	defer span.End()

	lines, err := s.carts.Lines(ctx, sessionID)
	if err != nil {
		return Attempt{}, err
	}
	if len(lines) == 0 {
		return Attempt{}, domain.ErrEmptyCart
	}
	if user == nil {
		return Attempt{}, domain.ErrUnauthenticated
	}
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return Attempt{}, err
	}

	totals := cart.ComputeTotals(lines, s.pricing)
	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		SessionID:     sessionID,
		Total:         totals.Total,
		PaymentMethod: provider,
		Status:        domain.OrderPending,
	}
	pay := domain.Payment{
		ID:       uuid.NewString(),
		OrderID:  order.ID,
		UserID:   user.ID,
		Provider: provider,
		Amount:   totals.Total,
		Currency: s.currency,
		Status:   domain.PaymentCreated,
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.orders.WithTx(tx).InsertItem(ctx, domain.OrderItem{
				OrderID:     order.ID,
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			}); err != nil {
				return err
			}
		}
		return s.payments.WithTx(tx).Create(ctx, &pay)
	})
	if err != nil {
		return Attempt{}, fmt.Errorf("create order: %w", err)
	}

	bctx, cancel := context.WithTimeout(ctx, s.timeout)
	handle, err := adapter.Begin(bctx, payments.AttemptRequest{
		OrderID:   order.ID,
		Currency:  s.currency,
		Totals:    totals,
		Lines:     lines,
		ReturnURL: s.baseURL + "/" + provider + "/return",
		CancelURL: s.baseURL + "/checkout",
	})
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		fields := map[string]any{"orderId": order.ID, "provider": provider}
		if payments.IsTimeout(err) {
			// the remote side may still have created the attempt; reconcile decides
			log.Error(nil, "checkout.begin_timeout", err, fields)
			s.metrics.Checkout(provider, "timeout")
			return Attempt{OrderID: order.ID, Provider: provider}, fmt.Errorf("%w: order %s", domain.ErrProviderTimeout, order.ID)
		}
		log.Error(nil, "checkout.begin_rejected", err, fields)
		if ferr := s.markFailed(ctx, order.ID, "provider rejected attempt"); ferr != nil {
			log.Error(nil, "checkout.mark_failed", ferr, fields)
		}
		s.metrics.Checkout(provider, "rejected")
		return Attempt{OrderID: order.ID, Provider: provider}, domain.ErrProviderRejected
	}

	if err := s.payments.Update(ctx, order.ID, domain.PaymentUpdate{AttemptRef: handle.Ref, ProviderRef: handle.Ref}); err != nil {
		return Attempt{}, err
	}
	if err := s.pending.Put(ctx, sessionID, provider, order.ID); err != nil {
		// the ref lookup still works without the marker
		log.Error(nil, "checkout.pending_marker", err, map[string]any{"orderId": order.ID})
	}

	s.metrics.Checkout(provider, "started")
	log.Audit(nil, "checkout.started", map[string]any{
		"orderId": order.ID, "userId": user.ID, "provider": provider, "total": totals.Total.StringFixed(2),
	})
	return Attempt{
		OrderID:      order.ID,
		Provider:     provider,
		ProviderRef:  handle.Ref,
		ApprovalURL:  handle.ApprovalURL,
		ClientSecret: handle.ClientSecret,
		QRCode:       handle.QRCode,
		Totals:       totals,
		Currency:     s.currency,
	}, nil
}

// Finalize turns a verified confirmation into a PAID order exactly once.
// Repeated calls for a terminal order are no-ops, except that a success for a
// FAILED order sends the captured amount back.
func (s *CheckoutService) Finalize(ctx context.Context, orderID string, conf payments.Confirmation) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.finalize", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{OrderID: orderID, Status: order.Status}

	if order.Status.Terminal() {
		s.clearMarkers(ctx, orderID)
		if order.Status == domain.OrderFailed && conf.Succeeded() {
			s.capturedAfterFailure(ctx, order, conf)
		} else {
			s.metrics.Finalize(order.PaymentMethod, "already_finalized")
		}
		out.AlreadyFinalized = true
		return out, nil
	}
	if !conf.Succeeded() {
		s.metrics.Finalize(order.PaymentMethod, "unverified")
		log.Security(nil, "checkout.finalize_unverified", map[string]any{
			"orderId": orderID, "providerRef": conf.ProviderRef, "status": string(conf.Status),
		})
		return out, domain.ErrConfirmationUnverified
	}

	items, err := s.lines(ctx, order)
	if err != nil {
		return out, err
	}

	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		claimed, err := s.orders.WithTx(tx).Transition(ctx, orderID, domain.OrderPending, domain.OrderPaid)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrAlreadyFinalized
		}
		inv := s.inv.WithTx(tx)
		for _, it := range items {
			if err := inv.Check(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return fmt.Errorf("%w: %s no longer exists", domain.ErrInsufficientStock, it.ProductID)
				}
				return err
			}
		}
		for _, it := range items {
			if err := s.orders.WithTx(tx).InsertItem(ctx, it); err != nil {
				return err
			}
			if err := inv.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return s.payments.WithTx(tx).Update(ctx, orderID, domain.PaymentUpdate{
			Status:      domain.PaymentCompleted,
			ProviderRef: conf.ProviderRef,
			PayerEmail:  conf.PayerEmail,
		})
	})

	switch {
	case errors.Is(err, domain.ErrAlreadyFinalized):
		s.clearMarkers(ctx, orderID)
		s.metrics.Finalize(order.PaymentMethod, "already_finalized")
		if cur, gerr := s.orders.Get(ctx, orderID); gerr == nil {
			out.Status = cur.Status
			if cur.Status == domain.OrderFailed {
				s.capturedAfterFailure(ctx, cur, conf)
			}
		}
		out.AlreadyFinalized = true
		return out, nil
	case errors.Is(err, domain.ErrInsufficientStock):
		span.SetStatus(codes.Error, "insufficient stock")
		s.failAfterCapture(ctx, order, conf, err)
		out.Status = domain.OrderFailed
		return out, err
	case err != nil:
		span.RecordError(err)
		log.Error(nil, "checkout.finalize", err, map[string]any{"orderId": orderID, "providerRef": conf.ProviderRef})
		s.metrics.Finalize(order.PaymentMethod, "error")
		return out, err
	}

	if err := s.carts.Clear(ctx, order.SessionID); err != nil {
		log.Error(nil, "checkout.clear_cart", err, map[string]any{"orderId": orderID})
	}
	s.clearMarkers(ctx, orderID)
	s.publish(ctx, events.OrderPaid, order, conf.ProviderRef, "")
	s.metrics.Finalize(order.PaymentMethod, "paid")
	log.Audit(nil, "order.paid", map[string]any{"orderId": orderID, "providerRef": conf.ProviderRef, "provider": order.PaymentMethod})

	out.Status = domain.OrderPaid
	return out, nil
}

// lines prefers the items written at StartCheckout and falls back to the
// session cart for orders created without them.
func (s *CheckoutService) lines(ctx context.Context, order domain.Order) ([]domain.OrderItem, error) {
	items, err := s.orders.Items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	cl, err := s.carts.Lines(ctx, order.SessionID)
	if err != nil {
		return nil, err
	}
	if len(cl) == 0 {
		return nil, fmt.Errorf("%w: no lines for order %s", domain.ErrEmptyCart, order.ID)
	}
	items = make([]domain.OrderItem, 0, len(cl))
	for _, l := range cl {
		items = append(items, domain.OrderItem{
			OrderID:     order.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return items, nil
}

// failAfterCapture handles a paid confirmation that cannot be fulfilled: the
// order fails and the captured money is sent back when the provider allows.
func (s *CheckoutService) failAfterCapture(ctx context.Context, order domain.Order, conf payments.Confirmation, cause error) {
	fields := map[string]any{"orderId": order.ID, "providerRef": conf.ProviderRef, "provider": order.PaymentMethod}
	log.Error(nil, "checkout.finalize_stock", cause, fields)
	s.metrics.Finalize(order.PaymentMethod, "stock_failed")

	failed := false
	err := repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ok, err := s.orders.WithTx(tx).Transition(ctx, order.ID, domain.OrderPending, domain.OrderFailed)
		if err != nil || !ok {
			return err
		}
		failed = true
		return s.payments.WithTx(tx).Update(ctx, order.ID, domain.PaymentUpdate{
			Status:      domain.PaymentFailed,
			ProviderRef: conf.ProviderRef,
			PayerEmail:  conf.PayerEmail,
		})
	})
	if err != nil {
		log.Error(nil, "checkout.mark_failed", err, fields)
		return
	}
	if !failed {
		// another channel failed the order first; the capture still has to go back
		if cur, gerr := s.orders.Get(ctx, order.ID); gerr == nil && cur.Status == domain.OrderFailed {
			s.capturedAfterFailure(ctx, cur, conf)
		}
		return
	}
	s.clearMarkers(ctx, order.ID)
	s.publish(ctx, events.OrderFailed, order, conf.ProviderRef, "insufficient stock")

	s.refundCaptured(ctx, order, conf, "insufficient stock at finalize")
}

// capturedAfterFailure refunds a capture confirmed for an order that is
// already FAILED, e.g. a card retried on the same Stripe intent.
func (s *CheckoutService) capturedAfterFailure(ctx context.Context, order domain.Order, conf payments.Confirmation) {
	fields := map[string]any{"orderId": order.ID, "providerRef": conf.ProviderRef, "provider": order.PaymentMethod}
	pay, err := s.payments.ByOrder(ctx, order.ID)
	if err != nil {
		log.Error(nil, "checkout.captured_after_failure", err, fields)
		return
	}
	if pay.RefundReason.Valid || pay.RefundRef.Valid {
		// already sent back, or already being sent back
		s.metrics.Finalize(order.PaymentMethod, "already_finalized")
		return
	}
	log.Error(nil, "checkout.captured_after_failure", fmt.Errorf("payment captured for %s order %s", order.Status, order.ID), fields)
	s.metrics.Finalize(order.PaymentMethod, "captured_after_failure")

	if err := s.payments.Update(ctx, order.ID, domain.PaymentUpdate{ProviderRef: conf.ProviderRef, PayerEmail: conf.PayerEmail}); err != nil {
		log.Error(nil, "checkout.captured_after_failure", err, fields)
	}
	s.refundCaptured(ctx, order, conf, "payment captured after the order failed")
}

// refundCaptured sends a captured amount back at most once. When the
// provider cannot refund, the payment is flagged for manual reconciliation.
func (s *CheckoutService) refundCaptured(ctx context.Context, order domain.Order, conf payments.Confirmation, reason string) {
	fields := map[string]any{"orderId": order.ID, "providerRef": conf.ProviderRef, "provider": order.PaymentMethod}
	claimed, err := s.payments.ClaimRefund(ctx, order.ID, reason)
	if err != nil {
		log.Error(nil, "checkout.auto_refund_claim", err, fields)
		return
	}
	if !claimed {
		log.Info(nil, "checkout.auto_refund_skipped", fields)
		return
	}

	res, err := s.refundRemote(ctx, order.PaymentMethod, payments.RefundRequest{
		OrderID:     order.ID,
		ProviderRef: conf.ProviderRef,
		Amount:      order.Total,
		Currency:    s.currency,
		Reason:      reason,
	})
	if err != nil {
		log.Error(nil, "checkout.auto_refund", err, fields)
		note := fmt.Sprintf("%s; automatic refund failed: %v", reason, err)
		if uerr := s.payments.Update(ctx, order.ID, domain.PaymentUpdate{ReconcileNote: note}); uerr != nil {
			log.Error(nil, "checkout.reconcile_note", uerr, fields)
		}
		return
	}
	now := time.Now()
	if err := s.payments.Update(ctx, order.ID, domain.PaymentUpdate{
		RefundRef: res.RefundRef, RefundedAt: &now,
	}); err != nil {
		log.Error(nil, "checkout.auto_refund_record", err, fields)
	}
	log.Audit(nil, "checkout.auto_refund", map[string]any{"orderId": order.ID, "refundRef": res.RefundRef, "reason": reason})
}

// MarkFailed moves a PENDING order and its payment to FAILED. Terminal
// orders are left alone.
func (s *CheckoutService) MarkFailed(ctx context.Context, orderID, reason string) error {
	ctx, span := s.tracer.Start(ctx, "checkout.mark_failed", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()
	return s.markFailed(ctx, orderID, reason)
}

func (s *CheckoutService) markFailed(ctx context.Context, orderID, reason string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	failed := false
	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ok, err := s.orders.WithTx(tx).Transition(ctx, orderID, domain.OrderPending, domain.OrderFailed)
		if err != nil || !ok {
			return err
		}
		failed = true
		return s.payments.WithTx(tx).Update(ctx, orderID, domain.PaymentUpdate{Status: domain.PaymentFailed})
	})
	if err != nil || !failed {
		return err
	}
	s.clearMarkers(ctx, orderID)
	s.publish(ctx, events.OrderFailed, order, "", reason)
	s.metrics.Finalize(order.PaymentMethod, "failed")
	log.Audit(nil, "order.failed", map[string]any{"orderId": orderID, "reason": reason})
	return nil
}

// ConfirmAndFinalize asks the order's provider for the attempt status and
// acts on it. Used by the return, capture and polling channels.
func (s *CheckoutService) ConfirmAndFinalize(ctx context.Context, orderID string) (Outcome, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	if order.Status.Terminal() {
		s.clearMarkers(ctx, orderID)
		return Outcome{OrderID: orderID, Status: order.Status, AlreadyFinalized: true}, nil
	}
	pay, err := s.payments.ByOrder(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	if !pay.AttemptRef.Valid {
		return Outcome{OrderID: orderID, Status: order.Status}, domain.ErrConfirmationUnverified
	}
	adapter, err := s.adapters.Get(pay.Provider)
	if err != nil {
		return Outcome{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	conf, err := adapter.Confirm(cctx, pay.AttemptRef.String)
	cancel()
	if err != nil {
		log.Error(nil, "checkout.confirm", err, map[string]any{"orderId": orderID, "providerRef": pay.AttemptRef.String})
		if payments.IsTimeout(err) {
			return Outcome{OrderID: orderID, Status: order.Status}, domain.ErrProviderTimeout
		}
		return Outcome{OrderID: orderID, Status: order.Status}, domain.ErrConfirmationUnverified
	}

	switch conf.Status {
	case payments.StatusSucceeded:
		return s.Finalize(ctx, orderID, conf)
	case payments.StatusFailed:
		if err := s.MarkFailed(ctx, orderID, "provider reported failure"); err != nil {
			return Outcome{}, err
		}
		return Outcome{OrderID: orderID, Status: domain.OrderFailed}, nil
	}
	return Outcome{OrderID: orderID, Status: domain.OrderPending}, nil
}

// OrderForRef resolves a provider token to the local order id.
func (s *CheckoutService) OrderForRef(ctx context.Context, ref string) (string, error) {
	pay, err := s.payments.ByRef(ctx, ref)
	if err != nil {
		return "", err
	}
	return pay.OrderID, nil
}

// PendingOrder returns the order of the session's open attempt, or "".
func (s *CheckoutService) PendingOrder(ctx context.Context, sessionID, provider string) (string, error) {
	return s.pending.Get(ctx, sessionID, provider)
}

// Refund sends the money of a PAID order back and moves it to REFUNDED. The
// provider is not called unless the order and payment are both refundable.
func (s *CheckoutService) Refund(ctx context.Context, orderID, reason string) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.refund", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return order, err
	}
	if order.Status == domain.OrderRefunded {
		return order, domain.ErrRefundAlreadyDone
	}
	if order.Status != domain.OrderPaid {
		return order, fmt.Errorf("%w: order is %s", domain.ErrRefundUnsupported, order.Status)
	}
	pay, err := s.payments.ByOrder(ctx, orderID)
	if err != nil {
		return order, err
	}
	switch pay.Status {
	case domain.PaymentRefunded:
		return order, domain.ErrRefundAlreadyDone
	case domain.PaymentCompleted:
	default:
		return order, fmt.Errorf("%w: payment is %s", domain.ErrRefundUnsupported, pay.Status)
	}

	ref := pay.ProviderRef.String
	if ref == "" {
		ref = pay.AttemptRef.String
	}
	res, err := s.refundRemote(ctx, pay.Provider, payments.RefundRequest{
		OrderID:     orderID,
		ProviderRef: ref,
		Amount:      pay.Amount,
		Currency:    pay.Currency,
		Reason:      reason,
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.Refund(pay.Provider, "error")
		log.Error(nil, "refund.provider", err, map[string]any{"orderId": orderID, "providerRef": ref})
		if errors.Is(err, domain.ErrRefundUnsupported) {
			return order, domain.ErrRefundUnsupported
		}
		return order, fmt.Errorf("refund order %s: %w", orderID, err)
	}

	now := time.Now()
	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ok, err := s.orders.WithTx(tx).Transition(ctx, orderID, domain.OrderPaid, domain.OrderRefunded)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRefundAlreadyDone
		}
		return s.payments.WithTx(tx).Update(ctx, orderID, domain.PaymentUpdate{
			Status:       domain.PaymentRefunded,
			RefundRef:    res.RefundRef,
			RefundReason: reason,
			RefundedAt:   &now,
		})
	})
	if err != nil {
		return order, err
	}

	order.Status = domain.OrderRefunded
	s.publish(ctx, events.OrderRefunded, order, ref, reason)
	s.metrics.Refund(pay.Provider, "refunded")
	log.Audit(nil, "order.refunded", map[string]any{"orderId": orderID, "refundRef": res.RefundRef, "reason": reason})
	return order, nil
}

func (s *CheckoutService) refundRemote(ctx context.Context, provider string, req payments.RefundRequest) (payments.RefundResult, error) {
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return payments.RefundResult{}, fmt.Errorf("%w: %v", domain.ErrRefundUnsupported, err)
	}
	if req.ProviderRef == "" {
		return payments.RefundResult{}, fmt.Errorf("%w: no provider reference", domain.ErrRefundUnsupported)
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return adapter.Refund(rctx, req)
}

func (s *CheckoutService) clearMarkers(ctx context.Context, orderID string) {
	if err := s.pending.ClearOrder(ctx, orderID); err != nil {
		log.Error(nil, "checkout.clear_marker", err, map[string]any{"orderId": orderID})
	}
}

func (s *CheckoutService) publish(ctx context.Context, typ string, order domain.Order, providerRef, reason string) {
	err := s.events.Publish(ctx, events.Event{
		Type:        typ,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Provider:    order.PaymentMethod,
		ProviderRef: providerRef,
		Total:       order.Total,
		Currency:    s.currency,
		Reason:      reason,
		At:          time.Now().UTC(),
	})
	if err != nil {
		log.Error(nil, "events.publish", err, map[string]any{"orderId": order.ID, "type": typ})
	}
}
