package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/validate"
)

// WebhookParser verifies and decodes a signed provider event.
type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (payments.WebhookEvent, error)
}

type StripeHandler struct {
	*CheckoutHandler
	Webhooks WebhookParser
}

func (h *StripeHandler) CreateIntent(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return jsonError(c, domain.ErrUnauthenticated)
	}
	a, err := h.start(c, domain.ProviderStripe)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"id": a.ProviderRef, "orderId": a.OrderID, "clientSecret": a.ClientSecret})
}

// Webhook takes the raw body: the signature covers the exact bytes sent.
// Non-2xx answers make Stripe retry, so only transient faults return 500.
func (h *StripeHandler) Webhook(c *fiber.Ctx) error {
	if h.Webhooks == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	ev, err := h.Webhooks.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		applog.Security(c, "stripe.webhook.rejected", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}
	fields := map[string]any{"eventId": ev.ID, "type": ev.Type, "providerRef": ev.Intent.ProviderRef}

	var failed bool
	switch ev.Type {
	case "payment_intent.succeeded":
	case "payment_intent.canceled":
		failed = true
	case "payment_intent.payment_failed":
		// the intent goes back to requires_payment_method and the buyer may
		// retry on it, so the order stays PENDING
		applog.Info(c, "stripe.webhook.payment_failed", fields)
		return c.JSON(fiber.Map{"received": true})
	default:
		applog.Info(c, "stripe.webhook.ignored", fields)
		return c.JSON(fiber.Map{"received": true})
	}

	ctx := c.UserContext()
	orderID, err := h.Checkout.OrderForRef(ctx, ev.Intent.ProviderRef)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		if id, ok := validate.ID(ev.OrderID); ok {
			orderID, err = id, nil
		}
	}
	if err != nil {
		applog.Error(c, "stripe.webhook.order", err, fields)
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return c.JSON(fiber.Map{"received": true})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	fields["orderId"] = orderID

	if failed {
		if err := h.Checkout.MarkFailed(ctx, orderID, ev.Type); err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
			applog.Error(c, "stripe.webhook.mark_failed", err, fields)
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"received": true})
	}

	out, err := h.Checkout.Finalize(ctx, orderID, ev.Intent)
	switch {
	case err == nil:
		fields["alreadyFinalized"] = out.AlreadyFinalized
		applog.Info(c, "stripe.webhook.finalized", fields)
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrConfirmationUnverified),
		errors.Is(err, domain.ErrOrderNotFound):
		// terminal for this delivery; retrying cannot change the answer
		applog.Error(c, "stripe.webhook.finalize", err, fields)
	default:
		applog.Error(c, "stripe.webhook.finalize", err, fields)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{"received": true})
}

// Return handles ?payment_intent=pi_... after the buyer confirmed the card.
func (h *StripeHandler) Return(c *fiber.Ctx) error {
	orderID, err := h.resolve(c, c.Query("payment_intent"), domain.ProviderStripe)
	if err != nil {
		return pageError(c, err)
	}
	return h.finish(c, orderID)
}
