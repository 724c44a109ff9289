package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/validate"
)

// PayPalHandler serves the redirect-capture flow: create, buyer approval on
// PayPal, then capture from the browser or the return redirect.
type PayPalHandler struct {
	*CheckoutHandler
}

func (h *PayPalHandler) CreateOrder(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return jsonError(c, domain.ErrUnauthenticated)
	}
	a, err := h.start(c, domain.ProviderPayPal)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"id": a.ProviderRef, "orderId": a.OrderID, "approvalUrl": a.ApprovalURL})
}

type captureBody struct {
	OrderID string `json:"orderID" form:"orderID" validate:"omitempty,ref"`
}

func (h *PayPalHandler) CaptureOrder(c *fiber.Ctx) error {
	var body captureBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := validate.Struct(body); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "orderID"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	orderID, err := h.resolve(c, body.OrderID, domain.ProviderPayPal)
	if err != nil {
		return jsonError(c, err)
	}
	out, err := h.Checkout.ConfirmAndFinalize(c.UserContext(), orderID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientStock):
		applog.Error(c, "paypal.capture", err, map[string]any{"orderId": orderID, "providerRef": body.OrderID})
		code, msg := statusFor(err)
		return c.Status(code).JSON(fiber.Map{"error": msg, "orderId": orderID, "status": string(domain.OrderFailed)})
	default:
		applog.Error(c, "paypal.capture", err, map[string]any{"orderId": orderID, "providerRef": body.OrderID})
		return jsonError(c, err)
	}
	if out.Status == domain.OrderPending {
		return c.Status(fiber.StatusAccepted).JSON(viewOf(out))
	}
	return c.JSON(viewOf(out))
}

// Return is where PayPal sends the buyer back with ?token=<paypal order id>.
func (h *PayPalHandler) Return(c *fiber.Ctx) error {
	orderID, err := h.resolve(c, c.Query("token"), domain.ProviderPayPal)
	if err != nil {
		return pageError(c, err)
	}
	return h.finish(c, orderID)
}
