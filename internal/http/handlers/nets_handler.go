package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

// NetsHandler serves the QR flow: the page shows the code and polls Status
// until the order leaves PENDING.
type NetsHandler struct {
	*CheckoutHandler
	Orders *services.OrderService
}

func (h *NetsHandler) CreateQR(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Redirect("/login")
	}
	a, err := h.start(c, domain.ProviderNets)
	if err != nil {
		return pageError(c, err)
	}
	return render(c, "nets_qr", fiber.Map{"Attempt": a})
}

func (h *NetsHandler) Status(c *fiber.Ctx) error {
	orderID, err := h.pollTarget(c)
	if err != nil {
		return jsonError(c, err)
	}
	out, err := h.Checkout.ConfirmAndFinalize(c.UserContext(), orderID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrProviderTimeout), errors.Is(err, domain.ErrConfirmationUnverified):
		// the page keeps polling
		return c.JSON(outcomeView{OrderID: orderID, Status: string(domain.OrderPending)})
	case errors.Is(err, domain.ErrInsufficientStock):
		code, msg := statusFor(err)
		return c.Status(code).JSON(fiber.Map{"error": msg, "orderId": orderID, "status": string(domain.OrderFailed)})
	default:
		applog.Error(c, "nets.status", err, map[string]any{"orderId": orderID})
		return jsonError(c, err)
	}
	return c.JSON(viewOf(out))
}

// pollTarget is the ?orderId= the buyer owns, else the session's open attempt.
func (h *NetsHandler) pollTarget(c *fiber.Ctx) (string, error) {
	if raw := c.Query("orderId"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return "", domain.ErrOrderNotFound
		}
		if _, err := h.Orders.Detail(c.UserContext(), currentUser(c), id); err != nil {
			if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthenticated) {
				applog.Security(c, "access.denied.order", map[string]any{"orderId": id})
				return "", domain.ErrOrderNotFound
			}
			return "", err
		}
		return id, nil
	}
	return h.resolve(c, "", domain.ProviderNets)
}
