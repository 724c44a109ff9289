package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Refunds *services.RefundRequests
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	d, err := h.Orders.Detail(c.UserContext(), currentUser(c), oid)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthenticated) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	requests, err := h.Refunds.ForOrder(c.UserContext(), oid)
	if err != nil {
		applog.Error(c, "order.refund_requests", err, map[string]any{"order_id": oid})
	}
	return render(c, "order", fiber.Map{"Order": d.Order, "Items": d.Items, "Payment": d.Payment, "RefundRequests": requests})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(c.UserContext(), currentUser(c))
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return pageError(c, err)
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}

func (h *OrderHandler) RequestRefund(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	reason, ok := validate.Reason(c.FormValue("reason"), true)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "reason"})
		return c.Status(fiber.StatusBadRequest).SendString("please give a reason of at most 500 characters")
	}
	rr, err := h.Refunds.Request(c.UserContext(), currentUser(c), oid, reason)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return pageError(c, err)
	}
	applog.Audit(c, "refund_request.submit", map[string]any{"order_id": oid, "request_id": rr.ID})
	return c.Redirect("/order/" + oid)
}
