package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type AdminHandler struct {
	Orders   *services.OrderService
	Checkout *services.CheckoutService
	Refunds  *services.RefundRequests
	Inv      *services.InventoryService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	flagged, err := h.Orders.Flagged(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.flagged.list.fail", err, nil)
		return pageError(c, err)
	}
	open, err := h.Refunds.List(c.UserContext(), domain.RefundRequestPending)
	if err != nil {
		applog.Error(c, "admin.refund_requests.list.fail", err, nil)
		return pageError(c, err)
	}
	return render(c, "admin_dashboard", fiber.Map{"Flagged": flagged, "OpenRequests": len(open)})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.Latest(c.UserContext(), 100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return pageError(c, err)
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords})
}

// POST /admin/orders/:id/refund
func (h *AdminHandler) Refund(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	reason, ok := validate.Reason(c.FormValue("reason"), false)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("reason too long")
	}
	if reason == "" {
		reason = "refunded by admin"
	}
	if _, err := h.Checkout.Refund(c.UserContext(), id, reason); err != nil {
		applog.Error(c, "admin.orders.refund.fail", err, map[string]any{"order_id": id})
		return pageError(c, err)
	}
	applog.Audit(c, "admin.orders.refund", map[string]any{"order_id": id, "reason": reason})
	return c.Redirect("/admin/orders")
}

// GET /admin/refund-requests?status=PENDING
func (h *AdminHandler) RefundRequests(c *fiber.Ctx) error {
	status := domain.RefundRequestStatus(c.Query("status", string(domain.RefundRequestPending)))
	switch status {
	case domain.RefundRequestPending, domain.RefundRequestApproved, domain.RefundRequestRejected:
	default:
		status = ""
	}
	reqs, err := h.Refunds.List(c.UserContext(), status)
	if err != nil {
		applog.Error(c, "admin.refund_requests.list.fail", err, nil)
		return pageError(c, err)
	}
	return render(c, "admin_refund_requests", fiber.Map{"Requests": reqs, "Status": string(status)})
}

// POST /admin/refund-requests/:id/approve
func (h *AdminHandler) ApproveRequest(c *fiber.Ctx) error {
	return h.decide(c, true)
}

// POST /admin/refund-requests/:id/reject
func (h *AdminHandler) RejectRequest(c *fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *AdminHandler) decide(c *fiber.Ctx, approve bool) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	note, ok := validate.Reason(c.FormValue("note"), false)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("note too long")
	}
	var (
		rr  domain.RefundRequest
		err error
	)
	if approve {
		rr, err = h.Refunds.Approve(c.UserContext(), id, note)
	} else {
		rr, err = h.Refunds.Reject(c.UserContext(), id, note)
	}
	if err != nil {
		applog.Error(c, "admin.refund_requests.decide.fail", err, map[string]any{"request_id": id, "approve": approve})
		return pageError(c, err)
	}
	applog.Audit(c, "admin.refund_requests.decide", map[string]any{"request_id": id, "order_id": rr.OrderID, "status": string(rr.Status)})
	return c.Redirect("/admin/refund-requests")
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return pageError(c, err)
	}
	return render(c, "admin_inventory", fiber.Map{"Rows": rows})
}

// POST /admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid, okID := validate.ID(c.FormValue("product_id"))
	qty, okQty := validate.Stock(c.FormValue("qty"))
	if !okID || !okQty {
		applog.Security(c, "validation.fail", map[string]any{"field": "inventory"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid input")
	}
	if err := h.Inv.SetStock(c.UserContext(), pid, qty); err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return pageError(c, err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": qty})
	return c.Redirect("/admin/inventory")
}

// POST /admin/products/:id/active
func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	active := c.FormValue("active") == "1" || c.FormValue("active") == "true"
	if err := h.Inv.SetActive(c.UserContext(), pid, active); err != nil {
		applog.Error(c, "admin.products.active.fail", err, map[string]any{"product": pid})
		return pageError(c, err)
	}
	applog.Audit(c, "admin.products.active", map[string]any{"product": pid, "active": active})
	return c.Redirect("/admin/inventory")
}
