package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	if _, err := h.Cart.Add(c.UserContext(), sid, productID, qty); err != nil {
		applog.Info(c, "cart.add.fail", map[string]any{"product": productID, "qty": qty, "error": err.Error()})
		return pageError(c, err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if _, err := h.Cart.Update(c.UserContext(), sid, productID, validate.Qty(c.FormValue("qty"))); err != nil {
		return pageError(c, err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if _, err := h.Cart.Remove(c.UserContext(), sid, productID); err != nil {
		return pageError(c, err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), ensureSID(c)); err != nil {
		return pageError(c, err)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.load", err, nil)
		return pageError(c, err)
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}
