package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List is the shop front, optionally narrowed with ?category=.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	category, _ := validate.ID(c.Query("category"))
	page := c.QueryInt("page", 1)
	prods, err := h.Catalog.ListProducts(c.UserContext(), category, page, 24)
	if err != nil {
		log.Error(c, "catalog.list", err, nil)
		return pageError(c, err)
	}
	return render(c, "products", fiber.Map{"Products": prods, "Category": category, "Page": page})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil || p.ID == "" {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	return render(c, "product", fiber.Map{"P": p})
}
