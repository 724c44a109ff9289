package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "freshmart/internal/log"
)

// Provider callbacks carry no browser form, so CSRF cannot apply to them.
var csrfExempt = map[string]bool{
	"/stripe/webhook":       true,
	"/paypal/capture-order": true,
}

// CSRFExempt is the csrf middleware's Next func.
func CSRFExempt(c *fiber.Ctx) bool {
	return csrfExempt[c.Path()]
}

// RateExempt keeps static assets and signed provider callbacks out of the
// global limiter.
func RateExempt(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/static/") || p == "/stripe/webhook"
}

// Mount registers every application route on app.
func (d *Deps) Mount(app *fiber.App) {
	requireUser := RequireUser(d.Auth)

	app.Get("/", d.ProductHandler.List)
	app.Get("/product/:id", d.ProductHandler.Detail)

	api := app.Group("/api/v1")
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, d.InventoryHandler.Check)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/update", d.CartHandler.Update)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/clear", d.CartHandler.Clear)

	app.Get("/checkout", d.CheckoutHandler.Page)
	app.Post("/checkout", d.CheckoutHandler.Start)

	app.Post("/paypal/create-order", d.PayPalHandler.CreateOrder)
	app.Post("/paypal/capture-order", d.PayPalHandler.CaptureOrder)
	app.Get("/paypal/return", d.PayPalHandler.Return)

	app.Post("/stripe/create-intent", d.StripeHandler.CreateIntent)
	app.Post("/stripe/webhook", d.StripeHandler.Webhook)
	app.Get("/stripe/return", d.StripeHandler.Return)

	app.Post("/nets/create-qr", d.NetsHandler.CreateQR)
	app.Get("/nets/status", d.NetsHandler.Status)

	app.Get("/orders", requireUser, d.OrderHandler.History)
	app.Get("/order/:id", d.OrderHandler.View)
	app.Post("/orders/:id/refund-request", requireUser, d.OrderHandler.RequestRefund)

	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/", d.AdminHandler.Dashboard)
	admin.Get("/orders", d.AdminHandler.OrdersPage)
	admin.Post("/orders/:id/refund", d.AdminHandler.Refund)
	admin.Get("/refund-requests", d.AdminHandler.RefundRequests)
	admin.Post("/refund-requests/:id/approve", d.AdminHandler.ApproveRequest)
	admin.Post("/refund-requests/:id/reject", d.AdminHandler.RejectRequest)
	admin.Get("/inventory", d.AdminHandler.Inventory)
	admin.Post("/inventory", d.AdminHandler.UpdateInventory)
	admin.Post("/products/:id/active", d.AdminHandler.SetActive)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}

// NotFound is the catch-all registered after every other route.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
}
