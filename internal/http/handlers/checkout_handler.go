package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

// CheckoutHandler owns the checkout page and the provider-neutral parts of
// starting and finishing an attempt.
type CheckoutHandler struct {
	Checkout        *services.CheckoutService
	Cart            *services.CartService
	Providers       []string
	DefaultProvider string
}

func (h *CheckoutHandler) Page(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return pageError(c, err)
	}
	return render(c, "checkout", fiber.Map{
		"Cart":            cv,
		"Currency":        h.Checkout.Currency(),
		"Providers":       h.Providers,
		"DefaultProvider": h.DefaultProvider,
	})
}

// Start opens an attempt with the provider picked on the checkout page.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	provider, ok := validate.Provider(c.FormValue("provider", h.DefaultProvider))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "provider"})
		return pageError(c, domain.ErrProviderUnsupported)
	}
	if currentUser(c) == nil {
		return c.Redirect("/login")
	}
	a, err := h.start(c, provider)
	if err != nil {
		return pageError(c, err)
	}
	switch provider {
	case domain.ProviderPayPal:
		return c.Redirect(a.ApprovalURL)
	case domain.ProviderNets:
		return render(c, "nets_qr", fiber.Map{"Attempt": a})
	}
	return render(c, "stripe_pay", fiber.Map{"Attempt": a})
}

func (h *CheckoutHandler) start(c *fiber.Ctx, provider string) (services.Attempt, error) {
	sid := ensureSID(c)
	a, err := h.Checkout.StartCheckout(c.UserContext(), sid, currentUser(c), provider)
	if err != nil {
		applog.Info(c, "checkout.start.fail", map[string]any{"provider": provider, "orderId": a.OrderID, "error": err.Error()})
		return a, err
	}
	applog.Audit(c, "checkout.start", map[string]any{
		"provider": provider, "orderId": a.OrderID, "total": a.Totals.Total.StringFixed(2),
	})
	return a, nil
}

// finish asks the provider about orderID and lands the buyer on the order
// page, which shows whatever state the order reached.
func (h *CheckoutHandler) finish(c *fiber.Ctx, orderID string) error {
	out, err := h.Checkout.ConfirmAndFinalize(c.UserContext(), orderID)
	if err != nil && !errors.Is(err, domain.ErrConfirmationUnverified) {
		applog.Error(c, "checkout.return", err, map[string]any{"orderId": orderID})
		if errors.Is(err, domain.ErrOrderNotFound) {
			return pageError(c, err)
		}
	}
	applog.Info(c, "checkout.return", map[string]any{"orderId": orderID, "status": string(out.Status)})
	return c.Redirect("/order/" + orderID)
}

// resolve maps a provider token to the local order, falling back to the
// session's pending marker when the token is missing or unknown.
func (h *CheckoutHandler) resolve(c *fiber.Ctx, ref, provider string) (string, error) {
	if ref, ok := validate.ProviderRef(ref); ok {
		id, err := h.Checkout.OrderForRef(c.UserContext(), ref)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			return "", err
		}
	}
	if sid := c.Cookies("sid"); sid != "" {
		id, err := h.Checkout.PendingOrder(c.UserContext(), sid, provider)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	applog.Security(c, "checkout.unknown_ref", map[string]any{"provider": provider, "ref": ref})
	return "", domain.ErrOrderNotFound
}

type outcomeView struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Paid    bool   `json:"paid"`
}

func viewOf(out services.Outcome) outcomeView {
	return outcomeView{OrderID: out.OrderID, Status: string(out.Status), Paid: out.Status == domain.OrderPaid}
}
