package handlers

import (
	"github.com/jmoiron/sqlx"

	"freshmart/internal/config"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	CheckoutHandler  *CheckoutHandler
	PayPalHandler    *PayPalHandler
	StripeHandler    *StripeHandler
	NetsHandler      *NetsHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

// NewDeps wires repos, services and handlers around an already built
// checkout service. webhooks may be nil when Stripe is not configured.
func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, checkout *services.CheckoutService, webhooks WebhookParser) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	rrRepo := repos.NewRefundRequestRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	invSvc := services.NewInventoryService(invRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo, checkout.Pricing())
	orderSvc := services.NewOrderService(orderRepo, payRepo)
	refundSvc := services.NewRefundRequests(rrRepo, orderRepo, checkout)

	co := &CheckoutHandler{
		Checkout:        checkout,
		Cart:            cartSvc,
		Providers:       checkout.Providers(),
		DefaultProvider: cfg.DefaultProvider,
	}
	return &Deps{
		Auth:             auth,
		AuthHandler:      &AuthHandler{Auth: auth},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		CheckoutHandler:  co,
		PayPalHandler:    &PayPalHandler{CheckoutHandler: co},
		StripeHandler:    &StripeHandler{CheckoutHandler: co, Webhooks: webhooks},
		NetsHandler:      &NetsHandler{CheckoutHandler: co, Orders: orderSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc, Refunds: refundSvc},
		AdminHandler:     &AdminHandler{Orders: orderSvc, Checkout: checkout, Refunds: refundSvc, Inv: invSvc},
	}
}
