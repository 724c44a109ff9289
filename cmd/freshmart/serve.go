package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/spf13/cobra"

	"freshmart/internal/config"
	"freshmart/internal/http/handlers"
	applog "freshmart/internal/log"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func serveCmd() *cobra.Command {
	var templates string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load(), templates)
		},
	}
	cmd.Flags().StringVar(&templates, "templates", "./web/templates", "directory holding the html templates")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, templates string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closeLog := setupLogging(cfg)
	defer closeLog()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	wired, err := buildCheckout(ctx, db, cfg)
	if err != nil {
		return err
	}
	defer wired.close()

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	var webhooks handlers.WebhookParser
	if wired.stripe != nil {
		webhooks = wired.stripe
	}
	deps := handlers.NewDeps(db, cfg, authSvc, wired.checkout, webhooks)

	engine := html.New(templates, ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(wired.metrics.Middleware())
	app.Use(handlers.LoadUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next:       handlers.RateExempt,
	}))
	app.Use(csrf.New(csrf.Config{
		Next:           handlers.CSRFExempt,
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")
	app.Get("/metrics", wired.metrics.Handler())
	deps.Mount(app)
	app.Use(handlers.NotFound)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			applog.Error(nil, "server.shutdown", err, nil)
		}
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "providers": wired.checkout.Providers()})
	return app.Listen(":" + cfg.Port)
}
