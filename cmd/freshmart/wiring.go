package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"freshmart/internal/cart"
	"freshmart/internal/config"
	"freshmart/internal/events"
	applog "freshmart/internal/log"
	"freshmart/internal/metrics"
	"freshmart/internal/payments"
	"freshmart/internal/services"
	"freshmart/internal/session"
)

// setupLogging sends application logs to stdout and, when configured, the
// log file. The returned func closes the file.
func setupLogging(cfg config.Config) func() {
	var w io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			stdlog.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			w = io.MultiWriter(os.Stdout, f)
			stdlog.SetOutput(w)
			closeFn = func() { _ = f.Close() }
		}
	}
	applog.SetLogger(applog.New(w, cfg.LogLevel))
	return func() {
		applog.Sync()
		closeFn()
	}
}

// adapters registers only the providers that have credentials.
func adapters(cfg config.Config) (*payments.Registry, *payments.Stripe) {
	hc := &http.Client{Timeout: cfg.ProviderTimeout + 5*time.Second}
	var list []payments.Adapter
	var stripe *payments.Stripe
	if cfg.PayPal.ClientID != "" && cfg.PayPal.ClientSecret != "" {
		list = append(list, payments.NewPayPal(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.BaseURL, hc))
	}
	if cfg.Stripe.SecretKey != "" {
		stripe = payments.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.BaseURL, hc)
		list = append(list, stripe)
	}
	if cfg.Nets.APIKey != "" && cfg.Nets.ProjectID != "" {
		list = append(list, payments.NewNets(cfg.Nets.APIKey, cfg.Nets.ProjectID, cfg.Nets.TxnID, cfg.Nets.BaseURL, hc))
	}
	reg := payments.NewRegistry(list...)
	if len(list) == 0 {
		applog.Info(nil, "payments.none_configured", nil)
	} else {
		applog.Info(nil, "payments.configured", map[string]any{"providers": reg.Providers()})
	}
	return reg, stripe
}

// pendingStore is redis when REDIS_ADDR is set, else the sqlite table.
func pendingStore(ctx context.Context, cfg config.Config) (services.PendingStore, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return session.NewRedisPending(client, 24*time.Hour), func() { _ = client.Close() }, nil
}

func publisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
}

type app struct {
	checkout *services.CheckoutService
	stripe   *payments.Stripe
	metrics  *metrics.Metrics
	close    func()
}

// buildCheckout wires the checkout service with its optional backends.
func buildCheckout(ctx context.Context, db *sqlx.DB, cfg config.Config) (*app, error) {
	pending, closePending, err := pendingStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pub := publisher(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	registry, stripe := adapters(cfg)
	checkout := services.NewCheckoutService(db, registry, services.CheckoutOptions{
		Pending:         pending,
		Events:          pub,
		Metrics:         m,
		Pricing:         cart.Pricing{TaxRate: cfg.TaxRate, ShippingFlat: cfg.ShippingFlat},
		Currency:        cfg.Currency,
		ProviderTimeout: cfg.ProviderTimeout,
		BaseURL:         cfg.BaseURL,
	})
	return &app{
		checkout: checkout,
		stripe:   stripe,
		metrics:  m,
		close: func() {
			if err := pub.Close(); err != nil {
				applog.Error(nil, "events.close", err, nil)
			}
			closePending()
		},
	}, nil
}
