package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "SGD", cfg.Currency)
	assert.Equal(t, "0.07", cfg.TaxRate.String())
	assert.Equal(t, "5", cfg.ShippingFlat.String())
	assert.Equal(t, "paypal", cfg.DefaultProvider)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("BASE_URL", "https://shop.example/")
	t.Setenv("TAX_RATE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "whsec_test", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "https://shop.example", cfg.BaseURL)
	assert.Equal(t, "0.07", cfg.TaxRate.String())
}
