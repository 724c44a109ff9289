package config

import (
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type PayPal struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

type Nets struct {
	APIKey    string
	ProjectID string
	BaseURL   string
	TxnID     string
}

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	LogLevel string
	BaseURL  string

	Currency        string
	TaxRate         decimal.Decimal
	ShippingFlat    decimal.Decimal
	DefaultProvider string
	ProviderTimeout time.Duration

	PayPal PayPal
	Stripe Stripe
	Nets   Nets

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "freshmart.db") // sqlite file in project root
	v.SetDefault("LOG_FILE", "./freshmart.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CURRENCY", "SGD")
	v.SetDefault("TAX_RATE", "0.07")
	v.SetDefault("SHIPPING_FLAT", "5.00")
	v.SetDefault("DEFAULT_PROVIDER", "paypal")
	v.SetDefault("PROVIDER_TIMEOUT", "15s")
	v.SetDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com")
	v.SetDefault("STRIPE_BASE_URL", "https://api.stripe.com")
	v.SetDefault("NETS_BASE_URL", "https://sandbox.nets.openapipaas.com")
	v.SetDefault("NETS_TXN_ID", "sandbox_nets|m|8ff8e5b6-d43e-4786-8ac5-7accf8c5bd9b")
	v.SetDefault("KAFKA_TOPIC", "order_events")
}

// Load reads the process environment once. Nothing else in the module
// looks at os.Getenv; the returned Config is passed down explicitly.
func Load() Config {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		Port:            v.GetString("PORT"),
		DBDSN:           v.GetString("DB_DSN"),
		LogFile:         v.GetString("LOG_FILE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		BaseURL:         strings.TrimRight(v.GetString("BASE_URL"), "/"),
		Currency:        strings.ToUpper(v.GetString("CURRENCY")),
		TaxRate:         decimalOr(v.GetString("TAX_RATE"), "0.07"),
		ShippingFlat:    decimalOr(v.GetString("SHIPPING_FLAT"), "5.00"),
		DefaultProvider: strings.ToLower(v.GetString("DEFAULT_PROVIDER")),
		ProviderTimeout: v.GetDuration("PROVIDER_TIMEOUT"),
		PayPal: PayPal{
			ClientID:     v.GetString("PAYPAL_CLIENT_ID"),
			ClientSecret: v.GetString("PAYPAL_CLIENT_SECRET"),
			BaseURL:      v.GetString("PAYPAL_BASE_URL"),
		},
		Stripe: Stripe{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			BaseURL:       v.GetString("STRIPE_BASE_URL"),
		},
		Nets: Nets{
			APIKey:    v.GetString("NETS_API_KEY"),
			ProjectID: v.GetString("NETS_PROJECT_ID"),
			BaseURL:   v.GetString("NETS_BASE_URL"),
			TxnID:     v.GetString("NETS_TXN_ID"),
		},
		RedisAddr:  v.GetString("REDIS_ADDR"),
		KafkaTopic: v.GetString("KAFKA_TOPIC"),
	}
	if brokers := strings.TrimSpace(v.GetString("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 15 * time.Second
	}

	// secrets stay out of the log
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s CURRENCY=%s DEFAULT_PROVIDER=%s REDIS=%t KAFKA=%t",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.Currency, cfg.DefaultProvider, cfg.RedisAddr != "", len(cfg.KafkaBrokers) > 0)
	return cfg
}

func decimalOr(s, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return d
}
