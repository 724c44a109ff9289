package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/order/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/order/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}

	m.Finalize("nets", "paid")
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `freshmart_order_finalize_total{outcome="paid",provider="nets"} 1`))
	assert.True(t, strings.Contains(string(body), `freshmart_http_requests_total{method="GET",route="/order/:id",status="200"} 2`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Checkout("stripe", "started")
	m.Finalize("stripe", "paid")
	m.Refund("stripe", "refunded")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(204) })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}
