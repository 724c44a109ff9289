package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freshmart/internal/payments"
)

func TestRateLimits(t *testing.T) {
	ta := newTestApp(t, 1000)
	logs := observeLogs(t)

	// availability allows 15 per 30s per client
	for i := 0; i < 16; i++ {
		resp := ta.do(t, httptest.NewRequest("GET", "/api/v1/availability?productId=apple-gala", nil))
		if i < 15 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 15 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
	if logs.FilterMessage("rate.availability.hit").Len() != 1 {
		t.Fatalf("expected rate.availability.hit entry")
	}
}

func TestGlobalLimitSparesWebhook(t *testing.T) {
	ta := newTestApp(t, 3)

	for i := 0; i < 4; i++ {
		resp := ta.do(t, httptest.NewRequest("GET", "/", nil))
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 from the global limiter, got %d", resp.StatusCode)
		}
	}

	// provider callbacks must keep getting through
	payload := stripeEvent(t, "evt_1", "customer.created", "cus_1", "", "")
	resp := ta.do(t, webhookRequest(payload, payments.SignPayload(payload, webhookSecret, time.Now())))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook behind exhausted limiter: expected 200, got %d", resp.StatusCode)
	}
}

func TestBodySizeLimit(t *testing.T) {
	ta := newTestApp(t, 100)
	s := ta.anonymous(t)

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/cart", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.attach(req)
	resp, err := ta.app.Test(req, -1)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}
