package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"freshmart/internal/config"
	"freshmart/internal/http/handlers"
	applog "freshmart/internal/log"
	"freshmart/internal/metrics"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

const webhookSecret = "whsec_test"

// stubAdapter answers like a provider sandbox without the network.
type stubAdapter struct {
	name string

	mu       sync.Mutex
	status   payments.Status
	confirms int
	refunds  int
}

func (a *stubAdapter) Provider() string { return a.name }

func (a *stubAdapter) Begin(_ context.Context, req payments.AttemptRequest) (payments.AttemptHandle, error) {
	ref := a.name + "-ref-" + req.OrderID
	return payments.AttemptHandle{
		Ref:          ref,
		ApprovalURL:  "https://pay.test/approve?token=" + ref,
		ClientSecret: ref + "_secret",
		QRCode:       "qr-" + ref,
	}, nil
}

func (a *stubAdapter) Confirm(_ context.Context, ref string) (payments.Confirmation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.confirms++
	st := a.status
	if st == "" {
		st = payments.StatusSucceeded
	}
	return payments.Confirmation{Status: st, ProviderRef: ref, PayerEmail: "buyer@example.com"}, nil
}

func (a *stubAdapter) Refund(_ context.Context, req payments.RefundRequest) (payments.RefundResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refunds++
	return payments.RefundResult{RefundRef: "rf-" + req.OrderID, Status: "COMPLETED"}, nil
}

func (a *stubAdapter) setStatus(st payments.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = st
}

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	users *repos.UserRepo
	stubs map[string]*stubAdapter
}

// newTestApp wires the real routes over an in-memory seeded store, with the
// global limiter set to globalMax requests a minute.
func newTestApp(t *testing.T, globalMax int) *testApp {
	t.Helper()
	return buildTestApp(t, globalMax, nil)
}

// newTestAppWithPayPal is newTestApp with a real PayPal adapter in place of
// the stub.
func newTestAppWithPayPal(t *testing.T, pp payments.Adapter) *testApp {
	t.Helper()
	return buildTestApp(t, 100, pp)
}

func buildTestApp(t *testing.T, globalMax int, paypal payments.Adapter) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stubs := map[string]*stubAdapter{
		"paypal": {name: "paypal"},
		"stripe": {name: "stripe"},
		"nets":   {name: "nets"},
	}
	if paypal == nil {
		paypal = stubs["paypal"]
	}
	m := metrics.New(prometheus.NewRegistry())
	checkout := services.NewCheckoutService(db, payments.NewRegistry(paypal, stubs["stripe"], stubs["nets"]), services.CheckoutOptions{
		Metrics:         m,
		ProviderTimeout: time.Second,
		BaseURL:         "http://shop.test",
	})
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	webhooks := payments.NewStripe("sk_test", webhookSecret, "http://stripe.invalid", nil)
	deps := handlers.NewDeps(db, config.Config{DefaultProvider: "paypal"}, authSvc, checkout, webhooks)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(m.Middleware())
	app.Use(handlers.LoadUser(authSvc))
	app.Use(limiter.New(limiter.Config{Max: globalMax, Expiration: time.Minute, Next: handlers.RateExempt}))
	app.Use(csrf.New(csrf.Config{
		Next:           handlers.CSRFExempt,
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
	}))
	deps.Mount(app)
	app.Use(handlers.NotFound)

	return &testApp{app: app, db: db, users: userRepo, stubs: stubs}
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// session is one browser: a sid cookie plus the csrf token it was issued.
type session struct {
	sid  string
	csrf string
}

func (ta *testApp) anonymous(t *testing.T) *session {
	t.Helper()
	resp := ta.do(t, httptest.NewRequest("GET", "/login", nil))
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return &session{sid: uuid.NewString(), csrf: tok}
}

// as binds a fresh session to a seeded user without going through the
// throttled login form.
func (ta *testApp) as(t *testing.T, userID string) *session {
	t.Helper()
	s := ta.anonymous(t)
	if err := ta.users.BindSession(context.Background(), s.sid, userID); err != nil {
		t.Fatalf("bind session: %v", err)
	}
	return s
}

func (s *session) attach(req *http.Request) *http.Request {
	if s.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: s.sid})
	}
	if s.csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	}
	return req
}

func (s *session) get(path string) *http.Request {
	return s.attach(httptest.NewRequest("GET", path, nil))
}

func (s *session) post(path string, vals url.Values) *http.Request {
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("csrf", s.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.attach(req)
}

func (s *session) postJSON(path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	return s.attach(req)
}

func (ta *testApp) addToCart(t *testing.T, s *session, productID string, qty int) {
	t.Helper()
	resp := ta.do(t, s.post("/cart", url.Values{"productId": {productID}, "qty": {strconv.Itoa(qty)}}))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("add %s: expected redirect, got %d", productID, resp.StatusCode)
	}
}

// fillCart puts 2 x Gala Apples (4.50) and 1 x Fresh Milk (3.20) in the
// cart: subtotal 12.20, tax 0.85, shipping 5.00, total 18.05.
func (ta *testApp) fillCart(t *testing.T, s *session) {
	t.Helper()
	ta.addToCart(t, s, "apple-gala", 2)
	ta.addToCart(t, s, "milk-1l", 1)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return out
}

func (ta *testApp) orderStatus(t *testing.T, id string) string {
	t.Helper()
	var st string
	if err := ta.db.Get(&st, `SELECT status FROM orders WHERE id=?`, id); err != nil {
		t.Fatalf("order %s: %v", id, err)
	}
	return st
}

func (ta *testApp) stock(t *testing.T, productID string) int {
	t.Helper()
	var n int
	if err := ta.db.Get(&n, `SELECT quantity FROM products WHERE id=?`, productID); err != nil {
		t.Fatalf("stock %s: %v", productID, err)
	}
	return n
}

func (ta *testApp) latestOrder(t *testing.T, userID string) string {
	t.Helper()
	var id string
	if err := ta.db.Get(&id, `SELECT id FROM orders WHERE user_id=? ORDER BY created_at DESC, rowid DESC LIMIT 1`, userID); err != nil {
		t.Fatalf("latest order for %s: %v", userID, err)
	}
	return id
}

// observeLogs swaps the application logger for an in-memory one.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(prev) })
	return logs
}
