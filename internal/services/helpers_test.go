package services_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freshmart/internal/cart"
	"freshmart/internal/domain"
	"freshmart/internal/events"
	"freshmart/internal/log"
	"freshmart/internal/metrics"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func TestMain(m *testing.M) {
	log.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

var buyer = &domain.User{ID: "u-1", Email: "ann@example.com", Name: "Ann", Role: domain.RoleUser}

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.Migrate(db))

	_, err = db.Exec(`
	INSERT INTO products(id,name,category,price,quantity,active,created_at,updated_at) VALUES
	  ('apple','Apple','fruit','10.00',5,1,'',''),
	  ('milk','Milk','dairy','5.00',2,1,'','');
	INSERT INTO users(id,email,name,password_hash,role) VALUES ('u-1','ann@example.com','Ann','x','USER');
	`)
	require.NoError(t, err)
	return db
}

// fakeAdapter is a scripted provider.
type fakeAdapter struct {
	name string

	mu        sync.Mutex
	beginErr  error
	beginWait bool
	confirm   payments.Confirmation
	refundErr error
	begins    int
	confirms  int
	refunds   int
}

func (f *fakeAdapter) Provider() string { return f.name }

func (f *fakeAdapter) Begin(ctx context.Context, req payments.AttemptRequest) (payments.AttemptHandle, error) {
	f.mu.Lock()
	f.begins++
	wait, err := f.beginWait, f.beginErr
	f.mu.Unlock()
	if wait {
		<-ctx.Done()
		return payments.AttemptHandle{}, ctx.Err()
	}
	if err != nil {
		return payments.AttemptHandle{}, err
	}
	return payments.AttemptHandle{Ref: f.name + "-ref-" + req.OrderID, ApprovalURL: "https://provider.test/approve"}, nil
}

func (f *fakeAdapter) Confirm(_ context.Context, ref string) (payments.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms++
	c := f.confirm
	if c.ProviderRef == "" {
		c.ProviderRef = ref
	}
	return c, nil
}

func (f *fakeAdapter) Refund(_ context.Context, req payments.RefundRequest) (payments.RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds++
	if f.refundErr != nil {
		return payments.RefundResult{}, f.refundErr
	}
	return payments.RefundResult{RefundRef: "rf-" + req.OrderID, Status: "COMPLETED"}, nil
}

func (f *fakeAdapter) counts() (begins, confirms, refunds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begins, f.confirms, f.refunds
}

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evs))
	for _, ev := range r.evs {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db       *sqlx.DB
	carts    *services.CartService
	checkout *services.CheckoutService
	adapter  *fakeAdapter
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memdb(t)
	adapter := &fakeAdapter{name: domain.ProviderStripe}
	rec := &recorder{}
	checkout := services.NewCheckoutService(db, payments.NewRegistry(adapter), services.CheckoutOptions{
		Events:          rec,
		Metrics:         metrics.New(prometheus.NewRegistry()),
		Pricing:         cart.DefaultPricing(),
		Currency:        "SGD",
		ProviderTimeout: 50 * time.Millisecond,
		BaseURL:         "http://shop.test",
	})
	carts := services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db), cart.DefaultPricing())
	return &fixture{db: db, carts: carts, checkout: checkout, adapter: adapter, events: rec}
}

// start fills the cart with 2 apples and 1 milk and opens an attempt.
func (f *fixture) start(t *testing.T, sid string) services.Attempt {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.Add(ctx, sid, "apple", 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, sid, "milk", 1)
	require.NoError(t, err)
	a, err := f.checkout.StartCheckout(ctx, sid, buyer, domain.ProviderStripe)
	require.NoError(t, err)
	return a
}

func (f *fixture) qty(t *testing.T, productID string) int {
	t.Helper()
	q, err := repos.NewInventoryRepo(f.db).Qty(context.Background(), productID)
	require.NoError(t, err)
	return q
}

func (f *fixture) order(t *testing.T, id string) domain.Order {
	t.Helper()
	o, err := repos.NewOrderRepo(f.db).Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) payment(t *testing.T, orderID string) domain.Payment {
	t.Helper()
	p, err := repos.NewPaymentRepo(f.db).ByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return p
}

func paid(ref string) payments.Confirmation {
	return payments.Confirmation{Status: payments.StatusSucceeded, ProviderRef: ref, PayerEmail: "ann@example.com"}
}
