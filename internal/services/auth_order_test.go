package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func TestAuthService_LoginLogout(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	require.NoError(t, repos.Seed(ctx, db))
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	_, err := auth.Login(ctx, "s1", "alice@freshmart.test", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login(ctx, "s1", "nobody@freshmart.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	u, err := auth.Login(ctx, "s1", "alice@freshmart.test", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.ID)

	cur, err := auth.CurrentUser(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, u.ID, cur.ID)

	require.NoError(t, auth.Logout(ctx, "s1"))
	cur, err = auth.CurrentUser(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestOrderService_DetailAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.start(t, "s1")
	_, err := f.checkout.Finalize(ctx, a.OrderID, paid("ch_1"))
	require.NoError(t, err)

	orders := services.NewOrderService(repos.NewOrderRepo(f.db), repos.NewPaymentRepo(f.db))

	d, err := orders.Detail(ctx, buyer, a.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, d.Order.Status)
	assert.Len(t, d.Items, 2)
	require.NotNil(t, d.Payment)
	assert.Equal(t, "ch_1", d.Payment.ProviderRef.String)

	_, err = orders.Detail(ctx, &domain.User{ID: "u-2", Role: domain.RoleUser}, a.OrderID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = orders.Detail(ctx, nil, a.OrderID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = orders.Detail(ctx, &domain.User{ID: "u-admin", Role: domain.RoleAdmin}, a.OrderID)
	assert.NoError(t, err)

	hist, err := orders.History(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, string(domain.PaymentCompleted), hist[0].PaymentStatus)
	assert.Equal(t, "ch_1", hist[0].ProviderRef)

	latest, err := orders.Latest(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}
