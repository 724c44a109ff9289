package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQty(t *testing.T) {
	for in, want := range map[string]int{"": 1, "abc": 1, "-3": 1, "0": 1, " 4 ": 4, "50": 50, "51": 50} {
		assert.Equal(t, want, Qty(in), "input %q", in)
	}
}

func TestStock(t *testing.T) {
	n, ok := Stock("0")
	assert.True(t, ok)
	assert.Zero(t, n)
	_, ok = Stock("-1")
	assert.False(t, ok)
	_, ok = Stock("x")
	assert.False(t, ok)
}

func TestProvider(t *testing.T) {
	p, ok := Provider(" PayPal ")
	assert.True(t, ok)
	assert.Equal(t, "paypal", p)
	_, ok = Provider("bitcoin")
	assert.False(t, ok)
}

func TestProviderRef(t *testing.T) {
	for _, ok := range []string{"5O190127TN364715T", "pi_3Nx", "sandbox_nets|m|8ff8e5b6-d43e"} {
		_, valid := ProviderRef(ok)
		assert.True(t, valid, ok)
	}
	for _, bad := range []string{"", "<script>", "a b"} {
		_, valid := ProviderRef(bad)
		assert.False(t, valid, bad)
	}
}

func TestReason(t *testing.T) {
	_, ok := Reason("  ", true)
	assert.False(t, ok)
	_, ok = Reason("", false)
	assert.True(t, ok)
	r, ok := Reason(" bruised ", true)
	assert.True(t, ok)
	assert.Equal(t, "bruised", r)
}

func TestPasswordAndEmail(t *testing.T) {
	assert.True(t, Password("Passw0rd!"))
	assert.False(t, Password("password"))
	_, ok := Email("alice@freshmart.test")
	assert.True(t, ok)
	_, ok = Email("not-an-email")
	assert.False(t, ok)
}

func TestStruct(t *testing.T) {
	type body struct {
		OrderID string `validate:"omitempty,ref"`
		Product string `validate:"required,id"`
		Note    string `validate:"max=10"`
	}
	assert.NoError(t, Struct(body{Product: "apple-gala"}))
	assert.NoError(t, Struct(body{OrderID: "5O190127TN364715T", Product: "milk-1l", Note: "ok"}))
	assert.Error(t, Struct(body{OrderID: "<script>", Product: "milk-1l"}))
	assert.Error(t, Struct(body{Product: "../etc"}))
	assert.Error(t, Struct(body{}))
	assert.Error(t, Struct(body{Product: "x", Note: "far too long a note"}))
}
