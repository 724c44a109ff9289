package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ta := newTestApp(t, 100)
	logs := observeLogs(t)

	resp := ta.do(t, httptest.NewRequest("GET", "/admin", nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous admin access: expected redirect, got %d", resp.StatusCode)
	}

	alice := ta.as(t, "u-alice")
	resp = ta.do(t, alice.get("/admin"))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user admin access: expected 403, got %d", resp.StatusCode)
	}
	if logs.FilterMessage("access.denied.admin").Len() != 1 {
		t.Fatalf("expected access.denied.admin log")
	}
	resp = ta.do(t, alice.post("/admin/inventory", url.Values{"product_id": {"apple-gala"}, "qty": {"0"}}))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user inventory write: expected 403, got %d", resp.StatusCode)
	}
	if ta.stock(t, "apple-gala") != 40 {
		t.Fatalf("stock changed by non-admin")
	}

	admin := ta.as(t, "u-admin")
	for _, path := range []string{"/admin", "/admin/orders", "/admin/inventory", "/admin/refund-requests"} {
		if resp := ta.do(t, admin.get(path)); resp.StatusCode != http.StatusOK {
			t.Fatalf("admin GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestOrderVisibleOnlyToOwner(t *testing.T) {
	ta := newTestApp(t, 100)
	logs := observeLogs(t)

	alice := ta.as(t, "u-alice")
	ta.fillCart(t, alice)
	if resp := ta.do(t, alice.post("/paypal/create-order", nil)); resp.StatusCode != http.StatusOK {
		t.Fatalf("create-order: expected 200, got %d", resp.StatusCode)
	}
	oid := ta.latestOrder(t, "u-alice")

	resp := ta.do(t, alice.get("/order/"+oid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner view: expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "18.05") {
		t.Fatalf("order page missing total; body=%s", body)
	}

	bob := ta.as(t, "u-bob")
	if resp := ta.do(t, bob.get("/order/"+oid)); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("other user view: expected 404, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, httptest.NewRequest("GET", "/order/"+oid, nil)); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("anonymous view: expected 404, got %d", resp.StatusCode)
	}
	if logs.FilterMessage("access.denied.order").Len() != 2 {
		t.Fatalf("expected two access.denied.order entries, got %d", logs.FilterMessage("access.denied.order").Len())
	}

	admin := ta.as(t, "u-admin")
	if resp := ta.do(t, admin.get("/order/"+oid)); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin view: expected 200, got %d", resp.StatusCode)
	}
}

func TestRefundRequestOnlyByOwner(t *testing.T) {
	ta := newTestApp(t, 100)
	logs := observeLogs(t)

	alice := ta.as(t, "u-alice")
	ta.fillCart(t, alice)
	resp := ta.do(t, alice.post("/paypal/create-order", nil))
	id := decodeJSON(t, resp)["id"].(string)
	ta.do(t, alice.postJSON("/paypal/capture-order", map[string]string{"orderID": id}))
	oid := ta.latestOrder(t, "u-alice")
	if st := ta.orderStatus(t, oid); st != "PAID" {
		t.Fatalf("expected PAID before refund request, got %s", st)
	}

	bob := ta.as(t, "u-bob")
	resp = ta.do(t, bob.post("/orders/"+oid+"/refund-request", url.Values{"reason": {"not mine"}}))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign refund request: expected 404, got %d", resp.StatusCode)
	}
	if logs.FilterMessage("access.denied.order").Len() != 1 {
		t.Fatalf("expected access.denied.order entry")
	}

	resp = ta.do(t, alice.post("/orders/"+oid+"/refund-request", url.Values{"reason": {"milk was sour"}}))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("owner refund request: expected redirect, got %d", resp.StatusCode)
	}
	var n int
	if err := ta.db.Get(&n, `SELECT COUNT(*) FROM refund_requests WHERE order_id=?`, oid); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one refund request, got %d", n)
	}
}

func TestAdminApprovesRefundRequest(t *testing.T) {
	ta := newTestApp(t, 100)
	logs := observeLogs(t)

	alice := ta.as(t, "u-alice")
	ta.fillCart(t, alice)
	resp := ta.do(t, alice.post("/paypal/create-order", nil))
	id := decodeJSON(t, resp)["id"].(string)
	ta.do(t, alice.postJSON("/paypal/capture-order", map[string]string{"orderID": id}))
	oid := ta.latestOrder(t, "u-alice")
	ta.do(t, alice.post("/orders/"+oid+"/refund-request", url.Values{"reason": {"changed my mind"}}))

	var rid string
	if err := ta.db.Get(&rid, `SELECT id FROM refund_requests WHERE order_id=?`, oid); err != nil {
		t.Fatalf("refund request: %v", err)
	}

	admin := ta.as(t, "u-admin")
	resp = ta.do(t, admin.post("/admin/refund-requests/"+rid+"/approve", url.Values{"note": {"ok"}}))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("approve: expected redirect, got %d", resp.StatusCode)
	}
	if st := ta.orderStatus(t, oid); st != "REFUNDED" {
		t.Fatalf("expected REFUNDED after approval, got %s", st)
	}
	if ta.stubs["paypal"].refunds != 1 {
		t.Fatalf("expected one provider refund, got %d", ta.stubs["paypal"].refunds)
	}
	if logs.FilterMessage("admin.refund_requests.decide").Len() != 1 {
		t.Fatalf("expected admin.refund_requests.decide audit entry")
	}

	// deciding twice is rejected
	resp = ta.do(t, admin.post("/admin/refund-requests/"+rid+"/reject", nil))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second decision: expected 409, got %d", resp.StatusCode)
	}
}
