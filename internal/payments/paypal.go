package payments

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"freshmart/internal/domain"
)

// PayPal is the redirect-capture flow: Begin creates a remote order the
// buyer approves on paypal.com, Confirm captures it.
type PayPal struct {
	clientID     string
	clientSecret string
	rest         *restClient

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewPayPal(clientID, clientSecret, baseURL string, hc *http.Client) *PayPal {
	return &PayPal{
		clientID:     clientID,
		clientSecret: clientSecret,
		rest:         newRESTClient(domain.ProviderPayPal, baseURL, hc),
	}
}

func (p *PayPal) Provider() string { return domain.ProviderPayPal }

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type paypalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (o paypalOrder) capture() (paypalCapture, bool) {
	for _, pu := range o.PurchaseUnits {
		if len(pu.Payments.Captures) > 0 {
			return pu.Payments.Captures[0], true
		}
	}
	return paypalCapture{}, false
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(p.clientID + ":" + p.clientSecret))
	h := http.Header{}
	h.Set("Authorization", "Basic "+auth)

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := p.rest.form(ctx, "/v1/oauth2/token", h, url.Values{"grant_type": {"client_credentials"}}, &out); err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal token: empty access_token")
	}
	p.token = out.AccessToken
	// refresh a minute early
	p.expires = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

func (p *PayPal) authed(ctx context.Context) (http.Header, error) {
	tok, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	return h, nil
}

func (p *PayPal) Begin(ctx context.Context, req AttemptRequest) (AttemptHandle, error) {
	h, err := p.authed(ctx)
	if err != nil {
		return AttemptHandle{}, err
	}
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderID,
			"custom_id":    req.OrderID,
			"amount":       paypalAmount{CurrencyCode: req.Currency, Value: req.Totals.Total.StringFixed(2)},
		}},
		"application_context": map[string]string{
			"return_url":  req.ReturnURL,
			"cancel_url":  req.CancelURL,
			"user_action": "PAY_NOW",
		},
	}

	var out paypalOrder
	if err := p.rest.json(ctx, http.MethodPost, "/v2/checkout/orders", h, body, &out); err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.Status < 500 {
			return AttemptHandle{}, &RejectedError{Provider: p.Provider(), Detail: he.Error()}
		}
		return AttemptHandle{}, err
	}
	if out.ID == "" {
		return AttemptHandle{}, &RejectedError{Provider: p.Provider(), Detail: "order id missing"}
	}

	handle := AttemptHandle{Ref: out.ID}
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			handle.ApprovalURL = l.Href
			break
		}
	}
	return handle, nil
}

// Confirm captures the approved order. A capture of an order that was
// already captured falls back to reading the order.
func (p *PayPal) Confirm(ctx context.Context, ref string) (Confirmation, error) {
	h, err := p.authed(ctx)
	if err != nil {
		return Confirmation{}, err
	}

	var out paypalOrder
	err = p.rest.json(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(ref)+"/capture", h, map[string]any{}, &out)
	var he *HTTPError
	switch {
	case err == nil:
	case errors.As(err, &he) && he.Status == http.StatusUnprocessableEntity && strings.Contains(he.Body, "ORDER_ALREADY_CAPTURED"):
		if err := p.rest.json(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(ref), h, nil, &out); err != nil {
			return Confirmation{}, err
		}
	case errors.As(err, &he) && he.Status == http.StatusUnprocessableEntity:
		// not approved yet, or INSTRUMENT_DECLINED: the buyer can re-approve
		// the same order with another funding source
		return Confirmation{Status: StatusPending, ProviderRef: ref, Raw: he.Body}, nil
	default:
		return Confirmation{}, err
	}

	c := Confirmation{Status: StatusPending, ProviderRef: ref, PayerEmail: out.Payer.EmailAddress, Raw: out.Status}
	capture, hasCapture := out.capture()
	if hasCapture && capture.ID != "" {
		c.ProviderRef = capture.ID
	}
	switch {
	case out.Status == "COMPLETED" && (!hasCapture || capture.Status == "COMPLETED"):
		c.Status = StatusSucceeded
	case out.Status == "VOIDED" || capture.Status == "DECLINED" || capture.Status == "FAILED":
		c.Status = StatusFailed
	}
	return c, nil
}

func (p *PayPal) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	h, err := p.authed(ctx)
	if err != nil {
		return RefundResult{}, err
	}
	body := map[string]any{
		"amount":        paypalAmount{CurrencyCode: req.Currency, Value: req.Amount.StringFixed(2)},
		"note_to_payer": truncate(req.Reason, 255),
		"invoice_id":    req.OrderID,
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := p.rest.json(ctx, http.MethodPost, "/v2/payments/captures/"+url.PathEscape(req.ProviderRef)+"/refund", h, body, &out); err != nil {
		return RefundResult{}, fmt.Errorf("paypal refund: %w", err)
	}
	if out.Status != "COMPLETED" && out.Status != "PENDING" {
		return RefundResult{}, fmt.Errorf("paypal refund: unexpected status %q", out.Status)
	}
	return RefundResult{RefundRef: out.ID, Status: out.Status}, nil
}
