package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"freshmart/internal/cart"
	"freshmart/internal/domain"
)

// Stripe is the intent-based card flow. Begin returns a client secret for
// the browser; confirmation arrives by webhook, with Confirm as the polling
// fallback.
type Stripe struct {
	secretKey     string
	webhookSecret string
	rest          *restClient
	now           func() time.Time
}

func NewStripe(secretKey, webhookSecret, baseURL string, hc *http.Client) *Stripe {
	return &Stripe{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		rest:          newRESTClient(domain.ProviderStripe, baseURL, hc),
		now:           time.Now,
	}
}

func (s *Stripe) Provider() string { return domain.ProviderStripe }

type stripeIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	ReceiptEmail string            `json:"receipt_email"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.secretKey)
	return h
}

func (s *Stripe) Begin(ctx context.Context, req AttemptRequest) (AttemptHandle, error) {
	vals := url.Values{}
	vals.Set("amount", strconv.FormatInt(cart.MinorUnits(req.Totals.Total), 10))
	vals.Set("currency", strings.ToLower(req.Currency))
	vals.Set("metadata[order_id]", req.OrderID)
	vals.Set("automatic_payment_methods[enabled]", "true")

	h := s.header()
	h.Set("Idempotency-Key", "intent-"+req.OrderID)

	var out stripeIntent
	if err := s.rest.form(ctx, "/v1/payment_intents", h, vals, &out); err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.Status < 500 {
			var se stripeError
			_ = json.Unmarshal([]byte(he.Body), &se)
			return AttemptHandle{}, &RejectedError{Provider: s.Provider(), Detail: fmt.Sprintf("%d %s %s", he.Status, se.Error.Code, se.Error.Message)}
		}
		return AttemptHandle{}, err
	}
	if out.ID == "" || out.ClientSecret == "" {
		return AttemptHandle{}, &RejectedError{Provider: s.Provider(), Detail: "intent without id or client secret"}
	}
	return AttemptHandle{Ref: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (s *Stripe) Confirm(ctx context.Context, ref string) (Confirmation, error) {
	var out stripeIntent
	if err := s.rest.json(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(ref), s.header(), nil, &out); err != nil {
		return Confirmation{}, err
	}
	return intentConfirmation(out), nil
}

func intentConfirmation(pi stripeIntent) Confirmation {
	c := Confirmation{Status: StatusPending, ProviderRef: pi.ID, PayerEmail: pi.ReceiptEmail, Raw: pi.Status}
	switch pi.Status {
	case "succeeded":
		c.Status = StatusSucceeded
	case "canceled":
		c.Status = StatusFailed
	}
	return c
}

func (s *Stripe) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	vals := url.Values{}
	vals.Set("payment_intent", req.ProviderRef)
	vals.Set("amount", strconv.FormatInt(cart.MinorUnits(req.Amount), 10))
	vals.Set("reason", "requested_by_customer")
	vals.Set("metadata[order_id]", req.OrderID)

	h := s.header()
	h.Set("Idempotency-Key", "refund-"+req.OrderID)

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := s.rest.form(ctx, "/v1/refunds", h, vals, &out); err != nil {
		return RefundResult{}, fmt.Errorf("stripe refund: %w", err)
	}
	if out.Status == "failed" || out.Status == "canceled" {
		return RefundResult{}, fmt.Errorf("stripe refund: status %q", out.Status)
	}
	return RefundResult{RefundRef: out.ID, Status: out.Status}, nil
}

// WebhookTolerance bounds the age of a signed webhook timestamp.
const WebhookTolerance = 5 * time.Minute

var (
	ErrSignatureMissing = errors.New("webhook signature missing")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrSignatureExpired = errors.New("webhook timestamp outside tolerance")
)

// WebhookEvent is the part of a Stripe event the checkout needs.
type WebhookEvent struct {
	ID      string
	Type    string
	OrderID string
	Intent  Confirmation
}

// ParseWebhook verifies the Stripe-Signature header against the raw body and
// only then decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, sigHeader string) (WebhookEvent, error) {
	if err := VerifySignature(payload, sigHeader, s.webhookSecret, s.now()); err != nil {
		return WebhookEvent{}, err
	}
	var ev struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object stripeIntent `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	return WebhookEvent{
		ID:      ev.ID,
		Type:    ev.Type,
		OrderID: ev.Data.Object.Metadata["order_id"],
		Intent:  intentConfirmation(ev.Data.Object),
	}, nil
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header: HMAC-SHA256 of
// "<t>.<payload>" keyed with secret, t within WebhookTolerance of now.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" || secret == "" {
		return ErrSignatureMissing
	}
	var ts int64
	var sigs [][]byte
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrSignatureInvalid
			}
			ts = n
		case "v1":
			if b, err := hex.DecodeString(v); err == nil {
				sigs = append(sigs, b)
			}
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrSignatureMissing
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	want := mac.Sum(nil)

	matched := false
	for _, sig := range sigs {
		if hmac.Equal(sig, want) {
			matched = true
			break
		}
	}
	if !matched {
		return ErrSignatureInvalid
	}
	if age := now.Sub(time.Unix(ts, 0)); age > WebhookTolerance || age < -WebhookTolerance {
		return ErrSignatureExpired
	}
	return nil
}

// SignPayload builds a header VerifySignature accepts.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
