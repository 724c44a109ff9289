// Package payments holds the provider adapters. Each adapter turns a local
// order into a remote payment attempt and later reports, by the provider's
// own success token, whether that attempt was paid.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"freshmart/internal/cart"
	"freshmart/internal/domain"
)

// Status is a confirmation outcome after the provider's token was mapped.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusPending   Status = "PENDING"
	StatusFailed    Status = "FAILED"
)

// AttemptRequest is what every adapter needs to open a remote attempt.
type AttemptRequest struct {
	OrderID   string
	Currency  string
	Totals    cart.Totals
	Lines     []cart.Line
	ReturnURL string
	CancelURL string
}

// AttemptHandle is the provider's answer to Begin. Only the field matching
// the provider's flow is set besides Ref.
type AttemptHandle struct {
	Ref          string
	ApprovalURL  string
	ClientSecret string
	QRCode       string
}

// Confirmation is an adapter-verified report about a remote attempt.
type Confirmation struct {
	Status      Status
	ProviderRef string
	PayerEmail  string
	Raw         string
}

func (c Confirmation) Succeeded() bool { return c.Status == StatusSucceeded }

type RefundRequest struct {
	OrderID     string
	ProviderRef string
	Amount      decimal.Decimal
	Currency    string
	Reason      string
}

type RefundResult struct {
	RefundRef string
	Status    string
}

// Adapter is one payment provider integration.
type Adapter interface {
	Provider() string
	Begin(ctx context.Context, req AttemptRequest) (AttemptHandle, error)
	Confirm(ctx context.Context, ref string) (Confirmation, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}

// Registry resolves adapters by provider name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}
	return r
}

func (r *Registry) Get(provider string) (Adapter, error) {
	if r != nil {
		if a, ok := r.adapters[provider]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrProviderUnsupported, provider)
}

// Providers lists the registered provider names in stable order.
func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RejectedError is returned by Begin when the provider refused the attempt.
// Detail is for logs only.
type RejectedError struct {
	Provider string
	Detail   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected attempt: %s", e.Provider, e.Detail)
}

func (e *RejectedError) Unwrap() error { return domain.ErrProviderRejected }

// IsTimeout reports whether err came from an expired provider deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrProviderTimeout)
}
