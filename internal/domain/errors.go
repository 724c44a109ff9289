package domain

import "errors"

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrUnauthenticated        = errors.New("user not authenticated")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrLineNotFound           = errors.New("cart line not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrProviderUnsupported    = errors.New("payment provider not supported")
	ErrProviderRejected       = errors.New("payment provider rejected the attempt")
	ErrProviderTimeout        = errors.New("payment provider timed out")
	ErrConfirmationUnverified = errors.New("payment confirmation could not be verified")
	// ErrAlreadyFinalized is an idempotent no-op signal, never shown to buyers.
	ErrAlreadyFinalized      = errors.New("order already finalized")
	ErrRefundUnsupported     = errors.New("refund not supported for this order")
	ErrRefundAlreadyDone     = errors.New("order already refunded")
	ErrRefundRequestOpen     = errors.New("a refund request is already open for this order")
	ErrRefundRequestNotFound = errors.New("refund request not found")
	ErrRefundRequestClosed   = errors.New("refund request already decided")
	ErrForbidden             = errors.New("forbidden")
)
