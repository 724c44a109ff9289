package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"freshmart/internal/domain"
	"freshmart/internal/log"
	"freshmart/internal/repos"
)

// RefundRequests lets a buyer ask for a refund that an admin then approves,
// which runs the checkout refund, or rejects.
type RefundRequests struct {
	Requests *repos.RefundRequestRepo
	Orders   *repos.OrderRepo
	Checkout *CheckoutService
}

func NewRefundRequests(requests *repos.RefundRequestRepo, orders *repos.OrderRepo, checkout *CheckoutService) *RefundRequests {
	return &RefundRequests{Requests: requests, Orders: orders, Checkout: checkout}
}

func (s *RefundRequests) Request(ctx context.Context, user *domain.User, orderID, reason string) (domain.RefundRequest, error) {
	if user == nil {
		return domain.RefundRequest{}, domain.ErrUnauthenticated
	}
	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.RefundRequest{}, err
	}
	if order.UserID != user.ID {
		return domain.RefundRequest{}, domain.ErrForbidden
	}
	switch order.Status {
	case domain.OrderPaid:
	case domain.OrderRefunded:
		return domain.RefundRequest{}, domain.ErrRefundAlreadyDone
	default:
		return domain.RefundRequest{}, domain.ErrRefundUnsupported
	}
	open, err := s.Requests.HasOpen(ctx, orderID)
	if err != nil {
		return domain.RefundRequest{}, err
	}
	if open {
		return domain.RefundRequest{}, domain.ErrRefundRequestOpen
	}

	rr := domain.RefundRequest{
		ID:      uuid.NewString(),
		OrderID: orderID,
		UserID:  user.ID,
		Reason:  strings.TrimSpace(reason),
		Status:  domain.RefundRequestPending,
	}
	if err := s.Requests.Create(ctx, &rr); err != nil {
		return domain.RefundRequest{}, err
	}
	log.Audit(nil, "refund_request.created", map[string]any{"requestId": rr.ID, "orderId": orderID, "userId": user.ID})
	return rr, nil
}

// Approve refunds the order and closes the request. A failed refund keeps the
// request open so it can be retried.
func (s *RefundRequests) Approve(ctx context.Context, requestID, note string) (domain.RefundRequest, error) {
	rr, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return rr, err
	}
	if rr.Status != domain.RefundRequestPending {
		return rr, domain.ErrRefundRequestClosed
	}
	if _, err := s.Checkout.Refund(ctx, rr.OrderID, rr.Reason); err != nil && !errors.Is(err, domain.ErrRefundAlreadyDone) {
		return rr, err
	}
	return s.decide(ctx, rr, domain.RefundRequestApproved, note)
}

func (s *RefundRequests) Reject(ctx context.Context, requestID, note string) (domain.RefundRequest, error) {
	rr, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return rr, err
	}
	return s.decide(ctx, rr, domain.RefundRequestRejected, note)
}

func (s *RefundRequests) decide(ctx context.Context, rr domain.RefundRequest, status domain.RefundRequestStatus, note string) (domain.RefundRequest, error) {
	ok, err := s.Requests.Decide(ctx, rr.ID, status, strings.TrimSpace(note))
	if err != nil {
		return rr, err
	}
	if !ok {
		return rr, domain.ErrRefundRequestClosed
	}
	log.Audit(nil, "refund_request.decided", map[string]any{"requestId": rr.ID, "orderId": rr.OrderID, "status": string(status)})
	return s.Requests.Get(ctx, rr.ID)
}

func (s *RefundRequests) List(ctx context.Context, status domain.RefundRequestStatus) ([]domain.RefundRequest, error) {
	return s.Requests.List(ctx, status)
}

func (s *RefundRequests) ForOrder(ctx context.Context, orderID string) ([]domain.RefundRequest, error) {
	return s.Requests.ListByOrder(ctx, orderID)
}
