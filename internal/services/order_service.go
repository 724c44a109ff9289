package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

// OrderService serves the read side: order history, order detail and the
// admin list.
type OrderService struct {
	Orders   *repos.OrderRepo
	Payments *repos.PaymentRepo
}

func NewOrderService(orders *repos.OrderRepo, payments *repos.PaymentRepo) *OrderService {
	return &OrderService{Orders: orders, Payments: payments}
}

type OrderDetail struct {
	Order   domain.Order
	Items   []domain.OrderItem
	Payment *domain.Payment
}

// Detail returns an order to its buyer or to an admin.
func (s *OrderService) Detail(ctx context.Context, user *domain.User, orderID string) (OrderDetail, error) {
	if user == nil {
		return OrderDetail{}, domain.ErrUnauthenticated
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if o.UserID != user.ID && !user.IsAdmin() {
		return OrderDetail{}, domain.ErrForbidden
	}
	items, err := s.Orders.Items(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	d := OrderDetail{Order: o, Items: items}
	if p, err := s.Payments.ByOrder(ctx, orderID); err == nil {
		d.Payment = &p
	}
	return d, nil
}

func (s *OrderService) History(ctx context.Context, user *domain.User) ([]domain.OrderSummary, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.Orders.ListByUser(ctx, user.ID)
}

func (s *OrderService) Latest(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	return s.Orders.ListLatest(ctx, limit)
}

// Flagged lists payments that need manual reconciliation.
func (s *OrderService) Flagged(ctx context.Context) ([]domain.Payment, error) {
	return s.Payments.ListFlagged(ctx)
}
