package services

import (
	"context"

	"freshmart/internal/cart"
	"freshmart/internal/repos"
)

type CartService struct {
	Carts   *repos.CartRepo
	Prods   *repos.ProductRepo
	Pricing cart.Pricing
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, pricing cart.Pricing) *CartService {
	return &CartService{Carts: carts, Prods: prods, Pricing: pricing}
}

// Add merges qty of a product into the session cart, capped by stock.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	lines, err := s.Carts.Lines(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	lines, err = cart.AddItem(lines, p, qty, true)
	if err != nil {
		return CartView{}, err
	}
	return s.save(ctx, sessionID, lines)
}

func (s *CartService) Update(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	lines, err := s.Carts.Lines(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	lines, err = cart.UpdateQuantity(lines, productID, qty, p.Quantity)
	if err != nil {
		return CartView{}, err
	}
	return s.save(ctx, sessionID, lines)
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (CartView, error) {
	lines, err := s.Carts.Lines(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.save(ctx, sessionID, cart.RemoveItem(lines, productID))
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.Carts.Clear(ctx, sessionID)
}

type CartView struct {
	Lines  []cart.Line `json:"lines"`
	Totals cart.Totals `json:"totals"`
	Count  int         `json:"count"`
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	lines, err := s.Carts.Lines(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.view(lines), nil
}

func (s *CartService) save(ctx context.Context, sessionID string, lines []cart.Line) (CartView, error) {
	if err := s.Carts.Save(ctx, sessionID, lines); err != nil {
		return CartView{}, err
	}
	return s.view(lines), nil
}

func (s *CartService) view(lines []cart.Line) CartView {
	return CartView{
		Lines:  lines,
		Totals: cart.ComputeTotals(lines, s.Pricing),
		Count:  cart.Count(lines),
	}
}
