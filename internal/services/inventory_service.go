package services

import (
	"context"
	"errors"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

type InventoryService struct {
	Inv   *repos.InventoryRepo
	Prods *repos.ProductRepo
}

func NewInventoryService(inv *repos.InventoryRepo, prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Inv: inv, Prods: prods}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		// unknown products are simply not available
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx)
}

func (s *InventoryService) SetStock(ctx context.Context, productID string, qty int) error {
	return s.Inv.SetQty(ctx, productID, qty)
}

func (s *InventoryService) SetActive(ctx context.Context, productID string, active bool) error {
	return s.Prods.SetActive(ctx, productID, active)
}
