package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListProducts(ctx context.Context, category string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(ctx, category, pageSize, offset)
}

// GetProduct hides inactive products from buyers.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if !p.Active {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}
