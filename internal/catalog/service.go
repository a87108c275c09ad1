package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes catalog read operations.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error)
	GetProduct(ctx context.Context, slug string) (*ProductDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service backed by the repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ListProducts returns a page of active catalog entries.
func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error) {
	result, err := s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination: params,
		Filters:    filters,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

// GetProduct loads a full product aggregate by slug.
func (s *service) GetProduct(ctx context.Context, slug string) (*ProductDTO, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}

	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}
