package catalog

import (
	"context"
	"time"

	"github.com/fjod/fyz_store/internal/domain"
	"golang.org/x/sync/singleflight"
)

const lookupTimeout = 5 * time.Second

// Service fronts the repository and collapses concurrent lookups of the same product.
type Service struct {
	repo RepoInterface
	sfg  singleflight.Group
}

func NewService(repo RepoInterface) *Service {
	return &Service{repo: repo}
}

func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		// shared by every waiter, so one caller going away must not fail the rest
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.repo.GetProduct(lookupCtx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *Service) Products(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}
