package usecases

import (
	"context"
	"encoding/json"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/ports"
)

// CategoryService lists fact categories.
type CategoryService struct {
	categories ports.CategoryRepository
	cache      ports.CacheService
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories ports.CategoryRepository, cache ports.CacheService) *CategoryService {
	return &CategoryService{categories: categories, cache: cache}
}

// List returns all categories, cache-aside for an hour (categories rarely change).
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	const cacheKey = "categories:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cats []domain.Category
			if err := json.Unmarshal(data, &cats); err == nil {
				return cats, nil
			}
		}
	}

	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}
	return cats, nil
}
