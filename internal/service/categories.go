package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

// CategoryService manages transaction categories.
type CategoryService struct {
	categories port.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryService wires the category service.
func NewCategoryService(categories port.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

// Create adds a category; duplicates per (name, type) are rejected.
func (s *CategoryService) Create(ctx context.Context, userID string, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		zap.String("category_id", category.ID),
		zap.String("name", category.Name))
	return category, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	return s.categories.GetCategory(ctx, userID, categoryID)
}

// List returns all of the user's categories.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.categories.ListCategories(ctx, userID)
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, userID, categoryID string, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category, err := s.categories.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.Type = req.Type

	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes an unused category.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID string) error {
	return s.categories.DeleteCategory(ctx, userID, categoryID)
}
