package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/category/dto"
	"anoa.com/civicreport/internal/modules/category/repository"
	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/sanitize"
	"anoa.com/civicreport/pkg/token"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, claims *token.Claims, req dto.CreateCategoryRequest) (*entity.Category, error)
	GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]entity.Category, error)
	DeleteCategory(ctx context.Context, claims *token.Claims, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) CreateCategory(ctx context.Context, claims *token.Claims, req dto.CreateCategoryRequest) (*entity.Category, error) {
	if err := policy.Authorize(claims, policy.AdminOnly, uuid.Nil); err != nil {
		return nil, err
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", apperror.ErrValidation)
	}

	existing, err := s.repo.FindByTitle(ctx, title)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("category with title %s already exists: %w", title, apperror.ErrConflict)
	}

	category := &entity.Category{
		Title:  title,
		UserID: claims.UserID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]entity.Category, error) {
	return s.repo.FindAll(ctx, filter.Search)
}

func (s *categoryService) DeleteCategory(ctx context.Context, claims *token.Claims, id uuid.UUID) error {
	if err := policy.Authorize(claims, policy.AdminOnly, uuid.Nil); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
