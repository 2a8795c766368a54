package service

import (
	"context"

	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

// Category and Genre are append/delete-only catalogs: list and create and
// delete-by-slug, no update, no retrieve-by-id.

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateCategoryRequest) (*models.Category, error)
	DeleteBySlug(ctx context.Context, actor permissions.Actor, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	return s.repo.List(ctx, search, page, pageSize)
}

func (s *categoryService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateCategoryRequest) (*models.Category, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceCategory, false); err != nil {
		return nil, err
	}
	if err := validateSlug(req.Slug); err != nil {
		return nil, err
	}

	c := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("slug", "slug <"+req.Slug+"> already exists")
		}
		return nil, err
	}
	return c, nil
}

// DeleteBySlug removes the category; titles referencing it survive with
// category set to null.
func (s *categoryService) DeleteBySlug(ctx context.Context, actor permissions.Actor, slug string) error {
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceCategory, false); err != nil {
		return err
	}
	affected, err := s.repo.DeleteBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("category")
	}
	return nil
}

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateGenreRequest) (*models.Genre, error)
	DeleteBySlug(ctx context.Context, actor permissions.Actor, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	return s.repo.List(ctx, search, page, pageSize)
}

func (s *genreService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateGenreRequest) (*models.Genre, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceGenre, false); err != nil {
		return nil, err
	}
	if err := validateSlug(req.Slug); err != nil {
		return nil, err
	}

	g := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("slug", "slug <"+req.Slug+"> already exists")
		}
		return nil, err
	}
	return g, nil
}

// DeleteBySlug removes the genre; join rows to titles cascade away while the
// titles themselves stay.
func (s *genreService) DeleteBySlug(ctx context.Context, actor permissions.Actor, slug string) error {
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceGenre, false); err != nil {
		return err
	}
	affected, err := s.repo.DeleteBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("genre")
	}
	return nil
}
