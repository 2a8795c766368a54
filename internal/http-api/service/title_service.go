package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

// RatingCache memoizes computed title ratings. Misses are always acceptable;
// *repository.RatingCache is the redis-backed implementation.
type RatingCache interface {
	Get(ctx context.Context, titleID int64) (*int, bool)
	Set(ctx context.Context, titleID int64, rating *int)
	Invalidate(ctx context.Context, titleID int64)
}

// TitleWithRating pairs a title with its computed rating:
// floor(sum(scores)/count(scores)), nil while no reviews exist.
type TitleWithRating struct {
	models.Title
	Rating *int
}

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]TitleWithRating, int64, error)
	Get(ctx context.Context, id int64) (*TitleWithRating, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateTitleRequest) (*TitleWithRating, error)
	Update(ctx context.Context, actor permissions.Actor, id int64, req dto.UpdateTitleRequest) (*TitleWithRating, error)
	Delete(ctx context.Context, actor permissions.Actor, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	reviewRepo   repository.ReviewRepository
	ratingCache  RatingCache
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	reviewRepo repository.ReviewRepository,
	ratingCache RatingCache,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		reviewRepo:   reviewRepo,
		ratingCache:  ratingCache,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]TitleWithRating, int64, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	rated, err := s.attachRatings(ctx, titles)
	if err != nil {
		return nil, 0, err
	}
	return rated, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*TitleWithRating, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("title")
		}
		return nil, err
	}

	rated, err := s.attachRatings(ctx, []models.Title{*title})
	if err != nil {
		return nil, err
	}
	return &rated[0], nil
}

func (s *titleService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateTitleRequest) (*TitleWithRating, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceTitle, false); err != nil {
		return nil, err
	}
	if err := validateYear(req.Year); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Create(ctx, title, genreIDs); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("genre", "a genre may be assigned to a title only once")
		}
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, actor permissions.Actor, id int64, req dto.UpdateTitleRequest) (*TitleWithRating, error) {
	if err := permissions.Check(actor, permissions.ActionUpdate, permissions.ResourceTitle, false); err != nil {
		return nil, err
	}

	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("title")
		}
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := validateYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	var genreIDs []int64
	if req.Genre != nil {
		genreIDs, err = s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []int64{}
		}
	}

	if err := s.titleRepo.Update(ctx, title, genreIDs); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("genre", "a genre may be assigned to a title only once")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, actor permissions.Actor, id int64) error {
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceTitle, false); err != nil {
		return err
	}

	affected, err := s.titleRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("title")
	}
	// Reviews cascade away with the title, so the memoized rating must go.
	s.ratingCache.Invalidate(ctx, id)
	return nil
}

// attachRatings computes ratings for a batch of titles, consulting the cache
// first and falling back to one grouped aggregate query for the rest.
func (s *titleService) attachRatings(ctx context.Context, titles []models.Title) ([]TitleWithRating, error) {
	rated := make([]TitleWithRating, len(titles))
	var missing []int64

	for i, t := range titles {
		rated[i] = TitleWithRating{Title: t}
		if rating, ok := s.ratingCache.Get(ctx, t.ID); ok {
			rated[i].Rating = rating
		} else {
			missing = append(missing, t.ID)
		}
	}

	if len(missing) == 0 {
		return rated, nil
	}

	aggregates, err := s.reviewRepo.AggregateScores(ctx, missing)
	if err != nil {
		return nil, err
	}

	missingSet := make(map[int64]bool, len(missing))
	for _, id := range missing {
		missingSet[id] = true
	}
	for i := range rated {
		id := rated[i].Title.ID
		if !missingSet[id] {
			continue
		}
		rating := floorRating(aggregates[id])
		rated[i].Rating = rating
		s.ratingCache.Set(ctx, id, rating)
	}
	return rated, nil
}

// floorRating is integer average with floor division; nil when no scores.
func floorRating(agg repository.ScoreAggregate) *int {
	if agg.Count == 0 {
		return nil
	}
	rating := int(agg.Sum / agg.Count)
	return &rating
}

// validateYear rejects titles dated after the current calendar year.
func validateYear(year int) error {
	if year > time.Now().Year() {
		return apperrors.NewValidation("year", "year cannot be later than the current year")
	}
	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidation("category", "category <"+slug+"> does not exist")
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]int64, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]int64, len(genres))
	for _, g := range genres {
		found[g.Slug] = g.ID
	}

	ids := make([]int64, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		id, ok := found[slug]
		if !ok {
			return nil, apperrors.NewValidation("genre", "genre <"+slug+"> does not exist")
		}
		if seen[slug] {
			return nil, apperrors.NewValidation("genre", "a genre may be assigned to a title only once")
		}
		seen[slug] = true
		ids = append(ids, id)
	}
	return ids, nil
}
