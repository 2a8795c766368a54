package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

type ReviewService interface {
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	Create(ctx context.Context, actor permissions.Actor, titleID int64, req dto.CreateReviewRequest) (*models.Review, error)
	Update(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID int64) error
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	titleRepo   repository.TitleRepository
	ratingCache RatingCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
	ratingCache RatingCache,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		titleRepo:   titleRepo,
		ratingCache: ratingCache,
	}
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.GetByTitle(ctx, titleID, page, pageSize)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	return s.scopedReview(ctx, titleID, reviewID)
}

// Create enforces one review per (author, title). The pre-check catches the
// common case; the unique index settles concurrent duplicates so exactly one
// of two simultaneous posts succeeds.
func (s *reviewService) Create(ctx context.Context, actor permissions.Actor, titleID int64, req dto.CreateReviewRequest) (*models.Review, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceReview, false); err != nil {
		return nil, err
	}
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateScore(req.Score); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsByAuthorAndTitle(ctx, actor.UserID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateReview()
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.UserID,
		Text:     req.Text,
		Score:    req.Score,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errDuplicateReview()
		}
		return nil, err
	}

	s.ratingCache.Invalidate(ctx, titleID)
	return s.reviewRepo.GetByID(ctx, review.ID)
}

func (s *reviewService) Update(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.UpdateReviewRequest) (*models.Review, error) {
	review, err := s.scopedReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	owner := actor.Authenticated && review.AuthorID == actor.UserID
	if err := permissions.Check(actor, permissions.ActionUpdate, permissions.ResourceReview, owner); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		if err := validateScore(*req.Score); err != nil {
			return nil, err
		}
		review.Score = *req.Score
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.ratingCache.Invalidate(ctx, titleID)
	return s.reviewRepo.GetByID(ctx, reviewID)
}

func (s *reviewService) Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID int64) error {
	review, err := s.scopedReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	owner := actor.Authenticated && review.AuthorID == actor.UserID
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceReview, owner); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, review); err != nil {
		return err
	}
	s.ratingCache.Invalidate(ctx, titleID)
	return nil
}

// scopedReview resolves a review through its title path; a review that exists
// under a different title is a 404, not a leak.
func (s *reviewService) scopedReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("review")
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, apperrors.NewNotFound("review")
	}
	return review, nil
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("title")
		}
		return err
	}
	return nil
}

func validateScore(score int) error {
	if score < 1 || score > 10 {
		return apperrors.NewValidation("score", "score must be an integer from 1 to 10")
	}
	return nil
}

func errDuplicateReview() error {
	return apperrors.NewValidation("title", "only one review per title is allowed")
}
