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

type CommentService interface {
	ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.CreateCommentRequest) (*models.Comment, error)
	Update(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	titleRepo   repository.TitleRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		titleRepo:   titleRepo,
	}
}

func (s *commentService) ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	if _, err := s.scopedReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.GetByReview(ctx, reviewID, page, pageSize)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	return s.scopedComment(ctx, titleID, reviewID, commentID)
}

// Create requires authentication only; unlike reviews there is no uniqueness
// rule, a user may comment on the same review many times.
func (s *commentService) Create(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.CreateCommentRequest) (*models.Comment, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceComment, false); err != nil {
		return nil, err
	}
	if _, err := s.scopedReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.UserID,
		Text:     req.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *commentService) Update(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*models.Comment, error) {
	comment, err := s.scopedComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	owner := actor.Authenticated && comment.AuthorID == actor.UserID
	if err := permissions.Check(actor, permissions.ActionUpdate, permissions.ResourceComment, owner); err != nil {
		return nil, err
	}

	comment.Text = req.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

func (s *commentService) Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64) error {
	comment, err := s.scopedComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	owner := actor.Authenticated && comment.AuthorID == actor.UserID
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceComment, owner); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, comment)
}

// scopedComment walks the full title -> review -> comment chain; any break in
// the chain is a 404.
func (s *commentService) scopedComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := s.scopedReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("comment")
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, apperrors.NewNotFound("comment")
	}
	return comment, nil
}

func (s *commentService) scopedReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("title")
		}
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
