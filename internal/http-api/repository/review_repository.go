package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"reviewhub/internal/http-api/models"
)

// ScoreAggregate holds the raw material for a title's computed rating.
type ScoreAggregate struct {
	TitleID int64
	Sum     int64
	Count   int64
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	ExistsByAuthorAndTitle(ctx context.Context, authorID string, titleID int64) (bool, error)
	TitleIDsByAuthor(ctx context.Context, authorID string) ([]int64, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, review *models.Review) error
	AggregateScores(ctx context.Context, titleIDs []int64) (map[int64]ScoreAggregate, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var reviews []models.Review
	offset := (page - 1) * pageSize
	if err := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("get reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) ExistsByAuthorAndTitle(ctx context.Context, authorID string, titleID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Count(&count).Error
	return count > 0, err
}

// TitleIDsByAuthor returns the distinct titles the author has reviewed. Used
// to invalidate cached ratings before the author's reviews cascade away.
func (r *reviewRepository) TitleIDsByAuthor(ctx context.Context, authorID string) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Distinct("title_id").
		Where("author_id = ?", authorID).
		Pluck("title_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list reviewed titles: %w", err)
	}
	return ids, nil
}

// Update persists text and score only; pub_date is immutable after creation.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("text", "score").Updates(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Delete(review).Error
}

// AggregateScores returns score sums and counts grouped by title. Titles with
// no reviews are absent from the result.
func (r *reviewRepository) AggregateScores(ctx context.Context, titleIDs []int64) (map[int64]ScoreAggregate, error) {
	if len(titleIDs) == 0 {
		return map[int64]ScoreAggregate{}, nil
	}

	var rows []ScoreAggregate
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("title_id, SUM(score) as sum, COUNT(*) as count").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate scores: %w", err)
	}

	out := make(map[int64]ScoreAggregate, len(rows))
	for _, row := range rows {
		out[row.TitleID] = row
	}
	return out, nil
}
