package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"reviewhub/internal/http-api/models"
)

// TitleFilter narrows the title listing. Zero values mean "no filter".
type TitleFilter struct {
	GenreSlug    string
	CategorySlug string
	Year         int
	Name         string
}

type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title, genreIDs []int64) error
	Update(ctx context.Context, t *models.Title, genreIDs []int64) error
	Delete(ctx context.Context, id int64) (int64, error)
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Title{})

	if filter.GenreSlug != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres g ON g.id = tg.genre_id").
			Where("g.slug = ?", filter.GenreSlug)
	}
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories c ON c.id = titles.category_id").
			Where("c.slug = ?", filter.CategorySlug)
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}
	if filter.Name != "" {
		q = q.Where("titles.name ILIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := q.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	var list []models.Title
	offset := (page - 1) * pageSize
	if err := q.Distinct("titles.*").
		Preload("Category").
		Preload("Genres").
		Order("titles.name asc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return list, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&t, "titles.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts the title and its join rows in one transaction so a
// duplicate (title, genre) pair fails the whole write.
func (r *titleRepository) Create(ctx context.Context, t *models.Title, genreIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres").Create(t).Error; err != nil {
			return fmt.Errorf("create title: %w", err)
		}
		return replaceGenres(tx, t.ID, genreIDs)
	})
}

func (r *titleRepository) Update(ctx context.Context, t *models.Title, genreIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Select the scalar columns so a cleared category (nil CategoryID)
		// is persisted instead of skipped as a zero value.
		if err := tx.Omit("Genres").Select("name", "year", "description", "category_id").
			Where("id = ?", t.ID).Updates(t).Error; err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		if genreIDs == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", t.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("clear title genres: %w", err)
		}
		return replaceGenres(tx, t.ID, genreIDs)
	})
}

func replaceGenres(tx *gorm.DB, titleID int64, genreIDs []int64) error {
	for _, genreID := range genreIDs {
		link := models.TitleGenre{TitleID: titleID, GenreID: genreID}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("assign genre %d: %w", genreID, err)
		}
	}
	return nil
}

func (r *titleRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete title: %w", result.Error)
	}
	return result.RowsAffected, nil
}
