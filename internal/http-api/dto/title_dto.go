package dto

import "reviewhub/internal/http-api/models"

// CreateTitleRequest accepts slug references for category and genres; the
// read side nests the full objects instead.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description" binding:"max=256"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// UpdateTitleRequest: partial update. Nil fields are left untouched; a
// present genre list replaces the whole assignment.
type UpdateTitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description" binding:"omitempty,max=256"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

// TitleResponse is the read shape: nested category/genres plus the computed
// rating, absent while the title has no reviews.
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Description string            `json:"description,omitempty"`
	Rating      *int              `json:"rating"`
	Category    *CategoryResponse `json:"category"`
	Genre       []GenreResponse   `json:"genre"`
}

func FromTitleModel(t models.Title, rating *int) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Rating:      rating,
		Genre:       make([]GenreResponse, 0, len(t.Genres)),
	}
	if t.Category != nil {
		c := FromCategoryModel(*t.Category)
		resp.Category = &c
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, FromGenreModel(g))
	}
	return resp
}
