package dto

import "reviewhub/internal/http-api/models"

// CreateCategoryRequest for POST /api/v1/categories
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

// CreateGenreRequest for POST /api/v1/genres
type CreateGenreRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategoryModel(c models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromGenreModel(g models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}
