package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type GenreHandler struct {
	svc service.GenreService
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{svc: svc}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /api/v1/genres?search=<name substring>
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	list, total, err := h.svc.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.GenreResponse, 0, len(list))
	for _, item := range list {
		resp = append(resp, dto.FromGenreModel(item))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       resp,
		"pagination": dto.NewPagination(total, page, pageSize),
	})
}

// Create handles POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genre, err := h.svc.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromGenreModel(*genre))
}

// Delete handles DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	err := h.svc.DeleteBySlug(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
