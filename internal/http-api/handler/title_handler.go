package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
)

type TitleHandler struct {
	svc service.TitleService
}

func NewTitleHandler(svc service.TitleService) *TitleHandler {
	return &TitleHandler{svc: svc}
}

func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:title_id", h.Get)
	rg.PATCH("/:title_id", h.Update)
	rg.DELETE("/:title_id", h.Delete)
}

// List handles GET /api/v1/titles with genre/category/year/name filters.
func (h *TitleHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	filter := repository.TitleFilter{
		GenreSlug:    c.Query("genre"),
		CategorySlug: c.Query("category"),
		Name:         c.Query("name"),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year filter"})
			return
		}
		filter.Year = year
	}

	titles, total, err := h.svc.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		resp = append(resp, dto.FromTitleModel(t.Title, t.Rating))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       resp,
		"pagination": dto.NewPagination(total, page, pageSize),
	})
}

// Get handles GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	title, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitleModel(title.Title, title.Rating))
}

// Create handles POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, err := h.svc.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTitleModel(title.Title, title.Rating))
}

// Update handles PATCH /api/v1/titles/:title_id
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	var req dto.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, err := h.svc.Update(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitleModel(title.Title, title.Rating))
}

// Delete handles DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
