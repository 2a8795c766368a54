package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /api/v1/categories?search=<name substring>
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	list, total, err := h.svc.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.CategoryResponse, 0, len(list))
	for _, item := range list {
		resp = append(resp, dto.FromCategoryModel(item))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       resp,
		"pagination": dto.NewPagination(total, page, pageSize),
	})
}

// Create handles POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.svc.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCategoryModel(*category))
}

// Delete handles DELETE /api/v1/categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	err := h.svc.DeleteBySlug(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
