package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// /users/me must be registered before the :username routes so "me" is
	// never treated as a lookup value.
	rg.GET("/me", h.Me)
	rg.PATCH("/me", h.UpdateMe)

	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:username", h.Get)
	rg.PATCH("/:username", h.Update)
	rg.DELETE("/:username", h.Delete)
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserModel(user))
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserModel(user))
}

// List handles GET /api/v1/users?search=<exact username>
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	users, total, err := h.userService.List(c.Request.Context(), middleware.CurrentActor(c),
		c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.FromUserModel(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       resp,
		"pagination": dto.NewPagination(total, page, pageSize),
	})
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUserModel(user))
}

// Get handles GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), middleware.CurrentActor(c),
		c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserModel(user))
}

// Update handles PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateByUsername(c.Request.Context(), middleware.CurrentActor(c),
		c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserModel(user))
}

// Delete handles DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	err := h.userService.DeleteByUsername(c.Request.Context(), middleware.CurrentActor(c),
		c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
