package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"reviewhub/internal/auth"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func identifyRouter(captured *permissions.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identify(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		*captured = CurrentActor(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdentify_NoHeaderIsAnonymous(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, actor.Authenticated)
	assert.Equal(t, permissions.RoleAnonymous, actor.Role)
}

func TestIdentify_ValidToken(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	user := &models.User{ID: "u-1", Username: "alice", Role: "moderator"}
	token, err := auth.GenerateToken(user, testSecret, time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, actor.Authenticated)
	assert.Equal(t, "u-1", actor.UserID)
	assert.Equal(t, permissions.RoleModerator, actor.Role)
}

func TestIdentify_StaffFlagCarried(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	user := &models.User{ID: "s-1", Username: "staff", Role: "user", IsStaff: true}
	token, err := auth.GenerateToken(user, testSecret, time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.True(t, actor.Staff)
	assert.True(t, actor.IsAdmin())
}

func TestIdentify_BadTokenRejected(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentify_WrongSecretRejected(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	user := &models.User{ID: "u-1", Username: "alice", Role: "user"}
	token, err := auth.GenerateToken(user, []byte("another-secret-another-secret-xx"), time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentify_MalformedHeaderRejected(t *testing.T) {
	var actor permissions.Actor
	router := identifyRouter(&actor)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
