package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
)

func newUserService(repo *MockUserRepository) UserService {
	return NewUserService(repo, new(MockReviewRepository), &fakeRatingCache{})
}

func TestMe_Unauthenticated(t *testing.T) {
	svc := newUserService(new(MockUserRepository))

	_, err := svc.Me(context.Background(), permissions.Anonymous)

	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestMe_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	stored := &models.User{ID: "u-1", Username: "alice", Role: "user"}
	mockRepo.On("FindByID", mock.Anything, "u-1").Return(stored, nil)

	actor := permissions.Actor{Authenticated: true, UserID: "u-1", Username: "alice", Role: permissions.RoleUser}
	user, err := svc.Me(context.Background(), actor)

	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUpdateMe_RoleChangeRejected(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	stored := &models.User{ID: "u-1", Username: "alice", Role: "user"}
	mockRepo.On("FindByID", mock.Anything, "u-1").Return(stored, nil)

	actor := permissions.Actor{Authenticated: true, UserID: "u-1", Role: permissions.RoleUser}
	role := "moderator"
	_, err := svc.UpdateMe(context.Background(), actor, dto.UpdateMeRequest{Role: &role})

	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "role cannot be changed", vErr["role"])
	mockRepo.AssertNotCalled(t, "Update")
}

func TestUpdateMe_SameRoleIsNoOp(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	stored := &models.User{ID: "u-1", Username: "alice", Role: "user"}
	mockRepo.On("FindByID", mock.Anything, "u-1").Return(stored, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	actor := permissions.Actor{Authenticated: true, UserID: "u-1", Role: permissions.RoleUser}
	role := "user"
	bio := "hello"
	user, err := svc.UpdateMe(context.Background(), actor, dto.UpdateMeRequest{Role: &role, Bio: &bio})

	assert.NoError(t, err)
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, "hello", user.Bio)
}

func TestUserCreate_NonAdminForbidden(t *testing.T) {
	svc := newUserService(new(MockUserRepository))

	actor := permissions.Actor{Authenticated: true, UserID: "u-1", Role: permissions.RoleModerator}
	_, err := svc.Create(context.Background(), actor, dto.CreateUserRequest{Username: "x", Email: "x@example.com"})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUserCreate_InvalidRole(t *testing.T) {
	svc := newUserService(new(MockUserRepository))

	admin := permissions.Actor{Authenticated: true, UserID: "a-1", Role: permissions.RoleAdmin}
	req := dto.CreateUserRequest{Username: "x", Email: "x@example.com", Role: "superuser"}
	_, err := svc.Create(context.Background(), admin, req)

	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr, "role")
}

func TestUserCreate_DefaultsToUserRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	mockRepo.On("FindByUsername", mock.Anything, "carol").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "carol@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	admin := permissions.Actor{Authenticated: true, UserID: "a-1", Role: permissions.RoleAdmin}
	user, err := svc.Create(context.Background(), admin, dto.CreateUserRequest{Username: "carol", Email: "carol@example.com"})

	assert.NoError(t, err)
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.ConfirmationCodeHash)
}

func TestUserGet_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	admin := permissions.Actor{Authenticated: true, UserID: "a-1", Role: permissions.RoleAdmin}
	_, err := svc.GetByUsername(context.Background(), admin, "ghost")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserList_RequiresAdmin(t *testing.T) {
	svc := newUserService(new(MockUserRepository))

	user := permissions.Actor{Authenticated: true, UserID: "u-1", Role: permissions.RoleUser}
	_, _, err := svc.List(context.Background(), user, "", 1, 20)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUserDelete_InvalidatesReviewedTitleRatings(t *testing.T) {
	mockRepo := new(MockUserRepository)
	reviewRepo := new(MockReviewRepository)
	cache := &fakeRatingCache{}
	svc := NewUserService(mockRepo, reviewRepo, cache)

	stored := &models.User{ID: "author-1", Username: "alice", Role: "user"}
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil)
	reviewRepo.On("TitleIDsByAuthor", mock.Anything, "author-1").Return([]int64{3, 5}, nil)
	mockRepo.On("Delete", mock.Anything, stored).Return(nil)

	admin := permissions.Actor{Authenticated: true, UserID: "a-1", Role: permissions.RoleAdmin}
	err := svc.DeleteByUsername(context.Background(), admin, "alice")

	assert.NoError(t, err)
	// The user's reviews cascade away, so their titles' cached ratings must
	// not survive the delete.
	assert.ElementsMatch(t, []int64{3, 5}, cache.invalidated)
	mockRepo.AssertExpectations(t)
	reviewRepo.AssertExpectations(t)
}

func TestUserDelete_NonAdminForbidden(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newUserService(mockRepo)

	user := permissions.Actor{Authenticated: true, UserID: "u-1", Role: permissions.RoleUser}
	err := svc.DeleteByUsername(context.Background(), user, "alice")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	mockRepo.AssertNotCalled(t, "Delete")
}
