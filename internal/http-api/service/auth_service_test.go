package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/auth"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/models"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockCodeSender mocks the email.CodeSender interface and records the last
// code handed to it.
type MockCodeSender struct {
	mock.Mock
	LastCode string
}

func (m *MockCodeSender) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	m.LastCode = code
	args := m.Called(ctx, to, username, code)
	return args.Error(0)
}

func testAuthService(repo *MockUserRepository, sender *MockCodeSender) AuthService {
	cfg := &config.Config{
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: 24 * time.Hour,
	}
	return NewAuthService(repo, sender, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockSender := new(MockCodeSender)
	svc := testAuthService(mockRepo, mockSender)

	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	mockSender.On("SendConfirmationCode", mock.Anything, "alice@example.com", "alice", mock.AnythingOfType("string")).Return(nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com")

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.ConfirmationCodeHash)
	// Only the hash is stored; the mailed code must verify against it.
	assert.NoError(t, auth.VerifyConfirmationCode(user.ConfirmationCodeHash, mockSender.LastCode))
	mockRepo.AssertExpectations(t)
	mockSender.AssertExpectations(t)
}

func TestRegister_ReservedUsername(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockSender := new(MockCodeSender)
	svc := testAuthService(mockRepo, mockSender)

	mockRepo.On("FindByEmail", mock.Anything, "me@example.com").Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.Register(context.Background(), "me", "me@example.com")

	assert.Nil(t, user)
	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr, "username")
	mockSender.AssertNotCalled(t, "SendConfirmationCode")
}

func TestRegister_DuplicateUsernameAndEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockSender := new(MockCodeSender)
	svc := testAuthService(mockRepo, mockSender)

	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&models.User{Username: "alice"}, nil)
	mockRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(&models.User{Email: "alice@example.com"}, nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com")

	assert.Nil(t, user)
	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	// Both violations are reported in one response.
	assert.Contains(t, vErr, "username")
	assert.Contains(t, vErr, "email")
	mockRepo.AssertNotCalled(t, "Create")
}

func TestRegister_MailFailureKeepsUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockSender := new(MockCodeSender)
	svc := testAuthService(mockRepo, mockSender)

	mockRepo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	mockSender.On("SendConfirmationCode", mock.Anything, "bob@example.com", "bob", mock.AnythingOfType("string")).
		Return(errors.New("smtp: connection refused"))

	user, err := svc.Register(context.Background(), "bob", "bob@example.com")

	assert.NoError(t, err)
	assert.NotNil(t, user)
	mockRepo.AssertExpectations(t)
}

func TestIssueToken_BothFieldsMissing(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := testAuthService(mockRepo, new(MockCodeSender))

	token, err := svc.IssueToken(context.Background(), "", "")

	assert.Empty(t, token)
	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr, "username")
	assert.Contains(t, vErr, "confirmation_code")
	mockRepo.AssertNotCalled(t, "FindByUsername")
}

func TestIssueToken_UnknownUsername(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := testAuthService(mockRepo, new(MockCodeSender))

	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	token, err := svc.IssueToken(context.Background(), "ghost", "some-code")

	assert.Empty(t, token)
	// A wrong username is a 404, not a validation failure.
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIssueToken_WrongCode(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := testAuthService(mockRepo, new(MockCodeSender))

	hash, err := auth.HashConfirmationCode("right-code")
	assert.NoError(t, err)
	user := &models.User{ID: "u-1", Username: "alice", Role: "user", ConfirmationCodeHash: hash}
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	token, err := svc.IssueToken(context.Background(), "alice", "wrong-code")

	assert.Empty(t, token)
	var vErr apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr, "confirmation_code")
}

func TestIssueToken_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := testAuthService(mockRepo, new(MockCodeSender))

	hash, err := auth.HashConfirmationCode("right-code")
	assert.NoError(t, err)
	user := &models.User{ID: "u-1", Username: "alice", Role: "moderator", ConfirmationCodeHash: hash}
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	token, err := svc.IssueToken(context.Background(), "alice", "right-code")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auth.ParseToken(token, []byte("0123456789abcdef0123456789abcdef"))
	assert.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
}

func TestIssueToken_CodeNeverExpires(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := testAuthService(mockRepo, new(MockCodeSender))

	hash, err := auth.HashConfirmationCode("right-code")
	assert.NoError(t, err)
	user := &models.User{ID: "u-1", Username: "alice", Role: "user", ConfirmationCodeHash: hash}
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	// The same code keeps issuing tokens; it is not single-use.
	for i := 0; i < 3; i++ {
		token, err := svc.IssueToken(context.Background(), "alice", "right-code")
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	}
}
