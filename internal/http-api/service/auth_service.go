package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/auth"
	"reviewhub/internal/config"
	"reviewhub/internal/email"
	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

type AuthService interface {
	Register(ctx context.Context, username, emailAddr string) (*models.User, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
}

type authService struct {
	userRepo  repository.UserRepository
	sender    email.CodeSender
	logger    *slog.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	sender email.CodeSender,
	logger *slog.Logger,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		sender:    sender,
		logger:    logger,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.AccessTokenTTL,
	}
}

// Register creates a user with the role forced to "user" regardless of the
// request payload, issues a fresh confirmation code and mails it. The user
// row is kept even when mail dispatch fails; there is deliberately no
// two-phase guarantee between the two side effects.
func (s *authService) Register(ctx context.Context, username, emailAddr string) (*models.User, error) {
	if err := checkNewUser(ctx, s.userRepo, username, emailAddr); err != nil {
		return nil, err
	}

	code := auth.NewConfirmationCode()
	codeHash, err := auth.HashConfirmationCode(code)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:             username,
		Email:                emailAddr,
		Role:                 string(permissions.RoleUser),
		ConfirmationCodeHash: codeHash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup can slip past the pre-checks; the unique
		// indexes are the arbiter.
		if repository.IsUniqueViolation(err) {
			if dupErr := checkNewUser(ctx, s.userRepo, username, emailAddr); dupErr != nil {
				return nil, dupErr
			}
		}
		return nil, err
	}

	if err := s.sender.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		// The source behavior keeps the user record when dispatch fails;
		// the code is unrecoverable until an admin intervenes.
		s.logger.Warn("confirmation code dispatch failed",
			"username", user.Username, "error", err)
	}

	return user, nil
}

// IssueToken exchanges a username/confirmation-code pair for a bearer token.
// Codes are not single-use and never expire: any still-valid pair keeps
// working. Known weakness inherited from the original design, kept on
// purpose rather than silently hardened.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	missing := apperrors.ValidationError{}
	if username == "" {
		missing["username"] = "username is required"
	}
	if confirmationCode == "" {
		missing["confirmation_code"] = "confirmation code is required"
	}
	if len(missing) > 0 {
		return "", missing
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NewNotFound("user")
		}
		return "", err
	}

	if err := auth.VerifyConfirmationCode(user.ConfirmationCodeHash, confirmationCode); err != nil {
		return "", apperrors.NewValidation("confirmation_code", "confirmation code is not valid")
	}

	return auth.GenerateToken(user, s.jwtSecret, s.tokenTTL)
}
