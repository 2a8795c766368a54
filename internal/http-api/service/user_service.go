package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/auth"
	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

type UserService interface {
	List(ctx context.Context, actor permissions.Actor, search string, page, pageSize int) ([]models.User, int64, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateUserRequest) (*models.User, error)
	GetByUsername(ctx context.Context, actor permissions.Actor, username string) (*models.User, error)
	UpdateByUsername(ctx context.Context, actor permissions.Actor, username string, req dto.UpdateUserRequest) (*models.User, error)
	DeleteByUsername(ctx context.Context, actor permissions.Actor, username string) error
	Me(ctx context.Context, actor permissions.Actor) (*models.User, error)
	UpdateMe(ctx context.Context, actor permissions.Actor, req dto.UpdateMeRequest) (*models.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	reviewRepo  repository.ReviewRepository
	ratingCache RatingCache
}

func NewUserService(
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
	ratingCache RatingCache,
) UserService {
	return &userService{
		userRepo:    userRepo,
		reviewRepo:  reviewRepo,
		ratingCache: ratingCache,
	}
}

func (s *userService) List(ctx context.Context, actor permissions.Actor, search string, page, pageSize int) ([]models.User, int64, error) {
	if err := permissions.Check(actor, permissions.ActionRead, permissions.ResourceUser, false); err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(ctx, search, page, pageSize)
}

// Create is the administrative path: any valid role is settable, and no
// confirmation email goes out — the admin hands over the code out-of-band
// or the user signs up again through the public flow.
func (s *userService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateUserRequest) (*models.User, error) {
	if err := permissions.Check(actor, permissions.ActionCreate, permissions.ResourceUser, false); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = string(permissions.RoleUser)
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	if err := checkNewUser(ctx, s.userRepo, req.Username, req.Email); err != nil {
		return nil, err
	}

	codeHash, err := auth.HashConfirmationCode(auth.NewConfirmationCode())
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:             req.Username,
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Bio:                  req.Bio,
		Role:                 role,
		ConfirmationCodeHash: codeHash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			if dupErr := checkNewUser(ctx, s.userRepo, req.Username, req.Email); dupErr != nil {
				return nil, dupErr
			}
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, actor permissions.Actor, username string) (*models.User, error) {
	if err := permissions.Check(actor, permissions.ActionRead, permissions.ResourceUser, false); err != nil {
		return nil, err
	}
	return s.findUser(ctx, username)
}

func (s *userService) UpdateByUsername(ctx context.Context, actor permissions.Actor, username string, req dto.UpdateUserRequest) (*models.User, error) {
	if err := permissions.Check(actor, permissions.ActionUpdate, permissions.ResourceUser, false); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if err := validateRole(*req.Role); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailFree(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	applyProfileFields(user, req.FirstName, req.LastName, req.Bio)

	if err := s.userRepo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("email", "email already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteByUsername(ctx context.Context, actor permissions.Actor, username string) error {
	if err := permissions.Check(actor, permissions.ActionDelete, permissions.ResourceUser, false); err != nil {
		return err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}

	// Reviews and their comments go with the user via the cascade keys, so
	// the affected titles' memoized ratings must go too. Collect them first:
	// the rows are gone once the user is.
	titleIDs, err := s.reviewRepo.TitleIDsByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user); err != nil {
		return err
	}

	for _, titleID := range titleIDs {
		s.ratingCache.Invalidate(ctx, titleID)
	}
	return nil
}

func (s *userService) Me(ctx context.Context, actor permissions.Actor) (*models.User, error) {
	if !actor.Authenticated {
		return nil, apperrors.ErrNotAuthenticated
	}
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}
	return user, nil
}

// UpdateMe lets a user edit their own profile but never their role: a role
// value differing from the current one is rejected even when it names a
// valid role; sending the unchanged value is a no-op.
func (s *userService) UpdateMe(ctx context.Context, actor permissions.Actor, req dto.UpdateMeRequest) (*models.User, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		return nil, apperrors.NewValidation("role", "role cannot be changed")
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailFree(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	applyProfileFields(user, req.FirstName, req.LastName, req.Bio)

	if err := s.userRepo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewValidation("email", "email already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) findUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) checkEmailFree(ctx context.Context, emailAddr string) error {
	_, err := s.userRepo.FindByEmail(ctx, emailAddr)
	if err == nil {
		return apperrors.NewValidation("email", "email <"+emailAddr+"> already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func applyProfileFields(user *models.User, firstName, lastName, bio *string) {
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		user.Bio = *bio
	}
}
