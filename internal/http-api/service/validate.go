package service

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"reviewhub/internal/http-api/apperrors"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

// reservedUsername collides with the /users/me route and can never be taken.
const reservedUsername = "me"

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return apperrors.NewValidation("slug", "slug may only contain letters, digits, hyphens and underscores")
	}
	return nil
}

func validateRole(role string) error {
	if !permissions.Role(role).Valid() {
		return apperrors.NewValidation("role", "role <"+role+"> is not valid")
	}
	return nil
}

// checkNewUser enforces the reserved-name rule and both uniqueness
// constraints, reporting every violated field together.
func checkNewUser(ctx context.Context, repo repository.UserRepository, username, email string) error {
	fields := apperrors.ValidationError{}

	if username == reservedUsername {
		fields["username"] = "username <me> is reserved"
	} else if _, err := repo.FindByUsername(ctx, username); err == nil {
		fields["username"] = "username <" + username + "> already exists"
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		fields["email"] = "email <" + email + "> already exists"
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if len(fields) > 0 {
		return fields
	}
	return nil
}
