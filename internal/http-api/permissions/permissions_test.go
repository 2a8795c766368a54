package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reviewhub/internal/http-api/apperrors"
)

var (
	anon      = Anonymous
	plainUser = Actor{Authenticated: true, UserID: "u-1", Username: "alice", Role: RoleUser}
	moderator = Actor{Authenticated: true, UserID: "m-1", Username: "mod", Role: RoleModerator}
	admin     = Actor{Authenticated: true, UserID: "a-1", Username: "root", Role: RoleAdmin}
	staffUser = Actor{Authenticated: true, UserID: "s-1", Username: "staff", Role: RoleUser, Staff: true}
)

func TestCheck_DecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		action   Action
		resource Resource
		owner    bool
		want     error
	}{
		// Reads are open for catalog content, even anonymously.
		{"anon reads titles", anon, ActionRead, ResourceTitle, false, nil},
		{"anon reads reviews", anon, ActionRead, ResourceReview, false, nil},
		{"anon reads comments", anon, ActionRead, ResourceComment, false, nil},
		{"anon reads categories", anon, ActionRead, ResourceCategory, false, nil},

		// User management is closed at every level below admin.
		{"anon reads users", anon, ActionRead, ResourceUser, false, apperrors.ErrNotAuthenticated},
		{"user reads users", plainUser, ActionRead, ResourceUser, false, apperrors.ErrForbidden},
		{"moderator reads users", moderator, ActionRead, ResourceUser, false, apperrors.ErrForbidden},
		{"admin reads users", admin, ActionRead, ResourceUser, false, nil},
		{"staff reads users", staffUser, ActionRead, ResourceUser, false, nil},
		{"admin deletes user", admin, ActionDelete, ResourceUser, false, nil},

		// Catalog writes are admin-only.
		{"anon creates category", anon, ActionCreate, ResourceCategory, false, apperrors.ErrNotAuthenticated},
		{"user creates category", plainUser, ActionCreate, ResourceCategory, false, apperrors.ErrForbidden},
		{"moderator creates genre", moderator, ActionCreate, ResourceGenre, false, apperrors.ErrForbidden},
		{"admin creates genre", admin, ActionCreate, ResourceGenre, false, nil},
		{"staff deletes title", staffUser, ActionDelete, ResourceTitle, false, nil},
		{"user updates title", plainUser, ActionUpdate, ResourceTitle, false, apperrors.ErrForbidden},

		// Review creation needs authentication only.
		{"anon creates review", anon, ActionCreate, ResourceReview, false, apperrors.ErrNotAuthenticated},
		{"user creates review", plainUser, ActionCreate, ResourceReview, false, nil},
		{"user creates comment", plainUser, ActionCreate, ResourceComment, false, nil},

		// Review/comment edits: owner, moderator or admin.
		{"owner updates review", plainUser, ActionUpdate, ResourceReview, true, nil},
		{"non-owner updates review", plainUser, ActionUpdate, ResourceReview, false, apperrors.ErrForbidden},
		{"moderator updates review", moderator, ActionUpdate, ResourceReview, false, nil},
		{"admin deletes review", admin, ActionDelete, ResourceReview, false, nil},
		{"staff deletes comment", staffUser, ActionDelete, ResourceComment, false, nil},
		{"owner deletes comment", plainUser, ActionDelete, ResourceComment, true, nil},
		{"non-owner deletes comment", plainUser, ActionDelete, ResourceComment, false, apperrors.ErrForbidden},
		{"anon updates review", anon, ActionUpdate, ResourceReview, false, apperrors.ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.actor, tt.action, tt.resource, tt.owner)
			if tt.want == nil {
				assert.NoError(t, got)
			} else {
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleUser))
	assert.True(t, RoleUser.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleModerator))
	assert.False(t, RoleAnonymous.AtLeast(RoleUser))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, Role("user").Valid())
	assert.True(t, Role("moderator").Valid())
	assert.True(t, Role("admin").Valid())
	assert.False(t, Role("anonymous").Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestActor_StaffIsAdminEquivalent(t *testing.T) {
	assert.True(t, staffUser.IsAdmin())
	assert.True(t, staffUser.IsModerator())
	assert.False(t, plainUser.IsAdmin())
	assert.False(t, plainUser.IsModerator())

	// An unauthenticated actor never gains privilege from role fields.
	spoofed := Actor{Role: RoleAdmin, Staff: true}
	assert.False(t, spoofed.IsAdmin())
}
