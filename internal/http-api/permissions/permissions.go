package permissions

import "reviewhub/internal/http-api/apperrors"

// Role is a plain enumerated value with an explicit ordering, not a type
// hierarchy. Staff users are treated as admin-equivalent regardless of role.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRank = map[Role]int{
	RoleAnonymous: 0,
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Valid reports whether r is one of the assignable roles (anonymous is
// inferred, never stored).
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Action is the kind of operation being attempted against a resource.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Safe reports whether the action is read-only.
func (a Action) Safe() bool {
	return a == ActionRead
}

// Resource identifies the kind of object an action targets.
type Resource int

const (
	ResourceUser Resource = iota
	ResourceCategory
	ResourceGenre
	ResourceTitle
	ResourceReview
	ResourceComment
)

// Actor is the identity attached to a request. The zero value is anonymous.
type Actor struct {
	Authenticated bool
	UserID        string
	Username      string
	Role          Role
	Staff         bool
}

// Anonymous is the actor of an unauthenticated request.
var Anonymous = Actor{Role: RoleAnonymous}

// IsAdmin reports whether the actor has admin-level privilege, counting the
// platform staff flag as equivalent to the admin role.
func (a Actor) IsAdmin() bool {
	return a.Authenticated && (a.Staff || a.Role.AtLeast(RoleAdmin))
}

// IsModerator reports whether the actor may moderate others' reviews/comments.
func (a Actor) IsModerator() bool {
	return a.Authenticated && (a.Staff || a.Role.AtLeast(RoleModerator))
}

// Check decides whether actor may perform action against a resource, where
// owner tells if the actor authored the targeted object. It returns nil to
// admit, ErrNotAuthenticated for anonymous actors and ErrForbidden for
// authenticated actors lacking privilege.
func Check(actor Actor, action Action, resource Resource, owner bool) error {
	// Safe methods are open for everything except user management.
	if action.Safe() && resource != ResourceUser {
		return nil
	}

	switch resource {
	case ResourceUser:
		if actor.IsAdmin() {
			return nil
		}
	case ResourceCategory, ResourceGenre, ResourceTitle:
		if actor.IsAdmin() {
			return nil
		}
	case ResourceReview, ResourceComment:
		if !actor.Authenticated {
			return apperrors.ErrNotAuthenticated
		}
		// Creation only requires authentication; ownership rules apply to
		// update/delete.
		if action == ActionCreate {
			return nil
		}
		if owner || actor.IsModerator() {
			return nil
		}
	}

	if !actor.Authenticated {
		return apperrors.ErrNotAuthenticated
	}
	return apperrors.ErrForbidden
}
