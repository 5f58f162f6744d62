// Package policy decides who may call which endpoint and mutate which object.
//
// Rules are evaluated in two phases. Collection checks whether the caller may
// reach an endpoint at all; Object additionally checks a mutation of an
// existing object against its owner. Both must allow.
package policy

import (
	"net/http"

	"github.com/kevinaaaquil/yamdb/models"
)

// Subject is the caller a decision is made for. The zero value is anonymous.
type Subject struct {
	Authenticated bool
	Role          models.Role
	Elevated      bool // staff flag
	UserID        string
}

// SubjectOf builds the Subject for an authenticated user, or anonymous for nil.
func SubjectOf(u *models.User) Subject {
	if u == nil {
		return Subject{}
	}
	return Subject{Authenticated: true, Role: u.Role, Elevated: u.IsStaff, UserID: u.ID}
}

// IsAdmin is true for the admin role or the elevated flag.
func (s Subject) IsAdmin() bool {
	return s.Authenticated && (s.Role == models.RoleAdmin || s.Elevated)
}

// IsModerator is true for the moderator role.
func (s Subject) IsModerator() bool {
	return s.Authenticated && s.Role == models.RoleModerator
}

// Decision is the outcome of a policy check.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) Allowed() bool { return d == Allow }

// Rule is a named access policy.
type Rule int

const (
	// AdminOrReadOnly lets anyone read and only admins write.
	AdminOrReadOnly Rule = iota
	// AdminOnly requires an admin for every method.
	AdminOnly
	// AuthorAdminModeratorOrReadOnly lets anyone read, any authenticated user create,
	// and only the author, a moderator or an admin change an existing object.
	AuthorAdminModeratorOrReadOnly
	// Authenticated requires a signed-in caller.
	Authenticated
)

func (r Rule) String() string {
	switch r {
	case AdminOrReadOnly:
		return "AdminOrReadOnly"
	case AdminOnly:
		return "AdminOnly"
	case AuthorAdminModeratorOrReadOnly:
		return "AuthorAdminModeratorOrReadOnly"
	case Authenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// SafeMethod reports whether method never mutates state.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Collection is the endpoint-level check.
func (r Rule) Collection(s Subject, method string) Decision {
	switch r {
	case AdminOrReadOnly:
		if SafeMethod(method) {
			return Allow
		}
		return requireAdmin(s)
	case AdminOnly:
		return requireAdmin(s)
	case AuthorAdminModeratorOrReadOnly:
		if SafeMethod(method) {
			return Allow
		}
		return requireAuth(s)
	case Authenticated:
		return requireAuth(s)
	}
	return Forbidden
}

// Object is the object-level check for an existing object whose author is ownerID.
// Rules without an ownership notion defer to Collection.
func (r Rule) Object(s Subject, method string, ownerID string) Decision {
	if d := r.Collection(s, method); d != Allow {
		return d
	}
	if r != AuthorAdminModeratorOrReadOnly || SafeMethod(method) {
		return Allow
	}
	if s.UserID == ownerID || s.IsAdmin() || s.IsModerator() {
		return Allow
	}
	return Forbidden
}

func requireAuth(s Subject) Decision {
	if !s.Authenticated {
		return Unauthenticated
	}
	return Allow
}

func requireAdmin(s Subject) Decision {
	if !s.Authenticated {
		return Unauthenticated
	}
	if !s.IsAdmin() {
		return Forbidden
	}
	return Allow
}
