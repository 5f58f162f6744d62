package models

import "time"

// Role is the authorization tier of a user.
type Role string

// Role constants for user authorization.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var ValidRoles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid reports whether r is one of ValidRoles.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

const (
	UsernameMaxLength      = 150
	EmailMaxLength         = 254
	NameMaxLength          = 150
	ConfirmationCodeLength = 6
)

type User struct {
	ID               string     `bson:"_id" json:"-"`
	Username         string     `bson:"username" json:"username"`
	Email            string     `bson:"email" json:"email"`
	FirstName        string     `bson:"firstName" json:"first_name"`
	LastName         string     `bson:"lastName" json:"last_name"`
	Bio              string     `bson:"bio" json:"bio"`
	Role             Role       `bson:"role" json:"role"`
	IsStaff          bool       `bson:"isStaff" json:"-"` // elevated flag, grants admin rights regardless of role
	IsActive         bool       `bson:"isActive" json:"-"`
	ConfirmationCode string     `bson:"confirmationCode" json:"-"` // plaintext or bcrypt hash, see service.AuthService
	CodeIssuedAt     *time.Time `bson:"codeIssuedAt,omitempty" json:"-"`
	DateJoined       time.Time  `bson:"dateJoined" json:"-"`
}

// IsAdmin is true for the admin role or a staff account.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
