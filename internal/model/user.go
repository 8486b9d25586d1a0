package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID             int       `db:"id"               json:"id"`
	Username       string    `db:"username"         json:"username"`
	Email          string    `db:"email"            json:"email"`
	HashedPassword string    `db:"hashed_password"  json:"-"`
	Role           Role      `db:"role"             json:"role"`
	CreatedAt      time.Time `db:"created_at"       json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at"       json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserUpdate holds a partial user update. HashedPassword must already be hashed.
type UserUpdate struct {
	Username       *string
	Email          *string
	HashedPassword *string
	Role           *Role
}

func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.HashedPassword != nil {
		user.HashedPassword = *u.HashedPassword
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleUser
	}
}
