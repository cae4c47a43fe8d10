package models

import (
	"time"

	"github.com/google/uuid"
)

type Role int16

const (
	RoleGuest Role = 1
	RoleCast  Role = 2
)

func (r Role) Valid() bool {
	return r == RoleGuest || r == RoleCast
}

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleCast:
		return "cast"
	default:
		return "unknown"
	}
}

// ParseRole accepts role name as returned by Role.String
func ParseRole(s string) (Role, bool) {
	switch s {
	case "guest":
		return RoleGuest, true
	case "cast":
		return RoleCast, true
	default:
		return 0, false
	}
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          *string // nil if user registered with phone number only
	PhoneNumber    *string // nil if user registered with email only
	DisplayName    string
	HashedPassword string
	Role           Role
}

// Public part of the user, safe to return to clients
type Profile struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Email       *string
	PhoneNumber *string
	DisplayName string
	Role        Role
}

func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		CreatedAt:   u.CreatedAt,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
