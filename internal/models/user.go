package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleAdmin          Role = "admin"
	RoleUser           Role = "user"
	RoleFranchiseOwner Role = "franchise_owner"
	RoleAgent          Role = "agent"
	RoleCustomer       Role = "customer"
)

// AllRoles lists every valid role.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleUser,
	RoleFranchiseOwner,
	RoleAgent,
	RoleCustomer,
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         Role       `gorm:"type:varchar(32);not null;index" json:"role"`
	FranchiseID  *uuid.UUID `gorm:"type:uuid;index" json:"franchise_id,omitempty"`
	PasswordHash string     `gorm:"not null" json:"-"`
	IsVerified   bool       `gorm:"not null;default:false;index" json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserPublic is the externally visible view of a user.
type UserPublic struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        Role       `json:"role"`
	FranchiseID *uuid.UUID `json:"franchise_id"`
	IsVerified  bool       `json:"is_verified"`
}

func (u *User) Public() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		FranchiseID: u.FranchiseID,
		IsVerified:  u.IsVerified,
	}
}

// PublicUsers converts a slice of users, never returning nil.
func PublicUsers(users []User) []UserPublic {
	out := make([]UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
