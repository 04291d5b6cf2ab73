package domain

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleClient  Role = "client"
	RoleMaster  Role = "master"
)

// IsStaff reports whether the role carries full administrative authority.
// Managers are equivalent to admins for every check except changing the
// role of an admin (see access.CanChangeRole).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleClient, RoleMaster:
		return true
	}
	return false
}

type User struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex" json:"email" validate:"required,email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	FullName     string    `gorm:"column:full_name" json:"full_name"`
	Phone        string    `gorm:"column:phone" json:"phone,omitempty"`
	Role         Role      `gorm:"column:role" json:"role"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserSummary is the populated form of a user reference on an order:
// enough for lists and cards, never includes credentials.
type UserSummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
	}
}
