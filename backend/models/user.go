package models

import (
	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	Base
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Username     string         `gorm:"not null" json:"username"`
	FullName     string         `json:"fullName"`
	Bio          string         `json:"bio"`
	AvatarURL    string         `json:"avatarUrl"`
	Role         string         `gorm:"not null;default:student" json:"role"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName is what the catalog shows for an instructor.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
