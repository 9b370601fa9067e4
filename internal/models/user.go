package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "ADMIN"
	RoleViewer = "VIEWER"
)

type User struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Role         string `gorm:"size:32;index;not null" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// HasPermission answers the authorization check for an action such as
// "add:installer" or "view:package". Admins may do everything, viewers
// are limited to read-only actions.
func (u *User) HasPermission(action string) bool {
	if !u.IsActive {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return strings.HasPrefix(action, "view:")
}
