package users

import (
	"strings"
	"time"
)

// RoleAdmin is the role assigned to every registered account.
const RoleAdmin = "admin"

// User is an administrator account.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:36;not null"`
	Username     string    `gorm:"column:username;size:64;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:72;not null"`
	FullName     string    `gorm:"column:full_name;size:190;not null"`
	Role         string    `gorm:"column:role;size:32;not null;default:admin"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}

// Registration carries the fields required to create an account.
type Registration struct {
	Username string
	Email    string
	Password string
	FullName string
}

// ProfileUpdate carries the mutable profile fields. Blank fields are left unchanged.
type ProfileUpdate struct {
	Email    string
	FullName string
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
