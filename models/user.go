package models

import "time"

// Role values stored in users.role.
const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
)

// User is an application user. Registration always creates a "normal" user;
// only an admin can promote another user, and the transition is one-way.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:10;not null;default:normal"`
	CreatedAt    time.Time `gorm:"not null"`
	Active       bool      `gorm:"not null;default:true"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
