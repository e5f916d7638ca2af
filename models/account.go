package models

import "time"

// Account is a ledger account ("conta") identified by a unique uppercase code.
// Accounts are never hard-deleted from user-facing flows; the Active flag
// filters them out instead.
type Account struct {
	ID          uint      `gorm:"primaryKey"`
	Code        string    `gorm:"size:50;not null;uniqueIndex"`
	Description string    `gorm:"size:200;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
	Active      bool `gorm:"not null;default:true"`
}
