package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one recorded balance entry ("saldo") for an account. Entries are
// immutable once written. The composite primary key (created_at, account_id)
// lets two accounts record a balance at the same instant, while the storage
// layer rejects a duplicate stamp for the same account.
type Balance struct {
	CreatedAt   time.Time       `gorm:"primaryKey"`
	AccountID   uint            `gorm:"primaryKey;index;not null"`
	Account     Account         `gorm:"foreignKey:AccountID"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Date        time.Time       `gorm:"type:date;not null"`
	Time        string          `gorm:"size:8;not null"`
	Description string          `gorm:"size:500"`
}
