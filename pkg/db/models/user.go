package models

import "time"

// User is a marketplace account. Sellers carry a payout account reference at
// the payment provider plus the verification flag the listing gate reads.
type User struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null;uniqueIndex"`

	// Reference to the buyer record at the payment provider, when known.
	CustomerRef *string

	PayoutAccountID *string `gorm:"uniqueIndex"`
	PayoutVerified  bool    `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
