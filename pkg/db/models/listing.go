package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a pallet-space offer published by a seller. DayRate is the
// price per pallet per day in the platform currency.
type Listing struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	OwnerID int64 `gorm:"not null;index"`

	Title       string          `gorm:"not null"`
	Description string          `gorm:"type:text"`
	DayRate     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Capacity    int             `gorm:"not null"`

	AvailableFrom  time.Time `gorm:"type:date;not null"`
	AvailableUntil time.Time `gorm:"type:date;not null"`

	Published bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Listing) TableName() string { return "listings" }

// DayRateCents converts the day rate to integer minor units for gateways.
func (l Listing) DayRateCents() int64 {
	return l.DayRate.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
