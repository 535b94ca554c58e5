package models

import (
	"time"

	"github.com/palletspaces/backend/pkg/enums"
)

// Order is a rental booking for a pallet-space listing. Start and end dates
// are civil dates; the end date is exclusive when computing billable days.
type Order struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ListingID int64 `gorm:"not null;index"`
	RenterID  int64 `gorm:"not null;index"`

	RenterName  string `gorm:"not null"`
	RenterEmail string `gorm:"not null"`

	Quantity  int       `gorm:"not null"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`

	Status enums.OrderStatus `gorm:"type:text;not null;default:pending_review"`

	// Populated once a checkout session has been opened for the order.
	CheckoutSessionID *string `gorm:"uniqueIndex"`
	CheckoutURL       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Order) TableName() string { return "orders" }
