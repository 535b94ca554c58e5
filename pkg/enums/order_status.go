package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks a rental order through review, submission, and settlement.
type OrderStatus string

const (
	OrderStatusPendingReview OrderStatus = "pending_review"
	OrderStatusSubmitted     OrderStatus = "submitted"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed out of the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingReview, OrderStatusSubmitted, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}
