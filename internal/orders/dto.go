package orders

import (
	"time"

	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/enums"
	"github.com/palletspaces/backend/pkg/pagination"
)

// CreateInput carries everything order intake needs. Renter identity comes
// from the authenticated session, not the request body.
type CreateInput struct {
	ListingID   int64
	RenterID    int64
	RenterName  string
	RenterEmail string
	Quantity    int
	StartDate   time.Time
	EndDate     time.Time
}

// ConfirmInput identifies the order being pushed toward payment.
type ConfirmInput struct {
	OrderID  int64
	RenterID int64
}

// ConfirmResult reports where the confirmation landed. CheckoutURL is empty
// when the gateway yielded no session and the order is waiting offline.
type ConfirmResult struct {
	Order       *models.Order
	CheckoutURL string
}

// Pending reports whether the confirmation degraded to the offline flow.
func (r *ConfirmResult) Pending() bool {
	return r != nil && r.CheckoutURL == ""
}

// ReviewSummary is the confirmation-page payload: the order alongside its
// computed charge breakdown.
type ReviewSummary struct {
	Order        OrderSummary `json:"order"`
	ListingTitle string       `json:"listing_title"`
	DayRate      string       `json:"day_rate"`
	Days         int          `json:"days"`
	TotalCents   int64        `json:"total_cents"`
	Currency     string       `json:"currency"`
}

// OrderSummary exposes the fields returned in the renter's order list.
type OrderSummary struct {
	ID          int64             `json:"id"`
	ListingID   int64             `json:"listing_id"`
	Quantity    int               `json:"quantity"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Status      enums.OrderStatus `json:"status"`
	CheckoutURL *string           `json:"checkout_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ListQuery scopes the renter's order page: cursor pagination plus an
// optional status filter.
type ListQuery struct {
	Page   pagination.Params
	Status *enums.OrderStatus
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Summarize maps a persisted order onto its list representation.
func Summarize(order models.Order) OrderSummary {
	return OrderSummary{
		ID:          order.ID,
		ListingID:   order.ListingID,
		Quantity:    order.Quantity,
		StartDate:   order.StartDate,
		EndDate:     order.EndDate,
		Status:      order.Status,
		CheckoutURL: order.CheckoutURL,
		CreatedAt:   order.CreatedAt,
	}
}
