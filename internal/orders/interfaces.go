package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/enums"
)

// Repository defines persistence operations for rental orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByIDForRenter(ctx context.Context, id, renterID int64) (*models.Order, error)
	ListByRenter(ctx context.Context, renterID int64, query ListQuery) (*OrderList, error)

	FindListing(ctx context.Context, id int64) (*models.Listing, error)
	FindRenter(ctx context.Context, id int64) (*models.User, error)

	// TransitionForRenter performs a guarded status update. The write only
	// lands when the order belongs to renterID and its current status is in
	// allowed; the returned count is the number of rows touched.
	TransitionForRenter(ctx context.Context, id, renterID int64, target enums.OrderStatus, allowed []enums.OrderStatus, extra map[string]any) (int64, error)

	// MarkPaidBySessionID settles the order attached to a checkout session
	// unless it has been cancelled.
	MarkPaidBySessionID(ctx context.Context, sessionID string) (int64, error)

	// MarkPaidByID settles the order by id unless it has been cancelled.
	MarkPaidByID(ctx context.Context, id int64) (int64, error)
}
