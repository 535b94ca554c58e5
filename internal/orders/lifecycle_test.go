package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/enums"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/payment"
)

type gormTxRunner struct{ db *gorm.DB }

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Walks an order through the whole lifecycle against a real store:
// create, review, confirm with a checkout session, settle, and a late
// cancel that must lose to the settlement.
func TestOrderLifecycle_endToEnd(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	renter := seedRenter(t, db, "lifecycle@example.com")
	listing := seedListing(t, db, true)

	gateway := &payment.StubGateway{Session: &payment.CheckoutSession{
		ID:  "cs_test_lifecycle",
		URL: "https://checkout.example.com/cs_test_lifecycle",
	}}
	svc, err := NewService(repo, gormTxRunner{db: db}, gateway, "https://palletspaces.test", nil, metrics.NewPaymentMetrics(nil))
	require.NoError(t, err)

	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		ListingID:   listing.ID,
		RenterID:    renter.ID,
		RenterName:  renter.Name,
		RenterEmail: renter.Email,
		Quantity:    2,
		StartDate:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingReview, order.Status)

	summary, err := svc.Review(ctx, order.ID, renter.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Days)
	assert.Equal(t, int64(12500), summary.TotalCents)

	result, err := svc.Confirm(ctx, ConfirmInput{OrderID: order.ID, RenterID: renter.ID})
	require.NoError(t, err)
	assert.False(t, result.Pending())
	assert.Equal(t, enums.OrderStatusSubmitted, result.Order.Status)
	require.NotNil(t, result.Order.CheckoutSessionID)
	assert.Equal(t, "cs_test_lifecycle", *result.Order.CheckoutSessionID)

	// Settlement lands by session id, the way a completed checkout reports it.
	rows, err := repo.MarkPaidBySessionID(ctx, "cs_test_lifecycle")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// A cancel after settlement is a no-op; the order stays paid.
	cancelled, err := svc.Cancel(ctx, order.ID, renter.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, cancelled.Status)

	final, err := svc.Get(ctx, order.ID, renter.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, final.Status)
}

// The degraded path: gateway yields nothing, the order still submits and
// settlement later lands by order id.
func TestOrderLifecycle_degradedThenSettledByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	renter := seedRenter(t, db, "lifecycle-degraded@example.com")
	listing := seedListing(t, db, true)

	svc, err := NewService(repo, gormTxRunner{db: db}, payment.NewStubGateway(), "https://palletspaces.test", nil, metrics.NewPaymentMetrics(nil))
	require.NoError(t, err)

	ctx := context.Background()

	order, err := svc.Create(ctx, CreateInput{
		ListingID:   listing.ID,
		RenterID:    renter.ID,
		RenterName:  renter.Name,
		RenterEmail: renter.Email,
		Quantity:    1,
		StartDate:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	result, err := svc.Confirm(ctx, ConfirmInput{OrderID: order.ID, RenterID: renter.ID})
	require.NoError(t, err)
	assert.True(t, result.Pending())
	assert.Equal(t, enums.OrderStatusSubmitted, result.Order.Status)
	assert.Nil(t, result.Order.CheckoutSessionID)

	rows, err := repo.MarkPaidByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	final, err := svc.Get(ctx, order.ID, renter.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, final.Status)
}
