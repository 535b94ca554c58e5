package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/enums"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/payment"
)

type stubOrdersRepo struct {
	listing *models.Listing
	renter  *models.User
	order   *models.Order

	created         *models.Order
	transitionCalls int
	transitionRows  int64
	lastTarget      enums.OrderStatus
	lastExtra       map[string]any
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = 41
	order.CreatedAt = time.Now().UTC()
	s.created = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s.order
	return &out, nil
}

func (s *stubOrdersRepo) FindByIDForRenter(ctx context.Context, id, renterID int64) (*models.Order, error) {
	if s.order == nil || s.order.ID != id || s.order.RenterID != renterID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s.order
	return &out, nil
}

func (s *stubOrdersRepo) ListByRenter(ctx context.Context, renterID int64, query ListQuery) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) FindListing(ctx context.Context, id int64) (*models.Listing, error) {
	if s.listing == nil || s.listing.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s.listing
	return &out, nil
}

func (s *stubOrdersRepo) FindRenter(ctx context.Context, id int64) (*models.User, error) {
	if s.renter == nil || s.renter.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s.renter
	return &out, nil
}

func (s *stubOrdersRepo) TransitionForRenter(ctx context.Context, id, renterID int64, target enums.OrderStatus, allowed []enums.OrderStatus, extra map[string]any) (int64, error) {
	s.transitionCalls++
	s.lastTarget = target
	s.lastExtra = extra
	if s.transitionRows > 0 && s.order != nil {
		s.order.Status = target
		if sessionID, ok := extra["checkout_session_id"].(string); ok {
			s.order.CheckoutSessionID = &sessionID
		}
		if url, ok := extra["checkout_url"].(string); ok {
			s.order.CheckoutURL = &url
		}
	}
	return s.transitionRows, nil
}

func (s *stubOrdersRepo) MarkPaidBySessionID(ctx context.Context, sessionID string) (int64, error) {
	return 0, nil
}

func (s *stubOrdersRepo) MarkPaidByID(ctx context.Context, id int64) (int64, error) {
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:             7,
		OwnerID:        100,
		Title:          "Dry warehouse bay",
		DayRate:        decimal.RequireFromString("12.50"),
		Capacity:       10,
		AvailableFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AvailableUntil: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Published:      true,
	}
}

func newTestService(t *testing.T, repo Repository, gateway payment.Gateway) Service {
	t.Helper()

	svc, err := NewService(repo, stubTxRunner{}, gateway, "https://palletspaces.test", nil, metrics.NewPaymentMetrics(nil))
	require.NoError(t, err)
	return svc
}

func TestServiceCreate_parksOrderInReview(t *testing.T) {
	repo := &stubOrdersRepo{listing: testListing()}
	svc := newTestService(t, repo, payment.NewStubGateway())

	order, err := svc.Create(context.Background(), CreateInput{
		ListingID:   7,
		RenterID:    55,
		RenterName:  "Ada",
		RenterEmail: "ada@example.com",
		Quantity:    2,
		StartDate:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingReview, order.Status)
	assert.Equal(t, int64(55), order.RenterID)
	require.NotNil(t, repo.created)
}

func TestServiceCreate_hidesUnpublishedListing(t *testing.T) {
	listing := testListing()
	listing.Published = false
	repo := &stubOrdersRepo{listing: listing}
	svc := newTestService(t, repo, payment.NewStubGateway())

	_, err := svc.Create(context.Background(), CreateInput{
		ListingID: 7,
		RenterID:  55,
		Quantity:  1,
		StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceCreate_rejectsOverCapacity(t *testing.T) {
	repo := &stubOrdersRepo{listing: testListing()}
	svc := newTestService(t, repo, payment.NewStubGateway())

	_, err := svc.Create(context.Background(), CreateInput{
		ListingID: 7,
		RenterID:  55,
		Quantity:  11,
		StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "quantity")
	assert.Nil(t, repo.created)
}

func TestServiceConfirm_opensCheckoutSession(t *testing.T) {
	repo := &stubOrdersRepo{
		listing: testListing(),
		order: &models.Order{
			ID:        41,
			ListingID: 7,
			RenterID:  55,
			Quantity:  2,
			StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Status:    enums.OrderStatusPendingReview,
		},
		transitionRows: 1,
	}
	gateway := &payment.StubGateway{Session: &payment.CheckoutSession{
		ID:  "cs_test_41",
		URL: "https://checkout.example.com/cs_test_41",
	}}
	svc := newTestService(t, repo, gateway)

	result, err := svc.Confirm(context.Background(), ConfirmInput{OrderID: 41, RenterID: 55})
	require.NoError(t, err)
	assert.False(t, result.Pending())
	assert.Equal(t, "https://checkout.example.com/cs_test_41", result.CheckoutURL)
	assert.Equal(t, enums.OrderStatusSubmitted, result.Order.Status)
	assert.Equal(t, enums.OrderStatusSubmitted, repo.lastTarget)
	assert.Equal(t, "cs_test_41", repo.lastExtra["checkout_session_id"])
}

func TestServiceConfirm_degradesWhenGatewayDeclines(t *testing.T) {
	repo := &stubOrdersRepo{
		listing: testListing(),
		order: &models.Order{
			ID:        41,
			ListingID: 7,
			RenterID:  55,
			Quantity:  2,
			StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Status:    enums.OrderStatusPendingReview,
		},
		transitionRows: 1,
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	result, err := svc.Confirm(context.Background(), ConfirmInput{OrderID: 41, RenterID: 55})
	require.NoError(t, err)
	assert.True(t, result.Pending())
	assert.Empty(t, result.CheckoutURL)
	assert.Equal(t, enums.OrderStatusSubmitted, result.Order.Status)
	assert.Empty(t, repo.lastExtra)
}

func TestServiceConfirm_terminalOrderIsNoop(t *testing.T) {
	repo := &stubOrdersRepo{
		listing: testListing(),
		order: &models.Order{
			ID:       41,
			RenterID: 55,
			Status:   enums.OrderStatusPaid,
		},
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	result, err := svc.Confirm(context.Background(), ConfirmInput{OrderID: 41, RenterID: 55})
	require.NoError(t, err)
	assert.True(t, result.Pending())
	assert.Equal(t, enums.OrderStatusPaid, result.Order.Status)
	assert.Zero(t, repo.transitionCalls)
}

func TestServiceCancel_returnsRefreshedOrder(t *testing.T) {
	repo := &stubOrdersRepo{
		order: &models.Order{
			ID:       41,
			RenterID: 55,
			Status:   enums.OrderStatusSubmitted,
		},
		transitionRows: 1,
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	order, err := svc.Cancel(context.Background(), 41, 55)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.Equal(t, enums.OrderStatusCancelled, repo.lastTarget)
}

func TestServiceCancel_paidOrderStaysPaid(t *testing.T) {
	repo := &stubOrdersRepo{
		order: &models.Order{
			ID:       41,
			RenterID: 55,
			Status:   enums.OrderStatusPaid,
		},
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	order, err := svc.Cancel(context.Background(), 41, 55)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, repo.transitionCalls)
}

func TestServiceReview_computesTotal(t *testing.T) {
	repo := &stubOrdersRepo{
		listing: testListing(),
		order: &models.Order{
			ID:        41,
			ListingID: 7,
			RenterID:  55,
			Quantity:  2,
			StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Status:    enums.OrderStatusPendingReview,
		},
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	summary, err := svc.Review(context.Background(), 41, 55)
	require.NoError(t, err)
	assert.Equal(t, "Dry warehouse bay", summary.ListingTitle)
	assert.Equal(t, "12.50", summary.DayRate)
	assert.Equal(t, 5, summary.Days)
	// 1250 cents x 2 pallets x 5 days
	assert.Equal(t, int64(12500), summary.TotalCents)
	assert.Equal(t, "usd", summary.Currency)
}

func TestServiceReview_rejectsForeignOrder(t *testing.T) {
	repo := &stubOrdersRepo{
		listing: testListing(),
		order:   &models.Order{ID: 41, ListingID: 7, RenterID: 77},
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	_, err := svc.Review(context.Background(), 41, 55)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestServiceCancel_rejectsForeignOrder(t *testing.T) {
	repo := &stubOrdersRepo{
		order: &models.Order{ID: 41, RenterID: 77, Status: enums.OrderStatusSubmitted},
	}
	svc := newTestService(t, repo, payment.NewStubGateway())

	_, err := svc.Cancel(context.Background(), 41, 55)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Zero(t, repo.transitionCalls)
}

func TestServiceConfirm_unknownOrder(t *testing.T) {
	repo := &stubOrdersRepo{listing: testListing()}
	svc := newTestService(t, repo, payment.NewStubGateway())

	_, err := svc.Confirm(context.Background(), ConfirmInput{OrderID: 99, RenterID: 55})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
