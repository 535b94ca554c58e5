package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/palletspaces/backend/internal/rental"
	"github.com/palletspaces/backend/pkg/db/models"
	"github.com/palletspaces/backend/pkg/enums"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/payment"
)

const checkoutCurrency = "usd"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the rental order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	Cancel(ctx context.Context, orderID, renterID int64) (*models.Order, error)
	Get(ctx context.Context, orderID, renterID int64) (*models.Order, error)
	Review(ctx context.Context, orderID, renterID int64) (*ReviewSummary, error)
	List(ctx context.Context, renterID int64, query ListQuery) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway payment.Gateway
	baseURL string
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, gateway payment.Gateway, baseURL string, logg *logger.Logger, pm *metrics.PaymentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		gateway: gateway,
		baseURL: baseURL,
		logg:    logg,
		metrics: pm,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.RenterID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	listing, err := s.repo.FindListing(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if !listing.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	req := rental.Request{
		Quantity:  input.Quantity,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := rental.Validate(listing, req); err != nil {
		return nil, err
	}

	order := &models.Order{
		ListingID:   listing.ID,
		RenterID:    input.RenterID,
		RenterName:  input.RenterName,
		RenterEmail: input.RenterEmail,
		Quantity:    input.Quantity,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      enums.OrderStatusPendingReview,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

// Confirm pushes the order into the submitted state and opens a checkout
// session when the gateway cooperates. A gateway failure never blocks the
// submission; the order waits for offline settlement instead.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.RenterID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.Get(ctx, input.OrderID, input.RenterID)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID)
	}

	if order.Status.Terminal() {
		return &ConfirmResult{Order: order}, nil
	}

	listing, err := s.repo.FindListing(ctx, order.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	session := s.openSession(ctx, order, listing)

	extra := map[string]any{}
	if session != nil {
		extra["checkout_session_id"] = session.ID
		extra["checkout_url"] = session.URL
	}

	allowed := []enums.OrderStatus{enums.OrderStatusPendingReview, enums.OrderStatusSubmitted}
	rows, err := s.repo.TransitionForRenter(ctx, order.ID, input.RenterID, enums.OrderStatusSubmitted, allowed, extra)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
	}

	refreshed, err := s.repo.FindByIDForRenter(ctx, order.ID, input.RenterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	// Raced into a terminal state between the read and the write.
	if rows == 0 {
		return &ConfirmResult{Order: refreshed}, nil
	}

	result := &ConfirmResult{Order: refreshed}
	if session != nil {
		result.CheckoutURL = session.URL
	}
	return result, nil
}

func (s *service) openSession(ctx context.Context, order *models.Order, listing *models.Listing) *payment.CheckoutSession {
	req := rental.Request{Quantity: order.Quantity, StartDate: order.StartDate, EndDate: order.EndDate}

	input := payment.CheckoutSessionInput{
		OrderID:         order.ID,
		ListingTitle:    listing.Title,
		Currency:        checkoutCurrency,
		UnitAmountCents: listing.DayRateCents(),
		Quantity:        int64(order.Quantity) * int64(req.Days()),
		BuyerEmail:      order.RenterEmail,
		SuccessURL:      fmt.Sprintf("%s/orders", s.baseURL),
		CancelURL:       fmt.Sprintf("%s/orders/%d/confirm", s.baseURL, order.ID),
	}

	if renter, err := s.repo.FindRenter(ctx, order.RenterID); err == nil && renter.CustomerRef != nil {
		input.BuyerRef = renter.CustomerRef
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, input)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "checkout session failed, submitting without payment link", err)
		}
		s.metrics.IncSessionDegraded()
		return nil
	}
	if session == nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "gateway declined checkout session, submitting without payment link")
		}
		s.metrics.IncSessionDegraded()
		return nil
	}
	s.metrics.IncSessionCreated()
	return session
}

func (s *service) Cancel(ctx context.Context, orderID, renterID int64) (*models.Order, error) {
	if renterID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if existing.RenterID != renterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another renter")
		}

		allowed := []enums.OrderStatus{enums.OrderStatusPendingReview, enums.OrderStatusSubmitted}
		if _, err := repo.TransitionForRenter(ctx, orderID, renterID, enums.OrderStatusCancelled, allowed, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		found, err := repo.FindByIDForRenter(ctx, orderID, renterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID, renterID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.RenterID != renterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another renter")
	}
	return order, nil
}

// Review assembles the confirmation payload: the order plus the charge the
// renter is about to accept.
func (s *service) Review(ctx context.Context, orderID, renterID int64) (*ReviewSummary, error) {
	order, err := s.Get(ctx, orderID, renterID)
	if err != nil {
		return nil, err
	}

	listing, err := s.repo.FindListing(ctx, order.ListingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	req := rental.Request{Quantity: order.Quantity, StartDate: order.StartDate, EndDate: order.EndDate}
	return &ReviewSummary{
		Order:        Summarize(*order),
		ListingTitle: listing.Title,
		DayRate:      listing.DayRate.StringFixed(2),
		Days:         req.Days(),
		TotalCents:   rental.PriceCents(listing, req),
		Currency:     checkoutCurrency,
	}, nil
}

func (s *service) List(ctx context.Context, renterID int64, query ListQuery) (*OrderList, error) {
	if renterID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByRenter(ctx, renterID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
