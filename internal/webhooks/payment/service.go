package paymentwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/payment"
)

const (
	outcomeSettled  = "settled"
	outcomeVerified = "verified"
	outcomeRevoked  = "revoked"
	outcomeNoop     = "noop"
	outcomeIgnored  = "ignored"
)

type orderSettler interface {
	MarkPaidBySessionID(ctx context.Context, sessionID string) (int64, error)
	MarkPaidByID(ctx context.Context, id int64) (int64, error)
}

type sellerVerifier interface {
	SetVerificationByAccountID(ctx context.Context, accountID string, verified bool) (int64, error)
}

type ServiceParams struct {
	Orders  orderSettler
	Sellers sellerVerifier
	Logger  *logger.Logger
	Metrics *metrics.PaymentMetrics
}

// Service reconciles provider webhook events into local state. Every write
// targets a fixed end state, so redelivered events converge instead of
// double-applying.
type Service struct {
	orders  orderSettler
	sellers sellerVerifier
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Sellers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sellers repo required")
	}
	return &Service{
		orders:  params.Orders,
		sellers: params.Sellers,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.settleOrder(ctx, event)
	case stripe.EventTypeAccountUpdated:
		return s.syncSellerVerification(ctx, event)
	default:
		s.metrics.IncWebhookEvent(string(event.Type), outcomeIgnored)
		return nil
	}
}

func (s *Service) settleOrder(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		// A verified but malformed payload is the provider's bug, not a
		// reason to trigger redelivery.
		if s.logg != nil {
			s.logg.Error(ctx, "malformed checkout session payload", err)
		}
		s.metrics.IncWebhookEvent(string(event.Type), outcomeIgnored)
		return nil
	}

	rows := int64(0)
	if session.ID != "" {
		var err error
		rows, err = s.orders.MarkPaidBySessionID(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle order by session")
		}
	}

	// Session id may predate persistence (e.g. the confirm write raced a
	// fast webhook); the metadata order id is the fallback route.
	if rows == 0 {
		if orderID, ok := orderIDFromMetadata(session.Metadata); ok {
			var err error
			rows, err = s.orders.MarkPaidByID(ctx, orderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle order by id")
			}
		}
	}

	if rows == 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("checkout session %s matched no settleable order", session.ID))
		}
		s.metrics.IncWebhookEvent(string(event.Type), outcomeNoop)
		return nil
	}

	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("order settled for checkout session %s", session.ID))
	}
	s.metrics.IncWebhookEvent(string(event.Type), outcomeSettled)
	return nil
}

func (s *Service) syncSellerVerification(ctx context.Context, event *stripe.Event) error {
	var account stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "malformed account payload", err)
		}
		s.metrics.IncWebhookEvent(string(event.Type), outcomeIgnored)
		return nil
	}
	if account.ID == "" {
		s.metrics.IncWebhookEvent(string(event.Type), outcomeIgnored)
		return nil
	}

	payout := payment.PayoutAccount{
		ID:             account.ID,
		ChargesEnabled: account.ChargesEnabled,
		PayoutsEnabled: account.PayoutsEnabled,
	}
	if account.Requirements != nil {
		payout.RequirementsKnown = true
		payout.CurrentlyDue = account.Requirements.CurrentlyDue
	}
	verified := payout.Verified()

	rows, err := s.sellers.SetVerificationByAccountID(ctx, account.ID, verified)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store seller verification")
	}
	if rows == 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("payout account %s matched no seller", account.ID))
		}
		s.metrics.IncWebhookEvent(string(event.Type), outcomeNoop)
		return nil
	}

	outcome := outcomeRevoked
	if verified {
		outcome = outcomeVerified
	}
	s.metrics.IncWebhookEvent(string(event.Type), outcome)
	return nil
}

func orderIDFromMetadata(metadata map[string]string) (int64, bool) {
	raw, ok := metadata["order_id"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
