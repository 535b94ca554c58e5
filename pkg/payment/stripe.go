package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/accountlink"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/palletspaces/backend/pkg/config"
	"github.com/palletspaces/backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("payment api key is required")
	errInvalidEnv       = fmt.Errorf("payment environment must be %q or %q", testEnv, liveEnv)
	errAccountRequired  = errors.New("payout account id is required")
	errEmailRequired    = errors.New("seller email is required")
	errOrderIDRequired  = errors.New("order id is required")
	errAmountOutOfRange = errors.New("unit amount and quantity must be positive")
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	environment string
	timeout     time.Duration
}

// NewStripeGateway initializes Stripe once with the configured secrets and env.
func NewStripeGateway(ctx context.Context, cfg config.PaymentConfig, logg *logger.Logger) (*StripeGateway, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe gateway initialized (%s)", env))
	}

	return &StripeGateway{
		environment: env,
		timeout:     cfg.RequestTimeout,
	}, nil
}

// Environment reports the normalized provider environment in use.
func (g *StripeGateway) Environment() string {
	if g == nil {
		return ""
	}
	return g.environment
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// CreateCheckoutSession opens a hosted checkout for the order. The order id
// travels in the session metadata so webhook reconciliation can find it.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if input.OrderID <= 0 {
		return nil, errOrderIDRequired
	}
	if input.UnitAmountCents <= 0 || input.Quantity <= 0 {
		return nil, errAmountOutOfRange
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(input.UnitAmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.ListingTitle),
					},
				},
				Quantity: stripe.Int64(input.Quantity),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(input.OrderID, 10))

	if input.BuyerRef != nil && *input.BuyerRef != "" {
		params.Customer = stripe.String(*input.BuyerRef)
	} else if input.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(input.BuyerEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// EnsurePayoutAccount creates an express account for the seller and returns its id.
func (g *StripeGateway) EnsurePayoutAccount(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", errEmailRequired
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
	}
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("creating payout account: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns a one-time URL the seller completes onboarding at.
func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", errAccountRequired
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return "", fmt.Errorf("creating onboarding link: %w", err)
	}
	return link.URL, nil
}

// FetchPayoutAccount pulls the current capability state for the account.
func (g *StripeGateway) FetchPayoutAccount(ctx context.Context, accountID string) (*PayoutAccount, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, errAccountRequired
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("fetching payout account: %w", err)
	}

	out := &PayoutAccount{
		ID:             acct.ID,
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}
	if acct.Requirements != nil {
		out.RequirementsKnown = true
		out.CurrentlyDue = acct.Requirements.CurrentlyDue
	}
	return out, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("payment environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("payment environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidEnv
	}
}
