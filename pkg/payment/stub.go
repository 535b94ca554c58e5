package payment

import "context"

// StubGateway stands in when no provider is configured. Checkout attempts
// return (nil, nil) so confirmations degrade to the pending flow, and payout
// onboarding yields no account and no link; sellers stay unverified until a
// real provider is wired in. Canned Session/Account values let tests script
// the configured behavior.
type StubGateway struct {
	Session *CheckoutSession
	Account *PayoutAccount
}

var _ Gateway = (*StubGateway)(nil)

func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

func (g *StubGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if input.OrderID <= 0 {
		return nil, errOrderIDRequired
	}
	if g.Session == nil {
		return nil, nil
	}
	out := *g.Session
	return &out, nil
}

// EnsurePayoutAccount reports no account: without a provider there is
// nothing to onboard against.
func (g *StubGateway) EnsurePayoutAccount(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", errEmailRequired
	}
	return "", nil
}

func (g *StubGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "", nil
}

func (g *StubGateway) FetchPayoutAccount(ctx context.Context, accountID string) (*PayoutAccount, error) {
	if accountID == "" {
		return nil, errAccountRequired
	}
	if g.Account != nil {
		out := *g.Account
		return &out, nil
	}
	return &PayoutAccount{
		ID:                accountID,
		RequirementsKnown: true,
		CurrentlyDue:      []string{"external_account"},
	}, nil
}
