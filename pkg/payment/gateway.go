package payment

import "context"

// CheckoutSessionInput carries everything a gateway needs to open a hosted
// checkout for a rental order. Quantity is the total pallet-days billed and
// UnitAmountCents is the per-pallet-day price in minor units.
type CheckoutSessionInput struct {
	OrderID         int64
	ListingTitle    string
	Currency        string
	UnitAmountCents int64
	Quantity        int64

	// BuyerRef is the stored provider customer reference; preferred over
	// BuyerEmail when present.
	BuyerRef   *string
	BuyerEmail string

	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted payment page opened at the provider.
type CheckoutSession struct {
	ID  string
	URL string
}

// PayoutAccount is the provider-side account sellers are paid through.
// RequirementsKnown records whether the provider actually reported a
// requirements object; an absent object is not evidence of anything.
type PayoutAccount struct {
	ID                string
	ChargesEnabled    bool
	PayoutsEnabled    bool
	RequirementsKnown bool
	CurrentlyDue      []string
}

// Verified reports whether the account can receive payouts: either both
// capability flags are set, or the provider reported requirements and
// listed nothing left to collect.
func (a *PayoutAccount) Verified() bool {
	if a == nil {
		return false
	}
	if a.ChargesEnabled && a.PayoutsEnabled {
		return true
	}
	return a.RequirementsKnown && len(a.CurrentlyDue) == 0
}

// Gateway abstracts the payment provider. CreateCheckoutSession may return
// (nil, nil) when the provider declines to open a session for a reason that
// should not fail the confirmation; callers fall back to the pending flow.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	EnsurePayoutAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	FetchPayoutAccount(ctx context.Context, accountID string) (*PayoutAccount, error)
}
