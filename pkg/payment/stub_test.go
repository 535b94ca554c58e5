package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubGatewayCheckoutDegradesWithoutSession(t *testing.T) {
	gw := NewStubGateway()

	sess, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{OrderID: 42})
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStubGatewayCheckoutReturnsCannedSession(t *testing.T) {
	gw := NewStubGateway()
	gw.Session = &CheckoutSession{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}

	sess, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{OrderID: 42})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://pay.example/cs_test_1", sess.URL)
}

func TestStubGatewayCheckoutRequiresOrderID(t *testing.T) {
	gw := NewStubGateway()

	_, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{})
	assert.Error(t, err)
}

func TestStubGatewayPayoutOnboardingNotConfigured(t *testing.T) {
	gw := NewStubGateway()

	id, err := gw.EnsurePayoutAccount(context.Background(), "seller@example.com")
	require.NoError(t, err)
	assert.Empty(t, id)

	link, err := gw.CreateOnboardingLink(context.Background(), "acct_x", "https://r", "https://ret")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestStubGatewayPayoutAccounts(t *testing.T) {
	gw := NewStubGateway()

	acct, err := gw.FetchPayoutAccount(context.Background(), "acct_x")
	require.NoError(t, err)
	assert.False(t, acct.Verified())

	gw.Account = &PayoutAccount{ID: "acct_x", ChargesEnabled: true, PayoutsEnabled: true}
	acct, err = gw.FetchPayoutAccount(context.Background(), "acct_x")
	require.NoError(t, err)
	assert.True(t, acct.Verified())
}

func TestPayoutAccountVerified(t *testing.T) {
	assert.False(t, (*PayoutAccount)(nil).Verified())
	assert.True(t, (&PayoutAccount{ChargesEnabled: true, PayoutsEnabled: true, CurrentlyDue: []string{"x"}}).Verified())
	assert.True(t, (&PayoutAccount{RequirementsKnown: true}).Verified())
	assert.False(t, (&PayoutAccount{ChargesEnabled: true, RequirementsKnown: true, CurrentlyDue: []string{"external_account"}}).Verified())

	// An account with no requirements object reported is not verified,
	// matching how account.updated events are reconciled.
	assert.False(t, (&PayoutAccount{}).Verified())
	assert.False(t, (&PayoutAccount{ChargesEnabled: true}).Verified())
}
