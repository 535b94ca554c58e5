package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/palletspaces/backend/api/responses"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/metrics"
)

type PaymentWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

// PaymentWebhook verifies and dispatches provider events. Redeliveries are
// accepted as-is; the handlers only write target states, so replaying an
// event cannot corrupt an order.
func PaymentWebhook(svc PaymentWebhookService, signingSecret string, pm *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if signingSecret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			pm.IncWebhookRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, signingSecret)
		if err != nil {
			pm.IncWebhookRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "signature verification failed"))
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("payment event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}
