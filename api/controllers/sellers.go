package controllers

import (
	"net/http"

	"github.com/palletspaces/backend/api/middleware"
	"github.com/palletspaces/backend/api/responses"
	"github.com/palletspaces/backend/internal/sellers"
	"github.com/palletspaces/backend/pkg/logger"
)

// StartSellerVerification opens payout onboarding and redirects the seller
// to the provider-hosted flow. Without a configured gateway there is no
// flow to send them to, so the response is a pending note instead.
func StartSellerVerification(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.StartVerification(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if link == "" {
			responses.WriteSuccess(w, map[string]string{"onboarding": "pending"})
			return
		}

		w.Header().Set("Location", link)
		responses.WriteSuccessStatus(w, http.StatusSeeOther, map[string]string{"onboarding_url": link})
	}
}

// RefreshSellerStatus re-reads payout capabilities and returns the flag.
func RefreshSellerStatus(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.RefreshStatus(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"payout_verified": user.PayoutVerified,
		})
	}
}
