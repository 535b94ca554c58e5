package orders

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/palletspaces/backend/api/middleware"
	"github.com/palletspaces/backend/api/responses"
	"github.com/palletspaces/backend/api/validators"
	internalorders "github.com/palletspaces/backend/internal/orders"
	"github.com/palletspaces/backend/pkg/enums"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

type createRequest struct {
	ListingID int64  `json:"listing_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
			WithDetails(map[string]string{field: "must be YYYY-MM-DD"})
	}
	return t, nil
}

func parseOrderID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return id, nil
}

// Create accepts a booking request and parks the new order in review.
// The Location header points the client at the confirmation step.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start, err := parseDate("start_date", req.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := parseDate("end_date", req.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateInput{
			ListingID:   req.ListingID,
			RenterID:    middleware.UserIDFromContext(r.Context()),
			RenterName:  middleware.UserNameFromContext(r.Context()),
			RenterEmail: middleware.UserEmailFromContext(r.Context()),
			Quantity:    req.Quantity,
			StartDate:   start,
			EndDate:     end,
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/api/v1/orders/%d/confirm", order.ID))
		responses.WriteSuccessStatus(w, http.StatusSeeOther, internalorders.Summarize(*order))
	}
}

// Confirm pushes the order toward payment. When a checkout session exists
// the client is redirected to it; otherwise the order waits as submitted.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), internalorders.ConfirmInput{
			OrderID:  orderID,
			RenterID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !result.Pending() {
			w.Header().Set("Location", result.CheckoutURL)
			responses.WriteSuccessStatus(w, http.StatusSeeOther, internalorders.Summarize(*result.Order))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order":   internalorders.Summarize(*result.Order),
			"payment": "pending",
		})
	}
}

// Review returns the confirmation payload for an order: day count and the
// total the renter will be charged.
func Review(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Review(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Cancel voids an open order. Terminal orders are left untouched.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Location", "/api/v1/orders")
		responses.WriteSuccessStatus(w, http.StatusSeeOther, internalorders.Summarize(*order))
	}
}

// Detail returns a single order owned by the caller.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.Summarize(*order))
	}
}

// List returns the caller's orders newest first, optionally narrowed to a
// single status.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := internalorders.ListQuery{
			Page: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
						WithDetails(map[string]string{"status": "must be pending_review, submitted, paid, or cancelled"}))
				return
			}
			query.Status = &status
		}

		list, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
