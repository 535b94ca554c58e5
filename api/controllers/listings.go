package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/palletspaces/backend/api/middleware"
	"github.com/palletspaces/backend/api/responses"
	"github.com/palletspaces/backend/api/validators"
	"github.com/palletspaces/backend/internal/listings"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

type createListingRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	DayRate        string `json:"day_rate" validate:"required"`
	Capacity       int    `json:"capacity" validate:"required,gt=0"`
	AvailableFrom  string `json:"available_from" validate:"required"`
	AvailableUntil string `json:"available_until" validate:"required"`
	Publish        bool   `json:"publish"`
}

// CreateListing registers a pallet-space offer for a verified seller.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(req.DayRate))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid day rate").
					WithDetails(map[string]string{"day_rate": "must be a decimal amount"}))
			return
		}

		from, err := time.Parse(dateLayout, strings.TrimSpace(req.AvailableFrom))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
					WithDetails(map[string]string{"available_from": "must be YYYY-MM-DD"}))
			return
		}
		until, err := time.Parse(dateLayout, strings.TrimSpace(req.AvailableUntil))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
					WithDetails(map[string]string{"available_until": "must be YYYY-MM-DD"}))
			return
		}

		listing, err := svc.Create(r.Context(), listings.CreateInput{
			OwnerID:        middleware.UserIDFromContext(r.Context()),
			Title:          req.Title,
			Description:    req.Description,
			DayRate:        rate,
			Capacity:       req.Capacity,
			AvailableFrom:  from,
			AvailableUntil: until,
			Publish:        req.Publish,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listings.Summarize(*listing))
	}
}

type publishListingRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// PublishListing toggles a listing's visibility for its owner.
func PublishListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "listingID"))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing id"))
			return
		}

		var req publishListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.SetPublished(r.Context(), id, middleware.UserIDFromContext(r.Context()), *req.Published)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings.Summarize(*listing))
	}
}

// GetListing returns a single published listing.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "listingID"))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing id"))
			return
		}

		listing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings.Summarize(*listing))
	}
}

// ListListings returns published listings newest first.
func ListListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPublished(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ListMyListings returns the caller's listings, published or not.
func ListMyListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMine(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
