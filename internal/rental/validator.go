package rental

import (
	"time"

	"github.com/palletspaces/backend/pkg/db/models"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
)

// Request is a booking attempt against a listing's availability window.
type Request struct {
	Quantity  int
	StartDate time.Time
	EndDate   time.Time
}

// Days returns the billable day count, never less than one. A same-day stay
// is charged as a single day.
func (r Request) Days() int {
	days := int(r.EndDate.Sub(r.StartDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Validate checks a booking request against the listing. All violations are
// reported together so the caller can surface one response.
func Validate(listing *models.Listing, req Request) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	details := map[string]string{}

	if req.Quantity <= 0 {
		details["quantity"] = "must be at least 1"
	} else if listing.Capacity > 0 && req.Quantity > listing.Capacity {
		details["quantity"] = "exceeds listing capacity"
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		details["dates"] = "start and end dates are required"
	} else {
		if req.EndDate.Before(req.StartDate) {
			details["end_date"] = "must not be before start date"
		}
		if req.StartDate.Before(listing.AvailableFrom) {
			details["start_date"] = "before listing availability"
		}
		if req.EndDate.After(listing.AvailableUntil) {
			details["end_date"] = "after listing availability"
		}
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking request invalid").WithDetails(details)
	}
	return nil
}

// PriceCents computes the total charge: day rate in minor units times
// quantity times billable days.
func PriceCents(listing *models.Listing, req Request) int64 {
	if listing == nil {
		return 0
	}
	return listing.DayRateCents() * int64(req.Quantity) * int64(req.Days())
}
