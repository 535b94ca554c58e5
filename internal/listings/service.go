package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/palletspaces/backend/internal/sellers"
	"github.com/palletspaces/backend/pkg/db/models"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
	"github.com/palletspaces/backend/pkg/pagination"
)

// CreateInput carries everything listing intake needs.
type CreateInput struct {
	OwnerID        int64
	Title          string
	Description    string
	DayRate        decimal.Decimal
	Capacity       int
	AvailableFrom  time.Time
	AvailableUntil time.Time
	Publish        bool
}

// ListingSummary exposes the fields returned in listing pages.
type ListingSummary struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	DayRate        decimal.Decimal `json:"day_rate"`
	Capacity       int             `json:"capacity"`
	AvailableFrom  time.Time       `json:"available_from"`
	AvailableUntil time.Time       `json:"available_until"`
	Published      bool            `json:"published"`
}

// ListingPage wraps a page of listings plus the next cursor.
type ListingPage struct {
	Listings   []ListingSummary `json:"listings"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Summarize maps a persisted listing onto its page representation.
func Summarize(listing models.Listing) ListingSummary {
	return ListingSummary{
		ID:             listing.ID,
		OwnerID:        listing.OwnerID,
		Title:          listing.Title,
		Description:    listing.Description,
		DayRate:        listing.DayRate,
		Capacity:       listing.Capacity,
		AvailableFrom:  listing.AvailableFrom,
		AvailableUntil: listing.AvailableUntil,
		Published:      listing.Published,
	}
}

// Service manages listing intake and discovery. Creation is gated on the
// owner having a verified payout account.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Listing, error)
	Get(ctx context.Context, id int64) (*models.Listing, error)
	ListPublished(ctx context.Context, params pagination.Params) (*ListingPage, error)
	ListMine(ctx context.Context, ownerID int64, params pagination.Params) (*ListingPage, error)
	SetPublished(ctx context.Context, id, ownerID int64, published bool) (*models.Listing, error)
}

type service struct {
	repo Repository
	gate sellers.Service
}

// NewService builds a listings service with the required dependencies.
func NewService(repo Repository, gate sellers.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("sellers service required")
	}
	return &service{repo: repo, gate: gate}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Listing, error) {
	if input.OwnerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	details := map[string]string{}
	if input.Title == "" {
		details["title"] = "is required"
	}
	if input.Capacity <= 0 {
		details["capacity"] = "must be at least 1"
	}
	if input.DayRate.IsNegative() {
		details["day_rate"] = "must not be negative"
	}
	if input.AvailableFrom.IsZero() || input.AvailableUntil.IsZero() {
		details["availability"] = "window is required"
	} else if input.AvailableUntil.Before(input.AvailableFrom) {
		details["available_until"] = "must not be before available_from"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing invalid").WithDetails(details)
	}

	verified, err := s.gate.IsVerified(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payout verification required before listing")
	}

	listing := &models.Listing{
		OwnerID:        input.OwnerID,
		Title:          input.Title,
		Description:    input.Description,
		DayRate:        input.DayRate,
		Capacity:       input.Capacity,
		AvailableFrom:  input.AvailableFrom,
		AvailableUntil: input.AvailableUntil,
		Published:      input.Publish,
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if !listing.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*ListingPage, error) {
	page, err := s.repo.ListPublished(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return page, nil
}

func (s *service) ListMine(ctx context.Context, ownerID int64, params pagination.Params) (*ListingPage, error) {
	if ownerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return page, nil
}

// SetPublished flips a listing's visibility. The ownership check rides in
// the UPDATE's WHERE clause, so a foreign or missing listing is a zero-row
// write reported as not-found.
func (s *service) SetPublished(ctx context.Context, id, ownerID int64, published bool) (*models.Listing, error) {
	if ownerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.SetPublished(ctx, id, ownerID, published)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listing")
	}
	return listing, nil
}
