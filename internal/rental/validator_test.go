package rental

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletspaces/backend/pkg/db/models"
	pkgerrors "github.com/palletspaces/backend/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:             1,
		OwnerID:        7,
		Title:          "Dry warehouse bays",
		DayRate:        decimal.NewFromFloat(12.50),
		Capacity:       10,
		AvailableFrom:  date(2025, time.January, 1),
		AvailableUntil: date(2025, time.March, 1),
		Published:      true,
	}
}

func TestValidateAcceptsStayInsideWindow(t *testing.T) {
	req := Request{Quantity: 2, StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 10)}
	require.NoError(t, Validate(testListing(), req))
}

func TestValidateRejectsStayOutsideWindow(t *testing.T) {
	cases := map[string]Request{
		"starts early": {Quantity: 1, StartDate: date(2024, time.December, 30), EndDate: date(2025, time.January, 10)},
		"ends late":    {Quantity: 1, StartDate: date(2025, time.February, 20), EndDate: date(2025, time.March, 5)},
		"inverted":     {Quantity: 1, StartDate: date(2025, time.January, 10), EndDate: date(2025, time.January, 5)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(testListing(), req)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestValidateRejectsBadQuantity(t *testing.T) {
	err := Validate(testListing(), Request{Quantity: 0, StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 6)})
	require.Error(t, err)

	err = Validate(testListing(), Request{Quantity: 11, StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 6)})
	require.Error(t, err)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	err := Validate(testListing(), Request{Quantity: 0, StartDate: date(2024, time.December, 1), EndDate: date(2025, time.April, 1)})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "quantity")
	assert.Contains(t, details, "start_date")
	assert.Contains(t, details, "end_date")
}

func TestValidateMissingListing(t *testing.T) {
	err := Validate(nil, Request{Quantity: 1, StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 6)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDaysFloorsAtOne(t *testing.T) {
	sameDay := Request{StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 5)}
	assert.Equal(t, 1, sameDay.Days())

	fiveDays := Request{StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 10)}
	assert.Equal(t, 5, fiveDays.Days())
}

func TestPriceCents(t *testing.T) {
	req := Request{Quantity: 2, StartDate: date(2025, time.January, 5), EndDate: date(2025, time.January, 10)}
	// 1250 cents/day * 2 pallets * 5 days
	assert.Equal(t, int64(12500), PriceCents(testListing(), req))
	assert.Equal(t, int64(0), PriceCents(nil, req))
}
