package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiltersMatches(t *testing.T) {
	listing := Listing{ID: "L1", CustomerPhone: "+91-9876543210", Status: StatusAvailable, Category: CategoryPaper}

	assert.True(t, Filters{}.Matches(listing))
	assert.True(t, Filters{Category: CategoryPaper, Status: StatusAvailable}.Matches(listing))
	assert.False(t, Filters{Category: "paper"}.Matches(listing), "category match is case-sensitive")
	assert.False(t, Filters{CustomerPhone: "9876543210"}.Matches(listing), "phone match is exact, not partial")
	assert.False(t, Filters{Status: StatusCompleted}.Matches(listing))
}

func TestFiltersParamsOmitsEmptyKeys(t *testing.T) {
	assert.Empty(t, Filters{}.Params())
	assert.Equal(t, map[string]any{"status": "available"}, Filters{Status: StatusAvailable}.Params())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+91-9876543210", NormalizePhone("91", "9876543210"))
	assert.Equal(t, "+91-9876543210", NormalizePhone("+91", " 98765-43210 "))
	assert.Equal(t, "+44-7700900123", NormalizePhone("91", "+44-7700900123"))
}

func TestNormalizePhoneKeepsTheSubscriberNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"919876543210", "+91-9876543210"},
		{"91 98765 43210", "+91-9876543210"},
		{"09876543210", "+91-9876543210"},
		{"+919876543210", "+91-9876543210"},
		{"+91 98765 43210", "+91-9876543210"},
		{"+447700900123", "+44-7700900123"},
		{"98765432109999", "+91-98765432109999"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone("91", tt.raw))
		})
	}
}

func TestUserInputValidate(t *testing.T) {
	assert.NoError(t, UserInput{Phone: "9876543210", Role: RoleCustomer}.Validate())
	assert.ErrorIs(t, UserInput{Phone: "12345", Role: RoleCustomer}.Validate(), ErrInvalidPhone)
	assert.ErrorIs(t, UserInput{Phone: "9876543210", Role: "admin"}.Validate(), ErrInvalidRole)

	assert.Equal(t, "Dealer User", UserInput{Role: RoleDealer}.DisplayName())
	assert.Equal(t, "Customer User", UserInput{Role: RoleCustomer}.DisplayName())
	assert.Equal(t, "Asha", UserInput{Role: RoleCustomer, Name: " Asha "}.DisplayName())
}

func TestListingInputValidate(t *testing.T) {
	valid := ListingInput{Category: CategoryMetal, Quantity: 2, Unit: "kg", Address: "Sector 14"}
	assert.NoError(t, valid.Validate())

	noCategory := valid
	noCategory.Category = ""
	assert.ErrorIs(t, noCategory.Validate(), ErrMissingCategory)

	zeroQty := valid
	zeroQty.Quantity = 0
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidQuantity)

	for _, q := range []float64{math.Inf(1), math.NaN(), 1e300, MaxQuantity + 1} {
		huge := valid
		huge.Quantity = q
		assert.ErrorIs(t, huge.Validate(), ErrInvalidQuantity, "quantity %v", q)
	}
	atCap := valid
	atCap.Quantity = MaxQuantity
	assert.NoError(t, atCap.Validate())

	noAddress := valid
	noAddress.Address = "   "
	assert.ErrorIs(t, noAddress.Validate(), ErrMissingAddress)
}

func TestListingDecodesLooseSpreadsheetCells(t *testing.T) {
	raw := `{"id": 17, "category": "Paper", "customerPhone": "+91-9876543210", "quantity": "50",
		"unit": "kg", "lat": "28.4595", "lng": 77.0266, "status": "available", "postedDate": "2025-08-17",
		"imageUrls": ["a.jpg"]}`

	var l Listing
	require.NoError(t, json.Unmarshal([]byte(raw), &l))

	assert.Equal(t, "17", l.ID)
	assert.Equal(t, 50.0, l.Quantity)
	require.NotNil(t, l.Lat)
	require.NotNil(t, l.Lng)
	assert.InDelta(t, 28.4595, *l.Lat, 1e-9)
	assert.InDelta(t, 77.0266, *l.Lng, 1e-9)
	assert.Equal(t, []string{"a.jpg"}, l.ImageRefs)
	assert.Equal(t, StatusAvailable, l.Status)
}

func TestListingDecodeRejectsGarbageQuantity(t *testing.T) {
	var l Listing
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","quantity":"lots"}`), &l))
}

func TestListingCloneIsDeep(t *testing.T) {
	lat, lng := 1.0, 2.0
	orig := Listing{ID: "L1", ImageRefs: []string{"a"}, Lat: &lat, Lng: &lng}

	c := orig.Clone()
	c.ImageRefs[0] = "b"
	*c.Lat = 9

	assert.Equal(t, "a", orig.ImageRefs[0])
	assert.Equal(t, 1.0, *orig.Lat)
}

func TestIsLocalID(t *testing.T) {
	assert.True(t, IsLocalID(LocalIDPrefix+"0190"))
	assert.False(t, IsLocalID("DEMO001"))
}
