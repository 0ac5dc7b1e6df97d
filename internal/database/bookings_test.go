package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightnest/internal/models"
)

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := testBooking("BN-1001")
	booking.StripeSessionID = "cs_test_123"
	require.NoError(t, db.CreateBooking(ctx, booking))
	assert.NotZero(t, booking.ID)

	stored, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "BN-1001", stored.Reference)
	assert.Equal(t, "jane@example.com", stored.CustomerEmail)
	assert.Equal(t, 245.0, stored.Amount)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.True(t, stored.Selection.OvenCleaning)
	assert.Equal(t, 1, stored.Selection.OvenCount)
	assert.Equal(t, 2.0, stored.Selection.Bathrooms)
	assert.Equal(t, "deep", stored.Selection.ServiceType)

	bySession, err := db.GetBookingBySessionID(ctx, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, bySession.ID)

	byRef, err := db.GetBookingByReference(ctx, "BN-1001")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byRef.ID)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetBookingBySessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBooking_DuplicateSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testBooking("BN-1001")
	first.StripeSessionID = "cs_test_123"
	require.NoError(t, db.CreateBooking(ctx, first))

	replay := testBooking("BN-1002")
	replay.StripeSessionID = "cs_test_123"
	assert.ErrorIs(t, db.CreateBooking(ctx, replay), ErrDuplicate)
}

func TestCreateBooking_DuplicateSubscriptionCycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testBooking("BN-1001")
	first.StripeSubscriptionID = "sub_123"
	require.NoError(t, db.CreateBooking(ctx, first))

	// Same cycle replayed.
	replay := testBooking("BN-1002")
	replay.StripeSubscriptionID = "sub_123"
	assert.ErrorIs(t, db.CreateBooking(ctx, replay), ErrDuplicate)

	// Next cycle lands on a new date and must pass.
	next := testBooking("BN-1003")
	next.StripeSubscriptionID = "sub_123"
	next.ScheduledDate = "2026-09-22"
	require.NoError(t, db.CreateBooking(ctx, next))
}

func TestCreateBooking_EmptyStripeIDsNotUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Bookings without Stripe ids (email fallback flow) must not collide
	// on the partial indexes.
	first := testBooking("BN-1001")
	require.NoError(t, db.CreateBooking(ctx, first))

	second := testBooking("BN-1002")
	require.NoError(t, db.CreateBooking(ctx, second))
}

func TestGetLatestBookingBySubscriptionID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	dates := []string{"2026-09-01", "2026-09-08", "2026-09-15"}
	for i, date := range dates {
		b := testBooking("BN-100" + string(rune('1'+i)))
		b.StripeSubscriptionID = "sub_123"
		b.ScheduledDate = date
		require.NoError(t, db.CreateBooking(ctx, b))
	}

	latest, err := db.GetLatestBookingBySubscriptionID(ctx, "sub_123")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", latest.ScheduledDate)

	_, err = db.GetLatestBookingBySubscriptionID(ctx, "sub_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := testBooking("BN-1001")
	require.NoError(t, db.CreateBooking(ctx, booking))

	require.NoError(t, db.UpdateBookingStatus(ctx, booking.ID, models.StatusConfirmed))

	stored, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)

	assert.Error(t, db.UpdateBookingStatus(ctx, booking.ID, "shipped"))
	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, 999, models.StatusConfirmed), ErrNotFound)
}

func TestSetCalendarEventID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := testBooking("BN-1001")
	require.NoError(t, db.CreateBooking(ctx, booking))

	require.NoError(t, db.SetCalendarEventID(ctx, booking.ID, "evt_abc"))

	stored, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt_abc", stored.CalendarEventID)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testBooking("BN-1001")
	require.NoError(t, db.CreateBooking(ctx, first))

	second := testBooking("BN-1002")
	second.CustomerName = "Bob Stone"
	second.CustomerEmail = "bob@example.com"
	second.ServiceType = "deep"
	second.Status = models.StatusConfirmed
	require.NoError(t, db.CreateBooking(ctx, second))

	all, err := db.ListBookings(ctx, BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := db.ListBookings(ctx, BookingFilter{Status: models.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "BN-1002", confirmed[0].Reference)

	byName, err := db.ListBookings(ctx, BookingFilter{Search: "bob"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "bob@example.com", byName[0].CustomerEmail)

	byRef, err := db.ListBookings(ctx, BookingFilter{Search: "bn-1001"})
	require.NoError(t, err)
	require.Len(t, byRef, 1)

	byTier, err := db.ListBookings(ctx, BookingFilter{Search: "deep"})
	require.NoError(t, err)
	require.Len(t, byTier, 1)
	assert.Equal(t, "BN-1002", byTier[0].Reference)

	none, err := db.ListBookings(ctx, BookingFilter{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
