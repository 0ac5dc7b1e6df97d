package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightnest/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(path, zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func testBooking(reference string) *models.Booking {
	return &models.Booking{
		Reference:      reference,
		CustomerName:   "Jane Miller",
		CustomerEmail:  "jane@example.com",
		CustomerPhone:  "+1 555 0100",
		ServiceAddress: "12 Oak St, Springfield",
		ServiceType:    "deep",
		Amount:         245,
		Status:         models.StatusPending,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:00",
		RecurringType:  models.RecurringOneTime,
		Selection: models.Selection{
			ServiceType:  "deep",
			Bedrooms:     3,
			Bathrooms:    2,
			OvenCleaning: true,
			OvenCount:    1,
		},
	}
}

func TestCreateOrUpdateCustomer(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	customer := &models.Customer{
		Name:    "Jane Miller",
		Email:   "jane@example.com",
		Phone:   "+1 555 0100",
		Address: "12 Oak St",
	}
	require.NoError(t, db.CreateOrUpdateCustomer(ctx, customer))
	assert.NotZero(t, customer.ID)

	// Same email again: row is reused, not duplicated.
	again := &models.Customer{
		Name:  "Jane M. Miller",
		Email: "jane@example.com",
	}
	require.NoError(t, db.CreateOrUpdateCustomer(ctx, again))
	assert.Equal(t, customer.ID, again.ID)

	stored, err := db.GetCustomerByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane M. Miller", stored.Name)
	// Empty phone on the update must not erase the stored one.
	assert.Equal(t, "+1 555 0100", stored.Phone)
}

func TestGetCustomerByEmail_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetCustomerByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetCustomerStripeID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	customer := &models.Customer{Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, db.CreateOrUpdateCustomer(ctx, customer))

	require.NoError(t, db.SetCustomerStripeID(ctx, "jane@example.com", "cus_123"))

	stored, err := db.GetCustomerByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", stored.StripeCustomerID)

	assert.ErrorIs(t, db.SetCustomerStripeID(ctx, "missing@example.com", "cus_456"), ErrNotFound)
}

func TestCreateOrUpdateCustomer_KeepsFirstStripeID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.Customer{Name: "Jane", Email: "jane@example.com", StripeCustomerID: "cus_first"}
	require.NoError(t, db.CreateOrUpdateCustomer(ctx, first))

	second := &models.Customer{Name: "Jane", Email: "jane@example.com", StripeCustomerID: "cus_second"}
	require.NoError(t, db.CreateOrUpdateCustomer(ctx, second))

	stored, err := db.GetCustomerByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", stored.StripeCustomerID)
	assert.Equal(t, "cus_first", second.StripeCustomerID)
}
