package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightnest/internal/catalog"
	"brightnest/internal/models"
)

func TestEventWindow(t *testing.T) {
	s := &Service{timezone: "America/New_York", catalog: catalog.Default()}

	booking := &models.Booking{
		ServiceType:   "deep",
		ScheduledDate: "2026-09-15",
		ScheduledTime: "10:00",
	}

	start, end, err := s.eventWindow(booking)
	require.NoError(t, err)
	assert.Contains(t, start, "2026-09-15T10:00:00")

	startT, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	endT, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	hours := catalog.Default().ServiceDuration("deep")
	assert.Equal(t, time.Duration(hours)*time.Hour, endT.Sub(startT))
}

func TestEventWindow_BadSchedule(t *testing.T) {
	s := &Service{timezone: "America/New_York", catalog: catalog.Default()}

	_, _, err := s.eventWindow(&models.Booking{
		ServiceType:   "deep",
		ScheduledDate: "15/09/2026",
		ScheduledTime: "10:00",
	})
	assert.Error(t, err)
}

func TestEventSummary(t *testing.T) {
	booking := &models.Booking{
		ServiceType:  "move-in",
		CustomerName: "Jane Miller",
		Status:       models.StatusConfirmed,
	}
	assert.Equal(t, "Move In Cleaning - Jane Miller", eventSummary(booking))

	booking.Status = models.StatusCancelled
	assert.Equal(t, "[CANCELLED] Move In Cleaning - Jane Miller", eventSummary(booking))

	booking.Status = models.StatusPending
	assert.Equal(t, "[PENDING] Move In Cleaning - Jane Miller", eventSummary(booking))
}

func TestEventDescription(t *testing.T) {
	booking := &models.Booking{
		Reference:      "BN-TEST0001",
		CustomerName:   "Jane Miller",
		CustomerEmail:  "jane@example.com",
		ServiceAddress: "12 Oak St",
		ServiceType:    "deep",
		Amount:         245,
		RecurringType:  models.RecurringWeekly,
		Notes:          "gate code 4411",
		Selection: models.Selection{
			Bedrooms:       3,
			Bathrooms:      2,
			OvenCleaning:   true,
			OvenCount:      1,
			LaundryService: true,
			LaundryLoads:   2,
		},
	}

	desc := eventDescription(booking)
	assert.Contains(t, desc, "BN-TEST0001")
	assert.Contains(t, desc, "jane@example.com")
	assert.Contains(t, desc, "oven x1")
	assert.Contains(t, desc, "laundry x2 loads")
	assert.Contains(t, desc, "Plan: weekly")
	assert.Contains(t, desc, "$245.00")
	assert.Contains(t, desc, "gate code 4411")
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, 100*time.Millisecond, policy.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, policy.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, policy.NextDelay(3))
	// Clamped at MaxDelay.
	assert.Equal(t, time.Second, policy.NextDelay(10))
	// Attempt below 1 is treated as the first.
	assert.Equal(t, 100*time.Millisecond, policy.NextDelay(0))
}

func TestRetry_StopsAfterBudget(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := policy.retry(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_SucceedsMidway(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := policy.retry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: 50 * time.Millisecond, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.retry(ctx, func() error { return errors.New("boom") })
	assert.ErrorIs(t, err, context.Canceled)
}
