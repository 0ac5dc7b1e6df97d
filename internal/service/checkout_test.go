package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"brightnest/internal/catalog"
	"brightnest/internal/database"
	"brightnest/internal/models"
	"brightnest/internal/payments"
)

type fakeGateway struct {
	oneTimeCalls      []payments.CheckoutParams
	subscriptionCalls []payments.CheckoutParams
}

func (f *fakeGateway) FindOrCreateCustomer(ctx context.Context, info models.CustomerInfo) (string, error) {
	return "cus_fake", nil
}

func (f *fakeGateway) CreateOneTimeSession(ctx context.Context, p payments.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.oneTimeCalls = append(f.oneTimeCalls, p)
	return &stripe.CheckoutSession{ID: "cs_one", URL: "https://checkout.stripe.com/cs_one"}, nil
}

func (f *fakeGateway) CreateSubscriptionSession(ctx context.Context, p payments.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.subscriptionCalls = append(f.subscriptionCalls, p)
	return &stripe.CheckoutSession{ID: "cs_sub", URL: "https://checkout.stripe.com/cs_sub"}, nil
}

func (f *fakeGateway) GetSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	return nil, database.ErrNotFound
}

func (f *fakeGateway) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

func setupCheckout(t *testing.T) (*CheckoutService, *fakeGateway, *database.DB) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gw := &fakeGateway{}
	logger := zerolog.Nop()
	svc := NewCheckoutService(db, gw, catalog.Default(), &logger)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, gw, db
}

func validRequest() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		Customer: models.CustomerInfo{
			Name:          "Jane Miller",
			Email:         "Jane@Example.com",
			Phone:         "+1 555 0100",
			Address:       "12 Oak St",
			ScheduledDate: "2026-09-15",
			ScheduledTime: "10:00",
		},
		Selection: models.Selection{
			ServiceType: "regular",
			Bedrooms:    3,
			Bathrooms:   2,
		},
	}
}

func TestStartCheckout_OneTime(t *testing.T) {
	svc, gw, db := setupCheckout(t)
	ctx := context.Background()

	result, err := svc.StartCheckout(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "cs_one", result.SessionID)
	assert.NotEmpty(t, result.URL)
	assert.NotEmpty(t, result.Reference)
	// 90 base + 2 extra bedrooms + 1 extra bathroom, rounded half-up.
	assert.Equal(t, 243.0, result.Amount)
	require.Len(t, gw.oneTimeCalls, 1)
	assert.Empty(t, gw.subscriptionCalls)
	assert.Equal(t, result.Amount, gw.oneTimeCalls[0].Amount)

	// Customer row is saved with the email lowercased and carries the
	// resolved Stripe customer id.
	customer, err := db.GetCustomerByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Miller", customer.Name)
	assert.Equal(t, "cus_fake", customer.StripeCustomerID)
	assert.Equal(t, "cus_fake", gw.oneTimeCalls[0].CustomerID)
}

func TestStartCheckout_Recurring(t *testing.T) {
	svc, gw, _ := setupCheckout(t)

	req := validRequest()
	req.Selection.RecurringType = models.RecurringWeekly

	result, err := svc.StartCheckout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "cs_sub", result.SessionID)
	require.Len(t, gw.subscriptionCalls, 1)
	assert.Empty(t, gw.oneTimeCalls)
	// Weekly plan carries the 10% discount.
	assert.Equal(t, 218.0, result.Amount)
}

func TestStartCheckout_Validation(t *testing.T) {
	svc, _, _ := setupCheckout(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*models.CheckoutRequest)
		wantErr error
	}{
		{"no name", func(r *models.CheckoutRequest) { r.Customer.Name = "" }, ErrMissingContact},
		{"no email", func(r *models.CheckoutRequest) { r.Customer.Email = "  " }, ErrMissingContact},
		{"bad email", func(r *models.CheckoutRequest) { r.Customer.Email = "not-an-email" }, ErrInvalidEmail},
		{"bad date", func(r *models.CheckoutRequest) { r.Customer.ScheduledDate = "15/09/2026" }, ErrInvalidDate},
		{"past date", func(r *models.CheckoutRequest) { r.Customer.ScheduledDate = "2026-08-31" }, ErrPastDate},
		{"bad time", func(r *models.CheckoutRequest) { r.Customer.ScheduledTime = "10am" }, ErrInvalidTime},
		{"unknown tier", func(r *models.CheckoutRequest) { r.Selection.ServiceType = "carpet" }, ErrUnknownService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := svc.StartCheckout(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStartCheckout_TodayAllowed(t *testing.T) {
	svc, _, _ := setupCheckout(t)

	req := validRequest()
	req.Customer.ScheduledDate = "2026-09-01"

	_, err := svc.StartCheckout(context.Background(), req)
	assert.NoError(t, err)
}

func TestQuote(t *testing.T) {
	svc, _, _ := setupCheckout(t)

	quote := svc.Quote(models.Selection{
		ServiceType: "deep",
		Bedrooms:    1,
		Bathrooms:   1,
	})
	assert.Equal(t, 185.0, quote.Total)
}

func TestNewReference(t *testing.T) {
	a := NewReference()
	b := NewReference()

	assert.Len(t, a, 11)
	assert.Contains(t, a, "BN-")
	assert.NotEqual(t, a, b)
}
