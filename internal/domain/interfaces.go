package domain

import (
	"context"
	"time"

	"brightnest/internal/database"
	"brightnest/internal/models"
)

// Store is the persistence boundary used by the checkout service, the
// reconciler and the admin handlers. *database.DB satisfies it.
type Store interface {
	CreateOrUpdateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	SetCustomerStripeID(ctx context.Context, email, stripeCustomerID string) error

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetBookingBySessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	GetLatestBookingBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	SetBookingPaymentIntent(ctx context.Context, id int64, paymentIntentID string) error
	SetCalendarEventID(ctx context.Context, id int64, eventID string) error
	ListBookings(ctx context.Context, filter database.BookingFilter) ([]models.Booking, error)
}

// CalendarMirror projects bookings onto the business calendar. All calls are
// best-effort: callers log failures and move on.
type CalendarMirror interface {
	CreateEvent(ctx context.Context, booking *models.Booking) (string, error)
	UpdateEventStatus(ctx context.Context, eventID string, booking *models.Booking) error
}

// Notifier delivers best-effort business notifications.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.Booking) error
	BookingStatusChanged(ctx context.Context, booking *models.Booking) error
	ContactMessage(ctx context.Context, name, email, phone, message string) error
}

// SessionRepository stores admin login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, token string, ttl time.Duration) error
	SessionExists(ctx context.Context, token string) (bool, error)
	DeleteSession(ctx context.Context, token string) error
}
