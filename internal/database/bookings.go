package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"brightnest/internal/models"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint,
// which for bookings means the Stripe session or billing cycle was already
// recorded.
var ErrDuplicate = errors.New("booking already recorded")

const bookingColumns = `
    id, reference, customer_name, customer_email, COALESCE(customer_phone, ''),
    service_address, service_type, amount, status, scheduled_date, scheduled_time,
    COALESCE(notes, ''), recurring_type, COALESCE(recurring_frequency, ''),
    discount_percentage, bedrooms, bathrooms,
    oven_cleaning, oven_count,
    microwave_dishwasher_cleaning, microwave_dishwasher_count,
    refrigerator_cleaning, refrigerator_count,
    wall_cleaning, wall_rooms_count,
    interior_window_cleaning, exterior_window_cleaning, exterior_windows_count,
    laundry_service, laundry_loads, make_beds, beds_count, trash_removal, trash_bags,
    COALESCE(stripe_payment_intent_id, ''), COALESCE(stripe_session_id, ''),
    COALESCE(stripe_subscription_id, ''), COALESCE(calendar_event_id, ''),
    created_at, updated_at
`

// CreateBooking inserts a new visit record and fills in the row id. A
// uniqueness violation on the Stripe session or subscription cycle comes back
// as ErrDuplicate.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
        INSERT INTO bookings (
            reference, customer_name, customer_email, customer_phone,
            service_address, service_type, amount, status, scheduled_date, scheduled_time,
            notes, recurring_type, recurring_frequency, discount_percentage,
            bedrooms, bathrooms,
            oven_cleaning, oven_count,
            microwave_dishwasher_cleaning, microwave_dishwasher_count,
            refrigerator_cleaning, refrigerator_count,
            wall_cleaning, wall_rooms_count,
            interior_window_cleaning, exterior_window_cleaning, exterior_windows_count,
            laundry_service, laundry_loads, make_beds, beds_count, trash_removal, trash_bags,
            stripe_payment_intent_id, stripe_session_id, stripe_subscription_id,
            calendar_event_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	sel := booking.Selection
	result, err := db.db.ExecContext(ctx, query,
		booking.Reference,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.ServiceAddress,
		booking.ServiceType,
		booking.Amount,
		booking.Status,
		booking.ScheduledDate,
		booking.ScheduledTime,
		booking.Notes,
		booking.RecurringType,
		booking.RecurringFrequency,
		booking.DiscountPercentage,
		sel.Bedrooms,
		sel.Bathrooms,
		sel.OvenCleaning,
		sel.OvenCount,
		sel.MicrowaveDishwasherCleaning,
		sel.MicrowaveDishwasherCount,
		sel.RefrigeratorCleaning,
		sel.RefrigeratorCount,
		sel.WallCleaning,
		sel.WallRoomsCount,
		sel.InteriorWindowCleaning,
		sel.ExteriorWindowCleaning,
		sel.ExteriorWindowsCount,
		sel.LaundryService,
		sel.LaundryLoads,
		sel.MakeBeds,
		sel.BedsCount,
		sel.TrashRemoval,
		sel.TrashBags,
		booking.StripePaymentIntentID,
		booking.StripeSessionID,
		booking.StripeSubscriptionID,
		booking.CalendarEventID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	booking.ID = id
	return nil
}

// GetBooking returns a booking by row id or ErrNotFound.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE id = ?`
	return db.queryBooking(ctx, query, id)
}

// GetBookingByReference returns a booking by its public reference.
func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE reference = ?`
	return db.queryBooking(ctx, query, reference)
}

// GetBookingBySessionID returns the booking created from a Stripe checkout
// session.
func (db *DB) GetBookingBySessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE stripe_session_id = ?`
	return db.queryBooking(ctx, query, sessionID)
}

// GetLatestBookingBySubscriptionID returns the most recent visit of a
// recurring plan. Renewal invoices extend the plan from this record's
// scheduled date.
func (db *DB) GetLatestBookingBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `
        FROM bookings WHERE stripe_subscription_id = ?
        ORDER BY scheduled_date DESC, id DESC LIMIT 1`
	return db.queryBooking(ctx, query, subscriptionID)
}

func (db *DB) queryBooking(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	booking, err := scanBooking(db.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateBookingStatus moves a booking to a new lifecycle status.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid booking status %q", status)
	}

	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`

	result, err := db.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBookingPaymentIntent records the payment intent id resolved from the
// completed checkout session.
func (db *DB) SetBookingPaymentIntent(ctx context.Context, id int64, paymentIntentID string) error {
	query := `UPDATE bookings SET stripe_payment_intent_id = ?, updated_at = ? WHERE id = ?`
	_, err := db.db.ExecContext(ctx, query, paymentIntentID, time.Now(), id)
	return err
}

// SetCalendarEventID records the mirrored calendar event for a booking.
func (db *DB) SetCalendarEventID(ctx context.Context, id int64, eventID string) error {
	query := `UPDATE bookings SET calendar_event_id = ?, updated_at = ? WHERE id = ?`
	_, err := db.db.ExecContext(ctx, query, eventID, time.Now(), id)
	return err
}

// BookingFilter narrows ListBookings. Zero values mean no filtering.
type BookingFilter struct {
	Status string
	// Search matches customer name, email, service tier and reference,
	// case-insensitive.
	Search string
}

// ListBookings returns bookings newest first, optionally filtered.
func (db *DB) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings`

	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(service_type) LIKE ? OR LOWER(reference) LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.ServiceAddress,
		&b.ServiceType,
		&b.Amount,
		&b.Status,
		&b.ScheduledDate,
		&b.ScheduledTime,
		&b.Notes,
		&b.RecurringType,
		&b.RecurringFrequency,
		&b.DiscountPercentage,
		&b.Selection.Bedrooms,
		&b.Selection.Bathrooms,
		&b.Selection.OvenCleaning,
		&b.Selection.OvenCount,
		&b.Selection.MicrowaveDishwasherCleaning,
		&b.Selection.MicrowaveDishwasherCount,
		&b.Selection.RefrigeratorCleaning,
		&b.Selection.RefrigeratorCount,
		&b.Selection.WallCleaning,
		&b.Selection.WallRoomsCount,
		&b.Selection.InteriorWindowCleaning,
		&b.Selection.ExteriorWindowCleaning,
		&b.Selection.ExteriorWindowsCount,
		&b.Selection.LaundryService,
		&b.Selection.LaundryLoads,
		&b.Selection.MakeBeds,
		&b.Selection.BedsCount,
		&b.Selection.TrashRemoval,
		&b.Selection.TrashBags,
		&b.StripePaymentIntentID,
		&b.StripeSessionID,
		&b.StripeSubscriptionID,
		&b.CalendarEventID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Selection.ServiceType = b.ServiceType
	b.Selection.RecurringType = b.RecurringType
	return &b, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
