package models

import "time"

// Booking is a persisted service visit. Customer contact fields are a
// snapshot taken at checkout time, not a foreign key: later contact changes
// must not rewrite history.
type Booking struct {
	ID             int64  `json:"id"`
	Reference      string `json:"reference"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone"`
	ServiceAddress string `json:"service_address"`

	ServiceType        string  `json:"service_type"`
	Amount             float64 `json:"amount"`
	Status             string  `json:"status"`         // pending, confirmed, completed, cancelled
	ScheduledDate      string  `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime      string  `json:"scheduled_time"` // HH:MM
	Notes              string  `json:"notes"`
	RecurringType      string  `json:"recurring_type"`
	RecurringFrequency string  `json:"recurring_frequency"`
	DiscountPercentage int     `json:"discount_percentage"`

	Selection Selection `json:"selection"`

	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`
	StripeSessionID       string `json:"stripe_session_id,omitempty"`
	StripeSubscriptionID  string `json:"stripe_subscription_id,omitempty"`
	CalendarEventID       string `json:"calendar_event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is the deduplicated contact record. Bookings keep their own
// snapshot; this row exists for Stripe customer reuse and admin lookup.
type Customer struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CheckoutRequest is the inbound payload of the checkout endpoint.
type CheckoutRequest struct {
	Customer  CustomerInfo `json:"customer"`
	Selection Selection    `json:"selection"`
}

// CustomerInfo carries contact and schedule fields collected by the booking
// form.
type CustomerInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Notes         string `json:"notes"`
}
