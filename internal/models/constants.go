package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	RecurringOneTime  = "one-time"
	RecurringWeekly   = "weekly"
	RecurringBiweekly = "biweekly"
)

const (
	// WeeklyIntervalDays interval between recurring weekly visits
	WeeklyIntervalDays = 7

	// BiweeklyIntervalDays interval between recurring biweekly visits
	BiweeklyIntervalDays = 14

	// DefaultSessionTTL lifetime of an admin session in Redis, seconds
	DefaultSessionTTL = 30 * 24 * 60 * 60

	// AdminSessionCookie name of the admin auth cookie
	AdminSessionCookie = "admin_session"

	// LoginRateLimitRPS allowed admin login attempts per second per client
	LoginRateLimitRPS = 1

	// LoginRateLimitBurst burst for admin login attempts
	LoginRateLimitBurst = 5
)

// ValidStatus reports whether s is one of the four booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// RecurringIntervalDays returns the fixed cycle length for a recurrence type,
// or 0 for one-time bookings.
func RecurringIntervalDays(recurringType string) int {
	switch recurringType {
	case RecurringWeekly:
		return WeeklyIntervalDays
	case RecurringBiweekly:
		return BiweeklyIntervalDays
	}
	return 0
}
