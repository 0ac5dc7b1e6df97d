package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"

	"brightnest/internal/catalog"
	"brightnest/internal/database"
	"brightnest/internal/domain"
	"brightnest/internal/metrics"
	"brightnest/internal/models"
	"brightnest/internal/payments"
	"brightnest/internal/service"
)

// Reconciler turns verified Stripe events into booking records. Event
// delivery is at-least-once, so every handler must tolerate replays: the
// store's uniqueness constraints make duplicate creates a logged no-op.
type Reconciler struct {
	store    domain.Store
	gateway  payments.Gateway
	calendar domain.CalendarMirror
	notifier domain.Notifier
	catalog  *catalog.Catalog
	logger   *zerolog.Logger
}

func New(store domain.Store, gateway payments.Gateway, calendar domain.CalendarMirror, notifier domain.Notifier, cat *catalog.Catalog, logger *zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		gateway:  gateway,
		calendar: calendar,
		notifier: notifier,
		catalog:  cat,
		logger:   logger,
	}
}

// HandleEvent dispatches a verified webhook event. Unknown event types are
// logged and acknowledged so Stripe stops retrying them.
func (r *Reconciler) HandleEvent(ctx context.Context, event stripe.Event) error {
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed":
		return r.handleSessionCompleted(ctx, event)
	case "customer.subscription.created":
		return r.handleSubscriptionCreated(ctx, event)
	case "invoice.payment_succeeded":
		return r.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return r.handleInvoiceFailed(ctx, event)
	case "customer.subscription.updated":
		return r.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return r.handleSubscriptionDeleted(ctx, event)
	default:
		r.logger.Debug().Str("type", string(event.Type)).Msg("ignoring webhook event")
		return nil
	}
}

func (r *Reconciler) handleSessionCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("unmarshaling checkout session: %w", err)
	}

	// Subscription-mode sessions are recorded by the subscription.created
	// event, which carries the metadata on the subscription itself.
	if sess.Mode == stripe.CheckoutSessionModeSubscription {
		r.logger.Debug().Str("session_id", sess.ID).Msg("subscription session completed, waiting for subscription event")
		return nil
	}

	bc, err := payments.DecodeMetadata(sess.Metadata)
	if err != nil {
		return fmt.Errorf("session %s metadata: %w", sess.ID, err)
	}

	booking := r.bookingFromContext(bc, sess.Metadata["reference"])
	booking.Status = models.StatusConfirmed
	booking.StripeSessionID = sess.ID
	if sess.PaymentIntent != nil {
		booking.StripePaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.AmountTotal > 0 {
		// The charged amount wins over the quoted one.
		booking.Amount = float64(sess.AmountTotal) / 100
	}

	return r.recordBooking(ctx, booking, "checkout session")
}

func (r *Reconciler) handleSubscriptionCreated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshaling subscription: %w", err)
	}

	bc, err := payments.DecodeMetadata(sub.Metadata)
	if err != nil {
		return fmt.Errorf("subscription %s metadata: %w", sub.ID, err)
	}
	if bc.Customer.Email == "" {
		r.logger.Warn().Str("subscription_id", sub.ID).Msg("subscription without booking metadata, skipping")
		return nil
	}

	booking := r.bookingFromContext(bc, "")
	booking.Status = models.StatusConfirmed
	booking.StripeSubscriptionID = sub.ID
	booking.RecurringFrequency = bc.Selection.RecurringType

	return r.recordBooking(ctx, booking, "subscription created")
}

func (r *Reconciler) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("unmarshaling invoice: %w", err)
	}

	// The first invoice of a subscription bills the visit already recorded
	// by the subscription.created handler.
	if inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
		return nil
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}

	prior, err := r.store.GetLatestBookingBySubscriptionID(ctx, inv.Subscription.ID)
	if errors.Is(err, database.ErrNotFound) {
		r.logger.Warn().Str("subscription_id", inv.Subscription.ID).Msg("renewal invoice for unknown subscription")
		return nil
	}
	if err != nil {
		return err
	}

	nextDate, err := nextVisitDate(prior.ScheduledDate, prior.RecurringType)
	if err != nil {
		return fmt.Errorf("booking %d: %w", prior.ID, err)
	}

	// Prior visits are history: the renewal gets a fresh record.
	next := *prior
	next.ID = 0
	next.Reference = service.NewReference()
	next.Status = models.StatusConfirmed
	next.ScheduledDate = nextDate
	next.StripeSessionID = ""
	next.StripePaymentIntentID = ""
	next.CalendarEventID = ""

	return r.recordBooking(ctx, &next, "renewal invoice")
}

func (r *Reconciler) handleInvoiceFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("unmarshaling invoice: %w", err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}

	return r.demoteLatest(ctx, inv.Subscription.ID, models.StatusPending, "invoice payment failed")
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshaling subscription: %w", err)
	}

	switch sub.Status {
	case stripe.SubscriptionStatusCanceled:
		return r.demoteLatest(ctx, sub.ID, models.StatusCancelled, "subscription canceled")
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return r.demoteLatest(ctx, sub.ID, models.StatusPending, "subscription past due")
	default:
		return nil
	}
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshaling subscription: %w", err)
	}

	return r.demoteLatest(ctx, sub.ID, models.StatusCancelled, "subscription deleted")
}

// ReconcileSession is the fallback for a completed checkout whose webhook
// never arrived: the success page posts the session id and the record is
// rebuilt from the session itself.
func (r *Reconciler) ReconcileSession(ctx context.Context, sessionID string) (*models.Booking, error) {
	if existing, err := r.store.GetBookingBySessionID(ctx, sessionID); err == nil {
		r.backfillPaymentIntent(ctx, existing)
		return existing, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	sess, err := r.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, fmt.Errorf("session %s is not paid", sessionID)
	}

	bc, err := payments.DecodeMetadata(sess.Metadata)
	if err != nil {
		return nil, fmt.Errorf("session %s metadata: %w", sessionID, err)
	}

	booking := r.bookingFromContext(bc, sess.Metadata["reference"])
	booking.Status = models.StatusConfirmed
	booking.StripeSessionID = sess.ID
	if sess.PaymentIntent != nil {
		booking.StripePaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Subscription != nil {
		booking.StripeSubscriptionID = sess.Subscription.ID
	}
	if sess.AmountTotal > 0 {
		booking.Amount = float64(sess.AmountTotal) / 100
	}

	if err := r.recordBooking(ctx, booking, "session reconcile"); err != nil {
		return nil, err
	}
	if booking.ID == 0 {
		// Lost a race with the webhook; return the stored record.
		return r.store.GetBookingBySessionID(ctx, sessionID)
	}
	return booking, nil
}

// backfillPaymentIntent fills a missing payment intent id from the live
// session. Bookings created from a subscription event have none until the
// success page reconciles.
func (r *Reconciler) backfillPaymentIntent(ctx context.Context, booking *models.Booking) {
	if booking.StripePaymentIntentID != "" {
		return
	}

	sess, err := r.gateway.GetSession(ctx, booking.StripeSessionID)
	if err != nil || sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return
	}

	if err := r.store.SetBookingPaymentIntent(ctx, booking.ID, sess.PaymentIntent.ID); err != nil {
		r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("saving payment intent id failed")
		return
	}
	booking.StripePaymentIntentID = sess.PaymentIntent.ID
}

// recordBooking persists the record and mirrors it outward. A duplicate is a
// replay, not an error. Calendar and notification failures never fail the
// reconcile: the payment already happened.
func (r *Reconciler) recordBooking(ctx context.Context, booking *models.Booking, source string) error {
	err := r.store.CreateBooking(ctx, booking)
	if errors.Is(err, database.ErrDuplicate) {
		r.logger.Info().
			Str("source", source).
			Str("session_id", booking.StripeSessionID).
			Str("subscription_id", booking.StripeSubscriptionID).
			Msg("booking already recorded, skipping replay")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recording booking from %s: %w", source, err)
	}

	metrics.BookingsCreatedTotal.WithLabelValues(booking.RecurringType).Inc()
	r.logger.Info().
		Int64("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Str("source", source).
		Str("scheduled_date", booking.ScheduledDate).
		Msg("booking recorded")

	r.mirrorBooking(ctx, booking)
	r.notifyCreated(ctx, booking)
	return nil
}

func (r *Reconciler) mirrorBooking(ctx context.Context, booking *models.Booking) {
	if r.calendar == nil {
		return
	}
	eventID, err := r.calendar.CreateEvent(ctx, booking)
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("calendar mirror failed")
		return
	}
	if err := r.store.SetCalendarEventID(ctx, booking.ID, eventID); err != nil {
		r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("saving calendar event id failed")
		return
	}
	booking.CalendarEventID = eventID
}

func (r *Reconciler) notifyCreated(ctx context.Context, booking *models.Booking) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.BookingCreated(ctx, booking); err != nil {
		r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("booking notification failed")
	}
}

func (r *Reconciler) demoteLatest(ctx context.Context, subscriptionID, status, reason string) error {
	booking, err := r.store.GetLatestBookingBySubscriptionID(ctx, subscriptionID)
	if errors.Is(err, database.ErrNotFound) {
		r.logger.Warn().Str("subscription_id", subscriptionID).Str("reason", reason).Msg("no booking for subscription")
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.UpdateBookingStatus(ctx, booking.ID, status); err != nil {
		return err
	}
	booking.Status = status
	r.logger.Info().
		Int64("booking_id", booking.ID).
		Str("status", status).
		Str("reason", reason).
		Msg("booking status updated")

	r.SyncBookingStatus(ctx, booking)
	return nil
}

// SyncBookingStatus mirrors a status change to the calendar and the
// notification channels. Best-effort: failures are logged, never returned.
func (r *Reconciler) SyncBookingStatus(ctx context.Context, booking *models.Booking) {
	if r.calendar != nil && booking.CalendarEventID != "" {
		if err := r.calendar.UpdateEventStatus(ctx, booking.CalendarEventID, booking); err != nil {
			r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("calendar status update failed")
		}
	}
	if r.notifier != nil {
		if err := r.notifier.BookingStatusChanged(ctx, booking); err != nil {
			r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("status notification failed")
		}
	}
}

func (r *Reconciler) bookingFromContext(bc payments.BookingContext, reference string) *models.Booking {
	if reference == "" {
		reference = service.NewReference()
	}
	discount := 0
	if plan := r.catalog.Plan(bc.Selection.RecurringType); plan != nil {
		discount = plan.DiscountPercent
	}
	return &models.Booking{
		Reference:          reference,
		CustomerName:       bc.Customer.Name,
		CustomerEmail:      bc.Customer.Email,
		CustomerPhone:      bc.Customer.Phone,
		ServiceAddress:     bc.Customer.Address,
		ServiceType:        bc.Selection.ServiceType,
		Amount:             bc.Amount,
		ScheduledDate:      bc.Customer.ScheduledDate,
		ScheduledTime:      bc.Customer.ScheduledTime,
		Notes:              bc.Customer.Notes,
		RecurringType:      bc.Selection.RecurringType,
		DiscountPercentage: discount,
		Selection:          bc.Selection,
	}
}

func nextVisitDate(date, recurringType string) (string, error) {
	days := models.RecurringIntervalDays(recurringType)
	if days == 0 {
		return "", fmt.Errorf("recurring type %q has no interval", recurringType)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return parsed.AddDate(0, 0, days).Format("2006-01-02"), nil
}
