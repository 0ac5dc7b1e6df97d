package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brightnest/internal/catalog"
	"brightnest/internal/domain"
	"brightnest/internal/models"
	"brightnest/internal/payments"
	"brightnest/internal/pricing"
)

var (
	ErrMissingContact = errors.New("name and email are required")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrPastDate       = errors.New("scheduled date is in the past")
	ErrInvalidDate    = errors.New("scheduled date must be YYYY-MM-DD")
	ErrInvalidTime    = errors.New("scheduled time must be HH:MM")
	ErrUnknownService = errors.New("unknown service type")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CheckoutService validates a booking request, recomputes the price from the
// catalog and opens the matching Stripe checkout session. The client's idea
// of the total is never trusted.
type CheckoutService struct {
	store   domain.Store
	gateway payments.Gateway
	catalog *catalog.Catalog
	logger  *zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewCheckoutService(store domain.Store, gateway payments.Gateway, cat *catalog.Catalog, logger *zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		store:   store,
		gateway: gateway,
		catalog: cat,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckoutResult is returned to the booking form so it can redirect to the
// hosted payment page.
type CheckoutResult struct {
	SessionID string  `json:"session_id"`
	URL       string  `json:"url"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

// StartCheckout runs the full checkout flow for a validated request.
func (s *CheckoutService) StartCheckout(ctx context.Context, req *models.CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	req.Selection.Normalize()

	quote := pricing.Calculate(s.catalog, req.Selection)
	if quote.Total <= 0 {
		return nil, ErrUnknownService
	}

	// Contact record first so the admin surface sees the customer even if
	// the payment is abandoned.
	customer := &models.Customer{
		Name:    req.Customer.Name,
		Email:   strings.ToLower(req.Customer.Email),
		Phone:   req.Customer.Phone,
		Address: req.Customer.Address,
	}
	if err := s.store.CreateOrUpdateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("saving customer: %w", err)
	}

	stripeCustomerID, err := s.gateway.FindOrCreateCustomer(ctx, req.Customer)
	if err != nil {
		return nil, fmt.Errorf("resolving billing customer: %w", err)
	}
	if err := s.store.SetCustomerStripeID(ctx, customer.Email, stripeCustomerID); err != nil {
		// The id can still be recovered from Stripe by email later.
		s.logger.Warn().Err(err).Str("email", customer.Email).Msg("saving stripe customer id failed")
	}

	reference := NewReference()
	params := payments.CheckoutParams{
		Customer:   req.Customer,
		CustomerID: stripeCustomerID,
		Selection:  req.Selection,
		Amount:     quote.Total,
		Reference:  reference,
	}

	recurring := req.Selection.RecurringType != models.RecurringOneTime
	var sessionID, sessionURL string
	if recurring {
		cs, err := s.gateway.CreateSubscriptionSession(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("opening subscription session: %w", err)
		}
		sessionID, sessionURL = cs.ID, cs.URL
	} else {
		cs, err := s.gateway.CreateOneTimeSession(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("opening checkout session: %w", err)
		}
		sessionID, sessionURL = cs.ID, cs.URL
	}

	s.logger.Info().
		Str("reference", reference).
		Str("session_id", sessionID).
		Str("email", customer.Email).
		Float64("amount", quote.Total).
		Bool("recurring", recurring).
		Msg("checkout session started")

	return &CheckoutResult{
		SessionID: sessionID,
		URL:       sessionURL,
		Reference: reference,
		Amount:    quote.Total,
	}, nil
}

// Quote prices a selection without touching Stripe or the store.
func (s *CheckoutService) Quote(sel models.Selection) pricing.Quote {
	sel.Normalize()
	return pricing.Calculate(s.catalog, sel)
}

func (s *CheckoutService) validate(req *models.CheckoutRequest) error {
	info := req.Customer
	if strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.Email) == "" {
		return ErrMissingContact
	}
	if !emailPattern.MatchString(info.Email) {
		return ErrInvalidEmail
	}

	if _, err := time.Parse("2006-01-02", info.ScheduledDate); err != nil {
		return ErrInvalidDate
	}
	if info.ScheduledDate < s.now().Format("2006-01-02") {
		return ErrPastDate
	}

	if _, err := time.Parse("15:04", info.ScheduledTime); err != nil {
		return ErrInvalidTime
	}

	if s.catalog.Tier(req.Selection.ServiceType) == nil {
		return ErrUnknownService
	}
	return nil
}

// NewReference mints a short public booking reference.
func NewReference() string {
	id := uuid.NewString()
	return "BN-" + strings.ToUpper(id[:8])
}
