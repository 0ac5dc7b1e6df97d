package payments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/webhook"

	"brightnest/internal/catalog"
	"brightnest/internal/config"
	"brightnest/internal/models"
)

// CheckoutParams carries everything the gateway needs to open a hosted
// checkout session. Amount is already the final quoted total. CustomerID is
// the resolved Stripe customer; when empty the gateway resolves one itself.
type CheckoutParams struct {
	Customer   models.CustomerInfo
	CustomerID string
	Selection  models.Selection
	Amount     float64
	Reference  string
}

// Gateway is the payment-provider boundary. The reconciler and checkout
// service depend on this interface so tests can run without Stripe.
type Gateway interface {
	FindOrCreateCustomer(ctx context.Context, info models.CustomerInfo) (string, error)
	CreateOneTimeSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error)
	CreateSubscriptionSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

// StripeGateway talks to the real Stripe API.
type StripeGateway struct {
	cfg     config.StripeConfig
	baseURL string
	catalog *catalog.Catalog
	log     zerolog.Logger
}

func NewStripeGateway(cfg config.StripeConfig, baseURL string, cat *catalog.Catalog, log zerolog.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg, baseURL: baseURL, catalog: cat, log: log}
}

// FindOrCreateCustomer reuses an existing Stripe customer by email or
// creates one.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, info models.CustomerInfo) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(info.Email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("listing customers: %w", err)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(info.Email),
		Name:  stripe.String(info.Name),
		Phone: stripe.String(info.Phone),
	}
	createParams.Context = ctx

	cust, err := customer.New(createParams)
	if err != nil {
		return "", fmt.Errorf("creating customer: %w", err)
	}

	g.log.Info().Str("customer_id", cust.ID).Str("email", info.Email).Msg("stripe customer created")
	return cust.ID, nil
}

// CreateOneTimeSession opens a payment-mode checkout session for a single
// visit.
func (g *StripeGateway) CreateOneTimeSession(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	customerID := p.CustomerID
	if customerID == "" {
		var err error
		customerID, err = g.FindOrCreateCustomer(ctx, p.Customer)
		if err != nil {
			return nil, err
		}
	}

	metadata := EncodeMetadata(p.Customer, p.Selection, p.Amount)
	metadata["reference"] = p.Reference

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(toMinorUnits(p.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(g.lineItemName(p.Selection)),
						Description: stripe.String(lineItemDescription(p)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.baseURL + g.cfg.SuccessPath),
		CancelURL:  stripe.String(g.baseURL + g.cfg.CancelPath),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	params.Metadata = metadata

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	g.log.Info().Str("session_id", sess.ID).Str("reference", p.Reference).Msg("one-time checkout session created")
	return sess, nil
}

// CreateSubscriptionSession opens a subscription-mode checkout session for a
// weekly or biweekly plan. The metadata is attached to the subscription as
// well, so renewal invoices can rebuild the booking context.
func (g *StripeGateway) CreateSubscriptionSession(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	interval, intervalCount, err := recurringInterval(p.Selection.RecurringType)
	if err != nil {
		return nil, err
	}

	customerID := p.CustomerID
	if customerID == "" {
		customerID, err = g.FindOrCreateCustomer(ctx, p.Customer)
		if err != nil {
			return nil, err
		}
	}

	metadata := EncodeMetadata(p.Customer, p.Selection, p.Amount)
	metadata["reference"] = p.Reference

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(toMinorUnits(p.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(g.lineItemName(p.Selection)),
						Description: stripe.String(lineItemDescription(p)),
					},
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval:      stripe.String(interval),
						IntervalCount: stripe.Int64(intervalCount),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.baseURL + g.cfg.SuccessPath),
		CancelURL:  stripe.String(g.baseURL + g.cfg.CancelPath),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	params.Metadata = metadata

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating subscription session: %w", err)
	}

	g.log.Info().Str("session_id", sess.ID).Str("reference", p.Reference).
		Str("recurring_type", p.Selection.RecurringType).Msg("subscription checkout session created")
	return sess, nil
}

// GetSession fetches a checkout session with its customer and subscription
// expanded.
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")
	params.AddExpand("subscription")
	params.AddExpand("payment_intent")

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("fetching session %s: %w", sessionID, err)
	}
	return sess, nil
}

// VerifyWebhook checks the Stripe signature and parses the event. No payload
// content is trusted before this passes.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verifying webhook signature: %w", err)
	}
	return event, nil
}

func (g *StripeGateway) lineItemName(sel models.Selection) string {
	if tier := g.catalog.Tier(sel.ServiceType); tier != nil {
		return tier.Name
	}
	return "House Cleaning"
}

func lineItemDescription(p CheckoutParams) string {
	desc := fmt.Sprintf("%d bed / %.1f bath on %s at %s",
		p.Selection.Bedrooms, p.Selection.Bathrooms,
		p.Customer.ScheduledDate, p.Customer.ScheduledTime)
	if p.Selection.RecurringType != models.RecurringOneTime && p.Selection.RecurringType != "" {
		desc += fmt.Sprintf(" (%s plan)", p.Selection.RecurringType)
	}
	return desc
}

func recurringInterval(recurringType string) (string, int64, error) {
	switch recurringType {
	case models.RecurringWeekly:
		return "week", 1, nil
	case models.RecurringBiweekly:
		return "week", 2, nil
	default:
		return "", 0, fmt.Errorf("recurring type %q has no billing interval", recurringType)
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
