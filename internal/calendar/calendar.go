package calendar

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"brightnest/internal/catalog"
	"brightnest/internal/metrics"
	"brightnest/internal/models"
)

// Service mirrors bookings onto the business Google Calendar through a
// service account. The calendar is a projection of the booking store, never
// the other way around.
type Service struct {
	service    *calendar.Service
	calendarID string
	timezone   string
	catalog    *catalog.Catalog
	policy     RetryPolicy
	logger     *zerolog.Logger
}

func NewService(credentialsFile, calendarID, timezone string, cat *catalog.Catalog, logger *zerolog.Logger) (*Service, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return &Service{
		service:    srv,
		calendarID: calendarID,
		timezone:   timezone,
		catalog:    cat,
		policy:     DefaultRetryPolicy,
		logger:     logger,
	}, nil
}

// CreateEvent inserts a calendar event for the booking and returns its id.
func (s *Service) CreateEvent(ctx context.Context, booking *models.Booking) (string, error) {
	start, end, err := s.eventWindow(booking)
	if err != nil {
		return "", err
	}

	event := &calendar.Event{
		Summary:     eventSummary(booking),
		Description: eventDescription(booking),
		Location:    booking.ServiceAddress,
		Start:       &calendar.EventDateTime{DateTime: start, TimeZone: s.timezone},
		End:         &calendar.EventDateTime{DateTime: end, TimeZone: s.timezone},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"reference":   booking.Reference,
				"serviceType": booking.ServiceType,
				"status":      booking.Status,
			},
		},
	}

	var created *calendar.Event
	err = s.policy.retry(ctx, func() error {
		var callErr error
		created, callErr = s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		metrics.CalendarSyncFailures.Inc()
		return "", fmt.Errorf("inserting calendar event: %v", err)
	}

	s.logger.Info().
		Str("event_id", created.Id).
		Str("reference", booking.Reference).
		Msg("calendar event created")
	return created.Id, nil
}

// UpdateEventStatus rewrites the event title to reflect the booking's
// current status.
func (s *Service) UpdateEventStatus(ctx context.Context, eventID string, booking *models.Booking) error {
	err := s.policy.retry(ctx, func() error {
		event, callErr := s.service.Events.Get(s.calendarID, eventID).Context(ctx).Do()
		if callErr != nil {
			return callErr
		}
		event.Summary = eventSummary(booking)
		event.Description = eventDescription(booking)
		_, callErr = s.service.Events.Update(s.calendarID, eventID, event).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		metrics.CalendarSyncFailures.Inc()
		return fmt.Errorf("updating calendar event %s: %v", eventID, err)
	}
	return nil
}

func (s *Service) eventWindow(booking *models.Booking) (string, string, error) {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return "", "", fmt.Errorf("loading timezone %s: %v", s.timezone, err)
	}

	start, err := time.ParseInLocation("2006-01-02 15:04",
		booking.ScheduledDate+" "+booking.ScheduledTime, loc)
	if err != nil {
		return "", "", fmt.Errorf("parsing schedule of booking %d: %v", booking.ID, err)
	}

	duration := time.Duration(s.catalog.ServiceDuration(booking.ServiceType)) * time.Hour
	end := start.Add(duration)

	return start.Format(time.RFC3339), end.Format(time.RFC3339), nil
}

func eventSummary(booking *models.Booking) string {
	summary := fmt.Sprintf("%s Cleaning - %s", titleCase(booking.ServiceType), booking.CustomerName)
	switch booking.Status {
	case models.StatusPending:
		summary = "[PENDING] " + summary
	case models.StatusCancelled:
		summary = "[CANCELLED] " + summary
	}
	return summary
}

func titleCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ' ' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func eventDescription(booking *models.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking %s\n", booking.Reference)
	fmt.Fprintf(&b, "Customer: %s\n", booking.CustomerName)
	fmt.Fprintf(&b, "Email: %s\n", booking.CustomerEmail)
	if booking.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", booking.CustomerPhone)
	}
	fmt.Fprintf(&b, "Address: %s\n", booking.ServiceAddress)
	fmt.Fprintf(&b, "Service: %s, %d bed / %.1f bath\n",
		booking.ServiceType, booking.Selection.Bedrooms, booking.Selection.Bathrooms)

	if extras := selectedExtras(booking.Selection); len(extras) > 0 {
		fmt.Fprintf(&b, "Add-ons: %s\n", strings.Join(extras, ", "))
	}
	if booking.RecurringType != models.RecurringOneTime && booking.RecurringType != "" {
		fmt.Fprintf(&b, "Plan: %s\n", booking.RecurringType)
	}
	fmt.Fprintf(&b, "Amount: $%.2f\n", booking.Amount)
	if booking.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", booking.Notes)
	}
	return b.String()
}

func selectedExtras(sel models.Selection) []string {
	var extras []string
	if sel.OvenCleaning {
		extras = append(extras, fmt.Sprintf("oven x%d", sel.OvenCount))
	}
	if sel.MicrowaveDishwasherCleaning {
		extras = append(extras, fmt.Sprintf("microwave/dishwasher x%d", sel.MicrowaveDishwasherCount))
	}
	if sel.RefrigeratorCleaning {
		extras = append(extras, fmt.Sprintf("refrigerator x%d", sel.RefrigeratorCount))
	}
	if sel.WallCleaning {
		extras = append(extras, fmt.Sprintf("walls x%d rooms", sel.WallRoomsCount))
	}
	if sel.InteriorWindowCleaning {
		extras = append(extras, "interior windows")
	}
	if sel.ExteriorWindowCleaning {
		extras = append(extras, fmt.Sprintf("exterior windows x%d", sel.ExteriorWindowsCount))
	}
	if sel.LaundryService {
		extras = append(extras, fmt.Sprintf("laundry x%d loads", sel.LaundryLoads))
	}
	if sel.MakeBeds {
		extras = append(extras, fmt.Sprintf("make beds x%d", sel.BedsCount))
	}
	if sel.TrashRemoval {
		extras = append(extras, fmt.Sprintf("trash x%d bags", sel.TrashBags))
	}
	return extras
}
