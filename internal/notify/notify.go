package notify

import (
	"context"
	"errors"

	"brightnest/internal/domain"
	"brightnest/internal/models"
)

// Multi fans a notification out to every configured channel. One channel
// failing does not stop the others.
type Multi struct {
	notifiers []domain.Notifier
}

func NewMulti(notifiers ...domain.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) BookingCreated(ctx context.Context, booking *models.Booking) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.BookingCreated(ctx, booking))
	}
	return errors.Join(errs...)
}

func (m *Multi) BookingStatusChanged(ctx context.Context, booking *models.Booking) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.BookingStatusChanged(ctx, booking))
	}
	return errors.Join(errs...)
}

func (m *Multi) ContactMessage(ctx context.Context, name, email, phone, message string) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.ContactMessage(ctx, name, email, phone, message))
	}
	return errors.Join(errs...)
}
