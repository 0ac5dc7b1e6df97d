package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"brightnest/internal/config"
	"brightnest/internal/models"
)

// EmailNotifier sends plain-text confirmations over SMTP. With an empty
// SMTP config it logs the message instead of sending, so local runs work
// without a mail account.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	logger *zerolog.Logger

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg config.SMTPConfig, logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (n *EmailNotifier) configured() bool {
	return n.cfg.Host != "" && n.cfg.Username != "" && n.cfg.Password != ""
}

// BookingCreated mails a confirmation to the customer and a copy to the
// business inbox.
func (n *EmailNotifier) BookingCreated(ctx context.Context, booking *models.Booking) error {
	subject := fmt.Sprintf("Booking confirmed: %s on %s", booking.Reference, booking.ScheduledDate)
	body := bookingBody(booking)

	if err := n.sendMail(booking.CustomerEmail, subject, body); err != nil {
		return err
	}
	if n.cfg.BusinessEmail != "" && n.cfg.BusinessEmail != booking.CustomerEmail {
		return n.sendMail(n.cfg.BusinessEmail, "New booking "+booking.Reference, body)
	}
	return nil
}

// BookingStatusChanged mails the customer about a status transition.
func (n *EmailNotifier) BookingStatusChanged(ctx context.Context, booking *models.Booking) error {
	subject := fmt.Sprintf("Booking %s is now %s", booking.Reference, booking.Status)
	return n.sendMail(booking.CustomerEmail, subject, bookingBody(booking))
}

// ContactMessage forwards a contact-form submission to the business inbox.
func (n *EmailNotifier) ContactMessage(ctx context.Context, name, email, phone, message string) error {
	if n.cfg.BusinessEmail == "" {
		n.logger.Warn().Msg("contact message dropped: no business email configured")
		return nil
	}
	body := fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s\n", safe(name), safe(email), safe(phone), message)
	return n.sendMail(n.cfg.BusinessEmail, "Contact form message from "+safe(name), body)
}

func (n *EmailNotifier) sendMail(to, subject, body string) error {
	if !n.configured() {
		n.logger.Info().Str("to", to).Str("subject", subject).Msg("[mock email]")
		return nil
	}

	from := n.cfg.Username
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.Username)
	}

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + safe(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := n.send(addr, auth, n.cfg.Username, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

func bookingBody(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking reference: %s\n", b.Reference)
	fmt.Fprintf(&sb, "Service: %s cleaning\n", b.ServiceType)
	fmt.Fprintf(&sb, "Date: %s at %s\n", b.ScheduledDate, b.ScheduledTime)
	fmt.Fprintf(&sb, "Address: %s\n", b.ServiceAddress)
	fmt.Fprintf(&sb, "Amount: $%.2f\n", b.Amount)
	fmt.Fprintf(&sb, "Status: %s\n", b.Status)
	if b.RecurringType != "" && b.RecurringType != models.RecurringOneTime {
		fmt.Fprintf(&sb, "Plan: %s (%d%% off)\n", b.RecurringType, b.DiscountPercentage)
	}
	return sb.String()
}

// safe strips header-injection newlines from user input.
func safe(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
