package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightnest/internal/config"
	"brightnest/internal/models"
)

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:          "smtp.example.com",
		Port:          587,
		Username:      "bookings@example.com",
		Password:      "secret",
		FromName:      "BrightNest",
		BusinessEmail: "office@example.com",
	}
}

type sentMail struct {
	to  []string
	msg string
}

func captureEmail(n *EmailNotifier) *[]sentMail {
	var sent []sentMail
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{to: to, msg: string(msg)})
		return nil
	}
	return &sent
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		Reference:          "BN-TEST0001",
		CustomerName:       "Jane Miller",
		CustomerEmail:      "jane@example.com",
		ServiceAddress:     "12 Oak St",
		ServiceType:        "deep",
		Amount:             245,
		Status:             models.StatusConfirmed,
		ScheduledDate:      "2026-09-15",
		ScheduledTime:      "10:00",
		RecurringType:      models.RecurringWeekly,
		DiscountPercentage: 10,
	}
}

func TestEmailBookingCreated(t *testing.T) {
	logger := zerolog.Nop()
	n := NewEmailNotifier(smtpConfig(), &logger)
	sent := captureEmail(n)

	require.NoError(t, n.BookingCreated(context.Background(), sampleBooking()))

	require.Len(t, *sent, 2)
	assert.Equal(t, []string{"jane@example.com"}, (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "BN-TEST0001")
	assert.Contains(t, (*sent)[0].msg, "weekly (10% off)")
	assert.Equal(t, []string{"office@example.com"}, (*sent)[1].to)
}

func TestEmailUnconfiguredIsMock(t *testing.T) {
	logger := zerolog.Nop()
	n := NewEmailNotifier(config.SMTPConfig{}, &logger)
	sent := captureEmail(n)

	require.NoError(t, n.BookingCreated(context.Background(), sampleBooking()))
	assert.Empty(t, *sent)
}

func TestEmailContactMessage_StripsHeaderInjection(t *testing.T) {
	logger := zerolog.Nop()
	n := NewEmailNotifier(smtpConfig(), &logger)
	sent := captureEmail(n)

	require.NoError(t, n.ContactMessage(context.Background(),
		"Eve\r\nBcc: victim@example.com", "eve@example.com", "", "hello"))

	require.Len(t, *sent, 1)
	assert.NotContains(t, (*sent)[0].msg, "Bcc: victim@example.com")
}

func TestEmailSendFailure(t *testing.T) {
	logger := zerolog.Nop()
	n := NewEmailNotifier(smtpConfig(), &logger)
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := n.BookingCreated(context.Background(), sampleBooking())
	assert.Error(t, err)
}

type fakeBot struct {
	sent []string
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramBookingCreated(t *testing.T) {
	logger := zerolog.Nop()
	bot := &fakeBot{}
	n := &TelegramNotifier{bot: bot, chatID: 42, logger: &logger}

	require.NoError(t, n.BookingCreated(context.Background(), sampleBooking()))

	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0], "BN-TEST0001")
	assert.Contains(t, bot.sent[0], "$245.00")
}

func TestMultiContinuesOnFailure(t *testing.T) {
	logger := zerolog.Nop()

	failing := &TelegramNotifier{bot: &fakeBot{err: errors.New("telegram down")}, chatID: 1, logger: &logger}
	email := NewEmailNotifier(smtpConfig(), &logger)
	sent := captureEmail(email)

	m := NewMulti(failing, email)
	err := m.BookingCreated(context.Background(), sampleBooking())

	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "telegram"))
	// Email still went out.
	assert.NotEmpty(t, *sent)
}
