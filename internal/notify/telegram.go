package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"brightnest/internal/models"
)

// telegramSender is the slice of the bot API the notifier uses.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes booking updates to the manager chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) BookingCreated(ctx context.Context, booking *models.Booking) error {
	text := fmt.Sprintf(
		"New booking %s\n%s cleaning on %s at %s\n%s\n%s\n$%.2f",
		booking.Reference,
		booking.ServiceType,
		booking.ScheduledDate,
		booking.ScheduledTime,
		booking.CustomerName,
		booking.ServiceAddress,
		booking.Amount,
	)
	return n.sendText(text)
}

func (n *TelegramNotifier) BookingStatusChanged(ctx context.Context, booking *models.Booking) error {
	text := fmt.Sprintf("Booking %s (%s, %s) is now %s",
		booking.Reference, booking.CustomerName, booking.ScheduledDate, booking.Status)
	return n.sendText(text)
}

func (n *TelegramNotifier) ContactMessage(ctx context.Context, name, email, phone, message string) error {
	text := fmt.Sprintf("Contact form\nFrom: %s <%s> %s\n\n%s", name, email, phone, message)
	return n.sendText(text)
}

func (n *TelegramNotifier) sendText(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
