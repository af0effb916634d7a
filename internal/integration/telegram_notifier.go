package integration

import (
	"context"
	"fmt"
	"log"

	"github.com/abelzeko/soilism/internal/entities"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of tgbotapi.BotAPI the notifier needs
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers alerts and status reports to one Telegram chat
type TelegramNotifier struct {
	sender MessageSender
	chatID int64
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(sender MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

// FormatAlert renders a dryness alert as a chat message
func FormatAlert(alert entities.DrynessAlert) string {
	return fmt.Sprintf("⚠️ %s needs water!\n🟫 Soil: %s\n💧 Soil moisture: %d %% (dry at %d %% or below)\n🌡️ Temperature: %.1f °C\n🌫️ Humidity: %.1f %%\n🕒 %s",
		alert.Name, alert.SoilCategory, alert.Reading.SoilMoisture, alert.Threshold,
		alert.Reading.Temperature, alert.Reading.Humidity, alert.Timestamp.Format(emailTimeLayout))
}

// Notify sends the alert to the configured chat
func (n *TelegramNotifier) Notify(ctx context.Context, alert entities.DrynessAlert) error {
	if err := n.send(ctx, FormatAlert(alert)); err != nil {
		return fmt.Errorf("failed to send Telegram alert: %w", err)
	}
	return nil
}

// Report sends a status report to the configured chat
func (n *TelegramNotifier) Report(ctx context.Context, text string) error {
	if err := n.send(ctx, text); err != nil {
		return fmt.Errorf("failed to send Telegram report: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("Sending Telegram message to chat %d", n.chatID)
	_, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text))
	return err
}
