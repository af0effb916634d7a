package api

import (
	"context"
	"strings"
	"testing"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/repository"
	"github.com/abelzeko/soilism/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// commandMessage builds a message the way Telegram marks up a leading command
func commandMessage(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 1}}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.Index(text, " "); i >= 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func newTestBot() (*TelegramBot, *repository.MemoryPlantRepository) {
	repo := repository.NewMemoryPlantRepository()
	return NewTelegramBot(nil, usecases.NewPlantUseCase(repo, nil, nil)), repo
}

func TestTelegramCommands(t *testing.T) {
	bot, repo := newTestBot()
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"/start", "Welcome to Soilism"},
		{"/help", "/water [id]"},
		{"/plants", "No plants are being tracked yet."},
		{"/add Loamy", "Please specify a soil type and a name"},
		{"/add loamy Boston Fern", "Now tracking Boston Fern (#1, Loamy soil)"},
		{"/plants", "Boston Fern (#1)"},
		{"/plant 1", "Soil: Loamy"},
		{"/plant", "Please specify a plant id"},
		{"/plant one", "'one' is not a plant id"},
		{"/plant 7", "No plant with id 7"},
		{"/water 1", "Watering of plant #1 recorded"},
		{"/water 7", "No plant with id 7"},
		{"/delete 1", "Plant #1 is no longer tracked"},
		{"/delete 1", "Plant #1 is no longer tracked"},
		{"/frobnicate", "Unknown command"},
	}
	for _, tt := range tests {
		if got := bot.reply(ctx, commandMessage(tt.text)); !strings.Contains(got, tt.want) {
			t.Errorf("%s: got %q, want it to contain %q", tt.text, got, tt.want)
		}
	}

	if plants, _ := repo.ListPlants(); len(plants) != 0 {
		t.Errorf("expected the plant to be deleted, got %+v", plants)
	}
}

func TestTelegramWaterRecordsHistory(t *testing.T) {
	bot, repo := newTestBot()
	id, _ := repo.CreatePlant("Fern", entities.SoilClay)

	bot.reply(context.Background(), commandMessage("/water 1"))
	bot.reply(context.Background(), commandMessage("/water 1"))

	p, _ := repo.GetPlant(id)
	if len(p.WateringHistory) != 2 {
		t.Errorf("expected 2 waterings, got %d", len(p.WateringHistory))
	}
}

func TestTelegramFreeTextWithoutAI(t *testing.T) {
	bot, _ := newTestBot()
	got := bot.reply(context.Background(), commandMessage("how is my fern?"))
	if !strings.Contains(got, "/help") {
		t.Errorf("free text without an interpreter should point at /help, got %q", got)
	}
}
