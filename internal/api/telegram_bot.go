package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/plants - Show every plant\n" +
	"/plant [id] - Show one plant\n" +
	"/add [soil] [name] - Track a new plant (Sandy, Clay or Loamy)\n" +
	"/delete [id] - Stop tracking a plant\n" +
	"/water [id] - Record a watering\n" +
	"/help - Show this help message\n\n" +
	"You can also just tell me things like \"I watered the fern\"."

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.PlantUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(bot *tgbotapi.BotAPI, useCase *usecases.PlantUseCase) *TelegramBot {
	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
	}
}

// NewBotAPI connects to Telegram with the given token
func NewBotAPI(botToken string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}
	return bot, nil
}

// Start begins listening for and handling Telegram messages until ctx is cancelled
func (t *TelegramBot) Start(ctx context.Context) {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			log.Println("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			log.Printf("Received message from %s: %s", userName(update.Message), update.Message.Text)
			t.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage replies to one Telegram message
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, t.reply(ctx, message))

	log.Printf("Sending response to user %s", userName(message))
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// reply builds the answer text for a message
func (t *TelegramBot) reply(ctx context.Context, message *tgbotapi.Message) string {
	if message.IsCommand() {
		return t.handleCommand(message)
	}
	return t.handleNonCommand(ctx, message)
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(message *tgbotapi.Message) string {
	args := strings.TrimSpace(message.CommandArguments())
	log.Printf("Handling /%s command with args '%s' for user %s", message.Command(), args, userName(message))

	switch message.Command() {
	case "start":
		return "Welcome to Soilism! Use /plants to see your plants or /help for more information."

	case "help":
		return helpText

	case "plants":
		plants, err := t.useCase.ListPlants()
		if err != nil {
			log.Printf("Error fetching plants: %v", err)
			return "Error fetching plants. Please try again later."
		}
		return t.useCase.FormatPlantList(plants)

	case "plant":
		return t.withPlantID(args, "/plant 1", func(id int64) string {
			plant, err := t.useCase.GetPlant(id)
			if err != nil {
				return plantError(id, err)
			}
			return t.useCase.FormatPlantInfo(plant)
		})

	case "add":
		return t.handleAddCommand(args)

	case "delete":
		return t.withPlantID(args, "/delete 1", func(id int64) string {
			if err := t.useCase.DeletePlant(id); err != nil {
				log.Printf("Error deleting plant: %v", err)
				return "Error deleting the plant. Please try again later."
			}
			return fmt.Sprintf("🗑️ Plant #%d is no longer tracked.", id)
		})

	case "water":
		return t.withPlantID(args, "/water 1", func(id int64) string {
			at, err := t.useCase.WaterPlant(id)
			if err != nil {
				return plantError(id, err)
			}
			return fmt.Sprintf("💦 Watering of plant #%d recorded at %s.", id, at.Format(usecases.TimeLayout))
		})

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), userName(message))
		return "Unknown command. Use /help to see available commands."
	}
}

// handleAddCommand processes /add [soil] [name]
func (t *TelegramBot) handleAddCommand(args string) string {
	soil, name, _ := strings.Cut(args, " ")
	name = strings.TrimSpace(name)
	if soil == "" || name == "" {
		return "Please specify a soil type and a name. Example: /add Loamy Fern"
	}

	id, err := t.useCase.AddPlant(name, soil)
	if err != nil {
		log.Printf("Error adding plant: %v", err)
		return "Error adding the plant. Please try again later."
	}
	return fmt.Sprintf("🪴 Now tracking %s (#%d, %s soil).", name, id, usecases.NormalizeSoil(soil))
}

func (t *TelegramBot) withPlantID(args, example string, fn func(id int64) string) string {
	if args == "" {
		return "Please specify a plant id. Example: " + example
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return fmt.Sprintf("'%s' is not a plant id. Use /plants to see the ids.", args)
	}
	return fn(id)
}

// handleNonCommand processes regular messages
func (t *TelegramBot) handleNonCommand(ctx context.Context, message *tgbotapi.Message) string {
	log.Printf("Received non-command message from user %s: %s", userName(message), message.Text)

	response, err := t.useCase.HandleNaturalLanguageQuery(ctx, message.Text)
	if err != nil {
		log.Printf("Error handling natural language query: %v", err)
		return "Sorry, something went wrong. Use /help to see available commands."
	}
	return response
}

func plantError(id int64, err error) string {
	if errors.Is(err, entities.ErrPlantNotFound) {
		return fmt.Sprintf("No plant with id %d. Use /plants to see the available plants.", id)
	}
	log.Printf("Error fetching plant %d: %v", id, err)
	return "Error fetching plant data. Please try again later."
}

func userName(message *tgbotapi.Message) string {
	if message.From == nil {
		return "unknown"
	}
	return message.From.UserName
}
