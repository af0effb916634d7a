package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/integration/openai"
	"github.com/abelzeko/soilism/internal/policy"
	"github.com/abelzeko/soilism/internal/repository"
)

// TimeLayout is the display format for timestamps shown to users
const TimeLayout = "2006-01-02 15:04:05"

// Reporter receives periodic plaintext status reports
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// PlantUseCase handles plant management requested by the transports
type PlantUseCase struct {
	repo          repository.PlantRepository
	openAIService openai.OpenAIService
	reporter      Reporter
	now           func() time.Time
}

// NewPlantUseCase creates a new plant use case. openAIService and reporter may be nil.
func NewPlantUseCase(repo repository.PlantRepository, openAIService openai.OpenAIService, reporter Reporter) *PlantUseCase {
	return &PlantUseCase{
		repo:          repo,
		openAIService: openAIService,
		reporter:      reporter,
		now:           time.Now,
	}
}

// SetClock replaces the time source used for watering timestamps
func (uc *PlantUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// NormalizeSoil maps case variants of known categories onto the canonical name.
// Unknown values are kept as given.
func NormalizeSoil(soil string) entities.SoilCategory {
	soil = strings.TrimSpace(soil)
	for _, known := range entities.KnownSoilCategories {
		if strings.EqualFold(soil, string(known)) {
			return known
		}
	}
	return entities.SoilCategory(soil)
}

// AddPlant creates a plant
func (uc *PlantUseCase) AddPlant(name, soil string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &entities.ValidationError{Field: "name", Value: name, Err: entities.ErrMissingValue}
	}
	category := NormalizeSoil(soil)
	if category == "" {
		return 0, &entities.ValidationError{Field: "soil", Value: soil, Err: entities.ErrMissingValue}
	}

	id, err := uc.repo.CreatePlant(name, category)
	if err != nil {
		return 0, fmt.Errorf("failed to add plant: %w", err)
	}
	log.Printf("Added plant %d: %s (%s)", id, name, category)
	return id, nil
}

// DeletePlant removes a plant. Unknown ids are not an error.
func (uc *PlantUseCase) DeletePlant(id int64) error {
	if err := uc.repo.DeletePlant(id); err != nil {
		return fmt.Errorf("failed to delete plant %d: %w", id, err)
	}
	log.Printf("Deleted plant %d", id)
	return nil
}

// ListPlants returns every tracked plant ordered by id
func (uc *PlantUseCase) ListPlants() ([]entities.Plant, error) {
	return uc.repo.ListPlants()
}

// GetPlant returns one plant
func (uc *PlantUseCase) GetPlant(id int64) (entities.Plant, error) {
	return uc.repo.GetPlant(id)
}

// FindPlantByName returns the first plant whose name matches case-insensitively
func (uc *PlantUseCase) FindPlantByName(name string) (entities.Plant, error) {
	plants, err := uc.repo.ListPlants()
	if err != nil {
		return entities.Plant{}, err
	}
	for _, p := range plants {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return entities.Plant{}, fmt.Errorf("plant %q: %w", name, entities.ErrPlantNotFound)
}

// WaterPlant records a watering event now and returns its timestamp
func (uc *PlantUseCase) WaterPlant(id int64) (time.Time, error) {
	at := uc.now()
	if err := uc.repo.RecordWatering(id, at); err != nil {
		return time.Time{}, err
	}
	log.Printf("Recorded watering for plant %d at %s", id, at.Format(TimeLayout))
	return at, nil
}

// FormatPlantInfo formats one plant for display
func (uc *PlantUseCase) FormatPlantInfo(p entities.Plant) string {
	var result strings.Builder
	status := policy.ClassifySample(p.SoilCategory, p.SensorReading)

	result.WriteString(fmt.Sprintf("🪴 %s (#%d)\n", p.Name, p.ID))
	result.WriteString(fmt.Sprintf("🟫 Soil: %s\n", p.SoilCategory))
	result.WriteString(fmt.Sprintf("🌡️ Temperature: %.1f °C (%s)\n", p.SensorReading.Temperature, status.Temperature))
	result.WriteString(fmt.Sprintf("💧 Soil moisture: %d %% (%s)\n", p.SensorReading.SoilMoisture, status.Moisture))
	result.WriteString(fmt.Sprintf("🌫️ Humidity: %.1f %% (%s)\n", p.SensorReading.Humidity, status.Humidity))

	lastWatered := "Never"
	if p.LastWateredAt != nil {
		lastWatered = p.LastWateredAt.Format(TimeLayout)
	}
	result.WriteString(fmt.Sprintf("🕒 Last watered: %s\n", lastWatered))
	result.WriteString(fmt.Sprintf("📊 Times watered: %d", len(p.WateringHistory)))

	return result.String()
}

// FormatPlantList formats all plants for display
func (uc *PlantUseCase) FormatPlantList(plants []entities.Plant) string {
	if len(plants) == 0 {
		return "No plants are being tracked yet."
	}

	var result strings.Builder
	for i, p := range plants {
		if i > 0 {
			result.WriteString("\n\n")
		}
		result.WriteString(uc.FormatPlantInfo(p))
	}
	return result.String()
}

// StatusReport builds a summary of every plant
func (uc *PlantUseCase) StatusReport() (string, error) {
	plants, err := uc.repo.ListPlants()
	if err != nil {
		return "", fmt.Errorf("failed to list plants: %w", err)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Plant status at %s\n\n", uc.now().Format(TimeLayout)))
	result.WriteString(uc.FormatPlantList(plants))
	return result.String(), nil
}

// ReportStatus logs the status report and hands it to the reporter when one is set
func (uc *PlantUseCase) ReportStatus(ctx context.Context) error {
	report, err := uc.StatusReport()
	if err != nil {
		return err
	}
	log.Printf("Status report:\n%s", report)

	if uc.reporter == nil {
		return nil
	}
	if err := uc.reporter.Report(ctx, report); err != nil {
		return fmt.Errorf("failed to send status report: %w", err)
	}
	return nil
}

// HandleNaturalLanguageQuery interprets a user's free-text message using the AI service
// and returns an appropriate response string.
func (uc *PlantUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.openAIService == nil {
		return "I don't understand. Use /help to see available commands.", nil
	}
	log.Printf("Interpreting natural language query: %s", query)

	plants, err := uc.repo.ListPlants()
	if err != nil {
		log.Printf("Error fetching plants: %v", err)
		return "Sorry, I couldn't fetch the list of plants right now.", nil
	}
	names := make([]string, 0, len(plants))
	for _, p := range plants {
		names = append(names, p.Name)
	}

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, names)
	if err != nil {
		log.Printf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Printf("Agent response: Command='%s', Plant='%s', Message='%s'",
		agentResp.CommandName, agentResp.PlantName, agentResp.UserMessage)

	switch agentResp.CommandName {
	case openai.CommandListPlants:
		return joinMessage(agentResp.UserMessage, uc.FormatPlantList(plants)), nil

	case openai.CommandPlantStatus, openai.CommandWaterPlant:
		if agentResp.PlantName == "" {
			// Agent identified intent but not a plant, e.g. "Which plant?"
			return agentResp.UserMessage, nil
		}
		plant, err := uc.FindPlantByName(agentResp.PlantName)
		if errors.Is(err, entities.ErrPlantNotFound) {
			return joinMessage(agentResp.UserMessage,
				fmt.Sprintf("However, I couldn't find a plant called '%s'. Use /plants to see them all.", agentResp.PlantName)), nil
		}
		if err != nil {
			log.Printf("Error looking up plant after agent interpretation: %v", err)
			return "Sorry, I couldn't fetch that plant right now.", nil
		}

		if agentResp.CommandName == openai.CommandWaterPlant {
			at, err := uc.WaterPlant(plant.ID)
			if err != nil {
				log.Printf("Error recording watering after agent interpretation: %v", err)
				return "Sorry, I couldn't record that watering right now.", nil
			}
			return joinMessage(agentResp.UserMessage,
				fmt.Sprintf("💦 Watering of %s recorded at %s.", plant.Name, at.Format(TimeLayout))), nil
		}
		return joinMessage(agentResp.UserMessage, uc.FormatPlantInfo(plant)), nil

	case openai.CommandGeneralQuery:
		return agentResp.UserMessage, nil

	default:
		log.Printf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}

func joinMessage(prefix, body string) string {
	if prefix == "" {
		return body
	}
	return prefix + "\n\n" + body
}
