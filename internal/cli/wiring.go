package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/abelzeko/soilism/internal/config"
	"github.com/abelzeko/soilism/internal/integration"
	"github.com/abelzeko/soilism/internal/repository"
	"github.com/abelzeko/soilism/internal/usecases"
	"github.com/robfig/cron/v3"
)

// newRepository opens the plant store selected by cfg
func newRepository(cfg config.Config) (repository.PlantRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		log.Printf("Using SQLite plant store (%s)", cfg.SQLiteDSN)
		return repository.NewSQLitePlantRepository(cfg.SQLiteDSN)
	case config.StoreMemory, "":
		log.Printf("Using in-memory plant store")
		return repository.NewMemoryPlantRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// buildNotifiers combines every configured alert channel. sender may be nil.
// The reporter is nil unless a Telegram chat is configured.
func buildNotifiers(cfg config.Config, sender integration.MessageSender) (usecases.Notifier, usecases.Reporter) {
	var notifiers []integration.AlertNotifier
	var reporter usecases.Reporter

	emailCfg := integration.EmailJSConfig{
		ServiceID:  cfg.EmailJSServiceID,
		TemplateID: cfg.EmailJSTemplateID,
		PublicKey:  cfg.EmailJSPublicKey,
		Endpoint:   cfg.EmailJSEndpoint,
	}
	if emailCfg.Enabled() {
		log.Println("EmailJS alerts enabled")
		notifiers = append(notifiers, integration.NewEmailJSNotifier(emailCfg, nil))
	}

	if sender != nil && cfg.TelegramChatID != 0 {
		log.Printf("Telegram alerts enabled for chat %d", cfg.TelegramChatID)
		telegram := integration.NewTelegramNotifier(sender, cfg.TelegramChatID)
		notifiers = append(notifiers, telegram)
		reporter = telegram
	}

	if len(notifiers) == 0 {
		log.Println("No alert channel configured, alerts will only be logged")
		return integration.LogNotifier{}, reporter
	}
	return integration.NewMultiNotifier(notifiers...), reporter
}

// scheduleReports registers the periodic status report. An empty schedule
// disables it and returns a nil scheduler.
func scheduleReports(ctx context.Context, schedule string, useCase *usecases.PlantUseCase) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := useCase.ReportStatus(ctx); err != nil {
			log.Printf("Scheduled status report failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up status report schedule %q: %w", schedule, err)
	}
	log.Printf("Status report scheduled at %q", schedule)
	return c, nil
}
