package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/abelzeko/soilism/internal/api"
	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/integration"
	"github.com/abelzeko/soilism/internal/integration/openai"
	"github.com/abelzeko/soilism/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitoring service",
	Long: `Run the HTTP API and dashboard, read the serial sensor board when enabled,
and deliver dryness alerts through every configured notifier.

Settings are read from the environment and an optional .env file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting Soilism...")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := newRepository(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	var botAPI *tgbotapi.BotAPI
	var sender integration.MessageSender
	if cfg.TelegramBotToken != "" {
		botAPI, err = api.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("Telegram disabled: %v", err)
			botAPI = nil
		} else {
			sender = botAPI
		}
	}

	notifier, reporter := buildNotifiers(cfg, sender)

	var aiService openai.OpenAIService
	if cfg.OpenAIAPIKey != "" {
		aiService, err = openai.NewOpenAIService(cfg.OpenAIAPIKey)
		if err != nil {
			log.Printf("Natural language queries disabled: %v", err)
			aiService = nil
		}
	}

	useCase := usecases.NewPlantUseCase(repo, aiService, reporter)
	engine := usecases.NewIngestionEngine(repo, notifier)
	engine.SetNotifyTimeout(cfg.NotifyTimeout)

	hub := api.NewWebsocketHub()
	engine.AddListener(hub)

	if cfg.DemoPlant {
		if _, err := useCase.AddPlant("Demo Plant", string(entities.SoilLoamy)); err != nil {
			log.Printf("Failed to add demo plant: %v", err)
		}
	}

	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if cfg.SerialEnabled {
		reader := integration.NewSerialReader(integration.OpenSerialPort(cfg.SerialPort, cfg.SerialBaud), engine)
		log.Printf("Reading sensor board on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)
		goRun(func() { reader.Run(ctx) })
	} else {
		log.Println("Serial reader disabled, waiting for HTTP pushes")
	}

	if botAPI != nil {
		bot := api.NewTelegramBot(botAPI, useCase)
		goRun(func() { bot.Start(ctx) })
	}

	if cfg.MDNSEnabled {
		announcer := integration.NewMDNSAnnouncer(cfg.MDNSInstance, cfg.Port, api.IngestPath)
		goRun(func() {
			if err := announcer.Run(ctx); err != nil {
				log.Printf("mDNS announcement failed: %v", err)
			}
		})
	}

	scheduler, err := scheduleReports(ctx, cfg.ReportSchedule, useCase)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	server := api.NewHTTPServer(engine, useCase, hub)
	serveErr := server.Serve(ctx, cfg.Addr())

	stop()
	wg.Wait()
	engine.Wait()
	if serveErr != nil {
		return fmt.Errorf("http server failed: %w", serveErr)
	}
	log.Println("Shutdown complete")
	return nil
}
