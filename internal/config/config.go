// Package config loads service settings from the environment
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds every setting of the serve command
type Config struct {
	Port int

	SerialEnabled bool
	SerialPort    string
	SerialBaud    int

	StoreDriver string
	SQLiteDSN   string

	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSEndpoint   string
	NotifyTimeout     time.Duration

	TelegramBotToken string
	TelegramChatID   int64

	OpenAIAPIKey string

	ReportSchedule string

	MDNSEnabled  bool
	MDNSInstance string

	DemoPlant bool
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Port:           5000,
		SerialEnabled:  true,
		SerialPort:     "/dev/ttyACM0",
		SerialBaud:     9600,
		StoreDriver:    StoreMemory,
		SQLiteDSN:      ":memory:",
		NotifyTimeout:  10 * time.Second,
		ReportSchedule: "0 * * * *",
		MDNSInstance:   "soilism",
		DemoPlant:      true,
	}
}

// Load reads an optional .env file and then the process environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from Default
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	integer("PORT", &cfg.Port)

	// Hosted deployments have no sensor board attached
	if _, ok := lookup("RENDER"); ok {
		cfg.SerialEnabled = false
	}
	boolean("SERIAL_ENABLED", &cfg.SerialEnabled)
	str("SERIAL_PORT", &cfg.SerialPort)
	integer("SERIAL_BAUD", &cfg.SerialBaud)

	str("STORE_DRIVER", &cfg.StoreDriver)
	str("SQLITE_DSN", &cfg.SQLiteDSN)

	str("EMAILJS_SERVICE_ID", &cfg.EmailJSServiceID)
	str("EMAILJS_TEMPLATE_ID", &cfg.EmailJSTemplateID)
	str("EMAILJS_PUBLIC_KEY", &cfg.EmailJSPublicKey)
	str("EMAILJS_ENDPOINT", &cfg.EmailJSEndpoint)
	if v, ok := get("NOTIFY_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("NOTIFY_TIMEOUT: %w", err))
		} else {
			cfg.NotifyTimeout = d
		}
	}

	str("TELEGRAM_BOT_TOKEN", &cfg.TelegramBotToken)
	if v, ok := get("TELEGRAM_CHAT_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err))
		} else {
			cfg.TelegramChatID = id
		}
	}

	str("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	str("REPORT_SCHEDULE", &cfg.ReportSchedule)

	boolean("MDNS_ENABLED", &cfg.MDNSEnabled)
	str("MDNS_INSTANCE", &cfg.MDNSInstance)
	boolean("DEMO_PLANT", &cfg.DemoPlant)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// Validate checks values that cannot be caught while parsing
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.SerialBaud <= 0 {
		errs = append(errs, fmt.Errorf("invalid baud rate %d", c.SerialBaud))
	}
	if c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite {
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid notify timeout %s", c.NotifyTimeout))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
