package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/abelzeko/soilism/internal/entities"
)

// DefaultEmailJSEndpoint is the EmailJS REST send endpoint
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

const emailTimeLayout = "2006-01-02 15:04:05"

// EmailJSConfig holds the EmailJS account identifiers
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	Endpoint   string
}

// Enabled reports whether enough is configured to send mail
func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

type emailJSRequest struct {
	ServiceID      string        `json:"service_id"`
	TemplateID     string        `json:"template_id"`
	UserID         string        `json:"user_id"`
	TemplateParams emailJSParams `json:"template_params"`
}

type emailJSParams struct {
	PlantName    string  `json:"plant_name"`
	SoilType     string  `json:"soil_type"`
	SoilMoisture int     `json:"soil_moisture"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	Time         string  `json:"time"`
}

// EmailJSNotifier sends dryness alerts through the EmailJS REST API
type EmailJSNotifier struct {
	config EmailJSConfig
	client *http.Client
}

// NewEmailJSNotifier creates a new EmailJS notifier. A nil client uses http.DefaultClient.
func NewEmailJSNotifier(config EmailJSConfig, client *http.Client) *EmailJSNotifier {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEmailJSEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJSNotifier{config: config, client: client}
}

// Notify posts the alert as an EmailJS template send
func (n *EmailJSNotifier) Notify(ctx context.Context, alert entities.DrynessAlert) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:  n.config.ServiceID,
		TemplateID: n.config.TemplateID,
		UserID:     n.config.PublicKey,
		TemplateParams: emailJSParams{
			PlantName:    alert.Name,
			SoilType:     string(alert.SoilCategory),
			SoilMoisture: alert.Reading.SoilMoisture,
			Temperature:  alert.Reading.Temperature,
			Humidity:     alert.Reading.Humidity,
			Time:         alert.Timestamp.Format(emailTimeLayout),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("Sending dryness email for %s", alert.Name)
	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status code from EmailJS: %d %s", res.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
