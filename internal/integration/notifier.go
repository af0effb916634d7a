package integration

import (
	"context"
	"errors"
	"log"

	"github.com/abelzeko/soilism/internal/entities"
)

// AlertNotifier is satisfied by every notifier in this package
type AlertNotifier interface {
	Notify(ctx context.Context, alert entities.DrynessAlert) error
}

// MultiNotifier fans an alert out to several notifiers
type MultiNotifier struct {
	notifiers []AlertNotifier
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(notifiers ...AlertNotifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Len returns the number of wrapped notifiers
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify calls every notifier and joins their errors
func (m *MultiNotifier) Notify(ctx context.Context, alert entities.DrynessAlert) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only logs alerts. Used when no delivery channel is configured.
type LogNotifier struct{}

// Notify logs the alert
func (LogNotifier) Notify(ctx context.Context, alert entities.DrynessAlert) error {
	log.Printf("Dryness alert: %s (%s) moisture %d <= %d",
		alert.Name, alert.SoilCategory, alert.Reading.SoilMoisture, alert.Threshold)
	return nil
}
