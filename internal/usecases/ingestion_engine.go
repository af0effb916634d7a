// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/policy"
	"github.com/abelzeko/soilism/internal/repository"
)

const (
	// AlertCooldown is the minimum time between two dryness alerts for one plant
	AlertCooldown = time.Hour
	// DefaultNotifyTimeout bounds a single notification attempt
	DefaultNotifyTimeout = 10 * time.Second
)

// Notifier delivers a dryness alert to the outside world
type Notifier interface {
	Notify(ctx context.Context, alert entities.DrynessAlert) error
}

// SampleListener is told about every applied sample together with the
// plant snapshot that was evaluated
type SampleListener interface {
	SampleApplied(sample entities.Sample, plants []entities.Plant)
}

// IngestionEngine is the single entry point for new sensor samples,
// whichever source they come from
type IngestionEngine struct {
	repo          repository.PlantRepository
	notifier      Notifier
	notifyTimeout time.Duration
	now           func() time.Time

	listenersMu sync.RWMutex
	listeners   []SampleListener

	inflight sync.WaitGroup
}

// NewIngestionEngine creates a new ingestion engine
func NewIngestionEngine(repo repository.PlantRepository, notifier Notifier) *IngestionEngine {
	return &IngestionEngine{
		repo:          repo,
		notifier:      notifier,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}
}

// SetClock replaces the time source
func (e *IngestionEngine) SetClock(now func() time.Time) {
	e.now = now
}

// SetNotifyTimeout changes the bound on a single notification attempt
func (e *IngestionEngine) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		e.notifyTimeout = d
	}
}

// AddListener registers a listener for applied samples
func (e *IngestionEngine) AddListener(l SampleListener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// ApplySample stores the sample on every plant, then alerts on dry plants
// whose cooldown has elapsed
func (e *IngestionEngine) ApplySample(sample entities.Sample) error {
	if err := e.repo.ApplySampleToAll(sample); err != nil {
		return fmt.Errorf("failed to apply sample: %w", err)
	}

	plants, err := e.repo.ListPlants()
	if err != nil {
		return fmt.Errorf("failed to list plants after sample: %w", err)
	}

	now := e.now()
	for _, plant := range plants {
		e.evaluate(plant, sample, now)
	}

	e.publish(sample, plants)
	return nil
}

// ApplyPushPayload validates a push payload and applies it. A malformed
// payload returns a *entities.ValidationError and leaves every plant untouched.
func (e *IngestionEngine) ApplyPushPayload(payload map[string]any) (entities.Sample, error) {
	sample, err := entities.ParsePushPayload(payload)
	if err != nil {
		return entities.Sample{}, err
	}
	if err := e.ApplySample(sample); err != nil {
		return entities.Sample{}, err
	}
	return sample, nil
}

// evaluate checks one plant. Errors stay local to the plant.
func (e *IngestionEngine) evaluate(plant entities.Plant, sample entities.Sample, now time.Time) {
	threshold := policy.DryThreshold(plant.SoilCategory)
	if sample.SoilMoisture > threshold {
		return
	}

	marked, err := e.repo.TryMarkAlerted(plant.ID, now, AlertCooldown)
	if err != nil {
		log.Printf("Skipping dryness check for plant %d: %v", plant.ID, err)
		return
	}
	if !marked {
		return
	}

	log.Printf("Dry soil detected for %s (moisture %d <= %d), sending alert", plant.Name, sample.SoilMoisture, threshold)
	e.dispatch(entities.DrynessAlert{
		PlantID:      plant.ID,
		Name:         plant.Name,
		SoilCategory: plant.SoilCategory,
		Reading:      sample,
		Threshold:    threshold,
		Timestamp:    now,
	})
}

// dispatch sends the alert on its own goroutine. The cooldown stays consumed
// whether or not delivery succeeds.
func (e *IngestionEngine) dispatch(alert entities.DrynessAlert) {
	if e.notifier == nil {
		return
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
		defer cancel()

		if err := e.notifier.Notify(ctx, alert); err != nil {
			log.Printf("Failed to deliver dryness alert for %s: %v", alert.Name, err)
			return
		}
		log.Printf("Dryness alert delivered for %s", alert.Name)
	}()
}

func (e *IngestionEngine) publish(sample entities.Sample, plants []entities.Plant) {
	e.listenersMu.RLock()
	defer e.listenersMu.RUnlock()

	for _, l := range e.listeners {
		l.SampleApplied(sample, plants)
	}
}

// Wait blocks until every in-flight notification has finished
func (e *IngestionEngine) Wait() {
	e.inflight.Wait()
}
