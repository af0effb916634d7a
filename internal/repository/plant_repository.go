// Package repository provides data access implementations
package repository

import (
	"time"

	"github.com/abelzeko/soilism/internal/entities"
)

// PlantRepository defines the interface for plant state operations.
// Implementations must be safe for concurrent use and make every operation
// atomic with respect to the others.
type PlantRepository interface {
	CreatePlant(name string, soil entities.SoilCategory) (int64, error)
	DeletePlant(id int64) error
	GetPlant(id int64) (entities.Plant, error)
	ListPlants() ([]entities.Plant, error)
	RecordWatering(id int64, at time.Time) error
	ApplySampleToAll(sample entities.Sample) error
	TryMarkAlerted(id int64, now time.Time, cooldown time.Duration) (bool, error)
	Close() error
}

// cooldownElapsed reports whether strictly more than cooldown has passed since last
func cooldownElapsed(last, now time.Time, cooldown time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > cooldown
}
