package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
)

// MemoryPlantRepository implements PlantRepository with a mutex-guarded map
type MemoryPlantRepository struct {
	mu     sync.RWMutex
	plants map[int64]*entities.Plant
	nextID int64
}

// NewMemoryPlantRepository creates an empty in-memory repository
func NewMemoryPlantRepository() *MemoryPlantRepository {
	return &MemoryPlantRepository{
		plants: make(map[int64]*entities.Plant),
		nextID: 1,
	}
}

// CreatePlant inserts a plant with a zero reading and returns its id
func (r *MemoryPlantRepository) CreatePlant(name string, soil entities.SoilCategory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.plants[id] = &entities.Plant{
		ID:           id,
		Name:         name,
		SoilCategory: soil,
	}
	return id, nil
}

// DeletePlant removes a plant. Unknown ids are ignored.
func (r *MemoryPlantRepository) DeletePlant(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.plants, id)
	return nil
}

// GetPlant returns a copy of a single plant
func (r *MemoryPlantRepository) GetPlant(id int64) (entities.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plants[id]
	if !ok {
		return entities.Plant{}, fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}
	return p.Clone(), nil
}

// ListPlants returns copies of all plants ordered by id
func (r *MemoryPlantRepository) ListPlants() ([]entities.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.Plant, 0, len(r.plants))
	for _, p := range r.plants {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// RecordWatering appends a watering event and updates the last watered time
func (r *MemoryPlantRepository) RecordWatering(id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plants[id]
	if !ok {
		return fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}
	p.WateringHistory = append(p.WateringHistory, entities.WateringEvent{Time: at})
	wateredAt := at
	p.LastWateredAt = &wateredAt
	return nil
}

// ApplySampleToAll overwrites the reading of every current plant
func (r *MemoryPlantRepository) ApplySampleToAll(sample entities.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plants {
		p.SensorReading = sample
	}
	return nil
}

// TryMarkAlerted advances the alert timestamp if the cooldown has elapsed
func (r *MemoryPlantRepository) TryMarkAlerted(id int64, now time.Time, cooldown time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plants[id]
	if !ok {
		return false, fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}
	if !cooldownElapsed(p.LastAlertAt, now, cooldown) {
		return false, nil
	}
	p.LastAlertAt = now
	return true, nil
}

// Close is a no-op for the in-memory repository
func (r *MemoryPlantRepository) Close() error {
	return nil
}
