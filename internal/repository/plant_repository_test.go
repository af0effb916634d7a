package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
)

// repositories returns a fresh instance of every PlantRepository implementation
func repositories(t *testing.T) map[string]PlantRepository {
	t.Helper()

	sqliteRepo, err := NewSQLitePlantRepository(DefaultSQLiteDSN)
	if err != nil {
		t.Fatalf("Failed to open SQLite repository: %v", err)
	}
	t.Cleanup(func() { sqliteRepo.Close() })

	return map[string]PlantRepository{
		"memory": NewMemoryPlantRepository(),
		"sqlite": sqliteRepo,
	}
}

func TestCreateAndList(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			fern, err := repo.CreatePlant("Fern", entities.SoilLoamy)
			if err != nil {
				t.Fatalf("CreatePlant: %v", err)
			}
			cactus, err := repo.CreatePlant("Cactus", entities.SoilSandy)
			if err != nil {
				t.Fatalf("CreatePlant: %v", err)
			}
			if cactus <= fern {
				t.Errorf("ids should increase: fern=%d cactus=%d", fern, cactus)
			}

			plants, err := repo.ListPlants()
			if err != nil {
				t.Fatalf("ListPlants: %v", err)
			}
			if len(plants) != 2 {
				t.Fatalf("expected 2 plants, got %d", len(plants))
			}
			first := plants[0]
			if first.ID != fern || first.Name != "Fern" || first.SoilCategory != entities.SoilLoamy {
				t.Errorf("first plant: got %+v", first)
			}
			if first.SensorReading != (entities.Sample{}) {
				t.Errorf("new plant should have a zero reading, got %+v", first.SensorReading)
			}
			if first.LastWateredAt != nil || len(first.WateringHistory) != 0 {
				t.Errorf("new plant should have no watering history, got %+v", first)
			}
			if !first.LastAlertAt.IsZero() {
				t.Errorf("new plant should have a zero alert time, got %v", first.LastAlertAt)
			}
		})
	}
}

func TestIDsAreNotReused(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := repo.CreatePlant("A", entities.SoilClay)
			b, _ := repo.CreatePlant("B", entities.SoilClay)
			if err := repo.DeletePlant(b); err != nil {
				t.Fatalf("DeletePlant: %v", err)
			}
			c, _ := repo.CreatePlant("C", entities.SoilClay)
			if c == a || c == b {
				t.Errorf("id %d was reused (a=%d b=%d)", c, a, b)
			}
		})
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if err := repo.DeletePlant(42); err != nil {
				t.Errorf("deleting an unknown plant should not fail: %v", err)
			}
			id, _ := repo.CreatePlant("Basil", entities.SoilLoamy)
			if err := repo.DeletePlant(id); err != nil {
				t.Fatalf("DeletePlant: %v", err)
			}
			if _, err := repo.GetPlant(id); !errors.Is(err, entities.ErrPlantNotFound) {
				t.Errorf("GetPlant after delete: got %v, want ErrPlantNotFound", err)
			}
		})
	}
}

func TestRecordWatering(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if err := repo.RecordWatering(99, time.Now()); !errors.Is(err, entities.ErrPlantNotFound) {
				t.Errorf("watering unknown plant: got %v, want ErrPlantNotFound", err)
			}

			id, _ := repo.CreatePlant("Mint", entities.SoilLoamy)
			base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
			times := []time.Time{base, base, base.Add(time.Hour)}
			for _, at := range times {
				if err := repo.RecordWatering(id, at); err != nil {
					t.Fatalf("RecordWatering: %v", err)
				}
			}

			p, err := repo.GetPlant(id)
			if err != nil {
				t.Fatalf("GetPlant: %v", err)
			}
			if len(p.WateringHistory) != len(times) {
				t.Fatalf("expected %d watering events, got %d", len(times), len(p.WateringHistory))
			}
			for i, ev := range p.WateringHistory {
				if !ev.Time.Equal(times[i]) {
					t.Errorf("event %d: got %v, want %v", i, ev.Time, times[i])
				}
			}
			if p.LastWateredAt == nil || !p.LastWateredAt.Equal(times[len(times)-1]) {
				t.Errorf("LastWateredAt: got %v, want %v", p.LastWateredAt, times[len(times)-1])
			}
		})
	}
}

func TestApplySampleToAll(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			repo.CreatePlant("Sandy one", entities.SoilSandy)
			repo.CreatePlant("Clay one", entities.SoilClay)
			repo.CreatePlant("Odd one", "Peat")

			sample := entities.Sample{SoilMoisture: 33, Temperature: 21.5, Humidity: 48.25}
			if err := repo.ApplySampleToAll(sample); err != nil {
				t.Fatalf("ApplySampleToAll: %v", err)
			}

			plants, _ := repo.ListPlants()
			for _, p := range plants {
				if p.SensorReading != sample {
					t.Errorf("plant %s: got %+v, want %+v", p.Name, p.SensorReading, sample)
				}
			}
		})
	}
}

func TestTryMarkAlerted(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			id, _ := repo.CreatePlant("Fern", entities.SoilLoamy)
			base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

			ok, err := repo.TryMarkAlerted(id, base, time.Hour)
			if err != nil || !ok {
				t.Fatalf("first alert should pass: ok=%v err=%v", ok, err)
			}

			ok, _ = repo.TryMarkAlerted(id, base.Add(30*time.Minute), time.Hour)
			if ok {
				t.Error("alert inside the cooldown should be refused")
			}

			// Exactly one hour is not strictly greater than the cooldown
			ok, _ = repo.TryMarkAlerted(id, base.Add(time.Hour), time.Hour)
			if ok {
				t.Error("alert at exactly the cooldown should be refused")
			}

			ok, _ = repo.TryMarkAlerted(id, base.Add(time.Hour+time.Second), time.Hour)
			if !ok {
				t.Error("alert after the cooldown should pass")
			}

			p, _ := repo.GetPlant(id)
			if !p.LastAlertAt.Equal(base.Add(time.Hour + time.Second)) {
				t.Errorf("LastAlertAt: got %v", p.LastAlertAt)
			}

			if _, err := repo.TryMarkAlerted(1000, base, time.Hour); !errors.Is(err, entities.ErrPlantNotFound) {
				t.Errorf("unknown plant: got %v, want ErrPlantNotFound", err)
			}
		})
	}
}

func TestTryMarkAlertedConcurrent(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			id, _ := repo.CreatePlant("Fern", entities.SoilLoamy)
			now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				granted int
			)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := repo.TryMarkAlerted(id, now, time.Hour)
					if err != nil {
						t.Errorf("TryMarkAlerted: %v", err)
						return
					}
					if ok {
						mu.Lock()
						granted++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if granted != 1 {
				t.Errorf("expected exactly one granted alert, got %d", granted)
			}
		})
	}
}

func TestListReturnsCopies(t *testing.T) {
	repo := NewMemoryPlantRepository()
	id, _ := repo.CreatePlant("Fern", entities.SoilLoamy)
	repo.RecordWatering(id, time.Now())

	plants, _ := repo.ListPlants()
	plants[0].WateringHistory[0].Time = time.Time{}
	plants[0].Name = "changed"

	p, _ := repo.GetPlant(id)
	if p.Name != "Fern" || p.WateringHistory[0].Time.IsZero() {
		t.Errorf("mutating a listed plant leaked into the repository: %+v", p)
	}
}
