package api

import (
	"strconv"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/policy"
	"github.com/abelzeko/soilism/internal/usecases"
)

// wateringLogView is one entry of a plant's watering history
type wateringLogView struct {
	Time string `json:"time"`
}

// plantView is the JSON shape polling clients expect for a plant
type plantView struct {
	Name         string            `json:"name"`
	Soil         string            `json:"soil"`
	SensorData   entities.Sample   `json:"sensorData"`
	LastWatered  *string           `json:"lastWatered"`
	WateringLogs []wateringLogView `json:"wateringLogs"`
	LastAlert    float64           `json:"lastAlert"`
}

func newPlantView(p entities.Plant) plantView {
	v := plantView{
		Name:         p.Name,
		Soil:         string(p.SoilCategory),
		SensorData:   p.SensorReading,
		WateringLogs: make([]wateringLogView, 0, len(p.WateringHistory)),
	}
	if p.LastWateredAt != nil {
		s := p.LastWateredAt.Format(usecases.TimeLayout)
		v.LastWatered = &s
	}
	for _, ev := range p.WateringHistory {
		v.WateringLogs = append(v.WateringLogs, wateringLogView{Time: ev.Time.Format(usecases.TimeLayout)})
	}
	if !p.LastAlertAt.IsZero() {
		v.LastAlert = float64(p.LastAlertAt.UnixNano()) / 1e9
	}
	return v
}

// plantViews keys every plant by its decimal id
func plantViews(plants []entities.Plant) map[string]plantView {
	out := make(map[string]plantView, len(plants))
	for _, p := range plants {
		out[strconv.FormatInt(p.ID, 10)] = newPlantView(p)
	}
	return out
}

// dashboardPlant is the template model for one plant card
type dashboardPlant struct {
	ID           int64
	Name         string
	Soil         string
	Reading      entities.Sample
	Status       policy.ReadingStatus
	Ideal        policy.IdealRanges
	LastWatered  string
	TimesWatered int
	History      []string
}

func newDashboardPlant(p entities.Plant) dashboardPlant {
	d := dashboardPlant{
		ID:           p.ID,
		Name:         p.Name,
		Soil:         string(p.SoilCategory),
		Reading:      p.SensorReading,
		Status:       policy.ClassifySample(p.SoilCategory, p.SensorReading),
		Ideal:        policy.Ideal(p.SoilCategory),
		LastWatered:  "Never",
		TimesWatered: len(p.WateringHistory),
	}
	if p.LastWateredAt != nil {
		d.LastWatered = p.LastWateredAt.Format(usecases.TimeLayout)
	}
	// newest first
	for i := len(p.WateringHistory) - 1; i >= 0; i-- {
		d.History = append(d.History, p.WateringHistory[i].Time.Format(usecases.TimeLayout))
	}
	return d
}
