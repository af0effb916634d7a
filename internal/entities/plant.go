// Package entities contains the core domain objects for the soilism application
package entities

import (
	"time"
)

// SoilCategory names the soil a plant is potted in
type SoilCategory string

// Known soil categories. Any other value is accepted and treated with defaults.
const (
	SoilSandy SoilCategory = "Sandy"
	SoilClay  SoilCategory = "Clay"
	SoilLoamy SoilCategory = "Loamy"
)

// KnownSoilCategories lists the closed set of soil categories in display order
var KnownSoilCategories = []SoilCategory{SoilSandy, SoilClay, SoilLoamy}

// Sample is one sensor reading applied to every tracked plant
type Sample struct {
	SoilMoisture int     `json:"soilMoisture"` // Soil moisture in %
	Temperature  float64 `json:"temperature"`  // Air temperature in °C
	Humidity     float64 `json:"humidity"`     // Relative humidity in %
}

// WateringEvent records a manual watering
type WateringEvent struct {
	Time time.Time `json:"time"`
}

// Plant represents a single tracked plant in the system
type Plant struct {
	ID              int64
	Name            string
	SoilCategory    SoilCategory
	SensorReading   Sample
	LastWateredAt   *time.Time // nil until the first watering
	WateringHistory []WateringEvent
	LastAlertAt     time.Time // zero until the first dryness alert
}

// Clone returns a deep copy that shares no mutable state with p
func (p Plant) Clone() Plant {
	out := p
	if p.LastWateredAt != nil {
		t := *p.LastWateredAt
		out.LastWateredAt = &t
	}
	if p.WateringHistory != nil {
		out.WateringHistory = make([]WateringEvent, len(p.WateringHistory))
		copy(out.WateringHistory, p.WateringHistory)
	}
	return out
}

// DrynessAlert is the payload handed to notifiers when a plant is found dry
type DrynessAlert struct {
	PlantID      int64
	Name         string
	SoilCategory SoilCategory
	Reading      Sample
	Threshold    int
	Timestamp    time.Time
}
