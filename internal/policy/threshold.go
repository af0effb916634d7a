// Package policy maps soil categories to dryness thresholds and ideal ranges
package policy

import (
	"github.com/abelzeko/soilism/internal/entities"
)

// DefaultDryThreshold applies to soil categories outside the known set
const DefaultDryThreshold = 25

var dryThresholds = map[entities.SoilCategory]int{
	entities.SoilSandy: 10,
	entities.SoilClay:  30,
	entities.SoilLoamy: 25,
}

// DryThreshold returns the soil moisture at or below which a plant is dry
func DryThreshold(soil entities.SoilCategory) int {
	if t, ok := dryThresholds[soil]; ok {
		return t
	}
	return DefaultDryThreshold
}

// IsDry reports whether moisture counts as dry for the given soil.
// Moisture exactly at the threshold is dry.
func IsDry(soil entities.SoilCategory, moisture int) bool {
	return moisture <= DryThreshold(soil)
}
