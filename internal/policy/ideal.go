package policy

import (
	"github.com/abelzeko/soilism/internal/entities"
)

// Range is an inclusive [Min, Max] interval
type Range struct {
	Min float64
	Max float64
}

// IdealRanges describes healthy sensor ranges for one soil category
type IdealRanges struct {
	Moisture    Range // %
	Temperature Range // °C
	Humidity    Range // %
}

// Status classifies a value against a Range
type Status string

const (
	StatusLow  Status = "Low"
	StatusOK   Status = "OK"
	StatusHigh Status = "High"
)

var idealRanges = map[entities.SoilCategory]IdealRanges{
	entities.SoilSandy: {Moisture: Range{10, 30}, Temperature: Range{18, 30}, Humidity: Range{30, 50}},
	entities.SoilClay:  {Moisture: Range{30, 60}, Temperature: Range{16, 28}, Humidity: Range{50, 70}},
	entities.SoilLoamy: {Moisture: Range{25, 45}, Temperature: Range{18, 26}, Humidity: Range{40, 60}},
}

// Ideal returns the ideal ranges for soil, using Loamy for unknown categories
func Ideal(soil entities.SoilCategory) IdealRanges {
	if r, ok := idealRanges[soil]; ok {
		return r
	}
	return idealRanges[entities.SoilLoamy]
}

// Classify places v below, inside or above r
func Classify(v float64, r Range) Status {
	switch {
	case v < r.Min:
		return StatusLow
	case v > r.Max:
		return StatusHigh
	default:
		return StatusOK
	}
}

// ReadingStatus holds the classification of every field of a sample
type ReadingStatus struct {
	Moisture    Status
	Temperature Status
	Humidity    Status
}

// ClassifySample classifies every field of s against the ideal ranges for soil
func ClassifySample(soil entities.SoilCategory, s entities.Sample) ReadingStatus {
	ideal := Ideal(soil)
	return ReadingStatus{
		Moisture:    Classify(float64(s.SoilMoisture), ideal.Moisture),
		Temperature: Classify(s.Temperature, ideal.Temperature),
		Humidity:    Classify(s.Humidity, ideal.Humidity),
	}
}
