package policy

import (
	"testing"

	"github.com/abelzeko/soilism/internal/entities"
)

func TestDryThreshold(t *testing.T) {
	tests := []struct {
		soil entities.SoilCategory
		want int
	}{
		{entities.SoilSandy, 10},
		{entities.SoilClay, 30},
		{entities.SoilLoamy, 25},
		{"Peat", 25},
		{"", 25},
		{"sandy", 25},
	}
	for _, tt := range tests {
		if got := DryThreshold(tt.soil); got != tt.want {
			t.Errorf("DryThreshold(%q) = %d, want %d", tt.soil, got, tt.want)
		}
	}
}

func TestIsDryBoundary(t *testing.T) {
	if !IsDry(entities.SoilSandy, 10) {
		t.Error("moisture exactly at the Sandy threshold should be dry")
	}
	if IsDry(entities.SoilSandy, 11) {
		t.Error("moisture above the Sandy threshold should not be dry")
	}
	if !IsDry(entities.SoilClay, 0) {
		t.Error("zero moisture should be dry")
	}
}

func TestClassifySample(t *testing.T) {
	got := ClassifySample(entities.SoilLoamy, entities.Sample{SoilMoisture: 20, Temperature: 22, Humidity: 70})
	want := ReadingStatus{Moisture: StatusLow, Temperature: StatusOK, Humidity: StatusHigh}
	if got != want {
		t.Errorf("ClassifySample = %+v, want %+v", got, want)
	}

	// Range bounds are inclusive
	if s := Classify(30, Range{10, 30}); s != StatusOK {
		t.Errorf("Classify(30, 10-30) = %s, want OK", s)
	}
}

func TestIdealFallsBackToLoamy(t *testing.T) {
	if Ideal("Peat") != Ideal(entities.SoilLoamy) {
		t.Error("unknown soil should use Loamy ranges")
	}
}
