package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sample field names as used by push payloads
const (
	FieldSoilMoisture = "soilMoisture"
	FieldTemperature  = "temperature"
	FieldHumidity     = "humidity"
)

// ErrMissingValue reports a required field that was absent or null
var ErrMissingValue = errors.New("missing value")

var errNotNumeric = errors.New("not a number")

// ParseSampleFields parses the three text fields of a sensor line.
// Moisture must be an integer, temperature and humidity floating point numbers.
func ParseSampleFields(moisture, temperature, humidity string) (Sample, error) {
	var s Sample

	m, err := strconv.Atoi(strings.TrimSpace(moisture))
	if err != nil {
		return s, &ValidationError{Field: FieldSoilMoisture, Value: moisture, Err: err}
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(temperature), 64)
	if err != nil {
		return s, &ValidationError{Field: FieldTemperature, Value: temperature, Err: err}
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(humidity), 64)
	if err != nil {
		return s, &ValidationError{Field: FieldHumidity, Value: humidity, Err: err}
	}

	s.SoilMoisture = m
	s.Temperature = t
	s.Humidity = h
	return s, nil
}

// ParseSampleLine parses a "moisture,temperature,humidity" line.
// The boolean is false when the line does not have exactly three fields.
func ParseSampleLine(line string) (Sample, bool, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return Sample{}, false, nil
	}
	s, err := ParseSampleFields(parts[0], parts[1], parts[2])
	return s, true, err
}

// ParsePushPayload validates a decoded JSON push payload.
// Values may be JSON numbers or numeric strings. Payloads should be decoded
// with json.Decoder.UseNumber so large integers keep their precision.
func ParsePushPayload(payload map[string]any) (Sample, error) {
	var s Sample

	m, err := intValue(payload[FieldSoilMoisture])
	if err != nil {
		return s, &ValidationError{Field: FieldSoilMoisture, Value: payload[FieldSoilMoisture], Err: err}
	}
	t, err := floatValue(payload[FieldTemperature])
	if err != nil {
		return s, &ValidationError{Field: FieldTemperature, Value: payload[FieldTemperature], Err: err}
	}
	h, err := floatValue(payload[FieldHumidity])
	if err != nil {
		return s, &ValidationError{Field: FieldHumidity, Value: payload[FieldHumidity], Err: err}
	}

	s.SoilMoisture = m
	s.Temperature = t
	s.Humidity = h
	return s, nil
}

// intValue accepts integral strings and any JSON number, truncating fractions
func intValue(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, ErrMissingValue
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	case json.Number:
		if i, err := strconv.Atoi(x.String()); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return truncate(f)
	case float64:
		return truncate(x)
	case int:
		return x, nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumeric, v)
	}
}

func floatValue(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, ErrMissingValue
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumeric, v)
	}
}

func truncate(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v out of range", errNotNumeric, f)
	}
	return int(f), nil
}
