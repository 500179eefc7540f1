package growbox

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Option keys as persisted in a chamber's config entry. The schema is
// open: unknown keys pass through untouched.
const (
	OptCurrentPhase   = "current_phase"
	OptPhaseStartDate = "phase_start_date"
	OptTempSensor     = "temp_sensor"
	OptHumiditySensor = "humidity_sensor"
	OptFanEntity      = "fan_entity"
	OptTargetTemp     = "target_temp"
	OptMaxHumidity    = "max_humidity"
	OptLightEntity    = "light_entity"
	OptLightStartHour = "light_start_hour"
	OptPumpEntity     = "pump_entity"
	OptMoistureSensor = "moisture_sensor"
	OptTargetMoisture = "target_moisture"
	OptPumpDuration   = "pump_duration"
	OptCameraEntity   = "camera_entity"
	OptImageVersion   = "image_version"
)

// Default numeric option values applied when a key is absent or cleared.
const (
	DefaultTargetTemp     = 24.0
	DefaultMaxHumidity    = 60.0
	DefaultTargetMoisture = 40.0
	DefaultPumpDuration   = 30
	DefaultLightStartHour = 18
)

// Options is a flat, schema-less option map as returned by the config
// entry. Values arrive as JSON scalars of mixed types; the accessors
// normalize them. An empty string counts as unset everywhere.
type Options map[string]any

// String returns the option as a string, fallback when absent or empty.
func (o Options) String(key, fallback string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return fallback
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return fallback
	}
	return s
}

// Float returns the option as a float64, fallback when absent, empty,
// or non-numeric.
func (o Options) Float(key string, fallback float64) float64 {
	v, ok := o[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return fallback
	case string:
		if n == "" {
			return fallback
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
		return fallback
	}
	return fallback
}

// Int returns the option as an int, fallback when absent, empty, or
// non-numeric. Fractions truncate.
func (o Options) Int(key string, fallback int) int {
	sentinel := -1 << 62
	f := o.Float(key, float64(sentinel))
	if f == float64(sentinel) {
		return fallback
	}
	return int(f)
}

// PhaseHours returns the configured daily light hours for a phase.
// The integration writes the prefixed "phase_<phase>_hours" key, but
// older configs carry the bare "<phase>_hours" form; the prefixed key
// wins when both are present. Falls back to the phase default table.
func (o Options) PhaseHours(p Phase) int {
	if v := o.Int(p.HoursOptionKey(), -1); v >= 0 {
		return v
	}
	if v := o.Int(string(p)+"_hours", -1); v >= 0 {
		return v
	}
	return DefaultLightHours(p)
}

// Phase returns the current growth phase, PhaseSeedling when unset.
func (o Options) Phase() Phase {
	return Phase(o.String(OptCurrentPhase, string(PhaseSeedling)))
}

// Merge applies the patch keys over a copy of the options. The receiver
// is not modified.
func (o Options) Merge(patch map[string]any) Options {
	merged := make(Options, len(o)+len(patch))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}
