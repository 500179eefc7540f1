package growbox

import (
	"fmt"
	"math"
	"time"
)

// LightStatus is the derived lighting status for a chamber at a given
// instant. It is recomputed from the wall clock on every render and
// never cached.
type LightStatus struct {
	// IsOn is the actual relay state reported by the light entity.
	IsOn bool

	// ScheduledOn is whether the configured window covers the instant.
	ScheduledOn bool

	// StartHour and DurationHours describe the resolved window.
	StartHour     int
	DurationHours int

	// Schedule is the display label for the window ("18:00 - 06:00"),
	// "off" for dark phases.
	Schedule string

	// Countdown is the time remaining to the next transition: window
	// end when inside the window, next window start when outside.
	Countdown time.Duration
}

// StatusText distinguishes all four actual/scheduled combinations.
func (s LightStatus) StatusText() string {
	switch {
	case s.IsOn && s.ScheduledOn:
		return "ON"
	case !s.IsOn && !s.ScheduledOn:
		return "OFF"
	case !s.IsOn && s.ScheduledOn:
		return "OFF (should be ON)"
	default:
		return "ON (should be OFF)"
	}
}

// CountdownText renders the countdown as "5h 12m".
func (s LightStatus) CountdownText() string {
	if s.DurationHours <= 0 || s.DurationHours >= 24 {
		return "--"
	}
	d := s.Countdown.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// ComputeLightWindow resolves the light schedule for a phase at the
// given instant.
//
// Daily light hours come from the phase's hours option when set, the
// phase default table otherwise. The window starts at light_start_hour
// (clamped to 0-23) and runs for the resolved hours; windows crossing
// midnight shift back a day when the current hour is before the start
// hour, so "22:00 for 10h" reads as yesterday 22:00 - today 08:00.
func ComputeLightWindow(opts Options, phase Phase, actualOn bool, now time.Time) LightStatus {
	hours := opts.PhaseHours(phase)
	if hours < 0 {
		hours = 0
	}
	if hours > 24 {
		hours = 24
	}

	startHour := opts.Int(OptLightStartHour, DefaultLightStartHour)
	if startHour < 0 || startHour > 23 {
		startHour = DefaultLightStartHour
	}

	status := LightStatus{
		IsOn:          actualOn,
		StartHour:     startHour,
		DurationHours: hours,
	}

	switch {
	case hours <= 0:
		status.Schedule = "off"
		return status
	case hours >= 24:
		status.Schedule = "24h"
		status.ScheduledOn = true
		return status
	}

	status.Schedule = fmt.Sprintf("%02d:00 - %02d:00", startHour, (startHour+hours)%24)

	windowStart := time.Date(now.Year(), now.Month(), now.Day(), startHour, 0, 0, 0, now.Location())
	if now.Hour() < startHour {
		windowStart = windowStart.AddDate(0, 0, -1)
	}
	windowEnd := windowStart.Add(time.Duration(hours) * time.Hour)

	if !now.Before(windowStart) && now.Before(windowEnd) {
		status.ScheduledOn = true
		status.Countdown = windowEnd.Sub(now)
	} else {
		status.Countdown = windowStart.AddDate(0, 0, 1).Sub(now)
	}

	return status
}

// GaugeValue is a sensor reading mapped onto a 0-100 scale.
// OK is false when no reading is available; a missing value never
// renders as zero.
type GaugeValue struct {
	Pct float64
	OK  bool
}

// Gauge maps value linearly from [min, max] onto [0, 100], clamped.
func Gauge(value float64, ok bool, min, max float64) GaugeValue {
	if !ok || max <= min {
		return GaugeValue{}
	}
	pct := (value - min) / (max - min) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return GaugeValue{Pct: pct, OK: true}
}

// DaysInPhase computes the 1-based day counter from the phase_start_date
// option. ok is false when the date is unset or unparseable.
func DaysInPhase(opts Options, now time.Time) (int, bool) {
	raw := opts.String(OptPhaseStartDate, "")
	if raw == "" {
		return 0, false
	}

	start, err := time.ParseInLocation("2006-01-02", raw, now.Location())
	if err != nil {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			return 0, false
		}
	}

	days := int(now.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days, true
}

// VPD computes the vapor pressure deficit in kPa from air temperature
// (Celsius) and relative humidity (percent), using the Magnus formula
// for saturation vapor pressure. Used when no dedicated VPD sensor is
// wired to the chamber.
func VPD(tempC, humidityPct float64) float64 {
	svp := 0.61078 * math.Exp(17.27*tempC/(tempC+237.3))
	return svp * (1 - humidityPct/100)
}
