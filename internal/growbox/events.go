package growbox

import (
	"sort"
	"strings"
	"time"

	"github.com/openkairo/growdeck/internal/hass"
)

// DefaultLogLookback is the logbook query window.
const DefaultLogLookback = 48 * time.Hour

// EventKind is the fixed taxonomy the log view filters on.
type EventKind string

const (
	EventLight EventKind = "light"
	EventPump  EventKind = "pump"
	EventFan   EventKind = "fan"
	EventPhase EventKind = "phase"
	EventOther EventKind = "other"
)

// Classifier assigns an event to the taxonomy. Overridable so a panel
// can refine classification without touching the filtering below.
type Classifier func(hass.Event) EventKind

// ClassifyEvent is the default substring classifier over entity id and
// friendly name.
func ClassifyEvent(e hass.Event) EventKind {
	haystack := strings.ToLower(e.EntityID + " " + e.Name)
	switch {
	case strings.Contains(haystack, "light") || strings.Contains(haystack, "lamp"):
		return EventLight
	case strings.Contains(haystack, "pump") || strings.Contains(haystack, "water"):
		return EventPump
	case strings.Contains(haystack, "fan") || strings.Contains(haystack, "exhaust"):
		return EventFan
	case strings.Contains(haystack, "phase"):
		return EventPhase
	}
	return EventOther
}

// LogEntry is a classified, display-ready logbook row.
type LogEntry struct {
	Event hass.Event
	Kind  EventKind
	When  time.Time
}

// noiseState reports logbook rows that carry no operator signal:
// unavailable/unknown/empty states and the logbook's availability
// message. The message check is exact; a state change whose message
// merely mentions unavailability is still a real event.
func noiseState(e hass.Event) bool {
	switch e.State {
	case "unavailable", "unknown", "":
		return true
	}
	return e.Message == "became unavailable"
}

// FilterEvents drops noise rows, classifies the rest, and sorts newest
// first.
func FilterEvents(events []hass.Event, classify Classifier) []LogEntry {
	if classify == nil {
		classify = ClassifyEvent
	}

	entries := make([]LogEntry, 0, len(events))
	for _, e := range events {
		if noiseState(e) {
			continue
		}
		entries = append(entries, LogEntry{
			Event: e,
			Kind:  classify(e),
			When:  e.Time(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].When.After(entries[j].When)
	})
	return entries
}
