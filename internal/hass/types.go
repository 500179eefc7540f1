package hass

import (
	"encoding/json"
	"time"
)

// Device is a device registry record.
type Device struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	NameByUser         string          `json:"name_by_user"`
	Identifiers        [][]string      `json:"identifiers"`
	PrimaryConfigEntry string          `json:"primary_config_entry"`
	ConfigEntries      []string        `json:"config_entries"`
	Raw                json.RawMessage `json:"-"`
}

// DisplayName returns the user-assigned name when set, the integration
// name otherwise.
func (d *Device) DisplayName() string {
	if d.NameByUser != "" {
		return d.NameByUser
	}
	return d.Name
}

// HasDomain reports whether the device carries an identifier for the
// given integration domain.
func (d *Device) HasDomain(domain string) bool {
	for _, ident := range d.Identifiers {
		if len(ident) > 0 && ident[0] == domain {
			return true
		}
	}
	return false
}

// Entity is an entity registry record.
type Entity struct {
	EntityID string `json:"entity_id"`
	DeviceID string `json:"device_id"`
	UniqueID string `json:"unique_id"`
	Platform string `json:"platform"`
}

// ConfigEntry is a config entry record.
type ConfigEntry struct {
	EntryID string `json:"entry_id"`
	Domain  string `json:"domain"`
	Title   string `json:"title"`
	State   string `json:"state"`
}

// State is a live entity state.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
}

// Float returns the state parsed as a float. ok is false when the state
// is missing, non-numeric, or one of the unavailable sentinels.
func (s *State) Float() (float64, bool) {
	if s == nil {
		return 0, false
	}
	switch s.State {
	case "", "unavailable", "unknown":
		return 0, false
	}
	var v float64
	if err := json.Unmarshal([]byte(s.State), &v); err != nil {
		return 0, false
	}
	return v, true
}

// IsOn reports whether the state is the "on" string. Returns false for
// nil and unavailable states.
func (s *State) IsOn() bool {
	return s != nil && s.State == "on"
}

// Event is a logbook row.
type Event struct {
	EntityID string  `json:"entity_id"`
	Domain   string  `json:"domain"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Message  string  `json:"message"`
	When     float64 `json:"when"` // Unix seconds with fraction
}

// Time converts the logbook timestamp to a time.Time.
func (e *Event) Time() time.Time {
	sec := int64(e.When)
	nsec := int64((e.When - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// stateChangedEvent is the payload of a state_changed bus event.
type stateChangedEvent struct {
	EntityID string `json:"entity_id"`
	NewState *State `json:"new_state"`
}

// wsMessage is the envelope of every message received from the server.
type wsMessage struct {
	ID      uint64          `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *wsError        `json:"error"`
	Event   *wsEvent        `json:"event"`
	Version string          `json:"ha_version"`
	Message string          `json:"message"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsEvent struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}
