package discovery

import (
	"fmt"
	"time"
)

// Instance represents a discovered Home Assistant instance on the network
type Instance struct {
	// Name is the instance name from the mDNS service (e.g., "Home")
	Name string

	// Hostname is the mDNS hostname (e.g., "homeassistant.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.10")
	IP string

	// Port is the web/API port (typically 8123)
	Port int

	// Version is the Home Assistant core version from the TXT records
	Version string

	// Metadata contains the remaining mDNS TXT record data
	// Common fields: "base_url", "location_name", "uuid", "internal_url"
	Metadata map[string]string

	// DiscoveredAt is when the instance was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instance
func (i *Instance) String() string {
	name := i.Name
	if name == "" {
		name = i.Hostname
	}
	return fmt.Sprintf("Home Assistant %q at %s:%d (version %s)", name, i.IP, i.Port, i.Version)
}

// BaseURL returns the URL the websocket API is reachable on.
// Prefers the base_url TXT record, falling back to the resolved address.
func (i *Instance) BaseURL() string {
	if url := i.GetMetadata("base_url"); url != "" {
		return url
	}
	if url := i.GetMetadata("internal_url"); url != "" {
		return url
	}
	return fmt.Sprintf("http://%s:%d", i.IP, i.Port)
}

// GetMetadata retrieves a TXT record value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
