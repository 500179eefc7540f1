package config

import "time"

// Registry represents the entire user configuration file.
// This stores the Home Assistant connection details and panel preferences.
type Registry struct {
	Version     int                  `yaml:"version"`
	Instances   map[string]*Instance `yaml:"instances,omitempty"` // Keyed by base URL
	Default     string               `yaml:"default,omitempty"`   // Base URL of the default instance
	Preferences *Preferences         `yaml:"preferences,omitempty"`
}

// Instance represents a known Home Assistant instance.
// This is keyed by its base URL in the Registry.
type Instance struct {
	Name     string    `yaml:"name,omitempty"`      // Instance name from discovery or user
	Token    string    `yaml:"token,omitempty"`     // Long-lived access token
	Version  string    `yaml:"version,omitempty"`   // Last seen Home Assistant version
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // Enable automatic mDNS discovery on startup
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	LogHours        int  `yaml:"log_hours"`        // Event log lookback window in hours
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:   1,
		Instances: make(map[string]*Instance),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 5,
			LogHours:        48,
		},
	}
}

// GetInstance retrieves instance details by base URL.
// Returns nil if the instance isn't known to the registry.
func (r *Registry) GetInstance(baseURL string) *Instance {
	return r.Instances[baseURL]
}

// EnsureInstance ensures an instance entry exists in the registry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureInstance(baseURL string) *Instance {
	if r.Instances == nil {
		r.Instances = make(map[string]*Instance)
	}

	if inst, exists := r.Instances[baseURL]; exists {
		return inst
	}

	inst := &Instance{}
	r.Instances[baseURL] = inst
	return inst
}

// UpdateInstanceSeen updates the last seen timestamp and version for an
// instance found via discovery.
func (r *Registry) UpdateInstanceSeen(baseURL, name, version string) {
	inst := r.EnsureInstance(baseURL)
	inst.LastSeen = time.Now()
	if name != "" {
		inst.Name = name
	}
	if version != "" {
		inst.Version = version
	}
}

// SetToken stores a long-lived access token for an instance and makes it
// the default when no default is set yet.
func (r *Registry) SetToken(baseURL, token string) {
	inst := r.EnsureInstance(baseURL)
	inst.Token = token
	if r.Default == "" {
		r.Default = baseURL
	}
}

// DefaultInstance returns the default instance and its base URL.
// Falls back to the sole known instance when no default is recorded.
// Returns ("", nil) when nothing usable is configured.
func (r *Registry) DefaultInstance() (string, *Instance) {
	if r.Default != "" {
		if inst := r.Instances[r.Default]; inst != nil {
			return r.Default, inst
		}
	}
	if len(r.Instances) == 1 {
		for url, inst := range r.Instances {
			return url, inst
		}
	}
	return "", nil
}
