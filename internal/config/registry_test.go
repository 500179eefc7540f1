package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "growdeck") {
		t.Errorf("GetConfigDir() = %v, should contain 'growdeck'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Instances == nil {
		t.Error("NewRegistry().Instances should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.AutoDiscover != true {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.LogHours != 48 {
		t.Errorf("NewRegistry().Preferences.LogHours = %v, want 48", reg.Preferences.LogHours)
	}
}

func TestRegistryEnsureInstance(t *testing.T) {
	reg := NewRegistry()

	// First call should create the entry
	inst1 := reg.EnsureInstance("http://ha.local:8123")
	if inst1 == nil {
		t.Fatal("EnsureInstance() returned nil")
	}

	// Second call should return same entry
	inst2 := reg.EnsureInstance("http://ha.local:8123")
	if inst1 != inst2 {
		t.Error("EnsureInstance() should return same instance for same URL")
	}

	// Different URL should create a new entry
	inst3 := reg.EnsureInstance("http://other.local:8123")
	if inst1 == inst3 {
		t.Error("EnsureInstance() should create new entry for different URL")
	}
}

func TestRegistryUpdateInstanceSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateInstanceSeen("http://ha.local:8123", "Home", "2025.8.1")
	after := time.Now()

	inst := reg.GetInstance("http://ha.local:8123")
	if inst == nil {
		t.Fatal("Instance should exist after UpdateInstanceSeen()")
	}

	if inst.Name != "Home" {
		t.Errorf("Name = %v, want Home", inst.Name)
	}

	if inst.Version != "2025.8.1" {
		t.Errorf("Version = %v, want 2025.8.1", inst.Version)
	}

	if inst.LastSeen.Before(before) || inst.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", inst.LastSeen, before, after)
	}

	// Empty values must not clobber existing ones
	reg.UpdateInstanceSeen("http://ha.local:8123", "", "")
	if inst.Name != "Home" || inst.Version != "2025.8.1" {
		t.Error("UpdateInstanceSeen() with empty values should keep existing fields")
	}
}

func TestRegistrySetToken(t *testing.T) {
	reg := NewRegistry()

	reg.SetToken("http://ha.local:8123", "llat-abc")

	inst := reg.GetInstance("http://ha.local:8123")
	if inst == nil {
		t.Fatal("Instance should exist after SetToken()")
	}
	if inst.Token != "llat-abc" {
		t.Errorf("Token = %v, want llat-abc", inst.Token)
	}

	// First token makes the instance the default
	if reg.Default != "http://ha.local:8123" {
		t.Errorf("Default = %v, want http://ha.local:8123", reg.Default)
	}

	// A second instance must not steal the default
	reg.SetToken("http://other.local:8123", "llat-def")
	if reg.Default != "http://ha.local:8123" {
		t.Errorf("Default = %v, should remain http://ha.local:8123", reg.Default)
	}
}

func TestRegistryDefaultInstance(t *testing.T) {
	reg := NewRegistry()

	// Nothing configured
	url, inst := reg.DefaultInstance()
	if url != "" || inst != nil {
		t.Errorf("DefaultInstance() on empty registry = (%v, %v), want (\"\", nil)", url, inst)
	}

	// Sole instance without explicit default
	reg.EnsureInstance("http://ha.local:8123")
	url, inst = reg.DefaultInstance()
	if url != "http://ha.local:8123" || inst == nil {
		t.Errorf("DefaultInstance() with sole instance = (%v, %v)", url, inst)
	}

	// Ambiguous without explicit default
	reg.EnsureInstance("http://other.local:8123")
	url, inst = reg.DefaultInstance()
	if url != "" || inst != nil {
		t.Error("DefaultInstance() with two instances and no default should return nothing")
	}

	// Explicit default wins
	reg.Default = "http://other.local:8123"
	url, _ = reg.DefaultInstance()
	if url != "http://other.local:8123" {
		t.Errorf("DefaultInstance() = %v, want http://other.local:8123", url)
	}
}

func TestRegistryYAMLRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "growdeck-config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	testConfigPath := filepath.Join(tmpDir, "config.yaml")

	reg := NewRegistry()
	reg.UpdateInstanceSeen("http://ha.local:8123", "Home", "2025.8.1")
	reg.SetToken("http://ha.local:8123", "llat-abc")
	reg.Preferences.DiscoverTimeout = 7

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("Failed to marshal registry: %v", err)
	}

	if err := os.WriteFile(testConfigPath, data, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	raw, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("Failed to read test config: %v", err)
	}

	var loaded Registry
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("Failed to unmarshal registry: %v", err)
	}

	inst := loaded.GetInstance("http://ha.local:8123")
	if inst == nil {
		t.Fatal("Instance should exist in loaded registry")
	}
	if inst.Token != "llat-abc" {
		t.Errorf("Loaded token = %v, want llat-abc", inst.Token)
	}
	if inst.Name != "Home" {
		t.Errorf("Loaded name = %v, want Home", inst.Name)
	}
	if loaded.Default != "http://ha.local:8123" {
		t.Errorf("Loaded default = %v, want http://ha.local:8123", loaded.Default)
	}
	if loaded.Preferences.DiscoverTimeout != 7 {
		t.Errorf("Loaded discover_timeout = %v, want 7", loaded.Preferences.DiscoverTimeout)
	}
}
