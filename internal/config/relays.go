// Package config loads the client's relay sets and identification block from
// JSON config files, with env-var overrides for the paths.
package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// RelaysConfig represents the JSON configuration for relay lists
type RelaysConfig struct {
	DefaultRelays []string `json:"defaultRelays"` // read/subscription relays
	PublishRelays []string `json:"publishRelays"` // write relays
	ProfileRelays []string `json:"profileRelays"` // kind-0 lookups
}

var (
	relaysConfig     *RelaysConfig
	relaysConfigMu   sync.RWMutex
	relaysConfigOnce sync.Once
)

// GetRelaysConfig returns the current relays configuration (thread-safe)
func GetRelaysConfig() *RelaysConfig {
	relaysConfigOnce.Do(func() {
		relaysConfigMu.Lock()
		defer relaysConfigMu.Unlock()
		if relaysConfig == nil {
			relaysConfig = loadRelaysConfigFromFile()
		}
	})

	relaysConfigMu.RLock()
	defer relaysConfigMu.RUnlock()
	return relaysConfig
}

// ReloadRelaysConfig reloads the configuration from file
func ReloadRelaysConfig() error {
	newConfig := loadRelaysConfigFromFile()
	relaysConfigMu.Lock()
	defer relaysConfigMu.Unlock()
	relaysConfig = newConfig
	slog.Info("relays configuration reloaded")
	return nil
}

// GetDefaultRelays returns the read/subscription relay set
func GetDefaultRelays() []string {
	return GetRelaysConfig().DefaultRelays
}

// GetPublishRelays returns the write relay set, falling back to the default
// set when none is configured
func GetPublishRelays() []string {
	cfg := GetRelaysConfig()
	if len(cfg.PublishRelays) > 0 {
		return cfg.PublishRelays
	}
	return cfg.DefaultRelays
}

// GetProfileRelays returns the relay set for kind-0 profile lookups
func GetProfileRelays() []string {
	cfg := GetRelaysConfig()
	if len(cfg.ProfileRelays) > 0 {
		return cfg.ProfileRelays
	}
	return cfg.DefaultRelays
}

func loadRelaysConfigFromFile() *RelaysConfig {
	configPath := os.Getenv("RELAYS_CONFIG")
	if configPath == "" {
		configPath = "config/relays.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("config file not found, using defaults", "path", configPath)
		} else {
			slog.Warn("could not read config, using defaults", "path", configPath, "error", err)
		}
		return getDefaultRelaysConfig()
	}

	var config RelaysConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Error("invalid JSON in config, using defaults", "path", configPath, "error", err)
		return getDefaultRelaysConfig()
	}

	slog.Info("loaded relays configuration",
		"path", configPath,
		"default", len(config.DefaultRelays),
		"publish", len(config.PublishRelays),
		"profile", len(config.ProfileRelays))

	return &config
}

func getDefaultRelaysConfig() *RelaysConfig {
	return &RelaysConfig{
		DefaultRelays: []string{
			"wss://relay.damus.io",
			"wss://nos.lol",
			"wss://relay.nostr.band",
		},
		PublishRelays: []string{},
		ProfileRelays: []string{
			"wss://purplepag.es",
			"wss://relay.damus.io",
		},
	}
}
