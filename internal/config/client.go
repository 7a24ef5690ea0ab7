package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// ClientConfig represents the client.json configuration for NIP-89 client
// identification tags on published events
type ClientConfig struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	Pubkey    string `json:"pubkey"`    // Hex pubkey for the client
	Dtag      string `json:"dtag"`      // d-tag value for the 31990 handler event
	RelayHint string `json:"relayHint"` // Optional relay hint
	TagKinds  []int  `json:"tagKinds"`  // Which kinds get the client tag
	Version   string `json:"version"`
}

var (
	clientConfig     *ClientConfig
	clientConfigMu   sync.RWMutex
	clientConfigOnce sync.Once
)

// GetClientConfig returns the current client configuration (thread-safe)
func GetClientConfig() *ClientConfig {
	clientConfigOnce.Do(func() {
		clientConfigMu.Lock()
		defer clientConfigMu.Unlock()
		if clientConfig == nil {
			clientConfig = loadClientConfigFromFile()
		}
	})

	clientConfigMu.RLock()
	defer clientConfigMu.RUnlock()
	return clientConfig
}

func loadClientConfigFromFile() *ClientConfig {
	configPath := os.Getenv("CLIENT_CONFIG")
	if configPath == "" {
		configPath = "config/client.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("client config file not found, using defaults", "path", configPath)
		} else {
			slog.Warn("could not read client config, using defaults", "path", configPath, "error", err)
		}
		return getDefaultClientConfig()
	}

	var config ClientConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Error("invalid JSON in client config, using defaults", "path", configPath, "error", err)
		return getDefaultClientConfig()
	}

	if config.Enabled && config.Pubkey == "" {
		slog.Warn("client identification enabled but pubkey not configured")
	}

	return &config
}

func getDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Enabled:  false,
		Name:     "nostr-workbench",
		Dtag:     "nostr-workbench",
		TagKinds: []int{1, 6, 1111},
		Version:  "0.1.0",
	}
}

// ShouldTagKind returns true if the given kind should have a client tag added
func (c *ClientConfig) ShouldTagKind(kind int) bool {
	if !c.Enabled || c.Pubkey == "" {
		return false
	}
	for _, k := range c.TagKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// GetClientTag returns the client tag to add to events, or nil if disabled.
// Format: ["client", "<name>", "31990:<pubkey>:<dtag>", "<relay-hint>"]
func (c *ClientConfig) GetClientTag() []string {
	if !c.Enabled || c.Pubkey == "" {
		return nil
	}

	reference := fmt.Sprintf("31990:%s:%s", c.Pubkey, c.Dtag)

	if c.RelayHint != "" {
		return []string{"client", c.Name, reference, c.RelayHint}
	}
	return []string{"client", c.Name, reference}
}
