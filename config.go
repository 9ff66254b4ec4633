package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds application configuration from ~/.debrief/bridge.json
type Config struct {
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Workspace  string `json:"workspace,omitempty"`
	LegacyEcho *bool  `json:"legacy_echo,omitempty"`
}

func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".debrief", "bridge.json"), nil
}

// LoadConfig reads configuration from ~/.debrief/bridge.json, then applies
// environment overrides and defaults.
func LoadConfig(logger *log.Logger) (*Config, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	cfg := &Config{}
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Printf("Config file not found at %s, using defaults and environment variables", path)
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse bridge.json: %w", err)
		}
		logger.Printf("Loaded config from %s", path)
	}

	// Override with environment variables if present
	if host := os.Getenv("DEBRIEF_BRIDGE_HOST"); host != "" {
		cfg.Host = host
	}
	if portStr := os.Getenv("DEBRIEF_BRIDGE_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = p
		} else {
			logger.Printf("Warning: ignoring non-numeric DEBRIEF_BRIDGE_PORT=%q", portStr)
		}
	}
	if workspace := os.Getenv("DEBRIEF_WORKSPACE"); workspace != "" {
		cfg.Workspace = workspace
	}
	if echoStr := os.Getenv("DEBRIEF_LEGACY_ECHO"); echoStr != "" {
		echo := echoStr == "1" || echoStr == "true"
		cfg.LegacyEcho = &echo
	}

	// Set defaults
	if cfg.Host == "" {
		cfg.Host = DefaultBridgeHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultBridgePort
	}
	if cfg.LegacyEcho == nil {
		echo := true
		cfg.LegacyEcho = &echo
	}

	return cfg, nil
}

// SaveConfig writes configuration to ~/.debrief/bridge.json
func SaveConfig(cfg *Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create .debrief directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write bridge.json: %w", err)
	}

	logger.Printf("Saved config to %s", path)
	return nil
}

// ServerSettings converts the config into bridge server settings.
func (cfg *Config) ServerSettings() *BridgeServerSettings {
	settings := DefaultBridgeServerSettings()
	settings.Host = cfg.Host
	settings.Port = cfg.Port
	if cfg.LegacyEcho != nil {
		settings.LegacyEcho = *cfg.LegacyEcho
	}
	return settings
}
