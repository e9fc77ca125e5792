package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds the server configuration.
type Config struct {
	Port       int    `json:"port"`
	OnlineMode bool   `json:"online_mode"`
	MOTD       string `json:"motd"`
	MaxPlayers int    `json:"max_players"`

	// CompressionThreshold enables packet compression for bodies of at
	// least this many bytes. Negative disables compression.
	CompressionThreshold int `json:"compression_threshold"`

	KeepAliveIntervalSeconds int `json:"keep_alive_interval_seconds"`
	KeepAliveMaxMissed       int `json:"keep_alive_max_missed"`
	ReadTimeoutSeconds       int `json:"read_timeout_seconds"`
	WriteTimeoutSeconds      int `json:"write_timeout_seconds"`

	WelcomeMessage string `json:"welcome_message"`
	Favicon        string `json:"favicon"` // path to a 64x64 PNG
	LevelType      string `json:"level_type"`

	DataDir   string `json:"data_dir"`   // empty disables player persistence
	AdminAddr string `json:"admin_addr"` // empty disables the admin HTTP server

	ChatRateLimit float64 `json:"chat_rate_limit"` // messages per second
	ChatBurst     int     `json:"chat_burst"`

	LogLevel string `json:"log_level"`

	MQTT MQTTConfig `json:"mqtt"`
}

// MQTTConfig configures the event sink.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	Port        int    `json:"port"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:                     25565,
		OnlineMode:               false,
		MOTD:                     "An Obsidian Server",
		MaxPlayers:               20,
		CompressionThreshold:     -1,
		KeepAliveIntervalSeconds: 10,
		KeepAliveMaxMissed:       3,
		ReadTimeoutSeconds:       30,
		WriteTimeoutSeconds:      10,
		WelcomeMessage:           "Welcome to Obsidian!",
		LevelType:                "default",
		AdminAddr:                ":8080",
		ChatRateLimit:            2,
		ChatBurst:                5,
		LogLevel:                 "info",
		MQTT: MQTTConfig{
			Port:        1883,
			ClientID:    "obsidian",
			TopicPrefix: "obsidian",
		},
	}
}

// Load reads a JSON config file over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port out of range: %d", c.Port)
	case c.MaxPlayers < 0 || c.MaxPlayers > 255:
		return fmt.Errorf("max_players must be within 0-255, got %d", c.MaxPlayers)
	case c.KeepAliveIntervalSeconds <= 0:
		return fmt.Errorf("keep_alive_interval_seconds must be positive, got %d", c.KeepAliveIntervalSeconds)
	case c.KeepAliveMaxMissed <= 0:
		return fmt.Errorf("keep_alive_max_missed must be positive, got %d", c.KeepAliveMaxMissed)
	case c.ChatBurst <= 0 && c.ChatRateLimit > 0:
		return fmt.Errorf("chat_burst must be positive when chat_rate_limit is set")
	case c.MQTT.Enabled && c.MQTT.Broker == "":
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAliveIntervalSeconds) * time.Second
}

// ReadTimeout is zero when read deadlines are disabled.
func (c *Config) ReadTimeout() time.Duration {
	if c.ReadTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout bounds a single packet write. Zero disables write deadlines.
func (c *Config) WriteTimeout() time.Duration {
	if c.WriteTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return l, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["port"] {
		cfg.Port = fromFile.Port
	}
	if !explicitFlags["online-mode"] {
		cfg.OnlineMode = fromFile.OnlineMode
	}
	if !explicitFlags["motd"] {
		cfg.MOTD = fromFile.MOTD
	}
	if !explicitFlags["max-players"] {
		cfg.MaxPlayers = fromFile.MaxPlayers
	}
	if !explicitFlags["compression-threshold"] {
		cfg.CompressionThreshold = fromFile.CompressionThreshold
	}
	if !explicitFlags["keep-alive-interval"] {
		cfg.KeepAliveIntervalSeconds = fromFile.KeepAliveIntervalSeconds
	}
	if !explicitFlags["data-dir"] {
		cfg.DataDir = fromFile.DataDir
	}
	if !explicitFlags["admin-addr"] {
		cfg.AdminAddr = fromFile.AdminAddr
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}

	// File-only settings.
	cfg.KeepAliveMaxMissed = fromFile.KeepAliveMaxMissed
	cfg.ReadTimeoutSeconds = fromFile.ReadTimeoutSeconds
	cfg.WriteTimeoutSeconds = fromFile.WriteTimeoutSeconds
	cfg.WelcomeMessage = fromFile.WelcomeMessage
	cfg.Favicon = fromFile.Favicon
	cfg.LevelType = fromFile.LevelType
	cfg.ChatRateLimit = fromFile.ChatRateLimit
	cfg.ChatBurst = fromFile.ChatBurst
	cfg.MQTT = fromFile.MQTT
}
