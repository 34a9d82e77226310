package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
)

const (
	DefaultPort              = 3000
	DefaultBackendURL        = "http://localhost:8000"
	DefaultUploadLimitMB     = 50
	DefaultSessionTTLMinutes = 120
	DefaultMaxSessions       = 1000
	DefaultStatusResetSecs   = 3
	DefaultPreviewChars      = 200
	DefaultProbeSpec         = "*/1 * * * *"
	DefaultProbeTimeoutSecs  = 10
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Backend       BackendConfig    `json:"backend"`
	Upload        UploadConfig     `json:"upload"`
	Chat          ChatConfig       `json:"chat"`
	Archive       ArchiveConfig    `json:"archive"`
	Probe         ProbeConfig      `json:"probe"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

type BackendConfig struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds of 0 leaves backend calls unbounded.
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type UploadConfig struct {
	MaxSizeMB int `json:"max_size_mb"`
}

func (c UploadConfig) MaxBytes() int64 {
	return int64(c.MaxSizeMB) * 1024 * 1024
}

type ChatConfig struct {
	SessionSecret      string `json:"session_secret"`
	SessionTTLMinutes  int    `json:"session_ttl_minutes"`
	MaxSessions        int    `json:"max_sessions"`
	StatusResetSeconds int    `json:"status_reset_seconds"`
	PreviewChars       int    `json:"reference_preview_chars"`
}

func (c ChatConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c ChatConfig) StatusReset() time.Duration {
	return time.Duration(c.StatusResetSeconds) * time.Second
}

type ArchiveConfig struct {
	Enabled bool        `json:"enabled"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data"`
}

type ProbeConfig struct {
	Disabled       bool   `json:"disabled"`
	Spec           string `json:"spec"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads the JSON file at path (optional), applies environment overrides
// and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("INSINTEL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INSINTEL_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("INSINTEL_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("INSINTEL_SESSION_SECRET"); v != "" {
		cfg.Chat.SessionSecret = v
	}
	if v := os.Getenv("INSINTEL_LOG_LEVEL"); v != "" {
		cfg.LogConfig.Level = v
	}
	return nil
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}

	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = DefaultBackendURL
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an http(s) url: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative")
	}

	if cfg.Upload.MaxSizeMB <= 0 {
		cfg.Upload.MaxSizeMB = DefaultUploadLimitMB
	}

	if cfg.Chat.SessionTTLMinutes <= 0 {
		cfg.Chat.SessionTTLMinutes = DefaultSessionTTLMinutes
	}
	if cfg.Chat.MaxSessions <= 0 {
		cfg.Chat.MaxSessions = DefaultMaxSessions
	}
	if cfg.Chat.StatusResetSeconds <= 0 {
		cfg.Chat.StatusResetSeconds = DefaultStatusResetSecs
	}
	if cfg.Chat.PreviewChars <= 0 {
		cfg.Chat.PreviewChars = DefaultPreviewChars
	}

	if cfg.Archive.Enabled {
		if cfg.Archive.Type == "" {
			cfg.Archive.Type = "local"
		}
		switch cfg.Archive.Type {
		case "local", "s3":
		default:
			return fmt.Errorf("archive.type must be local or s3")
		}
	}

	if cfg.Probe.Spec == "" {
		cfg.Probe.Spec = DefaultProbeSpec
	}
	if cfg.Probe.TimeoutSeconds <= 0 {
		cfg.Probe.TimeoutSeconds = DefaultProbeTimeoutSecs
	}
	return nil
}
