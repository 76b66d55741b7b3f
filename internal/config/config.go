// Package config handles loading and persisting user configuration
// for fitbuddy. Configuration is stored in ~/.fitbuddy/config.json and
// can be overridden per run with FITBUDDY_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirName  = ".fitbuddy"
	fileName = "config.json"

	DefaultBaseURL     = "http://localhost:8787"
	ChatPath           = "/functions/v1/ai-chat"
	DietPath           = "/functions/v1/diet-advisor"
	defaultUpstreamURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	defaultModel       = "google/gemini-3-flash-preview"
	defaultListen      = ":8787"
	defaultTimeout     = 60
	defaultRateLimit   = 30
	defaultMaxFrame    = 1 << 20

	envKeyAPIKey      = "FITBUDDY_API_KEY"
	envKeyChatURL     = "FITBUDDY_CHAT_URL"
	envKeyDietURL     = "FITBUDDY_DIET_URL"
	envKeyUpstreamURL = "FITBUDDY_UPSTREAM_URL"
	envKeyUpstreamKey = "FITBUDDY_UPSTREAM_KEY"
	envKeyGatewayKey  = "LOVABLE_API_KEY"
	envKeyModel       = "FITBUDDY_MODEL"
	envKeyListen      = "FITBUDDY_LISTEN"
)

// Config holds the user's configuration.
type Config struct {
	// APIKey is sent as the bearer token to the function endpoints.
	APIKey         string       `json:"api_key,omitempty"`
	ChatURL        string       `json:"chat_url"`
	DietURL        string       `json:"diet_url"`
	TimeoutSeconds int          `json:"timeout_seconds"`
	MaxFrameBytes  int          `json:"max_frame_bytes"`
	Server         ServerConfig `json:"server"`
}

// ServerConfig configures `fitbuddy serve`.
type ServerConfig struct {
	Listen      string `json:"listen"`
	UpstreamURL string `json:"upstream_url"`
	UpstreamKey string `json:"upstream_key,omitempty"`
	Model       string `json:"model"`
	// ClientKey, when set, must be presented as the bearer token by callers.
	ClientKey          string `json:"client_key,omitempty"`
	AllowedOrigins     string `json:"allowed_origins"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ChatURL:        DefaultBaseURL + ChatPath,
		DietURL:        DefaultBaseURL + DietPath,
		TimeoutSeconds: defaultTimeout,
		MaxFrameBytes:  defaultMaxFrame,
		Server: ServerConfig{
			Listen:             defaultListen,
			UpstreamURL:        defaultUpstreamURL,
			Model:              defaultModel,
			AllowedOrigins:     "*",
			RateLimitPerMinute: defaultRateLimit,
		},
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

func configPath() string {
	return filepath.Join(Dir(), fileName)
}

// Load reads the configuration from disk and environment variables.
// A missing or unreadable file yields the defaults.
func Load() (*Config, error) {
	cfg := readFile()

	if v := os.Getenv(envKeyAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(envKeyChatURL); v != "" {
		cfg.ChatURL = v
	}
	if v := os.Getenv(envKeyDietURL); v != "" {
		cfg.DietURL = v
	}
	if v := os.Getenv(envKeyUpstreamURL); v != "" {
		cfg.Server.UpstreamURL = v
	}
	if v := os.Getenv(envKeyGatewayKey); v != "" {
		cfg.Server.UpstreamKey = v
	}
	if v := os.Getenv(envKeyUpstreamKey); v != "" {
		cfg.Server.UpstreamKey = v
	}
	if v := os.Getenv(envKeyModel); v != "" {
		cfg.Server.Model = v
	}
	if v := os.Getenv(envKeyListen); v != "" {
		cfg.Server.Listen = v
	}

	cfg.fillDefaults()
	return cfg, nil
}

// RequestTimeout bounds connecting and waiting for response headers.
func (c *Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaskedKey shows only the ends of the API key.
func (c *Config) MaskedKey() string {
	return mask(c.APIKey)
}

func mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.ChatURL == "" {
		c.ChatURL = def.ChatURL
	}
	if c.DietURL == "" {
		c.DietURL = def.DietURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = def.MaxFrameBytes
	}
	if c.Server.Listen == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Server.UpstreamURL == "" {
		c.Server.UpstreamURL = def.Server.UpstreamURL
	}
	if c.Server.Model == "" {
		c.Server.Model = def.Server.Model
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if c.Server.RateLimitPerMinute <= 0 {
		c.Server.RateLimitPerMinute = def.Server.RateLimitPerMinute
	}
}

// readFile returns the on-disk config without environment overrides.
func readFile() *Config {
	cfg := Default()
	data, err := os.ReadFile(configPath())
	if err == nil {
		_ = json.Unmarshal(data, cfg)
	}
	return cfg
}

// save persists the config to disk.
func save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath(), data, 0o600)
}

func update(fn func(*Config)) error {
	cfg := readFile()
	fn(cfg)
	return save(cfg)
}

// SetAPIKey saves the bearer key for the function endpoints.
func SetAPIKey(key string) error {
	return update(func(c *Config) { c.APIKey = strings.TrimSpace(key) })
}

// SetEndpoint points both function URLs at baseURL, e.g.
// https://<project>.supabase.co or http://localhost:8787.
func SetEndpoint(baseURL string) error {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint URL %q", baseURL)
	}
	base := strings.TrimRight(u.String(), "/")
	return update(func(c *Config) {
		c.ChatURL = base + ChatPath
		c.DietURL = base + DietPath
	})
}

// SetModel saves the upstream model used by `fitbuddy serve`.
func SetModel(model string) error {
	return update(func(c *Config) { c.Server.Model = strings.TrimSpace(model) })
}

// SetUpstreamKey saves the gateway key used by `fitbuddy serve`.
func SetUpstreamKey(key string) error {
	return update(func(c *Config) { c.Server.UpstreamKey = strings.TrimSpace(key) })
}
