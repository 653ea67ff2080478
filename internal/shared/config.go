package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// APIURLEnv overrides [APIConfig.BaseURL] when set.
const APIURLEnv = "FLIX_API_URL"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
}

// APIConfig contains settings for the remote movie API.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables client-side rate limiting
}

// Timeout returns the request timeout as a [time.Duration].
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains settings for the local session database.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig controls logger verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ServerConfig contains settings for the mock movie API server.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	JWTSecret string `toml:"jwt_secret"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

func (c *Config) applyEnv() {
	if url := os.Getenv(APIURLEnv); url != "" {
		c.API.BaseURL = url
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
