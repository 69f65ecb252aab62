package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ClientConfig configures the terminal dashboard. Values come from an optional
// YAML file and are overridden by environment variables.
type ClientConfig struct {
	APIURL string        `yaml:"api_url" env:"DASHBOARD_API_URL" env-default:"http://127.0.0.1:5000"`
	// Timeout bounds every HTTP request; zero leaves the transport default in place.
	Timeout time.Duration `yaml:"timeout" env:"DASHBOARD_TIMEOUT" env-default:"0s"`
	// SearchDebounce delays roster refreshes triggered by search edits.
	// Zero issues one request per change.
	SearchDebounce time.Duration `yaml:"search_debounce" env:"DASHBOARD_SEARCH_DEBOUNCE" env-default:"0s"`
	// Live subscribes to server-side roster events over WebSocket.
	Live      bool   `yaml:"live" env:"DASHBOARD_LIVE" env-default:"false"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"warn"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"pretty"`
}

// LoadClient reads the dashboard configuration. An empty path reads the
// environment only.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig

	if path == "" {
		path = os.Getenv("DASHBOARD_CONFIG")
	}

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}
