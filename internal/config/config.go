package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Quiet   bool `mapstructure:"quiet"`
	Verbose bool `mapstructure:"verbose"`

	// Watch command defaults
	Watch WatchConfig `mapstructure:"watch"`
}

// WatchConfig holds default values for the watch command
type WatchConfig struct {
	Device      string `mapstructure:"device"`
	Physical    bool   `mapstructure:"physical"`
	Tmux        bool   `mapstructure:"tmux"`
	TmuxSession string `mapstructure:"tmux_session"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			Device: "booted",
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.acw.yaml or ./.acw.yml
// 2. ~/.acw.yaml or ~/.acw.yml
// 3. $XDG_CONFIG_HOME/acw/config.yaml (or ~/.config/acw/config.yaml)
// 4. /etc/acw/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".acw.yaml", ".acw.yml", "acw.yaml", "acw.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "acw"))
	}
	searchPaths = append(searchPaths, "/etc/acw")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACW_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("ACW_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("ACW_DEVICE"); v != "" {
		cfg.Watch.Device = v
	}
	if v := os.Getenv("ACW_PHYSICAL"); v == "true" || v == "1" {
		cfg.Watch.Physical = true
	}
	if v := os.Getenv("ACW_TMUX"); v == "true" || v == "1" {
		cfg.Watch.Tmux = true
	}
}
