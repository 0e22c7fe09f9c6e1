package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	APIKey      string
	BaseURL     string
	DataDir     string
	DBPath      string
	SessionPath string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".flipswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "https://api.flipswap.exchange")
	viper.SetDefault("data_dir", defaultDataDir())

	// Read from environment variables
	viper.SetEnvPrefix("FLIPSWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		APIKey:  viper.GetString("api_key"),
		BaseURL: viper.GetString("base_url"),
		DataDir: viper.GetString("data_dir"),
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "completed.db")
	cfg.SessionPath = filepath.Join(cfg.DataDir, "session.json")

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not found. Please set FLIPSWAP_API_KEY environment variable or create a .flipswap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flipswap-data"
	}
	return filepath.Join(home, ".flipswap")
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
