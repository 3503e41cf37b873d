// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Algolia AlgoliaConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Mode is "memory" or "firestore".
	Mode            string `mapstructure:"mode"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AlgoliaConfig holds search index settings. Search is disabled when AppID or
// APIKey is empty.
type AlgoliaConfig struct {
	AppID     string `mapstructure:"app_id"`
	APIKey    string `mapstructure:"api_key"`
	IndexName string `mapstructure:"index_name"`
}

// Load reads configuration from an optional YAML file and env. Env var
// overrides use prefix FINBUDDY_, e.g. FINBUDDY_STORE_MODE=firestore.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", "8111")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("store.mode", "memory")
	v.SetDefault("store.project_id", "")
	v.SetDefault("store.credentials_file", "")
	v.SetDefault("algolia.app_id", "")
	v.SetDefault("algolia.api_key", "")
	v.SetDefault("algolia.index_name", "finbuddy_transactions")

	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/finbuddy")

	v.SetEnvPrefix("FINBUDDY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.Store.Mode != "memory" && c.Store.Mode != "firestore" {
		return Config{}, fmt.Errorf("unknown store mode %q", c.Store.Mode)
	}
	if c.Store.Mode == "firestore" && c.Store.ProjectID == "" {
		return Config{}, fmt.Errorf("store.project_id is required in firestore mode")
	}
	return c, nil
}
