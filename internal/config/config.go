// Package config loads Galleria settings from defaults, an optional YAML
// file and GALLERIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// GALLERIA_API_BASE_URL overrides api.base_url.
const EnvPrefix = "GALLERIA"

// Config is read-only access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	// Sub returns the subtree rooted at key. It never returns nil.
	Sub(key string) Config
	Unmarshal(target any) error
}

// Compile-time interface guard.
var _ Config = (*ViperConfig)(nil)

// ViperConfig implements Config on top of a viper instance.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v. A nil v behaves as an empty configuration.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

// Viper returns the wrapped viper instance.
func (c *ViperConfig) Viper() *viper.Viper                  { return c.v }
func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *ViperConfig) Unmarshal(target any) error           { return c.v.Unmarshal(target) }

func (c *ViperConfig) Sub(key string) Config {
	return New(c.v.Sub(key))
}

// Defaults returns the built-in default values keyed by config path.
func Defaults() map[string]any {
	return map[string]any{
		"api.base_url":              "http://localhost:3000",
		"api.timeout":               "10s",
		"api.rate_limit":            10.0,
		"api.burst":                 5,
		"auth.base_url":             "",
		"auth.api_key":              "",
		"query.page_size":           12,
		"cache.path":                "galleria.db",
		"cache.max_age":             "10m",
		"server.host":               "127.0.0.1",
		"server.port":               "8080",
		"plugins.explore.enabled":   true,
		"plugins.studio.enabled":    true,
		"plugins.favorites.enabled": true,
		"session.path":              DefaultSessionPath(),
	}
}

// DefaultSessionPath returns ~/.galleria/session.yaml, or an empty string
// when the home directory cannot be determined.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".galleria", "session.yaml")
}

// Load builds a viper instance from defaults, the YAML file at path (if
// non-empty) and environment overrides. Without an explicit path it looks
// for galleria.yaml in the working directory and ~/.galleria, and a missing
// file is not an error.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("galleria")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".galleria"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}
