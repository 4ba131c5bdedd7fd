// Package config loads campusctl configuration from defaults, an optional
// TOML file, and CAMPUS_-prefixed environment variables, in that order of
// precedence (later sources win).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables read by Load. A double
// underscore separates nesting levels so key names may themselves contain
// single underscores, e.g. CAMPUS_API__BASE_URL -> api.base_url.
const envPrefix = "CAMPUS_"

// Config is the full campusctl configuration.
type Config struct {
	API     API     `koanf:"api"`
	Log     Log     `koanf:"log"`
	Cookies Cookies `koanf:"cookies"`
}

// API configures the REST client.
type API struct {
	BaseURL        string        `koanf:"base_url" validate:"required,http_url"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout" validate:"gt=0"`
	CSRFCookie     string        `koanf:"csrf_cookie" validate:"required"`
}

// Log configures the slog output.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Cookies configures how session cookies persist between invocations.
type Cookies struct {
	// Storage selects the persistence backend: "keyring" uses the OS
	// secret store, "none" keeps cookies in memory for one invocation.
	Storage string `koanf:"storage" validate:"oneof=keyring none"`
	// Service is the keyring service name cookies are filed under.
	Service string `koanf:"service" validate:"required"`
}

func defaults() map[string]any {
	return map[string]any{
		"api.timeout":         30 * time.Second,
		"api.refresh_timeout": 15 * time.Second,
		"api.csrf_cookie":     "csrftoken",
		"log.level":           "info",
		"log.format":          "text",
		"cookies.storage":     "keyring",
		"cookies.service":     "campusctl",
	}
}

// Load reads configuration with the given optional file path. A path that
// does not exist is an error only when explicitly provided.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate applies the struct validation tags and rewrites the first
// failure into a readable message.
func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: field %s failed rule %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}
