package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

// envPrefix marks the variables read by Load, e.g. RRBL_CACHE_DIR.
const envPrefix = "RRBL_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Listen is the host:port of the status API.
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	// CacheDir holds one cache file per remote list.
	CacheDir string `koanf:"cache_dir" validate:"required"`

	// Sources are list locators in the order they are loaded: file paths,
	// file:// URLs or http(s):// URLs. Separated by spaces or commas.
	Sources []string `koanf:"sources" validate:"dive,source"`

	// RestoreOnStart builds the first snapshot from cache files where present.
	RestoreOnStart bool `koanf:"restore_on_start"`

	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	MaxListBytes int64         `koanf:"max_list_bytes" validate:"gte=1"`
	UserAgent    string        `koanf:"user_agent" validate:"required"`

	// DecisionCacheSize bounds the per-snapshot lookup cache; 0 disables it.
	DecisionCacheSize int `koanf:"decision_cache_size" validate:"gte=0"`

	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`
}

// Version is stamped into the default User-Agent. Overridden at build time.
var Version = "dev"

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:               "prod",
	LogLevel:          "info",
	Listen:            "127.0.0.1:8053",
	CacheDir:          "/var/cache/rr-blocklist",
	Sources:           []string{},
	RestoreOnStart:    true,
	FetchTimeout:      30 * time.Second,
	MaxListBytes:      64 << 20,
	UserAgent:         "rr-blocklist/" + Version,
	DecisionCacheSize: 4096,
	BloomFPRate:       0.01,
}

// validSource reports whether the field is a list locator ParseSource accepts.
func validSource(fl validator.FieldLevel) bool {
	_, err := domain.ParseSource(fl.Field().String())
	return err == nil
}

// envLoader loads environment variables with the prefix "RRBL_".
// Keys are lower-cased with the prefix removed; values holding spaces or
// commas become lists. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into k.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "source" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("source", validSource)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// ParsedSources returns Sources as parsed locators.
func (c *AppConfig) ParsedSources() ([]domain.Source, error) {
	return domain.ParseSources(c.Sources)
}
