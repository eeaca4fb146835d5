package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.Listen != "127.0.0.1:8053" {
		t.Errorf("expected Listen=127.0.0.1:8053, got %q", cfg.Listen)
	}
	if cfg.CacheDir != "/var/cache/rr-blocklist" {
		t.Errorf("expected CacheDir=/var/cache/rr-blocklist, got %q", cfg.CacheDir)
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("expected no sources by default, got %v", cfg.Sources)
	}
	if !cfg.RestoreOnStart {
		t.Errorf("expected RestoreOnStart=true")
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("expected FetchTimeout=30s, got %v", cfg.FetchTimeout)
	}
	if cfg.MaxListBytes != 64<<20 {
		t.Errorf("expected MaxListBytes=%d, got %d", 64<<20, cfg.MaxListBytes)
	}
	if !strings.HasPrefix(cfg.UserAgent, "rr-blocklist/") {
		t.Errorf("expected default UserAgent, got %q", cfg.UserAgent)
	}
	if cfg.DecisionCacheSize != 4096 {
		t.Errorf("expected DecisionCacheSize=4096, got %d", cfg.DecisionCacheSize)
	}
	if cfg.BloomFPRate != 0.01 {
		t.Errorf("expected BloomFPRate=0.01, got %v", cfg.BloomFPRate)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("RRBL_ENV", "dev")
	t.Setenv("RRBL_LOG_LEVEL", "debug")
	t.Setenv("RRBL_LISTEN", "0.0.0.0:9090")
	t.Setenv("RRBL_CACHE_DIR", "/tmp/lists")
	t.Setenv("RRBL_SOURCES", "https://a.example/list.txt,https://b.example/x?format=hosts /etc/blocklist.txt")
	t.Setenv("RRBL_RESTORE_ON_START", "false")
	t.Setenv("RRBL_FETCH_TIMEOUT", "5s")
	t.Setenv("RRBL_MAX_LIST_BYTES", "1024")
	t.Setenv("RRBL_USER_AGENT", "custom/1.0")
	t.Setenv("RRBL_DECISION_CACHE_SIZE", "0")
	t.Setenv("RRBL_BLOOM_FP_RATE", "0.001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected env/log level: %q/%q", cfg.Env, cfg.LogLevel)
	}
	if cfg.Listen != "0.0.0.0:9090" {
		t.Errorf("expected Listen=0.0.0.0:9090, got %q", cfg.Listen)
	}
	if cfg.CacheDir != "/tmp/lists" {
		t.Errorf("expected CacheDir=/tmp/lists, got %q", cfg.CacheDir)
	}
	wantSources := []string{"https://a.example/list.txt", "https://b.example/x?format=hosts", "/etc/blocklist.txt"}
	if len(cfg.Sources) != len(wantSources) {
		t.Fatalf("expected %d sources, got %v", len(wantSources), cfg.Sources)
	}
	for i, v := range wantSources {
		if cfg.Sources[i] != v {
			t.Errorf("expected Sources[%d]=%q, got %q", i, v, cfg.Sources[i])
		}
	}
	if cfg.RestoreOnStart {
		t.Errorf("expected RestoreOnStart=false")
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("expected FetchTimeout=5s, got %v", cfg.FetchTimeout)
	}
	if cfg.MaxListBytes != 1024 {
		t.Errorf("expected MaxListBytes=1024, got %d", cfg.MaxListBytes)
	}
	if cfg.UserAgent != "custom/1.0" {
		t.Errorf("expected UserAgent=custom/1.0, got %q", cfg.UserAgent)
	}
	if cfg.DecisionCacheSize != 0 {
		t.Errorf("expected DecisionCacheSize=0, got %d", cfg.DecisionCacheSize)
	}
	if cfg.BloomFPRate != 0.001 {
		t.Errorf("expected BloomFPRate=0.001, got %v", cfg.BloomFPRate)
	}

	srcs, err := cfg.ParsedSources()
	if err != nil {
		t.Fatalf("ParsedSources returned error: %v", err)
	}
	if !srcs[0].IsRemote() || srcs[2].IsRemote() {
		t.Errorf("unexpected source kinds: %v %v", srcs[0].Kind(), srcs[2].Kind())
	}
}

func TestLoad_SingleSource(t *testing.T) {
	t.Setenv("RRBL_SOURCES", "file:///etc/blocklist.txt")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0] != "file:///etc/blocklist.txt" {
		t.Errorf("unexpected sources: %v", cfg.Sources)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"RRBL_ENV":                 "staging",
		"RRBL_LOG_LEVEL":           "trace",
		"RRBL_LISTEN":              "not-a-listen-address",
		"RRBL_CACHE_DIR":           "",
		"RRBL_SOURCES":             "ftp://example.com/list.txt",
		"RRBL_FETCH_TIMEOUT":       "0s",
		"RRBL_MAX_LIST_BYTES":      "0",
		"RRBL_USER_AGENT":          "",
		"RRBL_DECISION_CACHE_SIZE": "-1",
		"RRBL_BLOOM_FP_RATE":       "1.5",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q, got nil", key, value)
			}
		})
	}
}

func TestLoad_NonNumeric(t *testing.T) {
	t.Setenv("RRBL_DECISION_CACHE_SIZE", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric DECISION_CACHE_SIZE, got nil")
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestValidSource(t *testing.T) {
	cases := []struct {
		input    string
		expected bool
	}{
		{"/etc/blocklist.txt", true},
		{"lists/local.txt", true},
		{"file:///etc/blocklist.txt", true},
		{"https://example.com/hosts", true},
		{"http://example.com/hosts?x=1", true},
		{"ftp://example.com/hosts", false},
		{"https:///nohost", false},
		{"", false},
	}

	validate := validator.New()
	_ = validate.RegisterValidation("source", validSource)

	for _, tc := range cases {
		type S struct {
			Src string `validate:"source"`
		}
		err := validate.Struct(S{Src: tc.input})
		if tc.expected && err != nil {
			t.Errorf("validSource(%q) = false, want true", tc.input)
		}
		if !tc.expected && err == nil {
			t.Errorf("validSource(%q) = true, want false", tc.input)
		}
	}
}

func TestDefaultLoader_LoadsDefaults(t *testing.T) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		t.Fatalf("defaultLoader returned error: %v", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.Env != DEFAULT_APP_CONFIG.Env {
		t.Errorf("expected Env=%q, got %q", DEFAULT_APP_CONFIG.Env, cfg.Env)
	}
	if cfg.CacheDir != DEFAULT_APP_CONFIG.CacheDir {
		t.Errorf("expected CacheDir=%q, got %q", DEFAULT_APP_CONFIG.CacheDir, cfg.CacheDir)
	}
	if cfg.FetchTimeout != DEFAULT_APP_CONFIG.FetchTimeout {
		t.Errorf("expected FetchTimeout=%v, got %v", DEFAULT_APP_CONFIG.FetchTimeout, cfg.FetchTimeout)
	}
}

func TestDefaultLoader_InvalidDefault_ValidationFails(t *testing.T) {
	orig := DEFAULT_APP_CONFIG
	defer func() { DEFAULT_APP_CONFIG = orig }()

	DEFAULT_APP_CONFIG.Sources = []string{"gopher://example.com/list"}

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for invalid default source, got nil")
	}
}
