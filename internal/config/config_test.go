package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func load(t *testing.T, args []string, configFile string) *Config {
	t.Helper()
	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := Load(v, configFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := load(t, nil, "")
	if cfg.Addr != DefaultAddr || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("addr/log = %q/%q", cfg.Addr, cfg.LogLevel)
	}
	if !cfg.StrictRouting || cfg.EnforceDuration {
		t.Errorf("strict=%v enforce=%v", cfg.StrictRouting, cfg.EnforceDuration)
	}
	if cfg.DefaultDuration != 60*time.Minute || cfg.IdleTTL != DefaultIdleTTL {
		t.Errorf("durations = %v/%v", cfg.DefaultDuration, cfg.IdleTTL)
	}
	if cfg.PasskeyCost != bcrypt.DefaultCost || cfg.SendBuffer != DefaultSendBuffer || cfg.MaxMessageSize != DefaultMaxMessageSize {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestPriority(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "interview.yaml")
	yaml := "server:\n  addr: \":7000\"\nrooms:\n  idle_ttl: 2h\n  enforce_duration: true\nlog:\n  level: warn\n"
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("INTERVIEW_SERVER_ADDR", ":9000")
	t.Setenv("INTERVIEW_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("INTERVIEW_AUTH_JWT_SECRET", "from-env")

	cfg := load(t, []string{"--jwt-secret", "from-flag"}, file)

	if cfg.JWTSecret != "from-flag" {
		t.Errorf("flag should beat env: %q", cfg.JWTSecret)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("env should beat file: %q", cfg.Addr)
	}
	if cfg.IdleTTL != 2*time.Hour || !cfg.EnforceDuration || cfg.LogLevel != "warn" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLegacyLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if cfg := load(t, nil, ""); cfg.LogLevel != "debug" {
		t.Errorf("level = %q", cfg.LogLevel)
	}

	t.Setenv("INTERVIEW_LOG_LEVEL", "error")
	if cfg := load(t, nil, ""); cfg.LogLevel != "error" {
		t.Errorf("prefixed variable should win: %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	v := New()
	v.Set(KeyPasskeyCost, 1)
	v.Set(KeySendBuffer, 0)
	if _, err := Load(v, ""); err == nil {
		t.Fatal("invalid config accepted")
	}

	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}
