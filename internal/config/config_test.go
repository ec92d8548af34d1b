package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" || cfg.Database.Path != "xtc.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Schedule.HomeInterval != 24*time.Hour || cfg.Schedule.ProgressRetention != 7*24*time.Hour || cfg.Schedule.HomeWindow != 30*24*time.Hour {
		t.Fatalf("unexpected schedule defaults: %+v", cfg.Schedule)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xtc.yaml")
	yaml := `
server:
  addr: "0.0.0.0:9000"
upstream:
  timeout: 5s
  insecure_skip_verify: true
schedule:
  home_interval: 6h
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XTC_ADDR", "127.0.0.1:7000")
	t.Setenv("XTC_CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("XTC_UNKNOWN_THING", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Fatalf("env should override file, addr=%q", cfg.Server.Addr)
	}
	if cfg.Upstream.Timeout != 5*time.Second || !cfg.Upstream.InsecureSkipVerify {
		t.Fatalf("file values not applied: %+v", cfg.Upstream)
	}
	if cfg.Schedule.HomeInterval != 6*time.Hour || cfg.Logging.Format != "json" {
		t.Fatalf("file values not applied: %+v %+v", cfg.Schedule, cfg.Logging)
	}
	if strings.Join(cfg.Security.CORSOrigins, "|") != "https://a.test|https://b.test" {
		t.Fatalf("cors origins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Database.Path != "xtc.db" {
		t.Fatalf("unset values keep defaults, db=%q", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Upstream.Timeout = 0
	cfg.Schedule.HomeInterval = -time.Second
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"upstream.timeout", "schedule.home_interval", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}
