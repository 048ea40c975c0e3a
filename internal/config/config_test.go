package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIURL != "" {
		t.Errorf("APIURL = %q, want empty", cfg.APIURL)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want info", cfg.Logger.Level)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry should default to disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Textfile = "/var/lib/node_exporter/zbx_export.prom"
		cfg.Telemetry.OTLPEndpoint = "localhost:4318"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("uppercase level accepted", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logger.Level = "DEBUG"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logger.Level = "chatty"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "logger.level") {
			t.Errorf("expected logger.level error, got: %v", err)
		}
	})

	t.Run("endpoint with scheme", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Telemetry.OTLPEndpoint = "http://collector:4318"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "otlp_endpoint") {
			t.Errorf("expected otlp_endpoint error, got: %v", err)
		}
	})

	t.Run("textfile without .prom", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Textfile = "/tmp/metrics.txt"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "metrics.textfile") {
			t.Errorf("expected metrics.textfile error, got: %v", err)
		}
	})

	t.Run("multiple errors at once", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logger.Level = ""
		cfg.Metrics.Textfile = "out.txt"
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		errStr := err.Error()
		if !strings.Contains(errStr, "logger.level") {
			t.Error("expected logger.level error in combined output")
		}
		if !strings.Contains(errStr, "metrics.textfile") {
			t.Error("expected metrics.textfile error in combined output")
		}
	})
}

func TestValidAPIURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://zabbix.example.com/api_jsonrpc.php", true},
		{"http://10.0.0.5:8080/zabbix/api_jsonrpc.php", true},
		{"https://zabbix.example.com/", false},
		{"zabbix.example.com/api_jsonrpc.php", false},
		{"ftp://zabbix.example.com/api_jsonrpc.php", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ValidAPIURL(tt.url); got != tt.want {
				t.Errorf("ValidAPIURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want info", cfg.Logger.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := `
api_url: "https://zabbix.example.com/api_jsonrpc.php"
user:
  username: Admin
  password: zabbix
logger:
  log_file: /tmp/zbx-export.log
  level: debug
metrics:
  textfile: /tmp/zbx_export.prom
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "https://zabbix.example.com/api_jsonrpc.php" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.User.Username != "Admin" {
		t.Errorf("Username = %q, want Admin", cfg.User.Username)
	}
	if cfg.User.Password != "zabbix" {
		t.Errorf("Password = %q, want zabbix", cfg.User.Password)
	}
	if cfg.Logger.LogFile != "/tmp/zbx-export.log" {
		t.Errorf("LogFile = %q", cfg.Logger.LogFile)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.Metrics.Textfile != "/tmp/zbx_export.prom" {
		t.Errorf("Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoadYAML_LegacyLoggerKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zabbix-api-config.yml")

	content := `
api_url: "http://zabbix.local/api_jsonrpc.php"
user:
  username:
  password:
logger_conf:
  log_file_fullname: /var/log/zabbix-api.log
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logger.LogFile != "/var/log/zabbix-api.log" {
		t.Errorf("LogFile = %q, want legacy value", cfg.Logger.LogFile)
	}
	if cfg.User.Username != "" || cfg.User.Password != "" {
		t.Errorf("empty credentials should stay empty, got %q/%q", cfg.User.Username, cfg.User.Password)
	}
}

func TestLoadYAML_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := `
api_url: "http://zabbix.local/api_jsonrpc.php"
user:
  username: Admin
  password: from-file
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ZBX_EXPORT_USER__PASSWORD", "from-env")
	t.Setenv("ZBX_EXPORT_API_URL", "https://other.local/api_jsonrpc.php")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.User.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.User.Password)
	}
	if cfg.APIURL != "https://other.local/api_jsonrpc.php" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.User.Username != "Admin" {
		t.Errorf("Username = %q, want Admin", cfg.User.Username)
	}
}

func TestLoadYAML_InvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	if err := os.WriteFile(path, []byte("logger:\n  level: loud\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logger.level") {
		t.Errorf("expected logger.level error, got: %v", err)
	}
}

func TestLoadINI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.conf")

	content := `[zabbix]
ApiUrl = http://zabbix.local/api_jsonrpc.php
Username = admin
Password = secret

[logger]
LogFile = /tmp/export.log
LogLevel = warn
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "http://zabbix.local/api_jsonrpc.php" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.User.Username != "admin" {
		t.Errorf("Username = %q, want admin", cfg.User.Username)
	}
	if cfg.User.Password != "secret" {
		t.Errorf("Password = %q, want secret", cfg.User.Password)
	}
	if cfg.Logger.LogFile != "/tmp/export.log" {
		t.Errorf("LogFile = %q", cfg.Logger.LogFile)
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logger.Level)
	}
}

func TestINIToMap_UnrecognizedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.conf")

	content := `[zabbix]
ApiUrl = http://zabbix.local/api_jsonrpc.php
UnknownKey = some_value
AnotherBadKey = 123
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, warnings, err := loadINIFile(path)
	if err != nil {
		t.Fatalf("loadINIFile() error: %v", err)
	}

	if cfg.APIURL != "http://zabbix.local/api_jsonrpc.php" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}

	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	for _, w := range warnings {
		if !strings.Contains(w, "[zabbix]") {
			t.Errorf("warning should name the section, got: %s", w)
		}
	}
}

func TestINIToMap_NoWarningsForKnownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.conf")

	content := `ApiUrl = http://zabbix.local/api_jsonrpc.php
Username = admin
Password = secret
MetricsTextfile = /tmp/zbx.prom
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, warnings, err := loadINIFile(path)
	if err != nil {
		t.Fatalf("loadINIFile() error: %v", err)
	}

	if len(warnings) != 0 {
		t.Errorf("expected 0 warnings for all-known keys, got %d: %v", len(warnings), warnings)
	}
}
