package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/ini.v1"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "ZBX_EXPORT_"

// configSearchPaths lists config file paths to try, in priority order.
var configSearchPaths = []string{
	"./zabbix-api-config.yml", // legacy name, read from the working directory
	"/etc/zbx-export.yaml",
	"/etc/zbx-export.conf", // INI
}

// FindConfigPath returns the first existing config file from the search paths.
// An empty string means no file was found; the config file is optional.
func FindConfigPath() string {
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Config holds all configuration values for zbx-export
type Config struct {
	APIURL    string          `koanf:"api_url"`
	User      UserConfig      `koanf:"user"`
	Logger    LoggerConfig    `koanf:"logger"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// UserConfig holds the Zabbix API credentials. Both may be empty, in which
// case they are asked for interactively.
type UserConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// LoggerConfig selects the log destination and level.
type LoggerConfig struct {
	LogFile string `koanf:"log_file"`
	Level   string `koanf:"level"`
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// MetricsConfig points at a node_exporter textfile collector file. Empty
// disables the metrics dump.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Load reads configuration from a file, auto-detecting format by extension.
// .yaml/.yml → YAML, .conf/.ini or anything else → INI.
// An empty path loads defaults and environment overrides only.
// Environment variables (ZBX_EXPORT_ prefix) always override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		k := koanf.New(".")
		if err := loadDefaults(k); err != nil {
			return nil, err
		}
		if err := loadEnvOverrides(k); err != nil {
			return nil, err
		}
		return unmarshalAndValidate(k)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return loadINI(path)
	}
}

// loadYAML loads config from a YAML file with Koanf.
func loadYAML(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	// Older config files name the log file under logger_conf.log_file_fullname.
	if legacy := k.String("logger_conf.log_file_fullname"); legacy != "" && !k.Exists("logger.log_file") {
		if err := k.Set("logger.log_file", legacy); err != nil {
			return nil, fmt.Errorf("failed to map logger_conf.log_file_fullname: %w", err)
		}
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(k)
}

// loadINI loads config from an INI file.
func loadINI(path string) (*Config, error) {
	cfg, warnings, err := loadINIFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}
	return cfg, nil
}

// loadINIFile also returns one warning per unrecognized key it skipped.
func loadINIFile(path string) (*Config, []string, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse INI config file: %w", err)
	}

	m, warnings := iniToMap(iniFile)

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, nil, err
	}

	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return nil, nil, fmt.Errorf("failed to load INI values: %w", err)
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, nil, err
	}

	cfg, err := unmarshalAndValidate(k)
	if err != nil {
		return nil, nil, err
	}
	return cfg, warnings, nil
}

// iniKeyMap maps INI key names (lowercased) to koanf key paths. Section
// names are not significant.
var iniKeyMap = map[string]string{
	"apiurl":          "api_url",
	"api_url":         "api_url",
	"username":        "user.username",
	"password":        "user.password",
	"logfile":         "logger.log_file",
	"log_file":        "logger.log_file",
	"logfilefullname": "logger.log_file",
	"loglevel":        "logger.level",
	"level":           "logger.level",
	"telemetry":       "telemetry.enabled",
	"otlpendpoint":    "telemetry.otlp_endpoint",
	"otlp_endpoint":   "telemetry.otlp_endpoint",
	"metricstextfile": "metrics.textfile",
	"textfile":        "metrics.textfile",
}

// iniToMap maps INI keys to the nested koanf key namespace.
// It returns the mapped values and a slice of warnings for unrecognized keys.
func iniToMap(f *ini.File) (map[string]interface{}, []string) {
	m := make(map[string]interface{})
	var warnings []string

	for _, section := range f.Sections() {
		for _, key := range section.Keys() {
			if koanfKey, ok := iniKeyMap[strings.ToLower(key.Name())]; ok {
				m[koanfKey] = key.Value()
			} else {
				warnings = append(warnings, fmt.Sprintf("unrecognized INI key [%s] %s (skipped)", section.Name(), key.Name()))
			}
		}
	}

	return m, warnings
}

// --- helpers ---

func loadDefaults(k *koanf.Koanf) error {
	defaults := DefaultConfig()
	return k.Load(confmap.Provider(map[string]interface{}{
		"logger.level":      defaults.Logger.Level,
		"telemetry.enabled": defaults.Telemetry.Enabled,
	}, "."), nil)
}

func loadEnvOverrides(k *koanf.Koanf) error {
	// ZBX_EXPORT_API_URL → api_url, ZBX_EXPORT_USER__PASSWORD → user.password
	return k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil)
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks value ranges. The API URL and credentials are not required
// here: when missing or malformed they are asked for interactively.
func (c *Config) Validate() error {
	var errs []error

	if !logLevels[strings.ToLower(c.Logger.Level)] {
		errs = append(errs, fmt.Errorf("logger.level must be one of debug, info, warn, error, got %q", c.Logger.Level))
	}
	if c.Telemetry.OTLPEndpoint != "" && strings.Contains(c.Telemetry.OTLPEndpoint, "://") {
		errs = append(errs, fmt.Errorf("telemetry.otlp_endpoint must be host:port without a scheme, got %q", c.Telemetry.OTLPEndpoint))
	}
	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		errs = append(errs, fmt.Errorf("metrics.textfile must end in .prom, got %q", c.Metrics.Textfile))
	}

	return errors.Join(errs...)
}

// ValidAPIURL reports whether u looks like a Zabbix JSON-RPC endpoint: an
// http:// or https:// URL ending up at /api_jsonrpc.php.
func ValidAPIURL(u string) bool {
	if !strings.Contains(u, "http://") && !strings.Contains(u, "https://") {
		return false
	}
	return strings.Contains(u, "/api_jsonrpc.php")
}
