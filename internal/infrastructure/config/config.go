package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for sqlitelib.
// It is loaded from YAML (or TOML for *.toml files) and can be overridden
// by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	TagLog   TagLogConfig   `yaml:"taglog" toml:"taglog"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" toml:"influxdb"`
}

// DatabaseConfig contains SQLite and executor settings.
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`

	// Name labels the database in logs, topics and metrics. Defaults to the
	// file name without extension.
	Name string `yaml:"name" toml:"name"`

	BusyTimeoutMS  int           `yaml:"busy_timeout_ms" toml:"busy_timeout_ms"`
	CommandTimeout time.Duration `yaml:"command_timeout" toml:"command_timeout"`
	MaxOpenConns   int           `yaml:"max_open_conns" toml:"max_open_conns"`

	// Verbose forwards statement dumps and failures to the tagged log.
	Verbose bool `yaml:"verbose" toml:"verbose"`

	// CrashReportDir defaults to the database directory.
	CrashReportDir string `yaml:"crash_report_dir" toml:"crash_report_dir"`
}

// LoggingConfig contains diagnostic logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// TagLogConfig contains settings for the shared tagged log file.
type TagLogConfig struct {
	Path             string `yaml:"path" toml:"path"`
	MaxAttempts      int    `yaml:"max_attempts" toml:"max_attempts"`
	InitialBackoffMS int    `yaml:"initial_backoff_ms" toml:"initial_backoff_ms"`
	MaxBackoffMS     int    `yaml:"max_backoff_ms" toml:"max_backoff_ms"`
}

// MQTTConfig contains MQTT broker connection settings for crash
// notifications.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled" toml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker" toml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth" toml:"auth"`
	QoS       int                 `yaml:"qos" toml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect" toml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	TLS      bool   `yaml:"tls" toml:"tls"`
	ClientID string `yaml:"client_id" toml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay" toml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts" toml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for batch metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	URL           string `yaml:"url" toml:"url"`
	Token         string `yaml:"token" toml:"token"`
	Org           string `yaml:"org" toml:"org"`
	Bucket        string `yaml:"bucket" toml:"bucket"`
	BatchSize     int    `yaml:"batch_size" toml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" toml:"flush_interval"`
}

// Load reads configuration and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. File values (override defaults); skipped when path is empty
//  3. Environment variables (override file values)
//
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables follow the pattern SQLITELIB_SECTION_KEY, for
// example SQLITELIB_DATABASE_PATH.
//
// Parameters:
//   - path: Path to the configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:           "./data/sqlitelib.db",
			BusyTimeoutMS:  30,
			CommandTimeout: 60 * time.Second,
			MaxOpenConns:   8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		TagLog: TagLogConfig{
			Path:             "database_log.txt",
			MaxAttempts:      5,
			InitialBackoffMS: 10,
			MaxBackoffMS:     1000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sqlitelib",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "sqlitelib",
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("SQLITELIB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SQLITELIB_DATABASE_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SQLITELIB_CRASH_REPORT_DIR"); v != "" {
		cfg.Database.CrashReportDir = v
	}

	// Tagged log
	if v := os.Getenv("SQLITELIB_TAGLOG_PATH"); v != "" {
		cfg.TagLog.Path = v
	}

	// MQTT
	if v := os.Getenv("SQLITELIB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SQLITELIB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SQLITELIB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SQLITELIB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.BusyTimeoutMS < 0 {
		errs = append(errs, "database.busy_timeout_ms must not be negative")
	}
	if c.Database.CommandTimeout < 0 {
		errs = append(errs, "database.command_timeout must not be negative")
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, "database.max_open_conns must not be negative")
	}

	// Logging validation
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	// Tagged log validation
	if c.TagLog.Path == "" {
		errs = append(errs, "taglog.path is required")
	}
	if c.TagLog.MaxAttempts < 1 {
		errs = append(errs, "taglog.max_attempts must be at least 1")
	}
	if c.TagLog.InitialBackoffMS < 0 || c.TagLog.MaxBackoffMS < c.TagLog.InitialBackoffMS {
		errs = append(errs, "taglog backoff must satisfy 0 <= initial_backoff_ms <= max_backoff_ms")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BusyTimeout returns the SQLite busy timeout as a Duration.
func (d DatabaseConfig) BusyTimeout() time.Duration {
	return time.Duration(d.BusyTimeoutMS) * time.Millisecond
}

// InitialBackoff returns the first retry delay as a Duration.
func (t TagLogConfig) InitialBackoff() time.Duration {
	return time.Duration(t.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the retry delay cap as a Duration.
func (t TagLogConfig) MaxBackoff() time.Duration {
	return time.Duration(t.MaxBackoffMS) * time.Millisecond
}
