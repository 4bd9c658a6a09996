package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Leasing   LeasingConfig   `yaml:"leasing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "pq" or "pgx"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LeasingConfig contains lease policy settings
type LeasingConfig struct {
	// MaxActiveLeasesPerClient caps open leases per client; 0 disables the cap.
	MaxActiveLeasesPerClient *int `yaml:"max_active_leases_per_client"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SessionKeepAlive string `yaml:"session_keep_alive"`
}

const (
	DefaultDriver                   = "pq"
	DefaultPort                     = 5432
	DefaultSSLMode                  = "disable"
	DefaultMaxActiveLeasesPerClient = 2
	DefaultSessionKeepAlive         = "0 */5 * * * *" // every 5 minutes
)

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Leasing
	if val := os.Getenv("LEASE_MAX_PER_CLIENT"); val != "" {
		var limit int
		if _, err := fmt.Sscanf(val, "%d", &limit); err == nil {
			c.Leasing.MaxActiveLeasesPerClient = &limit
		}
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultSSLMode
	}

	// Database validation
	if c.Database.Driver != "pq" && c.Database.Driver != "pgx" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Leasing defaults
	if c.Leasing.MaxActiveLeasesPerClient == nil {
		limit := DefaultMaxActiveLeasesPerClient
		c.Leasing.MaxActiveLeasesPerClient = &limit
	}
	if *c.Leasing.MaxActiveLeasesPerClient < 0 {
		return fmt.Errorf("max active leases per client must not be negative: %d", *c.Leasing.MaxActiveLeasesPerClient)
	}

	// Scheduler defaults
	if c.Scheduler.SessionKeepAlive == "" {
		c.Scheduler.SessionKeepAlive = DefaultSessionKeepAlive
	}

	return nil
}

// MaxActiveLeases returns the per-client cap, 0 meaning unlimited
func (c *Config) MaxActiveLeases() int {
	if c.Leasing.MaxActiveLeasesPerClient == nil {
		return DefaultMaxActiveLeasesPerClient
	}
	return *c.Leasing.MaxActiveLeasesPerClient
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}
