package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

var cfg *Config
var once sync.Once

// Config is the configuration for the application
type Config struct {
	Server
	PostgreSQL
	Storage
	Gateway
	Public
	Process
	Log
}

// Process configures the background reconciliation of pending transactions.
type Process struct {
	Interval     string `env:"RECONCILE_INTERVAL" envDefault:"10"`
	PendingAfter string `env:"RECONCILE_PENDING_AFTER" envDefault:"15"`
	BatchSize    string `env:"RECONCILE_BATCH_SIZE" envDefault:"20"`
}

// IntervalDuration returns the reconcile tick interval.
func (p Process) IntervalDuration() (time.Duration, error) {
	return minutes(p.Interval)
}

// PendingAfterDuration returns the age after which a PENDING row is polled.
func (p Process) PendingAfterDuration() (time.Duration, error) {
	return minutes(p.PendingAfter)
}

// Batch returns the maximum number of rows reconciled per tick.
func (p Process) Batch() (int, error) {
	n, err := strconv.Atoi(p.BatchSize)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// Server is the configuration for the server
type Server struct {
	Port string `env:"PORT" envDefault:"4000"`
}

// Addr returns the address for the server
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", "0.0.0.0", s.Port)
}

// PostgreSQL is the configuration for the database
type PostgreSQL struct {
	Driver          string `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	Database        string `env:"DB_DATABASE" envDefault:"payments"`
	Username        string `env:"DB_USERNAME" envDefault:"payments"`
	Password        string `env:"DB_PASSWORD" envDefault:"payments"`
	SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConnAttempts string `env:"DB_MAX_CONN_ATTEMPTS" envDefault:"5"`
}

// DSN returns the DSN for the database
func (c PostgreSQL) DSN() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s?sslmode=%s",
		c.Driver,
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Storage selects the transaction store implementation.
type Storage struct {
	Backend    string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"payments.db"`
}

// Gateway holds the payment provider credentials. None of these have defaults.
type Gateway struct {
	MerchantID     string `env:"PHONEPE_MERCHANT_ID" envDefault:""`
	SaltKey        string `env:"PHONEPE_SALT_KEY" envDefault:""`
	SaltIndex      string `env:"PHONEPE_SALT_INDEX" envDefault:""`
	HostURL        string `env:"PHONEPE_HOST_URL" envDefault:""`
	TimeoutSeconds string `env:"PHONEPE_TIMEOUT_SECONDS" envDefault:"15"`
}

// Timeout returns the per-request timeout for gateway calls.
func (g Gateway) Timeout() time.Duration {
	n, err := strconv.Atoi(g.TimeoutSeconds)
	if err != nil || n <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n) * time.Second
}

// Public holds the externally visible addresses used to build redirect and callback URLs.
type Public struct {
	BaseURL     string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:4000"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:9002"`
}

// CallbackURL returns the server-to-server callback endpoint.
func (p Public) CallbackURL() string {
	return strings.TrimRight(p.BaseURL, "/") + "/api/payment/callback"
}

// RedirectURL returns the page the payer lands on after the hosted pay page.
func (p Public) RedirectURL(merchantTransactionID string) string {
	return fmt.Sprintf("%s/payment/status/%s", strings.TrimRight(p.FrontendURL, "/"), merchantTransactionID)
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE" envDefault:""`
}

// Validate reports missing settings that have no safe default.
func (c *Config) Validate() error {
	var missing []string
	if c.Gateway.MerchantID == "" {
		missing = append(missing, "PHONEPE_MERCHANT_ID")
	}
	if c.Gateway.SaltKey == "" {
		missing = append(missing, "PHONEPE_SALT_KEY")
	}
	if c.Gateway.SaltIndex == "" {
		missing = append(missing, "PHONEPE_SALT_INDEX")
	}
	if c.Gateway.HostURL == "" {
		missing = append(missing, "PHONEPE_HOST_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendSQLite:
	default:
		return errors.New("STORAGE_BACKEND must be postgres or sqlite")
	}

	if _, err := c.Process.IntervalDuration(); err != nil {
		return fmt.Errorf("RECONCILE_INTERVAL: %w", err)
	}
	if _, err := c.Process.PendingAfterDuration(); err != nil {
		return fmt.Errorf("RECONCILE_PENDING_AFTER: %w", err)
	}
	if _, err := c.Process.Batch(); err != nil {
		return fmt.Errorf("RECONCILE_BATCH_SIZE: %w", err)
	}

	return nil
}

// Load loads the configuration from environment variables
func Load() *Config {
	once.Do(func() {
		cfg = &Config{}
		fill(cfg)
	})

	return cfg
}

// fill sets every string field of every section from its env tag.
func fill(c *Config) {
	cfgType := reflect.TypeOf(*c)
	cfgValue := reflect.ValueOf(c).Elem()

	for i := 0; i < cfgType.NumField(); i++ {
		field := cfgType.Field(i)
		fieldValue := cfgValue.Field(i)
		for j := 0; j < field.Type.NumField(); j++ {
			subField := field.Type.Field(j)
			envVar := subField.Tag.Get("env")
			envDefault := subField.Tag.Get("envDefault")
			value := getEnv(envVar, envDefault)

			fieldValue.Field(j).SetString(value)
		}
	}
}

// getEnv retrieves the value of the environment variable named by the key or returns the defaultValue if not set
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
	}
	return value
}

func minutes(v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return time.Duration(n) * time.Minute, nil
}
