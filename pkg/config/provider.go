package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // station zones resolve without a system zoneinfo database
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStations() ([]StationData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// Defaults applied by ApplyDefaults.
const (
	DefaultEndpoint   = "https://apitempo.inmet.gov.br"
	DefaultTimezone   = "America/Sao_Paulo"
	DefaultTimeout    = 30
	DefaultMaxRetries = 3
	DefaultListenAddr = "0.0.0.0"
	DefaultPort       = 8080
	DefaultMonthDelay = "1s"
)

// Environment variables consulted when the file leaves a value empty.
const (
	EnvToken    = "INMET_TOKEN"
	EnvEndpoint = "API_BASE_URL"
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Provider   ProviderData   `json:"provider" yaml:"provider"`
	Storage    StorageData    `json:"storage,omitempty" yaml:"storage,omitempty"`
	RESTServer RESTServerData `json:"rest,omitempty" yaml:"rest,omitempty"`
	Populate   PopulateData   `json:"populate,omitempty" yaml:"populate,omitempty"`
	Stations   []StationData  `json:"stations" yaml:"stations"`
}

// ProviderData configures the INMET API client.
type ProviderData struct {
	APIEndpoint    string `json:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty"`
	Token          string `json:"token,omitempty" yaml:"token,omitempty"`
	Timezone       string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	// MaxRetries is the number of retries after a failed request. Unset uses
	// DefaultMaxRetries; 0 turns retries off.
	MaxRetries     *int   `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

// Retries returns the configured retry count, or DefaultMaxRetries when unset.
func (p ProviderData) Retries() int {
	if p.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *p.MaxRetries
}

// StorageData holds the configuration for the summary store
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty" yaml:"postgres,omitempty"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// PopulateData paces populate runs. MonthDelay is a Go duration string.
type PopulateData struct {
	MonthDelay string `json:"month_delay,omitempty" yaml:"month_delay,omitempty"`
}

// StationData names one INMET station.
type StationData struct {
	Code    string `json:"code" yaml:"code"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ApplyDefaults fills unset values, taking the token and endpoint from the
// environment when the configuration leaves them empty.
func (c *ConfigData) ApplyDefaults() {
	if c.Provider.APIEndpoint == "" {
		c.Provider.APIEndpoint = os.Getenv(EnvEndpoint)
	}
	if c.Provider.APIEndpoint == "" {
		c.Provider.APIEndpoint = DefaultEndpoint
	}
	if c.Provider.Token == "" {
		c.Provider.Token = os.Getenv(EnvToken)
	}
	if c.Provider.Timezone == "" {
		c.Provider.Timezone = DefaultTimezone
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = DefaultTimeout
	}
	if c.Provider.MaxRetries == nil {
		n := DefaultMaxRetries
		c.Provider.MaxRetries = &n
	}
	if c.RESTServer.ListenAddr == "" {
		c.RESTServer.ListenAddr = DefaultListenAddr
	}
	if c.RESTServer.Port == 0 {
		c.RESTServer.Port = DefaultPort
	}
	if c.Populate.MonthDelay == "" {
		c.Populate.MonthDelay = DefaultMonthDelay
	}
}

// Validate checks the configuration for values that would fail at runtime.
func (c *ConfigData) Validate() error {
	var errs []error

	if len(c.Stations) == 0 {
		errs = append(errs, errors.New("at least one station must be configured"))
	}
	seen := make(map[string]bool)
	defaults := 0
	for i, s := range c.Stations {
		if s.Code == "" {
			errs = append(errs, fmt.Errorf("station %d has no code", i))
			continue
		}
		if seen[s.Code] {
			errs = append(errs, fmt.Errorf("station %s is configured more than once", s.Code))
		}
		seen[s.Code] = true
		if s.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("%d stations are marked default; at most one may be", defaults))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MonthDelay(); err != nil {
		errs = append(errs, err)
	}
	if c.Provider.Retries() < 0 {
		errs = append(errs, fmt.Errorf("provider.max_retries must not be negative, got %d", c.Provider.Retries()))
	}
	if c.RESTServer.Port < 0 || c.RESTServer.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid REST port %d", c.RESTServer.Port))
	}
	if (c.RESTServer.Cert == "") != (c.RESTServer.Key == "") {
		errs = append(errs, errors.New("rest.cert and rest.key must be set together"))
	}

	return errors.Join(errs...)
}

// DefaultStation returns the station marked default, or the first configured one.
func (c *ConfigData) DefaultStation() (StationData, bool) {
	for _, s := range c.Stations {
		if s.Default {
			return s, true
		}
	}
	if len(c.Stations) > 0 {
		return c.Stations[0], true
	}
	return StationData{}, false
}

// HasStation reports whether code is a configured station.
func (c *ConfigData) HasStation(code string) bool {
	for _, s := range c.Stations {
		if s.Code == code {
			return true
		}
	}
	return false
}

// Location loads the configured station timezone.
func (c *ConfigData) Location() (*time.Location, error) {
	tz := c.Provider.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// MonthDelay parses the pause between per-month provider round trips.
func (c *ConfigData) MonthDelay() (time.Duration, error) {
	if c.Populate.MonthDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Populate.MonthDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid populate.month_delay %q: %w", c.Populate.MonthDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("populate.month_delay must not be negative, got %s", d)
	}
	return d, nil
}

// Timeout returns the provider request timeout.
func (c *ConfigData) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}
