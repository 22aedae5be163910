package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
)

// Config holds the showroomdex configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Storage      StorageConfig      `yaml:"storage"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Jurisdiction JurisdictionConfig `yaml:"jurisdiction"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds service-to-service API key settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	// Fixtures is the JSON or YAML snapshot served by the memory driver.
	Fixtures string `yaml:"fixtures"`
}

// DiscoveryConfig bounds discovery queries.
type DiscoveryConfig struct {
	DefaultPageSize     int     `yaml:"default_page_size"`
	MaxPageSize         int     `yaml:"max_page_size"`
	DefaultSuggestLimit int     `yaml:"default_suggest_limit"`
	MaxSuggestLimit     int     `yaml:"max_suggest_limit"`
	SuggestSampleSize   int     `yaml:"suggest_sample_size"`
	MaxGeohashPrefixes  int     `yaml:"max_geohash_prefixes"`
	DefaultNearRadiusKm float64 `yaml:"default_near_radius_km"`
	MaxNearRadiusKm     float64 `yaml:"max_near_radius_km"`
}

// Limits maps the discovery settings onto request parameter bounds.
func (d DiscoveryConfig) Limits() request.Limits {
	l := request.DefaultLimits()
	l.DefaultPageSize = d.DefaultPageSize
	l.MaxPageSize = d.MaxPageSize
	l.DefaultSuggestLimit = d.DefaultSuggestLimit
	l.MaxSuggestLimit = d.MaxSuggestLimit
	l.MaxGeohashPrefixes = d.MaxGeohashPrefixes
	l.DefaultNearRadiusKm = d.DefaultNearRadiusKm
	l.MaxNearRadiusKm = d.MaxNearRadiusKm
	return l
}

// BlockedCountry is one excluded jurisdiction.
type BlockedCountry struct {
	Code  string   `yaml:"code"`
	Names []string `yaml:"names"`
}

// JurisdictionConfig lists countries excluded from every read.
type JurisdictionConfig struct {
	BlockedCountries []BlockedCountry `yaml:"blocked_countries"`
}

// Jurisdiction builds the exclusion policy.
func (j JurisdictionConfig) Jurisdiction() *visibility.Jurisdiction {
	blocked := make([]visibility.BlockedCountry, 0, len(j.BlockedCountries))
	for _, b := range j.BlockedCountries {
		blocked = append(blocked, visibility.BlockedCountry{Code: b.Code, Names: b.Names})
	}
	return visibility.NewJurisdiction(blocked)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "showroomdex:"
	}
	d := &c.Discovery
	if d.DefaultPageSize <= 0 {
		d.DefaultPageSize = 20
	}
	if d.MaxPageSize <= 0 {
		d.MaxPageSize = 100
	}
	if d.DefaultSuggestLimit <= 0 {
		d.DefaultSuggestLimit = 10
	}
	if d.MaxSuggestLimit <= 0 {
		d.MaxSuggestLimit = 20
	}
	if d.SuggestSampleSize <= 0 {
		d.SuggestSampleSize = 200
	}
	if d.MaxGeohashPrefixes <= 0 {
		d.MaxGeohashPrefixes = 8
	}
	if d.DefaultNearRadiusKm <= 0 {
		d.DefaultNearRadiusKm = 5
	}
	if d.MaxNearRadiusKm <= 0 {
		d.MaxNearRadiusKm = 50
	}
	if c.Jurisdiction.BlockedCountries == nil {
		c.Jurisdiction.BlockedCountries = []BlockedCountry{
			{Code: "RU", Names: []string{"Russia", "Russian Federation"}},
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
		if c.Storage.Fixtures == "" {
			return fmt.Errorf("storage.fixtures is required for the memory driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	d := c.Discovery
	if d.DefaultPageSize > d.MaxPageSize {
		return fmt.Errorf("discovery.default_page_size %d exceeds max_page_size %d", d.DefaultPageSize, d.MaxPageSize)
	}
	if d.DefaultSuggestLimit > d.MaxSuggestLimit {
		return fmt.Errorf(
			"discovery.default_suggest_limit %d exceeds max_suggest_limit %d",
			d.DefaultSuggestLimit, d.MaxSuggestLimit,
		)
	}
	if d.DefaultNearRadiusKm > d.MaxNearRadiusKm {
		return fmt.Errorf(
			"discovery.default_near_radius_km %g exceeds max_near_radius_km %g",
			d.DefaultNearRadiusKm, d.MaxNearRadiusKm,
		)
	}
	for i, b := range c.Jurisdiction.BlockedCountries {
		if strings.TrimSpace(b.Code) == "" && len(b.Names) == 0 {
			return fmt.Errorf("jurisdiction.blocked_countries[%d] needs a code or a name", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
