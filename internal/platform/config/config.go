package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	errInvalidPort        = errors.New("config: invalid PORT number")
	errInvalidLogFormat   = errors.New("config: LOG_FORMAT must be json or text")
	errInvalidTimeout     = errors.New("config: timeouts must be positive")
	errRedirectsRange     = errors.New("config: MAX_REDIRECTS must be 0-30")
	errUnknownDriver      = errors.New("config: STORE_DRIVER must be sqlite or postgres")
	errMissingDatabaseURL = errors.New("config: DATABASE_URL is required for the postgres driver")
	errInvalidSessionTTL  = errors.New("config: SESSION_TTL must be at least one minute")
	errInvalidRateLimit   = errors.New("config: ANALYZE_RATE and ANALYZE_BURST must be positive")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"ERROR"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// FetchTimeout bounds one page fetch; AnalyzeTimeout bounds a whole
	// analysis request including persistence.
	FetchTimeout        time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	AnalyzeTimeout      time.Duration `envconfig:"ANALYZE_TIMEOUT" default:"60s"`
	MaxRedirects        int           `envconfig:"MAX_REDIRECTS" default:"10"`
	AllowPrivateTargets bool          `envconfig:"ALLOW_PRIVATE_TARGETS" default:"false"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"seo.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// AnalyzeRate is the sustained number of analyses per second allowed
	// per client, AnalyzeBurst the bucket size.
	AnalyzeRate  float64 `envconfig:"ANALYZE_RATE" default:"0.5"`
	AnalyzeBurst int     `envconfig:"ANALYZE_BURST" default:"5"`
}

// Load reads an optional .env file from the working directory, then the
// process environment, applying defaults for unset variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: got %q", errInvalidLogFormat, c.LogFormat)
	}

	if c.FetchTimeout <= 0 || c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("%w: fetch %s, analyze %s", errInvalidTimeout, c.FetchTimeout, c.AnalyzeTimeout)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 30 {
		return fmt.Errorf("%w: got %d", errRedirectsRange, c.MaxRedirects)
	}

	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: got %q", errUnknownDriver, c.StoreDriver)
	}

	if c.SessionTTL < time.Minute {
		return fmt.Errorf("%w: got %s", errInvalidSessionTTL, c.SessionTTL)
	}

	if c.AnalyzeRate <= 0 || c.AnalyzeBurst < 1 {
		return fmt.Errorf("%w: rate %g, burst %d", errInvalidRateLimit, c.AnalyzeRate, c.AnalyzeBurst)
	}

	return nil
}
