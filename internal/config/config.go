package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/commutewatch/commutewatch/internal/route"
)

// Default values applied when fields are absent from the config file or
// the environment.
const (
	DefaultDelayThresholdMin = 15
	DefaultDelayThresholdPct = 30.0
	DefaultStateDir          = ".state"
	DefaultStateBackend      = "file"
	DefaultWatchInterval     = 10 * time.Minute
	DefaultMetricsPort       = 9090
)

// Environment variable names for the FromEnv path and the default secret
// indirections of the YAML path.
const (
	EnvAPIKey       = "TOMTOM_API_KEY"
	EnvOriginLat    = "COMMUTE_ORIGIN_LAT"
	EnvOriginLng    = "COMMUTE_ORIGIN_LNG"
	EnvDestLat      = "COMMUTE_DEST_LAT"
	EnvDestLng      = "COMMUTE_DEST_LNG"
	EnvThresholdMin = "DELAY_THRESHOLD_MIN"
	EnvThresholdPct = "DELAY_THRESHOLD_PCT"
	EnvStateDir     = "STATE_DIR"
	EnvTimezone     = "COMMUTE_TZ"
	EnvMailjetKey   = "MJ_APIKEY_PUBLIC"
	EnvMailjetSec   = "MJ_APIKEY_PRIVATE"
	EnvEmailFrom    = "EMAIL_FROM"
	EnvEmailTo      = "EMAIL_TO"
)

// MissingError lists required settings that were absent. main reports it
// and exits with code 2 before any network call.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Config is the full commutewatch configuration tree.
type Config struct {
	Route      RouteConfig     `yaml:"route"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	State      StateConfig     `yaml:"state"`
	Notify     NotifyConfig    `yaml:"notify"`
	Watch      WatchConfig     `yaml:"watch"`

	// Timezone is the IANA zone used for the daily dedupe date key.
	// Empty means the process-local timezone.
	Timezone string `yaml:"timezone"`
}

// RouteConfig holds the routing provider settings. Coordinates are
// pointers so a missing pair can be told apart from 0,0.
type RouteConfig struct {
	// APIKeyEnv names the environment variable holding the TomTom key.
	APIKeyEnv string `yaml:"api_key_env"`

	Origin      *route.Point `yaml:"origin"`
	Destination *route.Point `yaml:"destination"`
}

// APIKey returns the routing API key resolved from the environment.
func (r RouteConfig) APIKey() string {
	if r.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(r.APIKeyEnv)
}

// ThresholdConfig holds the alert limits.
type ThresholdConfig struct {
	// DelayMin is the minimum delay in minutes that triggers an alert.
	DelayMin int `yaml:"delay_min"`

	// DelayPct is the minimum delay percentage that triggers an alert.
	DelayPct float64 `yaml:"delay_pct"`
}

// StateConfig selects where the daily alert marker lives.
type StateConfig struct {
	// Backend is one of: file | sqlite.
	Backend string `yaml:"backend"`

	// Dir is the marker directory for the file backend.
	Dir string `yaml:"dir"`

	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`
}

// NotifyConfig holds all delivery channels.
type NotifyConfig struct {
	Email    EmailConfig     `yaml:"email"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// EmailConfig configures the Mailjet channel. Addresses are literals;
// the key pair stays env-indirect.
type EmailConfig struct {
	APIKeyEnv    string `yaml:"api_key_env"`
	APISecretEnv string `yaml:"api_secret_env"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
}

// APIKey returns the Mailjet public key resolved from the environment.
func (e EmailConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// APISecret returns the Mailjet private key resolved from the environment.
func (e EmailConfig) APISecret() string {
	if e.APISecretEnv == "" {
		return ""
	}
	return os.Getenv(e.APISecretEnv)
}

// Enabled reports whether every credential and address is present.
// A partially configured channel counts as disabled.
func (e EmailConfig) Enabled() bool {
	return e.APIKey() != "" && e.APISecret() != "" && e.From != "" && e.To != ""
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv names the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// WatchConfig holds the long-running mode settings.
type WatchConfig struct {
	// Interval is how often the check repeats in watch mode.
	Interval time.Duration `yaml:"interval"`

	// MetricsPort is where the Prometheus /metrics endpoint listens.
	MetricsPort int `yaml:"metrics_port"`
}

// Location resolves the configured timezone, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

// Load reads and parses the YAML config file at path. Missing optional
// fields are filled with defaults; required fields are validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config purely from environment variables. This is the
// one-shot scheduled-run path; the variable names match the original
// deployment so existing cron/CI secrets keep working.
func FromEnv() (*Config, error) {
	cfg := defaults()

	var missing []string
	for _, key := range []string{EnvAPIKey, EnvOriginLat, EnvOriginLng, EnvDestLat, EnvDestLng} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing}
	}

	origin, err := pointFromEnv(EnvOriginLat, EnvOriginLng)
	if err != nil {
		return nil, err
	}
	dest, err := pointFromEnv(EnvDestLat, EnvDestLng)
	if err != nil {
		return nil, err
	}
	cfg.Route.Origin = origin
	cfg.Route.Destination = dest

	if v := os.Getenv(EnvThresholdMin); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", EnvThresholdMin, err)
		}
		cfg.Thresholds.DelayMin = n
	}
	if v := os.Getenv(EnvThresholdPct); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", EnvThresholdPct, err)
		}
		cfg.Thresholds.DelayPct = f
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		cfg.State.Dir = v
	}
	cfg.Timezone = os.Getenv(EnvTimezone)

	cfg.Notify.Email.From = os.Getenv(EnvEmailFrom)
	cfg.Notify.Email.To = os.Getenv(EnvEmailTo)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values. Secret
// indirections point at the canonical variable names so a YAML file only
// overrides them when a deployment uses different ones.
func defaults() *Config {
	return &Config{
		Route: RouteConfig{APIKeyEnv: EnvAPIKey},
		Thresholds: ThresholdConfig{
			DelayMin: DefaultDelayThresholdMin,
			DelayPct: DefaultDelayThresholdPct,
		},
		State: StateConfig{
			Backend: DefaultStateBackend,
			Dir:     DefaultStateDir,
		},
		Notify: NotifyConfig{
			Email: EmailConfig{
				APIKeyEnv:    EnvMailjetKey,
				APISecretEnv: EnvMailjetSec,
			},
		},
		Watch: WatchConfig{
			Interval:    DefaultWatchInterval,
			MetricsPort: DefaultMetricsPort,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	var missing []string
	if cfg.Route.APIKey() == "" {
		missing = append(missing, cfg.Route.APIKeyEnv)
	}
	if cfg.Route.Origin == nil {
		missing = append(missing, "route.origin")
	}
	if cfg.Route.Destination == nil {
		missing = append(missing, "route.destination")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	if cfg.Thresholds.DelayMin < 0 || cfg.Thresholds.DelayPct < 0 {
		return fmt.Errorf("config: thresholds must not be negative")
	}
	switch cfg.State.Backend {
	case "file":
		if cfg.State.Dir == "" {
			return fmt.Errorf("config: state.dir is required for the file backend")
		}
	case "sqlite":
		if cfg.State.Path == "" {
			return fmt.Errorf("config: state.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("config: unknown state backend %q", cfg.State.Backend)
	}
	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("config: webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("config: watch.interval must be positive")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// pointFromEnv parses a latitude/longitude pair from the environment.
func pointFromEnv(latKey, lngKey string) (*route.Point, error) {
	lat, err := strconv.ParseFloat(os.Getenv(latKey), 64)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", latKey, err)
	}
	lng, err := strconv.ParseFloat(os.Getenv(lngKey), 64)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", lngKey, err)
	}
	return &route.Point{Lat: lat, Lng: lng}, nil
}
