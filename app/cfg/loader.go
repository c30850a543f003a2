package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"feedscout" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"feedscout" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"feedscout" description:"Database name"`

	// Application configuration
	WebsitesFile      string `long:"websites-file" env:"WEBSITES_FILE" default:"./websites.yml" description:"YAML file with websites to register at startup"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for discovery and fetching"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Outbound HTTP configuration
	UserAgent        string `long:"user-agent" env:"USER_AGENT" default:"FeedScout/1.0 (+https://github.com/feedscout/feedscout)" description:"User agent string for outbound HTTP requests"`
	FetchTimeout     int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Per-request timeout for feed fetching in seconds"`
	DiscoveryTimeout int    `long:"discovery-timeout" env:"DISCOVERY_TIMEOUT" default:"10" description:"Per-request timeout during feed discovery in seconds"`
	MaxBodySize      int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"10485760" description:"Maximum response body size in bytes"`
	MaxRedirects     int    `long:"max-redirects" env:"MAX_REDIRECTS" default:"5" description:"Maximum number of HTTP redirects to follow"`
	ProbeConcurrency int    `long:"probe-concurrency" env:"PROBE_CONCURRENCY" default:"4" description:"Concurrent well-known path probes during discovery"`

	// Feed health thresholds
	DegradedThreshold int `long:"degraded-threshold" env:"DEGRADED_THRESHOLD" default:"3" description:"Consecutive errors before a feed is considered degraded"`
	InactiveThreshold int `long:"inactive-threshold" env:"INACTIVE_THRESHOLD" default:"10" description:"Consecutive errors before a feed is deactivated"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		WebsitesFile:      raw.WebsitesFile,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		FetchTimeout:      raw.FetchTimeout,
		DiscoveryTimeout:  raw.DiscoveryTimeout,
		MaxBodySize:       raw.MaxBodySize,
		MaxRedirects:      raw.MaxRedirects,
		ProbeConcurrency:  raw.ProbeConcurrency,
		DegradedThreshold: raw.DegradedThreshold,
		InactiveThreshold: raw.InactiveThreshold,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting replaces the global configuration. Tests only.
func SetForTesting(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
