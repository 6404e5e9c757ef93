// Package config loads and validates the service configuration at startup.
// Fail-fast: if a required setting is missing, Load returns an error and the
// process exits.
//
// Settings come from the environment (an optional .env file is loaded first)
// and, when a path is given, from a YAML file. Environment variables win.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jobmate/exec-discovery/internal/model"
)

// Config holds all runtime configuration for the discovery service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string // optional; run events are not published without it
	// Memory keeps every record in process memory instead of PostgreSQL.
	Memory bool

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "us", "gb", "fr"
	JSearchKey    string
	SerpAPIKey    string
	TheMuseKey    string

	ScrapeIntervalHours  int // How often the cron job fires
	KnownLocatorWindow   int
	AdapterTimeout       time.Duration
	AdapterRatePerSecond float64
	ParallelSources      bool
	ScoreInline          bool

	LogJSON  bool
	LogDebug bool

	Feeds      []FeedConfig
	Candidates []CandidateConfig
}

// FeedConfig declares a syndication feed to poll.
type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
	// Paused feeds are registered but not polled.
	Paused bool `mapstructure:"paused"`
}

// Feed converts the entry to the stored feed record.
func (f FeedConfig) Feed() *model.Feed {
	status := model.FeedActive
	if f.Paused {
		status = model.FeedPaused
	}
	return &model.Feed{Name: f.Name, URL: f.URL, Status: status}
}

// CandidateConfig seeds a candidate profile, mostly useful with Memory.
type CandidateConfig struct {
	ID                 string   `mapstructure:"id"`
	TargetRoles        []string `mapstructure:"target_roles"`
	Industries         []string `mapstructure:"industries"`
	PreferredLocations []string `mapstructure:"preferred_locations"`
	RemotePreferences  []string `mapstructure:"remote_preferences"`
	Inactive           bool     `mapstructure:"inactive"`
}

// Profile converts the entry to a candidate profile.
func (c CandidateConfig) Profile() *model.CandidateProfile {
	return &model.CandidateProfile{
		ID:                 c.ID,
		TargetRoles:        c.TargetRoles,
		Industries:         c.Industries,
		PreferredLocations: c.PreferredLocations,
		RemotePreferences:  c.RemotePreferences,
		Active:             !c.Inactive,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discovery_port", "8081")
	v.SetDefault("adzuna_country", "us")
	v.SetDefault("scrape_interval_hours", 6)
	v.SetDefault("known_locator_window", 5000)
	v.SetDefault("adapter_timeout", "20s")
	v.SetDefault("adapter_rate_per_second", 2.0)
	v.SetDefault("parallel_sources", false)
	v.SetDefault("score_inline", true)
	v.SetDefault("log_json", false)
	v.SetDefault("log_debug", false)
}

// Load reads .env, the optional YAML file at path and the environment, and
// returns a validated Config. memory relaxes the DATABASE_URL requirement.
func Load(path string, memory bool) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:                 v.GetString("discovery_port"),
		DatabaseURL:          v.GetString("database_url"),
		RedisURL:             v.GetString("redis_url"),
		Memory:               memory || v.GetBool("memory_store"),
		AdzunaAppID:          v.GetString("adzuna_app_id"),
		AdzunaAppKey:         v.GetString("adzuna_app_key"),
		AdzunaCountry:        v.GetString("adzuna_country"),
		JSearchKey:           v.GetString("jsearch_api_key"),
		SerpAPIKey:           v.GetString("serpapi_api_key"),
		TheMuseKey:           v.GetString("themuse_api_key"),
		ScrapeIntervalHours:  v.GetInt("scrape_interval_hours"),
		KnownLocatorWindow:   v.GetInt("known_locator_window"),
		AdapterTimeout:       v.GetDuration("adapter_timeout"),
		AdapterRatePerSecond: v.GetFloat64("adapter_rate_per_second"),
		ParallelSources:      v.GetBool("parallel_sources"),
		ScoreInline:          v.GetBool("score_inline"),
		LogJSON:              v.GetBool("log_json"),
		LogDebug:             v.GetBool("log_debug"),
	}

	if err := v.UnmarshalKey("feeds", &cfg.Feeds); err != nil {
		return nil, fmt.Errorf("feeds: %w", err)
	}
	if err := v.UnmarshalKey("candidates", &cfg.Candidates); err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && !c.Memory {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ScrapeIntervalHours < 1 {
		return fmt.Errorf("SCRAPE_INTERVAL_HOURS must be a positive integer, got %d", c.ScrapeIntervalHours)
	}
	if c.KnownLocatorWindow < 1 {
		return fmt.Errorf("KNOWN_LOCATOR_WINDOW must be a positive integer, got %d", c.KnownLocatorWindow)
	}
	if c.AdapterTimeout <= 0 {
		return fmt.Errorf("ADAPTER_TIMEOUT must be a positive duration, got %s", c.AdapterTimeout)
	}
	if c.AdapterRatePerSecond < 0 {
		return fmt.Errorf("ADAPTER_RATE_PER_SECOND must not be negative, got %g", c.AdapterRatePerSecond)
	}
	for i, f := range c.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feeds[%d]: name and url are required", i)
		}
	}
	for i, cand := range c.Candidates {
		if cand.ID == "" {
			return fmt.Errorf("candidates[%d]: id is required", i)
		}
	}
	return nil
}
