package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Slack         SlackConfig
	GoogleMapsKey string
	DBBackend     string // "sqlite" or "postgres"
	DBPath        string
	PostgresURL   string
	LogLevel      string
	LogPath       string
	HTTPTimeout   time.Duration
	Scheduler     SchedulerConfig
	Bot           BotConfig
	Sources       []*SourceConfig
}

type SlackConfig struct {
	Token    string
	Channel  string
	Username string
	IconURL  string
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

// BotConfig holds the deployment-specific knobs that diverged across the
// historical bot variants: tier thresholds, dedup key policy, insert-time
// fallback and the reply template all live here rather than in code.
type BotConfig struct {
	Timezone           string      `yaml:"timezone"`
	RunDays            []string    `yaml:"run_days"`
	DedupKey           string      `yaml:"dedup_key"` // "id" or "id_or_name"
	SkipBadListings    bool        `yaml:"skip_bad_listings"`
	InsertTimeFallback int64       `yaml:"insert_time_fallback"`
	Tiers              TierConfig  `yaml:"tiers"`
	MapMarkers         []MapMarker `yaml:"map_markers"`
	ReplyTemplate      string      `yaml:"reply_template"`
	Slack              struct {
		Channel  string `yaml:"channel"`
		Username string `yaml:"username"`
		IconURL  string `yaml:"icon_url"`
	} `yaml:"slack"`
	ProviderIcons map[string]string `yaml:"provider_icons"`
}

// TierConfig is the pair of ascending price-per-person thresholds splitting
// listings into low/mid/high.
type TierConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type MapMarker struct {
	Address string `yaml:"address"`
	Label   string `yaml:"label"`
}

type SourceConfig struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Provider  string            `yaml:"provider"` // "classifieds" or "aggregator"
	Fetch     string            `yaml:"fetch"`    // "http" (default) or "browser"
	Endpoints map[string]string `yaml:"endpoints"`
	Where     string            `yaml:"where"` // fallback location label
	MaxPages  int               `yaml:"max_pages"`
	Filters   Filters           `yaml:"filters"`
	Query     string            `yaml:"query"` // raw serialized search document, overrides Filters
}

type Filters struct {
	MinPrice         int      `yaml:"min_price"`
	MaxPrice         int      `yaml:"max_price"`
	MinBedrooms      int      `yaml:"min_bedrooms"`
	MaxBedrooms      int      `yaml:"max_bedrooms"`
	MinBathrooms     int      `yaml:"min_bathrooms"`
	MaxBathrooms     int      `yaml:"max_bathrooms"`
	ZipCode          string   `yaml:"zip_code"`
	SearchDistance   int      `yaml:"search_distance"`
	HousingType      []string `yaml:"housing_type"`
	HasImage         bool     `yaml:"has_image"`
	BundleDuplicates bool     `yaml:"bundle_duplicates"`
	SearchTerm       string   `yaml:"search_term"`
	Bounds           *Bounds  `yaml:"bounds"`
}

type Bounds struct {
	West  float64 `yaml:"west"`
	East  float64 `yaml:"east"`
	South float64 `yaml:"south"`
	North float64 `yaml:"north"`
}

// Load reads .env, environment variables, the bot YAML document and every
// source YAML under <dir-of-botPath>/sources, in filename order.
func Load(botPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Slack: SlackConfig{
			Token: os.Getenv("SLACK_TOKEN"),
		},
		GoogleMapsKey: os.Getenv("GOOGLE_MAPS_KEY"),
		DBBackend:     getEnv("DB_BACKEND", "sqlite"),
		DBPath:        getEnv("DB_PATH", "homescout.db"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", "homescout.log"),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid SCRAPE_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = d
	}

	data, err := os.ReadFile(botPath)
	if err != nil {
		return nil, fmt.Errorf("read bot config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.Bot); err != nil {
		return nil, fmt.Errorf("parse bot config: %w", err)
	}

	cfg.Slack.Channel = cfg.Bot.Slack.Channel
	cfg.Slack.Username = cfg.Bot.Slack.Username
	cfg.Slack.IconURL = cfg.Bot.Slack.IconURL

	if cfg.Bot.DedupKey == "" {
		cfg.Bot.DedupKey = "id"
	}
	if cfg.Bot.Timezone == "" {
		cfg.Bot.Timezone = "America/Los_Angeles"
	}

	if err := cfg.loadSourceConfigs(filepath.Join(filepath.Dir(botPath), "sources")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSourceConfigs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read sources dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, entry.Name())
	}
	// Filename order decides processing order across sources.
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		var src SourceConfig
		if err := yaml.Unmarshal(data, &src); err != nil {
			return fmt.Errorf("parse source config %s: %w", name, err)
		}
		if src.Fetch == "" {
			src.Fetch = "http"
		}
		c.Sources = append(c.Sources, &src)
	}

	return nil
}

// Validate checks the keys a run cannot proceed without. Notification keys
// are only required when notifications are on.
func (c *Config) Validate(notify bool) error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no source configs found")
	}
	for _, src := range c.Sources {
		if src.ID == "" || src.Provider == "" {
			return fmt.Errorf("source config missing id or provider")
		}
	}
	if c.DBBackend == "postgres" && c.PostgresURL == "" {
		return fmt.Errorf("DB_BACKEND=postgres requires POSTGRES_URL")
	}
	if c.Bot.DedupKey != "id" && c.Bot.DedupKey != "id_or_name" {
		return fmt.Errorf("invalid dedup_key %q", c.Bot.DedupKey)
	}
	if c.Bot.Tiers.Low <= 0 || c.Bot.Tiers.High <= c.Bot.Tiers.Low {
		return fmt.Errorf("tiers must satisfy 0 < low < high")
	}
	if notify {
		if c.Slack.Token == "" {
			return fmt.Errorf("SLACK_TOKEN is required when notifying")
		}
		if c.Slack.Channel == "" {
			return fmt.Errorf("slack.channel is required when notifying")
		}
		if c.Bot.ReplyTemplate == "" {
			return fmt.Errorf("reply_template is required when notifying")
		}
		if c.GoogleMapsKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_KEY is required when notifying")
		}
	}
	return nil
}

// RunToday reports whether the configured run-day list allows a run at t.
// An empty list allows every day.
func (c *Config) RunToday(t time.Time) bool {
	if len(c.Bot.RunDays) == 0 {
		return true
	}
	day := t.Weekday().String()
	for _, d := range c.Bot.RunDays {
		if d == day {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
