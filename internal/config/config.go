package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable pointing at the YAML config file.
const PathEnv = "LABORSTATS_CONFIG"

const (
	blsAPIKeyEnv     = "BLS_API_KEY"
	dataPathEnv      = "LABORSTATS_DATA_PATH"
	historyPathEnv   = "LABORSTATS_DB_PATH"
	httpAddrEnv      = "LABORSTATS_HTTP_ADDR"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Provider      string             `yaml:"provider"`
	Logging       LoggingConfig      `yaml:"logging"`
	Data          DataConfig         `yaml:"data"`
	BLS           BLSConfig          `yaml:"bls"`
	HTTP          HTTPConfig         `yaml:"http"`
	History       HistoryConfig      `yaml:"history"`
	Schedule      ScheduleConfig     `yaml:"schedule"`
	Notifications NotificationConfig `yaml:"notifications"`
	Series        []SeriesConfig     `yaml:"series"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DataConfig locates the persisted canonical table.
type DataConfig struct {
	Path string `yaml:"path"`
}

// BLSConfig defines how to contact the BLS timeseries API.
type BLSConfig struct {
	Endpoint      string        `yaml:"endpoint"`      // keyless v1 endpoint
	KeyedEndpoint string        `yaml:"keyedEndpoint"` // v2 endpoint used with a registration key
	APIKey        string        `yaml:"apiKey"`
	StartYear     int           `yaml:"startYear"` // first-run fetch window start
	Pacing        time.Duration `yaml:"pacing"`    // minimum spacing between consecutive calls
}

// HTTPConfig describes the dashboard API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HistoryConfig locates the SQLite run-history database; empty disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig points to the remote release calendar page.
type ScheduleConfig struct {
	URL string `yaml:"url"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SeriesConfig declares one tracked indicator.
type SeriesConfig struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(PathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Series) == 0 {
		cfg.Series = defaultConfig().Series
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(blsAPIKeyEnv); v != "" {
		c.BLS.APIKey = v
	}

	if v := os.Getenv(dataPathEnv); v != "" {
		c.Data.Path = v
	}

	if v := os.Getenv(historyPathEnv); v != "" {
		c.History.Path = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Provider != "" {
		base.Provider = override.Provider
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Data.Path != "" {
		base.Data.Path = override.Data.Path
	}

	if override.BLS.Endpoint != "" {
		base.BLS.Endpoint = override.BLS.Endpoint
	}
	if override.BLS.KeyedEndpoint != "" {
		base.BLS.KeyedEndpoint = override.BLS.KeyedEndpoint
	}
	if override.BLS.APIKey != "" {
		base.BLS.APIKey = override.BLS.APIKey
	}
	if override.BLS.StartYear != 0 {
		base.BLS.StartYear = override.BLS.StartYear
	}
	if override.BLS.Pacing != 0 {
		base.BLS.Pacing = override.BLS.Pacing
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}

	if override.Schedule.URL != "" {
		base.Schedule.URL = override.Schedule.URL
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Series) > 0 {
		base.Series = override.Series
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Provider: "bls",
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Data:    DataConfig{Path: "data/processed/labor_stats.csv"},
		BLS: BLSConfig{
			Endpoint:      "https://api.bls.gov/publicAPI/v1/timeseries/data/",
			KeyedEndpoint: "https://api.bls.gov/publicAPI/v2/timeseries/data/",
			StartYear:     2020,
			Pacing:        time.Second,
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		History: HistoryConfig{Path: ""},
		Schedule: ScheduleConfig{
			URL: "https://www.bls.gov/schedule/news_release/empsit.htm",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Series: []SeriesConfig{
			{Name: "Total Nonfarm Employment", ID: "CES0000000001"},
			{Name: "Unemployment Rate", ID: "LNS14000000"},
			{Name: "Labor Force Participation Rate", ID: "LNS11300000"},
			{Name: "Average Hourly Earnings", ID: "CES0500000003"},
			{Name: "Manufacturing Employment", ID: "CES3000000001"},
			{Name: "Leisure & Hospitality Employment", ID: "CES7000000001"},
			{Name: "Professional & Business Services Employment", ID: "CES6000000001"},
		},
	}
}
