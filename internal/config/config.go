package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Server     ServerConfig     `mapstructure:"server"`
	Ideas      IdeasConfig      `mapstructure:"ideas"`
	Export     ExportConfig     `mapstructure:"export"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// LLMConfig selects and configures the text-generation provider
type LLMConfig struct {
	Provider  string          `mapstructure:"provider"` // openai, anthropic or ollama
	MaxTokens int             `mapstructure:"max_tokens"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
}

// OpenAIConfig holds OpenAI API settings
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // optional, for compatible gateways
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OllamaConfig holds local Ollama settings
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// GenerationConfig holds defaults for the generation form
type GenerationConfig struct {
	DefaultPostCount int    `mapstructure:"default_post_count"`
	DefaultTone      string `mapstructure:"default_tone"`
}

// ServerConfig holds web UI settings
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	Mode        string `mapstructure:"mode"` // gin mode: debug, release, test
	WatchConfig bool   `mapstructure:"watch_config"`
}

// IdeasConfig holds the topic idea inbox settings
type IdeasConfig struct {
	Database       DatabaseConfig `mapstructure:"database"`
	RSS            RSSConfig      `mapstructure:"rss"`
	Custom         CustomConfig   `mapstructure:"custom"`
	FeedsPerMinute int            `mapstructure:"feeds_per_minute"`
	MaxAgeDays     int            `mapstructure:"max_age_days"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // sqlite or sheets
	DSN       string `mapstructure:"dsn"`
	SheetName string `mapstructure:"sheet_name"` // sheets driver tab, in export.sheets.spreadsheet_id
}

// RSSConfig holds RSS feed settings
type RSSConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	Feeds   []RSSFeed `mapstructure:"feeds"`
}

// RSSFeed represents a single RSS feed
type RSSFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// CustomConfig holds custom keyword settings
type CustomConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Keywords []string `mapstructure:"keywords"`
}

// ExportConfig holds export destinations
type ExportConfig struct {
	Dir      string       `mapstructure:"dir"`
	Manifest bool         `mapstructure:"manifest"`
	Sheets   SheetsConfig `mapstructure:"sheets"`
}

// SheetsConfig holds Google Sheets export settings
type SheetsConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"`
	HealthAddr  string `mapstructure:"health_addr"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch reloads the config file on change and hands the fresh config to onChange.
// It is a no-op when no config file was found.
func Watch(configPath string, onChange func(*Config, fsnotify.Event)) error {
	v, err := newViper(configPath)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			return
		}
		onChange(cfg, e)
	})
	v.WatchConfig()
	return nil
}

func newViper(configPath string) (*viper.Viper, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".postgen"))
		}
	}

	v.SetEnvPrefix("POSTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets: accept the vendor-standard variable names as well
	v.BindEnv("llm.openai.api_key", "POSTGEN_LLM_OPENAI_API_KEY", "POSTGEN_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "POSTGEN_LLM_ANTHROPIC_API_KEY", "POSTGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.ollama.host", "POSTGEN_LLM_OLLAMA_HOST", "OLLAMA_HOST")
	v.BindEnv("export.sheets.service_account_json", "POSTGEN_EXPORT_SHEETS_SERVICE_ACCOUNT_JSON")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.ollama.model", "llama3.2")

	// Generation defaults (mirror the form widgets)
	v.SetDefault("generation.default_post_count", 3)
	v.SetDefault("generation.default_tone", "Professional")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.watch_config", true)

	// Idea inbox defaults
	v.SetDefault("ideas.database.driver", "sqlite")
	v.SetDefault("ideas.database.dsn", "./data/ideas.db")
	v.SetDefault("ideas.database.sheet_name", "Ideas")
	v.SetDefault("ideas.rss.enabled", true)
	v.SetDefault("ideas.custom.enabled", true)
	v.SetDefault("ideas.feeds_per_minute", 60)
	v.SetDefault("ideas.max_age_days", 7)

	// Export defaults
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.manifest", false)
	v.SetDefault("export.sheets.enabled", false)
	v.SetDefault("export.sheets.sheet_name", "Posts")

	// Scheduler defaults
	v.SetDefault("scheduler.refresh_cron", "0 */6 * * *") // Every 6 hours
	v.SetDefault("scheduler.health_addr", ":10000")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// Validate checks the settings needed to generate posts
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("llm.openai.api_key is required")
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("llm.anthropic.api_key is required")
		}
	case "ollama":
	case "":
		return fmt.Errorf("llm.provider is required")
	default:
		return fmt.Errorf("unknown llm.provider %q (supported: openai, anthropic, ollama)", c.LLM.Provider)
	}
	if c.Generation.DefaultPostCount < 1 || c.Generation.DefaultPostCount > 5 {
		return fmt.Errorf("generation.default_post_count must be between 1 and 5")
	}
	return nil
}

// ValidateSheets checks the Google Sheets export settings
func (c *Config) ValidateSheets() error {
	s := c.Export.Sheets
	if !s.Enabled {
		return fmt.Errorf("sheets export is not enabled - set export.sheets.enabled=true")
	}
	if s.SpreadsheetID == "" {
		return fmt.Errorf("export.sheets.spreadsheet_id is required")
	}
	if s.CredentialsFile == "" && s.ServiceAccountJSON == "" {
		return fmt.Errorf("set export.sheets.credentials_file or export.sheets.service_account_json")
	}
	return nil
}

// ValidateIdeas checks the idea inbox storage settings
func (c *Config) ValidateIdeas() error {
	switch strings.ToLower(c.Ideas.Database.Driver) {
	case "", "sqlite":
		if c.Ideas.Database.DSN == "" {
			return fmt.Errorf("ideas.database.dsn is required")
		}
	case "sheets":
		s := c.Export.Sheets
		if s.SpreadsheetID == "" {
			return fmt.Errorf("export.sheets.spreadsheet_id is required for the sheets idea store")
		}
		if s.CredentialsFile == "" && s.ServiceAccountJSON == "" {
			return fmt.Errorf("set export.sheets.credentials_file or export.sheets.service_account_json")
		}
	default:
		return fmt.Errorf("unknown ideas.database.driver %q (supported: sqlite, sheets)", c.Ideas.Database.Driver)
	}
	return nil
}
