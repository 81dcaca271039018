package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the moodiary server and its storage.
type Config struct {
	// Listen is the address the moodiary server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// SessionKey is the key used to sign the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the session cookie lifetime in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// Locale selects the language of user-facing messages ("vi" or "en").
	Locale string `yaml:"locale" mapstructure:"locale"`
	// Timezone is used to group entries by calendar day, e.g. "Asia/Ho_Chi_Minh".
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	// Remote configures the hosted backend. Both url and key must be set to use it.
	Remote *RemoteConfig `yaml:"remote" mapstructure:"remote"`
	// Local configures the key-value fallback.
	Local *LocalConfig `yaml:"local" mapstructure:"local"`
	// Seed configures the sample data generator.
	Seed *SeedConfig `yaml:"seed" mapstructure:"seed"`
	// Demo configures the optional periodic reset of demo instances.
	Demo *DemoConfig `yaml:"demo" mapstructure:"demo"`
}

// RemoteConfig holds the remote backend endpoint.
type RemoteConfig struct {
	// URL is either a PostgREST base url (http/https) or a database url (postgres, mysql, sqlite).
	URL string `yaml:"url" mapstructure:"url"`
	// Key is the API key, or the database password for database urls.
	Key     string        `yaml:"key" mapstructure:"key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Enabled reports whether both url and key are configured.
func (r *RemoteConfig) Enabled() bool {
	return r != nil && r.URL != "" && r.Key != ""
}

// LocalConfig holds the settings of the key-value fallback.
type LocalConfig struct {
	// Store is one of "badger", "memory" or "redis".
	Store    kv.Kind `yaml:"store" mapstructure:"store"`
	Path     string  `yaml:"path" mapstructure:"path"`
	RedisURL string  `yaml:"redis_url" mapstructure:"redis_url"`
	// SeedOnInit fills an empty store with demo users and entries at startup.
	SeedOnInit bool `yaml:"seed_on_init" mapstructure:"seed_on_init"`
}

type SeedConfig struct {
	Entries    int `yaml:"entries" mapstructure:"entries"`
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
}

type DemoConfig struct {
	// ResetSchedule is a cron expression. Empty disables the reset job.
	ResetSchedule string `yaml:"reset_schedule" mapstructure:"reset_schedule"`
}

// Environment names accepted for the remote endpoint, most specific first.
var (
	remoteURLEnv = []string{
		"MOODIARY_REMOTE_URL",
		"VITE_SUPABASE_SUPABASE_URL",
		"VITE_SUPABASE_VITE_PUBLIC_SUPABASE_URL",
		"VITE_SUPABASE_URL",
		"VITE_PUBLIC_SUPABASE_URL",
	}
	remoteKeyEnv = []string{
		"MOODIARY_REMOTE_KEY",
		"VITE_SUPABASE_VITE_PUBLIC_SUPABASE_ANON_KEY",
		"VITE_SUPABASE_SUPABASE_ANON_KEY",
		"VITE_SUPABASE_SUPABASE_PUBLISHABLE_KEY",
		"VITE_SUPABASE_ANON_KEY",
		"VITE_SUPABASE_KEY",
		"VITE_PUBLIC_SUPABASE_ANON_KEY",
	}
)

// Load reads the configuration from path, or from the default locations if path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("MOODIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.moodiary")
		v.AddConfigPath("/etc/moodiary")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("locale", string(i18n.DefaultLocale))
	v.SetDefault("timezone", "Local")

	v.SetDefault("remote.url", "")
	v.SetDefault("remote.key", "")
	v.SetDefault("remote.timeout", 30*time.Second)

	v.SetDefault("local.store", string(kv.KindBadger))
	v.SetDefault("local.path", "./data/moodiary")
	v.SetDefault("local.redis_url", "")
	v.SetDefault("local.seed_on_init", true)

	v.SetDefault("seed.entries", 20)
	v.SetDefault("seed.max_age_days", 60)

	v.SetDefault("demo.reset_schedule", "")
}

// bindNestedEnv binds the remote settings to every historical variable name.
// Viper uses the first name in the list that is set.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv(append([]string{"remote.url"}, remoteURLEnv...)...)
	v.MustBindEnv(append([]string{"remote.key"}, remoteKeyEnv...)...)
	v.MustBindEnv("remote.timeout", "MOODIARY_REMOTE_TIMEOUT")

	v.MustBindEnv("local.store", "MOODIARY_LOCAL_STORE")
	v.MustBindEnv("local.path", "MOODIARY_LOCAL_PATH")
	v.MustBindEnv("local.redis_url", "MOODIARY_LOCAL_REDIS_URL")
	v.MustBindEnv("local.seed_on_init", "MOODIARY_LOCAL_SEED_ON_INIT")

	v.MustBindEnv("seed.entries", "MOODIARY_SEED_ENTRIES")
	v.MustBindEnv("seed.max_age_days", "MOODIARY_SEED_MAX_AGE_DAYS")

	v.MustBindEnv("demo.reset_schedule", "MOODIARY_DEMO_RESET_SCHEDULE")
}

func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing moodiary config")
	}

	if _, ok := i18n.ParseLocale(c.Locale); !ok {
		return fmt.Errorf("unsupported locale %q, use vi or en", c.Locale)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.Local == nil {
		return fmt.Errorf("missing local storage config")
	}
	switch c.Local.Store {
	case kv.KindBadger:
		if c.Local.Path == "" {
			return fmt.Errorf("local path is required for the badger store")
		}
	case kv.KindMemory:
	case kv.KindRedis:
		if c.Local.RedisURL == "" {
			return fmt.Errorf("redis url is required for the redis store")
		}
	default:
		return fmt.Errorf("unsupported local store %q, use badger, memory or redis", c.Local.Store)
	}

	if c.Seed != nil {
		if c.Seed.Entries <= 0 {
			return fmt.Errorf("seed entries must be greater than 0")
		}
		if c.Seed.MaxAgeDays <= 0 {
			return fmt.Errorf("seed max age must be greater than 0")
		}
	}

	if c.Demo != nil && c.Demo.ResetSchedule != "" {
		if len(strings.Fields(c.Demo.ResetSchedule)) != 5 {
			return fmt.Errorf("demo reset schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
	}

	return nil
}

func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = strings.TrimSpace(c.Listen)
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))

	if c.Remote != nil {
		c.Remote.URL = urlSanitize(c.Remote.URL)
		c.Remote.Key = strings.TrimSpace(c.Remote.Key)
	}
	if c.Local != nil {
		c.Local.Store = kv.Kind(strings.ToLower(string(c.Local.Store)))
	}
}

func urlSanitize(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// GetLocale returns the configured message locale.
func (c *Config) GetLocale() i18n.Locale {
	if l, ok := i18n.ParseLocale(c.Locale); ok {
		return l
	}
	return i18n.DefaultLocale
}

// GetLocation returns the configured timezone, falling back to the local one.
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetSeedEntries returns how many sample entries one seed run creates.
func (c *Config) GetSeedEntries() int {
	if c.Seed == nil || c.Seed.Entries <= 0 {
		return 20
	}
	return c.Seed.Entries
}

// GetSeedMaxAgeDays returns how far back sample entries are dated.
func (c *Config) GetSeedMaxAgeDays() int {
	if c.Seed == nil || c.Seed.MaxAgeDays <= 0 {
		return 60
	}
	return c.Seed.MaxAgeDays
}

// GetResetSchedule returns the demo reset cron expression, or an empty string if disabled.
func (c *Config) GetResetSchedule() string {
	if c.Demo == nil {
		return ""
	}
	return c.Demo.ResetSchedule
}
