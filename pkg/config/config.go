package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/harrisonrobin/workload/pkg/filter"
	"github.com/harrisonrobin/workload/pkg/freetime"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/normalize"
	"github.com/harrisonrobin/workload/pkg/timewindow"
	"github.com/harrisonrobin/workload/pkg/workload"
)

const (
	appName    = "workload"
	configName = "config"
	envPrefix  = "WORKLOAD"

	DefaultCalendar = "Tasks"
)

// Source backends.
const (
	SourceTaskwarrior = "taskwarrior"
	SourceOrgMode     = "orgmode"
	SourcePostgres    = "postgres"
	SourceCache       = "cache"
	SourceGoogle      = "google"
	SourceNone        = "none"
)

type Config struct {
	Calendar         string                 `mapstructure:"calendar"`
	Timezone         string                 `mapstructure:"timezone"`
	WeekStart        string                 `mapstructure:"week_start"`
	StaleCutoffDays  int                    `mapstructure:"stale_cutoff_days"`
	EndOfDaySentinel bool                   `mapstructure:"end_of_day_sentinel"`
	FallbackCourse   string                 `mapstructure:"fallback_course"`
	DefaultEstimate  float64                `mapstructure:"default_estimate"`
	Strict           bool                   `mapstructure:"strict"`
	Sleep            freetime.SleepSchedule `mapstructure:"sleep"`
	FreeTime         freetime.Params        `mapstructure:"freetime"`
	Source           SourceConfig           `mapstructure:"source"`
	OrgMode          OrgModeConfig          `mapstructure:"orgmode"`
	Database         DatabaseConfig         `mapstructure:"database"`
	Cache            CacheConfig            `mapstructure:"cache"`
	Server           ServerConfig           `mapstructure:"server"`
	FetchTimeout     time.Duration          `mapstructure:"fetch_timeout"`
}

type SourceConfig struct {
	Manual string `mapstructure:"manual"`
	Synced string `mapstructure:"synced"`
}

type OrgModeConfig struct {
	Files  []string `mapstructure:"files"`
	Course string   `mapstructure:"course"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	UserID   int    `mapstructure:"user_id"`
}

// ConnString renders a lib/pq keyword/value connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Dir is the directory holding the config file, credentials and cache.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+".yaml"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	params := freetime.DefaultParams()
	v.SetDefault("calendar", DefaultCalendar)
	v.SetDefault("timezone", "Local")
	v.SetDefault("week_start", "monday")
	v.SetDefault("stale_cutoff_days", filter.DefaultCutoffDays)
	v.SetDefault("end_of_day_sentinel", true)
	v.SetDefault("fallback_course", normalize.DefaultCourse)
	v.SetDefault("default_estimate", model.DefaultEstimatedHours)
	v.SetDefault("strict", false)
	v.SetDefault("sleep.wake_up_time", "")
	v.SetDefault("sleep.bed_time", "")
	v.SetDefault("freetime.essential_hours", params.EssentialHours)
	v.SetDefault("freetime.default_event_hours", params.DefaultEventHours)
	v.SetDefault("freetime.overdue_surcharge_hours", params.OverdueSurchargeHours)
	v.SetDefault("freetime.lookahead_days", params.LookaheadDays)
	v.SetDefault("source.manual", SourceCache)
	v.SetDefault("source.synced", SourceNone)
	v.SetDefault("orgmode.files", []string{})
	v.SetDefault("orgmode.course", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", appName)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.user_id", 0)
	v.SetDefault("cache.path", filepath.Join(dir, "cache"))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("fetch_timeout", "30s")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error. WORKLOAD_* environment variables
// override file values (WORKLOAD_SLEEP_BED_TIME for sleep.bed_time).
func Load(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if path, err = homedir.Expand(path); err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	if cfg.Cache.Path, err = homedir.Expand(cfg.Cache.Path); err != nil {
		return nil, err
	}
	for i, f := range cfg.OrgMode.Files {
		if cfg.OrgMode.Files[i], err = homedir.Expand(f); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// SetCalendar persists the calendar name into the config file at path (the
// default location when empty), keeping every other key in the file.
func SetCalendar(path, calendar string) error {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	v.Set("calendar", calendar)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Location resolves the configured zone. "Local" and "" mean the system zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SleepSchedule is nil until both times are configured.
func (c *Config) SleepSchedule() *freetime.SleepSchedule {
	if c.Sleep.WakeUpTime == "" || c.Sleep.BedTime == "" {
		return nil
	}
	s := c.Sleep
	return &s
}

// Engine converts the file config into a pipeline config.
func (c *Config) Engine() (workload.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return workload.Config{}, err
	}
	weekStart, err := timewindow.ParseWeekday(c.WeekStart)
	if err != nil {
		return workload.Config{}, err
	}
	wc := workload.DefaultConfig()
	wc.Location = loc
	wc.WeekStart = weekStart
	wc.StaleCutoffDays = c.StaleCutoffDays
	wc.EndOfDaySentinel = c.EndOfDaySentinel
	wc.FallbackCourse = c.FallbackCourse
	wc.DefaultEstimate = c.DefaultEstimate
	wc.Strict = c.Strict
	wc.Sleep = c.SleepSchedule()
	wc.FreeTime = c.FreeTime
	return wc, nil
}
