package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig selects and locates the persistence backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the Postgres connection string. When empty, the keyring entry
	// "database-dsn" is consulted.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ServerConfig holds the JSON API listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig holds zerolog settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
	File   string `mapstructure:"file" yaml:"file"`
}

// CalendarConfig controls recurrence evaluation and calendar rendering.
type CalendarConfig struct {
	// MissedFloor is the YYYY-MM-DD date below which missed target days
	// are not flagged.
	MissedFloor string `mapstructure:"missed_floor" yaml:"missed_floor"`

	// WeekStart is the weekday a weekly cycle starts on ("sunday", "monday", ...).
	WeekStart string `mapstructure:"week_start" yaml:"week_start"`
}

// PositionConfig controls the position sequencer.
type PositionConfig struct {
	Increment       float64 `mapstructure:"increment" yaml:"increment"`
	MinGap          float64 `mapstructure:"min_gap" yaml:"min_gap"`
	AutoRenormalize bool    `mapstructure:"auto_renormalize" yaml:"auto_renormalize"`
}

// SyncConfig controls the link-sync dispatcher.
type SyncConfig struct {
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	UserID    string         `mapstructure:"user_id" yaml:"user_id"`
	Database  DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
	Calendar  CalendarConfig `mapstructure:"calendar" yaml:"calendar"`
	Positions PositionConfig `mapstructure:"positions" yaml:"positions"`
	Sync      SyncConfig     `mapstructure:"sync" yaml:"sync"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "planner", "config.yaml")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "planner.db"
	}
	return filepath.Join(home, ".local", "share", "planner", "planner.db")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   DefaultDBPath(),
		},
		Server: ServerConfig{Addr: ":8080"},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Calendar: CalendarConfig{
			MissedFloor: "2025-01-01",
			WeekStart:   "sunday",
		},
		Positions: PositionConfig{
			Increment:       1000,
			MinGap:          1e-6,
			AutoRenormalize: true,
		},
		Sync: SyncConfig{QueueSize: 64},
	}
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("user_id", "")
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", "")
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("calendar.missed_floor", d.Calendar.MissedFloor)
	v.SetDefault("calendar.week_start", d.Calendar.WeekStart)
	v.SetDefault("positions.increment", d.Positions.Increment)
	v.SetDefault("positions.min_gap", d.Positions.MinGap)
	v.SetDefault("positions.auto_renormalize", d.Positions.AutoRenormalize)
	v.SetDefault("sync.queue_size", d.Sync.QueueSize)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with PLANNER_ override file values
// (PLANNER_DATABASE_DRIVER, PLANNER_USER_ID, ...). If the file does not
// exist, defaults plus environment are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("planner")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Positions.Increment <= 0 {
		cfg.Positions.Increment = 1000
	}
	if cfg.Sync.QueueSize <= 0 {
		cfg.Sync.QueueSize = 64
	}
	if _, err := cfg.Calendar.Floor(); err != nil {
		return nil, fmt.Errorf("parsing calendar.missed_floor: %w", err)
	}
	if _, err := cfg.Calendar.FirstWeekday(); err != nil {
		return nil, fmt.Errorf("parsing calendar.week_start: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user_id", cfg.UserID)
	v.Set("database", cfg.Database)
	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)
	v.Set("calendar", cfg.Calendar)
	v.Set("positions", cfg.Positions)
	v.Set("sync", cfg.Sync)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Floor parses MissedFloor as a local date. An empty value means no floor.
func (c CalendarConfig) Floor() (time.Time, error) {
	if c.MissedFloor == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", c.MissedFloor, time.Local)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// FirstWeekday parses WeekStart. An empty value means Sunday.
func (c CalendarConfig) FirstWeekday() (time.Weekday, error) {
	if c.WeekStart == "" {
		return time.Sunday, nil
	}
	d, ok := weekdays[strings.ToLower(c.WeekStart)]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown weekday %q", c.WeekStart)
	}
	return d, nil
}
