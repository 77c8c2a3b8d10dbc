package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TABDO"

	KeyConfigFile           = "config"
	KeyDBPath               = "db_path"
	KeyLogPath              = "log_path"
	KeyWeekStart            = "week_start"
	KeyDesktopNotifications = "desktop_notifications"
	KeySchedulerBuffer      = "scheduler_buffer"
	KeyBadgeFile            = "badge_file"
	KeyDebug                = "debug"
)

var ErrInvalidWeekStart = errors.New("config: week start must be a weekday name")

type RuntimeConfig struct {
	DBPath               string
	LogPath              string
	BadgeFile            string
	WeekStart            time.Weekday
	DesktopNotifications bool
	SchedulerBuffer      int
	Debug                bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	dataDir := defaultDir(os.UserConfigDir)
	cacheDir := defaultDir(os.UserCacheDir)
	return RuntimeConfig{
		DBPath:               filepath.Join(dataDir, "tabdo.db"),
		LogPath:              filepath.Join(cacheDir, "tabdo.log"),
		WeekStart:            time.Sunday,
		DesktopNotifications: false,
		SchedulerBuffer:      64,
	}
}

func defaultDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil || strings.TrimSpace(dir) == "" {
		return ".tabdo"
	}
	return filepath.Join(dir, "tabdo")
}

// LoadDotEnv reads .env files into the process environment. Missing files are ignored
// and variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Prepare registers defaults and TABDO_* environment lookups on v.
func Prepare(v *viper.Viper, base RuntimeConfig) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDBPath, base.DBPath)
	v.SetDefault(KeyLogPath, base.LogPath)
	v.SetDefault(KeyBadgeFile, base.BadgeFile)
	v.SetDefault(KeyWeekStart, strings.ToLower(base.WeekStart.String()))
	v.SetDefault(KeyDesktopNotifications, base.DesktopNotifications)
	v.SetDefault(KeySchedulerBuffer, base.SchedulerBuffer)
	v.SetDefault(KeyDebug, base.Debug)
}

// Load resolves the runtime config from v. A config file named by the "config" key is
// read first; a missing file named explicitly is an error.
func Load(v *viper.Viper) (RuntimeConfig, error) {
	if path := strings.TrimSpace(v.GetString(KeyConfigFile)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return RuntimeConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := RuntimeConfig{
		DBPath:               strings.TrimSpace(v.GetString(KeyDBPath)),
		LogPath:              strings.TrimSpace(v.GetString(KeyLogPath)),
		BadgeFile:            strings.TrimSpace(v.GetString(KeyBadgeFile)),
		DesktopNotifications: v.GetBool(KeyDesktopNotifications),
		SchedulerBuffer:      v.GetInt(KeySchedulerBuffer),
		Debug:                v.GetBool(KeyDebug),
	}
	ws, err := ParseWeekday(v.GetString(KeyWeekStart))
	if err != nil {
		return RuntimeConfig{}, err
	}
	cfg.WeekStart = ws
	if cfg.DBPath == "" {
		return RuntimeConfig{}, errors.New("config: db path is empty")
	}
	if cfg.SchedulerBuffer <= 0 {
		cfg.SchedulerBuffer = DefaultRuntimeConfig().SchedulerBuffer
	}
	return cfg, nil
}

func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekStart, s)
}
