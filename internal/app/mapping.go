package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"csgobot/internal/config"
	"csgobot/internal/forward"
	"csgobot/internal/scheduler"
	"csgobot/internal/storage"
	kit "csgobot/internal/transport"
	logx "csgobot/pkg/logx"
)

// groupLogChat parses telegram.group_log. Validate has already rejected
// malformed values, so a parse failure here just disables the sink target.
func groupLogChat(cfg *config.Config) int64 {
	raw := strings.TrimSpace(cfg.Telegram.GroupLog)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     groupLogChat(cfg),
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// storageConfig maps the storage section; a missing section or driver "none"
// yields an empty driver, which storage.OpenOrMemory turns into memory.
func storageConfig(cfg *config.Config) (storage.Config, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	path := strings.TrimSpace(sc.Path)
	switch driver {
	case "", "none":
		return storage.Config{}, nil
	case "file":
		return storage.Config{Driver: "file", Path: path}, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, errors.New("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, nil
	default:
		return storage.Config{}, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Timezone: cfg.Scheduler.Timezone}
}

func forwardSettings(cfg *config.Config) forward.Settings {
	targets := make([]kit.ChatTarget, 0, len(cfg.Forward.Targets))
	for _, t := range cfg.Forward.Targets {
		targets = append(targets, kit.ChatTarget{ChatID: t.ChatID, ThreadID: t.ThreadID})
	}
	return forward.Settings{
		Targets:    targets,
		RatePerSec: cfg.Forward.Rate(),
		SeenTTL:    cfg.Forward.TTL(),
		Prime:      cfg.Forward.PrimeEnabled(),
	}
}

// validateSchedules checks that enabled forwarders have schedules the
// scheduler will accept. It runs at startup and before every hot reload.
func validateSchedules(cfg *config.Config) error {
	var errs []error
	if cfg.Forward.Matches.Enabled {
		if err := scheduler.ValidateSchedule(cfg.Forward.Matches.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("forward.matches.schedule: %w", err))
		}
	}
	if cfg.Forward.News.Enabled {
		if err := scheduler.ValidateSchedule(cfg.Forward.News.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("forward.news.schedule: %w", err))
		}
	}
	return errors.Join(errs...)
}
