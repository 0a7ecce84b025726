package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate checks the parts of cfg that can be checked without touching the
// network. Schedule strings are checked by the scheduler's validator hook.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		add("telegram.token is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if g := strings.TrimSpace(cfg.Telegram.GroupLog); g != "" {
		if _, err := strconv.ParseInt(g, 10, 64); err != nil {
			add("telegram.group_log: not a chat id: %q", g)
		}
	}

	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			add("scheduler.timezone: %w", err)
		}
	}

	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none", "off", "disabled", "file", "sqlite":
		default:
			add("storage.driver: unknown driver %q", st.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := ParseDurationField("api.timeout", cfg.API.Timeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.Render.FontSize < 0 || cfg.Render.Width < 0 || cfg.Render.Height < 0 {
		add("render: font_size, width and height must be >= 0")
	}

	fw := cfg.Forward
	if _, err := ParseDurationField("forward.seen_ttl", fw.SeenTTL); err != nil {
		errs = append(errs, err)
	}
	if fw.RatePerSec < 0 {
		add("forward.rate_per_sec must be >= 0")
	}
	if fw.Matches.Enabled || fw.News.Enabled {
		if strings.TrimSpace(cfg.API.BaseURL) == "" {
			add("api.base_url is required when a forwarder is enabled")
		}
		if len(fw.Targets) == 0 {
			add("forward.targets: at least one target is required when a forwarder is enabled")
		}
	}
	if fw.Matches.Enabled && strings.TrimSpace(fw.Matches.Schedule) == "" {
		add("forward.matches.schedule is required")
	}
	if fw.News.Enabled && strings.TrimSpace(fw.News.Schedule) == "" {
		add("forward.news.schedule is required")
	}
	for i, t := range fw.Targets {
		if t.ChatID == 0 {
			add("forward.targets[%d].chat_id is required", i)
		}
	}
	return errors.Join(errs...)
}
