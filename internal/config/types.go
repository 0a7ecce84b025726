package config

import "time"

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	API       APIConfig       `json:"api"`
	Render    RenderConfig    `json:"render"`
	Forward   ForwardConfig   `json:"forward"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// GroupLog is the chat id (as a string) receiving the Telegram log sink.
	GroupLog string `json:"group_log"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type SchedulerConfig struct {
	// Timezone is an IANA name used for cron and HH:MM schedules. Empty means local time.
	Timezone string `json:"timezone,omitempty"`
}

// StorageConfig controls the seen-item store.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./csgobot_seen" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// APIConfig points at the esports results/news API.
type APIConfig struct {
	BaseURL   string `json:"base_url"`
	Timeout   string `json:"timeout,omitempty"` // default 15s
	UserAgent string `json:"user_agent,omitempty"`
}

type RenderConfig struct {
	Enabled  bool   `json:"enabled"`
	FontPath string `json:"font_path,omitempty"` // empty uses the embedded Go font
	FontSize int    `json:"font_size,omitempty"` // default 32
	Width    int    `json:"width,omitempty"`     // default 800
	Height   int    `json:"height,omitempty"`    // default 320
}

type ForwardTarget struct {
	ChatID   int64 `json:"chat_id"`
	ThreadID int   `json:"thread_id,omitempty"`
}

type ForwardConfig struct {
	Targets    []ForwardTarget `json:"targets"`
	RatePerSec int             `json:"rate_per_sec,omitempty"` // default 1
	SeenTTL    string          `json:"seen_ttl,omitempty"`     // default 168h
	// Prime is a pointer so an omitted value can default to true.
	Prime   *bool         `json:"prime,omitempty"`
	Matches MatchesConfig `json:"matches"`
	News    NewsConfig    `json:"news"`
}

type MatchesConfig struct {
	Enabled  bool     `json:"enabled"`
	Schedule string   `json:"schedule"`
	AllTeams bool     `json:"all_teams,omitempty"`
	Teams    []string `json:"teams"`
	// Image attaches a rendered match card when render.enabled is set.
	Image bool `json:"image,omitempty"`
}

type NewsConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	Limit    int    `json:"limit,omitempty"`
	Image    bool   `json:"image,omitempty"`
}

const (
	DefaultAPITimeout  = 15 * time.Second
	DefaultSeenTTL     = 7 * 24 * time.Hour
	DefaultFontSize    = 32
	DefaultCardWidth   = 800
	DefaultCardHeight  = 320
	DefaultForwardRate = 1
)

func (f ForwardConfig) PrimeEnabled() bool { return f.Prime == nil || *f.Prime }

func (f ForwardConfig) Rate() int {
	if f.RatePerSec <= 0 {
		return DefaultForwardRate
	}
	return f.RatePerSec
}

func (f ForwardConfig) TTL() time.Duration {
	d, err := ParseDurationOrDefault("forward.seen_ttl", f.SeenTTL, DefaultSeenTTL)
	if err != nil {
		return DefaultSeenTTL
	}
	return d
}

func (a APIConfig) RequestTimeout() time.Duration {
	d, err := ParseDurationOrDefault("api.timeout", a.Timeout, DefaultAPITimeout)
	if err != nil {
		return DefaultAPITimeout
	}
	return d
}

// Size returns the card size with defaults applied.
func (r RenderConfig) Size() (w, h int) {
	w, h = r.Width, r.Height
	if w <= 0 {
		w = DefaultCardWidth
	}
	if h <= 0 {
		h = DefaultCardHeight
	}
	return w, h
}

func (r RenderConfig) BaseFontSize() int {
	if r.FontSize <= 0 {
		return DefaultFontSize
	}
	return r.FontSize
}
