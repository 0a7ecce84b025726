package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleJSON = `{
  "telegram": {"token": "123:abc", "owner_user_ids": [42], "poll_timeout": "10s"},
  "logging": {"level": "debug", "console": true},
  "scheduler": {"timezone": "UTC"},
  "storage": {"driver": "file", "path": "./seen"},
  "api": {"base_url": "http://localhost:8080/api"},
  "render": {"enabled": true},
  "forward": {
    "targets": [{"chat_id": -100123, "thread_id": 7}],
    "matches": {"enabled": true, "schedule": "every 5m", "teams": ["NAVI"], "image": true},
    "news": {"enabled": true, "schedule": "10m"}
  }
}`

const sampleYAML = `
telegram:
  token: "123:abc"
api:
  base_url: http://localhost:8080/api
forward:
  prime: false
  targets:
    - chat_id: 1
  news:
    enabled: true
    schedule: "@every 1m"
`

func TestDecodeJSON(t *testing.T) {
	cfg, err := Decode("config.json", []byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Forward.Targets[0].ChatID != -100123 || cfg.Forward.Targets[0].ThreadID != 7 {
		t.Fatalf("targets = %+v", cfg.Forward.Targets)
	}
	if !cfg.Forward.PrimeEnabled() {
		t.Fatalf("prime should default to true")
	}
	if cfg.Forward.TTL() != DefaultSeenTTL || cfg.Forward.Rate() != DefaultForwardRate {
		t.Fatalf("defaults not applied: ttl=%v rate=%d", cfg.Forward.TTL(), cfg.Forward.Rate())
	}
	if w, h := cfg.Render.Size(); w != DefaultCardWidth || h != DefaultCardHeight {
		t.Fatalf("render size = %dx%d", w, h)
	}
}

func TestDecodeYAML(t *testing.T) {
	cfg, err := Decode("config.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Forward.PrimeEnabled() {
		t.Fatalf("prime: false was ignored")
	}
	if cfg.Forward.News.Schedule != "@every 1m" {
		t.Fatalf("schedule = %q", cfg.Forward.News.Schedule)
	}
}

func TestDecodeRejectsUnknownAndTrailing(t *testing.T) {
	if _, err := Decode("c.json", []byte(`{"telegram":{"token":"x"},"plugins":{}}`)); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if _, err := Decode("c.json", []byte(`{} {}`)); err == nil {
		t.Fatalf("trailing data accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no token", func(c *Config) { c.Telegram.Token = "" }, "telegram.token"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "scheduler.timezone"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver"},
		{"bad ttl", func(c *Config) { c.Forward.SeenTTL = "soon" }, "forward.seen_ttl"},
		{"no base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url"},
		{"no targets", func(c *Config) { c.Forward.Targets = nil }, "forward.targets"},
		{"no schedule", func(c *Config) { c.Forward.News.Schedule = " " }, "forward.news.schedule"},
		{"bad group log", func(c *Config) { c.Telegram.GroupLog = "logs" }, "telegram.group_log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode("c.json", []byte(sampleJSON))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			tt.mutate(cfg)
			err = Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatalf("negative accepted")
	}
	if d, _ := ParseDurationOrDefault("x", "0s", time.Minute); d != time.Minute {
		t.Fatalf("default not applied: %v", d)
	}
	for raw, want := range map[string]time.Duration{
		"7d":    7 * 24 * time.Hour,
		"1d12h": 36 * time.Hour,
		"90m":   90 * time.Minute,
	} {
		if d, err := ParseDurationField("forward.seen_ttl", raw); err != nil || d != want {
			t.Fatalf("%q = %v, %v; want %v", raw, d, err, want)
		}
	}
	for _, raw := range []string{"1.5d", "-1d", "3dx", "d"} {
		if _, err := ParseDurationField("forward.seen_ttl", raw); err == nil {
			t.Fatalf("%q accepted", raw)
		}
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	a, _ := Decode("c.json", []byte(sampleJSON))
	b, _ := Decode("c.json", []byte(sampleJSON))
	if changed, _ := SummarizeConfigChange(a, b); len(changed) != 0 {
		t.Fatalf("identical configs reported %v", changed)
	}
	b.Forward.Matches.Teams = append(b.Forward.Matches.Teams, "G2")
	b.Logging.Level = "info"
	changed, _ := SummarizeConfigChange(a, b)
	if strings.Join(changed, ",") != "logging,forward" {
		t.Fatalf("changed = %v", changed)
	}
	if ForwardChanged(a, b) {
		t.Fatalf("team change should not require re-registering")
	}
	b.Forward.News.Schedule = "1h"
	if !ForwardChanged(a, b) {
		t.Fatalf("schedule change not detected")
	}
}

func TestWatchPublishesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(sampleJSON, `"level": "debug"`, `"level": "warn"`, 1)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "warn" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
		if m.Get().Logging.Level != "warn" {
			t.Fatalf("reload not committed")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no config published")
	}
}
