package config

import (
	"reflect"
	"strings"

	logx "csgobot/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// structured attrs for logging. Tokens are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) ||
		!reflect.DeepEqual(oldCfg.Telegram.OwnerUserIDs, newCfg.Telegram.OwnerUserIDs) ||
		strings.TrimSpace(oldCfg.Telegram.GroupLog) != strings.TrimSpace(newCfg.Telegram.GroupLog) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.Int("telegram.owner_count", len(newCfg.Telegram.OwnerUserIDs)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
		)
	}

	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs, logx.String("scheduler.timezone", newCfg.Scheduler.Timezone))
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		if newCfg.Storage != nil {
			attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.Driver))
		}
	}

	if oldCfg.API != newCfg.API {
		changed = append(changed, "api")
		attrs = append(attrs, logx.String("api.base_url", newCfg.API.BaseURL))
	}

	if oldCfg.Render != newCfg.Render {
		changed = append(changed, "render")
		attrs = append(attrs, logx.Bool("render.enabled", newCfg.Render.Enabled))
	}

	if !reflect.DeepEqual(oldCfg.Forward, newCfg.Forward) {
		changed = append(changed, "forward")
		attrs = append(attrs,
			logx.Int("forward.targets", len(newCfg.Forward.Targets)),
			logx.Bool("forward.matches", newCfg.Forward.Matches.Enabled),
			logx.Bool("forward.news", newCfg.Forward.News.Enabled),
			logx.Int("forward.teams", len(newCfg.Forward.Matches.Teams)),
		)
	}

	if len(changed) > 0 {
		attrs = append(attrs, logx.Strings("changed", changed))
	}
	return changed, attrs
}

// ForwardChanged reports whether the forwarder schedules or flags differ.
// Teams, targets and rate changes are applied live without re-registering.
func ForwardChanged(oldCfg, newCfg *Config) bool {
	if oldCfg == nil || newCfg == nil {
		return oldCfg != newCfg
	}
	o, n := oldCfg.Forward, newCfg.Forward
	return o.Matches.Enabled != n.Matches.Enabled ||
		strings.TrimSpace(o.Matches.Schedule) != strings.TrimSpace(n.Matches.Schedule) ||
		o.News.Enabled != n.News.Enabled ||
		strings.TrimSpace(o.News.Schedule) != strings.TrimSpace(n.News.Schedule) ||
		oldCfg.Scheduler != newCfg.Scheduler
}
