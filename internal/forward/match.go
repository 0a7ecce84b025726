package forward

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"csgobot/internal/feed"
	"csgobot/internal/render"
	"csgobot/internal/subscribe"
	logx "csgobot/pkg/logx"
)

const matchHeader = "【比赛结果】"

// MatchForward forwards finished matches that involve a followed team.
type MatchForward struct {
	Source Source
	Teams  *subscribe.Registry
	// AllTeams forwards every match regardless of subscriptions.
	AllTeams bool
	Limit    int
	Image    ImageOptions
	Log      logx.Logger
}

func (f *MatchForward) Name() string { return "matches" }

func (f *MatchForward) Fetch(ctx context.Context) ([]Item, error) {
	matches, skipped, err := f.Source.Results(ctx, f.Limit)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		f.Log.Debug("undecodable results dropped", logx.Int("skipped", skipped))
	}
	items := make([]Item, len(matches))
	for i, m := range matches {
		items[i] = m
	}
	return items, nil
}

func (f *MatchForward) Filter(it Item) bool {
	m, ok := it.(feed.Match)
	if !ok {
		return false
	}
	if f.AllTeams {
		return true
	}
	if f.Teams == nil {
		return false
	}
	for _, t := range m.Teams {
		if f.Teams.Has(t.Name) {
			return true
		}
	}
	return false
}

func (f *MatchForward) Format(ctx context.Context, it Item) (Message, error) {
	m, ok := it.(feed.Match)
	if !ok {
		return Message{}, fmt.Errorf("matches: unexpected item %T", it)
	}
	msg := Message{Text: MatchText(m)}
	if f.Image.enabled() && len(m.Teams) == 2 {
		png, err := f.Image.Drawer.DrawPNG(ctx, render.MatchCard{}, f.Image.Width, f.Image.Height, MatchCardContent(m))
		if err != nil {
			// text still goes out
			f.Log.Warn("match card render failed", logx.String("key", m.Key()), logx.Err(err))
		} else {
			msg.Image = png
		}
	}
	return msg, nil
}

// MatchText renders the chat text for a finished match.
func MatchText(m feed.Match) string {
	var b strings.Builder
	b.WriteString(matchHeader)
	b.WriteByte('\n')
	if ev := strings.TrimSpace(m.Event.Name); ev != "" {
		b.WriteString(ev)
		b.WriteByte('\n')
	}
	switch len(m.Teams) {
	case 0:
		b.WriteString(m.Key())
	case 2:
		a, c := m.Teams[0], m.Teams[1]
		b.WriteString(a.Name + " " + strconv.Itoa(a.Score) + " : " + strconv.Itoa(c.Score) + " " + c.Name)
	default:
		parts := make([]string, len(m.Teams))
		for i, t := range m.Teams {
			parts[i] = t.Name + " " + strconv.Itoa(t.Score)
		}
		b.WriteString(strings.Join(parts, " / "))
	}
	return b.String()
}

// MatchCardContent maps a two-team match onto the card scene.
func MatchCardContent(m feed.Match) render.MatchCardContent {
	c := render.MatchCardContent{Event: m.Event.Name, Format: strings.ToUpper(m.Format)}
	if len(m.Teams) > 0 {
		c.TeamA, c.ScoreA = m.Teams[0].Name, m.Teams[0].Score
	}
	if len(m.Teams) > 1 {
		c.TeamB, c.ScoreB = m.Teams[1].Name, m.Teams[1].Score
	}
	return c
}
