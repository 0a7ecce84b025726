package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"csgobot/internal/feed"
	"csgobot/internal/forward"
	"csgobot/internal/render"
	"csgobot/internal/storage"
	"csgobot/internal/subscribe"
	logx "csgobot/pkg/logx"
)

// Runner triggers a forwarder on demand. *forward.Service implements it.
type Runner interface {
	RunOnce(ctx context.Context, name string) (forward.Report, error)
}

// Handlers holds what the bot commands operate on.
type Handlers struct {
	Teams   *subscribe.Registry
	Forward Runner
	Store   storage.Store
	// Drawer is nil when rendering is disabled.
	Drawer     forward.Drawer
	CardWidth  int
	CardHeight int
}

var errUsage = errors.New("usage")

// Commands returns the bot's command set.
func (h *Handlers) Commands() []Command {
	return []Command{
		{
			Name:        "follow",
			Description: "follow a team's match results",
			Usage:       "/follow <team>",
			Access:      AccessOwnerOnly,
			Handle:      h.follow,
		},
		{
			Name:        "unfollow",
			Description: "stop following a team",
			Usage:       "/unfollow <team>",
			Access:      AccessOwnerOnly,
			Handle:      h.unfollow,
		},
		{
			Name:        "teams",
			Description: "list followed teams",
			Usage:       "/teams",
			Handle:      h.teams,
		},
		{
			Name:        "results",
			Description: "poll match results now",
			Usage:       "/results",
			Access:      AccessOwnerOnly,
			Timeout:     2 * time.Minute,
			Handle:      h.runner("matches"),
		},
		{
			Name:        "news",
			Description: "poll news now",
			Usage:       "/news",
			Access:      AccessOwnerOnly,
			Timeout:     2 * time.Minute,
			Handle:      h.runner("news"),
		},
		{
			Name:        "card",
			Description: "render a match card",
			Usage:       `/card <teamA> <scoreA> <scoreB> <teamB>  (quote names with spaces)`,
			Access:      AccessOwnerOnly,
			Timeout:     30 * time.Second,
			Handle:      h.card,
		},
	}
}

func (h *Handlers) follow(ctx context.Context, req *Request) error {
	team := strings.Join(req.Args, " ")
	if strings.TrimSpace(team) == "" {
		return req.Reply(ctx, "usage: /follow <team>")
	}
	added := h.Teams.Follow(team)
	h.audit(ctx, req, "follow", team, added)
	if !added {
		return req.Reply(ctx, "already following "+team)
	}
	return req.Reply(ctx, "now following "+team)
}

func (h *Handlers) unfollow(ctx context.Context, req *Request) error {
	team := strings.Join(req.Args, " ")
	if strings.TrimSpace(team) == "" {
		return req.Reply(ctx, "usage: /unfollow <team>")
	}
	removed := h.Teams.Unfollow(team)
	h.audit(ctx, req, "unfollow", team, removed)
	if !removed {
		return req.Reply(ctx, "not following "+team)
	}
	return req.Reply(ctx, "unfollowed "+team)
}

func (h *Handlers) teams(ctx context.Context, req *Request) error {
	list := h.Teams.List()
	if len(list) == 0 {
		return req.Reply(ctx, "no teams followed. use /follow <team>")
	}
	return req.Reply(ctx, fmt.Sprintf("followed teams (%d):\n%s", len(list), strings.Join(list, "\n")))
}

func (h *Handlers) runner(name string) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		if h.Forward == nil {
			return req.Reply(ctx, "forwarding is not configured")
		}
		rep, err := h.Forward.RunOnce(ctx, name)
		if errors.Is(err, forward.ErrUnknownForwarder) {
			return req.Reply(ctx, name+" forwarder is disabled")
		}
		if err != nil {
			_ = req.Reply(ctx, name+" failed: "+err.Error())
			return err
		}
		return req.Reply(ctx, FormatReport(name, rep))
	}
}

// FormatReport renders a run report as a one-line reply.
func FormatReport(name string, rep forward.Report) string {
	if rep.Primed {
		return fmt.Sprintf("%s: primed with %d existing items", name, rep.Fetched)
	}
	s := fmt.Sprintf("%s: %d fetched, %d matched, %d new, %d sent", name, rep.Fetched, rep.Matched, rep.New, rep.Sent)
	if rep.Failed > 0 {
		s += fmt.Sprintf(", %d failed", rep.Failed)
	}
	return s
}

// parseCardArgs reads "<teamA> <scoreA> <scoreB> <teamB>".
func parseCardArgs(args []string) (feed.Match, error) {
	if len(args) != 4 {
		return feed.Match{}, errUsage
	}
	sa, errA := strconv.Atoi(args[1])
	sb, errB := strconv.Atoi(args[2])
	if errA != nil || errB != nil || sa < 0 || sb < 0 {
		return feed.Match{}, errUsage
	}
	return feed.Match{
		ID:    "card",
		Teams: []feed.Team{{Name: args[0], Score: sa}, {Name: args[3], Score: sb}},
	}, nil
}

func (h *Handlers) card(ctx context.Context, req *Request) error {
	if h.Drawer == nil {
		return req.Reply(ctx, "rendering is disabled (render.enabled)")
	}
	m, err := parseCardArgs(req.Args)
	if err != nil {
		return req.Reply(ctx, "usage: /card <teamA> <scoreA> <scoreB> <teamB>")
	}
	png, err := h.Drawer.DrawPNG(ctx, render.MatchCard{}, h.CardWidth, h.CardHeight, forward.MatchCardContent(m))
	h.audit(ctx, req, "card", m.Teams[0].Name+" vs "+m.Teams[1].Name, err == nil)
	if err != nil {
		_ = req.Reply(ctx, "render failed: "+err.Error())
		return err
	}
	return req.ReplyPhoto(ctx, png, forward.MatchText(m))
}

func (h *Handlers) audit(ctx context.Context, req *Request, action, target string, ok bool) {
	if h.Store == nil {
		return
	}
	e := storage.AuditEntry{
		ActorID:  req.FromID,
		ChatID:   req.Chat.ChatID,
		ThreadID: req.Chat.ThreadID,
		Action:   action,
		Target:   target,
	}
	if ok {
		e.OK = 1
	} else {
		e.Fail = 1
	}
	if err := h.Store.AppendAudit(ctx, e); err != nil {
		req.Log.Debug("audit append failed", logx.Err(err))
	}
}
