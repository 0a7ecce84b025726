package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"csgobot/internal/forward"
	"csgobot/internal/render"
	"csgobot/internal/storage"
	"csgobot/internal/subscribe"
	kit "csgobot/internal/transport"
	logx "csgobot/pkg/logx"
)

type reply struct {
	to    kit.ChatTarget
	text  string
	photo []byte
}

type fakeSender struct {
	mu      sync.Mutex
	replies []reply
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply{to: to, text: text})
	return kit.MessageRef{ChatID: to.ChatID}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, to kit.ChatTarget, img []byte, caption string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply{to: to, text: caption, photo: img})
	return kit.MessageRef{ChatID: to.ChatID}, nil
}

func (f *fakeSender) last(t *testing.T) reply {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		t.Fatalf("no reply sent")
	}
	return f.replies[len(f.replies)-1]
}

type fakeRunner struct {
	rep   forward.Report
	err   error
	names []string
}

func (f *fakeRunner) RunOnce(_ context.Context, name string) (forward.Report, error) {
	f.names = append(f.names, name)
	return f.rep, f.err
}

type fakeDrawer struct {
	scene   string
	content any
	err     error
}

func (f *fakeDrawer) DrawPNG(_ context.Context, scene render.Scene, _, _ int, content any) ([]byte, error) {
	f.scene, f.content = scene.Name(), content
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

const ownerID = 42

// send routes text as if it came from user `from` and runs the queued job.
func send(t *testing.T, m *Manager, from int64, text string, group bool) {
	t.Helper()
	msg := &kit.Message{ChatID: 100, FromID: from, Text: text, IsGroup: group}
	m.route(context.Background(), msg)
	select {
	case job := <-m.jobs:
		job()
	default:
	}
}

func newTestManager(h *Handlers) (*Manager, *fakeSender) {
	s := &fakeSender{}
	m := NewManager(s, []int64{ownerID}, logx.Nop())
	m.SetRegistry(h.Commands())
	return m, s
}

func TestTokenizeCommandLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/teams", []string{"/teams"}},
		{"/follow  Natus   Vincere ", []string{"/follow", "Natus", "Vincere"}},
		{`/card "Natus Vincere" 2 1 'G2 Esports'`, []string{"/card", "Natus Vincere", "2", "1", "G2 Esports"}},
		{`/follow Team\ Liquid`, []string{"/follow", "Team Liquid"}},
		{`/x ""`, []string{"/x", ""}},
		{"/follow 天禄", []string{"/follow", "天禄"}},
	}
	for _, tt := range tests {
		got := tokenizeCommandLine(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Fatalf("tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandWord(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"/Follow":         "follow",
		"/teams@csgo_bot": "teams",
		"help":            "help",
	} {
		if got := commandWord(in); got != want {
			t.Fatalf("commandWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFollowUnfollowTeams(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory()
	teams := subscribe.NewRegistry()
	m, s := newTestManager(&Handlers{Teams: teams, Store: store})

	send(t, m, ownerID, "/follow Natus Vincere", false)
	if got := s.last(t).text; got != "now following Natus Vincere" {
		t.Fatalf("follow reply = %q", got)
	}
	send(t, m, ownerID, "/follow natus  vincere", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "already following") {
		t.Fatalf("second follow reply = %q", got)
	}
	send(t, m, 7, "/teams", true)
	if got := s.last(t).text; !strings.Contains(got, "Natus Vincere") || !strings.Contains(got, "(1)") {
		t.Fatalf("teams reply = %q", got)
	}
	send(t, m, ownerID, "/unfollow NATUS VINCERE", false)
	if teams.Len() != 0 {
		t.Fatalf("registry still has %v", teams.List())
	}
	send(t, m, ownerID, "/teams", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "no teams followed") {
		t.Fatalf("empty teams reply = %q", got)
	}

	audit := store.Audit()
	if len(audit) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(audit))
	}
	if audit[0].Action != "follow" || audit[0].OK != 1 || audit[0].ActorID != ownerID {
		t.Fatalf("first audit = %+v", audit[0])
	}
	if audit[1].Fail != 1 {
		t.Fatalf("duplicate follow should be audited as a failure: %+v", audit[1])
	}
}

func TestOwnerOnlyRejected(t *testing.T) {
	t.Parallel()
	teams := subscribe.NewRegistry()
	m, s := newTestManager(&Handlers{Teams: teams})
	send(t, m, 7, "/follow FaZe", true)
	if got := s.last(t).text; got != "unauthorized" {
		t.Fatalf("reply = %q, want unauthorized", got)
	}
	if teams.Has("FaZe") {
		t.Fatalf("non-owner changed subscriptions")
	}
}

func TestOwnerCheckSkippedWithoutOwners(t *testing.T) {
	t.Parallel()
	teams := subscribe.NewRegistry()
	m, _ := newTestManager(&Handlers{Teams: teams})
	m.SetOwners(nil)
	send(t, m, 7, "/follow FaZe", false)
	if !teams.Has("faze") {
		t.Fatalf("follow should be open when no owners are configured")
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	m, s := newTestManager(&Handlers{Teams: subscribe.NewRegistry()})
	send(t, m, 7, "/nope", true)
	if len(s.replies) != 0 {
		t.Fatalf("group got a reply for an unknown command: %+v", s.replies)
	}
	send(t, m, 7, "/nope", false)
	if got := s.last(t).text; !strings.Contains(got, "/help") {
		t.Fatalf("private reply = %q", got)
	}
	send(t, m, 7, "plain text", false)
	if len(s.replies) != 1 {
		t.Fatalf("plain text should be ignored, replies = %d", len(s.replies))
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()
	m, s := newTestManager(&Handlers{Teams: subscribe.NewRegistry()})
	send(t, m, 7, "/start", false)
	got := s.last(t).text
	for _, want := range []string{"/card", "/follow", "/help", "/news", "/results", "/teams", "/unfollow"} {
		if !strings.Contains(got, want) {
			t.Fatalf("help missing %s:\n%s", want, got)
		}
	}
	send(t, m, 7, "/help h", false)
	if got := s.last(t).text; !strings.Contains(got, "Aliases: /h, /start") {
		t.Fatalf("help for alias = %q", got)
	}
	send(t, m, 7, "/help bogus", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "command not found") {
		t.Fatalf("help bogus = %q", got)
	}

	menu := m.Menu()
	if len(menu) != 7 || menu[0].Command != "card" || menu[len(menu)-1].Command != "unfollow" {
		t.Fatalf("menu = %+v", menu)
	}
}

func TestResultsAndNewsRun(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{rep: forward.Report{Fetched: 5, Matched: 2, New: 1, Sent: 1}}
	m, s := newTestManager(&Handlers{Teams: subscribe.NewRegistry(), Forward: r})

	send(t, m, ownerID, "/results", false)
	if got := s.last(t).text; got != "matches: 5 fetched, 2 matched, 1 new, 1 sent" {
		t.Fatalf("results reply = %q", got)
	}
	send(t, m, ownerID, "/news", false)
	if len(r.names) != 2 || r.names[0] != "matches" || r.names[1] != "news" {
		t.Fatalf("runner calls = %v", r.names)
	}

	r.err = forward.ErrUnknownForwarder
	send(t, m, ownerID, "/news", false)
	if got := s.last(t).text; got != "news forwarder is disabled" {
		t.Fatalf("disabled reply = %q", got)
	}

	r.err = errors.New("feed down")
	send(t, m, ownerID, "/results", false)
	if got := s.last(t).text; got != "matches failed: feed down" {
		t.Fatalf("failure reply = %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()
	if got := FormatReport("news", forward.Report{Fetched: 3, Primed: true}); got != "news: primed with 3 existing items" {
		t.Fatalf("primed = %q", got)
	}
	got := FormatReport("matches", forward.Report{Fetched: 2, Matched: 2, New: 2, Sent: 1, Failed: 1})
	if !strings.HasSuffix(got, ", 1 failed") {
		t.Fatalf("failed = %q", got)
	}
}

func TestCard(t *testing.T) {
	t.Parallel()
	d := &fakeDrawer{}
	store := storage.NewMemory()
	m, s := newTestManager(&Handlers{Teams: subscribe.NewRegistry(), Drawer: d, Store: store, CardWidth: 800, CardHeight: 320})

	send(t, m, ownerID, `/card "Natus Vincere" 2 1 G2`, false)
	r := s.last(t)
	if string(r.photo) != "png" {
		t.Fatalf("expected a photo reply, got %+v", r)
	}
	if !strings.Contains(r.text, "Natus Vincere 2 : 1 G2") {
		t.Fatalf("caption = %q", r.text)
	}
	c, ok := d.content.(render.MatchCardContent)
	if !ok || d.scene != "match_card" || c.TeamA != "Natus Vincere" || c.ScoreB != 1 {
		t.Fatalf("drawer got scene %q content %+v", d.scene, d.content)
	}
	if a := store.Audit(); len(a) != 1 || a[0].Action != "card" || a[0].OK != 1 {
		t.Fatalf("audit = %+v", a)
	}

	send(t, m, ownerID, "/card A x 1 B", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "usage:") {
		t.Fatalf("bad score reply = %q", got)
	}

	d.err = render.ErrSurface
	send(t, m, ownerID, "/card A 1 0 B", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "render failed") {
		t.Fatalf("render failure reply = %q", got)
	}
}

func TestCardDisabled(t *testing.T) {
	t.Parallel()
	m, s := newTestManager(&Handlers{Teams: subscribe.NewRegistry()})
	send(t, m, ownerID, "/card A 1 0 B", false)
	if got := s.last(t).text; !strings.HasPrefix(got, "rendering is disabled") {
		t.Fatalf("reply = %q", got)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	t.Parallel()
	s := &fakeSender{}
	m := NewManager(s, nil, logx.Nop())
	m.SetRegistry([]Command{{Name: "boom", Handle: func(context.Context, *Request) error { panic("x") }}})
	send(t, m, 1, "/boom", false)
}
