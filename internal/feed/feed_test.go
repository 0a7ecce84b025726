package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const resultsBody = `[
  {"match_id": 2370001, "date": 1700000000000, "event": {"name": "IEM Katowice"},
   "teams": [{"name": "NAVI", "score": 2}, {"name": "G2", "score": 1}], "stars": 2, "format": "bo3"},
  {"matchId": "2370002", "event": "BLAST Premier",
   "team1": {"name": "Vitality"}, "team2": {"name": "FaZe"}, "result": {"team1": 0, "team2": 2}},
  {"event": {"name": "no id"}, "teams": []}
]`

const newsBody = `[
  {"id": 42, "title": " Major announced ", "description": "Details", "link": "https://example.com/42"},
  {"title": "No id", "description": "d", "link": "https://example.com/x", "time": "2024-01-01"},
  {"title": "Broken"}
]`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			http.Error(w, "bad accept", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/api/results":
			if r.URL.Query().Get("limit") != "" && r.URL.Query().Get("limit") != "5" {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(resultsBody))
		case "/api/news":
			_, _ = w.Write([]byte(newsBody))
		case "/api/huge":
			_, _ = w.Write([]byte("[" + strings.Repeat(" ", maxBodyBytes) + "]"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIJoin(t *testing.T) {
	t.Parallel()
	tests := []struct{ base, path, want string }{
		{"http://h/api", "/results", "http://h/api/results"},
		{"http://h/api/", "results", "http://h/api/results"},
		{" http://h/api// ", "//news", "http://h/api/news"},
		{"http://h", "", "http://h"},
	}
	for _, tt := range tests {
		c := &Client{BaseURL: tt.base}
		if got := c.API(tt.path); got != tt.want {
			t.Fatalf("API(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestResults(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := NewClient(srv.URL+"/api", time.Second, "csgobot-test")
	items, skipped, err := c.Results(context.Background(), 5)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(items) != 2 || skipped != 1 {
		t.Fatalf("items = %d skipped = %d", len(items), skipped)
	}
	m := items[0]
	if m.Key() != "match:2370001" || m.Event.Name != "IEM Katowice" || m.Format != "bo3" || m.Date != 1700000000000 {
		t.Fatalf("first match = %+v", m)
	}
	if m.Teams[0] != (Team{"NAVI", 2}) || m.Teams[1] != (Team{"G2", 1}) {
		t.Fatalf("teams = %+v", m.Teams)
	}
	h := items[1]
	if h.ID != "2370002" || h.Event.Name != "BLAST Premier" {
		t.Fatalf("hltv-style match = %+v", h)
	}
	if len(h.Teams) != 2 || h.Teams[0] != (Team{"Vitality", 0}) || h.Teams[1] != (Team{"FaZe", 2}) {
		t.Fatalf("hltv-style teams = %+v", h.Teams)
	}
}

func TestNews(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := NewClient(srv.URL+"/api", time.Second, "")
	items, skipped, err := c.News(context.Background(), 0)
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if len(items) != 2 || skipped != 1 {
		t.Fatalf("items = %d skipped = %d", len(items), skipped)
	}
	if items[0].Key() != "news:42" || items[0].Title != "Major announced" {
		t.Fatalf("first = %+v", items[0])
	}
	if items[1].Key() != "news:https://example.com/x" || items[1].Date != "2024-01-01" {
		t.Fatalf("second = %+v", items[1])
	}
}

func TestStatusAndSizeErrors(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := NewClient(srv.URL+"/api", time.Second, "")

	var v any
	err := c.GetJSON(context.Background(), "/missing", &v)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("body snippet missing: %v", err)
	}
	if err := c.GetJSON(context.Background(), "/huge", &v); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("oversized body: err = %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := NewClient(srv.URL+"/api", time.Second, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := c.Results(ctx, 0); err == nil {
		t.Fatal("canceled request succeeded")
	}
}
