package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Team struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Event struct {
	Name string `json:"name"`
}

// Match is one finished match from /results.
type Match struct {
	ID     string `json:"match_id"`
	Date   int64  `json:"date,omitempty"` // unix milli
	Event  Event  `json:"event"`
	Teams  []Team `json:"teams"`
	Stars  int    `json:"stars,omitempty"`
	Format string `json:"format,omitempty"`
}

// Key identifies the match in the seen store.
func (m Match) Key() string { return "match:" + m.ID }

// UnmarshalJSON accepts both the flat layout (match_id, teams[]) and the
// HLTV-style layout (matchId or id, team1/team2 with result, event as a string).
func (m *Match) UnmarshalJSON(b []byte) error {
	var raw struct {
		MatchID  json.RawMessage `json:"match_id"`
		MatchID2 json.RawMessage `json:"matchId"`
		ID       json.RawMessage `json:"id"`
		Date     json.RawMessage `json:"date"`
		Event    json.RawMessage `json:"event"`
		Teams    []rawTeam       `json:"teams"`
		Team1    *rawTeam        `json:"team1"`
		Team2    *rawTeam        `json:"team2"`
		Result   *struct {
			Team1 int `json:"team1"`
			Team2 int `json:"team2"`
		} `json:"result"`
		Stars  int    `json:"stars"`
		Format string `json:"format"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := Match{Stars: raw.Stars, Format: raw.Format}
	for _, id := range []json.RawMessage{raw.MatchID, raw.MatchID2, raw.ID} {
		if s := scalarString(id); s != "" {
			out.ID = s
			break
		}
	}
	if out.ID == "" {
		return fmt.Errorf("match without id")
	}
	if s := scalarString(raw.Date); s != "" {
		out.Date, _ = strconv.ParseInt(s, 10, 64)
	}

	if len(raw.Event) > 0 {
		var ev Event
		if err := json.Unmarshal(raw.Event, &ev); err != nil {
			ev.Name = scalarString(raw.Event)
		}
		out.Event = ev
	}

	for _, t := range raw.Teams {
		out.Teams = append(out.Teams, t.team())
	}
	if len(out.Teams) == 0 {
		for _, t := range []*rawTeam{raw.Team1, raw.Team2} {
			if t != nil {
				out.Teams = append(out.Teams, t.team())
			}
		}
		if raw.Result != nil && len(out.Teams) == 2 {
			out.Teams[0].Score, out.Teams[1].Score = raw.Result.Team1, raw.Result.Team2
		}
	}
	*m = out
	return nil
}

type rawTeam struct {
	Name   string `json:"name"`
	Score  *int   `json:"score"`
	Result *int   `json:"result"`
}

func (t rawTeam) team() Team {
	out := Team{Name: strings.TrimSpace(t.Name)}
	switch {
	case t.Score != nil:
		out.Score = *t.Score
	case t.Result != nil:
		out.Score = *t.Result
	}
	return out
}

// News is one article from /news.
type News struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Date        string `json:"date,omitempty"`
}

// Key identifies the article in the seen store; the link stands in for a missing id.
func (n News) Key() string {
	if id := strings.TrimSpace(n.ID); id != "" {
		return "news:" + id
	}
	return "news:" + strings.TrimSpace(n.Link)
}

func (n *News) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Link        string          `json:"link"`
		Date        json.RawMessage `json:"date"`
		Time        json.RawMessage `json:"time"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*n = News{
		ID:          scalarString(raw.ID),
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Link:        strings.TrimSpace(raw.Link),
		Date:        scalarString(raw.Date),
	}
	if n.Date == "" {
		n.Date = scalarString(raw.Time)
	}
	if n.ID == "" && n.Link == "" {
		return fmt.Errorf("news item %q without id or link", n.Title)
	}
	return nil
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
