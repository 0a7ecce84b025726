package render

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	fillWin   = "#2e7d32"
	fillLose  = "#c62828"
	fillMuted = "#666666"
)

// MatchCardContent is the content type drawn by MatchCard.
type MatchCardContent struct {
	Event  string
	Format string
	TeamA  string
	TeamB  string
	ScoreA int
	ScoreB int
}

// MatchCard draws a result card: event on top, then "A sA : sB B" with the
// colon pinned to the horizontal center, then the match format.
type MatchCard struct{}

func (MatchCard) Name() string { return "match_card" }

func (MatchCard) Render(c *Canvas, content any) error {
	m, ok := content.(MatchCardContent)
	if !ok {
		if p, okp := content.(*MatchCardContent); okp && p != nil {
			m, ok = *p, true
		}
	}
	if !ok {
		return fmt.Errorf("%w: match card wants MatchCardContent, got %T", ErrInvalidArgument, content)
	}

	base := c.FontSize()
	small := max(base*3/4, 1)
	big := base * 3 / 2
	h := float64(c.Height())

	if ev := strings.TrimSpace(m.Event); ev != "" {
		if err := c.DrawTextCenter(h*0.12, []string{ev}, []int{small}, []string{fillMuted}, NoPivot); err != nil {
			return err
		}
	}

	fillA, fillB := DefaultFill, DefaultFill
	switch {
	case m.ScoreA > m.ScoreB:
		fillA, fillB = fillWin, fillLose
	case m.ScoreB > m.ScoreA:
		fillA, fillB = fillLose, fillWin
	}
	texts := []string{m.TeamA + "  ", strconv.Itoa(m.ScoreA), " : ", strconv.Itoa(m.ScoreB), "  " + m.TeamB}
	sizes := []int{base, big, big, big, base}
	fills := []string{fillA, fillA, DefaultFill, fillB, fillB}
	// Pivot on the colon so the score stays put whatever the team names are.
	if err := c.DrawTextCenter(h*0.4, texts, sizes, fills, 2); err != nil {
		return err
	}

	if f := strings.TrimSpace(m.Format); f != "" {
		if err := c.DrawTextCenter(h*0.78, []string{f}, []int{small}, []string{fillMuted}, NoPivot); err != nil {
			return err
		}
	}
	return nil
}

// HeadlineContent is the content type drawn by Headline.
type HeadlineContent struct {
	Tag   string
	Title string
}

// Headline draws an optional tag line and a word-wrapped title, every line centered.
type Headline struct{}

func (Headline) Name() string { return "headline" }

func (Headline) Render(c *Canvas, content any) error {
	hc, ok := content.(HeadlineContent)
	if !ok {
		return fmt.Errorf("%w: headline wants HeadlineContent, got %T", ErrInvalidArgument, content)
	}
	size := c.FontSize()
	lineH := float64(size) * 1.4
	margin := float64(size)
	y := margin

	if tag := strings.TrimSpace(hc.Tag); tag != "" {
		tagSize := max(size*3/4, 1)
		if err := c.DrawTextCenter(y, []string{tag}, []int{tagSize}, []string{fillLose}, NoPivot); err != nil {
			return err
		}
		y += float64(tagSize) * 1.6
	}

	maxW := float64(c.Width()) - 2*margin
	for _, line := range WrapText(hc.Title, size, maxW) {
		if y+float64(size) > float64(c.Height()) {
			break
		}
		if err := c.DrawTextCenter(y, []string{line}, nil, nil, NoPivot); err != nil {
			return err
		}
		y += lineH
	}
	return nil
}

// WrapText breaks text into lines whose EstimateWidth fits maxWidth.
// It prefers spaces and falls back to breaking between any two runes, which
// is also how ideographic text wraps.
func WrapText(text string, fontSize int, maxWidth float64) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxWidth <= 0 {
		return []string{text}
	}
	var (
		lines     []string
		cur       []rune
		curW      float64
		lastSpace = -1
	)
	size := float64(fontSize)
	for _, r := range text {
		if r == '\n' {
			lines = append(lines, strings.TrimSpace(string(cur)))
			cur, curW, lastSpace = cur[:0], 0, -1
			continue
		}
		w := charWeight(r) * size
		if curW+w > maxWidth && len(cur) > 0 {
			if lastSpace > 0 {
				lines = append(lines, strings.TrimSpace(string(cur[:lastSpace])))
				rest := append([]rune(nil), cur[lastSpace+1:]...)
				cur = rest
				curW = 0
				for _, rr := range cur {
					curW += charWeight(rr) * size
				}
			} else {
				lines = append(lines, string(cur))
				cur, curW = cur[:0], 0
			}
			lastSpace = -1
			if r == ' ' && len(cur) == 0 {
				continue
			}
		}
		if r == ' ' {
			lastSpace = len(cur)
		}
		cur = append(cur, r)
		curW += w
	}
	if s := strings.TrimSpace(string(cur)); s != "" {
		lines = append(lines, s)
	}
	return lines
}
