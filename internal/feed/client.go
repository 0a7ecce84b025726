package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Status, e.Body)
}

// Client talks to the results/news API. The zero HTTP uses a client with a 15s timeout.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:   baseURL,
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

// API joins the base URL and path with exactly one slash between them.
func (c *Client) API(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// GetJSON fetches path and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	u := c.API(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes+1)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(body, 256))
		return &StatusError{URL: u, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read %s: %w", u, err)
	}
	if len(b) > maxBodyBytes {
		return fmt.Errorf("read %s: body exceeds %d bytes", u, maxBodyBytes)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
}

// Results returns the latest finished matches in the order served.
// Items that cannot be decoded are dropped; skipped counts them.
func (c *Client) Results(ctx context.Context, limit int) (items []Match, skipped int, err error) {
	var raws []json.RawMessage
	if err := c.GetJSON(ctx, withLimit("/results", limit), &raws); err != nil {
		return nil, 0, err
	}
	items, skipped = decodeItems[Match](raws)
	return items, skipped, nil
}

// News returns the latest articles in the order served.
func (c *Client) News(ctx context.Context, limit int) (items []News, skipped int, err error) {
	var raws []json.RawMessage
	if err := c.GetJSON(ctx, withLimit("/news", limit), &raws); err != nil {
		return nil, 0, err
	}
	items, skipped = decodeItems[News](raws)
	return items, skipped, nil
}

func decodeItems[T any](raws []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}
