package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

var errClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl + snapshot)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the forwarders and commands.
type Store interface {
	// PutSeen records key as forwarded until the given time.
	PutSeen(ctx context.Context, key string, until time.Time) error
	// GetSeen returns the expiry recorded for key, expired or not.
	GetSeen(ctx context.Context, key string) (until time.Time, ok bool, err error)
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

// AuditEntry records a forward run or an operator action.
type AuditEntry struct {
	At       time.Time `json:"at"`
	ActorID  int64     `json:"actor_id,omitempty"`
	ChatID   int64     `json:"chat_id,omitempty"`
	ThreadID int       `json:"thread_id,omitempty"`
	Action   string    `json:"action"`
	Target   string    `json:"target,omitempty"`
	OK       int       `json:"ok"`
	Fail     int       `json:"fail"`
	Error    string    `json:"err,omitempty"`
	TookMS   int64     `json:"took_ms"`
}

// Seen reports whether key is recorded and not yet expired at now.
func Seen(ctx context.Context, st Store, key string, now time.Time) (bool, error) {
	until, ok, err := st.GetSeen(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return !until.Before(now), nil
}
