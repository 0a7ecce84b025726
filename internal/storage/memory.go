package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

const memoryAuditCap = 256

// Memory is a process-local Store. Nothing survives a restart.
type Memory struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	audit  []AuditEntry
	closed bool
}

func NewMemory() *Memory {
	return &Memory{seen: map[string]time.Time{}}
}

func (m *Memory) PutSeen(_ context.Context, key string, until time.Time) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.seen[key] = until
	if len(m.seen)%1024 == 0 {
		now := time.Now()
		for k, v := range m.seen {
			if v.Before(now) {
				delete(m.seen, k)
			}
		}
	}
	return nil
}

func (m *Memory) GetSeen(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.seen[strings.TrimSpace(key)]
	return until, ok, nil
}

func (m *Memory) AppendAudit(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.audit = append(m.audit, e)
	if len(m.audit) > memoryAuditCap {
		m.audit = append(m.audit[:0], m.audit[len(m.audit)-memoryAuditCap:]...)
	}
	return nil
}

// Audit returns a copy of the retained audit entries, oldest first.
func (m *Memory) Audit() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AuditEntry(nil), m.audit...)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
