package storage

import (
	"errors"
	"strings"

	logx "csgobot/pkg/logx"
)

// Open initializes the configured store.
// It returns (nil, ErrDisabled) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "none", "off", "disabled":
		return nil, ErrDisabled
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// OpenOrMemory is Open with an in-memory fallback when storage is disabled.
func OpenOrMemory(cfg Config, log logx.Logger) (Store, error) {
	st, err := Open(cfg, log)
	if errors.Is(err, ErrDisabled) {
		return NewMemory(), nil
	}
	return st, err
}
