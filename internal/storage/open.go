package storage

import (
	"context"
	"errors"
	"strings"

	"raidscript/internal/logx"
)

// Store persists attempts and their boss state transitions.
type Store interface {
	BeginAttempt(ctx context.Context, a Attempt) (int64, error)
	FinishAttempt(ctx context.Context, a Attempt) error
	AppendTransition(ctx context.Context, t Transition) error
	Attempts(ctx context.Context, encounter string, limit int) ([]Attempt, error)
	Transitions(ctx context.Context, attempt int64) ([]Transition, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
