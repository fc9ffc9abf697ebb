package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"raidscript/internal/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// batch workers share one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}
	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Path, err)
	}
	log.Debug("sqlite store opened", logx.String("path", cfg.Path))
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) BeginAttempt(ctx context.Context, a Attempt) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(encounter, seed, started_at, state) VALUES(?,?,?,?)`,
		a.Encounter, a.Seed, a.StartedAt.UTC().Format(time.RFC3339Nano), a.State,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) FinishAttempt(ctx context.Context, a Attempt) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET duration_ms = ?, win = ?, wipe = ?, state = ?, dps = ? WHERE id = ?`,
		a.Duration.Milliseconds(), a.Win, a.Wipe, a.State, a.DPS, a.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attempt %d not found", a.ID)
	}
	return nil
}

func (s *sqliteStore) AppendTransition(ctx context.Context, t Transition) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions(attempt_id, boss, state, at_ms) VALUES(?,?,?,?)`,
		t.Attempt, t.Boss, t.State, t.At.Milliseconds(),
	)
	return err
}

// Attempts lists the newest attempts first. An empty encounter lists all.
func (s *sqliteStore) Attempts(ctx context.Context, encounter string, limit int) ([]Attempt, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, encounter, seed, started_at, duration_ms, win, wipe, state, dps
		 FROM attempts WHERE ? = '' OR encounter = ? ORDER BY id DESC LIMIT ?`,
		encounter, encounter, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var started string
		var ms int64
		if err := rows.Scan(&a.ID, &a.Encounter, &a.Seed, &started, &ms, &a.Win, &a.Wipe, &a.State, &a.DPS); err != nil {
			return nil, err
		}
		a.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		a.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Transitions(ctx context.Context, attempt int64) ([]Transition, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT boss, state, at_ms FROM transitions WHERE attempt_id = ? ORDER BY seq`, attempt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		t := Transition{Attempt: attempt}
		var ms int64
		if err := rows.Scan(&t.Boss, &t.State, &ms); err != nil {
			return nil, err
		}
		t.At = time.Duration(ms) * time.Millisecond
		out = append(out, t)
	}
	return out, rows.Err()
}
