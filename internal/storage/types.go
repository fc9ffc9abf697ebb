package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string        `yaml:"driver" json:"driver"`
	Path        string        `yaml:"path" json:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
}

// Attempt is one simulated run of an encounter.
type Attempt struct {
	ID        int64
	Encounter string
	Seed      int64
	StartedAt time.Time
	Duration  time.Duration
	Win       bool
	Wipe      bool
	State     string
	DPS       float64
}

// Transition is a boss state change observed during an attempt. At is
// simulated time since the attempt started.
type Transition struct {
	Attempt int64
	Boss    string
	State   string
	At      time.Duration
}
