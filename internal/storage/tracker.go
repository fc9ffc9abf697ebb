package storage

import (
	"context"
	"time"

	"raidscript/internal/encounter"
	"raidscript/internal/logx"
)

// Tracker is an encounter.Instance that records every boss state change
// of one attempt. Data counters pass straight through.
type Tracker struct {
	encounter.Instance

	ctx     context.Context
	store   Store
	attempt int64
	clock   func() time.Duration
	log     logx.Logger
	failed  bool
}

// NewTracker wraps inner. clock returns simulated time since the attempt
// started.
func NewTracker(ctx context.Context, inner encounter.Instance, store Store, attempt int64, clock func() time.Duration, log logx.Logger) *Tracker {
	if log.IsZero() {
		log = logx.Nop()
	}
	if clock == nil {
		clock = func() time.Duration { return 0 }
	}
	return &Tracker{Instance: inner, ctx: ctx, store: store, attempt: attempt, clock: clock, log: log}
}

func (t *Tracker) SetBossState(boss string, st encounter.BossState) bool {
	if !t.Instance.SetBossState(boss, st) {
		return false
	}
	if t.store == nil || t.failed {
		return true
	}
	err := t.store.AppendTransition(t.ctx, Transition{Attempt: t.attempt, Boss: boss, State: st.String(), At: t.clock()})
	if err != nil {
		// one warning per attempt; the run itself keeps going
		t.failed = true
		t.log.Warn("state history disabled for attempt", logx.Int64("attempt", t.attempt), logx.Err(err))
	}
	return true
}
