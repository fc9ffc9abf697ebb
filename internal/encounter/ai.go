package encounter

import (
	"time"

	"golang.org/x/time/rate"

	"raidscript/internal/config"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
	"raidscript/internal/util"
)

// Env is everything a script factory receives. Scripts never reach for
// package state; partners and summons are resolved through World.
type Env struct {
	World    World
	Instance Instance
	Rng      util.Source
	Log      logx.Logger

	// BossKey is the instance state a generic script reports to. Empty for
	// creatures whose template is not marked as the boss.
	BossKey string
	// Def is the creature template the script was spawned from, if any.
	Def *config.CreatureDef
	// ReadScript loads script sources referenced by Def.
	ReadScript func(rel string) ([]byte, error)
}

type healthCheck struct {
	pct   float64
	fn    func()
	fired bool
}

// BossAI carries the state every encounter script shares: its own
// scheduler and event map, summons, phase, health checks and the
// instance state it reports to. Scripts embed *BossAI and override the
// hooks they care about, calling the embedded method where the default
// behaviour is still wanted.
type BossAI struct {
	Env

	me      ActorID
	bossKey string

	scheduler *schedule.Scheduler
	events    *schedule.EventMap
	Summons   SummonList

	phase  Phase
	checks []healthCheck

	errLimit   *rate.Limiter
	suppressed int
}

// NewBossAI builds the shared base. bossKey is the instance state the
// encounter reports to; empty for trash and helper creatures.
func NewBossAI(env Env, me ActorID, bossKey string) *BossAI {
	if env.Rng == nil {
		env.Rng = util.New(int64(me))
	}
	if env.Log.IsZero() {
		env.Log = logx.Nop()
	}
	b := &BossAI{
		Env:       env,
		me:        me,
		bossKey:   bossKey,
		scheduler: schedule.New(env.Rng),
		events:    schedule.NewEventMap(env.Rng),
		errLimit:  rate.NewLimiter(rate.Every(5*time.Second), 3),
	}
	b.Log = env.Log.With(logx.Uint64("actor", uint64(me)), logx.String("boss", bossKey))
	return b
}

func (b *BossAI) Base() *BossAI                  { return b }
func (b *BossAI) Me() ActorID                    { return b.me }
func (b *BossAI) BossKey() string                { return b.bossKey }
func (b *BossAI) Scheduler() *schedule.Scheduler { return b.scheduler }
func (b *BossAI) Events() *schedule.EventMap     { return b.events }

func (b *BossAI) Self() (Unit, bool) { return b.World.Unit(b.me) }

func (b *BossAI) Phase() Phase { return b.phase }

// SetPhase also moves the event map into the same phase.
func (b *BossAI) SetPhase(p Phase) {
	if b.phase == p {
		return
	}
	b.Log.Debug("phase changed", logx.Int("from", int(b.phase)), logx.Int("to", int(p)))
	b.phase = p
	b.events.SetPhase(uint8(p))
}

// NotCasting is the standard validator: nothing starts while a cast is
// in progress.
func (b *BossAI) NotCasting() bool {
	u, ok := b.Self()
	return ok && !u.IsCasting()
}

// SetBossState reports st to the instance, if this AI tracks a boss.
func (b *BossAI) SetBossState(st BossState) {
	if b.bossKey == "" || b.Instance == nil {
		return
	}
	if b.Instance.SetBossState(b.bossKey, st) {
		b.Log.Info("boss state", logx.String("state", st.String()))
	}
}

// ---- default hooks ----

// Reset rewinds the AI. Creatures summoned into a running fight do not
// rewind the instance state.
func (b *BossAI) Reset() {
	b.StopAll()
	b.checks = b.checks[:0]
	b.phase = 0
	if u, ok := b.Self(); ok {
		if _, summoned := u.Summoner(); summoned {
			return
		}
	}
	b.SetBossState(NotStarted)
}

func (b *BossAI) JustEngagedWith(ActorID) {
	b.World.ZoneInCombat(b.me)
	b.SetBossState(InProgress)
}

func (b *BossAI) AttackStart(victim ActorID) { b.World.AttackStart(b.me, victim) }

func (b *BossAI) UpdateAI(diff time.Duration) {
	if !b.UpdateVictim() {
		return
	}
	b.checkHealth(0)
	b.RunScheduler(diff)
}

func (b *BossAI) DamageTaken(_ ActorID, damage int) int {
	b.checkHealth(damage)
	return damage
}

func (b *BossAI) JustDied(ActorID) {
	b.StopAll()
	b.SetBossState(Done)
}

func (b *BossAI) EnterEvadeMode() {
	b.StopAll()
	b.SetBossState(Fail)
	b.World.Evade(b.me)
}

// StopAll cancels every pending task and event and despawns summons.
func (b *BossAI) StopAll() {
	b.scheduler.CancelAll()
	b.events.Reset()
	b.Summons.DespawnAll(b.World)
}

func (b *BossAI) JustSummoned(summon ActorID) {
	b.Summons.Add(summon)
	if u, ok := b.Self(); ok && u.IsInCombat() {
		b.World.ZoneInCombat(summon)
	}
}

func (b *BossAI) SummonedCreatureDies(ActorID, ActorID) {}
func (b *BossAI) KilledUnit(ActorID)                    {}
func (b *BossAI) JustReachedHome()                      {}
func (b *BossAI) SpellHit(ActorID, SpellID)             {}
func (b *BossAI) MovementInform(int)                    {}
func (b *BossAI) MoveInLineOfSight(ActorID)             {}
func (b *BossAI) DoAction(int)                          {}
func (b *BossAI) SetData(int, int)                      {}

// ---- update helpers ----

// UpdateVictim reports whether the AI is in combat with a live victim.
func (b *BossAI) UpdateVictim() bool {
	u, ok := b.Self()
	if !ok || !u.IsAlive() || !u.IsInCombat() {
		return false
	}
	_, ok = u.Victim()
	return ok
}

// RunScheduler advances the scheduler and reports task failures, at most a
// few per window so a broken repeating task cannot flood the log.
func (b *BossAI) RunScheduler(diff time.Duration) {
	if err := b.scheduler.Update(diff); err != nil {
		b.reportTaskError(err)
	}
}

func (b *BossAI) reportTaskError(err error) {
	if !b.errLimit.Allow() {
		b.suppressed++
		return
	}
	b.Log.Error("scheduled task failed", logx.Err(err), logx.Int("suppressed", b.suppressed))
	b.suppressed = 0
}

// ---- health checks ----

// ScheduleHealthCheck runs fn once, the first time health drops to pct
// percent or below.
func (b *BossAI) ScheduleHealthCheck(pct float64, fn func()) {
	b.checks = append(b.checks, healthCheck{pct: pct, fn: fn})
}

func (b *BossAI) checkHealth(damage int) {
	if len(b.checks) == 0 {
		return
	}
	u, ok := b.Self()
	if !ok || u.MaxHealth() <= 0 {
		return
	}
	left := float64(u.Health()-damage) * 100 / float64(u.MaxHealth())
	for i := range b.checks {
		c := &b.checks[i]
		if c.fired || left > c.pct {
			continue
		}
		c.fired = true
		b.Log.Debug("health check", logx.Float64("pct", c.pct))
		c.fn()
	}
}

// ---- scheduling helpers ----

// ScheduleTimedEvent runs fn after delay and then every repeatMin..repeatMax.
func (b *BossAI) ScheduleTimedEvent(delay time.Duration, fn func(), repeatMin, repeatMax time.Duration, id schedule.TaskID) {
	opts := []schedule.TaskOption{schedule.RepeatBetween(repeatMin, repeatMax)}
	if id != 0 {
		opts = append(opts, schedule.WithID(id))
	}
	b.scheduler.Schedule(delay, func(*schedule.Context) { fn() }, opts...)
}

// ScheduleUniqueTimedEvent replaces any pending task tagged id.
func (b *BossAI) ScheduleUniqueTimedEvent(delay time.Duration, fn func(), id schedule.TaskID) {
	b.scheduler.Schedule(delay, func(*schedule.Context) { fn() }, schedule.Unique(id))
}

// ---- world shortcuts ----

func (b *BossAI) Victim() (ActorID, bool) {
	u, ok := b.Self()
	if !ok {
		return 0, false
	}
	return u.Victim()
}

func (b *BossAI) IsCasting() bool {
	u, ok := b.Self()
	return ok && u.IsCasting()
}

func (b *BossAI) HealthPct() float64 {
	u, ok := b.Self()
	if !ok || u.MaxHealth() <= 0 {
		return 0
	}
	return float64(u.Health()) * 100 / float64(u.MaxHealth())
}

func (b *BossAI) Talk(line int) { b.World.Talk(b.me, line, 0) }

func (b *BossAI) TalkTo(line int, target ActorID) { b.World.Talk(b.me, line, target) }

func (b *BossAI) DoCast(target ActorID, spell SpellID) bool {
	return b.World.Cast(b.me, target, spell, false)
}

func (b *BossAI) DoCastSelf(spell SpellID) bool { return b.World.Cast(b.me, b.me, spell, false) }

func (b *BossAI) DoCastVictim(spell SpellID) bool {
	v, ok := b.Victim()
	if !ok {
		return false
	}
	return b.DoCast(v, spell)
}

// DoCastRandom casts on a random threat-list member, optionally ignoring
// the current victim.
func (b *BossAI) DoCastRandom(spell SpellID, maxDist float64, excludeVictim bool) bool {
	t, ok := b.SelectTarget(TargetQuery{Method: TargetRandom, MaxDist: maxDist, PlayersOnly: true, ExcludeVictim: excludeVictim})
	if !ok {
		return false
	}
	return b.DoCast(t, spell)
}

func (b *BossAI) SelectTarget(q TargetQuery) (ActorID, bool) {
	return b.World.SelectTarget(b.me, q)
}

func (b *BossAI) Summon(entry Entry, pos Position, d Despawn) (ActorID, bool) {
	return b.World.Summon(b.me, entry, pos, d)
}

// SetAttackable toggles whether players may target the AI.
func (b *BossAI) SetAttackable(on bool) {
	u, ok := b.Self()
	if !ok {
		return
	}
	if on {
		u.RemoveFlag(FlagNonAttackable)
		u.RemoveFlag(FlagNotSelectable)
		return
	}
	u.SetFlag(FlagNonAttackable)
	u.SetFlag(FlagNotSelectable)
}
