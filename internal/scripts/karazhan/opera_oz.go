package karazhan

import (
	"time"

	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
)

const (
	EntryDorothee encounter.Entry = 17535
	EntryStrawman encounter.Entry = 17543
	EntryRoar     encounter.Entry = 17546
	EntryTinhead  encounter.Entry = 17547
	EntryTito     encounter.Entry = 17548
	EntryCrone    encounter.Entry = 18168
	EntryCyclone  encounter.Entry = 18412
)

const (
	SpellChainLightning encounter.SpellID = 32337
	SpellKnockback      encounter.SpellID = 32334
	SpellCycloneVisual  encounter.SpellID = 32332
)

const (
	dorotheeSayTitoDeath = 2

	croneSayAggro = 0
	croneSayDeath = 1
	croneSaySlay  = 2
)

// OzDeathCount is the instance counter every fallen Oz character bumps.
const OzDeathCount = "opera_oz_deathcount"

const ozMembers = 4

var cronePosition = encounter.Position{X: -10891.96, Y: -1755.95, O: 4.64}

// OzMember is Dorothee, Roar, the Strawman or the Tinhead. Abilities and
// intros come from the creature's timeline; the Go side counts deaths and
// brings in the Crone once all four have fallen.
type OzMember struct {
	*encounter.TimelineAI
}

func NewOzMember(env encounter.Env, me encounter.ActorID) *OzMember {
	m := &OzMember{TimelineAI: encounter.NewTimelineAI(env, me, env.BossKey)}
	m.AfterDeath = func(encounter.ActorID) { summonCroneIfReady(m.BossAI) }
	return m
}

// AttackStart is ignored until the intro makes the character attackable.
func (m *OzMember) AttackStart(victim encounter.ActorID) {
	if u, ok := m.Self(); ok && u.HasFlag(encounter.FlagNonAttackable) {
		return
	}
	m.TimelineAI.AttackStart(victim)
}

// EnterEvadeMode fails the performance and removes the actor from the stage.
func (m *OzMember) EnterEvadeMode() {
	m.TimelineAI.EnterEvadeMode()
	m.World.Despawn(m.Me(), 0)
}

func summonCroneIfReady(b *encounter.BossAI) {
	if b.Instance == nil {
		return
	}
	n := b.Instance.IncData(OzDeathCount)
	b.Log.Debug("oz death", logx.Int("count", n))
	if n != ozMembers {
		return
	}
	pos := cronePosition
	if u, ok := b.Self(); ok {
		pos.Z = u.Position().Z
	}
	crone, ok := b.Summon(EntryCrone, pos, encounter.Despawn{Kind: encounter.DespawnOnDeath})
	if !ok {
		return
	}
	if u, ok := b.World.Unit(crone); ok {
		u.RemoveFlag(encounter.FlagNonAttackable)
		u.RemoveFlag(encounter.FlagNotSelectable)
	}
	b.World.ZoneInCombat(crone)
}

// Tito is Dorothee's dog. When it dies Dorothee, if still standing, mourns.
type Tito struct {
	*encounter.TimelineAI
}

func NewTito(env encounter.Env, me encounter.ActorID) *Tito {
	t := &Tito{TimelineAI: encounter.NewTimelineAI(env, me, "")}
	t.AfterDeath = func(encounter.ActorID) {
		u, ok := t.Self()
		if !ok {
			return
		}
		owner, ok := u.Summoner()
		if !ok {
			return
		}
		if d, ok := encounter.NewRef(owner).Alive(t.World); ok {
			t.World.Talk(d.ID(), dorotheeSayTitoDeath, 0)
		}
	}
	return t
}

// Crone ends the Oz performance. She is summoned mid-fight, so her death
// is what reports the encounter done.
type Crone struct {
	*encounter.BossAI
}

func NewCrone(env encounter.Env, me encounter.ActorID) *Crone {
	c := &Crone{BossAI: encounter.NewBossAI(env, me, env.BossKey)}
	c.Scheduler().SetValidator(c.NotCasting)
	return c
}

func (c *Crone) JustEngagedWith(who encounter.ActorID) {
	c.BossAI.JustEngagedWith(who)
	c.Talk(croneSayAggro)
	c.Scheduler().
		Schedule(22*time.Second, func(*schedule.Context) {
			u, ok := c.Self()
			if !ok {
				return
			}
			pos := u.Position()
			pos.X += float64(c.Rng.Intn(10))
			pos.Y += float64(c.Rng.Intn(10))
			if id, ok := c.Summon(EntryCyclone, pos, encounter.Despawn{Kind: encounter.DespawnTimed, After: 15 * time.Second}); ok {
				c.World.Cast(id, id, SpellCycloneVisual, true)
			}
		}, schedule.RepeatEvery(22*time.Second)).
		Schedule(8*time.Second, func(*schedule.Context) {
			c.DoCastVictim(SpellChainLightning)
		}, schedule.RepeatEvery(8*time.Second))
}

func (c *Crone) KilledUnit(encounter.ActorID) { c.Talk(croneSaySlay) }

func (c *Crone) JustDied(killer encounter.ActorID) {
	c.Talk(croneSayDeath)
	c.BossAI.JustDied(killer)
}

func (c *Crone) JustReachedHome() { c.World.Despawn(c.Me(), 0) }

// Cyclone wanders around the stage knocking players back. It never
// attacks and has no victim, so it runs its scheduler unconditionally.
type Cyclone struct {
	*encounter.BossAI
	knockback bool
}

func NewCyclone(env encounter.Env, me encounter.ActorID) *Cyclone {
	return &Cyclone{BossAI: encounter.NewBossAI(env, me, "")}
}

func (c *Cyclone) Reset() {
	c.BossAI.Reset()
	c.knockback = false
	if u, ok := c.Self(); ok {
		u.SetFlag(encounter.FlagPassive)
	}
}

func (c *Cyclone) JustEngagedWith(encounter.ActorID) {
	c.Scheduler().Schedule(time.Second, func(*schedule.Context) {
		c.World.MoveRandom(c.Me(), 10)
	}, schedule.RepeatBetween(3*time.Second, 5*time.Second))
}

func (c *Cyclone) MoveInLineOfSight(encounter.ActorID) {}

func (c *Cyclone) UpdateAI(diff time.Duration) {
	u, ok := c.Self()
	if !ok || !u.IsAlive() {
		return
	}
	if !c.knockback {
		c.knockback = c.World.Cast(c.Me(), c.Me(), SpellKnockback, true)
	}
	c.RunScheduler(diff)
}
