package karazhan

import (
	"slices"
	"time"

	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
	"raidscript/internal/util"
)

const (
	moroesSayAggro   = 0
	moroesSaySpecial = 1
	moroesSayKill    = 2
	moroesSayDeath   = 3

	guestSay = 0
)

const (
	SpellVanish         encounter.SpellID = 29448
	SpellGarrote        encounter.SpellID = 37066
	SpellBlind          encounter.SpellID = 34694
	SpellGouge          encounter.SpellID = 29425
	SpellFrenzy         encounter.SpellID = 37023
	SpellDualWield      encounter.SpellID = 29651
	SpellBerserk        encounter.SpellID = 26662
	SpellVanishTeleport encounter.SpellID = 29431
)

const (
	groupBeforeCombat schedule.Group = 1

	taskKillCooldown schedule.TaskID = 1
	taskVanish       schedule.TaskID = 2
)

const activeGuestCount = 4

// GuestEntries are the six dinner guests Moroes picks from.
var GuestEntries = [6]encounter.Entry{17007, 19872, 19873, 19874, 19875, 19876}

var guestPositions = [activeGuestCount]encounter.Position{
	{X: -10987.38, Y: -1883.38, Z: 81.73, O: 1.50},
	{X: -10989.60, Y: -1881.27, Z: 81.73, O: 0.73},
	{X: -10978.81, Y: -1884.08, Z: 81.73, O: 1.50},
	{X: -10976.38, Y: -1882.59, Z: 81.73, O: 2.31},
}

// Moroes hosts four of six guests. He vanishes every 30 seconds, which
// pushes every other ability back while he is gone, then garrotes a
// random player on his return.
type Moroes struct {
	*encounter.BossAI

	activeGuests uint8
	vanished     bool
	spoken       bool
	garroted     []encounter.ActorID
}

func NewMoroes(env encounter.Env, me encounter.ActorID) *Moroes {
	m := &Moroes{BossAI: encounter.NewBossAI(env, me, env.BossKey)}
	m.Scheduler().SetValidator(m.NotCasting)
	return m
}

func (m *Moroes) Reset() {
	m.BossAI.Reset()
	m.spoken = false
	m.setVanished(false)
	m.clearGarrote()
	m.World.Cast(m.Me(), m.Me(), SpellDualWield, true)
	m.ScheduleHealthCheck(31, func() {
		m.World.Cast(m.Me(), m.Me(), SpellFrenzy, true)
	})
	m.initializeGuests()
}

// initializeGuests keeps the same guest selection across resets: one of
// the first three and one of the last three sit out.
func (m *Moroes) initializeGuests() {
	if u, ok := m.Self(); !ok || !u.IsAlive() {
		return
	}
	if m.activeGuests == 0 {
		first := uint8(1) << util.Pick(m.Rng, 3)
		second := uint8(1) << (3 + util.Pick(m.Rng, 3))
		m.activeGuests = 0x3F &^ (first | second)
	}
	slot := 0
	for i, entry := range GuestEntries {
		if m.activeGuests&(1<<i) == 0 {
			continue
		}
		m.Summon(entry, guestPositions[slot], encounter.Despawn{Kind: encounter.DespawnManual})
		slot++
	}

	m.Scheduler().CancelGroup(groupBeforeCombat)
	m.Scheduler().Schedule(10*time.Second, func(*schedule.Context) {
		if g, ok := m.randomGuest(); ok {
			m.World.Talk(g, guestSay, 0)
		}
	}, schedule.InGroup(groupBeforeCombat), schedule.RepeatEvery(5*time.Second))
}

func (m *Moroes) randomGuest() (encounter.ActorID, bool) {
	var alive []encounter.ActorID
	m.Summons.Each(m.World, func(u encounter.Unit) {
		if u.IsAlive() {
			alive = append(alive, u.ID())
		}
	})
	if len(alive) == 0 {
		return 0, false
	}
	return alive[util.Pick(m.Rng, len(alive))], true
}

func (m *Moroes) JustEngagedWith(who encounter.ActorID) {
	m.BossAI.JustEngagedWith(who)
	m.Talk(moroesSayAggro)

	s := m.Scheduler()
	s.CancelGroup(groupBeforeCombat)
	s.Schedule(30*time.Second, func(c *schedule.Context) {
		c.Scheduler().DelayAll(9 * time.Second)
		m.setVanished(true)
		m.DoCastSelf(SpellVanish)
		c.RepeatAfter(30 * time.Second)
		c.ScheduleBetween(5*time.Second, 7*time.Second, func(*schedule.Context) {
			m.Talk(moroesSaySpecial)
			m.garrote()
			m.World.Cast(m.Me(), m.Me(), SpellVanishTeleport, true)
			m.setVanished(false)
		})
	}, schedule.WithID(taskVanish))
	s.Schedule(20*time.Second, func(c *schedule.Context) {
		if t, ok := m.SelectTarget(encounter.TargetQuery{Method: encounter.TargetMaxThreat, Offset: 1, MaxDist: 10, PlayersOnly: true}); ok {
			m.DoCast(t, SpellBlind)
		}
		c.RepeatBetween(25*time.Second, 40*time.Second)
	})
	s.Schedule(13*time.Second, func(c *schedule.Context) {
		m.DoCastVictim(SpellGouge)
		c.RepeatBetween(25*time.Second, 40*time.Second)
	})
	s.Schedule(10*time.Minute, func(*schedule.Context) {
		m.World.Cast(m.Me(), m.Me(), SpellBerserk, true)
	})
}

// setVanished keeps Moroes from meleeing while he is gone.
func (m *Moroes) setVanished(on bool) {
	m.vanished = on
	u, ok := m.Self()
	if !ok {
		return
	}
	if on {
		u.SetFlag(encounter.FlagPassive)
	} else {
		u.RemoveFlag(encounter.FlagPassive)
	}
}

func (m *Moroes) Vanished() bool { return m.vanished }

func (m *Moroes) UpdateAI(diff time.Duration) {
	if u, ok := m.Self(); ok && u.IsAlive() && !u.IsInCombat() {
		// only the guest chatter is pending out of combat
		m.RunScheduler(diff)
		return
	}
	m.BossAI.UpdateAI(diff)
}

func (m *Moroes) KilledUnit(encounter.ActorID) {
	if !m.spoken {
		m.Talk(moroesSayKill)
		m.spoken = true
	}
	m.Scheduler().Schedule(5*time.Second, func(*schedule.Context) {
		m.spoken = false
	}, schedule.Unique(taskKillCooldown))
}

func (m *Moroes) JustDied(killer encounter.ActorID) {
	m.BossAI.JustDied(killer)
	m.Talk(moroesSayDeath)
	m.clearGarrote()
	m.Log.Info("moroes defeated", logx.Uint64("killer", uint64(killer)))
}

func (m *Moroes) garrote() {
	t, ok := m.SelectTarget(encounter.TargetQuery{Method: encounter.TargetRandom, MaxDist: 100, PlayersOnly: true, ExcludeVictim: true})
	if !ok || !m.DoCast(t, SpellGarrote) {
		return
	}
	if !slices.Contains(m.garroted, t) {
		m.garroted = append(m.garroted, t)
	}
}

// clearGarrote lifts the bleed from everyone Moroes has garroted.
func (m *Moroes) clearGarrote() {
	for _, id := range m.garroted {
		m.World.RemoveAura(id, SpellGarrote)
	}
	m.garroted = m.garroted[:0]
}
