package encounter

import (
	"time"

	"raidscript/internal/config"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
	"raidscript/internal/util"
)

// TimelineAI plays back a creature's data-driven ability timeline: an
// optional intro before it becomes attackable, abilities on fixed or
// ranged timers, and reactions on death, kills and spell hits.
type TimelineAI struct {
	*BossAI

	def   *config.CreatureDef
	intro *schedule.Scheduler
	casts map[int]int

	// AfterDeath runs once the configured death reactions are done.
	AfterDeath func(killer ActorID)
}

func NewTimelineAI(env Env, me ActorID, bossKey string) *TimelineAI {
	t := &TimelineAI{
		BossAI: NewBossAI(env, me, bossKey),
		def:    env.Def,
		intro:  schedule.New(env.Rng),
		casts:  map[int]int{},
	}
	if t.def == nil {
		t.def = &config.CreatureDef{}
	}
	t.Scheduler().SetValidator(t.NotCasting)
	return t
}

func (t *TimelineAI) timeline() *config.TimelineDef {
	if t.def.Timeline == nil {
		return &config.TimelineDef{}
	}
	return t.def.Timeline
}

func (t *TimelineAI) Reset() {
	t.BossAI.Reset()
	t.intro.Reset()
	clear(t.casts)
	in := t.timeline().Intro
	if in == nil {
		return
	}
	t.SetAttackable(false)
	line := in.Line
	t.intro.Schedule(in.Delay.D(), func(*schedule.Context) {
		if line >= 0 {
			t.Talk(line)
		}
		t.SetAttackable(true)
		t.World.ZoneInCombat(t.Me())
	})
}

func (t *TimelineAI) JustEngagedWith(who ActorID) {
	t.BossAI.JustEngagedWith(who)
	if l := t.timeline().Aggro; l != nil {
		t.Talk(*l)
	}
	for i, a := range t.timeline().Abilities {
		t.scheduleAbility(i, a)
	}
}

func (t *TimelineAI) scheduleAbility(idx int, a config.AbilityDef) {
	first := schedule.Between(a.First.D(), max(a.FirstMax.D(), a.First.D()))
	t.Scheduler().ScheduleBetween(first.Min, first.Max, func(c *schedule.Context) {
		if !t.perform(a) {
			c.RepeatAfter(time.Second)
			return
		}
		t.casts[idx]++
		if a.Repeat <= 0 {
			return
		}
		if a.MaxCasts > 0 && t.casts[idx] >= a.MaxCasts {
			return
		}
		c.RepeatBetween(a.Repeat.D(), max(a.RepeatMax.D(), a.Repeat.D()))
	}, schedule.WithID(schedule.TaskID(idx+1)), schedule.InGroup(schedule.Group(a.Phase)))
}

// perform reports false when no target was available.
func (t *TimelineAI) perform(a config.AbilityDef) bool {
	if a.Summon != 0 {
		u, ok := t.Self()
		if !ok {
			return false
		}
		if _, ok := t.Summon(Entry(a.Summon), u.Position(), Despawn{Kind: DespawnOutOfCombat}); !ok {
			return false
		}
		if a.Line != nil {
			t.Talk(*a.Line)
		}
		return true
	}

	target, ok := t.abilityTarget(a.Target)
	if !ok {
		return false
	}
	if !t.DoCast(target, SpellID(a.Spell)) {
		return false
	}
	if a.Line != nil {
		t.Talk(*a.Line)
	}
	t.Log.Trace("ability", logx.String("name", a.Name), logx.Uint64("target", uint64(target)))
	return true
}

func (t *TimelineAI) abilityTarget(kind string) (ActorID, bool) {
	switch kind {
	case "self":
		return t.Me(), true
	case "random":
		return t.SelectTarget(TargetQuery{Method: TargetRandom, PlayersOnly: true})
	case "max_threat":
		return t.SelectTarget(TargetQuery{Method: TargetMaxThreat})
	case "farthest":
		return t.SelectTarget(TargetQuery{Method: TargetFarthest, PlayersOnly: true})
	default:
		return t.Victim()
	}
}

func (t *TimelineAI) UpdateAI(diff time.Duration) {
	if err := t.intro.Update(diff); err != nil {
		t.reportTaskError(err)
	}
	t.BossAI.UpdateAI(diff)
}

func (t *TimelineAI) KilledUnit(ActorID) {
	if l := t.timeline().KillLine; l != nil {
		t.Talk(*l)
	}
}

func (t *TimelineAI) SpellHit(caster ActorID, spell SpellID) {
	rules := t.timeline().OnSpellHit
	if len(rules) == 0 {
		return
	}
	info, ok := t.World.SpellInfo(spell)
	if !ok {
		return
	}
	for _, r := range rules {
		if r.School != info.School || !util.Chance(t.Rng, r.Chance) {
			continue
		}
		t.DoCastSelf(SpellID(r.Spell))
	}
}

// JustDied only finishes the encounter when the template says so; the
// other members of a multi-creature fight merely report in.
func (t *TimelineAI) JustDied(killer ActorID) {
	d := t.timeline().OnDeath
	if d.Finishes {
		t.BossAI.JustDied(killer)
	} else {
		t.StopAll()
	}
	if d.Line != nil {
		t.Talk(*d.Line)
	}
	if d.Counter != "" && t.Instance != nil {
		n := t.Instance.IncData(d.Counter)
		t.Log.Debug("death counter", logx.String("key", d.Counter), logx.Int("value", n))
	}
	if d.Despawn {
		t.World.Despawn(t.Me(), 0)
	}
	if t.AfterDeath != nil {
		t.AfterDeath(killer)
	}
}
