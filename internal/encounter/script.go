package encounter

import (
	"time"

	"raidscript/internal/schedule"
)

type Phase uint8

// Combatant is the set of hooks the world invokes on an encounter script.
type Combatant interface {
	Reset()
	JustEngagedWith(who ActorID)
	AttackStart(victim ActorID)
	UpdateAI(diff time.Duration)
	// DamageTaken returns the damage actually applied.
	DamageTaken(attacker ActorID, damage int) int
	JustDied(killer ActorID)
	KilledUnit(victim ActorID)
	JustReachedHome()
	SpellHit(caster ActorID, spell SpellID)
	MovementInform(point int)
	JustSummoned(summon ActorID)
	SummonedCreatureDies(summon, killer ActorID)
	MoveInLineOfSight(who ActorID)
	EnterEvadeMode()
	DoAction(action int)
	SetData(kind, value int)
}

type Schedulable interface {
	Scheduler() *schedule.Scheduler
	Events() *schedule.EventMap
}

type PhaseDriven interface {
	Phase() Phase
	SetPhase(p Phase)
}

// Script is what the world attaches to a creature.
type Script interface {
	Combatant
	Schedulable
	PhaseDriven
	Base() *BossAI
}
