package encounter

import "time"

type (
	ActorID uint64
	Entry   uint32
	SpellID uint32
)

type Position struct {
	X, Y, Z float64
	O       float64
}

type UnitFlag uint32

const (
	FlagNonAttackable UnitFlag = 1 << iota
	FlagNotSelectable
	FlagPassive
	FlagFakingDeath
	FlagStunned
	FlagFlying
)

// TargetMethod selects among the caster's threat list.
type TargetMethod uint8

const (
	TargetVictim TargetMethod = iota
	TargetRandom
	TargetMaxThreat
	TargetMinThreat
	TargetFarthest
)

type TargetQuery struct {
	Method      TargetMethod
	Offset      int
	MaxDist     float64
	PlayersOnly bool
	// Exclude skips the caster's current victim.
	ExcludeVictim bool
}

type DespawnKind uint8

const (
	DespawnManual DespawnKind = iota
	DespawnTimed
	DespawnOnDeath
	DespawnOutOfCombat
)

type Despawn struct {
	Kind  DespawnKind
	After time.Duration
}

// Unit is the view of a world actor an encounter script may read and mutate.
type Unit interface {
	ID() ActorID
	Entry() Entry
	Name() string
	IsAlive() bool
	Health() int
	MaxHealth() int
	SetHealth(hp int)
	HasFlag(f UnitFlag) bool
	SetFlag(f UnitFlag)
	RemoveFlag(f UnitFlag)
	IsCasting() bool
	IsInCombat() bool
	IsPlayer() bool
	Position() Position
	Home() Position
	Victim() (ActorID, bool)
	Summoner() (ActorID, bool)
	// Script is the AI attached to the unit, if any.
	Script() (Script, bool)
}

// World is every action an encounter script can take on the simulation.
// Lookups by ActorID may fail at any time; callers skip the effect then.
type World interface {
	Unit(id ActorID) (Unit, bool)
	SpellInfo(spell SpellID) (SpellInfo, bool)

	Cast(caster, target ActorID, spell SpellID, triggered bool) bool
	Talk(speaker ActorID, line int, target ActorID)
	SelectTarget(caster ActorID, q TargetQuery) (ActorID, bool)
	Summon(owner ActorID, entry Entry, pos Position, d Despawn) (ActorID, bool)
	Despawn(id ActorID, after time.Duration)
	Kill(killer, victim ActorID)
	Resurrect(id ActorID)

	Threat(owner, target ActorID) float64
	AddThreat(owner, target ActorID, amount float64)
	ModifyThreatPct(owner, target ActorID, pct int)
	ResetThreat(owner ActorID)
	AttackStart(attacker, victim ActorID)
	ZoneInCombat(id ActorID)
	Evade(id ActorID)

	MovePoint(id ActorID, point int, pos Position)
	MoveRandom(id ActorID, radius float64)
	Interrupt(id ActorID)
	RemoveAura(id ActorID, spell SpellID)
}

type SpellInfo struct {
	ID     SpellID
	Name   string
	School string
}
