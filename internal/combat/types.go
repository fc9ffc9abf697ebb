package combat

import (
	"time"

	"raidscript/internal/encounter"
)

type Event struct {
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type castState struct {
	spell  encounter.SpellID
	target encounter.ActorID
	end    time.Duration
}

type moveOrder struct {
	point int
	to    Vec2
}

// Entity is one actor in the simulated world: a hero or a creature.
// It implements encounter.Unit.
type Entity struct {
	id       encounter.ActorID
	entry    encounter.Entry
	name     string
	player   bool
	alive    bool
	inCombat bool

	HP    int
	MaxHP int

	Pos    Vec2
	home   Vec2
	facing float64
	Speed  float64
	Range  float64

	Damage  int
	AtkCD   time.Duration
	nextAtk time.Duration

	flags     encounter.UnitFlag
	victim    encounter.ActorID
	summoner  encounter.ActorID
	threat    map[encounter.ActorID]float64
	cast      *castState
	stunUntil time.Duration
	auras     map[encounter.SpellID]time.Duration
	move      *moveOrder
	leash     float64

	despawnAt   time.Duration
	despawnKind encounter.DespawnKind
	despawned   bool

	script encounter.Script
	hero   *Hero
	lines  []string
}

func newEntity(id encounter.ActorID, name string, maxHP int) *Entity {
	return &Entity{
		id:     id,
		name:   name,
		alive:  true,
		HP:     maxHP,
		MaxHP:  maxHP,
		Speed:  7.0,
		Range:  5.0,
		AtkCD:  2 * time.Second,
		threat: map[encounter.ActorID]float64{},
		auras:  map[encounter.SpellID]time.Duration{},
	}
}

func (e *Entity) ID() encounter.ActorID             { return e.id }
func (e *Entity) Entry() encounter.Entry            { return e.entry }
func (e *Entity) Name() string                      { return e.name }
func (e *Entity) IsAlive() bool                     { return e.alive && !e.despawned }
func (e *Entity) Health() int                       { return e.HP }
func (e *Entity) MaxHealth() int                    { return e.MaxHP }
func (e *Entity) IsCasting() bool                   { return e.cast != nil }
func (e *Entity) IsInCombat() bool                  { return e.inCombat }
func (e *Entity) IsPlayer() bool                    { return e.player }
func (e *Entity) HasFlag(f encounter.UnitFlag) bool { return e.flags&f != 0 }
func (e *Entity) SetFlag(f encounter.UnitFlag)      { e.flags |= f }
func (e *Entity) RemoveFlag(f encounter.UnitFlag)   { e.flags &^= f }

func (e *Entity) SetHealth(hp int) {
	e.HP = min(max(hp, 0), e.MaxHP)
}

func (e *Entity) Position() encounter.Position { return toPosition(e.Pos, e.facing) }
func (e *Entity) Home() encounter.Position     { return toPosition(e.home, 0) }

func (e *Entity) Victim() (encounter.ActorID, bool) { return e.victim, e.victim != 0 }

func (e *Entity) Summoner() (encounter.ActorID, bool) { return e.summoner, e.summoner != 0 }

func (e *Entity) Script() (encounter.Script, bool) { return e.script, e.script != nil }

func (e *Entity) HasAura(spell encounter.SpellID) bool {
	_, ok := e.auras[spell]
	return ok
}

// targetable reports whether heroes may attack or select the entity.
func (e *Entity) targetable() bool {
	return e.IsAlive() && !e.HasFlag(encounter.FlagNonAttackable) && !e.HasFlag(encounter.FlagFakingDeath)
}

func (e *Entity) stunned(now time.Duration) bool { return now < e.stunUntil }
