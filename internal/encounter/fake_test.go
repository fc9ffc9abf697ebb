package encounter

import (
	"time"
)

type fakeUnit struct {
	id       ActorID
	entry    Entry
	player   bool
	alive    bool
	hp, max  int
	flags    UnitFlag
	casting  bool
	combat   bool
	victim   ActorID
	summoner ActorID
	script   Script
	pos      Position
}

func (u *fakeUnit) ID() ActorID               { return u.id }
func (u *fakeUnit) Entry() Entry              { return u.entry }
func (u *fakeUnit) Name() string              { return "unit" }
func (u *fakeUnit) IsAlive() bool             { return u.alive }
func (u *fakeUnit) Health() int               { return u.hp }
func (u *fakeUnit) MaxHealth() int            { return u.max }
func (u *fakeUnit) SetHealth(hp int)          { u.hp = hp }
func (u *fakeUnit) HasFlag(f UnitFlag) bool   { return u.flags&f != 0 }
func (u *fakeUnit) SetFlag(f UnitFlag)        { u.flags |= f }
func (u *fakeUnit) RemoveFlag(f UnitFlag)     { u.flags &^= f }
func (u *fakeUnit) IsCasting() bool           { return u.casting }
func (u *fakeUnit) IsInCombat() bool          { return u.combat }
func (u *fakeUnit) IsPlayer() bool            { return u.player }
func (u *fakeUnit) Position() Position        { return u.pos }
func (u *fakeUnit) Home() Position            { return u.pos }
func (u *fakeUnit) Victim() (ActorID, bool)   { return u.victim, u.victim != 0 }
func (u *fakeUnit) Summoner() (ActorID, bool) { return u.summoner, u.summoner != 0 }
func (u *fakeUnit) Script() (Script, bool)    { return u.script, u.script != nil }

type castCall struct {
	caster, target ActorID
	spell          SpellID
}

// fakeWorld records what scripts do; it has no combat rules of its own.
type fakeWorld struct {
	units   map[ActorID]*fakeUnit
	next    ActorID
	casts   []castCall
	talks   []int
	threat  map[ActorID]float64
	spells  map[SpellID]SpellInfo
	despawn []ActorID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		units:  map[ActorID]*fakeUnit{},
		threat: map[ActorID]float64{},
		spells: map[SpellID]SpellInfo{},
	}
}

func (w *fakeWorld) add(u *fakeUnit) *fakeUnit {
	w.next++
	u.id = w.next
	if u.max == 0 {
		u.max = 100
		u.hp = 100
	}
	u.alive = true
	w.units[u.id] = u
	return u
}

func (w *fakeWorld) Unit(id ActorID) (Unit, bool) {
	u, ok := w.units[id]
	if !ok {
		return nil, false
	}
	return u, true
}

func (w *fakeWorld) SpellInfo(spell SpellID) (SpellInfo, bool) {
	s, ok := w.spells[spell]
	return s, ok
}

func (w *fakeWorld) Cast(caster, target ActorID, spell SpellID, _ bool) bool {
	w.casts = append(w.casts, castCall{caster, target, spell})
	return true
}

func (w *fakeWorld) Talk(_ ActorID, line int, _ ActorID) { w.talks = append(w.talks, line) }

func (w *fakeWorld) SelectTarget(caster ActorID, q TargetQuery) (ActorID, bool) {
	for id, u := range w.units {
		if u.player && u.alive && id != caster {
			return id, true
		}
	}
	return 0, false
}

func (w *fakeWorld) Summon(owner ActorID, entry Entry, pos Position, _ Despawn) (ActorID, bool) {
	u := w.add(&fakeUnit{entry: entry, summoner: owner, pos: pos})
	if o, ok := w.units[owner]; ok && o.script != nil {
		o.script.JustSummoned(u.id)
	}
	return u.id, true
}

func (w *fakeWorld) Despawn(id ActorID, _ time.Duration) {
	delete(w.units, id)
	w.despawn = append(w.despawn, id)
}

func (w *fakeWorld) Kill(_, victim ActorID) {
	if u, ok := w.units[victim]; ok {
		u.alive = false
		u.hp = 0
	}
}

func (w *fakeWorld) Resurrect(id ActorID) {
	if u, ok := w.units[id]; ok {
		u.alive = true
		u.hp = u.max
	}
}

func (w *fakeWorld) Threat(_, target ActorID) float64            { return w.threat[target] }
func (w *fakeWorld) AddThreat(_, target ActorID, amount float64) { w.threat[target] += amount }
func (w *fakeWorld) ModifyThreatPct(_, target ActorID, pct int)  { w.threat[target] *= float64(100+pct) / 100 }
func (w *fakeWorld) ResetThreat(ActorID)                         { clear(w.threat) }
func (w *fakeWorld) AttackStart(attacker, victim ActorID)        { w.units[attacker].victim = victim }
func (w *fakeWorld) Evade(ActorID)                               {}
func (w *fakeWorld) MovePoint(ActorID, int, Position)            {}
func (w *fakeWorld) MoveRandom(ActorID, float64)                 {}
func (w *fakeWorld) Interrupt(ActorID)                           {}
func (w *fakeWorld) RemoveAura(ActorID, SpellID)                 {}
func (w *fakeWorld) ZoneInCombat(id ActorID) {
	if u, ok := w.units[id]; ok {
		u.combat = true
	}
}

// fighting returns a boss in combat with one player as its victim.
func fighting(w *fakeWorld) (boss, player *fakeUnit) {
	player = w.add(&fakeUnit{player: true})
	boss = w.add(&fakeUnit{combat: true})
	boss.victim = player.id
	return boss, player
}
