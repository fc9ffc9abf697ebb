package combat

import (
	"fmt"
	"math"
	"sort"
	"time"

	"raidscript/internal/config"
	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/util"
)

const defaultCreatureHP = 10000

// World is the simulated map an encounter runs in. It implements
// encounter.World and is driven one tick at a time by RunEncounter.
type World struct {
	env      *Env
	bundle   *config.Bundle
	enc      *config.EncounterConfig
	reg      *encounter.Registry
	instance encounter.Instance
	log      logx.Logger
	emit     func(Event)

	entities map[encounter.ActorID]*Entity
	order    []encounter.ActorID
	nextID   encounter.ActorID
	party    *PartyController

	stats worldStats
}

type worldStats struct {
	damageByHero  map[string]float64
	damageBySkill map[string]float64
	deaths        map[string]int
	casts         map[string]int
}

type WorldOptions struct {
	Bundle    *config.Bundle
	Encounter *config.EncounterConfig
	Registry  *encounter.Registry
	Instance  encounter.Instance
	Log       logx.Logger
	Emit      func(Event)
}

func NewWorld(env *Env, opts WorldOptions) *World {
	if env.Rng == nil {
		env.Rng = util.New(1)
	}
	if opts.Registry == nil {
		opts.Registry = encounter.NewRegistry()
	}
	if opts.Instance == nil {
		opts.Instance = encounter.NewMemoryInstance("sim")
	}
	if opts.Emit == nil {
		opts.Emit = func(Event) {}
	}
	if opts.Encounter == nil {
		opts.Encounter = &config.EncounterConfig{}
	}
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	return &World{
		env:      env,
		bundle:   opts.Bundle,
		enc:      opts.Encounter,
		reg:      opts.Registry,
		instance: opts.Instance,
		log:      opts.Log,
		emit:     opts.Emit,
		entities: map[encounter.ActorID]*Entity{},
		party:    &PartyController{Policy: FocusPolicy{}},
		stats: worldStats{
			damageByHero:  map[string]float64{},
			damageBySkill: map[string]float64{},
			deaths:        map[string]int{},
			casts:         map[string]int{},
		},
	}
}

func (w *World) Now() time.Duration           { return w.env.Time }
func (w *World) Instance() encounter.Instance { return w.instance }
func (w *World) Party() *PartyController      { return w.party }

func (w *World) event(typ string, payload map[string]any) {
	w.emit(Event{T: w.env.Time.Seconds(), Type: typ, Payload: payload})
}

func (w *World) add(e *Entity) {
	w.entities[e.id] = e
	w.order = append(w.order, e.id)
}

func (w *World) alloc() encounter.ActorID {
	w.nextID++
	return w.nextID
}

// Entity returns the live or dead (but not despawned) entity for id.
func (w *World) Entity(id encounter.ActorID) (*Entity, bool) {
	e, ok := w.entities[id]
	if !ok || e.despawned {
		return nil, false
	}
	return e, true
}

// Creatures lists every creature that has not despawned, in spawn order.
func (w *World) Creatures() []*Entity {
	out := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		if e, ok := w.Entity(id); ok && !e.player {
			out = append(out, e)
		}
	}
	return out
}

// FindByEntry returns the first non-despawned creature with entry.
func (w *World) FindByEntry(entry encounter.Entry) (*Entity, bool) {
	for _, e := range w.Creatures() {
		if e.entry == entry {
			return e, true
		}
	}
	return nil, false
}

// ---- spawning ----

// AddHero puts a hero into the world; heroes have no script.
func (w *World) AddHero(h *Hero, maxHP int, pos Vec2, speed float64) *Entity {
	e := newEntity(w.alloc(), h.Name, maxHP)
	e.player = true
	e.Pos, e.home = pos, pos
	e.Speed = speed
	e.Range = h.MaxRange()
	e.AtkCD = h.MinCooldown()
	e.hero = h
	h.Entity = e
	w.add(e)
	w.party.Heroes = append(w.party.Heroes, h)
	w.event("Spawn", map[string]any{
		"id": uint64(e.id), "name": e.name, "x": e.Pos.X, "y": e.Pos.Y,
		"hp": e.HP, "max_hp": e.MaxHP, "role": h.Role,
	})
	return e
}

// SpawnCreature creates a creature from its template and attaches its
// script. The script's Reset runs before SpawnCreature returns.
func (w *World) SpawnCreature(entry encounter.Entry, pos Vec2, summoner encounter.ActorID) (*Entity, error) {
	def, ok := w.enc.Creature(uint32(entry))
	if !ok {
		def = &config.CreatureDef{Entry: uint32(entry), Name: fmt.Sprintf("creature-%d", entry), MaxHP: defaultCreatureHP}
	}
	e := newEntity(w.alloc(), def.Name, def.MaxHP)
	e.entry = entry
	e.Pos, e.home = pos, pos
	e.summoner = summoner
	e.leash = def.Leash
	e.lines = def.Lines
	if def.Damage > 0 {
		e.Damage = def.Damage
	}
	if def.AttackSpeed > 0 {
		e.AtkCD = def.AttackSpeed.D()
	}
	if def.Speed > 0 {
		e.Speed = def.Speed
	}
	if !def.IsAttackable() {
		e.SetFlag(encounter.FlagNonAttackable)
		e.SetFlag(encounter.FlagNotSelectable)
	}

	senv := encounter.Env{
		World:    w,
		Instance: w.instance,
		Rng:      w.env.Rng,
		Log:      w.log.With(logx.String("creature", def.Name)),
		Def:      def,
	}
	if def.Boss {
		senv.BossKey = w.enc.BossKey
	}
	if w.bundle != nil {
		senv.ReadScript = w.bundle.ReadScript
	}
	script, err := w.reg.New(def.Script, senv, e.id)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", def.Name, err)
	}
	e.script = script
	w.add(e)
	w.event("Spawn", map[string]any{
		"id": uint64(e.id), "entry": uint32(entry), "name": e.name,
		"x": e.Pos.X, "y": e.Pos.Y, "hp": e.HP, "max_hp": e.MaxHP,
	})
	script.Reset()
	return e, nil
}

// ---- encounter.World ----

func (w *World) Unit(id encounter.ActorID) (encounter.Unit, bool) {
	e, ok := w.Entity(id)
	if !ok {
		return nil, false
	}
	return e, true
}

func (w *World) SpellInfo(spell encounter.SpellID) (encounter.SpellInfo, bool) {
	def, ok := w.bundle.Spell(uint32(spell))
	if !ok {
		return encounter.SpellInfo{}, false
	}
	return encounter.SpellInfo{ID: spell, Name: def.Name, School: def.School}, true
}

func (w *World) spellName(spell encounter.SpellID) string {
	if def, ok := w.bundle.Spell(uint32(spell)); ok && def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("spell-%d", spell)
}

func (w *World) Cast(caster, target encounter.ActorID, spell encounter.SpellID, triggered bool) bool {
	c, ok := w.Entity(caster)
	if !ok || !c.IsAlive() {
		return false
	}
	if !triggered && (c.cast != nil || c.stunned(w.env.Time)) {
		return false
	}
	t, ok := w.Entity(target)
	if !ok || (!t.IsAlive() && target != caster) {
		return false
	}
	def, _ := w.bundle.Spell(uint32(spell))
	w.stats.casts[w.spellName(spell)]++
	if def.CastTime > 0 && !triggered {
		c.cast = &castState{spell: spell, target: target, end: w.env.Time + def.CastTime.D()}
		w.event("CastStart", map[string]any{
			"caster": uint64(caster), "target": uint64(target), "spell": uint32(spell),
			"name": w.spellName(spell), "cast_time": def.CastTime.D().Seconds(),
		})
		return true
	}
	w.resolveSpell(c, target, spell)
	return true
}

func (w *World) resolveSpell(c *Entity, target encounter.ActorID, spell encounter.SpellID) {
	def, _ := w.bundle.Spell(uint32(spell))
	w.event("Cast", map[string]any{
		"caster": uint64(c.id), "target": uint64(target), "spell": uint32(spell), "name": w.spellName(spell),
	})
	t, ok := w.Entity(target)
	if !ok {
		return
	}
	targets := []*Entity{t}
	if def.AoE && !c.player {
		targets = targets[:0]
		for _, h := range w.party.Alive() {
			targets = append(targets, h.Entity)
		}
	}
	for _, x := range targets {
		x.auras[spell] = w.env.Time
		if def.Stun > 0 {
			x.stunUntil = max(x.stunUntil, w.env.Time+def.Stun.D())
			x.cast = nil
		}
		if def.Damage > 0 {
			w.dealDamage(c, x, def.Damage, w.spellName(spell))
		}
		if x.script != nil && x.IsAlive() {
			x.script.SpellHit(c.id, spell)
		}
	}
}

func (w *World) Talk(speaker encounter.ActorID, line int, target encounter.ActorID) {
	e, ok := w.Entity(speaker)
	if !ok {
		return
	}
	text := fmt.Sprintf("<line %d>", line)
	if line >= 0 && line < len(e.lines) {
		text = e.lines[line]
	}
	payload := map[string]any{"speaker": uint64(speaker), "name": e.name, "line": line, "text": text}
	if target != 0 {
		payload["target"] = uint64(target)
	}
	w.event("Say", payload)
	w.log.Debug("say", logx.String("who", e.name), logx.String("text", text))
}

func (w *World) threatList(c *Entity) []*Entity {
	out := make([]*Entity, 0, len(c.threat))
	for _, id := range w.order {
		if _, ok := c.threat[id]; !ok {
			continue
		}
		if e, ok := w.Entity(id); ok && e.IsAlive() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return c.threat[out[i].id] > c.threat[out[j].id] })
	return out
}

func (w *World) SelectTarget(caster encounter.ActorID, q encounter.TargetQuery) (encounter.ActorID, bool) {
	c, ok := w.Entity(caster)
	if !ok {
		return 0, false
	}
	if q.Method == encounter.TargetVictim {
		return c.Victim()
	}
	var cands []*Entity
	for _, e := range w.threatList(c) {
		if q.PlayersOnly && !e.player {
			continue
		}
		if q.MaxDist > 0 && e.Pos.Dist(c.Pos) > q.MaxDist {
			continue
		}
		if q.ExcludeVictim && e.id == c.victim {
			continue
		}
		cands = append(cands, e)
	}
	if len(cands) == 0 {
		return 0, false
	}
	switch q.Method {
	case encounter.TargetRandom:
		return cands[util.Pick(w.env.Rng, len(cands))].id, true
	case encounter.TargetMinThreat:
		return cands[len(cands)-1].id, true
	case encounter.TargetFarthest:
		best := cands[0]
		for _, e := range cands[1:] {
			if e.Pos.Dist(c.Pos) > best.Pos.Dist(c.Pos) {
				best = e
			}
		}
		return best.id, true
	default:
		if q.Offset >= len(cands) {
			return 0, false
		}
		return cands[max(q.Offset, 0)].id, true
	}
}

func (w *World) Summon(owner encounter.ActorID, entry encounter.Entry, pos encounter.Position, d encounter.Despawn) (encounter.ActorID, bool) {
	e, err := w.SpawnCreature(entry, fromPosition(pos), owner)
	if err != nil {
		w.log.Warn("summon failed", logx.Err(err), logx.Uint32("entry", uint32(entry)))
		return 0, false
	}
	e.despawnKind = d.Kind
	if d.Kind == encounter.DespawnTimed {
		e.despawnAt = w.env.Time + d.After
	}
	if o, ok := w.Entity(owner); ok && o.script != nil {
		o.script.JustSummoned(e.id)
	}
	return e.id, true
}

func (w *World) Despawn(id encounter.ActorID, after time.Duration) {
	e, ok := w.Entity(id)
	if !ok {
		return
	}
	if after > 0 {
		e.despawnKind = encounter.DespawnTimed
		e.despawnAt = w.env.Time + after
		return
	}
	e.despawned = true
	e.inCombat = false
	e.cast = nil
	for _, other := range w.entities {
		delete(other.threat, id)
		if other.victim == id {
			other.victim = 0
		}
	}
	w.event("Despawn", map[string]any{"id": uint64(id), "name": e.name})
}

func (w *World) Kill(killer, victim encounter.ActorID) {
	v, ok := w.Entity(victim)
	if !ok || !v.alive {
		return
	}
	k, _ := w.Entity(killer)
	w.die(v, k)
}

func (w *World) Resurrect(id encounter.ActorID) {
	e, ok := w.Entity(id)
	if !ok {
		return
	}
	e.alive = true
	e.HP = e.MaxHP
	e.RemoveFlag(encounter.FlagFakingDeath)
	w.event("Resurrect", map[string]any{"id": uint64(id), "name": e.name})
}

func (w *World) Threat(owner, target encounter.ActorID) float64 {
	o, ok := w.Entity(owner)
	if !ok {
		return 0
	}
	return o.threat[target]
}

func (w *World) AddThreat(owner, target encounter.ActorID, amount float64) {
	o, ok := w.Entity(owner)
	if !ok {
		return
	}
	if _, ok := w.Entity(target); !ok {
		return
	}
	o.threat[target] = math.Max(o.threat[target]+amount, 0)
}

// ModifyThreatPct scales target's threat by (100+pct)%; -100 wipes it
// while keeping the target on the list.
func (w *World) ModifyThreatPct(owner, target encounter.ActorID, pct int) {
	o, ok := w.Entity(owner)
	if !ok {
		return
	}
	if _, ok := o.threat[target]; !ok {
		return
	}
	o.threat[target] = math.Max(o.threat[target]*float64(100+pct)/100, 0)
}

func (w *World) ResetThreat(owner encounter.ActorID) {
	o, ok := w.Entity(owner)
	if !ok {
		return
	}
	for k := range o.threat {
		o.threat[k] = 0
	}
}

func (w *World) AttackStart(attacker, victim encounter.ActorID) {
	a, ok := w.Entity(attacker)
	if !ok {
		return
	}
	v, ok := w.Entity(victim)
	if !ok || !v.IsAlive() {
		return
	}
	a.victim = victim
	if _, ok := a.threat[victim]; !ok && !a.player {
		a.threat[victim] = 0
	}
}

func (w *World) ZoneInCombat(id encounter.ActorID) {
	c, ok := w.Entity(id)
	if !ok || c.player || !c.IsAlive() {
		return
	}
	for _, h := range w.party.Alive() {
		if _, ok := c.threat[h.Entity.id]; !ok {
			c.threat[h.Entity.id] = 0
		}
	}
	if !c.inCombat {
		if first := w.party.Alive(); len(first) > 0 {
			w.engage(c, first[0].Entity)
		}
	}
}

func (w *World) Evade(id encounter.ActorID) {
	e, ok := w.Entity(id)
	if !ok || e.player {
		return
	}
	e.inCombat = false
	e.victim = 0
	clear(e.threat)
	e.cast = nil
	e.move = nil
	e.Pos = e.home
	if e.alive {
		e.HP = e.MaxHP
	}
	w.event("Evade", map[string]any{"id": uint64(id), "name": e.name})
	if e.script != nil {
		e.script.Reset()
		e.script.JustReachedHome()
	}
}

func (w *World) MovePoint(id encounter.ActorID, point int, pos encounter.Position) {
	e, ok := w.Entity(id)
	if !ok {
		return
	}
	e.move = &moveOrder{point: point, to: fromPosition(pos)}
	w.event("MovePoint", map[string]any{"id": uint64(id), "point": point, "x": pos.X, "y": pos.Y})
}

func (w *World) MoveRandom(id encounter.ActorID, radius float64) {
	e, ok := w.Entity(id)
	if !ok {
		return
	}
	angle := w.env.Rng.Float64() * 2 * math.Pi
	dist := w.env.Rng.Float64() * radius
	to := e.home.Add(Vec2{X: math.Cos(angle) * dist, Y: math.Sin(angle) * dist})
	e.move = &moveOrder{point: -1, to: to}
}

func (w *World) Interrupt(id encounter.ActorID) {
	if e, ok := w.Entity(id); ok && e.cast != nil {
		e.cast = nil
		w.event("Interrupt", map[string]any{"id": uint64(id)})
	}
}

func (w *World) RemoveAura(id encounter.ActorID, spell encounter.SpellID) {
	if e, ok := w.Entity(id); ok {
		delete(e.auras, spell)
	}
}

// ---- combat rules ----

func (w *World) engage(c *Entity, who *Entity) {
	if c.inCombat || !c.IsAlive() || c.player {
		return
	}
	c.inCombat = true
	if _, ok := c.threat[who.id]; !ok {
		c.threat[who.id] = 0
	}
	w.event("Engage", map[string]any{"id": uint64(c.id), "name": c.name, "who": uint64(who.id)})
	if c.script != nil {
		c.script.JustEngagedWith(who.id)
		if c.victim == 0 && !c.HasFlag(encounter.FlagPassive) {
			c.script.AttackStart(who.id)
		}
	}
}

func (w *World) dealDamage(src, dst *Entity, amount int, label string) {
	if !dst.IsAlive() || amount <= 0 {
		return
	}
	if !dst.player {
		if !dst.targetable() && src.player {
			return
		}
		if dst.script != nil {
			amount = dst.script.DamageTaken(src.id, amount)
		}
		mul := 1.0
		if src.hero != nil {
			mul = heroThreatMul(src.hero, label)
		}
		if src.player {
			dst.threat[src.id] += float64(amount) * mul
			if !dst.inCombat {
				w.engage(dst, src)
			}
		}
	} else if !src.player {
		if _, ok := src.threat[dst.id]; !ok {
			src.threat[dst.id] = 0
		}
	}
	if amount <= 0 || !dst.IsAlive() {
		return
	}
	dst.HP -= amount
	if dst.HP < 0 {
		dst.HP = 0
	}
	if src.hero != nil {
		w.stats.damageByHero[src.hero.ID] += float64(amount)
		w.stats.damageBySkill[label] += float64(amount)
	}
	w.event("Hit", map[string]any{
		"caster": uint64(src.id), "target": uint64(dst.id), "dmg": amount, "hp": dst.HP, "source": label,
	})
	if dst.HP == 0 {
		w.die(dst, src)
	}
}

func heroThreatMul(h *Hero, label string) float64 {
	for _, sk := range h.Skills {
		if sk.Template.ID == label {
			return sk.Template.ThreatMul
		}
	}
	return 1
}

func (w *World) heal(src, dst *Entity, amount int, label string) {
	if !dst.IsAlive() || amount <= 0 {
		return
	}
	dst.HP = min(dst.HP+amount, dst.MaxHP)
	w.event("Heal", map[string]any{"caster": uint64(src.id), "target": uint64(dst.id), "amount": amount, "hp": dst.HP, "source": label})
	// healing threat is split across every creature fighting the party
	for _, c := range w.Creatures() {
		if c.inCombat {
			if _, ok := c.threat[dst.id]; ok {
				c.threat[src.id] += float64(amount) * 0.5
			}
		}
	}
}

func (w *World) die(v *Entity, killer *Entity) {
	v.alive = false
	v.HP = 0
	v.cast = nil
	v.move = nil
	v.inCombat = false
	v.victim = 0
	w.stats.deaths[v.name]++
	payload := map[string]any{"id": uint64(v.id), "name": v.name}
	if killer != nil {
		payload["killer"] = uint64(killer.id)
	}
	w.event("Death", payload)

	var killerID encounter.ActorID
	if killer != nil {
		killerID = killer.id
	}
	for _, e := range w.entities {
		delete(e.threat, v.id)
		if e.victim == v.id {
			e.victim = 0
		}
	}
	if v.script != nil {
		v.script.JustDied(killerID)
	}
	if killer != nil && killer.script != nil && v.player {
		killer.script.KilledUnit(v.id)
	}
	if s, ok := w.Entity(v.summoner); ok && s.script != nil {
		s.script.SummonedCreatureDies(v.id, killerID)
	}
	if v.despawnKind == encounter.DespawnOnDeath {
		w.Despawn(v.id, 0)
	}
}
