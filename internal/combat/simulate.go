package combat

import (
	"encoding/json"
	"fmt"
	"time"

	"raidscript/internal/config"
	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/util"
)

const (
	defaultTick      = 100 * time.Millisecond
	defaultLimit     = 15 * time.Minute
	defaultPullAfter = 2 * time.Second
)

type Env struct {
	Time  time.Duration
	Delta time.Duration
	Rng   util.Source
}

type SimResult struct {
	Encounter     string             `json:"encounter"`
	Win           bool               `json:"win"`
	Wipe          bool               `json:"wipe"`
	State         string             `json:"state"`
	Duration      float64            `json:"duration"`
	Events        []Event            `json:"events,omitempty"`
	DPS           float64            `json:"dps"`
	DamageBySkill map[string]float64 `json:"damage_by_skill,omitempty"`
	DamageByHero  map[string]float64 `json:"damage_by_hero,omitempty"`
	Deaths        map[string]int     `json:"deaths,omitempty"`
	Casts         map[string]int     `json:"casts,omitempty"`
	Meta          SimMeta            `json:"meta"`
}

type SimMeta struct {
	Seed      int64         `json:"seed"`
	Creatures []SimUnitMeta `json:"creatures"`
	Heroes    []SimHeroMeta `json:"heroes"`
	Notes     []string      `json:"notes,omitempty"`
}

type SimUnitMeta struct {
	Entry uint32 `json:"entry"`
	Name  string `json:"name"`
	MaxHP int    `json:"max_hp"`
	Note  string `json:"note,omitempty"`
}

type SimHeroMeta struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	MaxHP int     `json:"max_hp"`
	Speed float64 `json:"speed"`
	Note  string  `json:"note,omitempty"`
}

// RunOptions wires one simulated attempt.
type RunOptions struct {
	Bundle    *config.Bundle
	Encounter *config.EncounterConfig
	Registry  *encounter.Registry
	Instance  encounter.Instance
	Log       logx.Logger
	Seed      int64
	Record    bool
}

// RunEncounter spawns the party and the encounter, then ticks the world
// until the encounter is done, the party wipes or the time limit hits.
func RunEncounter(env *Env, opts RunOptions) (SimResult, error) {
	if opts.Encounter == nil {
		return SimResult{}, fmt.Errorf("combat: no encounter")
	}
	var events []Event
	emit := func(ev Event) {
		if opts.Record {
			events = append(events, ev)
		}
	}
	if opts.Instance == nil {
		opts.Instance = encounter.NewMemoryInstance(opts.Encounter.Instance)
	}
	w := NewWorld(env, WorldOptions{
		Bundle:    opts.Bundle,
		Encounter: opts.Encounter,
		Registry:  opts.Registry,
		Instance:  opts.Instance,
		Log:       opts.Log,
		Emit:      emit,
	})

	sim := opts.Encounter.Sim
	tick := sim.Tick.D()
	if tick <= 0 {
		tick = defaultTick
	}
	limit := sim.Limit.D()
	if limit <= 0 {
		limit = defaultLimit
	}
	pull := sim.PullAfter.D()
	if pull <= 0 {
		pull = defaultPullAfter
	}
	env.Delta = tick

	meta := SimMeta{Seed: opts.Seed}
	if opts.Encounter.Note != "" {
		meta.Notes = append(meta.Notes, opts.Encounter.Note)
	}
	for _, c := range opts.Encounter.Creatures {
		meta.Creatures = append(meta.Creatures, SimUnitMeta{Entry: c.Entry, Name: c.Name, MaxHP: c.MaxHP, Note: c.Note})
	}
	var anchor Vec2
	if len(opts.Encounter.Spawns) > 0 {
		anchor = fromDef(opts.Encounter.Spawns[0].Position)
	}
	meta.Heroes = w.spawnParty(opts.Bundle, sim.Party, anchor)
	for _, s := range opts.Encounter.Spawns {
		if _, err := w.SpawnCreature(encounter.Entry(s.Entry), fromDef(s.Position), 0); err != nil {
			return SimResult{}, err
		}
	}

	bossKey := opts.Encounter.BossKey
	pulled := false
	wipe := false
	for env.Time = 0; env.Time < limit; {
		if !pulled && env.Time >= pull {
			pulled = w.pull()
		}
		w.Advance(tick)
		if bossKey != "" && opts.Instance.BossState(bossKey) == encounter.Done {
			break
		}
		if pulled && w.party.Wiped() {
			wipe = true
			w.wipe()
			break
		}
	}

	state := encounter.NotStarted
	if bossKey != "" {
		state = opts.Instance.BossState(bossKey)
	}
	total := 0.0
	for _, v := range w.stats.damageByHero {
		total += v
	}
	res := SimResult{
		Encounter:     opts.Encounter.ID,
		Win:           state == encounter.Done,
		Wipe:          wipe,
		State:         state.String(),
		Duration:      env.Time.Seconds(),
		DPS:           total / (env.Time.Seconds() + 1e-6),
		DamageBySkill: w.stats.damageBySkill,
		DamageByHero:  w.stats.damageByHero,
		Deaths:        w.stats.deaths,
		Casts:         w.stats.casts,
		Meta:          meta,
	}
	if opts.Record {
		res.Events = events
	}
	return res, nil
}

// spawnParty places heroes relative to anchor, the first encounter spawn.
func (w *World) spawnParty(b *config.Bundle, only []string, anchor Vec2) []SimHeroMeta {
	var defs []config.HeroDef
	var skills *config.SkillsConfig
	if b != nil && b.Heroes != nil {
		defs = b.Heroes.Heroes
		skills = b.Skills
	}
	if len(only) > 0 {
		keep := map[string]bool{}
		for _, id := range only {
			keep[id] = true
		}
		filtered := defs[:0:0]
		for _, d := range defs {
			if keep[d.ID] {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}
	book := NewSkillBook(skills)
	var meta []SimHeroMeta
	for i, d := range defs {
		h := &Hero{ID: d.ID, Name: d.Name, Role: d.Role, Tags: map[string]bool{}}
		if h.Name == "" {
			h.Name = d.ID
		}
		if h.Role == "" {
			h.Role = RoleDPS
		}
		for _, t := range d.Tags {
			h.Tags[t] = true
		}
		h.Skills = book.Instantiate(h.ID, h.Role)
		maxHP := d.MaxHP
		if maxHP <= 0 {
			maxHP = 8000
		}
		speed := d.Speed
		if speed <= 0 {
			speed = 7
		}
		pos := fromDef(d.Spawn)
		if pos == (Vec2{}) {
			pos = Vec2{X: -20, Y: float64(i) * 2}
		}
		w.AddHero(h, maxHP, anchor.Add(pos), speed)
		meta = append(meta, SimHeroMeta{ID: h.ID, Name: h.Name, Role: h.Role, MaxHP: maxHP, Speed: speed, Note: d.Note})
	}
	return meta
}

// pull engages the first attackable spawned creature with the tank, or
// the first hero when there is no tank.
func (w *World) pull() bool {
	alive := w.party.Alive()
	if len(alive) == 0 {
		return false
	}
	puller := alive[0]
	for _, h := range alive {
		if h.Role == RoleTank {
			puller = h
			break
		}
	}
	for _, c := range w.Creatures() {
		if c.inCombat {
			return true
		}
		if !c.targetable() {
			continue
		}
		if c.script != nil {
			c.script.MoveInLineOfSight(puller.Entity.id)
		}
		if c.HasFlag(encounter.FlagNonAttackable) {
			// line of sight started a scripted intro
			return true
		}
		w.engage(c, puller.Entity)
		return true
	}
	// nothing attackable yet: let line of sight trigger intros
	for _, c := range w.Creatures() {
		if c.script != nil && c.IsAlive() {
			c.script.MoveInLineOfSight(puller.Entity.id)
		}
	}
	return w.anyInCombat()
}

func (w *World) anyInCombat() bool {
	for _, c := range w.Creatures() {
		if c.inCombat {
			return true
		}
	}
	return false
}

// Advance moves the clock forward by diff and runs one tick.
func (w *World) Advance(diff time.Duration) {
	w.env.Time += diff
	w.step(diff)
}

// Damage applies amount from src to dst through the usual combat rules.
func (w *World) Damage(src, dst encounter.ActorID, amount int, label string) {
	s, ok := w.Entity(src)
	if !ok {
		return
	}
	d, ok := w.Entity(dst)
	if !ok {
		return
	}
	w.dealDamage(s, d, amount, label)
}

func (w *World) step(diff time.Duration) {
	for _, h := range w.party.Alive() {
		w.updateHero(h, diff)
	}
	for _, id := range append([]encounter.ActorID(nil), w.order...) {
		e, ok := w.Entity(id)
		if !ok || e.player {
			continue
		}
		w.updateCreature(e, diff)
	}
}

func (w *World) wipe() {
	for _, c := range w.Creatures() {
		if c.inCombat && c.IsAlive() {
			w.evadeCreature(c)
		}
	}
}

func (w *World) updateHero(h *Hero, diff time.Duration) {
	now := w.env.Time
	me := h.Entity
	if me.stunned(now) {
		return
	}
	if h.Role == RoleHealer && now >= me.nextAtk && w.healTick(h) {
		return
	}
	target, ok := w.party.Policy.Pick(w, h)
	if !ok {
		return
	}
	sk := h.ReadySkill(now, false)
	if sk == nil {
		return
	}
	reach := sk.Template.Range
	if dist := me.Pos.Dist(target.Pos); dist > reach {
		step := me.Speed * diff.Seconds()
		if step > dist-reach+0.1 {
			step = dist - reach + 0.1
		}
		me.Pos = me.Pos.Add(target.Pos.Sub(me.Pos).Norm().Scale(step))
		return
	}
	if now < me.nextAtk {
		return
	}
	sk.Trigger(now)
	me.nextAtk = now + sk.Template.GlobalCD
	w.stats.casts[sk.Template.ID]++
	w.dealDamage(me, target, int(sk.Template.Damage), sk.Template.ID)
	if sk.Template.Spell != 0 && target.script != nil && target.IsAlive() {
		target.script.SpellHit(me.id, sk.Template.Spell)
	}
}

func (w *World) healTick(h *Hero) bool {
	var low *Entity
	for _, o := range w.party.Alive() {
		e := o.Entity
		if e.HP >= e.MaxHP {
			continue
		}
		if low == nil || float64(e.HP)/float64(e.MaxHP) < float64(low.HP)/float64(low.MaxHP) {
			low = e
		}
	}
	if low == nil || float64(low.HP)/float64(low.MaxHP) > 0.9 {
		return false
	}
	sk := h.ReadySkill(w.env.Time, true)
	if sk == nil {
		return false
	}
	sk.Trigger(w.env.Time)
	h.Entity.nextAtk = w.env.Time + sk.Template.GlobalCD
	w.heal(h.Entity, low, int(sk.Template.Heal), sk.Template.ID)
	return true
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
