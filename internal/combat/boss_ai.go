package combat

import (
	"time"

	"raidscript/internal/encounter"
)

// updateCreature runs one creature for a tick: casts finishing, scripted
// movement, the script itself, then victim selection, chase and melee.
func (w *World) updateCreature(e *Entity, diff time.Duration) {
	now := w.env.Time
	if e.despawnKind == encounter.DespawnTimed && e.despawnAt > 0 && now >= e.despawnAt {
		w.Despawn(e.id, 0)
		return
	}
	if !e.IsAlive() {
		return
	}
	if e.cast != nil && now >= e.cast.end {
		c := e.cast
		e.cast = nil
		w.resolveSpell(e, c.target, c.spell)
		if !e.IsAlive() {
			return
		}
	}
	if e.move != nil {
		w.moveCreature(e, diff)
	}
	if e.script != nil {
		e.script.UpdateAI(diff)
	}
	if !e.IsAlive() || !e.inCombat || e.despawned {
		return
	}

	if e.despawnKind == encounter.DespawnOutOfCombat && len(w.threatList(e)) == 0 {
		w.Despawn(e.id, 0)
		return
	}
	if e.leash > 0 && e.Pos.Dist(e.home) > e.leash {
		w.evadeCreature(e)
		return
	}
	if e.HasFlag(encounter.FlagPassive) || e.HasFlag(encounter.FlagFakingDeath) {
		return
	}
	w.selectVictim(e)
	if e.victim == 0 || e.cast != nil || e.stunned(now) || e.move != nil {
		return
	}
	target, ok := w.Entity(e.victim)
	if !ok || !target.IsAlive() {
		return
	}
	w.chase(e, target, diff)
	if e.Damage > 0 && now >= e.nextAtk && e.Pos.Dist(target.Pos) <= e.Range {
		e.nextAtk = now + e.AtkCD
		w.dealDamage(e, target, e.Damage, "melee")
	}
}

// selectVictim keeps the highest-threat target as victim. The script gets
// a say through AttackStart and may refuse the switch.
func (w *World) selectVictim(e *Entity) {
	list := w.threatList(e)
	if len(list) == 0 {
		return
	}
	top := list[0]
	if top.id == e.victim {
		return
	}
	if e.script != nil {
		e.script.AttackStart(top.id)
		return
	}
	e.victim = top.id
}

func (w *World) chase(e, target *Entity, diff time.Duration) {
	dist := e.Pos.Dist(target.Pos)
	if dist <= e.Range {
		return
	}
	step := e.Speed * diff.Seconds()
	if step > dist-e.Range {
		step = dist - e.Range
	}
	if step <= 0 {
		return
	}
	old := e.Pos
	e.Pos = e.Pos.Add(target.Pos.Sub(e.Pos).Norm().Scale(step))
	e.facing = old.Angle(target.Pos)
}

func (w *World) moveCreature(e *Entity, diff time.Duration) {
	order := e.move
	var arrived bool
	e.Pos, arrived = stepToward(e.Pos, order.to, e.Speed*diff.Seconds())
	if !arrived {
		return
	}
	e.move = nil
	if order.point >= 0 {
		w.event("MoveArrived", map[string]any{"id": uint64(e.id), "point": order.point})
		if e.script != nil {
			e.script.MovementInform(order.point)
		}
	}
}

func (w *World) evadeCreature(e *Entity) {
	if e.script != nil {
		e.script.EnterEvadeMode()
		return
	}
	w.Evade(e.id)
}
