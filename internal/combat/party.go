package combat

import (
	"time"

	"raidscript/internal/encounter"
)

const (
	RoleTank   = "tank"
	RoleHealer = "healer"
	RoleDPS    = "dps"
)

type Hero struct {
	ID     string
	Name   string
	Role   string
	Tags   map[string]bool
	Entity *Entity
	Skills []*HeroSkill

	target encounter.ActorID
}

type PartyController struct {
	Heroes []*Hero
	Policy TargetPolicy
}

func NewParty(heroes []*Hero, book *SkillBook) *PartyController {
	pc := &PartyController{Heroes: heroes, Policy: FocusPolicy{}}
	sb := book
	if sb == nil {
		sb = NewSkillBook(nil)
	}
	for _, h := range pc.Heroes {
		if h.Tags == nil {
			h.Tags = map[string]bool{}
		}
		if h.Role == "" {
			h.Role = RoleDPS
		}
		h.Skills = sb.Instantiate(h.ID, h.Role)
	}
	return pc
}

func (p *PartyController) Alive() []*Hero {
	out := make([]*Hero, 0, len(p.Heroes))
	for _, h := range p.Heroes {
		if h.Entity != nil && h.Entity.IsAlive() {
			out = append(out, h)
		}
	}
	return out
}

func (p *PartyController) Wiped() bool { return len(p.Alive()) == 0 }

func (h *Hero) ReadySkill(now time.Duration, heal bool) *HeroSkill {
	var best *HeroSkill
	for _, sk := range h.Skills {
		if !sk.Ready(now) || sk.Template.IsHeal() != heal {
			continue
		}
		if best == nil || sk.Template.Priority > best.Template.Priority {
			best = sk
			continue
		}
		if sk.Template.Priority == best.Template.Priority && sk.Template.ID < best.Template.ID {
			best = sk
		}
	}
	return best
}

func (h *Hero) MaxRange() float64 {
	if len(h.Skills) == 0 {
		return 5.0
	}
	return maxRangeOf(h.Skills)
}

func (h *Hero) MinCooldown() time.Duration {
	if len(h.Skills) == 0 {
		return time.Second
	}
	return minCooldownOf(h.Skills)
}

// TargetPolicy picks what a hero attacks this tick.
type TargetPolicy interface {
	Pick(w *World, h *Hero) (*Entity, bool)
}

// FocusPolicy keeps the current target while it stays attackable, then
// switches to the attackable creature in combat with the lowest health,
// ties broken by spawn order.
type FocusPolicy struct{}

func (FocusPolicy) Pick(w *World, h *Hero) (*Entity, bool) {
	if e, ok := w.entities[h.target]; ok && e.targetable() && e.inCombat {
		return e, true
	}
	var best *Entity
	for _, id := range w.order {
		e := w.entities[id]
		if e == nil || e.player || !e.targetable() || !e.inCombat {
			continue
		}
		if best == nil || e.HP < best.HP {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	h.target = best.id
	return best, true
}
