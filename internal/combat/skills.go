package combat

import (
	"math"
	"time"

	"raidscript/internal/config"
	"raidscript/internal/encounter"
)

type SkillTemplate struct {
	ID        string
	School    string
	Spell     encounter.SpellID
	Range     float64
	Cooldown  time.Duration
	GlobalCD  time.Duration
	Damage    float64
	Heal      float64
	ThreatMul float64
	Priority  int
	Tags      []string
	Note      string
}

func (t SkillTemplate) IsHeal() bool { return t.Heal > 0 }

type HeroSkill struct {
	Template  SkillTemplate
	NextReady time.Duration
}

func (hs *HeroSkill) Ready(now time.Duration) bool {
	return now >= hs.NextReady
}

func (hs *HeroSkill) Trigger(now time.Duration) {
	hs.NextReady = now + hs.Template.Cooldown
}

func (hs *HeroSkill) HasTag(tag string) bool {
	for _, t := range hs.Template.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type SkillBook struct {
	byHero map[string][]SkillTemplate
	byRole map[string][]SkillTemplate
}

func NewSkillBook(cfg *config.SkillsConfig) *SkillBook {
	sb := &SkillBook{
		byHero: map[string][]SkillTemplate{},
		byRole: map[string][]SkillTemplate{},
	}
	if cfg == nil {
		return sb
	}
	for _, s := range cfg.Skills {
		tpl := SkillTemplate{
			ID:        s.ID,
			School:    s.School,
			Spell:     encounter.SpellID(s.Spell),
			Range:     s.Range,
			Cooldown:  s.CD.D(),
			GlobalCD:  s.GCD.D(),
			Damage:    s.Damage,
			Heal:      s.Heal,
			ThreatMul: s.ThreatMul,
			Priority:  s.Priority,
			Tags:      append([]string(nil), s.Tags...),
			Note:      s.Note,
		}
		if tpl.ThreatMul == 0 {
			tpl.ThreatMul = 1
		}
		if s.Hero != "" {
			sb.byHero[s.Hero] = append(sb.byHero[s.Hero], tpl)
			continue
		}
		if s.Role != "" {
			sb.byRole[s.Role] = append(sb.byRole[s.Role], tpl)
			continue
		}
		// no hero / role: generic default
		sb.byRole["*"] = append(sb.byRole["*"], tpl)
	}
	return sb
}

func (sb *SkillBook) templatesFor(heroID, role string) []SkillTemplate {
	if sb == nil {
		return nil
	}
	if heroID != "" {
		if v := sb.byHero[heroID]; len(v) > 0 {
			return v
		}
	}
	if role != "" {
		if v := sb.byRole[role]; len(v) > 0 {
			return v
		}
	}
	return sb.byRole["*"]
}

func (sb *SkillBook) Instantiate(heroID, role string) []*HeroSkill {
	tpls := sb.templatesFor(heroID, role)
	if len(tpls) == 0 {
		tpls = []SkillTemplate{{
			ID:        "basic." + role,
			School:    "physical",
			Range:     5.0,
			Cooldown:  1500 * time.Millisecond,
			Damage:    300,
			ThreatMul: 1,
			Priority:  10,
		}}
	}
	out := make([]*HeroSkill, len(tpls))
	for i := range tpls {
		out[i] = &HeroSkill{Template: tpls[i]}
	}
	return out
}

func maxRangeOf(skills []*HeroSkill) float64 {
	maxRange := 0.0
	for _, sk := range skills {
		if sk.Template.Range > maxRange {
			maxRange = sk.Template.Range
		}
	}
	return maxRange
}

func minCooldownOf(skills []*HeroSkill) time.Duration {
	minCD := time.Duration(math.MaxInt64)
	for _, sk := range skills {
		if sk.Template.Cooldown > 0 && sk.Template.Cooldown < minCD {
			minCD = sk.Template.Cooldown
		}
	}
	if minCD == math.MaxInt64 {
		return time.Second
	}
	return minCD
}
