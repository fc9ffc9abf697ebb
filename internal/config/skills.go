package config

type SkillsConfig struct {
	Skills []Skill `yaml:"skills" json:"skills"`
}

// Skill is a hero ability. Hero binds it to one hero, Role to every hero
// of that role; neither makes it a generic fallback.
type Skill struct {
	ID        string   `yaml:"id" json:"id"`
	Hero      string   `yaml:"hero" json:"hero,omitempty"`
	Role      string   `yaml:"role" json:"role,omitempty"`
	School    string   `yaml:"school" json:"school,omitempty"`
	Spell     uint32   `yaml:"spell" json:"spell,omitempty" jsonschema:"description=Spell id creatures see in SpellHit"`
	Range     float64  `yaml:"range" json:"range"`
	CD        Duration `yaml:"cd" json:"cd"`
	GCD       Duration `yaml:"gcd" json:"gcd,omitempty"`
	Damage    float64  `yaml:"damage" json:"damage,omitempty"`
	Heal      float64  `yaml:"heal" json:"heal,omitempty"`
	ThreatMul float64  `yaml:"threat_mul" json:"threat_mul,omitempty"`
	Priority  int      `yaml:"priority" json:"priority"`
	Tags      []string `yaml:"tags" json:"tags,omitempty"`
	Note      string   `yaml:"note" json:"note,omitempty"`
}

type SpellsConfig struct {
	Spells []SpellDef `yaml:"spells" json:"spells"`
}

// SpellDef is a creature spell as the simulator understands it.
type SpellDef struct {
	ID       uint32   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	School   string   `yaml:"school" json:"school,omitempty"`
	CastTime Duration `yaml:"cast_time" json:"cast_time,omitempty"`
	Damage   int      `yaml:"damage" json:"damage,omitempty"`
	AoE      bool     `yaml:"aoe" json:"aoe,omitempty"`
	Stun     Duration `yaml:"stun" json:"stun,omitempty"`
	Note     string   `yaml:"note" json:"note,omitempty"`
}
