package config

// EncounterConfig describes one scripted encounter and the creatures it
// can spawn.
type EncounterConfig struct {
	ID       string `yaml:"id" json:"id" jsonschema:"title=Encounter id,pattern=^[a-z0-9_]+$,description=Identifier used by -encounter"`
	Name     string `yaml:"name" json:"name"`
	Instance string `yaml:"instance" json:"instance" jsonschema:"description=Instance the encounter belongs to"`
	BossKey  string `yaml:"boss_key" json:"boss_key" jsonschema:"description=Instance boss state the encounter reports to"`
	Note     string `yaml:"note" json:"note,omitempty"`

	Spawns    []SpawnDef    `yaml:"spawns" json:"spawns" jsonschema:"description=Creatures present when the run starts"`
	Creatures []CreatureDef `yaml:"creatures" json:"creatures" jsonschema:"description=Creature templates by entry"`
	Sim       SimConfig     `yaml:"sim" json:"sim"`
}

type SpawnDef struct {
	Entry    uint32      `yaml:"entry" json:"entry"`
	Position PositionDef `yaml:"position" json:"position"`
}

type PositionDef struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z,omitempty"`
	O float64 `yaml:"o" json:"o,omitempty"`
}

type CreatureDef struct {
	Entry       uint32   `yaml:"entry" json:"entry" jsonschema:"description=Template id referenced by spawns and summons"`
	Name        string   `yaml:"name" json:"name"`
	Script      string   `yaml:"script" json:"script,omitempty" jsonschema:"description=Registered script name; empty uses the default AI"`
	ScriptFile  string   `yaml:"script_file" json:"script_file,omitempty" jsonschema:"description=Tengo source relative to the config dir"`
	MaxHP       int      `yaml:"max_hp" json:"max_hp"`
	Damage      int      `yaml:"damage" json:"damage,omitempty" jsonschema:"description=Melee damage per swing"`
	AttackSpeed Duration `yaml:"attack_speed" json:"attack_speed,omitempty"`
	Speed       float64  `yaml:"speed" json:"speed,omitempty"`
	Boss        bool     `yaml:"boss" json:"boss,omitempty" jsonschema:"description=Generic scripts report the encounter state for this creature"`
	Leash       float64  `yaml:"leash" json:"leash,omitempty" jsonschema:"description=Evade when this far from home; 0 disables"`
	Attackable  *bool    `yaml:"attackable" json:"attackable,omitempty"`
	Lines       []string `yaml:"lines" json:"lines,omitempty" jsonschema:"description=Talk lines by index"`
	Note        string   `yaml:"note" json:"note,omitempty"`

	Timeline *TimelineDef `yaml:"timeline" json:"timeline,omitempty"`
}

func (c CreatureDef) IsAttackable() bool { return c.Attackable == nil || *c.Attackable }

// TimelineDef drives the data-only "timeline" script.
type TimelineDef struct {
	Intro      *IntroDef     `yaml:"intro" json:"intro,omitempty"`
	Aggro      *int          `yaml:"aggro_line" json:"aggro_line,omitempty" jsonschema:"description=Talk line on engage"`
	Abilities  []AbilityDef  `yaml:"abilities" json:"abilities"`
	OnDeath    DeathDef      `yaml:"on_death" json:"on_death"`
	OnSpellHit []SpellHitDef `yaml:"on_spell_hit" json:"on_spell_hit,omitempty"`
	KillLine   *int          `yaml:"kill_line" json:"kill_line,omitempty"`
}

// IntroDef keeps the creature out of combat until Delay elapses.
type IntroDef struct {
	Line  int      `yaml:"line" json:"line"`
	Delay Duration `yaml:"delay" json:"delay"`
}

type AbilityDef struct {
	Name      string   `yaml:"name" json:"name"`
	Spell     uint32   `yaml:"spell" json:"spell,omitempty"`
	Summon    uint32   `yaml:"summon" json:"summon,omitempty" jsonschema:"description=Entry to summon instead of casting"`
	Target    string   `yaml:"target" json:"target,omitempty" jsonschema:"enum=victim,enum=random,enum=self,enum=max_threat,enum=farthest"`
	First     Duration `yaml:"first" json:"first"`
	FirstMax  Duration `yaml:"first_max" json:"first_max,omitempty"`
	Repeat    Duration `yaml:"repeat" json:"repeat,omitempty"`
	RepeatMax Duration `yaml:"repeat_max" json:"repeat_max,omitempty"`
	MaxCasts  int      `yaml:"max_casts" json:"max_casts,omitempty" jsonschema:"description=Stop repeating after this many casts; 0 is unlimited"`
	Line      *int     `yaml:"line" json:"line,omitempty"`
	Phase     uint8    `yaml:"phase" json:"phase,omitempty"`
	Note      string   `yaml:"note" json:"note,omitempty"`
}

type DeathDef struct {
	Line     *int   `yaml:"line" json:"line,omitempty"`
	Counter  string `yaml:"counter" json:"counter,omitempty" jsonschema:"description=Instance data key incremented on death"`
	Despawn  bool   `yaml:"despawn" json:"despawn,omitempty"`
	Finishes bool   `yaml:"finishes" json:"finishes,omitempty" jsonschema:"description=Marks the encounter done"`
}

type SpellHitDef struct {
	School string  `yaml:"school" json:"school"`
	Chance float64 `yaml:"chance" json:"chance"`
	Spell  uint32  `yaml:"spell" json:"spell"`
}

type SimConfig struct {
	Tick      Duration `yaml:"tick" json:"tick,omitempty"`
	Limit     Duration `yaml:"limit" json:"limit,omitempty" jsonschema:"description=Wall of simulated time before the run is abandoned"`
	PullAfter Duration `yaml:"pull_after" json:"pull_after,omitempty" jsonschema:"description=Time before the party engages"`
	Party     []string `yaml:"party" json:"party,omitempty" jsonschema:"description=Hero ids; empty uses every hero"`
}

func (e *EncounterConfig) Creature(entry uint32) (*CreatureDef, bool) {
	for i := range e.Creatures {
		if e.Creatures[i].Entry == entry {
			return &e.Creatures[i], true
		}
	}
	return nil, false
}
