package config

type HeroesConfig struct {
	Heroes []HeroDef `yaml:"heroes" json:"heroes"`
}

type HeroDef struct {
	ID    string      `yaml:"id" json:"id"`
	Name  string      `yaml:"name" json:"name"`
	Role  string      `yaml:"role" json:"role" jsonschema:"enum=tank,enum=healer,enum=dps"`
	Tags  []string    `yaml:"tags" json:"tags,omitempty"`
	MaxHP int         `yaml:"max_hp" json:"max_hp"`
	Speed float64     `yaml:"speed" json:"speed,omitempty"`
	Spawn PositionDef `yaml:"spawn" json:"spawn"`
	Note  string      `yaml:"note" json:"note,omitempty"`
}
