package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownEncounter = errors.New("config: unknown encounter")

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Bundle is everything under one config directory.
type Bundle struct {
	Dir        string
	Heroes     *HeroesConfig
	Skills     *SkillsConfig
	Spells     *SpellsConfig
	Encounters map[string]*EncounterConfig
}

// LoadAll reads heroes.yaml, skills.yaml, spells.yaml and every file under
// encounters/.
func LoadAll(dir string) (*Bundle, error) {
	var hc HeroesConfig
	var sc SkillsConfig
	var sp SpellsConfig
	if err := loadYAML(filepath.Join(dir, "heroes.yaml"), &hc); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "skills.yaml"), &sc); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "spells.yaml"), &sp); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "encounters", "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	encs := make(map[string]*EncounterConfig, len(paths))
	for _, p := range paths {
		ec, err := LoadEncounter(p)
		if err != nil {
			return nil, err
		}
		if _, dup := encs[ec.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate encounter id %q", filepath.Base(p), ec.ID)
		}
		encs[ec.ID] = ec
	}
	return &Bundle{Dir: dir, Heroes: &hc, Skills: &sc, Spells: &sp, Encounters: encs}, nil
}

func LoadEncounter(path string) (*EncounterConfig, error) {
	var ec EncounterConfig
	if err := loadYAML(path, &ec); err != nil {
		return nil, err
	}
	if ec.ID == "" {
		ec.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &ec, nil
}

func (b *Bundle) Encounter(id string) (*EncounterConfig, error) {
	ec, ok := b.Encounters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncounter, id)
	}
	return ec, nil
}

func (b *Bundle) EncounterIDs() []string {
	out := make([]string, 0, len(b.Encounters))
	for id := range b.Encounters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReadScript loads a script referenced by a creature, relative to Dir.
func (b *Bundle) ReadScript(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(b.Dir, filepath.FromSlash(rel)))
}

func (b *Bundle) Spell(id uint32) (SpellDef, bool) {
	if b == nil || b.Spells == nil {
		return SpellDef{}, false
	}
	for _, s := range b.Spells.Spells {
		if s.ID == id {
			return s, true
		}
	}
	return SpellDef{}, false
}

// Validate checks references inside one encounter file.
func (e *EncounterConfig) Validate() error {
	if len(e.Spawns) == 0 {
		return errors.New("encounter has no spawns")
	}
	seen := map[uint32]bool{}
	for _, c := range e.Creatures {
		if c.Entry == 0 {
			return fmt.Errorf("creature %q has no entry", c.Name)
		}
		if seen[c.Entry] {
			return fmt.Errorf("creature entry %d defined twice", c.Entry)
		}
		seen[c.Entry] = true
		if c.MaxHP <= 0 {
			return fmt.Errorf("creature %d: max_hp must be positive", c.Entry)
		}
		if c.Timeline != nil {
			for _, a := range c.Timeline.Abilities {
				if a.Spell == 0 && a.Summon == 0 {
					return fmt.Errorf("creature %d ability %q: spell or summon required", c.Entry, a.Name)
				}
				if a.Summon != 0 && !containsEntry(e.Creatures, a.Summon) {
					return fmt.Errorf("creature %d ability %q: unknown summon %d", c.Entry, a.Name, a.Summon)
				}
			}
		}
	}
	for _, s := range e.Spawns {
		if !seen[s.Entry] {
			return fmt.Errorf("spawn references unknown entry %d", s.Entry)
		}
	}
	return nil
}

func containsEntry(defs []CreatureDef, entry uint32) bool {
	for _, c := range defs {
		if c.Entry == entry {
			return true
		}
	}
	return false
}
