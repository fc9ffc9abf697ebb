package karazhan

import (
	"testing"
	"time"

	"raidscript/internal/combat"
	"raidscript/internal/config"
	"raidscript/internal/encounter"
	"raidscript/internal/util"
)

const tick = 100 * time.Millisecond

type stage struct {
	w    *combat.World
	inst *encounter.MemoryInstance
	hero *combat.Entity
}

// newStage builds a world with one sturdy hero who never acts on its own.
func newStage(t *testing.T, bossKey string, defs ...config.CreatureDef) *stage {
	t.Helper()
	reg := encounter.NewRegistry()
	Register(reg)
	inst := encounter.NewMemoryInstance("karazhan")
	enc := &config.EncounterConfig{ID: "test", BossKey: bossKey, Creatures: defs}
	w := combat.NewWorld(&combat.Env{Rng: util.New(7)}, combat.WorldOptions{
		Encounter: enc,
		Registry:  reg,
		Instance:  inst,
	})
	h := &combat.Hero{ID: "tank", Name: "Tank", Role: combat.RoleTank, Tags: map[string]bool{}}
	hero := w.AddHero(h, 10_000_000, combat.Vec2{}, 7)
	return &stage{w: w, inst: inst, hero: hero}
}

func (s *stage) spawn(t *testing.T, entry encounter.Entry) *combat.Entity {
	t.Helper()
	e, err := s.w.SpawnCreature(entry, combat.Vec2{X: 3}, 0)
	if err != nil {
		t.Fatalf("spawn %d: %v", entry, err)
	}
	return e
}

func (s *stage) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += tick {
		s.w.Advance(tick)
	}
}

// hit deals a blow far larger than any test creature's health.
func (s *stage) hit(e *combat.Entity) { s.w.Damage(s.hero.ID(), e.ID(), 1_000_000, "test") }

func scriptOf[T any](t *testing.T, s *stage, e *combat.Entity) T {
	t.Helper()
	v, ok := encounter.ScriptOf[T](s.w, e.ID())
	if !ok {
		t.Fatalf("creature %d has no script of the expected type", e.ID())
	}
	return v
}

func creature(entry encounter.Entry, script string, boss bool) config.CreatureDef {
	return config.CreatureDef{Entry: uint32(entry), Name: script, Script: script, Boss: boss, MaxHP: 1000}
}
