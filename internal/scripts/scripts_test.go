package scripts

import (
	"path/filepath"
	"testing"

	"raidscript/internal/combat"
	"raidscript/internal/config"
	"raidscript/internal/util"
)

func TestEveryEncounterScriptIsRegistered(t *testing.T) {
	t.Parallel()
	b, err := config.LoadAll(filepath.Join("..", "..", "assets"))
	if err != nil {
		t.Fatalf("load assets: %v", err)
	}
	reg := NewRegistry()
	for _, id := range b.EncounterIDs() {
		ec, _ := b.Encounter(id)
		for _, c := range ec.Creatures {
			if c.Script != "" && !reg.Has(c.Script) {
				t.Fatalf("%s: creature %s uses unregistered script %q", id, c.Name, c.Script)
			}
		}
	}
}

func TestAssetEncountersRunDeterministically(t *testing.T) {
	t.Parallel()
	b, err := config.LoadAll(filepath.Join("..", "..", "assets"))
	if err != nil {
		t.Fatalf("load assets: %v", err)
	}
	for _, id := range b.EncounterIDs() {
		t.Run(id, func(t *testing.T) {
			t.Parallel()
			ec, _ := b.Encounter(id)
			run := func() combat.SimResult {
				res, err := combat.RunEncounter(&combat.Env{Rng: util.New(7)}, combat.RunOptions{
					Bundle:    b,
					Encounter: ec,
					Registry:  NewRegistry(),
					Seed:      7,
				})
				if err != nil {
					t.Fatalf("run %s: %v", id, err)
				}
				return res
			}
			first, second := run(), run()
			if first.Duration != second.Duration || first.State != second.State {
				t.Fatalf("expected identical runs, got %.1fs/%s and %.1fs/%s",
					first.Duration, first.State, second.Duration, second.State)
			}
			if first.Duration <= 0 {
				t.Fatalf("expected simulated time to pass")
			}
		})
	}
}
