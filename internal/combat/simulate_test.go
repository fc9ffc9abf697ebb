package combat

import (
	"reflect"
	"testing"
	"time"

	"raidscript/internal/config"
	"raidscript/internal/encounter"
	"raidscript/internal/util"
)

func dummyEncounter(hp, damage int) *config.EncounterConfig {
	return &config.EncounterConfig{
		ID:      "dummy",
		BossKey: "dummy",
		Spawns:  []config.SpawnDef{{Entry: 1}},
		Creatures: []config.CreatureDef{{
			Entry: 1, Name: "Training Dummy", MaxHP: hp, Damage: damage,
			AttackSpeed: config.Duration(time.Second), Boss: true,
		}},
	}
}

func partyBundle(heroes ...config.HeroDef) *config.Bundle {
	return &config.Bundle{Heroes: &config.HeroesConfig{Heroes: heroes}, Skills: &config.SkillsConfig{}}
}

func TestRunEncounterWinsAgainstDummy(t *testing.T) {
	t.Parallel()
	res, err := RunEncounter(&Env{Rng: util.New(1)}, RunOptions{
		Bundle: partyBundle(
			config.HeroDef{ID: "tank", Role: RoleTank, MaxHP: 20000},
			config.HeroDef{ID: "dps", Role: RoleDPS},
		),
		Encounter: dummyEncounter(3000, 50),
		Seed:      1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Win || res.Wipe {
		t.Fatalf("expected a win, got %+v", res)
	}
	if res.State != encounter.Done.String() {
		t.Fatalf("expected state %s, got %s", encounter.Done, res.State)
	}
	if res.DamageByHero["tank"] == 0 || res.DamageByHero["dps"] == 0 {
		t.Fatalf("expected both heroes to deal damage, got %v", res.DamageByHero)
	}
	if res.Deaths["Training Dummy"] != 1 {
		t.Fatalf("expected one dummy death, got %v", res.Deaths)
	}
	if len(res.Meta.Heroes) != 2 || len(res.Meta.Creatures) != 1 {
		t.Fatalf("expected meta for 2 heroes and 1 creature, got %+v", res.Meta)
	}
}

func TestRunEncounterReportsWipe(t *testing.T) {
	t.Parallel()
	res, err := RunEncounter(&Env{Rng: util.New(1)}, RunOptions{
		Bundle:    partyBundle(config.HeroDef{ID: "tank", Role: RoleTank, MaxHP: 3000}),
		Encounter: dummyEncounter(1_000_000, 5000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Wipe || res.Win {
		t.Fatalf("expected a wipe, got win=%v wipe=%v", res.Win, res.Wipe)
	}
	if res.State == encounter.Done.String() {
		t.Fatalf("expected the encounter not to be done after a wipe")
	}
}

func TestRunEncounterPartyFilter(t *testing.T) {
	t.Parallel()
	enc := dummyEncounter(3000, 0)
	enc.Sim.Party = []string{"dps"}
	res, err := RunEncounter(&Env{Rng: util.New(1)}, RunOptions{
		Bundle: partyBundle(
			config.HeroDef{ID: "tank", Role: RoleTank},
			config.HeroDef{ID: "dps", Role: RoleDPS},
		),
		Encounter: enc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Meta.Heroes) != 1 || res.Meta.Heroes[0].ID != "dps" {
		t.Fatalf("expected only dps in the party, got %+v", res.Meta.Heroes)
	}
	if !res.Win {
		t.Fatalf("expected the dps alone to win")
	}
}

func TestRunEncounterIsDeterministic(t *testing.T) {
	t.Parallel()
	enc := dummyEncounter(6000, 80)
	enc.Creatures[0].Script = "timeline"
	enc.Creatures[0].Timeline = &config.TimelineDef{Abilities: []config.AbilityDef{{
		Name: "bolt", Spell: 99, Target: "random",
		First: config.Duration(time.Second), Repeat: config.Duration(2 * time.Second), RepeatMax: config.Duration(4 * time.Second),
	}}, OnDeath: config.DeathDef{Finishes: true}}
	run := func() SimResult {
		res, err := RunEncounter(&Env{Rng: util.New(42)}, RunOptions{
			Bundle: partyBundle(
				config.HeroDef{ID: "tank", Role: RoleTank, MaxHP: 20000},
				config.HeroDef{ID: "a"},
				config.HeroDef{ID: "b"},
			),
			Encounter: enc,
			Seed:      42,
			Record:    true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}
	first, second := run(), run()
	if first.Duration != second.Duration || !reflect.DeepEqual(first.Events, second.Events) {
		t.Fatalf("expected identical runs for one seed, got %.1fs and %.1fs", first.Duration, second.Duration)
	}
	if !first.Win || first.Casts["spell-99"] == 0 {
		t.Fatalf("expected a win with bolts cast, got win=%v casts=%v", first.Win, first.Casts)
	}
}

func TestRunEncounterUnknownScript(t *testing.T) {
	t.Parallel()
	enc := dummyEncounter(100, 0)
	enc.Creatures[0].Script = "nobody"
	_, err := RunEncounter(&Env{}, RunOptions{Bundle: partyBundle(), Encounter: enc})
	if err == nil {
		t.Fatalf("expected unknown script error")
	}
}
