package karazhan

import (
	"slices"
	"testing"
	"time"

	"raidscript/internal/combat"
	"raidscript/internal/encounter"
)

const entryMoroes encounter.Entry = 15687

func guestEntries(s *stage) []encounter.Entry {
	var out []encounter.Entry
	for _, c := range s.w.Creatures() {
		if slices.Contains(GuestEntries[:], c.Entry()) {
			out = append(out, c.Entry())
		}
	}
	slices.Sort(out)
	return out
}

func TestMoroesSeatsFourGuests(t *testing.T) {
	t.Parallel()
	s := newStage(t, "moroes", creature(entryMoroes, ScriptMoroes, true))
	m := s.spawn(t, entryMoroes)

	guests := guestEntries(s)
	if len(guests) != activeGuestCount {
		t.Fatalf("expected %d guests, got %v", activeGuestCount, guests)
	}
	first, last := 0, 0
	for _, g := range guests {
		if slices.Index(GuestEntries[:], g) < 3 {
			first++
		} else {
			last++
		}
	}
	if first != 2 || last != 2 {
		t.Fatalf("expected two guests from each half, got %d and %d", first, last)
	}

	s.w.Evade(m.ID())
	if again := guestEntries(s); !slices.Equal(again, guests) {
		t.Fatalf("expected the same guests after reset, got %v then %v", guests, again)
	}
}

func TestMoroesVanishDelaysEverything(t *testing.T) {
	t.Parallel()
	s := newStage(t, "moroes", creature(entryMoroes, ScriptMoroes, true))
	e := s.spawn(t, entryMoroes)
	m := scriptOf[*Moroes](t, s, e)
	s.w.Damage(s.hero.ID(), e.ID(), 1, "pull")

	if got := s.inst.BossState("moroes"); got != encounter.InProgress {
		t.Fatalf("expected in_progress, got %s", got)
	}
	s.advance(30*time.Second - tick)
	if m.Vanished() {
		t.Fatalf("expected no vanish before 30s")
	}
	s.advance(tick)
	if !m.Vanished() || !e.HasFlag(encounter.FlagPassive) {
		t.Fatalf("expected Moroes to vanish at 30s")
	}
	if left, ok := m.Scheduler().NextDue(taskVanish); !ok || left != 30*time.Second {
		t.Fatalf("expected next vanish in 30s, got %v %v", left, ok)
	}
	s.advance(7 * time.Second)
	if m.Vanished() || e.HasFlag(encounter.FlagPassive) {
		t.Fatalf("expected Moroes back within 7s")
	}
}

func TestMoroesFinishesOnDeath(t *testing.T) {
	t.Parallel()
	s := newStage(t, "moroes", creature(entryMoroes, ScriptMoroes, true))
	e := s.spawn(t, entryMoroes)
	s.hit(e)
	if got := s.inst.BossState("moroes"); got != encounter.Done {
		t.Fatalf("expected done, got %s", got)
	}
	if n := len(guestEntries(s)); n != 0 {
		t.Fatalf("expected guests to leave with Moroes, got %d", n)
	}
}

func TestMoroesDeathLiftsGarrote(t *testing.T) {
	t.Parallel()
	s := newStage(t, "moroes", creature(entryMoroes, ScriptMoroes, true))
	healer := s.w.AddHero(&combat.Hero{ID: "healer", Name: "Healer", Role: combat.RoleHealer, Tags: map[string]bool{}},
		10_000_000, combat.Vec2{X: 1}, 7)
	e := s.spawn(t, entryMoroes)
	s.w.Damage(s.hero.ID(), e.ID(), 1, "pull")
	s.w.ZoneInCombat(e.ID())

	s.advance(37 * time.Second)
	if !healer.HasAura(SpellGarrote) {
		t.Fatalf("expected the off-tank target to be garroted after the first vanish")
	}
	if s.hero.HasAura(SpellGarrote) {
		t.Fatalf("expected the current victim to be spared")
	}

	s.hit(e)
	if healer.HasAura(SpellGarrote) {
		t.Fatalf("expected garrote removed when Moroes dies")
	}
}
