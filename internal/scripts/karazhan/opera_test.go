package karazhan

import (
	"testing"
	"time"

	"raidscript/internal/combat"
	"raidscript/internal/config"
	"raidscript/internal/encounter"
)

func ozStage(t *testing.T) (*stage, []*combat.Entity) {
	t.Helper()
	defs := []config.CreatureDef{
		creature(EntryDorothee, ScriptOzMember, true),
		creature(EntryRoar, ScriptOzMember, true),
		creature(EntryStrawman, ScriptOzMember, true),
		creature(EntryTinhead, ScriptOzMember, true),
		creature(EntryCrone, ScriptOzCrone, true),
		creature(EntryCyclone, ScriptOzCyclone, false),
	}
	s := newStage(t, "opera", defs...)
	var members []*combat.Entity
	for _, entry := range []encounter.Entry{EntryDorothee, EntryRoar, EntryStrawman, EntryTinhead} {
		members = append(members, s.spawn(t, entry))
	}
	return s, members
}

func TestOzCroneAfterFourDeaths(t *testing.T) {
	t.Parallel()
	s, members := ozStage(t)

	for i, m := range members {
		if _, ok := s.w.FindByEntry(EntryCrone); ok {
			t.Fatalf("expected no Crone after %d deaths", i)
		}
		s.hit(m)
	}
	if got := s.inst.Data(OzDeathCount); got != 4 {
		t.Fatalf("expected death count 4, got %d", got)
	}
	crone, ok := s.w.FindByEntry(EntryCrone)
	if !ok {
		t.Fatalf("expected the Crone to be summoned")
	}
	if !crone.IsInCombat() || crone.HasFlag(encounter.FlagNonAttackable) {
		t.Fatalf("expected an attackable Crone in combat")
	}
	if got := s.inst.BossState("opera"); got == encounter.Done {
		t.Fatalf("expected the performance to continue")
	}

	s.advance(22 * time.Second)
	if _, ok := s.w.FindByEntry(EntryCyclone); !ok {
		t.Fatalf("expected a cyclone after 22s")
	}
	s.advance(15 * time.Second)
	if _, ok := s.w.FindByEntry(EntryCyclone); ok {
		t.Fatalf("expected the first cyclone to be gone after 15s")
	}

	s.hit(crone)
	if got := s.inst.BossState("opera"); got != encounter.Done {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestOzMemberEvadeDespawns(t *testing.T) {
	t.Parallel()
	s, members := ozStage(t)
	roar := members[1]
	s.w.Damage(s.hero.ID(), roar.ID(), 1, "pull")
	scriptOf[*OzMember](t, s, roar).EnterEvadeMode()

	if _, ok := s.w.Entity(roar.ID()); ok {
		t.Fatalf("expected Roar to leave the stage")
	}
	// the failed attempt is rewound by the reset that follows the evade
	if got := s.inst.BossState("opera"); got != encounter.NotStarted {
		t.Fatalf("expected not_started, got %s", got)
	}
}

func rajStage(t *testing.T) (*stage, *combat.Entity, *Julianne) {
	t.Helper()
	s := newStage(t, "opera",
		creature(EntryJulianne, ScriptJulianne, true),
		creature(EntryRomulo, ScriptRomulo, true),
	)
	e := s.spawn(t, EntryJulianne)
	j := scriptOf[*Julianne](t, s, e)
	if !e.HasFlag(encounter.FlagNonAttackable) {
		t.Fatalf("expected Julianne to wait for her entrance")
	}
	s.advance(10*time.Second + tick)
	if !e.IsInCombat() || e.HasFlag(encounter.FlagNonAttackable) {
		t.Fatalf("expected Julianne to engage after 10s")
	}
	return s, e, j
}

// romuloOnStage plays the first act: Julianne drinks poison and Romulo
// enters ten seconds after she collapses.
func romuloOnStage(t *testing.T, s *stage, je *combat.Entity, j *Julianne) (*combat.Entity, *Romulo) {
	t.Helper()
	s.hit(je)
	if !je.IsAlive() || !j.FakingDeath() {
		t.Fatalf("expected Julianne to drink poison instead of dying")
	}
	s.advance(2500*time.Millisecond + tick)
	if j.RajPhase() != RajRomulo || !je.HasFlag(encounter.FlagFakingDeath) {
		t.Fatalf("expected Julianne down and the Romulo phase, got phase %d", j.RajPhase())
	}
	s.advance(10*time.Second + tick)
	re, ok := s.w.FindByEntry(EntryRomulo)
	if !ok {
		t.Fatalf("expected Romulo on stage")
	}
	if !re.IsInCombat() {
		t.Fatalf("expected Romulo to join the fight")
	}
	return re, scriptOf[*Romulo](t, s, re)
}

func TestRomuloAndJulianneMustDieTogether(t *testing.T) {
	t.Parallel()
	s, je, j := rajStage(t)
	re, r := romuloOnStage(t, s, je, j)

	s.hit(re)
	if !re.IsAlive() || !r.FakingDeath() || r.RajPhase() != RajBoth {
		t.Fatalf("expected Romulo to fall and the final act to start")
	}
	s.advance(10*time.Second + tick)
	if j.FakingDeath() || j.RajPhase() != RajBoth {
		t.Fatalf("expected Julianne back for the final act")
	}
	s.advance(time.Second + tick)
	if r.FakingDeath() {
		t.Fatalf("expected Julianne to revive Romulo")
	}

	s.hit(je)
	if !j.FakingDeath() {
		t.Fatalf("expected Julianne to fall first")
	}
	s.hit(re)
	if je.IsAlive() || re.IsAlive() {
		t.Fatalf("expected both lovers dead")
	}
	if got := s.inst.BossState("opera"); got != encounter.Done {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestLoverRevivesPartnerAfterTenSeconds(t *testing.T) {
	t.Parallel()
	s, je, j := rajStage(t)
	re, r := romuloOnStage(t, s, je, j)
	s.hit(re)
	s.advance(11*time.Second + 2*tick)

	s.hit(je)
	if !j.FakingDeath() {
		t.Fatalf("expected Julianne to fall")
	}
	s.advance(10*time.Second + tick)
	if j.FakingDeath() || !je.IsAlive() {
		t.Fatalf("expected Romulo to revive Julianne")
	}
	if r.FakingDeath() {
		t.Fatalf("expected Romulo to stay up")
	}
	if got := s.inst.BossState("opera"); got == encounter.Done {
		t.Fatalf("expected the fight to continue")
	}
}
