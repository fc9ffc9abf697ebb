package encounter

import (
	"testing"
	"time"

	"raidscript/internal/schedule"
)

func TestHealthCheckFiresOnce(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	boss, player := fighting(w)
	b := NewBossAI(Env{World: w}, boss.id, "")

	fired := 0
	b.ScheduleHealthCheck(50, func() { fired++ })
	if got := b.DamageTaken(player.id, 40); got != 40 {
		t.Fatalf("expected damage to pass through, got %d", got)
	}
	if fired != 0 {
		t.Fatalf("expected no check above threshold, got %d", fired)
	}
	boss.hp = 60
	b.DamageTaken(player.id, 20)
	b.DamageTaken(player.id, 20)
	boss.hp = 10
	b.UpdateAI(time.Second)
	if fired != 1 {
		t.Fatalf("expected check to fire once, got %d", fired)
	}
}

func TestResetRewindsInstanceUnlessSummoned(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		summoned bool
		want     BossState
	}{
		{"spawned", false, NotStarted},
		{"summoned", true, InProgress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := newFakeWorld()
			owner := w.add(&fakeUnit{})
			u := w.add(&fakeUnit{})
			if tc.summoned {
				u.summoner = owner.id
			}
			inst := NewMemoryInstance("test")
			b := NewBossAI(Env{World: w, Instance: inst}, u.id, "boss")
			b.SetBossState(InProgress)
			b.Reset()
			if got := inst.BossState("boss"); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDoneIsSticky(t *testing.T) {
	t.Parallel()
	inst := NewMemoryInstance("test")
	if !inst.SetBossState("a", InProgress) {
		t.Fatalf("expected state change")
	}
	inst.SetBossState("a", Done)
	if inst.SetBossState("a", Fail) {
		t.Fatalf("expected done to stick")
	}
	if got := inst.IncData("k"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestStopAllDespawnsSummonsAndClearsTimers(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	boss, _ := fighting(w)
	b := NewBossAI(Env{World: w}, boss.id, "")
	boss.script = b

	id, _ := b.Summon(9, Position{}, Despawn{})
	if !b.Summons.Has(id) {
		t.Fatalf("expected summon %d to be tracked", id)
	}
	ran := false
	b.Scheduler().Schedule(time.Second, func(*schedule.Context) { ran = true })
	b.StopAll()
	b.RunScheduler(2 * time.Second)
	if ran {
		t.Fatalf("expected task to be cancelled")
	}
	if _, ok := w.Unit(id); ok {
		t.Fatalf("expected summon to despawn")
	}
	if b.Summons.Len() != 0 {
		t.Fatalf("expected empty summon list, got %d", b.Summons.Len())
	}
}

func TestRefToleratesDespawn(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	u := w.add(&fakeUnit{})
	r := NewRef(u.id)
	if _, ok := r.Alive(w); !ok {
		t.Fatalf("expected live ref")
	}
	w.Kill(0, u.id)
	if _, ok := r.Alive(w); ok {
		t.Fatalf("expected dead ref to fail Alive")
	}
	if _, ok := r.Unit(w); !ok {
		t.Fatalf("expected dead unit to still resolve")
	}
	w.Despawn(u.id, 0)
	if _, ok := r.Unit(w); ok {
		t.Fatalf("expected despawned ref to fail")
	}
	var empty Ref
	if _, ok := empty.Unit(w); ok {
		t.Fatalf("expected unset ref to fail")
	}
}

func TestScriptOfChecksType(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	u := w.add(&fakeUnit{})
	b := NewBossAI(Env{World: w}, u.id, "")
	u.script = b

	if got, ok := ScriptOf[*BossAI](w, u.id); !ok || got != b {
		t.Fatalf("expected the attached script, got %v %v", got, ok)
	}
	if _, ok := ScriptOf[*TimelineAI](w, u.id); ok {
		t.Fatalf("expected type mismatch to fail")
	}
	if _, ok := ScriptOf[*BossAI](w, 0); ok {
		t.Fatalf("expected zero id to fail")
	}
}

func TestSummonListSkipsGone(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	var l SummonList
	a := w.add(&fakeUnit{entry: 1})
	b := w.add(&fakeUnit{entry: 1})
	c := w.add(&fakeUnit{entry: 2})
	l.Add(a.id)
	l.Add(b.id)
	l.Add(c.id)
	l.Add(c.id)
	if l.Len() != 3 {
		t.Fatalf("expected 3 summons, got %d", l.Len())
	}
	w.Kill(0, a.id)
	w.Despawn(c.id, 0)
	if got := l.AliveWithEntry(w, 1); got != 1 {
		t.Fatalf("expected 1 live entry-1 summon, got %d", got)
	}
	if _, ok := l.WithEntry(w, 2); ok {
		t.Fatalf("expected despawned summon to be skipped")
	}
	l.DespawnEntry(w, 1)
	if l.Len() != 1 {
		t.Fatalf("expected only the stale id left, got %d", l.Len())
	}
}
