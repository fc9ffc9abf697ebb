package encounter

import (
	"errors"
	"testing"
	"time"

	"github.com/d5/tengo/v2"

	"raidscript/internal/config"
)

const biteScript = `
on_reset := func(e, s) {
	s.bites = 0
}

on_engage := func(e, s) {
	e.schedule("bite", 1000)
	e.talk(0)
}

on_event := func(e, s, name) {
	if name == "bite" {
		s.bites = s.bites + 1
		e.cast(77, "victim")
		e.schedule("bite", 2000)
	}
}

on_died := func(e, s) {
	e.talk(1)
}

on_killed := func(e, s, who) {
	e.talk(2)
}
`

func TestTengoDrivesEventMap(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	boss, player := fighting(w)
	ai, err := compileTengoAI(Env{World: w}, boss.id, "", []byte(biteScript))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	boss.script = ai
	ai.Reset()
	ai.JustEngagedWith(player.id)

	ai.UpdateAI(time.Second)
	if len(w.casts) != 1 || w.casts[0].spell != 77 || w.casts[0].target != player.id {
		t.Fatalf("expected one bite on the victim, got %v", w.casts)
	}
	ai.UpdateAI(2 * time.Second)
	if len(w.casts) != 2 {
		t.Fatalf("expected second bite, got %d", len(w.casts))
	}
	bites, ok := ai.state.Value["bites"].(*tengo.Int)
	if !ok || bites.Value != 2 {
		t.Fatalf("expected state bites=2, got %v", ai.state.Value["bites"])
	}

	ai.KilledUnit(player.id)
	ai.JustDied(player.id)
	if want := []int{0, 2, 1}; len(w.talks) != 3 || w.talks[0] != want[0] || w.talks[1] != want[1] || w.talks[2] != want[2] {
		t.Fatalf("expected talks %v, got %v", want, w.talks)
	}
	if ai.Events().IsScheduled(ai.eventID("bite")) {
		t.Fatalf("expected death to clear pending events")
	}
}

func TestTengoResetClearsState(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	boss, player := fighting(w)
	ai, err := compileTengoAI(Env{World: w}, boss.id, "", []byte(biteScript))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ai.Reset()
	ai.JustEngagedWith(player.id)
	ai.UpdateAI(time.Second)
	ai.Reset()
	bites, ok := ai.state.Value["bites"].(*tengo.Int)
	if !ok || bites.Value != 0 {
		t.Fatalf("expected fresh state, got %v", ai.state.Value["bites"])
	}
}

func TestTengoCompileError(t *testing.T) {
	t.Parallel()
	_, err := compileTengoAI(Env{World: newFakeWorld()}, 1, "", []byte("on_reset := func("))
	if err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestTengoReadsScriptFile(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	u := w.add(&fakeUnit{})
	missing := errors.New("missing")
	env := Env{
		World: w,
		Def:   &config.CreatureDef{ScriptFile: "scripts/x.tengo"},
		ReadScript: func(rel string) ([]byte, error) {
			if rel != "scripts/x.tengo" {
				return nil, missing
			}
			return []byte(biteScript), nil
		},
	}
	if _, err := NewTengoAI(env, u.id, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.Def = &config.CreatureDef{ScriptFile: "other.tengo"}
	if _, err := NewTengoAI(env, u.id, ""); !errors.Is(err, missing) {
		t.Fatalf("expected read error, got %v", err)
	}
}

// lethalWorld kills the target of every cast on the spot, the way an
// instant spell with enough damage does in the simulator.
type lethalWorld struct {
	*fakeWorld
	killer Script
}

func (w *lethalWorld) Cast(caster, target ActorID, spell SpellID, triggered bool) bool {
	w.fakeWorld.Cast(caster, target, spell, triggered)
	w.Kill(caster, target)
	w.killer.KilledUnit(target)
	return true
}

func TestTengoKillDuringEventRunsKilledHookAfterwards(t *testing.T) {
	t.Parallel()
	fw := newFakeWorld()
	w := &lethalWorld{fakeWorld: fw}
	boss, player := fighting(fw)
	ai, err := compileTengoAI(Env{World: w}, boss.id, "", []byte(biteScript))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w.killer = ai
	boss.script = ai
	ai.Reset()
	ai.JustEngagedWith(player.id)

	done := make(chan struct{})
	go func() {
		ai.UpdateAI(time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected UpdateAI to return after a killing cast")
	}

	if want := []int{0, 2}; len(fw.talks) != 2 || fw.talks[0] != want[0] || fw.talks[1] != want[1] {
		t.Fatalf("expected talks %v, got %v", want, fw.talks)
	}
	if ai.running || len(ai.pending) != 0 {
		t.Fatalf("expected the hook queue to be drained")
	}
	ai.KilledUnit(player.id)
	if len(fw.talks) != 3 {
		t.Fatalf("expected hooks to dispatch normally afterwards, got %v", fw.talks)
	}
}
