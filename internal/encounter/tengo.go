package encounter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"raidscript/internal/logx"
	"raidscript/internal/schedule"
)

// Scripts implement on_reset, on_engage, on_event, on_died and on_killed;
// each receives (engine, state) and on_event/on_killed an extra argument.
const tengoDispatchScript = `
if __hook == "reset" {
	on_reset(__engine, __state)
} else if __hook == "engage" {
	on_engage(__engine, __state)
} else if __hook == "event" {
	on_event(__engine, __state, __arg)
} else if __hook == "died" {
	on_died(__engine, __state)
} else if __hook == "killed" {
	on_killed(__engine, __state, __arg)
}
`

var ErrNoScriptSource = errors.New("encounter: creature has no script_file")

// TengoAI runs encounter logic written in tengo on top of the event map.
// Named events are interned to EventIDs on first use.
type TengoAI struct {
	*BossAI

	compiled *tengo.Compiled
	state    *tengo.Map
	engine   *tengo.ImmutableMap

	ids   map[string]schedule.EventID
	names []string

	// hooks raised while a hook is running; tengo's Compiled is not reentrant
	running bool
	pending []tengoHook
}

type tengoHook struct {
	name string
	arg  any
}

func NewTengoAI(env Env, me ActorID, bossKey string) (*TengoAI, error) {
	if env.Def == nil || env.Def.ScriptFile == "" || env.ReadScript == nil {
		return nil, ErrNoScriptSource
	}
	src, err := env.ReadScript(env.Def.ScriptFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", env.Def.ScriptFile, err)
	}
	return compileTengoAI(env, me, bossKey, src)
}

func compileTengoAI(env Env, me ActorID, bossKey string, src []byte) (*TengoAI, error) {
	script := tengo.NewScript(append(append([]byte(nil), src...), []byte("\n"+tengoDispatchScript)...))
	_ = script.Add("__hook", "")
	_ = script.Add("__arg", 0)
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap("math", "text", "fmt"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	t := &TengoAI{
		BossAI:   NewBossAI(env, me, bossKey),
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		ids:      map[string]schedule.EventID{},
		names:    []string{""},
	}
	t.engine = t.buildEngine()
	return t, nil
}

func (t *TengoAI) eventID(name string) schedule.EventID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := schedule.EventID(len(t.names))
	t.ids[name] = id
	t.names = append(t.names, name)
	return id
}

// run dispatches hook to the script. A hook raised from inside another one
// (a cast killing its target calls KilledUnit) is queued and runs once the
// outer hook returns.
func (t *TengoAI) run(hook string, arg any) {
	if t.running {
		t.pending = append(t.pending, tengoHook{hook, arg})
		return
	}
	t.running = true
	defer func() {
		t.running = false
		t.pending = t.pending[:0]
	}()
	t.exec(hook, arg)
	for len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		t.exec(next.name, next.arg)
	}
}

func (t *TengoAI) exec(hook string, arg any) {
	err := t.compiled.Set("__hook", hook)
	if err == nil {
		err = t.compiled.Set("__arg", arg)
	}
	if err == nil {
		err = t.compiled.Set("__engine", t.engine)
	}
	if err == nil {
		err = t.compiled.Set("__state", t.state)
	}
	if err == nil {
		err = t.compiled.Run()
	}
	if err != nil {
		t.reportTaskError(fmt.Errorf("tengo %s: %w", hook, err))
	}
}

func (t *TengoAI) Reset() {
	t.BossAI.Reset()
	t.state = &tengo.Map{Value: map[string]tengo.Object{}}
	t.run("reset", 0)
}

func (t *TengoAI) JustEngagedWith(who ActorID) {
	t.BossAI.JustEngagedWith(who)
	t.run("engage", 0)
}

func (t *TengoAI) JustDied(killer ActorID) {
	t.BossAI.JustDied(killer)
	t.run("died", 0)
}

func (t *TengoAI) KilledUnit(victim ActorID) {
	t.run("killed", int64(victim))
}

func (t *TengoAI) UpdateAI(diff time.Duration) {
	if !t.UpdateVictim() {
		return
	}
	t.checkHealth(0)
	t.Events().Update(diff)
	if t.IsCasting() {
		return
	}
	for id := t.Events().ExecuteEvent(); id != schedule.NoEvent; id = t.Events().ExecuteEvent() {
		t.run("event", t.names[id])
		if t.IsCasting() {
			return
		}
	}
}

func (t *TengoAI) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	fn := func(name string, f tengo.CallableFunc) {
		values[name] = &tengo.UserFunction{Name: name, Value: f}
	}

	fn("schedule", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		id := t.eventID(objectAsString(args[0]))
		min := objectAsMillis(args[1])
		if len(args) > 2 {
			t.Events().ScheduleEventBetween(id, min, objectAsMillis(args[2]))
		} else {
			t.Events().ScheduleEvent(id, min)
		}
		return tengo.TrueValue, nil
	})
	fn("cancel", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		t.Events().CancelEvent(t.eventID(objectAsString(args[0])))
		return tengo.TrueValue, nil
	})
	fn("is_scheduled", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		return boolObject(t.Events().IsScheduled(t.eventID(objectAsString(args[0])))), nil
	})
	fn("delay_all", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		t.Events().DelayEvents(objectAsMillis(args[0]))
		return tengo.TrueValue, nil
	})
	fn("set_phase", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		n, _ := tengo.ToInt(args[0])
		t.SetPhase(Phase(n))
		return tengo.TrueValue, nil
	})
	fn("phase", func(...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(t.Phase())}, nil
	})
	fn("talk", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		line, _ := tengo.ToInt(args[0])
		var target ActorID
		if len(args) > 1 {
			target = objectAsActor(args[1])
		}
		t.TalkTo(line, target)
		return tengo.TrueValue, nil
	})
	fn("cast", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		spell, _ := tengo.ToInt64(args[0])
		target, ok := t.resolveTarget(args[1])
		if !ok {
			return tengo.FalseValue, nil
		}
		return boolObject(t.DoCast(target, SpellID(spell))), nil
	})
	fn("select_target", func(args ...tengo.Object) (tengo.Object, error) {
		method := "random"
		if len(args) > 0 {
			method = objectAsString(args[0])
		}
		id, ok := t.resolveTarget(&tengo.String{Value: method})
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(id)}, nil
	})
	fn("threat", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		return &tengo.Float{Value: t.World.Threat(t.Me(), objectAsActor(args[0]))}, nil
	})
	fn("add_threat", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		amount, _ := tengo.ToFloat64(args[1])
		t.World.AddThreat(t.Me(), objectAsActor(args[0]), amount)
		return tengo.TrueValue, nil
	})
	fn("modify_threat_pct", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		pct, _ := tengo.ToInt(args[1])
		t.World.ModifyThreatPct(t.Me(), objectAsActor(args[0]), pct)
		return tengo.TrueValue, nil
	})
	fn("is_alive", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		_, ok := NewRef(objectAsActor(args[0])).Alive(t.World)
		return boolObject(ok), nil
	})
	fn("remove_aura", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		spell, _ := tengo.ToInt64(args[1])
		t.World.RemoveAura(objectAsActor(args[0]), SpellID(spell))
		return tengo.TrueValue, nil
	})
	fn("health_pct", func(...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: t.HealthPct()}, nil
	})
	fn("log", func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		t.Log.Debug("script", logx.String("msg", strings.Join(parts, " ")))
		return tengo.UndefinedValue, nil
	})

	return &tengo.ImmutableMap{Value: values}
}

func (t *TengoAI) resolveTarget(obj tengo.Object) (ActorID, bool) {
	if s, ok := obj.(*tengo.String); ok {
		switch s.Value {
		case "self":
			return t.Me(), true
		case "victim":
			return t.Victim()
		case "random":
			return t.SelectTarget(TargetQuery{Method: TargetRandom, PlayersOnly: true})
		case "random_not_victim":
			return t.SelectTarget(TargetQuery{Method: TargetRandom, PlayersOnly: true, ExcludeVictim: true})
		case "max_threat":
			return t.SelectTarget(TargetQuery{Method: TargetMaxThreat})
		case "farthest":
			return t.SelectTarget(TargetQuery{Method: TargetFarthest, PlayersOnly: true})
		}
		return 0, false
	}
	id := objectAsActor(obj)
	return id, id != 0
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectAsMillis(obj tengo.Object) time.Duration {
	ms, _ := tengo.ToInt64(obj)
	return time.Duration(ms) * time.Millisecond
}

func objectAsActor(obj tengo.Object) ActorID {
	v, _ := tengo.ToInt64(obj)
	if v < 0 {
		return 0
	}
	return ActorID(v)
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
