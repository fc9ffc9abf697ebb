package encounter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownScript = errors.New("encounter: unknown script")

// Factory builds the script for one spawned creature.
type Factory func(env Env, me ActorID) (Script, error)

// Registry maps script names, as referenced from encounter files, to
// factories. It is populated once at startup and read concurrently after.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("default", func(env Env, me ActorID) (Script, error) { return NewBossAI(env, me, env.BossKey), nil })
	r.Register("timeline", func(env Env, me ActorID) (Script, error) { return NewTimelineAI(env, me, env.BossKey), nil })
	r.Register("tengo", func(env Env, me ActorID) (Script, error) { return NewTengoAI(env, me, env.BossKey) })
	return r
}

// Register panics on duplicate names; registration happens at init.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("encounter: script %q registered twice", name))
	}
	r.factories[name] = f
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

func (r *Registry) New(name string, env Env, me ActorID) (Script, error) {
	if name == "" {
		name = "default"
	}
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	s, err := f(env, me)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	return s, nil
}

// Simple wraps a constructor that cannot fail.
func Simple[T Script](fn func(env Env, me ActorID) T) Factory {
	return func(env Env, me ActorID) (Script, error) { return fn(env, me), nil }
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
