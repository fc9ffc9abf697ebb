package encounter

import "sync"

type BossState uint8

const (
	NotStarted BossState = iota
	InProgress
	Fail
	Done
	Special
)

func (s BossState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Fail:
		return "fail"
	case Done:
		return "done"
	case Special:
		return "special"
	}
	return "unknown"
}

// Instance tracks per-dungeon encounter progress shared between scripts.
type Instance interface {
	SetBossState(boss string, st BossState) bool
	BossState(boss string) BossState
	SetData(key string, v int)
	Data(key string) int
	IncData(key string) int
}

// MemoryInstance is the in-process Instance used by the simulator.
type MemoryInstance struct {
	mu     sync.Mutex
	name   string
	states map[string]BossState
	data   map[string]int
}

func NewMemoryInstance(name string) *MemoryInstance {
	return &MemoryInstance{
		name:   name,
		states: map[string]BossState{},
		data:   map[string]int{},
	}
}

func (m *MemoryInstance) Name() string { return m.name }

// SetBossState reports whether the state actually changed. A finished
// encounter stays done.
func (m *MemoryInstance) SetBossState(boss string, st BossState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.states[boss]
	if prev == st || prev == Done {
		return false
	}
	m.states[boss] = st
	return true
}

func (m *MemoryInstance) BossState(boss string) BossState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[boss]
}

func (m *MemoryInstance) SetData(key string, v int) {
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
}

func (m *MemoryInstance) Data(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *MemoryInstance) IncData(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key]++
	return m.data[key]
}
