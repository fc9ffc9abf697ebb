package schedule

import (
	"slices"
	"sort"
	"time"

	"raidscript/internal/util"
)

type EventID uint32

const NoEvent EventID = 0

type eventEntry struct {
	due    time.Duration
	seq    uint64
	id     EventID
	group  uint8
	phases uint8
}

type eventOptions struct {
	group  uint8
	phases uint8
}

type EventOption func(*eventOptions)

func EventGroup(g uint8) EventOption { return func(o *eventOptions) { o.group = g } }

// EventPhase restricts the event to phase p (1..8). May be given more than once.
func EventPhase(p uint8) EventOption {
	return func(o *eventOptions) { o.phases |= phaseBit(p) }
}

func phaseBit(p uint8) uint8 {
	if p == 0 || p > 8 {
		return 0
	}
	return 1 << (p - 1)
}

// EventMap stores one-shot integer events and returns them one per
// ExecuteEvent call, earliest first.
type EventMap struct {
	now     time.Duration
	seq     uint64
	phase   uint8
	entries []eventEntry
	last    eventEntry
	rng     util.Source
}

func NewEventMap(rng util.Source) *EventMap {
	if rng == nil {
		rng = util.New(1)
	}
	return &EventMap{rng: rng}
}

func (m *EventMap) Now() time.Duration { return m.now }
func (m *EventMap) Len() int           { return len(m.entries) }
func (m *EventMap) Empty() bool        { return len(m.entries) == 0 }

// Reset drops all events, rewinds the clock and clears the phase.
func (m *EventMap) Reset() {
	m.entries = m.entries[:0]
	m.now = 0
	m.phase = 0
	m.last = eventEntry{}
}

func (m *EventMap) Update(diff time.Duration) {
	if diff > 0 {
		m.now += diff
	}
}

func (m *EventMap) PhaseMask() uint8 { return m.phase }

func (m *EventMap) SetPhase(p uint8) {
	if p == 0 {
		m.phase = 0
		return
	}
	if bit := phaseBit(p); bit != 0 {
		m.phase = bit
	}
}

func (m *EventMap) AddPhase(p uint8)    { m.phase |= phaseBit(p) }
func (m *EventMap) RemovePhase(p uint8) { m.phase &^= phaseBit(p) }

// IsInPhase treats phase 0 as "any phase".
func (m *EventMap) IsInPhase(p uint8) bool {
	if p > 8 {
		return false
	}
	return p == 0 || m.phase&phaseBit(p) != 0
}

func (m *EventMap) ScheduleEvent(id EventID, delay time.Duration, opts ...EventOption) {
	m.scheduleAt(id, m.now+delay, opts)
}

func (m *EventMap) ScheduleEventBetween(id EventID, min, max time.Duration, opts ...EventOption) {
	m.scheduleAt(id, m.now+util.Between(m.rng, min, max), opts)
}

// RescheduleEvent cancels every pending id before scheduling it again.
func (m *EventMap) RescheduleEvent(id EventID, delay time.Duration, opts ...EventOption) {
	m.CancelEvent(id)
	m.ScheduleEvent(id, delay, opts...)
}

// RepeatEvent schedules the last executed event again, keeping its group
// and phase restriction.
func (m *EventMap) RepeatEvent(delay time.Duration) {
	if m.last.id == NoEvent {
		return
	}
	e := m.last
	e.due = m.now + delay
	m.insert(e)
}

func (m *EventMap) scheduleAt(id EventID, due time.Duration, opts []EventOption) {
	if id == NoEvent {
		return
	}
	var o eventOptions
	for _, opt := range opts {
		opt(&o)
	}
	m.insert(eventEntry{due: due, id: id, group: o.group, phases: o.phases})
}

func (m *EventMap) insert(e eventEntry) {
	m.seq++
	e.seq = m.seq
	i := sort.Search(len(m.entries), func(i int) bool {
		x := m.entries[i]
		return e.due < x.due || (e.due == x.due && e.seq < x.seq)
	})
	m.entries = slices.Insert(m.entries, i, e)
}

// ExecuteEvent removes and returns the earliest due event, or NoEvent.
// While a phase is set, due events restricted to other phases are dropped.
func (m *EventMap) ExecuteEvent() EventID {
	for len(m.entries) > 0 {
		e := m.entries[0]
		if e.due > m.now {
			return NoEvent
		}
		m.entries = slices.Delete(m.entries, 0, 1)
		if m.phase != 0 && e.phases != 0 && e.phases&m.phase == 0 {
			continue
		}
		m.last = e
		return e.id
	}
	return NoEvent
}

func (m *EventMap) CancelEvent(id EventID) {
	m.entries = slices.DeleteFunc(m.entries, func(e eventEntry) bool { return e.id == id })
}

func (m *EventMap) CancelEventGroup(g uint8) {
	m.entries = slices.DeleteFunc(m.entries, func(e eventEntry) bool { return e.group == g })
}

func (m *EventMap) DelayEvents(d time.Duration) {
	for i := range m.entries {
		m.entries[i].due += d
	}
}

func (m *EventMap) DelayEventGroup(g uint8, d time.Duration) {
	changed := false
	for i := range m.entries {
		if m.entries[i].group == g {
			m.entries[i].due += d
			changed = true
		}
	}
	if changed {
		slices.SortFunc(m.entries, func(a, b eventEntry) int {
			if a.due != b.due {
				if a.due < b.due {
					return -1
				}
				return 1
			}
			if a.seq < b.seq {
				return -1
			}
			if a.seq > b.seq {
				return 1
			}
			return 0
		})
	}
}

// NextEventTime reports the absolute due time of the earliest pending id.
func (m *EventMap) NextEventTime(id EventID) (time.Duration, bool) {
	for _, e := range m.entries {
		if e.id == id {
			return e.due, true
		}
	}
	return 0, false
}

func (m *EventMap) TimeUntilEvent(id EventID) (time.Duration, bool) {
	due, ok := m.NextEventTime(id)
	if !ok {
		return 0, false
	}
	return max(due-m.now, 0), true
}

func (m *EventMap) IsScheduled(id EventID) bool {
	_, ok := m.NextEventTime(id)
	return ok
}
