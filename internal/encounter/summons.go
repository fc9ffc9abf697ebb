package encounter

import "slices"

// SummonList remembers creatures an AI spawned. Entries are weak: despawned
// or dead summons are skipped on every walk.
type SummonList struct {
	ids []ActorID
}

func (l *SummonList) Add(id ActorID) {
	if id == 0 || slices.Contains(l.ids, id) {
		return
	}
	l.ids = append(l.ids, id)
}

func (l *SummonList) Remove(id ActorID) {
	l.ids = slices.DeleteFunc(l.ids, func(x ActorID) bool { return x == id })
}

func (l *SummonList) Len() int            { return len(l.ids) }
func (l *SummonList) IDs() []ActorID      { return slices.Clone(l.ids) }
func (l *SummonList) Clear()              { l.ids = l.ids[:0] }
func (l *SummonList) Has(id ActorID) bool { return slices.Contains(l.ids, id) }

// Each calls fn for every summon that still resolves.
func (l *SummonList) Each(w World, fn func(Unit)) {
	for _, id := range slices.Clone(l.ids) {
		if u, ok := w.Unit(id); ok {
			fn(u)
		}
	}
}

func (l *SummonList) WithEntry(w World, entry Entry) (Unit, bool) {
	for _, id := range l.ids {
		if u, ok := w.Unit(id); ok && u.Entry() == entry {
			return u, true
		}
	}
	return nil, false
}

func (l *SummonList) AliveWithEntry(w World, entry Entry) int {
	n := 0
	l.Each(w, func(u Unit) {
		if u.Entry() == entry && u.IsAlive() {
			n++
		}
	})
	return n
}

func (l *SummonList) DespawnEntry(w World, entry Entry) {
	l.Each(w, func(u Unit) {
		if u.Entry() == entry {
			w.Despawn(u.ID(), 0)
			l.Remove(u.ID())
		}
	})
}

func (l *SummonList) DespawnAll(w World) {
	for _, id := range l.ids {
		w.Despawn(id, 0)
	}
	l.Clear()
}
