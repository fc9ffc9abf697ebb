package encounter

// Ref is a non-owning handle to another actor. The actor may despawn at any
// time, so every use goes back through World.
type Ref struct {
	id ActorID
}

func NewRef(id ActorID) Ref { return Ref{id: id} }

func (r Ref) ID() ActorID { return r.id }
func (r Ref) IsSet() bool { return r.id != 0 }

func (r *Ref) Set(id ActorID) { r.id = id }
func (r *Ref) Clear()         { r.id = 0 }

func (r Ref) Unit(w World) (Unit, bool) {
	if r.id == 0 || w == nil {
		return nil, false
	}
	return w.Unit(r.id)
}

// Alive resolves the reference and reports whether the actor still lives.
func (r Ref) Alive(w World) (Unit, bool) {
	u, ok := r.Unit(w)
	if !ok || !u.IsAlive() {
		return nil, false
	}
	return u, true
}

// ScriptOf resolves id to its attached script of type T.
func ScriptOf[T any](w World, id ActorID) (T, bool) {
	var zero T
	if id == 0 || w == nil {
		return zero, false
	}
	u, ok := w.Unit(id)
	if !ok {
		return zero, false
	}
	s, ok := u.Script()
	if !ok {
		return zero, false
	}
	t, ok := s.(T)
	return t, ok
}
