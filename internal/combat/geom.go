package combat

import (
	"math"

	"raidscript/internal/config"
	"raidscript/internal/encounter"
)

type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Len() float64    { return math.Hypot(a.X, a.Y) }
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dist(b Vec2) float64  { return a.Sub(b).Len() }

func (a Vec2) Angle(b Vec2) float64 {
	d := b.Sub(a)
	return math.Atan2(d.Y, d.X)
}

func fromPosition(p encounter.Position) Vec2 { return Vec2{X: p.X, Y: p.Y} }
func fromDef(p config.PositionDef) Vec2      { return Vec2{X: p.X, Y: p.Y} }

func toPosition(v Vec2, o float64) encounter.Position {
	return encounter.Position{X: v.X, Y: v.Y, O: o}
}

// stepToward moves from toward to by at most step and reports arrival.
func stepToward(from, to Vec2, step float64) (Vec2, bool) {
	diff := to.Sub(from)
	d := diff.Len()
	if d <= step || d < 0.01 {
		return to, true
	}
	return from.Add(diff.Norm().Scale(step)), false
}
