package forest

import "math"

// Vec2 is a position on the site in meters.
type Vec2 struct{ X, Y float64 }

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Len() float64    { return math.Sqrt(a.X*a.X + a.Y*a.Y) }

// Within reports whether b lies strictly closer than r to a.
func (a Vec2) Within(b Vec2, r float64) bool { return b.Sub(a).Len() < r }
