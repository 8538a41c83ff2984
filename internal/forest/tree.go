package forest

const (
	InitialHeight   = 0.3  // m
	InitialDiameter = 0.01 // m
)

// Tree is one planted tree. Its identity is its index in Stand.Trees.
type Tree struct {
	Species     string
	Pos         Vec2
	PlantedYear int
	Age         int
	Height      float64
	Diameter    float64
	Alive       bool
	Replacement bool
	// DiedIn is the year index of death, -1 while alive.
	DiedIn int
}

func newTree(species string, pos Vec2, year int, replacement bool) Tree {
	return Tree{
		Species:     species,
		Pos:         pos,
		PlantedYear: year,
		Height:      InitialHeight,
		Diameter:    InitialDiameter,
		Alive:       true,
		Replacement: replacement,
		DiedIn:      -1,
	}
}

// Grow advances a living tree by one year. Dead trees are left untouched.
func (t *Tree) Grow(rate, competition float64) {
	if !t.Alive {
		return
	}
	t.Age++
	t.Height += 0.5 * rate * (1 - competition)
	t.Diameter += 0.005 * rate * (1 - competition)
}
