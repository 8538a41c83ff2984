package forest

import (
	"math"
	"math/rand"

	"forestsim/internal/config"
)

const (
	ActionPlant  = "plant"
	ActionBeatUp = "beat_up"
)

// Site holds the static descriptors of a planting site.
type Site struct {
	Region             string
	SoilType           string
	Elevation          float64
	MeanAnnualTemp     float64
	MeanAnnualRainfall float64
}

func siteFrom(c config.SiteConfig) Site {
	return Site{
		Region:             c.Region,
		SoilType:           c.SoilType,
		Elevation:          c.Elevation,
		MeanAnnualTemp:     c.MeanAnnualTemp,
		MeanAnnualRainfall: c.MeanAnnualRainfall,
	}
}

// PlantingRecord is one entry of the planting log.
type PlantingRecord struct {
	Action  string  `json:"action"`
	Year    int     `json:"year"`
	Species string  `json:"species"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Stand is the tree population of one trial. Trees are appended in planting
// order and never removed, so indices stay stable for the whole trial.
type Stand struct {
	Site       Site
	SiteFactor float64
	Area       float64 // ha
	Side       float64 // m
	Trees      []Tree
	Log        []PlantingRecord

	living             int
	livingReplacements int
}

// SideLength returns the side in meters of a square site of area hectares.
func SideLength(area float64) float64 {
	return math.Sqrt(area * 10000)
}

func NewStand(area float64, site Site, siteFactor float64) *Stand {
	return &Stand{
		Site:       site,
		SiteFactor: siteFactor,
		Area:       area,
		Side:       SideLength(area),
	}
}

// Plant appends a living tree and logs it. It returns the tree's index.
func (s *Stand) Plant(species string, pos Vec2, year int, replacement bool) int {
	s.Trees = append(s.Trees, newTree(species, pos, year, replacement))
	action := ActionPlant
	if replacement {
		action = ActionBeatUp
		s.livingReplacements++
	}
	s.Log = append(s.Log, PlantingRecord{Action: action, Year: year, Species: species, X: pos.X, Y: pos.Y})
	s.living++
	return len(s.Trees) - 1
}

// Kill marks tree i dead in year. Killing a dead tree is a no-op.
func (s *Stand) Kill(i, year int) {
	t := &s.Trees[i]
	if !t.Alive {
		return
	}
	t.Alive = false
	t.DiedIn = year
	s.living--
	if t.Replacement {
		s.livingReplacements--
	}
}

func (s *Stand) Living() int             { return s.living }
func (s *Stand) Total() int              { return len(s.Trees) }
func (s *Stand) LivingReplacements() int { return s.livingReplacements }

// RandomPosition draws a uniform position on the site.
func (s *Stand) RandomPosition(rng *rand.Rand) Vec2 {
	x := rng.Float64() * s.Side
	y := rng.Float64() * s.Side
	return Vec2{X: x, Y: y}
}
