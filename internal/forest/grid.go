package forest

import "math"

// SpatialGrid buckets tree indices into square cells so that a radius query
// only visits the 3x3 block of cells around the query point. Cells are as wide
// as the query radius.
type SpatialGrid struct {
	cell  float64
	cols  int
	rows  int
	cells [][]int
}

func NewSpatialGrid(side, cell float64) *SpatialGrid {
	n := int(math.Ceil(side / cell))
	if n < 1 {
		n = 1
	}
	return &SpatialGrid{cell: cell, cols: n, rows: n, cells: make([][]int, n*n)}
}

func (g *SpatialGrid) coord(p Vec2) (int, int) {
	cx := int(p.X / g.cell)
	cy := int(p.Y / g.cell)
	return clamp(cx, 0, g.cols-1), clamp(cy, 0, g.rows-1)
}

func (g *SpatialGrid) Insert(idx int, p Vec2) {
	cx, cy := g.coord(p)
	k := cy*g.cols + cx
	g.cells[k] = append(g.cells[k], idx)
}

// IndexLiving rebuilds the grid from the living trees of trees.
func (g *SpatialGrid) IndexLiving(trees []Tree) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i := range trees {
		if trees[i].Alive {
			g.Insert(i, trees[i].Pos)
		}
	}
}

// CountWithin counts living trees other than trees[idx] strictly closer than
// r to it. r must not exceed the cell size.
func (g *SpatialGrid) CountWithin(trees []Tree, idx int, r float64) int {
	p := trees[idx].Pos
	cx, cy := g.coord(p)
	n := 0
	for y := cy - 1; y <= cy+1; y++ {
		if y < 0 || y >= g.rows {
			continue
		}
		for x := cx - 1; x <= cx+1; x++ {
			if x < 0 || x >= g.cols {
				continue
			}
			for _, j := range g.cells[y*g.cols+x] {
				if j == idx || !trees[j].Alive {
					continue
				}
				if p.Within(trees[j].Pos, r) {
					n++
				}
			}
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
