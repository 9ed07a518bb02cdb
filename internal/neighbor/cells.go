package neighbor

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// MaxCellsPerAxis bounds the grid so huge boxes with tiny cutoffs do not
// allocate millions of empty cells.
const MaxCellsPerAxis = 64

// CellList is a linked-cell grid. Cells are at least MaxCut+Skin wide and
// particles are binned only on Rebuild, so the grid stays valid as long as
// no particle has moved more than Skin/2 since then; the integrator's
// resort flag enforces that.
type CellList struct {
	dims  [3]int
	box   dynamo.Vec3
	head  []int
	next  []int
	neigh [][]int
	n     int
	built bool
}

func NewCellList() *CellList { return &CellList{} }

func (c *CellList) Dims() [3]int { return c.dims }

func (c *CellList) Rebuild(ctx *dynamo.Context, ps particle.Set) {
	reach := ctx.MaxCut + ctx.Skin

	var dims [3]int
	for j := 0; j < 3; j++ {
		dims[j] = 1
		if ctx.Box[j] > 0 && reach > 0 {
			dims[j] = int(math.Floor(ctx.Box[j] / reach))
		}
		if dims[j] < 1 {
			dims[j] = 1
		}
		if dims[j] > MaxCellsPerAxis {
			dims[j] = MaxCellsPerAxis
		}
	}

	if dims != c.dims || c.neigh == nil {
		c.dims = dims
		c.buildNeighbors()
	}
	c.box = ctx.Box

	nCells := dims[0] * dims[1] * dims[2]
	if len(c.head) != nCells {
		c.head = make([]int, nCells)
	}
	for i := range c.head {
		c.head[i] = -1
	}
	if len(c.next) != len(ps) {
		c.next = make([]int, len(ps))
	}

	// Insert in reverse so each cell lists particles in ascending index.
	for i := len(ps) - 1; i >= 0; i-- {
		cell := c.cellOf(ps[i].Pos)
		c.next[i] = c.head[cell]
		c.head[cell] = i
	}

	c.n = len(ps)
	c.built = true
}

func (c *CellList) cellOf(pos dynamo.Vec3) int {
	var idx [3]int
	for j := 0; j < 3; j++ {
		l := c.box[j]
		if l <= 0 || c.dims[j] == 1 {
			continue
		}
		x := pos[j] - l*math.Floor(pos[j]/l)
		k := int(x / l * float64(c.dims[j]))
		switch {
		case k >= c.dims[j]:
			k = c.dims[j] - 1
		case k < 0: // non-finite coordinate
			k = 0
		}
		idx[j] = k
	}
	return c.index(idx[0], idx[1], idx[2])
}

func (c *CellList) index(x, y, z int) int {
	return (z*c.dims[1]+y)*c.dims[0] + x
}

// buildNeighbors stores, for every cell, the distinct neighbor cells with a
// larger index. Small grids wrap onto themselves, hence the dedupe.
func (c *CellList) buildNeighbors() {
	nx, ny, nz := c.dims[0], c.dims[1], c.dims[2]
	c.neigh = make([][]int, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				self := c.index(x, y, z)
				seen := map[int]bool{self: true}
				var list []int
				for dz := -1; dz <= 1; dz++ {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							n := c.index(wrap(x+dx, nx), wrap(y+dy, ny), wrap(z+dz, nz))
							if seen[n] {
								continue
							}
							seen[n] = true
							if n > self {
								list = append(list, n)
							}
						}
					}
				}
				c.neigh[self] = list
			}
		}
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (c *CellList) ForEachPair(ctx *dynamo.Context, ps particle.Set, fn PairFunc) {
	if ctx.MaxCut <= 0 {
		return
	}
	if !c.built || c.n != len(ps) {
		c.Rebuild(ctx, ps)
	}
	cut2 := ctx.MaxCut * ctx.MaxCut

	visit := func(i, j int) {
		d := ctx.MinimumImage(ps[i].Pos.Sub(ps[j].Pos))
		if r2 := d.Norm2(); r2 < cut2 {
			fn(&ps[i], &ps[j], d, r2)
		}
	}

	for cell, first := range c.head {
		for i := first; i >= 0; i = c.next[i] {
			for j := c.next[i]; j >= 0; j = c.next[j] {
				visit(i, j)
			}
			for _, nb := range c.neigh[cell] {
				for j := c.head[nb]; j >= 0; j = c.next[j] {
					visit(i, j)
				}
			}
		}
	}
}
