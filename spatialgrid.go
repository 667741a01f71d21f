package feather

import (
	"sort"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is a cell coordinate in the 2D spatial hash, collapsed from the
// teacher's 3D CellKey{X,Y,Z}.
type CellKey struct {
	X, Y int
}

type cell struct {
	fixtureIndices []int
}

// FixturePair is a candidate pair of fixtures whose (fattened) AABBs
// overlap, in ascending identity order, per spec §4.2.
type FixturePair struct {
	A, B *actor.BodyFixture
}

// SpatialGrid is a uniform hashed grid broad-phase (spec §4.2's documented
// choice over a dynamic AABB tree -- see DESIGN.md), ported in spirit from
// the teacher's spatialgrid.go collapsed to two dimensions. Fixture AABBs
// are stored fattened by FatExpansion so a body can move a little without
// forcing a grid update every step.
type SpatialGrid struct {
	cellSize float64
	cells    []cell
	cellMask int

	fixtures []*actor.BodyFixture
	fatAABBs []actor.AABB
	slot     map[*actor.BodyFixture]int
}

// FatExpansion fattens inserted AABBs by this margin on every side, the
// broad-phase documented constant (spec §4.2 suggests ~0.2m; feather2d uses
// the same value the teacher's fat-AABB convention implies for its scale).
const FatExpansion = 0.2

// NewSpatialGrid creates a grid with the given cell size (world units) and
// an initial cell table sized to numCells (rounded up to a power of two, so
// hashing can mask instead of mod).
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)
	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].fixtureIndices = make([]int, 0, 8)
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
		slot:     make(map[*actor.BodyFixture]int),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds a fixture to the grid at its current world AABB.
func (sg *SpatialGrid) Insert(f *actor.BodyFixture) {
	idx := len(sg.fixtures)
	sg.fixtures = append(sg.fixtures, f)
	sg.fatAABBs = append(sg.fatAABBs, f.AABB().Expand(FatExpansion))
	sg.slot[f] = idx
	sg.insertIntoCells(idx)
}

// Remove drops a fixture from the grid. Silently does nothing for a
// fixture that was never inserted (spec §4.2).
func (sg *SpatialGrid) Remove(f *actor.BodyFixture) {
	idx, ok := sg.slot[f]
	if !ok {
		return
	}
	sg.removeFromCells(idx)
	delete(sg.slot, f)
	sg.fixtures[idx] = nil
}

// Move updates a fixture's cell membership if its real AABB has drifted
// outside the cached fat AABB (spec §4.2's "move" operation).
func (sg *SpatialGrid) Move(f *actor.BodyFixture) {
	idx, ok := sg.slot[f]
	if !ok {
		return
	}
	real := f.AABB()
	if sg.fatAABBs[idx].ContainsPoint(real.Min) && sg.fatAABBs[idx].ContainsPoint(real.Max) {
		return
	}
	sg.removeFromCells(idx)
	sg.fatAABBs[idx] = real.Expand(FatExpansion)
	sg.insertIntoCells(idx)
}

func (sg *SpatialGrid) insertIntoCells(idx int) {
	minCell := sg.worldToCell(sg.fatAABBs[idx].Min)
	maxCell := sg.worldToCell(sg.fatAABBs[idx].Max)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			c := sg.hashCell(CellKey{x, y})
			sg.cells[c].fixtureIndices = append(sg.cells[c].fixtureIndices, idx)
		}
	}
}

func (sg *SpatialGrid) removeFromCells(idx int) {
	minCell := sg.worldToCell(sg.fatAABBs[idx].Min)
	maxCell := sg.worldToCell(sg.fatAABBs[idx].Max)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			c := sg.hashCell(CellKey{x, y})
			indices := sg.cells[c].fixtureIndices
			for i, v := range indices {
				if v == idx {
					indices[i] = indices[len(indices)-1]
					sg.cells[c].fixtureIndices = indices[:len(indices)-1]
					break
				}
			}
		}
	}
}

// FindPairs rebuilds the candidate fixture pair set from the current grid
// contents, in deterministic order (cell-table order, ascending fixture index
// within a cell) so the contact manager's iteration order is stable across
// runs (spec §4.6 determinism). A pair sharing several cells is reported
// once; the seen set drops the repeats.
func (sg *SpatialGrid) FindPairs() []FixturePair {
	pairs := make([]FixturePair, 0, len(sg.fixtures))
	seen := make(map[[2]int]bool)

	for c := range sg.cells {
		indices := sg.cells[c].fixtureIndices
		if len(indices) < 2 {
			continue
		}
		sorted := append([]int(nil), indices...)
		sort.Ints(sorted)

		for i := 0; i < len(sorted); i++ {
			a := sorted[i]
			if sg.fixtures[a] == nil {
				continue
			}
			for j := i + 1; j < len(sorted); j++ {
				b := sorted[j]
				if sg.fixtures[b] == nil || a == b {
					continue
				}
				key := [2]int{a, b}
				if seen[key] {
					continue
				}
				if !sg.fatAABBs[a].Overlaps(sg.fatAABBs[b]) {
					continue
				}
				seen[key] = true
				pairs = append(pairs, FixturePair{A: sg.fixtures[a], B: sg.fixtures[b]})
			}
		}
	}

	return pairs
}

// QueryAABB returns every fixture whose fat AABB overlaps the query box.
func (sg *SpatialGrid) QueryAABB(aabb actor.AABB) []*actor.BodyFixture {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	seen := make(map[int]bool)
	var result []*actor.BodyFixture
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			c := sg.hashCell(CellKey{x, y})
			for _, idx := range sg.cells[c].fixtureIndices {
				if seen[idx] || sg.fixtures[idx] == nil {
					continue
				}
				seen[idx] = true
				if sg.fatAABBs[idx].Overlaps(aabb) {
					result = append(result, sg.fixtures[idx])
				}
			}
		}
	}
	return result
}

// QueryPoint returns every fixture whose shape contains the world point.
func (sg *SpatialGrid) QueryPoint(point mgl64.Vec2) []*actor.BodyFixture {
	box := actor.AABB{Min: point, Max: point}
	var result []*actor.BodyFixture
	for _, f := range sg.QueryAABB(box) {
		if f.Body() == nil {
			continue
		}
		local := f.Body().Transform.ToLocal(point)
		if f.Shape.Contains(local) {
			result = append(result, f)
		}
	}
	return result
}

// RayHit is one fixture intersection along a ray cast.
type RayHit struct {
	Fixture *actor.BodyFixture
	T       float64
}

// RayCast returns every fixture whose AABB the ray [origin, origin+dir*maxLen]
// intersects, sorted by increasing t (spec §4.2/§6). If all is false, only
// the closest hit is returned.
func (sg *SpatialGrid) RayCast(origin, dir mgl64.Vec2, maxLen float64, all bool) []RayHit {
	seen := make(map[int]bool)
	var hits []RayHit
	for idx, f := range sg.fixtures {
		if f == nil || seen[idx] {
			continue
		}
		if t, ok := sg.fatAABBs[idx].RayIntersect(origin, dir, maxLen); ok {
			seen[idx] = true
			hits = append(hits, RayHit{Fixture: f, T: t})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].T < hits[j].T })
	if !all && len(hits) > 1 {
		hits = hits[:1]
	}
	return hits
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec2) CellKey {
	return CellKey{
		X: floorDiv(pos.X(), sg.cellSize),
		Y: floorDiv(pos.Y(), sg.cellSize),
	}
}

func floorDiv(v, size float64) int {
	q := v / size
	i := int(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}
