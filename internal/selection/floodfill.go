package selection

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxVoxels bounds a flood fill result.
const DefaultMaxVoxels = 1_000_000

// Connectivity selects which cells count as adjacent.
type Connectivity int

const (
	Face6 Connectivity = iota
	Edge18
	Vertex26
)

func (c Connectivity) String() string {
	switch c {
	case Face6:
		return "face6"
	case Edge18:
		return "edge18"
	case Vertex26:
		return "vertex26"
	}
	return fmt.Sprintf("Connectivity(%d)", int(c))
}

// ParseConnectivity accepts "face6", "edge18", "vertex26" or the bare counts.
func ParseConnectivity(s string) (Connectivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "face6", "6", "face", "":
		return Face6, nil
	case "edge18", "18", "edge":
		return Edge18, nil
	case "vertex26", "26", "vertex":
		return Vertex26, nil
	}
	return Face6, fmt.Errorf("invalid connectivity %q: want face6, edge18 or vertex26", s)
}

// Criteria selects which neighbors a fill accepts.
type Criteria int

const (
	// Connected accepts touching voxels of any resolution. Only stored
	// voxels can be reached across resolutions.
	Connected Criteria = iota
	// SameResolution accepts touching voxels sharing the seed's resolution.
	SameResolution
	// ConnectedSameResolution accepts touching voxels sharing the
	// resolution of the voxel they were reached from.
	ConnectedSameResolution
)

func (c Criteria) String() string {
	switch c {
	case Connected:
		return "connected"
	case SameResolution:
		return "same_resolution"
	case ConnectedSameResolution:
		return "connected_same_resolution"
	}
	return fmt.Sprintf("Criteria(%d)", int(c))
}

// ParseCriteria accepts the snake_case criteria names.
func ParseCriteria(s string) (Criteria, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "connected", "":
		return Connected, nil
	case "same_resolution", "same-resolution":
		return SameResolution, nil
	case "connected_same_resolution", "connected-same-resolution":
		return ConnectedSameResolution, nil
	}
	return Connected, fmt.Errorf("invalid flood fill criteria %q", s)
}

// neighborOffsets holds the unit offsets per connectivity. Face
// offsets come first, then edges, then corners.
var neighborOffsets [3][]voxel.Coord

func init() {
	var byAxes [4][]voxel.Coord
	for _, x := range []int{-1, 0, 1} {
		for _, y := range []int{-1, 0, 1} {
			for _, z := range []int{-1, 0, 1} {
				n := abs(x) + abs(y) + abs(z)
				if n == 0 {
					continue
				}
				byAxes[n] = append(byAxes[n], voxel.Coord{X: x, Y: y, Z: z})
			}
		}
	}
	neighborOffsets[Face6] = byAxes[1]
	neighborOffsets[Edge18] = append(append([]voxel.Coord{}, byAxes[1]...), byAxes[2]...)
	neighborOffsets[Vertex26] = append(append([]voxel.Coord{}, neighborOffsets[Edge18]...), byAxes[3]...)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Neighbors returns the same-resolution neighbors of id under c. Each
// neighbor sits one edge length of id away along each offset axis.
func Neighbors(id voxel.ID, c Connectivity) []voxel.ID {
	offs := neighborOffsets[c]
	out := make([]voxel.ID, 0, len(offs))
	step := id.Res.Centimeters()
	for _, o := range offs {
		out = append(out, voxel.ID{Pos: id.Pos.Add(o.Scale(step)), Res: id.Res})
	}
	return out
}

// contacts reports whether the bounds of a and b touch under c: Face6
// needs a shared face area, Edge18 at least a shared edge, Vertex26 any
// shared point. Overlapping voxels always touch.
func contacts(a, b voxel.ID, c Connectivity) bool {
	sa, sb := a.Res.Centimeters(), b.Res.Centimeters()
	flat := 0
	for _, p := range [3][2]int{{a.Pos.X, b.Pos.X}, {a.Pos.Y, b.Pos.Y}, {a.Pos.Z, b.Pos.Z}} {
		lo := max(p[0], p[1])
		hi := min(p[0]+sa, p[1]+sb)
		if hi < lo {
			return false
		}
		if hi == lo {
			flat++
		}
	}
	return flat <= int(c)+1
}

// touchIndex buckets stored voxels by resolution and by anchor cell of
// their own edge length, so the voxels touching one cell are found
// without assuming they sit on that cell's grid.
type touchIndex struct {
	buckets map[voxel.Resolution]map[voxel.Coord][]voxel.ID
	byRes   map[voxel.Resolution][]voxel.ID
}

func newTouchIndex(ids []voxel.ID) *touchIndex {
	ids = slices.Clone(ids)
	slices.SortFunc(ids, voxel.Compare)
	ix := &touchIndex{
		buckets: make(map[voxel.Resolution]map[voxel.Coord][]voxel.ID),
		byRes:   make(map[voxel.Resolution][]voxel.ID),
	}
	for _, id := range ids {
		r := id.Res.Centimeters()
		b := ix.buckets[id.Res]
		if b == nil {
			b = make(map[voxel.Coord][]voxel.ID)
			ix.buckets[id.Res] = b
		}
		key := voxel.Coord{X: floorDiv(id.Pos.X, r), Y: floorDiv(id.Pos.Y, r), Z: floorDiv(id.Pos.Z, r)}
		b[key] = append(b[key], id)
		ix.byRes[id.Res] = append(ix.byRes[id.Res], id)
	}
	return ix
}

// touching returns the stored voxels of resolution res that touch cur
// under c. A candidate anchor q touches cur only if q lies in
// [p-res, p+own] on every axis; when that window spans more buckets
// than there are voxels of res, the voxel list is scanned instead.
func (ix *touchIndex) touching(cur voxel.ID, res voxel.Resolution, c Connectivity) []voxel.ID {
	var out []voxel.ID
	keep := func(id voxel.ID) {
		if id != cur && contacts(cur, id, c) {
			out = append(out, id)
		}
	}

	own, r := cur.Res.Centimeters(), res.Centimeters()
	lo := voxel.Coord{X: floorDiv(cur.Pos.X-r, r), Y: floorDiv(cur.Pos.Y-r, r), Z: floorDiv(cur.Pos.Z-r, r)}
	hi := voxel.Coord{X: floorDiv(cur.Pos.X+own, r), Y: floorDiv(cur.Pos.Y+own, r), Z: floorDiv(cur.Pos.Z+own, r)}
	window := scanRange{lo: lo, hi: hi}

	if window.cells() > int64(len(ix.byRes[res])) {
		for _, id := range ix.byRes[res] {
			keep(id)
		}
		return out
	}
	b := ix.buckets[res]
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				for _, id := range b[voxel.Coord{X: x, Y: y, Z: z}] {
					keep(id)
				}
			}
		}
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// FloodFillSelector grows a connected region from a seed voxel.
type FloodFillSelector struct {
	env *Env

	Connectivity Connectivity

	// MaxVoxels is the hard ceiling on the result size.
	MaxVoxels int
}

// NewFloodFillSelector returns a face-connected selector with the default cap.
func NewFloodFillSelector(env *Env) *FloodFillSelector {
	return &FloodFillSelector{env: env, Connectivity: Face6, MaxVoxels: DefaultMaxVoxels}
}

// accept decides whether cand, reached from cur, joins the region.
type accept func(cur, cand voxel.ID) bool

// fill runs the breadth-first traversal. A negative maxDepth means no
// depth limit.
func (f *FloodFillSelector) fill(selector string, seed voxel.ID, anyRes bool, ok accept, maxDepth int) *Set {
	result := NewSet()
	if !f.env.exists(seed) || !ok(seed, seed) {
		return result
	}
	limit := f.MaxVoxels
	if limit <= 0 {
		limit = DefaultMaxVoxels
	}

	type entry struct {
		id    voxel.ID
		depth int
	}
	visited := map[voxel.ID]struct{}{seed: {}}
	queue := []entry{{seed, 0}}
	resolutions := []voxel.Resolution{seed.Res}
	if anyRes {
		resolutions = voxel.AllResolutions()
	}

	// Stored voxels can sit at any 1cm offset, so a populated store is
	// indexed and searched by contact. Without one, neighbors are the
	// same-resolution cells one edge length away.
	var ix *touchIndex
	if !f.env.AssumeAllVoxelsExist && f.env.Store != nil {
		ix = newTouchIndex(f.env.Store.AllVoxelsAnyRes())
	}
	candidates := func(cur voxel.ID, res voxel.Resolution) []voxel.ID {
		if ix != nil {
			return ix.touching(cur, res, f.Connectivity)
		}
		if res != cur.Res {
			return nil
		}
		return Neighbors(cur, f.Connectivity)
	}

	tested := 0
	for len(queue) > 0 && result.Len() < limit {
		cur := queue[0]
		queue = queue[1:]
		result.Add(cur.id)

		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}
		for _, res := range resolutions {
			for _, n := range candidates(cur.id, res) {
				if _, seen := visited[n]; seen {
					continue
				}
				tested++
				if !f.env.exists(n) || !ok(cur.id, n) {
					continue
				}
				visited[n] = struct{}{}
				queue = append(queue, entry{n, cur.depth + 1})
			}
		}
	}
	f.env.Metrics.Visited(selector, tested)

	if len(queue) > 0 {
		f.env.log().Warn("flood fill truncated",
			"selector", selector,
			"seed", seed.String(),
			"max_voxels", limit,
			"pending", len(queue))
		f.env.Metrics.FloodFillTruncated()
		f.env.signal(Signal{Kind: SignalFloodFillTruncated, Selector: selector, Cells: int64(limit)})
	}
	return result
}

func (f *FloodFillSelector) criteria(seed voxel.ID, c Criteria) (anyRes bool, ok accept) {
	switch c {
	case SameResolution:
		return false, func(_, cand voxel.ID) bool { return cand.Res == seed.Res }
	case ConnectedSameResolution:
		return false, func(cur, cand voxel.ID) bool { return cand.Res == cur.Res }
	}
	return true, func(_, _ voxel.ID) bool { return true }
}

// FloodFill grows the region of seed under criteria c.
func (f *FloodFillSelector) FloodFill(seed voxel.ID, c Criteria) *Set {
	anyRes, ok := f.criteria(seed, c)
	return f.fill("flood_fill", seed, anyRes, ok, -1)
}

// FloodFillCustom grows the region of touching voxels that satisfy keep.
// A seed failing keep selects nothing.
func (f *FloodFillSelector) FloodFillCustom(seed voxel.ID, keep Predicate) *Set {
	return f.fill("flood_fill_custom", seed, true, func(_, cand voxel.ID) bool { return keep(cand) }, -1)
}

// FloodFillBounded grows the region of seed under criteria c, keeping
// only voxels whose centers lie inside bounds.
func (f *FloodFillSelector) FloodFillBounded(seed voxel.ID, c Criteria, bounds voxel.Box) *Set {
	bounds = voxel.NewBox(bounds.Min, bounds.Max)
	anyRes, ok := f.criteria(seed, c)
	return f.fill("flood_fill_bounded", seed, anyRes, func(cur, cand voxel.ID) bool {
		return ok(cur, cand) && bounds.ContainsPoint(cand.Center())
	}, -1)
}

// FloodFillPlanar grows the region of seed under criteria c, keeping
// only voxels whose centers lie within tolerance of the plane through
// the seed center with the given normal. A zero normal selects nothing.
func (f *FloodFillSelector) FloodFillPlanar(seed voxel.ID, c Criteria, normal r3.Vec, tolerance float64) *Set {
	n := r3.Norm(normal)
	if n == 0 || tolerance < 0 {
		return NewSet()
	}
	normal = r3.Scale(1/n, normal)
	origin := seed.Center()
	anyRes, ok := f.criteria(seed, c)
	return f.fill("flood_fill_planar", seed, anyRes, func(cur, cand voxel.ID) bool {
		return ok(cur, cand) && math.Abs(r3.Dot(r3.Sub(cand.Center(), origin), normal)) <= tolerance
	}, -1)
}

// FloodFillLimited grows the region under criteria c no more than
// maxSteps hops from the seed.
func (f *FloodFillSelector) FloodFillLimited(seed voxel.ID, c Criteria, maxSteps int) *Set {
	anyRes, ok := f.criteria(seed, c)
	return f.fill("flood_fill_limited", seed, anyRes, ok, max(maxSteps, 0))
}
