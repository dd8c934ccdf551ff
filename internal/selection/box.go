package selection

import (
	"math"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoxSelector selects the voxels of one resolution touched by an
// axis-aligned region.
type BoxSelector struct {
	env *Env

	// IncludePartial selects voxels that merely intersect the box.
	// When false, only voxels fully inside the box are selected.
	IncludePartial bool
}

// NewBoxSelector returns a selector including partially covered voxels.
func NewBoxSelector(env *Env) *BoxSelector {
	return &BoxSelector{env: env, IncludePartial: true}
}

// SelectFromWorld selects voxels of resolution res against box, clamped
// to the workspace first. An empty clamp selects nothing.
func (s *BoxSelector) SelectFromWorld(box voxel.Box, res voxel.Resolution, checkExistence bool) *Set {
	box = voxel.NewBox(box.Min, box.Max).Clamp(s.env.Workspace())
	if box.Inverted() {
		return NewSet()
	}

	r, ok := s.env.worldRange("box", box, res)
	if !ok {
		return NewSet()
	}
	return s.env.scan("box", r, res, checkExistence, func(id voxel.ID) bool {
		vb := id.Bounds()
		if s.IncludePartial {
			return box.Intersects(vb)
		}
		return box.ContainsBox(vb)
	})
}

// SelectFromScreen unprojects the screen rectangle between start and end
// (pixels, origin top-left) through the inverse of proj*view, and selects
// against the axis-aligned bounds of the resulting frustum slice. The
// bounds over-approximate the slice at grazing view angles.
func (s *BoxSelector) SelectFromScreen(start, end r2.Vec, view, proj mat.Matrix, viewport r2.Vec, res voxel.Resolution) *Set {
	if viewport.X <= 0 || viewport.Y <= 0 {
		return NewSet()
	}

	var vp, inv mat.Dense
	vp.Mul(proj, view)
	if err := inv.Inverse(&vp); err != nil {
		s.env.log().Warn("screen selection: view-projection not invertible", "error", err)
		return NewSet()
	}

	lo := r2.Vec{X: math.Min(start.X, end.X), Y: math.Min(start.Y, end.Y)}
	hi := r2.Vec{X: math.Max(start.X, end.X), Y: math.Max(start.Y, end.Y)}

	var bounds voxel.Box
	first := true
	for _, px := range []float64{lo.X, hi.X} {
		for _, py := range []float64{lo.Y, hi.Y} {
			for _, ndcZ := range []float64{-1, 1} {
				p, ok := unproject(&inv, px, py, ndcZ, viewport)
				if !ok {
					continue
				}
				pb := voxel.Box{Min: p, Max: p}
				if first {
					bounds, first = pb, false
				} else {
					bounds = bounds.Union(pb)
				}
			}
		}
	}
	if first {
		return NewSet()
	}
	return s.SelectFromWorld(bounds, res, true)
}

// unproject maps a pixel at normalized depth ndcZ back to world space.
func unproject(inv *mat.Dense, px, py, ndcZ float64, viewport r2.Vec) (r3.Vec, bool) {
	ndc := mat.NewVecDense(4, []float64{
		2*px/viewport.X - 1,
		1 - 2*py/viewport.Y,
		ndcZ,
		1,
	})
	var w mat.VecDense
	w.MulVec(inv, ndc)
	if w.AtVec(3) == 0 {
		return r3.Vec{}, false
	}
	k := 1 / w.AtVec(3)
	return r3.Vec{X: w.AtVec(0) * k, Y: w.AtVec(1) * k, Z: w.AtVec(2) * k}, true
}

// SelectFromRays resolves each ray to a world point and selects against
// the box spanning both points.
func (s *BoxSelector) SelectFromRays(a, b voxel.Ray, maxDistance float64, res voxel.Resolution) *Set {
	pa := s.env.rayPoint(a, maxDistance)
	pb := s.env.rayPoint(b, maxDistance)
	return s.SelectFromWorld(voxel.NewBox(pa, pb), res, true)
}

// SelectFromGrid selects every increment position between lo and hi
// inclusive, in either order. No world conversion or workspace clamp is
// applied.
func (s *BoxSelector) SelectFromGrid(lo, hi voxel.Coord, res voxel.Resolution, checkExistence bool) *Set {
	r := scanRange{
		lo: voxel.Coord{X: min(lo.X, hi.X), Y: min(lo.Y, hi.Y), Z: min(lo.Z, hi.Z)},
		hi: voxel.Coord{X: max(lo.X, hi.X), Y: max(lo.Y, hi.Y), Z: max(lo.Z, hi.Z)},
	}
	mid := voxel.Coord{
		X: midpoint(r.lo.X, r.hi.X),
		Y: midpoint(r.lo.Y, r.hi.Y),
		Z: midpoint(r.lo.Z, r.hi.Z),
	}
	r, ok := s.env.capRange("grid", r, mid)
	if !ok {
		return NewSet()
	}
	return s.env.scan("grid", r, res, checkExistence, func(voxel.ID) bool { return true })
}
