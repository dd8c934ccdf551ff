package selection

import (
	"math"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFalloffStart is the normalized distance where weights begin to drop.
const DefaultFalloffStart = 0.8

// SphereSelector selects voxels by sphere, ellipsoid and hemisphere.
type SphereSelector struct {
	env *Env

	// IncludePartial tests the voxel box point closest to the center.
	// When false, only the voxel center is tested.
	IncludePartial bool

	// FalloffStart is where Weight starts decaying, in [0, 1].
	FalloffStart float64
}

// NewSphereSelector returns a selector including partially covered voxels.
func NewSphereSelector(env *Env) *SphereSelector {
	return &SphereSelector{env: env, IncludePartial: true, FalloffStart: DefaultFalloffStart}
}

// probe returns the point of id tested against a shape centered at c.
func (s *SphereSelector) probe(id voxel.ID, c r3.Vec) r3.Vec {
	if s.IncludePartial {
		return id.Bounds().ClosestPoint(c)
	}
	return id.Center()
}

// sphereCandidates returns the scan range around a sphere of radius r.
// Sphere scans are not clamped to the workspace.
func (s *SphereSelector) sphereCandidates(selector string, c r3.Vec, r float64, res voxel.Resolution) (scanRange, bool) {
	return s.env.worldRange(selector, voxel.BoxAround(c, r), res)
}

// SelectFromSphere selects voxels of resolution res within radius of center.
func (s *SphereSelector) SelectFromSphere(center r3.Vec, radius float64, res voxel.Resolution, checkExistence bool) *Set {
	if radius < 0 || (radius == 0 && !s.IncludePartial) {
		return NewSet()
	}
	r, ok := s.sphereCandidates("sphere", center, radius, res)
	if !ok {
		return NewSet()
	}
	r2 := radius * radius
	return s.env.scan("sphere", r, res, checkExistence, func(id voxel.ID) bool {
		d := r3.Sub(s.probe(id, center), center)
		return r3.Dot(d, d) <= r2
	})
}

// SelectEllipsoid selects voxels inside the ellipsoid with the given
// semi-axes, rotated by rot about center. Non-positive radii select nothing.
func (s *SphereSelector) SelectEllipsoid(center, radii r3.Vec, rot r3.Rotation, res voxel.Resolution, checkExistence bool) *Set {
	if radii.X <= 0 || radii.Y <= 0 || radii.Z <= 0 {
		return NewSet()
	}
	maxR := math.Max(radii.X, math.Max(radii.Y, radii.Z))
	r, ok := s.sphereCandidates("ellipsoid", center, maxR, res)
	if !ok {
		return NewSet()
	}
	inv := voxel.Inverse(rot)
	return s.env.scan("ellipsoid", r, res, checkExistence, func(id voxel.ID) bool {
		local := inv.Rotate(r3.Sub(s.probe(id, center), center))
		x, y, z := local.X/radii.X, local.Y/radii.Y, local.Z/radii.Z
		return x*x+y*y+z*z <= 1
	})
}

// SelectHemisphere selects voxels inside the sphere on the side normal
// points to. A zero normal selects nothing.
func (s *SphereSelector) SelectHemisphere(center r3.Vec, radius float64, normal r3.Vec, res voxel.Resolution, checkExistence bool) *Set {
	n := r3.Norm(normal)
	if radius < 0 || n == 0 || (radius == 0 && !s.IncludePartial) {
		return NewSet()
	}
	normal = r3.Scale(1/n, normal)
	r, ok := s.sphereCandidates("hemisphere", center, radius, res)
	if !ok {
		return NewSet()
	}
	r2 := radius * radius
	inSphere := func(p r3.Vec) bool {
		d := r3.Sub(p, center)
		return r3.Dot(d, d) <= r2
	}
	inFront := func(p r3.Vec) bool {
		return r3.Dot(r3.Sub(p, center), normal) >= 0
	}
	return s.env.scan("hemisphere", r, res, checkExistence, func(id voxel.ID) bool {
		if !s.IncludePartial {
			c := id.Center()
			return inSphere(c) && inFront(c)
		}
		b := id.Bounds()
		closest := b.ClosestPoint(center)
		if !inSphere(closest) {
			return false
		}
		if inFront(closest) {
			return true
		}
		for _, corner := range b.Corners() {
			if inSphere(corner) && inFront(corner) {
				return true
			}
		}
		return false
	})
}

// SelectFromRay places a sphere where ray enters the workspace, no
// farther than maxDistance, and selects existing voxels inside it.
func (s *SphereSelector) SelectFromRay(ray voxel.Ray, radius, maxDistance float64, res voxel.Resolution) *Set {
	return s.SelectFromSphere(s.env.rayPoint(ray, maxDistance), radius, res, true)
}

// Weight returns the falloff weight of id for a sphere: 1 up to
// FalloffStart of the radius, then linear down to 0 at the surface.
func (s *SphereSelector) Weight(id voxel.ID, center r3.Vec, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	d := r3.Norm(r3.Sub(id.Center(), center)) / radius
	start := clampUnit(s.FalloffStart)
	switch {
	case d <= start:
		return 1
	case d >= 1:
		return 0
	}
	return 1 - (d-start)/(1-start)
}

// Weights returns Weight for every member of set.
func (s *SphereSelector) Weights(set *Set, center r3.Vec, radius float64) map[voxel.ID]float64 {
	out := make(map[voxel.ID]float64, set.Len())
	for id := range set.All() {
		out[id] = s.Weight(id, center, radius)
	}
	return out
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
