package voxel

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultWorkspaceSize is used when no store reports its extents (meters).
var DefaultWorkspaceSize = r3.Vec{X: 5, Y: 5, Z: 5}

// IdentityRotation is the no-op rotation. The zero r3.Rotation is not a
// valid rotation, so callers should start from this value.
var IdentityRotation = r3.Rotation{Real: 1}

// Box is an axis-aligned box in world space (meters).
type Box struct {
	Min r3.Vec `json:"min"`
	Max r3.Vec `json:"max"`
}

// NewBox builds a box from two arbitrary corners.
func NewBox(a, b r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// BoxAround returns the cube of half-extent r centered at c.
func BoxAround(c r3.Vec, r float64) Box {
	d := r3.Vec{X: r, Y: r, Z: r}
	return Box{Min: r3.Sub(c, d), Max: r3.Add(c, d)}
}

// WorkspaceBounds returns the centered workspace box: X and Z span
// [-size/2, size/2], Y spans [0, size].
func WorkspaceBounds(size r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: -size.X / 2, Y: 0, Z: -size.Z / 2},
		Max: r3.Vec{X: size.X / 2, Y: size.Y, Z: size.Z / 2},
	}
}

// Inverted reports whether min exceeds max on any axis.
func (b Box) Inverted() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Size returns the extents of the box.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Clamp restricts b to limit. The result is Inverted when they do not overlap.
func (b Box) Clamp(limit Box) Box {
	return Box{
		Min: r3.Vec{X: math.Max(b.Min.X, limit.Min.X), Y: math.Max(b.Min.Y, limit.Min.Y), Z: math.Max(b.Min.Z, limit.Min.Z)},
		Max: r3.Vec{X: math.Min(b.Max.X, limit.Max.X), Y: math.Min(b.Max.Y, limit.Max.Y), Z: math.Min(b.Max.Z, limit.Max.Z)},
	}
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Intersects reports whether the boxes overlap. Touching faces count.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether p lies inside b, boundary included.
func (b Box) ContainsPoint(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ClosestPoint returns the point of b nearest to p, clamped per axis.
func (b Box) ClosestPoint(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// Corners returns the eight vertices of b.
func (b Box) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	for i := range out {
		v := b.Min
		if i&1 != 0 {
			v.X = b.Max.X
		}
		if i&2 != 0 {
			v.Y = b.Max.Y
		}
		if i&4 != 0 {
			v.Z = b.Max.Z
		}
		out[i] = v
	}
	return out
}

// Ray is a half-line in world space. Direction need not be normalized.
type Ray struct {
	Origin    r3.Vec `json:"origin"`
	Direction r3.Vec `json:"direction"`
}

// At returns the point at parameter t.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// IntersectRay runs the slab test. It returns the entry and exit
// parameters and whether the ray hits the box at or after its origin.
func (b Box) IntersectRay(r Ray) (tEnter, tExit float64, ok bool) {
	tEnter, tExit = math.Inf(-1), math.Inf(1)
	axes := [3][4]float64{
		{r.Origin.X, r.Direction.X, b.Min.X, b.Max.X},
		{r.Origin.Y, r.Direction.Y, b.Min.Y, b.Max.Y},
		{r.Origin.Z, r.Direction.Z, b.Min.Z, b.Max.Z},
	}
	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	if tExit < 0 {
		return 0, 0, false
	}
	return tEnter, tExit, true
}

// Inverse returns the inverse of a unit rotation. A zero rotation is
// treated as the identity.
func Inverse(rot r3.Rotation) r3.Rotation {
	if rot == (r3.Rotation{}) {
		return IdentityRotation
	}
	return r3.Rotation(quat.Conj(quat.Number(rot)))
}

// NewRotation returns the rotation of angle radians about axis. A zero
// axis yields the identity.
func NewRotation(angle float64, axis r3.Vec) r3.Rotation {
	if r3.Norm(axis) == 0 || angle == 0 {
		return IdentityRotation
	}
	return r3.NewRotation(angle, axis)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// MaxIncrement bounds increment coordinates converted from world space.
// Larger magnitudes saturate; NaN converts to 0.
const MaxIncrement = 1 << 52

func toIncrement(cm float64) int {
	if math.IsNaN(cm) {
		return 0
	}
	return int(math.Max(-MaxIncrement, math.Min(cm, MaxIncrement)))
}

func roundToInt(v float64) int {
	return toIncrement(math.Round(v))
}

// FloorCm converts meters to the increment at or below v.
func FloorCm(v float64) int {
	return toIncrement(math.Floor(v * CentimetersPerMeter))
}

// CeilCm converts meters to the increment at or above v.
func CeilCm(v float64) int {
	return toIncrement(math.Ceil(v * CentimetersPerMeter))
}
