package voxel

import (
	"cmp"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// CentimetersPerMeter converts increment units to world units.
const CentimetersPerMeter = 100.0

// Coord is an increment coordinate: an integer position in 1cm units,
// independent of any voxel's own resolution.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// Sub returns c - o.
func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// Scale returns c * k.
func (c Coord) Scale(k int) Coord {
	return Coord{X: c.X * k, Y: c.Y * k, Z: c.Z * k}
}

// World converts the coordinate to meters.
func (c Coord) World() r3.Vec {
	return r3.Vec{
		X: float64(c.X) / CentimetersPerMeter,
		Y: float64(c.Y) / CentimetersPerMeter,
		Z: float64(c.Z) / CentimetersPerMeter,
	}
}

// CoordFromWorld rounds a world position (meters) to the nearest increment coordinate.
func CoordFromWorld(p r3.Vec) Coord {
	return Coord{
		X: roundToInt(p.X * CentimetersPerMeter),
		Y: roundToInt(p.Y * CentimetersPerMeter),
		Z: roundToInt(p.Z * CentimetersPerMeter),
	}
}

// ID identifies one voxel cell. Two IDs are equal iff position and
// resolution are both equal, so ID is usable directly as a map key.
type ID struct {
	Pos Coord      `json:"pos"`
	Res Resolution `json:"res"`
}

// NewID builds an ID from raw increment components.
func NewID(x, y, z int, res Resolution) ID {
	return ID{Pos: Coord{X: x, Y: y, Z: z}, Res: res}
}

// String returns "4cm(10,0,-4)".
func (id ID) String() string {
	return fmt.Sprintf("%s(%d,%d,%d)", id.Res, id.Pos.X, id.Pos.Y, id.Pos.Z)
}

// Compare orders IDs by resolution, then x, y, z.
func Compare(a, b ID) int {
	if c := cmp.Compare(a.Res, b.Res); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pos.X, b.Pos.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pos.Y, b.Pos.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Pos.Z, b.Pos.Z)
}

// Hash mixes all four fields into a 64-bit value.
func (id ID) Hash() uint64 {
	h := uint64(14695981039346656037)
	for _, v := range [4]uint64{uint64(id.Res), uint64(id.Pos.X), uint64(id.Pos.Y), uint64(id.Pos.Z)} {
		h ^= v
		h *= 1099511628211
		h ^= h >> 29
	}
	return h
}

// Size returns the edge length in meters.
func (id ID) Size() float64 {
	return id.Res.Meters()
}

// Min returns the world position of the voxel's anchor corner. The
// voxel's bottom face sits at its position, so it rests on the anchor.
func (id ID) Min() r3.Vec {
	return id.Pos.World()
}

// Center returns the world-space center of the voxel.
func (id ID) Center() r3.Vec {
	half := id.Size() / 2
	return r3.Add(id.Min(), r3.Vec{X: half, Y: half, Z: half})
}

// Bounds returns the voxel's world-space AABB [pos, pos+res].
func (id ID) Bounds() Box {
	s := id.Size()
	lo := id.Min()
	return Box{Min: lo, Max: r3.Add(lo, r3.Vec{X: s, Y: s, Z: s})}
}
