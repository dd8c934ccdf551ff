package selection

import (
	"log/slog"
	"math"

	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/metrics"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxStepsPerAxis caps the candidate positions scanned along one axis.
	MaxStepsPerAxis = 1000

	// MaxScanCells caps the total candidate positions of one scan.
	// Larger scans are aborted and select nothing.
	MaxScanCells = 1_000_000

	// DefaultRayTravel is how far a ray reaches when it misses the workspace (meters).
	DefaultRayTravel = 10.0
)

// Store is the read-only voxel data the selectors query.
type Store interface {
	HasVoxel(id voxel.ID) bool
	AllVoxels(res voxel.Resolution) []voxel.ID
	AllVoxelsAnyRes() []voxel.ID
	WorkspaceSize() r3.Vec
}

// Env bundles the collaborators shared by every selector.
type Env struct {
	// Store answers existence and enumeration queries. May be nil.
	Store Store

	// AssumeAllVoxelsExist makes every existence check pass.
	// Intended for testing shapes without populated storage.
	AssumeAllVoxelsExist bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// OnSignal, when set, receives every safety-cap signal after it is
	// logged and counted.
	OnSignal func(Signal)
}

// SignalKind names a safety-cap event.
type SignalKind string

const (
	SignalScanClamped        SignalKind = "scan_clamped"
	SignalScanAborted        SignalKind = "scan_aborted"
	SignalFloodFillTruncated SignalKind = "flood_fill_truncated"
)

// Signal describes a scan or fill that hit one of the safety caps.
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Selector string     `json:"selector"`
	// Cells is the candidate count that tripped an aborted scan, or the
	// voxel ceiling of a truncated fill.
	Cells int64 `json:"cells,omitempty"`
}

func (e *Env) signal(s Signal) {
	if e.OnSignal != nil {
		e.OnSignal(s)
	}
}

func (e *Env) exists(id voxel.ID) bool {
	if e.AssumeAllVoxelsExist {
		return true
	}
	return e.Store != nil && e.Store.HasVoxel(id)
}

func (e *Env) log() *slog.Logger {
	if e.Logger == nil {
		return logger.Setup()
	}
	return e.Logger
}

// Workspace returns the centered workspace box.
func (e *Env) Workspace() voxel.Box {
	size := voxel.DefaultWorkspaceSize
	if e.Store != nil {
		size = e.Store.WorkspaceSize()
	}
	return voxel.WorkspaceBounds(size)
}

// rayPoint resolves a ray to a world point: where it enters the
// workspace, no farther than maxDistance, or a fixed travel when it misses.
func (e *Env) rayPoint(r voxel.Ray, maxDistance float64) r3.Vec {
	dir := r.Direction
	if n := r3.Norm(dir); n > 0 {
		dir = r3.Scale(1/n, dir)
	}
	ray := voxel.Ray{Origin: r.Origin, Direction: dir}
	if tEnter, _, ok := e.Workspace().IntersectRay(ray); ok {
		return ray.At(math.Min(math.Max(tEnter, 0), maxDistance))
	}
	return ray.At(math.Min(maxDistance, DefaultRayTravel))
}

// scanRange is an inclusive range of increment positions.
type scanRange struct {
	lo, hi voxel.Coord
}

// cells is only meaningful once every axis is capped.
func (r scanRange) cells() int64 {
	if r.hi.X < r.lo.X || r.hi.Y < r.lo.Y || r.hi.Z < r.lo.Z {
		return 0
	}
	return int64(r.hi.X-r.lo.X+1) * int64(r.hi.Y-r.lo.Y+1) * int64(r.hi.Z-r.lo.Z+1)
}

// midpoint returns the integer midpoint of a and b without overflow.
func midpoint(a, b int) int {
	return a/2 + b/2 + (a%2+b%2)/2
}

// each calls fn for every position in the range at resolution res.
func (r scanRange) each(res voxel.Resolution, fn func(voxel.ID)) {
	for x := r.lo.X; x <= r.hi.X; x++ {
		for y := r.lo.Y; y <= r.hi.Y; y++ {
			for z := r.lo.Z; z <= r.hi.Z; z++ {
				fn(voxel.NewID(x, y, z, res))
			}
		}
	}
}

// worldRange converts a world box to the candidate anchor range for res.
// Anchors up to res-1 increments below the box still reach into it.
func (e *Env) worldRange(selector string, b voxel.Box, res voxel.Resolution) (scanRange, bool) {
	if !finite(b.Min) || !finite(b.Max) {
		return scanRange{}, false
	}
	reach := res.Centimeters() - 1
	r := scanRange{
		lo: voxel.Coord{X: voxel.FloorCm(b.Min.X) - reach, Y: voxel.FloorCm(b.Min.Y) - reach, Z: voxel.FloorCm(b.Min.Z) - reach},
		hi: voxel.Coord{X: voxel.CeilCm(b.Max.X), Y: voxel.CeilCm(b.Max.Y), Z: voxel.CeilCm(b.Max.Z)},
	}
	mid := voxel.CoordFromWorld(b.Center())
	return e.capRange(selector, r, mid)
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// capRange enforces the scan limits. Oversized axes shrink to
// MaxStepsPerAxis around mid, clamped into the range; a range still
// above MaxScanCells is rejected.
func (e *Env) capRange(selector string, r scanRange, mid voxel.Coord) (scanRange, bool) {
	clamped := false
	// Spans are compared as uint64: hi-lo wraps for ranges wider than
	// the int range, but the unsigned difference stays exact.
	shrink := func(lo, hi, m int) (int, int) {
		if hi < lo || uint64(hi-lo) < MaxStepsPerAxis {
			return lo, hi
		}
		clamped = true
		m = max(lo, min(m, hi))
		nlo := lo
		if uint64(m-lo) > MaxStepsPerAxis/2 {
			nlo = m - MaxStepsPerAxis/2
		}
		if uint64(hi-nlo) < MaxStepsPerAxis-1 {
			nlo = hi - (MaxStepsPerAxis - 1)
		}
		return nlo, nlo + MaxStepsPerAxis - 1
	}
	r.lo.X, r.hi.X = shrink(r.lo.X, r.hi.X, mid.X)
	r.lo.Y, r.hi.Y = shrink(r.lo.Y, r.hi.Y, mid.Y)
	r.lo.Z, r.hi.Z = shrink(r.lo.Z, r.hi.Z, mid.Z)

	if clamped {
		e.log().Warn("scan range clamped",
			"selector", selector,
			"max_steps_per_axis", MaxStepsPerAxis,
			"lo", r.lo, "hi", r.hi)
		e.Metrics.ScanClamped(selector)
		e.signal(Signal{Kind: SignalScanClamped, Selector: selector})
	}

	if n := r.cells(); n > MaxScanCells {
		e.log().Error("scan aborted: too many cells",
			"selector", selector,
			"cells", n,
			"max_cells", MaxScanCells)
		e.Metrics.ScanAborted(selector)
		e.signal(Signal{Kind: SignalScanAborted, Selector: selector, Cells: n})
		return scanRange{}, false
	}
	return r, true
}

// scan tests every candidate in the range with keep and collects the
// matches that also pass the existence check when checkExistence is set.
func (e *Env) scan(selector string, r scanRange, res voxel.Resolution, checkExistence bool, keep func(voxel.ID) bool) *Set {
	out := NewSet()
	r.each(res, func(id voxel.ID) {
		if !keep(id) {
			return
		}
		if checkExistence && !e.exists(id) {
			return
		}
		out.Add(id)
	})
	e.Metrics.Visited(selector, int(r.cells()))
	return out
}
