// Package store holds the voxels the selectors query, in memory.
package store

import (
	"slices"
	"sync"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Memory is an in-memory voxel store. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	voxels    map[voxel.ID]struct{}
	workspace r3.Vec
}

// NewMemory returns an empty store with the given workspace size (meters).
// A zero size falls back to voxel.DefaultWorkspaceSize.
func NewMemory(workspace r3.Vec) *Memory {
	if workspace == (r3.Vec{}) {
		workspace = voxel.DefaultWorkspaceSize
	}
	return &Memory{voxels: make(map[voxel.ID]struct{}), workspace: workspace}
}

// HasVoxel reports whether id is stored.
func (m *Memory) HasVoxel(id voxel.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.voxels[id]
	return ok
}

// AllVoxels returns the stored voxels of res, sorted.
func (m *Memory) AllVoxels(res voxel.Resolution) []voxel.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []voxel.ID
	for id := range m.voxels {
		if id.Res == res {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, voxel.Compare)
	return out
}

// AllVoxelsAnyRes returns every stored voxel, sorted.
func (m *Memory) AllVoxelsAnyRes() []voxel.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]voxel.ID, 0, len(m.voxels))
	for id := range m.voxels {
		out = append(out, id)
	}
	slices.SortFunc(out, voxel.Compare)
	return out
}

// WorkspaceSize returns the workspace extents in meters.
func (m *Memory) WorkspaceSize() r3.Vec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workspace
}

// SetWorkspaceSize replaces the workspace extents.
func (m *Memory) SetWorkspaceSize(size r3.Vec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspace = size
}

// Put stores ids. It returns how many were new.
func (m *Memory) Put(ids ...voxel.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for _, id := range ids {
		if _, ok := m.voxels[id]; !ok {
			m.voxels[id] = struct{}{}
			added++
		}
	}
	return added
}

// Delete removes ids. It returns how many were present.
func (m *Memory) Delete(ids ...voxel.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := m.voxels[id]; ok {
			delete(m.voxels, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored voxels.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.voxels)
}

// FillGrid stores an aligned block of voxels of res: n cells per axis
// starting at origin, spaced one edge length apart. Returns how many were new.
func (m *Memory) FillGrid(origin voxel.Coord, n int, res voxel.Resolution) int {
	step := res.Centimeters()
	ids := make([]voxel.ID, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				ids = append(ids, voxel.ID{Pos: origin.Add(voxel.Coord{X: x, Y: y, Z: z}.Scale(step)), Res: res})
			}
		}
	}
	return m.Put(ids...)
}
