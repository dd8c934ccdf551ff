package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/voxsel/internal/db"
	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/voxel"
)

// MaxFillEdge bounds the edge of a FillVoxels cube.
const MaxFillEdge = 100

// VoxelsInput lists voxels to add to or remove from the store.
type VoxelsInput struct {
	Voxels     []Voxel `json:"voxels"`
	Resolution string  `json:"resolution,omitempty"` // for voxels without res
}

// VoxelsOutput reports a store edit.
type VoxelsOutput struct {
	Changed int `json:"changed"`
	Total   int `json:"total"`
}

// AddVoxels inserts voxels into the store.
func (s *Session) AddVoxels(ctx context.Context, in VoxelsInput) (*VoxelsOutput, error) {
	defer s.begin()()
	ids, err := s.voxelArgs(in)
	if err != nil {
		return nil, err
	}
	n, err := db.PutVoxels(s.database, ids)
	if err != nil {
		return nil, err
	}
	s.store.Put(ids...)
	return &VoxelsOutput{Changed: n, Total: s.store.Len()}, nil
}

// RemoveVoxels deletes voxels from the store. The selection is left as
// is; run Validate to drop members that no longer exist.
func (s *Session) RemoveVoxels(ctx context.Context, in VoxelsInput) (*VoxelsOutput, error) {
	defer s.begin()()
	ids, err := s.voxelArgs(in)
	if err != nil {
		return nil, err
	}
	n, err := db.DeleteVoxels(s.database, ids)
	if err != nil {
		return nil, err
	}
	s.store.Delete(ids...)
	return &VoxelsOutput{Changed: n, Total: s.store.Len()}, nil
}

func (s *Session) voxelArgs(in VoxelsInput) ([]voxel.ID, error) {
	if len(in.Voxels) == 0 {
		return nil, errors.NewInvalidRequest("voxels is required")
	}
	def, err := s.resolution(in.Resolution)
	if err != nil {
		return nil, err
	}
	return toIDs(in.Voxels, def)
}

// FillInput stores an aligned cube of voxels.
type FillInput struct {
	Origin     Voxel  `json:"origin"`
	Count      int    `json:"count"` // voxels per edge
	Resolution string `json:"resolution,omitempty"`
}

// FillVoxels stores Count^3 voxels starting at Origin, stepping by the
// voxel edge length.
func (s *Session) FillVoxels(ctx context.Context, in FillInput) (*VoxelsOutput, error) {
	defer s.begin()()
	if in.Count <= 0 || in.Count > MaxFillEdge {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("count must be between 1 and %d", MaxFillEdge))
	}
	res := in.Origin.Res
	if res == "" {
		res = in.Resolution
	}
	r, err := s.resolution(res)
	if err != nil {
		return nil, err
	}

	step := r.Centimeters()
	ids := make([]voxel.ID, 0, in.Count*in.Count*in.Count)
	for i := 0; i < in.Count; i++ {
		for j := 0; j < in.Count; j++ {
			for k := 0; k < in.Count; k++ {
				ids = append(ids, voxel.NewID(in.Origin.X+i*step, in.Origin.Y+j*step, in.Origin.Z+k*step, r))
			}
		}
	}

	n, err := db.PutVoxels(s.database, ids)
	if err != nil {
		return nil, err
	}
	s.store.Put(ids...)
	return &VoxelsOutput{Changed: n, Total: s.store.Len()}, nil
}

// WorkspaceInput sets the workspace extent. A zero Size only reads it.
type WorkspaceInput struct {
	Size Vec3 `json:"size"`
}

// WorkspaceOutput describes the store.
type WorkspaceOutput struct {
	Size         Vec3           `json:"size"`
	Bounds       BoxOut         `json:"bounds"`
	Voxels       int            `json:"voxels"`
	ByResolution map[string]int `json:"by_resolution"`
}

// Workspace reads or updates the workspace size and summarizes the store.
func (s *Session) Workspace(ctx context.Context, in WorkspaceInput) (*WorkspaceOutput, error) {
	defer s.begin()()
	if in.Size != (Vec3{}) {
		if in.Size.X <= 0 || in.Size.Y <= 0 || in.Size.Z <= 0 {
			return nil, errors.NewInvalidRequest("workspace size must be positive on every axis")
		}
		if err := db.SetWorkspace(s.database, in.Size.R3()); err != nil {
			return nil, err
		}
		s.store.SetWorkspaceSize(in.Size.R3())
	}

	size := s.store.WorkspaceSize()
	b := voxel.WorkspaceBounds(size)
	out := &WorkspaceOutput{
		Size:         FromR3(size),
		Bounds:       BoxOut{Min: FromR3(b.Min), Max: FromR3(b.Max)},
		Voxels:       s.store.Len(),
		ByResolution: map[string]int{},
	}
	for _, r := range voxel.AllResolutions() {
		if n := len(s.store.AllVoxels(r)); n > 0 {
			out.ByResolution[r.String()] = n
		}
	}
	return out, nil
}
