package selection

import (
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Stats summarizes a selection. It is derived on demand and never stored.
type Stats struct {
	Count       int                      `json:"count"`
	CountByRes  map[voxel.Resolution]int `json:"count_by_resolution"`
	Bounds      voxel.Box                `json:"bounds"`
	HasBounds   bool                     `json:"has_bounds"`
	Center      r3.Vec                   `json:"center"`
	TotalVolume float64                  `json:"total_volume_m3"`
	FinestRes   voxel.Resolution         `json:"finest_resolution"`
	CoarsestRes voxel.Resolution         `json:"coarsest_resolution"`
}

// Stats computes the summary of s.
func (s *Set) Stats() Stats {
	st := Stats{CountByRes: make(map[voxel.Resolution]int)}
	st.Count = s.Len()
	if st.Count == 0 {
		return st
	}

	first := true
	for id := range s.All() {
		st.CountByRes[id.Res]++
		edge := id.Size()
		st.TotalVolume += edge * edge * edge
		if first || id.Res < st.FinestRes {
			st.FinestRes = id.Res
		}
		if first || id.Res > st.CoarsestRes {
			st.CoarsestRes = id.Res
		}
		first = false
	}
	st.Bounds, st.HasBounds = s.Bounds()
	st.Center = s.Center()
	return st
}
