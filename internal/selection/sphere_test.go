package selection

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSphereSelector_Degenerate(t *testing.T) {
	env, _ := gridEnv(t)
	sel := NewSphereSelector(env)
	c := r3.Vec{X: 0.02, Y: 0.02, Z: 0.02}

	if got := sel.SelectFromSphere(c, -1, voxel.Size4cm, true); !got.Empty() {
		t.Errorf("negative radius selected %d voxels", got.Len())
	}

	// A zero radius still touches the voxel containing the center.
	got := sel.SelectFromSphere(c, 0, voxel.Size4cm, true)
	if diff := cmp.Diff([]voxel.ID{voxel.NewID(0, 0, 0, voxel.Size4cm)}, got.Sorted()); diff != "" {
		t.Errorf("zero radius partial mismatch (-want +got):\n%s", diff)
	}

	sel.IncludePartial = false
	if got := sel.SelectFromSphere(c, 0, voxel.Size4cm, true); !got.Empty() {
		t.Errorf("zero radius centers-only selected %d voxels", got.Len())
	}
}

func TestSphereSelector_PartialVersusCenters(t *testing.T) {
	env, _ := gridEnv(t)
	sel := NewSphereSelector(env)
	c := r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}

	partial := sel.SelectFromSphere(c, 0.025, voxel.Size4cm, true)
	sel.IncludePartial = false
	centers := sel.SelectFromSphere(c, 0.025, voxel.Size4cm, true)

	// The voxel at 8 contains the center; its six face neighbors are 0.02 away, edge neighbors 0.028.
	if partial.Len() != 7 {
		t.Errorf("partial Len() = %d, want 7", partial.Len())
	}
	if diff := cmp.Diff([]voxel.ID{voxel.NewID(8, 8, 8, voxel.Size4cm)}, centers.Sorted()); diff != "" {
		t.Errorf("centers-only mismatch (-want +got):\n%s", diff)
	}
	if !Difference(centers, partial).Empty() {
		t.Error("centers-only result should be a subset of the partial result")
	}
}

func TestSphereSelector_HemisphereSubsetOfSphere(t *testing.T) {
	env, _ := gridEnv(t)
	c := r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}
	normal := r3.Vec{Y: 1}

	for _, partial := range []bool{true, false} {
		sel := NewSphereSelector(env)
		sel.IncludePartial = partial

		sphere := sel.SelectFromSphere(c, 0.08, voxel.Size4cm, true)
		hemi := sel.SelectHemisphere(c, 0.08, normal, voxel.Size4cm, true)

		if hemi.Empty() {
			t.Fatalf("partial=%v: hemisphere selected nothing", partial)
		}
		if !Difference(hemi, sphere).Empty() {
			t.Errorf("partial=%v: hemisphere is not a subset of the sphere", partial)
		}
		if hemi.Len() >= sphere.Len() {
			t.Errorf("partial=%v: hemisphere Len() = %d, sphere %d", partial, hemi.Len(), sphere.Len())
		}
		if hemi.Contains(voxel.NewID(8, 0, 8, voxel.Size4cm)) {
			t.Errorf("partial=%v: voxel below the plane selected", partial)
		}
	}

	sel := NewSphereSelector(env)
	if got := sel.SelectHemisphere(c, 0.08, r3.Vec{}, voxel.Size4cm, true); !got.Empty() {
		t.Error("zero normal should select nothing")
	}
}

func TestSphereSelector_EllipsoidMatchesSphere(t *testing.T) {
	env, _ := gridEnv(t)
	sel := NewSphereSelector(env)
	c := r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}

	sphere := sel.SelectFromSphere(c, 0.07, voxel.Size4cm, true)
	ellipsoid := sel.SelectEllipsoid(c, r3.Vec{X: 0.07, Y: 0.07, Z: 0.07}, voxel.IdentityRotation, voxel.Size4cm, true)

	if diff := cmp.Diff(sphere.Sorted(), ellipsoid.Sorted()); diff != "" {
		t.Errorf("round ellipsoid differs from sphere (-sphere +ellipsoid):\n%s", diff)
	}
}

func TestSphereSelector_EllipsoidRotation(t *testing.T) {
	env, _ := gridEnv(t)
	sel := NewSphereSelector(env)
	c := r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}
	radii := r3.Vec{X: 0.09, Y: 0.01, Z: 0.01}
	all := []int{0, 4, 8, 12, 16}

	got := sel.SelectEllipsoid(c, radii, voxel.IdentityRotation, voxel.Size4cm, true)
	if diff := cmp.Diff(gridIDs(voxel.Size4cm, all, []int{8}, []int{8}), got.Sorted()); diff != "" {
		t.Errorf("axis-aligned ellipsoid mismatch (-want +got):\n%s", diff)
	}

	rot := voxel.NewRotation(math.Pi/2, r3.Vec{Z: 1})
	got = sel.SelectEllipsoid(c, radii, rot, voxel.Size4cm, true)
	if diff := cmp.Diff(gridIDs(voxel.Size4cm, []int{8}, all, []int{8}), got.Sorted()); diff != "" {
		t.Errorf("rotated ellipsoid mismatch (-want +got):\n%s", diff)
	}

	if got := sel.SelectEllipsoid(c, r3.Vec{X: 0.1, Y: 0, Z: 0.1}, voxel.IdentityRotation, voxel.Size4cm, true); !got.Empty() {
		t.Error("zero semi-axis should select nothing")
	}
}

func TestSphereSelector_FromRay(t *testing.T) {
	env, _ := gridEnv(t)
	sel := NewSphereSelector(env)

	ray := voxel.Ray{Origin: r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}, Direction: r3.Vec{X: 1}}
	got := sel.SelectFromRay(ray, 0.001, 100, voxel.Size4cm)
	if diff := cmp.Diff([]voxel.ID{voxel.NewID(8, 8, 8, voxel.Size4cm)}, got.Sorted()); diff != "" {
		t.Errorf("SelectFromRay() mismatch (-want +got):\n%s", diff)
	}
}

func TestSphereSelector_Weight(t *testing.T) {
	sel := NewSphereSelector(&Env{})
	id := voxel.NewID(0, 0, 0, voxel.Size4cm)
	c := id.Center()

	tests := []struct {
		name   string
		offset float64
		want   float64
	}{
		{"at center", 0, 1},
		{"inside plateau", 0.05, 1},
		{"halfway down", 0.09, 0.5},
		{"on surface", 0.1, 0},
		{"outside", 0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center := r3.Sub(c, r3.Vec{X: tt.offset})
			if got := sel.Weight(id, center, 0.1); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}

	w := sel.Weights(NewSet(id), c, 0.1)
	if w[id] != 1 {
		t.Errorf("Weights()[id] = %v, want 1", w[id])
	}
	if sel.Weight(id, c, 0) != 0 {
		t.Error("zero radius should weigh 0")
	}
}
