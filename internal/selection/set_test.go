package selection

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hpungsan/voxsel/internal/voxel"
)

func ids(coords ...[3]int) []voxel.ID {
	out := make([]voxel.ID, len(coords))
	for i, c := range coords {
		out[i] = voxel.NewID(c[0], c[1], c[2], voxel.Size4cm)
	}
	return out
}

func TestSet_AddRemoveContains(t *testing.T) {
	var s Set
	a := voxel.NewID(0, 0, 0, voxel.Size4cm)

	if !s.Add(a) {
		t.Error("first Add should report a change")
	}
	if s.Add(a) {
		t.Error("duplicate Add should not report a change")
	}
	if s.Len() != 1 || !s.Contains(a) {
		t.Fatalf("Len() = %d, Contains() = %v", s.Len(), s.Contains(a))
	}
	if s.Contains(voxel.NewID(0, 0, 0, voxel.Size8cm)) {
		t.Error("resolution must be part of membership")
	}
	if s.Remove(voxel.NewID(1, 0, 0, voxel.Size4cm)) {
		t.Error("removing a non-member should not report a change")
	}
	if !s.Remove(a) || !s.Empty() {
		t.Error("Remove should empty the set")
	}
}

func TestSet_Algebra(t *testing.T) {
	a := NewSet(ids([3]int{0, 0, 0}, [3]int{4, 0, 0}, [3]int{8, 0, 0})...)
	b := NewSet(ids([3]int{4, 0, 0}, [3]int{8, 0, 0}, [3]int{12, 0, 0})...)
	b.Add(voxel.NewID(0, 0, 0, voxel.Size8cm))

	tests := []struct {
		name string
		got  *Set
		want []voxel.ID
	}{
		{"union", Union(a, b), append(ids([3]int{0, 0, 0}, [3]int{4, 0, 0}, [3]int{8, 0, 0}, [3]int{12, 0, 0}), voxel.NewID(0, 0, 0, voxel.Size8cm))},
		{"intersection", Intersection(a, b), ids([3]int{4, 0, 0}, [3]int{8, 0, 0})},
		{"difference", Difference(a, b), ids([3]int{0, 0, 0})},
		{"symmetric difference", SymmetricDifference(a, b), append(ids([3]int{0, 0, 0}, [3]int{12, 0, 0}), voxel.NewID(0, 0, 0, voxel.Size8cm))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(NewSet(tt.want...).Sorted(), tt.got.Sorted()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if a.Len() != 3 || b.Len() != 4 {
		t.Error("non-mutating operations must leave their inputs alone")
	}
}

func TestSet_AlgebraLaws(t *testing.T) {
	a := NewSet(ids([3]int{0, 0, 0}, [3]int{4, 0, 0}, [3]int{0, 4, 0})...)
	b := NewSet(ids([3]int{4, 0, 0}, [3]int{0, 0, 4})...)
	universe := Union(a, b)
	universe.Add(voxel.NewID(100, 0, 0, voxel.Size4cm))

	u := a.Clone()
	u.Unite(b)
	in := a.Clone()
	in.Intersect(b)
	d := a.Clone()
	d.SubtractFrom(b)

	for v := range universe.All() {
		if u.Contains(v) != (a.Contains(v) || b.Contains(v)) {
			t.Errorf("unite law broken for %v", v)
		}
		if in.Contains(v) != (a.Contains(v) && b.Contains(v)) {
			t.Errorf("intersect law broken for %v", v)
		}
		if d.Contains(v) != (a.Contains(v) && !b.Contains(v)) {
			t.Errorf("subtract law broken for %v", v)
		}
	}

	if !Union(a, b).Equal(Union(b, a)) {
		t.Error("union should commute")
	}
	if !Intersection(a, b).Equal(Intersection(b, a)) {
		t.Error("intersection should commute")
	}
}

func TestSet_FilterAndClone(t *testing.T) {
	s := NewSet(ids([3]int{0, 0, 0}, [3]int{4, 0, 0}, [3]int{8, 0, 0})...)
	atOrigin := func(id voxel.ID) bool { return id.Pos.X == 0 }

	f := s.Filter(atOrigin)
	if f.Len() != 1 || s.Len() != 3 {
		t.Fatalf("Filter() = %d members, source %d", f.Len(), s.Len())
	}

	c := s.Clone()
	c.FilterInPlace(atOrigin)
	if !c.Equal(f) {
		t.Error("FilterInPlace should match Filter")
	}
	if s.Len() != 3 {
		t.Error("Clone should be independent")
	}
}

func TestSet_Fingerprint(t *testing.T) {
	a := NewSet(ids([3]int{0, 0, 0}, [3]int{4, 0, 0}, [3]int{8, 0, 0})...)
	b := NewSet(ids([3]int{8, 0, 0}, [3]int{0, 0, 0}, [3]int{4, 0, 0})...)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal sets must share a fingerprint")
	}
	b.Remove(voxel.NewID(4, 0, 0, voxel.Size4cm))
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint should change when a member is removed")
	}
	if NewSet().Fingerprint() != (&Set{}).Fingerprint() {
		t.Error("empty sets must share a fingerprint")
	}
}

func TestSet_NilSafe(t *testing.T) {
	var s *Set
	if s.Len() != 0 || s.Contains(voxel.ID{}) {
		t.Error("nil set should behave as empty")
	}
	if s.Clone().Len() != 0 {
		t.Error("Clone of nil should be empty")
	}
}

func TestSet_Stats(t *testing.T) {
	s := NewSet(ids([3]int{0, 0, 0}, [3]int{4, 0, 0})...)
	s.Add(voxel.NewID(0, 8, 0, voxel.Size8cm))

	st := s.Stats()
	if st.Count != 3 {
		t.Errorf("Count = %d, want 3", st.Count)
	}
	if diff := cmp.Diff(map[voxel.Resolution]int{voxel.Size4cm: 2, voxel.Size8cm: 1}, st.CountByRes); diff != "" {
		t.Errorf("CountByRes mismatch (-want +got):\n%s", diff)
	}
	wantVol := 2*math.Pow(0.04, 3) + math.Pow(0.08, 3)
	if math.Abs(st.TotalVolume-wantVol) > 1e-12 {
		t.Errorf("TotalVolume = %v, want %v", st.TotalVolume, wantVol)
	}
	if !st.HasBounds {
		t.Fatal("HasBounds should be true")
	}
	if math.Abs(st.Bounds.Max.X-0.08) > 1e-9 || math.Abs(st.Bounds.Max.Y-0.16) > 1e-9 {
		t.Errorf("Bounds = %+v", st.Bounds)
	}
	if st.FinestRes != voxel.Size4cm || st.CoarsestRes != voxel.Size8cm {
		t.Errorf("Finest/Coarsest = %v/%v", st.FinestRes, st.CoarsestRes)
	}

	empty := NewSet().Stats()
	if empty.Count != 0 || empty.HasBounds {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Replace, false},
		{"replace", Replace, false},
		{" ADD ", Add, false},
		{"subtract", Subtract, false},
		{"intersect", Intersect, false},
		{"xor", Replace, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
