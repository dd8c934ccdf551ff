package selection

import (
	"iter"
	"maps"
	"slices"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Predicate reports whether a voxel should be kept.
type Predicate func(voxel.ID) bool

// Set is an unordered, deduplicated collection of voxel IDs.
// The zero value is an empty set ready to use.
type Set struct {
	m map[voxel.ID]struct{}
}

// NewSet returns a set holding ids.
func NewSet(ids ...voxel.ID) *Set {
	s := &Set{m: make(map[voxel.ID]struct{}, len(ids))}
	s.AddAll(ids)
	return s
}

// Add inserts id. It reports whether the set changed.
func (s *Set) Add(id voxel.ID) bool {
	if s.m == nil {
		s.m = make(map[voxel.ID]struct{})
	}
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = struct{}{}
	return true
}

// AddAll inserts every id.
func (s *Set) AddAll(ids []voxel.ID) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Remove deletes id. It reports whether the set changed.
func (s *Set) Remove(id voxel.ID) bool {
	if _, ok := s.m[id]; !ok {
		return false
	}
	delete(s.m, id)
	return true
}

// RemoveAll deletes every id.
func (s *Set) RemoveAll(ids []voxel.ID) {
	for _, id := range ids {
		s.Remove(id)
	}
}

// Contains reports whether id is a member.
func (s *Set) Contains(id voxel.ID) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[id]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Clear removes every member.
func (s *Set) Clear() {
	clear(s.m)
}

// All iterates the members in unspecified order.
func (s *Set) All() iter.Seq[voxel.ID] {
	return func(yield func(voxel.ID) bool) {
		if s == nil {
			return
		}
		for id := range s.m {
			if !yield(id) {
				return
			}
		}
	}
}

// Slice returns the members in unspecified order.
func (s *Set) Slice() []voxel.ID {
	return slices.Collect(s.All())
}

// Sorted returns the members ordered by voxel.Compare.
func (s *Set) Sorted() []voxel.ID {
	out := s.Slice()
	slices.SortFunc(out, voxel.Compare)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return NewSet()
	}
	return &Set{m: maps.Clone(s.m)}
}

// Equal reports set equality.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for id := range s.All() {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}

// Fingerprint is an order-independent digest of the members. Equal sets
// always share a fingerprint; unequal sets rarely do.
func (s *Set) Fingerprint() uint64 {
	var sum, xor uint64
	for id := range s.All() {
		h := id.Hash()
		sum += h
		xor ^= h * 0x9e3779b97f4a7c15
	}
	return sum ^ (xor<<1 | xor>>63) ^ uint64(s.Len())
}

// Unite adds every member of o to s.
func (s *Set) Unite(o *Set) {
	for id := range o.All() {
		s.Add(id)
	}
}

// Intersect keeps only the members also in o.
func (s *Set) Intersect(o *Set) {
	for id := range s.m {
		if !o.Contains(id) {
			delete(s.m, id)
		}
	}
}

// SubtractFrom removes every member of o from s.
func (s *Set) SubtractFrom(o *Set) {
	if s.Len() == 0 {
		return
	}
	for id := range o.All() {
		delete(s.m, id)
	}
}

// Filter returns the subset matching keep.
func (s *Set) Filter(keep Predicate) *Set {
	out := NewSet()
	for id := range s.All() {
		if keep(id) {
			out.Add(id)
		}
	}
	return out
}

// FilterInPlace drops the members not matching keep.
func (s *Set) FilterInPlace(keep Predicate) {
	for id := range s.m {
		if !keep(id) {
			delete(s.m, id)
		}
	}
}

// Union returns a ∪ b.
func Union(a, b *Set) *Set {
	out := a.Clone()
	out.Unite(b)
	return out
}

// Intersection returns a ∩ b.
func Intersection(a, b *Set) *Set {
	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}
	out := small.Clone()
	out.Intersect(large)
	return out
}

// Difference returns a \ b.
func Difference(a, b *Set) *Set {
	out := a.Clone()
	out.SubtractFrom(b)
	return out
}

// SymmetricDifference returns the members in exactly one of a and b.
func SymmetricDifference(a, b *Set) *Set {
	out := Difference(a, b)
	for id := range b.All() {
		if !a.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Bounds returns the union of every member's world bounds. ok is false
// for an empty set.
func (s *Set) Bounds() (b voxel.Box, ok bool) {
	for id := range s.All() {
		vb := id.Bounds()
		if !ok {
			b, ok = vb, true
			continue
		}
		b = b.Union(vb)
	}
	return b, ok
}

// Center returns the mean of the members' world centers, or the origin
// for an empty set.
func (s *Set) Center() r3.Vec {
	if s.Empty() {
		return r3.Vec{}
	}
	var sum r3.Vec
	for id := range s.All() {
		sum = r3.Add(sum, id.Center())
	}
	return r3.Scale(1/float64(s.Len()), sum)
}
