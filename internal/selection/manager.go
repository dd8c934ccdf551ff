package selection

import (
	"slices"

	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxHistorySize bounds the undo stack.
const DefaultMaxHistorySize = 100

// Manager owns the current selection, its history and the named sets,
// and funnels every selector result through a selection Mode.
//
// Manager is not safe for concurrent use.
type Manager struct {
	env  *Env
	sink EventSink

	Box       *BoxSelector
	Sphere    *SphereSelector
	FloodFill *FloodFillSelector

	current *Set
	preview *Set

	undo       []*Set
	redo       []*Set
	maxHistory int

	named map[string]*Set
}

// NewManager returns a manager with an empty selection. sink may be nil.
func NewManager(env *Env, sink EventSink) *Manager {
	if env == nil {
		env = &Env{}
	}
	return &Manager{
		env:        env,
		sink:       sink,
		Box:        NewBoxSelector(env),
		Sphere:     NewSphereSelector(env),
		FloodFill:  NewFloodFillSelector(env),
		current:    NewSet(),
		maxHistory: DefaultMaxHistorySize,
		named:      make(map[string]*Set),
	}
}

// Env returns the collaborators the manager's selectors share.
func (m *Manager) Env() *Env {
	return m.env
}

// SetEventSink replaces the notification target. nil disables notifications.
func (m *Manager) SetEventSink(sink EventSink) {
	m.sink = sink
}

// commit installs next as the current selection and notifies, unless
// nothing changed. A change invalidates the redo future.
func (m *Manager) commit(next *Set, ct ChangeType) {
	if m.swap(next, ct) {
		m.redo = nil
	}
}

// swap installs next without touching the redo stack. It reports
// whether the selection changed. A change discards any pending preview,
// which was computed against the old selection.
func (m *Manager) swap(next *Set, ct ChangeType) bool {
	old := m.current
	m.current = next
	if sameSet(old, next) {
		return false
	}
	m.preview = nil
	m.env.Metrics.SelectionChanged(ct.String())
	if m.sink != nil {
		m.sink.SelectionChanged(Event{Old: old, New: next.Clone(), Type: ct})
	}
	return true
}

func sameSet(a, b *Set) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Fingerprint() != b.Fingerprint() {
		return false
	}
	return a.Equal(b)
}

// Select combines set with the current selection according to mode.
func (m *Manager) Select(set *Set, mode Mode) {
	next := m.current.Clone()
	mode.Apply(next, set)
	m.commit(next, Modified)
}

// SelectVoxel adds one voxel.
func (m *Manager) SelectVoxel(id voxel.ID) {
	if m.current.Contains(id) {
		return
	}
	next := m.current.Clone()
	next.Add(id)
	m.commit(next, Added)
}

// DeselectVoxel removes one voxel.
func (m *Manager) DeselectVoxel(id voxel.ID) {
	if !m.current.Contains(id) {
		return
	}
	next := m.current.Clone()
	next.Remove(id)
	m.commit(next, Removed)
}

// ToggleVoxel flips the membership of one voxel.
func (m *Manager) ToggleVoxel(id voxel.ID) {
	if m.current.Contains(id) {
		m.DeselectVoxel(id)
		return
	}
	m.SelectVoxel(id)
}

// SelectAll replaces the selection with every stored voxel.
func (m *Manager) SelectAll() {
	if m.env.Store == nil {
		m.env.log().Warn("select all: no voxel store")
		return
	}
	m.commit(NewSet(m.env.Store.AllVoxelsAnyRes()...), Replaced)
}

// SelectNone clears the selection.
func (m *Manager) SelectNone() {
	if m.current.Empty() {
		return
	}
	m.commit(NewSet(), Cleared)
}

// SelectInverse replaces the selection with every stored voxel not
// currently selected.
func (m *Manager) SelectInverse() {
	if m.env.Store == nil {
		m.env.log().Warn("select inverse: no voxel store")
		return
	}
	next := NewSet()
	for _, id := range m.env.Store.AllVoxelsAnyRes() {
		if !m.current.Contains(id) {
			next.Add(id)
		}
	}
	m.commit(next, Replaced)
}

// SelectByResolution replaces the selection with every stored voxel of res.
func (m *Manager) SelectByResolution(res voxel.Resolution) {
	if m.env.Store == nil {
		m.env.log().Warn("select by resolution: no voxel store", "resolution", res)
		return
	}
	m.commit(NewSet(m.env.Store.AllVoxels(res)...), Replaced)
}

// SelectBox selects existing voxels of res touched by box.
func (m *Manager) SelectBox(box voxel.Box, res voxel.Resolution, mode Mode) {
	m.Select(m.Box.SelectFromWorld(box, res, true), mode)
}

// SelectGrid selects existing voxels of res between two increment positions.
func (m *Manager) SelectGrid(lo, hi voxel.Coord, res voxel.Resolution, mode Mode) {
	m.Select(m.Box.SelectFromGrid(lo, hi, res, true), mode)
}

// SelectRays selects existing voxels of res in the box spanned by two rays.
func (m *Manager) SelectRays(a, b voxel.Ray, maxDistance float64, res voxel.Resolution, mode Mode) {
	m.Select(m.Box.SelectFromRays(a, b, maxDistance, res), mode)
}

// SelectSphere selects existing voxels of res within radius of center.
func (m *Manager) SelectSphere(center r3.Vec, radius float64, res voxel.Resolution, mode Mode) {
	m.Select(m.Sphere.SelectFromSphere(center, radius, res, true), mode)
}

// SelectEllipsoid selects existing voxels of res inside the rotated ellipsoid.
func (m *Manager) SelectEllipsoid(center, radii r3.Vec, rot r3.Rotation, res voxel.Resolution, mode Mode) {
	m.Select(m.Sphere.SelectEllipsoid(center, radii, rot, res, true), mode)
}

// SelectHemisphere selects existing voxels of res in the half sphere facing normal.
func (m *Manager) SelectHemisphere(center r3.Vec, radius float64, normal r3.Vec, res voxel.Resolution, mode Mode) {
	m.Select(m.Sphere.SelectHemisphere(center, radius, normal, res, true), mode)
}

// SelectRay selects existing voxels of res in a sphere placed along ray.
func (m *Manager) SelectRay(ray voxel.Ray, radius, maxDistance float64, res voxel.Resolution, mode Mode) {
	m.Select(m.Sphere.SelectFromRay(ray, radius, maxDistance, res), mode)
}

// SelectFloodFill selects the region grown from seed.
func (m *Manager) SelectFloodFill(seed voxel.ID, c Criteria, mode Mode) {
	m.Select(m.FloodFill.FloodFill(seed, c), mode)
}

// IsSelected reports whether id is in the current selection.
func (m *Manager) IsSelected(id voxel.ID) bool {
	return m.current.Contains(id)
}

// SelectionSize returns the number of selected voxels.
func (m *Manager) SelectionSize() int {
	return m.current.Len()
}

// SelectionCopy returns a snapshot of the current selection.
func (m *Manager) SelectionCopy() *Set {
	return m.current.Clone()
}

// SelectionBounds returns the world bounds of the selection.
func (m *Manager) SelectionBounds() (voxel.Box, bool) {
	return m.current.Bounds()
}

// SelectionStats summarizes the current selection.
func (m *Manager) SelectionStats() Stats {
	return m.current.Stats()
}

// PushSelectionToHistory snapshots the current selection for undo.
func (m *Manager) PushSelectionToHistory() {
	m.PushHistory(m.current)
}

// PushHistory records snapshot as the undo target, as if it had been
// the current selection when PushSelectionToHistory was called.
func (m *Manager) PushHistory(snapshot *Set) {
	m.undo = append(m.undo, snapshot.Clone())
	m.redo = nil
	m.trimHistory()
}

// UndoSelection restores the most recent snapshot. It reports whether
// there was one.
func (m *Manager) UndoSelection() bool {
	if len(m.undo) == 0 {
		return false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, m.current.Clone())
	m.swap(prev, Replaced)
	return true
}

// RedoSelection reapplies the most recently undone selection. It reports
// whether there was one.
func (m *Manager) RedoSelection() bool {
	if len(m.redo) == 0 {
		return false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, m.current.Clone())
	m.trimHistory()
	m.swap(next, Replaced)
	return true
}

// CanUndo reports whether UndoSelection has work.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether RedoSelection has work.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// HistoryDepth returns the undo and redo stack sizes.
func (m *Manager) HistoryDepth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// ClearHistory drops both stacks.
func (m *Manager) ClearHistory() {
	m.undo = nil
	m.redo = nil
}

// SetMaxHistorySize bounds the undo stack, evicting the oldest entries
// at once if needed. Negative values are treated as zero.
func (m *Manager) SetMaxHistorySize(n int) {
	m.maxHistory = max(n, 0)
	m.trimHistory()
}

// MaxHistorySize returns the undo bound.
func (m *Manager) MaxHistorySize() int {
	return m.maxHistory
}

func (m *Manager) trimHistory() {
	if over := len(m.undo) - m.maxHistory; over > 0 {
		m.undo = slices.Delete(m.undo, 0, over)
	}
}

// SaveSelectionSet stores a copy of the current selection under name,
// replacing any previous set of that name.
func (m *Manager) SaveSelectionSet(name string) {
	m.named[name] = m.current.Clone()
}

// LoadSelectionSet replaces the current selection with the named set. It
// reports whether the name exists. History is left to the caller.
func (m *Manager) LoadSelectionSet(name string) bool {
	set, ok := m.named[name]
	if !ok {
		return false
	}
	m.commit(set.Clone(), Replaced)
	return true
}

// DeleteSelectionSet forgets name.
func (m *Manager) DeleteSelectionSet(name string) {
	delete(m.named, name)
}

// HasSelectionSet reports whether name is stored.
func (m *Manager) HasSelectionSet(name string) bool {
	_, ok := m.named[name]
	return ok
}

// SelectionSetNames returns the stored names in sorted order.
func (m *Manager) SelectionSetNames() []string {
	names := make([]string, 0, len(m.named))
	for name := range m.named {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ClearSelectionSets forgets every name.
func (m *Manager) ClearSelectionSets() {
	clear(m.named)
}

// NamedSet returns a copy of the named set.
func (m *Manager) NamedSet(name string) (*Set, bool) {
	set, ok := m.named[name]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// RestoreSelectionSet stores set under name without touching the current
// selection. Used to rehydrate persisted sets.
func (m *Manager) RestoreSelectionSet(name string, set *Set) {
	m.named[name] = set.Clone()
}

// RestoreSelection installs set as the current selection without
// notifying or touching history. Used to rehydrate persisted state.
func (m *Manager) RestoreSelection(set *Set) {
	m.current = set.Clone()
}

// Preview computes what Select(set, mode) would produce and holds it
// beside the current selection.
func (m *Manager) Preview(set *Set, mode Mode) *Set {
	next := m.current.Clone()
	mode.Apply(next, set)
	m.preview = next
	return next.Clone()
}

// HasPreview reports whether a preview is pending.
func (m *Manager) HasPreview() bool {
	return m.preview != nil
}

// PreviewSelection returns a copy of the pending preview, if any.
func (m *Manager) PreviewSelection() (*Set, bool) {
	if m.preview == nil {
		return nil, false
	}
	return m.preview.Clone(), true
}

// ApplyPreview commits the pending preview. It reports whether one existed.
func (m *Manager) ApplyPreview() bool {
	if m.preview == nil {
		return false
	}
	next := m.preview
	m.preview = nil
	m.commit(next, Replaced)
	return true
}

// CancelPreview discards the pending preview.
func (m *Manager) CancelPreview() {
	m.preview = nil
}

// UnionWith adds other to the selection.
func (m *Manager) UnionWith(other *Set) {
	m.modify(func(s *Set) { s.Unite(other) })
}

// IntersectWith keeps only the selected voxels also in other.
func (m *Manager) IntersectWith(other *Set) {
	m.modify(func(s *Set) { s.Intersect(other) })
}

// SubtractFrom removes other from the selection.
func (m *Manager) SubtractFrom(other *Set) {
	m.modify(func(s *Set) { s.SubtractFrom(other) })
}

// FilterSelection drops selected voxels not matching keep.
func (m *Manager) FilterSelection(keep Predicate) {
	m.modify(func(s *Set) { s.FilterInPlace(keep) })
}

// FilteredSelection returns the selected voxels matching keep without
// changing the selection.
func (m *Manager) FilteredSelection(keep Predicate) *Set {
	return m.current.Filter(keep)
}

func (m *Manager) modify(fn func(*Set)) {
	next := m.current.Clone()
	fn(next)
	m.commit(next, Modified)
}

// ValidateSelection drops selected voxels that no longer exist. It is
// never run implicitly.
func (m *Manager) ValidateSelection() {
	if m.env.Store == nil && !m.env.AssumeAllVoxelsExist {
		return
	}
	m.modify(func(s *Set) { s.FilterInPlace(m.env.exists) })
}

// IsValidSelection reports whether every selected voxel still exists.
func (m *Manager) IsValidSelection() bool {
	if m.env.Store == nil && !m.env.AssumeAllVoxelsExist {
		return true
	}
	for id := range m.current.All() {
		if !m.env.exists(id) {
			return false
		}
	}
	return true
}
