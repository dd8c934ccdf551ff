package selection

// ChangeType classifies a selection change notification.
type ChangeType int

const (
	Added ChangeType = iota
	Removed
	Replaced
	Cleared
	Modified
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	case Cleared:
		return "cleared"
	case Modified:
		return "modified"
	}
	return "unknown"
}

// Event carries a selection change. Old and New are snapshots owned by
// the receiver.
type Event struct {
	Old  *Set
	New  *Set
	Type ChangeType
}

// EventSink receives selection changes. A Manager without a sink still
// works, it just notifies nobody.
type EventSink interface {
	SelectionChanged(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// SelectionChanged calls f(e).
func (f SinkFunc) SelectionChanged(e Event) { f(e) }
