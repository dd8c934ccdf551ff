package ops

import (
	"context"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/selection"
)

// HistoryInput is shared by the history and preview operations.
type HistoryInput struct {
	IncludeSelection bool `json:"include_selection,omitempty"`
}

// Undo restores the previous selection.
func (s *Session) Undo(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	if !s.manager.CanUndo() {
		return nil, errors.NewNothingToUndo("undo")
	}
	return s.stepHistory(in, (*selection.Manager).UndoSelection)
}

// Redo reapplies the most recently undone selection.
func (s *Session) Redo(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	if !s.manager.CanRedo() {
		return nil, errors.NewNothingToUndo("redo")
	}
	return s.stepHistory(in, (*selection.Manager).RedoSelection)
}

func (s *Session) stepHistory(in HistoryInput, step func(*selection.Manager) bool) (*SelectionOutput, error) {
	changed, err := s.mutate(true, func(m *selection.Manager) { step(m) })
	if err != nil {
		return nil, err
	}
	return s.output(changed, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// Checkpoint pushes the current selection onto the undo stack.
func (s *Session) Checkpoint(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	s.manager.PushSelectionToHistory()
	return s.output(false, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// ClearHistory drops the undo and redo stacks.
func (s *Session) ClearHistory(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	s.manager.ClearHistory()
	return s.output(false, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// ApplyPreview commits the pending preview.
func (s *Session) ApplyPreview(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	if !s.manager.HasPreview() {
		return nil, errors.NewNoPreview()
	}
	changed, err := s.mutate(false, func(m *selection.Manager) { m.ApplyPreview() })
	if err != nil {
		return nil, err
	}
	return s.output(changed, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// CancelPreview discards the pending preview.
func (s *Session) CancelPreview(ctx context.Context, in HistoryInput) (*SelectionOutput, error) {
	defer s.begin()()
	if !s.manager.HasPreview() {
		return nil, errors.NewNoPreview()
	}
	s.manager.CancelPreview()
	return s.output(false, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// ValidateOutput reports what a validation pass removed.
type ValidateOutput struct {
	WasValid bool `json:"was_valid"`
	Removed  int  `json:"removed"`
	*SelectionOutput
}

// Validate drops selected voxels that no longer exist in the store.
func (s *Session) Validate(ctx context.Context, in HistoryInput) (*ValidateOutput, error) {
	defer s.begin()()
	valid := s.manager.IsValidSelection()
	before := s.manager.SelectionSize()
	changed, err := s.mutate(false, (*selection.Manager).ValidateSelection)
	if err != nil {
		return nil, err
	}
	return &ValidateOutput{
		WasValid:        valid,
		Removed:         before - s.manager.SelectionSize(),
		SelectionOutput: s.output(changed, s.manager.SelectionSize(), in.IncludeSelection),
	}, nil
}

// InspectOutput describes the current selection in full.
type InspectOutput struct {
	Stats     selection.Stats `json:"stats"`
	Valid     bool            `json:"valid"`
	UndoDepth int             `json:"undo_depth"`
	RedoDepth int             `json:"redo_depth"`
	Preview   *PreviewSummary `json:"preview,omitempty"`
	Selection []Voxel         `json:"selection,omitempty"`
	NamedSets []string        `json:"named_sets"`
}

// PreviewSummary sizes a pending preview.
type PreviewSummary struct {
	Count int `json:"count"`
}

// Inspect returns stats, history depth and optionally the members of the
// current selection.
func (s *Session) Inspect(ctx context.Context, in HistoryInput) (*InspectOutput, error) {
	defer s.begin()()
	m := s.manager
	undo, redo := m.HistoryDepth()
	out := &InspectOutput{
		Stats:     m.SelectionStats(),
		Valid:     m.IsValidSelection(),
		UndoDepth: undo,
		RedoDepth: redo,
		NamedSets: m.SelectionSetNames(),
	}
	if p, ok := m.PreviewSelection(); ok {
		out.Preview = &PreviewSummary{Count: p.Len()}
	}
	if in.IncludeSelection {
		out.Selection = fromIDs(m.SelectionCopy().Sorted())
	}
	return out, nil
}
