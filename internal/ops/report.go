package ops

import (
	"context"
	"time"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/report"
	"github.com/hpungsan/voxsel/internal/voxel"
)

// ReportInput selects what to report and how.
type ReportInput struct {
	Name   string `json:"name,omitempty"`   // named set; default: current selection
	Format string `json:"format,omitempty"` // markdown (default) or html
}

// ReportOutput carries the rendered report.
type ReportOutput struct {
	Format  report.Format `json:"format"`
	Content string        `json:"content"`
}

// Report renders stats of the current selection or a named set.
func (s *Session) Report(ctx context.Context, in ReportInput) (*ReportOutput, error) {
	defer s.begin()()
	format, err := report.ParseFormat(in.Format)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	set := s.manager.SelectionCopy()
	title := "Current selection"
	if in.Name != "" {
		norm := NormalizeName(in.Name)
		named, ok := s.manager.NamedSet(norm)
		if !ok {
			return nil, errors.NewNotFound(in.Name)
		}
		set, title = named, "Selection set: "+norm
	}

	content, err := report.Render(report.Input{
		Title:       title,
		Stats:       set.Stats(),
		Workspace:   voxel.WorkspaceBounds(s.store.WorkspaceSize()),
		StoreVoxels: s.store.Len(),
		GeneratedAt: time.Now(),
	}, format)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ReportOutput{Format: format, Content: content}, nil
}
