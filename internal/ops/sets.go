package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/voxsel/internal/db"
	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/selection"
)

// SaveMode controls collision behavior when saving a named set.
type SaveMode string

const (
	SaveModeError   SaveMode = "error"   // default: fail on name collision
	SaveModeReplace SaveMode = "replace" // overwrite existing
)

// SaveSetInput names the current selection.
type SaveSetInput struct {
	Name string   `json:"name"`
	Mode SaveMode `json:"mode,omitempty"`
}

// SetOutput describes one named set.
type SetOutput struct {
	Name       string  `json:"name"`     // normalized lookup key
	NameRaw    string  `json:"name_raw"` // as saved
	VoxelCount int     `json:"voxel_count"`
	Replaced   bool    `json:"replaced,omitempty"`
	Voxels     []Voxel `json:"voxels,omitempty"`
}

// SaveSet stores a copy of the current selection under a name.
func (s *Session) SaveSet(ctx context.Context, in SaveSetInput) (*SetOutput, error) {
	defer s.begin()()
	norm, err := validateSetName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.Mode == "" {
		in.Mode = SaveModeError
	}
	if in.Mode != SaveModeError && in.Mode != SaveModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	exists := s.manager.HasSelectionSet(norm)
	if exists && in.Mode == SaveModeError {
		return nil, errors.NewNameAlreadyExists(in.Name)
	}

	current := s.manager.SelectionCopy()
	if err := s.writeSet(in.Name, norm, current.Sorted()); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists(in.Name)
		}
		return nil, err
	}
	s.manager.SaveSelectionSet(norm)

	return &SetOutput{Name: norm, NameRaw: in.Name, VoxelCount: current.Len(), Replaced: exists}, nil
}

// LoadSetInput combines a named set with the current selection.
type LoadSetInput struct {
	Name             string `json:"name"`
	Mode             string `json:"mode,omitempty"` // replace (default), add, subtract, intersect
	IncludeSelection bool   `json:"include_selection,omitempty"`
}

// LoadSet applies a named set to the current selection. Replace mode
// loads the set as-is; the other modes use set algebra.
func (s *Session) LoadSet(ctx context.Context, in LoadSetInput) (*SelectionOutput, error) {
	defer s.begin()()
	norm := NormalizeName(in.Name)
	named, ok := s.manager.NamedSet(norm)
	if !ok {
		return nil, errors.NewNotFound(in.Name)
	}
	mode, err := selection.ParseMode(in.Mode)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	changed, err := s.mutate(false, func(m *selection.Manager) {
		switch mode {
		case selection.Add:
			m.UnionWith(named)
		case selection.Intersect:
			m.IntersectWith(named)
		case selection.Subtract:
			m.SubtractFrom(named)
		default:
			m.LoadSelectionSet(norm)
		}
	})
	if err != nil {
		return nil, err
	}
	return s.output(changed, named.Len(), in.IncludeSelection), nil
}

// SetNameInput addresses one named set.
type SetNameInput struct {
	Name          string `json:"name"`
	IncludeVoxels bool   `json:"include_voxels,omitempty"`
}

// GetSet returns a named set without touching the current selection.
func (s *Session) GetSet(ctx context.Context, in SetNameInput) (*SetOutput, error) {
	defer s.begin()()
	norm := NormalizeName(in.Name)
	named, ok := s.manager.NamedSet(norm)
	if !ok {
		return nil, errors.NewNotFound(in.Name)
	}
	rec, err := db.GetSetByName(s.database, norm)
	if err != nil {
		return nil, err
	}
	out := &SetOutput{Name: norm, NameRaw: rec.NameRaw, VoxelCount: named.Len()}
	if in.IncludeVoxels {
		out.Voxels = fromIDs(named.Sorted())
	}
	return out, nil
}

// DeleteSet soft-deletes a named set.
func (s *Session) DeleteSet(ctx context.Context, in SetNameInput) (*SetOutput, error) {
	defer s.begin()()
	norm, err := validateSetName(in.Name)
	if err != nil {
		return nil, err
	}
	rec, err := db.GetSetByName(s.database, norm)
	if err != nil {
		return nil, err
	}
	if err := db.SoftDeleteSet(s.database, rec.ID); err != nil {
		return nil, err
	}
	s.manager.DeleteSelectionSet(norm)
	return &SetOutput{Name: norm, NameRaw: rec.NameRaw, VoxelCount: rec.VoxelCount}, nil
}

// ListSetsOutput lists the named sets.
type ListSetsOutput struct {
	Sets []db.SetSummary `json:"sets"`
}

// ListSets returns every active named set, ordered by name.
func (s *Session) ListSets(ctx context.Context) (*ListSetsOutput, error) {
	defer s.begin()()
	sets, err := db.ListSets(s.database)
	if err != nil {
		return nil, err
	}
	return &ListSetsOutput{Sets: sets}, nil
}

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int `json:"older_than_days,omitempty"` // only purge if deleted more than N days ago
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes soft-deleted named sets.
func (s *Session) Purge(ctx context.Context, in PurgeInput) (*PurgeOutput, error) {
	defer s.begin()()
	var age time.Duration
	if in.OlderThanDays != nil {
		if *in.OlderThanDays < 0 {
			return nil, errors.NewInvalidRequest("older_than_days must not be negative")
		}
		age = time.Duration(*in.OlderThanDays) * 24 * time.Hour
	}
	count, err := db.PurgeDeletedSets(s.database, age)
	if err != nil {
		return nil, err
	}
	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, in.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No deleted selection sets to purge"
	}

	setWord := "selection set"
	if count > 1 {
		setWord = "selection sets"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, setWord)

	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}

	return msg
}
