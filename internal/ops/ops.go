package ops

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/selection"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Limits
const (
	MaxNameLength     = 128
	MaxVoxelsPerInput = 100_000
	DefaultListLimit  = 100
	MaxListLimit      = 10_000
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName normalizes a set name:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// validateSetName normalizes name and rejects empty, oversized and
// reserved ("@"-prefixed) names.
func validateSetName(name string) (string, error) {
	norm := NormalizeName(name)
	if norm == "" {
		return "", errors.NewInvalidRequest("name is required")
	}
	if len(norm) > MaxNameLength {
		return "", errors.NewInvalidRequest(fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}
	if strings.HasPrefix(norm, "@") {
		return "", errors.NewInvalidRequest("names starting with @ are reserved")
	}
	return norm, nil
}

// Vec3 is a JSON-friendly world vector in meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// R3 converts v to a gonum vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// FromR3 converts a gonum vector.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Voxel is the wire form of a voxel id: increment position plus resolution.
type Voxel struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Z   int    `json:"z"`
	Res string `json:"res,omitempty"`
}

// toIDs converts wire voxels, filling in def where Res is empty.
func toIDs(in []Voxel, def voxel.Resolution) ([]voxel.ID, error) {
	if len(in) > MaxVoxelsPerInput {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d voxels per request", MaxVoxelsPerInput))
	}
	out := make([]voxel.ID, 0, len(in))
	for i, v := range in {
		res := def
		if v.Res != "" {
			r, err := voxel.ParseResolution(v.Res)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("voxels[%d]: %v", i, err))
			}
			res = r
		}
		out = append(out, voxel.NewID(v.X, v.Y, v.Z, res))
	}
	return out, nil
}

// fromIDs converts ids to wire voxels.
func fromIDs(ids []voxel.ID) []Voxel {
	out := make([]Voxel, len(ids))
	for i, id := range ids {
		out[i] = Voxel{X: id.Pos.X, Y: id.Pos.Y, Z: id.Pos.Z, Res: id.Res.String()}
	}
	return out
}

// Warning reports a safety cap hit while computing a selection.
type Warning struct {
	Code     errors.ErrorCode `json:"code"`
	Kind     string           `json:"kind"`
	Selector string           `json:"selector"`
	Message  string           `json:"message"`
}

func warningFor(sig selection.Signal) Warning {
	w := Warning{Kind: string(sig.Kind), Selector: sig.Selector}
	switch sig.Kind {
	case selection.SignalScanAborted:
		e := errors.NewScanTooLarge(selection.MaxScanCells, sig.Cells)
		w.Code = e.Code
		w.Message = e.Message + "; nothing selected"
	case selection.SignalScanClamped:
		w.Code = errors.ErrScanTooLarge
		w.Message = fmt.Sprintf("scan range clamped to %d steps per axis around the request center", selection.MaxStepsPerAxis)
	case selection.SignalFloodFillTruncated:
		w.Code = errors.ErrScanTooLarge
		w.Message = fmt.Sprintf("flood fill stopped at %d voxels", sig.Cells)
	}
	return w
}

// SelectionOutput is the common result of operations that touch the
// current selection.
type SelectionOutput struct {
	Changed   bool      `json:"changed"`
	Count     int       `json:"count"`
	Matched   int       `json:"matched"`
	Preview   bool      `json:"preview,omitempty"`
	CanUndo   bool      `json:"can_undo"`
	CanRedo   bool      `json:"can_redo"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Bounds    *BoxOut   `json:"bounds,omitempty"`
	Weights   []Weight  `json:"weights,omitempty"`
	Selection []Voxel   `json:"selection,omitempty"`
}

// BoxOut is a world-space AABB.
type BoxOut struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Weight is a sphere falloff weight for one voxel.
type Weight struct {
	Voxel  Voxel   `json:"voxel"`
	Weight float64 `json:"weight"`
}

// output summarizes the manager state after an operation. matched is the
// size of the selector result before the mode was applied.
func (s *Session) output(changed bool, matched int, include bool) *SelectionOutput {
	m := s.manager
	out := &SelectionOutput{
		Changed:  changed,
		Count:    m.SelectionSize(),
		Matched:  matched,
		CanUndo:  m.CanUndo(),
		CanRedo:  m.CanRedo(),
		Warnings: s.warnings(),
	}
	if b, ok := m.SelectionBounds(); ok {
		out.Bounds = &BoxOut{Min: FromR3(b.Min), Max: FromR3(b.Max)}
	}
	if include {
		out.Selection = fromIDs(m.SelectionCopy().Sorted())
	}
	return out
}
