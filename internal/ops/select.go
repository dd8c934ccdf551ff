package ops

import (
	"context"
	"math"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/selection"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ShapeOptions are shared by every shape selection.
type ShapeOptions struct {
	Resolution       string `json:"resolution,omitempty"` // default: config default_resolution
	Mode             string `json:"mode,omitempty"`       // replace (default), add, subtract, intersect
	Preview          bool   `json:"preview,omitempty"`    // hold the result as a preview instead of committing
	IncludeSelection bool   `json:"include_selection,omitempty"`
}

func (s *Session) shapeArgs(o ShapeOptions) (voxel.Resolution, selection.Mode, error) {
	res, err := s.resolution(o.Resolution)
	if err != nil {
		return 0, 0, err
	}
	mode, err := selection.ParseMode(o.Mode)
	if err != nil {
		return 0, 0, errors.NewInvalidRequest(err.Error())
	}
	return res, mode, nil
}

// apply combines a selector result with the current selection, or holds
// it as a preview.
func (s *Session) apply(o ShapeOptions, mode selection.Mode, set *selection.Set) (*SelectionOutput, error) {
	if o.Preview {
		p := s.manager.Preview(set, mode)
		out := s.output(false, set.Len(), false)
		out.Preview = true
		out.Count = p.Len()
		if b, ok := p.Bounds(); ok {
			out.Bounds = &BoxOut{Min: FromR3(b.Min), Max: FromR3(b.Max)}
		} else {
			out.Bounds = nil
		}
		if o.IncludeSelection {
			out.Selection = fromIDs(p.Sorted())
		}
		return out, nil
	}

	changed, err := s.mutate(false, func(m *selection.Manager) { m.Select(set, mode) })
	if err != nil {
		return nil, err
	}
	return s.output(changed, set.Len(), o.IncludeSelection), nil
}

// SelectBoxInput selects voxels touched by a world-space box.
type SelectBoxInput struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
	ShapeOptions
}

// SelectBox runs a world-space box selection.
func (s *Session) SelectBox(ctx context.Context, in SelectBoxInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	box := voxel.NewBox(in.Min.R3(), in.Max.R3())
	return s.apply(in.ShapeOptions, mode, s.manager.Box.SelectFromWorld(box, res, true))
}

// SelectGridInput selects every existing voxel between two increment corners.
type SelectGridInput struct {
	From Voxel `json:"from"`
	To   Voxel `json:"to"`
	ShapeOptions
}

// SelectGrid runs an increment-grid box selection. Corner order does not matter.
func (s *Session) SelectGrid(ctx context.Context, in SelectGridInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	lo := voxel.Coord{X: in.From.X, Y: in.From.Y, Z: in.From.Z}
	hi := voxel.Coord{X: in.To.X, Y: in.To.Y, Z: in.To.Z}
	return s.apply(in.ShapeOptions, mode, s.manager.Box.SelectFromGrid(lo, hi, res, true))
}

// Ray is the wire form of a ray.
type Ray struct {
	Origin    Vec3 `json:"origin"`
	Direction Vec3 `json:"direction"`
}

func (r Ray) toVoxel() voxel.Ray {
	return voxel.Ray{Origin: r.Origin.R3(), Direction: r.Direction.R3()}
}

func (r Ray) validate(field string) error {
	if r.Direction == (Vec3{}) {
		return errors.NewInvalidRequest(field + ".direction must be non-zero")
	}
	return nil
}

// SelectRaysInput selects the box spanned by two picking rays.
type SelectRaysInput struct {
	A           Ray     `json:"a"`
	B           Ray     `json:"b"`
	MaxDistance float64 `json:"max_distance,omitempty"` // default: 100
	ShapeOptions
}

// DefaultMaxRayDistance bounds ray resolution when the input omits it (meters).
const DefaultMaxRayDistance = 100.0

// SelectRays resolves both rays to world points and box-selects between them.
func (s *Session) SelectRays(ctx context.Context, in SelectRaysInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if err := in.A.validate("a"); err != nil {
		return nil, err
	}
	if err := in.B.validate("b"); err != nil {
		return nil, err
	}
	dist := orDefault(in.MaxDistance, DefaultMaxRayDistance)
	return s.apply(in.ShapeOptions, mode, s.manager.Box.SelectFromRays(in.A.toVoxel(), in.B.toVoxel(), dist, res))
}

// SelectScreenInput selects the frustum under a screen rectangle.
// Matrices are 4x4, row-major.
type SelectScreenInput struct {
	Start      [2]float64  `json:"start"`
	End        [2]float64  `json:"end"`
	View       [16]float64 `json:"view"`
	Projection [16]float64 `json:"projection"`
	Viewport   [2]float64  `json:"viewport"`
	ShapeOptions
}

// SelectScreen unprojects a screen rectangle and box-selects the frustum's bounds.
func (s *Session) SelectScreen(ctx context.Context, in SelectScreenInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if in.Viewport[0] <= 0 || in.Viewport[1] <= 0 {
		return nil, errors.NewInvalidRequest("viewport must be positive")
	}
	view := mat.NewDense(4, 4, in.View[:])
	proj := mat.NewDense(4, 4, in.Projection[:])
	set := s.manager.Box.SelectFromScreen(
		r2.Vec{X: in.Start[0], Y: in.Start[1]},
		r2.Vec{X: in.End[0], Y: in.End[1]},
		view, proj,
		r2.Vec{X: in.Viewport[0], Y: in.Viewport[1]},
		res,
	)
	return s.apply(in.ShapeOptions, mode, set)
}

// SelectSphereInput selects voxels touched by a sphere.
type SelectSphereInput struct {
	Center  Vec3    `json:"center"`
	Radius  float64 `json:"radius"`
	Weights bool    `json:"weights,omitempty"` // include falloff weights (also on with use_falloff)
	ShapeOptions
}

// SelectSphere runs a sphere selection.
func (s *Session) SelectSphere(ctx context.Context, in SelectSphereInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if in.Radius < 0 {
		return nil, errors.NewInvalidRequest("radius must not be negative")
	}
	center := in.Center.R3()
	set := s.manager.Sphere.SelectFromSphere(center, in.Radius, res, true)
	out, err := s.apply(in.ShapeOptions, mode, set)
	if err != nil {
		return nil, err
	}
	if in.Weights || s.cfg.UseFalloff {
		out.Weights = s.weights(set, center, in.Radius)
	}
	return out, nil
}

func (s *Session) weights(set *selection.Set, center r3.Vec, radius float64) []Weight {
	w := s.manager.Sphere.Weights(set, center, radius)
	out := make([]Weight, 0, len(w))
	for _, id := range set.Sorted() {
		out = append(out, Weight{Voxel: fromIDs([]voxel.ID{id})[0], Weight: w[id]})
	}
	return out
}

// SelectEllipsoidInput selects voxels touched by an oriented ellipsoid.
type SelectEllipsoidInput struct {
	Center Vec3 `json:"center"`
	Radii  Vec3 `json:"radii"`
	// RotationAxis and RotationDegrees orient the ellipsoid. A zero axis
	// means axis-aligned.
	RotationAxis    Vec3    `json:"rotation_axis,omitempty"`
	RotationDegrees float64 `json:"rotation_degrees,omitempty"`
	ShapeOptions
}

// SelectEllipsoid runs an ellipsoid selection.
func (s *Session) SelectEllipsoid(ctx context.Context, in SelectEllipsoidInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if in.Radii.X < 0 || in.Radii.Y < 0 || in.Radii.Z < 0 {
		return nil, errors.NewInvalidRequest("radii must not be negative")
	}
	rot := voxel.IdentityRotation
	if in.RotationAxis != (Vec3{}) {
		rot = voxel.NewRotation(in.RotationDegrees*math.Pi/180, in.RotationAxis.R3())
	}
	set := s.manager.Sphere.SelectEllipsoid(in.Center.R3(), in.Radii.R3(), rot, res, true)
	return s.apply(in.ShapeOptions, mode, set)
}

// SelectHemisphereInput selects the half of a sphere in front of a plane
// through its center.
type SelectHemisphereInput struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
	Normal Vec3    `json:"normal"`
	ShapeOptions
}

// SelectHemisphere runs a hemisphere selection.
func (s *Session) SelectHemisphere(ctx context.Context, in SelectHemisphereInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if in.Radius < 0 {
		return nil, errors.NewInvalidRequest("radius must not be negative")
	}
	if in.Normal == (Vec3{}) {
		return nil, errors.NewInvalidRequest("normal must be non-zero")
	}
	set := s.manager.Sphere.SelectHemisphere(in.Center.R3(), in.Radius, in.Normal.R3(), res, true)
	return s.apply(in.ShapeOptions, mode, set)
}

// SelectRayInput selects a sphere centered where a ray meets the workspace.
type SelectRayInput struct {
	Ray
	Radius      float64 `json:"radius"`
	MaxDistance float64 `json:"max_distance,omitempty"` // default: 100
	ShapeOptions
}

// SelectRay runs a ray-placed sphere selection.
func (s *Session) SelectRay(ctx context.Context, in SelectRayInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	if err := in.Ray.validate("ray"); err != nil {
		return nil, err
	}
	if in.Radius < 0 {
		return nil, errors.NewInvalidRequest("radius must not be negative")
	}
	dist := orDefault(in.MaxDistance, DefaultMaxRayDistance)
	return s.apply(in.ShapeOptions, mode, s.manager.Sphere.SelectFromRay(in.Ray.toVoxel(), in.Radius, dist, res))
}

// FloodFillInput grows a selection from a seed voxel.
type FloodFillInput struct {
	Seed         Voxel  `json:"seed"`
	Criteria     string `json:"criteria,omitempty"`     // connected (default), same_resolution, connected_same_resolution
	Connectivity string `json:"connectivity,omitempty"` // default: config flood_fill_connectivity
	MaxVoxels    int    `json:"max_voxels,omitempty"`   // default: config flood_fill_max_voxels

	// Optional constraints, combined with Criteria; at most one applies,
	// checked in this order.
	Bounds         *BoxOut `json:"bounds,omitempty"`
	PlaneNormal    *Vec3   `json:"plane_normal,omitempty"`
	PlaneTolerance float64 `json:"plane_tolerance,omitempty"`
	MaxSteps       *int    `json:"max_steps,omitempty"`

	ShapeOptions
}

// FloodFill runs a flood fill selection.
func (s *Session) FloodFill(ctx context.Context, in FloodFillInput) (*SelectionOutput, error) {
	defer s.begin()()
	res, mode, err := s.shapeArgs(in.ShapeOptions)
	if err != nil {
		return nil, err
	}
	seedRes := res
	if in.Seed.Res != "" {
		if seedRes, err = s.resolution(in.Seed.Res); err != nil {
			return nil, err
		}
	}
	seed := voxel.NewID(in.Seed.X, in.Seed.Y, in.Seed.Z, seedRes)

	crit, err := selection.ParseCriteria(in.Criteria)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if in.MaxVoxels < 0 {
		return nil, errors.NewInvalidRequest("max_voxels must not be negative")
	}
	if in.MaxSteps != nil && *in.MaxSteps < 0 {
		return nil, errors.NewInvalidRequest("max_steps must not be negative")
	}
	if in.PlaneNormal != nil && *in.PlaneNormal == (Vec3{}) {
		return nil, errors.NewInvalidRequest("plane_normal must be non-zero")
	}

	ff := s.manager.FloodFill
	savedConn, savedMax := ff.Connectivity, ff.MaxVoxels
	defer func() { ff.Connectivity, ff.MaxVoxels = savedConn, savedMax }()
	if in.Connectivity != "" {
		c, err := selection.ParseConnectivity(in.Connectivity)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		ff.Connectivity = c
	}
	if in.MaxVoxels > 0 {
		ff.MaxVoxels = in.MaxVoxels
	}

	var set *selection.Set
	switch {
	case in.Bounds != nil:
		set = ff.FloodFillBounded(seed, crit, voxel.NewBox(in.Bounds.Min.R3(), in.Bounds.Max.R3()))
	case in.PlaneNormal != nil:
		set = ff.FloodFillPlanar(seed, crit, in.PlaneNormal.R3(), in.PlaneTolerance)
	case in.MaxSteps != nil:
		set = ff.FloodFillLimited(seed, crit, *in.MaxSteps)
	default:
		set = ff.FloodFill(seed, crit)
	}
	return s.apply(in.ShapeOptions, mode, set)
}

// SelectScopeInput selects by a store-wide rule.
type SelectScopeInput struct {
	Scope            string `json:"scope"`                // all, none, inverse, resolution
	Resolution       string `json:"resolution,omitempty"` // required for scope=resolution
	IncludeSelection bool   `json:"include_selection,omitempty"`
}

// SelectScope runs select-all, select-none, select-inverse or
// select-by-resolution.
func (s *Session) SelectScope(ctx context.Context, in SelectScopeInput) (*SelectionOutput, error) {
	defer s.begin()()
	var fn func(m *selection.Manager)
	switch in.Scope {
	case "all":
		fn = (*selection.Manager).SelectAll
	case "none":
		fn = (*selection.Manager).SelectNone
	case "inverse":
		fn = (*selection.Manager).SelectInverse
	case "resolution":
		if in.Resolution == "" {
			return nil, errors.NewInvalidRequest("resolution is required for scope=resolution")
		}
		res, err := s.resolution(in.Resolution)
		if err != nil {
			return nil, err
		}
		fn = func(m *selection.Manager) { m.SelectByResolution(res) }
	default:
		return nil, errors.NewInvalidRequest("scope must be one of: all, none, inverse, resolution")
	}

	changed, err := s.mutate(false, fn)
	if err != nil {
		return nil, err
	}
	return s.output(changed, s.manager.SelectionSize(), in.IncludeSelection), nil
}

// PickInput changes individual voxels.
type PickInput struct {
	Voxels           []Voxel `json:"voxels"`
	Action           string  `json:"action,omitempty"`     // select (default), deselect, toggle
	Resolution       string  `json:"resolution,omitempty"` // for voxels without res
	IncludeSelection bool    `json:"include_selection,omitempty"`
}

// Pick selects, deselects or toggles individual voxels. Existence is
// not checked.
func (s *Session) Pick(ctx context.Context, in PickInput) (*SelectionOutput, error) {
	defer s.begin()()
	if len(in.Voxels) == 0 {
		return nil, errors.NewInvalidRequest("voxels is required")
	}
	def, err := s.resolution(in.Resolution)
	if err != nil {
		return nil, err
	}
	ids, err := toIDs(in.Voxels, def)
	if err != nil {
		return nil, err
	}

	var one func(m *selection.Manager, id voxel.ID)
	switch in.Action {
	case "", "select":
		one = (*selection.Manager).SelectVoxel
	case "deselect":
		one = (*selection.Manager).DeselectVoxel
	case "toggle":
		one = (*selection.Manager).ToggleVoxel
	default:
		return nil, errors.NewInvalidRequest("action must be one of: select, deselect, toggle")
	}

	changed, err := s.mutate(false, func(m *selection.Manager) {
		for _, id := range ids {
			one(m, id)
		}
	})
	if err != nil {
		return nil, err
	}
	return s.output(changed, len(ids), in.IncludeSelection), nil
}

// FilterInput keeps only selected voxels matching every given constraint.
type FilterInput struct {
	Resolution       string  `json:"resolution,omitempty"`
	Within           *BoxOut `json:"within,omitempty"` // voxel center must be inside
	DryRun           bool    `json:"dry_run,omitempty"`
	IncludeSelection bool    `json:"include_selection,omitempty"`
}

// Filter narrows the current selection, or with DryRun reports what it
// would keep.
func (s *Session) Filter(ctx context.Context, in FilterInput) (*SelectionOutput, error) {
	defer s.begin()()
	var preds []selection.Predicate
	if in.Resolution != "" {
		res, err := s.resolution(in.Resolution)
		if err != nil {
			return nil, err
		}
		preds = append(preds, func(id voxel.ID) bool { return id.Res == res })
	}
	if in.Within != nil {
		box := voxel.NewBox(in.Within.Min.R3(), in.Within.Max.R3())
		preds = append(preds, func(id voxel.ID) bool { return box.ContainsPoint(id.Center()) })
	}
	if len(preds) == 0 {
		return nil, errors.NewInvalidRequest("at least one of resolution, within is required")
	}
	keep := func(id voxel.ID) bool {
		for _, p := range preds {
			if !p(id) {
				return false
			}
		}
		return true
	}

	if in.DryRun {
		kept := s.manager.FilteredSelection(keep)
		out := s.output(false, kept.Len(), false)
		if in.IncludeSelection {
			out.Selection = fromIDs(kept.Sorted())
		}
		return out, nil
	}

	changed, err := s.mutate(false, func(m *selection.Manager) { m.FilterSelection(keep) })
	if err != nil {
		return nil, err
	}
	return s.output(changed, s.manager.SelectionSize(), in.IncludeSelection), nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
