package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// JSON schema fragments shared by the tool definitions.
var (
	numberSchema = map[string]any{"type": "number"}
	intSchema    = map[string]any{"type": "integer"}

	vec3Props = map[string]any{
		"x": numberSchema,
		"y": numberSchema,
		"z": numberSchema,
	}

	vec3Schema = map[string]any{
		"type":       "object",
		"properties": vec3Props,
		"required":   []string{"x", "y", "z"},
	}

	voxelProps = map[string]any{
		"x":   intSchema,
		"y":   intSchema,
		"z":   intSchema,
		"res": map[string]any{"type": "string", "description": "Resolution, e.g. 4cm. Defaults to the resolution argument."},
	}

	voxelSchema = map[string]any{
		"type":       "object",
		"properties": voxelProps,
		"required":   []string{"x", "y", "z"},
	}

	boxProps = map[string]any{
		"min": vec3Schema,
		"max": vec3Schema,
	}

	rayProps = map[string]any{
		"origin":    vec3Schema,
		"direction": vec3Schema,
	}
)

var resolutionNames = []string{"1cm", "2cm", "4cm", "8cm", "16cm", "32cm", "64cm", "128cm", "256cm", "512cm"}

func includeSelectionOpt() mcp.ToolOption {
	return mcp.WithBoolean("include_selection",
		mcp.Description("Return the selected voxels in the response"),
	)
}

// shapeTool builds a selector tool with the shared mode/preview options.
func shapeTool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	all := []mcp.ToolOption{mcp.WithDescription(desc)}
	all = append(all, opts...)
	all = append(all,
		mcp.WithString("resolution",
			mcp.Description("Resolution to select at. Defaults to default_resolution."),
			mcp.Enum(resolutionNames...),
		),
		mcp.WithString("mode",
			mcp.Description("How the result combines with the current selection"),
			mcp.Enum("replace", "add", "subtract", "intersect"),
		),
		mcp.WithBoolean("preview",
			mcp.Description("Hold the result as a preview instead of committing it"),
		),
		includeSelectionOpt(),
	)
	return mcp.NewTool(name, all...)
}

func historyTool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	all := []mcp.ToolOption{mcp.WithDescription(desc), includeSelectionOpt()}
	return mcp.NewTool(name, append(all, opts...)...)
}

var selectBoxToolDef = shapeTool("selection_box",
	"Select every stored voxel touched by a world-space box (meters).",
	mcp.WithObject("min", mcp.Required(), mcp.Description("Box minimum corner"), mcp.Properties(vec3Props)),
	mcp.WithObject("max", mcp.Required(), mcp.Description("Box maximum corner"), mcp.Properties(vec3Props)),
)

var selectGridToolDef = shapeTool("selection_grid",
	"Select the grid-aligned block spanned by two voxels.",
	mcp.WithObject("from", mcp.Required(), mcp.Properties(voxelProps)),
	mcp.WithObject("to", mcp.Required(), mcp.Properties(voxelProps)),
)

var selectRaysToolDef = shapeTool("selection_rays",
	"Select the box spanned by the hit points of two rays.",
	mcp.WithObject("a", mcp.Required(), mcp.Description("First ray"), mcp.Properties(rayProps)),
	mcp.WithObject("b", mcp.Required(), mcp.Description("Second ray"), mcp.Properties(rayProps)),
	mcp.WithNumber("max_distance", mcp.Description("Ray length in meters (default 100)")),
)

var selectScreenToolDef = shapeTool("selection_screen",
	"Select voxels whose centers project inside a screen rectangle.",
	mcp.WithArray("start", mcp.Required(), mcp.Description("Rectangle corner in pixels [x, y]"), mcp.Items(numberSchema)),
	mcp.WithArray("end", mcp.Required(), mcp.Description("Opposite corner in pixels [x, y]"), mcp.Items(numberSchema)),
	mcp.WithArray("view", mcp.Required(), mcp.Description("Row-major 4x4 view matrix"), mcp.Items(numberSchema)),
	mcp.WithArray("projection", mcp.Required(), mcp.Description("Row-major 4x4 projection matrix"), mcp.Items(numberSchema)),
	mcp.WithArray("viewport", mcp.Required(), mcp.Description("Viewport size in pixels [width, height]"), mcp.Items(numberSchema)),
)

var selectSphereToolDef = shapeTool("selection_sphere",
	"Select voxels touched by a sphere. Optionally returns falloff weights.",
	mcp.WithObject("center", mcp.Required(), mcp.Properties(vec3Props)),
	mcp.WithNumber("radius", mcp.Required(), mcp.Description("Radius in meters")),
	mcp.WithBoolean("weights", mcp.Description("Include per-voxel falloff weights")),
)

var selectEllipsoidToolDef = shapeTool("selection_ellipsoid",
	"Select voxels touched by an optionally rotated ellipsoid.",
	mcp.WithObject("center", mcp.Required(), mcp.Properties(vec3Props)),
	mcp.WithObject("radii", mcp.Required(), mcp.Description("Semi-axes in meters"), mcp.Properties(vec3Props)),
	mcp.WithObject("rotation_axis", mcp.Properties(vec3Props)),
	mcp.WithNumber("rotation_degrees"),
)

var selectHemisphereToolDef = shapeTool("selection_hemisphere",
	"Select voxels touched by the half of a sphere facing normal.",
	mcp.WithObject("center", mcp.Required(), mcp.Properties(vec3Props)),
	mcp.WithNumber("radius", mcp.Required()),
	mcp.WithObject("normal", mcp.Required(), mcp.Properties(vec3Props)),
)

var selectRayToolDef = shapeTool("selection_ray",
	"Select voxels within radius of a ray segment.",
	mcp.WithObject("origin", mcp.Required(), mcp.Properties(vec3Props)),
	mcp.WithObject("direction", mcp.Required(), mcp.Properties(vec3Props)),
	mcp.WithNumber("radius", mcp.Required()),
	mcp.WithNumber("max_distance", mcp.Description("Segment length in meters (default 100)")),
)

var floodFillToolDef = shapeTool("selection_flood_fill",
	"Flood fill through stored voxels from a seed. Optional bounds, plane or step limit constrain the fill.",
	mcp.WithObject("seed", mcp.Required(), mcp.Properties(voxelProps)),
	mcp.WithString("criteria", mcp.Enum("connected", "same_resolution", "connected_same_resolution")),
	mcp.WithString("connectivity", mcp.Enum("face6", "edge18", "vertex26")),
	mcp.WithNumber("max_voxels", mcp.Description("Stop after this many voxels")),
	mcp.WithObject("bounds", mcp.Description("Only fill voxels centered inside this box"), mcp.Properties(boxProps)),
	mcp.WithObject("plane_normal", mcp.Description("Only fill voxels near the plane through the seed"), mcp.Properties(vec3Props)),
	mcp.WithNumber("plane_tolerance", mcp.Description("Plane distance tolerance in meters")),
	mcp.WithNumber("max_steps", mcp.Description("Maximum neighbor steps from the seed")),
)

var selectScopeToolDef = mcp.NewTool("selection_scope",
	mcp.WithDescription("Select all, none, the inverse, or every voxel at one resolution."),
	mcp.WithString("scope", mcp.Required(), mcp.Enum("all", "none", "inverse", "resolution")),
	mcp.WithString("resolution", mcp.Description("Required for scope=resolution"), mcp.Enum(resolutionNames...)),
	includeSelectionOpt(),
)

var pickToolDef = mcp.NewTool("selection_pick",
	mcp.WithDescription("Select, deselect or toggle individual voxels."),
	mcp.WithArray("voxels", mcp.Required(), mcp.Items(voxelSchema)),
	mcp.WithString("action", mcp.Enum("select", "deselect", "toggle")),
	mcp.WithString("resolution", mcp.Description("Resolution for voxels without res"), mcp.Enum(resolutionNames...)),
	includeSelectionOpt(),
)

var filterToolDef = mcp.NewTool("selection_filter",
	mcp.WithDescription("Keep only selected voxels matching a resolution and/or centered inside a box."),
	mcp.WithString("resolution", mcp.Enum(resolutionNames...)),
	mcp.WithObject("within", mcp.Properties(boxProps)),
	mcp.WithBoolean("dry_run", mcp.Description("Report the match count without changing the selection")),
	includeSelectionOpt(),
)

var undoToolDef = historyTool("selection_undo", "Restore the previous selection.")

var redoToolDef = historyTool("selection_redo", "Reapply the most recently undone selection.")

var checkpointToolDef = historyTool("selection_checkpoint", "Push the current selection onto the undo stack.")

var clearHistoryToolDef = historyTool("selection_clear_history", "Drop the undo and redo stacks.",
	mcp.WithDestructiveHintAnnotation(true),
)

var applyPreviewToolDef = historyTool("selection_apply_preview", "Commit the pending preview selection.")

var cancelPreviewToolDef = historyTool("selection_cancel_preview", "Discard the pending preview selection.")

var validateToolDef = historyTool("selection_validate", "Drop selected voxels that no longer exist in the store.")

var inspectToolDef = historyTool("selection_inspect",
	"Describe the current selection: stats, validity, history depth and pending preview.",
	mcp.WithReadOnlyHintAnnotation(true),
)

var reportToolDef = mcp.NewTool("selection_report",
	mcp.WithDescription("Render a report of the current selection or a named set."),
	mcp.WithString("name", mcp.Description("Named set to report on. Defaults to the current selection.")),
	mcp.WithString("format", mcp.Enum("markdown", "html")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var saveSetToolDef = mcp.NewTool("set_save",
	mcp.WithDescription("Save a copy of the current selection under a name."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Set name (case-insensitive, max 128 chars)")),
	mcp.WithString("mode", mcp.Description("error (default) fails on collision; replace overwrites"), mcp.Enum("error", "replace")),
)

var loadSetToolDef = mcp.NewTool("set_load",
	mcp.WithDescription("Apply a named set to the current selection."),
	mcp.WithString("name", mcp.Required()),
	mcp.WithString("mode", mcp.Enum("replace", "add", "subtract", "intersect")),
	includeSelectionOpt(),
)

var getSetToolDef = mcp.NewTool("set_get",
	mcp.WithDescription("Describe a named set without touching the selection."),
	mcp.WithString("name", mcp.Required()),
	mcp.WithBoolean("include_voxels"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteSetToolDef = mcp.NewTool("set_delete",
	mcp.WithDescription("Soft-delete a named set. Use set_purge to remove it permanently."),
	mcp.WithString("name", mcp.Required()),
	mcp.WithDestructiveHintAnnotation(true),
)

var listSetsToolDef = mcp.NewTool("set_list",
	mcp.WithDescription("List named sets ordered by name."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var purgeSetsToolDef = mcp.NewTool("set_purge",
	mcp.WithDescription("Permanently delete soft-deleted named sets."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge sets deleted more than N days ago")),
	mcp.WithDestructiveHintAnnotation(true),
)

var addVoxelsToolDef = mcp.NewTool("voxel_add",
	mcp.WithDescription("Add voxels to the store."),
	mcp.WithArray("voxels", mcp.Required(), mcp.Items(voxelSchema)),
	mcp.WithString("resolution", mcp.Enum(resolutionNames...)),
)

var removeVoxelsToolDef = mcp.NewTool("voxel_remove",
	mcp.WithDescription("Remove voxels from the store. The selection is not validated."),
	mcp.WithArray("voxels", mcp.Required(), mcp.Items(voxelSchema)),
	mcp.WithString("resolution", mcp.Enum(resolutionNames...)),
	mcp.WithDestructiveHintAnnotation(true),
)

var fillVoxelsToolDef = mcp.NewTool("voxel_fill",
	mcp.WithDescription("Store a cube of count^3 voxels starting at origin."),
	mcp.WithObject("origin", mcp.Required(), mcp.Properties(voxelProps)),
	mcp.WithNumber("count", mcp.Required(), mcp.Description("Voxels per edge (max 100)")),
	mcp.WithString("resolution", mcp.Enum(resolutionNames...)),
)

var workspaceToolDef = mcp.NewTool("voxel_workspace",
	mcp.WithDescription("Read or set the workspace size and summarize the store."),
	mcp.WithObject("size", mcp.Description("New workspace size in meters. Omit to read only."), mcp.Properties(vec3Props)),
)
