package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/voxsel/internal/config"
	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"selection", "set", "voxel"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"selection_box": {
		def:     selectBoxToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectBox },
	},
	"selection_grid": {
		def:     selectGridToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectGrid },
	},
	"selection_rays": {
		def:     selectRaysToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectRays },
	},
	"selection_screen": {
		def:     selectScreenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectScreen },
	},
	"selection_sphere": {
		def:     selectSphereToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectSphere },
	},
	"selection_ellipsoid": {
		def:     selectEllipsoidToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectEllipsoid },
	},
	"selection_hemisphere": {
		def:     selectHemisphereToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectHemisphere },
	},
	"selection_ray": {
		def:     selectRayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectRay },
	},
	"selection_flood_fill": {
		def:     floodFillToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFloodFill },
	},
	"selection_scope": {
		def:     selectScopeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectScope },
	},
	"selection_pick": {
		def:     pickToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePick },
	},
	"selection_filter": {
		def:     filterToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilter },
	},
	"selection_undo": {
		def:     undoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUndo },
	},
	"selection_redo": {
		def:     redoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRedo },
	},
	"selection_checkpoint": {
		def:     checkpointToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheckpoint },
	},
	"selection_clear_history": {
		def:     clearHistoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearHistory },
	},
	"selection_apply_preview": {
		def:     applyPreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleApplyPreview },
	},
	"selection_cancel_preview": {
		def:     cancelPreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCancelPreview },
	},
	"selection_validate": {
		def:     validateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleValidate },
	},
	"selection_inspect": {
		def:     inspectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInspect },
	},
	"selection_report": {
		def:     reportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReport },
	},
	"set_save": {
		def:     saveSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSaveSet },
	},
	"set_load": {
		def:     loadSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLoadSet },
	},
	"set_get": {
		def:     getSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetSet },
	},
	"set_delete": {
		def:     deleteSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteSet },
	},
	"set_list": {
		def:     listSetsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListSets },
	},
	"set_purge": {
		def:     purgeSetsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurgeSets },
	},
	"voxel_add": {
		def:     addVoxelsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddVoxels },
	},
	"voxel_remove": {
		def:     removeVoxelsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemoveVoxels },
	},
	"voxel_fill": {
		def:     fillVoxelsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFillVoxels },
	},
	"voxel_workspace": {
		def:     workspaceToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspace },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "set_save" → "set").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	// Build set of types for O(1) lookup
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	// Collect tools belonging to disabled types
	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

const instructions = `voxsel selects voxels in a sparse multi-resolution grid.
Coordinates are integer centimeters; shapes take meters.
Selection tools accept mode (replace, add, subtract, intersect) and preview.
Committed changes can be undone with selection_undo. Save selections with set_save.`

// NewServer creates a new MCP server with voxsel tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(session *ops.Session, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"voxsel",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	h := NewHandlers(session)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// CallTool runs one registered tool directly, without an MCP transport.
// Disabled tools are still callable.
func CallTool(ctx context.Context, session *ops.Session, name string, args map[string]any) (*mcp.CallToolResult, error) {
	entry, ok := toolRegistry[name]
	if !ok {
		return nil, errors.NewInvalidRequest("unknown tool: " + name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return entry.handler(NewHandlers(session))(ctx, req)
}

// Run starts the MCP server using stdio transport.
func Run(ctx context.Context, session *ops.Session, cfg *config.Config, version string) error {
	s := NewServer(session, cfg, version)
	log := logger.FromContext(ctx)
	return server.ServeStdio(s, server.WithStdioContextFunc(func(c context.Context) context.Context {
		return logger.NewContext(c, log)
	}))
}
