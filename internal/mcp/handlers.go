package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	session *ops.Session
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(session *ops.Session) *Handlers {
	return &Handlers{session: session}
}

// handle decodes the request arguments into In, runs op and wraps the result.
func handle[In, Out any](ctx context.Context, req mcp.CallToolRequest, op func(context.Context, In) (Out, error)) (*mcp.CallToolResult, error) {
	input, err := decode[In](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := op(ctx, input)
	if err != nil {
		if vErr, ok := errors.As(err); !ok || vErr.Code == errors.ErrInternal {
			logger.FromContext(ctx).Error("tool failed", "tool", req.Params.Name, "error", err)
		}
		return errorResult(err), nil
	}

	return successResult(result)
}

// Selection tools

// HandleSelectBox handles the selection_box tool call.
func (h *Handlers) HandleSelectBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectBox)
}

// HandleSelectGrid handles the selection_grid tool call.
func (h *Handlers) HandleSelectGrid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectGrid)
}

// HandleSelectRays handles the selection_rays tool call.
func (h *Handlers) HandleSelectRays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectRays)
}

// HandleSelectScreen handles the selection_screen tool call.
func (h *Handlers) HandleSelectScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectScreen)
}

// HandleSelectSphere handles the selection_sphere tool call.
func (h *Handlers) HandleSelectSphere(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectSphere)
}

// HandleSelectEllipsoid handles the selection_ellipsoid tool call.
func (h *Handlers) HandleSelectEllipsoid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectEllipsoid)
}

// HandleSelectHemisphere handles the selection_hemisphere tool call.
func (h *Handlers) HandleSelectHemisphere(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectHemisphere)
}

// HandleSelectRay handles the selection_ray tool call.
func (h *Handlers) HandleSelectRay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectRay)
}

// HandleFloodFill handles the selection_flood_fill tool call.
func (h *Handlers) HandleFloodFill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.FloodFill)
}

// HandleSelectScope handles the selection_scope tool call.
func (h *Handlers) HandleSelectScope(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SelectScope)
}

// HandlePick handles the selection_pick tool call.
func (h *Handlers) HandlePick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Pick)
}

// HandleFilter handles the selection_filter tool call.
func (h *Handlers) HandleFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Filter)
}

// HandleUndo handles the selection_undo tool call.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Undo)
}

// HandleRedo handles the selection_redo tool call.
func (h *Handlers) HandleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Redo)
}

// HandleCheckpoint handles the selection_checkpoint tool call.
func (h *Handlers) HandleCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Checkpoint)
}

// HandleClearHistory handles the selection_clear_history tool call.
func (h *Handlers) HandleClearHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.ClearHistory)
}

// HandleApplyPreview handles the selection_apply_preview tool call.
func (h *Handlers) HandleApplyPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.ApplyPreview)
}

// HandleCancelPreview handles the selection_cancel_preview tool call.
func (h *Handlers) HandleCancelPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.CancelPreview)
}

// HandleValidate handles the selection_validate tool call.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Validate)
}

// HandleInspect handles the selection_inspect tool call.
func (h *Handlers) HandleInspect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Inspect)
}

// HandleReport handles the selection_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Report)
}

// Set tools

// HandleSaveSet handles the set_save tool call.
func (h *Handlers) HandleSaveSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.SaveSet)
}

// HandleLoadSet handles the set_load tool call.
func (h *Handlers) HandleLoadSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.LoadSet)
}

// HandleGetSet handles the set_get tool call.
func (h *Handlers) HandleGetSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.GetSet)
}

// HandleDeleteSet handles the set_delete tool call.
func (h *Handlers) HandleDeleteSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.DeleteSet)
}

// HandleListSets handles the set_list tool call.
func (h *Handlers) HandleListSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, func(ctx context.Context, _ struct{}) (*ops.ListSetsOutput, error) {
		return h.session.ListSets(ctx)
	})
}

// HandlePurgeSets handles the set_purge tool call.
func (h *Handlers) HandlePurgeSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Purge)
}

// Voxel tools

// HandleAddVoxels handles the voxel_add tool call.
func (h *Handlers) HandleAddVoxels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.AddVoxels)
}

// HandleRemoveVoxels handles the voxel_remove tool call.
func (h *Handlers) HandleRemoveVoxels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.RemoveVoxels)
}

// HandleFillVoxels handles the voxel_fill tool call.
func (h *Handlers) HandleFillVoxels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.FillVoxels)
}

// HandleWorkspace handles the voxel_workspace tool call.
func (h *Handlers) HandleWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handle(ctx, req, h.session.Workspace)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
