package web

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/ops"
)

// Handlers contains HTTP route handlers for the selection viewer.
type Handlers struct {
	session  *ops.Session
	renderer *Renderer
}

// HandleList handles GET /sets — named sets plus a summary of the current selection.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sets, err := h.session.ListSets(ctx)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	current, err := h.session.Inspect(ctx, ops.HistoryInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	workspace, err := h.session.Workspace(ctx, ops.WorkspaceInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"sets":      sets.Sets,
			"selection": current,
			"workspace": workspace,
		})
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Selection sets",
			Version: h.renderer.version,
			Nav:     "sets",
		},
		Sets:      sets.Sets,
		Current:   current,
		Workspace: workspace,
	})
}

// HandleDetail handles GET /sets/{name} — report for one named set.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("set name is required"))
		return
	}

	set, err := h.session.GetSet(r.Context(), ops.SetNameInput{Name: name, IncludeVoxels: wantsJSON(r)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, set)
		return
	}

	h.renderReport(w, r, set.Name, set, "sets")
}

// HandleSelection handles GET /selection — report for the current selection.
func (h *Handlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		out, err := h.session.Inspect(r.Context(), ops.HistoryInput{IncludeSelection: true})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, out)
		return
	}
	h.renderReport(w, r, "", nil, "selection")
}

func (h *Handlers) renderReport(w http.ResponseWriter, r *http.Request, name string, set *ops.SetOutput, nav string) {
	rep, err := h.session.Report(r.Context(), ops.ReportInput{Name: name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	title := "Current selection"
	if set != nil {
		title = set.NameRaw
	}
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     nav,
		},
		Set:          set,
		RenderedHTML: renderMarkdown(rep.Content),
	})
}

// HandleDelete handles POST /sets/{name}/delete — soft-delete a named set.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	result, err := h.session.DeleteSet(r.Context(), ops.SetNameInput{Name: name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"name":    result.Name,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/sets", http.StatusSeeOther)
}

// HandlePurge handles POST /sets/purge — permanently delete soft-deleted sets.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	input := ops.PurgeInput{}
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := h.session.Purge(r.Context(), input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"purged":  result.Purged,
			"message": result.Message,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<p class="purge-result">` + template.HTMLEscapeString(result.Message) + `</p><p><a href="/sets">Back</a></p>`))
}

// wantsJSON reports whether the client asked for JSON.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
