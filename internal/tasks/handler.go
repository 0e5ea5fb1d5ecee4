package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/panolabel/panolabel/pkg/handlers"
	"github.com/panolabel/panolabel/pkg/routes"
)

// CompletionSource reports which image identifiers a user has fully
// annotated, so the task list can exclude them.
type CompletionSource interface {
	CompletedImageIDs(ctx context.Context, userID string) ([]string, error)
}

// TaskList is the response envelope for the task list endpoint.
type TaskList struct {
	Tasks []Task `json:"tasks"`
}

// Handler provides HTTP endpoints for task resolution.
type Handler struct {
	resolver    *Resolver
	completions CompletionSource
	logger      *slog.Logger
}

// NewHandler creates a Handler. completions may be nil, in which case the
// task list is never filtered by user progress.
func NewHandler(resolver *Resolver, completions CompletionSource, logger *slog.Logger) *Handler {
	return &Handler{
		resolver:    resolver,
		completions: completions,
		logger:      logger.With("handler", "tasks"),
	}
}

// Routes returns the route group definition for task endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tasks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{ref...}", Handler: h.Find},
		},
	}
}

// List returns pending tasks. The userId query parameter excludes tasks the
// user has completed; limit caps the number returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidLimit)
			return
		}
		limit = parsed
	}

	var completed []string
	if userID := query.Get("userId"); userID != "" && h.completions != nil {
		ids, err := h.completions.CompletedImageIDs(r.Context(), userID)
		if err != nil {
			h.logger.Warn("completion lookup failed, returning unfiltered tasks",
				"user_id", userID, "error", err)
		} else {
			completed = ids
		}
	}

	tasks := h.resolver.Pending(r.Context(), completed, limit)
	handlers.RespondJSON(w, http.StatusOK, TaskList{Tasks: tasks})
}

// Find resolves a single task by index or identifier path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	t, err := h.resolver.FindTask(r.Context(), ref)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}
