package annotations

import (
	"log/slog"
	"net/http"

	"github.com/panolabel/panolabel/pkg/handlers"
	"github.com/panolabel/panolabel/pkg/routes"
)

// SaveResponse is the JSON body returned by the save endpoint. Warning is
// populated when the remote store was unreachable and the save degraded to
// the local cache.
type SaveResponse struct {
	Success    bool       `json:"success"`
	Annotation Annotation `json:"annotation"`
	Local      bool       `json:"local,omitempty"`
	Warning    string     `json:"warning,omitempty"`
}

// Handler provides HTTP endpoints for annotation persistence.
type Handler struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewHandler creates a Handler with the given resolver and logger.
func NewHandler(resolver *Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger.With("handler", "annotations"),
	}
}

// Routes returns the route group definition for annotation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/annotations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Save},
			{Method: "GET", Pattern: "/{imageId}", Handler: h.Find},
		},
	}
}

// Save upserts an annotation from a JSON body.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var a Annotation
	if err := handlers.DecodeJSON(r, &a); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.resolver.SaveAnnotation(r.Context(), a)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	resp := SaveResponse{
		Success:    true,
		Annotation: result.Annotation,
		Local:      result.Local,
	}
	// Local saves without a user identity are the expected path, not a
	// degradation, so they carry no warning.
	if result.Local && a.UserID != "" {
		resp.Warning = "remote store unavailable, annotation saved locally"
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Find returns the annotation for an image, scoped to the userId query
// parameter when present.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("imageId")
	userID := r.URL.Query().Get("userId")

	a, err := h.resolver.FindAnnotation(r.Context(), imageID, userID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}
