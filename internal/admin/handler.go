package admin

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/panolabel/panolabel/pkg/blobstore"
	"github.com/panolabel/panolabel/pkg/handlers"
	"github.com/panolabel/panolabel/pkg/routes"
)

// ArchiveList is the response envelope for the archive listing endpoint.
type ArchiveList struct {
	Archives []blobstore.Entry `json:"archives"`
}

// Handler provides HTTP endpoints for progress, export, and dashboard
// operations.
type Handler struct {
	sys    *System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys *System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "admin"),
	}
}

// Routes returns the route group definition for progress, export, and
// dashboard endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/progress", Handler: h.Progress},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
			{Method: "POST", Pattern: "/export/archive", Handler: h.Archive},
			{Method: "GET", Pattern: "/export/archives", Handler: h.ListArchives},
			{Method: "GET", Pattern: "/export/archive/{key...}", Handler: h.DownloadArchive},
			{Method: "GET", Pattern: "/admin/dashboard", Handler: h.Dashboard},
		},
	}
}

// Progress reports annotation progress for the userId query parameter.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	p, err := h.sys.Progress(r.Context(), userID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Export returns every stored annotation as a flat array, matching the
// format the rest store and downstream tooling consume.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	list, err := h.sys.Export(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

// Archive snapshots the current export into blob storage.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	entry, err := h.sys.ArchiveExport(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, entry)
}

// ListArchives returns stored export archives.
func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sys.ListArchives(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ArchiveList{Archives: entries})
}

// DownloadArchive streams a stored export archive by its key path parameter.
func (h *Handler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	result, err := h.sys.DownloadArchive(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		h.logger.Warn("archive stream interrupted", "key", key, "error", err)
	}
}

// Dashboard returns the activity dashboard for the userId query parameter.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	d, err := h.sys.DashboardFor(r.Context(), userID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}
