package users

import (
	"log/slog"
	"net/http"

	"github.com/panolabel/panolabel/pkg/handlers"
	"github.com/panolabel/panolabel/pkg/routes"
)

// LoginResponse is the JSON body returned on successful authentication.
type LoginResponse struct {
	User User `json:"user"`
}

// Handler provides HTTP endpoints for authentication.
type Handler struct {
	sys    *System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys *System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "auth"),
	}
}

// Routes returns the route group definition for authentication endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/auth",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/login", Handler: h.Login},
		},
	}
}

// Login authenticates a username and password JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := handlers.DecodeJSON(r, &creds); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	u, err := h.sys.Authenticate(r.Context(), creds)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, LoginResponse{User: *u})
}
