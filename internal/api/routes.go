package api

import (
	"log/slog"
	"net/http"

	"github.com/panolabel/panolabel/internal/admin"
	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/tasks"
	"github.com/panolabel/panolabel/internal/users"
	"github.com/panolabel/panolabel/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, logger *slog.Logger) {
	routes.Register(
		mux,
		users.NewHandler(domain.Users, logger).Routes(),
		tasks.NewHandler(domain.Tasks, domain.Annotations, logger).Routes(),
		annotations.NewHandler(domain.Annotations, logger).Routes(),
		admin.NewHandler(domain.Admin, logger).Routes(),
	)
}
