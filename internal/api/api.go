// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/panolabel/panolabel/internal/config"
	"github.com/panolabel/panolabel/internal/infrastructure"
	"github.com/panolabel/panolabel/pkg/middleware"
	"github.com/panolabel/panolabel/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime.Logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
