package api

import (
	"github.com/panolabel/panolabel/internal/admin"
	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/dataset"
	"github.com/panolabel/panolabel/internal/tasks"
	"github.com/panolabel/panolabel/internal/users"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Users       *users.System
	Tasks       *tasks.Resolver
	Annotations *annotations.Resolver
	Admin       *admin.System
}

// NewDomain creates all domain systems from the API runtime and registers
// their lifecycle hooks.
func NewDomain(runtime *Runtime) *Domain {
	conn := runtime.Database.Connection()
	cfg := runtime.Config

	userSystem := users.NewSystem(
		users.NewRepository(conn, runtime.Logger),
		runtime.Logger,
	)
	userSystem.Start(runtime.Lifecycle)

	// Stable identifiers keep stored answers attached to their questions
	// across dataset reloads.
	taskResolver := tasks.NewResolver(
		runtime.Dataset,
		tasks.NewRepository(conn, runtime.Logger),
		dataset.StableIDs,
		runtime.Logger,
		cfg.Annotations.StoreTimeoutDuration(),
	)

	annotationResolver := annotations.NewResolver(
		annotations.NewRepository(conn, runtime.Logger),
		annotations.NewCache(cfg.Annotations.Dir, cfg.Annotations.Key),
		runtime.Logger,
		cfg.Annotations.StoreTimeoutDuration(),
	)

	adminSystem := admin.NewSystem(
		taskResolver,
		annotationResolver,
		userSystem,
		runtime.Archive,
		runtime.Logger,
		cfg.Archive.MaxListSize,
	)

	return &Domain{
		Users:       userSystem,
		Tasks:       taskResolver,
		Annotations: annotationResolver,
		Admin:       adminSystem,
	}
}
