// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, dataset, archive storage)
// that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/panolabel/panolabel/internal/config"
	"github.com/panolabel/panolabel/internal/dataset"
	"github.com/panolabel/panolabel/pkg/blobstore"
	"github.com/panolabel/panolabel/pkg/database"
	"github.com/panolabel/panolabel/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// Archive is nil when export archiving is not configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Dataset   *dataset.Source
	Archive   blobstore.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	source := dataset.NewSource(&cfg.Dataset, logger)

	var archive blobstore.System
	if cfg.Archive.Enabled {
		archive, err = blobstore.New(&cfg.Archive, logger)
		if err != nil {
			return nil, fmt.Errorf("archive init failed: %w", err)
		}
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Dataset:   source,
		Archive:   archive,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start(cfg *config.Config) error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if cfg.Dataset.Watch {
		if err := i.Dataset.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("dataset watch failed: %w", err)
		}
	}
	if i.Archive != nil {
		if err := i.Archive.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("archive start failed: %w", err)
		}
	}
	return nil
}
