// Package storage defines the persistence interface the taskdeck server is
// built on. The only backend today is SQLite; the interface keeps handlers
// and tests decoupled from it.
package storage

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/storage/sqlite"
	"github.com/taskdeck/taskdeck/internal/types"
)

// Storage defines the interface for project and work item storage backends
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id types.ItemID) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	DeleteProject(ctx context.Context, id types.ItemID) error

	// Work items
	CreateWorkItem(ctx context.Context, item *types.WorkItem) error
	GetWorkItem(ctx context.Context, id types.ItemID) (*types.WorkItem, error)
	ListWorkItems(ctx context.Context, projectID types.ItemID, filter types.WorkItemFilter) ([]*types.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id types.ItemID, updates map[string]interface{}) (*types.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id types.ItemID) error

	// Hierarchy returns the project's work items as nested trees, epics as
	// roots, siblings ordered by order_index then creation time.
	Hierarchy(ctx context.Context, projectID types.ItemID) ([]*types.WorkItem, error)

	// SetActive toggles a work item's active flag and cascades the change
	// to every descendant.
	SetActive(ctx context.Context, id types.ItemID, active bool) (*types.WorkItem, error)

	// Stats
	Stats(ctx context.Context, projectID types.ItemID) (*types.WorkItemStats, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".taskdeck/taskdeck.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".taskdeck/taskdeck.db",
	}
}

// NewStorage creates a new SQLite storage backend
// The ctx parameter is currently unused but kept for API consistency
// and future extension possibilities
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Path == "" {
		cfg.Path = ".taskdeck/taskdeck.db"
	}

	return sqlite.New(cfg.Path)
}
