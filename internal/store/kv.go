// Package store persists projects and their file maps in SQLite.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProjectNotFound is returned for an unknown project id.
	ErrProjectNotFound = errors.New("project not found")

	// ErrRevisionConflict is returned by Put when the project changed since
	// the snapshot was read.
	ErrRevisionConflict = errors.New("project revision conflict")
)

// Project is a workspace entry.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Revision  int64
}

// Snapshot is the full file map of a project at a revision.
type Snapshot struct {
	ProjectID string
	Files     map[string]string
	Revision  int64
}

// KV is the project persistence contract: get and put a whole file map.
type KV interface {
	CreateProject(ctx context.Context, name string) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	// Get returns the files of a project and the revision they belong to.
	Get(ctx context.Context, projectID string) (Snapshot, error)

	// Put replaces the files of snap.ProjectID when snap.Revision is still
	// current and returns the new revision.
	Put(ctx context.Context, snap Snapshot) (int64, error)

	Close() error
}
