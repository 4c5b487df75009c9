package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a KV held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	files    map[string]map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]Project),
		files:    make(map[string]map[string]string),
	}
}

func (m *MemoryStore) CreateProject(_ context.Context, name string) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Project{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	m.projects[p.ID] = p
	m.files[p.ID] = map[string]string{}
	return p, nil
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

func (m *MemoryStore) ListProjects(context.Context) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, projectID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[projectID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	files := make(map[string]string, len(m.files[projectID]))
	for k, v := range m.files[projectID] {
		files[k] = v
	}
	return Snapshot{ProjectID: projectID, Files: files, Revision: p.Revision}, nil
}

func (m *MemoryStore) Put(_ context.Context, snap Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[snap.ProjectID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrProjectNotFound, snap.ProjectID)
	}
	if p.Revision != snap.Revision {
		return 0, fmt.Errorf("%w: %s is at revision %d, write was based on %d", ErrRevisionConflict, snap.ProjectID, p.Revision, snap.Revision)
	}
	files := make(map[string]string, len(snap.Files))
	for k, v := range snap.Files {
		files[k] = v
	}
	p.Revision++
	m.projects[p.ID] = p
	m.files[p.ID] = files
	return p.Revision, nil
}

func (m *MemoryStore) Close() error { return nil }
