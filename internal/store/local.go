package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"gen1/internal/logging"
)

// Drivers accepted by OpenLocalStore.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// LocalStore implements KV on a SQLite database.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	now    func() time.Time
}

// NewLocalStore opens the database at path with the pure Go driver.
func NewLocalStore(path string) (*LocalStore, error) {
	return OpenLocalStore(DriverModernc, path)
}

// OpenLocalStore opens or creates the database at path with driver.
// ":memory:" opens a private in-memory database.
func OpenLocalStore(driver, path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "OpenLocalStore")
	defer timer.Stop()

	switch driver {
	case "":
		driver = DriverModernc
	case DriverModernc, DriverMattn:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	logging.Store("Opening project store at %s (driver %s)", path, driver)

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("Failed to apply %q: %v", pragma, err)
		}
	}

	if err := initialize(context.Background(), db); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	return &LocalStore{db: db, dbPath: path, now: time.Now}, nil
}

// Close closes the database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// CreateProject inserts a project with a fresh UUID.
func (s *LocalStore) CreateProject(ctx context.Context, name string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Project{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, created_at, revision) VALUES (?, ?, ?, 0)",
		p.ID, p.Name, p.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	logging.Store("Created project %s (%s)", p.ID, name)
	return p, nil
}

// GetProject returns one project.
func (s *LocalStore) GetProject(ctx context.Context, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at, revision FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, err
}

// ListProjects returns all projects, oldest first.
func (s *LocalStore) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, revision FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var (
		p       Project
		created string
	)
	if err := row.Scan(&p.ID, &p.Name, &created, &p.Revision); err != nil {
		return Project{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Project{}, fmt.Errorf("project %s: bad created_at %q: %w", p.ID, created, err)
	}
	p.CreatedAt = t
	return p, nil
}

// Get returns the current files of a project.
func (s *LocalStore) Get(ctx context.Context, projectID string) (Snapshot, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Get")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{ProjectID: projectID, Files: make(map[string]string)}
	err := s.db.QueryRowContext(ctx, "SELECT revision FROM projects WHERE id = ?", projectID).Scan(&snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read project: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path, content FROM project_files WHERE project_id = ?", projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path, content string
		if err := rows.Scan(&path, &content); err != nil {
			return Snapshot{}, err
		}
		snap.Files[path] = content
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	logging.StoreDebug("Loaded %d files for %s at revision %d", len(snap.Files), projectID, snap.Revision)
	return snap, nil
}

// Put replaces the file map in one transaction. The write only happens when
// the stored revision still equals snap.Revision.
func (s *LocalStore) Put(ctx context.Context, snap Snapshot) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Put")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	next := snap.Revision + 1
	res, err := tx.ExecContext(ctx, "UPDATE projects SET revision = ? WHERE id = ? AND revision = ?",
		next, snap.ProjectID, snap.Revision)
	if err != nil {
		return 0, fmt.Errorf("bump revision: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var current int64
		err := tx.QueryRowContext(ctx, "SELECT revision FROM projects WHERE id = ?", snap.ProjectID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrProjectNotFound, snap.ProjectID)
		}
		logging.StoreWarn("Rejected stale write to %s: have revision %d, stored %d", snap.ProjectID, snap.Revision, current)
		return 0, fmt.Errorf("%w: %s is at revision %d, write was based on %d", ErrRevisionConflict, snap.ProjectID, current, snap.Revision)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM project_files WHERE project_id = ?", snap.ProjectID); err != nil {
		return 0, fmt.Errorf("clear files: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO project_files (project_id, path, content) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	paths := make([]string, 0, len(snap.Files))
	for p := range snap.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, snap.ProjectID, p, snap.Files[p]); err != nil {
			return 0, fmt.Errorf("write %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logging.StoreDebug("Stored %d files for %s at revision %d", len(paths), snap.ProjectID, next)
	return next, nil
}
