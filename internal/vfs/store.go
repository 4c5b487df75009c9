// Package vfs implements the project's virtual file store: a flat map from
// normalized path to file content or an empty-directory marker.
package vfs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gen1/internal/logging"
)

// Store is an in-memory virtual file store. It is safe for concurrent use;
// multi-step operations are atomic with respect to other callers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Load builds a store from persisted path/value pairs. Entries that violate
// the path/marker invariant are rejected.
func Load(raw map[string]string) (*Store, error) {
	s := NewStore()
	if err := s.Replace(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteResult reports the outcome of Write.
type WriteResult struct {
	Path    string
	Created bool
	// Previous holds the old content when the file was updated.
	Previous string
}

// Write creates or overwrites a file.
func (s *Store) Write(p, content string) (WriteResult, error) {
	p = NormalizePath(p)
	if p == "" {
		return WriteResult{}, ErrEmptyPath
	}
	if IsDir(p) {
		return WriteResult{}, fmt.Errorf("%w: %q is a directory path", ErrTypeMismatch, p)
	}
	if isReserved(p) {
		return WriteResult{}, fmt.Errorf("%w: %s", ErrReservedPath, p)
	}
	if content == DirectoryMarker {
		return WriteResult{}, fmt.Errorf("%w: content of %q is the directory marker", ErrConflict, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFileSlotLocked(p); err != nil {
		return WriteResult{}, err
	}

	prev, existed := s.entries[p]
	s.clearAncestorMarkersLocked(p)
	s.entries[p] = Entry{Path: p, Kind: KindFile, Content: content}

	logging.VFSDebug("write %s (%d bytes, created=%t)", p, len(content), !existed)
	return WriteResult{Path: p, Created: !existed, Previous: prev.Content}, nil
}

// Read returns the content of a file.
func (s *Store) Read(p string) (string, error) {
	p = NormalizePath(p)
	if p == "" {
		return "", ErrEmptyPath
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[p]
	if !ok {
		if s.dirExistsLocked(DirPath(p)) {
			return "", fmt.Errorf("%w: %q is a directory", ErrTypeMismatch, p)
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if e.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrTypeMismatch, p)
	}
	return e.Content, nil
}

// Exists reports whether p names a file, an explicit empty directory, or an
// implied directory.
func (s *Store) Exists(p string) bool {
	p = NormalizePath(p)
	if p == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entries[p]; ok {
		return true
	}
	return IsDir(p) && s.dirExistsLocked(p)
}

// Delete removes a single file.
func (s *Store) Delete(p string) error {
	p = NormalizePath(p)
	if p == "" {
		return ErrEmptyPath
	}
	if isReserved(p) {
		return fmt.Errorf("%w: %s", ErrReservedPath, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(p)
}

func (s *Store) deleteLocked(p string) error {
	if IsDir(p) {
		return fmt.Errorf("%w: %q is a directory, use rmdir", ErrTypeMismatch, p)
	}
	e, ok := s.entries[p]
	if !ok {
		if s.dirExistsLocked(p + "/") {
			return fmt.Errorf("%w: %q is a directory, use rmdir", ErrTypeMismatch, p)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if e.IsDir() {
		return fmt.Errorf("%w: %q is a directory, use rmdir", ErrTypeMismatch, p)
	}
	delete(s.entries, p)
	logging.VFSDebug("delete %s", p)
	return nil
}

// DeleteMultiple deletes each path in turn. Completed deletions are kept
// when a later one fails; the returned error joins every failure.
func (s *Store) DeleteMultiple(paths []string) (deleted []string, err error) {
	var errs []error
	for _, raw := range paths {
		p := NormalizePath(raw)
		if derr := s.Delete(p); derr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", raw, derr))
			continue
		}
		deleted = append(deleted, p)
	}
	return deleted, errors.Join(errs...)
}

// Mkdir creates an explicit empty directory. Created is false when the
// directory already existed, either as a marker or implied by content.
func (s *Store) Mkdir(p string) (created bool, err error) {
	dir := DirPath(p)
	if dir == "" {
		return false, ErrEmptyPath
	}
	if isReserved(dir) {
		return false, fmt.Errorf("%w: %s", ErrReservedPath, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirExistsLocked(dir) {
		return false, nil
	}
	if err := s.checkFileSlotLocked(strings.TrimSuffix(dir, "/")); err != nil {
		return false, err
	}
	if e, ok := s.entries[strings.TrimSuffix(dir, "/")]; ok && !e.IsDir() {
		return false, fmt.Errorf("%w: a file named %q exists", ErrConflict, e.Path)
	}

	s.clearAncestorMarkersLocked(dir)
	s.entries[dir] = Entry{Path: dir, Kind: KindEmptyDir}
	logging.VFSDebug("mkdir %s", dir)
	return true, nil
}

// MkdirAll applies Mkdir to each path. The error joins every failure.
func (s *Store) MkdirAll(paths []string) (created []string, err error) {
	var errs []error
	for _, raw := range paths {
		ok, merr := s.Mkdir(raw)
		if merr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", raw, merr))
			continue
		}
		if ok {
			created = append(created, DirPath(raw))
		}
	}
	return created, errors.Join(errs...)
}

// Rmdir removes a directory and everything beneath it, returning the number
// of entries removed.
func (s *Store) Rmdir(p string) (int, error) {
	dir := DirPath(p)
	if dir == "" {
		return 0, ErrEmptyPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[strings.TrimSuffix(dir, "/")]; ok && !e.IsDir() {
		return 0, fmt.Errorf("%w: %q is a file, use delete", ErrTypeMismatch, e.Path)
	}

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, dir) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	logging.VFSDebug("rmdir %s (%d entries)", dir, removed)
	return removed, nil
}

// RenameFile moves a single file.
func (s *Store) RenameFile(oldPath, newPath string) error {
	oldPath = NormalizePath(oldPath)
	newPath = NormalizePath(newPath)
	if oldPath == "" || newPath == "" {
		return ErrEmptyPath
	}
	if IsDir(oldPath) {
		return fmt.Errorf("%w: source %q is a directory", ErrTypeMismatch, oldPath)
	}
	if IsDir(newPath) {
		return fmt.Errorf("%w: destination %q is a directory path", ErrTypeMismatch, newPath)
	}
	if isReserved(oldPath) || isReserved(newPath) {
		return fmt.Errorf("%w: %s", ErrReservedPath, ConversationFile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[oldPath]
	if !ok {
		if s.dirExistsLocked(oldPath + "/") {
			return fmt.Errorf("%w: source %q is a directory", ErrTypeMismatch, oldPath)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, oldPath)
	}
	if e.IsDir() {
		return fmt.Errorf("%w: source %q is a directory", ErrTypeMismatch, oldPath)
	}
	if oldPath == newPath {
		return nil
	}
	if _, taken := s.entries[newPath]; taken {
		return fmt.Errorf("%w: destination %q already exists", ErrConflict, newPath)
	}
	if err := s.checkFileSlotLocked(newPath); err != nil {
		return err
	}

	delete(s.entries, oldPath)
	s.clearAncestorMarkersLocked(newPath)
	s.entries[newPath] = Entry{Path: newPath, Kind: KindFile, Content: e.Content}
	logging.VFSDebug("mvfile %s -> %s", oldPath, newPath)
	return nil
}

// RenameDir moves every entry under oldPath to newPath, keeping suffixes.
// It returns the number of entries moved.
func (s *Store) RenameDir(oldPath, newPath string) (int, error) {
	oldDir := DirPath(oldPath)
	newDir := DirPath(newPath)
	if oldDir == "" || newDir == "" {
		return 0, ErrEmptyPath
	}
	if oldDir == newDir {
		return 0, nil
	}
	if strings.HasPrefix(newDir, oldDir) {
		return 0, fmt.Errorf("%w: %s into %s", ErrCycle, oldDir, newDir)
	}
	if isReserved(newDir) {
		return 0, fmt.Errorf("%w: %s", ErrReservedPath, newDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var moving []Entry
	for key, e := range s.entries {
		if strings.HasPrefix(key, oldDir) {
			moving = append(moving, e)
		}
	}
	if len(moving) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, oldDir)
	}
	for key := range s.entries {
		if strings.HasPrefix(key, newDir) && !strings.HasPrefix(key, oldDir) {
			return 0, fmt.Errorf("%w: destination %q is not empty", ErrConflict, newDir)
		}
	}
	if err := s.checkFileSlotLocked(strings.TrimSuffix(newDir, "/")); err != nil {
		return 0, err
	}
	if e, ok := s.entries[strings.TrimSuffix(newDir, "/")]; ok && !e.IsDir() {
		return 0, fmt.Errorf("%w: a file named %q exists", ErrConflict, e.Path)
	}

	// Delete first so moved entries never collide with their own sources.
	for _, e := range moving {
		delete(s.entries, e.Path)
	}
	s.clearAncestorMarkersLocked(newDir)
	for _, e := range moving {
		e.Path = newDir + strings.TrimPrefix(e.Path, oldDir)
		s.entries[e.Path] = e
	}
	logging.VFSDebug("mvdir %s -> %s (%d entries)", oldDir, newDir, len(moving))
	return len(moving), nil
}

// List returns every stored path in sorted order, including markers and
// the reserved conversation file.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns the content of every project file, excluding markers and the
// reserved conversation file.
func (s *Store) Files() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.entries))
	for p, e := range s.entries {
		if e.IsDir() || isReserved(p) {
			continue
		}
		out[p] = e.Content
	}
	return out
}

// Snapshot returns a copy of the persisted form of the store.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.entries))
	for p, e := range s.entries {
		out[p] = e.Raw()
	}
	return out
}

// Replace swaps the whole content of the store. The input is validated
// before anything changes. The reserved conversation file is kept when the
// input does not carry it.
func (s *Store) Replace(raw map[string]string) error {
	next := make(map[string]Entry, len(raw))
	for p, v := range raw {
		e, err := EntryAt(p, v)
		if err != nil {
			return err
		}
		next[e.Path] = e
	}
	for p, e := range next {
		if !e.IsDir() {
			continue
		}
		for q := range next {
			if q != p && strings.HasPrefix(q, p) {
				// a marker under content is implied; drop it
				delete(next, p)
				break
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.entries[ConversationFile]; ok {
		if _, incoming := next[ConversationFile]; !incoming {
			next[ConversationFile] = conv
		}
	}
	s.entries = next
	logging.VFSDebug("replace: %d entries", len(next))
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Conversation returns the raw serialized conversation log.
func (s *Store) Conversation() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[ConversationFile]
	return e.Content, ok
}

// SetConversation stores the serialized conversation log.
func (s *Store) SetConversation(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ConversationFile] = Entry{Path: ConversationFile, Kind: KindFile, Content: data}
}

// dirExistsLocked reports whether dir (trailing slash) is an explicit marker
// or implied by any entry under it.
func (s *Store) dirExistsLocked(dir string) bool {
	if _, ok := s.entries[dir]; ok {
		return true
	}
	for key := range s.entries {
		if strings.HasPrefix(key, dir) {
			return true
		}
	}
	return false
}

// checkFileSlotLocked rejects a file path that collides with a directory or
// sits under an existing file.
func (s *Store) checkFileSlotLocked(p string) error {
	if s.dirExistsLocked(p + "/") {
		return fmt.Errorf("%w: %q is an existing directory", ErrConflict, p)
	}
	for _, anc := range Ancestors(p) {
		if e, ok := s.entries[strings.TrimSuffix(anc, "/")]; ok && !e.IsDir() {
			return fmt.Errorf("%w: ancestor %q is a file", ErrConflict, e.Path)
		}
	}
	return nil
}

func (s *Store) clearAncestorMarkersLocked(p string) {
	for _, anc := range Ancestors(p) {
		if e, ok := s.entries[anc]; ok && e.IsDir() {
			delete(s.entries, anc)
		}
	}
}
