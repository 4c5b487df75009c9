// Package session holds the state of one open project: its file store, its
// conversation log, and the revision they were loaded at.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gen1/internal/conversation"
	"gen1/internal/logging"
	"gen1/internal/store"
	"gen1/internal/vfs"
)

// Session is the explicit per-project state passed to the executor and the
// CLI. Callers serialize mutations with Lock.
type Session struct {
	mu sync.Mutex

	kv       store.KV
	project  store.Project
	files    *vfs.Store
	log      *conversation.Log
	revision int64
}

// Open loads a project from kv. A corrupt conversation file is reported
// as an error rather than silently discarded.
func Open(ctx context.Context, kv store.KV, projectID string) (*Session, error) {
	timer := logging.StartTimer(logging.CategorySession, "Open")
	defer timer.Stop()

	project, err := kv.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s := &Session{kv: kv, project: project}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	logging.Session("Opened project %s (%s): %d entries, %d messages, revision %d",
		project.ID, project.Name, s.files.Len(), s.log.Len(), s.revision)
	return s, nil
}

// New opens a session without persistence, for tests and one-shot runs.
func New(files *vfs.Store, log *conversation.Log) *Session {
	if files == nil {
		files = vfs.NewStore()
	}
	if log == nil {
		log = conversation.NewLog()
	}
	return &Session{files: files, log: log}
}

func (s *Session) load(ctx context.Context) error {
	snap, err := s.kv.Get(ctx, s.project.ID)
	if err != nil {
		return err
	}
	files, err := vfs.Load(snap.Files)
	if err != nil {
		return fmt.Errorf("load project files: %w", err)
	}
	var log *conversation.Log
	if raw, ok := files.Conversation(); ok {
		log, err = conversation.Load([]byte(raw))
		if err != nil {
			return err
		}
	} else {
		log = conversation.NewLog()
	}
	s.files, s.log, s.revision = files, log, snap.Revision
	return nil
}

// Lock serializes response processing and action execution.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases Lock.
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) Project() store.Project { return s.project }
func (s *Session) Files() *vfs.Store      { return s.files }
func (s *Session) Log() *conversation.Log { return s.log }
func (s *Session) Revision() int64        { return s.revision }
func (s *Session) Persistent() bool       { return s.kv != nil }

// Commit serializes the conversation into the reserved file and writes the
// whole file map once. A concurrent writer makes it fail with
// store.ErrRevisionConflict; the in-memory state is left untouched.
func (s *Session) Commit(ctx context.Context) error {
	data, err := s.log.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	s.files.SetConversation(string(data))
	if s.kv == nil {
		return nil
	}

	rev, err := s.kv.Put(ctx, store.Snapshot{
		ProjectID: s.project.ID,
		Files:     s.files.Snapshot(),
		Revision:  s.revision,
	})
	if err != nil {
		if errors.Is(err, store.ErrRevisionConflict) {
			logging.SessionWarn("Commit of %s rejected: %v", s.project.ID, err)
		}
		return err
	}
	s.revision = rev
	logging.SessionDebug("Committed %s at revision %d", s.project.ID, rev)
	return nil
}

// Reload discards the in-memory state and reads the latest revision.
func (s *Session) Reload(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	return s.load(ctx)
}
