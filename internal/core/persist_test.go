package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gen1/internal/conversation"
	"gen1/internal/session"
	"gen1/internal/store"
	"gen1/internal/vfs"
)

// conflictKV rejects every write as a concurrent update.
type conflictKV struct {
	*store.MemoryStore
}

func (conflictKV) Put(context.Context, store.Snapshot) (int64, error) {
	return 0, store.ErrRevisionConflict
}

func openSession(t *testing.T, kv store.KV) *session.Session {
	t.Helper()
	ctx := context.Background()
	p, err := kv.CreateProject(ctx, "demo")
	require.NoError(t, err)
	sess, err := session.Open(ctx, kv, p.ID)
	require.NoError(t, err)
	return sess
}

func TestProcessResponseCommitFailureFailsAction(t *testing.T) {
	kv := conflictKV{store.NewMemoryStore()}
	e := NewExecutor(openSession(t, kv), WithNotifier(&recordingNotifier{}))

	report, err := e.ProcessResponse(context.Background(), block(`{"action":"create","path":"a.txt","content":"A"}`))

	require.ErrorIs(t, err, store.ErrRevisionConflict)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, store.ErrRevisionConflict)
	assert.Equal(t, ErrorKindPersistence, res.ErrKind)

	log := e.Session().Log()
	assert.Equal(t, []conversation.Type{conversation.TypeFileOpError, conversation.TypeFeedback}, messageTypes(log))
	last, _ := log.Last()
	assert.Contains(t, last.ContentForAI, "was FAILED")
	assert.NotContains(t, last.ContentForAI, "SUCCESSFUL")
}

func TestExecuteCommitFailureFailsAction(t *testing.T) {
	kv := conflictKV{store.NewMemoryStore()}
	e := NewExecutor(openSession(t, kv), WithNotifier(&recordingNotifier{}))

	res := e.Execute(context.Background(), write("a.txt", "A"), OriginAI)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, store.ErrRevisionConflict)
	for _, m := range e.Session().Log().Messages() {
		assert.NotEqual(t, conversation.TypeFileOp, m.Type)
	}
}

func TestMarkerContentKeepsProjectLoadable(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	sess := openSession(t, kv)
	e := NewExecutor(sess, WithNotifier(&recordingNotifier{}))

	report, err := e.ProcessResponse(ctx, block(`{"action":"create","path":"notes.txt","content":"`+vfs.DirectoryMarker+`"}`))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.ErrorIs(t, report.Results[0].Err, vfs.ErrConflict)

	reopened, err := session.Open(ctx, kv, sess.Project().ID)
	require.NoError(t, err)
	assert.False(t, reopened.Files().Exists("notes.txt"))
	assert.NotZero(t, reopened.Log().Len())
}
