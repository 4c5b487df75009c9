package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gen1/internal/actions"
	"gen1/internal/conversation"
	"gen1/internal/remote"
	"gen1/internal/remote/remotetest"
)

const (
	testToken = "ghp_test"
	testRepo  = "octo/demo"
)

func newRemoteExecutor(t *testing.T) (*Executor, *remotetest.Server) {
	t.Helper()
	srv := remotetest.New(t, testToken)
	client := remote.NewClient(testToken, remote.WithBaseURL(srv.URL))
	e, _ := newTestExecutor(t,
		WithRemote(client),
		WithSettings(Settings{FileOpsEnabled: true, RepoURL: "https://github.com/" + testRepo + ".git", Token: testToken}),
	)
	return e, srv
}

func hdr(k actions.Kind) actions.Header { return actions.Header{Action: k} }

func lastOfType(log *conversation.Log, typ conversation.Type) (conversation.Message, bool) {
	msgs := log.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == typ {
			return msgs[i], true
		}
	}
	return conversation.Message{}, false
}

func TestRemotePreconditions(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		action   actions.Action
		wantErr  error
	}{
		{"missing url", Settings{Token: testToken}, &actions.Push{Header: hdr(actions.KindPush)}, ErrRemoteNotConfigured},
		{"bad url", Settings{Token: testToken, RepoURL: "not a repo"}, &actions.Pull{Header: hdr(actions.KindPull)}, ErrRemoteNotConfigured},
		{"missing token", Settings{RepoURL: "octo/demo"}, &actions.Push{Header: hdr(actions.KindPush)}, ErrMissingCredential},
		{"list repos still needs token", Settings{}, &actions.ListRepos{Header: hdr(actions.KindListRepos)}, ErrMissingCredential},
		{"org secret still needs token", Settings{}, &actions.SetSecret{Header: hdr(actions.KindSetSecret), SecretName: "S", OrgName: "acme"}, ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(t, WithSettings(tt.settings))
			res := e.Execute(context.Background(), tt.action, OriginAI)

			assert.False(t, res.Success)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Equal(t, ErrorKindValidation, res.ErrKind)
			_, ok := lastOfType(e.Session().Log(), conversation.TypeRemoteOpError)
			assert.True(t, ok)
		})
	}
}

func TestExecutePushAndPull(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	ctx := context.Background()
	srv.Seed(testRepo, "main", map[string]string{"README.md": "# demo\n"})

	_, err := e.Session().Files().Write("a.txt", "A")
	require.NoError(t, err)

	res := e.Execute(ctx, &actions.Push{Header: hdr(actions.KindPush), Message: "sync"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, 2, res.Metadata["changes"])
	assert.Equal(t, map[string]string{"a.txt": "A"}, srv.Files(testRepo, "main"))
	assert.Equal(t, "sync", srv.CommitMessage(testRepo, "main"))

	op, ok := lastOfType(e.Session().Log(), conversation.TypeRemoteOp)
	require.True(t, ok)
	assert.Equal(t, "Pushed", op.ExtraData["action"])
	assert.Equal(t, testRepo, op.ExtraData["repo"])
	assert.Equal(t, "main", op.ExtraData["branch"])
	assert.Equal(t, "AI requested GitHub push.", op.ContentForAI)

	// a second push has nothing to send
	res = e.Execute(ctx, &actions.Push{Header: hdr(actions.KindPush)}, OriginAI)
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Metadata["changes"])

	srv.Seed(testRepo, "main", map[string]string{"x.go": "package x"})
	res = e.Execute(ctx, &actions.Pull{Header: hdr(actions.KindPull)}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)

	files := e.Session().Files()
	assert.True(t, files.Exists("x.go"))
	assert.False(t, files.Exists("a.txt"))
	assert.Equal(t, 2, res.Metadata["changes"])
	_, hasConversation := files.Conversation()
	assert.True(t, hasConversation)
}

func TestExecutePushUserInitiated(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	srv.Seed(testRepo, "main", map[string]string{})
	_, _ = e.Session().Files().Write("a.txt", "A")

	res := e.Execute(context.Background(), &actions.Push{Header: hdr(actions.KindPush)}, OriginUser)
	require.True(t, res.Success, "err: %v", res.Err)

	msgs := e.Session().Log().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.TypeSystemInfo, msgs[0].Type)
	assert.Equal(t, "User initiated: Pushed octo/demo successful.", msgs[0].DisplayContent)
}

func TestExecuteWorkflowQueries(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	ctx := context.Background()
	srv.Seed(testRepo, "main", map[string]string{"a": "a"})
	srv.AddWorkflow(testRepo, 7, "ci.yml")
	srv.AddRun(testRepo, remotetest.Run{ID: 100, WorkflowID: 7, Branch: "main", Status: "completed", Conclusion: "success",
		Logs:      map[string]string{"1_build.txt": "built\n"},
		Artifacts: []remotetest.Artifact{{ID: 5, Name: "dist", Size: 1024}}})

	res := e.Execute(ctx, &actions.WorkflowQuery{Header: hdr(actions.KindWorkflowRuns), WorkflowID: "ci.yml"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	runs, ok := lastOfType(e.Session().Log(), conversation.TypeWorkflowRuns)
	require.True(t, ok)
	assert.Contains(t, runs.ContentForAI, "Workflow runs for ci.yml (1 total):")
	_, generic := lastOfType(e.Session().Log(), conversation.TypeRemoteOp)
	assert.False(t, generic, "self-reporting ops skip the generic display")

	res = e.Execute(ctx, &actions.WorkflowQuery{Header: hdr(actions.KindArtifactLinks), WorkflowID: "7"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	links, ok := lastOfType(e.Session().Log(), conversation.TypeArtifactLinks)
	require.True(t, ok)
	assert.Contains(t, links.ContentForAI, "Artifacts for workflow 7 (run 100):\n- dist (1.0 KB): ")

	res = e.Execute(ctx, &actions.WorkflowQuery{Header: hdr(actions.KindLatestWorkflowLogs), WorkflowID: "ci.yml"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	logs, ok := lastOfType(e.Session().Log(), conversation.TypeWorkflowLog)
	require.True(t, ok)
	assert.Contains(t, logs.ContentForAI, "built")

	fb, _ := lastOfType(e.Session().Log(), conversation.TypeFeedback)
	assert.Equal(t, "Successfully retrieved data.", fb.ExtraData["feedbackMessage"])
}

func TestExecuteWorkflowNotFound(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	srv.Seed(testRepo, "main", map[string]string{"a": "a"})

	res := e.Execute(context.Background(), &actions.WorkflowLogs{Header: hdr(actions.KindWorkflowLogs), WorkflowID: "nope.yml", RunID: 1}, OriginAI)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, remote.ErrWorkflowNotFound)
	assert.Contains(t, res.Err.Error(), "Failed to resolve workflow ID for 'nope.yml'")
	assert.Equal(t, ErrorKindRemote, res.ErrKind)
}

func TestExecuteBranchAndPullRequest(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	ctx := context.Background()
	srv.Seed(testRepo, "main", map[string]string{"a": "a"})

	res := e.Execute(ctx, &actions.CreateBranch{Header: hdr(actions.KindCreateBranch), NewBranchName: "feature"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.True(t, srv.HasBranch(testRepo, "feature"))

	res = e.Execute(ctx, &actions.CreatePullRequest{Header: hdr(actions.KindCreatePullRequest), Title: "T", Head: "feature", Base: "main"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	require.Len(t, srv.PullRequests(testRepo), 1)

	op, _ := lastOfType(e.Session().Log(), conversation.TypeRemoteOp)
	assert.Equal(t, "T", op.ExtraData["title"])

	res = e.Execute(ctx, &actions.DeleteBranch{Header: hdr(actions.KindDeleteBranch), BranchName: "feature"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.False(t, srv.HasBranch(testRepo, "feature"))
}

func TestExecuteListReposWithoutURL(t *testing.T) {
	srv := remotetest.New(t, testToken)
	srv.Seed(testRepo, "main", map[string]string{"a": "a"})
	e, _ := newTestExecutor(t,
		WithRemote(remote.NewClient(testToken, remote.WithBaseURL(srv.URL))),
		WithSettings(Settings{Token: testToken}),
	)

	res := e.Execute(context.Background(), &actions.ListRepos{Header: hdr(actions.KindListRepos), OrgName: "octo"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)

	list, ok := lastOfType(e.Session().Log(), conversation.TypeReposList)
	require.True(t, ok)
	assert.Contains(t, list.ContentForAI, "octo/demo")
}

func TestExecuteSetSecret(t *testing.T) {
	e, srv := newRemoteExecutor(t)
	srv.Seed(testRepo, "main", map[string]string{"a": "a"})

	res := e.Execute(context.Background(), &actions.SetSecret{Header: hdr(actions.KindSetSecret), SecretName: "TOKEN", SecretValue: "s3cret"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)

	got, ok := srv.Secret(testRepo, "TOKEN")
	require.True(t, ok)
	assert.Equal(t, "s3cret", got)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorKindNone, Classify(nil))
	assert.Equal(t, ErrorKindValidation, Classify(actions.ErrMissingRequiredField))
	assert.Equal(t, ErrorKindRemote, Classify(remote.ErrNonFastForward))
	assert.Equal(t, ErrorKindRemote, Classify(&remote.APIError{Status: 500}))
	assert.Equal(t, ErrorKindInternal, Classify(assert.AnError))
}
