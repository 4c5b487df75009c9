package remote_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gen1/internal/remote"
	"gen1/internal/remote/remotetest"
)

func TestPutAndDeleteFile(t *testing.T) {
	srv, c := setup(t)
	srv.Seed(repoName, "main", map[string]string{"a.txt": "A"})
	ctx := context.Background()

	res, err := c.PutFile(ctx, demo, "docs/new file.md", "hello", "", "main")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Create docs/new file.md", srv.CommitMessage(repoName, "main"))

	res, err = c.PutFile(ctx, demo, "a.txt", "A2", "tweak", "main")
	require.NoError(t, err)
	assert.False(t, res.Created)

	_, err = c.DeleteFile(ctx, demo, "docs/new file.md", "", "main")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.txt": "A2"}, srv.Files(repoName, "main"))

	_, err = c.DeleteFile(ctx, demo, "missing.txt", "", "main")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestBranchesAndPullRequests(t *testing.T) {
	srv, c := setup(t)
	head := srv.Seed(repoName, "main", map[string]string{"a.txt": "A"})
	ctx := context.Background()

	sha, err := c.CreateBranch(ctx, demo, "feature/x", "main")
	require.NoError(t, err)
	assert.Equal(t, head, sha)
	assert.True(t, srv.HasBranch(repoName, "feature/x"))

	pr, err := c.CreatePullRequest(ctx, demo, "Add x", "feature/x", "main", "body")
	require.NoError(t, err)
	assert.Equal(t, 1, pr.Number)
	assert.Equal(t, "https://github.com/octo/demo/pull/1", pr.HTMLURL)
	require.Len(t, srv.PullRequests(repoName), 1)

	require.NoError(t, c.DeleteBranch(ctx, demo, "feature/x"))
	assert.False(t, srv.HasBranch(repoName, "feature/x"))

	_, err = c.CreateBranch(ctx, demo, "other", "missing")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func seedWorkflows(srv *remotetest.Server) {
	srv.Seed(repoName, "main", map[string]string{"a.txt": "A"})
	srv.AddWorkflow(repoName, 7, "ci.yml")
	srv.AddRun(repoName, remotetest.Run{ID: 100, WorkflowID: 7, Branch: "main", Status: "completed", Conclusion: "success",
		Logs:      map[string]string{"2_test.txt": "ok", "1_build.txt": "built\n"},
		Artifacts: []remotetest.Artifact{{ID: 5, Name: "dist", Size: 1024}}})
	srv.AddRun(repoName, remotetest.Run{ID: 101, WorkflowID: 7, Branch: "main", Status: "completed", Conclusion: "failure",
		Logs: map[string]string{"1_build.txt": "failed"}})
	srv.AddRun(repoName, remotetest.Run{ID: 102, WorkflowID: 7, Branch: "main", Status: "in_progress"})
	srv.AddJobLog(repoName, 9, "job output")
}

func TestResolveWorkflow(t *testing.T) {
	srv, c := setup(t)
	seedWorkflows(srv)
	ctx := context.Background()

	id, err := c.ResolveWorkflow(ctx, demo, "ci.yml")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = c.ResolveWorkflow(ctx, demo, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = c.ResolveWorkflow(ctx, demo, "deploy.yml")
	assert.ErrorIs(t, err, remote.ErrWorkflowNotFound)
	assert.Contains(t, err.Error(), "Workflow file 'deploy.yml' not found.")
}

func TestWorkflowLogsAndRuns(t *testing.T) {
	srv, c := setup(t)
	seedWorkflows(srv)
	ctx := context.Background()

	runs, total, err := c.WorkflowRuns(ctx, demo, 7, remote.RunsQuery{Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(102), runs[0].ID)

	runs, _, err = c.WorkflowRuns(ctx, demo, 7, remote.RunsQuery{Branch: "main", PerPage: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(100), runs[0].ID)

	run, logs, err := c.LatestRunLogs(ctx, demo, 7, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(101), run.ID)
	assert.Equal(t, "===== 1_build.txt =====\nfailed\n", logs)

	logs, err = c.RunLogs(ctx, demo, 100)
	require.NoError(t, err)
	assert.Equal(t, "===== 1_build.txt =====\nbuilt\n===== 2_test.txt =====\nok\n", logs)

	logs, err = c.JobLogs(ctx, demo, 9)
	require.NoError(t, err)
	assert.Equal(t, "job output", logs)

	_, _, err = c.LatestRunLogs(ctx, demo, 7, "dev")
	assert.ErrorIs(t, err, remote.ErrNoRuns)
}

func TestArtifactsAndDispatch(t *testing.T) {
	srv, c := setup(t)
	seedWorkflows(srv)
	ctx := context.Background()

	run, artifacts, err := c.LatestArtifacts(ctx, demo, 7, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(100), run.ID)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "dist", artifacts[0].Name)
	assert.Equal(t, int64(1024), artifacts[0].SizeInBytes)
	assert.Contains(t, artifacts[0].DownloadURL, "/actions/artifacts/5/zip")

	require.NoError(t, c.DispatchWorkflow(ctx, demo, 7, "main", map[string]any{"env": "prod"}))
	dispatches := srv.Dispatches()
	require.Len(t, dispatches, 1)
	assert.Equal(t, "main", dispatches[0].Ref)
	assert.Equal(t, "prod", dispatches[0].Inputs["env"])
}

func TestRepositories(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	repo, err := c.CreateRepository(ctx, remote.NewRepository{Name: "fresh", Private: true})
	require.NoError(t, err)
	assert.Equal(t, "octocat/fresh", repo.FullName)
	assert.True(t, repo.Private)
	assert.Equal(t, map[string]string{"README.md": "# fresh\n"}, srv.Files("octocat/fresh", "main"))

	_, err = c.CreateRepository(ctx, remote.NewRepository{Name: "team-repo", Org: "acme"})
	require.NoError(t, err)

	mine, err := c.ListRepositories(ctx, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "fresh", mine[0].Name)

	org, err := c.ListRepositories(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, org, 1)
	assert.Equal(t, "acme/team-repo", org[0].FullName)

	require.NoError(t, c.DeleteRepository(ctx, remote.Repo{Owner: "octocat", Name: "fresh"}))
	assert.False(t, srv.HasRepo("octocat/fresh"))
}

func TestSetSecret(t *testing.T) {
	srv, c := setup(t)
	srv.Seed(repoName, "main", nil)
	ctx := context.Background()

	require.NoError(t, c.SetSecret(ctx, remote.SecretScope{Repo: demo}, "API_KEY", "s3cret"))
	got, ok := srv.Secret(repoName, "API_KEY")
	require.True(t, ok)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, c.SetSecret(ctx, remote.SecretScope{Org: "acme"}, "ORG_KEY", "shared"))
	got, ok = srv.Secret("acme", "ORG_KEY")
	require.True(t, ok)
	assert.Equal(t, "shared", got)
}

func TestSealRejectsBadKey(t *testing.T) {
	_, err := remote.Seal("not base64!", "x")
	assert.Error(t, err)

	_, err = remote.Seal(base64.StdEncoding.EncodeToString([]byte("short")), "x")
	assert.ErrorContains(t, err, "32 bytes")
}
