package core

import (
	"context"

	"gen1/internal/docgen"
	"gen1/internal/remote"
)

// Level is the severity of a status notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows transient status notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(Level, string) {}

// DocumentGenerator renders a document description into a binary blob.
type DocumentGenerator interface {
	Generate(doc docgen.Document) (docgen.Blob, error)
}

// ArtifactSink stores a generated document and returns its download
// location.
type ArtifactSink interface {
	Save(blob docgen.Blob) (string, error)
}

// RemoteRepository is the GitHub surface used by remote actions.
// *remote.Client implements it.
type RemoteRepository interface {
	Push(ctx context.Context, repo remote.Repo, branch, message string, files map[string]string) (remote.PushResult, error)
	Pull(ctx context.Context, repo remote.Repo, branch string, local map[string]string) (remote.PullResult, error)

	PutFile(ctx context.Context, repo remote.Repo, path, content, message, branch string) (remote.FileResult, error)
	DeleteFile(ctx context.Context, repo remote.Repo, path, message, branch string) (remote.FileResult, error)

	CreateBranch(ctx context.Context, repo remote.Repo, name, base string) (string, error)
	DeleteBranch(ctx context.Context, repo remote.Repo, name string) error
	CreatePullRequest(ctx context.Context, repo remote.Repo, title, head, base, body string) (remote.PullRequest, error)

	ResolveWorkflow(ctx context.Context, repo remote.Repo, idOrFile string) (int64, error)
	JobLogs(ctx context.Context, repo remote.Repo, jobID int64) (string, error)
	RunLogs(ctx context.Context, repo remote.Repo, runID int64) (string, error)
	LatestRunLogs(ctx context.Context, repo remote.Repo, workflowID int64, branch string) (remote.WorkflowRun, string, error)
	WorkflowRuns(ctx context.Context, repo remote.Repo, workflowID int64, q remote.RunsQuery) ([]remote.WorkflowRun, int, error)
	DispatchWorkflow(ctx context.Context, repo remote.Repo, workflowID int64, ref string, inputs map[string]any) error
	LatestArtifacts(ctx context.Context, repo remote.Repo, workflowID int64, branch string) (remote.WorkflowRun, []remote.Artifact, error)

	CreateRepository(ctx context.Context, nr remote.NewRepository) (remote.Repository, error)
	DeleteRepository(ctx context.Context, repo remote.Repo) error
	ListRepositories(ctx context.Context, org string) ([]remote.Repository, error)
	SetSecret(ctx context.Context, scope remote.SecretScope, name, value string) error
}

var _ RemoteRepository = (*remote.Client)(nil)
