package remote

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrWorkflowNotFound is returned when a workflow file name does not match
// any workflow of the repository.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrNoRuns is returned when no run matches a query.
var ErrNoRuns = errors.New("no workflow runs found")

const runsPerPage = 30

// Workflow is an Actions workflow definition.
type Workflow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	State string `json:"state"`
}

// WorkflowRun is one execution of a workflow.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	HeadSHA    string    `json:"head_sha"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	RunNumber  int       `json:"run_number"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Artifact is a build artifact of a run.
type Artifact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SizeInBytes int64  `json:"size_in_bytes"`
	DownloadURL string `json:"archive_download_url"`
	Expired     bool   `json:"expired"`
}

// ResolveWorkflow turns a numeric id or a workflow file name into an id.
func (c *Client) ResolveWorkflow(ctx context.Context, repo Repo, idOrFile string) (int64, error) {
	if id, err := strconv.ParseInt(idOrFile, 10, 64); err == nil {
		return id, nil
	}
	var list struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/actions/workflows?per_page=100", repo), nil, &list); err != nil {
		return 0, fmt.Errorf("list workflows: %w", err)
	}
	want := ".github/workflows/" + strings.TrimPrefix(idOrFile, ".github/workflows/")
	for _, w := range list.Workflows {
		if w.Path == want {
			return w.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: Workflow file '%s' not found.", ErrWorkflowNotFound, idOrFile)
}

// RunsQuery filters a run listing.
type RunsQuery struct {
	Branch  string
	Status  string
	PerPage int
	Page    int
}

func (q RunsQuery) encode() string {
	v := url.Values{}
	if q.Branch != "" {
		v.Set("branch", q.Branch)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = runsPerPage
	}
	v.Set("per_page", strconv.Itoa(perPage))
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v.Encode()
}

// WorkflowRuns lists runs of a workflow, newest first.
func (c *Client) WorkflowRuns(ctx context.Context, repo Repo, workflowID int64, q RunsQuery) ([]WorkflowRun, int, error) {
	var out struct {
		TotalCount   int           `json:"total_count"`
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	path := fmt.Sprintf("/repos/%s/actions/workflows/%d/runs?%s", repo, workflowID, q.encode())
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, 0, fmt.Errorf("list runs of workflow %d: %w", workflowID, err)
	}
	return out.WorkflowRuns, out.TotalCount, nil
}

func (c *Client) latestRun(ctx context.Context, repo Repo, workflowID int64, branch, status string) (WorkflowRun, error) {
	runs, _, err := c.WorkflowRuns(ctx, repo, workflowID, RunsQuery{Branch: branch, Status: status, PerPage: 1})
	if err != nil {
		return WorkflowRun{}, err
	}
	if len(runs) == 0 {
		return WorkflowRun{}, fmt.Errorf("%w: workflow %d on branch %s with status %s", ErrNoRuns, workflowID, branch, status)
	}
	return runs[0], nil
}

// JobLogs returns the plain-text log of one job.
func (c *Client) JobLogs(ctx context.Context, repo Repo, jobID int64) (string, error) {
	data, err := c.raw(ctx, "GET", fmt.Sprintf("/repos/%s/actions/jobs/%d/logs", repo, jobID), nil)
	if err != nil {
		return "", fmt.Errorf("job %d logs: %w", jobID, err)
	}
	return string(data), nil
}

// RunLogs downloads the log archive of a run and concatenates its files in
// name order.
func (c *Client) RunLogs(ctx context.Context, repo Repo, runID int64) (string, error) {
	data, err := c.raw(ctx, "GET", fmt.Sprintf("/repos/%s/actions/runs/%d/logs", repo, runID), nil)
	if err != nil {
		return "", fmt.Errorf("run %d logs: %w", runID, err)
	}
	return concatArchive(data)
}

func concatArchive(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read log archive: %w", err)
	}
	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var sb strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		fmt.Fprintf(&sb, "===== %s =====\n%s", f.Name, body)
		if len(body) > 0 && body[len(body)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// LatestRunLogs returns the newest completed run of a workflow on branch and
// its logs.
func (c *Client) LatestRunLogs(ctx context.Context, repo Repo, workflowID int64, branch string) (WorkflowRun, string, error) {
	run, err := c.latestRun(ctx, repo, workflowID, branch, "completed")
	if err != nil {
		return WorkflowRun{}, "", err
	}
	logs, err := c.RunLogs(ctx, repo, run.ID)
	if err != nil {
		return run, "", err
	}
	return run, logs, nil
}

// DispatchWorkflow triggers a workflow_dispatch event on ref.
func (c *Client) DispatchWorkflow(ctx context.Context, repo Repo, workflowID int64, ref string, inputs map[string]any) error {
	req := map[string]any{"ref": ref}
	if len(inputs) > 0 {
		req["inputs"] = inputs
	}
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/actions/workflows/%d/dispatches", repo, workflowID), req, nil); err != nil {
		return fmt.Errorf("dispatch workflow %d: %w", workflowID, err)
	}
	return nil
}

// LatestArtifacts returns the artifacts of the newest successful run of a
// workflow on branch.
func (c *Client) LatestArtifacts(ctx context.Context, repo Repo, workflowID int64, branch string) (WorkflowRun, []Artifact, error) {
	run, err := c.latestRun(ctx, repo, workflowID, branch, "success")
	if err != nil {
		return WorkflowRun{}, nil, err
	}
	var out struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/actions/runs/%d/artifacts", repo, run.ID), nil, &out); err != nil {
		return run, nil, fmt.Errorf("list artifacts of run %d: %w", run.ID, err)
	}
	return run, out.Artifacts, nil
}
