package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gen1/internal/actions"
	"gen1/internal/conversation"
	"gen1/internal/remote"
)

// configuredRepo resolves the repository from repo_name when it names an
// owner, else from the configured URL. A bare repo_name borrows the
// configured owner.
func (e *Executor) configuredRepo(repoName string) (remote.Repo, error) {
	if strings.Contains(repoName, "/") {
		repo, err := remote.ParseRepoURL(repoName)
		if err != nil {
			return remote.Repo{}, fmt.Errorf("%w: %v", ErrRemoteNotConfigured, err)
		}
		return repo, nil
	}
	repo, err := remote.ParseRepoURL(e.settings.RepoURL)
	if err != nil {
		return remote.Repo{}, fmt.Errorf("%w: %v", ErrRemoteNotConfigured, err)
	}
	if repoName != "" {
		repo.Name = repoName
	}
	return repo, nil
}

// remotePreconditions resolves the target repository and checks the
// credential. Creating or listing repositories and org secrets need no
// repository URL.
func (e *Executor) remotePreconditions(a actions.Action) (remote.Repo, error) {
	var (
		repo remote.Repo
		err  error
	)
	switch a := a.(type) {
	case *actions.CreateRepo, *actions.ListRepos:
	case *actions.SetSecret:
		if a.OrgName == "" {
			repo, err = e.configuredRepo(a.RepoName)
		}
	case *actions.DeleteRepo:
		repo, err = e.configuredRepo(a.RepoName)
	default:
		repo, err = e.configuredRepo("")
	}
	if err != nil {
		return remote.Repo{}, err
	}
	if e.settings.Token == "" {
		return remote.Repo{}, ErrMissingCredential
	}
	if e.remote == nil {
		return remote.Repo{}, fmt.Errorf("%w: no GitHub client", ErrRemoteNotConfigured)
	}
	return repo, nil
}

func (e *Executor) branchOr(b string) string {
	if b != "" {
		return b
	}
	return e.settings.Branch
}

// executeRemote runs a GitHub action.
func (e *Executor) executeRemote(ctx context.Context, a actions.Action) Result {
	res := Result{Kind: a.Kind(), Label: remoteLabel(a.Kind()), Target: a.Target(), Metadata: map[string]any{}}

	repo, err := e.remotePreconditions(a)
	if err != nil {
		res.Err = err
		res.ErrKind = ErrorKindValidation
		return res
	}
	if !repo.IsZero() {
		res.Metadata["repo"] = repo.String()
	}

	if err := e.dispatchRemote(ctx, a, repo, &res); err != nil {
		res.Err = err
		return res
	}
	res.Success = true
	return res
}

func (e *Executor) dispatchRemote(ctx context.Context, a actions.Action, repo remote.Repo, res *Result) error {
	meta := res.Metadata
	switch a := a.(type) {
	case *actions.Push:
		branch := e.branchOr(a.Branch)
		message := a.Message
		if message == "" {
			message = remote.DefaultCommitMessage(e.now())
		}
		meta["branch"], meta["message"] = branch, message
		pr, err := e.remote.Push(ctx, repo, branch, message, e.session.Files().Snapshot())
		if err != nil {
			return err
		}
		meta["changes"] = pr.Changes
		res.Target = repo.String()
		if pr.NoOp {
			meta["summary"] = "No changes to push."
			return nil
		}
		meta["commit"] = pr.CommitSHA
		meta["summary"] = fmt.Sprintf("%d change(s) committed", pr.Changes)

	case *actions.Pull:
		branch := e.branchOr(a.Branch)
		meta["branch"] = branch
		files := e.session.Files()
		pr, err := e.remote.Pull(ctx, repo, branch, files.Snapshot())
		if err != nil {
			return err
		}
		if err := files.Replace(pr.Files); err != nil {
			return fmt.Errorf("apply pulled files: %w", err)
		}
		meta["changes"] = pr.Changes
		meta["summary"] = fmt.Sprintf("%d change(s) pulled", pr.Changes)
		res.Target = repo.String()

	case *actions.RemoteWriteFile:
		branch := e.branchOr(a.Branch)
		meta["branch"], meta["path"] = branch, a.Path
		if a.Message != "" {
			meta["message"] = a.Message
		}
		fr, err := e.remote.PutFile(ctx, repo, a.Path, a.Content, a.Message, branch)
		if err != nil {
			return err
		}
		meta["commit"] = fr.CommitSHA

	case *actions.RemoteDeleteFile:
		branch := e.branchOr(a.Branch)
		meta["branch"], meta["path"] = branch, a.Path
		if a.Message != "" {
			meta["message"] = a.Message
		}
		fr, err := e.remote.DeleteFile(ctx, repo, a.Path, a.Message, branch)
		if err != nil {
			return err
		}
		meta["commit"] = fr.CommitSHA

	case *actions.CreateBranch:
		base := e.branchOr(a.BaseBranch)
		meta["new_branch_name"], meta["base_branch"] = a.NewBranchName, base
		sha, err := e.remote.CreateBranch(ctx, repo, a.NewBranchName, base)
		if err != nil {
			return err
		}
		meta["sha"] = sha
		res.Target = a.NewBranchName

	case *actions.DeleteBranch:
		meta["branch_name"] = a.BranchName
		if err := e.remote.DeleteBranch(ctx, repo, a.BranchName); err != nil {
			return err
		}
		res.Target = a.BranchName

	case *actions.CreatePullRequest:
		meta["title"], meta["head"], meta["base"] = a.Title, a.Head, a.Base
		pr, err := e.remote.CreatePullRequest(ctx, repo, a.Title, a.Head, a.Base, a.Body)
		if err != nil {
			return err
		}
		meta["number"], meta["url"] = pr.Number, pr.HTMLURL
		meta["summary"] = fmt.Sprintf("#%d %s", pr.Number, pr.HTMLURL)
		res.Target = fmt.Sprintf("#%d", pr.Number)

	case *actions.WorkflowLogs:
		return e.workflowLogs(ctx, repo, a, meta)

	case *actions.WorkflowQuery:
		return e.workflowQuery(ctx, repo, a, meta)

	case *actions.TriggerWorkflow:
		ref := e.branchOr(a.Branch)
		meta["workflow_id"], meta["branch"] = string(a.WorkflowID), ref
		id, err := e.resolveWorkflow(ctx, repo, a.WorkflowID)
		if err != nil {
			return err
		}
		if err := e.remote.DispatchWorkflow(ctx, repo, id, ref, a.Inputs); err != nil {
			return err
		}
		res.Target = string(a.WorkflowID)

	case *actions.CreateRepo:
		meta["repo_name"] = a.RepoName
		created, err := e.remote.CreateRepository(ctx, remote.NewRepository{
			Name: a.RepoName, Description: a.Body, Private: a.Private, Org: a.OrgName,
		})
		if err != nil {
			return err
		}
		meta["repo"], meta["url"] = created.FullName, created.HTMLURL
		meta["branch"] = created.DefaultBranch
		res.Target = created.FullName

	case *actions.DeleteRepo:
		meta["repo_name"] = repo.String()
		if err := e.remote.DeleteRepository(ctx, repo); err != nil {
			return err
		}
		res.Target = repo.String()

	case *actions.SetSecret:
		meta["secret_name"] = a.SecretName
		scope := remote.SecretScope{Repo: repo}
		if a.OrgName != "" {
			scope = remote.SecretScope{Org: a.OrgName}
			meta["org"] = a.OrgName
			res.Target = a.OrgName
		} else {
			res.Target = repo.String()
		}
		if err := e.remote.SetSecret(ctx, scope, a.SecretName, a.SecretValue); err != nil {
			return err
		}

	case *actions.ListRepos:
		repos, err := e.remote.ListRepositories(ctx, a.OrgName)
		if err != nil {
			return err
		}
		meta["count"] = len(repos)
		e.session.Log().Append(reposMessage(a.OrgName, repos))

	default:
		return fmt.Errorf("%w: %q is not a remote action", actions.ErrUnknownAction, a.Kind())
	}
	return nil
}

func (e *Executor) resolveWorkflow(ctx context.Context, repo remote.Repo, wf actions.WorkflowID) (int64, error) {
	id, err := e.remote.ResolveWorkflow(ctx, repo, string(wf))
	if err != nil {
		return 0, fmt.Errorf("Failed to resolve workflow ID for '%s': %w", wf, err)
	}
	return id, nil
}

func (e *Executor) workflowLogs(ctx context.Context, repo remote.Repo, a *actions.WorkflowLogs, meta map[string]any) error {
	meta["workflow_id"], meta["run_id"] = string(a.WorkflowID), a.RunID
	if _, err := e.resolveWorkflow(ctx, repo, a.WorkflowID); err != nil {
		return err
	}

	var (
		logs string
		err  error
	)
	if a.JobID != nil {
		meta["job_id"] = *a.JobID
		logs, err = e.remote.JobLogs(ctx, repo, *a.JobID)
	} else {
		logs, err = e.remote.RunLogs(ctx, repo, a.RunID)
	}
	if err != nil {
		return fmt.Errorf("Failed to fetch workflow logs for %s (Run %d): %w", a.WorkflowID, a.RunID, err)
	}
	e.session.Log().Append(workflowLogMessage(string(a.WorkflowID), a.RunID, logs))
	return nil
}

func (e *Executor) workflowQuery(ctx context.Context, repo remote.Repo, a *actions.WorkflowQuery, meta map[string]any) error {
	wf := string(a.WorkflowID)
	meta["workflow_id"] = wf
	if a.Branch != "" {
		meta["branch"] = a.Branch
	}
	id, err := e.resolveWorkflow(ctx, repo, a.WorkflowID)
	if err != nil {
		return err
	}

	log := e.session.Log()
	switch a.Kind() {
	case actions.KindLatestWorkflowLogs:
		run, logs, err := e.remote.LatestRunLogs(ctx, repo, id, a.Branch)
		if err != nil {
			return fmt.Errorf("Failed to fetch latest workflow logs for %s: %w", wf, err)
		}
		meta["run_id"] = run.ID
		log.Append(workflowLogMessage(wf, run.ID, logs))

	case actions.KindWorkflowRuns:
		runs, total, err := e.remote.WorkflowRuns(ctx, repo, id, remote.RunsQuery{Branch: a.Branch})
		if err != nil {
			return fmt.Errorf("Failed to fetch workflow runs for %s: %w", wf, err)
		}
		meta["count"], meta["total"] = len(runs), total
		log.Append(workflowRunsMessage(wf, runs, total))

	case actions.KindArtifactLinks:
		run, artifacts, err := e.remote.LatestArtifacts(ctx, repo, id, a.Branch)
		if err != nil {
			if errors.Is(err, remote.ErrNoRuns) {
				return fmt.Errorf("No successful runs found for workflow %s: %w", wf, err)
			}
			return fmt.Errorf("Failed to fetch artifacts for %s: %w", wf, err)
		}
		meta["run_id"], meta["count"] = run.ID, len(artifacts)
		log.Append(artifactsMessage(wf, run.ID, artifacts))

	default:
		return fmt.Errorf("%w: %q", actions.ErrUnknownAction, a.Kind())
	}
	return nil
}

func workflowLogMessage(wf string, runID int64, logs string) conversation.Message {
	md := fmt.Sprintf("**Workflow logs** for `%s` (run %d):\n\n```\n%s\n```", wf, runID, strings.TrimRight(logs, "\n"))
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(md),
		ContentForAI:   fmt.Sprintf("Workflow logs for %s (Run %d):\n%s", wf, runID, logs),
		Type:           conversation.TypeWorkflowLog,
		IsHTML:         true,
		ExtraData:      map[string]any{"workflow_id": wf, "run_id": runID},
	}
}

func workflowRunsMessage(wf string, runs []remote.WorkflowRun, total int) conversation.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow runs for %s (%d total):", wf, total)
	if len(runs) == 0 {
		b.WriteString("\n- none")
	}
	for _, r := range runs {
		state := r.Status
		if r.Conclusion != "" {
			state += "/" + r.Conclusion
		}
		fmt.Fprintf(&b, "\n- #%d %s [%s] on %s (run %d): %s", r.RunNumber, r.Name, state, r.HeadBranch, r.ID, r.HTMLURL)
	}
	text := b.String()
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(text),
		ContentForAI:   text,
		Type:           conversation.TypeWorkflowRuns,
		IsHTML:         true,
		ExtraData:      map[string]any{"workflow_id": wf, "total": total, "count": len(runs)},
	}
}

func artifactsMessage(wf string, runID int64, artifacts []remote.Artifact) conversation.Message {
	var b strings.Builder
	if len(artifacts) == 0 {
		fmt.Fprintf(&b, "No artifacts found for workflow %s (run %d).", wf, runID)
	} else {
		fmt.Fprintf(&b, "Artifacts for workflow %s (run %d):", wf, runID)
	}
	display := b.String()
	for _, a := range artifacts {
		size := sizeString(int(a.SizeInBytes))
		fmt.Fprintf(&b, "\n- %s (%s): %s", a.Name, size, a.DownloadURL)
		display += fmt.Sprintf("\n- [%s](%s) (%s)", a.Name, a.DownloadURL, size)
	}
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(display),
		ContentForAI:   b.String(),
		Type:           conversation.TypeArtifactLinks,
		IsHTML:         true,
		ExtraData:      map[string]any{"workflow_id": wf, "run_id": runID, "count": len(artifacts)},
	}
}

func reposMessage(org string, repos []remote.Repository) conversation.Message {
	var b strings.Builder
	b.WriteString("Repositories")
	if org != "" {
		b.WriteString(" for " + org)
	}
	b.WriteString(":")
	if len(repos) == 0 {
		b.WriteString("\n- none")
	}
	for _, r := range repos {
		vis := "public"
		if r.Private {
			vis = "private"
		}
		fmt.Fprintf(&b, "\n- %s (%s): %s", r.FullName, vis, r.HTMLURL)
	}
	text := b.String()
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(text),
		ContentForAI:   text,
		Type:           conversation.TypeReposList,
		IsHTML:         true,
		ExtraData:      map[string]any{"org": org, "count": len(repos)},
	}
}
