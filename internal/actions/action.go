package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gen1/internal/docgen"
)

// Action is a validated operation request. It is a closed set: every
// implementation lives in this package.
type Action interface {
	Kind() Kind
	Family() Family
	// Target names what the action operates on for feedback and display:
	// path, else new_path, else repo_name, else "N/A".
	Target() string

	isAction()
}

// Header carries the fields shared by every action.
type Header struct {
	Action          Kind `json:"action"`
	HasContentBlock bool `json:"has_content_block,omitempty"`
}

func (h Header) Kind() Kind { return h.Action }
func (h Header) Family() Family { return h.Action.Family() }
func (Header) isAction() {}

func target(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return "N/A"
}

// WriteFile is create or update.
type WriteFile struct {
	Header
	Path    string `json:"path"`
	Content string `json:"content"`
	Message string `json:"message,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

func (a *WriteFile) Target() string { return target(a.Path) }

// DeleteFile is delete.
type DeleteFile struct {
	Header
	Path string `json:"path"`
}

func (a *DeleteFile) Target() string { return target(a.Path) }

// DeleteFiles is delete_multiple_files.
type DeleteFiles struct {
	Header
	Paths []string `json:"paths"`
}

func (a *DeleteFiles) Target() string { return "N/A" }

// MakeDir is mkdir.
type MakeDir struct {
	Header
	Path string `json:"path"`
}

func (a *MakeDir) Target() string { return target(a.Path) }

// MakeDirs is create_multiple_directories.
type MakeDirs struct {
	Header
	Paths []string `json:"paths"`
}

func (a *MakeDirs) Target() string { return "N/A" }

// RemoveDir is rmdir.
type RemoveDir struct {
	Header
	Path string `json:"path"`
}

func (a *RemoveDir) Target() string { return target(a.Path) }

// Move is mvfile or mvdir.
type Move struct {
	Header
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

func (a *Move) Target() string { return target(a.NewPath) }

// UpdateCodeBlock replaces the body of a marked logic block.
type UpdateCodeBlock struct {
	Header
	Path      string `json:"path"`
	LogicName string `json:"logic_name"`
	Content   string `json:"content"`
}

func (a *UpdateCodeBlock) Target() string { return target(a.Path) }

// InsertCodeMarkers wraps a line range in block markers.
type InsertCodeMarkers struct {
	Header
	Path      string `json:"path"`
	LogicName string `json:"logic_name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func (a *InsertCodeMarkers) Target() string { return target(a.Path) }

// CreateDocument is create_pdf, create_docx, create_xlsx or create_pptx.
type CreateDocument struct {
	Header
	Filename string           `json:"filename"`
	Pages    []docgen.Page    `json:"pages,omitempty"`
	Sections []docgen.Section `json:"sections,omitempty"`
	Sheets   []docgen.Sheet   `json:"sheets,omitempty"`
	Slides   []docgen.Slide   `json:"slides,omitempty"`
}

func (a *CreateDocument) Target() string { return target(a.Filename) }

// Format returns the document format named by the kind.
func (a *CreateDocument) Format() docgen.Format {
	switch a.Action {
	case KindCreateDOCX:
		return docgen.FormatDOCX
	case KindCreateXLSX:
		return docgen.FormatXLSX
	case KindCreatePPTX:
		return docgen.FormatPPTX
	}
	return docgen.FormatPDF
}

// Document converts the action into a generation request.
func (a *CreateDocument) Document() docgen.Document {
	return docgen.Document{
		Format:   a.Format(),
		Filename: a.Filename,
		Pages:    a.Pages,
		Sections: a.Sections,
		Sheets:   a.Sheets,
		Slides:   a.Slides,
	}
}

// Push commits the local store to the remote branch.
type Push struct {
	Header
	Message string `json:"message,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

func (a *Push) Target() string { return "N/A" }

// Pull replaces the local store with the remote branch.
type Pull struct {
	Header
	Branch string `json:"branch,omitempty"`
}

func (a *Pull) Target() string { return "N/A" }

// RemoteWriteFile is github_create_file or github_update_file.
type RemoteWriteFile struct {
	Header
	Path    string `json:"path"`
	Content string `json:"content"`
	Message string `json:"message,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

func (a *RemoteWriteFile) Target() string { return target(a.Path) }

// RemoteDeleteFile is github_delete_file.
type RemoteDeleteFile struct {
	Header
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

func (a *RemoteDeleteFile) Target() string { return target(a.Path) }

// CreateBranch is github_create_branch.
type CreateBranch struct {
	Header
	NewBranchName string `json:"new_branch_name"`
	BaseBranch    string `json:"base_branch,omitempty"`
}

func (a *CreateBranch) Target() string { return "N/A" }

// DeleteBranch is github_delete_branch.
type DeleteBranch struct {
	Header
	BranchName string `json:"branch_name"`
}

func (a *DeleteBranch) Target() string { return "N/A" }

// CreatePullRequest is github_create_pull_request.
type CreatePullRequest struct {
	Header
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
}

func (a *CreatePullRequest) Target() string { return "N/A" }

// WorkflowID identifies a workflow by numeric id or by file name.
type WorkflowID string

// UnmarshalJSON accepts a JSON string or number.
func (w *WorkflowID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WorkflowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("workflow_id must be a string or number: %w", err)
	}
	*w = WorkflowID(n.String())
	return nil
}

// Numeric reports whether the id is a numeric workflow id.
func (w WorkflowID) Numeric() bool {
	_, err := strconv.ParseInt(string(w), 10, 64)
	return err == nil
}

// WorkflowLogs is github_get_workflow_logs.
type WorkflowLogs struct {
	Header
	WorkflowID WorkflowID `json:"workflow_id"`
	RunID      int64      `json:"run_id"`
	JobID      *int64     `json:"job_id,omitempty"`
	Branch     string     `json:"branch,omitempty"`
}

func (a *WorkflowLogs) Target() string { return "N/A" }

// WorkflowQuery is github_get_latest_workflow_logs,
// github_get_workflow_runs or github_get_artifact_download_links.
type WorkflowQuery struct {
	Header
	WorkflowID WorkflowID `json:"workflow_id"`
	Branch     string     `json:"branch,omitempty"`
}

func (a *WorkflowQuery) Target() string { return "N/A" }

// TriggerWorkflow is github_trigger_workflow.
type TriggerWorkflow struct {
	Header
	WorkflowID WorkflowID     `json:"workflow_id"`
	Inputs     map[string]any `json:"inputs,omitempty"`
	Branch     string         `json:"branch,omitempty"`
}

func (a *TriggerWorkflow) Target() string { return "N/A" }

// CreateRepo is github_create_repo.
type CreateRepo struct {
	Header
	RepoName string `json:"repo_name"`
	Private  bool   `json:"private,omitempty"`
	OrgName  string `json:"org_name,omitempty"`
	Body     string `json:"body,omitempty"`
}

func (a *CreateRepo) Target() string { return target(a.RepoName) }

// DeleteRepo is github_delete_repo.
type DeleteRepo struct {
	Header
	RepoName string `json:"repo_name"`
}

func (a *DeleteRepo) Target() string { return target(a.RepoName) }

// SetSecret is github_set_secret.
type SetSecret struct {
	Header
	SecretName  string `json:"secret_name"`
	SecretValue string `json:"secret_value"`
	RepoName    string `json:"repo_name,omitempty"`
	OrgName     string `json:"org_name,omitempty"`
}

func (a *SetSecret) Target() string { return target(a.RepoName) }

// ListRepos is github_list_repos.
type ListRepos struct {
	Header
	OrgName string `json:"org_name,omitempty"`
}

func (a *ListRepos) Target() string { return "N/A" }

// newAction returns an empty variant for kind.
func newAction(kind Kind) Action {
	switch kind {
	case KindCreate, KindUpdate:
		return &WriteFile{}
	case KindDelete:
		return &DeleteFile{}
	case KindDeleteMultiple:
		return &DeleteFiles{}
	case KindMkdir:
		return &MakeDir{}
	case KindMkdirMultiple:
		return &MakeDirs{}
	case KindRmdir:
		return &RemoveDir{}
	case KindMoveFile, KindMoveDir:
		return &Move{}
	case KindUpdateCodeBlock:
		return &UpdateCodeBlock{}
	case KindInsertCodeMarkers:
		return &InsertCodeMarkers{}
	case KindCreatePDF, KindCreateDOCX, KindCreateXLSX, KindCreatePPTX:
		return &CreateDocument{}
	case KindPush:
		return &Push{}
	case KindPull:
		return &Pull{}
	case KindRemoteCreateFile, KindRemoteUpdateFile:
		return &RemoteWriteFile{}
	case KindRemoteDeleteFile:
		return &RemoteDeleteFile{}
	case KindCreateBranch:
		return &CreateBranch{}
	case KindDeleteBranch:
		return &DeleteBranch{}
	case KindCreatePullRequest:
		return &CreatePullRequest{}
	case KindWorkflowLogs:
		return &WorkflowLogs{}
	case KindLatestWorkflowLogs, KindWorkflowRuns, KindArtifactLinks:
		return &WorkflowQuery{}
	case KindTriggerWorkflow:
		return &TriggerWorkflow{}
	case KindCreateRepo:
		return &CreateRepo{}
	case KindDeleteRepo:
		return &DeleteRepo{}
	case KindSetSecret:
		return &SetSecret{}
	case KindListRepos:
		return &ListRepos{}
	}
	return nil
}

// Decode builds the typed variant for an already validated header.
func Decode(header map[string]any) (Action, error) {
	kind := kindOf(header)
	a := newAction(kind)
	if a == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	data, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action header: %w", err)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFieldType, err)
	}
	return a, nil
}

func kindOf(header map[string]any) Kind {
	s, _ := header["action"].(string)
	return Kind(s)
}
