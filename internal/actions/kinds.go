package actions

// Kind is the action discriminator carried in the "action" header field.
type Kind string

// Local file kinds.
const (
	KindCreate            Kind = "create"
	KindUpdate            Kind = "update"
	KindDelete            Kind = "delete"
	KindDeleteMultiple    Kind = "delete_multiple_files"
	KindMkdir             Kind = "mkdir"
	KindMkdirMultiple     Kind = "create_multiple_directories"
	KindRmdir             Kind = "rmdir"
	KindMoveFile          Kind = "mvfile"
	KindMoveDir           Kind = "mvdir"
	KindUpdateCodeBlock   Kind = "update_code_block"
	KindInsertCodeMarkers Kind = "insert_code_markers"
)

// Document kinds.
const (
	KindCreatePDF  Kind = "create_pdf"
	KindCreateDOCX Kind = "create_docx"
	KindCreateXLSX Kind = "create_xlsx"
	KindCreatePPTX Kind = "create_pptx"
)

// Remote repository kinds.
const (
	KindPush               Kind = "github_push"
	KindPull               Kind = "github_pull"
	KindRemoteCreateFile   Kind = "github_create_file"
	KindRemoteUpdateFile   Kind = "github_update_file"
	KindRemoteDeleteFile   Kind = "github_delete_file"
	KindCreateBranch       Kind = "github_create_branch"
	KindDeleteBranch       Kind = "github_delete_branch"
	KindCreatePullRequest  Kind = "github_create_pull_request"
	KindWorkflowLogs       Kind = "github_get_workflow_logs"
	KindLatestWorkflowLogs Kind = "github_get_latest_workflow_logs"
	KindWorkflowRuns       Kind = "github_get_workflow_runs"
	KindTriggerWorkflow    Kind = "github_trigger_workflow"
	KindArtifactLinks      Kind = "github_get_artifact_download_links"
	KindCreateRepo         Kind = "github_create_repo"
	KindDeleteRepo         Kind = "github_delete_repo"
	KindSetSecret          Kind = "github_set_secret"
	KindListRepos          Kind = "github_list_repos"
)

// Family groups kinds by the subsystem that executes them.
type Family string

const (
	FamilyFile     Family = "file"
	FamilyBlock    Family = "block"
	FamilyDocument Family = "document"
	FamilyRemote   Family = "remote"
)

// Local reports whether the family mutates the local store.
func (f Family) Local() bool {
	return f == FamilyFile || f == FamilyBlock
}

var families = map[Kind]Family{
	KindCreate: FamilyFile, KindUpdate: FamilyFile, KindDelete: FamilyFile,
	KindDeleteMultiple: FamilyFile, KindMkdir: FamilyFile, KindMkdirMultiple: FamilyFile,
	KindRmdir: FamilyFile, KindMoveFile: FamilyFile, KindMoveDir: FamilyFile,

	KindUpdateCodeBlock: FamilyBlock, KindInsertCodeMarkers: FamilyBlock,

	KindCreatePDF: FamilyDocument, KindCreateDOCX: FamilyDocument,
	KindCreateXLSX: FamilyDocument, KindCreatePPTX: FamilyDocument,

	KindPush: FamilyRemote, KindPull: FamilyRemote,
	KindRemoteCreateFile: FamilyRemote, KindRemoteUpdateFile: FamilyRemote, KindRemoteDeleteFile: FamilyRemote,
	KindCreateBranch: FamilyRemote, KindDeleteBranch: FamilyRemote, KindCreatePullRequest: FamilyRemote,
	KindWorkflowLogs: FamilyRemote, KindLatestWorkflowLogs: FamilyRemote, KindWorkflowRuns: FamilyRemote,
	KindTriggerWorkflow: FamilyRemote, KindArtifactLinks: FamilyRemote,
	KindCreateRepo: FamilyRemote, KindDeleteRepo: FamilyRemote, KindSetSecret: FamilyRemote,
	KindListRepos: FamilyRemote,
}

// Family returns the family of k, or "" for an unknown kind.
func (k Kind) Family() Family {
	return families[k]
}

// Known reports whether k is a defined kind.
func (k Kind) Known() bool {
	_, ok := families[k]
	return ok
}

// SelfReporting reports whether the kind produces its own rich message
// instead of the generic operation display.
func (k Kind) SelfReporting() bool {
	switch k {
	case KindWorkflowLogs, KindLatestWorkflowLogs, KindWorkflowRuns, KindArtifactLinks, KindListRepos:
		return true
	}
	return false
}
