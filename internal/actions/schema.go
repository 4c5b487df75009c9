package actions

import (
	"encoding/json"
	"fmt"
)

// Property describes a single header field.
type Property struct {
	// Type is a JSON Schema type name. AltTypes lists further accepted
	// types, as for workflow ids given as name or number.
	Type        string
	AltTypes    []string
	Description string
	// Items describes array elements (required for Type="array").
	Items *PropertyItems
	// MinItems is the minimum array length.
	MinItems int
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type    string
	Pattern string
}

// ActionSchema defines the header fields accepted by one action kind.
type ActionSchema struct {
	Kind        Kind
	Family      Family
	Description string
	Required    []string
	Properties  map[string]Property
}

// Validate checks that the schema definition itself is well formed.
func (s *ActionSchema) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("%w: kind is empty", ErrInvalidSchema)
	}
	if s.Family == "" {
		return fmt.Errorf("%w: %s has no family", ErrInvalidSchema, s.Kind)
	}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("%w: %s requires undeclared field %q", ErrInvalidSchema, s.Kind, name)
		}
	}
	for name, p := range s.Properties {
		if p.Type == "array" && p.Items == nil {
			return fmt.Errorf("%w: %s.%s is an array without items", ErrInvalidSchema, s.Kind, name)
		}
	}
	return nil
}

// JSONSchema renders the schema as a JSON Schema document. The action
// discriminator and the content-block flag are added to every kind.
func (s *ActionSchema) JSONSchema() ([]byte, error) {
	props := map[string]any{
		"action":            map[string]any{"const": string(s.Kind)},
		"has_content_block": map[string]any{"type": "boolean"},
	}
	for name, p := range s.Properties {
		props[name] = p.jsonSchema()
	}

	required := append([]string{"action"}, s.Required...)
	doc := map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
	return json.Marshal(doc)
}

func (p Property) jsonSchema() map[string]any {
	m := map[string]any{}
	if len(p.AltTypes) > 0 {
		m["type"] = append([]string{p.Type}, p.AltTypes...)
	} else {
		m["type"] = p.Type
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Items != nil {
		items := map[string]any{"type": p.Items.Type}
		if p.Items.Pattern != "" {
			items["pattern"] = p.Items.Pattern
		}
		m["items"] = items
	}
	if p.MinItems > 0 {
		m["minItems"] = p.MinItems
	}
	return m
}

var (
	strProp    = Property{Type: "string"}
	intProp    = Property{Type: "integer"}
	boolProp   = Property{Type: "boolean"}
	objectProp = Property{Type: "object"}
	workflowID = Property{Type: "string", AltTypes: []string{"number"}, Description: "Workflow id or file name"}
)

func props(kv ...any) map[string]Property {
	m := make(map[string]Property, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1].(Property)
	}
	return m
}

func nonEmptyArray(desc string) Property {
	return Property{Type: "array", Items: &PropertyItems{Type: "object"}, MinItems: 1, Description: desc}
}

// DefaultSchemas returns the schema of every supported action kind.
func DefaultSchemas() []*ActionSchema {
	writeProps := props("path", strProp, "content", strProp, "message", strProp, "branch", strProp)
	stringArray := Property{Type: "array", Items: &PropertyItems{Type: "string"}}
	dirArray := Property{Type: "array", Items: &PropertyItems{Type: "string", Pattern: "/$"}, Description: "Directory paths ending in /"}

	return []*ActionSchema{
		{Kind: KindCreate, Family: FamilyFile, Description: "Create a file", Required: []string{"path", "content"}, Properties: writeProps},
		{Kind: KindUpdate, Family: FamilyFile, Description: "Overwrite a file", Required: []string{"path", "content"}, Properties: writeProps},
		{Kind: KindDelete, Family: FamilyFile, Description: "Delete a file", Required: []string{"path"}, Properties: props("path", strProp, "message", strProp, "branch", strProp)},
		{Kind: KindDeleteMultiple, Family: FamilyFile, Description: "Delete several files", Required: []string{"paths"}, Properties: props("paths", stringArray)},
		{Kind: KindMkdir, Family: FamilyFile, Description: "Create a directory", Required: []string{"path"}, Properties: props("path", strProp)},
		{Kind: KindMkdirMultiple, Family: FamilyFile, Description: "Create several directories", Required: []string{"paths"}, Properties: props("paths", dirArray)},
		{Kind: KindRmdir, Family: FamilyFile, Description: "Remove a directory tree", Required: []string{"path"}, Properties: props("path", strProp)},
		{Kind: KindMoveFile, Family: FamilyFile, Description: "Rename or move a file", Required: []string{"old_path", "new_path"}, Properties: props("old_path", strProp, "new_path", strProp)},
		{Kind: KindMoveDir, Family: FamilyFile, Description: "Rename or move a directory", Required: []string{"old_path", "new_path"}, Properties: props("old_path", strProp, "new_path", strProp)},

		{Kind: KindUpdateCodeBlock, Family: FamilyBlock, Description: "Replace a marked logic block", Required: []string{"path", "logic_name", "content"},
			Properties: props("path", strProp, "logic_name", strProp, "content", strProp)},
		{Kind: KindInsertCodeMarkers, Family: FamilyBlock, Description: "Mark a line range as a logic block", Required: []string{"path", "logic_name", "start_line", "end_line"},
			Properties: props("path", strProp, "logic_name", strProp, "start_line", intProp, "end_line", intProp)},

		{Kind: KindCreatePDF, Family: FamilyDocument, Description: "Generate a PDF", Required: []string{"filename", "pages"}, Properties: props("filename", strProp, "pages", nonEmptyArray("Pages"))},
		{Kind: KindCreateDOCX, Family: FamilyDocument, Description: "Generate a DOCX", Required: []string{"filename", "sections"}, Properties: props("filename", strProp, "sections", nonEmptyArray("Sections"))},
		{Kind: KindCreateXLSX, Family: FamilyDocument, Description: "Generate an XLSX", Required: []string{"filename", "sheets"}, Properties: props("filename", strProp, "sheets", nonEmptyArray("Sheets"))},
		{Kind: KindCreatePPTX, Family: FamilyDocument, Description: "Generate a PPTX", Required: []string{"filename", "slides"},
			Properties: props("filename", strProp, "slides", nonEmptyArray("Slides"), "masters", Property{Type: "array", Items: &PropertyItems{Type: "object"}})},

		{Kind: KindPush, Family: FamilyRemote, Description: "Commit the project to the remote branch", Properties: props("message", strProp, "branch", strProp)},
		{Kind: KindPull, Family: FamilyRemote, Description: "Replace the project with the remote branch", Properties: props("branch", strProp)},
		{Kind: KindRemoteCreateFile, Family: FamilyRemote, Description: "Create a remote file", Required: []string{"path", "content"}, Properties: writeProps},
		{Kind: KindRemoteUpdateFile, Family: FamilyRemote, Description: "Update a remote file", Required: []string{"path", "content"}, Properties: writeProps},
		{Kind: KindRemoteDeleteFile, Family: FamilyRemote, Description: "Delete a remote file", Required: []string{"path"}, Properties: props("path", strProp, "message", strProp, "branch", strProp)},
		{Kind: KindCreateBranch, Family: FamilyRemote, Description: "Create a branch", Required: []string{"new_branch_name"}, Properties: props("new_branch_name", strProp, "base_branch", strProp, "branch", strProp)},
		{Kind: KindDeleteBranch, Family: FamilyRemote, Description: "Delete a branch", Required: []string{"branch_name"}, Properties: props("branch_name", strProp, "branch", strProp)},
		{Kind: KindCreatePullRequest, Family: FamilyRemote, Description: "Open a pull request", Required: []string{"title", "head", "base"},
			Properties: props("title", strProp, "head", strProp, "base", strProp, "body", strProp, "branch", strProp)},
		{Kind: KindWorkflowLogs, Family: FamilyRemote, Description: "Fetch run or job logs", Required: []string{"workflow_id", "run_id"},
			Properties: props("workflow_id", workflowID, "run_id", intProp, "job_id", intProp, "branch", strProp)},
		{Kind: KindLatestWorkflowLogs, Family: FamilyRemote, Description: "Fetch logs of the latest completed run", Required: []string{"workflow_id"}, Properties: props("workflow_id", workflowID, "branch", strProp)},
		{Kind: KindWorkflowRuns, Family: FamilyRemote, Description: "List workflow runs", Required: []string{"workflow_id"}, Properties: props("workflow_id", workflowID, "branch", strProp)},
		{Kind: KindTriggerWorkflow, Family: FamilyRemote, Description: "Dispatch a workflow", Required: []string{"workflow_id"}, Properties: props("workflow_id", workflowID, "inputs", objectProp, "branch", strProp)},
		{Kind: KindArtifactLinks, Family: FamilyRemote, Description: "Link artifacts of the latest successful run", Required: []string{"workflow_id"}, Properties: props("workflow_id", workflowID, "branch", strProp)},
		{Kind: KindCreateRepo, Family: FamilyRemote, Description: "Create a repository", Required: []string{"repo_name"},
			Properties: props("repo_name", strProp, "private", boolProp, "org_name", strProp, "body", strProp, "branch", strProp)},
		{Kind: KindDeleteRepo, Family: FamilyRemote, Description: "Delete a repository", Required: []string{"repo_name"}, Properties: props("repo_name", strProp, "branch", strProp)},
		{Kind: KindSetSecret, Family: FamilyRemote, Description: "Set an actions secret", Required: []string{"secret_name", "secret_value"},
			Properties: props("secret_name", strProp, "secret_value", strProp, "repo_name", strProp, "org_name", strProp, "branch", strProp)},
		{Kind: KindListRepos, Family: FamilyRemote, Description: "List repositories", Properties: props("org_name", strProp, "branch", strProp)},
	}
}
