package actions

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func header(t *testing.T, raw string) map[string]any {
	t.Helper()
	var h map[string]any
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		t.Fatalf("bad test header %s: %v", raw, err)
	}
	return h
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d schemas", reg.Count())
	}
}

func TestDefaultRegistryCoversEveryKind(t *testing.T) {
	reg := Default()
	for kind := range families {
		if !reg.Has(kind) {
			t.Errorf("kind %s has no schema", kind)
		}
		if got := reg.Get(kind).Family; got != kind.Family() {
			t.Errorf("%s: schema family %s, kind family %s", kind, got, kind.Family())
		}
		if newAction(kind) == nil {
			t.Errorf("%s has no variant", kind)
		}
	}
	if reg.Count() != len(families) {
		t.Errorf("registry has %d schemas, want %d", reg.Count(), len(families))
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	schema := &ActionSchema{Kind: "x_test", Family: FamilyFile}
	if err := reg.Register(schema); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(schema); !errors.Is(err, ErrSchemaAlreadyRegistered) {
		t.Fatalf("expected ErrSchemaAlreadyRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name   string
		schema *ActionSchema
	}{
		{"empty kind", &ActionSchema{Family: FamilyFile}},
		{"no family", &ActionSchema{Kind: "a"}},
		{"undeclared required", &ActionSchema{Kind: "b", Family: FamilyFile, Required: []string{"path"}}},
		{"array without items", &ActionSchema{Kind: "c", Family: FamilyFile, Properties: map[string]Property{"p": {Type: "array"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.schema); !errors.Is(err, ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		check  func(t *testing.T, a Action)
		target string
	}{
		{
			name:   "create",
			raw:    `{"action":"create","path":"src/a.go","content":"package a"}`,
			target: "src/a.go",
			check: func(t *testing.T, a Action) {
				w := a.(*WriteFile)
				if w.Content != "package a" || w.Kind() != KindCreate {
					t.Errorf("unexpected decode: %+v", w)
				}
			},
		},
		{
			name:   "mvdir targets new path",
			raw:    `{"action":"mvdir","old_path":"a/","new_path":"b/"}`,
			target: "b/",
		},
		{
			name:   "insert markers",
			raw:    `{"action":"insert_code_markers","path":"x.js","logic_name":"L","start_line":2,"end_line":5}`,
			target: "x.js",
			check: func(t *testing.T, a Action) {
				m := a.(*InsertCodeMarkers)
				if m.StartLine != 2 || m.EndLine != 5 {
					t.Errorf("lines = %d..%d", m.StartLine, m.EndLine)
				}
			},
		},
		{
			name:   "workflow id as number",
			raw:    `{"action":"github_get_workflow_logs","workflow_id":12345,"run_id":7}`,
			target: "N/A",
			check: func(t *testing.T, a Action) {
				w := a.(*WorkflowLogs)
				if w.WorkflowID != "12345" || !w.WorkflowID.Numeric() || w.RunID != 7 || w.JobID != nil {
					t.Errorf("unexpected decode: %+v", w)
				}
			},
		},
		{
			name:   "workflow id as file name",
			raw:    `{"action":"github_trigger_workflow","workflow_id":"ci.yml","inputs":{"env":"prod"}}`,
			target: "N/A",
			check: func(t *testing.T, a Action) {
				w := a.(*TriggerWorkflow)
				if w.WorkflowID.Numeric() || w.Inputs["env"] != "prod" {
					t.Errorf("unexpected decode: %+v", w)
				}
			},
		},
		{
			name:   "repo target",
			raw:    `{"action":"github_create_repo","repo_name":"demo","private":true}`,
			target: "demo",
		},
		{
			name:   "push without fields",
			raw:    `{"action":"github_push"}`,
			target: "N/A",
		},
		{
			name:   "pdf",
			raw:    `{"action":"create_pdf","filename":"r.pdf","pages":[{"content":[{"type":"text","text":"hi"}]}]}`,
			target: "r.pdf",
			check: func(t *testing.T, a Action) {
				d := a.(*CreateDocument)
				if d.Format() != "pdf" || len(d.Pages) != 1 || d.Pages[0].Content[0].Text != "hi" {
					t.Errorf("unexpected decode: %+v", d)
				}
			},
		},
		{
			name:   "directories",
			raw:    `{"action":"create_multiple_directories","paths":["a/","b/c/"]}`,
			target: "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Default().Validate(header(t, tt.raw))
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if got := a.Target(); got != tt.target {
				t.Errorf("Target() = %q, want %q", got, tt.target)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		mention string
	}{
		{"missing action", `{"path":"a"}`, ErrUnknownAction, ""},
		{"unknown action", `{"action":"format_disk"}`, ErrUnknownAction, "format_disk"},
		{"action not a string", `{"action":42}`, ErrUnknownAction, ""},
		{"missing path", `{"action":"create","content":"x"}`, ErrMissingRequiredField, "path"},
		{"numeric content not coerced", `{"action":"create","path":"a","content":5}`, ErrInvalidFieldType, "content"},
		{"optional message typed", `{"action":"update","path":"a","content":"","message":true}`, ErrInvalidFieldType, "message"},
		{"paths not an array", `{"action":"delete_multiple_files","paths":"a.txt"}`, ErrInvalidFieldType, "paths"},
		{"directory without slash", `{"action":"create_multiple_directories","paths":["a/","b"]}`, ErrInvalidFieldType, "paths"},
		{"fractional line", `{"action":"insert_code_markers","path":"a","logic_name":"L","start_line":1.5,"end_line":2}`, ErrInvalidFieldType, "start_line"},
		{"string line", `{"action":"insert_code_markers","path":"a","logic_name":"L","start_line":"1","end_line":2}`, ErrInvalidFieldType, "start_line"},
		{"empty pages", `{"action":"create_pdf","filename":"a.pdf","pages":[]}`, ErrMissingRequiredField, "pages"},
		{"content flag typed", `{"action":"create","path":"a","content":"","has_content_block":"yes"}`, ErrInvalidFieldType, "has_content_block"},
		{"run id required", `{"action":"github_get_workflow_logs","workflow_id":"ci.yml"}`, ErrMissingRequiredField, "run_id"},
		{"workflow id object", `{"action":"github_get_workflow_runs","workflow_id":{}}`, ErrInvalidFieldType, "workflow_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().Validate(header(t, tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if tt.mention != "" && !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error %q does not mention %q", err, tt.mention)
			}
		})
	}
}

func TestKindFamilies(t *testing.T) {
	tests := map[Kind]Family{
		KindCreate:            FamilyFile,
		KindMkdirMultiple:     FamilyFile,
		KindUpdateCodeBlock:   FamilyBlock,
		KindCreatePPTX:        FamilyDocument,
		KindPush:              FamilyRemote,
		KindListRepos:         FamilyRemote,
		Kind("github_unknown"): "",
	}
	for k, want := range tests {
		if got := k.Family(); got != want {
			t.Errorf("%s.Family() = %q, want %q", k, got, want)
		}
	}
	if !FamilyBlock.Local() || FamilyRemote.Local() {
		t.Error("Local() misclassifies families")
	}
	if !KindListRepos.SelfReporting() || KindPush.SelfReporting() {
		t.Error("SelfReporting() misclassifies kinds")
	}
}
