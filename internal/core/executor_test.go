package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gen1/internal/actions"
	"gen1/internal/articulation"
	"gen1/internal/blocks"
	"gen1/internal/conversation"
	"gen1/internal/docgen"
	"gen1/internal/feedback"
	"gen1/internal/session"
	"gen1/internal/vfs"
)

type note struct {
	level Level
	msg   string
}

type recordingNotifier struct{ notes []note }

func (n *recordingNotifier) Notify(level Level, msg string) {
	n.notes = append(n.notes, note{level, msg})
}

type memorySink struct{ saved []docgen.Blob }

func (s *memorySink) Save(blob docgen.Blob) (string, error) {
	s.saved = append(s.saved, blob)
	return "artifacts/" + blob.Filename, nil
}

func newTestExecutor(t *testing.T, opts ...Option) (*Executor, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	sess := session.New(vfs.NewStore(), conversation.NewLog())
	return NewExecutor(sess, append([]Option{WithNotifier(n)}, opts...)...), n
}

func block(header string) string {
	return articulation.Delimiter + "\n```json\n" + header + "\n```\n" + articulation.Delimiter
}

func messageTypes(log *conversation.Log) []conversation.Type {
	var out []conversation.Type
	for _, m := range log.Messages() {
		out = append(out, m.Type)
	}
	return out
}

func write(path, content string) *actions.WriteFile {
	return &actions.WriteFile{Header: actions.Header{Action: actions.KindCreate}, Path: path, Content: content}
}

func TestProcessResponseCreateWithContentBlock(t *testing.T) {
	e, _ := newTestExecutor(t)
	raw := "Creating the file.\n" +
		block(`{"action":"create","path":"src/a.js","has_content_block":true}`) +
		"\nconsole.log(1);\n" + articulation.Delimiter + "\nDone."

	report, err := e.ProcessResponse(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Success)
	content, err := e.Session().Files().Read("src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1);", content)

	log := e.Session().Log()
	require.Equal(t, []conversation.Type{
		conversation.TypeText, conversation.TypeFileOp, conversation.TypeFeedback, conversation.TypeText,
	}, messageTypes(log))

	msgs := log.Messages()
	assert.True(t, msgs[0].IsHTML)
	assert.Contains(t, msgs[0].DisplayContent, "<p>Creating the file.</p>")

	op := msgs[1]
	assert.Equal(t, "created", op.ExtraData["action"])
	assert.Equal(t, "src/a.js", op.ExtraData["filename"])
	assert.Equal(t, "15 B", op.ExtraData["size"])
	assert.Equal(t, `AI performed action "create" on "src/a.js".`, op.ContentForAI)

	fb := msgs[2]
	assert.Empty(t, fb.DisplayContent)
	assert.Contains(t, fb.ContentForAI, "was SUCCESSFUL")
	assert.Contains(t, fb.ContentForAI, "Operation completed successfully.")
	assert.Equal(t, true, fb.ExtraData["success"])

	_, persisted := e.Session().Files().Conversation()
	assert.True(t, persisted)
}

func TestProcessResponseParseError(t *testing.T) {
	e, n := newTestExecutor(t)

	report, err := e.ProcessResponse(context.Background(), block(`{"action": "create", oops}`))
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParseErrors)
	assert.Empty(t, report.Results)
	msgs := e.Session().Log().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.TypeFileOpError, msgs[0].Type)
	assert.Contains(t, msgs[0].DisplayContent, "AI attempted an operation but the JSON was invalid or corrupted")
	assert.Equal(t, conversation.TypeFeedback, msgs[1].Type)
	assert.Equal(t, feedback.ParseErrorKind, msgs[1].ExtraData["operationType"])
	assert.Contains(t, msgs[1].ContentForAI, "Invalid or malformed JSON operation from AI")
	require.NotEmpty(t, n.notes)
	assert.Equal(t, note{LevelError, "AI generated invalid operation JSON."}, n.notes[0])
}

func TestProcessResponseKnownKindParseError(t *testing.T) {
	e, _ := newTestExecutor(t)

	_, err := e.ProcessResponse(context.Background(), block(`{"action":"mvfile","old_path":"a"}`))
	require.NoError(t, err)

	last, ok := e.Session().Log().Last()
	require.True(t, ok)
	assert.Equal(t, "mvfile", last.ExtraData["operationType"])
}

func TestProcessResponseOrdering(t *testing.T) {
	e, _ := newTestExecutor(t)
	raw := block(`{"action":"create","path":"a.txt","content":"one"}`) +
		block(`{"action":"mvfile","old_path":"a.txt","new_path":"b.txt"}`) +
		block(`{"action":"update","path":"b.txt","content":"two"}`)

	report, err := e.ProcessResponse(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Empty(t, report.Failed())

	files := e.Session().Files()
	assert.False(t, files.Exists("a.txt"))
	content, err := files.Read("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", content)
	assert.Equal(t, "renamed/moved file from a.txt to", report.Results[1].Label)
	assert.Equal(t, "b.txt", report.Results[1].Target)
}

func TestFileOpsDisabled(t *testing.T) {
	e, _ := newTestExecutor(t, WithSettings(Settings{FileOpsEnabled: false}))
	ctx := context.Background()

	res := e.Execute(ctx, write("a.txt", "x"), OriginAI)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrFileOpsDisabled)
	assert.Equal(t, ErrorKindDisabled, res.ErrKind)
	assert.False(t, e.Session().Files().Exists("a.txt"))

	last, _ := e.Session().Log().Last()
	assert.Equal(t, conversation.TypeFeedback, last.Type)
	assert.Equal(t, "AI file operations are currently disabled by the user.", last.ExtraData["feedbackMessage"])

	// the user can still edit files
	res = e.Execute(ctx, write("a.txt", "x"), OriginUser)
	assert.True(t, res.Success)
	assert.True(t, e.Session().Files().Exists("a.txt"))
}

func TestUserInitiatedSuccess(t *testing.T) {
	e, n := newTestExecutor(t)

	res := e.Execute(context.Background(), write("a.txt", "x"), OriginUser)
	require.True(t, res.Success)

	msgs := e.Session().Log().Messages()
	require.Len(t, msgs, 1, "no feedback for user actions")
	assert.Equal(t, conversation.TypeSystemInfo, msgs[0].Type)
	assert.Equal(t, "User initiated: Created a.txt successful.", msgs[0].DisplayContent)
	require.Len(t, n.notes, 1)
	assert.Equal(t, LevelSuccess, n.notes[0].level)
}

func TestLocalFailure(t *testing.T) {
	e, n := newTestExecutor(t)

	res := e.Execute(context.Background(), &actions.DeleteFile{Header: actions.Header{Action: actions.KindDelete}, Path: "missing.txt"}, OriginAI)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, vfs.ErrNotFound)
	assert.Equal(t, ErrorKindStore, res.ErrKind)
	assert.Equal(t, []conversation.Type{conversation.TypeFileOpError, conversation.TypeFeedback}, messageTypes(e.Session().Log()))

	last, _ := e.Session().Log().Last()
	assert.Contains(t, last.ExtraData["feedbackMessage"], "Local file operation failed: ")
	assert.Contains(t, last.ContentForAI, "was FAILED")
	require.NotEmpty(t, n.notes)
	assert.Equal(t, LevelError, n.notes[0].level)
}

func TestUserFailureSkipsFeedback(t *testing.T) {
	e, _ := newTestExecutor(t)

	res := e.Execute(context.Background(), &actions.RemoveDir{Header: actions.Header{Action: actions.KindRmdir}, Path: "none/"}, OriginUser)

	assert.False(t, res.Success)
	assert.Equal(t, []conversation.Type{conversation.TypeFileOpError}, messageTypes(e.Session().Log()))
}

func TestCodeBlockActions(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()
	files := e.Session().Files()
	_, err := files.Write("a.js", "line0\nline1\nline2")
	require.NoError(t, err)

	res := e.Execute(ctx, &actions.InsertCodeMarkers{
		Header: actions.Header{Action: actions.KindInsertCodeMarkers}, Path: "a.js", LogicName: "L", StartLine: 1, EndLine: 1,
	}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)

	start, end := blocks.Markers("L", "a.js")
	content, _ := files.Read("a.js")
	assert.Equal(t, "line0\n"+start+"\nline1\n"+end+"\nline2", content)

	res = e.Execute(ctx, &actions.UpdateCodeBlock{
		Header: actions.Header{Action: actions.KindUpdateCodeBlock}, Path: "a.js", LogicName: "L", Content: "replaced",
	}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	content, _ = files.Read("a.js")
	assert.Contains(t, content, "replaced")
	assert.NotContains(t, content, "line1")
	assert.Equal(t, "updated block", res.Label)
	assert.Contains(t, res.Metadata["diff"], "+replaced")

	var op conversation.Message
	for _, m := range e.Session().Log().Messages() {
		if m.Type == conversation.TypeFileOp {
			op = m
		}
	}
	assert.Equal(t, "L", op.ExtraData["logicName"])
}

func TestDirectoryActions(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, &actions.MakeDirs{Header: actions.Header{Action: actions.KindMkdirMultiple}, Paths: []string{"a", "b/"}}, OriginAI)
	require.True(t, res.Success)
	assert.Equal(t, "a/, b/", res.Target)

	res = e.Execute(ctx, &actions.Move{Header: actions.Header{Action: actions.KindMoveDir}, OldPath: "a/", NewPath: "c/"}, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, "renamed/moved directory from a/ to", res.Label)

	res = e.Execute(ctx, &actions.RemoveDir{Header: actions.Header{Action: actions.KindRmdir}, Path: "c"}, OriginAI)
	require.True(t, res.Success)
	assert.Equal(t, "deleted directory", res.Label)
	assert.False(t, e.Session().Files().Exists("c/"))
	assert.True(t, e.Session().Files().Exists("b/"))
}

func TestDeleteMultiple(t *testing.T) {
	e, _ := newTestExecutor(t)
	files := e.Session().Files()
	_, _ = files.Write("a.txt", "a")
	_, _ = files.Write("b.txt", "b")

	res := e.Execute(context.Background(), &actions.DeleteFiles{
		Header: actions.Header{Action: actions.KindDeleteMultiple}, Paths: []string{"a.txt", "b.txt"},
	}, OriginAI)

	require.True(t, res.Success)
	assert.Equal(t, "deleted multiple files", res.Label)
	assert.Equal(t, "a.txt, b.txt", res.Target)
	assert.Zero(t, len(files.Files()))
}

func TestCreateDocument(t *testing.T) {
	sink := &memorySink{}
	e, _ := newTestExecutor(t, WithArtifactSink(sink))

	doc := &actions.CreateDocument{
		Header:   actions.Header{Action: actions.KindCreatePDF},
		Filename: "report",
		Pages:    []docgen.Page{{Content: []docgen.Item{{Type: "text", Text: "hello"}}}},
	}
	res := e.Execute(context.Background(), doc, OriginAI)
	require.True(t, res.Success, "err: %v", res.Err)

	require.Len(t, sink.saved, 1)
	assert.Equal(t, "report.pdf", sink.saved[0].Filename)
	assert.Equal(t, "artifacts/report.pdf", res.Metadata["location"])

	msgs := e.Session().Log().Messages()
	require.Equal(t, []conversation.Type{conversation.TypeDocumentCreated, conversation.TypeFeedback}, messageTypes(e.Session().Log()))
	assert.Contains(t, msgs[0].DisplayContent, `href="artifacts/report.pdf"`)
	assert.Contains(t, msgs[1].ExtraData["feedbackMessage"], "Document report.pdf created successfully.")
}

func TestCreateDocumentWithoutSink(t *testing.T) {
	e, _ := newTestExecutor(t)
	doc := &actions.CreateDocument{
		Header:   actions.Header{Action: actions.KindCreateXLSX},
		Filename: "data",
		Sheets:   []docgen.Sheet{{Name: "S"}},
	}

	res := e.Execute(context.Background(), doc, OriginAI)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoArtifactSink)
	assert.Equal(t, ErrorKindGeneration, res.ErrKind)
	first := e.Session().Log().Messages()[0]
	assert.Equal(t, conversation.TypeDocumentError, first.Type)
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "0 B", sizeString(0))
	assert.Equal(t, "1023 B", sizeString(1023))
	assert.Equal(t, "1.0 KB", sizeString(1024))
	assert.Equal(t, "1.5 KB", sizeString(1536))
	assert.Equal(t, "2.0 MB", sizeString(2*1024*1024))
}

func TestRemoteLabels(t *testing.T) {
	assert.Equal(t, "Pushed", remoteLabel(actions.KindPush))
	assert.Equal(t, "Created Pull Request", remoteLabel(actions.KindCreatePullRequest))
	assert.Equal(t, "Performed GitHub action: get workflow runs", remoteLabel(actions.KindWorkflowRuns))
}
