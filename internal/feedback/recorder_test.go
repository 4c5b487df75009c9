package feedback

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gen1/internal/actions"
	"gen1/internal/conversation"
	"gen1/internal/vfs"
)

func TestRecordIsHiddenButReplayed(t *testing.T) {
	store := vfs.NewStore()
	_, err := store.Write("src/main.go", "package main")
	require.NoError(t, err)

	log := conversation.NewLog()
	rec := NewRecorder(log, store)

	action := &actions.WriteFile{Header: actions.Header{Action: actions.KindCreate}, Path: "src/main.go", Content: "package main"}
	msg := rec.Record(OperationOf(action), true, "File 'src/main.go' created.")

	assert.Equal(t, conversation.TypeFeedback, msg.Type)
	assert.Equal(t, conversation.SenderSystem, msg.Sender)
	assert.Empty(t, msg.DisplayContent)
	assert.NotEmpty(t, msg.ContentForAI)
	assert.Regexp(t, `^feedback_`, msg.ID)

	assert.Empty(t, log.Rendered())
	turns := log.Replay()
	require.Len(t, turns, 1)
	assert.Equal(t, msg.ContentForAI, turns[0].Text)

	assert.Equal(t, true, msg.ExtraData["success"])
	assert.Equal(t, "create", msg.ExtraData["operationType"])
	assert.Same(t, action, msg.ExtraData["originalOperation"])
}

func TestFormat(t *testing.T) {
	got := Format(Operation{Kind: "delete", Target: "a.txt"}, false, "Local file operation failed: not found", "📄 b.txt\n")
	want := "IDE Feedback: Your previous operation (Action: \"delete\", Target: \"a.txt\") was FAILED.\n" +
		"Detailed Outcome: Local file operation failed: not found\n" +
		"Consider this feedback for future operations.\n\n" +
		"Current Project File Structure (simplified for context, max 2 levels deep, no content):\n" +
		"```\n📄 b.txt\n```\n"
	assert.Equal(t, want, got)
}

func TestFormatDefaultsTarget(t *testing.T) {
	got := Format(Operation{Kind: ParseErrorKind}, false, "bad json", "(empty project)")
	assert.Contains(t, got, `(Action: "JSON_Parse_Error", Target: "N/A")`)
	assert.Contains(t, got, "```\n(empty project)\n```")
}

func TestRecordSurvivesPersistence(t *testing.T) {
	log := conversation.NewLog()
	rec := NewRecorder(log, nil)
	rec.Record(Operation{Kind: "mkdir", Target: "d/"}, true, "ok")

	data, err := json.Marshal(log)
	require.NoError(t, err)
	back, err := conversation.Load(data)
	require.NoError(t, err)

	require.Equal(t, 1, back.Len())
	assert.Empty(t, back.Rendered())
	assert.Contains(t, back.Replay()[0].Text, "(empty project)")
}
