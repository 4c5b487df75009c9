// Package feedback records hidden outcome messages that tell the model how
// its previous operation went, together with a shallow view of the project.
package feedback

import (
	"fmt"
	"strings"

	"gen1/internal/actions"
	"gen1/internal/conversation"
	"gen1/internal/vfs"
)

// ParseErrorKind labels feedback for blocks whose header could not be read.
const ParseErrorKind = "JSON_Parse_Error"

// TreeSource renders the project tree at a given depth.
type TreeSource interface {
	Tree(depth int) string
}

// Operation describes the action the feedback is about.
type Operation struct {
	Kind   string
	Target string
	// Original is stored verbatim as extraData.originalOperation.
	Original any
}

// OperationOf describes a validated action.
func OperationOf(a actions.Action) Operation {
	return Operation{Kind: string(a.Kind()), Target: a.Target(), Original: a}
}

// Recorder appends feedback messages to a conversation log.
type Recorder struct {
	log   *conversation.Log
	tree  TreeSource
	depth int
}

// NewRecorder creates a recorder snapshotting tree at the default depth.
func NewRecorder(log *conversation.Log, tree TreeSource) *Recorder {
	return &Recorder{log: log, tree: tree, depth: vfs.DefaultTreeDepth}
}

// Record appends the feedback message for op and returns it.
func (r *Recorder) Record(op Operation, success bool, outcome string) conversation.Message {
	return r.log.Append(conversation.Message{
		Sender:       conversation.SenderSystem,
		Type:         conversation.TypeFeedback,
		ContentForAI: Format(op, success, outcome, r.snapshot()),
		ExtraData: map[string]any{
			"originalOperation": op.Original,
			"success":           success,
			"feedbackMessage":   outcome,
			"operationType":     op.Kind,
		},
	})
}

func (r *Recorder) snapshot() string {
	if r.tree == nil {
		return vfs.SimplifiedTree(nil, r.depth)
	}
	return r.tree.Tree(r.depth)
}

// Format builds the feedback text.
func Format(op Operation, success bool, outcome, tree string) string {
	status := "FAILED"
	if success {
		status = "SUCCESSFUL"
	}
	target := op.Target
	if target == "" {
		target = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IDE Feedback: Your previous operation (Action: %q, Target: %q) was %s.\n", op.Kind, target, status)
	fmt.Fprintf(&b, "Detailed Outcome: %s\n", outcome)
	b.WriteString("Consider this feedback for future operations.\n\n")
	fmt.Fprintf(&b, "Current Project File Structure (simplified for context, max %d levels deep, no content):\n", vfs.DefaultTreeDepth)
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(tree, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}
