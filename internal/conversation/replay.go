package conversation

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Role is the speaker of a replayed turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message as the model sees it on the next request.
type Turn struct {
	Role Role
	Text string
}

// Replay reconstructs the history sent back to the model. Operation
// displays become short sentences, structured remote results and feedback
// are sent as stored, and HTML bodies are reduced to text.
func (l *Log) Replay() []Turn {
	msgs := l.Messages()
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		role := RoleModel
		if m.Sender == SenderUser {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: replayText(m)})
	}
	return turns
}

func replayText(m Message) string {
	if m.Sender == SenderUser {
		if m.ContentForAI != "" {
			return m.ContentForAI
		}
		return m.DisplayContent
	}

	switch m.Type {
	case TypeFileOp:
		if m.ExtraData != nil {
			return fileOpSentence(m.ExtraData)
		}
	case TypeRemoteOp:
		if m.ExtraData != nil {
			return remoteOpSentence(m.ExtraData)
		}
	case TypeFileOpError, TypeDocumentError:
		return fmt.Sprintf("AI previously encountered an error with file operation: %s.", plain(m))
	case TypeRemoteOpError:
		return fmt.Sprintf("AI previously encountered an error with GitHub operation: %s.", plain(m))
	case TypeWorkflowLog, TypeWorkflowRuns, TypeArtifactLinks, TypeReposList, TypeFeedback:
		return m.ContentForAI
	}
	return plain(m)
}

func fileOpSentence(x map[string]any) string {
	action, file := str(x, "action"), str(x, "filename")
	logic := str(x, "logicName")
	switch {
	case action == "updated block" && logic != "":
		return fmt.Sprintf("AI previously updated code block %q in file %q.", logic, file)
	case action == "inserted markers" && logic != "":
		return fmt.Sprintf("AI previously inserted code block markers for %q in file %q.", logic, file)
	case str(x, "old_path") != "" && str(x, "new_path") != "":
		return fmt.Sprintf("AI previously performed action %q from %q to %q.", action, str(x, "old_path"), str(x, "new_path"))
	}
	return fmt.Sprintf("AI previously performed action %q on file %q.", action, file)
}

func remoteOpSentence(x map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI previously performed GitHub action %q on repo %q branch %q", str(x, "action"), str(x, "repo"), str(x, "branch"))
	switch {
	case str(x, "message") != "":
		fmt.Fprintf(&b, " with commit message %q", str(x, "message"))
	case str(x, "title") != "":
		fmt.Fprintf(&b, " for PR titled %q from %q to %q", str(x, "title"), str(x, "head"), str(x, "base"))
	case str(x, "new_branch_name") != "":
		fmt.Fprintf(&b, " creating branch %q from %q", str(x, "new_branch_name"), str(x, "base_branch"))
	case str(x, "branch_name") != "":
		fmt.Fprintf(&b, " deleting branch %q", str(x, "branch_name"))
	case str(x, "path") != "":
		fmt.Fprintf(&b, " targeting file %q", str(x, "path"))
	case str(x, "workflow_id") != "":
		fmt.Fprintf(&b, " targeting workflow %q", str(x, "workflow_id"))
		if run := str(x, "run_id"); run != "" {
			fmt.Fprintf(&b, ", run ID %s", run)
		}
	case str(x, "repo_name") != "":
		fmt.Fprintf(&b, " targeting repository %q", str(x, "repo_name"))
	case str(x, "secret_name") != "":
		fmt.Fprintf(&b, " targeting secret %q", str(x, "secret_name"))
	}
	b.WriteString(".")
	return b.String()
}

// str reads a display field. Numbers decoded from JSON print without a
// fractional part when whole.
func str(x map[string]any, key string) string {
	switch v := x[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func plain(m Message) string {
	if !m.IsHTML {
		return m.DisplayContent
	}
	return TextContent(m.DisplayContent)
}

// TextContent returns the concatenated text nodes of an HTML fragment.
func TextContent(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
