package core

import (
	"fmt"
	"strings"

	"gen1/internal/actions"
	"gen1/internal/articulation"
	"gen1/internal/conversation"
)

// sizeString formats n bytes as "N B", "x.x KB" or "x.x MB".
func sizeString(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}

func textMessage(text string) conversation.Message {
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(text),
		ContentForAI:   text,
		Type:           conversation.TypeText,
		IsHTML:         true,
	}
}

func parseErrorMessage(seg articulation.Segment) conversation.Message {
	return conversation.Message{
		Sender:         conversation.SenderSystem,
		DisplayContent: "AI attempted an operation but the JSON was invalid or corrupted: " + seg.ErrorMessage,
		ContentForAI:   seg.ErrorMessage,
		Type:           conversation.TypeFileOpError,
		ExtraData: map[string]any{
			"error":      seg.ErrorMessage,
			"rawContent": seg.RawContent,
			"action":     string(seg.Kind),
		},
	}
}

// fileOpMessage is the display entry of a successful local action.
func fileOpMessage(a actions.Action, res Result) conversation.Message {
	extra := map[string]any{
		"action":   res.Label,
		"filename": res.Target,
		"success":  true,
	}
	for k, v := range res.Metadata {
		if k == "diffSummary" {
			continue
		}
		extra[k] = v
	}

	display := fmt.Sprintf("AI %s: %s", res.Label, res.Target)
	if a.Kind() == actions.KindMoveFile || a.Kind() == actions.KindMoveDir {
		display = fmt.Sprintf("AI %s %s", res.Label, res.Target)
	}
	if size, ok := res.Metadata["size"].(string); ok {
		display += " (" + size + ")"
	}
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: display,
		ContentForAI:   fmt.Sprintf("AI performed action %q on %q.", a.Kind(), res.Target),
		Type:           conversation.TypeFileOp,
		ExtraData:      extra,
	}
}

// remoteOpMessage is the display entry of a successful remote action.
func remoteOpMessage(a actions.Action, res Result) conversation.Message {
	extra := map[string]any{
		"action":  res.Label,
		"success": true,
	}
	for k, v := range res.Metadata {
		extra[k] = v
	}
	repo, _ := res.Metadata["repo"].(string)
	display := "GitHub: " + res.Label
	if repo != "" {
		display += " " + repo
	}
	if branch, _ := res.Metadata["branch"].(string); branch != "" {
		display += " (" + branch + ")"
	}
	if summary, _ := res.Metadata["summary"].(string); summary != "" {
		display += ": " + summary
	}
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: display,
		ContentForAI:   fmt.Sprintf("AI requested GitHub %s.", remoteVerb(a.Kind())),
		Type:           conversation.TypeRemoteOp,
		ExtraData:      extra,
	}
}

func failureMessage(a actions.Action, origin Origin, res Result) conversation.Message {
	typ := conversation.TypeFileOpError
	switch a.Family() {
	case actions.FamilyRemote:
		typ = conversation.TypeRemoteOpError
	case actions.FamilyDocument:
		typ = conversation.TypeDocumentError
	}

	summary := fmt.Sprintf("Failed to perform %q on %q: %v", a.Kind(), res.Target, res.Err)
	display := "Error: " + summary
	if origin == OriginUser {
		display = "User initiated: " + summary
	}
	return conversation.Message{
		Sender:         conversation.SenderSystem,
		DisplayContent: display,
		ContentForAI:   summary,
		Type:           typ,
		ExtraData: map[string]any{
			"action":    string(a.Kind()),
			"target":    res.Target,
			"error":     res.Err.Error(),
			"errorKind": string(res.ErrKind),
			"origin":    origin.String(),
			"success":   false,
		},
	}
}

// userLabel is the capitalized label used in notifications and
// user-initiated messages.
func userLabel(a actions.Action, res Result) string {
	if a.Family() == actions.FamilyRemote {
		return remoteLabel(a.Kind())
	}
	label := res.Label
	if label == "" {
		label = string(a.Kind())
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

var remoteLabels = map[string]string{
	"push":                "Pushed",
	"pull":                "Pulled",
	"create file":         "Created File",
	"update file":         "Updated File",
	"delete file":         "Deleted File",
	"create branch":       "Created Branch",
	"delete branch":       "Deleted Branch",
	"create pull request": "Created Pull Request",
	"trigger workflow":    "Triggered Workflow",
	"create repo":         "Created Repository",
	"delete repo":         "Deleted Repository",
	"set secret":          "Set Secret",
}

// remoteVerb turns github_create_branch into "create branch".
func remoteVerb(k actions.Kind) string {
	return strings.ReplaceAll(strings.TrimPrefix(string(k), "github_"), "_", " ")
}

func remoteLabel(k actions.Kind) string {
	verb := remoteVerb(k)
	if l, ok := remoteLabels[verb]; ok {
		return l
	}
	return "Performed GitHub action: " + verb
}
