// Package conversation holds the ordered chat log of a project: what the
// user sees, what the model is replayed, and how both are persisted.
package conversation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Type is the display and replay category of a message.
type Type string

const (
	TypeText       Type = "text"
	TypeSystemInfo Type = "system-info"

	TypeFileOp      Type = "ai-file-op"
	TypeFileOpError Type = "ai-file-op-error"

	TypeRemoteOp      Type = "github-op-display"
	TypeRemoteOpError Type = "github-op-error"
	TypeWorkflowLog   Type = "github-workflow-log"
	TypeWorkflowRuns  Type = "github-workflow-runs-list"
	TypeArtifactLinks Type = "github-artifact-links"
	TypeReposList     Type = "github-repos-list"

	TypeDocumentCreated Type = "document-creation-success"
	TypeDocumentError   Type = "document-creation-error"

	TypeFeedback Type = "feedback"
)

// IsError reports whether t is one of the error message types.
func (t Type) IsError() bool {
	return t == TypeFileOpError || t == TypeRemoteOpError || t == TypeDocumentError
}

// Message is one entry of the conversation log.
type Message struct {
	ID             string         `json:"id"`
	Sender         Sender         `json:"sender"`
	DisplayContent string         `json:"displayContent"`
	ContentForAI   string         `json:"contentForAI"`
	Type           Type           `json:"type"`
	ExtraData      map[string]any `json:"extraData,omitempty"`
	IsHTML         bool           `json:"isHtml"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Visible reports whether the message is shown to the user. Feedback is
// replayed to the model only.
func (m Message) Visible() bool {
	return m.Type != TypeFeedback
}

// NewID returns "<prefix>_<unixMillis>_<rand>".
func NewID(prefix string) string {
	var b [5]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}
