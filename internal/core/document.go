package core

import (
	"fmt"

	"gen1/internal/actions"
	"gen1/internal/conversation"
	"gen1/internal/docgen"
)

// executeDocument renders the document and stores it through the sink.
func (e *Executor) executeDocument(a *actions.CreateDocument) Result {
	format := a.Format()
	res := Result{
		Kind:     a.Kind(),
		Label:    "Created " + format.Label(),
		Target:   docgen.Filename(a.Filename, format),
		Metadata: map[string]any{"format": string(format)},
	}
	if e.sink == nil {
		res.Err = ErrNoArtifactSink
		return res
	}

	blob, err := e.docs.Generate(a.Document())
	if err != nil {
		res.Err = err
		return res
	}
	location, err := e.sink.Save(blob)
	if err != nil {
		res.Err = fmt.Errorf("store %s: %w", blob.Filename, err)
		res.ErrKind = ErrorKindGeneration
		return res
	}

	res.Target = blob.Filename
	res.Metadata["location"] = location
	res.Metadata["size"] = sizeString(len(blob.Data))
	res.Metadata["mediaType"] = blob.MediaType
	res.Success = true

	e.session.Log().Append(documentMessage(format, blob, location))
	return res
}

func documentMessage(format docgen.Format, blob docgen.Blob, location string) conversation.Message {
	md := fmt.Sprintf("Generated %s document **%s** (%s): [Download %s](%s)",
		format.Label(), blob.Filename, sizeString(len(blob.Data)), blob.Filename, location)
	return conversation.Message{
		Sender:         conversation.SenderAI,
		DisplayContent: conversation.RenderMarkdown(md),
		ContentForAI:   fmt.Sprintf("AI created a %s document named %q.", format.Label(), blob.Filename),
		Type:           conversation.TypeDocumentCreated,
		IsHTML:         true,
		ExtraData: map[string]any{
			"filename":  blob.Filename,
			"format":    string(format),
			"mediaType": blob.MediaType,
			"location":  location,
			"size":      sizeString(len(blob.Data)),
		},
	}
}
