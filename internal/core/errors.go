package core

import (
	"errors"

	"gen1/internal/actions"
	"gen1/internal/articulation"
	"gen1/internal/blocks"
	"gen1/internal/docgen"
	"gen1/internal/remote"
	"gen1/internal/store"
	"gen1/internal/vfs"
)

var (
	// ErrFileOpsDisabled rejects AI-initiated local file operations while
	// they are switched off.
	ErrFileOpsDisabled = errors.New("AI file operations are currently disabled")

	// ErrRemoteNotConfigured is returned when no owner/repo can be resolved
	// for a remote action.
	ErrRemoteNotConfigured = errors.New("invalid GitHub repository URL or missing for this operation")

	// ErrMissingCredential is returned when a remote action runs without a
	// token.
	ErrMissingCredential = errors.New("GitHub Personal Access Token is missing. Please configure it in settings")

	// ErrNoArtifactSink is returned when a document is generated with
	// nowhere to store it.
	ErrNoArtifactSink = errors.New("no artifact sink configured")
)

// ErrorKind classifies the error of a failed result.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindParse       ErrorKind = "parse"
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindDisabled    ErrorKind = "disabled"
	ErrorKindStore       ErrorKind = "store"
	ErrorKindRemote      ErrorKind = "remote"
	ErrorKindGeneration  ErrorKind = "generation"
	ErrorKindPersistence ErrorKind = "persistence"
	ErrorKindInternal    ErrorKind = "internal"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorKind {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, articulation.ErrMalformedBlock), errors.Is(err, articulation.ErrContentBlock):
		return ErrorKindParse
	case errors.Is(err, actions.ErrUnknownAction), errors.Is(err, actions.ErrMissingRequiredField),
		errors.Is(err, actions.ErrInvalidFieldType), errors.Is(err, ErrRemoteNotConfigured),
		errors.Is(err, ErrMissingCredential):
		return ErrorKindValidation
	case errors.Is(err, ErrFileOpsDisabled):
		return ErrorKindDisabled
	case errors.Is(err, vfs.ErrNotFound), errors.Is(err, vfs.ErrConflict), errors.Is(err, vfs.ErrTypeMismatch),
		errors.Is(err, vfs.ErrEmptyPath), errors.Is(err, vfs.ErrCycle),
		errors.Is(err, blocks.ErrMarkerNotFound), errors.Is(err, blocks.ErrMarkersExist), errors.Is(err, blocks.ErrLineRange):
		return ErrorKindStore
	case errors.Is(err, remote.ErrAuth), errors.Is(err, remote.ErrNonFastForward), errors.Is(err, remote.ErrNotFound),
		errors.Is(err, remote.ErrInvalidRepoURL), errors.Is(err, remote.ErrWorkflowNotFound), errors.Is(err, remote.ErrNoRuns),
		errors.As(err, &apiErr):
		return ErrorKindRemote
	case errors.Is(err, docgen.ErrUnsupportedFormat), errors.Is(err, docgen.ErrEmptyDocument), errors.Is(err, ErrNoArtifactSink):
		return ErrorKindGeneration
	case errors.Is(err, store.ErrRevisionConflict), errors.Is(err, store.ErrProjectNotFound):
		return ErrorKindPersistence
	}
	return ErrorKindInternal
}
