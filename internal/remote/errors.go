package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is returned for 401 and 403 responses.
	ErrAuth = errors.New("authentication failed")

	// ErrNonFastForward is returned when a ref update would drop remote
	// commits.
	ErrNonFastForward = errors.New("push rejected: remote branch has new commits")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRepoURL is returned when owner and repository cannot be
	// derived from a URL.
	ErrInvalidRepoURL = errors.New("invalid GitHub repository URL")
)

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    string

	kind error
}

func (e *APIError) Error() string {
	switch e.kind {
	case ErrAuth:
		return fmt.Sprintf("Authentication failed (%d): %s. Check that the GitHub token is valid and has the repo and workflow scopes", e.Status, e.Message)
	case ErrNonFastForward:
		return "Push rejected: Remote branch has new commits. Please pull changes first"
	}
	return fmt.Sprintf("GitHub API %s %s failed (%d): %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap exposes the sentinel class of the error, if any.
func (e *APIError) Unwrap() error {
	return e.kind
}
