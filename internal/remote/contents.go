package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
)

type contentMeta struct {
	SHA  string `json:"sha"`
	Path string `json:"path"`
}

// FileSHA returns the blob sha of path on branch, or "" when it does not
// exist.
func (c *Client) FileSHA(ctx context.Context, repo Repo, path, branch string) (string, error) {
	var meta contentMeta
	err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/contents/%s?ref=%s", repo, escapePath(path), url.QueryEscape(branch)), nil, &meta)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.SHA, nil
}

// FileResult reports a contents write.
type FileResult struct {
	Path      string
	CommitSHA string
	Created   bool
}

// PutFile creates or updates a single file with its own commit.
func (c *Client) PutFile(ctx context.Context, repo Repo, path, content, message, branch string) (FileResult, error) {
	sha, err := c.FileSHA(ctx, repo, path, branch)
	if err != nil {
		return FileResult{}, err
	}
	if message == "" {
		verb := "Create"
		if sha != "" {
			verb = "Update"
		}
		message = fmt.Sprintf("%s %s", verb, path)
	}

	req := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if sha != "" {
		req["sha"] = sha
	}

	var out struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := c.do(ctx, "PUT", fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path)), req, &out); err != nil {
		return FileResult{}, fmt.Errorf("put %s: %w", path, err)
	}
	return FileResult{Path: path, CommitSHA: out.Commit.SHA, Created: sha == ""}, nil
}

// DeleteFile removes a single file with its own commit.
func (c *Client) DeleteFile(ctx context.Context, repo Repo, path, message, branch string) (FileResult, error) {
	sha, err := c.FileSHA(ctx, repo, path, branch)
	if err != nil {
		return FileResult{}, err
	}
	if sha == "" {
		return FileResult{}, fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	if message == "" {
		message = "Delete " + path
	}

	var out struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	req := map[string]any{"message": message, "sha": sha, "branch": branch}
	if err := c.do(ctx, "DELETE", fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path)), req, &out); err != nil {
		return FileResult{}, fmt.Errorf("delete %s: %w", path, err)
	}
	return FileResult{Path: path, CommitSHA: out.Commit.SHA}, nil
}
