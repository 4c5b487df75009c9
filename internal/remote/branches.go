package remote

import (
	"context"
	"fmt"
)

// CreateBranch creates name from the tip of base.
func (c *Client) CreateBranch(ctx context.Context, repo Repo, name, base string) (string, error) {
	sha, _, err := c.head(ctx, repo, base)
	if err != nil {
		return "", err
	}
	req := map[string]string{"ref": "refs/heads/" + name, "sha": sha}
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/git/refs", repo), req, nil); err != nil {
		return "", fmt.Errorf("create branch %s: %w", name, err)
	}
	return sha, nil
}

// DeleteBranch removes the branch ref.
func (c *Client) DeleteBranch(ctx context.Context, repo Repo, name string) error {
	if err := c.do(ctx, "DELETE", fmt.Sprintf("/repos/%s/git/refs/heads/%s", repo, escapePath(name)), nil, nil); err != nil {
		return fmt.Errorf("delete branch %s: %w", name, err)
	}
	return nil
}

// PullRequest is a created pull request.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	State   string `json:"state"`
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, repo Repo, title, head, base, body string) (PullRequest, error) {
	req := map[string]string{"title": title, "head": head, "base": base, "body": body}
	var pr PullRequest
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/pulls", repo), req, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("create pull request: %w", err)
	}
	return pr, nil
}
