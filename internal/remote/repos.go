package remote

import (
	"context"
	"fmt"
)

// Repository describes a GitHub repository.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// NewRepository describes a repository to create.
type NewRepository struct {
	Name        string
	Description string
	Private     bool
	// Org creates the repository under an organization instead of the
	// authenticated user.
	Org string
}

// CreateRepository creates a repository initialized with a README.
func (c *Client) CreateRepository(ctx context.Context, nr NewRepository) (Repository, error) {
	path := "/user/repos"
	if nr.Org != "" {
		path = fmt.Sprintf("/orgs/%s/repos", nr.Org)
	}
	req := map[string]any{
		"name":        nr.Name,
		"description": nr.Description,
		"private":     nr.Private,
		"auto_init":   true,
	}
	var out Repository
	if err := c.do(ctx, "POST", path, req, &out); err != nil {
		return Repository{}, fmt.Errorf("create repository %s: %w", nr.Name, err)
	}
	return out, nil
}

// DeleteRepository deletes a repository.
func (c *Client) DeleteRepository(ctx context.Context, repo Repo) error {
	if err := c.do(ctx, "DELETE", "/repos/"+repo.String(), nil, nil); err != nil {
		return fmt.Errorf("delete repository %s: %w", repo, err)
	}
	return nil
}

// ListRepositories lists repositories of the authenticated user, or of org
// when set.
func (c *Client) ListRepositories(ctx context.Context, org string) ([]Repository, error) {
	path := "/user/repos?per_page=100&sort=updated"
	if org != "" {
		path = fmt.Sprintf("/orgs/%s/repos?per_page=100&sort=updated", org)
	}
	var out []Repository
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return out, nil
}
