package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gen1/internal/logging"
	"gen1/internal/vfs"
)

const (
	modeFile = "100644"
	typeBlob = "blob"
	typeTree = "tree"
)

type gitRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type gitCommit struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

// TreeEntry is one element of a recursive git tree listing.
type TreeEntry struct {
	Path string  `json:"path"`
	Mode string  `json:"mode"`
	Type string  `json:"type"`
	SHA  *string `json:"sha"`
}

type gitTree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type gitBlob struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// PushResult reports a push.
type PushResult struct {
	Changes   int
	CommitSHA string
	// NoOp is set when the remote already matched the local files.
	NoOp bool
}

// PullResult reports a pull. Files is the new persisted store content,
// markers included; Changes counts paths that differ from the local state.
type PullResult struct {
	Files   map[string]string
	Changes int
}

// DefaultCommitMessage is used when a push carries no message.
func DefaultCommitMessage(now time.Time) string {
	return "Gen1 AI Assist: Manual push on " + now.Format("2006-01-02 15:04:05")
}

func (c *Client) head(ctx context.Context, repo Repo, branch string) (commitSHA, treeSHA string, err error) {
	var ref gitRef
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/git/ref/heads/%s", repo, escapePath(branch)), nil, &ref); err != nil {
		return "", "", fmt.Errorf("get branch %s: %w", branch, err)
	}
	var commit gitCommit
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/git/commits/%s", repo, ref.Object.SHA), nil, &commit); err != nil {
		return "", "", fmt.Errorf("get commit %s: %w", ref.Object.SHA, err)
	}
	return ref.Object.SHA, commit.Tree.SHA, nil
}

// Tree lists the recursive tree at the tip of branch.
func (c *Client) Tree(ctx context.Context, repo Repo, branch string) ([]TreeEntry, error) {
	_, _, entries, err := c.tip(ctx, repo, branch)
	return entries, err
}

func (c *Client) tip(ctx context.Context, repo Repo, branch string) (commitSHA, treeSHA string, entries []TreeEntry, err error) {
	commitSHA, treeSHA, err = c.head(ctx, repo, branch)
	if err != nil {
		return "", "", nil, err
	}
	var tree gitTree
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/git/trees/%s?recursive=1", repo, treeSHA), nil, &tree); err != nil {
		return "", "", nil, fmt.Errorf("get tree %s: %w", treeSHA, err)
	}
	if tree.Truncated {
		logging.RemoteWarn("tree %s of %s is truncated; %d entries listed", treeSHA, repo, len(tree.Tree))
	}
	return commitSHA, treeSHA, tree.Tree, nil
}

func (c *Client) blob(ctx context.Context, repo Repo, sha string) (string, error) {
	var b gitBlob
	if err := c.do(ctx, "GET", fmt.Sprintf("/repos/%s/git/blobs/%s", repo, sha), nil, &b); err != nil {
		return "", fmt.Errorf("get blob %s: %w", sha, err)
	}
	if b.Encoding != "base64" {
		return b.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(b.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode blob %s: %w", sha, err)
	}
	return string(data), nil
}

func (c *Client) createBlob(ctx context.Context, repo Repo, content string) (string, error) {
	req := map[string]string{
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		"encoding": "base64",
	}
	var out gitBlob
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/git/blobs", repo), req, &out); err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return out.SHA, nil
}

// fetchBlobs downloads every listed blob with bounded parallelism.
func (c *Client) fetchBlobs(ctx context.Context, repo Repo, shas []string) ([]string, error) {
	out := make([]string, len(shas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, sha := range shas {
		g.Go(func() error {
			content, err := c.blob(gctx, repo, sha)
			if err != nil {
				return err
			}
			out[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Push commits files to branch. Markers and the conversation file are never
// uploaded; remote files missing from files are deleted. The ref update is
// not forced, so concurrent remote commits surface as ErrNonFastForward.
func (c *Client) Push(ctx context.Context, repo Repo, branch, message string, files map[string]string) (PushResult, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "push")
	defer timer.Stop()

	headSHA, baseTree, entries, err := c.tip(ctx, repo, branch)
	if err != nil {
		return PushResult{}, err
	}

	remoteBlobs := make(map[string]string)
	for _, e := range entries {
		if e.Type == typeBlob && e.SHA != nil {
			remoteBlobs[e.Path] = *e.SHA
		}
	}

	local := make([]string, 0, len(files))
	uploaded := make(map[string]bool, len(files))
	for p, content := range files {
		if vfs.IsDir(p) || p == vfs.ConversationFile || content == vfs.DirectoryMarker {
			continue
		}
		local = append(local, p)
		uploaded[p] = true
	}
	sort.Strings(local)

	var existing, existingSHAs []string
	for _, p := range local {
		if sha, ok := remoteBlobs[p]; ok {
			existing = append(existing, p)
			existingSHAs = append(existingSHAs, sha)
		}
	}
	remoteContent, err := c.fetchBlobs(ctx, repo, existingSHAs)
	if err != nil {
		return PushResult{}, err
	}
	current := make(map[string]string, len(existing))
	for i, p := range existing {
		current[p] = remoteContent[i]
	}

	var tree []TreeEntry
	changes := 0
	for _, p := range local {
		if _, onRemote := remoteBlobs[p]; onRemote && current[p] == files[p] {
			continue
		}
		newSHA, err := c.createBlob(ctx, repo, files[p])
		if err != nil {
			return PushResult{}, err
		}
		tree = append(tree, TreeEntry{Path: p, Mode: modeFile, Type: typeBlob, SHA: &newSHA})
		changes++
	}

	var deleted []string
	for p := range remoteBlobs {
		if !uploaded[p] && p != vfs.ConversationFile {
			deleted = append(deleted, p)
		}
	}
	sort.Strings(deleted)
	for _, p := range deleted {
		tree = append(tree, TreeEntry{Path: p, Mode: modeFile, Type: typeBlob, SHA: nil})
		changes++
	}

	if changes == 0 {
		logging.Remote("push %s@%s: no local changes", repo, branch)
		return PushResult{NoOp: true, CommitSHA: headSHA}, nil
	}

	var newTree gitTree
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/git/trees", repo),
		map[string]any{"base_tree": baseTree, "tree": tree}, &newTree); err != nil {
		return PushResult{}, fmt.Errorf("create tree: %w", err)
	}

	if message == "" {
		message = DefaultCommitMessage(time.Now())
	}
	var commit gitCommit
	if err := c.do(ctx, "POST", fmt.Sprintf("/repos/%s/git/commits", repo),
		map[string]any{"message": message, "tree": newTree.SHA, "parents": []string{headSHA}}, &commit); err != nil {
		return PushResult{}, fmt.Errorf("create commit: %w", err)
	}

	if err := c.do(ctx, "PATCH", fmt.Sprintf("/repos/%s/git/refs/heads/%s", repo, escapePath(branch)),
		map[string]any{"sha": commit.SHA, "force": false}, nil); err != nil {
		return PushResult{}, fmt.Errorf("update ref: %w", err)
	}

	logging.Remote("pushed %d changes to %s@%s as %s", changes, repo, branch, commit.SHA)
	return PushResult{Changes: changes, CommitSHA: commit.SHA}, nil
}

// Pull fetches branch and computes the store content that mirrors it. local
// is the current persisted content, used to count changes. The conversation
// file is never part of the result; callers keep their own copy.
func (c *Client) Pull(ctx context.Context, repo Repo, branch string, local map[string]string) (PullResult, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "pull")
	defer timer.Stop()

	entries, err := c.Tree(ctx, repo, branch)
	if err != nil {
		return PullResult{}, err
	}

	var paths, shas, dirs []string
	for _, e := range entries {
		switch {
		case e.Type == typeBlob && e.SHA != nil && e.Path != vfs.ConversationFile:
			paths = append(paths, e.Path)
			shas = append(shas, *e.SHA)
		case e.Type == typeTree:
			dirs = append(dirs, vfs.DirPath(e.Path))
		}
	}

	contents, err := c.fetchBlobs(ctx, repo, shas)
	if err != nil {
		return PullResult{}, err
	}

	files := make(map[string]string, len(paths)+len(dirs))
	changes := 0
	for i, p := range paths {
		p = vfs.NormalizePath(p)
		files[p] = contents[i]
		if old, ok := local[p]; !ok || old != contents[i] {
			changes++
		}
	}

	for _, d := range dirs {
		if hasChild(files, dirs, d) {
			continue
		}
		files[d] = vfs.DirectoryMarker
		if local[d] != vfs.DirectoryMarker {
			changes++
		}
	}

	for p, v := range local {
		if p == vfs.ConversationFile {
			continue
		}
		if _, ok := files[p]; ok {
			continue
		}
		// a marker superseded by pulled content is dropped silently
		if v == vfs.DirectoryMarker && hasPrefix(files, p) {
			continue
		}
		changes++
	}

	logging.Remote("pulled %s@%s: %d entries, %d changes", repo, branch, len(files), changes)
	return PullResult{Files: files, Changes: changes}, nil
}

// hasChild reports whether any blob or other tree sits under dir.
func hasChild(files map[string]string, dirs []string, dir string) bool {
	if hasPrefix(files, dir) {
		return true
	}
	for _, d := range dirs {
		if d != dir && strings.HasPrefix(d, dir) {
			return true
		}
	}
	return false
}

func hasPrefix(files map[string]string, dir string) bool {
	for p := range files {
		if p != dir && strings.HasPrefix(p, dir) {
			return true
		}
	}
	return false
}
