// Package remotetest runs an in-memory GitHub API for tests of the remote
// client and its callers.
package remotetest

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

// Run is a seeded workflow run.
type Run struct {
	ID         int64
	WorkflowID int64
	Branch     string
	Status     string
	Conclusion string
	// Logs holds the files of the run log archive.
	Logs      map[string]string
	Artifacts []Artifact
}

// Artifact is a seeded run artifact.
type Artifact struct {
	ID   int64
	Name string
	Size int64
}

// Dispatch records a workflow_dispatch request.
type Dispatch struct {
	Repo       string
	WorkflowID int64
	Ref        string
	Inputs     map[string]any
}

// PullRequest records a created pull request.
type PullRequest struct {
	Number int
	Title  string
	Head   string
	Base   string
	Body   string
}

type commit struct {
	tree    string
	parents []string
	message string
}

type repository struct {
	owner, name string
	private     bool
	branches    map[string]string
	commits     map[string]commit
	// trees maps a tree sha to its flat snapshot: file path to blob sha,
	// empty directories as "dir/" with no sha.
	trees     map[string]map[string]string
	blobs     map[string]string
	workflows map[int64]string
	runs      []Run
	jobLogs   map[int64]string
	secrets   map[string]string
	pulls     []PullRequest
}

// Server is a fake GitHub API.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	token      string
	user       string
	repos      map[string]*repository
	orgSecrets map[string]map[string]string
	dispatches []Dispatch
	pub, priv  *[32]byte
	requests   []string

	// RaceCommit is consulted before a ref update is checked. Files it
	// returns are committed to the branch first, as a concurrent push would.
	RaceCommit func(repo, branch string) map[string]string
}

// New starts a server that accepts token and stops it when the test ends.
func New(tb testing.TB, token string) *Server {
	tb.Helper()
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatalf("generate key: %v", err)
	}
	s := &Server{
		token:      token,
		user:       "octocat",
		repos:      make(map[string]*repository),
		orgSecrets: make(map[string]map[string]string),
		pub:        pub,
		priv:       priv,
	}
	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

func sum(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func blobSHA(content string) string {
	return sum("blob", strconv.Itoa(len(content)), content)
}

func treeSHA(snapshot map[string]string) string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{"tree"}
	for _, k := range keys {
		parts = append(parts, k, snapshot[k])
	}
	return sum(parts...)
}

func newRepository(owner, name string) *repository {
	return &repository{
		owner:     owner,
		name:      name,
		branches:  make(map[string]string),
		commits:   make(map[string]commit),
		trees:     make(map[string]map[string]string),
		blobs:     make(map[string]string),
		workflows: make(map[int64]string),
		jobLogs:   make(map[int64]string),
		secrets:   make(map[string]string),
	}
}

func (r *repository) fullName() string { return r.owner + "/" + r.name }

func (r *repository) putTree(snapshot map[string]string) string {
	sha := treeSHA(snapshot)
	r.trees[sha] = snapshot
	return sha
}

func (r *repository) putCommit(tree string, parents []string, message string) string {
	sha := sum(append([]string{"commit", tree, message}, parents...)...)
	r.commits[sha] = commit{tree: tree, parents: parents, message: message}
	return sha
}

func (r *repository) snapshot(branch string) map[string]string {
	head, ok := r.branches[branch]
	if !ok {
		return nil
	}
	return r.trees[r.commits[head].tree]
}

// commitFiles advances branch to a commit holding exactly files. Keys with
// a trailing slash are empty trees.
func (r *repository) commitFiles(branch string, files map[string]string, message string) string {
	snapshot := make(map[string]string, len(files))
	for p, content := range files {
		if strings.HasSuffix(p, "/") {
			snapshot[p] = ""
			continue
		}
		sha := blobSHA(content)
		r.blobs[sha] = content
		snapshot[p] = sha
	}
	var parents []string
	if head, ok := r.branches[branch]; ok {
		parents = []string{head}
	}
	sha := r.putCommit(r.putTree(snapshot), parents, message)
	r.branches[branch] = sha
	return sha
}

// Seed creates owner/name if needed and commits files on branch.
func (s *Server) Seed(fullName, branch string, files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo(fullName, true).commitFiles(branch, files, "seed")
}

// Files returns the content at the tip of branch, empty trees as markers
// keyed with a trailing slash.
func (s *Server) Files(fullName, branch string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.repo(fullName, false)
	if r == nil {
		return nil
	}
	out := make(map[string]string)
	for p, sha := range r.snapshot(branch) {
		if sha == "" {
			out[p] = ""
			continue
		}
		out[p] = r.blobs[sha]
	}
	return out
}

// Head returns the commit sha at the tip of branch.
func (s *Server) Head(fullName, branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.repo(fullName, false); r != nil {
		return r.branches[branch]
	}
	return ""
}

// CommitMessage returns the message of the tip commit of branch.
func (s *Server) CommitMessage(fullName, branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.repo(fullName, false); r != nil {
		return r.commits[r.branches[branch]].message
	}
	return ""
}

// HasBranch reports whether branch exists.
func (s *Server) HasBranch(fullName, branch string) bool {
	return s.Head(fullName, branch) != ""
}

// HasRepo reports whether the repository exists.
func (s *Server) HasRepo(fullName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo(fullName, false) != nil
}

// AddWorkflow registers a workflow file.
func (s *Server) AddWorkflow(fullName string, id int64, file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo(fullName, true).workflows[id] = ".github/workflows/" + file
}

// AddRun registers a run. Runs added later are newer.
func (s *Server) AddRun(fullName string, run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.repo(fullName, true)
	r.runs = append(r.runs, run)
}

// AddJobLog registers the log of a job.
func (s *Server) AddJobLog(fullName string, jobID int64, log string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo(fullName, true).jobLogs[jobID] = log
}

// Dispatches returns the recorded workflow dispatches.
func (s *Server) Dispatches() []Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Dispatch(nil), s.dispatches...)
}

// PullRequests returns the pull requests opened on a repository.
func (s *Server) PullRequests(fullName string) []PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.repo(fullName, false); r != nil {
		return append([]PullRequest(nil), r.pulls...)
	}
	return nil
}

// Secret decrypts a stored secret. scope is a repository full name or an
// organization.
func (s *Server) Secret(scope, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sealed string
	if r := s.repo(scope, false); r != nil {
		sealed = r.secrets[name]
	} else if m, ok := s.orgSecrets[scope]; ok {
		sealed = m[name]
	}
	if sealed == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", false
	}
	plain, ok := box.OpenAnonymous(nil, raw, s.pub, s.priv)
	return string(plain), ok
}

// Requests returns "METHOD path" for every request served.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) repo(fullName string, create bool) *repository {
	r, ok := s.repos[fullName]
	if !ok && create {
		owner, name, _ := strings.Cut(fullName, "/")
		r = newRepository(owner, name)
		s.repos[fullName] = r
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// handler wraps h with auth, locking and repository lookup.
func (s *Server) handler(h func(w http.ResponseWriter, r *http.Request, repo *repository)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)

		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			fail(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		var repo *repository
		if owner := r.PathValue("owner"); owner != "" {
			repo = s.repo(owner+"/"+r.PathValue("repo"), false)
			if repo == nil {
				fail(w, http.StatusNotFound, "Not Found")
				return
			}
		}
		h(w, r, repo)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	rp := "/repos/{owner}/{repo}"

	mux.HandleFunc("GET "+rp+"/git/ref/heads/{branch...}", s.handler(s.getRef))
	mux.HandleFunc("GET "+rp+"/git/commits/{sha}", s.handler(s.getCommit))
	mux.HandleFunc("POST "+rp+"/git/commits", s.handler(s.createCommit))
	mux.HandleFunc("GET "+rp+"/git/trees/{sha}", s.handler(s.getTree))
	mux.HandleFunc("POST "+rp+"/git/trees", s.handler(s.createTree))
	mux.HandleFunc("GET "+rp+"/git/blobs/{sha}", s.handler(s.getBlob))
	mux.HandleFunc("POST "+rp+"/git/blobs", s.handler(s.createBlob))
	mux.HandleFunc("POST "+rp+"/git/refs", s.handler(s.createRef))
	mux.HandleFunc("PATCH "+rp+"/git/refs/heads/{branch...}", s.handler(s.updateRef))
	mux.HandleFunc("DELETE "+rp+"/git/refs/heads/{branch...}", s.handler(s.deleteRef))

	mux.HandleFunc("GET "+rp+"/contents/{path...}", s.handler(s.getContents))
	mux.HandleFunc("PUT "+rp+"/contents/{path...}", s.handler(s.putContents))
	mux.HandleFunc("DELETE "+rp+"/contents/{path...}", s.handler(s.deleteContents))

	mux.HandleFunc("POST "+rp+"/pulls", s.handler(s.createPull))

	mux.HandleFunc("GET "+rp+"/actions/workflows", s.handler(s.listWorkflows))
	mux.HandleFunc("GET "+rp+"/actions/workflows/{id}/runs", s.handler(s.listRuns))
	mux.HandleFunc("POST "+rp+"/actions/workflows/{id}/dispatches", s.handler(s.dispatch))
	mux.HandleFunc("GET "+rp+"/actions/runs/{id}/logs", s.handler(s.runLogs))
	mux.HandleFunc("GET "+rp+"/actions/runs/{id}/artifacts", s.handler(s.runArtifacts))
	mux.HandleFunc("GET "+rp+"/actions/jobs/{id}/logs", s.handler(s.jobLogs))

	mux.HandleFunc("GET "+rp+"/actions/secrets/public-key", s.handler(s.publicKey))
	mux.HandleFunc("PUT "+rp+"/actions/secrets/{name}", s.handler(s.putSecret))
	mux.HandleFunc("GET /orgs/{org}/actions/secrets/public-key", s.handler(s.publicKey))
	mux.HandleFunc("PUT /orgs/{org}/actions/secrets/{name}", s.handler(s.putSecret))

	mux.HandleFunc("DELETE "+rp, s.handler(s.deleteRepo))
	mux.HandleFunc("POST /user/repos", s.handler(s.createRepo))
	mux.HandleFunc("POST /orgs/{org}/repos", s.handler(s.createRepo))
	mux.HandleFunc("GET /user/repos", s.handler(s.listRepos))
	mux.HandleFunc("GET /orgs/{org}/repos", s.handler(s.listRepos))
	return mux
}
