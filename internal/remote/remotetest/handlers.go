package remotetest

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
)

func (s *Server) getRef(w http.ResponseWriter, r *http.Request, repo *repository) {
	branch := r.PathValue("branch")
	head, ok := repo.branches[branch]
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": head, "type": "commit"},
	})
}

func (s *Server) getCommit(w http.ResponseWriter, r *http.Request, repo *repository) {
	sha := r.PathValue("sha")
	c, ok := repo.commits[sha]
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sha":     sha,
		"message": c.message,
		"tree":    map[string]string{"sha": c.tree},
	})
}

func (s *Server) createCommit(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := repo.trees[req.Tree]; !ok {
		fail(w, http.StatusUnprocessableEntity, "Tree SHA does not exist")
		return
	}
	sha := repo.putCommit(req.Tree, req.Parents, req.Message)
	writeJSON(w, http.StatusCreated, map[string]any{"sha": sha, "tree": map[string]string{"sha": req.Tree}})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request, repo *repository) {
	snapshot, ok := repo.trees[r.PathValue("sha")]
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}

	dirs := make(map[string]bool)
	var entries []map[string]any
	for p, sha := range snapshot {
		if sha == "" {
			dirs[strings.TrimSuffix(p, "/")] = true
			continue
		}
		entries = append(entries, map[string]any{"path": p, "mode": "100644", "type": "blob", "sha": sha})
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			dirs[strings.Join(parts[:i], "/")] = true
		}
	}
	for d := range dirs {
		entries = append(entries, map[string]any{"path": d, "mode": "040000", "type": "tree", "sha": sum("dir", d)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i]["path"].(string) < entries[j]["path"].(string) })
	writeJSON(w, http.StatusOK, map[string]any{"sha": r.PathValue("sha"), "tree": entries, "truncated": false})
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		BaseTree string `json:"base_tree"`
		Tree     []struct {
			Path string  `json:"path"`
			Mode string  `json:"mode"`
			Type string  `json:"type"`
			SHA  *string `json:"sha"`
		} `json:"tree"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	next := make(map[string]string)
	if req.BaseTree != "" {
		base, ok := repo.trees[req.BaseTree]
		if !ok {
			fail(w, http.StatusUnprocessableEntity, "base_tree does not exist")
			return
		}
		for p, sha := range base {
			next[p] = sha
		}
	}
	for _, e := range req.Tree {
		if e.SHA == nil {
			delete(next, e.Path)
			continue
		}
		if _, ok := repo.blobs[*e.SHA]; !ok {
			fail(w, http.StatusUnprocessableEntity, "blob "+*e.SHA+" does not exist")
			return
		}
		next[e.Path] = *e.SHA
		for p, sha := range next {
			if sha == "" && strings.HasPrefix(e.Path, p) {
				delete(next, p)
			}
		}
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sha": repo.putTree(next)})
}

func (s *Server) getBlob(w http.ResponseWriter, r *http.Request, repo *repository) {
	sha := r.PathValue("sha")
	content, ok := repo.blobs[sha]
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	// GitHub wraps base64 blob content at 60 columns
	enc := base64.StdEncoding.EncodeToString([]byte(content))
	var sb strings.Builder
	for len(enc) > 60 {
		sb.WriteString(enc[:60] + "\n")
		enc = enc[60:]
	}
	sb.WriteString(enc)
	writeJSON(w, http.StatusOK, map[string]any{"sha": sha, "content": sb.String(), "encoding": "base64", "size": len(content)})
}

func (s *Server) createBlob(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	content := req.Content
	if req.Encoding == "base64" {
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		content = string(data)
	}
	sha := blobSHA(content)
	repo.blobs[sha] = content
	writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
}

func (s *Server) createRef(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	branch := strings.TrimPrefix(req.Ref, "refs/heads/")
	if _, exists := repo.branches[branch]; exists {
		fail(w, http.StatusUnprocessableEntity, "Reference already exists")
		return
	}
	if _, ok := repo.commits[req.SHA]; !ok {
		fail(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}
	repo.branches[branch] = req.SHA
	writeJSON(w, http.StatusCreated, map[string]any{"ref": req.Ref, "object": map[string]string{"sha": req.SHA}})
}

func (s *Server) updateRef(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	branch := r.PathValue("branch")
	if race := s.RaceCommit; race != nil {
		if files := race(repo.fullName(), branch); files != nil {
			repo.commitFiles(branch, files, "concurrent change")
		}
	}
	head, ok := repo.branches[branch]
	if !ok {
		fail(w, http.StatusUnprocessableEntity, "Reference does not exist")
		return
	}
	c, ok := repo.commits[req.SHA]
	if !ok {
		fail(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}
	if !req.Force && !slices.Contains(c.parents, head) {
		fail(w, http.StatusUnprocessableEntity, "Update is not a fast forward")
		return
	}
	repo.branches[branch] = req.SHA
	writeJSON(w, http.StatusOK, map[string]any{"ref": "refs/heads/" + branch, "object": map[string]string{"sha": req.SHA}})
}

func (s *Server) deleteRef(w http.ResponseWriter, r *http.Request, repo *repository) {
	branch := r.PathValue("branch")
	if _, ok := repo.branches[branch]; !ok {
		fail(w, http.StatusUnprocessableEntity, "Reference does not exist")
		return
	}
	delete(repo.branches, branch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getContents(w http.ResponseWriter, r *http.Request, repo *repository) {
	path := r.PathValue("path")
	sha, ok := repo.snapshot(r.URL.Query().Get("ref"))[path]
	if !ok || sha == "" {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "sha": sha, "type": "file"})
}

// commitChange applies one contents change as a new commit on branch.
func (repo *repository) commitChange(branch, path string, blob *string, message string) (string, bool) {
	head, ok := repo.branches[branch]
	if !ok {
		return "", false
	}
	next := make(map[string]string)
	for p, sha := range repo.trees[repo.commits[head].tree] {
		next[p] = sha
	}
	if blob == nil {
		delete(next, path)
	} else {
		next[path] = *blob
	}
	sha := repo.putCommit(repo.putTree(next), []string{head}, message)
	repo.branches[branch] = sha
	return sha, true
}

func (s *Server) putContents(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	path := r.PathValue("path")
	current, exists := repo.snapshot(req.Branch)[path]
	if exists && req.SHA != current {
		fail(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, req.SHA))
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	blob := blobSHA(string(data))
	repo.blobs[blob] = string(data)
	sha, ok := repo.commitChange(req.Branch, path, &blob, req.Message)
	if !ok {
		fail(w, http.StatusNotFound, "Branch not found")
		return
	}
	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]string{"path": path, "sha": blob},
		"commit":  map[string]string{"sha": sha},
	})
}

func (s *Server) deleteContents(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Message string `json:"message"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	path := r.PathValue("path")
	current, exists := repo.snapshot(req.Branch)[path]
	if !exists {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	if req.SHA != current {
		fail(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, req.SHA))
		return
	}
	sha, _ := repo.commitChange(req.Branch, path, nil, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]string{"sha": sha}})
}

func (s *Server) createPull(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Body  string `json:"body"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, b := range []string{req.Head, req.Base} {
		if _, ok := repo.branches[b]; !ok {
			fail(w, http.StatusUnprocessableEntity, "Validation Failed: branch "+b)
			return
		}
	}
	pr := PullRequest{Number: len(repo.pulls) + 1, Title: req.Title, Head: req.Head, Base: req.Base, Body: req.Body}
	repo.pulls = append(repo.pulls, pr)
	writeJSON(w, http.StatusCreated, map[string]any{
		"number":   pr.Number,
		"title":    pr.Title,
		"state":    "open",
		"html_url": fmt.Sprintf("https://github.com/%s/pull/%d", repo.fullName(), pr.Number),
	})
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request, repo *repository) {
	ids := make([]int64, 0, len(repo.workflows))
	for id := range repo.workflows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		path := repo.workflows[id]
		out = append(out, map[string]any{"id": id, "name": path[strings.LastIndex(path, "/")+1:], "path": path, "state": "active"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_count": len(out), "workflows": out})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request, repo *repository) {
	wf, ok := pathID(r)
	if _, known := repo.workflows[wf]; !ok || !known {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	q := r.URL.Query()
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 {
		perPage = 30
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	var matched []map[string]any
	for i := len(repo.runs) - 1; i >= 0; i-- {
		run := repo.runs[i]
		if run.WorkflowID != wf {
			continue
		}
		if b := q.Get("branch"); b != "" && run.Branch != b {
			continue
		}
		if st := q.Get("status"); st != "" && run.Status != st && run.Conclusion != st {
			continue
		}
		matched = append(matched, map[string]any{
			"id":          run.ID,
			"head_branch": run.Branch,
			"status":      run.Status,
			"conclusion":  run.Conclusion,
			"html_url":    fmt.Sprintf("https://github.com/%s/actions/runs/%d", repo.fullName(), run.ID),
		})
	}
	total := len(matched)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	writeJSON(w, http.StatusOK, map[string]any{"total_count": total, "workflow_runs": matched[start:end]})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, repo *repository) {
	wf, ok := pathID(r)
	if _, known := repo.workflows[wf]; !ok || !known {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	var req struct {
		Ref    string         `json:"ref"`
		Inputs map[string]any `json:"inputs"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := repo.branches[req.Ref]; !ok {
		fail(w, http.StatusUnprocessableEntity, "No ref found for: "+req.Ref)
		return
	}
	s.dispatches = append(s.dispatches, Dispatch{Repo: repo.fullName(), WorkflowID: wf, Ref: req.Ref, Inputs: req.Inputs})
	w.WriteHeader(http.StatusNoContent)
}

func (repo *repository) run(id int64) (Run, bool) {
	for _, run := range repo.runs {
		if run.ID == id {
			return run, true
		}
	}
	return Run{}, false
}

func (s *Server) runLogs(w http.ResponseWriter, r *http.Request, repo *repository) {
	id, _ := pathID(r)
	run, ok := repo.run(id)
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(run.Logs))
	for name := range run.Logs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := zw.Create(name)
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		_, _ = f.Write([]byte(run.Logs[name]))
	}
	if err := zw.Close(); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) runArtifacts(w http.ResponseWriter, r *http.Request, repo *repository) {
	id, _ := pathID(r)
	run, ok := repo.run(id)
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	out := make([]map[string]any, 0, len(run.Artifacts))
	for _, a := range run.Artifacts {
		out = append(out, map[string]any{
			"id":                   a.ID,
			"name":                 a.Name,
			"size_in_bytes":        a.Size,
			"archive_download_url": fmt.Sprintf("%s/repos/%s/actions/artifacts/%d/zip", s.URL, repo.fullName(), a.ID),
			"expired":              false,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_count": len(out), "artifacts": out})
}

func (s *Server) jobLogs(w http.ResponseWriter, r *http.Request, repo *repository) {
	id, _ := pathID(r)
	log, ok := repo.jobLogs[id]
	if !ok {
		fail(w, http.StatusNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(log))
}

func (s *Server) publicKey(w http.ResponseWriter, r *http.Request, _ *repository) {
	writeJSON(w, http.StatusOK, map[string]string{
		"key_id": "test-key",
		"key":    base64.StdEncoding.EncodeToString(s.pub[:]),
	})
}

func (s *Server) putSecret(w http.ResponseWriter, r *http.Request, repo *repository) {
	var req struct {
		EncryptedValue string `json:"encrypted_value"`
		KeyID          string `json:"key_id"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.KeyID != "test-key" {
		fail(w, http.StatusUnprocessableEntity, "unknown key_id")
		return
	}
	name := r.PathValue("name")
	if repo != nil {
		repo.secrets[name] = req.EncryptedValue
	} else {
		org := r.PathValue("org")
		if s.orgSecrets[org] == nil {
			s.orgSecrets[org] = make(map[string]string)
		}
		s.orgSecrets[org][name] = req.EncryptedValue
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) deleteRepo(w http.ResponseWriter, r *http.Request, repo *repository) {
	delete(s.repos, repo.fullName())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createRepo(w http.ResponseWriter, r *http.Request, _ *repository) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Private     bool   `json:"private"`
		AutoInit    bool   `json:"auto_init"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := r.PathValue("org")
	if owner == "" {
		owner = s.user
	}
	full := owner + "/" + req.Name
	if _, exists := s.repos[full]; exists {
		fail(w, http.StatusUnprocessableEntity, "name already exists on this account")
		return
	}
	repo := s.repo(full, true)
	repo.private = req.Private
	if req.AutoInit {
		repo.commitFiles("main", map[string]string{"README.md": "# " + req.Name + "\n"}, "Initial commit")
	}
	writeJSON(w, http.StatusCreated, repoJSON(repo))
}

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request, _ *repository) {
	owner := r.PathValue("org")
	if owner == "" {
		owner = s.user
	}
	names := make([]string, 0, len(s.repos))
	for full, repo := range s.repos {
		if repo.owner == owner {
			names = append(names, full)
		}
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, full := range names {
		out = append(out, repoJSON(s.repos[full]))
	}
	writeJSON(w, http.StatusOK, out)
}

func repoJSON(repo *repository) map[string]any {
	return map[string]any{
		"name":           repo.name,
		"full_name":      repo.fullName(),
		"private":        repo.private,
		"html_url":       "https://github.com/" + repo.fullName(),
		"default_branch": "main",
	}
}
