package main

import (
	"context"
	"fmt"

	"gen1/internal/core"
	"gen1/internal/docgen"
	"gen1/internal/remote"
	"gen1/internal/session"
	"gen1/internal/store"
)

// resolveProject finds the project named by --project, by id or name. With
// no flag the configured default project is used and created on first use.
func (a *app) resolveProject(ctx context.Context, kv store.KV) (store.Project, error) {
	want := a.project
	if want == "" {
		want = a.cfg.Name
	}
	projects, err := kv.ListProjects(ctx)
	if err != nil {
		return store.Project{}, err
	}
	for _, p := range projects {
		if p.ID == want || p.Name == want {
			return p, nil
		}
	}
	if a.project != "" {
		return store.Project{}, fmt.Errorf("%w: %s", store.ErrProjectNotFound, a.project)
	}
	return kv.CreateProject(ctx, want)
}

// withStore opens the project database for the duration of fn.
func (a *app) withStore(fn func(store.KV) error) error {
	kv, err := store.OpenLocalStore(a.cfg.Storage.Driver, a.cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(kv)
}

// withSession opens the selected project for the duration of fn.
func (a *app) withSession(ctx context.Context, fn func(*session.Session) error) error {
	return a.withStore(func(kv store.KV) error {
		p, err := a.resolveProject(ctx, kv)
		if err != nil {
			return err
		}
		sess, err := session.Open(ctx, kv, p.ID)
		if err != nil {
			return err
		}
		return fn(sess)
	})
}

func (a *app) executor(sess *session.Session) *core.Executor {
	opts := []core.Option{
		core.WithSettings(core.SettingsFromConfig(a.cfg)),
		core.WithArtifactSink(docgen.DirSink{Dir: a.cfg.Executor.ArtifactsDir}),
		core.WithNotifier(newTermNotifier(a.errOut)),
	}
	if tok := a.cfg.Remote.Token; tok != "" {
		ropts := []remote.Option{
			remote.WithTimeout(a.cfg.GetRemoteTimeout()),
			remote.WithConcurrency(a.cfg.Remote.FetchConcurrency),
		}
		if a.cfg.Remote.APIBaseURL != "" {
			ropts = append(ropts, remote.WithBaseURL(a.cfg.Remote.APIBaseURL))
		}
		opts = append(opts, core.WithRemote(remote.NewClient(tok, ropts...)))
	}
	return core.NewExecutor(sess, opts...)
}
