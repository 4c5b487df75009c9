package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"gen1/internal/core"
	"gen1/internal/logging"
	"gen1/internal/session"
)

// appliedSuffix marks response files that were already applied.
const appliedSuffix = ".applied"

// settleDelay is how long a file must stay unchanged before it is applied.
var settleDelay = 200 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Apply every response file dropped into DIR",
		Long: `Watches DIR and applies each new response file as an assistant response.
Applied files are renamed with the ` + appliedSuffix + ` suffix. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.withSession(ctx, func(sess *session.Session) error {
				fmt.Fprintf(a.out, "Watching %s\n", args[0])
				return watchDir(ctx, args[0], a.executor(sess), a.out)
			})
		},
	}
}

func isResponseFile(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, appliedSuffix)
}

// watchDir applies files already in dir, then new ones as they settle,
// until ctx is done.
func watchDir(ctx context.Context, dir string, exec *core.Executor, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isResponseFile(e.Name()) {
			applyResponseFile(ctx, exec, filepath.Join(dir, e.Name()), out)
		}
	}

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) || !isResponseFile(ev.Name) {
				continue
			}
			name := ev.Name
			if t, ok := timers[name]; ok {
				t.Reset(settleDelay)
				continue
			}
			timers[name] = time.AfterFunc(settleDelay, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})
		case name := <-ready:
			delete(timers, name)
			applyResponseFile(ctx, exec, name, out)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryCLI).Warn("watch error: %v", err)
		}
	}
}

// applyResponseFile processes one response file and renames it when done.
func applyResponseFile(ctx context.Context, exec *core.Executor, path string, out io.Writer) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Get(logging.CategoryCLI).Warn("read %s: %v", path, err)
		return
	}
	if strings.TrimSpace(string(data)) == "" {
		return
	}

	report, err := exec.ProcessResponse(ctx, string(data))
	if err != nil {
		fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("fail"), filepath.Base(path), err)
		return
	}
	fmt.Fprintf(out, "%s %s: %d action(s), %d failed, %d parse error(s)\n",
		successStyle.Render("ok  "), filepath.Base(path), len(report.Results), len(report.Failed()), report.ParseErrors)
	if err := os.Rename(path, path+appliedSuffix); err != nil {
		logging.Get(logging.CategoryCLI).Warn("rename %s: %v", path, err)
	}
}
