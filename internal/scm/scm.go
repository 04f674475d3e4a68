// Package scm holds the source-control hook invoked around a reproduction
// run. The hook is called explicitly by the scheduler entry point rather
// than wrapping it, so the call site stays visible.
package scm

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/stage"
)

// Hook is invoked after a successful reproduction run, before results are
// returned to the caller.
type Hook interface {
	// PostRun receives the stages whose definitions changed during the run.
	PostRun(ctx context.Context, reproduced []*stage.Stage) error
}

// NoopHook ignores the run outcome. Used by tests and by callers that do
// not want source-control integration.
type NoopHook struct{}

// PostRun implements Hook.
func (NoopHook) PostRun(ctx context.Context, reproduced []*stage.Stage) error { return nil }

// GitReminderHook reminds the user to track rewritten stage files when the
// repository root is under git. It never fails the run.
type GitReminderHook struct {
	// Root is the repository root directory.
	Root string
}

// PostRun implements Hook.
func (h *GitReminderHook) PostRun(ctx context.Context, reproduced []*stage.Stage) error {
	if len(reproduced) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(h.Root, ".git")); err != nil {
		return nil
	}

	logger := ctxlog.FromContext(ctx)
	paths := make([]string, 0, len(reproduced))
	for _, st := range reproduced {
		paths = append(paths, st.Relpath)
	}
	logger.Info("Stage files changed, consider adding them to git.", "files", paths)
	return nil
}
