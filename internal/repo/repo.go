// Package repo ties a repository root together: its configuration, its
// stage files, the dependency graph they form, and the exclusive lock held
// while stages are being reproduced.
package repo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/vk/restage/internal/config"
	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/fsutil"
	"github.com/vk/restage/internal/hclstage"
	"github.com/vk/restage/internal/stage"
)

// metaDirName is the repository metadata directory under the root.
const metaDirName = ".restage"

// stageFileExt is the extension stage files are discovered by.
const stageFileExt = ".hcl"

// Repo is an open repository.
type Repo struct {
	root   string
	cfg    *config.Config
	loader *hclstage.Loader
	lock   *flock.Flock

	// confirmIn/confirmOut carry interactive confirmations; they default to
	// the process terminal.
	confirmIn  io.Reader
	confirmOut io.Writer
}

// Open opens the repository at the given root directory and loads its
// configuration.
func Open(ctx context.Context, root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	cfg, err := config.Load(filepath.Join(abs, metaDirName))
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Repository opened.", "root", abs)
	return &Repo{
		root:       abs,
		cfg:        cfg,
		loader:     hclstage.NewLoader(abs),
		confirmIn:  os.Stdin,
		confirmOut: os.Stderr,
	}, nil
}

// Root returns the absolute repository root directory.
func (r *Repo) Root() string {
	return r.root
}

// Config returns the repository configuration.
func (r *Repo) Config() *config.Config {
	return r.cfg
}

// SetConfirmIO redirects interactive confirmation streams, used by tests.
func (r *Repo) SetConfirmIO(in io.Reader, out io.Writer) {
	r.confirmIn = in
	r.confirmOut = out
}

// Stages discovers and parses every stage file below the root, in lexical
// path order.
func (r *Repo) Stages(ctx context.Context) ([]*stage.Stage, error) {
	files, err := fsutil.FindFilesByExtension(r.root, stageFileExt)
	if err != nil {
		return nil, fmt.Errorf("discovering stage files: %w", err)
	}

	stages := make([]*stage.Stage, 0, len(files))
	for _, file := range files {
		st, err := r.loader.LoadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	ctxlog.FromContext(ctx).Debug("Stage files discovered.", "count", len(stages))
	return stages, nil
}

// Lock acquires the exclusive repository lock. It is held for the duration
// of a whole run so no other process mutates stage files or outputs while
// stages are being reproduced.
func (r *Repo) Lock(ctx context.Context) error {
	metaDir := filepath.Join(r.root, metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	r.lock = flock.New(filepath.Join(metaDir, "lock"))
	locked, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring repository lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("repository is locked by another process")
	}
	ctxlog.FromContext(ctx).Debug("Repository lock acquired.", "path", r.lock.Path())
	return nil
}

// Unlock releases the repository lock. It is safe to call when the lock was
// never acquired.
func (r *Repo) Unlock() error {
	if r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}

// terminalConfirm prompts on the repository's confirmation streams and
// reports whether the user answered yes.
func (r *Repo) terminalConfirm(prompt string) bool {
	fmt.Fprintf(r.confirmOut, "%s [y/n] ", prompt)
	scanner := bufio.NewScanner(r.confirmIn)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
