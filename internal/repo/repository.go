package repo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/restage/internal/stage"
)

// Load resolves a target to its stage. Relative targets are interpreted
// against the repository root. A target that does not point at an existing
// stage file yields a stage.NotFoundError.
func (r *Repo) Load(ctx context.Context, target string) (*stage.Stage, error) {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, filepath.FromSlash(target))
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() || filepath.Ext(path) != stageFileExt {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &stage.NotFoundError{Target: target}
	}

	return r.loader.LoadFile(ctx, path)
}

// Reproduce re-executes a single stage, supplying the terminal confirmation
// prompt when interactive mode asks for one.
func (r *Repo) Reproduce(ctx context.Context, st *stage.Stage, opts stage.ReproduceOptions) (*stage.Stage, error) {
	if opts.Interactive && opts.Confirm == nil {
		opts.Confirm = r.terminalConfirm
	}
	return st.Reproduce(ctx, opts)
}

// Dump persists a stage definition back to its stage file.
func (r *Repo) Dump(ctx context.Context, st *stage.Stage) error {
	return r.loader.WriteFile(ctx, st)
}
