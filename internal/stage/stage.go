// Package stage defines the unit of reproducible work: a declared shell
// command with input dependencies, produced outputs, and recorded content
// checksums used to decide whether the stage is stale.
package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vk/restage/internal/ctxlog"
)

// Stage is a single node of the dependency graph, backed by one stage file.
type Stage struct {
	// Path is the absolute path of the stage file.
	Path string
	// Relpath is the stage file's path relative to the repository root,
	// slash-separated. It is the stage's node identifier in the graph.
	Relpath string
	// Name is the label from the stage block header.
	Name string
	// Cmd is the shell command that produces the stage's outputs.
	Cmd string
	// Deps are the input paths the command reads, relative to the stage
	// file's directory unless absolute.
	Deps []string
	// Outs are the output paths the command writes, relative to the stage
	// file's directory unless absolute.
	Outs []string
	// Locked marks a stage whose dependencies should not be reproduced.
	// Locking is advisory: reproduction is still attempted.
	Locked bool
	// Checksums records the md5 of every dep and out as of the last
	// successful reproduction, keyed by the path as declared.
	Checksums map[string]string
}

// cmdChecksumKey is the reserved checksum-map key holding the digest of the
// stage command itself, so editing the command makes the stage stale. The
// colon keeps it out of the space of declared dep/out paths.
const cmdChecksumKey = ":cmd"

// ConfirmFunc asks the user a yes/no question and reports the answer.
type ConfirmFunc func(prompt string) bool

// ReproduceOptions carries the per-run options a single reproduction sees.
// The zero value means: really execute, only if stale, without prompting.
type ReproduceOptions struct {
	// Dry reports what would be reproduced without executing commands or
	// persisting anything.
	Dry bool
	// Force reproduces the stage even when its inputs look unchanged.
	Force bool
	// Interactive asks for confirmation before each reproduction.
	Interactive bool
	// Downstream reproduces dependents instead of dependencies.
	Downstream bool
	// SingleItem reproduces only the target stage, without traversal.
	SingleItem bool
	// IgnoreBuildCache forces every remaining stage in a traversal once
	// any upstream stage has changed.
	IgnoreBuildCache bool
	// Confirm supplies the interactive prompt. Required when Interactive
	// is set; ignored otherwise.
	Confirm ConfirmFunc
}

// ErrAborted is returned when the user declines an interactive confirmation.
var ErrAborted = errors.New("reproduction aborted by the user")

// Reproduce re-executes the stage if it is stale (or unconditionally under
// Force). It returns nil when the stage is unchanged and was skipped, or an
// updated copy of the stage with fresh checksums when reproduction happened.
// Under Dry the command is not run and checksums are left as they were, but
// a stale stage is still reported as reproduced.
func (s *Stage) Reproduce(ctx context.Context, opts ReproduceOptions) (*Stage, error) {
	logger := ctxlog.FromContext(ctx)

	if !opts.Force {
		changed, err := s.changed(ctx)
		if err != nil {
			return nil, err
		}
		if !changed {
			logger.Debug("Stage is up to date, skipping.", "stage", s.Relpath)
			return nil, nil
		}
	}

	if opts.Interactive {
		if opts.Confirm == nil {
			return nil, fmt.Errorf("interactive mode requires a confirmation prompt")
		}
		if !opts.Confirm(fmt.Sprintf("Going to reproduce '%s'. Continue?", s.Relpath)) {
			return nil, ErrAborted
		}
	}

	if opts.Dry {
		logger.Info("Would reproduce stage.", "stage", s.Relpath, "cmd", s.Cmd)
		return s.clone(), nil
	}

	logger.Info("Reproducing stage.", "stage", s.Relpath, "cmd", s.Cmd)
	if err := s.run(ctx); err != nil {
		return nil, err
	}

	updated := s.clone()
	checksums, err := s.computeChecksums()
	if err != nil {
		return nil, err
	}
	updated.Checksums = checksums
	return updated, nil
}

// changed reports whether any dep or out differs from the recorded
// checksums. A stage that has never recorded checksums is always stale,
// as is one with a missing output.
func (s *Stage) changed(ctx context.Context) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	if len(s.Checksums) == 0 {
		return true, nil
	}

	if s.Checksums[cmdChecksumKey] != stringMD5(s.Cmd) {
		logger.Debug("Command changed, stage is stale.", "stage", s.Relpath)
		return true, nil
	}

	for _, p := range append(append([]string{}, s.Deps...), s.Outs...) {
		abs := s.resolve(p)
		sum, err := FileMD5(abs)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("Path missing, stage is stale.", "stage", s.Relpath, "path", p)
				return true, nil
			}
			return false, fmt.Errorf("checksum of '%s': %w", p, err)
		}
		if sum != s.Checksums[p] {
			logger.Debug("Checksum mismatch, stage is stale.", "stage", s.Relpath, "path", p)
			return true, nil
		}
	}

	return false, nil
}

// run executes the stage command through the shell, with the stage file's
// directory as the working directory.
func (s *Stage) run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", s.Cmd)
	cmd.Dir = filepath.Dir(s.Path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command '%s' failed: %w", s.Cmd, err)
	}
	return nil
}

// computeChecksums hashes every dep and out. A dep or out that is missing
// after the command ran is an error: the stage did not produce what it
// declared.
func (s *Stage) computeChecksums() (map[string]string, error) {
	checksums := make(map[string]string, len(s.Deps)+len(s.Outs)+1)
	checksums[cmdChecksumKey] = stringMD5(s.Cmd)
	for _, p := range s.Deps {
		sum, err := FileMD5(s.resolve(p))
		if err != nil {
			return nil, fmt.Errorf("dependency '%s': %w", p, err)
		}
		checksums[p] = sum
	}
	for _, p := range s.Outs {
		sum, err := FileMD5(s.resolve(p))
		if err != nil {
			return nil, fmt.Errorf("output '%s' was not produced: %w", p, err)
		}
		checksums[p] = sum
	}
	return checksums, nil
}

// resolve turns a declared dep/out path into an absolute path, anchored at
// the stage file's directory.
func (s *Stage) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(s.Path), filepath.FromSlash(p))
}

// clone returns a shallow copy with its own checksum map.
func (s *Stage) clone() *Stage {
	c := *s
	c.Deps = append([]string{}, s.Deps...)
	c.Outs = append([]string{}, s.Outs...)
	c.Checksums = make(map[string]string, len(s.Checksums))
	for k, v := range s.Checksums {
		c.Checksums[k] = v
	}
	return &c
}
